/*
 * @module api/controllers/record_controller
 * @description 记录控制器，提供落库记录与质量报告的查询接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow HTTP请求 -> 参数验证 -> 仓储查询 -> 响应返回
 * @rules 分页大小上限100；记录不存在返回404
 * @dependencies service/storage
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"commerce-pipeline/service/storage"
)

// RecordController 记录控制器
type RecordController struct {
	repository *storage.RecordRepository
}

// NewRecordController 创建记录控制器
func NewRecordController(repository *storage.RecordRepository) *RecordController {
	return &RecordController{
		repository: repository,
	}
}

// ListRecords 分页查询落库记录
// @Summary 记录列表
// @Tags 记录
// @Produce json
// @Param entity_type path string true "实体类型"
// @Success 200 {object} PaginatedResponse
// @Router /records/{entity_type} [get]
func (c *RecordController) ListRecords(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")

	page, size := 1, 20
	if parsed, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && parsed > 0 {
		page = parsed
	}
	if parsed, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && parsed > 0 && parsed <= 100 {
		size = parsed
	}

	rows, total, err := c.repository.ListRecords(entityType, page, size)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询记录列表失败", err))
		return
	}

	render.JSON(w, r, NewPaginatedResponse("查询记录列表成功", rows, total, page, size))
}

// GetRecord 按实体键查询单条落库记录
// @Summary 记录详情
// @Tags 记录
// @Produce json
// @Success 200 {object} APIResponse
// @Router /records/{entity_type}/{source_id} [get]
func (c *RecordController) GetRecord(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")
	sourceID := chi.URLParam(r, "source_id")

	row, err := c.repository.GetRecord(entityType, sourceID)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("记录不存在", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询记录成功", row))
}

// ListQualityReports 查询最近的质量报告
// @Summary 质量报告列表
// @Tags 记录
// @Produce json
// @Success 200 {object} APIResponse
// @Router /quality-reports [get]
func (c *RecordController) ListQualityReports(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")

	limit := 10
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 && parsed <= 100 {
		limit = parsed
	}

	rows, err := c.repository.ListQualityReports(entityType, limit)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询质量报告失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询质量报告成功", rows))
}
