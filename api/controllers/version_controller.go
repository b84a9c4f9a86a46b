/*
 * @module api/controllers/version_controller
 * @description 版本控制器，提供实体版本历史查询、差异比较与回滚接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow HTTP请求 -> 参数验证 -> 版本管理器调用 -> 响应返回
 * @rules 回滚到删除版本返回400；版本不存在返回404
 * @dependencies service/pipeline
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"commerce-pipeline/service/pipeline"
)

// VersionController 版本控制器
type VersionController struct {
	versionManager *pipeline.VersionManager
}

// NewVersionController 创建版本控制器
func NewVersionController(versionManager *pipeline.VersionManager) *VersionController {
	return &VersionController{
		versionManager: versionManager,
	}
}

// GetHistory 查询实体版本历史
// @Summary 版本历史
// @Description 按实体键查询版本历史，limit限制返回的最近版本数
// @Tags 版本
// @Produce json
// @Param entity_type path string true "实体类型"
// @Param entity_id path string true "实体ID"
// @Success 200 {object} APIResponse
// @Router /versions/{entity_type}/{entity_id} [get]
func (c *VersionController) GetHistory(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history := c.versionManager.GetHistory(entityType, entityID, limit)
	if len(history) == 0 {
		render.JSON(w, r, NotFoundResponse("实体没有版本记录", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("获取版本历史成功", history))
}

// GetCurrent 查询实体当前版本
// @Summary 当前版本
// @Tags 版本
// @Produce json
// @Success 200 {object} APIResponse
// @Router /versions/{entity_type}/{entity_id}/current [get]
func (c *VersionController) GetCurrent(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")

	current := c.versionManager.GetCurrent(entityType, entityID)
	if current == nil {
		render.JSON(w, r, NotFoundResponse("实体没有版本记录", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("获取当前版本成功", current))
}

// Compare 比较同一实体的两个版本
// @Summary 版本比较
// @Description 输出两个版本之间的字段级差异
// @Tags 版本
// @Produce json
// @Param v1 query string true "版本ID1"
// @Param v2 query string true "版本ID2"
// @Success 200 {object} APIResponse
// @Router /versions/{entity_type}/{entity_id}/compare [get]
func (c *VersionController) Compare(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")
	versionID1 := r.URL.Query().Get("v1")
	versionID2 := r.URL.Query().Get("v2")

	if versionID1 == "" || versionID2 == "" {
		render.JSON(w, r, BadRequestResponse("必须提供v1和v2两个版本ID", nil))
		return
	}

	diffs, err := c.versionManager.Compare(entityType, entityID, versionID1, versionID2)
	if err != nil {
		render.JSON(w, r, NotFoundResponse("版本比较失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("版本比较成功", diffs))
}

// RevertRequest 版本回滚请求
type RevertRequest struct {
	VersionID string `json:"version_id" binding:"required"`
	CreatedBy string `json:"created_by,omitempty" example:"admin"`
}

// Revert 回滚实体到指定版本
// @Summary 版本回滚
// @Description 创建一个数据等于目标版本的新版本，历史不被截断
// @Tags 版本
// @Accept json
// @Produce json
// @Param request body RevertRequest true "回滚请求"
// @Success 200 {object} APIResponse
// @Router /versions/{entity_type}/{entity_id}/revert [post]
func (c *VersionController) Revert(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entity_type")
	entityID := chi.URLParam(r, "entity_id")

	var req RevertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}
	if req.VersionID == "" {
		render.JSON(w, r, BadRequestResponse("版本ID不能为空", nil))
		return
	}

	version, err := c.versionManager.Revert(entityType, entityID, req.VersionID, req.CreatedBy)
	if err != nil {
		if strings.Contains(err.Error(), "不存在") {
			render.JSON(w, r, NotFoundResponse("版本回滚失败", err))
		} else {
			render.JSON(w, r, BadRequestResponse("版本回滚失败", err))
		}
		return
	}

	render.JSON(w, r, SuccessResponse("版本回滚成功", version))
}
