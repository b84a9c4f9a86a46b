/*
 * @module api/controllers/pipeline_controller
 * @description 管道控制器，提供批量处理提交与运行报告导出接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow HTTP请求 -> 参数验证 -> 管道执行 -> 结果落库 -> 响应返回
 * @rules 实体类型非法返回400；管道运行失败通过结果状态表达而非HTTP错误
 * @dependencies service/pipeline, service/storage
 * @refs api/routes.go
 */

package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"commerce-pipeline/service/models"
	"commerce-pipeline/service/pipeline"
)

// PipelineController 管道控制器
type PipelineController struct {
	pipeline   *pipeline.Pipeline
	repository RecordSaver
	metrics    RunObserver
}

// RecordSaver 幸存记录与质量报告的持久化入口
type RecordSaver interface {
	SaveSurvivors(entityType string, records []map[string]interface{}) (int, error)
	SaveQualityReport(report *models.QualityReport) error
}

// RunObserver 管道运行指标观测入口
type RunObserver interface {
	ObserveRun(result *models.PipelineResult)
}

// NewPipelineController 创建管道控制器，协作对象由路由装配层注入
func NewPipelineController(p *pipeline.Pipeline, repository RecordSaver, metrics RunObserver) *PipelineController {
	return &PipelineController{
		pipeline:   p,
		repository: repository,
		metrics:    metrics,
	}
}

// ProcessRequest 批量处理请求
type ProcessRequest struct {
	EntityType string                   `json:"entity_type" binding:"required" example:"product"`
	Records    []map[string]interface{} `json:"records" binding:"required"`
	Config     models.PipelineConfig    `json:"config,omitempty"`
	Persist    bool                     `json:"persist,omitempty"` // 运行成功后是否落库
}

// Process 提交一批原始记录执行完整管道
// @Summary 批量处理记录
// @Description 对一批原始记录执行清洗、校验、去重、版本管理和质量评估
// @Tags 管道
// @Accept json
// @Produce json
// @Param request body ProcessRequest true "处理请求"
// @Success 200 {object} APIResponse
// @Router /pipeline/process [post]
func (c *PipelineController) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}
	if len(req.Records) == 0 {
		render.JSON(w, r, BadRequestResponse("记录列表不能为空", nil))
		return
	}

	result, err := c.pipeline.Process(req.Records, req.EntityType, req.Config)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("管道执行失败", err))
		return
	}

	if c.metrics != nil {
		c.metrics.ObserveRun(result)
	}

	if req.Persist && result.Status != models.PipelineFailed {
		if _, err := c.repository.SaveSurvivors(req.EntityType, result.SurvivingRecords); err != nil {
			slog.Error("幸存记录落库失败", "entity_type", req.EntityType, "error", err)
			result.Warnings = append(result.Warnings, "处理结果落库失败")
		}
		if err := c.repository.SaveQualityReport(result.QualityReport); err != nil {
			slog.Error("质量报告落库失败", "entity_type", req.EntityType, "error", err)
		}
	}

	render.JSON(w, r, SuccessResponse("管道执行完成", pipeline.BuildReport(result)))
}
