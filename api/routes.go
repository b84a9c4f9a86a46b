/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"commerce-pipeline/api/controllers"
	"commerce-pipeline/service"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 批量处理
	r.Route("/pipeline", func(r chi.Router) {
		pipelineController := controllers.NewPipelineController(
			service.GlobalPipeline, service.GlobalRecordRepository, service.GlobalPipelineMetrics)
		r.Post("/process", pipelineController.Process)
	})

	// 版本管理
	r.Route("/versions", func(r chi.Router) {
		versionController := controllers.NewVersionController(service.GlobalPipeline.VersionManager())
		r.Get("/{entity_type}/{entity_id}", versionController.GetHistory)
		r.Get("/{entity_type}/{entity_id}/current", versionController.GetCurrent)
		r.Get("/{entity_type}/{entity_id}/compare", versionController.Compare)
		r.Post("/{entity_type}/{entity_id}/revert", versionController.Revert)
	})

	// 落库记录与质量报告查询
	recordController := controllers.NewRecordController(service.GlobalRecordRepository)
	r.Route("/records", func(r chi.Router) {
		r.Get("/{entity_type}", recordController.ListRecords)
		r.Get("/{entity_type}/{source_id}", recordController.GetRecord)
	})
	r.Get("/quality-reports", recordController.ListQualityReports)
}
