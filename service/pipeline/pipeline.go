/*
 * @module service/pipeline/pipeline
 * @description 管道编排器，按清洗、校验、去重、版本、质量监控的固定顺序驱动单次批处理运行
 * @architecture 管道模式 - 阶段顺序执行，单条记录失败降级为 partial，阶段崩溃降级为 failed
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow pending -> running -> completed | partial | failed
 * @rules processed + failed == total 恒成立；跳过的阶段不产生对应产物；恐慌仅在编排器边界恢复
 * @dependencies fmt, log/slog, time
 * @refs cleaner.go, validator.go, deduplicator.go, version_manager.go, quality_monitor.go
 */

package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"commerce-pipeline/service/models"
	"commerce-pipeline/service/utils"
)

// Pipeline 处理管道编排器
type Pipeline struct {
	cleaner        *Cleaner
	validator      *Validator
	deduplicator   *Deduplicator
	versionManager *VersionManager
	qualityMonitor *QualityMonitor
}

// NewPipeline 创建处理管道，各阶段组件内部构建
func NewPipeline() *Pipeline {
	return &Pipeline{
		cleaner:        NewCleaner(),
		validator:      NewValidator(),
		deduplicator:   NewDeduplicator(),
		versionManager: NewVersionManager(),
		qualityMonitor: NewQualityMonitor(),
	}
}

// VersionManager 暴露版本管理器供查询接口使用
func (p *Pipeline) VersionManager() *VersionManager {
	return p.versionManager
}

// Process 对一批原始记录执行完整管道
// 实体类型非法时直接返回错误；阶段级恐慌被恢复并标记运行失败
func (p *Pipeline) Process(rawRecords []map[string]interface{}, entityType string, config models.PipelineConfig) (result *models.PipelineResult, err error) {
	kind, err := models.ParseEntityKind(entityType)
	if err != nil {
		return nil, err
	}

	result = &models.PipelineResult{
		EntityType:   kind,
		Status:       models.PipelineRunning,
		TotalRecords: len(rawRecords),
		StartedAt:    time.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Status = models.PipelineFailed
			result.Errors = append(result.Errors, fmt.Sprintf("管道运行发生不可恢复错误: %v", r))
			result.CompletedAt = time.Now()
			slog.Error("管道运行崩溃", "entity_type", kind, "panic", r)
			err = nil // 失败信息通过结果对象传达
		}
	}()

	slog.Info("管道运行开始", "entity_type", kind, "total_records", len(rawRecords))

	// 阶段一：清洗
	cleaned := p.runCleaning(rawRecords, kind, config, result)

	// 阶段二：校验，含错误级发现的记录被剔除
	surviving := p.runValidation(cleaned, kind, config, result)

	// 阶段三：去重，仅报告不剔除
	if !config.SkipDeduplication {
		result.DuplicateGroups = p.deduplicator.FindDuplicates(surviving, kind)
		if len(result.DuplicateGroups) > 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("发现 %d 个疑似重复组", len(result.DuplicateGroups)))
		}
	}

	// 阶段四：版本管理
	if !config.SkipVersioning {
		p.runVersioning(surviving, kind, config, result)
	}

	// 阶段五：质量监控
	if !config.SkipQualityMonitoring {
		result.QualityReport = p.qualityMonitor.assess(surviving, DefaultQualitySampleSize, kind)
	}

	result.SurvivingRecords = surviving
	result.ProcessedRecords = len(surviving)
	result.FailedRecords = result.TotalRecords - result.ProcessedRecords
	result.CompletedAt = time.Now()

	if result.FailedRecords > 0 {
		result.Status = models.PipelinePartial
	} else {
		result.Status = models.PipelineCompleted
	}

	slog.Info("管道运行结束",
		"entity_type", kind,
		"status", result.Status,
		"processed", result.ProcessedRecords,
		"failed", result.FailedRecords,
		"duration_seconds", result.ProcessingSeconds())
	return result, nil
}

// runCleaning 清洗阶段：nil 记录标记失败，其余记录逐条清洗
// 跳过清洗时原始记录原样进入后续阶段，但 nil 记录仍被剔除
func (p *Pipeline) runCleaning(rawRecords []map[string]interface{}, kind models.EntityKind,
	config models.PipelineConfig, result *models.PipelineResult) []map[string]interface{} {

	cleaned := make([]map[string]interface{}, 0, len(rawRecords))
	for i, raw := range rawRecords {
		if raw == nil {
			result.CleaningResults = append(result.CleaningResults, models.CleaningOutcome{
				Index:  i,
				Status: models.CleaningFailed,
				Error:  "记录为空",
			})
			continue
		}

		record := raw
		if !config.SkipCleaning {
			record = p.cleaner.Clean(raw, kind)
		}

		result.CleaningResults = append(result.CleaningResults, models.CleaningOutcome{
			Index:    i,
			Status:   models.CleaningSuccess,
			SourceID: utils.ToString(record["source_id"]),
		})
		cleaned = append(cleaned, record)
	}
	return cleaned
}

// runValidation 校验阶段：存在错误级发现的记录被剔除，发现列表与清洗后记录一一对应
func (p *Pipeline) runValidation(cleaned []map[string]interface{}, kind models.EntityKind,
	config models.PipelineConfig, result *models.PipelineResult) []map[string]interface{} {

	if config.SkipValidation {
		return cleaned
	}

	surviving := make([]map[string]interface{}, 0, len(cleaned))
	for _, record := range cleaned {
		findings := p.validator.Validate(record, kind)
		result.ValidationFindings = append(result.ValidationFindings, findings)

		if models.HasError(findings) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("记录校验未通过: source_id=%s", utils.ToString(record["source_id"])))
			continue
		}
		surviving = append(surviving, record)
	}
	return surviving
}

// runVersioning 版本阶段：按 source_id 定位实体，存在当前版本时记为更新
// 缺少 source_id 的记录跳过建版并记警告
func (p *Pipeline) runVersioning(surviving []map[string]interface{}, kind models.EntityKind,
	config models.PipelineConfig, result *models.PipelineResult) {

	for _, record := range surviving {
		entityID := utils.ToString(record["source_id"])
		if entityID == "" {
			result.Warnings = append(result.Warnings, "记录缺少source_id，跳过版本创建")
			continue
		}

		changeType := models.ChangeCreate
		var previousData map[string]interface{}
		if current := p.versionManager.GetCurrent(string(kind), entityID); current != nil {
			changeType = models.ChangeUpdate
			previousData = current.Data
		}

		if _, err := p.versionManager.CreateVersion(string(kind), entityID, record,
			changeType, previousData, config.CreatedBy, nil); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("版本创建失败: source_id=%s, %v", entityID, err))
			continue
		}
		result.VersionsCreated++
	}
}
