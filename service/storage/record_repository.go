/*
 * @module service/storage/record_repository
 * @description 记录仓储，管道幸存记录按实体键上写入库，质量报告按批归档
 * @architecture 数据访问层 - 仓储模式
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 管道运行结束 -> 幸存记录上写 -> 质量报告归档
 * @rules 同一 (entity_type, source_id) 只保留最新形态；缺少 source_id 的记录不落库
 * @dependencies gorm.io/gorm, gorm.io/gorm/clause
 * @refs service/models/persistence.go, service/pipeline/pipeline.go
 */

package storage

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"commerce-pipeline/service/meta"
	"commerce-pipeline/service/models"
	"commerce-pipeline/service/pipeline"
	"commerce-pipeline/service/utils"
)

// RecordRepository 处理结果仓储
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建记录仓储
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// SaveSurvivors 上写一批幸存记录，返回落库数量
// 冲突键为 (entity_type, source_id)，重复上写更新数据与评分
func (r *RecordRepository) SaveSurvivors(entityType string, records []map[string]interface{}) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	dedup := pipeline.NewDeduplicator()
	scoreGroups := meta.ScoreGroupsFor(entityType)

	rows := make([]models.ProcessedRecord, 0, len(records))
	for _, record := range records {
		sourceID := utils.ToString(record["source_id"])
		if sourceID == "" {
			continue
		}
		rows = append(rows, models.ProcessedRecord{
			EntityType:   entityType,
			SourceID:     sourceID,
			Data:         models.JSONB(record),
			QualityScore: dedup.CompletenessScore(record, scoreGroups),
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entity_type"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"data", "quality_score", "updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("保存处理记录失败: %w", err)
	}

	slog.Info("处理记录落库完成", "entity_type", entityType, "count", len(rows))
	return len(rows), nil
}

// SaveQualityReport 归档一份批次质量报告
func (r *RecordRepository) SaveQualityReport(report *models.QualityReport) error {
	if report == nil {
		return nil
	}

	row := models.QualityReportRecord{
		EntityType:   string(report.EntityType),
		OverallScore: report.OverallScore,
		QualityLevel: string(report.QualityLevel),
		SampleSize:   report.SampleSize,
		Report:       qualityReportDocument(report),
		MeasuredAt:   report.MeasuredAt,
	}

	if err := r.db.Create(&row).Error; err != nil {
		return fmt.Errorf("保存质量报告失败: %w", err)
	}
	return nil
}

// qualityReportDocument 报告的JSONB文档形态
func qualityReportDocument(report *models.QualityReport) models.JSONB {
	metrics := make([]interface{}, 0, len(report.Metrics))
	for _, metric := range report.Metrics {
		metrics = append(metrics, map[string]interface{}{
			"name":        metric.Name,
			"dimension":   string(metric.Dimension),
			"value":       metric.Value,
			"threshold":   metric.Threshold,
			"status":      string(metric.Status),
			"description": metric.Description,
			"details":     metric.Details,
		})
	}

	issues := make([]interface{}, 0, len(report.Issues))
	for _, issue := range report.Issues {
		issues = append(issues, map[string]interface{}{
			"metric":      issue.Metric,
			"level":       string(issue.Level),
			"description": issue.Description,
		})
	}

	return models.JSONB{
		"metrics":         metrics,
		"issues":          issues,
		"recommendations": report.Recommendations,
	}
}

// GetRecord 按实体键读取落库记录
func (r *RecordRepository) GetRecord(entityType, sourceID string) (*models.ProcessedRecord, error) {
	var row models.ProcessedRecord
	err := r.db.Where("entity_type = ? AND source_id = ?", entityType, sourceID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("记录不存在: %s/%s", entityType, sourceID)
		}
		return nil, err
	}
	return &row, nil
}

// ListRecords 按实体类型分页列出落库记录，按更新时间倒序
func (r *RecordRepository) ListRecords(entityType string, page, pageSize int) ([]models.ProcessedRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.db.Model(&models.ProcessedRecord{}).Where("entity_type = ?", entityType)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProcessedRecord
	err := query.Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	return rows, total, err
}

// ListQualityReports 按实体类型列出最近的质量报告
func (r *RecordRepository) ListQualityReports(entityType string, limit int) ([]models.QualityReportRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var rows []models.QualityReportRecord
	query := r.db.Model(&models.QualityReportRecord{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	err := query.Order("measured_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// PurgeStaleRecords 清理长期未更新的落库记录，返回删除数量
func (r *RecordRepository) PurgeStaleRecords(entityType string, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		return 0, fmt.Errorf("清理天数必须大于0")
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	result := r.db.Where("entity_type = ? AND updated_at < ?", entityType, cutoff).
		Delete(&models.ProcessedRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理过期记录失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
