/*
 * @module service/models/persistence
 * @description 持久化模型，管道幸存记录与质量报告的落库结构
 * @architecture 数据模型层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 管道运行 -> 幸存记录上写 -> 质量报告归档
 * @rules 幸存记录按 (entity_type, source_id) 上写；管道核心不直接访问数据库
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/storage/record_repository.go
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcessedRecord 清洗后幸存记录的落库形态
type ProcessedRecord struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	EntityType   string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_processed_entity_source" json:"entity_type"`
	SourceID     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_processed_entity_source" json:"source_id"`
	Data         JSONB     `gorm:"type:jsonb;not null" json:"data"` // 规范化后的完整记录
	QualityScore float64   `json:"quality_score"`                   // 代表记录完整度评分 (0-100)
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ProcessedRecord) TableName() string {
	return "processed_records"
}

// BeforeCreate 创建前钩子
func (p *ProcessedRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// QualityReportRecord 质量报告的落库形态
type QualityReportRecord struct {
	ID           string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	EntityType   string    `gorm:"type:varchar(20);not null;index" json:"entity_type"`
	OverallScore float64   `json:"overall_score"`
	QualityLevel string    `gorm:"type:varchar(20);not null" json:"quality_level"`
	SampleSize   int       `json:"sample_size"`
	Report       JSONB     `gorm:"type:jsonb;not null" json:"report"` // 完整报告文档
	MeasuredAt   time.Time `gorm:"index" json:"measured_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 指定表名
func (QualityReportRecord) TableName() string {
	return "quality_report_records"
}

// BeforeCreate 创建前钩子
func (q *QualityReportRecord) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}
