/*
 * @module service/models/quality
 * @description 数据质量评估模型，包含五维质量指标、质量报告和改进建议
 * @architecture 数据模型层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 抽样 -> 维度计算 -> 等级判定 -> 报告生成
 * @rules 指标值和总分均在 [0,1] 区间；等级由指标值相对阈值判定
 * @dependencies time
 * @refs service/pipeline/quality_monitor.go
 */

package models

import "time"

// QualityDimension 质量维度
type QualityDimension string

const (
	DimensionCompleteness QualityDimension = "completeness" // 完整性
	DimensionAccuracy     QualityDimension = "accuracy"     // 准确性
	DimensionValidity     QualityDimension = "validity"     // 有效性
	DimensionConsistency  QualityDimension = "consistency"  // 一致性
	DimensionUniqueness   QualityDimension = "uniqueness"   // 唯一性
)

// QualityLevel 质量等级
type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent"
	QualityGood      QualityLevel = "good"
	QualityFair      QualityLevel = "fair"
	QualityPoor      QualityLevel = "poor"
	QualityCritical  QualityLevel = "critical"
)

// QualityMetric 单维度质量指标
type QualityMetric struct {
	Name        string                 `json:"name"`
	Dimension   QualityDimension       `json:"dimension"`
	Value       float64                `json:"value"`     // [0,1]
	Threshold   float64                `json:"threshold"` // 达标阈值
	Status      QualityLevel           `json:"status"`
	Description string                 `json:"description"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// QualityIssue 质量问题，来源于等级为 poor/critical 的指标
type QualityIssue struct {
	Metric      string       `json:"metric"`
	Level       QualityLevel `json:"level"`
	Description string       `json:"description"`
}

// QualityReport 批次质量报告
type QualityReport struct {
	EntityType      EntityKind      `json:"entity_type"`
	OverallScore    float64         `json:"overall_score"` // 加权平均，[0,1]
	QualityLevel    QualityLevel    `json:"quality_level"`
	Metrics         []QualityMetric `json:"metrics"`
	Issues          []QualityIssue  `json:"issues"`
	Recommendations []string        `json:"recommendations"`
	SampleSize      int             `json:"sample_size"`
	MeasuredAt      time.Time       `json:"measured_at"`
}
