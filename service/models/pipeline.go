/*
 * @module service/models/pipeline
 * @description 处理管道模型，包含运行配置、阶段产物和聚合结果
 * @architecture 数据模型层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow pending -> running -> completed | partial | failed
 * @rules processed_records + failed_records == total_records 恒成立；结果创建后只读
 * @dependencies time
 * @refs service/pipeline/pipeline.go, service/pipeline/report.go
 */

package models

import "time"

// PipelineStatus 管道运行状态
type PipelineStatus string

const (
	PipelinePending   PipelineStatus = "pending"
	PipelineRunning   PipelineStatus = "running"
	PipelineCompleted PipelineStatus = "completed" // 无单条记录失败
	PipelinePartial   PipelineStatus = "partial"   // 存在单条记录失败但运行完成
	PipelineFailed    PipelineStatus = "failed"    // 阶段级不可恢复错误
)

// PipelineConfig 单次运行配置，各跳过开关默认关闭
type PipelineConfig struct {
	SkipCleaning          bool   `json:"skip_cleaning"`
	SkipValidation        bool   `json:"skip_validation"`
	SkipDeduplication     bool   `json:"skip_deduplication"`
	SkipVersioning        bool   `json:"skip_versioning"`
	SkipQualityMonitoring bool   `json:"skip_quality_monitoring"`
	CreatedBy             string `json:"created_by,omitempty"`
}

// CleaningOutcome 单条记录的清洗结果行
type CleaningOutcome struct {
	Index    int    `json:"index"`
	Status   string `json:"status"` // success | failed
	SourceID string `json:"source_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CleaningSuccess / CleaningFailed 清洗结果行状态
const (
	CleaningSuccess = "success"
	CleaningFailed  = "failed"
)

// PipelineResult 一次管道运行的聚合结果
type PipelineResult struct {
	EntityType         EntityKind               `json:"entity_type"`
	Status             PipelineStatus           `json:"status"`
	TotalRecords       int                      `json:"total_records"`
	ProcessedRecords   int                      `json:"processed_records"`
	FailedRecords      int                      `json:"failed_records"`
	CleaningResults    []CleaningOutcome        `json:"cleaning_results"`
	ValidationFindings [][]ValidationFinding    `json:"validation_findings"` // 与清洗后记录一一对应
	DuplicateGroups    []DuplicateGroup         `json:"duplicate_groups"`
	SurvivingRecords   []map[string]interface{} `json:"-"` // 交由持久化层落库，不进入报告
	QualityReport      *QualityReport           `json:"quality_report,omitempty"`
	VersionsCreated    int                      `json:"versions_created"`
	StartedAt          time.Time                `json:"started_at"`
	CompletedAt        time.Time                `json:"completed_at"`
	Errors             []string                 `json:"errors"`
	Warnings           []string                 `json:"warnings"`
}

// ProcessingSeconds 运行耗时（秒）
func (r *PipelineResult) ProcessingSeconds() float64 {
	return r.CompletedAt.Sub(r.StartedAt).Seconds()
}

// SuccessRate 记录级成功率
func (r *PipelineResult) SuccessRate() float64 {
	if r.TotalRecords == 0 {
		return 0
	}
	return float64(r.ProcessedRecords) / float64(r.TotalRecords)
}
