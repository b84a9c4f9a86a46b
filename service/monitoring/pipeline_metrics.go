/*
 * @module service/monitoring/pipeline_metrics
 * @description 管道指标收集器，将每次运行的记录量、耗时与质量得分注册为Prometheus指标
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 指标定义 -> 运行结束时观测 -> /metrics 暴露
 * @rules 指标注册在构造时一次完成；观测调用不产生错误路径
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs service/pipeline/pipeline.go, main.go
 */

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"commerce-pipeline/service/models"
)

// PipelineMetrics 管道运行指标集
type PipelineMetrics struct {
	runsTotal        *prometheus.CounterVec
	recordsProcessed *prometheus.CounterVec
	recordsFailed    *prometheus.CounterVec
	duplicateGroups  *prometheus.CounterVec
	versionsCreated  *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	qualityScore     *prometheus.GaugeVec
}

// NewPipelineMetrics 创建并注册管道指标集
func NewPipelineMetrics(registerer prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "管道运行总次数，按实体类型与终态区分",
		}, []string{"entity_type", "status"}),
		recordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_records_processed_total",
			Help: "处理成功的记录总数",
		}, []string{"entity_type"}),
		recordsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_records_failed_total",
			Help: "处理失败的记录总数",
		}, []string{"entity_type"}),
		duplicateGroups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_duplicate_groups_total",
			Help: "发现的疑似重复组总数",
		}, []string{"entity_type"}),
		versionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_versions_created_total",
			Help: "创建的数据版本总数",
		}, []string{"entity_type"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "单次管道运行耗时",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"entity_type"}),
		qualityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_quality_score",
			Help: "最近一次运行的批次质量总分 (0-1)",
		}, []string{"entity_type"}),
	}

	registerer.MustRegister(
		m.runsTotal,
		m.recordsProcessed,
		m.recordsFailed,
		m.duplicateGroups,
		m.versionsCreated,
		m.runDuration,
		m.qualityScore,
	)
	return m
}

// ObserveRun 在一次管道运行结束后记录全部指标
func (m *PipelineMetrics) ObserveRun(result *models.PipelineResult) {
	if result == nil {
		return
	}
	entityType := string(result.EntityType)

	m.runsTotal.WithLabelValues(entityType, string(result.Status)).Inc()
	m.recordsProcessed.WithLabelValues(entityType).Add(float64(result.ProcessedRecords))
	m.recordsFailed.WithLabelValues(entityType).Add(float64(result.FailedRecords))
	m.duplicateGroups.WithLabelValues(entityType).Add(float64(len(result.DuplicateGroups)))
	m.versionsCreated.WithLabelValues(entityType).Add(float64(result.VersionsCreated))
	m.runDuration.WithLabelValues(entityType).Observe(result.ProcessingSeconds())

	if result.QualityReport != nil {
		m.qualityScore.WithLabelValues(entityType).Set(result.QualityReport.OverallScore)
	}
}
