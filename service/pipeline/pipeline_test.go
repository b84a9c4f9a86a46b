/*
 * @module service/pipeline/pipeline_test
 * @description 管道编排器的集成测试
 * @architecture 集成测试 - 使用真实阶段组件驱动完整批处理运行
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 批次构造 -> 管道运行 -> 结果验证
 * @rules processed + failed == total 在所有场景下恒成立
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs pipeline.go
 */

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-pipeline/service/models"
	"commerce-pipeline/testutil"
)

func TestProcess_InvalidEntityType(t *testing.T) {
	p := NewPipeline()

	result, err := p.Process(nil, "warehouse", models.PipelineConfig{})
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestProcess_MessyRecordsCompleted(t *testing.T) {
	p := NewPipeline()

	// 带HTML、价格文本和中文单位的脏记录经过清洗后全部存活
	records := []map[string]interface{}{
		{
			"source_id":  " p-1 ",
			"title":      "<p>不锈钢<b>保温杯</b> 500ml</p>",
			"price_text": "¥15.5-28元",
			"moq_text":   "100件起",
			"unit":       "个",
		},
	}

	result, err := p.Process(records, "product", models.PipelineConfig{})
	require.NoError(t, err)

	assert.Equal(t, models.PipelineCompleted, result.Status)
	assert.Equal(t, 1, result.TotalRecords)
	assert.Equal(t, 1, result.ProcessedRecords)
	assert.Equal(t, 0, result.FailedRecords)

	require.Len(t, result.SurvivingRecords, 1)
	record := result.SurvivingRecords[0]
	assert.Equal(t, "p-1", record["source_id"])
	assert.Equal(t, "不锈钢 保温杯 500ml", record["title"])
	assert.Equal(t, 15.5, record["price_min"])
	assert.Equal(t, 28.0, record["price_max"])
	assert.Equal(t, "CNY", record["currency"])
	assert.Equal(t, "piece", record["unit"])
}

func TestProcess_PartialOnBadRecords(t *testing.T) {
	p := NewPipeline()

	records := []map[string]interface{}{
		testutil.RawProduct("p-1"),
		nil, // 清洗阶段剔除
		testutil.RawProduct("p-3", testutil.WithoutField("title")), // 校验阶段剔除
	}

	result, err := p.Process(records, "product", models.PipelineConfig{})
	require.NoError(t, err)

	assert.Equal(t, models.PipelinePartial, result.Status)
	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 1, result.ProcessedRecords)
	assert.Equal(t, 2, result.FailedRecords)
	assert.Equal(t, result.TotalRecords, result.ProcessedRecords+result.FailedRecords)

	// 清洗结果行覆盖全部输入
	require.Len(t, result.CleaningResults, 3)
	assert.Equal(t, models.CleaningFailed, result.CleaningResults[1].Status)
	assert.Equal(t, "记录为空", result.CleaningResults[1].Error)

	assert.Contains(t, result.Errors, "记录校验未通过: source_id=p-3")
}

func TestProcess_DuplicateReportingOnly(t *testing.T) {
	p := NewPipeline()

	records := []map[string]interface{}{
		testutil.RawProduct("p-1"),
		testutil.RawProduct("p-2"), // 与p-1仅source_id不同
	}

	result, err := p.Process(records, "product", models.PipelineConfig{})
	require.NoError(t, err)

	// 重复只报告不剔除
	assert.Equal(t, models.PipelineCompleted, result.Status)
	assert.Equal(t, 2, result.ProcessedRecords)
	require.Len(t, result.DuplicateGroups, 1)
	assert.Equal(t, []int{0, 1}, result.DuplicateGroups[0].RecordIndexes)
	assert.Contains(t, result.Warnings, "发现 1 个疑似重复组")
}

func TestProcess_VersioningAcrossRuns(t *testing.T) {
	p := NewPipeline()
	config := models.PipelineConfig{CreatedBy: "sync-job"}

	_, err := p.Process([]map[string]interface{}{testutil.RawProduct("p-1")}, "product", config)
	require.NoError(t, err)

	first := p.VersionManager().GetCurrent("product", "p-1")
	require.NotNil(t, first)
	assert.Equal(t, models.ChangeCreate, first.ChangeType)
	assert.Equal(t, "sync-job", first.CreatedBy)

	updated := testutil.RawProduct("p-1", testutil.WithField("title", "不锈钢保温杯 500ml 升级款"))
	result, err := p.Process([]map[string]interface{}{updated}, "product", config)
	require.NoError(t, err)
	assert.Equal(t, 1, result.VersionsCreated)

	second := p.VersionManager().GetCurrent("product", "p-1")
	require.NotNil(t, second)
	assert.Equal(t, models.ChangeUpdate, second.ChangeType)
	assert.Contains(t, second.ChangedFields, "title")
	assert.Len(t, p.VersionManager().GetHistory("product", "p-1", 0), 2)
}

func TestProcess_SkipFlags(t *testing.T) {
	p := NewPipeline()

	raw := map[string]interface{}{
		"source_id": " p-1 ",
		"title":     "<p>保温杯</p>",
	}
	config := models.PipelineConfig{
		SkipCleaning:          true,
		SkipValidation:        true,
		SkipDeduplication:     true,
		SkipVersioning:        true,
		SkipQualityMonitoring: true,
	}

	result, err := p.Process([]map[string]interface{}{raw}, "product", config)
	require.NoError(t, err)

	assert.Equal(t, models.PipelineCompleted, result.Status)
	require.Len(t, result.SurvivingRecords, 1)

	// 跳过的阶段不产生任何产物
	assert.Equal(t, " p-1 ", result.SurvivingRecords[0]["source_id"])
	assert.Empty(t, result.ValidationFindings)
	assert.Empty(t, result.DuplicateGroups)
	assert.Equal(t, 0, result.VersionsCreated)
	assert.Nil(t, result.QualityReport)
	assert.Nil(t, p.VersionManager().GetCurrent("product", "p-1"))
}

func TestProcess_SupplierBatch(t *testing.T) {
	p := NewPipeline()

	records := []map[string]interface{}{
		testutil.RawSupplier("s-1"),
		testutil.RawSupplier("s-2", testutil.WithField("name", "广州市天河电子科技有限公司")),
	}

	result, err := p.Process(records, "supplier", models.PipelineConfig{})
	require.NoError(t, err)

	assert.Equal(t, models.PipelineCompleted, result.Status)
	assert.Equal(t, models.EntityKindSupplier, result.EntityType)
	assert.Equal(t, 2, result.ProcessedRecords)
	assert.Equal(t, 2, result.VersionsCreated)
	require.NotNil(t, result.QualityReport)
	assert.Equal(t, 2, result.QualityReport.SampleSize)
}

func TestProcess_EmptyBatch(t *testing.T) {
	p := NewPipeline()

	result, err := p.Process(nil, "product", models.PipelineConfig{})
	require.NoError(t, err)

	assert.Equal(t, models.PipelineCompleted, result.Status)
	assert.Equal(t, 0, result.TotalRecords)
	assert.Equal(t, 0, result.ProcessedRecords)
	require.NotNil(t, result.QualityReport)
	assert.Equal(t, models.QualityCritical, result.QualityReport.QualityLevel)
}
