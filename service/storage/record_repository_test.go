/*
 * @module service/storage/record_repository_test
 * @description 记录仓储的单元测试
 * @architecture 单元测试 - 基于内存SQLite验证上写、查询与清理
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 数据库初始化 -> 仓储操作 -> 结果验证
 * @rules 同一实体键重复上写只保留一行
 * @dependencies testing, github.com/stretchr/testify/assert, sqlite
 * @refs record_repository.go
 */

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-pipeline/service/models"
	"commerce-pipeline/testutil"
)

func setupRepository(t *testing.T) (*RecordRepository, *testutil.TestDB) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewRecordRepository(tdb.DB), tdb
}

func TestSaveSurvivors_Upsert(t *testing.T) {
	repo, tdb := setupRepository(t)

	records := []map[string]interface{}{
		testutil.RawProduct("p-1"),
		testutil.RawProduct("p-2"),
	}

	saved, err := repo.SaveSurvivors("product", records)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	// 同一实体键重复上写不产生新行，数据被更新
	updated := []map[string]interface{}{
		testutil.RawProduct("p-1", testutil.WithField("title", "不锈钢保温杯 750ml")),
	}
	saved, err = repo.SaveSurvivors("product", updated)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	var count int64
	tdb.DB.Model(&models.ProcessedRecord{}).Count(&count)
	assert.Equal(t, int64(2), count)

	row, err := repo.GetRecord("product", "p-1")
	require.NoError(t, err)
	assert.Equal(t, "不锈钢保温杯 750ml", row.Data["title"])
	assert.Greater(t, row.QualityScore, 0.0)
}

func TestSaveSurvivors_SkipsMissingSourceID(t *testing.T) {
	repo, _ := setupRepository(t)

	records := []map[string]interface{}{
		testutil.RawProduct("p-1"),
		{"title": "无来源标识的记录"},
	}

	saved, err := repo.SaveSurvivors("product", records)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
}

func TestSaveSurvivors_EmptyBatch(t *testing.T) {
	repo, _ := setupRepository(t)

	saved, err := repo.SaveSurvivors("product", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, saved)
}

func TestGetRecord_NotFound(t *testing.T) {
	repo, _ := setupRepository(t)

	_, err := repo.GetRecord("product", "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "记录不存在")
}

func TestListRecords(t *testing.T) {
	repo, tdb := setupRepository(t)

	records := []map[string]interface{}{
		testutil.RawProduct("p-1"),
		testutil.RawProduct("p-2"),
		testutil.RawProduct("p-3"),
	}
	_, err := repo.SaveSurvivors("product", records)
	require.NoError(t, err)
	_, err = repo.SaveSurvivors("supplier", []map[string]interface{}{testutil.RawSupplier("s-1")})
	require.NoError(t, err)

	// 只统计指定实体类型
	rows, total, err := repo.ListRecords("product", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 3)

	// 分页
	rows, total, err = repo.ListRecords("product", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 1)

	// 按更新时间倒序
	tdb.DB.Exec("UPDATE processed_records SET updated_at = ? WHERE source_id = ?",
		testutil.DaysAgo(1), "p-2")
	rows, _, err = repo.ListRecords("product", 1, 20)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "p-2", rows[2].SourceID)
}

func TestSaveAndListQualityReports(t *testing.T) {
	repo, _ := setupRepository(t)

	report := &models.QualityReport{
		EntityType:   models.EntityKindProduct,
		OverallScore: 0.92,
		QualityLevel: models.QualityExcellent,
		SampleSize:   50,
		MeasuredAt:   time.Now(),
		Metrics: []models.QualityMetric{
			{Name: "字段完整性", Dimension: models.DimensionCompleteness, Value: 0.95, Threshold: 0.8, Status: models.QualityExcellent},
		},
		Recommendations: []string{},
	}
	require.NoError(t, repo.SaveQualityReport(report))

	older := &models.QualityReport{
		EntityType:   models.EntityKindSupplier,
		OverallScore: 0.7,
		QualityLevel: models.QualityFair,
		SampleSize:   30,
		MeasuredAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.SaveQualityReport(older))

	rows, err := repo.ListQualityReports("", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// 最近的在前
	assert.Equal(t, "product", rows[0].EntityType)
	assert.Equal(t, 0.92, rows[0].OverallScore)

	filtered, err := repo.ListQualityReports("supplier", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "supplier", filtered[0].EntityType)
}

func TestSaveQualityReport_Nil(t *testing.T) {
	repo, _ := setupRepository(t)
	assert.NoError(t, repo.SaveQualityReport(nil))
}

func TestPurgeStaleRecords(t *testing.T) {
	repo, tdb := setupRepository(t)

	_, err := repo.SaveSurvivors("product", []map[string]interface{}{
		testutil.RawProduct("p-fresh"),
		testutil.RawProduct("p-stale"),
	})
	require.NoError(t, err)

	tdb.DB.Exec("UPDATE processed_records SET updated_at = ? WHERE source_id = ?",
		testutil.DaysAgo(200), "p-stale")

	removed, err := repo.PurgeStaleRecords("product", 180)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetRecord("product", "p-stale")
	assert.Error(t, err)
	_, err = repo.GetRecord("product", "p-fresh")
	assert.NoError(t, err)
}

func TestPurgeStaleRecords_InvalidDays(t *testing.T) {
	repo, _ := setupRepository(t)

	_, err := repo.PurgeStaleRecords("product", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "清理天数必须大于0")
}
