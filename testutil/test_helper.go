/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"commerce-pipeline/service/models"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建内存测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	err = db.AutoMigrate(
		&models.ProcessedRecord{},
		&models.QualityReportRecord{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{
		"processed_records",
		"quality_report_records",
	}
	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// RecordOption 原始记录选项函数类型
type RecordOption func(map[string]interface{})

// WithField 覆盖或新增一个字段
func WithField(key string, value interface{}) RecordOption {
	return func(record map[string]interface{}) {
		record[key] = value
	}
}

// WithoutField 删除一个字段
func WithoutField(key string) RecordOption {
	return func(record map[string]interface{}) {
		delete(record, key)
	}
}

// RawProduct 构造一条规范的原始商品记录
func RawProduct(sourceID string, opts ...RecordOption) map[string]interface{} {
	record := map[string]interface{}{
		"source_id":      sourceID,
		"title":          "不锈钢保温杯 500ml",
		"description":    "双层真空不锈钢保温杯，保温12小时",
		"price_min":      15.5,
		"price_max":      28.0,
		"currency":       "CNY",
		"moq":            100,
		"unit":           "piece",
		"category_id":    "cat-001",
		"category_name":  "日用百货",
		"sales_count":    1200,
		"review_count":   80,
		"rating":         4.6,
		"main_image_url": "https://img.example.com/cup.jpg",
		"specifications": map[string]string{"容量": "500ml", "材质": "304不锈钢"},
	}
	for _, opt := range opts {
		opt(record)
	}
	return record
}

// RawSupplier 构造一条规范的原始供应商记录
func RawSupplier(sourceID string, opts ...RecordOption) map[string]interface{} {
	record := map[string]interface{}{
		"source_id":          sourceID,
		"name":               "义乌市恒晟日用品有限公司",
		"description":        "专业生产日用百货，支持定制",
		"phone":              "13812345678",
		"email":              "sales@hengsheng.example.com",
		"qq":                 "123456789",
		"province":           "浙江省",
		"city":               "义乌市",
		"address":            "国际商贸城三区",
		"registered_capital": "5000000",
		"established_date":   "2015-06-01",
		"certifications":     []string{"ISO9001"},
	}
	for _, opt := range opts {
		opt(record)
	}
	return record
}

// HTTPTestHelper HTTP测试辅助
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// DaysAgo 相对当前时间的历史时间点
func DaysAgo(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}
