/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、管道组件装配和维护调度启动
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 数据库不可用时进程直接退出；Redis不可用时维护任务降级为本地执行
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/pipeline/pipeline.go, service/scheduler/maintenance_scheduler.go
 */

package service

import (
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"commerce-pipeline/service/database"
	"commerce-pipeline/service/distributed_lock"
	"commerce-pipeline/service/monitoring"
	"commerce-pipeline/service/pipeline"
	"commerce-pipeline/service/scheduler"
	"commerce-pipeline/service/storage"
)

var (
	DB                         *gorm.DB
	GlobalPipeline             *pipeline.Pipeline
	GlobalRecordRepository     *storage.RecordRepository
	GlobalPipelineMetrics      *monitoring.PipelineMetrics
	GlobalMaintenanceScheduler *scheduler.MaintenanceScheduler
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")
}

// initServices 初始化服务
func initServices() {
	GlobalPipeline = pipeline.NewPipeline()
	GlobalRecordRepository = storage.NewRecordRepository(DB)
	GlobalPipelineMetrics = monitoring.NewPipelineMetrics(prometheus.DefaultRegisterer)

	// Redis仅用于维护任务防重，连不上时降级为本地执行
	var lock distributed_lock.DistributedLock
	if redisLock, err := distributed_lock.NewRedisLock(); err != nil {
		log.Printf("Redis不可用，维护任务将在本地执行: %v", err)
	} else {
		lock = redisLock
	}

	GlobalMaintenanceScheduler = scheduler.NewMaintenanceScheduler(
		GlobalPipeline.VersionManager(), GlobalRecordRepository, lock)
	if err := GlobalMaintenanceScheduler.Start(); err != nil {
		log.Printf("启动维护调度器失败: %v", err)
	}

	log.Println("服务初始化完成")
}
