/*
 * @module service/scheduler/maintenance_scheduler
 * @description 维护调度器，定时清理过期数据版本与长期未更新的落库记录
 * @architecture 分层架构 - 任务调度层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 定时触发 -> 获取分布式锁 -> 执行清理 -> 记录结果
 * @rules 多实例部署时同一时刻只有一个实例执行清理；锁不可用时降级为本地执行
 * @dependencies github.com/robfig/cron/v3, gorm.io/gorm
 * @refs service/pipeline/version_manager.go, service/storage/record_repository.go, service/distributed_lock/redis_lock.go
 */

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"commerce-pipeline/service/distributed_lock"
	"commerce-pipeline/service/pipeline"
	"commerce-pipeline/service/storage"
)

// 清理策略缺省值
const (
	DefaultVersionKeepCount     = 10  // 每实体保留的最近版本数
	DefaultVersionRetentionDays = 30  // 超出保留数的版本可被清理的最小年龄
	DefaultRecordRetentionDays  = 180 // 落库记录的保留天数
	cleanupLockTTL              = 10 * time.Minute
)

// MaintenanceScheduler 维护调度器
type MaintenanceScheduler struct {
	versionManager *pipeline.VersionManager
	repository     *storage.RecordRepository
	lock           distributed_lock.DistributedLock // 可为空，空时本地执行
	cron           *cron.Cron
	ctx            context.Context
	cancel         context.CancelFunc
	started        bool
}

// NewMaintenanceScheduler 创建维护调度器
func NewMaintenanceScheduler(versionManager *pipeline.VersionManager,
	repository *storage.RecordRepository, lock distributed_lock.DistributedLock) *MaintenanceScheduler {

	ctx, cancel := context.WithCancel(context.Background())
	return &MaintenanceScheduler{
		versionManager: versionManager,
		repository:     repository,
		lock:           lock,
		cron:           cron.New(cron.WithSeconds()),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start 启动定时清理，每天凌晨3点执行
// Cron表达式：秒 分 时 日 月 周
func (s *MaintenanceScheduler) Start() error {
	if s.started {
		return fmt.Errorf("维护调度器已经启动")
	}

	_, err := s.cron.AddFunc("0 0 3 * * *", func() {
		if err := s.runOnce(s.ctx); err != nil {
			slog.Error("定时维护任务失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	s.cron.Start()
	s.started = true
	slog.Info("维护调度器启动成功，将于每天凌晨3点执行清理任务")
	return nil
}

// runOnce 执行一轮清理，持锁防止多实例重复执行
func (s *MaintenanceScheduler) runOnce(ctx context.Context) error {
	if s.lock == nil {
		return s.cleanup(ctx)
	}
	return distributed_lock.ExecuteWithLock(ctx, s.lock, "maintenance_cleanup", cleanupLockTTL, func() error {
		return s.cleanup(ctx)
	})
}

// cleanup 清理过期版本与落库记录
func (s *MaintenanceScheduler) cleanup(ctx context.Context) error {
	slog.Info("开始执行维护清理")
	startTime := time.Now()

	versionsRemoved := s.versionManager.CleanupOld("", "", DefaultVersionKeepCount, DefaultVersionRetentionDays)

	var recordsRemoved int64
	if s.repository != nil {
		for _, entityType := range []string{"product", "supplier"} {
			removed, err := s.repository.PurgeStaleRecords(entityType, DefaultRecordRetentionDays)
			if err != nil {
				slog.Error("清理落库记录失败", "entity_type", entityType, "error", err)
				continue
			}
			recordsRemoved += removed
		}
	}

	slog.Info("维护清理完成",
		"versions_removed", versionsRemoved,
		"records_removed", recordsRemoved,
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// RunNow 立即执行一轮清理，供接口手动触发
func (s *MaintenanceScheduler) RunNow(ctx context.Context) error {
	return s.runOnce(ctx)
}

// Stop 停止调度器
func (s *MaintenanceScheduler) Stop() {
	if !s.started {
		return
	}
	s.cancel()
	s.cron.Stop()
	s.started = false
	slog.Info("维护调度器已停止")
}
