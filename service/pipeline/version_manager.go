/*
 * @module service/pipeline/version_manager
 * @description 版本管理器，维护按实体键追加的不可变版本历史，支持差异比较与回滚
 * @architecture 仓储模式 - 进程级内存存储，读写锁保护
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 版本创建 -> 历史追加 -> 当前指针前移 -> 差异/回滚/清理
 * @rules 历史只追加不截断；回滚本身是一个新的前向版本；回滚到删除版本被拒绝
 * @dependencies crypto/sha256, sync, sort, time, github.com/google/uuid
 * @refs service/models/version.go
 */

package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"commerce-pipeline/service/models"
	"commerce-pipeline/service/utils"
)

// VersionManager 版本管理器，进程内唯一的共享可变状态
type VersionManager struct {
	mu       sync.RWMutex
	versions map[string][]*models.DataVersion // entity_type:entity_id -> 按创建顺序追加
	current  map[string]*models.DataVersion   // 当前版本指针，始终指向最新版本
}

// NewVersionManager 创建版本管理器
func NewVersionManager() *VersionManager {
	return &VersionManager{
		versions: make(map[string][]*models.DataVersion),
		current:  make(map[string]*models.DataVersion),
	}
}

func entityKey(entityType, entityID string) string {
	return entityType + ":" + entityID
}

// CreateVersion 为实体追加一个新版本
func (vm *VersionManager) CreateVersion(entityType, entityID string, data map[string]interface{},
	changeType models.ChangeType, previousData map[string]interface{},
	createdBy string, metadata map[string]interface{}) (*models.DataVersion, error) {

	if entityType == "" || entityID == "" {
		return nil, fmt.Errorf("实体类型和实体ID不能为空")
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.createLocked(entityType, entityID, data, changeType, previousData, createdBy, metadata), nil
}

// createLocked 持锁状态下的版本创建
func (vm *VersionManager) createLocked(entityType, entityID string, data map[string]interface{},
	changeType models.ChangeType, previousData map[string]interface{},
	createdBy string, metadata map[string]interface{}) *models.DataVersion {

	now := time.Now()
	version := &models.DataVersion{
		VersionID:     versionDigest(entityType, entityID, now),
		EntityType:    entityType,
		EntityID:      entityID,
		ChangeType:    changeType,
		Data:          copyRecord(data),
		PreviousData:  copyRecord(previousData),
		ChangedFields: ChangedFields(previousData, data),
		CreatedAt:     now,
		CreatedBy:     createdBy,
		Checksum:      RecordChecksum(data),
		Metadata:      copyRecord(metadata),
	}

	key := entityKey(entityType, entityID)
	vm.versions[key] = append(vm.versions[key], version)
	vm.current[key] = version
	return version
}

// GetCurrent 取实体的当前版本，不存在时返回 nil
func (vm *VersionManager) GetCurrent(entityType, entityID string) *models.DataVersion {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.current[entityKey(entityType, entityID)]
}

// GetHistory 取实体的版本历史，按创建顺序排列（最新在末尾）
// limit 大于 0 时仅返回最近的 limit 个版本
func (vm *VersionManager) GetHistory(entityType, entityID string, limit int) []*models.DataVersion {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	history := vm.versions[entityKey(entityType, entityID)]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	result := make([]*models.DataVersion, len(history))
	copy(result, history)
	return result
}

// Compare 比较同一实体的两个版本，输出字段级差异
func (vm *VersionManager) Compare(entityType, entityID, versionID1, versionID2 string) ([]models.VersionDiff, error) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()

	v1 := vm.findLocked(entityType, entityID, versionID1)
	if v1 == nil {
		return nil, fmt.Errorf("版本不存在: %s", versionID1)
	}
	v2 := vm.findLocked(entityType, entityID, versionID2)
	if v2 == nil {
		return nil, fmt.Errorf("版本不存在: %s", versionID2)
	}

	return DiffRecords(v1.Data, v2.Data), nil
}

// Revert 回滚到指定版本：创建一个数据等于目标版本的新 update 版本
// 回滚到删除版本被拒绝；历史不被截断
func (vm *VersionManager) Revert(entityType, entityID, versionID, createdBy string) (*models.DataVersion, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	target := vm.findLocked(entityType, entityID, versionID)
	if target == nil {
		return nil, fmt.Errorf("版本不存在: %s", versionID)
	}
	if target.ChangeType == models.ChangeDelete {
		return nil, fmt.Errorf("不能回滚到删除版本: %s", versionID)
	}

	var previousData map[string]interface{}
	if current := vm.current[entityKey(entityType, entityID)]; current != nil {
		previousData = current.Data
	}

	version := vm.createLocked(entityType, entityID, target.Data, models.ChangeUpdate,
		previousData, createdBy, map[string]interface{}{"reverted_from": versionID})

	slog.Info("版本回滚完成",
		"entity_type", entityType,
		"entity_id", entityID,
		"reverted_from", versionID,
		"new_version", version.VersionID)
	return version, nil
}

// CleanupOld 清理旧版本：每个实体保留最近 keepCount 个版本，
// 其余版本中创建时间早于 daysOld 天的被移除，返回移除数量
// entityType/entityID 为空时匹配所有实体
func (vm *VersionManager) CleanupOld(entityType, entityID string, keepCount, daysOld int) int {
	if keepCount < 1 {
		keepCount = 1
	}
	cutoff := time.Now().AddDate(0, 0, -daysOld)

	vm.mu.Lock()
	defer vm.mu.Unlock()

	removed := 0
	for key, history := range vm.versions {
		if entityType != "" && !keyMatches(key, entityType, entityID) {
			continue
		}
		if len(history) <= keepCount {
			continue
		}

		keep := history[:0:0]
		prunable := len(history) - keepCount
		for i, version := range history {
			if i < prunable && version.CreatedAt.Before(cutoff) {
				removed++
				continue
			}
			keep = append(keep, version)
		}
		vm.versions[key] = keep
	}

	if removed > 0 {
		slog.Info("版本清理完成", "removed", removed, "keep_count", keepCount, "days_old", daysOld)
	}
	return removed
}

// findLocked 持锁状态下按版本ID查找
func (vm *VersionManager) findLocked(entityType, entityID, versionID string) *models.DataVersion {
	for _, version := range vm.versions[entityKey(entityType, entityID)] {
		if version.VersionID == versionID {
			return version
		}
	}
	return nil
}

func keyMatches(key, entityType, entityID string) bool {
	if entityID != "" {
		return key == entityKey(entityType, entityID)
	}
	return len(key) > len(entityType) && key[:len(entityType)+1] == entityType+":"
}

// ChangedFields 两个记录间的对称字段差异：只在一侧出现或两侧取值不同的字段
func ChangedFields(previous, data map[string]interface{}) []string {
	fields := make(map[string]bool)
	for field := range previous {
		fields[field] = true
	}
	for field := range data {
		fields[field] = true
	}

	var changed []string
	for field := range fields {
		prevValue, inPrev := previous[field]
		newValue, inNew := data[field]
		if inPrev != inNew || !reflect.DeepEqual(prevValue, newValue) {
			changed = append(changed, field)
		}
	}
	sort.Strings(changed)
	return changed
}

// DiffRecords 字段级差异列表，区分缺失与显式空值
func DiffRecords(oldData, newData map[string]interface{}) []models.VersionDiff {
	fields := make(map[string]bool)
	for field := range oldData {
		fields[field] = true
	}
	for field := range newData {
		fields[field] = true
	}

	sorted := make([]string, 0, len(fields))
	for field := range fields {
		sorted = append(sorted, field)
	}
	sort.Strings(sorted)

	var diffs []models.VersionDiff
	for _, field := range sorted {
		oldValue, inOld := oldData[field]
		newValue, inNew := newData[field]

		switch {
		case !inOld && inNew:
			diffs = append(diffs, models.VersionDiff{
				Field: field, NewValue: newValue, ChangeType: models.DiffAdded,
			})
		case inOld && !inNew:
			diffs = append(diffs, models.VersionDiff{
				Field: field, OldValue: oldValue, ChangeType: models.DiffRemoved,
			})
		case !reflect.DeepEqual(oldValue, newValue):
			diffs = append(diffs, models.VersionDiff{
				Field: field, OldValue: oldValue, NewValue: newValue, ChangeType: models.DiffModified,
			})
		}
	}
	return diffs
}

// RecordChecksum 记录内容的16位十六进制摘要
// 字段按键名排序后参与摘要，相同内容始终得到相同校验和
func RecordChecksum(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, key := range keys {
		fmt.Fprintf(h, "%s=%s;", key, utils.ToString(data[key]))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// versionDigest 版本ID：实体键、创建时间和随机因子的16位摘要
func versionDigest(entityType, entityID string, createdAt time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:%s:%d:%s", entityType, entityID, createdAt.UnixNano(), uuid.NewString())
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// copyRecord 复制记录
func copyRecord(record map[string]interface{}) map[string]interface{} {
	if record == nil {
		return nil
	}
	copied := make(map[string]interface{}, len(record))
	for key, value := range record {
		copied[key] = value
	}
	return copied
}
