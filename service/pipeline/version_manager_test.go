/*
 * @module service/pipeline/version_manager_test
 * @description 版本管理器的单元测试
 * @architecture 单元测试 - 验证版本创建、历史查询、差异比较、回滚与清理
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 版本创建 -> 历史验证 -> 回滚与清理验证
 * @rules 历史只追加；回滚产生新的前向版本
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs version_manager.go
 */

package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-pipeline/service/models"
)

func TestCreateVersionAndGetCurrent(t *testing.T) {
	vm := NewVersionManager()

	data := map[string]interface{}{"title": "保温杯", "price_min": 15.5}
	version, err := vm.CreateVersion("product", "p-1", data, models.ChangeCreate, nil, "tester", nil)
	require.NoError(t, err)
	assert.Len(t, version.VersionID, 16)
	assert.Len(t, version.Checksum, 16)
	assert.Equal(t, models.ChangeCreate, version.ChangeType)

	current := vm.GetCurrent("product", "p-1")
	require.NotNil(t, current)
	assert.Equal(t, version.VersionID, current.VersionID)

	assert.Nil(t, vm.GetCurrent("product", "p-unknown"))
}

func TestCreateVersion_InvalidKey(t *testing.T) {
	vm := NewVersionManager()

	_, err := vm.CreateVersion("", "p-1", nil, models.ChangeCreate, nil, "", nil)
	assert.Error(t, err)

	_, err = vm.CreateVersion("product", "", nil, models.ChangeCreate, nil, "", nil)
	assert.Error(t, err)
}

func TestCreateVersion_ChangedFields(t *testing.T) {
	vm := NewVersionManager()

	v1Data := map[string]interface{}{"title": "保温杯", "price_min": 15.5}
	v2Data := map[string]interface{}{"title": "保温杯", "price_min": 16.0, "unit": "piece"}

	_, err := vm.CreateVersion("product", "p-1", v1Data, models.ChangeCreate, nil, "", nil)
	require.NoError(t, err)

	v2, err := vm.CreateVersion("product", "p-1", v2Data, models.ChangeUpdate, v1Data, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"price_min", "unit"}, v2.ChangedFields)
}

func TestGetHistory(t *testing.T) {
	vm := NewVersionManager()

	for i := 0; i < 5; i++ {
		data := map[string]interface{}{"revision": i}
		_, err := vm.CreateVersion("product", "p-1", data, models.ChangeUpdate, nil, "", nil)
		require.NoError(t, err)
	}

	full := vm.GetHistory("product", "p-1", 0)
	assert.Len(t, full, 5)

	limited := vm.GetHistory("product", "p-1", 2)
	require.Len(t, limited, 2)
	// 最新在末尾，limit取最近的
	assert.Equal(t, 4, limited[1].Data["revision"])
	assert.Equal(t, 3, limited[0].Data["revision"])
}

func TestCompareVersions(t *testing.T) {
	vm := NewVersionManager()

	v1, err := vm.CreateVersion("product", "p-1",
		map[string]interface{}{"title": "保温杯", "price_min": 15.5, "unit": "piece"},
		models.ChangeCreate, nil, "", nil)
	require.NoError(t, err)

	v2, err := vm.CreateVersion("product", "p-1",
		map[string]interface{}{"title": "保温杯", "price_min": 16.0, "moq": 100},
		models.ChangeUpdate, v1.Data, "", nil)
	require.NoError(t, err)

	diffs, err := vm.Compare("product", "p-1", v1.VersionID, v2.VersionID)
	require.NoError(t, err)

	byField := make(map[string]models.VersionDiff)
	for _, diff := range diffs {
		byField[diff.Field] = diff
	}

	assert.Equal(t, models.DiffAdded, byField["moq"].ChangeType)
	assert.Equal(t, models.DiffRemoved, byField["unit"].ChangeType)
	assert.Equal(t, models.DiffModified, byField["price_min"].ChangeType)
	assert.NotContains(t, byField, "title")

	_, err = vm.Compare("product", "p-1", v1.VersionID, "no-such-version")
	assert.Error(t, err)
}

func TestRevert(t *testing.T) {
	vm := NewVersionManager()

	v1, err := vm.CreateVersion("product", "p-1",
		map[string]interface{}{"title": "原始标题"}, models.ChangeCreate, nil, "", nil)
	require.NoError(t, err)

	_, err = vm.CreateVersion("product", "p-1",
		map[string]interface{}{"title": "修改后标题"}, models.ChangeUpdate, v1.Data, "", nil)
	require.NoError(t, err)

	reverted, err := vm.Revert("product", "p-1", v1.VersionID, "admin")
	require.NoError(t, err)

	// 回滚是前向的新版本，历史不被截断
	assert.Equal(t, models.ChangeUpdate, reverted.ChangeType)
	assert.Equal(t, "原始标题", reverted.Data["title"])
	assert.Equal(t, v1.VersionID, reverted.Metadata["reverted_from"])
	assert.Len(t, vm.GetHistory("product", "p-1", 0), 3)

	current := vm.GetCurrent("product", "p-1")
	assert.Equal(t, reverted.VersionID, current.VersionID)
}

func TestRevert_DeleteVersionRejected(t *testing.T) {
	vm := NewVersionManager()

	deleted, err := vm.CreateVersion("product", "p-1",
		map[string]interface{}{}, models.ChangeDelete, nil, "", nil)
	require.NoError(t, err)

	_, err = vm.Revert("product", "p-1", deleted.VersionID, "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "删除版本")
}

func TestCleanupOld(t *testing.T) {
	vm := NewVersionManager()

	for i := 0; i < 4; i++ {
		_, err := vm.CreateVersion("product", "p-1",
			map[string]interface{}{"revision": i}, models.ChangeUpdate, nil, "", nil)
		require.NoError(t, err)
	}

	// daysOld为0时刚创建的版本即视为过期，保留最近1个
	removed := vm.CleanupOld("product", "p-1", 1, 0)
	assert.Equal(t, 3, removed)

	history := vm.GetHistory("product", "p-1", 0)
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].Data["revision"])

	// 当前指针仍然有效
	assert.NotNil(t, vm.GetCurrent("product", "p-1"))
}

func TestRecordChecksumDeterministic(t *testing.T) {
	data1 := map[string]interface{}{"a": 1, "b": "x"}
	data2 := map[string]interface{}{"b": "x", "a": 1}
	assert.Equal(t, RecordChecksum(data1), RecordChecksum(data2))
	assert.NotEqual(t, RecordChecksum(data1), RecordChecksum(map[string]interface{}{"a": 2, "b": "x"}))
}

func TestVersionManagerConcurrentAccess(t *testing.T) {
	vm := NewVersionManager()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			data := map[string]interface{}{"revision": n}
			_, err := vm.CreateVersion("product", "p-1", data, models.ChangeUpdate, nil, "", nil)
			assert.NoError(t, err)
			vm.GetCurrent("product", "p-1")
			vm.GetHistory("product", "p-1", 5)
		}(i)
	}
	wg.Wait()

	assert.Len(t, vm.GetHistory("product", "p-1", 0), 20)
}
