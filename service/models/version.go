/*
 * @module service/models/version
 * @description 数据版本模型，记录实体的不可变快照和字段级差异
 * @architecture 数据模型层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 版本创建 -> 历史追加 -> 差异比较 -> 回滚（产生新版本）
 * @rules 版本一经创建不可修改，历史仅追加；校验和为内容寻址摘要
 * @dependencies time
 * @refs service/pipeline/version_manager.go
 */

package models

import "time"

// ChangeType 版本变更类型
type ChangeType string

const (
	ChangeCreate  ChangeType = "create"
	ChangeUpdate  ChangeType = "update"
	ChangeDelete  ChangeType = "delete"
	ChangeRestore ChangeType = "restore"
)

// DataVersion 一个实体的不可变版本快照
type DataVersion struct {
	VersionID     string                 `json:"version_id"` // 16位十六进制摘要
	EntityType    string                 `json:"entity_type"`
	EntityID      string                 `json:"entity_id"`
	ChangeType    ChangeType             `json:"change_type"`
	Data          map[string]interface{} `json:"data"`
	PreviousData  map[string]interface{} `json:"previous_data,omitempty"`
	ChangedFields []string               `json:"changed_fields"`
	CreatedAt     time.Time              `json:"created_at"`
	CreatedBy     string                 `json:"created_by"`
	Checksum      string                 `json:"checksum"` // data 内容的16位十六进制摘要
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// DiffType 字段差异类型
type DiffType string

const (
	DiffAdded    DiffType = "added"    // 旧版本缺失，新版本存在
	DiffRemoved  DiffType = "removed"  // 旧版本存在，新版本缺失
	DiffModified DiffType = "modified" // 两侧都存在但取值不同
)

// VersionDiff 两个版本之间单个字段的差异，派生数据不做存储
type VersionDiff struct {
	Field      string      `json:"field"`
	OldValue   interface{} `json:"old_value,omitempty"`
	NewValue   interface{} `json:"new_value,omitempty"`
	ChangeType DiffType    `json:"change_type"`
}
