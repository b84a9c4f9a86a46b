/*
 * @module service/models/dedup
 * @description 去重分组模型，记录近似重复记录组及其代表记录
 * @architecture 数据模型层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 精确分区 -> 模糊比对 -> 分组输出 -> 代表选取
 * @rules 分组ID由成员标识排序后摘要生成，同一输入始终产生同一分组ID
 * @dependencies 无
 * @refs service/pipeline/deduplicator.go
 */

package models

// DuplicateGroup 近似重复记录组
type DuplicateGroup struct {
	GroupID         string                   `json:"group_id"`         // 16位十六进制摘要
	Records         []map[string]interface{} `json:"records"`          // 组内记录
	RecordIndexes   []int                    `json:"record_indexes"`   // 记录在输入批次中的位置
	SimilarityScore float64                  `json:"similarity_score"` // 组内最低配对相似度，不低于阈值
	DuplicateFields []string                 `json:"duplicate_fields"` // 所有成员取值一致的关键字段
	MasterRecord    map[string]interface{}   `json:"master_record,omitempty"`
}
