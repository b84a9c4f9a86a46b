/*
 * @module service/pipeline/deduplicator
 * @description 去重器，通过精确分区加加权模糊相似度识别近似重复记录组
 * @architecture 管道模式 - 去重阶段，仅报告分组默认不剔除记录
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 精确分区 -> 两两比对 -> 分组聚合 -> 代表选取
 * @rules 分组相似度不低于实体阈值；分组ID对同一成员集合稳定
 * @dependencies crypto/sha256, sort, strings
 * @refs similarity.go, service/meta/entity_rules.go
 */

package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"commerce-pipeline/service/meta"
	"commerce-pipeline/service/models"
	"commerce-pipeline/service/utils"
)

// Deduplicator 去重器
type Deduplicator struct{}

// NewDeduplicator 创建去重器
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// FindDuplicates 在批次内查找近似重复记录组
// 输出顺序由输入顺序决定，同一输入始终产生同一结果
func (d *Deduplicator) FindDuplicates(records []map[string]interface{}, kind models.EntityKind) []models.DuplicateGroup {
	config := meta.DedupConfigFor(string(kind))

	var groups []models.DuplicateGroup
	for _, partition := range d.partitionByExactKey(records, config.ExactFields) {
		if len(partition) < 2 {
			continue // 单记录分区必然不是重复
		}
		groups = append(groups, d.groupByFuzzySimilarity(records, partition, config)...)
	}

	for i := range groups {
		groups[i].MasterRecord = d.SelectRepresentative(&groups[i], kind)
	}
	return groups
}

// partitionByExactKey 按精确字段组合分区，未配置精确字段时整批为一个分区
// 分区顺序按首次出现顺序保持稳定
func (d *Deduplicator) partitionByExactKey(records []map[string]interface{}, exactFields []string) [][]int {
	partitionIndex := make(map[string]int)
	var partitions [][]int

	for i, record := range records {
		var key string
		if len(exactFields) > 0 {
			parts := make([]string, 0, len(exactFields))
			for _, field := range exactFields {
				parts = append(parts, utils.ToString(record[field]))
			}
			key = strings.Join(parts, "|")
		}

		idx, exists := partitionIndex[key]
		if !exists {
			idx = len(partitions)
			partitionIndex[key] = idx
			partitions = append(partitions, nil)
		}
		partitions[idx] = append(partitions[idx], i)
	}

	return partitions
}

// groupByFuzzySimilarity 分区内两两比对，累积达到阈值的记录为一组
func (d *Deduplicator) groupByFuzzySimilarity(records []map[string]interface{}, partition []int, config meta.DedupConfig) []models.DuplicateGroup {
	visited := make(map[int]bool)
	var groups []models.DuplicateGroup

	for pi, i := range partition {
		if visited[i] {
			continue
		}

		memberIndexes := []int{i}
		groupScore := 1.0

		for _, j := range partition[pi+1:] {
			if visited[j] {
				continue
			}
			score := WeightedSimilarity(records[i], records[j], config)
			if score >= config.Threshold {
				memberIndexes = append(memberIndexes, j)
				visited[j] = true
				if score < groupScore {
					groupScore = score
				}
			}
		}

		if len(memberIndexes) < 2 {
			continue
		}
		visited[i] = true

		members := make([]map[string]interface{}, 0, len(memberIndexes))
		for _, idx := range memberIndexes {
			members = append(members, records[idx])
		}

		groups = append(groups, models.DuplicateGroup{
			GroupID:         d.groupID(records, memberIndexes),
			Records:         members,
			RecordIndexes:   memberIndexes,
			SimilarityScore: groupScore,
			DuplicateFields: d.duplicateFields(members, config.KeyFields),
		})
	}

	return groups
}

// groupID 分组ID：成员标识排序后的16位十六进制摘要
// 标识稳定时同一成员集合跨运行得到相同ID
func (d *Deduplicator) groupID(records []map[string]interface{}, memberIndexes []int) string {
	identifiers := make([]string, 0, len(memberIndexes))
	for _, idx := range memberIndexes {
		id := utils.ToString(records[idx]["source_id"])
		if id == "" {
			id = fmt.Sprintf("idx-%d", idx)
		}
		identifiers = append(identifiers, id)
	}
	sort.Strings(identifiers)

	sum := sha256.Sum256([]byte(strings.Join(identifiers, ",")))
	return hex.EncodeToString(sum[:])[:16]
}

// duplicateFields 所有成员取值完全一致的关键字段
func (d *Deduplicator) duplicateFields(members []map[string]interface{}, keyFields []string) []string {
	var fields []string
	for _, field := range keyFields {
		first := utils.ToString(members[0][field])
		if first == "" {
			continue
		}
		identical := true
		for _, member := range members[1:] {
			if utils.ToString(member[field]) != first {
				identical = false
				break
			}
		}
		if identical {
			fields = append(fields, field)
		}
	}
	return fields
}

// SelectRepresentative 按完整度评分选出组内代表记录，同分取先出现者
func (d *Deduplicator) SelectRepresentative(group *models.DuplicateGroup, kind models.EntityKind) map[string]interface{} {
	if group == nil || len(group.Records) == 0 {
		return nil
	}

	scoreGroups := meta.ScoreGroupsFor(string(kind))
	best := group.Records[0]
	bestScore := d.CompletenessScore(best, scoreGroups)

	for _, record := range group.Records[1:] {
		if score := d.CompletenessScore(record, scoreGroups); score > bestScore {
			best = record
			bestScore = score
		}
	}
	return best
}

// CompletenessScore 记录完整度评分（0-100），按字段组权重累加填充率
func (d *Deduplicator) CompletenessScore(record map[string]interface{}, scoreGroups []meta.ScoreGroup) float64 {
	var score float64
	for _, sg := range scoreGroups {
		if len(sg.Fields) == 0 {
			continue
		}
		filled := 0
		for _, field := range sg.Fields {
			if !utils.IsEmptyValue(record[field]) {
				filled++
			}
		}
		score += float64(filled) / float64(len(sg.Fields)) * sg.Weight * 100
	}
	return score
}
