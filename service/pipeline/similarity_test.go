/*
 * @module service/pipeline/similarity_test
 * @description 模糊相似度计算的单元测试
 * @architecture 单元测试 - 验证文本归一化和加权相似度的正确性
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 测试数据准备 -> 相似度计算 -> 结果验证
 * @rules 相似度必须对称且落在 [0,1] 区间
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs similarity.go
 */

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"commerce-pipeline/service/meta"
)

func TestNormalizeForMatch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "转小写", input: "Steel CUP", expected: "steel cup"},
		{name: "剔除标点", input: "保温杯【500ml】!", expected: "保温杯500ml"},
		{name: "压缩空白", input: "  a   b  ", expected: "a b"},
		{name: "空串", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeForMatch(tt.input))
		})
	}
}

func TestSequenceSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, SequenceSimilarity("保温杯", "保温杯"))
	assert.Equal(t, 0.0, SequenceSimilarity("保温杯", ""))
	assert.Equal(t, 0.0, SequenceSimilarity("", ""))

	// "abcd" -> "abce"：4字符1处替换
	assert.InDelta(t, 0.75, SequenceSimilarity("abcd", "abce"), 1e-9)

	// 对称性
	s1 := SequenceSimilarity("不锈钢保温杯", "不锈钢真空保温杯")
	s2 := SequenceSimilarity("不锈钢真空保温杯", "不锈钢保温杯")
	assert.Equal(t, s1, s2)
	assert.Greater(t, s1, 0.7)
}

func TestFuzzyFieldSimilarity(t *testing.T) {
	// 归一化后一致，加成后封顶1.0
	assert.Equal(t, 1.0, FuzzyFieldSimilarity("Steel Cup", "steel   cup"))

	// 完全不同的文本
	assert.Less(t, FuzzyFieldSimilarity("保温杯", "数据线"), 0.5)

	// 双空输入无加成
	assert.Equal(t, 0.0, FuzzyFieldSimilarity("", ""))
}

func TestWeightedSimilarity(t *testing.T) {
	config := meta.ProductDedupConfig

	t.Run("完全一致的记录", func(t *testing.T) {
		record := map[string]interface{}{
			"title": "不锈钢保温杯 500ml", "price_min": 15.5, "price_max": 28.0,
			"unit": "piece", "category_id": "cat-001",
		}
		other := map[string]interface{}{
			"title": "不锈钢保温杯 500ml", "price_min": 15.5, "price_max": 28.0,
			"unit": "piece", "category_id": "cat-001",
		}
		assert.Equal(t, 1.0, WeightedSimilarity(record, other, config))
	})

	t.Run("缺失字段不计入权重", func(t *testing.T) {
		record1 := map[string]interface{}{"title": "不锈钢保温杯 500ml"}
		record2 := map[string]interface{}{"title": "不锈钢保温杯 500ml", "price_min": 15.5}
		// 只有title参与，归一化一致
		assert.Equal(t, 1.0, WeightedSimilarity(record1, record2, config))
	})

	t.Run("全部字段缺失返回零", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedSimilarity(
			map[string]interface{}{}, map[string]interface{}{}, config))
	})

	t.Run("严格字段不一致拉低评分", func(t *testing.T) {
		record1 := map[string]interface{}{"title": "保温杯", "price_min": 15.5}
		record2 := map[string]interface{}{"title": "保温杯", "price_min": 99.0}
		score := WeightedSimilarity(record1, record2, config)
		// title权重0.5得1.0，price_min权重0.15得0
		assert.InDelta(t, 0.5/0.65, score, 1e-9)
	})
}
