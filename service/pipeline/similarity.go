/*
 * @module service/pipeline/similarity
 * @description 模糊相似度计算器，提供文本归一化、序列相似度和加权字段评分
 * @architecture 工具层 - 无状态纯函数，供去重器和质量监控共用
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 文本归一化 -> 序列比对 -> 加权汇总
 * @rules 相似度满足对称性且落在 [0,1]；字段缺失时该字段不参与权重汇总
 * @dependencies strings, unicode
 * @refs deduplicator.go, quality_monitor.go
 */

package pipeline

import (
	"strings"
	"unicode"

	"commerce-pipeline/service/meta"
	"commerce-pipeline/service/utils"
)

// NormalizeForMatch 比对前的文本归一化
// 转小写，剔除中日韩/拉丁字母/数字之外的字符，压缩空白
func NormalizeForMatch(str string) string {
	var b strings.Builder
	for _, r := range str {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(utils.NormalizeWhitespace(b.String()))
}

// SequenceSimilarity 计算两段文本的序列相似度，基于按字符的编辑距离
func SequenceSimilarity(str1, str2 string) float64 {
	// 空文本不携带相似信号，先于相等捷径判断
	if str1 == "" || str2 == "" {
		return 0.0
	}
	if str1 == str2 {
		return 1.0
	}

	r1 := []rune(str1)
	r2 := []rune(str2)
	distance := levenshteinDistance(r1, r2)
	maxLen := len(r1)
	if len(r2) > maxLen {
		maxLen = len(r2)
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance 计算编辑距离，按 rune 比较以正确处理中文
func levenshteinDistance(r1, r2 []rune) int {
	len1, len2 := len(r1), len(r2)
	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	prev := make([]int, len2+1)
	curr := make([]int, len2+1)
	for j := 0; j <= len2; j++ {
		prev[j] = j
	}

	for i := 1; i <= len1; i++ {
		curr[0] = i
		for j := 1; j <= len2; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}

			curr[j] = minInt(
				prev[j]+1,      // 删除
				curr[j-1]+1,    // 插入
				prev[j-1]+cost, // 替换
			)
		}
		prev, curr = curr, prev
	}

	return prev[len2]
}

// FuzzyFieldSimilarity 模糊字段相似度，归一化后完全一致时有 1.1 倍加成（封顶 1.0）
func FuzzyFieldSimilarity(str1, str2 string) float64 {
	n1 := NormalizeForMatch(str1)
	n2 := NormalizeForMatch(str2)

	score := SequenceSimilarity(n1, n2)
	if n1 == n2 && n1 != "" {
		score = score * 1.1
		if score > 1.0 {
			score = 1.0
		}
	}
	return score
}

// WeightedSimilarity 按配置的字段权重计算两条记录的综合相似度
// 任一侧缺失的字段跳过且不计入权重和
func WeightedSimilarity(record1, record2 map[string]interface{}, config meta.DedupConfig) float64 {
	var totalWeight float64
	var weightedSum float64

	for field, weight := range config.WeightedFields {
		value1, ok1 := record1[field]
		value2, ok2 := record2[field]
		if !ok1 || !ok2 || utils.IsEmptyValue(value1) || utils.IsEmptyValue(value2) {
			continue
		}

		str1 := utils.ToString(value1)
		str2 := utils.ToString(value2)

		var score float64
		if config.FuzzyFields[field] {
			score = FuzzyFieldSimilarity(str1, str2)
		} else if str1 == str2 {
			score = 1.0
		}

		totalWeight += weight
		weightedSum += weight * score
	}

	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// minInt 返回最小值
func minInt(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
