/*
 * @module service/pipeline/quality_monitor
 * @description 质量监控器，对批次执行五维质量评估并输出带建议的质量报告
 * @architecture 策略模式 - 每个维度独立计算，实体差异通过规则表表达
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 前缀抽样 -> 维度计算 -> 等级判定 -> 问题识别 -> 建议生成
 * @rules 指标值与总分均落在 [0,1]；空样本总分为 0 且等级为 critical
 * @dependencies fmt, math, time
 * @refs service/meta/entity_rules.go, similarity.go
 */

package pipeline

import (
	"fmt"
	"math"
	"time"

	"commerce-pipeline/service/meta"
	"commerce-pipeline/service/models"
	"commerce-pipeline/service/utils"
)

// DefaultQualitySampleSize 缺省评估窗口大小
const DefaultQualitySampleSize = 100

// 一致性评估中近似重复判定的相似度阈值
const consistencyDupThreshold = 0.9

// QualityMonitor 质量监控器
type QualityMonitor struct{}

// NewQualityMonitor 创建质量监控器
func NewQualityMonitor() *QualityMonitor {
	return &QualityMonitor{}
}

// AssessProduct 评估商品批次质量
func (qm *QualityMonitor) AssessProduct(records []map[string]interface{}, sampleSize int) *models.QualityReport {
	return qm.assess(records, sampleSize, models.EntityKindProduct)
}

// AssessSupplier 评估供应商批次质量
func (qm *QualityMonitor) AssessSupplier(records []map[string]interface{}, sampleSize int) *models.QualityReport {
	return qm.assess(records, sampleSize, models.EntityKindSupplier)
}

// assess 执行五维评估
// 取确定性的前缀窗口而非随机抽样，保证同一输入得到同一报告
func (qm *QualityMonitor) assess(records []map[string]interface{}, sampleSize int, kind models.EntityKind) *models.QualityReport {
	config := meta.QualityConfigFor(string(kind))

	sample := records
	if sampleSize > 0 && len(records) > sampleSize {
		sample = records[:sampleSize]
	}

	report := &models.QualityReport{
		EntityType: kind,
		SampleSize: len(sample),
		MeasuredAt: time.Now(),
	}

	if len(sample) == 0 {
		report.OverallScore = 0.0
		report.QualityLevel = models.QualityCritical
		report.Recommendations = []string{"样本为空，无法评估数据质量，请检查采集与清洗环节"}
		return report
	}

	report.Metrics = []models.QualityMetric{
		qm.measureCompleteness(sample, config),
		qm.measureAccuracy(sample, config),
		qm.measureValidity(sample, config),
		qm.measureConsistency(sample, config),
		qm.measureUniqueness(sample, config),
	}

	var weightedSum, totalWeight float64
	for _, metric := range report.Metrics {
		weight := meta.DimensionWeights[string(metric.Dimension)]
		weightedSum += metric.Value * weight
		totalWeight += weight
	}
	if totalWeight > 0 {
		report.OverallScore = clamp01(weightedSum / totalWeight)
	}
	report.QualityLevel = statusForValue(report.OverallScore, config.OverallThreshold)

	report.Issues = qm.collectIssues(report.Metrics)
	report.Recommendations = qm.buildRecommendations(report.Issues, report.Metrics)
	return report
}

// measureCompleteness 完整性：字段填充率按字段等级加权平均
func (qm *QualityMonitor) measureCompleteness(sample []map[string]interface{}, config meta.QualityConfig) models.QualityMetric {
	classes := []struct {
		fields []string
		weight float64
	}{
		{config.RequiredFields, meta.RequiredFieldWeight},
		{config.ImportantFields, meta.ImportantFieldWeight},
		{config.OptionalFields, meta.OptionalFieldWeight},
	}

	var weightedSum, totalWeight float64
	details := make(map[string]interface{})

	for _, class := range classes {
		for _, field := range class.fields {
			filled := 0
			for _, record := range sample {
				if !utils.IsEmptyValue(record[field]) {
					filled++
				}
			}
			ratio := float64(filled) / float64(len(sample))
			weightedSum += ratio * class.weight
			totalWeight += class.weight
			details[field] = ratio
		}
	}

	var value float64
	if totalWeight > 0 {
		value = clamp01(weightedSum / totalWeight)
	}

	threshold := config.DimensionThresholds["completeness"]
	return models.QualityMetric{
		Name:        "字段完整性",
		Dimension:   models.DimensionCompleteness,
		Value:       value,
		Threshold:   threshold,
		Status:      statusForValue(value, threshold),
		Description: fmt.Sprintf("字段加权填充率 %.1f%%", value*100),
		Details:     details,
	}
}

// measureAccuracy 准确性：通过数值区间检查的记录占比
func (qm *QualityMonitor) measureAccuracy(sample []map[string]interface{}, config meta.QualityConfig) models.QualityMetric {
	passed := 0
	var reasons []string

	for i, record := range sample {
		if violation := qm.accuracyViolation(record); violation != "" {
			if len(reasons) < meta.MaxIssueSampleItems {
				reasons = append(reasons, fmt.Sprintf("记录 %d: %s", i, violation))
			}
			continue
		}
		passed++
	}

	value := clamp01(float64(passed) / float64(len(sample)))
	threshold := config.DimensionThresholds["accuracy"]

	details := map[string]interface{}{"passed": passed, "total": len(sample)}
	if len(reasons) > 0 {
		details["violations"] = reasons
	}

	return models.QualityMetric{
		Name:        "数值准确性",
		Dimension:   models.DimensionAccuracy,
		Value:       value,
		Threshold:   threshold,
		Status:      statusForValue(value, threshold),
		Description: fmt.Sprintf("%d/%d 条记录通过数值区间检查", passed, len(sample)),
		Details:     details,
	}
}

// accuracyViolation 单条记录的数值区间违规原因，无违规返回空串
func (qm *QualityMonitor) accuracyViolation(record map[string]interface{}) string {
	priceMin, hasMin := numericValue(record, "price_min")
	priceMax, hasMax := numericValue(record, "price_max")

	if hasMin && (priceMin < meta.PriceMinBound || priceMin > meta.PriceMaxBound) {
		return fmt.Sprintf("最低价 %.2f 超出区间", priceMin)
	}
	if hasMax && (priceMax < meta.PriceMinBound || priceMax > meta.PriceMaxBound) {
		return fmt.Sprintf("最高价 %.2f 超出区间", priceMax)
	}
	if hasMin && hasMax && priceMin > priceMax {
		return "最低价高于最高价"
	}

	if rating, ok := numericValue(record, "rating"); ok &&
		(rating < meta.RatingMinBound || rating > meta.RatingMaxBound) {
		return fmt.Sprintf("评分 %.2f 超出区间", rating)
	}
	if sales, ok := numericValue(record, "sales_count"); ok &&
		(sales < 0 || sales > meta.CountSanityCeiling) {
		return fmt.Sprintf("销量 %.0f 不合理", sales)
	}
	return ""
}

// measureValidity 有效性：URL/邮箱/电话形态字段匹配期望模式的占比
func (qm *QualityMonitor) measureValidity(sample []map[string]interface{}, config meta.QualityConfig) models.QualityMetric {
	checked, valid := 0, 0

	for _, record := range sample {
		for field, patternKind := range config.PatternFields {
			value := utils.ToString(record[field])
			if value == "" {
				continue
			}
			checked++
			if matchesPatternKind(value, patternKind) {
				valid++
			}
		}
	}

	value := 1.0
	if checked > 0 {
		value = clamp01(float64(valid) / float64(checked))
	}

	threshold := config.DimensionThresholds["validity"]
	return models.QualityMetric{
		Name:        "格式有效性",
		Dimension:   models.DimensionValidity,
		Value:       value,
		Threshold:   threshold,
		Status:      statusForValue(value, threshold),
		Description: fmt.Sprintf("%d/%d 个格式字段匹配期望模式", valid, checked),
		Details:     map[string]interface{}{"checked": checked, "valid": valid},
	}
}

// measureConsistency 一致性：从基线扣减货币混杂、近似重复和文本长度离散惩罚
func (qm *QualityMonitor) measureConsistency(sample []map[string]interface{}, config meta.QualityConfig) models.QualityMetric {
	value := 1.0
	details := make(map[string]interface{})

	// 货币混杂惩罚
	currencies := make(map[string]bool)
	for _, record := range sample {
		if currency := utils.ToString(record["currency"]); currency != "" {
			currencies[currency] = true
		}
	}
	if len(currencies) > 1 {
		penalty := float64(len(currencies)-1) / float64(len(sample))
		value -= penalty
		details["currency_variety"] = len(currencies)
	}

	// 近似重复文本惩罚，复用去重器的模糊相似度
	if len(config.TextFields) > 0 && len(sample) > 1 {
		dupField := config.TextFields[0]
		dupPairs, totalPairs := 0, 0
		for i := 0; i < len(sample); i++ {
			text1 := utils.ToString(sample[i][dupField])
			if text1 == "" {
				continue
			}
			for j := i + 1; j < len(sample); j++ {
				text2 := utils.ToString(sample[j][dupField])
				if text2 == "" {
					continue
				}
				totalPairs++
				if FuzzyFieldSimilarity(text1, text2) >= consistencyDupThreshold {
					dupPairs++
				}
			}
		}
		if totalPairs > 0 && dupPairs > 0 {
			value -= float64(dupPairs) / float64(totalPairs) * 0.5
			details["near_duplicate_pairs"] = dupPairs
		}
	}

	// 文本长度离散惩罚：变异系数过大说明来源格式不统一
	for _, field := range config.TextFields {
		if cv, ok := lengthVariation(sample, field); ok && cv > 1.0 {
			value -= 0.05
			details[field+"_length_cv"] = cv
		}
	}

	value = clamp01(value)
	threshold := config.DimensionThresholds["consistency"]
	return models.QualityMetric{
		Name:        "数据一致性",
		Dimension:   models.DimensionConsistency,
		Value:       value,
		Threshold:   threshold,
		Status:      statusForValue(value, threshold),
		Description: fmt.Sprintf("一致性得分 %.1f%%", value*100),
		Details:     details,
	}
}

// measureUniqueness 唯一性：关键字段 (去重计数 - 重复超额) / 总数 的平均
func (qm *QualityMonitor) measureUniqueness(sample []map[string]interface{}, config meta.QualityConfig) models.QualityMetric {
	var fieldScores []float64
	details := make(map[string]interface{})

	for _, field := range config.KeyFields {
		counts := make(map[string]int)
		total := 0
		for _, record := range sample {
			value := utils.ToString(record[field])
			if value == "" {
				continue
			}
			counts[value]++
			total++
		}
		if total == 0 {
			continue
		}

		duplicateExcess := total - len(counts)
		score := clamp01(float64(len(counts)-duplicateExcess) / float64(total))
		fieldScores = append(fieldScores, score)
		details[field] = map[string]interface{}{
			"distinct": len(counts), "total": total, "duplicate_excess": duplicateExcess,
		}
	}

	value := 1.0
	if len(fieldScores) > 0 {
		var sum float64
		for _, score := range fieldScores {
			sum += score
		}
		value = clamp01(sum / float64(len(fieldScores)))
	}

	threshold := config.DimensionThresholds["uniqueness"]
	return models.QualityMetric{
		Name:        "记录唯一性",
		Dimension:   models.DimensionUniqueness,
		Value:       value,
		Threshold:   threshold,
		Status:      statusForValue(value, threshold),
		Description: fmt.Sprintf("关键字段唯一性得分 %.1f%%", value*100),
		Details:     details,
	}
}

// collectIssues 等级为 poor/critical 的指标构成质量问题
func (qm *QualityMonitor) collectIssues(metrics []models.QualityMetric) []models.QualityIssue {
	var issues []models.QualityIssue
	for _, metric := range metrics {
		if metric.Status == models.QualityPoor || metric.Status == models.QualityCritical {
			issues = append(issues, models.QualityIssue{
				Metric:      metric.Name,
				Level:       metric.Status,
				Description: fmt.Sprintf("%s 得分 %.2f 低于阈值 %.2f", metric.Name, metric.Value, metric.Threshold),
			})
		}
	}
	return issues
}

// recommendationTemplates 各维度的改进建议模板
var recommendationTemplates = map[models.QualityDimension]string{
	models.DimensionCompleteness: "补充缺失字段的采集规则，优先覆盖必填与重要字段",
	models.DimensionAccuracy:     "检查价格与统计数值的提取逻辑，过滤越界数据",
	models.DimensionValidity:     "修正URL、邮箱和电话的解析规则，丢弃不合规值",
	models.DimensionConsistency:  "统一货币与文本格式，排查相似度过高的重复来源",
	models.DimensionUniqueness:   "检查采集任务是否存在重复抓取，确认去重配置生效",
}

// buildRecommendations 按触发问题的维度生成建议，存在 critical 指标时附加立即整改提示
func (qm *QualityMonitor) buildRecommendations(issues []models.QualityIssue, metrics []models.QualityMetric) []string {
	var recommendations []string
	seen := make(map[models.QualityDimension]bool)
	hasCritical := false

	for _, metric := range metrics {
		if metric.Status != models.QualityPoor && metric.Status != models.QualityCritical {
			continue
		}
		if metric.Status == models.QualityCritical {
			hasCritical = true
		}
		if !seen[metric.Dimension] {
			seen[metric.Dimension] = true
			recommendations = append(recommendations, recommendationTemplates[metric.Dimension])
		}
	}

	if hasCritical {
		recommendations = append(recommendations, "存在严重质量问题，建议暂停下游消费并立即整改")
	}
	return recommendations
}

// statusForValue 指标值到质量等级的映射
func statusForValue(value, threshold float64) models.QualityLevel {
	switch {
	case value >= 0.9:
		return models.QualityExcellent
	case value >= threshold:
		return models.QualityGood
	case value >= threshold-0.1:
		return models.QualityFair
	case value >= threshold-0.2:
		return models.QualityPoor
	default:
		return models.QualityCritical
	}
}

// numericValue 防御性读取数值字段
func numericValue(record map[string]interface{}, field string) (float64, bool) {
	value, ok := record[field]
	if !ok || utils.IsEmptyValue(value) {
		return 0, false
	}
	f, err := utils.ToFloat(value)
	if err != nil {
		return 0, false
	}
	return f, true
}

// matchesPatternKind 按模式类别检查值
func matchesPatternKind(value, patternKind string) bool {
	switch patternKind {
	case "url":
		return isWellFormedURL(value)
	case "email":
		return emailPattern.MatchString(value)
	case "phone":
		return mobilePattern.MatchString(value) || landlinePattern.MatchString(value)
	default:
		return true
	}
}

// lengthVariation 字段文本长度的变异系数
func lengthVariation(sample []map[string]interface{}, field string) (float64, bool) {
	var lengths []float64
	for _, record := range sample {
		if text := utils.ToString(record[field]); text != "" {
			lengths = append(lengths, float64(len([]rune(text))))
		}
	}
	if len(lengths) < 2 {
		return 0, false
	}

	var sum float64
	for _, length := range lengths {
		sum += length
	}
	mean := sum / float64(len(lengths))
	if mean == 0 {
		return 0, false
	}

	var variance float64
	for _, length := range lengths {
		variance += (length - mean) * (length - mean)
	}
	variance /= float64(len(lengths))

	return math.Sqrt(variance) / mean, true
}

// clamp01 限制到 [0,1]
func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
