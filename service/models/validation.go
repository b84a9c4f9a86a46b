/*
 * @module service/models/validation
 * @description 数据校验结果模型，按字段记录错误、警告和提示信息
 * @architecture 数据模型层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 校验执行 -> 分级结果收集 -> 汇总判定
 * @rules 校验结果作为数据返回而非异常抛出，级别为 error 的记录不进入后续流程
 * @dependencies 无
 * @refs service/pipeline/validator.go
 */

package models

// FindingLevel 校验结果级别
type FindingLevel string

const (
	FindingError   FindingLevel = "error"   // 错误，记录不可用
	FindingWarning FindingLevel = "warning" // 警告，记录可用但需关注
	FindingInfo    FindingLevel = "info"    // 提示
)

// OverallField 汇总结果使用的合成字段名
const OverallField = "overall"

// ValidationFinding 单条校验结果
type ValidationFinding struct {
	Level      FindingLevel `json:"level"`
	Field      string       `json:"field"`
	Message    string       `json:"message"`
	Value      interface{}  `json:"value,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// HasError 判断结果集中是否存在错误级别的发现
func HasError(findings []ValidationFinding) bool {
	for _, f := range findings {
		if f.Level == FindingError {
			return true
		}
	}
	return false
}

// CountByLevel 按级别统计校验结果，忽略合成的汇总字段
func CountByLevel(findings []ValidationFinding) (errors, warnings, infos int) {
	for _, f := range findings {
		if f.Field == OverallField {
			continue
		}
		switch f.Level {
		case FindingError:
			errors++
		case FindingWarning:
			warnings++
		case FindingInfo:
			infos++
		}
	}
	return
}
