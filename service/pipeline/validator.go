/*
 * @module service/pipeline/validator
 * @description 数据校验器，对规范记录执行分级规则检查并输出字段级发现
 * @architecture 管道模式 - 校验阶段，规则按实体类型查表选择
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 字段规则检查 -> 分级结果收集 -> 汇总发现合成
 * @rules 校验是全函数，畸形输入本身成为校验发现而非异常
 * @dependencies fmt, strings, net/url
 * @refs service/meta/entity_rules.go, service/models/validation.go
 */

package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"commerce-pipeline/service/meta"
	"commerce-pipeline/service/models"
	"commerce-pipeline/service/utils"
)

// Validator 数据校验器
type Validator struct{}

// NewValidator 创建数据校验器
func NewValidator() *Validator {
	return &Validator{}
}

// Validate 校验单条规范记录，返回字段级发现列表
// 任意输入都有确定输出，从不恐慌
func (v *Validator) Validate(record map[string]interface{}, kind models.EntityKind) []models.ValidationFinding {
	if record == nil {
		record = map[string]interface{}{}
	}

	var findings []models.ValidationFinding
	if kind == models.EntityKindSupplier {
		findings = v.validateSupplier(record)
	} else {
		findings = v.validateProduct(record)
	}

	return v.appendOverall(findings)
}

// validateProduct 商品校验规则
func (v *Validator) validateProduct(record map[string]interface{}) []models.ValidationFinding {
	var findings []models.ValidationFinding

	findings = append(findings, v.checkRequired(record, "source_id")...)
	findings = append(findings, v.checkRequired(record, "title")...)
	findings = append(findings, v.checkTextLength(record, "title", meta.TitleMaxLength)...)
	findings = append(findings, v.checkTextLength(record, "description", meta.DescriptionMaxLength)...)

	findings = append(findings, v.checkPriceRange(record)...)
	findings = append(findings, v.checkCount(record, "sales_count")...)
	findings = append(findings, v.checkCount(record, "review_count")...)
	findings = append(findings, v.checkRating(record)...)
	findings = append(findings, v.checkURLField(record, "main_image_url")...)
	findings = append(findings, v.checkURLField(record, "video_url")...)
	findings = append(findings, v.checkDetailImages(record)...)
	findings = append(findings, v.checkSpecifications(record)...)
	findings = append(findings, v.checkCurrency(record)...)

	return findings
}

// validateSupplier 供应商校验规则
func (v *Validator) validateSupplier(record map[string]interface{}) []models.ValidationFinding {
	var findings []models.ValidationFinding

	findings = append(findings, v.checkRequired(record, "source_id")...)
	findings = append(findings, v.checkRequired(record, "name")...)
	findings = append(findings, v.checkTextLength(record, "name", meta.NameMaxLength)...)

	if phone := utils.ToString(record["phone"]); phone != "" &&
		!mobilePattern.MatchString(phone) && !landlinePattern.MatchString(phone) {
		findings = append(findings, models.ValidationFinding{
			Level:      models.FindingWarning,
			Field:      "phone",
			Message:    "电话号码格式不正确",
			Value:      record["phone"],
			Suggestion: "使用11位手机号或带区号的座机号",
		})
	}
	if email := utils.ToString(record["email"]); email != "" && !emailPattern.MatchString(email) {
		findings = append(findings, models.ValidationFinding{
			Level:   models.FindingWarning,
			Field:   "email",
			Message: "邮箱格式不正确",
			Value:   record["email"],
		})
	}
	if qq := utils.ToString(record["qq"]); qq != "" && !qqPattern.MatchString(qq) {
		findings = append(findings, models.ValidationFinding{
			Level:   models.FindingWarning,
			Field:   "qq",
			Message: "QQ号格式不正确",
			Value:   record["qq"],
		})
	}

	province := utils.ToString(record["province"])
	city := utils.ToString(record["city"])
	if (province == "") != (city == "") {
		findings = append(findings, models.ValidationFinding{
			Level:   models.FindingInfo,
			Field:   "address",
			Message: "地址信息不完整，省份与城市应同时提供",
		})
	}

	if capital, ok := record["registered_capital"]; ok && !utils.IsEmptyValue(capital) {
		if n, err := utils.ToInt64(capital); err != nil || n <= 0 {
			findings = append(findings, models.ValidationFinding{
				Level:   models.FindingWarning,
				Field:   "registered_capital",
				Message: "注册资本无效",
				Value:   capital,
			})
		}
	}
	if date, ok := record["established_date"]; ok && !utils.IsEmptyValue(date) {
		if _, err := utils.ParseFlexibleDate(utils.ToString(date)); err != nil {
			findings = append(findings, models.ValidationFinding{
				Level:   models.FindingWarning,
				Field:   "established_date",
				Message: "成立日期无法解析",
				Value:   date,
			})
		}
	}

	return findings
}

// checkRequired 必填字段检查
func (v *Validator) checkRequired(record map[string]interface{}, field string) []models.ValidationFinding {
	if utils.IsEmptyValue(record[field]) {
		return []models.ValidationFinding{{
			Level:      models.FindingError,
			Field:      field,
			Message:    fmt.Sprintf("必填字段 %s 缺失或为空", field),
			Suggestion: "补充该字段后重新采集",
		}}
	}
	return nil
}

// checkTextLength 文本长度检查
func (v *Validator) checkTextLength(record map[string]interface{}, field string, maxLength int) []models.ValidationFinding {
	text := utils.ToString(record[field])
	if length := len([]rune(text)); length > maxLength {
		return []models.ValidationFinding{{
			Level:   models.FindingWarning,
			Field:   field,
			Message: fmt.Sprintf("字段 %s 长度 %d 超过上限 %d", field, length, maxLength),
		}}
	}
	return nil
}

// checkPriceRange 价格检查：非法数值为错误，超出常规区间为警告
func (v *Validator) checkPriceRange(record map[string]interface{}) []models.ValidationFinding {
	var findings []models.ValidationFinding

	prices := map[string]float64{}
	for _, field := range []string{"price_min", "price_max"} {
		value, ok := record[field]
		if !ok || utils.IsEmptyValue(value) {
			continue
		}
		price, err := utils.ToFloat(value)
		if err != nil {
			findings = append(findings, models.ValidationFinding{
				Level:   models.FindingError,
				Field:   field,
				Message: fmt.Sprintf("字段 %s 不是有效数值", field),
				Value:   value,
			})
			continue
		}
		if price <= 0 {
			findings = append(findings, models.ValidationFinding{
				Level:   models.FindingError,
				Field:   field,
				Message: fmt.Sprintf("字段 %s 必须为正数", field),
				Value:   value,
			})
			continue
		}
		prices[field] = price
		if price < meta.PriceMinBound || price > meta.PriceMaxBound {
			findings = append(findings, models.ValidationFinding{
				Level:   models.FindingWarning,
				Field:   field,
				Message: fmt.Sprintf("字段 %s 超出常规价格区间 [%.2f, %.0f]", field, meta.PriceMinBound, meta.PriceMaxBound),
				Value:   value,
			})
		}
	}

	priceMin, hasMin := prices["price_min"]
	priceMax, hasMax := prices["price_max"]
	if hasMin && hasMax && priceMin > priceMax {
		findings = append(findings, models.ValidationFinding{
			Level:      models.FindingError,
			Field:      "price_range",
			Message:    "最低价高于最高价",
			Value:      fmt.Sprintf("%.2f > %.2f", priceMin, priceMax),
			Suggestion: "检查价格提取逻辑或源数据",
		})
	}

	return findings
}

// checkCount 计数字段检查
func (v *Validator) checkCount(record map[string]interface{}, field string) []models.ValidationFinding {
	value, ok := record[field]
	if !ok || utils.IsEmptyValue(value) {
		return nil
	}

	count, err := utils.ToInt64(value)
	if err != nil {
		return []models.ValidationFinding{{
			Level:   models.FindingError,
			Field:   field,
			Message: fmt.Sprintf("字段 %s 不是有效数值", field),
			Value:   value,
		}}
	}
	if count < 0 {
		return []models.ValidationFinding{{
			Level:   models.FindingError,
			Field:   field,
			Message: fmt.Sprintf("字段 %s 不能为负数", field),
			Value:   value,
		}}
	}
	if count > meta.CountSanityCeiling {
		return []models.ValidationFinding{{
			Level:   models.FindingWarning,
			Field:   field,
			Message: fmt.Sprintf("字段 %s 超过合理上限 %d", field, meta.CountSanityCeiling),
			Value:   value,
		}}
	}
	return nil
}

// checkRating 评分检查
func (v *Validator) checkRating(record map[string]interface{}) []models.ValidationFinding {
	value, ok := record["rating"]
	if !ok || utils.IsEmptyValue(value) {
		return nil
	}

	rating, err := utils.ToFloat(value)
	if err != nil {
		return []models.ValidationFinding{{
			Level:   models.FindingError,
			Field:   "rating",
			Message: "评分不是有效数值",
			Value:   value,
		}}
	}
	if rating < meta.RatingMinBound || rating > meta.RatingMaxBound {
		return []models.ValidationFinding{{
			Level:   models.FindingError,
			Field:   "rating",
			Message: fmt.Sprintf("评分 %.2f 超出 [%.0f, %.0f] 区间", rating, meta.RatingMinBound, meta.RatingMaxBound),
			Value:   value,
		}}
	}
	return nil
}

// checkURLField 单个URL字段检查
func (v *Validator) checkURLField(record map[string]interface{}, field string) []models.ValidationFinding {
	value := utils.ToString(record[field])
	if value == "" {
		return nil
	}
	if !isWellFormedURL(value) {
		return []models.ValidationFinding{{
			Level:   models.FindingWarning,
			Field:   field,
			Message: fmt.Sprintf("字段 %s 不是合法URL", field),
			Value:   value,
		}}
	}
	return nil
}

// checkDetailImages 详情图列表检查
func (v *Validator) checkDetailImages(record map[string]interface{}) []models.ValidationFinding {
	var candidates []string
	switch images := record["detail_images"].(type) {
	case []string:
		candidates = images
	case []interface{}:
		for _, item := range images {
			candidates = append(candidates, utils.ToString(item))
		}
	default:
		return nil
	}

	for _, candidate := range candidates {
		if !isWellFormedURL(candidate) {
			return []models.ValidationFinding{{
				Level:   models.FindingWarning,
				Field:   "detail_images",
				Message: "详情图列表包含非法URL",
				Value:   candidate,
			}}
		}
	}
	return nil
}

// checkSpecifications 规格容器检查
func (v *Validator) checkSpecifications(record map[string]interface{}) []models.ValidationFinding {
	value, ok := record["specifications"]
	if !ok || value == nil {
		return nil
	}

	var entries int
	switch specs := value.(type) {
	case map[string]string:
		entries = len(specs)
	case map[string]interface{}:
		entries = len(specs)
		for key, val := range specs {
			if _, isStr := val.(string); !isStr {
				return []models.ValidationFinding{{
					Level:   models.FindingWarning,
					Field:   "specifications",
					Message: fmt.Sprintf("规格项 %s 的值不是字符串", key),
					Value:   val,
				}}
			}
		}
	default:
		return []models.ValidationFinding{{
			Level:   models.FindingError,
			Field:   "specifications",
			Message: "规格必须为键值映射",
			Value:   value,
		}}
	}

	if entries > meta.MaxSpecEntries {
		return []models.ValidationFinding{{
			Level:   models.FindingWarning,
			Field:   "specifications",
			Message: fmt.Sprintf("规格条目数 %d 超过上限 %d", entries, meta.MaxSpecEntries),
		}}
	}
	return nil
}

// checkCurrency 货币代码检查
func (v *Validator) checkCurrency(record map[string]interface{}) []models.ValidationFinding {
	currency := utils.ToString(record["currency"])
	if currency == "" || meta.KnownCurrencies[currency] {
		return nil
	}
	return []models.ValidationFinding{{
		Level:      models.FindingWarning,
		Field:      "currency",
		Message:    fmt.Sprintf("无法识别的货币代码: %s", currency),
		Suggestion: "确认货币别名表是否需要扩充",
	}}
}

// appendOverall 合成汇总发现：存在错误为 error，仅有警告为 warning，否则不生成
func (v *Validator) appendOverall(findings []models.ValidationFinding) []models.ValidationFinding {
	errors, warnings, _ := models.CountByLevel(findings)
	if errors > 0 {
		return append(findings, models.ValidationFinding{
			Level:   models.FindingError,
			Field:   models.OverallField,
			Message: fmt.Sprintf("校验未通过: %d 个错误, %d 个警告", errors, warnings),
		})
	}
	if warnings > 0 {
		return append(findings, models.ValidationFinding{
			Level:   models.FindingWarning,
			Field:   models.OverallField,
			Message: fmt.Sprintf("校验通过但存在 %d 个警告", warnings),
		})
	}
	return findings
}

// isWellFormedURL 检查URL是否带协议和主机
func isWellFormedURL(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}
