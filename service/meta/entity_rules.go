/*
 * @module service/meta/entity_rules
 * @description 实体规则元数据，商品与供应商各自的清洗、校验、去重和质量评估规则表
 * @architecture 元数据层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 静态元数据定义
 * @rules 实体差异全部以规则表数据表达，处理逻辑本身保持实体无关
 * @dependencies 无
 * @refs service/pipeline/cleaner.go, service/pipeline/deduplicator.go, service/pipeline/quality_monitor.go
 */

package meta

// 文本长度上限
const (
	TitleMaxLength       = 500
	DescriptionMaxLength = 2000
	NameMaxLength        = 200
	AddressMaxLength     = 500
)

// 数值校验边界
const (
	PriceMinBound       = 0.01
	PriceMaxBound       = 1000000.0
	CountSanityCeiling  = 10000000 // 销量/评论数合理上限
	RatingMinBound      = 0.0
	RatingMaxBound      = 5.0
	MaxSpecEntries      = 50
	MaxDetailImages     = 10
	MaxIssueSampleItems = 10 // 质量报告中问题明细的采样上限
)

// UnitSynonyms 计量单位同义词表，键为小写去空格后的原始单位
var UnitSynonyms = map[string]string{
	"个":     "piece",
	"件":     "piece",
	"只":     "piece",
	"pcs":   "piece",
	"pc":    "piece",
	"piece": "piece",
	"套":     "set",
	"set":   "set",
	"双":     "pair",
	"对":     "pair",
	"pair":  "pair",
	"公斤":    "kg",
	"千克":    "kg",
	"kg":    "kg",
	"克":     "g",
	"g":     "g",
	"吨":     "ton",
	"ton":   "ton",
	"米":     "m",
	"m":     "m",
	"箱":     "box",
	"box":   "box",
	"包":     "pack",
	"pack":  "pack",
}

// CurrencyAliases 货币别名表，统一到 ISO 代码
var CurrencyAliases = map[string]string{
	"rmb": "CNY",
	"cny": "CNY",
	"元":   "CNY",
	"￥":   "CNY",
	"¥":   "CNY",
	"人民币": "CNY",
	"usd": "USD",
	"$":   "USD",
	"美元":  "USD",
	"eur": "EUR",
	"€":   "EUR",
	"欧元":  "EUR",
}

// KnownCurrencies 校验器认可的货币代码
var KnownCurrencies = map[string]bool{
	"CNY": true,
	"USD": true,
	"EUR": true,
}

// DefaultCurrency 缺省货币
const DefaultCurrency = "CNY"

// DedupConfig 去重规则配置
type DedupConfig struct {
	ExactFields    []string           // 精确分区字段，为空则整批作为一个分区
	WeightedFields map[string]float64 // 相似度加权字段
	FuzzyFields    map[string]bool    // 使用模糊文本相似度的字段，其余字段严格相等
	KeyFields      []string           // duplicate_fields 判定字段
	Threshold      float64            // 分组相似度阈值
}

// ProductDedupConfig 商品去重配置
var ProductDedupConfig = DedupConfig{
	ExactFields: nil,
	WeightedFields: map[string]float64{
		"title":       0.5,
		"price_min":   0.15,
		"price_max":   0.15,
		"unit":        0.1,
		"category_id": 0.1,
	},
	FuzzyFields: map[string]bool{"title": true},
	KeyFields:   []string{"source_id", "title", "price_min"},
	Threshold:   0.85,
}

// SupplierDedupConfig 供应商去重配置
var SupplierDedupConfig = DedupConfig{
	ExactFields: nil,
	WeightedFields: map[string]float64{
		"name":     0.5,
		"phone":    0.2,
		"email":    0.2,
		"province": 0.05,
		"city":     0.05,
	},
	FuzzyFields: map[string]bool{"name": true},
	KeyFields:   []string{"source_id", "name", "phone"},
	Threshold:   0.80,
}

// DedupConfigFor 按实体类型取去重配置
func DedupConfigFor(entityType string) DedupConfig {
	if entityType == "supplier" {
		return SupplierDedupConfig
	}
	return ProductDedupConfig
}

// ScoreGroup 代表记录完整度评分的字段组
type ScoreGroup struct {
	Name   string
	Fields []string
	Weight float64 // 各组权重合计为 1.0，总分按 100 分制
}

// ProductScoreGroups 商品完整度评分表
var ProductScoreGroups = []ScoreGroup{
	{Name: "basic_info", Fields: []string{"source_id", "title", "description", "category_name"}, Weight: 0.30},
	{Name: "price_info", Fields: []string{"price_min", "price_max", "currency", "moq"}, Weight: 0.20},
	{Name: "statistics", Fields: []string{"sales_count", "review_count", "rating"}, Weight: 0.20},
	{Name: "media", Fields: []string{"main_image_url", "detail_images"}, Weight: 0.15},
	{Name: "specifications", Fields: []string{"specifications"}, Weight: 0.15},
}

// SupplierScoreGroups 供应商完整度评分表
var SupplierScoreGroups = []ScoreGroup{
	{Name: "basic_info", Fields: []string{"source_id", "name", "description"}, Weight: 0.30},
	{Name: "contact", Fields: []string{"phone", "email", "qq"}, Weight: 0.25},
	{Name: "address", Fields: []string{"province", "city", "address"}, Weight: 0.20},
	{Name: "business", Fields: []string{"registered_capital", "established_date"}, Weight: 0.15},
	{Name: "certifications", Fields: []string{"certifications"}, Weight: 0.10},
}

// ScoreGroupsFor 按实体类型取完整度评分表
func ScoreGroupsFor(entityType string) []ScoreGroup {
	if entityType == "supplier" {
		return SupplierScoreGroups
	}
	return ProductScoreGroups
}

// 完整性评估中字段等级的权重
const (
	RequiredFieldWeight  = 0.5
	ImportantFieldWeight = 0.3
	OptionalFieldWeight  = 0.2
)

// QualityConfig 质量评估配置
type QualityConfig struct {
	RequiredFields      []string
	ImportantFields     []string
	OptionalFields      []string
	KeyFields           []string            // 唯一性评估字段
	TextFields          []string            // 一致性评估的长度方差字段
	PatternFields       map[string]string   // 有效性评估字段 -> 模式类别 (url/email/phone)
	DimensionThresholds map[string]float64  // 维度达标阈值
	OverallThreshold    float64             // 报告级阈值
}

// DimensionWeights 总分加权，按总应用权重归一化
var DimensionWeights = map[string]float64{
	"completeness": 0.30,
	"accuracy":     0.25,
	"validity":     0.20,
	"consistency":  0.15,
	"uniqueness":   0.10,
}

// ProductQualityConfig 商品质量评估配置
var ProductQualityConfig = QualityConfig{
	RequiredFields:  []string{"source_id", "title", "price_min"},
	ImportantFields: []string{"price_max", "currency", "main_image_url", "category_name"},
	OptionalFields:  []string{"description", "moq", "unit", "detail_images", "specifications", "rating"},
	KeyFields:       []string{"source_id", "title"},
	TextFields:      []string{"title", "description"},
	PatternFields: map[string]string{
		"main_image_url": "url",
	},
	DimensionThresholds: map[string]float64{
		"completeness": 0.80,
		"accuracy":     0.85,
		"validity":     0.85,
		"consistency":  0.75,
		"uniqueness":   0.80,
	},
	OverallThreshold: 0.80,
}

// SupplierQualityConfig 供应商质量评估配置
var SupplierQualityConfig = QualityConfig{
	RequiredFields:  []string{"source_id", "name"},
	ImportantFields: []string{"phone", "email", "province", "city"},
	OptionalFields:  []string{"description", "qq", "address", "registered_capital", "established_date", "certifications"},
	KeyFields:       []string{"source_id", "name"},
	TextFields:      []string{"name", "address"},
	PatternFields: map[string]string{
		"phone": "phone",
		"email": "email",
	},
	DimensionThresholds: map[string]float64{
		"completeness": 0.80,
		"accuracy":     0.85,
		"validity":     0.85,
		"consistency":  0.75,
		"uniqueness":   0.80,
	},
	OverallThreshold: 0.80,
}

// QualityConfigFor 按实体类型取质量评估配置
func QualityConfigFor(entityType string) QualityConfig {
	if entityType == "supplier" {
		return SupplierQualityConfig
	}
	return ProductQualityConfig
}
