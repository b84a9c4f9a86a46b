/*
 * @module service/pipeline/cleaner
 * @description 数据清洗器，将爬虫采集的松散原始记录归一化为规范记录
 * @architecture 管道模式 - 清洗阶段，按字段应用归一化规则
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 原始记录 -> 文本清理 -> 数值提取 -> 格式归一 -> 规范记录
 * @rules 清洗永不失败，无法恢复的字段直接省略；清洗结果再次清洗为不动点
 * @dependencies regexp, strconv, strings, net/url, unicode
 * @refs service/meta/entity_rules.go, service/utils/raw_value.go
 */

package pipeline

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"commerce-pipeline/service/meta"
	"commerce-pipeline/service/models"
	"commerce-pipeline/service/utils"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

	// 带货币标记的价格片段
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`[¥￥]\s*(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*元`),
		regexp.MustCompile(`(?i)rmb\s*(\d+(?:\.\d+)?)`),
	}

	// 起订量片段
	moqPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*[件个套只双对]?起`),
		regexp.MustCompile(`(?i)moq[:：]?\s*(\d+)`),
	}

	mobilePattern   = regexp.MustCompile(`^1[3-9]\d{9}$`)
	landlinePattern = regexp.MustCompile(`^0\d{2,3}-?\d{7,8}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	qqPattern       = regexp.MustCompile(`^[1-9]\d{4,10}$`)

	// 注册资本：数值加可选的中文数量级后缀
	capitalPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(万|千|亿)?`)

	// 自由文本保留字符：中日韩、字母、数字之外允许的标点
	allowedPunct = ",.;:!?()[]{}<>@#%&*+=_/\\|~'\"-，。！？；：（）【】《》、·—…％￥¥"
)

// Cleaner 数据清洗器
type Cleaner struct{}

// NewCleaner 创建数据清洗器
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean 清洗单条原始记录，输出规范记录
// 清洗是全函数：任何输入都产出记录，不可解析的字段被省略
func (c *Cleaner) Clean(raw map[string]interface{}, kind models.EntityKind) map[string]interface{} {
	if raw == nil {
		return map[string]interface{}{}
	}
	if kind == models.EntityKindSupplier {
		return c.cleanSupplier(raw)
	}
	return c.cleanProduct(raw)
}

// cleanProduct 清洗商品记录
func (c *Cleaner) cleanProduct(raw map[string]interface{}) map[string]interface{} {
	record := make(map[string]interface{})

	if sourceID := strings.TrimSpace(utils.ToString(raw["source_id"])); sourceID != "" {
		record["source_id"] = sourceID
	}
	if title := c.CleanText(utils.ToString(raw["title"]), meta.TitleMaxLength); title != "" {
		record["title"] = title
	}
	if desc := c.CleanText(utils.ToString(raw["description"]), meta.DescriptionMaxLength); desc != "" {
		record["description"] = desc
	}

	c.cleanPriceRange(raw, record)

	if moq, ok := c.extractMOQ(raw); ok {
		record["moq"] = moq
	}
	if unit := c.NormalizeUnit(utils.ToString(raw["unit"])); unit != "" {
		record["unit"] = unit
	}
	if u, ok := c.validateURL(utils.ToString(raw["main_image_url"])); ok {
		record["main_image_url"] = u
	}
	if images := c.cleanDetailImages(raw["detail_images"]); len(images) > 0 {
		record["detail_images"] = images
	}
	if specs := c.CoerceSpecifications(raw["specifications"]); len(specs) > 0 {
		record["specifications"] = specs
	} else if specs := c.CoerceSpecifications(raw["attributes"]); len(specs) > 0 {
		record["specifications"] = specs
	}

	if categoryID := strings.TrimSpace(utils.ToString(raw["category_id"])); categoryID != "" {
		record["category_id"] = categoryID
	}
	if categoryName := c.CleanText(utils.ToString(raw["category_name"]), meta.NameMaxLength); categoryName != "" {
		record["category_name"] = categoryName
	}

	if count, err := utils.ToInt64(raw["sales_count"]); err == nil {
		if count < 0 {
			count = 0
		}
		record["sales_count"] = count
	}
	if count, err := utils.ToInt64(raw["review_count"]); err == nil {
		if count < 0 {
			count = 0
		}
		record["review_count"] = count
	}
	if rating, err := utils.ToFloat(raw["rating"]); err == nil && raw["rating"] != nil {
		if rating < meta.RatingMinBound {
			rating = meta.RatingMinBound
		}
		if rating > meta.RatingMaxBound {
			rating = meta.RatingMaxBound
		}
		record["rating"] = rating
	}

	return record
}

// cleanSupplier 清洗供应商记录
func (c *Cleaner) cleanSupplier(raw map[string]interface{}) map[string]interface{} {
	record := make(map[string]interface{})

	if sourceID := strings.TrimSpace(utils.ToString(raw["source_id"])); sourceID != "" {
		record["source_id"] = sourceID
	}
	if name := c.CleanText(utils.ToString(raw["name"]), meta.NameMaxLength); name != "" {
		record["name"] = name
	}
	if desc := c.CleanText(utils.ToString(raw["description"]), meta.DescriptionMaxLength); desc != "" {
		record["description"] = desc
	}

	if phone := c.normalizePhone(utils.ToString(raw["phone"])); phone != "" {
		record["phone"] = phone
	}
	if email := strings.ToLower(strings.TrimSpace(utils.ToString(raw["email"]))); emailPattern.MatchString(email) {
		record["email"] = email
	}
	if qq := strings.TrimSpace(utils.ToString(raw["qq"])); qqPattern.MatchString(qq) {
		record["qq"] = qq
	}

	if province := c.CleanText(utils.ToString(raw["province"]), meta.NameMaxLength); province != "" {
		record["province"] = province
	}
	if city := c.CleanText(utils.ToString(raw["city"]), meta.NameMaxLength); city != "" {
		record["city"] = city
	}
	if address := c.CleanText(utils.ToString(raw["address"]), meta.AddressMaxLength); address != "" {
		record["address"] = address
	}

	if capital := c.ParseRegisteredCapital(utils.ToString(raw["registered_capital"])); capital != "" {
		record["registered_capital"] = capital
	}
	if date, err := utils.ParseFlexibleDate(utils.ToString(raw["established_date"])); err == nil {
		record["established_date"] = date
	}

	if certs := c.cleanCertifications(raw["certifications"]); len(certs) > 0 {
		record["certifications"] = certs
	}

	return record
}

// CleanText 清理自由文本：去除HTML标签，过滤不允许的字符，压缩空白并按上限截断
func (c *Cleaner) CleanText(text string, maxLength int) string {
	if text == "" {
		return ""
	}

	text = htmlTagPattern.ReplaceAllString(text, " ")

	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
			strings.ContainsRune(allowedPunct, r) {
			b.WriteRune(r)
		}
	}

	text = utils.NormalizeWhitespace(b.String())

	runes := []rune(text)
	if maxLength > 3 && len(runes) > maxLength {
		text = string(runes[:maxLength-3]) + "..."
	}
	return text
}

// cleanPriceRange 归一化价格区间
// 规范数值字段优先，缺失时从价格文本中提取所有带货币标记的金额取最小最大值
func (c *Cleaner) cleanPriceRange(raw, record map[string]interface{}) {
	priceMin, okMin := c.numericField(raw, "price_min")
	priceMax, okMax := c.numericField(raw, "price_max")

	if !okMin && !okMax {
		for _, field := range []string{"price", "price_text"} {
			if prices := c.ExtractPrices(utils.ToString(raw[field])); len(prices) > 0 {
				priceMin, priceMax = prices[0], prices[0]
				for _, p := range prices[1:] {
					if p < priceMin {
						priceMin = p
					}
					if p > priceMax {
						priceMax = p
					}
				}
				okMin, okMax = true, true
				break
			}
		}
	}

	if okMin && okMax && priceMin > priceMax {
		priceMin, priceMax = priceMax, priceMin
	}
	if okMin {
		record["price_min"] = priceMin
	}
	if okMax {
		record["price_max"] = priceMax
	}

	currency := c.NormalizeCurrency(utils.ToString(raw["currency"]))
	if currency != "" {
		record["currency"] = currency
	} else if okMin || okMax {
		record["currency"] = meta.DefaultCurrency
	}
}

// numericField 读取可能以字符串编码的数值字段
func (c *Cleaner) numericField(raw map[string]interface{}, field string) (float64, bool) {
	value, ok := raw[field]
	if !ok || utils.IsEmptyValue(value) {
		return 0, false
	}
	f, err := utils.ToFloat(value)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ExtractPrices 从自由文本中提取全部带货币标记的金额
// 纯数值文本视为单一价格
func (c *Cleaner) ExtractPrices(text string) []float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return []float64{f}
	}

	var prices []float64
	for _, pattern := range pricePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if f, err := strconv.ParseFloat(match[1], 64); err == nil {
				prices = append(prices, f)
			}
		}
	}
	return prices
}

// NormalizeCurrency 货币别名归一化，未知货币原样透传（大写）
func (c *Cleaner) NormalizeCurrency(currency string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return ""
	}
	if code, ok := meta.CurrencyAliases[strings.ToLower(currency)]; ok {
		return code
	}
	return strings.ToUpper(currency)
}

// extractMOQ 提取最小起订量
func (c *Cleaner) extractMOQ(raw map[string]interface{}) (int64, bool) {
	for _, field := range []string{"moq", "min_order", "moq_text"} {
		value, ok := raw[field]
		if !ok || utils.IsEmptyValue(value) {
			continue
		}
		if n, err := utils.ToInt64(value); err == nil && n > 0 {
			return n, true
		}
		text := utils.ToString(value)
		for _, pattern := range moqPatterns {
			if match := pattern.FindStringSubmatch(text); match != nil {
				if n, err := strconv.ParseInt(match[1], 10, 64); err == nil && n > 0 {
					return n, true
				}
			}
		}
	}
	return 0, false
}

// NormalizeUnit 计量单位归一化，未知单位原样保留
func (c *Cleaner) NormalizeUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return ""
	}
	key := strings.ToLower(strings.ReplaceAll(unit, " ", ""))
	if normalized, ok := meta.UnitSynonyms[key]; ok {
		return normalized
	}
	return unit
}

// validateURL 校验URL必须带协议和主机
func (c *Cleaner) validateURL(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return rawURL, true
}

// cleanDetailImages 过滤非法图片地址并截断数量
func (c *Cleaner) cleanDetailImages(value interface{}) []string {
	var candidates []string
	switch v := value.(type) {
	case []string:
		candidates = v
	case []interface{}:
		for _, item := range v {
			candidates = append(candidates, utils.ToString(item))
		}
	case string:
		if v != "" {
			candidates = []string{v}
		}
	}

	var images []string
	for _, candidate := range candidates {
		if u, ok := c.validateURL(candidate); ok {
			images = append(images, u)
			if len(images) >= meta.MaxDetailImages {
				break
			}
		}
	}
	return images
}

// CoerceSpecifications 把不同来源形态的规格容器拍平为字符串映射
// 支持映射、"键:值"字符串序列和映射序列三种形态
func (c *Cleaner) CoerceSpecifications(value interface{}) map[string]string {
	specs := make(map[string]string)

	switch v := value.(type) {
	case map[string]string:
		for key, val := range v {
			c.putSpec(specs, key, val)
		}
	case map[string]interface{}:
		for key, val := range v {
			c.putSpec(specs, key, utils.ToString(val))
		}
	case []interface{}:
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				c.putSpecPair(specs, entry)
			case map[string]interface{}:
				for key, val := range entry {
					c.putSpec(specs, key, utils.ToString(val))
				}
			}
		}
	case []string:
		for _, entry := range v {
			c.putSpecPair(specs, entry)
		}
	}

	if len(specs) == 0 {
		return nil
	}
	return specs
}

// putSpecPair 解析 "键:值" 形态的规格项，同时接受中文冒号
func (c *Cleaner) putSpecPair(specs map[string]string, entry string) {
	entry = strings.ReplaceAll(entry, "：", ":")
	parts := strings.SplitN(entry, ":", 2)
	if len(parts) == 2 {
		c.putSpec(specs, parts[0], parts[1])
	}
}

func (c *Cleaner) putSpec(specs map[string]string, key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key != "" && value != "" {
		specs[key] = value
	}
}

// normalizePhone 电话号码归一化，只保留符合手机或座机格式的值
func (c *Cleaner) normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	compact := strings.NewReplacer(" ", "", "　", "").Replace(phone)
	if mobilePattern.MatchString(compact) || landlinePattern.MatchString(compact) {
		return compact
	}
	return ""
}

// ParseRegisteredCapital 解析注册资本文本，支持 万/千/亿 数量级后缀，输出纯整数字符串
func (c *Cleaner) ParseRegisteredCapital(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	match := capitalPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}

	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil || amount <= 0 {
		return ""
	}

	switch match[2] {
	case "万":
		amount *= 10000
	case "千":
		amount *= 1000
	case "亿":
		amount *= 100000000
	}

	return strconv.FormatInt(int64(amount), 10)
}

// cleanCertifications 清理认证信息列表
func (c *Cleaner) cleanCertifications(value interface{}) []string {
	var candidates []string
	switch v := value.(type) {
	case []string:
		candidates = v
	case []interface{}:
		for _, item := range v {
			candidates = append(candidates, utils.ToString(item))
		}
	case string:
		if v != "" {
			candidates = strings.Split(v, ",")
		}
	}

	var certs []string
	for _, candidate := range candidates {
		if cert := c.CleanText(candidate, meta.NameMaxLength); cert != "" {
			certs = append(certs, cert)
		}
	}
	return certs
}
