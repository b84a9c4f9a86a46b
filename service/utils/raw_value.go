/**
 * @module raw_value
 * @description 原始值转换工具模块，负责爬虫记录中松散类型值的防御性转换、时间解析和编码转换
 * @architecture 工具函数模式，提供静态转换方法集合
 * @documentReference ai_docs/pipeline_core_design.md 第3节
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 同一逻辑字段可能以字符串或数值形式到达，转换必须防御性处理
 *   - 转换失败返回错误而非恐慌，由调用方决定降级策略
 *   - 编码转换需要支持 GBK 采集页面
 * @dependencies
 *   - github.com/spf13/cast: 基础类型转换
 *   - golang.org/x/text: GBK 编码转换
 *   - time, strconv, strings: 标准库支撑
 * @refs
 *   - service/pipeline/cleaner.go
 *   - service/pipeline/validator.go
 */

package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ToString 转换为字符串，任何输入都有确定输出
func ToString(value interface{}) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		// GBK采集页面的字节值先转码再进入管道
		if !utf8.Valid(v) {
			if decoded, err := ConvertGBKToUTF8(v); err == nil && utf8.Valid(decoded) {
				return string(decoded)
			}
		}
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}

	if s, err := cast.ToStringE(value); err == nil {
		return s
	}

	// 复合类型尝试JSON序列化
	if data, err := json.Marshal(value); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", value)
}

// ToFloat 转换为浮点数
func ToFloat(value interface{}) (float64, error) {
	if value == nil {
		return 0, fmt.Errorf("nil值无法转换为浮点数")
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToFloat64E(value)
}

// ToInt64 转换为整数
func ToInt64(value interface{}) (int64, error) {
	if value == nil {
		return 0, fmt.Errorf("nil值无法转换为整数")
	}
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	return cast.ToInt64E(value)
}

// IsEmptyValue 判断值是否为空：nil、空白字符串、空容器均视为空
func IsEmptyValue(value interface{}) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	case map[string]string:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

// NormalizeWhitespace 压缩空白：去除首尾空白并将连续空白折叠为单个空格
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// dateLayouts 采集数据中出现过的日期格式
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006年01月02日",
	"2006年1月2日",
	"2006.01.02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseFlexibleDate 解析多种日期格式，统一输出 YYYY-MM-DD
func ParseFlexibleDate(dateStr string) (string, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return "", fmt.Errorf("日期字符串为空")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("无法解析日期格式: %s", dateStr)
}

// ConvertGBKToUTF8 GBK/GB2312 编码转换为 UTF-8
func ConvertGBKToUTF8(data []byte) ([]byte, error) {
	decoder := simplifiedchinese.GBK.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	return result, err
}

// ConvertUTF8ToGBK UTF-8 编码转换为 GBK
func ConvertUTF8ToGBK(data []byte) ([]byte, error) {
	encoder := simplifiedchinese.GBK.NewEncoder()
	result, _, err := transform.Bytes(encoder, data)
	return result, err
}
