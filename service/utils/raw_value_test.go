/*
 * @module service/utils/raw_value_test
 * @description 原始值转换工具的单元测试
 * @architecture 单元测试 - 验证松散类型转换与日期解析的正确性
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 测试数据准备 -> 转换执行 -> 结果验证
 * @rules 确保各种松散输入形态的转换正确性和边界情况处理
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs raw_value.go
 */

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToString(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "nil值", input: nil, expected: ""},
		{name: "字符串原样返回", input: "hello", expected: "hello"},
		{name: "整数", input: 42, expected: "42"},
		{name: "浮点数", input: 15.5, expected: "15.5"},
		{name: "布尔值", input: true, expected: "true"},
		{name: "字节切片", input: []byte("数据"), expected: "数据"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToString(tt.input))
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		wantErr  bool
	}{
		{name: "浮点数", input: 15.5, expected: 15.5},
		{name: "整数", input: 20, expected: 20.0},
		{name: "数值字符串", input: "28.0", expected: 28.0},
		{name: "带空白的数值字符串", input: "  28.0  ", expected: 28.0},
		{name: "非数值字符串", input: "abc", wantErr: true},
		{name: "nil值", input: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ToFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsEmptyValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected bool
	}{
		{name: "nil值为空", input: nil, expected: true},
		{name: "空字符串为空", input: "", expected: true},
		{name: "纯空白为空", input: "   ", expected: true},
		{name: "空切片为空", input: []interface{}{}, expected: true},
		{name: "空映射为空", input: map[string]interface{}{}, expected: true},
		{name: "零值数字不为空", input: 0, expected: false},
		{name: "非空字符串不为空", input: "x", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsEmptyValue(tt.input))
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a \t b\n\nc  "))
	assert.Equal(t, "", NormalizeWhitespace("   "))
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "标准格式", input: "2015-06-01", expected: "2015-06-01"},
		{name: "斜杠格式", input: "2015/06/01", expected: "2015-06-01"},
		{name: "中文格式", input: "2015年06月01日", expected: "2015-06-01"},
		{name: "中文格式无前导零", input: "2015年6月1日", expected: "2015-06-01"},
		{name: "点分格式", input: "2015.06.01", expected: "2015-06-01"},
		{name: "带时间", input: "2015-06-01 10:30:00", expected: "2015-06-01"},
		{name: "无法解析", input: "上世纪九十年代", wantErr: true},
		{name: "空字符串", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFlexibleDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConvertGBKRoundTrip(t *testing.T) {
	original := []byte("不锈钢保温杯")

	gbk, err := ConvertUTF8ToGBK(original)
	require.NoError(t, err)
	assert.NotEqual(t, original, gbk)

	utf8, err := ConvertGBKToUTF8(gbk)
	require.NoError(t, err)
	assert.Equal(t, original, utf8)
}

func TestToString_GBKBytes(t *testing.T) {
	gbk, err := ConvertUTF8ToGBK([]byte("不锈钢保温杯"))
	require.NoError(t, err)

	// GBK字节值在转换为字符串时自动转码
	assert.Equal(t, "不锈钢保温杯", ToString(gbk))
	// UTF-8字节值原样透传
	assert.Equal(t, "不锈钢保温杯", ToString([]byte("不锈钢保温杯")))
}
