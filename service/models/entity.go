/*
 * @module service/models/entity
 * @description 实体类型定义，商品与供应商两种采集实体的封闭枚举
 * @architecture 数据模型层
 * @documentReference ai_docs/pipeline_core_design.md
 * @stateFlow 静态类型定义
 * @rules 实体类型只在入口处解析一次，核心逻辑通过规则表查找保持类型无关
 * @dependencies fmt
 * @refs service/meta/entity_rules.go
 */

package models

import "fmt"

// EntityKind 采集实体类型
type EntityKind string

const (
	EntityKindProduct  EntityKind = "product"  // 商品
	EntityKindSupplier EntityKind = "supplier" // 供应商
)

// ParseEntityKind 解析实体类型字符串
// 未知类型属于配置错误，调用方应立即失败
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(s) {
	case EntityKindProduct:
		return EntityKindProduct, nil
	case EntityKindSupplier:
		return EntityKindSupplier, nil
	default:
		return "", fmt.Errorf("未知实体类型: %s", s)
	}
}
