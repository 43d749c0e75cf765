package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// redemptionSearchKeys 关键字检索时匹配的兑换记录字段
var redemptionSearchKeys = []string{"film", "voucher_ref_id"}

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// jsonArrayElementExistsExprByDialect 构建“JSON 数组中存在某元素字段匹配”的子查询，兼容 sqlite 与 postgres。
func jsonArrayElementExistsExprByDialect(dialect, column, key string) string {
	operator := likeOperatorByDialect(dialect)
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		// postgres 统一转 jsonb 后展开数组
		return fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(%s, '[]')::jsonb) AS elem WHERE elem ->> '%s' %s ?)", column, key, operator)
	default:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(COALESCE(%s, '[]')) WHERE json_extract(json_each.value, '$.%s') %s ?)", column, key, operator)
	}
}

// buildKeywordLikeCondition 构建普通列 + JSON 数组列的 LIKE 条件，并返回参数数量。
func buildKeywordLikeCondition(db *gorm.DB, plainColumns, jsonArrayColumns []string) (string, int) {
	return buildKeywordLikeConditionByDialect(dbDialectName(db), plainColumns, jsonArrayColumns)
}

func buildKeywordLikeConditionByDialect(dialect string, plainColumns, jsonArrayColumns []string) (string, int) {
	parts := make([]string, 0, len(plainColumns)+len(jsonArrayColumns)*len(redemptionSearchKeys))
	argCount := 0
	operator := likeOperatorByDialect(dialect)

	for _, column := range plainColumns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("LOWER(%s) %s ?", trimmed, operator))
		argCount++
	}

	for _, column := range jsonArrayColumns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		for _, key := range redemptionSearchKeys {
			parts = append(parts, jsonArrayElementExistsExprByDialect(dialect, trimmed, key))
			argCount++
		}
	}

	return strings.Join(parts, " OR "), argCount
}

// supportsUnicodeLower 方言的 LOWER/ILIKE 是否按 Unicode 规则处理大小写
func supportsUnicodeLower(dialect string) bool {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return true
	default:
		return false
	}
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
