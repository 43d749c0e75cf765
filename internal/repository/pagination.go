package repository

import "gorm.io/gorm"

// maxPageSize 单页上限
const maxPageSize = 500

// applyPagination 按页码截取结果；pageSize <= 0 表示返回全部
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	pageSize = min(pageSize, maxPageSize)
	page = max(page, 1)
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// paginateSlice 对内存结果分页，规则与 applyPagination 一致
func paginateSlice[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	pageSize = min(pageSize, maxPageSize)
	offset := (max(page, 1) - 1) * pageSize
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+pageSize, len(items))]
}
