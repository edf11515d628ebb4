package repository

import "gorm.io/gorm"

// maxPageSize 运营端一次最多拉取的配送计划数
const maxPageSize = 500

// applyPagination pageSize <= 0 表示不分页；页码小于 1 按第一页处理
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
