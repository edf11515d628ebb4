package repository

import "time"

// DeliveryPlanListFilter 查询配送计划列表的过滤条件
type DeliveryPlanListFilter struct {
	Page          int
	PageSize      int
	Status        *int
	OrderID       uint
	Keyword       string
	PlanStartFrom *time.Time
	PlanStartTo   *time.Time
}

// OutboxListFilter 查询待派发通知的条件
type OutboxListFilter struct {
	AvailableBefore time.Time
	Limit           int
}
