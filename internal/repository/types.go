package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// DriverAvailabilityFilter 可派单骑手查询条件
type DriverAvailabilityFilter struct {
	City       string
	ExcludeIDs []uint
}

// SettlementListFilter 结算单查询条件
type SettlementListFilter struct {
	RecipientType string
	RecipientID   uint
	Status        string
	From          *time.Time // 按计划打款时间过滤
	To            *time.Time
	Page          int
	PageSize      int
}

// StatusAggregateRow 按状态聚合的计数与金额
type StatusAggregateRow struct {
	Status string          `gorm:"column:status"`
	Count  int64           `gorm:"column:count"`
	Total  decimal.Decimal `gorm:"column:total"`
}

// TransactionAggregateRow 交易汇总
type TransactionAggregateRow struct {
	Orders           int64           `gorm:"column:orders"`
	Revenue          decimal.Decimal `gorm:"column:revenue"`
	PlatformFees     decimal.Decimal `gorm:"column:platform_fees"`
	RestaurantPayout decimal.Decimal `gorm:"column:restaurant_payout"`
	DriverPayout     decimal.Decimal `gorm:"column:driver_payout"`
}
