package service

import (
	"context"
	"strings"
	"time"

	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/repository"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

const reportListLimit = 100

// 平台统计周期
const (
	AnalyticsPeriodDay   = "day"
	AnalyticsPeriodWeek  = "week"
	AnalyticsPeriodMonth = "month"
)

// StatusTotal 某状态下的数量与金额
type StatusTotal struct {
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// RestaurantSettlementSummary 商家结算汇总
type RestaurantSettlementSummary struct {
	RestaurantID uint                   `json:"restaurant_id"`
	Total        StatusTotal            `json:"total"`
	ByStatus     map[string]StatusTotal `json:"by_status"`
	Settlements  []models.Settlement    `json:"settlements"`
}

// DriverEarningsSummary 骑手收入汇总
type DriverEarningsSummary struct {
	DriverID uint                   `json:"driver_id"`
	Total    StatusTotal            `json:"total"`
	ByStatus map[string]StatusTotal `json:"by_status"`
	Earnings []models.DriverEarning `json:"earnings"`
}

// PlatformAnalytics 平台营收统计
type PlatformAnalytics struct {
	Period                 string          `json:"period"`
	StartDate              time.Time       `json:"start_date"`
	EndDate                time.Time       `json:"end_date"`
	TotalOrders            int64           `json:"total_orders"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TotalPlatformFees      decimal.Decimal `json:"total_platform_fees"`
	TotalRestaurantPayouts decimal.Decimal `json:"total_restaurant_payouts"`
	TotalDriverPayouts     decimal.Decimal `json:"total_driver_payouts"`
	AverageOrderValue      decimal.Decimal `json:"average_order_value"`
}

// RestaurantSettlementSummary 查询商家结算汇总，period 非空时只统计该月计划打款的结算单
func (s *SettlementService) RestaurantSettlementSummary(ctx context.Context, restaurantID uint, period *time.Time) (*RestaurantSettlementSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter := repository.SettlementListFilter{
		RecipientType: constants.RecipientTypeRestaurant,
		RecipientID:   restaurantID,
		Page:          1,
		PageSize:      reportListLimit,
	}
	if period != nil {
		from, to := s.monthWindow(*period)
		filter.From = &from
		filter.To = &to
	}
	rows, _, err := s.settlementRepo.List(filter)
	if err != nil {
		return nil, err
	}
	aggregates, err := s.settlementRepo.AggregateByStatus(filter)
	if err != nil {
		return nil, err
	}
	total, byStatus := summarizeStatusRows(aggregates)
	return &RestaurantSettlementSummary{
		RestaurantID: restaurantID,
		Total:        total,
		ByStatus:     byStatus,
		Settlements:  rows,
	}, nil
}

// DriverEarningsSummary 查询骑手收入汇总，period 非空时只统计该月产生的收入
func (s *SettlementService) DriverEarningsSummary(ctx context.Context, driverID uint, period *time.Time) (*DriverEarningsSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var from, to *time.Time
	if period != nil {
		start, end := s.monthWindow(*period)
		from, to = &start, &end
	}
	earnings, err := s.earningRepo.ListByDriver(driverID, from, to)
	if err != nil {
		return nil, err
	}
	if len(earnings) > reportListLimit {
		earnings = earnings[:reportListLimit]
	}
	aggregates, err := s.earningRepo.AggregateByStatus(driverID, from, to)
	if err != nil {
		return nil, err
	}
	total, byStatus := summarizeStatusRows(aggregates)
	return &DriverEarningsSummary{
		DriverID: driverID,
		Total:    total,
		ByStatus: byStatus,
		Earnings: earnings,
	}, nil
}

// PlatformAnalytics 统计周期内已完成交易：day 为当天，week 为近 7 天，month 为近一个月
func (s *SettlementService) PlatformAnalytics(ctx context.Context, period string, at time.Time) (*PlatformAnalytics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = AnalyticsPeriodMonth
	}
	local := at.In(s.settings.Location)
	var start time.Time
	switch period {
	case AnalyticsPeriodDay:
		start = now.With(local).BeginningOfDay()
	case AnalyticsPeriodWeek:
		start = local.AddDate(0, 0, -7)
	case AnalyticsPeriodMonth:
		start = local.AddDate(0, -1, 0)
	default:
		return nil, ErrInvalidPeriod
	}
	end := at.UTC().Add(time.Second)
	row, err := s.transactionRepo.Aggregate(constants.TransactionStatusCompleted, start.UTC(), end)
	if err != nil {
		return nil, err
	}
	average := decimal.Zero
	if row.Orders > 0 {
		average = row.Revenue.Div(decimal.NewFromInt(row.Orders)).Round(2)
	}
	return &PlatformAnalytics{
		Period:                 period,
		StartDate:              start,
		EndDate:                local,
		TotalOrders:            row.Orders,
		TotalRevenue:           row.Revenue,
		TotalPlatformFees:      row.PlatformFees,
		TotalRestaurantPayouts: row.RestaurantPayout,
		TotalDriverPayouts:     row.DriverPayout,
		AverageOrderValue:      average,
	}, nil
}

func (s *SettlementService) monthWindow(period time.Time) (time.Time, time.Time) {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: s.settings.Location}
	start := cfg.With(period.In(s.settings.Location)).BeginningOfMonth()
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}

func summarizeStatusRows(rows []repository.StatusAggregateRow) (StatusTotal, map[string]StatusTotal) {
	total := StatusTotal{Amount: decimal.Zero}
	byStatus := make(map[string]StatusTotal, len(rows))
	for _, row := range rows {
		byStatus[row.Status] = StatusTotal{Count: row.Count, Amount: row.Total}
		total.Count += row.Count
		total.Amount = total.Amount.Add(row.Total)
	}
	return total, byStatus
}

// ListSettlements 分页查询结算单
func (s *SettlementService) ListSettlements(ctx context.Context, filter repository.SettlementListFilter) ([]models.Settlement, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if filter.RecipientType != "" {
		if _, err := s.scheduleOf(filter.RecipientType); err != nil {
			return nil, 0, err
		}
	}
	return s.settlementRepo.List(filter)
}
