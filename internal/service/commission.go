package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CommissionBreakdown 订单分账结果
type CommissionBreakdown struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	Discount         decimal.Decimal `json:"discount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	PlatformFee      decimal.Decimal `json:"platform_fee"`
	RestaurantAmount decimal.Decimal `json:"restaurant_amount"`
	DriverAmount     decimal.Decimal `json:"driver_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
}

// Split 计算平台佣金、商家与骑手应得
// 佣金只按商品小计计算，配送费全额归骑手
func Split(subtotal, deliveryFee, discount, rate decimal.Decimal) (CommissionBreakdown, error) {
	subtotal = subtotal.Round(2)
	deliveryFee = deliveryFee.Round(2)
	discount = discount.Round(2)

	if subtotal.IsNegative() {
		return CommissionBreakdown{}, fmt.Errorf("%w: subtotal is negative", ErrInvalidAmount)
	}
	if deliveryFee.IsNegative() {
		return CommissionBreakdown{}, fmt.Errorf("%w: delivery fee is negative", ErrInvalidAmount)
	}
	if discount.IsNegative() {
		return CommissionBreakdown{}, fmt.Errorf("%w: discount is negative", ErrInvalidAmount)
	}
	if discount.GreaterThan(subtotal) {
		return CommissionBreakdown{}, fmt.Errorf("%w: discount exceeds subtotal", ErrInvalidAmount)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return CommissionBreakdown{}, fmt.Errorf("%w: commission rate out of range", ErrInvalidAmount)
	}

	platformFee := subtotal.Mul(rate).Round(2)
	// 折扣由商家承担，折扣加佣金超过小计时商家应得为负，不生成商家结算单
	restaurantAmount := subtotal.Sub(platformFee).Sub(discount).Round(2)
	return CommissionBreakdown{
		Subtotal:         subtotal,
		DeliveryFee:      deliveryFee,
		Discount:         discount,
		CommissionRate:   rate,
		PlatformFee:      platformFee,
		RestaurantAmount: restaurantAmount,
		DriverAmount:     deliveryFee,
		TotalAmount:      subtotal.Add(deliveryFee).Sub(discount).Round(2),
	}, nil
}
