package models

import "time"

// Transaction 订单支付分账记录（每单一条）
type Transaction struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                           // 主键
	OrderID          uint      `gorm:"uniqueIndex;not null" json:"order_id"`                           // 订单ID
	PaymentMethod    string    `gorm:"type:varchar(32);not null" json:"payment_method"`                // 支付方式
	Amount           Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`            // 顾客实付
	PlatformFee      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"platform_fee"`      // 平台佣金
	RestaurantAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"restaurant_amount"` // 商家应得
	DriverAmount     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"driver_amount"`     // 骑手应得
	Status           string    `gorm:"type:varchar(20);not null;index" json:"status"`                  // 交易状态
	GatewayResponse  JSON      `gorm:"type:json" json:"gateway_response,omitempty"`                    // 支付网关回执
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt        time.Time `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}
