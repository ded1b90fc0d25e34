package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNumber     string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"` // 订单编号
	RestaurantID    uint           `gorm:"index;not null" json:"restaurant_id"`                       // 商家ID
	CustomerID      uint           `gorm:"index;not null" json:"customer_id"`                         // 顾客ID
	DriverID        *uint          `gorm:"index" json:"driver_id,omitempty"`                          // 骑手ID
	Status          string         `gorm:"type:varchar(32);index;not null" json:"status"`             // 订单状态
	Subtotal        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`     // 商品小计
	DeliveryFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"` // 配送费
	PlatformFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"platform_fee"` // 平台佣金
	Discount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`     // 优惠金额
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	DeliveryAddress string         `gorm:"type:varchar(255)" json:"delivery_address"`                 // 收货地址
	DeliveryLat     float64        `gorm:"not null" json:"delivery_lat"`                              // 收货纬度
	DeliveryLng     float64        `gorm:"not null" json:"delivery_lng"`                              // 收货经度
	ConfirmedAt     *time.Time     `json:"confirmed_at,omitempty"`                                    // 派单确认时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Restaurant Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"` // 商家
	Customer   User       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`     // 顾客
	Driver     *Driver    `gorm:"foreignKey:DriverID" json:"driver,omitempty"`         // 骑手
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
