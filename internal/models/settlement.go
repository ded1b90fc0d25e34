package models

import (
	"time"
)

// Settlement 结算单
type Settlement struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                                                                                       // 主键
	OrderID          uint       `gorm:"not null;index;index:idx_settlement_order_recipient,unique" json:"order_id"`                                                 // 订单ID
	RecipientType    string     `gorm:"type:varchar(20);not null;index:idx_settlement_order_recipient,unique;index:idx_settlement_recipient" json:"recipient_type"` // 结算对象类型
	RecipientID      uint       `gorm:"not null;index:idx_settlement_recipient" json:"recipient_id"`                                                                // 结算对象ID
	Amount           Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                                                                        // 金额
	Status           string     `gorm:"type:varchar(20);not null;index:idx_settlement_due" json:"status"`                                                           // 结算状态
	ScheduledFor     time.Time  `gorm:"not null;index:idx_settlement_due" json:"scheduled_for"`                                                                     // 计划打款时间
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`                                                                                                     // 处理完成时间
	PaymentReference string     `gorm:"type:varchar(120)" json:"payment_reference,omitempty"`                                                                       // 打款流水号
	Notes            string     `gorm:"type:varchar(500)" json:"notes,omitempty"`                                                                                   // 备注（失败原因）
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`                                                                                                    // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                                                                                                 // 更新时间
}

// TableName 指定表名
func (Settlement) TableName() string {
	return "settlements"
}

// DriverEarning 骑手收入明细
type DriverEarning struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	DriverID     uint       `gorm:"not null;index" json:"driver_id"`
	OrderID      uint       `gorm:"not null;index" json:"order_id"`
	SettlementID *uint      `gorm:"index" json:"settlement_id,omitempty"`
	Type         string     `gorm:"type:varchar(32);not null" json:"type"`
	Amount       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	Status       string     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (DriverEarning) TableName() string {
	return "driver_earnings"
}
