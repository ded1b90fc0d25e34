package models

import (
	"time"

	"gorm.io/gorm"
)

// Restaurant 商家表
type Restaurant struct {
	ID              uint           `gorm:"primarykey" json:"id"`                         // 主键
	OwnerID         uint           `gorm:"index;not null" json:"owner_id"`               // 商家账号
	Name            string         `gorm:"type:varchar(120);not null" json:"name"`       // 店名
	Phone           string         `gorm:"type:varchar(32)" json:"phone"`                // 联系电话
	City            string         `gorm:"type:varchar(64);index;not null" json:"city"`  // 所在城市
	Address         string         `gorm:"type:varchar(255)" json:"address"`             // 地址
	Latitude        float64        `gorm:"not null" json:"latitude"`                     // 纬度
	Longitude       float64        `gorm:"not null" json:"longitude"`                    // 经度
	PrepTimeMinutes int            `gorm:"not null;default:30" json:"prep_time_minutes"` // 出餐时长
	PayoutAccount   string         `gorm:"type:varchar(64)" json:"payout_account"`       // 打款账号
	PayoutName      string         `gorm:"type:varchar(120)" json:"payout_name"`         // 打款户名
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`       // 是否营业
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Restaurant) TableName() string {
	return "restaurants"
}
