package models

import (
	"time"

	"gorm.io/gorm"
)

// Driver 骑手表
type Driver struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                        // 主键
	UserID          uint           `gorm:"uniqueIndex;not null" json:"user_id"`                         // 关联账号
	VehicleType     string         `gorm:"type:varchar(32)" json:"vehicle_type"`                        // 车辆类型
	VehicleNumber   string         `gorm:"type:varchar(32)" json:"vehicle_number"`                      // 车牌号
	IsAvailable     bool           `gorm:"not null;default:false;index" json:"is_available"`            // 是否空闲
	IsOnline        bool           `gorm:"not null;default:false;index" json:"is_online"`               // 是否在线
	CurrentLat      *float64       `json:"current_lat,omitempty"`                                       // 当前纬度
	CurrentLng      *float64       `json:"current_lng,omitempty"`                                       // 当前经度
	CurrentCity     string         `gorm:"type:varchar(64);index" json:"current_city"`                  // 当前城市
	Rating          float64        `gorm:"not null;default:5" json:"rating"`                            // 评分 0-5
	TotalDeliveries int            `gorm:"not null;default:0" json:"total_deliveries"`                  // 完成单数
	TotalEarnings   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"` // 累计收入
	GCashNumber     string         `gorm:"column:gcash_number;type:varchar(32)" json:"gcash_number"`    // GCash 收款号
	LastLocationAt  *time.Time     `json:"last_location_at,omitempty"`                                  // 最近定位时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                                  // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 骑手账号
}

// TableName 指定表名
func (Driver) TableName() string {
	return "drivers"
}

// HasLocation 是否已上报坐标
func (d Driver) HasLocation() bool {
	return d.CurrentLat != nil && d.CurrentLng != nil
}
