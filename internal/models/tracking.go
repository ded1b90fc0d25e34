package models

import "time"

// Tracking 订单配送跟踪（每单一行）
type Tracking struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OrderID          uint      `gorm:"uniqueIndex;not null" json:"order_id"`
	DriverID         uint      `gorm:"index;not null" json:"driver_id"`
	DriverLat        float64   `json:"driver_lat"`
	DriverLng        float64   `json:"driver_lng"`
	RestaurantLat    float64   `json:"restaurant_lat"`
	RestaurantLng    float64   `json:"restaurant_lng"`
	CustomerLat      float64   `json:"customer_lat"`
	CustomerLng      float64   `json:"customer_lng"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	DistanceKm       float64   `json:"distance_km"`
	Phase            string    `gorm:"type:varchar(32);not null" json:"phase"`
	LastUpdated      time.Time `gorm:"index" json:"last_updated"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Tracking) TableName() string {
	return "trackings"
}
