package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User 用户表（顾客与骑手账号）
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	FirstName string         `gorm:"type:varchar(64)" json:"first_name"`
	LastName  string         `gorm:"type:varchar(64)" json:"last_name"`
	Email     string         `gorm:"type:varchar(255);index" json:"email"`
	Phone     string         `gorm:"type:varchar(32);index" json:"phone"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// FullName 返回姓名
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
