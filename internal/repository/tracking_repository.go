package repository

import (
	"errors"

	"github.com/padala-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackingRepository 配送跟踪数据访问接口
type TrackingRepository interface {
	Upsert(tracking *models.Tracking) error
	GetByOrderID(orderID uint) (*models.Tracking, error)
	UpdateByOrderID(orderID uint, updates map[string]interface{}) error
	DeleteByOrderID(orderID uint) error
	WithTx(tx *gorm.DB) TrackingRepository
}

// GormTrackingRepository GORM 实现
type GormTrackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository 创建跟踪仓库
func NewTrackingRepository(db *gorm.DB) *GormTrackingRepository {
	return &GormTrackingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTrackingRepository) WithTx(tx *gorm.DB) TrackingRepository {
	if tx == nil {
		return r
	}
	return &GormTrackingRepository{db: tx}
}

// Upsert 按订单写入跟踪记录，已存在时整体覆盖
func (r *GormTrackingRepository) Upsert(tracking *models.Tracking) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"driver_id",
			"driver_lat",
			"driver_lng",
			"restaurant_lat",
			"restaurant_lng",
			"customer_lat",
			"customer_lng",
			"estimated_minutes",
			"distance_km",
			"phase",
			"last_updated",
			"updated_at",
		}),
	}).Create(tracking).Error
}

// GetByOrderID 获取订单跟踪
func (r *GormTrackingRepository) GetByOrderID(orderID uint) (*models.Tracking, error) {
	var tracking models.Tracking
	if err := r.db.Where("order_id = ?", orderID).First(&tracking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tracking, nil
}

// UpdateByOrderID 更新订单跟踪
func (r *GormTrackingRepository) UpdateByOrderID(orderID uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Tracking{}).Where("order_id = ?", orderID).Updates(updates).Error
}

// DeleteByOrderID 删除订单跟踪
func (r *GormTrackingRepository) DeleteByOrderID(orderID uint) error {
	return r.db.Where("order_id = ?", orderID).Delete(&models.Tracking{}).Error
}
