package repository

import (
	"errors"
	"time"

	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetActiveByDriver(driverID uint, statuses []string) (*models.Order, error)
	ClaimForDriver(orderID, driverID uint, now time.Time) (bool, error)
	SwapDriver(orderID, fromDriverID, toDriverID uint, now time.Time) (bool, error)
	ReleaseDriver(orderID, driverID uint, now time.Time) (bool, error)
	UpdateFees(orderID uint, updates map[string]interface{}) error
	WithTx(tx *gorm.DB) OrderRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单（含商家、顾客、骑手）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Restaurant").Preload("Customer").Preload("Driver").Preload("Driver.User").
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetActiveByDriver 获取骑手当前处于指定状态的订单
func (r *GormOrderRepository) GetActiveByDriver(driverID uint, statuses []string) (*models.Order, error) {
	if driverID == 0 || len(statuses) == 0 {
		return nil, nil
	}
	var order models.Order
	err := r.db.Where("driver_id = ? AND status IN ?", driverID, statuses).
		Order("id desc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ClaimForDriver 待派单订单绑定骑手，仅当订单仍为 PENDING 且未绑定骑手时生效
func (r *GormOrderRepository) ClaimForDriver(orderID, driverID uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND driver_id IS NULL", orderID, constants.OrderStatusPending).
		Updates(map[string]interface{}{
			"driver_id":    driverID,
			"status":       constants.OrderStatusConfirmed,
			"confirmed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SwapDriver 改派：仅当订单当前骑手为 fromDriverID 时替换
func (r *GormOrderRepository) SwapDriver(orderID, fromDriverID, toDriverID uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND driver_id = ? AND status = ?", orderID, fromDriverID, constants.OrderStatusConfirmed).
		Updates(map[string]interface{}{
			"driver_id":  toDriverID,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReleaseDriver 解绑骑手并退回 PENDING
func (r *GormOrderRepository) ReleaseDriver(orderID, driverID uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND driver_id = ? AND status = ?", orderID, driverID, constants.OrderStatusConfirmed).
		Updates(map[string]interface{}{
			"driver_id":    nil,
			"status":       constants.OrderStatusPending,
			"confirmed_at": nil,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateFees 更新订单费用字段
func (r *GormOrderRepository) UpdateFees(orderID uint, updates map[string]interface{}) error {
	if orderID == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error
}
