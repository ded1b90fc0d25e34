package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/padala-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DriverRepository 骑手数据访问接口
type DriverRepository interface {
	Create(driver *models.Driver) error
	GetByID(id uint) (*models.Driver, error)
	ListAvailable(filter DriverAvailabilityFilter) ([]models.Driver, error)
	Claim(driverID uint, now time.Time) (bool, error)
	Release(driverID uint, now time.Time) error
	UpdateLocation(driverID uint, lat, lng float64, now time.Time) (bool, error)
	AddEarnings(driverID uint, amount decimal.Decimal) error
	WithTx(tx *gorm.DB) DriverRepository
}

// GormDriverRepository GORM 实现
type GormDriverRepository struct {
	db *gorm.DB
}

// NewDriverRepository 创建骑手仓库
func NewDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDriverRepository) WithTx(tx *gorm.DB) DriverRepository {
	if tx == nil {
		return r
	}
	return &GormDriverRepository{db: tx}
}

// Create 创建骑手
func (r *GormDriverRepository) Create(driver *models.Driver) error {
	return r.db.Create(driver).Error
}

// GetByID 根据 ID 获取骑手
func (r *GormDriverRepository) GetByID(id uint) (*models.Driver, error) {
	var driver models.Driver
	if err := r.db.Preload("User").First(&driver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}

// ListAvailable 查询空闲、在线、同城且已上报坐标的骑手，按 ID 升序；城市为空时不匹配任何骑手
func (r *GormDriverRepository) ListAvailable(filter DriverAvailabilityFilter) ([]models.Driver, error) {
	city := strings.TrimSpace(filter.City)
	if city == "" {
		return []models.Driver{}, nil
	}
	query := r.db.Preload("User").
		Where("is_available = ? AND is_online = ?", true, true).
		Where("current_lat IS NOT NULL AND current_lng IS NOT NULL").
		Where("current_city = ?", city)
	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filter.ExcludeIDs)
	}
	var rows []models.Driver
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Claim 占用骑手，仅当其仍空闲时生效
func (r *GormDriverRepository) Claim(driverID uint, now time.Time) (bool, error) {
	result := r.db.Model(&models.Driver{}).
		Where("id = ? AND is_available = ?", driverID, true).
		Updates(map[string]interface{}{
			"is_available": false,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release 释放骑手
func (r *GormDriverRepository) Release(driverID uint, now time.Time) error {
	return r.db.Model(&models.Driver{}).
		Where("id = ?", driverID).
		Updates(map[string]interface{}{
			"is_available": true,
			"updated_at":   now,
		}).Error
}

// UpdateLocation 更新骑手坐标
func (r *GormDriverRepository) UpdateLocation(driverID uint, lat, lng float64, now time.Time) (bool, error) {
	result := r.db.Model(&models.Driver{}).
		Where("id = ?", driverID).
		Updates(map[string]interface{}{
			"current_lat":      lat,
			"current_lng":      lng,
			"last_location_at": now,
			"updated_at":       now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AddEarnings 累加骑手收入
func (r *GormDriverRepository) AddEarnings(driverID uint, amount decimal.Decimal) error {
	return r.db.Model(&models.Driver{}).
		Where("id = ?", driverID).
		UpdateColumn("total_earnings", gorm.Expr("total_earnings + ?", amount.Round(2).String())).Error
}
