package repository

import (
	"time"

	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/models"

	"gorm.io/gorm"
)

// EarningRepository 骑手收入数据访问接口
type EarningRepository interface {
	Create(earning *models.DriverEarning) error
	MarkPaidBySettlement(settlementID uint, paidAt time.Time) (int64, error)
	ListByDriver(driverID uint, from, to *time.Time) ([]models.DriverEarning, error)
	AggregateByStatus(driverID uint, from, to *time.Time) ([]StatusAggregateRow, error)
	WithTx(tx *gorm.DB) EarningRepository
}

// GormEarningRepository GORM 实现
type GormEarningRepository struct {
	db *gorm.DB
}

// NewEarningRepository 创建收入仓库
func NewEarningRepository(db *gorm.DB) *GormEarningRepository {
	return &GormEarningRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEarningRepository) WithTx(tx *gorm.DB) EarningRepository {
	if tx == nil {
		return r
	}
	return &GormEarningRepository{db: tx}
}

// Create 创建收入明细
func (r *GormEarningRepository) Create(earning *models.DriverEarning) error {
	return r.db.Create(earning).Error
}

// MarkPaidBySettlement 结算完成后标记收入已发放
func (r *GormEarningRepository) MarkPaidBySettlement(settlementID uint, paidAt time.Time) (int64, error) {
	result := r.db.Model(&models.DriverEarning{}).
		Where("settlement_id = ? AND status = ?", settlementID, constants.EarningStatusPending).
		Updates(map[string]interface{}{
			"status":     constants.EarningStatusPaid,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListByDriver 查询骑手收入明细
func (r *GormEarningRepository) ListByDriver(driverID uint, from, to *time.Time) ([]models.DriverEarning, error) {
	var rows []models.DriverEarning
	if err := r.scope(driverID, from, to).Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateByStatus 按状态统计骑手收入
func (r *GormEarningRepository) AggregateByStatus(driverID uint, from, to *time.Time) ([]StatusAggregateRow, error) {
	var rows []StatusAggregateRow
	if err := r.scope(driverID, from, to).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return rows, nil
}

func (r *GormEarningRepository) scope(driverID uint, from, to *time.Time) *gorm.DB {
	query := r.db.Model(&models.DriverEarning{}).Where("driver_id = ?", driverID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}
	return query
}
