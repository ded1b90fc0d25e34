package repository

import (
	"errors"
	"time"

	"github.com/padala-next/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository 交易记录数据访问接口
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	GetByOrderID(orderID uint) (*models.Transaction, error)
	Aggregate(status string, from, to time.Time) (TransactionAggregateRow, error)
	WithTx(tx *gorm.DB) TransactionRepository
}

// GormTransactionRepository GORM 实现
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建交易仓库
func NewTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	if tx == nil {
		return r
	}
	return &GormTransactionRepository{db: tx}
}

// Create 创建交易记录
func (r *GormTransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// GetByOrderID 根据订单获取交易记录
func (r *GormTransactionRepository) GetByOrderID(orderID uint) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.Where("order_id = ?", orderID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Aggregate 汇总时间窗口内的交易金额
func (r *GormTransactionRepository) Aggregate(status string, from, to time.Time) (TransactionAggregateRow, error) {
	var row TransactionAggregateRow
	err := r.db.Model(&models.Transaction{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", status, from, to).
		Select(`COUNT(*) AS orders,
			COALESCE(SUM(amount), 0) AS revenue,
			COALESCE(SUM(platform_fee), 0) AS platform_fees,
			COALESCE(SUM(restaurant_amount), 0) AS restaurant_payout,
			COALESCE(SUM(driver_amount), 0) AS driver_payout`).
		Scan(&row).Error
	if err != nil {
		return TransactionAggregateRow{}, err
	}
	row.Revenue = row.Revenue.Round(2)
	row.PlatformFees = row.PlatformFees.Round(2)
	row.RestaurantPayout = row.RestaurantPayout.Round(2)
	row.DriverPayout = row.DriverPayout.Round(2)
	return row, nil
}
