package repository

import (
	"errors"
	"time"

	"github.com/padala-next/internal/models"

	"gorm.io/gorm"
)

// SettlementRepository 结算单数据访问接口
type SettlementRepository interface {
	Create(settlement *models.Settlement) error
	GetByID(id uint) (*models.Settlement, error)
	GetByOrderAndRecipient(orderID uint, recipientType string) (*models.Settlement, error)
	ListDue(status string, before time.Time, limit int) ([]models.Settlement, error)
	TransitionStatus(id uint, from, to string, updates map[string]interface{}) (bool, error)
	List(filter SettlementListFilter) ([]models.Settlement, int64, error)
	AggregateByStatus(filter SettlementListFilter) ([]StatusAggregateRow, error)
	WithTx(tx *gorm.DB) SettlementRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormSettlementRepository GORM 实现
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算仓库
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) SettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSettlementRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建结算单
func (r *GormSettlementRepository) Create(settlement *models.Settlement) error {
	return r.db.Create(settlement).Error
}

// GetByID 根据 ID 获取结算单
func (r *GormSettlementRepository) GetByID(id uint) (*models.Settlement, error) {
	var row models.Settlement
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByOrderAndRecipient 获取订单某一结算对象的结算单
func (r *GormSettlementRepository) GetByOrderAndRecipient(orderID uint, recipientType string) (*models.Settlement, error) {
	var row models.Settlement
	err := r.db.Where("order_id = ? AND recipient_type = ?", orderID, recipientType).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListDue 查询到期结算单，按计划时间与 ID 升序
func (r *GormSettlementRepository) ListDue(status string, before time.Time, limit int) ([]models.Settlement, error) {
	query := r.db.Where("status = ? AND scheduled_for <= ?", status, before).
		Order("scheduled_for asc, id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Settlement
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TransitionStatus 条件更新状态，仅当当前状态为 from 时生效
func (r *GormSettlementRepository) TransitionStatus(id uint, from, to string, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	result := r.db.Model(&models.Settlement{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// List 分页查询结算单
func (r *GormSettlementRepository) List(filter SettlementListFilter) ([]models.Settlement, int64, error) {
	query := r.applyFilter(r.db.Model(&models.Settlement{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Settlement
	if err := query.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// AggregateByStatus 按状态统计数量与金额
func (r *GormSettlementRepository) AggregateByStatus(filter SettlementListFilter) ([]StatusAggregateRow, error) {
	filter.Status = ""
	query := r.applyFilter(r.db.Model(&models.Settlement{}), filter)
	var rows []StatusAggregateRow
	if err := query.Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return rows, nil
}

func (r *GormSettlementRepository) applyFilter(query *gorm.DB, filter SettlementListFilter) *gorm.DB {
	if filter.RecipientType != "" {
		query = query.Where("recipient_type = ?", filter.RecipientType)
	}
	if filter.RecipientID != 0 {
		query = query.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_for >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_for < ?", *filter.To)
	}
	return query
}
