package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/logger"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/payout"
	"github.com/padala-next/internal/repository"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPayoutHour     = 9
	defaultSweepBatchSize = 200
	defaultPayoutTimeout  = 15 * time.Second
	maxSettlementNotesLen = 500
)

// SettlementSettings 结算参数
type SettlementSettings struct {
	CommissionRate     decimal.Decimal
	RestaurantSchedule string
	DriverSchedule     string
	Location           *time.Location
	PayoutHour         int
	BatchSize          int
	PayoutTimeout      time.Duration
}

// SettlementServiceDeps 结算服务依赖
type SettlementServiceDeps struct {
	SettlementRepo  repository.SettlementRepository
	EarningRepo     repository.EarningRepository
	TransactionRepo repository.TransactionRepository
	OrderRepo       repository.OrderRepository
	DriverRepo      repository.DriverRepository
	RestaurantRepo  repository.RestaurantRepository
	Gateway         payout.Gateway
}

// SettlementService 佣金分账、结算排期与打款
type SettlementService struct {
	settlementRepo  repository.SettlementRepository
	earningRepo     repository.EarningRepository
	transactionRepo repository.TransactionRepository
	orderRepo       repository.OrderRepository
	driverRepo      repository.DriverRepository
	restaurantRepo  repository.RestaurantRepository
	gateway         payout.Gateway
	settings        SettlementSettings
}

// RecordTransactionInput 支付成功后的入账参数
type RecordTransactionInput struct {
	PaymentMethod   string
	GatewayResponse models.JSON
}

// RecordTransactionResult 入账结果
type RecordTransactionResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Breakdown   CommissionBreakdown `json:"breakdown"`
	Settlements []models.Settlement `json:"settlements"`
}

// SweepError 单条结算失败信息
type SweepError struct {
	SettlementID uint   `json:"settlement_id"`
	Error        string `json:"error"`
}

// SweepResult 到期结算处理结果
type SweepResult struct {
	Total     int          `json:"total"`
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Errors    []SweepError `json:"errors"`
}

// NewSettlementService 创建结算服务
func NewSettlementService(deps SettlementServiceDeps, settings SettlementSettings) *SettlementService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.PayoutHour < 0 || settings.PayoutHour > 23 {
		settings.PayoutHour = defaultPayoutHour
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaultSweepBatchSize
	}
	if settings.PayoutTimeout <= 0 {
		settings.PayoutTimeout = defaultPayoutTimeout
	}
	if strings.TrimSpace(settings.RestaurantSchedule) == "" {
		settings.RestaurantSchedule = constants.SettlementScheduleDaily
	}
	if strings.TrimSpace(settings.DriverSchedule) == "" {
		settings.DriverSchedule = constants.SettlementScheduleDaily
	}
	gateway := deps.Gateway
	if gateway == nil {
		gateway = payout.NewSandbox()
	}
	return &SettlementService{
		settlementRepo:  deps.SettlementRepo,
		earningRepo:     deps.EarningRepo,
		transactionRepo: deps.TransactionRepo,
		orderRepo:       deps.OrderRepo,
		driverRepo:      deps.DriverRepo,
		restaurantRepo:  deps.RestaurantRepo,
		gateway:         gateway,
		settings:        settings,
	}
}

// LoadLocation 加载结算时区，失败时回退到 UTC
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warnw("settlement_timezone_load_failed", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// NextPayoutTime 计算下一个打款时间
// daily 次日、weekly 下周一、monthly 次月 1 日，均为 loc 时区的 hour 点整
func NextPayoutTime(schedule string, t time.Time, loc *time.Location, hour int) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}
	local := cfg.With(t.In(loc))

	var day time.Time
	switch strings.ToLower(strings.TrimSpace(schedule)) {
	case constants.SettlementScheduleDaily:
		day = local.BeginningOfDay().AddDate(0, 0, 1)
	case constants.SettlementScheduleWeekly:
		day = local.BeginningOfWeek().AddDate(0, 0, 7)
	case constants.SettlementScheduleMonthly:
		day = local.BeginningOfMonth().AddDate(0, 1, 0)
	default:
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidSchedule, schedule)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc), nil
}

// SettlementPeriod 结算周期标识：daily 为 2006-01-02，weekly 为 2006-01-W2，monthly 为 2006-01
func SettlementPeriod(schedule string, t time.Time) string {
	switch strings.ToLower(strings.TrimSpace(schedule)) {
	case constants.SettlementScheduleDaily:
		return t.Format("2006-01-02")
	case constants.SettlementScheduleWeekly:
		return fmt.Sprintf("%s-W%d", t.Format("2006-01"), (t.Day()+6)/7)
	default:
		return t.Format("2006-01")
	}
}

// ScheduleFor 按配置时区与打款时刻计算下一次打款时间
func (s *SettlementService) ScheduleFor(schedule string, t time.Time) (time.Time, error) {
	return NextPayoutTime(schedule, t, s.settings.Location, s.settings.PayoutHour)
}

// CommissionRate 当前佣金比例
func (s *SettlementService) CommissionRate() decimal.Decimal {
	return s.settings.CommissionRate
}

// CreateSettlement 创建待打款结算单，同一订单同一对象重复创建时返回已有记录
func (s *SettlementService) CreateSettlement(ctx context.Context, orderID uint, recipientType string, recipientID uint, amount decimal.Decimal) (*models.Settlement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var created *models.Settlement
	err := s.settlementRepo.Transaction(func(tx *gorm.DB) error {
		row, err := s.createSettlementTx(s.settlementRepo.WithTx(tx), orderID, recipientType, recipientID, amount, time.Now())
		if err != nil {
			return err
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SettlementService) createSettlementTx(repo repository.SettlementRepository, orderID uint, recipientType string, recipientID uint, amount decimal.Decimal, at time.Time) (*models.Settlement, error) {
	schedule, err := s.scheduleOf(recipientType)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: settlement amount must be positive", ErrInvalidAmount)
	}
	existing, err := repo.GetByOrderAndRecipient(orderID, recipientType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	scheduledFor, err := s.ScheduleFor(schedule, at)
	if err != nil {
		return nil, err
	}
	at = at.UTC()
	row := &models.Settlement{
		OrderID:       orderID,
		RecipientType: recipientType,
		RecipientID:   recipientID,
		Amount:        models.NewMoneyFromDecimal(amount),
		Status:        constants.SettlementStatusPending,
		ScheduledFor:  scheduledFor.UTC(),
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	if err := repo.Create(row); err != nil {
		return nil, err
	}
	return row, nil
}

// RecordTransaction 订单支付成功后记录分账，生成商家与骑手结算单
func (s *SettlementService) RecordTransaction(ctx context.Context, orderID uint, input RecordTransactionInput) (*RecordTransactionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == constants.OrderStatusCancelled || order.Status == constants.OrderStatusPending {
		return nil, ErrOrderStatusInvalid
	}
	existing, err := s.transactionRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTransactionExists
	}

	breakdown, err := Split(order.Subtotal.Decimal, order.DeliveryFee.Decimal, order.Discount.Decimal, s.settings.CommissionRate)
	if err != nil {
		return nil, err
	}

	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = "unknown"
	}
	at := time.Now()
	nowUTC := at.UTC()
	result := &RecordTransactionResult{Breakdown: breakdown}

	err = s.settlementRepo.Transaction(func(tx *gorm.DB) error {
		txn := &models.Transaction{
			OrderID:          order.ID,
			PaymentMethod:    paymentMethod,
			Amount:           models.NewMoneyFromDecimal(breakdown.TotalAmount),
			PlatformFee:      models.NewMoneyFromDecimal(breakdown.PlatformFee),
			RestaurantAmount: models.NewMoneyFromDecimal(breakdown.RestaurantAmount),
			DriverAmount:     models.NewMoneyFromDecimal(breakdown.DriverAmount),
			Status:           constants.TransactionStatusCompleted,
			GatewayResponse:  input.GatewayResponse,
			CreatedAt:        nowUTC,
			UpdatedAt:        nowUTC,
		}
		if err := s.transactionRepo.WithTx(tx).Create(txn); err != nil {
			return err
		}
		result.Transaction = txn

		if err := s.orderRepo.WithTx(tx).UpdateFees(order.ID, map[string]interface{}{
			"platform_fee": models.NewMoneyFromDecimal(breakdown.PlatformFee),
			"total_amount": models.NewMoneyFromDecimal(breakdown.TotalAmount),
			"updated_at":   nowUTC,
		}); err != nil {
			return err
		}

		settlementRepo := s.settlementRepo.WithTx(tx)
		if breakdown.RestaurantAmount.IsPositive() {
			row, err := s.createSettlementTx(settlementRepo, order.ID, constants.RecipientTypeRestaurant, order.RestaurantID, breakdown.RestaurantAmount, at)
			if err != nil {
				return err
			}
			result.Settlements = append(result.Settlements, *row)
		}
		if order.DriverID != nil && breakdown.DriverAmount.IsPositive() {
			row, err := s.createSettlementTx(settlementRepo, order.ID, constants.RecipientTypeDriver, *order.DriverID, breakdown.DriverAmount, at)
			if err != nil {
				return err
			}
			result.Settlements = append(result.Settlements, *row)

			settlementID := row.ID
			if err := s.earningRepo.WithTx(tx).Create(&models.DriverEarning{
				DriverID:     *order.DriverID,
				OrderID:      order.ID,
				SettlementID: &settlementID,
				Type:         constants.EarningTypeDeliveryFee,
				Amount:       models.NewMoneyFromDecimal(breakdown.DriverAmount),
				Status:       constants.EarningStatusPending,
				CreatedAt:    nowUTC,
				UpdatedAt:    nowUTC,
			}); err != nil {
				return err
			}
			if err := s.driverRepo.WithTx(tx).AddEarnings(*order.DriverID, breakdown.DriverAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("settlement_transaction_recorded",
		"order_id", order.ID,
		"amount", breakdown.TotalAmount.StringFixed(2),
		"platform_fee", breakdown.PlatformFee.StringFixed(2),
		"restaurant_amount", breakdown.RestaurantAmount.StringFixed(2),
		"driver_amount", breakdown.DriverAmount.StringFixed(2),
		"settlements", len(result.Settlements),
	)
	return result, nil
}

// ProcessDue 分批处理全部到期结算单，单条失败不影响其他，返回时不会遗留 processing 状态
func (s *SettlementService) ProcessDue(ctx context.Context, at time.Time) (*SweepResult, error) {
	result := &SweepResult{Errors: []SweepError{}}
	seen := make(map[uint]struct{})
	limit := s.settings.BatchSize
	for {
		rows, err := s.settlementRepo.ListDue(constants.SettlementStatusPending, at.UTC(), limit)
		if err != nil {
			if result.Total == 0 {
				return nil, err
			}
			logger.Errorw("settlement_sweep_list_failed", "processed", result.Processed, "error", err)
			break
		}
		fresh := 0
		for i := range rows {
			// 认领失败仍停留在 pending 的行只处理一次
			if _, ok := seen[rows[i].ID]; ok {
				continue
			}
			seen[rows[i].ID] = struct{}{}
			fresh++
			result.Total++
			if err := ctx.Err(); err != nil {
				result.Skipped++
				continue
			}
			processed, err := s.processOne(ctx, &rows[i], at)
			switch {
			case err != nil:
				result.Failed++
				result.Errors = append(result.Errors, SweepError{SettlementID: rows[i].ID, Error: err.Error()})
			case processed:
				result.Processed++
			default:
				result.Skipped++
			}
		}
		if limit <= 0 || len(rows) < limit || fresh == 0 || ctx.Err() != nil {
			break
		}
	}
	if result.Total > 0 {
		logger.Infow("settlement_sweep_finished",
			"total", result.Total,
			"processed", result.Processed,
			"failed", result.Failed,
			"skipped", result.Skipped,
		)
	}
	return result, nil
}

// RetryFailed 将失败的结算单重新置为待处理，下一轮扫描时打款
func (s *SettlementService) RetryFailed(ctx context.Context, settlementID uint) (*models.Settlement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := s.settlementRepo.GetByID(settlementID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrSettlementNotFound
	}
	nowUTC := time.Now().UTC()
	ok, err := s.settlementRepo.TransitionStatus(row.ID, constants.SettlementStatusFailed, constants.SettlementStatusPending, map[string]interface{}{
		"scheduled_for": nowUTC,
		"notes":         "",
		"updated_at":    nowUTC,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSettlementStatusInvalid
	}
	return s.settlementRepo.GetByID(row.ID)
}

// processOne 返回 processed=false 且 err=nil 表示已被其他扫描处理
func (s *SettlementService) processOne(ctx context.Context, row *models.Settlement, at time.Time) (bool, error) {
	nowUTC := at.UTC()
	claimed, err := s.settlementRepo.TransitionStatus(row.ID, constants.SettlementStatusPending, constants.SettlementStatusProcessing, map[string]interface{}{
		"updated_at": nowUTC,
	})
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	req, err := s.buildPayoutRequest(row, at)
	var res *payout.Result
	if err == nil {
		payoutCtx, cancel := context.WithTimeout(ctx, s.settings.PayoutTimeout)
		res, err = s.gateway.Payout(payoutCtx, req)
		cancel()
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrGatewayFailure, err)
		}
	}
	if err != nil {
		s.markFailed(row.ID, err, nowUTC)
		return false, err
	}

	err = s.settlementRepo.Transaction(func(tx *gorm.DB) error {
		ok, err := s.settlementRepo.WithTx(tx).TransitionStatus(row.ID, constants.SettlementStatusProcessing, constants.SettlementStatusCompleted, map[string]interface{}{
			"payment_reference": res.PayoutID,
			"processed_at":      nowUTC,
			"notes":             "",
			"updated_at":        nowUTC,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrSettlementStatusInvalid
		}
		if row.RecipientType == constants.RecipientTypeDriver {
			if _, err := s.earningRepo.WithTx(tx).MarkPaidBySettlement(row.ID, nowUTC); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorw("settlement_complete_persist_failed",
			"settlement_id", row.ID,
			"payout_id", res.PayoutID,
			"error", err,
		)
		s.markFailed(row.ID, fmt.Errorf("payout %s sent but not recorded: %w", res.PayoutID, err), nowUTC)
		return false, err
	}
	logger.Infow("settlement_paid",
		"settlement_id", row.ID,
		"recipient_type", row.RecipientType,
		"recipient_id", row.RecipientID,
		"amount", row.Amount.String(),
		"payout_id", res.PayoutID,
	)
	return true, nil
}

func (s *SettlementService) markFailed(id uint, cause error, at time.Time) {
	notes := truncateNotes(cause.Error(), maxSettlementNotesLen)
	ok, err := s.settlementRepo.TransitionStatus(id, constants.SettlementStatusProcessing, constants.SettlementStatusFailed, map[string]interface{}{
		"notes":      notes,
		"updated_at": at,
	})
	if err != nil || !ok {
		logger.Errorw("settlement_mark_failed_error",
			"settlement_id", id,
			"cause", cause,
			"error", err,
		)
		return
	}
	logger.Warnw("settlement_payout_failed",
		"settlement_id", id,
		"error", cause,
	)
}

func (s *SettlementService) buildPayoutRequest(row *models.Settlement, at time.Time) (payout.Request, error) {
	order, err := s.orderRepo.GetByID(row.OrderID)
	if err != nil {
		return payout.Request{}, err
	}
	if order == nil {
		return payout.Request{}, ErrOrderNotFound
	}
	schedule, err := s.scheduleOf(row.RecipientType)
	if err != nil {
		return payout.Request{}, err
	}
	req := payout.Request{
		Amount: row.Amount.Decimal,
		Metadata: map[string]interface{}{
			"settlement_id": row.ID,
			"order_id":      row.OrderID,
			"period":        SettlementPeriod(schedule, at.In(s.settings.Location)),
		},
	}

	switch row.RecipientType {
	case constants.RecipientTypeRestaurant:
		restaurant, err := s.restaurantRepo.GetByID(row.RecipientID)
		if err != nil {
			return payout.Request{}, err
		}
		if restaurant == nil {
			return payout.Request{}, ErrRestaurantNotFound
		}
		name := strings.TrimSpace(restaurant.PayoutName)
		if name == "" {
			name = restaurant.Name
		}
		req.ReferenceID = fmt.Sprintf("REST_%d_%d", row.ID, at.UnixMilli())
		req.AccountType = payout.AccountTypeBank
		req.AccountNumber = strings.TrimSpace(restaurant.PayoutAccount)
		req.AccountName = name
		req.Description = fmt.Sprintf("Restaurant settlement for order %s", order.OrderNumber)
	case constants.RecipientTypeDriver:
		driver, err := s.driverRepo.GetByID(row.RecipientID)
		if err != nil {
			return payout.Request{}, err
		}
		if driver == nil {
			return payout.Request{}, ErrDriverNotFound
		}
		account := strings.TrimSpace(driver.GCashNumber)
		if account == "" {
			account = strings.TrimSpace(driver.User.Phone)
		}
		req.ReferenceID = fmt.Sprintf("DRV_%d_%d", row.ID, at.UnixMilli())
		req.AccountType = payout.AccountTypeGCash
		req.AccountNumber = account
		req.AccountName = driver.User.FullName()
		req.Description = fmt.Sprintf("Driver earnings for order %s", order.OrderNumber)
	default:
		return payout.Request{}, ErrRecipientTypeInvalid
	}
	if req.AccountNumber == "" {
		return payout.Request{}, ErrPayoutAccountMissing
	}
	return req, nil
}

func (s *SettlementService) scheduleOf(recipientType string) (string, error) {
	switch recipientType {
	case constants.RecipientTypeRestaurant:
		return s.settings.RestaurantSchedule, nil
	case constants.RecipientTypeDriver:
		return s.settings.DriverSchedule, nil
	default:
		return "", ErrRecipientTypeInvalid
	}
}

// IsRetryable 结算错误是否适合稍后重试
func IsRetryable(err error) bool {
	return errors.Is(err, ErrGatewayFailure)
}

// truncateNotes 按字节上限截断，且不切断多字节字符
func truncateNotes(notes string, limit int) string {
	if len(notes) <= limit {
		return notes
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(notes[cut]) {
		cut--
	}
	return notes[:cut]
}
