package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/constants"

	"github.com/shopspring/decimal"
)

var (
	// ErrConfigInvalid 打款配置错误
	ErrConfigInvalid = errors.New("payout config invalid")
	// ErrRequestInvalid 打款参数错误
	ErrRequestInvalid = errors.New("payout request invalid")
	// ErrAuthFailed 网关鉴权失败
	ErrAuthFailed = errors.New("payout auth failed")
	// ErrRequestFailed 请求网关失败
	ErrRequestFailed = errors.New("payout request failed")
	// ErrResponseInvalid 网关响应异常
	ErrResponseInvalid = errors.New("payout response invalid")
)

// 收款账户类型
const (
	AccountTypeGCash = "gcash_account"
	AccountTypeBank  = "bank_account"
)

// Request 打款请求
type Request struct {
	ReferenceID   string
	AccountType   string
	AccountNumber string
	AccountName   string
	Amount        decimal.Decimal
	Description   string
	Metadata      map[string]interface{}
}

// Result 打款结果
type Result struct {
	PayoutID    string
	Status      string
	ProcessedAt *time.Time
	Raw         map[string]interface{}
}

// Gateway 打款网关能力
type Gateway interface {
	Payout(ctx context.Context, req Request) (*Result, error)
}

// Validate 校验打款请求
func (r Request) Validate() error {
	if strings.TrimSpace(r.ReferenceID) == "" {
		return fmt.Errorf("%w: reference_id is required", ErrRequestInvalid)
	}
	if strings.TrimSpace(r.AccountNumber) == "" {
		return fmt.Errorf("%w: account_number is required", ErrRequestInvalid)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrRequestInvalid)
	}
	return nil
}

// NewFromConfig 按配置创建打款网关
func NewFromConfig(cfg config.PayoutConfig) (Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", constants.PayoutProviderSandbox:
		return NewSandbox(), nil
	case constants.PayoutProviderGCash:
		client, err := NewGCashClient(cfg.GCash, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrConfigInvalid, cfg.Provider)
	}
}
