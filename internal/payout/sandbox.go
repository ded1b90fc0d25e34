package payout

import (
	"context"
	"strings"
	"time"

	"github.com/padala-next/internal/logger"

	"github.com/google/uuid"
)

// Sandbox 模拟打款网关，开发环境下直接返回成功
type Sandbox struct{}

// NewSandbox 创建模拟网关
func NewSandbox() *Sandbox {
	return &Sandbox{}
}

// Payout 模拟打款
func (s *Sandbox) Payout(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	payoutID := "SBX-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	logger.Infow("payout_sandbox_paid",
		"reference_id", req.ReferenceID,
		"payout_id", payoutID,
		"account_type", req.AccountType,
		"amount", req.Amount.StringFixed(2),
	)
	return &Result{
		PayoutID:    payoutID,
		Status:      "completed",
		ProcessedAt: &now,
	}, nil
}
