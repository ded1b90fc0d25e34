package queue

import (
	"encoding/json"

	"github.com/padala-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderAssignDriver 订单派单任务
	TaskOrderAssignDriver = constants.TaskOrderAssignDriver
	// TaskSettlementProcessDue 到期结算打款任务
	TaskSettlementProcessDue = constants.TaskSettlementProcessDue
)

// AssignDriverPayload 派单任务载荷
type AssignDriverPayload struct {
	OrderID uint `json:"order_id"`
	Attempt int  `json:"attempt"`
}

// SettlementProcessDuePayload 结算扫描任务载荷，At 为空时按执行时刻处理
type SettlementProcessDuePayload struct {
	At int64 `json:"at,omitempty"` // unix 秒
}

// NewAssignDriverTask 创建派单任务
func NewAssignDriverTask(payload AssignDriverPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderAssignDriver, body), nil
}

// NewSettlementProcessDueTask 创建结算扫描任务
func NewSettlementProcessDueTask(payload SettlementProcessDuePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementProcessDue, body), nil
}
