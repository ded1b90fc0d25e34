package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/padala-next/internal/logger"
	"github.com/padala-next/internal/provider"
	"github.com/padala-next/internal/queue"
	"github.com/padala-next/internal/service"

	"github.com/hibiken/asynq"
)

const (
	defaultAssignRetryDelay  = 30 * time.Second
	defaultAssignMaxAttempts = 10
)

type driverAssigner interface {
	Assign(ctx context.Context, orderID uint) (*service.AssignmentResult, error)
}

type settlementProcessor interface {
	ProcessDue(ctx context.Context, at time.Time) (*service.SweepResult, error)
}

type assignEnqueuer interface {
	EnqueueAssignDriver(payload queue.AssignDriverPayload, delay time.Duration) error
}

// Consumer 异步任务消费者
type Consumer struct {
	assigner    driverAssigner
	processor   settlementProcessor
	enqueuer    assignEnqueuer
	retryDelay  time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{
		retryDelay:  defaultAssignRetryDelay,
		maxAttempts: defaultAssignMaxAttempts,
		now:         time.Now,
	}
	if c == nil {
		return consumer
	}
	if c.AssignmentService != nil {
		consumer.assigner = c.AssignmentService
	}
	if c.SettlementService != nil {
		consumer.processor = c.SettlementService
	}
	if c.QueueClient != nil {
		consumer.enqueuer = c.QueueClient
	}
	if c.Config != nil {
		if c.Config.Assignment.RetryDelaySeconds > 0 {
			consumer.retryDelay = time.Duration(c.Config.Assignment.RetryDelaySeconds) * time.Second
		}
		if c.Config.Assignment.MaxAttempts > 0 {
			consumer.maxAttempts = c.Config.Assignment.MaxAttempts
		}
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderAssignDriver, c.handleAssignDriver)
	mux.HandleFunc(queue.TaskSettlementProcessDue, c.handleSettlementProcessDue)
}

func (c *Consumer) handleAssignDriver(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_assign_driver_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AssignDriverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_assign_driver_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_assign_driver_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.assigner == nil {
		logger.Warnw("worker_assign_driver_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	result, err := c.assigner.Assign(ctx, payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoDriversAvailable):
			return c.retryAssign(payload)
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_assign_driver_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderAlreadyAssigned):
			logger.Debugw("worker_assign_driver_skip_already_assigned", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderStatusInvalid):
			logger.Debugw("worker_assign_driver_skip_invalid_status", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrRestaurantNotFound):
			logger.Warnw("worker_assign_driver_skip_restaurant_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_assign_driver_failed", "order_id", payload.OrderID, "attempt", payload.Attempt, "error", err)
			return err
		}
	}
	logger.Infow("worker_assign_driver_done",
		"order_id", payload.OrderID,
		"driver_id", result.Driver.ID,
		"score", result.Score,
		"attempt", payload.Attempt,
	)
	return nil
}

// retryAssign 无可用骑手时延迟重新入队，达到上限后放弃并交给人工调度
func (c *Consumer) retryAssign(payload queue.AssignDriverPayload) error {
	next := payload.Attempt + 1
	if next >= c.maxAttempts {
		logger.Warnw("worker_assign_driver_give_up", "order_id", payload.OrderID, "attempts", next)
		return nil
	}
	if c.enqueuer == nil {
		logger.Warnw("worker_assign_driver_retry_skip_queue_nil", "order_id", payload.OrderID)
		return nil
	}
	retry := queue.AssignDriverPayload{OrderID: payload.OrderID, Attempt: next}
	if err := c.enqueuer.EnqueueAssignDriver(retry, c.retryDelay); err != nil {
		logger.Warnw("worker_assign_driver_retry_enqueue_failed", "order_id", payload.OrderID, "attempt", next, "error", err)
		return err
	}
	logger.Infow("worker_assign_driver_retry_scheduled",
		"order_id", payload.OrderID,
		"attempt", next,
		"delay_seconds", int(c.retryDelay.Seconds()),
	)
	return nil
}

func (c *Consumer) handleSettlementProcessDue(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_process_due_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementProcessDuePayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_settlement_process_due_unmarshal_failed", "error", err)
			return err
		}
	}
	if c.processor == nil {
		logger.Warnw("worker_settlement_process_due_skip_service_nil")
		return nil
	}
	at := c.now()
	if payload.At > 0 {
		at = time.Unix(payload.At, 0)
	}
	_, err := runSweep(ctx, c.processor, at)
	return err
}

func runSweep(ctx context.Context, processor settlementProcessor, at time.Time) (*service.SweepResult, error) {
	result, err := processor.ProcessDue(ctx, at)
	if err != nil {
		logger.Warnw("worker_settlement_sweep_failed", "at", at.UTC(), "error", err)
		return nil, err
	}
	if result.Total > 0 {
		logger.Infow("worker_settlement_sweep_done",
			"at", at.UTC(),
			"total", result.Total,
			"processed", result.Processed,
			"failed", result.Failed,
			"skipped", result.Skipped,
		)
	}
	return result, nil
}
