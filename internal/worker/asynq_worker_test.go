package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/padala-next/internal/queue"
	"github.com/padala-next/internal/service"

	"github.com/hibiken/asynq"
)

type stubAssigner struct {
	err   error
	calls []uint
}

func (s *stubAssigner) Assign(_ context.Context, orderID uint) (*service.AssignmentResult, error) {
	s.calls = append(s.calls, orderID)
	if s.err != nil {
		return nil, s.err
	}
	return &service.AssignmentResult{OrderID: orderID, Driver: service.DriverSummary{ID: 7}, Score: 88}, nil
}

type stubEnqueuer struct {
	payloads []queue.AssignDriverPayload
	delays   []time.Duration
	err      error
}

func (s *stubEnqueuer) EnqueueAssignDriver(payload queue.AssignDriverPayload, delay time.Duration) error {
	s.payloads = append(s.payloads, payload)
	s.delays = append(s.delays, delay)
	return s.err
}

type stubProcessor struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (s *stubProcessor) ProcessDue(_ context.Context, at time.Time) (*service.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, at)
	if s.err != nil {
		return nil, s.err
	}
	return &service.SweepResult{Total: 1, Processed: 1, Errors: []service.SweepError{}}, nil
}

func (s *stubProcessor) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func assignTask(t *testing.T, orderID uint, attempt int) *asynq.Task {
	t.Helper()
	task, err := queue.NewAssignDriverTask(queue.AssignDriverPayload{OrderID: orderID, Attempt: attempt})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	return task
}

func newTestConsumer(assigner driverAssigner, enqueuer assignEnqueuer, processor settlementProcessor) *Consumer {
	return &Consumer{
		assigner:    assigner,
		processor:   processor,
		enqueuer:    enqueuer,
		retryDelay:  45 * time.Second,
		maxAttempts: 3,
		now:         time.Now,
	}
}

func TestHandleAssignDriverSuccess(t *testing.T) {
	assigner := &stubAssigner{}
	enqueuer := &stubEnqueuer{}
	consumer := newTestConsumer(assigner, enqueuer, nil)

	if err := consumer.handleAssignDriver(context.Background(), assignTask(t, 12, 0)); err != nil {
		t.Fatalf("handle assign failed: %v", err)
	}
	if len(assigner.calls) != 1 || assigner.calls[0] != 12 {
		t.Fatalf("unexpected assign calls: %v", assigner.calls)
	}
	if len(enqueuer.payloads) != 0 {
		t.Fatalf("expected no retry, got %v", enqueuer.payloads)
	}
}

func TestHandleAssignDriverRetriesWhenNoDrivers(t *testing.T) {
	assigner := &stubAssigner{err: fmt.Errorf("%w: within 15km", service.ErrNoDriversAvailable)}
	enqueuer := &stubEnqueuer{}
	consumer := newTestConsumer(assigner, enqueuer, nil)

	if err := consumer.handleAssignDriver(context.Background(), assignTask(t, 5, 0)); err != nil {
		t.Fatalf("handle assign failed: %v", err)
	}
	if len(enqueuer.payloads) != 1 {
		t.Fatalf("expected one retry, got %d", len(enqueuer.payloads))
	}
	if enqueuer.payloads[0].OrderID != 5 || enqueuer.payloads[0].Attempt != 1 {
		t.Fatalf("unexpected retry payload: %+v", enqueuer.payloads[0])
	}
	if enqueuer.delays[0] != 45*time.Second {
		t.Fatalf("unexpected retry delay: %s", enqueuer.delays[0])
	}
}

func TestHandleAssignDriverGivesUpAfterMaxAttempts(t *testing.T) {
	assigner := &stubAssigner{err: service.ErrNoDriversAvailable}
	enqueuer := &stubEnqueuer{}
	consumer := newTestConsumer(assigner, enqueuer, nil)

	if err := consumer.handleAssignDriver(context.Background(), assignTask(t, 5, 2)); err != nil {
		t.Fatalf("handle assign failed: %v", err)
	}
	if len(enqueuer.payloads) != 0 {
		t.Fatalf("expected no retry after max attempts, got %v", enqueuer.payloads)
	}
}

func TestHandleAssignDriverRetryEnqueueFailure(t *testing.T) {
	assigner := &stubAssigner{err: service.ErrNoDriversAvailable}
	enqueuer := &stubEnqueuer{err: errors.New("redis down")}
	consumer := newTestConsumer(assigner, enqueuer, nil)

	if err := consumer.handleAssignDriver(context.Background(), assignTask(t, 5, 0)); err == nil {
		t.Fatalf("expected enqueue failure to surface for asynq retry")
	}
}

func TestHandleAssignDriverSkipsTerminalErrors(t *testing.T) {
	cases := []error{
		service.ErrOrderNotFound,
		service.ErrOrderAlreadyAssigned,
		fmt.Errorf("%w: status=delivered", service.ErrOrderStatusInvalid),
		service.ErrRestaurantNotFound,
	}
	for _, cause := range cases {
		enqueuer := &stubEnqueuer{}
		consumer := newTestConsumer(&stubAssigner{err: cause}, enqueuer, nil)
		if err := consumer.handleAssignDriver(context.Background(), assignTask(t, 9, 0)); err != nil {
			t.Fatalf("expected %v to be swallowed, got %v", cause, err)
		}
		if len(enqueuer.payloads) != 0 {
			t.Fatalf("expected no retry for %v", cause)
		}
	}
}

func TestHandleAssignDriverReturnsUnexpectedError(t *testing.T) {
	consumer := newTestConsumer(&stubAssigner{err: errors.New("db locked")}, &stubEnqueuer{}, nil)
	if err := consumer.handleAssignDriver(context.Background(), assignTask(t, 9, 0)); err == nil {
		t.Fatalf("expected unexpected error to be returned")
	}
}

func TestHandleAssignDriverInvalidPayload(t *testing.T) {
	assigner := &stubAssigner{}
	consumer := newTestConsumer(assigner, &stubEnqueuer{}, nil)

	if err := consumer.handleAssignDriver(context.Background(), asynq.NewTask(queue.TaskOrderAssignDriver, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if err := consumer.handleAssignDriver(context.Background(), assignTask(t, 0, 0)); err != nil {
		t.Fatalf("zero order id should be skipped, got %v", err)
	}
	if len(assigner.calls) != 0 {
		t.Fatalf("assigner should not be called, got %v", assigner.calls)
	}
}

func TestHandleSettlementProcessDueUsesPayloadTime(t *testing.T) {
	processor := &stubProcessor{}
	consumer := newTestConsumer(nil, nil, processor)
	at := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)

	body, _ := json.Marshal(queue.SettlementProcessDuePayload{At: at.Unix()})
	if err := consumer.handleSettlementProcessDue(context.Background(), asynq.NewTask(queue.TaskSettlementProcessDue, body)); err != nil {
		t.Fatalf("handle process due failed: %v", err)
	}
	if len(processor.calls) != 1 || !processor.calls[0].Equal(at) {
		t.Fatalf("unexpected process calls: %v", processor.calls)
	}
}

func TestHandleSettlementProcessDueDefaultsToNow(t *testing.T) {
	processor := &stubProcessor{}
	consumer := newTestConsumer(nil, nil, processor)
	fixed := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	consumer.now = func() time.Time { return fixed }

	if err := consumer.handleSettlementProcessDue(context.Background(), asynq.NewTask(queue.TaskSettlementProcessDue, nil)); err != nil {
		t.Fatalf("handle process due failed: %v", err)
	}
	if len(processor.calls) != 1 || !processor.calls[0].Equal(fixed) {
		t.Fatalf("unexpected process calls: %v", processor.calls)
	}
}

func TestHandleSettlementProcessDueError(t *testing.T) {
	processor := &stubProcessor{err: errors.New("db unavailable")}
	consumer := newTestConsumer(nil, nil, processor)
	if err := consumer.handleSettlementProcessDue(context.Background(), asynq.NewTask(queue.TaskSettlementProcessDue, nil)); err == nil {
		t.Fatalf("expected sweep error")
	}
}

func TestSweepServiceRunsUntilStopped(t *testing.T) {
	processor := &stubProcessor{}
	sweeper, err := NewSweepService(processor, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("new sweep service failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- sweeper.Start(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for processor.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if processor.count() < 3 {
		t.Fatalf("expected at least 3 sweeps, got %d", processor.count())
	}
	if err := sweeper.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := sweeper.Stop(context.Background()); err != nil {
		t.Fatalf("repeat stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop")
	}
}

func TestSweepServiceStopsOnContextCancel(t *testing.T) {
	sweeper, err := NewSweepService(&stubProcessor{err: errors.New("boom")}, time.Hour)
	if err != nil {
		t.Fatalf("new sweep service failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Start(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not exit on cancel")
	}
}

func TestNewSweepServiceRequiresProcessor(t *testing.T) {
	if _, err := NewSweepService(nil, time.Second); err == nil {
		t.Fatalf("expected error for nil processor")
	}
}
