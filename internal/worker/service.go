package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultSweepInterval = 5 * time.Minute

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// SweepService 定时扫描到期结算并打款
// 不依赖队列，队列关闭时同样生效；多实例部署依赖结算状态条件更新保证不重复打款
type SweepService struct {
	processor settlementProcessor
	interval  time.Duration
	now       func() time.Time
	stopOnce  sync.Once
	stopCh    chan struct{}
}

// NewSweepService 创建结算扫描服务
func NewSweepService(processor settlementProcessor, interval time.Duration) (*SweepService, error) {
	if processor == nil {
		return nil, errors.New("settlement processor is nil")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SweepService{
		processor: processor,
		interval:  interval,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}, nil
}

// NewSweepServiceFromConfig 根据结算配置创建扫描服务
func NewSweepServiceFromConfig(cfg *config.SettlementConfig, consumer *Consumer) (*SweepService, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	var interval time.Duration
	if cfg != nil {
		interval = time.Duration(cfg.SweepIntervalSeconds) * time.Second
	}
	return NewSweepService(consumer.processor, interval)
}

// Name 服务名称
func (s *SweepService) Name() string {
	return "settlement_sweeper"
}

// Start 启动扫描循环，阻塞直到 ctx 结束或 Stop 被调用
func (s *SweepService) Start(ctx context.Context) error {
	if s == nil || s.processor == nil {
		return errors.New("sweeper not initialized")
	}
	runOnce := func() {
		_, _ = runSweep(ctx, s.processor, s.now())
	}
	runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}

// Stop 停止扫描
func (s *SweepService) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	_ = ctx
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}
