package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/padala-next/internal/authz"
	"github.com/padala-next/internal/cache"
	"github.com/padala-next/internal/config"
	"github.com/padala-next/internal/geo"
	"github.com/padala-next/internal/logger"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/notify"
	"github.com/padala-next/internal/payout"
	"github.com/padala-next/internal/queue"
	"github.com/padala-next/internal/repository"
	"github.com/padala-next/internal/routing"
	"github.com/padala-next/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	RestaurantRepo  repository.RestaurantRepository
	DriverRepo      repository.DriverRepository
	OrderRepo       repository.OrderRepository
	TrackingRepo    repository.TrackingRepository
	TransactionRepo repository.TransactionRepository
	SettlementRepo  repository.SettlementRepository
	EarningRepo     repository.EarningRepository

	// Infrastructure
	Geo            *geo.Calculator
	Notifier       notify.Notifier
	PayoutGateway  payout.Gateway
	TrackingStream *cache.TrackingChannel

	// Services
	AuthzService      *authz.Service
	TokenService      *service.TokenService
	DriverPool        *service.DriverPool
	Scorer            *service.AssignmentScorer
	AssignmentService *service.AssignmentService
	SettlementService *service.SettlementService
}

// NewContainer 使用全局数据库连接初始化容器，失败直接终止启动
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c, err := NewContainerWithDB(cfg, models.DB)
	if err != nil {
		logger.Errorw("provider_init_container_failed", "error", err)
		panic(err)
	}

	// 初始化队列客户端
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			c.QueueClient = qc
		}
	}
	return c
}

// NewContainerWithDB 基于指定数据库连接初始化容器，不初始化队列
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if db == nil {
		return nil, errors.New("db is nil")
	}
	c := &Container{
		Config: cfg,
		DB:     db,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化外部能力
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// 3. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.RestaurantRepo = repository.NewRestaurantRepository(db)
	c.DriverRepo = repository.NewDriverRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.TrackingRepo = repository.NewTrackingRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.SettlementRepo = repository.NewSettlementRepository(db)
	c.EarningRepo = repository.NewEarningRepository(db)
}

func (c *Container) initInfrastructure() error {
	cfg := c.Config
	routeTimeout := time.Duration(cfg.Geo.RouteTimeoutMS) * time.Millisecond
	router, err := routing.NewFromConfig(cfg.Routing, routeTimeout)
	if err != nil {
		return fmt.Errorf("init routing failed: %w", err)
	}
	c.Geo = geo.NewCalculator(router, routeTimeout, geo.FeePolicy{
		BaseFee:       cfg.Delivery.BaseFee,
		IncludedKm:    cfg.Delivery.IncludedKm,
		PerKmFee:      cfg.Delivery.PerKmFee,
		MaxDistanceKm: cfg.Delivery.MaxDistanceKm,
		BufferMinutes: cfg.Delivery.BufferMinutes,
	})
	logger.Infow("provider_routing_ready", "provider", cfg.Routing.Provider, "enabled", router != nil)

	notifier, err := notify.NewFromConfig(cfg.Notify)
	if err != nil {
		return fmt.Errorf("init notifier failed: %w", err)
	}
	c.Notifier = notifier

	gateway, err := payout.NewFromConfig(cfg.Payout)
	if err != nil {
		return fmt.Errorf("init payout gateway failed: %w", err)
	}
	c.PayoutGateway = gateway

	c.TrackingStream = cache.NewTrackingChannel(cache.Client())
	return nil
}

func (c *Container) initServices() error {
	cfg := c.Config

	authzService, err := authz.NewService(c.DB)
	if err != nil {
		return fmt.Errorf("init authz failed: %w", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		return fmt.Errorf("bootstrap builtin roles failed: %w", err)
	}
	c.AuthzService = authzService

	tokenService, err := service.NewTokenService(cfg.JWT)
	if err != nil {
		return fmt.Errorf("init token service failed: %w", err)
	}
	c.TokenService = tokenService

	c.DriverPool = service.NewDriverPool(c.DriverRepo)
	c.Scorer = service.NewAssignmentScorer(c.Geo, cfg.Assignment.ScoreConcurrency)
	c.AssignmentService = service.NewAssignmentService(service.AssignmentServiceDeps{
		OrderRepo:      c.OrderRepo,
		DriverRepo:     c.DriverRepo,
		TrackingRepo:   c.TrackingRepo,
		RestaurantRepo: c.RestaurantRepo,
		Pool:           c.DriverPool,
		Scorer:         c.Scorer,
		Geo:            c.Geo,
		Notifier:       c.Notifier,
		Publisher:      c.TrackingStream,
	}, service.AssignmentSettings{
		MaxRadiusKm:            cfg.Assignment.MaxRadiusKm,
		NotifyTimeout:          time.Duration(cfg.Notify.TimeoutMS) * time.Millisecond,
		DefaultPrepTimeMinutes: cfg.Delivery.DefaultPrepTimeMinute,
	})

	c.SettlementService = service.NewSettlementService(service.SettlementServiceDeps{
		SettlementRepo:  c.SettlementRepo,
		EarningRepo:     c.EarningRepo,
		TransactionRepo: c.TransactionRepo,
		OrderRepo:       c.OrderRepo,
		DriverRepo:      c.DriverRepo,
		RestaurantRepo:  c.RestaurantRepo,
		Gateway:         c.PayoutGateway,
	}, service.SettlementSettings{
		CommissionRate:     decimal.NewFromFloat(cfg.Settlement.CommissionRate),
		RestaurantSchedule: cfg.Settlement.RestaurantSchedule,
		DriverSchedule:     cfg.Settlement.DriverSchedule,
		Location:           service.LoadLocation(cfg.Settlement.Timezone),
		PayoutHour:         cfg.Settlement.PayoutHour,
		BatchSize:          cfg.Settlement.BatchSize,
		PayoutTimeout:      time.Duration(cfg.Payout.TimeoutMS) * time.Millisecond,
	})
	return nil
}

// Close 释放容器持有的外部连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.QueueClient != nil {
		errs = append(errs, c.QueueClient.Close())
	}
	errs = append(errs, cache.Close())
	return errors.Join(errs...)
}
