package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/padala-next/internal/cache"
	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/geo"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/notify"
	"github.com/padala-next/internal/payout"
	"github.com/padala-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var makati = geo.Point{Lat: 14.5547, Lng: 121.0244}

type testEnv struct {
	db             *gorm.DB
	orderRepo      *repository.GormOrderRepository
	driverRepo     *repository.GormDriverRepository
	trackingRepo   *repository.GormTrackingRepository
	restaurantRepo *repository.GormRestaurantRepository
	userRepo       *repository.GormUserRepository
	settlementRepo *repository.GormSettlementRepository
	earningRepo    *repository.GormEarningRepository
	txnRepo        *repository.GormTransactionRepository
}

func newTestEnv(t *testing.T, name string) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := models.OpenDB("sqlite", dsn, gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return &testEnv{
		db:             db,
		orderRepo:      repository.NewOrderRepository(db),
		driverRepo:     repository.NewDriverRepository(db),
		trackingRepo:   repository.NewTrackingRepository(db),
		restaurantRepo: repository.NewRestaurantRepository(db),
		userRepo:       repository.NewUserRepository(db),
		settlementRepo: repository.NewSettlementRepository(db),
		earningRepo:    repository.NewEarningRepository(db),
		txnRepo:        repository.NewTransactionRepository(db),
	}
}

// offsetNorth 返回 origin 正北方向 km 公里处的坐标
func offsetNorth(origin geo.Point, km float64) geo.Point {
	return geo.Point{Lat: origin.Lat + km/6371*180/math.Pi, Lng: origin.Lng}
}

func (e *testEnv) createUser(t *testing.T, first, last, phone string) *models.User {
	t.Helper()
	user := &models.User{FirstName: first, LastName: last, Phone: phone, Email: fmt.Sprintf("%s.%s@example.com", first, last)}
	if err := e.userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (e *testEnv) createRestaurant(t *testing.T, city string, at geo.Point) *models.Restaurant {
	t.Helper()
	owner := e.createUser(t, "Owner", city, "09170000000")
	restaurant := &models.Restaurant{
		OwnerID:         owner.ID,
		Name:            "Kusina " + city,
		City:            city,
		Latitude:        at.Lat,
		Longitude:       at.Lng,
		PrepTimeMinutes: 20,
		PayoutAccount:   "0012-3456-78",
		PayoutName:      "Kusina Inc",
		IsActive:        true,
	}
	if err := e.restaurantRepo.Create(restaurant); err != nil {
		t.Fatalf("create restaurant failed: %v", err)
	}
	return restaurant
}

type driverOpts struct {
	city       string
	at         *geo.Point
	rating     float64
	deliveries int
	available  bool
	online     bool
	gcash      string
}

func (e *testEnv) createDriver(t *testing.T, opts driverOpts) *models.Driver {
	t.Helper()
	user := e.createUser(t, "Driver", fmt.Sprintf("%d", time.Now().UnixNano()), "09181234567")
	driver := &models.Driver{
		UserID:          user.ID,
		VehicleType:     "motorcycle",
		VehicleNumber:   "ABC-1234",
		CurrentCity:     opts.city,
		Rating:          opts.rating,
		TotalDeliveries: opts.deliveries,
		GCashNumber:     opts.gcash,
		TotalEarnings:   models.MustMoney("0"),
	}
	if opts.at != nil {
		lat, lng := opts.at.Lat, opts.at.Lng
		driver.CurrentLat = &lat
		driver.CurrentLng = &lng
	}
	if err := e.driverRepo.Create(driver); err != nil {
		t.Fatalf("create driver failed: %v", err)
	}
	// gorm 不会写入 bool 零值字段，创建后显式更新
	if err := e.db.Model(&models.Driver{}).Where("id = ?", driver.ID).Updates(map[string]interface{}{
		"is_available": opts.available,
		"is_online":    opts.online,
	}).Error; err != nil {
		t.Fatalf("update driver flags failed: %v", err)
	}
	driver.IsAvailable = opts.available
	driver.IsOnline = opts.online
	driver.User = *user
	return driver
}

func (e *testEnv) createOrder(t *testing.T, restaurant *models.Restaurant, deliverTo geo.Point, subtotal, deliveryFee, discount string) *models.Order {
	t.Helper()
	customer := e.createUser(t, "Maria", "Santos", "09191112222")
	order := &models.Order{
		OrderNumber:     fmt.Sprintf("PD-%d", time.Now().UnixNano()),
		RestaurantID:    restaurant.ID,
		CustomerID:      customer.ID,
		Status:          constants.OrderStatusPending,
		Subtotal:        models.MustMoney(subtotal),
		DeliveryFee:     models.MustMoney(deliveryFee),
		Discount:        models.MustMoney(discount),
		TotalAmount:     models.MustMoney("0"),
		DeliveryAddress: "Ayala Ave, Makati",
		DeliveryLat:     deliverTo.Lat,
		DeliveryLng:     deliverTo.Lng,
	}
	if err := e.orderRepo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (e *testEnv) reloadDriver(t *testing.T, id uint) *models.Driver {
	t.Helper()
	driver, err := e.driverRepo.GetByID(id)
	if err != nil || driver == nil {
		t.Fatalf("reload driver failed: %v", err)
	}
	return driver
}

func (e *testEnv) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()
	order, err := e.orderRepo.GetByID(id)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return order
}

func pointPtr(p geo.Point) *geo.Point {
	return &p
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]string, 0, len(n.messages))
	for _, msg := range n.messages {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []cache.LocationEvent
	err    error
}

func (p *recordingPublisher) PublishLocation(_ context.Context, event cache.LocationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type stubGateway struct {
	mu          sync.Mutex
	requests    []payout.Request
	failAccount string
}

func (g *stubGateway) Payout(_ context.Context, req payout.Request) (*payout.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.failAccount != "" && req.AccountNumber == g.failAccount {
		return nil, errors.New("recipient wallet suspended")
	}
	return &payout.Result{PayoutID: fmt.Sprintf("PO-%d", len(g.requests)), Status: "completed"}, nil
}

func (e *testEnv) newAssignmentService(notifier notify.Notifier, publisher TrackingPublisher) *AssignmentService {
	calc := geo.NewCalculator(nil, 0, geo.DefaultFeePolicy())
	return NewAssignmentService(AssignmentServiceDeps{
		OrderRepo:      e.orderRepo,
		DriverRepo:     e.driverRepo,
		TrackingRepo:   e.trackingRepo,
		RestaurantRepo: e.restaurantRepo,
		Pool:           NewDriverPool(e.driverRepo),
		Scorer:         NewAssignmentScorer(calc, 4),
		Geo:            calc,
		Notifier:       notifier,
		Publisher:      publisher,
	}, AssignmentSettings{MaxRadiusKm: 15, NotifyTimeout: time.Second})
}

func (e *testEnv) newSettlementService(gateway payout.Gateway) *SettlementService {
	return NewSettlementService(SettlementServiceDeps{
		SettlementRepo:  e.settlementRepo,
		EarningRepo:     e.earningRepo,
		TransactionRepo: e.txnRepo,
		OrderRepo:       e.orderRepo,
		DriverRepo:      e.driverRepo,
		RestaurantRepo:  e.restaurantRepo,
		Gateway:         gateway,
	}, SettlementSettings{
		CommissionRate:     decimal.RequireFromString("0.18"),
		RestaurantSchedule: constants.SettlementScheduleDaily,
		DriverSchedule:     constants.SettlementScheduleWeekly,
		Location:           manila,
		PayoutHour:         9,
		BatchSize:          50,
		PayoutTimeout:      time.Second,
	})
}

var manila = time.FixedZone("PHT", 8*3600)

func settlementFilterAll() repository.SettlementListFilter {
	return repository.SettlementListFilter{Page: 1, PageSize: 100}
}
