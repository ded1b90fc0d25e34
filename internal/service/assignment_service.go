package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/padala-next/internal/cache"
	"github.com/padala-next/internal/constants"
	"github.com/padala-next/internal/geo"
	"github.com/padala-next/internal/logger"
	"github.com/padala-next/internal/models"
	"github.com/padala-next/internal/notify"
	"github.com/padala-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultMaxRadiusKm     = 15
	defaultNotifyTimeout   = 5 * time.Second
	defaultPrepTimeMinutes = 30
)

var errDriverTaken = errors.New("driver taken")

// TrackingPublisher 位置事件推送能力
type TrackingPublisher interface {
	PublishLocation(ctx context.Context, event cache.LocationEvent) error
}

// AssignmentSettings 派单参数
type AssignmentSettings struct {
	MaxRadiusKm            float64
	NotifyTimeout          time.Duration
	DefaultPrepTimeMinutes int
}

// AssignmentServiceDeps 派单服务依赖
type AssignmentServiceDeps struct {
	OrderRepo      repository.OrderRepository
	DriverRepo     repository.DriverRepository
	TrackingRepo   repository.TrackingRepository
	RestaurantRepo repository.RestaurantRepository
	Pool           *DriverPool
	Scorer         *AssignmentScorer
	Geo            *geo.Calculator
	Notifier       notify.Notifier
	Publisher      TrackingPublisher
}

// AssignmentService 派单与改派
type AssignmentService struct {
	orderRepo      repository.OrderRepository
	driverRepo     repository.DriverRepository
	trackingRepo   repository.TrackingRepository
	restaurantRepo repository.RestaurantRepository
	pool           *DriverPool
	scorer         *AssignmentScorer
	geo            *geo.Calculator
	notifier       notify.Notifier
	publisher      TrackingPublisher
	settings       AssignmentSettings
}

// DriverSummary 派单结果中的骑手信息
type DriverSummary struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	VehicleType   string  `json:"vehicle_type"`
	VehicleNumber string  `json:"vehicle_number"`
	Rating        float64 `json:"rating"`
}

// AssignmentResult 派单结果
type AssignmentResult struct {
	OrderID            uint            `json:"order_id"`
	Driver             DriverSummary   `json:"driver"`
	Score              float64         `json:"score"`
	DistanceKm         float64         `json:"distance_km"`
	ETAMin             int             `json:"eta_min"`
	DeliveryDistanceKm float64         `json:"delivery_distance_km"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee"`
	InServiceArea      bool            `json:"in_service_area"`
	RouteFallback      bool            `json:"route_fallback"`
	Reassigned         bool            `json:"reassigned"`
}

// LocationUpdateResult 位置上报结果
type LocationUpdateResult struct {
	DriverID         uint   `json:"driver_id"`
	ActiveOrderID    uint   `json:"active_order_id,omitempty"`
	Phase            string `json:"phase,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	Published        bool   `json:"published"`
}

// DeliveryEstimate 配送预估
type DeliveryEstimate struct {
	RestaurantID         uint            `json:"restaurant_id"`
	DistanceKm           float64         `json:"distance_km"`
	EstimatedPrepTime    int             `json:"estimated_prep_time"`
	EstimatedDeliveryMin int             `json:"estimated_delivery_time"`
	TotalEstimatedMin    int             `json:"total_estimated_time"`
	DeliveryFee          decimal.Decimal `json:"delivery_fee"`
	RouteFallback        bool            `json:"route_fallback"`
}

// NewAssignmentService 创建派单服务
func NewAssignmentService(deps AssignmentServiceDeps, settings AssignmentSettings) *AssignmentService {
	if settings.MaxRadiusKm <= 0 {
		settings.MaxRadiusKm = defaultMaxRadiusKm
	}
	if settings.NotifyTimeout <= 0 {
		settings.NotifyTimeout = defaultNotifyTimeout
	}
	if settings.DefaultPrepTimeMinutes <= 0 {
		settings.DefaultPrepTimeMinutes = defaultPrepTimeMinutes
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &AssignmentService{
		orderRepo:      deps.OrderRepo,
		driverRepo:     deps.DriverRepo,
		trackingRepo:   deps.TrackingRepo,
		restaurantRepo: deps.RestaurantRepo,
		pool:           deps.Pool,
		scorer:         deps.Scorer,
		geo:            deps.Geo,
		notifier:       notifier,
		publisher:      deps.Publisher,
		settings:       settings,
	}
}

// Assign 为待派单订单选择并绑定最优骑手
func (s *AssignmentService) Assign(ctx context.Context, orderID uint) (*AssignmentResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.DriverID != nil {
		return nil, ErrOrderAlreadyAssigned
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStatusInvalid
	}

	origin := restaurantPoint(order.Restaurant)
	ranked, err := s.rankCandidates(ctx, order, origin)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		logger.Infow("assignment_no_drivers",
			"order_id", order.ID,
			"city", order.Restaurant.City,
		)
		return nil, ErrNoDriversAvailable
	}

	for _, candidate := range ranked {
		err := s.commitAssign(order, candidate)
		if errors.Is(err, errDriverTaken) {
			logger.Debugw("assignment_driver_taken",
				"order_id", order.ID,
				"driver_id", candidate.Driver.ID,
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		result := s.buildResult(order, candidate, false)
		s.notifyAssignment(ctx, order, candidate, result, constants.NotifyKindDriverAssigned)
		logger.Infow("assignment_committed",
			"order_id", order.ID,
			"driver_id", candidate.Driver.ID,
			"score", candidate.Score,
			"distance_km", candidate.DistanceKm,
			"route_fallback", candidate.RouteFallback,
		)
		return result, nil
	}
	return nil, ErrNoDriversAvailable
}

// Reassign 骑手拒单后改派，无人可派时订单退回 PENDING 并解绑骑手
func (s *AssignmentService) Reassign(ctx context.Context, orderID, rejectedDriverID uint) (*AssignmentResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.DriverID == nil || *order.DriverID != rejectedDriverID || order.Status != constants.OrderStatusConfirmed {
		return nil, ErrOrderStatusInvalid
	}

	origin := restaurantPoint(order.Restaurant)
	ranked, err := s.rankCandidates(ctx, order, origin, rejectedDriverID)
	if err != nil {
		return nil, err
	}

	for _, candidate := range ranked {
		err := s.commitReassign(order, rejectedDriverID, candidate)
		if errors.Is(err, errDriverTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result := s.buildResult(order, candidate, true)
		s.notifyAssignment(ctx, order, candidate, result, constants.NotifyKindDriverReassigned)
		logger.Infow("assignment_reassigned",
			"order_id", order.ID,
			"rejected_driver_id", rejectedDriverID,
			"driver_id", candidate.Driver.ID,
			"score", candidate.Score,
		)
		return result, nil
	}

	if err := s.releaseToPending(order.ID, rejectedDriverID); err != nil {
		return nil, err
	}
	logger.Infow("assignment_reassign_no_drivers",
		"order_id", order.ID,
		"rejected_driver_id", rejectedDriverID,
	)
	return nil, ErrNoDriversAvailable
}

// UpdateDriverLocation 更新骑手位置，有进行中订单时同步跟踪记录并推送
func (s *AssignmentService) UpdateDriverLocation(ctx context.Context, driverID uint, lat, lng float64) (*LocationUpdateResult, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrLocationInvalid
	}
	now := time.Now().UTC()
	updated, err := s.driverRepo.UpdateLocation(driverID, lat, lng, now)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrDriverNotFound
	}
	result := &LocationUpdateResult{DriverID: driverID}

	order, err := s.orderRepo.GetActiveByDriver(driverID, []string{
		constants.OrderStatusOutForDelivery,
		constants.OrderStatusReady,
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return result, nil
	}
	result.ActiveOrderID = order.ID

	tracking, err := s.trackingRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if tracking == nil {
		logger.Warnw("assignment_tracking_missing",
			"order_id", order.ID,
			"driver_id", driverID,
		)
		return result, nil
	}

	driverPoint := geo.Point{Lat: lat, Lng: lng}
	phase := constants.TrackingPhaseHeadingToRestaurant
	target := geo.Point{Lat: tracking.RestaurantLat, Lng: tracking.RestaurantLng}
	if order.Status == constants.OrderStatusOutForDelivery {
		phase = constants.TrackingPhaseHeadingToCustomer
		target = geo.Point{Lat: tracking.CustomerLat, Lng: tracking.CustomerLng}
	}
	remaining := geo.Distance(driverPoint, target)
	eta := int(math.Ceil(geo.TravelMinutes(remaining)))

	if err := s.trackingRepo.UpdateByOrderID(order.ID, map[string]interface{}{
		"driver_id":         driverID,
		"driver_lat":        lat,
		"driver_lng":        lng,
		"distance_km":       math.Round(remaining*100) / 100,
		"estimated_minutes": eta,
		"phase":             phase,
		"last_updated":      now,
		"updated_at":        now,
	}); err != nil {
		return nil, err
	}
	result.Phase = phase
	result.EstimatedMinutes = eta

	if s.publisher != nil {
		event := cache.LocationEvent{
			OrderID:          order.ID,
			DriverID:         driverID,
			Lat:              lat,
			Lng:              lng,
			DistanceKm:       math.Round(remaining*100) / 100,
			EstimatedMinutes: eta,
			Phase:            phase,
			Timestamp:        now,
		}
		if err := s.publisher.PublishLocation(ctx, event); err != nil {
			logger.Warnw("assignment_location_publish_failed",
				"order_id", order.ID,
				"driver_id", driverID,
				"error", err,
			)
		} else {
			result.Published = true
		}
	}
	return result, nil
}

// DeliveryEstimate 预估商家到收货地址的配送时长与配送费
func (s *AssignmentService) DeliveryEstimate(ctx context.Context, restaurantID uint, destination geo.Point) (*DeliveryEstimate, error) {
	if math.IsNaN(destination.Lat) || math.IsNaN(destination.Lng) || destination.Lat < -90 || destination.Lat > 90 || destination.Lng < -180 || destination.Lng > 180 {
		return nil, ErrLocationInvalid
	}
	restaurant, err := s.restaurantRepo.GetByID(restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, ErrRestaurantNotFound
	}
	route := s.geo.Route(ctx, restaurantPoint(*restaurant), destination)
	fee, ok := s.geo.DeliveryFee(route.DistanceKm)
	if !ok {
		return nil, ErrOutOfServiceArea
	}
	prep := restaurant.PrepTimeMinutes
	if prep <= 0 {
		prep = s.settings.DefaultPrepTimeMinutes
	}
	total := s.geo.EstimatedPrepAndDeliveryMinutes(route.DistanceKm, prep)
	if !route.Fallback {
		total = prep + route.DurationMin + s.geo.Policy().BufferMinutes
	}
	return &DeliveryEstimate{
		RestaurantID:         restaurant.ID,
		DistanceKm:           route.DistanceKm,
		EstimatedPrepTime:    prep,
		EstimatedDeliveryMin: route.DurationMin,
		TotalEstimatedMin:    total,
		DeliveryFee:          fee,
		RouteFallback:        route.Fallback,
	}, nil
}

func (s *AssignmentService) rankCandidates(ctx context.Context, order *models.Order, origin geo.Point, exclude ...uint) ([]ScoredCandidate, error) {
	drivers, err := s.pool.FindAvailableDrivers(ctx, order.Restaurant.City, origin, s.settings.MaxRadiusKm, exclude...)
	if err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		return nil, nil
	}
	scored, err := s.scorer.ScoreAll(ctx, drivers, origin)
	if err != nil {
		return nil, err
	}
	return Rank(scored), nil
}

func (s *AssignmentService) commitAssign(order *models.Order, candidate ScoredCandidate) error {
	now := time.Now().UTC()
	return s.orderRepo.Transaction(func(tx *gorm.DB) error {
		claimed, err := s.driverRepo.WithTx(tx).Claim(candidate.Driver.ID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errDriverTaken
		}
		bound, err := s.orderRepo.WithTx(tx).ClaimForDriver(order.ID, candidate.Driver.ID, now)
		if err != nil {
			return err
		}
		if !bound {
			return ErrOrderAlreadyAssigned
		}
		return s.trackingRepo.WithTx(tx).Upsert(newTracking(order, candidate, now))
	})
}

func (s *AssignmentService) commitReassign(order *models.Order, rejectedDriverID uint, candidate ScoredCandidate) error {
	now := time.Now().UTC()
	return s.orderRepo.Transaction(func(tx *gorm.DB) error {
		driverRepo := s.driverRepo.WithTx(tx)
		claimed, err := driverRepo.Claim(candidate.Driver.ID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errDriverTaken
		}
		swapped, err := s.orderRepo.WithTx(tx).SwapDriver(order.ID, rejectedDriverID, candidate.Driver.ID, now)
		if err != nil {
			return err
		}
		if !swapped {
			return ErrOrderStatusInvalid
		}
		if err := driverRepo.Release(rejectedDriverID, now); err != nil {
			return err
		}
		return s.trackingRepo.WithTx(tx).Upsert(newTracking(order, candidate, now))
	})
}

func (s *AssignmentService) releaseToPending(orderID, rejectedDriverID uint) error {
	now := time.Now().UTC()
	return s.orderRepo.Transaction(func(tx *gorm.DB) error {
		released, err := s.orderRepo.WithTx(tx).ReleaseDriver(orderID, rejectedDriverID, now)
		if err != nil {
			return err
		}
		if !released {
			return ErrOrderStatusInvalid
		}
		if err := s.driverRepo.WithTx(tx).Release(rejectedDriverID, now); err != nil {
			return err
		}
		return s.trackingRepo.WithTx(tx).DeleteByOrderID(orderID)
	})
}

func (s *AssignmentService) buildResult(order *models.Order, candidate ScoredCandidate, reassigned bool) *AssignmentResult {
	driver := candidate.Driver
	result := &AssignmentResult{
		OrderID: order.ID,
		Driver: DriverSummary{
			ID:            driver.ID,
			Name:          driver.User.FullName(),
			Phone:         driver.User.Phone,
			VehicleType:   driver.VehicleType,
			VehicleNumber: driver.VehicleNumber,
			Rating:        driver.Rating,
		},
		Score:         candidate.Score,
		DistanceKm:    candidate.DistanceKm,
		ETAMin:        candidate.ETAMin,
		RouteFallback: candidate.RouteFallback,
		Reassigned:    reassigned,
	}
	if driver.HasLocation() {
		toCustomer := geo.Distance(
			geo.Point{Lat: *driver.CurrentLat, Lng: *driver.CurrentLng},
			geo.Point{Lat: order.DeliveryLat, Lng: order.DeliveryLng},
		)
		result.DeliveryDistanceKm = math.Round(toCustomer*100) / 100
		result.DeliveryFee, result.InServiceArea = s.geo.DeliveryFee(toCustomer)
	}
	return result
}

func (s *AssignmentService) notifyAssignment(ctx context.Context, order *models.Order, candidate ScoredCandidate, result *AssignmentResult, customerKind string) {
	driver := candidate.Driver
	fee := ""
	if result.InServiceArea {
		fee = result.DeliveryFee.StringFixed(2)
	}
	messages := []notify.Message{
		{
			Contact: driver.User.Phone,
			Kind:    constants.NotifyKindNewDeliveryRequest,
			Payload: map[string]interface{}{
				"order_id":         order.ID,
				"order_number":     order.OrderNumber,
				"restaurant_name":  order.Restaurant.Name,
				"delivery_address": order.DeliveryAddress,
				"distance_km":      candidate.DistanceKm,
				"delivery_fee":     fee,
			},
		},
		{
			Contact: order.Customer.Phone,
			Kind:    customerKind,
			Payload: map[string]interface{}{
				"order_id":       order.ID,
				"order_number":   order.OrderNumber,
				"driver_name":    driver.User.FullName(),
				"vehicle_type":   driver.VehicleType,
				"vehicle_number": driver.VehicleNumber,
			},
		},
	}
	for _, msg := range messages {
		notifyCtx, cancel := context.WithTimeout(ctx, s.settings.NotifyTimeout)
		err := s.notifier.Notify(notifyCtx, msg)
		cancel()
		if err != nil {
			logger.Warnw("assignment_notify_failed",
				"order_id", order.ID,
				"driver_id", driver.ID,
				"kind", msg.Kind,
				"error", err,
			)
		}
	}
}

func newTracking(order *models.Order, candidate ScoredCandidate, now time.Time) *models.Tracking {
	tracking := &models.Tracking{
		OrderID:          order.ID,
		DriverID:         candidate.Driver.ID,
		RestaurantLat:    order.Restaurant.Latitude,
		RestaurantLng:    order.Restaurant.Longitude,
		CustomerLat:      order.DeliveryLat,
		CustomerLng:      order.DeliveryLng,
		EstimatedMinutes: candidate.ETAMin,
		DistanceKm:       candidate.DistanceKm,
		Phase:            constants.TrackingPhaseHeadingToRestaurant,
		LastUpdated:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if candidate.Driver.HasLocation() {
		tracking.DriverLat = *candidate.Driver.CurrentLat
		tracking.DriverLng = *candidate.Driver.CurrentLng
	}
	return tracking
}

func restaurantPoint(r models.Restaurant) geo.Point {
	return geo.Point{Lat: r.Latitude, Lng: r.Longitude}
}

// TrackOrder 查询订单配送跟踪，未派单或已送达时返回 ErrTrackingNotFound
func (s *AssignmentService) TrackOrder(ctx context.Context, orderID uint) (*models.Tracking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row, err := s.trackingRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrTrackingNotFound
	}
	return row, nil
}
