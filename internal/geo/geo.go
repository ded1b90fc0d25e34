package geo

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/padala-next/internal/logger"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371.0

const (
	defaultRouteTimeout  = 3 * time.Second
	defaultBufferMinutes = 5
)

// ErrRouteNotFound 路径规划服务未返回可用路线
var ErrRouteNotFound = errors.New("route not found")

// Point 经纬度坐标
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Leg 路径规划服务返回的一段路线
type Leg struct {
	DistanceKm  float64
	DurationMin float64
}

// Router 外部路径规划能力
type Router interface {
	Route(ctx context.Context, origin, destination Point) (Leg, error)
}

// RouteResult 路线估算结果，Fallback 为 true 表示使用了直线距离估算
type RouteResult struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	Success     bool    `json:"success"`
	Fallback    bool    `json:"fallback"`
}

// FeePolicy 配送费规则
type FeePolicy struct {
	BaseFee       float64
	IncludedKm    float64
	PerKmFee      float64
	MaxDistanceKm float64
	BufferMinutes int
}

// DefaultFeePolicy 默认配送费规则（₱50 起步含 3km，超出每公里 ₱10，最远 15km）
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		BaseFee:       50,
		IncludedKm:    3,
		PerKmFee:      10,
		MaxDistanceKm: 15,
		BufferMinutes: defaultBufferMinutes,
	}
}

// Calculator 距离、时效与配送费计算
type Calculator struct {
	router       Router
	routeTimeout time.Duration
	policy       FeePolicy
}

// NewCalculator 创建计算器，router 为空时 Route 始终走直线估算
func NewCalculator(router Router, routeTimeout time.Duration, policy FeePolicy) *Calculator {
	if routeTimeout <= 0 {
		routeTimeout = defaultRouteTimeout
	}
	if policy.BufferMinutes <= 0 {
		policy.BufferMinutes = defaultBufferMinutes
	}
	return &Calculator{
		router:       router,
		routeTimeout: routeTimeout,
		policy:       policy,
	}
}

// Policy 返回当前配送费规则
func (c *Calculator) Policy() FeePolicy {
	return c.policy
}

// Distance 球面直线距离（km）
func Distance(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Distance 球面直线距离（km）
func (c *Calculator) Distance(a, b Point) float64 {
	return Distance(a, b)
}

// AverageSpeedKmh 城市平均车速：10km 以内 20，10-20km 25，20km 以上 30
func AverageSpeedKmh(distanceKm float64) float64 {
	switch {
	case distanceKm < 10:
		return 20
	case distanceKm <= 20:
		return 25
	default:
		return 30
	}
}

// TravelMinutes 按分段车速估算行驶分钟数
func TravelMinutes(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	return distanceKm / AverageSpeedKmh(distanceKm) * 60
}

// Route 调用路径规划服务，失败或超时回退到直线估算，不返回错误
func (c *Calculator) Route(ctx context.Context, origin, destination Point) RouteResult {
	if c.router != nil {
		routeCtx, cancel := context.WithTimeout(ctx, c.routeTimeout)
		leg, err := c.router.Route(routeCtx, origin, destination)
		cancel()
		if err == nil && leg.DistanceKm >= 0 && leg.DurationMin >= 0 {
			return RouteResult{
				DistanceKm:  roundKm(leg.DistanceKm),
				DurationMin: int(math.Ceil(leg.DurationMin)),
				Success:     true,
			}
		}
		logger.Debugw("geo_route_fallback",
			"origin_lat", origin.Lat,
			"origin_lng", origin.Lng,
			"destination_lat", destination.Lat,
			"destination_lng", destination.Lng,
			"error", err,
		)
	}
	distance := Distance(origin, destination)
	return RouteResult{
		DistanceKm:  roundKm(distance),
		DurationMin: int(math.Ceil(TravelMinutes(distance))),
		Success:     false,
		Fallback:    true,
	}
}

// DeliveryFee 计算配送费（四舍五入到整数比索），超出最大配送半径时 ok 为 false
func (c *Calculator) DeliveryFee(distanceKm float64) (decimal.Decimal, bool) {
	if distanceKm < 0 || distanceKm > c.policy.MaxDistanceKm {
		return decimal.Zero, false
	}
	extraKm := math.Max(0, distanceKm-c.policy.IncludedKm)
	fee := decimal.NewFromFloat(c.policy.BaseFee).
		Add(decimal.NewFromFloat(extraKm).Mul(decimal.NewFromFloat(c.policy.PerKmFee)))
	return fee.Round(0), true
}

// EstimatedPrepAndDeliveryMinutes 行驶时间 + 出餐时间 + 缓冲时间
func (c *Calculator) EstimatedPrepAndDeliveryMinutes(distanceKm float64, prepTimeMin int) int {
	if prepTimeMin < 0 {
		prepTimeMin = 0
	}
	return int(math.Round(TravelMinutes(distanceKm) + float64(prepTimeMin) + float64(c.policy.BufferMinutes)))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
