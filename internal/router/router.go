package router

import (
	"fmt"
	"strings"

	"github.com/padala-next/internal/cache"
	"github.com/padala-next/internal/config"
	adminhandlers "github.com/padala-next/internal/http/handlers/admin"
	publichandlers "github.com/padala-next/internal/http/handlers/public"
	"github.com/padala-next/internal/http/response"
	"github.com/padala-next/internal/logger"
	"github.com/padala-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "padala"
	}
	locationRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:driver_location", redisPrefix),
		WindowSeconds: cfg.Security.LocationRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LocationRateLimit.MaxRequests,
		Message:       "location updates too frequent",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（顾客端）
		apiV1.GET("/delivery/estimate", publicHandler.GetDeliveryEstimate)
		apiV1.GET("/tracking/orders/:id", publicHandler.GetOrderTracking)
		apiV1.GET("/tracking/orders/:id/stream", publicHandler.StreamOrderTracking)

		// 需要鉴权的接口，权限由 casbin 角色策略决定
		authorized := apiV1.Group("")
		authorized.Use(JWTAuthMiddleware(c.TokenService), RBACMiddleware(c.AuthzService))

		// 骑手自助
		driver := authorized.Group("/driver")
		{
			driver.POST("/location", RateLimitMiddleware(cache.Client(), locationRule, KeyByDriver), publicHandler.UpdateDriverLocation)
			driver.POST("/orders/:id/reject", publicHandler.RejectOrder)
			driver.GET("/earnings", publicHandler.GetMyEarnings)
		}

		// 调度
		dispatch := authorized.Group("/dispatch")
		{
			dispatch.POST("/orders/:id/assign", adminHandler.AssignOrder)
			dispatch.POST("/orders/:id/reassign", adminHandler.ReassignOrder)
		}

		// 财务
		finance := authorized.Group("/finance")
		{
			finance.POST("/orders/:id/transactions", adminHandler.RecordTransaction)
			finance.POST("/settlements/process", adminHandler.ProcessSettlements)
			finance.POST("/settlements/:id/retry", adminHandler.RetrySettlement)
			finance.GET("/settlements", adminHandler.ListSettlements)
			finance.GET("/restaurants/:id/settlements", adminHandler.GetRestaurantSettlements)
			finance.GET("/drivers/:id/earnings", adminHandler.GetDriverEarnings)
			finance.GET("/analytics", adminHandler.GetPlatformAnalytics)
		}
	}

	return r
}
