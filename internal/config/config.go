package config

import (
	"fmt"
	"strings"

	"github.com/padala-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Security   SecurityConfig   `mapstructure:"security"`
	Geo        GeoConfig        `mapstructure:"geo"`
	Delivery   DeliveryConfig   `mapstructure:"delivery"`
	Assignment AssignmentConfig `mapstructure:"assignment"`
	Routing    RoutingConfig    `mapstructure:"routing"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Payout     PayoutConfig     `mapstructure:"payout"`
	Settlement SettlementConfig `mapstructure:"settlement"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig 接口令牌配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LocationRateLimit RateLimitConfig `mapstructure:"location_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// GeoConfig 地理计算配置
type GeoConfig struct {
	RouteTimeoutMS int `mapstructure:"route_timeout_ms"`
}

// DeliveryConfig 配送费与时效配置
type DeliveryConfig struct {
	BaseFee               float64 `mapstructure:"base_fee"`
	IncludedKm            float64 `mapstructure:"included_km"`
	PerKmFee              float64 `mapstructure:"per_km_fee"`
	MaxDistanceKm         float64 `mapstructure:"max_distance_km"`
	BufferMinutes         int     `mapstructure:"buffer_minutes"`
	DefaultPrepTimeMinute int     `mapstructure:"default_prep_time_minutes"`
}

// AssignmentConfig 派单配置
type AssignmentConfig struct {
	MaxRadiusKm       float64 `mapstructure:"max_radius_km"`
	ScoreConcurrency  int     `mapstructure:"score_concurrency"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds"` // 无可用骑手时重新派单的间隔
	MaxAttempts       int     `mapstructure:"max_attempts"`
}

// RoutingConfig 路径规划配置
type RoutingConfig struct {
	Provider     string `mapstructure:"provider"` // osrm / google / none
	OSRMBaseURL  string `mapstructure:"osrm_base_url"`
	GoogleAPIKey string `mapstructure:"google_api_key"`
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	Provider  string          `mapstructure:"provider"` // semaphore / log
	TimeoutMS int             `mapstructure:"timeout_ms"`
	AppURL    string          `mapstructure:"app_url"`
	Semaphore SemaphoreConfig `mapstructure:"semaphore"`
}

// SemaphoreConfig Semaphore 短信配置
type SemaphoreConfig struct {
	APIKey     string `mapstructure:"api_key"`
	SenderName string `mapstructure:"sender_name"`
	BaseURL    string `mapstructure:"base_url"`
}

// PayoutConfig 打款配置
type PayoutConfig struct {
	Provider  string      `mapstructure:"provider"` // gcash / sandbox
	TimeoutMS int         `mapstructure:"timeout_ms"`
	GCash     GCashConfig `mapstructure:"gcash"`
}

// GCashConfig GCash 商户配置
type GCashConfig struct {
	APIURL       string `mapstructure:"api_url"`
	MerchantID   string `mapstructure:"merchant_id"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Currency     string `mapstructure:"currency"`
}

// SettlementConfig 结算配置
type SettlementConfig struct {
	CommissionRate       float64 `mapstructure:"commission_rate"`
	RestaurantSchedule   string  `mapstructure:"restaurant_schedule"`
	DriverSchedule       string  `mapstructure:"driver_schedule"`
	Timezone             string  `mapstructure:"timezone"`
	PayoutHour           int     `mapstructure:"payout_hour"`
	SweepIntervalSeconds int     `mapstructure:"sweep_interval_seconds"`
	BatchSize            int     `mapstructure:"batch_size"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	return LoadFile("")
}

// LoadFile 加载指定配置文件，path 为空时按默认目录查找 config.yml
func LoadFile(path string) *Config {
	if strings.TrimSpace(path) != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("../")   // 从 cmd/server 运行
		viper.AddConfigPath("./etc") // etc 文件夹
	}

	SetDefaults(viper.GetViper())

	// 环境变量支持，server.port -> SERVER_PORT
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

// Default 返回仅包含默认值的配置
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Errorf("默认配置解析失败: %w", err))
	}
	return &cfg
}

// SetDefaults 写入默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/padala.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "padala")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})
	v.SetDefault("security.location_rate_limit.window_seconds", 10)
	v.SetDefault("security.location_rate_limit.max_requests", 5)
	v.SetDefault("geo.route_timeout_ms", 3000)
	v.SetDefault("delivery.base_fee", 50)
	v.SetDefault("delivery.included_km", 3)
	v.SetDefault("delivery.per_km_fee", 10)
	v.SetDefault("delivery.max_distance_km", 15)
	v.SetDefault("delivery.buffer_minutes", 5)
	v.SetDefault("delivery.default_prep_time_minutes", 30)
	v.SetDefault("assignment.max_radius_km", 15)
	v.SetDefault("assignment.score_concurrency", 8)
	v.SetDefault("assignment.retry_delay_seconds", 30)
	v.SetDefault("assignment.max_attempts", 10)
	v.SetDefault("routing.provider", "osrm")
	v.SetDefault("routing.osrm_base_url", "https://router.project-osrm.org")
	v.SetDefault("routing.google_api_key", "")
	v.SetDefault("notify.provider", "log")
	v.SetDefault("notify.timeout_ms", 5000)
	v.SetDefault("notify.app_url", "")
	v.SetDefault("notify.semaphore.api_key", "")
	v.SetDefault("notify.semaphore.sender_name", "PADALA")
	v.SetDefault("notify.semaphore.base_url", "https://api.semaphore.co/api/v4")
	v.SetDefault("payout.provider", "sandbox")
	v.SetDefault("payout.timeout_ms", 15000)
	v.SetDefault("payout.gcash.api_url", "")
	v.SetDefault("payout.gcash.merchant_id", "")
	v.SetDefault("payout.gcash.client_id", "")
	v.SetDefault("payout.gcash.client_secret", "")
	v.SetDefault("payout.gcash.currency", "PHP")
	v.SetDefault("settlement.commission_rate", 0.18)
	v.SetDefault("settlement.restaurant_schedule", "daily")
	v.SetDefault("settlement.driver_schedule", "daily")
	v.SetDefault("settlement.timezone", "Asia/Manila")
	v.SetDefault("settlement.payout_hour", 9)
	v.SetDefault("settlement.sweep_interval_seconds", 300)
	v.SetDefault("settlement.batch_size", 200)
}
