package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shiling-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	UserJWT      JWTConfig          `mapstructure:"user_jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Queue        QueueConfig        `mapstructure:"queue"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Fulfillment  FulfillmentConfig  `mapstructure:"fulfillment"`
	Notification NotificationConfig `mapstructure:"notification"`
	Wechat       WechatConfig       `mapstructure:"wechat"`
	WechatPay    WechatPayConfig    `mapstructure:"wechat_pay"`
	Admin        AdminConfig        `mapstructure:"admin"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   string `mapstructure:"port"`
	Mode                   string `mapstructure:"mode"` // debug / release
	ReadTimeoutSeconds     int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `mapstructure:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
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
	Driver     string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN        string             `mapstructure:"dsn"`    // 数据库连接串
	Pool       DatabasePoolConfig `mapstructure:"pool"`
	LogQueries bool               `mapstructure:"log_queries"`
}

// JWTConfig JWT 校验配置（签发由账号系统负责）
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
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

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	GiftClaim RateLimitRuleConfig `mapstructure:"gift_claim"`
}

// RateLimitRuleConfig 单条限流规则
type RateLimitRuleConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// FulfillmentConfig 履约配置
type FulfillmentConfig struct {
	GiftExpireHours               int    `mapstructure:"gift_expire_hours"`
	OnceCutoffHour                int    `mapstructure:"once_cutoff_hour"`
	OnceWindowDays                int    `mapstructure:"once_window_days"`
	IntervalWindowDays            int    `mapstructure:"interval_window_days"`
	SolarTermFallbackIntervalDays int    `mapstructure:"solar_term_fallback_interval_days"`
	DeliveryNoPrefix              string `mapstructure:"delivery_no_prefix"`
	Timezone                      string `mapstructure:"timezone"`
	GiftExpirySpec                string `mapstructure:"gift_expiry_spec"`
	GiftExpiryBatchSize           int    `mapstructure:"gift_expiry_batch_size"`
}

// GiftClaimWindow 礼物可领取时长
func (c FulfillmentConfig) GiftClaimWindow() time.Duration {
	hours := c.GiftExpireHours
	if hours <= 0 {
		hours = 48
	}
	return time.Duration(hours) * time.Hour
}

// Location 业务时区，解析失败时回退到东八区
func (c FulfillmentConfig) Location() *time.Location {
	return resolveLocation(c.Timezone)
}

// NotificationConfig 订阅消息配置
type NotificationConfig struct {
	Enabled           bool                                  `mapstructure:"enabled"`
	Timezone          string                                `mapstructure:"timezone"`
	RelaySpec         string                                `mapstructure:"relay_spec"`
	RelayDelaySeconds int                                   `mapstructure:"relay_delay_seconds"`
	RelayBatchSize    int                                   `mapstructure:"relay_batch_size"`
	MaxAttempts       int                                   `mapstructure:"max_attempts"`
	Templates         map[string]NotificationTemplateConfig `mapstructure:"templates"`
}

// Location 日期参数格式化使用的时区
func (c NotificationConfig) Location() *time.Location {
	return resolveLocation(c.Timezone)
}

// NotificationTemplateConfig 场景模板配置
type NotificationTemplateConfig struct {
	TemplateID string                    `mapstructure:"template_id"`
	Page       string                    `mapstructure:"page"`
	Fields     []NotificationFieldConfig `mapstructure:"fields"`
}

// NotificationFieldConfig 模板字段映射
// Key 为模板字段名（如 thing1），Source 为业务载荷字段名，Class 为字段类型（thing/time/amount...）
type NotificationFieldConfig struct {
	Key    string `mapstructure:"key"`
	Source string `mapstructure:"source"`
	Class  string `mapstructure:"class"`
}

// WechatConfig 小程序配置
type WechatConfig struct {
	AppID            string `mapstructure:"app_id"`
	AppSecret        string `mapstructure:"app_secret"`
	APIBaseURL       string `mapstructure:"api_base_url"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MiniProgramState string `mapstructure:"miniprogram_state"` // developer / trial / formal
	Lang             string `mapstructure:"lang"`
}

// WechatPayConfig 微信支付回调验签配置
type WechatPayConfig struct {
	AppID              string `mapstructure:"app_id"`
	MerchantID         string `mapstructure:"merchant_id"`
	MerchantSerialNo   string `mapstructure:"merchant_serial_no"`
	MerchantPrivateKey string `mapstructure:"merchant_private_key"`
	APIV3Key           string `mapstructure:"api_v3_key"`
}

// AdminConfig 运营账号配置
type AdminConfig struct {
	DefaultUsername string `mapstructure:"default_username"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	return load(viper.New())
}

func load(v *viper.Viper) *Config {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("./etc")

	setDefaults(v)

	// 环境变量支持（server.port -> SERVER_PORT）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	cfg.Notification.Templates = mergeNotificationTemplates(cfg.Notification.Templates)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "shiling.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.stdout", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/shiling.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("database.log_queries", false)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "sl")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("rate_limit.gift_claim.window_seconds", 60)
	v.SetDefault("rate_limit.gift_claim.max_requests", 10)
	v.SetDefault("fulfillment.gift_expire_hours", 48)
	v.SetDefault("fulfillment.once_cutoff_hour", 16)
	v.SetDefault("fulfillment.once_window_days", 3)
	v.SetDefault("fulfillment.interval_window_days", 7)
	v.SetDefault("fulfillment.solar_term_fallback_interval_days", 90)
	v.SetDefault("fulfillment.delivery_no_prefix", "")
	v.SetDefault("fulfillment.timezone", "Asia/Shanghai")
	v.SetDefault("fulfillment.gift_expiry_spec", "0 */10 * * * *")
	v.SetDefault("fulfillment.gift_expiry_batch_size", 200)
	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.timezone", "Asia/Shanghai")
	v.SetDefault("notification.relay_spec", "30 * * * * *")
	v.SetDefault("notification.relay_delay_seconds", 60)
	v.SetDefault("notification.relay_batch_size", 100)
	v.SetDefault("notification.max_attempts", 5)
	v.SetDefault("wechat.api_base_url", "https://api.weixin.qq.com")
	v.SetDefault("wechat.timeout_seconds", 5)
	v.SetDefault("wechat.miniprogram_state", "formal")
	v.SetDefault("wechat.lang", "zh_CN")
	v.SetDefault("admin.default_username", "admin")
}

// DefaultNotificationTemplates 默认场景字段映射，模板 ID 由部署方配置
func DefaultNotificationTemplates() map[string]NotificationTemplateConfig {
	return map[string]NotificationTemplateConfig{
		"payment_success": {
			Page: "pages/order/detail",
			Fields: []NotificationFieldConfig{
				{Key: "character_string1", Source: "order_no", Class: "character_string"},
				{Key: "thing2", Source: "product_names", Class: "thing"},
				{Key: "amount3", Source: "amount", Class: "amount"},
				{Key: "time4", Source: "paid_at", Class: "time"},
			},
		},
		"gift_received": {
			Page: "pages/gift/detail",
			Fields: []NotificationFieldConfig{
				{Key: "name1", Source: "receiver_name", Class: "name"},
				{Key: "thing2", Source: "product_names", Class: "thing"},
				{Key: "time3", Source: "received_at", Class: "time"},
			},
		},
		"gift_expired": {
			Page: "pages/gift/detail",
			Fields: []NotificationFieldConfig{
				{Key: "character_string1", Source: "order_no", Class: "character_string"},
				{Key: "thing2", Source: "product_names", Class: "thing"},
				{Key: "time3", Source: "expired_at", Class: "time"},
			},
		},
		"delivery_preparing": {
			Page: "pages/delivery/detail",
			Fields: []NotificationFieldConfig{
				{Key: "character_string1", Source: "delivery_no", Class: "character_string"},
				{Key: "thing2", Source: "product_name", Class: "thing"},
				{Key: "date3", Source: "plan_start_at", Class: "date"},
				{Key: "thing4", Source: "remark", Class: "thing"},
			},
		},
		"delivery_shipped": {
			Page: "pages/delivery/detail",
			Fields: []NotificationFieldConfig{
				{Key: "character_string1", Source: "delivery_no", Class: "character_string"},
				{Key: "thing2", Source: "carrier_name", Class: "thing"},
				{Key: "character_string3", Source: "tracking_no", Class: "character_string"},
				{Key: "time4", Source: "shipped_at", Class: "time"},
			},
		},
	}
}

func mergeNotificationTemplates(configured map[string]NotificationTemplateConfig) map[string]NotificationTemplateConfig {
	merged := DefaultNotificationTemplates()
	for scene, tpl := range configured {
		scene = strings.TrimSpace(strings.ToLower(scene))
		if scene == "" {
			continue
		}
		base, ok := merged[scene]
		if !ok {
			merged[scene] = tpl
			continue
		}
		if strings.TrimSpace(tpl.TemplateID) != "" {
			base.TemplateID = strings.TrimSpace(tpl.TemplateID)
		}
		if strings.TrimSpace(tpl.Page) != "" {
			base.Page = strings.TrimSpace(tpl.Page)
		}
		if len(tpl.Fields) > 0 {
			base.Fields = tpl.Fields
		}
		merged[scene] = base
	}
	return merged
}

func resolveLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Asia/Shanghai"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}
