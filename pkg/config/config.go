package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 应用全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Storage  StorageConfig  `mapstructure:"storage"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Log      LogConfig      `mapstructure:"log"`
	Order    OrderConfig    `mapstructure:"order"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug | release | test
}

// DatabaseConfig PostgreSQL 配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// JWTConfig 签名与有效期配置
type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
}

// RedisConfig Redis 配置（Token 黑名单、登录限流）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// PaymentConfig 支付网关配置
type PaymentConfig struct {
	// Provider: mock（内置审批逻辑，测试用）| gateway（外部 HTTP 网关）
	Provider string `mapstructure:"provider"`
	// GatewayURL 外部网关地址，Provider=gateway 时必填
	GatewayURL string        `mapstructure:"gateway_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// MockDeclineCents mock 模式下金额达到该值则拒绝（0 = 永不拒绝）
	MockDeclineCents int64 `mapstructure:"mock_decline_cents"`
}

// StorageConfig 对象存储配置（商品图片等）
type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // s3 | local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	CDNDomain string `mapstructure:"cdn_domain"`
	BasePath  string `mapstructure:"base_path"`
	LocalDir  string `mapstructure:"local_dir"`
}

// CORSConfig 跨域配置（React SPA）
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// TasksConfig 定时任务开关
type TasksConfig struct {
	PromotionSweepEnabled   bool   `mapstructure:"promotion_sweep_enabled"`
	PromotionSweepSpec      string `mapstructure:"promotion_sweep_spec"`
	SurplusExpiryEnabled    bool   `mapstructure:"surplus_expiry_enabled"`
	SurplusExpirySpec       string `mapstructure:"surplus_expiry_spec"`
	DeliveryReminderEnabled bool   `mapstructure:"delivery_reminder_enabled"`
	DeliveryReminderSpec    string `mapstructure:"delivery_reminder_spec"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"` // development | production
}

// OrderConfig 订单计价配置
type OrderConfig struct {
	// TaxRateBps 税率（基点，825 = 8.25%）
	TaxRateBps int64 `mapstructure:"tax_rate_bps"`
	// FreeDeliveryMultiplier 供应商小计达到起订额的 N 倍时免配送费
	FreeDeliveryMultiplier int64 `mapstructure:"free_delivery_multiplier"`
}

// ==================== 加载 ====================

// Load 加载配置：.env -> 配置文件 -> 环境变量覆盖
// configPath 为空时按默认路径查找 config.yaml
func Load(configPath string) (*Config, error) {
	// .env 是可选的，仅本地开发使用
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// 环境变量覆盖：BUILDMART_DATABASE_HOST 等
	v.SetEnvPrefix("BUILDMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时允许纯环境变量启动
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "buildmart")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "buildmart")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.secret", "buildmart-secret-key-change-in-production")
	v.SetDefault("jwt.access_token_ttl", 2*time.Hour)
	v.SetDefault("jwt.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "buildmart")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("payment.provider", "mock")
	v.SetDefault("payment.timeout", 10*time.Second)
	v.SetDefault("payment.mock_decline_cents", 0)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_path", "buildmart")
	v.SetDefault("storage.local_dir", "./uploads")

	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("tasks.promotion_sweep_enabled", true)
	v.SetDefault("tasks.promotion_sweep_spec", "0 */10 * * * *")
	v.SetDefault("tasks.surplus_expiry_enabled", true)
	v.SetDefault("tasks.surplus_expiry_spec", "0 */15 * * * *")
	v.SetDefault("tasks.delivery_reminder_enabled", true)
	v.SetDefault("tasks.delivery_reminder_spec", "0 0 * * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "development")

	v.SetDefault("order.tax_rate_bps", 825)
	v.SetDefault("order.free_delivery_multiplier", 3)
}

// DSN 拼接 PostgreSQL 连接串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
