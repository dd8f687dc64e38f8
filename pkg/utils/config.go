package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bidding  BiddingConfig
	Payment  PaymentConfig
	Gateway  GatewayConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QueueKey string
}

type BiddingConfig struct {
	MaxBidsPerTask     int
	AutoAcceptEnabled  bool
	AutoAcceptInterval time.Duration
	AutoAcceptAfter    time.Duration
}

type PaymentConfig struct {
	ServiceFeePercent  decimal.Decimal
	DefaultCurrency    string
	MaxRetries         int
	RetryInterval      time.Duration
	PendingTimeout     time.Duration
	StaleSweepInterval time.Duration
	Workers            int
	SweepBatchSize     int
}

type GatewayConfig struct {
	TaskServiceURL    string
	ProviderURL       string
	NotificationURL   string
	Timeout           time.Duration
	RatePerSecond     float64
	RateBurst         int
	SimulatedProvider bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "task-marketplace")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_QUEUE_KEY", "marketplace:jobs")

	v.SetDefault("BID_MAX_PER_TASK", 50)
	v.SetDefault("BID_AUTO_ACCEPT_ENABLED", false)
	v.SetDefault("BID_AUTO_ACCEPT_INTERVAL", "1h")
	v.SetDefault("BID_AUTO_ACCEPT_AFTER", "72h")

	v.SetDefault("PAYMENT_SERVICE_FEE_PERCENT", "10")
	v.SetDefault("PAYMENT_DEFAULT_CURRENCY", "USD")
	v.SetDefault("PAYMENT_MAX_RETRIES", 3)
	v.SetDefault("PAYMENT_RETRY_INTERVAL", "5m")
	v.SetDefault("PAYMENT_PENDING_TIMEOUT", "30m")
	v.SetDefault("PAYMENT_STALE_SWEEP_INTERVAL", "10m")
	v.SetDefault("PAYMENT_WORKERS", 4)
	v.SetDefault("SWEEP_BATCH_SIZE", 100)

	v.SetDefault("GATEWAY_TIMEOUT", "5s")
	v.SetDefault("GATEWAY_RATE_PER_SECOND", 20)
	v.SetDefault("GATEWAY_RATE_BURST", 5)
	v.SetDefault("GATEWAY_SIMULATED_PROVIDER", false)
}

// LoadConfig reads the optional env file at path and overlays the process
// environment. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = ".env"
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v.AutomaticEnv()

	return configFrom(v)
}

func configFrom(v *viper.Viper) (*Config, error) {
	feePercent, err := decimal.NewFromString(strings.TrimSpace(v.GetString("PAYMENT_SERVICE_FEE_PERCENT")))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			QueueKey: v.GetString("REDIS_QUEUE_KEY"),
		},
		Bidding: BiddingConfig{
			MaxBidsPerTask:     v.GetInt("BID_MAX_PER_TASK"),
			AutoAcceptEnabled:  v.GetBool("BID_AUTO_ACCEPT_ENABLED"),
			AutoAcceptInterval: v.GetDuration("BID_AUTO_ACCEPT_INTERVAL"),
			AutoAcceptAfter:    v.GetDuration("BID_AUTO_ACCEPT_AFTER"),
		},
		Payment: PaymentConfig{
			ServiceFeePercent:  feePercent,
			DefaultCurrency:    v.GetString("PAYMENT_DEFAULT_CURRENCY"),
			MaxRetries:         v.GetInt("PAYMENT_MAX_RETRIES"),
			RetryInterval:      v.GetDuration("PAYMENT_RETRY_INTERVAL"),
			PendingTimeout:     v.GetDuration("PAYMENT_PENDING_TIMEOUT"),
			StaleSweepInterval: v.GetDuration("PAYMENT_STALE_SWEEP_INTERVAL"),
			Workers:            v.GetInt("PAYMENT_WORKERS"),
			SweepBatchSize:     v.GetInt("SWEEP_BATCH_SIZE"),
		},
		Gateway: GatewayConfig{
			TaskServiceURL:    v.GetString("GATEWAY_TASK_SERVICE_URL"),
			ProviderURL:       v.GetString("GATEWAY_PROVIDER_URL"),
			NotificationURL:   v.GetString("GATEWAY_NOTIFICATION_URL"),
			Timeout:           v.GetDuration("GATEWAY_TIMEOUT"),
			RatePerSecond:     v.GetFloat64("GATEWAY_RATE_PER_SECOND"),
			RateBurst:         v.GetInt("GATEWAY_RATE_BURST"),
			SimulatedProvider: v.GetBool("GATEWAY_SIMULATED_PROVIDER"),
		},
	}

	return config, nil
}
