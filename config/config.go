package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Auth     AuthConfig     `yaml:"auth"`
	Stripe   StripeConfig   `yaml:"stripe"`
	Payment  PaymentConfig  `yaml:"payment"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL           string `yaml:"url"`
	ActivityQueue string `yaml:"activity_queue"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type StripeConfig struct {
	APIKey        string `yaml:"api_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type PaymentConfig struct {
	Currency                string `yaml:"currency"`
	BreakerFailureThreshold uint32 `yaml:"breaker_failure_threshold"`
	BreakerOpenSeconds      int    `yaml:"breaker_open_seconds"`
	BreakerHalfOpenRequests uint32 `yaml:"breaker_half_open_requests"`
}

type BookingConfig struct {
	LockTTLSeconds       int              `yaml:"lock_ttl_seconds"`
	DestinationsCacheTTL int              `yaml:"destinations_cache_ttl_seconds"`
	Upgrades             map[string]int64 `yaml:"upgrades"`
}

type WorkerConfig struct {
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes"`
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

func (b BookingConfig) CacheTTL() time.Duration {
	return time.Duration(b.DestinationsCacheTTL) * time.Second
}

// UpgradeCatalog returns the configured upgrade prices.
func (b BookingConfig) UpgradeCatalog() domain.UpgradeCatalog {
	catalog := make(domain.UpgradeCatalog, len(b.Upgrades))
	for id, price := range b.Upgrades {
		catalog[domain.Upgrade(id)] = price
	}
	return catalog
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "" || c.App.Env == "development"
}

// LogLevel maps app.log_level onto slog levels; unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfig reads the YAML file at path, then lets a .env file and the
// process environment override individual values.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.App.Env, "APP_ENV")
	setString(&c.App.LogLevel, "LOG_LEVEL")
	setString(&c.HTTP.Address, "HTTP_ADDRESS")
	setString(&c.GRPC.Address, "GRPC_ADDRESS")
	setString(&c.Database.Host, "DATABASE_HOST")
	setInt(&c.Database.Port, "DATABASE_PORT")
	setString(&c.Database.User, "DATABASE_USER")
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.Database.Name, "DATABASE_NAME")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Stripe.APIKey, "STRIPE_API_KEY")
	setString(&c.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.ActivityQueue == "" {
		c.RabbitMQ.ActivityQueue = "booking.activity"
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "usd"
	}
	if c.Payment.BreakerFailureThreshold == 0 {
		c.Payment.BreakerFailureThreshold = 5
	}
	if c.Payment.BreakerOpenSeconds == 0 {
		c.Payment.BreakerOpenSeconds = 30
	}
	if c.Payment.BreakerHalfOpenRequests == 0 {
		c.Payment.BreakerHalfOpenRequests = 1
	}
	if c.Booking.LockTTLSeconds == 0 {
		c.Booking.LockTTLSeconds = 10
	}
	if c.Booking.DestinationsCacheTTL == 0 {
		c.Booking.DestinationsCacheTTL = 60
	}
	if len(c.Booking.Upgrades) == 0 {
		c.Booking.Upgrades = make(map[string]int64)
		for id, price := range domain.DefaultUpgradeCatalog() {
			c.Booking.Upgrades[string(id)] = price
		}
	}
	if c.Worker.CompletionSweepMinutes == 0 {
		c.Worker.CompletionSweepMinutes = 60
	}
}

func (c *Config) Validate() error {
	var errs []error
	for id, price := range c.Booking.Upgrades {
		if price < 0 {
			errs = append(errs, fmt.Errorf("upgrade %q has negative price %d", id, price))
		}
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("auth.jwt_secret is required outside development"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
