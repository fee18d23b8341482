package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Booking   BookingConfig   `yaml:"booking"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Email     EmailConfig     `yaml:"email"`
	Logger    LoggerConfig    `yaml:"logger"`
	Worker    WorkerConfig    `yaml:"worker"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Admin     AdminConfig     `yaml:"admin"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Name           string `yaml:"name"`
	SSLMode        string `yaml:"ssl_mode"`
	MigrationsPath string `yaml:"migrations_path"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL is the postgres:// form of DSN, used by golang-migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	TaxRate                 string `yaml:"tax_rate"`
	Currency                string `yaml:"currency"`
	FeaturedCacheTTLSeconds int    `yaml:"featured_cache_ttl_seconds"`
	PopularCacheTTLSeconds  int    `yaml:"popular_cache_ttl_seconds"`
	PendingHoldMinutes      int    `yaml:"pending_hold_minutes"`
	SideEffectTimeoutSecs   int    `yaml:"side_effect_timeout_seconds"`
}

func (b BookingConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(b.TaxRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", b.TaxRate, err)
	}
	return rate, nil
}

func (b BookingConfig) FeaturedCacheTTL() time.Duration {
	return time.Duration(b.FeaturedCacheTTLSeconds) * time.Second
}

func (b BookingConfig) PopularCacheTTL() time.Duration {
	return time.Duration(b.PopularCacheTTLSeconds) * time.Second
}

func (b BookingConfig) PendingHold() time.Duration {
	return time.Duration(b.PendingHoldMinutes) * time.Minute
}

func (b BookingConfig) SideEffectTimeout() time.Duration {
	return time.Duration(b.SideEffectTimeoutSecs) * time.Second
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	IsTestMode    bool   `yaml:"is_test_mode"`
}

type EmailConfig struct {
	// Delivery is "smtp" (send inline) or "queue" (publish to kafka, sent by the worker).
	Delivery string `yaml:"delivery"`
	From     string `yaml:"from"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_password"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type WorkerConfig struct {
	RefundRetrySchedule string `yaml:"refund_retry_schedule"`
	RefundBatchSize     int    `yaml:"refund_batch_size"`
	ExpirationSchedule  string `yaml:"expiration_schedule"`
	// EmailSendAttempts bounds SMTP attempts per queued email before the consumer gives up.
	EmailSendAttempts    int `yaml:"email_send_attempts"`
	EmailRetryIntervalMs int `yaml:"email_retry_interval_ms"`
}

func (w WorkerConfig) EmailRetryInterval() time.Duration {
	return time.Duration(w.EmailRetryIntervalMs) * time.Millisecond
}

type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	WindowSeconds  int  `yaml:"window_seconds"`
	MaxRequests    int  `yaml:"max_requests"`
	BookingMaxReqs int  `yaml:"booking_max_requests"`
}

type AdminConfig struct {
	APIKey string `yaml:"api_key"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.SwaggerDir == "" {
		c.HTTP.SwaggerDir = "docs"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "travelagent-worker"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	if c.Booking.TaxRate == "" {
		c.Booking.TaxRate = "0.15"
	}
	if c.Booking.Currency == "" {
		c.Booking.Currency = "usd"
	}
	if c.Booking.FeaturedCacheTTLSeconds == 0 {
		c.Booking.FeaturedCacheTTLSeconds = 3600
	}
	if c.Booking.PopularCacheTTLSeconds == 0 {
		c.Booking.PopularCacheTTLSeconds = 600
	}
	if c.Booking.PendingHoldMinutes == 0 {
		c.Booking.PendingHoldMinutes = 24 * 60
	}
	if c.Booking.SideEffectTimeoutSecs == 0 {
		c.Booking.SideEffectTimeoutSecs = 15
	}
	if c.Email.Delivery == "" {
		c.Email.Delivery = "smtp"
	}
	if c.Email.From == "" {
		c.Email.From = "bookings@travelagent.com"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Worker.RefundRetrySchedule == "" {
		c.Worker.RefundRetrySchedule = "@every 5m"
	}
	if c.Worker.RefundBatchSize == 0 {
		c.Worker.RefundBatchSize = 50
	}
	if c.Worker.ExpirationSchedule == "" {
		c.Worker.ExpirationSchedule = "@every 15m"
	}
	if c.Worker.EmailSendAttempts == 0 {
		c.Worker.EmailSendAttempts = 3
	}
	if c.Worker.EmailRetryIntervalMs == 0 {
		c.Worker.EmailRetryIntervalMs = 500
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = 120
	}
	if c.RateLimit.BookingMaxReqs == 0 {
		c.RateLimit.BookingMaxReqs = 10
	}
}

func (c *Config) Validate() error {
	var errs []error

	rate, err := c.Booking.TaxRateDecimal()
	if err != nil {
		errs = append(errs, err)
	} else if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("tax rate must be within [0,1], got %s", rate))
	}

	switch c.Email.Delivery {
	case "smtp":
	case "queue":
		if len(c.Kafka.Brokers) == 0 || c.Kafka.NotificationsTopic == "" {
			errs = append(errs, errors.New("email delivery \"queue\" requires kafka brokers and notifications_topic"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown email delivery %q", c.Email.Delivery))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis enabled but addr is empty"))
	}

	return errors.Join(errs...)
}
