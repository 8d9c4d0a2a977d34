package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL string
	Port        string
	LogLevel    string
	LogFormat   string
	FrontendURL string

	RequestTimeout time.Duration

	Recovery  RecoveryConfig
	RateLimit RateLimitConfig
	SMTP      SMTPConfig
	Notify    NotifyConfig

	RedisURL      string
	TelegramToken string
}

// RecoveryConfig tunes the email recovery flow.
type RecoveryConfig struct {
	TokenTTL      time.Duration
	MinResponse   time.Duration
	SweepInterval time.Duration
}

// RateLimitConfig holds fixed-window budgets. A limit of zero disables that check.
type RateLimitConfig struct {
	Window          time.Duration
	RecoveryRequest int
	RecoveryRedeem  int
	TokenLookup     int
}

// SMTPConfig describes the outgoing mail relay. Delivery is disabled when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// NotifyConfig sizes the async notification dispatcher.
type NotifyConfig struct {
	Workers   int
	QueueSize int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var result *multierror.Error

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          getEnvOrDefault("PORT", "3000"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "text"),
		FrontendURL:   strings.TrimRight(getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"), "/"),
		RedisURL:      os.Getenv("REDIS_URL"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnvOrDefault("MAIL_FROM", "BlindList <no-reply@blindlist.local>"),
		},
	}

	cfg.RequestTimeout = getDuration(&result, "REQUEST_TIMEOUT", 15*time.Second)
	cfg.Recovery.TokenTTL = getDuration(&result, "RECOVERY_TOKEN_TTL", time.Hour)
	cfg.Recovery.MinResponse = getDuration(&result, "RECOVERY_MIN_RESPONSE", 300*time.Millisecond)
	cfg.Recovery.SweepInterval = getDuration(&result, "RECOVERY_SWEEP_INTERVAL", 10*time.Minute)
	cfg.RateLimit.Window = getDuration(&result, "RATE_LIMIT_WINDOW", 15*time.Minute)
	cfg.RateLimit.RecoveryRequest = getInt(&result, "RECOVERY_REQUEST_LIMIT", 5)
	cfg.RateLimit.RecoveryRedeem = getInt(&result, "RECOVERY_REDEEM_LIMIT", 10)
	cfg.RateLimit.TokenLookup = getInt(&result, "TOKEN_LOOKUP_LIMIT", 300)
	cfg.SMTP.Port = getInt(&result, "SMTP_PORT", 587)
	cfg.Notify.Workers = getInt(&result, "NOTIFY_WORKERS", 2)
	cfg.Notify.QueueSize = getInt(&result, "NOTIFY_QUEUE_SIZE", 64)

	if err := cfg.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks required values and ranges. Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.DatabaseURL == "" {
		result = multierror.Append(result, errors.New("DATABASE_URL environment variable is required"))
	}
	if u, err := url.Parse(c.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("FRONTEND_URL must be an absolute URL, got %q", c.FrontendURL))
	}
	if c.Recovery.TokenTTL <= 0 {
		result = multierror.Append(result, errors.New("RECOVERY_TOKEN_TTL must be positive"))
	}
	if c.Recovery.MinResponse < 0 {
		result = multierror.Append(result, errors.New("RECOVERY_MIN_RESPONSE must not be negative"))
	}
	if c.Recovery.SweepInterval <= 0 {
		result = multierror.Append(result, errors.New("RECOVERY_SWEEP_INTERVAL must be positive"))
	}
	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		result = multierror.Append(result, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.RecoveryRequest < 0 || c.RateLimit.RecoveryRedeem < 0 || c.RateLimit.TokenLookup < 0 {
		result = multierror.Append(result, errors.New("rate limits must not be negative"))
	}
	if c.Notify.Workers <= 0 {
		result = multierror.Append(result, errors.New("NOTIFY_WORKERS must be positive"))
	}
	if c.Notify.QueueSize <= 0 {
		result = multierror.Append(result, errors.New("NOTIFY_QUEUE_SIZE must be positive"))
	}
	if c.SMTP.Enabled() && (c.SMTP.Port <= 0 || c.SMTP.Port > 65535) {
		result = multierror.Append(result, fmt.Errorf("SMTP_PORT out of range: %d", c.SMTP.Port))
	}

	return result.ErrorOrNil()
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(errs **multierror.Error, key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func getInt(errs **multierror.Error, key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}
