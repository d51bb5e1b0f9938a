package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	MigrateOnStart     bool

	MissingCanPenalty     int64
	BillingConcurrency    int
	LedgerCarryFromLatest bool
	LedgerLockPaidMonths  bool

	IdempotencyTTL  time.Duration
	RateLimitDriver string
	RateLimitWindow time.Duration
	RateLimitMax    int
	BodyLimitBytes  int64

	BillLockTTL      time.Duration
	BillGenerateCron string
	QueueConcurrency int

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	ReceiptBusinessName   string
	ReceiptBusinessPhone  string
	ReceiptCurrencySymbol string

	AuditEnabled      bool
	AuditSamplingRate float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START"), false),

		MissingCanPenalty:     parseInt64(k.String("MISSING_CAN_PENALTY"), 500),
		BillingConcurrency:    int(parseInt64(k.String("BILLING_CONCURRENCY"), 8)),
		LedgerCarryFromLatest: parseBool(k.String("LEDGER_CARRY_FROM_LATEST"), false),
		LedgerLockPaidMonths:  parseBool(k.String("LEDGER_LOCK_PAID_MONTHS"), true),

		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitDriver: strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_DRIVER"), "sliding")),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    int(parseInt64(k.String("RATE_LIMIT_MAX"), 120)),
		BodyLimitBytes:  parseInt64(k.String("BODY_LIMIT_BYTES"), 1<<20),

		BillLockTTL:      parseDuration(k.String("BILL_LOCK_TTL"), "10m"),
		BillGenerateCron: valueOrDefault(k.String("BILL_GENERATE_CRON"), "0 6 1 * *"),
		QueueConcurrency: int(parseInt64(k.String("QUEUE_CONCURRENCY"), 2)),

		TwilioAccountSID: strings.TrimSpace(k.String("TWILIO_ACCOUNT_SID")),
		TwilioAuthToken:  strings.TrimSpace(k.String("TWILIO_AUTH_TOKEN")),
		TwilioFromNumber: strings.TrimSpace(k.String("TWILIO_FROM_NUMBER")),

		ReceiptBusinessName:   valueOrDefault(k.String("RECEIPT_BUSINESS_NAME"), "Kanchan Chilled Water"),
		ReceiptBusinessPhone:  strings.TrimSpace(k.String("RECEIPT_BUSINESS_PHONE")),
		ReceiptCurrencySymbol: valueOrDefault(k.String("RECEIPT_CURRENCY_SYMBOL"), "Rs."),

		AuditEnabled:      parseBool(k.String("AUDIT_ENABLED"), true),
		AuditSamplingRate: parseFloat(k.String("AUDIT_SAMPLING_RATE"), 1),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.MissingCanPenalty < 0 {
		return nil, errors.New("MISSING_CAN_PENALTY must not be negative")
	}
	if cfg.BillingConcurrency <= 0 {
		cfg.BillingConcurrency = 1
	}
	switch cfg.RateLimitDriver {
	case "sliding", "ulule", "off":
	default:
		return nil, fmt.Errorf("RATE_LIMIT_DRIVER %q is not supported", cfg.RateLimitDriver)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// TwilioEnabled reports whether SMS delivery credentials are present.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
