package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	JWTSecret string

	// Forecast defaults
	DefaultHorizonDays int
	LookbackDays       int
	DefaultDailySpend  decimal.Decimal
	SafetyThreshold    decimal.Decimal

	// Scheduler
	RegenerateSchedule string
	SnapshotSchedule   string
	SnapshotWorkers    int

	// Notifications
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SenderEmail    string
	NotifyWarnings bool
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBConn:             getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=bank sslmode=disable"),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		RegenerateSchedule: getEnv("SCHEDULE_REGENERATE", "0 * * * *"),
		SnapshotSchedule:   getEnv("SCHEDULE_SNAPSHOTS", "30 2 * * *"),
		SMTPHost:           getEnv("SMTP_HOST", "localhost"),
		SMTPPort:           getEnv("SMTP_PORT", "25"),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SenderEmail:        getEnv("SENDER_EMAIL", "forecast@bank.local"),
	}

	var err error
	if cfg.DefaultHorizonDays, err = getEnvInt("FORECAST_DEFAULT_HORIZON", 30); err != nil {
		return nil, err
	}
	if cfg.LookbackDays, err = getEnvInt("FORECAST_LOOKBACK_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.SnapshotWorkers, err = getEnvInt("SNAPSHOT_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.DefaultDailySpend, err = getEnvDecimal("FORECAST_DEFAULT_DAILY_SPEND", "100.00"); err != nil {
		return nil, err
	}
	if cfg.SafetyThreshold, err = getEnvDecimal("FORECAST_SAFETY_THRESHOLD", "0"); err != nil {
		return nil, err
	}
	if cfg.NotifyWarnings, err = strconv.ParseBool(getEnv("NOTIFY_WARNINGS", "true")); err != nil {
		return nil, fmt.Errorf("NOTIFY_WARNINGS must be a boolean: %w", err)
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.LookbackDays < 1 {
		return nil, fmt.Errorf("FORECAST_LOOKBACK_DAYS must be positive")
	}
	if cfg.SnapshotWorkers < 1 {
		return nil, fmt.Errorf("SNAPSHOT_WORKERS must be positive")
	}
	if cfg.DefaultDailySpend.IsNegative() {
		return nil, fmt.Errorf("FORECAST_DEFAULT_DAILY_SPEND must not be negative")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDecimal(key, defaultVal string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, defaultVal))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return d, nil
}
