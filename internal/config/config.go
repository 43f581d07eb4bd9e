package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"auditpro/internal/domain"
)

// ErrNoDatabase is returned alongside a usable Config when DATABASE_URL is
// unset; the caller falls back to the in-memory store.
var ErrNoDatabase = errors.New("DATABASE_URL not set")

type Config struct {
	Env          string
	ListenAddr   string
	DatabaseURL  string
	LogLevel     string
	AuditWorkers int
	PollInterval time.Duration
	AuditTimeout time.Duration

	// base assumption overrides; nil keeps the engine default
	AdminRate        *float64
	WorkdaysPerMonth *float64
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads the environment, seeded from ./.env when present. Variables
// already set in the environment win over the file.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Config{
		Env:              getenv("APP_ENV", "development"),
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		AuditWorkers:     getenvInt("AUDIT_WORKERS", 2),
		PollInterval:     getenvDuration("AUDIT_POLL_INTERVAL", 500*time.Millisecond),
		AuditTimeout:     getenvDuration("AUDIT_TIMEOUT", 30*time.Second),
		AdminRate:        getenvFloat("ROI_ADMIN_RATE"),
		WorkdaysPerMonth: getenvFloat("ROI_WORKDAYS_PER_MONTH"),
	}
	if cfg.DatabaseURL == "" {
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}

// Assumptions returns the configured overrides of the engine defaults.
func (c Config) Assumptions() *domain.AssumptionOverrides {
	return &domain.AssumptionOverrides{
		AdminRate:        c.AdminRate,
		WorkdaysPerMonth: c.WorkdaysPerMonth,
	}
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(v); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getenvFloat(key string) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return nil
	}
	return &f
}
