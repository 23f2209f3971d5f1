// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration. Everything is loaded once at
// startup and passed explicitly into components - no package-level state.
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Auth
	JWTSecret  string
	BcryptCost int

	// Pricing
	MockNAV   decimal.Decimal // Fixed NAV used by the default oracle
	NAVAPIURL string          // Optional HTTP NAV source; empty keeps the fixed oracle

	// Payment gateway (disabled when key id is empty)
	RazorpayKeyID     string
	RazorpayKeySecret string

	// Background jobs
	RevaluationSchedule string // Cron spec for position revaluation; empty disables
}

// Load reads configuration from environment variables, with .env support
func Load() (*Config, error) {
	// Load .env file if present (ignore error - file is optional)
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:             getEnv("DATA_DIR", "./data"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Port:                getEnvInt("PORT", 5000),
		DevMode:             getEnvBool("DEV_MODE", false),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		BcryptCost:          getEnvInt("BCRYPT_COST", 10),
		NAVAPIURL:           os.Getenv("NAV_API_URL"),
		RazorpayKeyID:       os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:   os.Getenv("RAZORPAY_KEY_SECRET"),
		RevaluationSchedule: getEnv("REVALUATION_SCHEDULE", "@every 15m"),
	}

	nav, err := decimal.NewFromString(getEnv("MOCK_NAV", "45.67"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCK_NAV: %w", err)
	}
	if !nav.IsPositive() {
		return nil, fmt.Errorf("MOCK_NAV must be positive, got %s", nav)
	}
	cfg.MockNAV = nav

	// Resolve data dir to absolute to avoid surprises from the working directory
	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	if cfg.JWTSecret == "" {
		if !cfg.DevMode {
			return nil, fmt.Errorf("JWT_SECRET is required outside dev mode")
		}
		cfg.JWTSecret = "dev-only-secret"
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}

	return cfg, nil
}

// UsersDBPath returns the path of the users database
func (c *Config) UsersDBPath() string {
	return filepath.Join(c.DataDir, "users.db")
}

// LedgerDBPath returns the path of the ledger database
func (c *Config) LedgerDBPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// GatewayEnabled reports whether payment gateway credentials are configured
func (c *Config) GatewayEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
