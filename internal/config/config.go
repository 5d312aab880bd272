// Package config loads client settings from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/receivables-client/internal/tokenstore"
)

// DefaultAPIBase is used when no API base variable is set.
const DefaultAPIBase = "http://localhost:3001/api/v1"

// Config holds application configuration.
type Config struct {
	APIBase     string
	Environment string // development, staging, production
	ListenAddr  string
	ConfigDir   string // durable token location
	TokenKey    string // optional passphrase sealing the token file
	LogLevel    string
	HTTPTimeout time.Duration
}

// Load reads files (".env" when none are given, missing files are skipped),
// then the environment, and validates the result.
func Load(files ...string) (*Config, error) {
	if err := loadDotenv(files...); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
	}

	cfg := &Config{
		APIBase:     firstEnv(DefaultAPIBase, "NUXT_PUBLIC_API_BASE", "API_URL", "API_BASE_URL"),
		Environment: getEnv("ENVIRONMENT", "development"),
		ListenAddr:  getEnv("LISTEN_ADDR", ":3002"),
		ConfigDir:   getEnv("ARC_CONFIG_DIR", tokenstore.DefaultDir()),
		TokenKey:    os.Getenv("ARC_TOKEN_KEY"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPTimeout: timeout,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration for correctness.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API base %q must be an absolute URL", c.APIBase)
	}
	if c.IsProduction() && u.Scheme != "https" {
		return fmt.Errorf("API base must use https in production (got %s)", u.Scheme)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func loadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", f, err)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func firstEnv(def string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
