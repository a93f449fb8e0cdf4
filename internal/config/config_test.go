package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	envVars := []string{
		"COINDECK_API_PORT", "COINDECK_MARKET_BASE_URL", "COINDECK_INSIGHT_BASE_URL",
		"COINDECK_CACHE_BACKEND", "COINDECK_CACHE_REDIS_PASSWORD", "REDIS_ADDR",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if cfg.API.SessionTTLSec != 3600 {
		t.Errorf("API.SessionTTLSec: got %d, want 3600", cfg.API.SessionTTLSec)
	}

	// Market defaults
	if cfg.Market.BaseURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("Market.BaseURL: got %q", cfg.Market.BaseURL)
	}
	if cfg.Market.Currency != "usd" {
		t.Errorf("Market.Currency: got %q, want %q", cfg.Market.Currency, "usd")
	}
	if cfg.Market.Order != "market_cap_desc" {
		t.Errorf("Market.Order: got %q, want %q", cfg.Market.Order, "market_cap_desc")
	}
	if cfg.Market.PerPage != 100 {
		t.Errorf("Market.PerPage: got %d, want 100", cfg.Market.PerPage)
	}
	if cfg.Market.ChangeWindow != "24h" {
		t.Errorf("Market.ChangeWindow: got %q, want %q", cfg.Market.ChangeWindow, "24h")
	}
	if cfg.Market.CacheTTLSec != 300 {
		t.Errorf("Market.CacheTTLSec: got %d, want 300", cfg.Market.CacheTTLSec)
	}
	if cfg.Market.CoinCacheTTLSec != 600 {
		t.Errorf("Market.CoinCacheTTLSec: got %d, want 600", cfg.Market.CoinCacheTTLSec)
	}

	// Insight defaults
	if cfg.Insight.BaseURL != "http://localhost:8000" {
		t.Errorf("Insight.BaseURL: got %q", cfg.Insight.BaseURL)
	}
	if cfg.Insight.TimeoutSec != 30 {
		t.Errorf("Insight.TimeoutSec: got %d, want 30", cfg.Insight.TimeoutSec)
	}
	if cfg.Insight.AnswerCacheTTLSec != 1800 {
		t.Errorf("Insight.AnswerCacheTTLSec: got %d, want 1800", cfg.Insight.AnswerCacheTTLSec)
	}

	// Cache defaults
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend: got %q, want %q", cfg.Cache.Backend, "memory")
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache.RedisAddr: got %q", cfg.Cache.RedisAddr)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "console")
	}
}

// ── Env Overrides ──

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COINDECK_API_PORT", "9090")
	t.Setenv("COINDECK_MARKET_CURRENCY", "eur")
	t.Setenv("COINDECK_INSIGHT_BASE_URL", "http://insight.internal:8000")
	t.Setenv("COINDECK_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Market.Currency != "eur" {
		t.Errorf("Market.Currency: got %q, want %q", cfg.Market.Currency, "eur")
	}
	if cfg.Insight.BaseURL != "http://insight.internal:8000" {
		t.Errorf("Insight.BaseURL: got %q", cfg.Insight.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadRedisAddrForcesRedisBackend(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Cache.Backend: got %q, want %q", cfg.Cache.Backend, "redis")
	}
	if cfg.Cache.RedisAddr != "redis.internal:6379" {
		t.Errorf("Cache.RedisAddr: got %q", cfg.Cache.RedisAddr)
	}
}

func TestLoadRedisPasswordFromEnv(t *testing.T) {
	t.Setenv("COINDECK_CACHE_REDIS_PASSWORD", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.RedisPassword != "s3cret" {
		t.Errorf("Cache.RedisPassword: got %q", cfg.Cache.RedisPassword)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  host: 127.0.0.1
  port: 3001

market:
  currency: inr
  per_page: 50

cache:
  backend: redis
  redis_addr: cache.internal:6379

logging:
  level: warn
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host: got %q", cfg.API.Host)
	}
	if cfg.API.Port != 3001 {
		t.Errorf("API.Port: got %d, want 3001", cfg.API.Port)
	}
	if cfg.Market.Currency != "inr" {
		t.Errorf("Market.Currency: got %q, want %q", cfg.Market.Currency, "inr")
	}
	if cfg.Market.PerPage != 50 {
		t.Errorf("Market.PerPage: got %d, want 50", cfg.Market.PerPage)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("Cache.Backend: got %q, want %q", cfg.Cache.Backend, "redis")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}

	// Values the file does not set keep their defaults.
	if cfg.Market.Order != "market_cap_desc" {
		t.Errorf("Market.Order: got %q, want default", cfg.Market.Order)
	}
	if cfg.Insight.TimeoutSec != 30 {
		t.Errorf("Insight.TimeoutSec: got %d, want default 30", cfg.Insight.TimeoutSec)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
