// Package config handles configuration loading for coindeck.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Insight InsightConfig `mapstructure:"insight" yaml:"insight"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	// SessionTTLSec is how long an idle dashboard session is kept
	// before its store is discarded.
	SessionTTLSec int `mapstructure:"session_ttl_sec" yaml:"session_ttl_sec"`
}

// MarketConfig holds market-data provider settings. The query
// parameters are fixed server-side, never user-supplied.
type MarketConfig struct {
	BaseURL           string `mapstructure:"base_url"            yaml:"base_url"`
	Currency          string `mapstructure:"currency"            yaml:"currency"`
	Order             string `mapstructure:"order"               yaml:"order"`
	PerPage           int    `mapstructure:"per_page"            yaml:"per_page"`
	ChangeWindow      string `mapstructure:"change_window"       yaml:"change_window"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	CacheTTLSec       int    `mapstructure:"cache_ttl_sec"       yaml:"cache_ttl_sec"`
	CoinCacheTTLSec   int    `mapstructure:"coin_cache_ttl_sec"  yaml:"coin_cache_ttl_sec"`
	RateLimitPerSec   int    `mapstructure:"rate_limit_per_sec"  yaml:"rate_limit_per_sec"`
}

// InsightConfig holds question-answering backend settings.
type InsightConfig struct {
	BaseURL           string `mapstructure:"base_url"             yaml:"base_url"`
	TimeoutSec        int    `mapstructure:"timeout_sec"          yaml:"timeout_sec"`
	AnswerCacheTTLSec int    `mapstructure:"answer_cache_ttl_sec" yaml:"answer_cache_ttl_sec"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"        yaml:"backend"` // "memory" or "redis"
	RedisAddr     string `mapstructure:"redis_addr"     yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       yaml:"redis_db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.coindeck/config.yaml (home directory)
//  3. /etc/coindeck/config.yaml (system)
//
// Environment variables override config file values.
// Format: COINDECK_<SECTION>_<KEY>, e.g., COINDECK_MARKET_BASE_URL
func Load() (*Config, error) {
	v := viper.New()

	// A .env file is convenient in development; ignore when absent.
	_ = godotenv.Load()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".coindeck"))
	v.AddConfigPath("/etc/coindeck")

	v.SetEnvPrefix("COINDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("COINDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.session_ttl_sec", 3600)

	// Market provider defaults (CoinGecko-compatible)
	v.SetDefault("market.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.currency", "usd")
	v.SetDefault("market.order", "market_cap_desc")
	v.SetDefault("market.per_page", 100)
	v.SetDefault("market.change_window", "24h")
	v.SetDefault("market.timeout_sec", 15)
	v.SetDefault("market.cache_ttl_sec", 300)      // 5 minutes
	v.SetDefault("market.coin_cache_ttl_sec", 600) // 10 minutes
	v.SetDefault("market.rate_limit_per_sec", 1)

	// Insight backend defaults
	v.SetDefault("insight.base_url", "http://localhost:8000")
	v.SetDefault("insight.timeout_sec", 30)
	v.SetDefault("insight.answer_cache_ttl_sec", 1800) // 30 minutes

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if pass := os.Getenv("COINDECK_CACHE_REDIS_PASSWORD"); pass != "" {
		cfg.Cache.RedisPassword = pass
	}
	// REDIS_URL-style single variable, as deployed platforms inject it.
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
		cfg.Cache.Backend = "redis"
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
