// Package config loads the server configuration from .env files, an optional
// YAML file and the environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration
type Config struct {
	Port         string          `yaml:"port"`
	GinMode      string          `yaml:"gin_mode"`
	DevMode      bool            `yaml:"dev_mode"`
	LogLevel     string          `yaml:"log_level"`
	DataDir      string          `yaml:"data_dir"`
	DatabasePath string          `yaml:"database_path"`
	SiteOrigin   string          `yaml:"site_origin"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	Cache        CacheConfig     `yaml:"cache"`
	NotFound     NotFoundConfig  `yaml:"not_found"`
}

// RateLimitConfig controls the per-IP token bucket
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst float64 `yaml:"burst"`
}

// CacheConfig controls the report cache
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// NotFoundConfig controls the 404 log
type NotFoundConfig struct {
	Retention time.Duration `yaml:"retention"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:     "8082",
		GinMode:  gin.ReleaseMode,
		LogLevel: "info",
		DataDir:  "data",
		RateLimit: RateLimitConfig{
			RPS:   2,
			Burst: 5,
		},
		Cache: CacheConfig{
			TTL:        30 * time.Minute,
			MaxEntries: 1000,
		},
		NotFound: NotFoundConfig{
			Retention: 30 * 24 * time.Hour,
		},
	}
}

// loadEnv loads .env.development for local development, falling back to .env.
// Missing files are not an error.
func loadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		_ = godotenv.Load()
	}
}

// Load builds the configuration: defaults, then CONFIG_FILE if set, then
// environment variables.
func Load() (Config, error) {
	loadEnv()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// mergeFile overlays the YAML file at path on c. Keys absent from the file
// keep their current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.GinMode = getEnvOrDefault("GIN_MODE", c.GinMode)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.DataDir = getEnvOrDefault("DATA_DIR", c.DataDir)
	c.DatabasePath = getEnvOrDefault("DB_PATH", c.DatabasePath)
	c.SiteOrigin = getEnvOrDefault("SITE_ORIGIN", c.SiteOrigin)

	var err error
	if c.DevMode, err = envBool("DEV_MODE", c.DevMode); err != nil {
		return err
	}
	if c.RateLimit.RPS, err = envFloat("RATE_LIMIT_RPS", c.RateLimit.RPS); err != nil {
		return err
	}
	if c.RateLimit.Burst, err = envFloat("RATE_LIMIT_BURST", c.RateLimit.Burst); err != nil {
		return err
	}
	if c.Cache.TTL, err = envDuration("CACHE_TTL", c.Cache.TTL); err != nil {
		return err
	}
	if c.Cache.MaxEntries, err = envInt("CACHE_MAX_ENTRIES", c.Cache.MaxEntries); err != nil {
		return err
	}
	if c.NotFound.Retention, err = envDuration("NOT_FOUND_RETENTION", c.NotFound.Retention); err != nil {
		return err
	}
	return nil
}

// applyDefaults fills values that depend on other settings
func (c *Config) applyDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, "contentscore.db")
	}
	if c.GinMode == "" {
		c.GinMode = gin.ReleaseMode
	}
}

// StatisticsPath is where usage statistics are persisted
func (c Config) StatisticsPath() string {
	return filepath.Join(c.DataDir, "statistics.json")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
