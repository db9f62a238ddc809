package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	ModelPath       string
	MetadataPath    string
	RuntimeLibPath  string
	FetchTimeout    time.Duration
	MaxImageBytes   int64
	ShutdownTimeout time.Duration
	CacheAddr       string
	CacheTTL        time.Duration
	LogLevel        string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		ModelPath:      getEnv("MODEL_NAME", "clothing-model.onnx"),
		MetadataPath:   os.Getenv("MODEL_METADATA"),
		RuntimeLibPath: os.Getenv("ONNXRUNTIME_LIB"),
		CacheAddr:      os.Getenv("CACHE_ADDR"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxImageBytes, err = getInt64("MAX_IMAGE_BYTES", 10<<20); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate verifies the config is usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.ModelPath == "" {
		return errors.New("MODEL_NAME must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric (got %q)", c.Port)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be > 0 (got %s)", c.FetchTimeout)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be > 0 (got %d)", c.MaxImageBytes)
	}
	if c.CacheAddr != "" && c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0 when CACHE_ADDR is set (got %s)", c.CacheTTL)
	}
	return nil
}

// CacheEnabled reports whether predictions should be cached in redis.
func (c *Config) CacheEnabled() bool {
	return c.CacheAddr != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
