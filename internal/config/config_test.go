package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MODEL_NAME", "MODEL_METADATA", "ONNXRUNTIME_LIB", "FETCH_TIMEOUT",
		"MAX_IMAGE_BYTES", "SHUTDOWN_TIMEOUT", "CACHE_ADDR", "CACHE_TTL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}
	if cfg.ModelPath != "clothing-model.onnx" {
		t.Fatalf("unexpected model path %q", cfg.ModelPath)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Fatalf("unexpected fetch timeout %s", cfg.FetchTimeout)
	}
	if cfg.CacheEnabled() {
		t.Fatal("cache should be disabled without CACHE_ADDR")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODEL_NAME", "/models/other.onnx")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("CACHE_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ModelPath != "/models/other.onnx" {
		t.Fatalf("unexpected model path %q", cfg.ModelPath)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Fatalf("unexpected fetch timeout %s", cfg.FetchTimeout)
	}
	if !cfg.CacheEnabled() || cfg.CacheTTL != time.Minute {
		t.Fatalf("unexpected cache settings: addr=%q ttl=%s", cfg.CacheAddr, cfg.CacheTTL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparsable FETCH_TIMEOUT")
	}
}

func TestValidateRejectsNonNumericPort(t *testing.T) {
	cfg := &Config{ModelPath: "m.onnx", Port: "http", FetchTimeout: time.Second, MaxImageBytes: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}
