package config_test

import (
	"testing"
	"time"

	"github.com/iho/walletrecon/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.BaseCurrency != "PHP" {
		t.Fatalf("expected default base currency PHP, got %s", cfg.BaseCurrency)
	}

	if cfg.RateFetchTimeout != 5*time.Second {
		t.Fatalf("expected 5s rate fetch timeout, got %s", cfg.RateFetchTimeout)
	}

	if !cfg.RateStaticFallback {
		t.Fatalf("expected static rate fallback enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BASE_CURRENCY", "USD")
	t.Setenv("RATE_CACHE_TTL", "15m")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.BaseCurrency != "USD" || cfg.RateCacheTTL != 15*time.Minute || cfg.RetryMaxAttempts != 5 {
		t.Fatalf("expected rate overrides, got %+v", cfg)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("RATE_FETCH_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
