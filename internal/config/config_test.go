package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"POSTGRES_DSN", "NATS_URL", "REDIS_DB", "APP_HOST", "APP_PORT", "BREAKER_FAILURE_RATIO",
		"HTTP_REQUEST_TIMEOUT_SECONDS", "AUTH_ACCESS_TOKEN_TTL_MINUTES",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Postgres.DSN != "" {
		t.Errorf("expected empty DSN, got %q", cfg.Postgres.DSN)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected NATS forwarding disabled, got %q", cfg.NATS.URL)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Errorf("unexpected addr %q", cfg.App.Addr())
	}
	if cfg.App.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.App.RequestTimeout())
	}
	if cfg.Auth.AccessTokenTTL() != time.Hour {
		t.Errorf("AccessTokenTTL = %v", cfg.Auth.AccessTokenTTL())
	}
	if cfg.Breaker.FailureRatio != 0.6 {
		t.Errorf("FailureRatio = %v", cfg.Breaker.FailureRatio)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_MAX_CONNS", "25")
	t.Setenv("BREAKER_TIMEOUT_SECONDS", "5")
	t.Setenv("BREAKER_FAILURE_RATIO", "0.25")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Errorf("Port = %q", cfg.App.Port)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("MaxConns = %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout() != 5*time.Second {
		t.Errorf("breaker timeout = %v", cfg.Breaker.Timeout())
	}
	if cfg.Breaker.FailureRatio != 0.25 {
		t.Errorf("FailureRatio = %v", cfg.Breaker.FailureRatio)
	}
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("NATS URL = %q", cfg.NATS.URL)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Redis DB = %d", cfg.Redis.DB)
	}
}

func TestLoadFallsBackOnBadNumbers(t *testing.T) {
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "soon")
	t.Setenv("BREAKER_FAILURE_RATIO", "most")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.RequestTimeoutSeconds != 30 {
		t.Errorf("RequestTimeoutSeconds = %d", cfg.App.RequestTimeoutSeconds)
	}
	if cfg.Breaker.FailureRatio != 0.6 {
		t.Errorf("FailureRatio = %v", cfg.Breaker.FailureRatio)
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric REDIS_DB")
	}
}
