package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("LOGIN_LATENCY", "")
	t.Setenv("TRUST_PROXY", "")
	cfg := fromEnv()

	if cfg.StorageBackend != StorageSQLite {
		t.Fatalf("expected sqlite default, got %q", cfg.StorageBackend)
	}
	if cfg.LoginLatency != time.Second {
		t.Fatalf("expected 1s login latency, got %v", cfg.LoginLatency)
	}
	if cfg.TrustProxy {
		t.Fatal("forwarded headers must not be trusted by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOGIN_LATENCY", "0s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TRUST_PROXY", "true")
	cfg := fromEnv()

	if cfg.StorageBackend != StorageRedis || cfg.LoginLatency != 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("invalid int should fall back, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.MetricsEnabled {
		t.Fatal("expected metrics disabled")
	}
	if !cfg.TrustProxy {
		t.Fatal("expected TRUST_PROXY to be honoured")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := fromEnv()
		cfg.StorageBackend = StorageMemory
		cfg.Environment = "development"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "etcd" }, wantErr: "not supported"},
		{name: "redis without url", mutate: func(c *Config) { c.StorageBackend = StorageRedis; c.RedisURL = "" }, wantErr: "REDIS_URL"},
		{name: "postgres without url", mutate: func(c *Config) { c.StorageBackend = StoragePostgres; c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "production secret", mutate: func(c *Config) { c.Environment = "production"; c.StorageBackend = StorageSQLite; c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "production memory", mutate: func(c *Config) { c.Environment = "production"; c.JWTSecret = "s3cret" }, wantErr: "not durable"},
		{name: "body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }, wantErr: "MAX_BODY_BYTES"},
		{name: "rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: "RATE_LIMIT_PER_MINUTE"},
		{name: "negative latency", mutate: func(c *Config) { c.LoginLatency = -time.Second }, wantErr: "LOGIN_LATENCY"},
		{name: "idle ttl", mutate: func(c *Config) { c.SessionIdleTTL = 0 }, wantErr: "SESSION_IDLE_TTL"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	if lvl := (Config{LogLevel: "debug"}).SlogLevel(); lvl != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", lvl)
	}
	if lvl := (Config{LogLevel: "loud"}).SlogLevel(); lvl != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", lvl)
	}
}
