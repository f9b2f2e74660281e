package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	Addr               string
	Environment        string
	FrontendDir        string
	JWTSecret          string
	ClientTokenTTL     time.Duration
	StorageBackend     string
	SQLitePath         string
	RedisURL           string
	DatabaseURL        string
	StorageKeyPrefix   string
	StorageTimeout     time.Duration
	SessionEncryption  string
	RunMigrations      bool
	LoginLatency       time.Duration
	OperationTimeout   time.Duration
	AccountsFile       string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	TrustProxy         bool
	MetricsEnabled     bool
	LogLevel           string
	SessionIdleTTL     time.Duration
	SessionSweepEvery  time.Duration
	NotificationBuffer int
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		FrontendDir:        getEnv("FRONTEND_DIR", "frontend/dist"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		ClientTokenTTL:     getEnvDuration("CLIENT_TOKEN_TTL", 30*24*time.Hour),
		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", StorageSQLite)),
		SQLitePath:         getEnv("SQLITE_PATH", "data/aurahr.db"),
		RedisURL:           getEnv("REDIS_URL", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		StorageKeyPrefix:   getEnv("STORAGE_KEY_PREFIX", "aurahr:"),
		StorageTimeout:     getEnvDuration("STORAGE_TIMEOUT", 3*time.Second),
		SessionEncryption:  getEnv("SESSION_ENCRYPTION_KEY", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		LoginLatency:       getEnvDuration("LOGIN_LATENCY", time.Second),
		OperationTimeout:   getEnvDuration("OPERATION_TIMEOUT", 10*time.Second),
		AccountsFile:       getEnv("ACCOUNTS_FILE", ""),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustProxy:         getEnvBool("TRUST_PROXY", false),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SessionIdleTTL:     getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepEvery:  getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		NotificationBuffer: getEnvInt("NOTIFICATION_BUFFER", 20),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// SlogLevel maps LOG_LEVEL onto slog; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case StorageRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND %q is not supported", c.StorageBackend)
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.StorageBackend == StorageMemory {
			return fmt.Errorf("STORAGE_BACKEND memory is not durable and cannot be used in production")
		}
	}
	if c.ClientTokenTTL <= 0 {
		return fmt.Errorf("CLIENT_TOKEN_TTL must be positive")
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive")
	}
	if c.LoginLatency < 0 {
		return fmt.Errorf("LOGIN_LATENCY must not be negative")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.SessionIdleTTL <= 0 || c.SessionSweepEvery <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL and SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.NotificationBuffer <= 0 {
		return fmt.Errorf("NOTIFICATION_BUFFER must be positive")
	}
	return nil
}
