package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Outbox   OutboxConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	RosterTTLSecs int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// OutboxConfig tunes notification outbox processing.
type OutboxConfig struct {
	Enabled            bool
	BatchSize          int
	PollIntervalMillis int
	Workers            int
	MaxAttempts        int
	BackoffBaseSeconds int
	BackoffMaxSeconds  int
	ChannelPrefix      string
	BreakerMaxFailures int
	BreakerOpenSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-workflow"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:          os.Getenv("REDIS_ADDR"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			RosterTTLSecs: getEnvAsInt("REDIS_ROSTER_TTL_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Outbox: OutboxConfig{
			Enabled:            getEnvAsBool("OUTBOX_ENABLED", true),
			BatchSize:          getEnvAsInt("OUTBOX_BATCH_SIZE", 50),
			PollIntervalMillis: getEnvAsInt("OUTBOX_POLL_INTERVAL_MS", 500),
			Workers:            getEnvAsInt("OUTBOX_WORKERS", 2),
			MaxAttempts:        getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 5),
			BackoffBaseSeconds: getEnvAsInt("OUTBOX_BACKOFF_BASE_SECONDS", 30),
			BackoffMaxSeconds:  getEnvAsInt("OUTBOX_BACKOFF_MAX_SECONDS", 3600),
			ChannelPrefix:      getEnv("OUTBOX_CHANNEL_PREFIX", "notifications"),
			BreakerMaxFailures: getEnvAsInt("OUTBOX_BREAKER_MAX_FAILURES", 5),
			BreakerOpenSeconds: getEnvAsInt("OUTBOX_BREAKER_OPEN_SECONDS", 30),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RosterTTL returns how long the active-agent roster may be cached.
func (r RedisConfig) RosterTTL() time.Duration {
	if r.RosterTTLSecs <= 0 {
		return 0
	}
	return time.Duration(r.RosterTTLSecs) * time.Second
}

// PollInterval returns the delay between outbox batches.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMillis) * time.Millisecond
}

// BackoffBase returns the first retry delay for failed notifications.
func (o OutboxConfig) BackoffBase() time.Duration {
	return time.Duration(o.BackoffBaseSeconds) * time.Second
}

// BackoffMax caps the retry delay.
func (o OutboxConfig) BackoffMax() time.Duration {
	return time.Duration(o.BackoffMaxSeconds) * time.Second
}

// BreakerOpen returns how long the delivery breaker stays open.
func (o OutboxConfig) BreakerOpen() time.Duration {
	return time.Duration(o.BreakerOpenSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
