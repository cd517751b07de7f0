package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Rate store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Rate cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

const (
	defaultSyncSchedule  = "CRON_TZ=UTC 0 3 * * *"
	defaultRetryBase     = 2 * time.Second
	defaultRetryAttempts = 3
	defaultGapWindowDays = 90
	defaultFeedTimeout   = 30 * time.Second
	defaultCacheTTL      = time.Hour
	defaultCacheSize     = 4096
	defaultRateLimit     = "100-M"
	defaultJWTSecret     = "a-very-secret-key-should-be-longer-and-random"
)

// FeedConfig configures the upstream rate feed client.
type FeedConfig struct {
	RecentURL     string
	HistoricalURL string
	HTTPTimeout   time.Duration
}

// SyncConfig configures the background rate sync.
type SyncConfig struct {
	Enabled       bool
	Schedule      string
	RetryBase     time.Duration
	RetryAttempts int
	GapWindowDays int
}

// CacheConfig configures the rate cache.
type CacheConfig struct {
	Driver        string
	TTL           time.Duration
	Size          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	LogLevel           slog.Level
	RateStoreDriver    string
	MigrationsPath     string
	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimit          string

	Feed  FeedConfig
	Sync  SyncConfig
	Cache CacheConfig
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT", defaultRateLimit)
	v.SetDefault("FEED_RECENT_URL", "")
	v.SetDefault("FEED_HISTORICAL_URL", "")
	v.SetDefault("FEED_HTTP_TIMEOUT", defaultFeedTimeout.String())
	v.SetDefault("SYNC_ENABLED", true)
	v.SetDefault("SYNC_SCHEDULE", defaultSyncSchedule)
	v.SetDefault("SYNC_RETRY_BASE", defaultRetryBase.String())
	v.SetDefault("SYNC_RETRY_ATTEMPTS", defaultRetryAttempts)
	v.SetDefault("SYNC_GAP_WINDOW_DAYS", defaultGapWindowDays)
	v.SetDefault("RATE_CACHE_DRIVER", CacheDriverMemory)
	v.SetDefault("RATE_CACHE_TTL", defaultCacheTTL.String())
	v.SetDefault("RATE_CACHE_SIZE", defaultCacheSize)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	// Environment variables override the defaults (and whatever godotenv loaded).
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:        v.GetString("PGSQL_URL"),
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      v.GetBool("ENABLE_DB_CHECK"),
		LogLevel:           parseLogLevel(v.GetString("LOG_LEVEL")),
		RateStoreDriver:    strings.ToLower(strings.TrimSpace(v.GetString("RATE_STORE_DRIVER"))),
		MigrationsPath:     v.GetString("MIGRATIONS_PATH"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimit:          v.GetString("RATE_LIMIT"),
		Feed: FeedConfig{
			RecentURL:     v.GetString("FEED_RECENT_URL"),
			HistoricalURL: v.GetString("FEED_HISTORICAL_URL"),
			HTTPTimeout:   durationOrDefault(v, "FEED_HTTP_TIMEOUT", defaultFeedTimeout),
		},
		Sync: SyncConfig{
			Enabled:       v.GetBool("SYNC_ENABLED"),
			Schedule:      strings.TrimSpace(v.GetString("SYNC_SCHEDULE")),
			RetryBase:     durationOrDefault(v, "SYNC_RETRY_BASE", defaultRetryBase),
			RetryAttempts: v.GetInt("SYNC_RETRY_ATTEMPTS"),
			GapWindowDays: v.GetInt("SYNC_GAP_WINDOW_DAYS"),
		},
		Cache: CacheConfig{
			Driver:        strings.ToLower(strings.TrimSpace(v.GetString("RATE_CACHE_DRIVER"))),
			TTL:           durationOrDefault(v, "RATE_CACHE_TTL", defaultCacheTTL),
			Size:          v.GetInt("RATE_CACHE_SIZE"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT not set, using default", slog.String("port", cfg.Port))
	}
	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		slog.Warn("JWT_SECRET not set, using default insecure key")
	}
	if cfg.RateLimit == "" {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.Sync.RetryAttempts < 1 {
		slog.Warn("Invalid SYNC_RETRY_ATTEMPTS, using default", slog.Int("value", cfg.Sync.RetryAttempts), slog.Int("default", defaultRetryAttempts))
		cfg.Sync.RetryAttempts = defaultRetryAttempts
	}
	if cfg.Sync.GapWindowDays < 1 {
		slog.Warn("Invalid SYNC_GAP_WINDOW_DAYS, using default", slog.Int("value", cfg.Sync.GapWindowDays), slog.Int("default", defaultGapWindowDays))
		cfg.Sync.GapWindowDays = defaultGapWindowDays
	}
	if cfg.Cache.Size <= 0 {
		cfg.Cache.Size = defaultCacheSize
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RateStoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("PGSQL_URL is required when RATE_STORE_DRIVER is %q", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported RATE_STORE_DRIVER %q", c.RateStoreDriver)
	}

	switch c.Cache.Driver {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RATE_CACHE_DRIVER is %q", CacheDriverRedis)
		}
	default:
		return fmt.Errorf("unsupported RATE_CACHE_DRIVER %q", c.Cache.Driver)
	}

	if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
		return fmt.Errorf("invalid SYNC_SCHEDULE %q: %w", c.Sync.Schedule, err)
	}
	return nil
}

func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		if raw != "" {
			slog.Warn("Invalid duration, using default", slog.String("key", key), slog.String("value", raw), slog.Duration("default", def))
		}
		return def
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		slog.Warn("Invalid LOG_LEVEL, using info", slog.String("value", s))
		return slog.LevelInfo
	}
	return level
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
