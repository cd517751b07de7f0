package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const redisKeyPrefix = "mma:fx:rate:"

// RedisConfig holds the connection settings of the shared rate cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  800 * time.Millisecond,
		WriteTimeout: 800 * time.Millisecond,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisRateCache shares resolved rates between service instances.
// Redis failures degrade to cache misses.
type RedisRateCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisRateCache creates a rate cache on top of an existing client.
func NewRedisRateCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisRateCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRateCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached rate for key.
func (c *RedisRateCache) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Redis rate cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return decimal.Decimal{}, false
	}
	rate, err := decimal.NewFromString(val)
	if err != nil {
		c.logger.Debug("Redis rate cache holds a non-decimal value", slog.String("key", key), slog.String("value", val))
		return decimal.Decimal{}, false
	}
	return rate, true
}

// Set stores rate under key with the cache's ttl.
func (c *RedisRateCache) Set(ctx context.Context, key string, rate decimal.Decimal) {
	if err := c.client.Set(ctx, redisKeyPrefix+key, rate.String(), c.ttl).Err(); err != nil {
		c.logger.Debug("Redis rate cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
