// Package cache provides the time-bounded caches used by the conversion service.
package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the number of entries of a local cache.
const DefaultSize = 4096

type options struct {
	now func() time.Time
}

// Option configures a local cache.
type Option func(*options)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a size-bounded in-process cache whose entries expire a fixed duration after Set.
// It is safe for concurrent use.
type TTL[V any] struct {
	entries *lru.Cache[string, entry[V]]
	ttl     time.Duration
	now     func() time.Time
}

// NewTTL creates a cache holding at most size entries for ttl each.
func NewTTL[V any](size int, ttl time.Duration, opts ...Option) (*TTL[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	entries, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &TTL[V]{entries: entries, ttl: ttl, now: o.now}, nil
}

// Get returns the value stored under key unless it has expired. Expired entries
// are left for Set to overwrite or the LRU to evict.
func (c *TTL[V]) Get(_ context.Context, key string) (V, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the cache's ttl.
func (c *TTL[V]) Set(_ context.Context, key string, value V) {
	c.entries.Add(key, entry[V]{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Len returns the number of entries, including expired ones not yet overwritten or evicted.
func (c *TTL[V]) Len() int {
	return c.entries.Len()
}
