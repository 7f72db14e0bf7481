package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/portco-news/internal/logger"
)

// ErrMiss is returned when no live entry exists for a source.
var ErrMiss = errors.New("cache: entry not found")

// Store persists opaque values with a TTL.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	DeletePrefix(prefix string) error
	Close() error
}

// Cache keys fetch results by source identity and time bucket. An entry lives at most one TTL:
// it expires with the store TTL or when the bucket rolls over, whichever comes first.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   logger.Logger
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the clock used for bucketing.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Cache) { c.log = logger.Ensure(log) }
}

// New builds a Cache over store.
func New(store Store, ttl time.Duration, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	c := &Cache{store: store, ttl: ttl, now: time.Now, log: logger.NopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Key returns the storage key for source in the current time bucket.
func (c *Cache) Key(source string) string {
	bucket := c.now().Truncate(c.ttl).Unix()
	return keyPrefix(source) + strconv.FormatInt(bucket, 10)
}

// Get decodes the live entry for source into dest.
func (c *Cache) Get(source string, dest any) error {
	key := c.Key(source)
	raw, ok, err := c.store.Get(key)
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if !ok {
		c.log.DebugObj("cache miss", "cache_miss", map[string]any{"key": key})
		return ErrMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	c.log.DebugObj("cache hit", "cache_hit", map[string]any{"key": key})
	return nil
}

// Set stores value for source in the current bucket.
func (c *Cache) Set(source string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	key := c.Key(source)
	if err := c.store.Set(key, raw, c.ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops every bucket held for source.
func (c *Cache) Invalidate(source string) error {
	if err := c.store.DeletePrefix(keyPrefix(source)); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", source, err)
	}
	c.log.InfoObj("cache invalidated", "cache_invalidate", map[string]any{"source": source})
	return nil
}

// Close releases the underlying store.
func (c *Cache) Close() error { return c.store.Close() }

func keyPrefix(source string) string {
	return strings.TrimSpace(source) + ":"
}
