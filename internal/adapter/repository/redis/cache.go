package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/exledger/internal/infrastructure/metrics"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache implements usecase.Cache using Redis.
type Cache struct {
	client  redis.Cmdable
	prefix  string
	metrics *metrics.Metrics
}

// NewCache creates a new Cache whose keys live under prefix.
func NewCache(client redis.Cmdable, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// WithMetrics records operation and error counts.
func (c *Cache) WithMetrics(m *metrics.Metrics) *Cache {
	c.metrics = m
	return c
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.observe("cache_get", nil)
		return nil, ErrCacheMiss
	}
	c.observe("cache_get", err)
	return val, err
}

// Set stores a value with TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	c.observe("cache_set", err)
	return err
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, c.prefix+key).Err()
	c.observe("cache_delete", err)
	return err
}

func (c *Cache) observe(op string, err error) {
	observe(c.metrics, op, err)
}

func observe(m *metrics.Metrics, op string, err error) {
	if m == nil {
		return
	}
	m.RedisOperations.WithLabelValues(op).Inc()
	if err != nil {
		m.RedisErrors.WithLabelValues(op).Inc()
	}
}
