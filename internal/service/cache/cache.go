// Package cache memoizes analyzer responses in Redis for a bounded TTL.
// Concurrent misses for the same key are collapsed with singleflight, and a
// circuit breaker skips Redis while it is failing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/resilience"
)

const keyPrefix = "rank:"

// Store is the key-value backend. *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Cache is safe for concurrent use. A nil *Cache computes every request.
type Cache struct {
	store     Store
	ttl       time.Duration
	namespace string
	breaker   *resilience.Breaker
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New creates a Cache. namespace scopes keys to one analyzer run so a
// rebuilt corpus never reads another run's entries.
func New(store Store, ttl time.Duration, namespace string, m *metrics.Metrics) *Cache {
	return &Cache{
		store:     store,
		ttl:       ttl,
		namespace: namespace,
		breaker:   resilience.NewBreaker("redis-cache", resilience.BreakerConfig{}),
		metrics:   m,
		logger:    slog.Default().With("component", "relevance-cache"),
	}
}

// GetOrCompute returns the cached value for (kind, terms, arg) or stores the
// result of compute. Term order does not affect the key. cached reports
// whether the value came from Redis.
func GetOrCompute[T any](ctx context.Context, c *Cache, kind string, terms []string, arg string, compute func() (T, error)) (value T, cached bool, err error) {
	if c == nil {
		value, err = compute()
		return value, false, err
	}
	key := c.key(kind, terms, arg)
	if c.lookup(ctx, key, &value) {
		c.hit()
		return value, true, nil
	}
	c.miss()

	v, err, _ := c.group.Do(key, func() (any, error) {
		var fresh T
		if c.lookup(ctx, key, &fresh) {
			return fresh, nil
		}
		fresh, err := compute()
		if err != nil {
			return fresh, err
		}
		c.save(ctx, key, fresh)
		return fresh, nil
	})
	if err != nil {
		return value, false, err
	}
	return v.(T), false, nil
}

func (c *Cache) lookup(ctx context.Context, key string, dst any) bool {
	var (
		data []byte
		ok   bool
	)
	err := c.breaker.Execute(func() error {
		var getErr error
		data, ok, getErr = c.store.Get(ctx, key)
		return getErr
	})
	if err == nil && ok {
		if err = json.Unmarshal(data, dst); err == nil {
			return true
		}
	}
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache get failed", "key", key, "error", err)
	}
	return false
}

func (c *Cache) save(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *Cache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Invalidate deletes every cached entry of every run.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	deleted, err := c.store.DeletePrefix(ctx, keyPrefix)
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns hit and miss counts since start.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) key(kind string, terms []string, arg string) string {
	sorted := slices.Sorted(slices.Values(terms))
	raw := kind + "|" + strings.Join(sorted, ",") + "|" + arg
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%s:%x", keyPrefix, c.namespace, kind, hash[:16])
}
