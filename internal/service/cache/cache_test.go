package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/metrics"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	return nil
}

func (s *memStore) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

type relevance struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

func TestGetOrCompute(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	c := New(newMemStore(), time.Minute, "run-1", m)
	ctx := context.Background()

	calls := 0
	compute := func() (relevance, error) {
		calls++
		return relevance{DocID: "a", Score: 0.5}, nil
	}

	v, cached, err := GetOrCompute(ctx, c, "relevance", []string{"graph", "rank"}, "a", compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 0.5, v.Score)

	v, cached, err = GetOrCompute(ctx, c, "relevance", []string{"rank", "graph"}, "a", compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, relevance{DocID: "a", Score: 0.5}, v)
	assert.Equal(t, 1, calls)

	_, cached, err = GetOrCompute(ctx, c, "relevance", []string{"graph", "rank"}, "b", compute)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestGetOrComputeError(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, "run-1", nil)
	boom := errors.New("boom")

	_, _, err := GetOrCompute(context.Background(), c, "relevance", []string{"x"}, "a", func() (float64, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.data)
}

func TestGetOrComputeSingleflight(t *testing.T) {
	c := New(newMemStore(), time.Minute, "run-1", nil)
	release := make(chan struct{})
	var calls atomic.Int32

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			_, _, err := GetOrCompute(context.Background(), c, "top", []string{"q"}, "10", func() (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			assert.NoError(t, err)
		})
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestStoreFailureFallsBackToCompute(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	c := New(store, time.Minute, "run-1", nil)

	for range 10 {
		v, cached, err := GetOrCompute(context.Background(), c, "relevance", []string{"x"}, "a", func() (int, error) {
			return 3, nil
		})
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, 3, v)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	v, cached, err := GetOrCompute(context.Background(), c, "relevance", nil, "a", func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "ok", v)

	n, err := c.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	store.data["unrelated"] = []byte("1")
	c := New(store, time.Minute, "run-1", nil)
	ctx := context.Background()

	for _, doc := range []string{"a", "b"} {
		_, _, err := GetOrCompute(ctx, c, "relevance", []string{"q"}, doc, func() (int, error) { return 1, nil })
		require.NoError(t, err)
	}
	n, err := c.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, store.data, "unrelated")
}
