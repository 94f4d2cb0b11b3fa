package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/service/cache"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func newServer(t *testing.T, c *cache.Cache) *http.ServeMux {
	t.Helper()
	docs := corpus.MustSet(
		corpus.Document{ID: "a", Links: []string{"b", "c"}, Words: []string{"graph", "rank", "link"}},
		corpus.Document{ID: "b", Links: []string{"c"}, Words: []string{"graph", "vector"}},
		corpus.Document{ID: "c", Links: []string{"a"}, Words: []string{"cosin", "vector", "weight"}},
	)
	a, err := analyzer.New(context.Background(), docs, config.Default().Analyzer)
	require.NoError(t, err)

	mux := http.NewServeMux()
	New(a, c, 10, 2).Register(mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestImportance(t *testing.T) {
	mux := newServer(t, nil)

	var resp ImportanceResponse
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/importance?doc=c", &resp))
	assert.Equal(t, "c", resp.DocID)
	assert.Greater(t, resp.Importance, 0.0)

	var errResp map[string]string
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/api/v1/importance?doc=zzz", &errResp))
	assert.Contains(t, errResp["error"], "zzz")
	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/api/v1/importance", nil))
}

func TestRelevanceCached(t *testing.T) {
	store := &memStore{data: make(map[string][]byte)}
	mux := newServer(t, cache.New(store, time.Minute, "run-1", nil))

	var first RelevanceResponse
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/relevance?q=vectors&doc=b", &first))
	assert.Equal(t, []string{"vector"}, first.Terms)
	assert.InDelta(t, 0.7071, first.Relevance, 1e-4)
	assert.False(t, first.Cached)

	var second RelevanceResponse
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/relevance?q=vectors&doc=b", &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Relevance, second.Relevance)

	var stats map[string]any
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/cache/stats", &stats))
	assert.EqualValues(t, 1, stats["hits"])

	var inv map[string]any
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodPost, "/api/v1/cache/invalidate", &inv))
	assert.EqualValues(t, 1, inv["keys_deleted"])
}

func TestRelevanceValidation(t *testing.T) {
	mux := newServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/api/v1/relevance?doc=a", nil))
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/api/v1/relevance?q=graph&doc=x", nil))

	var resp RelevanceResponse
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/relevance?q=the&doc=a", &resp))
	assert.Empty(t, resp.Terms)
	assert.Zero(t, resp.Relevance)
}

func TestTopImportance(t *testing.T) {
	mux := newServer(t, nil)

	var resp TopResponse
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/top/importance?k=5", &resp))
	assert.Equal(t, 2, resp.K)
	require.Len(t, resp.Results, 2)
	assert.GreaterOrEqual(t, resp.Results[0].Score, resp.Results[1].Score)

	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/api/v1/top/importance?k=-1", nil))
	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/api/v1/top/importance?k=abc", nil))
}

func TestTopRelevance(t *testing.T) {
	mux := newServer(t, nil)

	var resp TopResponse
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/top/relevance?q=vector", &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "b", resp.Results[0].DocID)
	assert.Equal(t, "c", resp.Results[1].DocID)

	assert.Equal(t, http.StatusBadRequest, do(t, mux, http.MethodGet, "/api/v1/top/relevance", nil))
}

func TestStatsAndDisabledCache(t *testing.T) {
	mux := newServer(t, nil)

	var stats analyzer.Stats
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/stats", &stats))
	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 4, stats.Edges)

	var cs map[string]string
	require.Equal(t, http.StatusOK, do(t, mux, http.MethodGet, "/api/v1/cache/stats", &cs))
	assert.Equal(t, "disabled", cs["status"])
	assert.Equal(t, http.StatusServiceUnavailable, do(t, mux, http.MethodPost, "/api/v1/cache/invalidate", nil))
}
