package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(sorted, 50))
	assert.Equal(t, time.Duration(10), percentile(sorted, 99))
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Zero(t, percentile(nil, 50))
}

func TestTargetsCycleEndpoints(t *testing.T) {
	cfg := Config{BaseURL: "http://x", Queries: []string{"a b"}, DocIDs: []string{"d1"}}
	assert.Equal(t, "http://x/api/v1/relevance?q=a+b&doc=d1", targets(cfg, 0))
	assert.Equal(t, "http://x/api/v1/top/relevance?q=a+b&k=5", targets(cfg, 1))
	assert.Equal(t, "http://x/api/v1/top/importance?k=5", targets(cfg, 2))
}

func TestRunLoadTest(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasPrefix(r.URL.Path, "/api/v1/top/importance") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := Config{BaseURL: srv.URL, Concurrency: 2, Duration: 100 * time.Millisecond, Queries: []string{"q"}, DocIDs: []string{"d"}}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()
	stats := runLoadTest(ctx, cfg, srv.Client())

	assert.Positive(t, stats.total.Load())
	assert.Positive(t, stats.success.Load())
	assert.Positive(t, stats.errors.Load())

	var out bytes.Buffer
	assert.True(t, printReport(&out, stats, cfg.Duration))
	assert.Contains(t, out.String(), "200:")
	assert.Contains(t, out.String(), "404:")
}

func TestPrintReportEmpty(t *testing.T) {
	var out bytes.Buffer
	assert.False(t, printReport(&out, NewStats(), time.Second))
}
