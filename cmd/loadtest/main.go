package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Concurrency int
	Duration    time.Duration
	Queries     []string
	DocIDs      []string
}

// Stats collects per-request outcomes from all workers.
type Stats struct {
	total     atomic.Int64
	success   atomic.Int64
	errors    atomic.Int64
	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies: make([]time.Duration, 0, 100000),
		codes:     make(map[int]int64),
	}
}

func (s *Stats) Record(d time.Duration, status int, err error) {
	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
		return
	}
	if status >= 200 && status < 300 {
		s.success.Add(1)
	} else {
		s.errors.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.codes[status]++
	s.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the analyzer service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	cfg := Config{
		BaseURL:     *baseURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		Queries: []string{
			"link structure",
			"random surfer teleport",
			"stationary distribution",
			"inverse document frequency",
			"cosine similarity vectors",
			"dangling documents",
			"ranking terms",
		},
		DocIDs: []string{"intro", "pagerank", "markov", "tfidf", "cosine", "glossary"},
	}

	fmt.Println("=== Ranking Analyzer Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()
	stats := runLoadTest(ctx, cfg, newClient(cfg.Concurrency))
	if !printReport(os.Stdout, stats, cfg.Duration) {
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func newClient(concurrency int) *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// targets cycles through relevance, top-relevance and top-importance
// requests so every endpoint shares the load.
func targets(cfg Config, i int) string {
	q := url.QueryEscape(cfg.Queries[i%len(cfg.Queries)])
	switch i % 3 {
	case 0:
		doc := url.QueryEscape(cfg.DocIDs[i%len(cfg.DocIDs)])
		return fmt.Sprintf("%s/api/v1/relevance?q=%s&doc=%s", cfg.BaseURL, q, doc)
	case 1:
		return fmt.Sprintf("%s/api/v1/top/relevance?q=%s&k=5", cfg.BaseURL, q)
	default:
		return fmt.Sprintf("%s/api/v1/top/importance?k=5", cfg.BaseURL)
	}
}

func runLoadTest(ctx context.Context, cfg Config, client *http.Client) *Stats {
	stats := NewStats()
	var g errgroup.Group
	for w := range cfg.Concurrency {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, targets(cfg, i), nil)
				if err != nil {
					return err
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.Record(elapsed, 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				stats.Record(elapsed, resp.StatusCode, nil)
			}
			return nil
		})
	}
	g.Wait()
	return stats
}

// printReport writes the summary and reports whether any request completed.
func printReport(w io.Writer, stats *Stats, duration time.Duration) bool {
	total := stats.total.Load()
	errs := stats.errors.Load()

	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Total Requests:  %d\n", total)
	fmt.Fprintf(w, "Successful:      %d\n", stats.success.Load())
	fmt.Fprintf(w, "Errors:          %d\n", errs)
	if total == 0 {
		return false
	}
	fmt.Fprintf(w, "Error Rate:      %.2f%%\n", float64(errs)/float64(total)*100)
	fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())

	stats.mu.Lock()
	latencies := slices.Clone(stats.latencies)
	codes := maps.Clone(stats.codes)
	stats.mu.Unlock()

	if len(latencies) > 0 {
		slices.Sort(latencies)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "P%-2.0f:    %s\n", p, percentile(latencies, p))
		}
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	for _, code := range slices.Sorted(maps.Keys(codes)) {
		fmt.Fprintf(w, "  %d: %d\n", code, codes[code])
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
