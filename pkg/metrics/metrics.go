// Package metrics defines the Prometheus collectors for the analyzer service
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	AnalysisDuration     *prometheus.HistogramVec
	CorpusDocuments      prometheus.Gauge
	CorpusEdges          prometheus.Gauge
	Vocabulary           prometheus.Gauge
	SolverIterations     prometheus.Gauge
	SolverConverged      prometheus.Gauge
	RelevanceQueries     *prometheus.CounterVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates the collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates the collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analysis_duration_seconds",
				Help:    "Time spent building analyzer structures by phase (importance, term_weights).",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"phase"},
		),
		CorpusDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_documents",
				Help: "Number of documents in the analyzed corpus.",
			},
		),
		CorpusEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_link_edges",
				Help: "Number of links kept in the corpus link graph.",
			},
		),
		Vocabulary: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "corpus_vocabulary_terms",
				Help: "Number of distinct terms with an IDF weight.",
			},
		),
		SolverIterations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "importance_solver_iterations",
				Help: "Iterations run by the last importance solve.",
			},
		),
		SolverConverged: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "importance_solver_converged",
				Help: "1 if the last importance solve converged before the iteration limit.",
			},
		),
		RelevanceQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relevance_queries_total",
				Help: "Relevance computations by outcome (match, no_match, error) and top-k scans (top).",
			},
			[]string{"outcome"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of relevance cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of relevance cache misses.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.AnalysisDuration,
		m.CorpusDocuments,
		m.CorpusEdges,
		m.Vocabulary,
		m.SolverIterations,
		m.SolverConverged,
		m.RelevanceQueries,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
