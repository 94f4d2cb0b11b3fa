// Package analyzer ties a document corpus to its importance scores and
// term-weight vectors. An Analyzer is built once by New and is safe for
// concurrent readers afterwards.
package analyzer

import (
	"context"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer/pagerank"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer/tfidf"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer/topk"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/tracing"
)

// Stats summarizes a built Analyzer.
type Stats struct {
	Documents     int           `json:"documents"`
	Edges         int           `json:"edges"`
	Vocabulary    int           `json:"vocabulary"`
	Iterations    int           `json:"iterations"`
	Converged     bool          `json:"converged"`
	BuildDuration time.Duration `json:"build_duration_ns"`
}

// Analyzer answers importance and relevance questions about one corpus.
type Analyzer struct {
	importance *pagerank.Analyzer
	relevance  *tfidf.Analyzer
	ids        []string
	stats      Stats
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures New.
type Option func(*options)

// WithLogger sets the base logger. Default is slog.Default(). The analyzer and
// its solvers each add their own component attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records build and query metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New validates cfg, then computes importance scores and term weights for
// docs. Non-convergence of the importance solver is not an error; it is
// reported through Stats.
func New(ctx context.Context, docs corpus.Set, cfg config.AnalyzerConfig, opts ...Option) (*Analyzer, error) {
	if docs == nil {
		return nil, apperrors.InvalidArgf("document set is nil")
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	params := pagerank.Params{
		Decay:   cfg.Decay,
		Epsilon: cfg.Epsilon,
		Limit:   cfg.Limit,
		Workers: cfg.Workers,
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := tracing.StartChildSpan(ctx, "analyzer.build")
	defer span.End()

	_, prSpan := tracing.StartChildSpan(ctx, "importance")
	importance, err := pagerank.New(docs, params, pagerank.WithLogger(o.logger.With("component", "pagerank")))
	prSpan.End()
	if err != nil {
		return nil, err
	}
	prSpan.SetAttr("iterations", importance.Iterations())
	o.observe("importance", prSpan.Duration)

	_, tfSpan := tracing.StartChildSpan(ctx, "term_weights")
	relevance, err := tfidf.New(docs, tfidf.WithPoolSize(cfg.PoolSize), tfidf.WithLogger(o.logger.With("component", "tfidf")))
	tfSpan.End()
	if err != nil {
		return nil, err
	}
	tfSpan.SetAttr("vocabulary", relevance.Vocabulary())
	o.observe("term_weights", tfSpan.Duration)

	scores := importance.Scores()
	a := &Analyzer{
		importance: importance,
		relevance:  relevance,
		ids:        slices.Sorted(maps.Keys(scores)),
		logger:     o.logger.With("component", "analyzer"),
		metrics:    o.metrics,
	}
	a.stats = Stats{
		Documents:     len(a.ids),
		Edges:         importance.Edges(),
		Vocabulary:    relevance.Vocabulary(),
		Iterations:    importance.Iterations(),
		Converged:     importance.Converged(),
		BuildDuration: time.Since(start),
	}
	a.recordStats()

	a.logger.Info("analyzer ready",
		"documents", a.stats.Documents,
		"edges", a.stats.Edges,
		"vocabulary", a.stats.Vocabulary,
		"iterations", a.stats.Iterations,
		"converged", a.stats.Converged,
		"duration_ms", a.stats.BuildDuration.Milliseconds(),
	)
	return a, nil
}

func (o options) observe(phase string, d time.Duration) {
	if o.metrics != nil {
		o.metrics.AnalysisDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
}

func (a *Analyzer) recordStats() {
	if a.metrics == nil {
		return
	}
	a.metrics.CorpusDocuments.Set(float64(a.stats.Documents))
	a.metrics.CorpusEdges.Set(float64(a.stats.Edges))
	a.metrics.Vocabulary.Set(float64(a.stats.Vocabulary))
	a.metrics.SolverIterations.Set(float64(a.stats.Iterations))
	converged := 0.0
	if a.stats.Converged {
		converged = 1
	}
	a.metrics.SolverConverged.Set(converged)
}

// ImportanceOf returns the importance score of id. Unknown ids yield 0.
func (a *Analyzer) ImportanceOf(id string) float64 {
	return a.importance.ImportanceOf(id)
}

// RelevanceOf returns the cosine similarity of query to document id.
func (a *Analyzer) RelevanceOf(query []string, id string) (float64, error) {
	score, err := a.relevance.RelevanceOf(query, id)
	a.countQuery(score, err)
	return score, err
}

func (a *Analyzer) countQuery(score float64, err error) {
	if a.metrics == nil {
		return
	}
	outcome := "match"
	switch {
	case err != nil:
		outcome = "error"
	case score == 0:
		outcome = "no_match"
	}
	a.metrics.RelevanceQueries.WithLabelValues(outcome).Inc()
}

// DocumentVectors exposes the per-document TF-IDF vectors. Callers must not
// modify the returned maps.
func (a *Analyzer) DocumentVectors() map[string]map[string]float64 {
	return a.relevance.DocumentVectors()
}

// Contains reports whether id belongs to the analyzed corpus.
func (a *Analyzer) Contains(id string) bool {
	_, ok := slices.BinarySearch(a.ids, id)
	return ok
}

// Stats returns the build summary.
func (a *Analyzer) Stats() Stats {
	return a.stats
}

// TopByImportance returns the k most important documents, best first.
func (a *Analyzer) TopByImportance(k int) ([]topk.ScoredDoc, error) {
	seq := func(yield func(topk.ScoredDoc) bool) {
		for _, id := range a.ids {
			if !yield(topk.ScoredDoc{DocID: id, Score: a.importance.ImportanceOf(id)}) {
				return
			}
		}
	}
	return a.top(k, seq)
}

// TopByRelevance returns up to k documents with a positive relevance to
// query, best first.
func (a *Analyzer) TopByRelevance(query []string, k int) ([]topk.ScoredDoc, error) {
	if query == nil {
		return nil, apperrors.InvalidArgf("query is nil")
	}
	scored := make([]topk.ScoredDoc, 0)
	for _, id := range a.ids {
		score, err := a.relevance.RelevanceOf(query, id)
		if err != nil {
			return nil, err
		}
		if score > 0 {
			scored = append(scored, topk.ScoredDoc{DocID: id, Score: score})
		}
	}
	if a.metrics != nil {
		a.metrics.RelevanceQueries.WithLabelValues("top").Inc()
	}
	return a.top(k, slices.Values(scored))
}

func (a *Analyzer) top(k int, seq iter.Seq[topk.ScoredDoc]) ([]topk.ScoredDoc, error) {
	selected, err := topk.Select(k, seq, topk.CompareScored)
	if err != nil {
		return nil, err
	}
	topk.Descending(selected)
	return selected, nil
}
