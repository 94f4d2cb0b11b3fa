package pagerank

import (
	"log/slog"
	"maps"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer/graph"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
)

// Analyzer holds the importance scores of one corpus. It is read-only after New.
type Analyzer struct {
	result *Result
	edges  int
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// New builds the link graph of docs and solves for importance scores.
func New(docs corpus.Set, p Params, opts ...Option) (*Analyzer, error) {
	if docs == nil {
		return nil, apperrors.InvalidArgf("document set is nil")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{logger: slog.Default().With("component", "pagerank")}
	for _, opt := range opts {
		opt(a)
	}

	start := time.Now()
	g := graph.Build(docs)
	res, err := Solve(g, p)
	if err != nil {
		return nil, err
	}
	a.result = res
	a.edges = g.Edges()

	if !res.Converged {
		a.logger.Debug("iteration limit reached before convergence",
			"limit", p.Limit,
			"delta", res.Delta,
			"epsilon", p.Epsilon,
		)
	}
	a.logger.Info("importance scores computed",
		"documents", g.Len(),
		"edges", a.edges,
		"dangling", len(g.Dangling()),
		"iterations", res.Iterations,
		"converged", res.Converged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}

// ImportanceOf returns the score of id. The id must belong to the analyzed
// corpus; unknown ids are not checked and yield 0.
func (a *Analyzer) ImportanceOf(id string) float64 {
	return a.result.Scores[id]
}

// Scores returns a copy of every document's score.
func (a *Analyzer) Scores() map[string]float64 {
	return maps.Clone(a.result.Scores)
}

func (a *Analyzer) Iterations() int {
	return a.result.Iterations
}

func (a *Analyzer) Converged() bool {
	return a.result.Converged
}

// Edges is the number of links kept in the derived graph.
func (a *Analyzer) Edges() int {
	return a.edges
}
