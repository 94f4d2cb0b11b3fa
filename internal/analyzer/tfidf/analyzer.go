package tfidf

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
)

// Analyzer holds the IDF table, document vectors and their norms for one
// corpus. All fields are written during New and only read afterwards.
type Analyzer struct {
	idf      map[string]float64
	vectors  map[string]map[string]float64
	norms    map[string]float64
	poolSize int
	logger   *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithPoolSize sets the worker pool size used to build document vectors.
// Sizes <= 1 build serially. Default is 1.
func WithPoolSize(size int) Option {
	return func(a *Analyzer) error {
		if size < 1 {
			size = 1
		}
		a.poolSize = size
		return nil
	}
}

// WithAutoPoolSize sizes the pool from runtime.NumCPU() / 2, minimum 1.
func WithAutoPoolSize() Option {
	return WithPoolSize(runtime.NumCPU() / 2)
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// New computes IDF weights over docs, then each document's TF-IDF vector
// and norm.
func New(docs corpus.Set, opts ...Option) (*Analyzer, error) {
	if docs == nil {
		return nil, apperrors.InvalidArgf("document set is nil")
	}
	a := &Analyzer{
		poolSize: 1,
		logger:   slog.Default().With("component", "tfidf"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	a.idf = ComputeIDF(docs)
	a.vectors = make(map[string]map[string]float64, docs.Len())
	a.norms = make(map[string]float64, docs.Len())

	var err error
	if a.poolSize > 1 {
		err = a.buildPooled(docs)
	} else {
		for d := range docs.All() {
			a.store(d.ID, Weigh(TermFrequencies(d.Words), a.idf))
		}
	}
	if err != nil {
		return nil, err
	}

	a.logger.Info("term weights computed",
		"documents", len(a.vectors),
		"vocabulary", len(a.idf),
		"pool_size", a.poolSize,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}

func (a *Analyzer) store(id string, vec map[string]float64) {
	a.vectors[id] = vec
	a.norms[id] = Norm(vec)
}

func (a *Analyzer) buildPooled(docs corpus.Set) error {
	pool, err := ants.NewPool(a.poolSize)
	if err != nil {
		return fmt.Errorf("creating vector worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for d := range docs.All() {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			vec := Weigh(TermFrequencies(d.Words), a.idf)
			norm := Norm(vec)
			mu.Lock()
			a.vectors[d.ID] = vec
			a.norms[d.ID] = norm
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("submitting vector task for %s: %w", d.ID, submitErr)
		}
	}
	wg.Wait()
	return nil
}

// RelevanceOf returns the cosine similarity between the TF-IDF vector of
// query and the cached vector of document id. The id must belong to the
// analyzed corpus. Zero-norm queries or documents score 0.
func (a *Analyzer) RelevanceOf(query []string, id string) (float64, error) {
	if query == nil {
		return 0, apperrors.InvalidArgf("query is nil")
	}
	if id == "" {
		return 0, apperrors.InvalidArgf("document id is empty")
	}

	docVec := a.vectors[id]
	tf := TermFrequencies(query)
	var dot, querySq float64
	for _, term := range slices.Sorted(maps.Keys(tf)) {
		w := tf[term] * a.idf[term]
		querySq += w * w
		dot += w * docVec[term]
	}

	denom := a.norms[id] * math.Sqrt(querySq)
	if denom == 0 {
		return 0, nil
	}
	return dot / denom, nil
}

// DocumentVectors exposes the per-document TF-IDF vectors. The returned maps
// are the analyzer's own and must not be modified; intended for verification.
func (a *Analyzer) DocumentVectors() map[string]map[string]float64 {
	return a.vectors
}

// IDF returns a copy of the corpus IDF table.
func (a *Analyzer) IDF() map[string]float64 {
	return maps.Clone(a.idf)
}

// NormOf returns the cached norm of document id.
func (a *Analyzer) NormOf(id string) float64 {
	return a.norms[id]
}

// Vocabulary is the number of distinct terms in the corpus.
func (a *Analyzer) Vocabulary() int {
	return len(a.idf)
}
