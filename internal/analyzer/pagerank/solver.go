// Package pagerank computes link-based document importance by damped power
// iteration over the corpus link graph.
//
// Each iteration builds a fresh score vector from the previous one: rank mass
// of a linking document is split evenly across its targets, mass of a
// dangling document (no outgoing links) is spread uniformly over the whole
// corpus, and every document receives the teleport share (1-decay)/N. The
// solver stops as soon as no score moved by more than epsilon, or when the
// iteration limit is reached; both outcomes yield a usable distribution.
package pagerank

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer/graph"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
)

// Params controls the solver.
type Params struct {
	// Decay is the probability of following a link; must be in [0,1].
	Decay float64
	// Epsilon is the per-document convergence threshold.
	Epsilon float64
	// Limit caps the number of iterations; must be >= 0.
	Limit int
	// Workers partitions each iteration's propagation step; <= 1 runs serially.
	Workers int
}

// Validate reports an ErrInvalidInput-wrapped error for out-of-range params.
func (p Params) Validate() error {
	if math.IsNaN(p.Decay) || p.Decay < 0 || p.Decay > 1 {
		return apperrors.InvalidArgf("decay must be within [0,1], got %v", p.Decay)
	}
	if p.Limit < 0 {
		return apperrors.InvalidArgf("limit must be >= 0, got %d", p.Limit)
	}
	return nil
}

// Result is the outcome of a solver run.
type Result struct {
	Scores     map[string]float64
	Iterations int
	Converged  bool
	// Delta is the largest per-document change observed in the last iteration.
	Delta float64
}

// Solve runs the power iteration over g.
func Solve(g graph.Graph, p Params) (*Result, error) {
	if g == nil {
		return nil, apperrors.InvalidArgf("graph is nil")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ids := g.IDs()
	n := len(ids)
	position := make(map[string]int, n)
	for i, id := range ids {
		position[id] = i
	}
	adjacency := make([][]int, n)
	for i, id := range ids {
		for _, target := range g.Targets(id) {
			adjacency[i] = append(adjacency[i], position[target])
		}
	}

	current := make([]float64, n)
	for i := range current {
		current[i] = 1 / float64(n)
	}

	res := &Result{}
	for iter := 0; iter < p.Limit; iter++ {
		next, err := step(current, adjacency, p.Decay, p.Workers)
		if err != nil {
			return nil, err
		}
		res.Iterations = iter + 1
		res.Delta = maxAbsDiff(current, next)
		current = next
		if res.Delta <= p.Epsilon {
			res.Converged = true
			break
		}
	}

	res.Scores = make(map[string]float64, n)
	for i, id := range ids {
		res.Scores[id] = current[i]
	}
	return res, nil
}

// step computes one iteration into a new vector; current is only read.
func step(current []float64, adjacency [][]int, decay float64, workers int) ([]float64, error) {
	n := len(current)
	next := make([]float64, n)
	if n == 0 {
		return next, nil
	}

	var dangling float64
	if workers <= 1 || n < workers {
		dangling = propagate(next, current, adjacency, 0, n, decay)
	} else {
		var err error
		dangling, err = propagateParallel(next, current, adjacency, decay, workers)
		if err != nil {
			return nil, err
		}
	}

	nf := float64(n)
	uniform := decay*dangling/nf + (1-decay)/nf
	for i := range next {
		next[i] += uniform
	}
	return next, nil
}

// propagate adds the link contributions of documents [lo,hi) into dst and
// returns the total rank held by the dangling documents in that range.
func propagate(dst, current []float64, adjacency [][]int, lo, hi int, decay float64) float64 {
	var dangling float64
	for i := lo; i < hi; i++ {
		links := adjacency[i]
		if len(links) == 0 {
			dangling += current[i]
			continue
		}
		share := decay * current[i] / float64(len(links))
		for _, target := range links {
			dst[target] += share
		}
	}
	return dangling
}

// propagateParallel splits the documents into contiguous partitions, each
// accumulating into a private vector, and merges the partials into dst in
// partition order.
func propagateParallel(dst, current []float64, adjacency [][]int, decay float64, workers int) (float64, error) {
	n := len(current)
	chunk := (n + workers - 1) / workers
	partials := make([][]float64, workers)
	danglings := make([]float64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			partial := make([]float64, n)
			danglings[w] = propagate(partial, current, adjacency, lo, hi, decay)
			partials[w] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var dangling float64
	for w, partial := range partials {
		if partial == nil {
			continue
		}
		for i, v := range partial {
			dst[i] += v
		}
		dangling += danglings[w]
	}
	return dangling, nil
}

func maxAbsDiff(a, b []float64) float64 {
	var d float64
	for i := range a {
		if diff := math.Abs(a[i] - b[i]); diff > d {
			d = diff
		}
	}
	return d
}
