// Package topk selects the k largest items of a sequence with a bounded
// min-heap, in O(n log k).
package topk

import (
	"cmp"
	"container/heap"
	"iter"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
)

// ScoredDoc pairs a document with a score.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// CompareScored orders by score, breaking ties so that the lexically smaller
// DocID ranks higher.
func CompareScored(a, b ScoredDoc) int {
	if c := cmp.Compare(a.Score, b.Score); c != 0 {
		return c
	}
	return cmp.Compare(b.DocID, a.DocID)
}

// Select returns the k largest items of seq according to compare, in
// ascending order. Fewer than k items yields all of them, sorted. k == 0
// yields an empty slice; negative k is invalid.
func Select[T any](k int, seq iter.Seq[T], compare func(a, b T) int) ([]T, error) {
	if k < 0 {
		return nil, apperrors.InvalidArgf("k must be >= 0, got %d", k)
	}
	if k == 0 {
		return []T{}, nil
	}
	h := &minHeap[T]{compare: compare}
	for item := range seq {
		if h.Len() < k {
			heap.Push(h, item)
			continue
		}
		if compare(item, h.items[0]) > 0 {
			h.items[0] = item
			heap.Fix(h, 0)
		}
	}
	result := make([]T, h.Len())
	for i := range result {
		result[i] = heap.Pop(h).(T)
	}
	return result, nil
}

// Descending reverses an ascending selection in place and returns it.
func Descending[T any](items []T) []T {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

type minHeap[T any] struct {
	items   []T
	compare func(a, b T) int
}

func (h *minHeap[T]) Len() int { return len(h.items) }

func (h *minHeap[T]) Less(i, j int) bool { return h.compare(h.items[i], h.items[j]) < 0 }

func (h *minHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *minHeap[T]) Push(x any) {
	h.items = append(h.items, x.(T))
}

func (h *minHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
