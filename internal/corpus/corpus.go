// Package corpus defines the immutable documents the analyzers operate on and
// the Set container they are handed.
package corpus

import (
	"iter"
	"net/http"
	"slices"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
)

// Document is a parsed page: a unique identifier, its outgoing links and its
// normalised terms, both in document order.
type Document struct {
	ID    string   `json:"id"`
	Links []string `json:"links"`
	Words []string `json:"words"`
}

// Set is the document container consumed by the analyzers. Implementations
// must yield every document exactly once; iteration order is unspecified.
type Set interface {
	Len() int
	All() iter.Seq[Document]
}

// MemorySet is a slice-backed Set with unique document IDs.
type MemorySet struct {
	docs []Document
}

// NewSet builds a MemorySet. Empty and repeated IDs are rejected.
func NewSet(docs ...Document) (*MemorySet, error) {
	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return nil, apperrors.InvalidArgf("document at position %d has an empty id", len(out))
		}
		if _, dup := seen[d.ID]; dup {
			return nil, apperrors.Newf(apperrors.ErrDuplicateDocument, http.StatusConflict, "id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		out = append(out, Document{
			ID:    d.ID,
			Links: slices.Clone(d.Links),
			Words: slices.Clone(d.Words),
		})
	}
	return &MemorySet{docs: out}, nil
}

// MustSet is NewSet for fixtures; it panics on invalid input.
func MustSet(docs ...Document) *MemorySet {
	s, err := NewSet(docs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len and All treat a nil *MemorySet as an empty set.
func (s *MemorySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.docs)
}

func (s *MemorySet) All() iter.Seq[Document] {
	return func(yield func(Document) bool) {
		if s == nil {
			return
		}
		for _, d := range s.docs {
			if !yield(d) {
				return
			}
		}
	}
}

// IDs returns the document identifiers in insertion order.
func (s *MemorySet) IDs() []string {
	ids := make([]string, len(s.docs))
	for i, d := range s.docs {
		ids[i] = d.ID
	}
	return ids
}

// Contains reports whether a document with the given id is present.
func Contains(s Set, id string) bool {
	for d := range s.All() {
		if d.ID == id {
			return true
		}
	}
	return false
}
