// Package graph derives the directed, unweighted link graph of a corpus.
// The graph is self-contained: every link target is itself a node, links to
// unknown documents are dropped and self-links are ignored.
package graph

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
)

// Graph maps a document ID to the set of document IDs it links to. Every
// document in the corpus is a key, including those with no outgoing links.
type Graph map[string]map[string]struct{}

// Build constructs the link graph for docs. It makes two passes: the first
// collects the known IDs, the second filters each document's links.
func Build(docs corpus.Set) Graph {
	known := make(map[string]struct{}, docs.Len())
	for d := range docs.All() {
		known[d.ID] = struct{}{}
	}
	g := make(Graph, len(known))
	for d := range docs.All() {
		targets := make(map[string]struct{}, len(d.Links))
		for _, link := range d.Links {
			if link == d.ID {
				continue
			}
			if _, ok := known[link]; ok {
				targets[link] = struct{}{}
			}
		}
		g[d.ID] = targets
	}
	return g
}

func (g Graph) Len() int {
	return len(g)
}

func (g Graph) OutDegree(id string) int {
	return len(g[id])
}

// Targets returns the sorted outgoing links of id.
func (g Graph) Targets(id string) []string {
	out := make([]string, 0, len(g[id]))
	for t := range g[id] {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// IDs returns every node, sorted.
func (g Graph) IDs() []string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Dangling returns the sorted IDs of nodes without outgoing links.
func (g Graph) Dangling() []string {
	var out []string
	for id, targets := range g {
		if len(targets) == 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Edges returns the total number of links in the graph.
func (g Graph) Edges() int {
	n := 0
	for _, targets := range g {
		n += len(targets)
	}
	return n
}
