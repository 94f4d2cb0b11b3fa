// Package tfidf builds corpus-wide inverse document frequencies, per-document
// TF-IDF vectors with cached Euclidean norms, and scores queries against
// documents by cosine similarity.
package tfidf

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
)

// ComputeIDF returns ln(N/df) for every term that occurs in docs, where df
// counts documents containing the term at least once.
func ComputeIDF(docs corpus.Set) map[string]float64 {
	docFreq := make(map[string]int)
	for d := range docs.All() {
		seen := make(map[string]struct{}, len(d.Words))
		for _, w := range d.Words {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			docFreq[w]++
		}
	}
	total := float64(docs.Len())
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf[term] = math.Log(total / float64(df))
	}
	return idf
}

// TermFrequencies returns occurrences/len(words) per distinct term. An empty
// sequence yields an empty map.
func TermFrequencies(words []string) map[string]float64 {
	tf := make(map[string]float64)
	if len(words) == 0 {
		return tf
	}
	for _, w := range words {
		tf[w]++
	}
	total := float64(len(words))
	for term, count := range tf {
		tf[term] = count / total
	}
	return tf
}

// Weigh multiplies tf pointwise by idf. Terms without an idf entry weigh 0.
func Weigh(tf, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(tf))
	for term, f := range tf {
		vec[term] = f * idf[term]
	}
	return vec
}

// Norm is the Euclidean length of vec.
func Norm(vec map[string]float64) float64 {
	var sq float64
	for _, w := range vec {
		sq += w * w
	}
	return math.Sqrt(sq)
}
