// Package handler exposes the analyzer over HTTP as JSON endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer/topk"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/service/cache"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/logger"
)

// Ranker is the read side of *analyzer.Analyzer.
type Ranker interface {
	ImportanceOf(id string) float64
	RelevanceOf(query []string, id string) (float64, error)
	Contains(id string) bool
	Stats() analyzer.Stats
	TopByImportance(k int) ([]topk.ScoredDoc, error)
	TopByRelevance(query []string, k int) ([]topk.ScoredDoc, error)
}

type ImportanceResponse struct {
	DocID      string  `json:"doc_id"`
	Importance float64 `json:"importance"`
}

type RelevanceResponse struct {
	DocID     string   `json:"doc_id"`
	Query     string   `json:"query"`
	Terms     []string `json:"terms"`
	Relevance float64  `json:"relevance"`
	Cached    bool     `json:"cached"`
}

type TopResponse struct {
	Query   string           `json:"query,omitempty"`
	K       int              `json:"k"`
	Results []topk.ScoredDoc `json:"results"`
	Cached  bool             `json:"cached"`
}

type Handler struct {
	ranker    Ranker
	cache     *cache.Cache
	tokenizer tokenizer.Tokenizer
	defaultK  int
	maxK      int
	logger    *slog.Logger
}

// New creates a Handler. relevanceCache may be nil.
func New(ranker Ranker, relevanceCache *cache.Cache, defaultK, maxK int) *Handler {
	return &Handler{
		ranker:    ranker,
		cache:     relevanceCache,
		tokenizer: tokenizer.Default(),
		defaultK:  defaultK,
		maxK:      maxK,
		logger:    slog.Default().With("component", "rank-handler"),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/importance", h.Importance)
	mux.HandleFunc("GET /api/v1/relevance", h.Relevance)
	mux.HandleFunc("GET /api/v1/top/importance", h.TopImportance)
	mux.HandleFunc("GET /api/v1/top/relevance", h.TopRelevance)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Importance(w http.ResponseWriter, r *http.Request) {
	docID, ok := h.knownDoc(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, ImportanceResponse{
		DocID:      docID,
		Importance: h.ranker.ImportanceOf(docID),
	})
}

func (h *Handler) Relevance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	docID, ok := h.knownDoc(w, r)
	if !ok {
		return
	}

	terms := h.tokenizer.Tokenize(query)
	score, cached, err := cache.GetOrCompute(r.Context(), h.cache, "relevance", terms, docID, func() (float64, error) {
		return h.ranker.RelevanceOf(terms, docID)
	})
	if err != nil {
		h.fail(w, r, "relevance failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, RelevanceResponse{
		DocID:     docID,
		Query:     query,
		Terms:     terms,
		Relevance: score,
		Cached:    cached,
	})
}

func (h *Handler) TopImportance(w http.ResponseWriter, r *http.Request) {
	k, ok := h.parseK(w, r)
	if !ok {
		return
	}
	results, err := h.ranker.TopByImportance(k)
	if err != nil {
		h.fail(w, r, "top importance failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, TopResponse{K: k, Results: results})
}

func (h *Handler) TopRelevance(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	k, ok := h.parseK(w, r)
	if !ok {
		return
	}

	terms := h.tokenizer.Tokenize(query)
	results, cached, err := cache.GetOrCompute(r.Context(), h.cache, "top_relevance", terms, strconv.Itoa(k), func() ([]topk.ScoredDoc, error) {
		return h.ranker.TopByRelevance(terms, k)
	})
	if err != nil {
		h.fail(w, r, "top relevance failed", err)
		return
	}
	logger.FromContext(r.Context()).Debug("top relevance",
		"terms", terms,
		"k", k,
		"returned", len(results),
		"cached", cached,
	)
	h.writeJSON(w, http.StatusOK, TopResponse{Query: query, K: k, Results: results, Cached: cached})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ranker.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.fail(w, r, "cache invalidation failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// knownDoc reads the doc parameter and rejects ids outside the corpus, since
// the analyzer does not check them.
func (h *Handler) knownDoc(w http.ResponseWriter, r *http.Request) (string, bool) {
	docID := r.URL.Query().Get("doc")
	if docID == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'doc' is required")
		return "", false
	}
	if !h.ranker.Contains(docID) {
		h.writeError(w, http.StatusNotFound, apperrors.ErrDocumentNotFound.Error()+": "+docID)
		return "", false
	}
	return docID, true
}

func (h *Handler) parseK(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return h.defaultK, true
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 0 {
		h.writeError(w, http.StatusBadRequest, "k must be a non-negative integer")
		return 0, false
	}
	return min(k, h.maxK), true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err)
		h.writeError(w, status, msg)
		return
	}
	log.Warn(msg, "error", err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeError(w, status, message)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
