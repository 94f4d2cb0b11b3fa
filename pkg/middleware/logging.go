package middleware

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/logger"
)

// AccessLog logs one line per request with the request-scoped logger and
// turns handler panics into 500 responses.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		log := logger.FromContext(r.Context())

		defer func() {
			if rec := recover(); rec != nil {
				log.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", rec)
				if !sw.wroteHeader {
					http.Error(sw, `{"error":"internal server error"}`, http.StatusInternalServerError)
				}
			}
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()
		next.ServeHTTP(sw, r)
	})
}
