// Package source loads parsed documents into a corpus.Set from a JSON-lines
// file or a PostgreSQL table.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/resilience"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Loader produces a complete document set.
type Loader interface {
	Load(ctx context.Context) (corpus.Set, error)
}

// New returns the Loader selected by cfg.Source. db is required for the
// postgres source and ignored otherwise.
func New(cfg config.CorpusConfig, db *postgres.Client) (Loader, error) {
	switch cfg.Source {
	case SourceFile, "":
		return NewFileLoader(cfg.Path), nil
	case SourcePostgres:
		if db == nil {
			return nil, apperrors.InvalidArgf("corpus source %q needs a postgres client", cfg.Source)
		}
		return NewPostgresLoader(db, cfg.Table), nil
	default:
		return nil, apperrors.InvalidArgf("unknown corpus source %q", cfg.Source)
	}
}

// Load runs l with retries on transient failures, bounded by timeout.
// Malformed input is not retried.
func Load(ctx context.Context, l Loader, timeout time.Duration) (corpus.Set, error) {
	logger := slog.Default().With("component", "corpus-loader")
	start := time.Now()

	var set corpus.Set
	err := resilience.WithTimeout(ctx, timeout, "corpus-load", func(ctx context.Context) error {
		return resilience.Retry(ctx, "corpus-load", resilience.RetryConfig{
			MaxAttempts:  4,
			InitialDelay: 250 * time.Millisecond,
			RetryIf:      transient,
		}, func() error {
			var loadErr error
			set, loadErr = l.Load(ctx)
			return loadErr
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Info("corpus loaded", "documents", set.Len(), "duration_ms", time.Since(start).Milliseconds())
	return set, nil
}

func transient(err error) bool {
	return !errors.Is(err, apperrors.ErrInvalidInput) && !errors.Is(err, apperrors.ErrDuplicateDocument)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrCorpusUnavailable, fmt.Sprintf(format, args...))
}
