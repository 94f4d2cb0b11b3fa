package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/corpus/source"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/events"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/service/cache"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/service/handler"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("analyzer service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("analyzer service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	slog.Info("starting analyzer service",
		"run_id", runID,
		"port", cfg.Server.Port,
		"corpus_source", cfg.Corpus.Source,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()

	var db *postgres.Client
	if cfg.Corpus.Source == source.SourcePostgres {
		var err error
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		checker.Register("postgres", health.Optional(health.PingCheck(db.Ping)))
	}

	loader, err := source.New(cfg.Corpus, db)
	if err != nil {
		return err
	}
	docs, err := source.Load(ctx, loader, cfg.Corpus.LoadTimeout)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	buildCtx, span := tracing.StartSpan(ctx, "startup", runID)
	a, err := analyzer.New(buildCtx, docs, cfg.Analyzer, analyzer.WithMetrics(m))
	span.End()
	if err != nil {
		return fmt.Errorf("building analyzer: %w", err)
	}
	if cfg.Tracing.Enabled {
		span.Log(slog.Default().With("component", "tracing"))
	}
	checker.Register("analyzer", func(context.Context) health.ComponentHealth {
		stats := a.Stats()
		msg := fmt.Sprintf("%d documents, %d iterations", stats.Documents, stats.Iterations)
		if !stats.Converged {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: msg + ", not converged"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: msg}
	})

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalysisComplete)
		defer producer.Close()
		publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := events.PublishCompleted(publishCtx, producer, events.NewAnalysisCompleted(runID, a.Stats(), cfg.Analyzer))
		cancel()
		if err != nil {
			slog.Warn("analysis event not published", "error", err)
		}
	}

	var relevanceCache *cache.Cache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, relevance caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			relevanceCache = cache.New(redisClient, cfg.Redis.CacheTTL, runID, m)
			checker.Register("redis", health.Optional(health.PingCheck(redisClient.Ping)))
			slog.Info("relevance cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	mux := http.NewServeMux()
	handler.New(a, relevanceCache, cfg.Server.DefaultTopK, cfg.Server.MaxTopK).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newHTTPHandler(mux, m, cfg.Server.WriteTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analyzer service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// newHTTPHandler wraps mux in the service middleware. Metrics must sit
// directly on the mux: TimeoutHandler serves a copy of the request, and only
// that copy carries the matched route pattern.
func newHTTPHandler(mux *http.ServeMux, m *metrics.Metrics, timeout time.Duration) http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.AccessLog,
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.Timeout(timeout),
	}
	if m != nil {
		chain = append(chain, middleware.Metrics(m))
	}
	return middleware.Chain(mux, chain...)
}
