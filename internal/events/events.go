// Package events defines the messages the analyzer service publishes to
// Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/kafka"
)

type EventType string

const EventAnalysisCompleted EventType = "analysis_completed"

// AnalysisCompleted announces that an analyzer finished building. It carries
// the run summary only, never scores.
type AnalysisCompleted struct {
	Type       EventType `json:"type"`
	RunID      string    `json:"run_id"`
	Documents  int       `json:"documents"`
	Edges      int       `json:"edges"`
	Vocabulary int       `json:"vocabulary"`
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
	Decay      float64   `json:"decay"`
	Epsilon    float64   `json:"epsilon"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewAnalysisCompleted(runID string, stats analyzer.Stats, cfg config.AnalyzerConfig) AnalysisCompleted {
	return AnalysisCompleted{
		Type:       EventAnalysisCompleted,
		RunID:      runID,
		Documents:  stats.Documents,
		Edges:      stats.Edges,
		Vocabulary: stats.Vocabulary,
		Iterations: stats.Iterations,
		Converged:  stats.Converged,
		Decay:      cfg.Decay,
		Epsilon:    cfg.Epsilon,
		LatencyMs:  stats.BuildDuration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// PublishCompleted sends ev keyed by its run ID.
func PublishCompleted(ctx context.Context, p Publisher, ev AnalysisCompleted) error {
	if err := p.Publish(ctx, kafka.Event{Key: ev.RunID, Value: ev}); err != nil {
		return fmt.Errorf("publishing analysis %s: %w", ev.RunID, err)
	}
	return nil
}
