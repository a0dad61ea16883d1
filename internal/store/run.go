// Package store persists run history when a database is configured. The
// pipeline never depends on it; writes are fire-and-forget from the
// boundary that knows the run's outcome.
package store

import (
	"context"
	"time"

	"specforge.app/specforge/core/db"
)

// RunRecord is one row of run history.
type RunRecord struct {
	ID               int64
	StartedAt        time.Time
	Mode             string
	Provider         string
	Model            string
	Result           string
	ExitCode         int
	QuestionsAsked   int
	TotalTokens      int64
	EstimatedCostUSD float64
	TotalLatencyMS   int64
}

type RunStore interface {
	Save(ctx context.Context, record RunRecord) error
}

type runStore struct {
	db *db.DB
}

func NewRunStore(database *db.DB) RunStore {
	return &runStore{db: database}
}

func (s *runStore) Save(ctx context.Context, record RunRecord) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO runs (
			id, started_at, mode, provider, model, result, exit_code,
			questions_asked, total_tokens, estimated_cost_usd, total_latency_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID,
		record.StartedAt,
		record.Mode,
		record.Provider,
		record.Model,
		record.Result,
		record.ExitCode,
		record.QuestionsAsked,
		record.TotalTokens,
		record.EstimatedCostUSD,
		record.TotalLatencyMS,
	)
	return err
}
