package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tradingagents/internal/adapters/ai"
	"tradingagents/pkg/errors"
)

// UsageRepository records per-dispatch token accounting in ai_usage.
type UsageRepository struct {
	db *sqlx.DB
}

var _ ai.UsageRecorder = (*UsageRepository)(nil)

func NewUsageRepository(db *sqlx.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

const insertUsageQuery = `
	INSERT INTO ai_usage (id, provider, model, prompt_tokens, completion_tokens, total_tokens, duration_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *UsageRepository) RecordUsage(ctx context.Context, rec ai.UsageRecord) error {
	_, err := r.db.ExecContext(ctx, insertUsageQuery,
		uuid.New(), rec.Provider, rec.Model,
		rec.Usage.PromptTokens, rec.Usage.CompletionTokens, rec.Usage.TotalTokens,
		rec.Duration.Milliseconds(), rec.CreatedAt)
	observeQuery("record_usage", err)
	if err != nil {
		return errors.Wrap(err, "insert ai usage")
	}
	return nil
}
