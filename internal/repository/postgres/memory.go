package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"tradingagents/internal/domain/memory"
	"tradingagents/pkg/errors"
)

// MemoryRepository stores persona memories with pgvector similarity search.
type MemoryRepository struct {
	db *sqlx.DB
}

var _ memory.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(db *sqlx.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

const insertMemoryQuery = `
	INSERT INTO persona_memory (id, persona, symbol, situation, recommendation, embedding, trade_date, created_at)
	VALUES (:id, :persona, :symbol, :situation, :recommendation, :embedding, :trade_date, :created_at)`

func (r *MemoryRepository) Record(ctx context.Context, e *memory.Entry) error {
	_, err := r.db.NamedExecContext(ctx, insertMemoryQuery, e)
	observeQuery("record_memory", err)
	if err != nil {
		return errors.Wrap(err, "insert persona memory")
	}
	return nil
}

// retrieveMemoryQuery orders by cosine distance; similarity = 1 - distance.
const retrieveMemoryQuery = `
	SELECT id, persona, symbol, situation, recommendation, embedding, trade_date, created_at,
		1 - (embedding <=> $1) AS similarity
	FROM persona_memory
	WHERE persona = $2 AND symbol = $3 AND ($4::timestamptz IS NULL OR created_at >= $4)
	ORDER BY embedding <=> $1
	LIMIT $5`

func (r *MemoryRepository) Retrieve(ctx context.Context, q memory.Query) ([]memory.Match, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 2
	}

	var cutoff *time.Time
	if q.Window > 0 {
		t := time.Now().Add(-q.Window)
		cutoff = &t
	}

	var matches []memory.Match
	err := r.db.SelectContext(ctx, &matches, retrieveMemoryQuery,
		pgvector.NewVector(q.Embedding), q.Persona, q.Symbol, cutoff, limit)
	observeQuery("retrieve_memory", err)
	if err != nil {
		return nil, errors.Wrap(err, "retrieve persona memories")
	}
	return matches, nil
}
