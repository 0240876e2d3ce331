// Package postgres implements the persistence interfaces on PostgreSQL via
// sqlx, with pgvector for memory similarity search.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"tradingagents/internal/domain/decision"
	"tradingagents/internal/metrics"
	"tradingagents/pkg/errors"
)

func observeQuery(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueries.WithLabelValues(operation, status).Inc()
}

// RunRepository persists runs, decisions and outcomes.
type RunRepository struct {
	db *sqlx.DB
}

var _ decision.Repository = (*RunRepository)(nil)

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

const insertRunQuery = `
	INSERT INTO ta_run (id, run_id, symbol, trade_date, model, prompt_hash, orchestrator_version, logs_path, created_at)
	VALUES (:id, :run_id, :symbol, :trade_date, :model, :prompt_hash, :orchestrator_version, :logs_path, :created_at)`

const insertDecisionQuery = `
	INSERT INTO ta_decision (id, run_id, symbol, trade_date, decision_token, investment_plan, trader_plan,
		risk_judge, payload, raw_text, model, prompt_hash, orchestrator_version, created_at)
	VALUES (:id, :run_id, :symbol, :trade_date, :decision_token, :investment_plan, :trader_plan,
		:risk_judge, :payload, :raw_text, :model, :prompt_hash, :orchestrator_version, :created_at)`

// SaveRun inserts the run and its decision in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run *decision.Run, rec *decision.Record) (err error) {
	defer func() { observeQuery("save_run", err) }()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, insertRunQuery, run); err != nil {
		return errors.Wrap(err, "insert run")
	}
	if _, err := tx.NamedExecContext(ctx, insertDecisionQuery, rec); err != nil {
		return errors.Wrap(err, "insert decision")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit run")
	}
	return nil
}

const getByRunIDQuery = `
	SELECT id, run_id, symbol, trade_date, decision_token, investment_plan, trader_plan,
		risk_judge, payload, raw_text, model, prompt_hash, orchestrator_version, created_at
	FROM ta_decision
	WHERE run_id = $1`

// GetByRunID returns the decision record for a run id.
func (r *RunRepository) GetByRunID(ctx context.Context, runID string) (*decision.Record, error) {
	var rec decision.Record
	err := r.db.GetContext(ctx, &rec, getByRunIDQuery, runID)
	observeQuery("get_by_run_id", err)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(errors.ErrNotFound, "decision for run %s", runID)
		}
		return nil, errors.Wrap(err, "get decision by run id")
	}
	return &rec, nil
}

const listBySymbolQuery = `
	SELECT id, run_id, symbol, trade_date, decision_token, investment_plan, trader_plan,
		risk_judge, payload, raw_text, model, prompt_hash, orchestrator_version, created_at
	FROM ta_decision
	WHERE symbol = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
	ORDER BY created_at DESC
	LIMIT $3`

// ListBySymbol pages decisions for a symbol, newest first. One extra row is
// fetched to decide whether a next cursor exists.
func (r *RunRepository) ListBySymbol(ctx context.Context, symbol string, limit int, cursor *time.Time) (*decision.Page, error) {
	limit = decision.ClampLimit(limit)

	var rows []*decision.Record
	err := r.db.SelectContext(ctx, &rows, listBySymbolQuery, symbol, cursor, limit+1)
	observeQuery("list_by_symbol", err)
	if err != nil {
		return nil, errors.Wrap(err, "list decisions by symbol")
	}

	page := &decision.Page{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		next := page.Items[limit-1].CreatedAt
		page.NextCursor = &next
	}
	return page, nil
}

const insertOutcomeQuery = `
	INSERT INTO ta_outcome (id, decision_id, horizon, realized_return, max_drawdown, label, created_at)
	VALUES (:id, :decision_id, :horizon, :realized_return, :max_drawdown, :label, :created_at)`

// RecordOutcome attaches a realized outcome to a decision.
func (r *RunRepository) RecordOutcome(ctx context.Context, o *decision.Outcome) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, insertOutcomeQuery, o)
	observeQuery("record_outcome", err)
	if err != nil {
		return errors.Wrap(err, "insert outcome")
	}
	return nil
}
