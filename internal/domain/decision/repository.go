package decision

import (
	"context"
	"time"
)

// Repository persists runs, decisions and outcomes.
type Repository interface {
	// SaveRun inserts the run and its decision record atomically.
	SaveRun(ctx context.Context, run *Run, rec *Record) error

	// GetByRunID returns the decision record for a run id.
	GetByRunID(ctx context.Context, runID string) (*Record, error)

	// ListBySymbol pages decision records for a symbol, newest first.
	// A nil cursor starts from the newest record.
	ListBySymbol(ctx context.Context, symbol string, limit int, cursor *time.Time) (*Page, error)

	// RecordOutcome attaches a realized outcome to a decision.
	RecordOutcome(ctx context.Context, o *Outcome) error
}
