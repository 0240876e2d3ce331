package memory

import (
	"context"
	"time"
)

// Query narrows a similarity search to one persona and symbol.
type Query struct {
	Persona Persona
	Symbol  string
	// Embedding is the query vector.
	Embedding []float32
	// Limit caps the number of matches.
	Limit int
	// Window excludes entries older than now minus the window. Zero means
	// no age filter.
	Window time.Duration
}

// Repository stores and retrieves persona memories.
type Repository interface {
	// Record inserts a memory entry.
	Record(ctx context.Context, e *Entry) error

	// Retrieve returns the entries most similar to the query embedding,
	// ordered by descending similarity.
	Retrieve(ctx context.Context, q Query) ([]Match, error)
}
