// Package inmem provides in-process repository implementations used in mock
// mode and in tests, where no Postgres instance is available.
package inmem

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"tradingagents/internal/domain/memory"
)

// MemoryRepository keeps persona memories in process and ranks them by
// brute-force cosine similarity.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []memory.Entry
}

var _ memory.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Record(_ context.Context, e *memory.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *MemoryRepository) Retrieve(_ context.Context, q memory.Query) ([]memory.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cutoff time.Time
	if q.Window > 0 {
		cutoff = time.Now().Add(-q.Window)
	}

	matches := make([]memory.Match, 0, q.Limit)
	for _, e := range r.entries {
		if e.Persona != q.Persona || e.Symbol != q.Symbol {
			continue
		}
		if !cutoff.IsZero() && e.CreatedAt.Before(cutoff) {
			continue
		}
		matches = append(matches, memory.Match{
			Entry:      e,
			Similarity: cosine(q.Embedding, e.Embedding.Slice()),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return matches, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
