package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/internal/adapters/embeddings"
	"tradingagents/internal/domain/memory"
)

func record(t *testing.T, repo *MemoryRepository, provider embeddings.Provider, persona memory.Persona, symbol, situation, recommendation string, age time.Duration) {
	t.Helper()

	vec, err := provider.GenerateEmbedding(context.Background(), situation)
	require.NoError(t, err)

	require.NoError(t, repo.Record(context.Background(), &memory.Entry{
		ID:             uuid.New(),
		Persona:        persona,
		Symbol:         symbol,
		Situation:      situation,
		Recommendation: recommendation,
		Embedding:      pgvector.NewVector(vec),
		CreatedAt:      time.Now().Add(-age),
	}))
}

func TestMemoryRepositoryRanksBySimilarity(t *testing.T) {
	repo := NewMemoryRepository()
	provider := embeddings.NewLocalProvider(0)

	record(t, repo, provider, memory.PersonaBull, "AAPL",
		"strong earnings beat with rising margins and bullish momentum",
		"lean into earnings strength", 0)
	record(t, repo, provider, memory.PersonaBull, "AAPL",
		"regulatory probe announced, heavy selling pressure",
		"step aside during legal overhangs", 0)

	query, err := provider.GenerateEmbedding(context.Background(),
		"earnings beat, margins rising, momentum bullish")
	require.NoError(t, err)

	matches, err := repo.Retrieve(context.Background(), memory.Query{
		Persona:   memory.PersonaBull,
		Symbol:    "AAPL",
		Embedding: query,
		Limit:     2,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "lean into earnings strength", matches[0].Recommendation)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestMemoryRepositoryFiltersPersonaAndSymbol(t *testing.T) {
	repo := NewMemoryRepository()
	provider := embeddings.NewLocalProvider(0)

	record(t, repo, provider, memory.PersonaBull, "AAPL", "situation a", "for bull aapl", 0)
	record(t, repo, provider, memory.PersonaBear, "AAPL", "situation a", "for bear aapl", 0)
	record(t, repo, provider, memory.PersonaBull, "MSFT", "situation a", "for bull msft", 0)

	query, err := provider.GenerateEmbedding(context.Background(), "situation a")
	require.NoError(t, err)

	matches, err := repo.Retrieve(context.Background(), memory.Query{
		Persona:   memory.PersonaBull,
		Symbol:    "AAPL",
		Embedding: query,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "for bull aapl", matches[0].Recommendation)
}

func TestMemoryRepositoryWindowExcludesStaleEntries(t *testing.T) {
	repo := NewMemoryRepository()
	provider := embeddings.NewLocalProvider(0)

	record(t, repo, provider, memory.PersonaTrader, "AAPL", "old regime", "stale lesson", 120*24*time.Hour)
	record(t, repo, provider, memory.PersonaTrader, "AAPL", "current regime", "fresh lesson", 24*time.Hour)

	query, err := provider.GenerateEmbedding(context.Background(), "regime")
	require.NoError(t, err)

	matches, err := repo.Retrieve(context.Background(), memory.Query{
		Persona:   memory.PersonaTrader,
		Symbol:    "AAPL",
		Embedding: query,
		Limit:     10,
		Window:    90 * 24 * time.Hour,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "fresh lesson", matches[0].Recommendation)
}

func TestMemoryRepositoryLimit(t *testing.T) {
	repo := NewMemoryRepository()
	provider := embeddings.NewLocalProvider(0)

	for i := 0; i < 5; i++ {
		record(t, repo, provider, memory.PersonaManager, "AAPL", "shared situation", "lesson", 0)
	}

	query, err := provider.GenerateEmbedding(context.Background(), "shared situation")
	require.NoError(t, err)

	matches, err := repo.Retrieve(context.Background(), memory.Query{
		Persona:   memory.PersonaManager,
		Symbol:    "AAPL",
		Embedding: query,
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
