package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"tradingagents/internal/adapters/embeddings"
	"tradingagents/internal/metrics"
	"tradingagents/pkg/logger"
)

// Service retrieves and records persona memories. A nil *Service is a valid
// no-op: retrieval returns nothing and recording does nothing, so the engine
// never branches on whether memory is configured.
type Service struct {
	repo       Repository
	embeddings embeddings.Provider
	maxEntries int
	window     time.Duration
	log        *logger.Logger
}

// Config bounds retrieval.
type Config struct {
	// MaxEntries caps matches per retrieval.
	MaxEntries int
	// Window excludes memories older than this.
	Window time.Duration
}

// NewService wires a memory service. Returns nil when either dependency is
// missing, which disables memory entirely.
func NewService(repo Repository, provider embeddings.Provider, cfg Config, log *logger.Logger) *Service {
	if repo == nil || provider == nil {
		return nil
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 2
	}
	log.Infow("Persona memory enabled", "embedder", provider.Name(), "max_entries", cfg.MaxEntries)
	return &Service{
		repo:       repo,
		embeddings: provider,
		maxEntries: cfg.MaxEntries,
		window:     cfg.Window,
		log:        log,
	}
}

// RetrieveFor embeds the situation and returns past lessons for the persona
// and symbol, rendered as a prompt block. Failures are swallowed: memory is
// advisory and must never fail a run.
func (s *Service) RetrieveFor(ctx context.Context, persona Persona, symbol, situation string) string {
	if s == nil {
		return ""
	}

	vec, err := s.embeddings.GenerateEmbedding(ctx, situation)
	if err != nil {
		s.log.Warnw("Memory retrieval skipped: embedding failed",
			"persona", persona, "symbol", symbol, "error", err)
		metrics.MemoryRetrievals.WithLabelValues(string(persona), "error").Inc()
		return ""
	}

	matches, err := s.repo.Retrieve(ctx, Query{
		Persona:   persona,
		Symbol:    symbol,
		Embedding: vec,
		Limit:     s.maxEntries,
		Window:    s.window,
	})
	if err != nil {
		s.log.Warnw("Memory retrieval failed",
			"persona", persona, "symbol", symbol, "error", err)
		metrics.MemoryRetrievals.WithLabelValues(string(persona), "error").Inc()
		return ""
	}
	if len(matches) == 0 {
		metrics.MemoryRetrievals.WithLabelValues(string(persona), "empty").Inc()
		return ""
	}
	metrics.MemoryRetrievals.WithLabelValues(string(persona), "hit").Inc()

	return Render(matches)
}

// RecordRecommendation embeds the situation and stores the lesson. Failures
// are logged and swallowed.
func (s *Service) RecordRecommendation(ctx context.Context, persona Persona, symbol, tradeDate, situation, recommendation string) {
	if s == nil {
		return
	}
	if strings.TrimSpace(recommendation) == "" {
		return
	}

	vec, err := s.embeddings.GenerateEmbedding(ctx, situation)
	if err != nil {
		s.log.Warnw("Memory record skipped: embedding failed",
			"persona", persona, "symbol", symbol, "error", err)
		return
	}

	entry := &Entry{
		ID:             uuid.New(),
		Persona:        persona,
		Symbol:         symbol,
		Situation:      situation,
		Recommendation: recommendation,
		Embedding:      pgvector.NewVector(vec),
		TradeDate:      tradeDate,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Record(ctx, entry); err != nil {
		s.log.Warnw("Memory record failed",
			"persona", persona, "symbol", symbol, "error", err)
	}
}

// Render formats matches as a numbered prompt block with human-readable ages.
func Render(matches []Match) string {
	var b strings.Builder
	b.WriteString("Past lessons from similar situations:\n")
	for i, m := range matches {
		fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, humanize.Time(m.CreatedAt), m.Recommendation)
	}
	return strings.TrimRight(b.String(), "\n")
}
