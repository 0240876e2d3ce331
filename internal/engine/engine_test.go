package engine

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingagents/internal/adapters/ai"
	"tradingagents/internal/domain/decision"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

// stubDispatcher satisfies Dispatcher backed by the deterministic mock
// client, with an optional intercept hook for failure injection.
type stubDispatcher struct {
	mock     ai.MockClient
	denyAll  bool
	mu       sync.Mutex
	systems  []string
	interept func(call int, system string) (string, error, bool)
}

func (d *stubDispatcher) Allows(string) bool { return !d.denyAll }

func (d *stubDispatcher) Dispatch(ctx context.Context, modelID string, messages []ai.Message, _ ai.DispatchOptions) (string, error) {
	system := ""
	for _, m := range messages {
		if m.Role == ai.RoleSystem {
			system = m.Content
			break
		}
	}

	d.mu.Lock()
	d.systems = append(d.systems, system)
	call := len(d.systems)
	hook := d.interept
	d.mu.Unlock()

	if hook != nil {
		if text, err, handled := hook(call, system); handled {
			return text, err
		}
	}

	completion, err := d.mock.Complete(ctx, ai.CompletionRequest{Model: modelID, Messages: messages})
	if err != nil {
		return "", err
	}
	return completion.Text, nil
}

func (d *stubDispatcher) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.systems)
}

type fakeRepo struct {
	mu   sync.Mutex
	runs []*decision.Run
	recs []*decision.Record
}

func (r *fakeRepo) SaveRun(_ context.Context, run *decision.Run, rec *decision.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	r.recs = append(r.recs, rec)
	return nil
}

func (r *fakeRepo) GetByRunID(_ context.Context, runID string) (*decision.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recs {
		if rec.RunID == runID {
			return rec, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (r *fakeRepo) ListBySymbol(_ context.Context, symbol string, limit int, _ *time.Time) (*decision.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	page := &decision.Page{}
	for _, rec := range r.recs {
		if rec.Symbol == symbol {
			page.Items = append(page.Items, rec)
		}
	}
	return page, nil
}

func (r *fakeRepo) RecordOutcome(context.Context, *decision.Outcome) error { return nil }

func testPayload() *decision.Payload {
	return &decision.Payload{
		Symbol:    "AAPL",
		TradeDate: "2025-01-10",
		ModelID:   "gpt-4o-mini",
		Context: decision.ContextBundle{
			MarketTechnicalReport: "RSI at 64, price above SMA(50).",
			NewsCompany:           "Quarterly results beat expectations.",
			SocialStockNews:       "Chatter skews positive.",
			FundamentalsSummary:   "Stable margins.",
		},
	}
}

func newTestEngine(d Dispatcher, repo decision.Repository, cfg Config) *Engine {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o-mini"
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Millisecond
	}
	return New(d, nil, repo, nil, cfg, logger.Get())
}

func TestRunDecisionHappyPathBuy(t *testing.T) {
	stub := &stubDispatcher{}
	repo := &fakeRepo{}
	eng := newTestEngine(stub, repo, Config{InvestDebateRounds: 1, RiskDebateRounds: 1})

	result, err := eng.RunDecision(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Equal(t, decision.TokenBuy, result.Decision)
	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, decision.AllAnalysts(), result.Analysts)
	assert.NotEmpty(t, result.InvestmentPlan)
	assert.Equal(t, result.InvestmentPlan, result.InvestmentJudge)
	assert.NotEmpty(t, result.TraderPlan)
	assert.Equal(t, result.RiskJudge, result.FinalTradeDecision)

	// 4 analysts + bull + bear + manager + trader + 3 risk + judge.
	assert.Equal(t, 12, stub.calls())

	require.Len(t, repo.runs, 1)
	require.Len(t, repo.recs, 1)
	rec := repo.recs[0]
	assert.Equal(t, decision.TokenBuy, rec.DecisionToken)
	assert.Equal(t, rec.RunID, repo.runs[0].RunID)
	assert.Equal(t, rec.PromptHash, repo.runs[0].PromptHash)

	var persisted decision.RunState
	require.NoError(t, json.Unmarshal(rec.Payload, &persisted))
	assert.Equal(t, result.Decision, persisted.DecisionToken)
	assert.Len(t, persisted.AnalystReports, 4)
}

func TestRunDecisionDebateOrdering(t *testing.T) {
	stub := &stubDispatcher{}
	repo := &fakeRepo{}
	eng := newTestEngine(stub, repo, Config{InvestDebateRounds: 2, RiskDebateRounds: 2})

	result, err := eng.RunDecision(context.Background(), testPayload())
	require.NoError(t, err)
	require.Len(t, repo.recs, 1)

	var state decision.RunState
	require.NoError(t, json.Unmarshal(repo.recs[0].Payload, &state))

	require.Len(t, state.InvestmentDebate, 4)
	wantInvest := []decision.Speaker{
		decision.SpeakerBull, decision.SpeakerBear,
		decision.SpeakerBull, decision.SpeakerBear,
	}
	for i, e := range state.InvestmentDebate {
		assert.Equal(t, wantInvest[i], e.Speaker, "investment utterance %d", i)
	}

	require.Len(t, state.RiskDebate, 6)
	wantRisk := []decision.Speaker{
		decision.SpeakerRisky, decision.SpeakerSafe, decision.SpeakerNeutral,
		decision.SpeakerRisky, decision.SpeakerSafe, decision.SpeakerNeutral,
	}
	for i, e := range state.RiskDebate {
		assert.Equal(t, wantRisk[i], e.Speaker, "risk utterance %d", i)
	}

	assert.Equal(t, decision.TokenBuy, result.Decision)
}

func TestRunDecisionPartialAnalyst(t *testing.T) {
	stub := &stubDispatcher{}
	stub.interept = func(_ int, system string) (string, error, bool) {
		if strings.Contains(system, "news researcher") {
			return "", errors.Wrap(errors.ErrPermanent, "upstream 400"), true
		}
		return "", nil, false
	}
	repo := &fakeRepo{}
	eng := newTestEngine(stub, repo, Config{InvestDebateRounds: 1, RiskDebateRounds: 1})

	result, err := eng.RunDecision(context.Background(), testPayload())
	require.NoError(t, err)

	assert.Empty(t, result.NewsReport)
	assert.NotEmpty(t, result.MarketReport)
	assert.Equal(t, decision.TokenBuy, result.Decision)
	require.Len(t, repo.recs, 1)
}

func TestRunDecisionAllAnalystsFailed(t *testing.T) {
	stub := &stubDispatcher{}
	stub.interept = func(call int, system string) (string, error, bool) {
		return "", errors.Wrap(errors.ErrPermanent, "upstream 400"), true
	}
	repo := &fakeRepo{}
	eng := newTestEngine(stub, repo, Config{InvestDebateRounds: 1, RiskDebateRounds: 1})

	_, err := eng.RunDecision(context.Background(), testPayload())
	require.Error(t, err)
	assert.Equal(t, errors.KindPermanent, errors.KindOf(err))
	assert.Empty(t, repo.recs)
}

func TestRunDecisionAllowListMiss(t *testing.T) {
	stub := &stubDispatcher{denyAll: true}
	repo := &fakeRepo{}
	eng := newTestEngine(stub, repo, Config{InvestDebateRounds: 1, RiskDebateRounds: 1})

	payload := testPayload()
	payload.ModelID = "unknown-x"

	_, err := eng.RunDecision(context.Background(), payload)
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
	assert.Zero(t, stub.calls())
	assert.Empty(t, repo.recs)
	assert.Empty(t, repo.runs)
}

func TestRunDecisionCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stub := &stubDispatcher{}
	stub.interept = func(call int, _ string) (string, error, bool) {
		// Cancel mid-debate: after the analysts and the first bull turn.
		if call == 6 {
			cancel()
			return "", errors.Wrap(errors.ErrCancelled, "caller cancelled"), true
		}
		return "", nil, false
	}
	repo := &fakeRepo{}
	eng := newTestEngine(stub, repo, Config{InvestDebateRounds: 1, RiskDebateRounds: 1})

	_, err := eng.RunDecision(ctx, testPayload())
	require.Error(t, err)
	assert.Equal(t, errors.KindCancelled, errors.KindOf(err))
	assert.Empty(t, repo.runs)
	assert.Empty(t, repo.recs)
}

func TestRunDecisionRetriesTransientFailures(t *testing.T) {
	stub := &stubDispatcher{}
	var failed bool
	stub.interept = func(_ int, system string) (string, error, bool) {
		// First trader attempt fails transiently, the retry succeeds.
		if strings.Contains(system, "trading agent") && !failed {
			failed = true
			return "", errors.Wrap(errors.ErrTransient, "upstream 503"), true
		}
		return "", nil, false
	}
	repo := &fakeRepo{}
	eng := newTestEngine(stub, repo, Config{
		InvestDebateRounds: 1,
		RiskDebateRounds:   1,
		RetryAttempts:      2,
		RetryBaseDelay:     time.Millisecond,
	})

	result, err := eng.RunDecision(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, decision.TokenBuy, result.Decision)
	assert.True(t, failed)
}

func TestRunDecisionNoRepositoryStillReturnsDecision(t *testing.T) {
	stub := &stubDispatcher{}
	eng := newTestEngine(stub, nil, Config{InvestDebateRounds: 1, RiskDebateRounds: 1})

	result, err := eng.RunDecision(context.Background(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, decision.TokenBuy, result.Decision)
}

func TestRunDecisionInvalidPayload(t *testing.T) {
	stub := &stubDispatcher{}
	eng := newTestEngine(stub, nil, Config{InvestDebateRounds: 1, RiskDebateRounds: 1})

	_, err := eng.RunDecision(context.Background(), &decision.Payload{Symbol: "AAPL", TradeDate: "not-a-date"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	assert.Zero(t, stub.calls())
}
