// Package engine runs the multi-agent decision pipeline: parallel analysts,
// the bull/bear investment debate, the trader, the three-way risk debate,
// decision extraction and persistence.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"tradingagents/internal/adapters/ai"
	"tradingagents/internal/domain/decision"
	"tradingagents/internal/domain/memory"
	"tradingagents/internal/metrics"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

const orchestratorVersion = "0.1.0"

// Dispatcher is the slice of the model dispatcher the engine depends on.
type Dispatcher interface {
	Allows(modelID string) bool
	Dispatch(ctx context.Context, modelID string, messages []ai.Message, opts ai.DispatchOptions) (string, error)
}

// EventPublisher announces completed decisions. Implementations must not
// fail the run; publish errors are logged and dropped.
type EventPublisher interface {
	PublishDecision(ctx context.Context, d *decision.Decision, runID string) error
}

// Config bounds a run.
type Config struct {
	DefaultModel       string
	InvestDebateRounds int
	RiskDebateRounds   int
	Temperature        float64
	MaxTokens          int
	// RetryAttempts is the number of extra attempts after a transient
	// dispatch failure.
	RetryAttempts  int
	RetryBaseDelay time.Duration
	LogsPath       string
}

// Engine orchestrates one decision run end to end.
type Engine struct {
	dispatcher Dispatcher
	memory     *memory.Service
	repo       decision.Repository
	events     EventPublisher
	cfg        Config
	log        *logger.Logger
}

// New assembles an engine. repo and events may be nil; memory may be a nil
// service. All three degrade to no-ops.
func New(dispatcher Dispatcher, mem *memory.Service, repo decision.Repository, events EventPublisher, cfg Config, log *logger.Logger) *Engine {
	if cfg.InvestDebateRounds < 1 {
		cfg.InvestDebateRounds = 1
	}
	if cfg.RiskDebateRounds < 1 {
		cfg.RiskDebateRounds = 1
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	return &Engine{
		dispatcher: dispatcher,
		memory:     mem,
		repo:       repo,
		events:     events,
		cfg:        cfg,
		log:        log,
	}
}

// RunDecision executes the full pipeline for one payload and returns the
// assembled decision. The run is persisted only when it completes; a
// cancelled or failed run leaves no rows behind.
func (e *Engine) RunDecision(ctx context.Context, payload *decision.Payload) (*decision.Decision, error) {
	if err := payload.Normalize(); err != nil {
		return nil, err
	}

	modelID := payload.ModelID
	if modelID == "" {
		modelID = e.cfg.DefaultModel
	}
	if !e.dispatcher.Allows(modelID) {
		return nil, errors.Wrapf(errors.ErrConfig, "model %q is not in the allow list", modelID)
	}

	runID := uuid.New().String()
	state := decision.NewRunState(payload, modelID)
	log := e.log.With("run_id", runID, "symbol", state.Symbol, "trade_date", state.TradeDate, "model", modelID)

	log.Infow("Starting decision run", "analysts", state.Analysts)
	started := time.Now()

	if err := e.runAnalysts(ctx, state, log); err != nil {
		return nil, e.failRun(err, log)
	}
	if err := e.runInvestmentDebate(ctx, state, log); err != nil {
		return nil, e.failRun(err, log)
	}
	if err := e.runTrader(ctx, state, log); err != nil {
		return nil, e.failRun(err, log)
	}
	if err := e.runRiskDebate(ctx, state, log); err != nil {
		return nil, e.failRun(err, log)
	}

	state.DecisionToken = ExtractToken(state.RiskJudge, state.TraderPlan, state.InvestmentPlan)
	metrics.Decisions.WithLabelValues(string(state.DecisionToken)).Inc()

	result := state.Result()

	if err := e.persist(ctx, runID, state); err != nil {
		return nil, e.failRun(err, log)
	}
	e.recordMemories(ctx, state)
	e.publish(ctx, result, runID)

	log.Infow("Decision run completed",
		"decision", state.DecisionToken,
		"duration", time.Since(started).String())
	return result, nil
}

func (e *Engine) failRun(err error, log *logger.Logger) error {
	kind := errors.KindOf(err)
	metrics.RunFailures.WithLabelValues(string(kind)).Inc()
	log.Errorw("Decision run failed", "kind", kind, "error", err)
	return err
}

// dispatch runs one agent call with stage metrics and transient retry.
func (e *Engine) dispatch(ctx context.Context, stage string, state *decision.RunState, p Prompt) (string, error) {
	defer metrics.ObserveStage(stage, time.Now())
	state.DebugPrompt = p.System + "\n\n---\n\n" + p.User

	opts := ai.DispatchOptions{Temperature: &e.cfg.Temperature, MaxTokens: e.cfg.MaxTokens}

	var lastErr error
	for attempt := 0; attempt <= e.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := e.cfg.RetryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return "", errors.Wrap(errors.ErrCancelled, "run cancelled during retry backoff")
			case <-time.After(delay):
			}
		}

		text, err := e.dispatcher.Dispatch(ctx, state.ModelID, p.Messages(), opts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.Retryable(err) {
			break
		}
		e.log.Warnw("Transient dispatch failure, retrying",
			"stage", stage, "attempt", attempt+1, "error", err)
	}
	return "", lastErr
}

func (e *Engine) persist(ctx context.Context, runID string, state *decision.RunState) error {
	if e.repo == nil {
		return nil
	}

	statePayload, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "marshal run state")
	}

	hash := sha256.Sum256([]byte(state.DebugPrompt))
	promptHash := hex.EncodeToString(hash[:])
	now := time.Now().UTC()

	run := &decision.Run{
		ID:                  uuid.New(),
		RunID:               runID,
		Symbol:              state.Symbol,
		TradeDate:           state.TradeDate,
		Model:               state.ModelID,
		PromptHash:          promptHash,
		OrchestratorVersion: orchestratorVersion,
		LogsPath:            e.cfg.LogsPath,
		CreatedAt:           now,
	}
	rec := &decision.Record{
		ID:                  uuid.New(),
		RunID:               runID,
		Symbol:              state.Symbol,
		TradeDate:           state.TradeDate,
		DecisionToken:       state.DecisionToken,
		InvestmentPlan:      state.InvestmentPlan,
		TraderPlan:          state.TraderPlan,
		RiskJudge:           state.RiskJudge,
		Payload:             statePayload,
		RawText:             state.RiskJudge,
		Model:               state.ModelID,
		PromptHash:          promptHash,
		OrchestratorVersion: orchestratorVersion,
		CreatedAt:           now,
	}

	if err := e.repo.SaveRun(ctx, run, rec); err != nil {
		return errors.Wrap(err, "persist run")
	}
	return nil
}

// situation is the context the engine embeds for memory retrieval and
// recording: the four analyst reports in a stable order.
func (e *Engine) situation(state *decision.RunState) string {
	return join(
		state.Report(decision.AnalystMarket),
		state.Report(decision.AnalystSocial),
		state.Report(decision.AnalystNews),
		state.Report(decision.AnalystFundamental),
	)
}

func (e *Engine) recordMemories(ctx context.Context, state *decision.RunState) {
	situation := e.situation(state)
	lessons := []struct {
		persona memory.Persona
		text    string
	}{
		{memory.PersonaBull, decision.LastUtterance(state.InvestmentDebate, decision.SpeakerBull)},
		{memory.PersonaBear, decision.LastUtterance(state.InvestmentDebate, decision.SpeakerBear)},
		{memory.PersonaManager, state.InvestmentPlan},
		{memory.PersonaTrader, state.TraderPlan},
		{memory.PersonaRiskJudge, state.RiskJudge},
	}
	for _, l := range lessons {
		e.memory.RecordRecommendation(ctx, l.persona, state.Symbol, state.TradeDate, situation, l.text)
	}
}

func (e *Engine) publish(ctx context.Context, d *decision.Decision, runID string) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishDecision(ctx, d, runID); err != nil {
		e.log.Warnw("Decision event publish failed", "run_id", runID, "error", err)
	}
}
