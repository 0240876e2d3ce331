package engine

import (
	"context"
	"strings"

	"tradingagents/internal/domain/decision"
	"tradingagents/internal/domain/memory"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

// runRiskDebate cycles risky, safe and neutral analysts over the configured
// number of rounds, then lets the portfolio manager adjudicate. The verdict
// is the source of truth for the final decision token.
func (e *Engine) runRiskDebate(ctx context.Context, state *decision.RunState, log *logger.Logger) error {
	turns := []struct {
		stage   string
		speaker decision.Speaker
		prompt  func(*decision.RunState) Prompt
	}{
		{"risky_analyst", decision.SpeakerRisky, RiskyPrompt},
		{"safe_analyst", decision.SpeakerSafe, SafePrompt},
		{"neutral_analyst", decision.SpeakerNeutral, NeutralPrompt},
	}

	for round := 1; round <= e.cfg.RiskDebateRounds; round++ {
		for _, turn := range turns {
			text, err := e.dispatch(ctx, turn.stage, state, turn.prompt(state))
			if err != nil {
				return errors.Wrapf(err, "%s, round %d", turn.stage, round)
			}
			state.RiskDebate = append(state.RiskDebate, decision.DebateEntry{
				Speaker: turn.speaker,
				Text:    text,
			})
		}
	}

	judgeMemories := e.memory.RetrieveFor(ctx, memory.PersonaRiskJudge, state.Symbol, e.situation(state))
	verdict, err := e.dispatch(ctx, "risk_judge", state, RiskJudgePrompt(state, judgeMemories))
	if err != nil {
		return errors.Wrap(err, "risk judge")
	}
	if strings.TrimSpace(verdict) == "" {
		return errors.Wrap(errors.ErrPermanent, "risk judge returned an empty verdict")
	}

	state.RiskJudge = verdict
	log.Debugw("Risk debate completed",
		"rounds", e.cfg.RiskDebateRounds, "utterances", len(state.RiskDebate))
	return nil
}
