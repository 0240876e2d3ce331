package engine

import (
	"context"
	"strings"

	"tradingagents/internal/domain/decision"
	"tradingagents/internal/domain/memory"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

// runInvestmentDebate alternates bull and bear over the configured number of
// rounds, bull first, then lets the research manager adjudicate. The verdict
// is stored as both the investment plan and the judge text.
func (e *Engine) runInvestmentDebate(ctx context.Context, state *decision.RunState, log *logger.Logger) error {
	situation := e.situation(state)

	for round := 1; round <= e.cfg.InvestDebateRounds; round++ {
		bullMemories := e.memory.RetrieveFor(ctx, memory.PersonaBull, state.Symbol, situation)
		text, err := e.dispatch(ctx, "bull_researcher", state, BullPrompt(state, bullMemories))
		if err != nil {
			return errors.Wrapf(err, "bull researcher, round %d", round)
		}
		state.InvestmentDebate = append(state.InvestmentDebate, decision.DebateEntry{
			Speaker: decision.SpeakerBull,
			Text:    text,
		})

		bearMemories := e.memory.RetrieveFor(ctx, memory.PersonaBear, state.Symbol, situation)
		text, err = e.dispatch(ctx, "bear_researcher", state, BearPrompt(state, bearMemories))
		if err != nil {
			return errors.Wrapf(err, "bear researcher, round %d", round)
		}
		state.InvestmentDebate = append(state.InvestmentDebate, decision.DebateEntry{
			Speaker: decision.SpeakerBear,
			Text:    text,
		})
	}

	managerMemories := e.memory.RetrieveFor(ctx, memory.PersonaManager, state.Symbol, situation)
	verdict, err := e.dispatch(ctx, "research_manager", state, InvestJudgePrompt(state, managerMemories))
	if err != nil {
		return errors.Wrap(err, "research manager")
	}
	if strings.TrimSpace(verdict) == "" {
		return errors.Wrap(errors.ErrPermanent, "research manager returned an empty verdict")
	}

	state.InvestmentJudge = verdict
	state.InvestmentPlan = verdict
	log.Debugw("Investment debate completed",
		"rounds", e.cfg.InvestDebateRounds, "utterances", len(state.InvestmentDebate))
	return nil
}
