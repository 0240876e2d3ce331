package engine

import (
	"context"
	"strings"

	"tradingagents/internal/domain/decision"
	"tradingagents/internal/domain/memory"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

// runTrader turns the investment plan into a concrete trading plan. The
// sentinel trailer the prompt demands is not validated here; the extractor
// copes with its absence.
func (e *Engine) runTrader(ctx context.Context, state *decision.RunState, log *logger.Logger) error {
	traderMemories := e.memory.RetrieveFor(ctx, memory.PersonaTrader, state.Symbol, e.situation(state))

	plan, err := e.dispatch(ctx, "trader", state, TraderPrompt(state, traderMemories))
	if err != nil {
		return errors.Wrap(err, "trader")
	}
	if strings.TrimSpace(plan) == "" {
		return errors.Wrap(errors.ErrPermanent, "trader returned an empty plan")
	}

	state.TraderPlan = plan
	log.Debugw("Trader plan produced", "length", len(plan))
	return nil
}
