package engine

import (
	"context"
	"sync"

	"tradingagents/internal/domain/decision"
	"tradingagents/internal/engine/technicals"
	"tradingagents/pkg/errors"
	"tradingagents/pkg/logger"
)

// runAnalysts fans the selected analysts out in parallel and collects their
// reports into the state. A failed analyst yields an empty report and the
// run continues; the stage fails only when every analyst failed or the
// context was cancelled.
func (e *Engine) runAnalysts(ctx context.Context, state *decision.RunState, log *logger.Logger) error {
	type analystResult struct {
		analyst decision.Analyst
		report  string
		err     error
	}

	// Computed once up front: the market prompt builder needs it and the
	// fan-out goroutines must not race on shared work.
	computedTechnicals := ""
	if state.Context.MarketTechnicalReport == "" {
		computedTechnicals = technicals.Snapshot(state.Context.MarketPriceHistory)
	}

	results := make([]analystResult, len(state.Analysts))
	var wg sync.WaitGroup
	for i, analyst := range state.Analysts {
		wg.Add(1)
		go func(i int, analyst decision.Analyst) {
			defer wg.Done()

			var p Prompt
			switch analyst {
			case decision.AnalystMarket:
				p = MarketAnalystPrompt(state, computedTechnicals)
			case decision.AnalystSocial:
				p = SocialAnalystPrompt(state)
			case decision.AnalystNews:
				p = NewsAnalystPrompt(state)
			case decision.AnalystFundamental:
				p = FundamentalsAnalystPrompt(state)
			}

			// Stage-local state copy: DebugPrompt writes from parallel
			// analysts must not race on the shared state.
			report, err := e.dispatchAnalyst(ctx, string(analyst)+"_analyst", state.ModelID, p)
			results[i] = analystResult{analyst: analyst, report: report, err: err}
		}(i, analyst)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCancelled, "run cancelled during analyst stage")
	}

	failures := 0
	for _, r := range results {
		if r.err != nil {
			if errors.KindOf(r.err) == errors.KindCancelled {
				return r.err
			}
			failures++
			log.Warnw("Analyst failed, continuing with empty report",
				"analyst", r.analyst, "error", r.err)
			state.AnalystReports[r.analyst] = ""
			continue
		}
		state.AnalystReports[r.analyst] = r.report
	}

	if failures == len(state.Analysts) {
		return errors.Wrap(errors.ErrPermanent, "all analysts failed")
	}
	return nil
}

// dispatchAnalyst is the fan-out variant of dispatch: same retry policy,
// but it leaves the shared state untouched.
func (e *Engine) dispatchAnalyst(ctx context.Context, stage, modelID string, p Prompt) (string, error) {
	scratch := &decision.RunState{ModelID: modelID}
	text, err := e.dispatch(ctx, stage, scratch, p)
	if err != nil {
		if errors.KindOf(err) == errors.KindCancelled {
			return "", err
		}
		return "", errors.Wrapf(errors.ErrPartialAnalyst, "%s: %v", stage, err)
	}
	return text, nil
}
