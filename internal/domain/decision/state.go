package decision

import (
	"strings"
)

// Speaker labels a debate participant.
type Speaker string

const (
	SpeakerBull    Speaker = "Bull"
	SpeakerBear    Speaker = "Bear"
	SpeakerRisky   Speaker = "Risky"
	SpeakerSafe    Speaker = "Safe"
	SpeakerNeutral Speaker = "Neutral"
)

// DebateEntry is one utterance in a debate transcript.
type DebateEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// RunState accumulates the outputs of all pipeline stages for one run. It is
// built strictly forward: a stage only reads fields written by earlier stages.
type RunState struct {
	Symbol    string    `json:"symbol"`
	TradeDate string    `json:"tradeDate"`
	ModelID   string    `json:"modelId"`
	Analysts  []Analyst `json:"analysts"`

	Context ContextBundle `json:"context"`

	AnalystReports map[Analyst]string `json:"analystReports"`

	InvestmentDebate []DebateEntry `json:"investmentDebate"`
	InvestmentJudge  string        `json:"investmentJudge"`
	InvestmentPlan   string        `json:"investmentPlan"`

	TraderPlan string `json:"traderPlan"`

	RiskDebate []DebateEntry `json:"riskDebate"`
	RiskJudge  string        `json:"riskJudge"`

	DecisionToken Token  `json:"decisionToken"`
	DebugPrompt   string `json:"debugPrompt,omitempty"`
}

// NewRunState seeds a state from a normalized payload.
func NewRunState(p *Payload, modelID string) *RunState {
	return &RunState{
		Symbol:         p.Symbol,
		TradeDate:      p.TradeDate,
		ModelID:        modelID,
		Analysts:       p.Analysts,
		Context:        p.Context,
		AnalystReports: make(map[Analyst]string, len(p.Analysts)),
	}
}

// Report returns the analyst's report, or an empty string when the analyst
// was not selected or failed.
func (s *RunState) Report(a Analyst) string {
	return s.AnalystReports[a]
}

// RenderDebate formats a transcript as alternating "Speaker: text" blocks
// separated by blank lines. Empty utterances are skipped.
func RenderDebate(entries []DebateEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		parts = append(parts, string(e.Speaker)+": "+e.Text)
	}
	return strings.Join(parts, "\n\n")
}

// LastUtterance returns the most recent text spoken by the given speaker, or
// an empty string if they have not spoken yet.
func LastUtterance(entries []DebateEntry, sp Speaker) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Speaker == sp {
			return entries[i].Text
		}
	}
	return ""
}

// Result freezes the state into the caller-facing decision.
func (s *RunState) Result() *Decision {
	return &Decision{
		Symbol:             s.Symbol,
		TradeDate:          s.TradeDate,
		Decision:           s.DecisionToken,
		FinalTradeDecision: s.RiskJudge,
		InvestmentPlan:     s.InvestmentPlan,
		TraderPlan:         s.TraderPlan,
		InvestmentJudge:    s.InvestmentJudge,
		RiskJudge:          s.RiskJudge,
		MarketReport:       s.Report(AnalystMarket),
		SentimentReport:    s.Report(AnalystSocial),
		NewsReport:         s.Report(AnalystNews),
		FundamentalsReport: s.Report(AnalystFundamental),
		ModelID:            s.ModelID,
		Analysts:           s.Analysts,
		DebugPrompt:        s.DebugPrompt,
	}
}
