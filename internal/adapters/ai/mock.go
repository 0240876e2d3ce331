package ai

import (
	"context"
	"strings"
	"time"
)

// MockClient is a deterministic ChatClient stub used for tests and
// end-to-end smoke runs. It never performs network I/O.
type MockClient struct {
	// Fixture, when set, is returned for every completion.
	Fixture string

	// Delay simulates end-to-end latency per call. Values below one second
	// are ignored.
	Delay time.Duration
}

// Ensure MockClient implements ChatClient
var _ ChatClient = (*MockClient)(nil)

// Complete returns canned text. Without an explicit fixture the response is
// picked from the persona hinted at by the system prompt, so a full mock run
// still exercises every stage and yields an extractable decision.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if m.Delay >= time.Second {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Fixture != "" {
		return &Completion{Text: m.Fixture, Usage: mockUsage}, nil
	}

	var system string
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			system = strings.ToLower(msg.Content)
			break
		}
	}

	for _, fixture := range mockFixtures {
		if strings.Contains(system, fixture.hint) {
			return &Completion{Text: fixture.text, Usage: mockUsage}, nil
		}
	}
	return &Completion{Text: "Mock analysis: no notable signal.", Usage: mockUsage}, nil
}

var mockUsage = Usage{PromptTokens: 128, CompletionTokens: 64, TotalTokens: 192}

// Ordering matters: more specific hints first.
var mockFixtures = []struct {
	hint string
	text string
}{
	{"portfolio manager", "Weighing all three risk perspectives, the upside outweighs the drawdown scenarios.\n\nFINAL TRANSACTION PROPOSAL: **BUY**"},
	{"risky risk analyst", "Mock risky stance: the asymmetric upside justifies an aggressive entry here."},
	{"safe risk analyst", "Mock safe stance: position sizing should stay conservative until volatility cools."},
	{"neutral risk analyst", "Mock neutral stance: both sides overstate their case; a scaled entry balances them."},
	{"research manager", "The bull case is better evidenced than the bear case. Recommendation: Buy, with a staged entry."},
	{"bull researcher", "Mock bull argument: momentum, fundamentals and sentiment all point up."},
	{"bear researcher", "Mock bear argument: valuation is stretched and the news flow is deteriorating."},
	{"trading agent", "Mock trade plan: enter one third now, add on pullbacks.\n\nFINAL TRANSACTION PROPOSAL: **BUY**"},
	{"market researcher", "Mock market report: price is above the 50-day average with RSI in the mid 60s.\n\n| Indicator | Reading |\n|---|---|\n| RSI(14) | 64 |"},
	{"news researcher", "Mock news report: coverage is net positive this week."},
	{"social media", "Mock sentiment report: retail chatter skews bullish."},
	{"fundamentals researcher", "Mock fundamentals report: revenue growth steady, margins stable."},
}
