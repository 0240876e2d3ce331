package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradingagents/internal/domain/decision"
)

func TestExtractTokenSentinel(t *testing.T) {
	tests := []struct {
		name string
		text string
		want decision.Token
	}{
		{
			name: "buy sentinel",
			text: "After weighing everything...\n\nFINAL TRANSACTION PROPOSAL: **BUY**",
			want: decision.TokenBuy,
		},
		{
			name: "sell sentinel lowercase label",
			text: "final transaction proposal: **sell**",
			want: decision.TokenSell,
		},
		{
			name: "hold sentinel with inner spacing",
			text: "FINAL  TRANSACTION  PROPOSAL: ** HOLD **",
			want: decision.TokenHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractToken(tt.text))
		})
	}
}

func TestExtractTokenFallbackProse(t *testing.T) {
	padding := strings.Repeat("The committee discussed the position at length. ", 20)

	got := ExtractToken(padding + "Risks now dominate, therefore we sell.")
	assert.Equal(t, decision.TokenSell, got)
}

func TestExtractTokenWordBoundaries(t *testing.T) {
	// Inflected forms must not match the bare tokens.
	assert.Equal(t, decision.TokenNoDecision, ExtractToken("We are HOLDING our assessment."))
	assert.Equal(t, decision.TokenNoDecision, ExtractToken("Every BUYER should beware."))

	assert.Equal(t, decision.TokenHold, ExtractToken("Our stance: HOLD."))
}

func TestExtractTokenIgnoresEarlyMentions(t *testing.T) {
	// A token quoted at the start of long prose sits outside the closing
	// quarter and must not be picked up.
	early := "The trader said buy. " + strings.Repeat("Then the discussion moved on to macro conditions. ", 30)
	assert.Equal(t, decision.TokenNoDecision, ExtractToken(early))
}

func TestExtractTokenFallbackChain(t *testing.T) {
	riskJudge := "The market is uncertain."
	traderPlan := "My recommendation is clear: hold."
	investmentPlan := "Recommendation: Buy."

	// Risk judge is ambiguous, trader plan carries the token.
	assert.Equal(t, decision.TokenHold, ExtractToken(riskJudge, traderPlan, investmentPlan))

	// Both riskier texts ambiguous, investment plan decides.
	assert.Equal(t, decision.TokenBuy, ExtractToken(riskJudge, "No firm view.", investmentPlan))

	// Everything ambiguous.
	assert.Equal(t, decision.TokenNoDecision, ExtractToken(riskJudge, "No firm view.", "Unclear."))
}

func TestExtractTokenEmptyInputs(t *testing.T) {
	assert.Equal(t, decision.TokenNoDecision, ExtractToken("", "  ", ""))
	assert.Equal(t, decision.TokenNoDecision, ExtractToken())
}
