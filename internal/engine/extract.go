package engine

import (
	"regexp"
	"strings"

	"tradingagents/internal/domain/decision"
)

var (
	sentinelPattern = regexp.MustCompile(`(?i)FINAL\s+TRANSACTION\s+PROPOSAL:\s*\*\*\s*(BUY|SELL|HOLD)\s*\*\*`)
	tokenPattern    = regexp.MustCompile(`(?i)\b(BUY|SELL|HOLD)\b`)
)

// ExtractToken parses the decision token out of the terminal texts, most
// authoritative first (risk judge, then trader plan, then investment plan).
// Each text is checked for the explicit sentinel, then for an isolated
// decision word in its closing quarter. Word boundaries keep "HOLDING" from
// matching HOLD and "BUYER" from matching BUY.
func ExtractToken(texts ...string) decision.Token {
	for _, text := range texts {
		if tok, ok := extractFrom(text); ok {
			return tok
		}
	}
	return decision.TokenNoDecision
}

func extractFrom(text string) (decision.Token, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	if m := sentinelPattern.FindStringSubmatch(text); m != nil {
		return decision.Token(strings.ToUpper(m[1])), true
	}

	// The verdict, when present without the sentinel, sits at the end of
	// the prose; only the closing quarter is scanned to avoid picking up
	// tokens quoted from earlier stages. Short texts are scanned whole,
	// otherwise a trailing verdict could be truncated mid-word.
	window := len(text) / 4
	if window < minScanWindow {
		window = minScanWindow
	}
	if window > len(text) {
		window = len(text)
	}
	tail := text[len(text)-window:]
	if m := tokenPattern.FindStringSubmatch(tail); m != nil {
		return decision.Token(strings.ToUpper(m[1])), true
	}

	return "", false
}

const minScanWindow = 200
