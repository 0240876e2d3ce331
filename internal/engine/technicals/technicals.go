// Package technicals derives an indicator snapshot from raw price history
// when the payload carries no precomputed technical report. The input is the
// free-form price-history block; only CSV-shaped and JSON-shaped histories
// are recognized, anything else yields an empty snapshot.
package technicals

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/markcheno/go-talib"
)

// Candle is one OHLCV bar parsed from the price history.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

const minBars = 35 // enough history for MACD(12,26,9)

// Snapshot parses the history and renders an indicator summary. Returns an
// empty string when the history cannot be parsed or is too short; callers
// fall back to the "(none)" prompt placeholder.
func Snapshot(priceHistory string) string {
	candles := Parse(priceHistory)
	if len(candles) < minBars {
		return ""
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	last := closes[len(closes)-1]

	var b strings.Builder
	b.WriteString("Computed technical indicators (derived from price history):\n")
	fmt.Fprintf(&b, "- Last close: %.2f\n", last)

	if sma20 := lastValid(talib.Sma(closes, 20)); !math.IsNaN(sma20) {
		fmt.Fprintf(&b, "- SMA(20): %.2f (price %s)\n", sma20, aboveBelow(last, sma20))
	}
	if sma50 := lastValid(talib.Sma(closes, 50)); !math.IsNaN(sma50) {
		fmt.Fprintf(&b, "- SMA(50): %.2f (price %s)\n", sma50, aboveBelow(last, sma50))
	}

	if rsi := lastValid(talib.Rsi(closes, 14)); !math.IsNaN(rsi) {
		signal := "neutral"
		switch {
		case rsi < 30:
			signal = "oversold"
		case rsi > 70:
			signal = "overbought"
		case rsi > 50:
			signal = "bullish"
		default:
			signal = "bearish"
		}
		fmt.Fprintf(&b, "- RSI(14): %.1f (%s)\n", rsi, signal)
	}

	macdLine, signalLine, hist := talib.Macd(closes, 12, 26, 9)
	if m := lastValid(macdLine); !math.IsNaN(m) {
		s := lastValid(signalLine)
		h := lastValid(hist)
		direction := "bearish"
		if m > s {
			direction = "bullish"
		}
		fmt.Fprintf(&b, "- MACD(12,26,9): line %.3f, signal %.3f, histogram %.3f (%s)\n", m, s, h, direction)
	}

	return strings.TrimRight(b.String(), "\n")
}

// Parse extracts candles from a JSON array or CSV-shaped history. Rows it
// cannot parse are skipped.
func Parse(priceHistory string) []Candle {
	trimmed := strings.TrimSpace(priceHistory)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var candles []Candle
		if err := json.Unmarshal([]byte(trimmed), &candles); err == nil {
			return candles
		}
		return nil
	}

	var candles []Candle
	for _, line := range strings.Split(trimmed, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) < 5 {
			continue
		}
		open, err1 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		high, err2 := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		low, err3 := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		closePx, err4 := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue // header or malformed row
		}
		c := Candle{
			Date:  strings.TrimSpace(fields[0]),
			Open:  open,
			High:  high,
			Low:   low,
			Close: closePx,
		}
		if len(fields) > 5 {
			c.Volume, _ = strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
		}
		candles = append(candles, c)
	}
	return candles
}

func lastValid(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) && values[i] != 0 {
			return values[i]
		}
	}
	return math.NaN()
}

func aboveBelow(price, ref float64) string {
	if price >= ref {
		return "above"
	}
	return "below"
}
