package strategy

import "StockSentinel/internal/model"

// Rule is the composite bullish condition applied to every indicator vector.
type Rule struct {
	TrendWindows []int   // price must be above each of these moving averages
	RSILower     float64 // inclusive
	RSIUpper     float64 // exclusive
}

// DefaultRule is the analyst heuristic: price above MA200, MA50 and MA8,
// MACD above its signal line and 50 <= RSI < 70.
var DefaultRule = Rule{
	TrendWindows: []int{200, 50, 8},
	RSILower:     50,
	RSIUpper:     70,
}

// Classify reports whether vec meets every condition of rule.
// A missing moving average fails its comparison.
func Classify(vec *model.IndicatorVector, rule Rule) bool {
	return aboveAll(vec, rule.TrendWindows) &&
		vec.MACD > vec.Signal &&
		vec.RSI >= rule.RSILower && vec.RSI < rule.RSIUpper
}

func aboveAll(vec *model.IndicatorVector, windows []int) bool {
	for _, w := range windows {
		ma, ok := vec.MA(w)
		if !ok || !(vec.CurrentPrice > ma) {
			return false
		}
	}
	return true
}

// RSITier labels an RSI value for rendering.
type RSITier string

const (
	RSIWeak       RSITier = "weak"       // below the lower bound
	RSIBullish    RSITier = "bullish"    // inside [lower, upper)
	RSIOverbought RSITier = "overbought" // at or above the upper bound
)

// TierRSI maps an RSI value to its tier under rule.
func TierRSI(rsi float64, rule Rule) RSITier {
	switch {
	case rsi >= rule.RSIUpper:
		return RSIOverbought
	case rsi >= rule.RSILower:
		return RSIBullish
	default:
		return RSIWeak
	}
}
