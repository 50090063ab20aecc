package calculator

import "fmt"

const (
	MACDFastSpan   = 12
	MACDSlowSpan   = 26
	MACDSignalSpan = 9
)

// SpanAlpha is the smoothing factor of an EMA with the given span.
func SpanAlpha(span int) float64 {
	return 2.0 / float64(span+1)
}

// WilderAlpha is the smoothing factor of Wilder's moving average.
func WilderAlpha(period int) float64 {
	return 1.0 / float64(period)
}

// EMASeries returns the recursive exponential moving average of values:
// ema[0] = values[0], ema[t] = alpha*values[t] + (1-alpha)*ema[t-1].
func EMASeries(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// CalculateMACD returns the MACD line and its signal line at the final close.
func CalculateMACD(closes []float64) (macd, signal float64, err error) {
	if len(closes) == 0 {
		return 0, 0, fmt.Errorf("macd: %w", ErrInsufficientData)
	}
	fast := EMASeries(closes, SpanAlpha(MACDFastSpan))
	slow := EMASeries(closes, SpanAlpha(MACDSlowSpan))
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	sig := EMASeries(line, SpanAlpha(MACDSignalSpan))
	last := len(closes) - 1
	return line[last], sig[last], nil
}
