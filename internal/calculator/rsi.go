package calculator

import (
	"errors"
	"fmt"
)

// RSIPeriod is the Wilder window of the relative strength index.
const RSIPeriod = 14

// CalculateRSI computes the Wilder-smoothed RSI of closes at the final close.
// Average gain and loss are exponential averages with alpha = 1/period seeded by the
// first delta. A zero average loss leaves RS undefined and returns ErrUndefined.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < 2 {
		return 0, fmt.Errorf("rsi needs 2 closes, got %d: %w", len(closes), ErrInsufficientData)
	}

	alpha := WilderAlpha(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
			continue
		}
		avgGain = alpha*gain + (1-alpha)*avgGain
		avgLoss = alpha*loss + (1-alpha)*avgLoss
	}

	if avgLoss == 0 {
		return 0, fmt.Errorf("rsi: average loss is zero: %w", ErrUndefined)
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}
