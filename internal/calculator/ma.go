package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means the series is too short for the requested computation.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUndefined means a derived ratio has a zero denominator or a result is not finite.
	ErrUndefined = errors.New("indicator undefined")
	// ErrInvalidSeries means the series violates ordering or carries non-finite prices.
	ErrInvalidSeries = errors.New("invalid series")
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("sma(%d) over %d prices: %w", period, len(prices), ErrInsufficientData)
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverages returns the SMA of closes for every window the series is long enough for.
// Windows longer than the series are left out of the map.
func MovingAverages(closes []float64, windows []int) map[int]float64 {
	mas := make(map[int]float64, len(windows))
	for _, w := range windows {
		ma, err := CalculateSMA(closes, w)
		if err != nil {
			continue
		}
		mas[w] = ma
	}
	return mas
}
