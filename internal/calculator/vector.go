package calculator

import (
	"fmt"
	"math"

	"StockSentinel/internal/model"
)

// DefaultWindows are the moving-average windows computed for every symbol.
var DefaultWindows = []int{8, 20, 50, 200}

// Compute builds the indicator vector of one series. It is a pure function of its inputs.
//
// Windows longer than the series are omitted from the vector. A series shorter than
// every window returns ErrInsufficientData; any non-finite indicator returns ErrUndefined.
func Compute(series *model.PriceSeries, windows []int) (*model.IndicatorVector, error) {
	if series == nil || len(series.Bars) == 0 {
		return nil, fmt.Errorf("empty series: %w", ErrInsufficientData)
	}
	if err := ValidateBars(series.Bars); err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		windows = DefaultWindows
	}

	closes := series.Closes()
	mas := MovingAverages(closes, windows)
	if len(mas) == 0 {
		return nil, fmt.Errorf("%d bars is shorter than every window %v: %w", len(closes), windows, ErrInsufficientData)
	}

	macd, signal, err := CalculateMACD(closes)
	if err != nil {
		return nil, err
	}
	rsi, err := CalculateRSI(closes, RSIPeriod)
	if err != nil {
		return nil, err
	}
	di, err := CalculateADX(series.Bars, ADXPeriod)
	if err != nil {
		return nil, err
	}

	vec := &model.IndicatorVector{
		CurrentPrice:   series.Last().Close,
		MACD:           macd,
		Signal:         signal,
		RSI:            rsi,
		ADX:            di.ADX,
		PlusDI:         di.PlusDI,
		MinusDI:        di.MinusDI,
		MovingAverages: mas,
	}
	if !vec.Finite() {
		return nil, fmt.Errorf("non-finite indicator: %w", ErrUndefined)
	}
	return vec, nil
}

// ValidateBars checks that bars are in strictly increasing time order and carry finite prices.
func ValidateBars(bars []model.OHLCV) error {
	for i, b := range bars {
		for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return fmt.Errorf("bar %d (%s) has a non-finite price: %w", i, b.Time.Format("2006-01-02"), ErrInvalidSeries)
			}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d (%s) is not after %s: %w", i, b.Time.Format("2006-01-02"),
				bars[i-1].Time.Format("2006-01-02"), ErrInvalidSeries)
		}
	}
	return nil
}
