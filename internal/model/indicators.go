package model

import "math"

// IndicatorVector holds the indicators of one symbol evaluated at its final bar.
type IndicatorVector struct {
	CurrentPrice   float64         `json:"current_price"`
	MACD           float64         `json:"macd"`
	Signal         float64         `json:"signal"`
	RSI            float64         `json:"rsi"`
	ADX            float64         `json:"adx"`
	PlusDI         float64         `json:"+di"`
	MinusDI        float64         `json:"-di"`
	MovingAverages map[int]float64 `json:"moving_averages"` // window -> SMA; absent when the series is shorter
}

// MA returns the moving average for window and whether it is defined.
func (v *IndicatorVector) MA(window int) (float64, bool) {
	ma, ok := v.MovingAverages[window]
	return ma, ok
}

// Finite reports whether every scalar of the vector is a finite number.
func (v *IndicatorVector) Finite() bool {
	for _, x := range []float64{v.CurrentPrice, v.MACD, v.Signal, v.RSI, v.ADX, v.PlusDI, v.MinusDI} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	for _, x := range v.MovingAverages {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
