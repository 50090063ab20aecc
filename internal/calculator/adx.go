package calculator

import (
	"errors"
	"fmt"

	"StockSentinel/internal/model"
)

// ADXPeriod is the Wilder window of the directional movement index.
const ADXPeriod = 14

// DirectionalIndex holds ADX and its directional components at the final bar.
type DirectionalIndex struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// CalculateADX computes ADX, +DI and -DI over bars using Wilder smoothing.
// Steps where DX is undefined (+DI and -DI both zero) do not update ADX.
func CalculateADX(bars []model.OHLCV, period int) (DirectionalIndex, error) {
	if period <= 0 {
		return DirectionalIndex{}, errors.New("period must be positive")
	}
	if len(bars) < 2 {
		return DirectionalIndex{}, fmt.Errorf("adx needs 2 bars, got %d: %w", len(bars), ErrInsufficientData)
	}

	alpha := WilderAlpha(period)
	var sPlus, sMinus, sTR float64
	var adx float64
	adxSeeded := false

	for t := 0; t+1 < len(bars); t++ {
		prev, cur := bars[t], bars[t+1]
		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low

		plusDM, minusDM := 0.0, 0.0
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}
		tr := max(cur.High, prev.Close) - min(cur.Low, prev.Close)

		if t == 0 {
			sPlus, sMinus, sTR = plusDM, minusDM, tr
		} else {
			sPlus = alpha*plusDM + (1-alpha)*sPlus
			sMinus = alpha*minusDM + (1-alpha)*sMinus
			sTR = alpha*tr + (1-alpha)*sTR
		}

		if sTR == 0 {
			continue
		}
		plusDI := 100 * sPlus / sTR
		minusDI := 100 * sMinus / sTR
		if plusDI+minusDI == 0 {
			continue
		}
		dx := 100 * abs(plusDI-minusDI) / (plusDI + minusDI)
		if !adxSeeded {
			adx = dx
			adxSeeded = true
		} else {
			adx = alpha*dx + (1-alpha)*adx
		}
	}

	if sTR == 0 {
		return DirectionalIndex{}, fmt.Errorf("adx: average true range is zero: %w", ErrUndefined)
	}
	if !adxSeeded {
		return DirectionalIndex{}, fmt.Errorf("adx: no directional movement: %w", ErrUndefined)
	}
	return DirectionalIndex{
		ADX:     adx,
		PlusDI:  100 * sPlus / sTR,
		MinusDI: 100 * sMinus / sTR,
	}, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
