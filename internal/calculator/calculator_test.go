package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockSentinel/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func seriesFromCloses(closes []float64) *model.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return &model.PriceSeries{Symbol: "TEST", Bars: bars}
}

// zigzag rises by step on even sessions and falls by step/2 on odd ones.
func zigzag(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	closes[0] = start
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + step
		} else {
			closes[i] = closes[i-1] - step/2
		}
	}
	return closes
}

func TestCalculateSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ma, err := CalculateSMA(prices, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "SMA(3)", ma, 9, 1e-9)

	if _, err := CalculateSMA(prices, 11); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := CalculateSMA(prices, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestMovingAverages_OmitsLongWindows(t *testing.T) {
	closes := zigzag(30, 100, 2)
	mas := MovingAverages(closes, []int{8, 20, 50, 200})
	if _, ok := mas[8]; !ok {
		t.Error("expected MA8 to be present")
	}
	if _, ok := mas[20]; !ok {
		t.Error("expected MA20 to be present")
	}
	for _, w := range []int{50, 200} {
		if v, ok := mas[w]; ok {
			t.Errorf("expected MA%d to be absent, got %.4f", w, v)
		}
	}
}

func TestEMASeries_SeededByFirstValue(t *testing.T) {
	got := EMASeries([]float64{100, 102, 104, 103, 105}, 0.5)
	want := []float64{100, 101, 102.5, 102.75, 103.875}
	for i := range want {
		assertClose(t, "EMA", got[i], want[i], 1e-9)
	}
	if len(EMASeries(nil, 0.5)) != 0 {
		t.Error("expected empty output for empty input")
	}
}

func TestSmoothingFactors(t *testing.T) {
	assertClose(t, "span 12", SpanAlpha(12), 2.0/13.0, 1e-12)
	assertClose(t, "span 9", SpanAlpha(9), 0.2, 1e-12)
	assertClose(t, "wilder 14", WilderAlpha(14), 1.0/14.0, 1e-12)
}

func TestCalculateMACD(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 50
	}
	macd, signal, err := CalculateMACD(flat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "flat MACD", macd, 0, 1e-9)
	assertClose(t, "flat signal", signal, 0, 1e-9)

	// A jump after a flat run: the fast EMA reacts more than the slow one,
	// and the signal line lags behind the MACD line.
	closes := []float64{10, 10, 10, 20}
	macd, signal, err = CalculateMACD(closes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantMACD := 10*SpanAlpha(12) - 10*SpanAlpha(26)
	assertClose(t, "jump MACD", macd, wantMACD, 1e-9)
	assertClose(t, "jump signal", signal, wantMACD*SpanAlpha(9), 1e-9)

	if _, _, err := CalculateMACD(nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCalculateRSI_HandComputed(t *testing.T) {
	// period 2 -> alpha 0.5; deltas +2, -1, +2
	// avgGain: 2, 1, 1.5; avgLoss: 0, 0.5, 0.25; RS = 6
	rsi, err := CalculateRSI([]float64{10, 12, 11, 13}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "RSI", rsi, 100-100.0/7.0, 1e-9)
}

func TestCalculateRSI_ZeroLossIsUndefined(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if _, err := CalculateRSI(rising, RSIPeriod); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined for a series without losses, got %v", err)
	}
	if _, err := CalculateRSI([]float64{5}, RSIPeriod); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCalculateRSI_Bounded(t *testing.T) {
	cases := map[string][]float64{
		"zigzag up":   zigzag(120, 100, 2),
		"zigzag down": zigzag(120, 500, -2),
		"falling":     {10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
	}
	for name, closes := range cases {
		rsi, err := CalculateRSI(closes, RSIPeriod)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if rsi < 0 || rsi > 100 {
			t.Errorf("%s: RSI %.4f out of [0,100]", name, rsi)
		}
	}
	rsi, _ := CalculateRSI(cases["falling"], RSIPeriod)
	assertClose(t, "falling RSI", rsi, 0, 1e-9)
}

func TestCalculateADX_HandComputed(t *testing.T) {
	bars := []model.OHLCV{
		{Time: time.Unix(0, 0), High: 10, Low: 8, Close: 9},
		{Time: time.Unix(86400, 0), High: 12, Low: 9, Close: 11},
		{Time: time.Unix(2*86400, 0), High: 11, Low: 7, Close: 8},
	}
	// period 2 -> alpha 0.5
	// step 0: +DM 2, -DM 0, TR 3 -> +DI 66.67, -DI 0, DX 100, ADX 100
	// step 1: +DM 0, -DM 2, TR 4 -> s+ 1, s- 1, ATR 3.5 -> DX 0, ADX 50
	di, err := CalculateADX(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "ADX", di.ADX, 50, 1e-9)
	assertClose(t, "+DI", di.PlusDI, 100/3.5, 1e-9)
	assertClose(t, "-DI", di.MinusDI, 100/3.5, 1e-9)
}

func TestCalculateADX_SeedsOnFirstDefinedDX(t *testing.T) {
	bars := []model.OHLCV{
		{Time: time.Unix(0, 0), High: 10, Low: 8, Close: 9},
		{Time: time.Unix(86400, 0), High: 10, Low: 8, Close: 9},
		{Time: time.Unix(2*86400, 0), High: 10, Low: 8, Close: 9},
		{Time: time.Unix(3*86400, 0), High: 12, Low: 9, Close: 11},
		{Time: time.Unix(4*86400, 0), High: 12, Low: 7, Close: 8},
	}
	// period 2 -> alpha 0.5
	// steps 0-1: inside bars, no directional movement, ATR 2 -> DX undefined, skipped
	// step 2: +DM 2, TR 3 -> s+ 1, s- 0, ATR 2.5 -> DX 100, ADX seeded at 100
	// step 3: -DM 2, TR 5 -> s+ 0.5, s- 1, ATR 3.75 -> DX 33.33, ADX 66.67
	di, err := CalculateADX(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "ADX", di.ADX, 200.0/3.0, 1e-9)
	assertClose(t, "+DI", di.PlusDI, 40.0/3.0, 1e-9)
	assertClose(t, "-DI", di.MinusDI, 80.0/3.0, 1e-9)

	if _, err := CalculateADX(bars[:3], 2); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined without directional movement, got %v", err)
	}
}

func TestCalculateADX_Undefined(t *testing.T) {
	flat := make([]model.OHLCV, 20)
	for i := range flat {
		flat[i] = model.OHLCV{Time: time.Unix(int64(i)*86400, 0), Open: 5, High: 5, Low: 5, Close: 5}
	}
	if _, err := CalculateADX(flat, ADXPeriod); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined for zero true range, got %v", err)
	}
	if _, err := CalculateADX(flat[:1], ADXPeriod); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCompute_ShortSeriesIsInsufficient(t *testing.T) {
	series := seriesFromCloses([]float64{10, 11, 10, 12, 11})
	vec, err := Compute(series, DefaultWindows)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if vec != nil {
		t.Error("expected nil vector")
	}
}

func TestCompute_PartialWindows(t *testing.T) {
	series := seriesFromCloses(zigzag(60, 100, 2))
	vec, err := Compute(series, DefaultWindows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := vec.MA(200); ok {
		t.Error("MA200 must be absent for a 60-bar series")
	}
	for _, w := range []int{8, 20, 50} {
		if _, ok := vec.MA(w); !ok {
			t.Errorf("MA%d must be present", w)
		}
	}
	if vec.CurrentPrice != series.Last().Close {
		t.Errorf("current price %.2f, want final close %.2f", vec.CurrentPrice, series.Last().Close)
	}
	if vec.RSI < 0 || vec.RSI > 100 {
		t.Errorf("RSI %.2f out of range", vec.RSI)
	}
	if vec.ADX < 0 || vec.ADX > 100 {
		t.Errorf("ADX %.2f out of range", vec.ADX)
	}
	if !vec.Finite() {
		t.Error("expected a finite vector")
	}
}

func TestCompute_Deterministic(t *testing.T) {
	series := seriesFromCloses(zigzag(250, 100, 3))
	a, err := Compute(series, DefaultWindows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := Compute(series, DefaultWindows)
	if a.MACD != b.MACD || a.RSI != b.RSI || a.ADX != b.ADX || a.MovingAverages[200] != b.MovingAverages[200] {
		t.Error("expected identical vectors for identical input")
	}
}

func TestCompute_RejectsInvalidSeries(t *testing.T) {
	series := seriesFromCloses(zigzag(30, 100, 2))
	series.Bars[10].Time = series.Bars[9].Time
	if _, err := Compute(series, DefaultWindows); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("expected ErrInvalidSeries for duplicate dates, got %v", err)
	}

	series = seriesFromCloses(zigzag(30, 100, 2))
	series.Bars[5].Close = math.NaN()
	if _, err := Compute(series, DefaultWindows); !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("expected ErrInvalidSeries for NaN close, got %v", err)
	}
}

func TestCompute_UndefinedRSIDropsVector(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	if _, err := Compute(seriesFromCloses(closes), DefaultWindows); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined for a loss-free series, got %v", err)
	}
}
