package strategy

import (
	"testing"

	"StockSentinel/internal/model"
)

func bullishVector() *model.IndicatorVector {
	return &model.IndicatorVector{
		CurrentPrice: 100,
		MACD:         1.2,
		Signal:       1.0,
		RSI:          60,
		ADX:          25,
		PlusDI:       30,
		MinusDI:      15,
		MovingAverages: map[int]float64{
			8:   98,
			20:  97,
			50:  95,
			200: 90,
		},
	}
}

func TestClassify_Highlighted(t *testing.T) {
	if !Classify(bullishVector(), DefaultRule) {
		t.Fatal("expected the reference vector to be highlighted")
	}
}

func TestClassify_OverboughtRSI(t *testing.T) {
	vec := bullishVector()
	vec.RSI = 72
	if Classify(vec, DefaultRule) {
		t.Error("RSI 72 must not be highlighted")
	}
}

func TestClassify_EachConditionIsRequired(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(v *model.IndicatorVector)
	}{
		{"below MA200", func(v *model.IndicatorVector) { v.MovingAverages[200] = 101 }},
		{"below MA50", func(v *model.IndicatorVector) { v.MovingAverages[50] = 100 }},
		{"below MA8", func(v *model.IndicatorVector) { v.MovingAverages[8] = 100.5 }},
		{"macd under signal", func(v *model.IndicatorVector) { v.MACD = 0.9 }},
		{"macd equals signal", func(v *model.IndicatorVector) { v.MACD = v.Signal }},
		{"rsi below 50", func(v *model.IndicatorVector) { v.RSI = 49.99 }},
		{"rsi at 70", func(v *model.IndicatorVector) { v.RSI = 70 }},
		{"missing MA200", func(v *model.IndicatorVector) { delete(v.MovingAverages, 200) }},
		{"missing MA8", func(v *model.IndicatorVector) { delete(v.MovingAverages, 8) }},
	}
	for _, m := range mutations {
		vec := bullishVector()
		m.mutate(vec)
		if Classify(vec, DefaultRule) {
			t.Errorf("%s: expected not highlighted", m.name)
		}
	}
}

func TestClassify_RSIBoundaries(t *testing.T) {
	tests := []struct {
		rsi  float64
		want bool
	}{
		{0, false},
		{49.999, false},
		{50, true},
		{65, true},
		{69.999, true},
		{70, false},
		{100, false},
	}
	for _, tt := range tests {
		vec := bullishVector()
		vec.RSI = tt.rsi
		if got := Classify(vec, DefaultRule); got != tt.want {
			t.Errorf("rsi %.3f: got %v, want %v", tt.rsi, got, tt.want)
		}
	}
}

func TestClassify_MA20IsNotReferenced(t *testing.T) {
	vec := bullishVector()
	vec.MovingAverages[20] = 150
	if !Classify(vec, DefaultRule) {
		t.Error("MA20 is informational and must not affect the rule")
	}
}

func TestClassify_CustomRule(t *testing.T) {
	rule := Rule{TrendWindows: []int{20}, RSILower: 40, RSIUpper: 80}
	vec := bullishVector()
	vec.RSI = 75
	delete(vec.MovingAverages, 200)
	if !Classify(vec, rule) {
		t.Error("expected custom rule to highlight")
	}
}

func TestTierRSI(t *testing.T) {
	tests := []struct {
		rsi  float64
		tier RSITier
	}{
		{10, RSIWeak},
		{49.9, RSIWeak},
		{50, RSIBullish},
		{69.9, RSIBullish},
		{70, RSIOverbought},
		{95, RSIOverbought},
	}
	for _, tt := range tests {
		if got := TierRSI(tt.rsi, DefaultRule); got != tt.tier {
			t.Errorf("rsi %.1f: got %q, want %q", tt.rsi, got, tt.tier)
		}
	}
}
