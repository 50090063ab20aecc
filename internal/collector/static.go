package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockSentinel/internal/model"
)

// StaticFetcher returns fixed in-memory series, for dry runs and tests.
type StaticFetcher struct {
	Series map[string][]model.OHLCV
	Errors map[string]error
}

// NewStaticFetcher creates an empty static fetcher.
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{
		Series: make(map[string][]model.OHLCV),
		Errors: make(map[string]error),
	}
}

func (s *StaticFetcher) Name() string { return "static" }

func (s *StaticFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err, ok := s.Errors[symbol]; ok {
		return nil, err
	}
	bars, ok := s.Series[symbol]
	if !ok {
		return nil, fmt.Errorf("static: unknown symbol %s", symbol)
	}
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	if len(out) > days {
		out = out[len(out)-days:]
	}
	return out, nil
}

// GenerateBars builds count daily bars ending at end. The trend compounds by growth
// per session and alternates above and below it by swing, ending on an upper swing.
func GenerateBars(count int, base, growth, swing float64, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	prevClose := base
	for i := 0; i < count; i++ {
		trend := base * math.Pow(1+growth, float64(i))
		side := 1.0
		if (count-1-i)%2 == 1 {
			side = -1
		}
		c := trend * (1 + swing*side)
		o := prevClose
		if i == 0 {
			o = c
		}
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   o,
			High:   math.Max(o, c) * 1.005,
			Low:    math.Min(o, c) * 0.995,
			Close:  c,
			Volume: 1000000,
		}
		prevClose = c
	}
	return bars
}
