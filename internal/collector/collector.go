package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/retry"
	"StockSentinel/internal/strategy"

	"go.uber.org/zap"
)

var (
	// ErrEmptyWatchlist aborts a run that has nothing to process.
	ErrEmptyWatchlist = errors.New("watch-list is empty")
	// ErrNoData aborts a run where the provider returned no bars for any symbol.
	ErrNoData = errors.New("provider returned no data")
)

// Collector fetches the watch-list series and turns them into a snapshot.
type Collector struct {
	Fetcher Fetcher
	Windows []int
	Rule    strategy.Rule
	Days    int // trailing sessions requested per symbol
	Workers int // parallel fetches
	Retry   retry.Policy
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewCollector creates a Collector with the default windows, rule and a one-year window.
func NewCollector(fetcher Fetcher, logger *zap.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Windows: calculator.DefaultWindows,
		Rule:    strategy.DefaultRule,
		Days:    365,
		Workers: 8,
		Retry:   retry.DefaultPolicy,
		Logger:  logger,
	}
}

type fetchResult struct {
	bars []model.OHLCV
	err  error
}

// Collect builds the snapshot for items in their given order. Symbols whose series
// cannot be fetched or yields an incomplete vector are reported as skips; the error
// is non-nil only when the run must abort.
func (c *Collector) Collect(ctx context.Context, items []model.WatchItem) (*model.Snapshot, []model.Skip, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyWatchlist
	}

	var skips []model.Skip
	unique := make([]model.WatchItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		it.Symbol = strings.TrimSpace(it.Symbol)
		if it.Symbol == "" {
			continue
		}
		if seen[it.Symbol] {
			skips = append(skips, model.Skip{Symbol: it.Symbol, Reason: model.SkipDuplicate})
			continue
		}
		seen[it.Symbol] = true
		unique = append(unique, it)
	}
	if len(unique) == 0 {
		return nil, nil, ErrEmptyWatchlist
	}

	results, err := c.fetchAll(ctx, unique)
	if err != nil {
		return nil, nil, err
	}
	anyData := false
	for _, r := range results {
		if r.err == nil && len(r.bars) > 0 {
			anyData = true
			break
		}
	}
	if !anyData {
		return nil, nil, fmt.Errorf("%d symbols requested from %s: %w", len(unique), c.Fetcher.Name(), ErrNoData)
	}

	snap := &model.Snapshot{Records: make([]model.AlertRecord, 0, len(unique))}
	for i, it := range unique {
		rec, skip := c.evaluate(it, results[i])
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		snap.Records = append(snap.Records, rec)
	}

	for _, s := range skips {
		c.Logger.Warn("symbol skipped",
			zap.String("symbol", s.Symbol),
			zap.String("reason", string(s.Reason)),
			zap.Error(s.Err))
		if c.Metrics != nil {
			c.Metrics.SkippedTotal.WithLabelValues(string(s.Reason)).Inc()
		}
	}
	if c.Metrics != nil {
		c.Metrics.SymbolsTotal.Add(float64(len(unique)))
	}
	return snap, skips, nil
}

// evaluate runs the indicator engine and the classifier on one fetched series.
func (c *Collector) evaluate(it model.WatchItem, r fetchResult) (model.AlertRecord, *model.Skip) {
	if r.err != nil {
		return model.AlertRecord{}, &model.Skip{Symbol: it.Symbol, Reason: model.SkipFetchFailed, Err: r.err}
	}
	if len(r.bars) == 0 {
		return model.AlertRecord{}, &model.Skip{Symbol: it.Symbol, Reason: model.SkipNoData}
	}

	series := &model.PriceSeries{Symbol: it.Symbol, Bars: r.bars, FetchedAt: time.Now()}
	vec, err := calculator.Compute(series, c.Windows)
	if err != nil {
		return model.AlertRecord{}, &model.Skip{Symbol: it.Symbol, Reason: skipReason(err), Err: err}
	}

	rec := model.NewAlertRecord(it, *vec, strategy.Classify(vec, c.Rule))
	if !rec.Valid() {
		return model.AlertRecord{}, &model.Skip{Symbol: it.Symbol, Reason: model.SkipUndefined,
			Err: fmt.Errorf("non-finite percent difference: %w", calculator.ErrUndefined)}
	}
	return rec, nil
}

func skipReason(err error) model.SkipReason {
	switch {
	case errors.Is(err, calculator.ErrInsufficientData):
		return model.SkipInsufficientData
	case errors.Is(err, calculator.ErrInvalidSeries):
		return model.SkipInvalidSeries
	default:
		return model.SkipUndefined
	}
}

// fetchAll fetches every symbol with at most Workers requests in flight.
// Results are returned in item order.
func (c *Collector) fetchAll(ctx context.Context, items []model.WatchItem) ([]fetchResult, error) {
	workers := c.Workers
	if workers <= 0 {
		workers = 1
	}
	results := make([]fetchResult, len(items))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, it := range items {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			bars, err := c.fetch(ctx, symbol)
			results[i] = fetchResult{bars: bars, err: err}
		}(i, it.Symbol)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Collector) fetch(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	start := time.Now()
	var bars []model.OHLCV
	err := retry.Do(ctx, c.Retry, func() error {
		b, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Days)
		if err != nil {
			return retryable(err)
		}
		bars = b
		return nil
	}, func(err error, wait time.Duration) {
		c.Logger.Warn("fetch failed, retrying",
			zap.String("symbol", symbol),
			zap.String("source", c.Fetcher.Name()),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	if c.Metrics != nil {
		c.Metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", symbol, c.Fetcher.Name(), err)
	}
	return bars, nil
}
