// Package watchlist loads the symbols a run processes.
package watchlist

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"StockSentinel/internal/model"
	"StockSentinel/internal/recorder"
)

// Source supplies the watch-list for one run.
type Source interface {
	Load(ctx context.Context) ([]model.WatchItem, error)
}

// ErrNoSymbolColumn is returned for a CSV without a Symbol header.
var ErrNoSymbolColumn = errors.New("csv has no Symbol column")

var nameColumns = []string{"name", "company", "company name", "company_name"}

// ParseCSV reads a header CSV with a Symbol column and an optional company name
// column. Blank symbols are ignored and symbols are upper-cased; order is kept.
func ParseCSV(r io.Reader) ([]model.WatchItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSymbolColumn
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	symCol, nameCol := -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if h == "symbol" && symCol < 0 {
			symCol = i
		}
		for _, n := range nameColumns {
			if h == n && nameCol < 0 {
				nameCol = i
			}
		}
	}
	if symCol < 0 {
		return nil, ErrNoSymbolColumn
	}

	var items []model.WatchItem
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if symCol >= len(row) {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(row[symCol]))
		if sym == "" {
			continue
		}
		item := model.WatchItem{Symbol: sym}
		if nameCol >= 0 && nameCol < len(row) {
			item.CompanyName = strings.TrimSpace(row[nameCol])
		}
		items = append(items, item)
	}
	return items, nil
}

// CSVSource reads the watch-list from a CSV file on every load.
type CSVSource struct {
	Path string
}

func (s *CSVSource) Load(_ context.Context) ([]model.WatchItem, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open watch-list: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// StoreSource reads the watch-list kept in a ListStore.
type StoreSource struct {
	Store recorder.ListStore
}

func (s *StoreSource) Load(ctx context.Context) ([]model.WatchItem, error) {
	entries, err := s.Store.List(ctx, recorder.ListWatchlist)
	if err != nil {
		return nil, fmt.Errorf("load watch-list: %w", err)
	}
	items := make([]model.WatchItem, len(entries))
	for i, e := range entries {
		items[i] = model.WatchItem{Symbol: e.Value, CompanyName: e.Label}
	}
	return items, nil
}

// Import appends items to the stored watch-list and returns how many were written.
func Import(ctx context.Context, store recorder.ListStore, items []model.WatchItem) (int, error) {
	for i, it := range items {
		if err := store.Append(ctx, recorder.ListWatchlist, recorder.Entry{Value: it.Symbol, Label: it.CompanyName}); err != nil {
			return i, fmt.Errorf("import %s: %w", it.Symbol, err)
		}
	}
	return len(items), nil
}

// StaticSource returns a fixed list.
type StaticSource []model.WatchItem

func (s StaticSource) Load(context.Context) ([]model.WatchItem, error) {
	out := make([]model.WatchItem, len(s))
	copy(out, s)
	return out, nil
}
