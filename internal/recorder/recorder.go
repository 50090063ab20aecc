package recorder

import (
	"context"
	"errors"

	"StockSentinel/internal/model"
)

// Named lists kept in a ListStore.
const (
	ListSubscribers = "subscribers"
	ListWatchlist   = "watchlist"
)

// ErrNotFound is returned by Remove when the value is not in the list.
var ErrNotFound = errors.New("entry not found")

// Entry is one row of a named list. Label carries optional display text,
// e.g. the company name of a watch-list symbol.
type Entry struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Recorder persists the latest snapshot for the serving layer.
// Each save replaces the previous snapshot entirely.
type Recorder interface {
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
	LoadSnapshot(ctx context.Context) ([]model.AlertRecord, error)
	Close() error
}

// ListStore keeps small ordered lists of unique values (subscribers, watch-list).
type ListStore interface {
	List(ctx context.Context, name string) ([]Entry, error)
	// Append adds e to the list, or updates its label if the value is already present.
	Append(ctx context.Context, name string, e Entry) error
	Remove(ctx context.Context, name, value string) error
}

// RequestCounter counts user requests for symbols that are not yet tracked.
type RequestCounter interface {
	IncrementRequest(ctx context.Context, symbol string) (int, error)
	RequestCounts(ctx context.Context) (map[string]int, error)
}

// Store is everything the SQLite and in-memory backends implement.
type Store interface {
	Recorder
	ListStore
	RequestCounter
}

// persistable returns the records that can be serialized: non-finite values are dropped.
func persistable(records []model.AlertRecord) []model.AlertRecord {
	out := make([]model.AlertRecord, 0, len(records))
	for _, r := range records {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}
