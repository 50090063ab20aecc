// Package events announces finished runs to whoever serves the snapshot.
package events

import (
	"context"
	"errors"
	"time"

	"StockSentinel/internal/model"
)

// SnapshotEvent tells consumers a new snapshot is available. One event is
// published per successful run.
type SnapshotEvent struct {
	Seq         int64     `json:"seq"`
	RunID       string    `json:"run_id"`
	Records     int       `json:"records"`
	Highlighted int       `json:"highlighted"`
	Symbols     []string  `json:"highlighted_symbols"`
	At          time.Time `json:"at"`
}

// NewSnapshotEvent summarizes snap. Seq is assigned by the Broker.
func NewSnapshotEvent(snap *model.Snapshot, at time.Time) SnapshotEvent {
	hl := snap.Highlighted()
	symbols := make([]string, len(hl))
	for i, r := range hl {
		symbols[i] = r.Symbol
	}
	return SnapshotEvent{
		RunID:       snap.RunID,
		Records:     len(snap.Records),
		Highlighted: len(hl),
		Symbols:     symbols,
		At:          at.UTC(),
	}
}

// Publisher delivers snapshot events.
type Publisher interface {
	Publish(ctx context.Context, evt SnapshotEvent) error
}

// MultiPublisher fans an event out to every publisher. All publishers are
// attempted; their errors are joined.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, evt SnapshotEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
