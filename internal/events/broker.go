package events

import (
	"context"
	"sync"
)

const defaultHistory = 64

// Broker is the in-process event log. Consumers either subscribe for pushes
// or poll with Since. Each event is delivered once per subscriber.
type Broker struct {
	mu      sync.RWMutex
	seq     int64
	history []SnapshotEvent
	limit   int
	subs    map[chan SnapshotEvent]struct{}
}

// NewBroker keeps the last limit events for polling consumers.
func NewBroker(limit int) *Broker {
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Broker{
		limit: limit,
		subs:  make(map[chan SnapshotEvent]struct{}),
	}
}

// Publish assigns the next sequence number and hands the event to every subscriber.
// A subscriber whose buffer is full misses the push and must catch up with Since.
func (b *Broker) Publish(_ context.Context, evt SnapshotEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	evt.Seq = b.seq
	b.history = append(b.history, evt)
	if len(b.history) > b.limit {
		b.history = b.history[len(b.history)-b.limit:]
	}
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of future events and a function that ends the subscription.
func (b *Broker) Subscribe() (<-chan SnapshotEvent, func()) {
	ch := make(chan SnapshotEvent, 8)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Since returns the retained events with a sequence number greater than seq.
func (b *Broker) Since(seq int64) []SnapshotEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []SnapshotEvent{}
	for _, e := range b.history {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the sequence number of the last event, 0 if none.
func (b *Broker) Latest() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}
