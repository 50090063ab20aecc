package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fast = Policy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	notified := 0
	err := Do(context.Background(), fast, func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, func(error, time.Duration) { notified++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if notified != 2 {
		t.Errorf("expected 2 notifications, got %d", notified)
	}
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := Do(context.Background(), fast, func() error {
		calls++
		return boom
	}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 1 call + 3 retries, got %d", calls)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	bad := errors.New("bad request")
	err := Do(context.Background(), fast, func() error {
		calls++
		return Permanent(bad)
	}, nil)
	if !errors.Is(err, bad) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Policy{MaxRetries: 5, InitialInterval: time.Second}, func() error {
		return errors.New("down")
	}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
}
