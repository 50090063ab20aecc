// Package retry runs idempotent calls to external collaborators with exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how often and how slowly an operation is retried.
type Policy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy retries three times starting at one second, doubling each attempt.
var DefaultPolicy = Policy{
	MaxRetries:      3,
	InitialInterval: time.Second,
	MaxInterval:     30 * time.Second,
}

// NotifyFunc is called before each wait with the error that caused it.
type NotifyFunc func(err error, wait time.Duration)

// Do runs op until it succeeds, returns a Permanent error, the retries are
// exhausted, or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, op func() error, notify NotifyFunc) error {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.Multiplier = 2
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, p.MaxRetries), ctx)
	if notify == nil {
		return backoff.Retry(op, b)
	}
	return backoff.RetryNotify(op, b, backoff.Notify(notify))
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
