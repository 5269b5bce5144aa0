// Package retry runs an upstream call again while its failures look like
// throttling, waiting a little longer after every attempt.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Linear waits Step, 2×Step, 3×Step... between attempts.
type Linear struct {
	Step    time.Duration
	attempt int
}

// NextBackOff implements backoff.BackOff.
func (l *Linear) NextBackOff() time.Duration {
	l.attempt++
	return l.Step * time.Duration(l.attempt)
}

// Reset implements backoff.BackOff.
func (l *Linear) Reset() {
	l.attempt = 0
}

// Policy bounds a retried call. A nil Retryable retries every error.
type Policy struct {
	MaxAttempts int
	Step        time.Duration
	Retryable   func(error) bool
	OnRetry     func(err error, wait time.Duration)
}

// Do calls op until it succeeds, returns a non-retryable error, or
// MaxAttempts calls have been made. The last error is returned as is.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	operation := func() (T, error) {
		v, err := op(ctx)
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(&Linear{Step: p.Step}),
		backoff.WithMaxTries(uint(attempts)),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(p.OnRetry))
	}

	return backoff.Retry(ctx, operation, opts...)
}
