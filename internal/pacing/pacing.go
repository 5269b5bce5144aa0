// Package pacing spaces out calls to rate-limited upstreams.
//
// Pauses are client-side politeness delays taken at fixed points of a run,
// not reactions to errors. The retry packages handle backoff separately.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Stage names a point in a run where a pause can be taken.
type Stage string

const (
	BeforeAccount Stage = "before_account"
	AfterAccount  Stage = "after_account"
	BetweenVideos Stage = "between_videos"
	BeforeSummary Stage = "before_summary"
)

// Pacer blocks until the caller may proceed past stage.
type Pacer interface {
	Pause(ctx context.Context, stage Stage) error
}

// DefaultDelays are the fixed delays used against Instagram and YouTube.
func DefaultDelays() map[Stage]time.Duration {
	return map[Stage]time.Duration{
		BeforeAccount: 2 * time.Second,
		AfterAccount:  1 * time.Second,
		BetweenVideos: 5 * time.Second,
		BeforeSummary: 2 * time.Second,
	}
}

// Fixed sleeps a configured duration per stage, plus up to Jitter extra.
type Fixed struct {
	delays map[Stage]time.Duration
	jitter time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewFixed creates a Fixed pacer. Stages missing from delays do not pause.
func NewFixed(delays map[Stage]time.Duration, jitter time.Duration) *Fixed {
	return &Fixed{
		delays: delays,
		jitter: jitter,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pause implements Pacer.
func (f *Fixed) Pause(ctx context.Context, stage Stage) error {
	d := f.delays[stage]
	if d <= 0 {
		return ctx.Err()
	}
	if f.jitter > 0 {
		f.mu.Lock()
		d += time.Duration(f.rnd.Int63n(int64(f.jitter) + 1))
		f.mu.Unlock()
	}
	return Sleep(ctx, d)
}

// TokenBucket allows a steady request rate with bursts, regardless of stage.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows rpm calls per minute with the given burst.
func NewTokenBucket(rpm float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(rpm/60), burst)}
}

// Pause implements Pacer.
func (t *TokenBucket) Pause(ctx context.Context, _ Stage) error {
	return t.limiter.Wait(ctx)
}

// Noop never waits.
type Noop struct{}

// Pause implements Pacer.
func (Noop) Pause(ctx context.Context, _ Stage) error { return ctx.Err() }

// Recorder notes every pause without waiting.
type Recorder struct {
	mu     sync.Mutex
	Stages []Stage
}

// Pause implements Pacer.
func (r *Recorder) Pause(_ context.Context, stage Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stages = append(r.Stages, stage)
	return nil
}

// Count returns how many pauses were taken at stage.
func (r *Recorder) Count(stage Stage) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.Stages {
		if s == stage {
			n++
		}
	}
	return n
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
