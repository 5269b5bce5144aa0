// Package summarize turns podcast transcripts into summaries through an
// ordered chain of strategies, ending with an extractive fallback that
// cannot fail.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/rivalscope/internal/errs"
	"github.com/gauthierbraillon/rivalscope/internal/logger"
	"github.com/gauthierbraillon/rivalscope/internal/metrics"
	"github.com/gauthierbraillon/rivalscope/internal/retry"
)

// MinTranscriptChars is the shortest trimmed transcript worth summarizing.
const MinTranscriptChars = 50

// TooShort is returned instead of a summary for short transcripts.
const TooShort = "Transcript too short to summarize."

// Strategy produces a summary or reports why it could not.
type Strategy interface {
	Name() string
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Chain tries its strategies in order and keeps the first non-empty summary.
type Chain struct {
	strategies []Strategy
	log        *logrus.Logger
	metrics    *metrics.Metrics
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

func WithLogger(log *logrus.Logger) ChainOption {
	return func(c *Chain) { c.log = log }
}

func WithMetrics(m *metrics.Metrics) ChainOption {
	return func(c *Chain) { c.metrics = m }
}

// NewChain builds a chain over strategies. The extractive strategy is
// appended when the caller did not end the list with it.
func NewChain(strategies []Strategy, opts ...ChainOption) *Chain {
	c := &Chain{log: logger.Log}
	for _, opt := range opts {
		opt(c)
	}

	c.strategies = append([]Strategy(nil), strategies...)
	if n := len(c.strategies); n == 0 || c.strategies[n-1].Name() != ExtractiveName {
		c.strategies = append(c.strategies, Extractive{})
	}
	return c
}

// Strategies returns the names of the chain, in order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Summarize returns a summary and the name of the strategy that produced
// it. It never fails: the extractive strategy closes every chain.
func (c *Chain) Summarize(ctx context.Context, transcript string) (string, string) {
	if len(strings.TrimSpace(transcript)) < MinTranscriptChars {
		return TooShort, ""
	}

	for _, s := range c.strategies {
		summary, err := s.Summarize(ctx, transcript)
		if err == nil && strings.TrimSpace(summary) != "" {
			c.metrics.IncSummary(s.Name())
			return summary, s.Name()
		}
		if err == nil {
			err = fmt.Errorf("%w: empty summary", errs.ErrProviderUnavailable)
		}
		c.log.WithFields(logrus.Fields{
			"strategy": s.Name(),
			"reason":   errs.Reason(err),
		}).Warn("Summarizer failed, trying next strategy")
	}

	// Extractive only comes back blank for blank input.
	summary, _ := Extractive{}.Summarize(ctx, transcript)
	return summary, ExtractiveName
}

// Retrying wraps an AI strategy so rate-limited calls are tried again with
// a linear wait before the chain moves on.
type Retrying struct {
	Strategy
	MaxAttempts int
	Step        time.Duration
	Log         *logrus.Logger
	Metrics     *metrics.Metrics
}

// Summarize implements Strategy.
func (r Retrying) Summarize(ctx context.Context, transcript string) (string, error) {
	log := r.Log
	if log == nil {
		log = logger.Log
	}

	policy := retry.Policy{
		MaxAttempts: r.MaxAttempts,
		Step:        r.Step,
		Retryable:   errs.IsRateLimited,
		OnRetry: func(err error, wait time.Duration) {
			r.Metrics.IncRetry("summary")
			log.WithFields(logrus.Fields{"strategy": r.Name(), "wait": wait}).Warn("Rate limit hit, waiting before retry")
		},
	}

	summary, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return r.Strategy.Summarize(ctx, transcript)
	})
	if err != nil {
		if errors.Is(err, errs.ErrProviderUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%s: %w: %v", r.Name(), errs.ErrProviderUnavailable, err)
	}
	return summary, nil
}

// truncate bounds s to limit bytes, backing off to a rune boundary, and
// marks the cut with an ellipsis.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
