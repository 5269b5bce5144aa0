// Package analyzer runs the Instagram and YouTube competitor analyses:
// paced scans of every configured account or channel, with failures
// isolated per account, channel and video.
package analyzer

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/rivalscope/internal/logger"
	"github.com/gauthierbraillon/rivalscope/internal/metrics"
	"github.com/gauthierbraillon/rivalscope/internal/pacing"
	"github.com/gauthierbraillon/rivalscope/internal/window"
)

// Option configures either analyzer.
type Option func(*runtime)

// runtime holds what both analyzers share.
type runtime struct {
	pacer   pacing.Pacer
	log     *logrus.Logger
	metrics *metrics.Metrics
	window  window.Policy
}

func newRuntime(opts []Option) runtime {
	r := runtime{
		pacer: pacing.NewFixed(pacing.DefaultDelays(), 0),
		log:   logger.Log,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithPacer replaces the default fixed delays.
func WithPacer(p pacing.Pacer) Option {
	return func(r *runtime) { r.pacer = p }
}

func WithLogger(log *logrus.Logger) Option {
	return func(r *runtime) { r.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *runtime) { r.metrics = m }
}

// WithWindow sets the clock and length of the analysis window.
func WithWindow(p window.Policy) Option {
	return func(r *runtime) { r.window = p }
}

func (r runtime) now() time.Time {
	if r.window.Now != nil {
		return r.window.Now()
	}
	return time.Now()
}
