package summarize

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/rivalscope/internal/config"
	"github.com/gauthierbraillon/rivalscope/internal/errs"
	"github.com/gauthierbraillon/rivalscope/internal/logger"
	"github.com/gauthierbraillon/rivalscope/internal/metrics"
)

// FromConfig builds the chain described by the summarization settings.
// Providers without an API key are left out; unknown names are a
// configuration error.
func FromConfig(ctx context.Context, cfg config.SummarizationConfig, log *logrus.Logger, m *metrics.Metrics) (*Chain, error) {
	if log == nil {
		log = logger.Log
	}

	var strategies []Strategy
	for _, p := range cfg.Providers {
		if p.Name == ExtractiveName {
			continue
		}
		if p.APIKey == "" {
			log.WithField("provider", p.Name).Info("No API key configured, provider disabled")
			continue
		}

		var s Strategy
		switch p.Name {
		case GeminiName:
			s = NewGemini(p.APIKey, p.Model, p.BaseURL)
		case OpenAIName:
			o, err := NewOpenAI(ctx, p.APIKey, p.Model, p.BaseURL)
			if err != nil {
				log.WithField("provider", p.Name).WithError(err).Warn("Provider disabled")
				continue
			}
			s = o
		default:
			return nil, fmt.Errorf("%w: unknown summarization provider %q", errs.ErrConfig, p.Name)
		}

		strategies = append(strategies, Retrying{
			Strategy:    s,
			MaxAttempts: cfg.MaxAttempts,
			Step:        cfg.BackoffStep,
			Log:         log,
			Metrics:     m,
		})
	}

	return NewChain(strategies, WithLogger(log), WithMetrics(m)), nil
}
