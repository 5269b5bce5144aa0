package analyzer

import (
	"context"
	"time"

	"github.com/gauthierbraillon/rivalscope/internal/config"
	"github.com/gauthierbraillon/rivalscope/internal/content"
	"github.com/gauthierbraillon/rivalscope/internal/instagram"
	"github.com/gauthierbraillon/rivalscope/internal/pacing"
	"github.com/gauthierbraillon/rivalscope/internal/summarize"
	"github.com/gauthierbraillon/rivalscope/internal/transcript"
	"github.com/gauthierbraillon/rivalscope/internal/youtube"
)

// PacerFromConfig builds the pacer selected by the pacing mode.
func PacerFromConfig(pc config.PacingConfig) pacing.Pacer {
	switch pc.Mode {
	case config.PacingNone:
		return pacing.Noop{}
	case config.PacingTokenBucket:
		return pacing.NewTokenBucket(pc.RPM, pc.Burst)
	default:
		return pacing.NewFixed(map[pacing.Stage]time.Duration{
			pacing.BeforeAccount: pc.BeforeAccount,
			pacing.AfterAccount:  pc.AfterAccount,
			pacing.BetweenVideos: pc.BetweenVideos,
			pacing.BeforeSummary: pc.BeforeSummary,
		}, pc.Jitter)
	}
}

// ClassifierPolicy maps the classifier knobs onto content.Policy.
func ClassifierPolicy(cc config.ClassifierConfig) content.Policy {
	def := content.DefaultPolicy()
	return content.Policy{
		ModernVideoIsReel:  config.BoolOr(cc.ModernVideoIsReel, def.ModernVideoIsReel),
		DefaultVideoIsReel: config.BoolOr(cc.DefaultVideoIsReel, def.DefaultVideoIsReel),
		ReelURLOverride:    config.BoolOr(cc.ReelURLOverride, def.ReelURLOverride),
	}
}

// NewInstagramFromConfig wires the Instagram client and analyzer from cfg.
// Options are applied after the configured pacer.
func NewInstagramFromConfig(cfg *config.Config, opts ...Option) *InstagramAnalyzer {
	client := instagram.NewClient(
		instagram.WithBaseURL(cfg.Instagram.BaseURL),
		instagram.WithAppID(cfg.Instagram.AppID),
	)
	ic := InstagramConfig{
		Accounts:          cfg.Instagram.Accounts,
		Policy:            ClassifierPolicy(cfg.Instagram.Classifier),
		MaxPostsChecked:   cfg.Instagram.MaxPostsChecked,
		MaxConsecutiveOld: cfg.Instagram.MaxConsecutiveOld,
	}
	return NewInstagramAnalyzer(client, ic, append([]Option{WithPacer(PacerFromConfig(cfg.Pacing))}, opts...)...)
}

// NewYouTubeFromConfig wires the YouTube client, transcript acquirer and
// summarizer chain from cfg.
func NewYouTubeFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*YouTubeAnalyzer, error) {
	opts = append([]Option{WithPacer(PacerFromConfig(cfg.Pacing))}, opts...)
	rt := newRuntime(opts)

	client := youtube.NewClient(youtube.WithBaseURL(cfg.YouTube.BaseURL))
	acquirer := transcript.NewAcquirer(client,
		transcript.WithMethod(cfg.Transcription.Method),
		transcript.WithLanguages(cfg.Transcription.Languages),
		transcript.WithRetry(cfg.Transcription.MaxAttempts, cfg.Transcription.BackoffStep),
		transcript.WithLogger(rt.log),
		transcript.WithMetrics(rt.metrics),
	)

	chain, err := summarize.FromConfig(ctx, cfg.Summarization, rt.log, rt.metrics)
	if err != nil {
		return nil, err
	}

	yc := YouTubeConfig{
		Channels:         cfg.YouTube.Channels,
		VideosPerChannel: cfg.YouTube.VideosPerChannel,
		MaxEntries:       cfg.YouTube.MaxEntries,
	}
	return NewYouTubeAnalyzer(client, acquirer, chain, yc, opts...), nil
}
