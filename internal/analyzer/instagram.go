package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/rivalscope/internal/aggregator"
	"github.com/gauthierbraillon/rivalscope/internal/content"
	"github.com/gauthierbraillon/rivalscope/internal/errs"
	"github.com/gauthierbraillon/rivalscope/internal/pacing"
	"github.com/gauthierbraillon/rivalscope/internal/window"
)

const (
	DefaultMaxPostsChecked   = 50
	DefaultMaxConsecutiveOld = 10
)

// PostSource lists an account's posts newest first.
type PostSource interface {
	Posts(ctx context.Context, username string) (content.PostIterator, error)
}

// InstagramConfig is the roster and scan bounds of the Instagram analysis.
type InstagramConfig struct {
	Accounts          []string
	Policy            content.Policy
	MaxPostsChecked   int
	MaxConsecutiveOld int
}

// InstagramResult is the snapshot of one Instagram run.
type InstagramResult struct {
	Reels        []content.Item
	Posts        []content.Item
	All          []content.Item
	Stats        aggregator.InstagramStats
	Window       window.Window
	Successful   []string
	Failed       []string
	AnalysisDate time.Time
}

// InstagramAnalyzer scans accounts one after another and ranks what it finds.
type InstagramAnalyzer struct {
	runtime
	source PostSource
	cfg    InstagramConfig
}

// NewInstagramAnalyzer creates an analyzer over source.
func NewInstagramAnalyzer(source PostSource, cfg InstagramConfig, opts ...Option) *InstagramAnalyzer {
	if cfg.MaxPostsChecked <= 0 {
		cfg.MaxPostsChecked = DefaultMaxPostsChecked
	}
	if cfg.MaxConsecutiveOld <= 0 {
		cfg.MaxConsecutiveOld = DefaultMaxConsecutiveOld
	}
	return &InstagramAnalyzer{
		runtime: newRuntime(opts),
		source:  source,
		cfg:     cfg,
	}
}

// Analyze scans every account in configured order. Account failures are
// recorded and skipped; only a cancelled context stops the run early.
func (a *InstagramAnalyzer) Analyze(ctx context.Context) (InstagramResult, error) {
	w := a.window.Window()
	agg := aggregator.New()
	res := InstagramResult{Window: w, AnalysisDate: a.now()}

	a.log.WithFields(logrus.Fields{
		"accounts": len(a.cfg.Accounts),
		"start":    w.Start.Format("2006-01-02"),
		"end":      w.End.Format("2006-01-02"),
	}).Info("Analyzing Instagram accounts")

	for i, account := range a.cfg.Accounts {
		if i > 0 {
			if err := a.pacer.Pause(ctx, pacing.BeforeAccount); err != nil {
				return a.finish(res, agg), err
			}
		}

		log := a.log.WithField("account", account)
		started := time.Now()
		items, err := a.ScanAccount(ctx, account, w)
		a.metrics.ObserveStage("instagram_account", time.Since(started).Seconds())
		agg.AddItems(items)

		switch {
		case err != nil:
			reason := errs.Reason(err)
			log.WithField("reason", reason).WithField("kept", len(items)).Warn("Failed to process account")
			res.Failed = append(res.Failed, fmt.Sprintf("%s (%s)", account, reason))
			a.metrics.IncAccount("instagram", "failed")
		case len(items) == 0:
			log.Info("No posts found in the window, account may be private or inactive")
			res.Failed = append(res.Failed, account+" (no posts found)")
			a.metrics.IncAccount("instagram", "empty")
		default:
			log.WithField("posts", len(items)).Info("Account processed")
			res.Successful = append(res.Successful, account)
			a.metrics.IncAccount("instagram", "ok")
		}

		if ctx.Err() != nil {
			return a.finish(res, agg), ctx.Err()
		}
		if i < len(a.cfg.Accounts)-1 {
			if err := a.pacer.Pause(ctx, pacing.AfterAccount); err != nil {
				return a.finish(res, agg), err
			}
		}
	}

	res = a.finish(res, agg)
	a.log.WithFields(logrus.Fields{
		"posts":  len(res.All),
		"failed": len(res.Failed),
	}).Info("Instagram analysis complete")
	return res, nil
}

func (a *InstagramAnalyzer) finish(res InstagramResult, agg *aggregator.Aggregator) InstagramResult {
	res.All = agg.All()
	res.Reels = agg.Reels()
	res.Posts = agg.Posts()
	res.Stats = agg.Stats()
	return res
}

// ScanAccount returns the account's posts inside w. The scan relies on the
// newest-first order of the upstream and ends after MaxPostsChecked posts,
// after MaxConsecutiveOld posts older than the window in a row, or at the
// first old post when nothing in the window has been found yet. Items
// collected before an error are returned with it.
func (a *InstagramAnalyzer) ScanAccount(ctx context.Context, account string, w window.Window) ([]content.Item, error) {
	log := a.log.WithField("account", account)

	it, err := a.source.Posts(ctx, account)
	if err != nil {
		return nil, err
	}

	items := make([]content.Item, 0)
	examined, consecutiveOld := 0, 0
	for examined < a.cfg.MaxPostsChecked {
		raw, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return items, err
		}
		examined++

		if raw.TakenAt.IsZero() {
			log.WithField("shortcode", raw.Shortcode).Debug("Skipping post without a timestamp")
			continue
		}

		taken := raw.TakenAt.UTC()
		if taken.Before(w.Start) {
			consecutiveOld++
			if len(items) == 0 || consecutiveOld >= a.cfg.MaxConsecutiveOld {
				log.WithField("checked", examined).Debug("Reached posts older than the window")
				break
			}
			continue
		}
		consecutiveOld = 0

		if taken.After(w.End) {
			continue
		}

		item := content.Classify(raw, a.cfg.Policy)
		items = append(items, item)
		a.metrics.IncPost(item.Kind())
	}

	if examined >= a.cfg.MaxPostsChecked {
		log.WithField("checked", examined).Debug("Reached post check limit")
	}
	return items, nil
}
