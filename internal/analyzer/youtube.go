package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/rivalscope/internal/aggregator"
	"github.com/gauthierbraillon/rivalscope/internal/config"
	"github.com/gauthierbraillon/rivalscope/internal/errs"
	"github.com/gauthierbraillon/rivalscope/internal/pacing"
	"github.com/gauthierbraillon/rivalscope/internal/summarize"
	"github.com/gauthierbraillon/rivalscope/internal/transcript"
	"github.com/gauthierbraillon/rivalscope/internal/window"
	"github.com/gauthierbraillon/rivalscope/internal/youtube"
)

const (
	DefaultVideosPerChannel = 3
	DefaultMaxEntries       = 20

	compactDate = "20060102"
)

// VideoSource is the cheap channel listing plus the expensive per-video lookup.
type VideoSource interface {
	ListChannelVideos(ctx context.Context, channelURL, channelID string) ([]youtube.Entry, error)
	FetchVideo(ctx context.Context, videoID string) (youtube.Video, error)
}

// Transcriber fetches the transcript of one video.
type Transcriber interface {
	Acquire(ctx context.Context, videoURL string) transcript.Result
}

// Summarizer returns a summary and the strategy that wrote it. An empty
// strategy means no summary could be produced.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, string)
}

// YouTubeConfig is the roster and discovery bounds of the YouTube analysis.
type YouTubeConfig struct {
	Channels         []config.Channel
	VideosPerChannel int
	MaxEntries       int
}

// YouTubeResult is the snapshot of one YouTube run.
type YouTubeResult struct {
	Podcasts     []aggregator.Podcast
	Stats        aggregator.PodcastStats
	Window       window.Window
	Failed       []string
	AnalysisDate time.Time
}

// DiscoveredVideo is a video whose publish date fell inside the window.
type DiscoveredVideo struct {
	youtube.Video
	PublishedAt time.Time
}

// YouTubeAnalyzer finds recent videos per channel, then transcribes and
// summarizes each of them.
type YouTubeAnalyzer struct {
	runtime
	videos      VideoSource
	transcriber Transcriber
	summarizer  Summarizer
	cfg         YouTubeConfig
}

// NewYouTubeAnalyzer creates an analyzer. A nil summarizer falls back to
// the extractive chain.
func NewYouTubeAnalyzer(videos VideoSource, tr Transcriber, sum Summarizer, cfg YouTubeConfig, opts ...Option) *YouTubeAnalyzer {
	if cfg.VideosPerChannel <= 0 {
		cfg.VideosPerChannel = DefaultVideosPerChannel
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	rt := newRuntime(opts)
	if sum == nil {
		sum = summarize.NewChain(nil, summarize.WithLogger(rt.log), summarize.WithMetrics(rt.metrics))
	}
	return &YouTubeAnalyzer{
		runtime:     rt,
		videos:      videos,
		transcriber: tr,
		summarizer:  sum,
		cfg:         cfg,
	}
}

// Analyze processes every channel in configured order and returns the
// podcasts newest first.
func (a *YouTubeAnalyzer) Analyze(ctx context.Context) (YouTubeResult, error) {
	w := a.window.Window()
	res := YouTubeResult{Window: w, AnalysisDate: a.now()}
	podcasts := make([]aggregator.Podcast, 0)

	a.log.WithFields(logrus.Fields{
		"channels": len(a.cfg.Channels),
		"start":    w.Start.Format("2006-01-02"),
		"end":      w.End.Format("2006-01-02"),
	}).Info("Analyzing YouTube channels")

	for _, ch := range a.cfg.Channels {
		log := a.log.WithField("channel", ch.Name)
		started := time.Now()

		found, err := a.DiscoverVideos(ctx, ch, w)
		if err != nil {
			log.WithField("reason", errs.Reason(err)).Warn("Error processing channel")
			res.Failed = append(res.Failed, fmt.Sprintf("%s (%s)", ch.Name, errs.Reason(err)))
			a.metrics.IncAccount("youtube", "failed")
			continue
		}

		channelPodcasts, err := a.processVideos(ctx, ch, found)
		podcasts = append(podcasts, channelPodcasts...)
		a.metrics.ObserveStage("youtube_channel", time.Since(started).Seconds())
		if err != nil {
			return a.finish(res, podcasts), err
		}

		log.WithField("podcasts", len(channelPodcasts)).Info("Channel processed")
		a.metrics.IncAccount("youtube", "ok")
	}

	res = a.finish(res, podcasts)
	a.log.WithField("podcasts", len(res.Podcasts)).Info("YouTube analysis complete")
	return res, nil
}

func (a *YouTubeAnalyzer) finish(res YouTubeResult, podcasts []aggregator.Podcast) YouTubeResult {
	aggregator.SortPodcastsNewestFirst(podcasts)
	res.Podcasts = podcasts
	res.Stats = aggregator.ComputePodcastStats(podcasts)
	return res
}

// DiscoverVideos returns up to VideosPerChannel videos published inside w,
// examining at most MaxEntries listed entries. Entries whose metadata
// cannot be fetched or dated are skipped.
func (a *YouTubeAnalyzer) DiscoverVideos(ctx context.Context, ch config.Channel, w window.Window) ([]DiscoveredVideo, error) {
	log := a.log.WithField("channel", ch.Name)

	entries, err := a.videos.ListChannelVideos(ctx, ch.URL, ch.ChannelID)
	if err != nil {
		return nil, err
	}

	limit := min(len(entries), a.cfg.MaxEntries)
	log.WithFields(logrus.Fields{"entries": len(entries), "checking": limit}).Debug("Channel listing fetched")

	found := make([]DiscoveredVideo, 0, a.cfg.VideosPerChannel)
	for i := 0; i < limit && len(found) < a.cfg.VideosPerChannel; i++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}

		entry := entries[i]
		if entry.ID == "" {
			continue
		}

		v, err := a.videos.FetchVideo(ctx, entry.ID)
		if err != nil {
			log.WithFields(logrus.Fields{"video_id": entry.ID, "reason": errs.Reason(err)}).Debug("Skipping video, metadata unavailable")
			a.metrics.IncVideo("lookup_failed")
			continue
		}
		if v.Title == "" {
			a.metrics.IncVideo("malformed")
			continue
		}

		published, ok := PublishedAt(v)
		if !ok {
			a.metrics.IncVideo("undated")
			continue
		}
		if !w.Contains(published) {
			a.metrics.IncVideo("outside_window")
			continue
		}

		a.metrics.IncVideo("in_window")
		found = append(found, DiscoveredVideo{Video: v, PublishedAt: published})
	}

	return found, nil
}

// PublishedAt reads the compact upload date, falling back to the unix
// timestamp. Dates are taken as UTC midnight.
func PublishedAt(v youtube.Video) (time.Time, bool) {
	if len(v.UploadDate) >= 8 {
		t, err := time.ParseInLocation(compactDate, v.UploadDate[:8], time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if v.Timestamp != nil {
		return time.Unix(*v.Timestamp, 0).UTC(), true
	}
	return time.Time{}, false
}

func (a *YouTubeAnalyzer) processVideos(ctx context.Context, ch config.Channel, found []DiscoveredVideo) ([]aggregator.Podcast, error) {
	podcasts := make([]aggregator.Podcast, 0, len(found))
	for _, v := range found {
		if err := a.pacer.Pause(ctx, pacing.BetweenVideos); err != nil {
			return podcasts, err
		}

		p, keep, err := a.processVideo(ctx, ch, v)
		if err != nil {
			return podcasts, err
		}
		if keep {
			podcasts = append(podcasts, p)
		}
	}
	return podcasts, nil
}

// processVideo moves one podcast through its lifecycle. keep is false when
// the video has no English captions and must be dropped.
func (a *YouTubeAnalyzer) processVideo(ctx context.Context, ch config.Channel, v DiscoveredVideo) (aggregator.Podcast, bool, error) {
	log := a.log.WithFields(logrus.Fields{"channel": ch.Name, "video_id": v.ID})

	p := aggregator.Podcast{
		VideoID:         v.ID,
		Title:           v.Title,
		Channel:         ch.Name,
		URL:             v.URL,
		PublishedAt:     v.PublishedAt,
		DurationSeconds: v.DurationSeconds,
		Views:           v.ViewCount,
		KeyTopics:       []string{},
		State:           aggregator.StateDiscovered,
	}

	res := a.transcriber.Acquire(ctx, v.URL)
	switch {
	case res.Status == transcript.StatusSkippedNonEnglish:
		p.State = aggregator.StateSkippedNonEnglish
		log.WithField("state", p.State).Info("Skipping video, no English subtitles")
		return p, false, nil

	case res.Status != transcript.StatusAcquired || len(strings.TrimSpace(res.Text)) <= summarize.MinTranscriptChars:
		log.WithField("reason", res.Reason).Warn("No transcript available")
		p.Transcript = aggregator.TranscriptNotAvailable
		p.Summary = aggregator.SummaryNoTranscript
		p.State = aggregator.StateTranscriptUnavailable
		return p, true, nil
	}

	p.Transcript = res.Text
	p.State = aggregator.StateTranscriptAcquired

	if err := a.pacer.Pause(ctx, pacing.BeforeSummary); err != nil {
		return p, true, err
	}

	summary, strategy := a.summarizer.Summarize(ctx, res.Text)
	if strategy == "" || strings.TrimSpace(summary) == "" {
		log.Warn("Summary unavailable")
		p.Summary = aggregator.SummaryProviderFailed
		p.State = aggregator.StateSummaryUnavailable
		return p, true, nil
	}

	p.Summary = summary
	p.KeyTopics = summarize.KeyTopics(res.Text)
	p.State = aggregator.StateSummarized
	log.WithField("strategy", strategy).Info("Transcribed and summarized")
	return p, true, nil
}
