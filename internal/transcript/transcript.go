// Package transcript fetches English captions for a video and flattens them
// into plain text.
package transcript

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gauthierbraillon/rivalscope/internal/errs"
	"github.com/gauthierbraillon/rivalscope/internal/logger"
	"github.com/gauthierbraillon/rivalscope/internal/metrics"
	"github.com/gauthierbraillon/rivalscope/internal/retry"
	"github.com/gauthierbraillon/rivalscope/internal/youtube"
)

// Status is the outcome of one acquisition.
type Status string

const (
	StatusAcquired          Status = "acquired"
	StatusSkippedNonEnglish Status = "skipped_non_english"
	StatusUnavailable       Status = "unavailable"
)

const (
	MethodYouTube = "youtube"
	MethodSkip    = "skip"
)

// Result carries the transcript text when Status is StatusAcquired and a
// short reason when it is StatusUnavailable.
type Result struct {
	Status Status
	Text   string
	Reason string
}

// DefaultLanguages are tried in order, manual tracks before automatic ones.
var DefaultLanguages = []string{"en", "en-US", "en-GB"}

// throttleWords mark a failure worth retrying. YouTube answers subtitle
// floods with 403 as often as with 429.
var throttleWords = []string{"429", "too many requests", "rate limit", "403", "forbidden"}

// TrackSource lists caption tracks and downloads subtitle files.
type TrackSource interface {
	CaptionTracks(ctx context.Context, videoURL string) (youtube.Captions, error)
	FetchSubtitle(ctx context.Context, url string) (string, error)
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithLanguages replaces the accepted caption languages.
func WithLanguages(langs []string) Option {
	return func(a *Acquirer) {
		if len(langs) > 0 {
			a.languages = langs
		}
	}
}

// WithRetry sets the attempt ceiling and the linear wait step.
func WithRetry(maxAttempts int, step time.Duration) Option {
	return func(a *Acquirer) {
		a.maxAttempts = maxAttempts
		a.step = step
	}
}

// WithMethod selects "youtube" or "skip".
func WithMethod(method string) Option {
	return func(a *Acquirer) {
		a.skip = method == MethodSkip
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(a *Acquirer) { a.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Acquirer) { a.metrics = m }
}

// Acquirer gates captions by language and retries throttled downloads.
type Acquirer struct {
	source      TrackSource
	languages   []string
	maxAttempts int
	step        time.Duration
	skip        bool
	log         *logrus.Logger
	metrics     *metrics.Metrics
}

// NewAcquirer creates an Acquirer reading from source.
func NewAcquirer(source TrackSource, opts ...Option) *Acquirer {
	a := &Acquirer{
		source:      source,
		languages:   DefaultLanguages,
		maxAttempts: 3,
		step:        5 * time.Second,
		log:         logger.Log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire returns the transcript of the video at videoURL. It never returns
// an error: failures are folded into a StatusUnavailable result.
func (a *Acquirer) Acquire(ctx context.Context, videoURL string) Result {
	res := a.acquire(ctx, videoURL)
	a.metrics.IncTranscript(string(res.Status))
	return res
}

func (a *Acquirer) acquire(ctx context.Context, videoURL string) Result {
	if a.skip {
		return Result{Status: StatusUnavailable, Reason: "transcription skipped"}
	}

	log := a.log.WithField("video", videoURL)
	policy := retry.Policy{
		MaxAttempts: a.maxAttempts,
		Step:        a.step,
		Retryable:   isThrottled,
		OnRetry: func(err error, wait time.Duration) {
			a.metrics.IncRetry("transcript")
			log.WithFields(logrus.Fields{"wait": wait, "error": err}).Warn("Subtitle download throttled, retrying")
		},
	}

	res, err := retry.Do(ctx, policy, a.fetchOnce(videoURL))
	if err != nil {
		log.WithField("reason", errs.Reason(err)).Warn("Transcript unavailable")
		return Result{Status: StatusUnavailable, Reason: errs.Reason(err)}
	}
	return res
}

func (a *Acquirer) fetchOnce(videoURL string) func(context.Context) (Result, error) {
	return func(ctx context.Context) (Result, error) {
		caps, err := a.source.CaptionTracks(ctx, videoURL)
		if err != nil {
			return Result{}, err
		}

		formats, lang, ok := SelectTrack(caps, a.languages)
		if !ok {
			a.log.WithField("video", videoURL).Info("No English captions, skipping video")
			return Result{Status: StatusSkippedNonEnglish}, nil
		}

		raw, err := a.source.FetchSubtitle(ctx, pickFormat(formats).URL)
		if err != nil {
			return Result{}, err
		}

		text := ParseVTT(raw)
		if text == "" {
			return Result{Status: StatusUnavailable, Reason: "empty subtitle track"}, nil
		}

		a.log.WithFields(logrus.Fields{"video": videoURL, "lang": lang, "chars": len(text)}).Debug("Transcript acquired")
		return Result{Status: StatusAcquired, Text: text}, nil
	}
}

func isThrottled(err error) bool {
	return errors.Is(err, errs.ErrRateLimited) || errs.ContainsAny(err.Error(), throttleWords...)
}

// SelectTrack returns the formats of the first accepted language, looking at
// every manual track before any automatic one.
func SelectTrack(caps youtube.Captions, languages []string) ([]youtube.SubtitleFormat, string, bool) {
	for _, tracks := range []map[string][]youtube.SubtitleFormat{caps.Manual, caps.Automatic} {
		for _, lang := range languages {
			if formats := tracks[lang]; len(formats) > 0 {
				return formats, lang, true
			}
		}
	}
	return nil, "", false
}

func pickFormat(formats []youtube.SubtitleFormat) youtube.SubtitleFormat {
	for _, f := range formats {
		if f.Ext == "vtt" || strings.Contains(f.URL, "vtt") {
			return f
		}
	}
	return formats[0]
}
