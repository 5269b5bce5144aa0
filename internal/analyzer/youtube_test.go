package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gauthierbraillon/rivalscope/internal/aggregator"
	"github.com/gauthierbraillon/rivalscope/internal/config"
	"github.com/gauthierbraillon/rivalscope/internal/errs"
	"github.com/gauthierbraillon/rivalscope/internal/logger"
	"github.com/gauthierbraillon/rivalscope/internal/pacing"
	"github.com/gauthierbraillon/rivalscope/internal/transcript"
	"github.com/gauthierbraillon/rivalscope/internal/youtube"
)

const longTranscript = "Welcome to Growth Weekly. Today Maria shares pricing lessons from Stripe. " +
	"Maria explains how Stripe grew. Growth comes from focus."

type fakeVideoSource struct {
	listings   map[string][]youtube.Entry
	listErrors map[string]error
	videos     map[string]youtube.Video
	fetched    []string
}

func (f *fakeVideoSource) ListChannelVideos(_ context.Context, channelURL, _ string) ([]youtube.Entry, error) {
	if err := f.listErrors[channelURL]; err != nil {
		return nil, err
	}
	return f.listings[channelURL], nil
}

func (f *fakeVideoSource) FetchVideo(_ context.Context, id string) (youtube.Video, error) {
	f.fetched = append(f.fetched, id)
	v, ok := f.videos[id]
	if !ok {
		return youtube.Video{}, fmt.Errorf("video %s: %w", id, errs.ErrNotFound)
	}
	return v, nil
}

type fakeTranscriber map[string]transcript.Result

func (f fakeTranscriber) Acquire(_ context.Context, videoURL string) transcript.Result {
	if res, ok := f[videoURL]; ok {
		return res
	}
	return transcript.Result{Status: transcript.StatusUnavailable, Reason: "no captions"}
}

type fakeSummarizer struct{ calls int }

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, string) {
	f.calls++
	return "Summary: " + text[:10], "fake"
}

func video(id, uploadDate string) youtube.Video {
	return youtube.Video{
		ID:              id,
		Title:           "Episode " + id,
		UploadDate:      uploadDate,
		DurationSeconds: 3600,
		ViewCount:       1000,
		URL:             youtube.WatchURL(id),
	}
}

// listing builds n entries for channelURL; positions (1-based) in inWindow
// are dated inside the test window, the rest a month earlier.
func listing(src *fakeVideoSource, channelURL string, n int, inWindow ...int) {
	recent := make(map[int]bool)
	for _, p := range inWindow {
		recent[p] = true
	}
	for pos := 1; pos <= n; pos++ {
		id := fmt.Sprintf("%s-%02d", strings.TrimPrefix(channelURL, "https://www.youtube.com/@"), pos)
		src.listings[channelURL] = append(src.listings[channelURL], youtube.Entry{ID: id, URL: youtube.WatchURL(id)})
		date := "20240401"
		if recent[pos] {
			date = fmt.Sprintf("202405%02d", 10-pos%7)
		}
		src.videos[id] = video(id, date)
	}
}

func newVideoSource() *fakeVideoSource {
	return &fakeVideoSource{
		listings:   make(map[string][]youtube.Entry),
		listErrors: make(map[string]error),
		videos:     make(map[string]youtube.Video),
	}
}

func newTestYouTube(src VideoSource, tr Transcriber, sum Summarizer, cfg YouTubeConfig, pacer pacing.Pacer) *YouTubeAnalyzer {
	return NewYouTubeAnalyzer(src, tr, sum, cfg,
		WithPacer(pacer), WithLogger(logger.Discard()), WithWindow(testWindow()))
}

func TestAC310_DiscoverVideos_StopsAfterKMatches(t *testing.T) {
	src := newVideoSource()
	listing(src, "https://www.youtube.com/@pod", 25, 2, 9, 15)
	a := newTestYouTube(src, fakeTranscriber{}, &fakeSummarizer{}, YouTubeConfig{VideosPerChannel: 2}, pacing.Noop{})
	ch := config.Channel{Name: "Pod", URL: "https://www.youtube.com/@pod"}

	found, err := a.DiscoverVideos(context.Background(), ch, testWindow().Window())

	if err != nil {
		t.Fatalf("discovery should succeed, got %v", err)
	}
	if len(found) != 2 || found[0].ID != "pod-02" || found[1].ID != "pod-09" {
		t.Errorf("user should see the videos at positions 2 and 9, got %+v", found)
	}
	if len(src.fetched) != 9 {
		t.Errorf("scan should stop right after the 2nd match, fetched %d entries", len(src.fetched))
	}
	for _, id := range src.fetched {
		if id == "pod-15" {
			t.Error("position 15 should never be examined")
		}
	}
}

func TestAC311_DiscoverVideos_ExaminesAtMostTwentyEntries(t *testing.T) {
	src := newVideoSource()
	listing(src, "https://www.youtube.com/@old", 25)
	a := newTestYouTube(src, fakeTranscriber{}, &fakeSummarizer{}, YouTubeConfig{}, pacing.Noop{})

	found, _ := a.DiscoverVideos(context.Background(), config.Channel{URL: "https://www.youtube.com/@old"}, testWindow().Window())

	if len(found) != 0 {
		t.Errorf("no video is in the window, got %d", len(found))
	}
	if len(src.fetched) != 20 {
		t.Errorf("discovery should examine 20 entries, examined %d", len(src.fetched))
	}
}

func TestAC312_DiscoverVideos_SkipsUnresolvableEntries(t *testing.T) {
	src := newVideoSource()
	src.listings["c"] = []youtube.Entry{{ID: "gone"}, {ID: "undated"}, {ID: "ok"}}
	src.videos["undated"] = video("undated", "")
	src.videos["ok"] = video("ok", "20240509")
	a := newTestYouTube(src, fakeTranscriber{}, &fakeSummarizer{}, YouTubeConfig{}, pacing.Noop{})

	found, _ := a.DiscoverVideos(context.Background(), config.Channel{URL: "c"}, testWindow().Window())

	if len(found) != 1 || found[0].ID != "ok" {
		t.Errorf("only the dated in-window video should be found, got %+v", found)
	}
}

func TestAC313_PublishedAt_FallsBackToTimestamp(t *testing.T) {
	ts := testNow.Add(-time.Hour).Unix()

	got, ok := PublishedAt(youtube.Video{Timestamp: &ts})
	if !ok || !got.Equal(time.Unix(ts, 0)) {
		t.Errorf("timestamp should date the video, got %v %v", got, ok)
	}

	got, ok = PublishedAt(youtube.Video{UploadDate: "20240508"})
	if !ok || !got.Equal(time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("compact date should be UTC midnight, got %v", got)
	}

	if _, ok := PublishedAt(youtube.Video{UploadDate: "2024-5-8"}); ok {
		t.Error("unparseable date should not date the video")
	}
}

func TestAC314_Analyze_RunsPodcastLifecycle(t *testing.T) {
	src := newVideoSource()
	src.listings["https://www.youtube.com/@show"] = []youtube.Entry{{ID: "en"}, {ID: "fr"}, {ID: "none"}}
	src.videos["en"] = video("en", "20240508")
	src.videos["fr"] = video("fr", "20240509")
	src.videos["none"] = video("none", "20240507")
	tr := fakeTranscriber{
		youtube.WatchURL("en"): {Status: transcript.StatusAcquired, Text: longTranscript},
		youtube.WatchURL("fr"): {Status: transcript.StatusSkippedNonEnglish},
	}
	sum := &fakeSummarizer{}
	rec := &pacing.Recorder{}
	cfg := YouTubeConfig{Channels: []config.Channel{{Name: "Show", URL: "https://www.youtube.com/@show"}}}
	a := newTestYouTube(src, tr, sum, cfg, rec)

	res, err := a.Analyze(context.Background())

	if err != nil {
		t.Fatalf("run should succeed, got %v", err)
	}
	if len(res.Podcasts) != 2 {
		t.Fatalf("non-English video should be dropped, got %d podcasts", len(res.Podcasts))
	}

	first, second := res.Podcasts[0], res.Podcasts[1]
	if first.VideoID != "en" || second.VideoID != "none" {
		t.Errorf("podcasts should be newest first, got %s then %s", first.VideoID, second.VideoID)
	}
	if first.State != aggregator.StateSummarized || first.Summary != "Summary: Welcome to" {
		t.Errorf("English video should be summarized, got %+v", first)
	}
	if !reflect.DeepEqual(first.KeyTopics, []string{"Growth", "Maria", "Stripe", "Welcome", "Weekly"}) {
		t.Errorf("key topics mismatch: %v", first.KeyTopics)
	}
	if second.State != aggregator.StateTranscriptUnavailable ||
		second.Transcript != aggregator.TranscriptNotAvailable ||
		second.Summary != aggregator.SummaryNoTranscript {
		t.Errorf("video without captions should carry the sentinels, got %+v", second)
	}
	if sum.calls != 1 {
		t.Errorf("only the transcribed video should be summarized, got %d calls", sum.calls)
	}
	if rec.Count(pacing.BetweenVideos) != 3 || rec.Count(pacing.BeforeSummary) != 1 {
		t.Errorf("user should see a pause per video and before the summary, got %v", rec.Stages)
	}
	if res.Stats.TotalPodcasts != 2 || res.Stats.TotalDuration != 7200 || res.Stats.ChannelsAnalyzed != 1 {
		t.Errorf("stats mismatch: %+v", res.Stats)
	}
}

func TestAC314_ProcessVideo_MarksNonEnglishVideoSkipped(t *testing.T) {
	tr := fakeTranscriber{youtube.WatchURL("fr"): {Status: transcript.StatusSkippedNonEnglish}}
	sum := &fakeSummarizer{}
	a := newTestYouTube(newVideoSource(), tr, sum, YouTubeConfig{}, pacing.Noop{})
	found := DiscoveredVideo{Video: video("fr", "20240507")}

	p, keep, err := a.processVideo(context.Background(), config.Channel{Name: "Show"}, found)

	if err != nil {
		t.Fatalf("skipping should not fail, got %v", err)
	}
	if keep {
		t.Error("non-English video should not be kept")
	}
	if p.State != aggregator.StateSkippedNonEnglish {
		t.Errorf("user should see state %q, got %q", aggregator.StateSkippedNonEnglish, p.State)
	}
	if sum.calls != 0 {
		t.Errorf("skipped video should not be summarized, got %d calls", sum.calls)
	}
}

func TestAC315_Analyze_IsolatesChannelFailures(t *testing.T) {
	src := newVideoSource()
	src.listErrors["https://www.youtube.com/@down"] = fmt.Errorf("listing: %w", errs.ErrRateLimited)
	listing(src, "https://www.youtube.com/@up", 3, 1)
	cfg := YouTubeConfig{Channels: []config.Channel{
		{Name: "Down", URL: "https://www.youtube.com/@down"},
		{Name: "Up", URL: "https://www.youtube.com/@up"},
	}}
	a := newTestYouTube(src, fakeTranscriber{}, &fakeSummarizer{}, cfg, pacing.Noop{})

	res, err := a.Analyze(context.Background())

	if err != nil {
		t.Fatalf("channel failure should not abort the run, got %v", err)
	}
	if !reflect.DeepEqual(res.Failed, []string{"Down (rate limited)"}) {
		t.Errorf("user should see the failed channel, got %v", res.Failed)
	}
	if len(res.Podcasts) != 1 || res.Podcasts[0].Channel != "Up" {
		t.Errorf("remaining channels should still be processed, got %+v", res.Podcasts)
	}
}

func TestAC316_Artifacts_MatchSavedLayout(t *testing.T) {
	ig := InstagramResult{
		Window:       testWindow().Window(),
		AnalysisDate: testNow,
	}

	data, err := ig.MarshalArtifact()
	if err != nil {
		t.Fatalf("artifact should encode, got %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("artifact should be valid JSON, got %v", err)
	}
	if decoded["analysis_date"] != "2024-05-10 12:00:00" {
		t.Errorf("analysis date mismatch: %v", decoded["analysis_date"])
	}
	week, _ := decoded["week_range"].(map[string]any)
	if week["start"] != "2024-05-03" || week["end"] != "2024-05-10" {
		t.Errorf("week range mismatch: %v", week)
	}
	if posts, ok := decoded["top_posts"].([]any); !ok || len(posts) != 0 {
		t.Errorf("empty run should save an empty post list, got %v", decoded["top_posts"])
	}
	if !strings.Contains(string(data), "\n  \"analysis_date\"") {
		t.Error("artifact should be indented by two spaces")
	}

	yt := YouTubeResult{AnalysisDate: testNow, Podcasts: []aggregator.Podcast{{Title: "Café & Co"}}}
	data, err = yt.MarshalArtifact()
	if err != nil {
		t.Fatalf("artifact should encode, got %v", err)
	}
	if !strings.Contains(string(data), "Café & Co") {
		t.Errorf("non-ASCII and HTML characters should be kept as is, got %s", data)
	}
}
