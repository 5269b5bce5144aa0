// Package aggregator ranks classified items and rolls them into summary
// statistics.
//
// This package enables rivalscope to:
// - Pick the top reels by views and the top posts by engagement
// - Count items per content type across all scanned accounts
// - Summarise the podcasts found on competitor channels
package aggregator

import "time"

// TopN is the length of every ranked list.
const TopN = 10

// PodcastState is the lifecycle position of a podcast entry.
type PodcastState string

const (
	StateDiscovered            PodcastState = "discovered"
	StateSkippedNonEnglish     PodcastState = "transcript_skipped_non_english"
	StateTranscriptUnavailable PodcastState = "transcript_unavailable"
	StateTranscriptAcquired    PodcastState = "transcript_acquired"
	StateSummarized            PodcastState = "summarized"
	StateSummaryUnavailable    PodcastState = "summary_unavailable"
)

// Sentinel texts stored on podcasts that could not be fully processed.
const (
	TranscriptNotAvailable = "Transcript not available"
	SummaryNoTranscript    = "Summary not available - no transcript"
	SummaryProviderFailed  = "Summary not available - API error"
)

// Podcast is a channel video that went through transcription and summary.
type Podcast struct {
	VideoID         string       `json:"video_id"`
	Title           string       `json:"title"`
	Channel         string       `json:"channel"`
	URL             string       `json:"url"`
	PublishedAt     time.Time    `json:"published_date"`
	DurationSeconds int64        `json:"duration"`
	Views           int64        `json:"views"`
	Summary         string       `json:"summary"`
	Transcript      string       `json:"transcript"`
	KeyTopics       []string     `json:"key_topics"`
	State           PodcastState `json:"state"`
}

// InstagramStats are the counters shown next to the ranked lists.
type InstagramStats struct {
	TotalPosts        int   `json:"total_posts"`
	AverageEngagement int64 `json:"average_engagement"`
	TopEngagement     int64 `json:"top_engagement"`
	AccountsAnalyzed  int   `json:"accounts_analyzed"`
	CarouselCount     int   `json:"carousel_count"`
	PhotoCount        int   `json:"photo_count"`
	ReelCount         int   `json:"reel_count"`
	VideoCount        int   `json:"video_count"`
	TotalViews        int64 `json:"total_views"`
}

// PodcastStats summarise one YouTube run.
type PodcastStats struct {
	TotalPodcasts    int   `json:"total_podcasts"`
	TotalDuration    int64 `json:"total_duration"`
	ChannelsAnalyzed int   `json:"channels_analyzed"`
}
