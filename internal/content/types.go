// Package content classifies raw Instagram records into typed, scored items.
//
// Upstream metadata is frequently incomplete, so every uncertain field on
// RawPost is optional and Classify documents the precedence used to settle
// the video, reel and carousel flags.
package content

import (
	"context"
	"time"
)

// Type names reported by the Instagram web API.
const (
	TypeSidecar = "GraphSidecar"
	TypeVideo   = "GraphVideo"
	TypeImage   = "GraphImage"
)

// RawPost is one record as returned by the upstream post listing.
type RawPost struct {
	Shortcode string
	Owner     string
	TypeName  string
	IsVideo   bool
	Likes     int64
	Comments  int64
	Caption   string
	URL       string
	TakenAt   time.Time

	// Optional fields. Nil means the upstream did not report them.
	Views         *int64
	VideoDuration *float64
	IsReel        *bool
	MediaCount    *int

	// SidecarCount enumerates carousel children. It may fail or be nil.
	SidecarCount func() (int, error)
}

// CarouselInfo describes a multi-slide post. Likes are shared by all slides.
type CarouselInfo struct {
	SlideCount      int   `json:"slide_count"`
	SharedLikeTotal int64 `json:"total_likes"`
}

// Item is a classified post. It is fully derived when created.
type Item struct {
	SourceID          string        `json:"shortcode"`
	Owner             string        `json:"username"`
	URL               string        `json:"post_url"`
	PublishedAt       time.Time     `json:"date"`
	Likes             int64         `json:"likes"`
	Comments          int64         `json:"comments"`
	Views             *int64        `json:"views"`
	Caption           string        `json:"caption"`
	IsVideo           bool          `json:"is_video"`
	IsReel            bool          `json:"is_reel"`
	IsCarousel        bool          `json:"is_carousel"`
	Carousel          *CarouselInfo `json:"carousel_metrics"`
	Engagement        int64         `json:"engagement"`
	PerformanceMetric *int64        `json:"reel_performance"`
	ReelIndicators    []string      `json:"reel_indicators,omitempty"`
}

// Kind returns the display type of the item.
func (i Item) Kind() string {
	switch {
	case i.IsCarousel:
		return "Carousel"
	case i.IsReel:
		return "Reel"
	case i.IsVideo:
		return "Video"
	default:
		return "Photo"
	}
}

// Performance returns the ranking metric for reels, treating nil as zero.
func (i Item) Performance() int64 {
	if i.PerformanceMetric == nil {
		return 0
	}
	return *i.PerformanceMetric
}

// PostIterator yields an account's posts newest first and returns io.EOF
// when exhausted.
type PostIterator interface {
	Next(ctx context.Context) (RawPost, error)
}
