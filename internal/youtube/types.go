// Package youtube reads public YouTube channel listings, watch-page
// metadata and caption tracks.
//
// This package enables rivalscope to:
// - List a channel's latest uploads cheaply (RSS feed or /videos page)
// - Resolve full metadata for one video from its watch page
// - Enumerate manual and automatic caption tracks by language
// - Download a subtitle file
package youtube

import "time"

// Entry is one item of a channel listing. Listings do not reliably carry
// publish dates, so Published is informational only.
type Entry struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Published *time.Time `json:"published,omitempty"`
}

// Video is the full metadata of one video.
type Video struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ChannelTitle    string   `json:"channel_title"`
	UploadDate      string   `json:"upload_date"`
	Timestamp       *int64   `json:"timestamp,omitempty"`
	DurationSeconds int64    `json:"duration"`
	ViewCount       int64    `json:"view_count"`
	URL             string   `json:"url"`
	Captions        Captions `json:"-"`
}

// SubtitleFormat is one downloadable rendition of a caption track.
type SubtitleFormat struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

// Captions maps language codes to formats, split into manual subtitles and
// automatic captions.
type Captions struct {
	Manual    map[string][]SubtitleFormat `json:"subtitles"`
	Automatic map[string][]SubtitleFormat `json:"automatic_captions"`
}
