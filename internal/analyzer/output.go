package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gauthierbraillon/rivalscope/internal/aggregator"
	"github.com/gauthierbraillon/rivalscope/internal/content"
)

const (
	analysisDateLayout = "2006-01-02 15:04:05"
	dayLayout          = "2006-01-02"
)

type weekRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type instagramArtifact struct {
	AnalysisDate    string         `json:"analysis_date"`
	WeekRange       weekRange      `json:"week_range"`
	TotalPostsFound int            `json:"total_posts_found"`
	TopPosts        []content.Item `json:"top_posts"`
}

type youtubeArtifact struct {
	Podcasts     []aggregator.Podcast    `json:"podcasts"`
	Stats        aggregator.PodcastStats `json:"stats"`
	AnalysisDate string                  `json:"analysis_date"`
}

// MarshalArtifact renders the Instagram snapshot as saved to disk.
func (r InstagramResult) MarshalArtifact() ([]byte, error) {
	all := r.All
	if all == nil {
		all = []content.Item{}
	}
	return marshalIndent(instagramArtifact{
		AnalysisDate: r.AnalysisDate.Format(analysisDateLayout),
		WeekRange: weekRange{
			Start: r.Window.Start.Format(dayLayout),
			End:   r.Window.End.Format(dayLayout),
		},
		TotalPostsFound: len(all),
		TopPosts:        all,
	})
}

// MarshalArtifact renders the YouTube snapshot as saved to disk.
func (r YouTubeResult) MarshalArtifact() ([]byte, error) {
	podcasts := r.Podcasts
	if podcasts == nil {
		podcasts = []aggregator.Podcast{}
	}
	return marshalIndent(youtubeArtifact{
		Podcasts:     podcasts,
		Stats:        r.Stats,
		AnalysisDate: r.AnalysisDate.Format(analysisDateLayout),
	})
}

// marshalIndent indents by two spaces and leaves non-ASCII and HTML
// characters unescaped.
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	return buf.Bytes(), nil
}

// Artifact is a snapshot that can be written to disk.
type Artifact interface {
	MarshalArtifact() ([]byte, error)
}

// WriteArtifact saves a snapshot to path. The file is write-only output and
// is never read back.
func WriteArtifact(path string, a Artifact) error {
	data, err := a.MarshalArtifact()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
