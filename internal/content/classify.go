package content

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	shortFormMaxSeconds = 90
	captionMaxRunes     = 100
	baseURL             = "https://www.instagram.com"
)

// Policy holds the product decisions that are not derivable from the data.
type Policy struct {
	// ModernVideoIsReel treats GraphVideo and other video type tags as reels.
	ModernVideoIsReel bool
	// DefaultVideoIsReel makes a video a reel when no other rule matched.
	DefaultVideoIsReel bool
	// ReelURLOverride forces a reel when the URL path contains /reel/.
	ReelURLOverride bool
}

// DefaultPolicy treats every video as a reel, matching current Instagram.
func DefaultPolicy() Policy {
	return Policy{ModernVideoIsReel: true, DefaultVideoIsReel: true, ReelURLOverride: true}
}

// Classify derives type flags, engagement and performance for one record.
// Carousels are decided first and never become reels; videos then go
// through the reel rules in order, and everything else is a photo.
func Classify(raw RawPost, p Policy) Item {
	item := Item{
		SourceID:    raw.Shortcode,
		Owner:       raw.Owner,
		PublishedAt: raw.TakenAt.UTC(),
		Likes:       raw.Likes,
		Comments:    raw.Comments,
		Views:       raw.Views,
		Caption:     trimCaption(raw.Caption),
		Engagement:  raw.Likes + raw.Comments,
	}

	switch {
	case raw.TypeName == TypeSidecar:
		item.IsCarousel = true
		item.Carousel = &CarouselInfo{
			SlideCount:      slideCount(raw),
			SharedLikeTotal: raw.Likes,
		}
	case raw.IsVideo:
		item.IsVideo = true
		item.IsReel, item.ReelIndicators = reelRules(raw, p)
	}

	if !item.IsCarousel && p.ReelURLOverride && hasReelPath(raw.URL) {
		item.IsVideo = true
		item.IsReel = true
		item.ReelIndicators = append(item.ReelIndicators, "url_pattern")
	}

	if item.IsReel {
		metric := raw.Likes
		if raw.Views != nil {
			metric = *raw.Views
		}
		item.PerformanceMetric = &metric
	}

	item.URL = canonicalURL(raw.Shortcode, item.IsReel)
	return item
}

// reelRules applies the reel precedence list to a video record.
func reelRules(raw RawPost, p Policy) (bool, []string) {
	indicators := []string{"is_video"}
	typename := strings.ToLower(raw.TypeName)

	switch {
	case strings.Contains(typename, "reel"):
		return true, append(indicators, "typename_reel")
	case raw.TypeName == TypeVideo && p.ModernVideoIsReel:
		return true, append(indicators, "GraphVideo_reel")
	case raw.TypeName != "" && p.ModernVideoIsReel:
		return true, append(indicators, "video_as_reel")
	case raw.Views != nil && *raw.Views > 0:
		return true, append(indicators, "views_indicate_reel")
	case raw.IsReel != nil && *raw.IsReel:
		return true, append(indicators, "is_reel_attribute")
	case raw.VideoDuration != nil && *raw.VideoDuration > 0 && *raw.VideoDuration <= shortFormMaxSeconds:
		return true, append(indicators, "duration_indicates_reel")
	case p.DefaultVideoIsReel:
		return true, append(indicators, "default_video_to_reel")
	}
	return false, indicators
}

// slideCount prefers the reported media count, then enumeration, then 1.
func slideCount(raw RawPost) int {
	if raw.MediaCount != nil && *raw.MediaCount > 0 {
		return *raw.MediaCount
	}
	if raw.SidecarCount != nil {
		if n, err := raw.SidecarCount(); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

func hasReelPath(raw string) bool {
	if raw == "" {
		return false
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	return strings.Contains(strings.ToLower(path), "/reel/")
}

func canonicalURL(shortcode string, reel bool) string {
	if reel {
		return baseURL + "/reel/" + shortcode + "/"
	}
	return baseURL + "/p/" + shortcode + "/"
}

func trimCaption(s string) string {
	if s == "" {
		return "No caption"
	}
	if utf8.RuneCountInString(s) <= captionMaxRunes {
		return s
	}
	return string([]rune(s)[:captionMaxRunes]) + "..."
}
