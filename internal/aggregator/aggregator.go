package aggregator

import (
	"math"
	"sort"

	"github.com/gauthierbraillon/rivalscope/internal/content"
)

// Aggregator accumulates classified items in discovery order.
type Aggregator struct {
	items []content.Item
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		items: make([]content.Item, 0),
	}
}

// AddItems appends items, keeping the order they were discovered in.
func (a *Aggregator) AddItems(items []content.Item) {
	a.items = append(a.items, items...)
}

// All returns every collected item.
func (a *Aggregator) All() []content.Item {
	out := make([]content.Item, len(a.items))
	copy(out, a.items)
	return out
}

// Reels returns the ranked reels.
func (a *Aggregator) Reels() []content.Item { return RankReels(a.items) }

// Posts returns the ranked non-reel posts.
func (a *Aggregator) Posts() []content.Item { return RankPosts(a.items) }

// RankReels keeps reels, sorted by performance descending, top TopN.
// Ties keep discovery order.
func RankReels(items []content.Item) []content.Item {
	reels := filter(items, func(i content.Item) bool { return i.IsReel })
	sort.SliceStable(reels, func(x, y int) bool {
		return reels[x].Performance() > reels[y].Performance()
	})
	return truncate(reels)
}

// RankPosts keeps non-reel items, sorted by engagement descending, top TopN.
// Ties keep discovery order.
func RankPosts(items []content.Item) []content.Item {
	posts := filter(items, func(i content.Item) bool { return !i.IsReel })
	sort.SliceStable(posts, func(x, y int) bool {
		return posts[x].Engagement > posts[y].Engagement
	})
	return truncate(posts)
}

// Stats reduces the collected items into InstagramStats.
func (a *Aggregator) Stats() InstagramStats {
	return ComputeInstagramStats(a.items, a.Reels(), a.Posts())
}

// ComputeInstagramStats counts over all items and the two ranked lists.
// Per-type counts refer to the ranked lists, as the report displays them.
func ComputeInstagramStats(all, reels, posts []content.Item) InstagramStats {
	var stats InstagramStats
	if len(all) == 0 {
		return stats
	}

	owners := make(map[string]struct{})
	var total int64
	for _, item := range all {
		total += item.Engagement
		if item.Engagement > stats.TopEngagement {
			stats.TopEngagement = item.Engagement
		}
		owners[item.Owner] = struct{}{}
	}

	stats.TotalPosts = len(all)
	stats.AverageEngagement = int64(math.RoundToEven(float64(total) / float64(len(all))))
	stats.AccountsAnalyzed = len(owners)
	stats.ReelCount = len(reels)

	for _, r := range reels {
		if r.Views != nil {
			stats.TotalViews += *r.Views
		}
	}
	for _, p := range posts {
		switch {
		case p.IsCarousel:
			stats.CarouselCount++
		case p.IsVideo:
			stats.VideoCount++
		default:
			stats.PhotoCount++
		}
	}

	return stats
}

// ComputePodcastStats totals podcast durations and distinct channels.
func ComputePodcastStats(podcasts []Podcast) PodcastStats {
	var stats PodcastStats
	channels := make(map[string]struct{})
	for _, p := range podcasts {
		stats.TotalDuration += p.DurationSeconds
		channels[p.Channel] = struct{}{}
	}
	stats.TotalPodcasts = len(podcasts)
	stats.ChannelsAnalyzed = len(channels)
	return stats
}

// SortPodcastsNewestFirst orders podcasts by publish time, newest first.
func SortPodcastsNewestFirst(podcasts []Podcast) {
	sort.SliceStable(podcasts, func(i, j int) bool {
		return podcasts[i].PublishedAt.After(podcasts[j].PublishedAt)
	})
}

func filter(items []content.Item, keep func(content.Item) bool) []content.Item {
	out := make([]content.Item, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func truncate(items []content.Item) []content.Item {
	if len(items) > TopN {
		return items[:TopN]
	}
	return items
}
