// Package contracts holds recorded upstream payloads, trimmed to the fields
// rivalscope reads. Client, server and CLI tests serve them from httptest
// servers so every layer is checked against the same shapes.
package contracts

import (
	"fmt"
	"time"
)

// Instagram usernames and shortcodes used by the payloads.
const (
	InstagramUsername  = "acme"
	InstagramUserID    = "1789"
	InstagramReel      = "REEL1"
	InstagramCarousel  = "CAR1"
	InstagramCursor    = "QVFDcursor1"
	InstagramReelViews = 9000
)

// InstagramProfile is a web_profile_info response whose first timeline page
// holds one reel posted at takenAt and points at one more page.
func InstagramProfile(takenAt time.Time) string {
	return fmt.Sprintf(`{
  "status": "ok",
  "data": {"user": {
    "id": %q, "username": %q, "is_private": false,
    "edge_owner_to_timeline_media": {
      "count": 2,
      "page_info": {"has_next_page": true, "end_cursor": %q},
      "edges": [{"node": {
        "__typename": "GraphVideo", "id": "1", "shortcode": %q,
        "is_video": true, "product_type": "clips", "video_duration": 31.5,
        "video_view_count": %d, "taken_at_timestamp": %d,
        "edge_liked_by": {"count": 300}, "edge_media_to_comment": {"count": 20},
        "edge_media_to_caption": {"edges": [{"node": {"text": "Launch day"}}]}
      }}]
    }
  }}
}`, InstagramUserID, InstagramUsername, InstagramCursor, InstagramReel, InstagramReelViews, takenAt.Unix())
}

// InstagramTimelinePage is the graphql page that follows InstagramProfile.
// It holds one two-slide carousel and ends the timeline.
func InstagramTimelinePage(takenAt time.Time) string {
	return fmt.Sprintf(`{
  "status": "ok",
  "data": {"user": {
    "edge_owner_to_timeline_media": {
      "count": 2,
      "page_info": {"has_next_page": false, "end_cursor": ""},
      "edges": [{"node": {
        "__typename": "GraphSidecar", "id": "2", "shortcode": %q,
        "is_video": false, "taken_at_timestamp": %d,
        "edge_media_preview_like": {"count": 120}, "edge_media_to_comment": {"count": 4},
        "edge_sidecar_to_children": {"edges": [{}, {}]},
        "edge_media_to_caption": {"edges": []}
      }}]
    }
  }}
}`, InstagramCarousel, takenAt.Unix())
}

// InstagramPrivateProfile is a web_profile_info response for a locked account.
const InstagramPrivateProfile = `{"status": "ok", "data": {"user": {"id": "9", "username": "locked", "is_private": true,
  "edge_owner_to_timeline_media": {"count": 0, "page_info": {"has_next_page": false}, "edges": []}}}}`

// YouTube identifiers used by the payloads.
const (
	YouTubeChannelID = "UCacquired00000000000000"
	YouTubeVideoID   = "AAAAAAAAAA1"
	YouTubeTitle     = "Episode 12: Pricing for Growth"
)

// YouTubeChannelFeed is the channel RSS feed with a single upload at
// published.
func YouTubeChannelFeed(published time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>Acquired</title>
  <entry>
    <id>yt:video:%[1]s</id>
    <yt:videoId>%[1]s</yt:videoId>
    <yt:channelId>%[2]s</yt:channelId>
    <title>%[3]s</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=%[1]s"/>
    <published>%[4]s</published>
  </entry>
</feed>`, YouTubeVideoID, YouTubeChannelID, YouTubeTitle, published.UTC().Format(time.RFC3339))
}

// YouTubeWatchPage is a watch page embedding ytInitialPlayerResponse with a
// manual English caption track.
func YouTubeWatchPage(uploaded time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>%[2]s</title></head><body>
<script nonce="x">var ytInitialPlayerResponse = {
  "playabilityStatus": {"status": "OK"},
  "videoDetails": {"videoId": %[1]q, "title": %[2]q, "lengthSeconds": "3725",
    "viewCount": "120000", "author": "Acquired", "shortDescription": "Pricing and growth with Maria."},
  "microformat": {"playerMicroformatRenderer": {"uploadDate": %[3]q, "publishDate": %[3]q}},
  "captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
    {"baseUrl": "https://www.youtube.com/api/timedtext?v=%[1]s&lang=en", "languageCode": "en", "name": {"simpleText": "English"}}
  ]}}
};var meta = document.createElement('meta');</script></body></html>`, YouTubeVideoID, YouTubeTitle, uploaded.UTC().Format(time.RFC3339))
}

// YouTubeSubtitleVTT is the English track of YouTubeWatchPage.
const YouTubeSubtitleVTT = `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:04.000
Welcome back to the show. Today Maria joins us to talk about <c>Pricing</c>.

00:00:04.000 --> 00:00:09.000
Growth comes from Pricing experiments. Maria explains how Growth teams test.

00:00:09.000 --> 00:00:12.000
We close with listener questions.
`

// YouTubeSubtitleText is YouTubeSubtitleVTT after cue parsing.
const YouTubeSubtitleText = "Welcome back to the show. Today Maria joins us to talk about Pricing. " +
	"Growth comes from Pricing experiments. Maria explains how Growth teams test. " +
	"We close with listener questions."

// AnalyzeFields are the top-level keys the dashboard reads from
// GET /api/analyze.
var AnalyzeFields = []string{"success", "reels", "posts", "all", "stats", "analysis_date"}

// YouTubeFields are the top-level keys of GET /api/youtube.
var YouTubeFields = []string{"success", "podcasts", "stats", "analysis_date"}
