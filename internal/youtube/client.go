package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/gauthierbraillon/rivalscope/internal/errs"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	playerMarker   = "ytInitialPlayerResponse = "
	maxPageBytes   = 6 * 1024 * 1024
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/watch\?.*v=([a-zA-Z0-9_-]{11})`),
	}
	listingVideoID = regexp.MustCompile(`"videoId":"([a-zA-Z0-9_-]{11})"`)
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// Client scrapes public YouTube pages. It needs no credentials.
//
// Caption tracks parsed by FetchVideo are kept until the first
// CaptionTracks call for the same video, so transcription does not load
// the watch page a second time.
type Client struct {
	baseURL    string
	httpClient HTTPClient

	mu       sync.Mutex
	captions map[string]Captions
}

// NewClient creates a new YouTube client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		captions:   make(map[string]Captions),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ChannelVideosURL returns the listing URL for a channel: handle and
// channel-id URLs get their /videos tab, anything else is used as is.
func ChannelVideosURL(channelURL string) string {
	if strings.Contains(channelURL, "/@") || strings.Contains(channelURL, "/channel/") {
		return strings.TrimRight(channelURL, "/") + "/videos"
	}
	return channelURL
}

// ExtractVideoID returns the 11-character id in a watch, short or embed URL.
func ExtractVideoID(url string) (string, bool) {
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// WatchURL builds the canonical watch URL of a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// ListChannelVideos returns the channel's latest uploads, newest first.
// A known channel id uses the RSS feed; otherwise video ids are scraped
// from the /videos page of channelURL.
func (c *Client) ListChannelVideos(ctx context.Context, channelURL, channelID string) ([]Entry, error) {
	if channelID != "" {
		return c.listFromFeed(ctx, channelID)
	}
	return c.listFromPage(ctx, c.rebase(ChannelVideosURL(channelURL)))
}

func (c *Client) listFromFeed(ctx context.Context, channelID string) ([]Entry, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("%s/feeds/videos.xml?channel_id=%s", c.baseURL, channelID))
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel feed: %w: %v", errs.ErrMalformedUpstream, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := feedVideoID(item)
		if id == "" {
			continue
		}
		entries = append(entries, Entry{
			ID:        id,
			Title:     item.Title,
			URL:       WatchURL(id),
			Published: item.PublishedParsed,
		})
	}
	return entries, nil
}

func feedVideoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if ids := yt["videoId"]; len(ids) > 0 && ids[0].Value != "" {
			return ids[0].Value
		}
	}
	id, _ := ExtractVideoID(item.Link)
	return id
}

func (c *Client) listFromPage(ctx context.Context, pageURL string) ([]Entry, error) {
	body, err := c.doRequest(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	entries := make([]Entry, 0)
	for _, m := range listingVideoID.FindAllSubmatch(body, -1) {
		id := string(m[1])
		if seen[id] {
			continue
		}
		seen[id] = true
		entries = append(entries, Entry{ID: id, URL: WatchURL(id)})
	}
	return entries, nil
}

// FetchVideo resolves full metadata and caption tracks from the watch page.
func (c *Client) FetchVideo(ctx context.Context, videoID string) (Video, error) {
	body, err := c.doRequest(ctx, fmt.Sprintf("%s/watch?v=%s", c.baseURL, videoID))
	if err != nil {
		return Video{}, fmt.Errorf("video %s: %w", videoID, err)
	}

	player, err := parsePlayerResponse(body)
	if err != nil {
		return Video{}, fmt.Errorf("video %s: %w", videoID, err)
	}

	switch player.PlayabilityStatus.Status {
	case "ERROR":
		return Video{}, fmt.Errorf("video %s: %s: %w", videoID, player.PlayabilityStatus.Reason, errs.ErrNotFound)
	case "LOGIN_REQUIRED":
		return Video{}, fmt.Errorf("video %s: %s: %w", videoID, player.PlayabilityStatus.Reason, errs.ErrAccessDenied)
	}

	d := player.VideoDetails
	duration, _ := strconv.ParseInt(d.LengthSeconds, 10, 64)
	views, _ := strconv.ParseInt(d.ViewCount, 10, 64)

	v := Video{
		ID:              videoID,
		Title:           d.Title,
		Description:     d.ShortDescription,
		ChannelTitle:    d.Author,
		DurationSeconds: duration,
		ViewCount:       views,
		URL:             WatchURL(videoID),
		Captions:        captionsFrom(player),
	}
	v.UploadDate, v.Timestamp = uploadDate(player.Microformat.Renderer)

	c.mu.Lock()
	c.captions[videoID] = v.Captions
	c.mu.Unlock()
	return v, nil
}

// CaptionTracks returns the caption tracks of the video behind videoURL.
// Tracks from an earlier FetchVideo are used once; later calls, such as
// retries, load the watch page again.
func (c *Client) CaptionTracks(ctx context.Context, videoURL string) (Captions, error) {
	id, ok := ExtractVideoID(videoURL)
	if !ok {
		return Captions{}, fmt.Errorf("no video id in %q: %w", videoURL, errs.ErrMalformedUpstream)
	}
	if caps, ok := c.takeCaptions(id); ok {
		return caps, nil
	}
	v, err := c.FetchVideo(ctx, id)
	if err != nil {
		return Captions{}, err
	}
	c.takeCaptions(id)
	return v.Captions, nil
}

func (c *Client) takeCaptions(videoID string) (Captions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	caps, ok := c.captions[videoID]
	delete(c.captions, videoID)
	return caps, ok
}

// FetchSubtitle downloads one subtitle file.
func (c *Client) FetchSubtitle(ctx context.Context, subtitleURL string) (string, error) {
	body, err := c.doRequest(ctx, c.rebase(subtitleURL))
	if err != nil {
		return "", fmt.Errorf("subtitle download: %w", err)
	}
	return string(body), nil
}

// rebase points absolute youtube.com URLs at the configured base URL so a
// test server can stand in for YouTube.
func (c *Client) rebase(u string) string {
	if c.baseURL == defaultBaseURL {
		return u
	}
	for _, prefix := range []string{"https://www.youtube.com", "https://youtube.com"} {
		if strings.HasPrefix(u, prefix) {
			return c.baseURL + strings.TrimPrefix(u, prefix)
		}
	}
	return u
}

func parsePlayerResponse(page []byte) (playerResponse, error) {
	var player playerResponse

	idx := bytes.Index(page, []byte(playerMarker))
	if idx < 0 {
		return player, fmt.Errorf("%w: ytInitialPlayerResponse not found in watch page", errs.ErrMalformedUpstream)
	}
	raw := extractJSON(page[idx+len(playerMarker):])
	if raw == nil {
		return player, fmt.Errorf("%w: unterminated ytInitialPlayerResponse", errs.ErrMalformedUpstream)
	}
	if err := json.Unmarshal(raw, &player); err != nil {
		return player, fmt.Errorf("%w: decode ytInitialPlayerResponse: %v", errs.ErrMalformedUpstream, err)
	}
	return player, nil
}

// extractJSON returns the JSON object starting at b[0] == '{' by tracking
// brace depth outside string literals.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, ch := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// uploadDate turns the microformat dates into the compact YYYYMMDD form
// and, when the value carries a time, a unix timestamp.
func uploadDate(m microformat) (string, *int64) {
	value := m.UploadDate
	if value == "" {
		value = m.PublishDate
	}
	if value == "" {
		return "", nil
	}

	var ts *int64
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		unix := t.Unix()
		ts = &unix
	}

	if len(value) >= 10 {
		compact := strings.ReplaceAll(value[:10], "-", "")
		if len(compact) == 8 {
			return compact, ts
		}
	}
	return "", ts
}

func captionsFrom(p playerResponse) Captions {
	caps := Captions{
		Manual:    make(map[string][]SubtitleFormat),
		Automatic: make(map[string][]SubtitleFormat),
	}
	if p.Captions == nil {
		return caps
	}
	for _, track := range p.Captions.Renderer.CaptionTracks {
		if track.BaseURL == "" || track.LanguageCode == "" {
			continue
		}
		formats := []SubtitleFormat{
			{Ext: "vtt", URL: track.BaseURL + "&fmt=vtt"},
			{Ext: "srv3", URL: track.BaseURL + "&fmt=srv3"},
		}
		if track.Kind == "asr" {
			caps.Automatic[track.LanguageCode] = formats
		} else {
			caps.Manual[track.LanguageCode] = formats
		}
	}
	return caps
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", errs.ErrTransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleAPIError(resp.StatusCode)
	}

	return body, nil
}

// Page response types (private - implementation detail)

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		LengthSeconds    string `json:"lengthSeconds"`
		ViewCount        string `json:"viewCount"`
		Author           string `json:"author"`
		ShortDescription string `json:"shortDescription"`
	} `json:"videoDetails"`
	Microformat struct {
		Renderer microformat `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
	Captions *struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type microformat struct {
	UploadDate  string `json:"uploadDate"`
	PublishDate string `json:"publishDate"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

func handleAPIError(statusCode int) error {
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("YouTube resource not found: %w", errs.ErrNotFound)
	case statusCode == http.StatusForbidden:
		return fmt.Errorf("YouTube access denied (403 Forbidden): %w", errs.ErrRateLimited)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("YouTube rate limit exceeded (429 Too Many Requests): %w", errs.ErrRateLimited)
	case statusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("YouTube temporarily unavailable - please try again in a few minutes: %w", errs.ErrTransientNetwork)
	case statusCode >= 500:
		return fmt.Errorf("YouTube server error (status %d): %w", statusCode, errs.ErrTransientNetwork)
	default:
		return fmt.Errorf("YouTube error (status %d): %w", statusCode, errs.ErrTransientNetwork)
	}
}
