package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gauthierbraillon/rivalscope/internal/content"
	"github.com/gauthierbraillon/rivalscope/internal/errs"
)

const (
	defaultBaseURL   = "https://www.instagram.com"
	defaultAppID     = "936619743392459"
	defaultPageSize  = 12
	timelineQueryKey = "003056d32c2554def87228bc3fd9668a"
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
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
		c.baseURL = url
	}
}

// WithAppID sets the X-IG-App-ID header value.
func WithAppID(id string) ClientOption {
	return func(c *Client) {
		c.appID = id
	}
}

// WithPageSize sets how many posts each timeline page requests.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// Client reads public profiles and their timelines.
type Client struct {
	baseURL    string
	appID      string
	pageSize   int
	httpClient HTTPClient
}

// NewClient creates a new Instagram web client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		appID:      defaultAppID,
		pageSize:   defaultPageSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Posts resolves username and returns an iterator over its timeline,
// newest first. Missing and private profiles fail here, before any post.
func (c *Client) Posts(ctx context.Context, username string) (content.PostIterator, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/web_profile_info/?username=%s", c.baseURL, url.QueryEscape(username))

	body, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("profile @%s: %w", username, err)
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("profile @%s: %w: %v", username, errs.ErrMalformedUpstream, err)
	}
	if resp.Data.User == nil {
		return nil, fmt.Errorf("profile @%s: %w", username, errs.ErrNotFound)
	}
	if resp.Data.User.IsPrivate {
		return nil, fmt.Errorf("profile @%s: %w", username, errs.ErrAccessDenied)
	}

	it := &Timeline{client: c, username: username, userID: resp.Data.User.ID}
	it.load(resp.Data.User.Timeline)
	return it, nil
}

// Timeline pages through one profile's posts.
type Timeline struct {
	client   *Client
	username string
	userID   string

	buffer  []mediaNode
	cursor  string
	hasNext bool
}

// Next returns the next post, fetching further pages as needed.
func (t *Timeline) Next(ctx context.Context) (content.RawPost, error) {
	for len(t.buffer) == 0 {
		if !t.hasNext || t.cursor == "" {
			return content.RawPost{}, io.EOF
		}
		if err := t.fetchPage(ctx); err != nil {
			return content.RawPost{}, err
		}
	}

	node := t.buffer[0]
	t.buffer = t.buffer[1:]
	return toRawPost(t.username, node), nil
}

func (t *Timeline) load(tl timeline) {
	for _, e := range tl.Edges {
		t.buffer = append(t.buffer, e.Node)
	}
	t.cursor = tl.PageInfo.EndCursor
	t.hasNext = tl.PageInfo.HasNextPage
}

func (t *Timeline) fetchPage(ctx context.Context) error {
	vars, err := json.Marshal(map[string]any{"id": t.userID, "first": t.client.pageSize, "after": t.cursor})
	if err != nil {
		return fmt.Errorf("failed to encode timeline variables: %w", err)
	}
	endpoint := fmt.Sprintf("%s/graphql/query/?query_hash=%s&variables=%s",
		t.client.baseURL, timelineQueryKey, url.QueryEscape(string(vars)))

	body, err := t.client.doRequest(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("timeline @%s: %w", t.username, err)
	}

	var resp timelineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("timeline @%s: %w: %v", t.username, errs.ErrMalformedUpstream, err)
	}
	if resp.Data.User == nil {
		return fmt.Errorf("timeline @%s: %w: missing user", t.username, errs.ErrMalformedUpstream)
	}

	t.load(resp.Data.User.Timeline)
	if len(t.buffer) == 0 {
		t.hasNext = false
	}
	return nil
}

func toRawPost(username string, n mediaNode) content.RawPost {
	raw := content.RawPost{
		Shortcode: n.Shortcode,
		Owner:     username,
		TypeName:  n.TypeName,
		IsVideo:   n.IsVideo,
		Views:     n.VideoViewCount,
		TakenAt:   time.Unix(n.TakenAt, 0).UTC(),
		URL:       fmt.Sprintf("%s/p/%s/", defaultBaseURL, n.Shortcode),
	}

	switch {
	case n.LikedBy != nil:
		raw.Likes = n.LikedBy.Count
	case n.PreviewLike != nil:
		raw.Likes = n.PreviewLike.Count
	}
	if n.Comments != nil {
		raw.Comments = n.Comments.Count
	}
	if len(n.Caption.Edges) > 0 {
		raw.Caption = n.Caption.Edges[0].Node.Text
	}
	if n.IsVideo && n.VideoDuration != nil {
		raw.VideoDuration = n.VideoDuration
	}
	if n.ProductType == "clips" {
		reel := true
		raw.IsReel = &reel
		raw.URL = fmt.Sprintf("%s/reel/%s/", defaultBaseURL, n.Shortcode)
	}

	children := n.SidecarChildren
	raw.SidecarCount = func() (int, error) {
		if children == nil {
			return 0, fmt.Errorf("%w: no sidecar children", errs.ErrMalformedUpstream)
		}
		return len(children.Edges), nil
	}

	return raw
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-IG-App-ID", c.appID)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", errs.ErrTransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleAPIError(resp.StatusCode)
	}

	return body, nil
}

func handleAPIError(statusCode int) error {
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("Instagram profile does not exist: %w", errs.ErrNotFound)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return fmt.Errorf("Instagram requires login for this profile: %w", errs.ErrAccessDenied)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("Instagram rate limit exceeded - wait a few minutes or scan fewer accounts: %w", errs.ErrRateLimited)
	case statusCode >= 500:
		return fmt.Errorf("Instagram server error (status %d): %w", statusCode, errs.ErrTransientNetwork)
	default:
		return fmt.Errorf("Instagram error (status %d): %w", statusCode, errs.ErrTransientNetwork)
	}
}
