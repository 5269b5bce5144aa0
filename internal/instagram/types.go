// Package instagram provides a client for Instagram's public web endpoints.
//
// This package enables rivalscope to:
// - Resolve a profile by username
// - Page through its timeline newest first
// - Map the raw media nodes to content.RawPost records
package instagram

// API response types (private - implementation detail)

type profileResponse struct {
	Data struct {
		User *userNode `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

type timelineResponse struct {
	Data struct {
		User *struct {
			Timeline timeline `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

type userNode struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	IsPrivate bool     `json:"is_private"`
	Timeline  timeline `json:"edge_owner_to_timeline_media"`
}

type timeline struct {
	Count    int `json:"count"`
	PageInfo struct {
		HasNextPage bool   `json:"has_next_page"`
		EndCursor   string `json:"end_cursor"`
	} `json:"page_info"`
	Edges []struct {
		Node mediaNode `json:"node"`
	} `json:"edges"`
}

type countEdge struct {
	Count int64 `json:"count"`
}

type mediaNode struct {
	TypeName        string       `json:"__typename"`
	ID              string       `json:"id"`
	Shortcode       string       `json:"shortcode"`
	IsVideo         bool         `json:"is_video"`
	ProductType     string       `json:"product_type"`
	VideoViewCount  *int64       `json:"video_view_count"`
	VideoDuration   *float64     `json:"video_duration"`
	TakenAt         int64        `json:"taken_at_timestamp"`
	LikedBy         *countEdge   `json:"edge_liked_by"`
	PreviewLike     *countEdge   `json:"edge_media_preview_like"`
	Comments        *countEdge   `json:"edge_media_to_comment"`
	SidecarChildren *childEdges  `json:"edge_sidecar_to_children"`
	Caption         captionEdges `json:"edge_media_to_caption"`
}

type childEdges struct {
	Edges []struct{} `json:"edges"`
}

type captionEdges struct {
	Edges []struct {
		Node struct {
			Text string `json:"text"`
		} `json:"node"`
	} `json:"edges"`
}
