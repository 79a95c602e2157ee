package domain

import (
	"context"
	"errors"
	"time"
)

// Source identifies the platform a post was collected from.
type Source string

const (
	SourceTwitter   Source = "twitter"
	SourceReddit    Source = "reddit"
	SourceInstagram Source = "instagram"
	SourceTikTok    Source = "tiktok"
	SourceYouTube   Source = "youtube"
	SourceFacebook  Source = "facebook"
	SourceNews      Source = "news"
	SourceOther     Source = "other"
)

// Engagement holds the raw interaction counters attached to a post.
type Engagement struct {
	Likes       int64 `json:"likes"`
	Shares      int64 `json:"shares"`
	Comments    int64 `json:"comments"`
	Views       int64 `json:"views"`
	Impressions int64 `json:"impressions"`
	Followers   int64 `json:"followers"`
}

// Post is a single collected social-media item. Posts are produced by an
// external collector and consumed read-only by the pipeline.
type Post struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Source     Source            `json:"source"`
	Timestamp  time.Time         `json:"timestamp"`
	Author     string            `json:"author"`
	URL        string            `json:"url"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Engagement Engagement        `json:"engagement"`
}

// ErrEndOfStream is returned by a PostSource when no more posts will arrive.
var ErrEndOfStream = errors.New("end of post stream")

// PostSource produces posts for the pipeline. Next blocks until a post is
// available, the stream ends (ErrEndOfStream), or ctx is cancelled.
type PostSource interface {
	Next(ctx context.Context) (Post, error)
}
