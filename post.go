package postmap

import (
	"context"
	"time"
)

// PostStatus is the publication state of a post.
type PostStatus string

// PostStatus constants.
const (
	PostDraft   PostStatus = "draft"
	PostPublish PostStatus = "publish"
)

// Post represents a content-management post built from extracted data.
type Post struct {
	ID          string     `json:"id"`
	ConnectorID string     `json:"connectorId"`
	SourceURL   string     `json:"sourceUrl"`
	Status      PostStatus `json:"status"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ContentHash string     `json:"contentHash"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Validate returns an error if the post contains invalid fields.
func (p *Post) Validate() error {
	if p.SourceURL == "" {
		return Errorf(EINVALID, "post source URL required")
	}
	switch p.Status {
	case PostDraft, PostPublish:
	default:
		return Errorf(EINVALID, "invalid post status %q", p.Status)
	}
	return nil
}

// PostService represents a service for managing posts.
type PostService interface {
	// CreatePost creates a new post and assigns its ID.
	CreatePost(ctx context.Context, post *Post) error

	// FindPostByID retrieves a post by ID.
	// Returns ENOTFOUND if post does not exist.
	FindPostByID(ctx context.Context, id string) (*Post, error)

	// FindPosts retrieves posts matching the filter.
	FindPosts(ctx context.Context, filter PostFilter) ([]*Post, error)

	// UpdatePost updates an existing post.
	// Returns ENOTFOUND if post does not exist.
	UpdatePost(ctx context.Context, id string, upd PostUpdate) (*Post, error)

	// DeletePost permanently removes a post and its attachments.
	// Returns ENOTFOUND if post does not exist.
	DeletePost(ctx context.Context, id string) error
}

// PostFilter represents a filter for FindPosts.
type PostFilter struct {
	ID          *string     `json:"id"`
	ConnectorID *string     `json:"connectorId"`
	Status      *PostStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// PostUpdate represents fields that can be updated on a post.
type PostUpdate struct {
	Title   *string     `json:"title"`
	Content *string     `json:"content"`
	Status  *PostStatus `json:"status"`
}
