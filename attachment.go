package postmap

import (
	"context"
	"time"
)

// Attachment represents an image side-loaded into a post.
type Attachment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"postId"`
	SourceURL   string    `json:"sourceUrl"`
	Alt         string    `json:"alt"`
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	ContentHash string    `json:"contentHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate returns an error if the attachment contains invalid fields.
func (a *Attachment) Validate() error {
	if a.PostID == "" {
		return Errorf(EINVALID, "attachment post ID required")
	}
	if a.SourceURL == "" {
		return Errorf(EINVALID, "attachment source URL required")
	}
	if a.Path == "" {
		return Errorf(EINVALID, "attachment path required")
	}
	return nil
}

// AttachmentService represents a service for managing attachments.
type AttachmentService interface {
	// CreateAttachment creates a new attachment and assigns its ID.
	CreateAttachment(ctx context.Context, a *Attachment) error

	// FindAttachments retrieves attachments matching the filter.
	FindAttachments(ctx context.Context, filter AttachmentFilter) ([]*Attachment, error)
}

// AttachmentFilter represents a filter for FindAttachments.
type AttachmentFilter struct {
	PostID *string `json:"postId"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ImageLoader side-loads remote images into posts.
type ImageLoader interface {
	// Sideload fetches imageURL, stores it as an attachment of postID and
	// returns a content fragment that embeds the stored copy.
	// An empty alt means no alt text.
	Sideload(ctx context.Context, imageURL, postID, alt string) (fragment string, err error)
}

// Image is a downloaded image.
type Image struct {
	URL         string
	ContentType string
	Data        []byte
}

// ImageFetcher downloads images.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (*Image, error)
}

// StoredFile describes bytes saved by a MediaStore.
type StoredFile struct {
	// Path is relative to the store root.
	Path string
	// URL is the public URL of the file.
	URL string
}

// MediaStore persists media files.
type MediaStore interface {
	// Save writes data under a unique name derived from name.
	Save(ctx context.Context, name string, data []byte) (*StoredFile, error)

	// Remove deletes a previously saved file.
	Remove(ctx context.Context, path string) error
}
