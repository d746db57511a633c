package postmap

import (
	"context"
	"fmt"
)

// Status is the outcome reported while building posts.
type Status int

// Status codes. Values match the codes shown to users of the import page.
const (
	StatusExtractionFailed  Status = 1
	StatusExtractedDataNull Status = 2
	StatusPostInsertFailed  Status = 3
	StatusPostExtracted     Status = 4
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusExtractionFailed:
		return "EXTRACTION_FAILED"
	case StatusExtractedDataNull:
		return "EXTRACTED_DATA_NULL"
	case StatusPostInsertFailed:
		return "POST_INSERT_FAILED"
	case StatusPostExtracted:
		return "POST_EXTRACTED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusEvent reports one outcome of a build.
type StatusEvent struct {
	Status Status `json:"status"`
	URL    string `json:"url"`
	// PostID is set for POST_EXTRACTED only.
	PostID string `json:"postId,omitempty"`
	// Err is the underlying failure, if any.
	Err error `json:"-"`
}

// StatusFunc is called for each status reported during a build.
type StatusFunc func(StatusEvent)

// PostBuilder builds posts from the records a connector extracts from a URL.
type PostBuilder interface {
	// BuildPosts returns true if every extracted record was persisted.
	// Expected failures are reported through fn, not returned as errors.
	// Returns EINVALID for a malformed URL and ENOTFOUND for an unknown
	// connector.
	BuildPosts(ctx context.Context, connectorID, url string, fn StatusFunc) (bool, error)
}
