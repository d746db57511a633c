package postmap

import "context"

// PostExporter writes posts to an external format with atomic semantics.
// Save stages a post; Commit makes all staged posts visible at once;
// Abort discards them.
type PostExporter interface {
	Save(ctx context.Context, post *Post) error
	Commit() error
	Abort() error
}
