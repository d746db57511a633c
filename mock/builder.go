package mock

import (
	"context"

	"github.com/fwojciec/postmap"
)

var _ postmap.PostBuilder = (*PostBuilder)(nil)

// PostBuilder is a mock implementation of postmap.PostBuilder.
type PostBuilder struct {
	BuildPostsFn func(ctx context.Context, connectorID, url string, fn postmap.StatusFunc) (bool, error)
}

func (b *PostBuilder) BuildPosts(ctx context.Context, connectorID, url string, fn postmap.StatusFunc) (bool, error) {
	return b.BuildPostsFn(ctx, connectorID, url, fn)
}

var _ postmap.PostExporter = (*PostExporter)(nil)

// PostExporter is a mock implementation of postmap.PostExporter.
type PostExporter struct {
	SaveFn   func(ctx context.Context, post *postmap.Post) error
	CommitFn func() error
	AbortFn  func() error
}

func (e *PostExporter) Save(ctx context.Context, post *postmap.Post) error {
	return e.SaveFn(ctx, post)
}

func (e *PostExporter) Commit() error {
	return e.CommitFn()
}

func (e *PostExporter) Abort() error {
	return e.AbortFn()
}
