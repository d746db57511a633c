package mock

import (
	"context"

	"github.com/fwojciec/postmap"
)

var _ postmap.PostService = (*PostService)(nil)

// PostService is a mock implementation of postmap.PostService.
type PostService struct {
	CreatePostFn   func(ctx context.Context, post *postmap.Post) error
	FindPostByIDFn func(ctx context.Context, id string) (*postmap.Post, error)
	FindPostsFn    func(ctx context.Context, filter postmap.PostFilter) ([]*postmap.Post, error)
	UpdatePostFn   func(ctx context.Context, id string, upd postmap.PostUpdate) (*postmap.Post, error)
	DeletePostFn   func(ctx context.Context, id string) error
}

func (s *PostService) CreatePost(ctx context.Context, post *postmap.Post) error {
	return s.CreatePostFn(ctx, post)
}

func (s *PostService) FindPostByID(ctx context.Context, id string) (*postmap.Post, error) {
	return s.FindPostByIDFn(ctx, id)
}

func (s *PostService) FindPosts(ctx context.Context, filter postmap.PostFilter) ([]*postmap.Post, error) {
	return s.FindPostsFn(ctx, filter)
}

func (s *PostService) UpdatePost(ctx context.Context, id string, upd postmap.PostUpdate) (*postmap.Post, error) {
	return s.UpdatePostFn(ctx, id, upd)
}

func (s *PostService) DeletePost(ctx context.Context, id string) error {
	return s.DeletePostFn(ctx, id)
}
