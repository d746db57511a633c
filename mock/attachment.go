package mock

import (
	"context"

	"github.com/fwojciec/postmap"
)

var _ postmap.AttachmentService = (*AttachmentService)(nil)

// AttachmentService is a mock implementation of postmap.AttachmentService.
type AttachmentService struct {
	CreateAttachmentFn func(ctx context.Context, a *postmap.Attachment) error
	FindAttachmentsFn  func(ctx context.Context, filter postmap.AttachmentFilter) ([]*postmap.Attachment, error)
}

func (s *AttachmentService) CreateAttachment(ctx context.Context, a *postmap.Attachment) error {
	return s.CreateAttachmentFn(ctx, a)
}

func (s *AttachmentService) FindAttachments(ctx context.Context, filter postmap.AttachmentFilter) ([]*postmap.Attachment, error) {
	return s.FindAttachmentsFn(ctx, filter)
}

var _ postmap.ImageLoader = (*ImageLoader)(nil)

// ImageLoader is a mock implementation of postmap.ImageLoader.
type ImageLoader struct {
	SideloadFn func(ctx context.Context, imageURL, postID, alt string) (string, error)
}

func (l *ImageLoader) Sideload(ctx context.Context, imageURL, postID, alt string) (string, error) {
	return l.SideloadFn(ctx, imageURL, postID, alt)
}

var _ postmap.ImageFetcher = (*ImageFetcher)(nil)

// ImageFetcher is a mock implementation of postmap.ImageFetcher.
type ImageFetcher struct {
	FetchImageFn func(ctx context.Context, url string) (*postmap.Image, error)
}

func (f *ImageFetcher) FetchImage(ctx context.Context, url string) (*postmap.Image, error) {
	return f.FetchImageFn(ctx, url)
}

var _ postmap.MediaStore = (*MediaStore)(nil)

// MediaStore is a mock implementation of postmap.MediaStore.
type MediaStore struct {
	SaveFn   func(ctx context.Context, name string, data []byte) (*postmap.StoredFile, error)
	RemoveFn func(ctx context.Context, path string) error
}

func (s *MediaStore) Save(ctx context.Context, name string, data []byte) (*postmap.StoredFile, error) {
	return s.SaveFn(ctx, name, data)
}

func (s *MediaStore) Remove(ctx context.Context, path string) error {
	return s.RemoveFn(ctx, path)
}
