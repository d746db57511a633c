package mock

import (
	"context"

	"github.com/fwojciec/postmap"
)

var _ postmap.ExtractionService = (*ExtractionService)(nil)

// ExtractionService is a mock implementation of postmap.ExtractionService.
type ExtractionService struct {
	ExtractFn func(ctx context.Context, connectorID, url string) (*postmap.ExtractionResult, error)
}

func (s *ExtractionService) Extract(ctx context.Context, connectorID, url string) (*postmap.ExtractionResult, error) {
	return s.ExtractFn(ctx, connectorID, url)
}
