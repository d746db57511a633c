package mapper

import (
	"context"

	"github.com/fwojciec/postmap"
)

// Compile-time interface verification.
var _ postmap.PostBuilder = (*Service)(nil)

// Service builds posts for stored connectors.
// Each call loads the connector and runs a fresh Mapper with its mapping.
type Service struct {
	Connectors  postmap.ConnectorService
	Extractions postmap.ExtractionService
	Posts       postmap.PostService
	Images      postmap.ImageLoader
}

// BuildPosts builds posts from the records connectorID extracts from url.
func (s *Service) BuildPosts(ctx context.Context, connectorID, url string, fn postmap.StatusFunc) (bool, error) {
	if err := ValidateURL(url); err != nil {
		return false, err
	}

	connector, err := s.Connectors.FindConnectorByID(ctx, connectorID)
	if err != nil {
		return false, err
	}

	m, err := New(connector.ID, connector.Mapping, s.Extractions, s.Posts, s.Images)
	if err != nil {
		return false, err
	}

	return m.BuildPost(ctx, url, fn)
}
