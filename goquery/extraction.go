// Package goquery provides CSS selector based extraction using goquery.
package goquery

import (
	"context"

	"github.com/fwojciec/postmap"
)

var _ postmap.ExtractionService = (*ExtractionService)(nil)

// ExtractionService extracts records from pages using the CSS selectors
// declared on a connector.
type ExtractionService struct {
	fetcher    postmap.Fetcher
	connectors postmap.ConnectorService
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(fetcher postmap.Fetcher, connectors postmap.ConnectorService) *ExtractionService {
	return &ExtractionService{fetcher: fetcher, connectors: connectors}
}

// Extract fetches url and applies the connector's selectors to it.
func (s *ExtractionService) Extract(ctx context.Context, connectorID, url string) (*postmap.ExtractionResult, error) {
	c, err := s.connectors.FindConnectorByID(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	if c.Provider != postmap.ProviderSelector {
		return nil, postmap.Errorf(postmap.EINVALID, "connector %q uses provider %q", connectorID, c.Provider)
	}

	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	records, err := ExtractRecords(html, url, c)
	if err != nil {
		return nil, err
	}

	return &postmap.ExtractionResult{
		Results:          records,
		OutputProperties: c.OutputProperties(),
	}, nil
}
