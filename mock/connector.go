package mock

import (
	"context"

	"github.com/fwojciec/postmap"
)

var _ postmap.ConnectorService = (*ConnectorService)(nil)

// ConnectorService is a mock implementation of postmap.ConnectorService.
type ConnectorService struct {
	CreateConnectorFn   func(ctx context.Context, c *postmap.Connector) error
	FindConnectorByIDFn func(ctx context.Context, id string) (*postmap.Connector, error)
	FindConnectorsFn    func(ctx context.Context) ([]*postmap.Connector, error)
	UpdateConnectorFn   func(ctx context.Context, c *postmap.Connector) error
	DeleteConnectorFn   func(ctx context.Context, id string) error
}

func (s *ConnectorService) CreateConnector(ctx context.Context, c *postmap.Connector) error {
	return s.CreateConnectorFn(ctx, c)
}

func (s *ConnectorService) FindConnectorByID(ctx context.Context, id string) (*postmap.Connector, error) {
	return s.FindConnectorByIDFn(ctx, id)
}

func (s *ConnectorService) FindConnectors(ctx context.Context) ([]*postmap.Connector, error) {
	return s.FindConnectorsFn(ctx)
}

func (s *ConnectorService) UpdateConnector(ctx context.Context, c *postmap.Connector) error {
	return s.UpdateConnectorFn(ctx, c)
}

func (s *ConnectorService) DeleteConnector(ctx context.Context, id string) error {
	return s.DeleteConnectorFn(ctx, id)
}
