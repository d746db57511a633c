package mapper

import (
	"context"
	"sync"

	"github.com/fwojciec/postmap"
)

// Compile-time interface verification.
var _ postmap.ExtractionService = (*Router)(nil)

// Router dispatches extraction requests to the provider configured on each
// connector. Router is safe for concurrent use.
type Router struct {
	connectors postmap.ConnectorService

	mu        sync.RWMutex
	providers map[postmap.Provider]postmap.ExtractionService
}

// NewRouter creates a Router that resolves connectors from the given service.
func NewRouter(connectors postmap.ConnectorService) *Router {
	return &Router{
		connectors: connectors,
		providers:  make(map[postmap.Provider]postmap.ExtractionService),
	}
}

// Register sets the extraction service used for a provider.
func (r *Router) Register(provider postmap.Provider, svc postmap.ExtractionService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider] = svc
}

// Providers returns the registered providers.
func (r *Router) Providers() []postmap.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []postmap.Provider
	for _, p := range postmap.Providers() {
		if _, ok := r.providers[p]; ok {
			list = append(list, p)
		}
	}
	return list
}

// Extract looks up the connector and delegates to its provider.
func (r *Router) Extract(ctx context.Context, connectorID, url string) (*postmap.ExtractionResult, error) {
	connector, err := r.connectors.FindConnectorByID(ctx, connectorID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	svc, ok := r.providers[connector.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, postmap.Errorf(postmap.EINVALID, "no extraction provider registered for %q", connector.Provider)
	}

	return svc.Extract(ctx, connectorID, url)
}
