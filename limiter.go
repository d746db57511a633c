package postmap

import "context"

// DomainLimiter provides per-host rate limiting for requests made to
// source sites while side-loading images.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
