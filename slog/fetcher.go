// Package slog provides logging decorators for postmap services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/postmap"
)

// Compile-time interface verification.
var _ postmap.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher and logs each fetch.
type LoggingFetcher struct {
	next   postmap.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new logging decorator for Fetcher.
func NewLoggingFetcher(next postmap.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the page size and duration.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch", "url", url, "bytes", len(html), "duration", time.Since(begin), "err", err)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
