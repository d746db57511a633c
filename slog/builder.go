package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/postmap"
)

// Compile-time interface verification.
var _ postmap.PostBuilder = (*LoggingPostBuilder)(nil)

// LoggingPostBuilder wraps a PostBuilder. Every status event is logged at
// debug level, and a summary line is logged when the build finishes.
type LoggingPostBuilder struct {
	next   postmap.PostBuilder
	logger *slog.Logger
}

// NewLoggingPostBuilder creates a new logging decorator for PostBuilder.
func NewLoggingPostBuilder(next postmap.PostBuilder, logger *slog.Logger) *LoggingPostBuilder {
	return &LoggingPostBuilder{next: next, logger: logger}
}

// BuildPosts delegates to the wrapped builder and forwards every event to fn.
func (b *LoggingPostBuilder) BuildPosts(ctx context.Context, connectorID, url string, fn postmap.StatusFunc) (ok bool, err error) {
	var events int
	defer func(begin time.Time) {
		b.logger.Info("build posts", "connector", connectorID, "url", url, "ok", ok, "events", events, "duration", time.Since(begin), "err", err)
	}(time.Now())

	return b.next.BuildPosts(ctx, connectorID, url, func(ev postmap.StatusEvent) {
		events++
		b.logger.Debug("status", "status", ev.Status, "code", int(ev.Status), "url", ev.URL, "post", ev.PostID, "err", ev.Err)
		if fn != nil {
			fn(ev)
		}
	})
}
