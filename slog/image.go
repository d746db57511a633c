package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/postmap"
)

// Compile-time interface verification.
var _ postmap.ImageLoader = (*LoggingImageLoader)(nil)

// LoggingImageLoader wraps an ImageLoader and logs each side-load.
type LoggingImageLoader struct {
	next   postmap.ImageLoader
	logger *slog.Logger
}

// NewLoggingImageLoader creates a new logging decorator for ImageLoader.
func NewLoggingImageLoader(next postmap.ImageLoader, logger *slog.Logger) *LoggingImageLoader {
	return &LoggingImageLoader{next: next, logger: logger}
}

func (l *LoggingImageLoader) Sideload(ctx context.Context, imageURL, postID, alt string) (fragment string, err error) {
	defer func(begin time.Time) {
		if err != nil {
			l.logger.Warn("sideload", "url", imageURL, "post", postID, "duration", time.Since(begin), "err", err)
			return
		}
		l.logger.Info("sideload", "url", imageURL, "post", postID, "duration", time.Since(begin))
	}(time.Now())
	return l.next.Sideload(ctx, imageURL, postID, alt)
}
