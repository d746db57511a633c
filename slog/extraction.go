package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/postmap"
)

// Compile-time interface verification.
var _ postmap.ExtractionService = (*LoggingExtractionService)(nil)

// LoggingExtractionService wraps an ExtractionService and logs each call.
type LoggingExtractionService struct {
	next   postmap.ExtractionService
	logger *slog.Logger
}

// NewLoggingExtractionService creates a new logging decorator for ExtractionService.
func NewLoggingExtractionService(next postmap.ExtractionService, logger *slog.Logger) *LoggingExtractionService {
	return &LoggingExtractionService{next: next, logger: logger}
}

// Extract delegates to the wrapped service and logs the number of records.
func (s *LoggingExtractionService) Extract(ctx context.Context, connectorID, url string) (result *postmap.ExtractionResult, err error) {
	defer func(begin time.Time) {
		records := 0
		if result != nil {
			records = len(result.Results)
		}
		s.logger.Info("extract", "connector", connectorID, "url", url, "records", records, "duration", time.Since(begin), "err", err)
	}(time.Now())
	return s.next.Extract(ctx, connectorID, url)
}
