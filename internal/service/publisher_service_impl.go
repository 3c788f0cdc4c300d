package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

// PublisherServiceImpl implements PublisherService for a log publisher.
type PublisherServiceImpl struct {
	publisher stream.Publisher
}

// NewPublisherServiceImpl creates a new PublisherService implementation.
func NewPublisherServiceImpl(publisher stream.Publisher) PublisherService {
	return &PublisherServiceImpl{publisher: publisher}
}

// PublishDataset encodes each row as JSON and publishes it, pacing rows by interval.
// A row that fails to publish is logged and skipped.
func (s *PublisherServiceImpl) PublishDataset(ctx context.Context, rows RowSource, interval time.Duration) (int, error) {
	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	published := 0
	for n := 1; ; n++ {
		row, err := rows.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return published, nil
			}

			return published, err
		}

		payload, err := json.Marshal(row)
		if err != nil {
			return published, fmt.Errorf("failed to marshal row %d: %w", n, err)
		}

		if err := s.publisher.Publish(ctx, payload); err != nil {
			if ctx.Err() != nil {
				return published, nil
			}

			slog.Error("failed to publish row",
				slog.Int("row", n),
				slog.String("error", err.Error()),
			)
		} else {
			published++
			slog.Debug("published row", slog.Int("row", n))
		}

		if ticker == nil {
			if ctx.Err() != nil {
				return published, nil
			}

			continue
		}

		select {
		case <-ctx.Done():
			return published, nil
		case <-ticker.C:
		}
	}
}
