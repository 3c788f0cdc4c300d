// Package service provides business logic layer implementations.
package service

import (
	"context"
	"time"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

// PaymentService defines business logic methods for scored payment lookups.
type PaymentService interface {
	GetPayment(ctx context.Context, id int64) (*model.ScoredPayment, error)
}

// PublisherService defines business logic methods for replaying a dataset onto the log.
type PublisherService interface {
	// PublishDataset publishes every row of rows, one per interval, and returns the
	// number of rows published.
	PublishDataset(ctx context.Context, rows RowSource, interval time.Duration) (int, error)
}

// RowSource yields dataset rows until io.EOF.
type RowSource interface {
	Next() (map[string]float64, error)
}
