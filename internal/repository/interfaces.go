// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"

	"github.com/jnst/fraud-scoring-pipeline/internal/db"
	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

// ScoredPaymentRepository defines methods for scored payment data access.
type ScoredPaymentRepository interface {
	// EnsureSchema creates the scored_payments table if it does not exist.
	EnsureSchema(ctx context.Context) error
	// Upsert writes payment keyed by its ID. Repeating the call with the same
	// payment leaves exactly one row.
	Upsert(ctx context.Context, payment *model.ScoredPayment) error
	GetByID(ctx context.Context, id int64) (*model.ScoredPayment, error)
}

// TransactionManager defines methods for database transaction management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(q *db.Queries) error) error
}
