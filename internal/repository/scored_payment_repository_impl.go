package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jnst/fraud-scoring-pipeline/internal/db"
	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

// ScoredPaymentRepositoryImpl implements ScoredPaymentRepository using PostgreSQL.
type ScoredPaymentRepositoryImpl struct {
	db  *db.Queries
	txm TransactionManager
}

// NewScoredPaymentRepositoryImpl creates a new ScoredPaymentRepository backed by a pgx pool.
func NewScoredPaymentRepositoryImpl(pool *pgxpool.Pool) ScoredPaymentRepository {
	return &ScoredPaymentRepositoryImpl{
		db:  db.New(pool),
		txm: NewTransactionManagerImpl(pool),
	}
}

// EnsureSchema creates the scored_payments table inside a transaction.
func (r *ScoredPaymentRepositoryImpl) EnsureSchema(ctx context.Context) error {
	err := r.txm.WithTransaction(ctx, func(q *db.Queries) error {
		return q.EnsureScoredPaymentsTable(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrSchema, err)
	}

	return nil
}

// Upsert inserts payment or overwrites the row with the same id.
func (r *ScoredPaymentRepositoryImpl) Upsert(ctx context.Context, payment *model.ScoredPayment) error {
	err := r.db.UpsertScoredPayment(ctx, &db.UpsertScoredPaymentParams{
		ID:         payment.ID,
		Amount:     toNumeric(payment.Amount),
		FraudScore: pgtype.Float8{Float64: payment.FraudScore, Valid: true},
		IsFraud:    pgtype.Int2{Int16: payment.FraudFlag(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("%w: payment %d: %w", model.ErrPersist, payment.ID, err)
	}

	return nil
}

// GetByID retrieves a scored payment by id.
func (r *ScoredPaymentRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.ScoredPayment, error) {
	row, err := r.db.GetScoredPayment(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}

		return nil, err
	}

	return &model.ScoredPayment{
		ID:          row.ID,
		Amount:      fromNumeric(row.Amount),
		FraudScore:  row.FraudScore.Float64,
		IsFraud:     row.IsFraud.Valid && row.IsFraud.Int16 != 0,
		ProcessedAt: row.ProcessedAt.Time,
	}, nil
}

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

func fromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}
