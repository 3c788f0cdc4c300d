package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

const (
	mysqlCreateScoredPayments = `CREATE TABLE IF NOT EXISTS scored_payments (
    id BIGINT PRIMARY KEY,
    amount DECIMAL(15, 2),
    fraud_score FLOAT,
    is_fraud TINYINT(1),
    processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

	// processed_at keeps its first-insert value on conflict.
	mysqlUpsertScoredPayment = `INSERT INTO scored_payments (id, amount, fraud_score, is_fraud)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    amount = VALUES(amount),
    fraud_score = VALUES(fraud_score),
    is_fraud = VALUES(is_fraud)`

	mysqlGetScoredPayment = `SELECT id, amount, fraud_score, is_fraud, processed_at
FROM scored_payments
WHERE id = ?`
)

// MySQLScoredPaymentRepositoryImpl implements ScoredPaymentRepository using MySQL.
type MySQLScoredPaymentRepositoryImpl struct {
	db *sql.DB
}

// NewMySQLScoredPaymentRepositoryImpl creates a new ScoredPaymentRepository backed by MySQL.
func NewMySQLScoredPaymentRepositoryImpl(conn *sql.DB) ScoredPaymentRepository {
	return &MySQLScoredPaymentRepositoryImpl{db: conn}
}

// EnsureSchema creates the scored_payments table if absent.
func (r *MySQLScoredPaymentRepositoryImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, mysqlCreateScoredPayments); err != nil {
		return fmt.Errorf("%w: %w", model.ErrSchema, err)
	}

	return nil
}

// Upsert inserts payment or overwrites the row with the same id.
func (r *MySQLScoredPaymentRepositoryImpl) Upsert(ctx context.Context, payment *model.ScoredPayment) error {
	_, err := r.db.ExecContext(ctx, mysqlUpsertScoredPayment,
		payment.ID,
		payment.Amount.StringFixed(model.AmountScale),
		payment.FraudScore,
		payment.FraudFlag(),
	)
	if err != nil {
		return fmt.Errorf("%w: payment %d: %w", model.ErrPersist, payment.ID, err)
	}

	return nil
}

// GetByID retrieves a scored payment by id.
func (r *MySQLScoredPaymentRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.ScoredPayment, error) {
	var (
		payment     model.ScoredPayment
		amount      decimal.NullDecimal
		fraudScore  sql.NullFloat64
		isFraud     sql.NullInt16
		processedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, mysqlGetScoredPayment, id).
		Scan(&payment.ID, &amount, &fraudScore, &isFraud, &processedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}

		return nil, err
	}

	payment.Amount = amount.Decimal
	payment.FraudScore = fraudScore.Float64
	payment.IsFraud = isFraud.Valid && isFraud.Int16 != 0
	payment.ProcessedAt = processedAt.Time

	return &payment, nil
}
