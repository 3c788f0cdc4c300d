package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

var scoredPaymentColumns = []string{"id", "amount", "fraud_score", "is_fraud", "processed_at"}

func newMySQLMock(t *testing.T) (ScoredPaymentRepository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewMySQLScoredPaymentRepositoryImpl(conn), mock
}

func testPayment() *model.ScoredPayment {
	return &model.ScoredPayment{
		ID:         42,
		Amount:     decimal.RequireFromString("149.62"),
		FraudScore: 0.91,
		IsFraud:    true,
	}
}

func TestMySQL_EnsureSchema(t *testing.T) {
	repo, mock := newMySQLMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scored_payments`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scored_payments`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.EnsureSchema(context.Background()), "second call is a no-op")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_EnsureSchemaFailure(t *testing.T) {
	repo, mock := newMySQLMock(t)

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("access denied"))

	err := repo.EnsureSchema(context.Background())
	assert.ErrorIs(t, err, model.ErrSchema)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_UpsertIsKeyedOnID(t *testing.T) {
	repo, mock := newMySQLMock(t)
	p := testPayment()

	// First write inserts, the replay updates in place.
	mock.ExpectExec(`(?s)INSERT INTO scored_payments .*ON DUPLICATE KEY UPDATE`).
		WithArgs(int64(42), "149.62", 0.91, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)INSERT INTO scored_payments .*ON DUPLICATE KEY UPDATE`).
		WithArgs(int64(42), "149.62", 0.91, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Upsert(context.Background(), p))
	require.NoError(t, repo.Upsert(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_UpsertFailure(t *testing.T) {
	repo, mock := newMySQLMock(t)

	mock.ExpectExec(`INSERT INTO scored_payments`).WillReturnError(errors.New("connection reset"))

	err := repo.Upsert(context.Background(), testPayment())
	assert.ErrorIs(t, err, model.ErrPersist)
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_GetByID(t *testing.T) {
	repo, mock := newMySQLMock(t)
	processedAt := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, amount, fraud_score, is_fraud, processed_at\s+FROM scored_payments`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(scoredPaymentColumns).
			AddRow(int64(42), "149.62", 0.91, int64(1), processedAt))

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.ID)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("149.62")))
	assert.InDelta(t, 0.91, got.FraudScore, 1e-9)
	assert.True(t, got.IsFraud)
	assert.Equal(t, processedAt, got.ProcessedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_GetByIDNotFound(t *testing.T) {
	repo, mock := newMySQLMock(t)

	mock.ExpectQuery(`(?s)SELECT .*FROM scored_payments`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(scoredPaymentColumns))

	_, err := repo.GetByID(context.Background(), 7)
	assert.ErrorIs(t, err, model.ErrPaymentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
