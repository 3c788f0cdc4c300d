package repository

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/fraud-scoring-pipeline/internal/db"
	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDBTX struct {
	execs   []execCall
	execErr error
	row     *db.ScoredPayment
	rowErr  error
}

func (f *fakeDBTX) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (*fakeDBTX) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDBTX) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return fakeRow{row: f.row, err: f.rowErr}
}

type fakeRow struct {
	row *db.ScoredPayment
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.row.ID
	*dest[1].(*pgtype.Numeric) = r.row.Amount
	*dest[2].(*pgtype.Float8) = r.row.FraudScore
	*dest[3].(*pgtype.Int2) = r.row.IsFraud
	*dest[4].(*pgtype.Timestamp) = r.row.ProcessedAt
	return nil
}

type fakeTxManager struct {
	q   *db.Queries
	err error
}

func (m *fakeTxManager) WithTransaction(_ context.Context, fn func(q *db.Queries) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(m.q)
}

func newPostgresFake() (*ScoredPaymentRepositoryImpl, *fakeDBTX, *fakeTxManager) {
	conn := &fakeDBTX{}
	txm := &fakeTxManager{q: db.New(conn)}
	return &ScoredPaymentRepositoryImpl{db: db.New(conn), txm: txm}, conn, txm
}

func TestPostgres_EnsureSchema(t *testing.T) {
	repo, conn, _ := newPostgresFake()

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.Len(t, conn.execs, 1)
	assert.Contains(t, conn.execs[0].sql, "CREATE TABLE IF NOT EXISTS scored_payments")
}

func TestPostgres_EnsureSchemaFailure(t *testing.T) {
	repo, _, txm := newPostgresFake()
	txm.err = errors.New("failed to begin transaction")

	err := repo.EnsureSchema(context.Background())
	assert.ErrorIs(t, err, model.ErrSchema)
}

func TestPostgres_Upsert(t *testing.T) {
	repo, conn, _ := newPostgresFake()

	require.NoError(t, repo.Upsert(context.Background(), testPayment()))
	require.Len(t, conn.execs, 1)

	call := conn.execs[0]
	assert.Contains(t, call.sql, "ON CONFLICT (id) DO UPDATE")
	require.Len(t, call.args, 4)
	assert.Equal(t, int64(42), call.args[0])

	amount := call.args[1].(pgtype.Numeric)
	assert.True(t, fromNumeric(amount).Equal(decimal.RequireFromString("149.62")))
	assert.Equal(t, pgtype.Float8{Float64: 0.91, Valid: true}, call.args[2])
	assert.Equal(t, pgtype.Int2{Int16: 1, Valid: true}, call.args[3])
}

func TestPostgres_UpsertFailure(t *testing.T) {
	repo, conn, _ := newPostgresFake()
	conn.execErr = errors.New("server closed the connection")

	err := repo.Upsert(context.Background(), testPayment())
	assert.ErrorIs(t, err, model.ErrPersist)
}

func TestPostgres_GetByID(t *testing.T) {
	repo, conn, _ := newPostgresFake()
	processedAt := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	conn.row = &db.ScoredPayment{
		ID:          42,
		Amount:      pgtype.Numeric{Int: big.NewInt(14962), Exp: -2, Valid: true},
		FraudScore:  pgtype.Float8{Float64: 0.12, Valid: true},
		IsFraud:     pgtype.Int2{Int16: 0, Valid: true},
		ProcessedAt: pgtype.Timestamp{Time: processedAt, Valid: true},
	}

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "149.62", got.Amount.StringFixed(2))
	assert.False(t, got.IsFraud)
	assert.Equal(t, processedAt, got.ProcessedAt)
}

func TestPostgres_GetByIDNotFound(t *testing.T) {
	repo, conn, _ := newPostgresFake()
	conn.rowErr = pgx.ErrNoRows

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrPaymentNotFound)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "149.62", "0.01", "123456789012.34"} {
		d := decimal.RequireFromString(s)
		assert.True(t, fromNumeric(toNumeric(d)).Equal(d), s)
	}
	assert.True(t, fromNumeric(pgtype.Numeric{}).Equal(decimal.Zero))
}
