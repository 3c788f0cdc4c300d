package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

// MemoryScoredPaymentRepositoryImpl keeps scored payments in process memory.
type MemoryScoredPaymentRepositoryImpl struct {
	mu   sync.Mutex
	rows map[int64]model.ScoredPayment
	now  func() time.Time
}

// NewMemoryScoredPaymentRepositoryImpl creates an empty in-memory repository.
func NewMemoryScoredPaymentRepositoryImpl() *MemoryScoredPaymentRepositoryImpl {
	return &MemoryScoredPaymentRepositoryImpl{
		rows: make(map[int64]model.ScoredPayment),
		now:  time.Now,
	}
}

// EnsureSchema is a no-op for the in-memory store.
func (*MemoryScoredPaymentRepositoryImpl) EnsureSchema(context.Context) error {
	return nil
}

// Upsert stores payment under its id, keeping the original processed_at.
func (r *MemoryScoredPaymentRepositoryImpl) Upsert(_ context.Context, payment *model.ScoredPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := *payment
	row.Amount = row.Amount.Round(model.AmountScale)

	if existing, ok := r.rows[payment.ID]; ok {
		row.ProcessedAt = existing.ProcessedAt
	} else {
		row.ProcessedAt = r.now().UTC()
	}

	r.rows[payment.ID] = row

	return nil
}

// GetByID retrieves a scored payment by id.
func (r *MemoryScoredPaymentRepositoryImpl) GetByID(_ context.Context, id int64) (*model.ScoredPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}

	return &row, nil
}

// Len returns the number of stored rows.
func (r *MemoryScoredPaymentRepositoryImpl) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rows)
}
