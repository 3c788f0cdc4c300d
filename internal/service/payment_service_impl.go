package service

import (
	"context"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
	"github.com/jnst/fraud-scoring-pipeline/internal/repository"
)

// PaymentServiceImpl implements PaymentService on top of the scored payment repository.
type PaymentServiceImpl struct {
	paymentRepo repository.ScoredPaymentRepository
}

// NewPaymentServiceImpl creates a new PaymentService implementation.
func NewPaymentServiceImpl(paymentRepo repository.ScoredPaymentRepository) PaymentService {
	return &PaymentServiceImpl{paymentRepo: paymentRepo}
}

// GetPayment retrieves a scored payment by its log position.
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, id int64) (*model.ScoredPayment, error) {
	return s.paymentRepo.GetByID(ctx, id)
}
