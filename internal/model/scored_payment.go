package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places persisted for amounts (DECIMAL(15,2)).
const AmountScale = 2

// ScoredPayment represents a scored transaction persisted under its log position.
type ScoredPayment struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	FraudScore  float64         `json:"fraud_score"`
	IsFraud     bool            `json:"is_fraud"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// NewScoredPayment builds the persisted unit of work for a scored record.
func NewScoredPayment(record *TransactionRecord, score float64, isFraud bool) *ScoredPayment {
	return &ScoredPayment{
		ID:         record.Position,
		Amount:     decimal.NewFromFloat(record.Amount()).Round(AmountScale),
		FraudScore: score,
		IsFraud:    isFraud,
	}
}

// FraudFlag returns the TINYINT(1) representation of IsFraud.
func (p *ScoredPayment) FraudFlag() int16 {
	if p.IsFraud {
		return 1
	}

	return 0
}
