// Package scoring provides fraud probability inference over decoded transaction records.
package scoring

import "github.com/jnst/fraud-scoring-pipeline/internal/model"

// DefaultFraudThreshold is the score above which a payment is flagged as fraud.
const DefaultFraudThreshold = 0.6

// Scorer returns a fraud probability in [0, 1] for a record.
// Implementations hold no mutable state and are safe for concurrent use.
type Scorer interface {
	Score(record *model.TransactionRecord) (float64, error)
}

// Verdict reports whether score exceeds threshold.
func Verdict(score, threshold float64) bool {
	return score > threshold
}
