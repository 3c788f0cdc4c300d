// Package pipeline implements the ingest-score-persist-commit loop.
package pipeline

import (
	"errors"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

// State names the furthest stage a cycle reached.
type State int

// Cycle states in the order a record moves through them.
const (
	StateIdle State = iota
	StateFetched
	StateDecoded
	StateScored
	StatePersisted
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetched:
		return "fetched"
	case StateDecoded:
		return "decoded"
	case StateScored:
		return "scored"
	case StatePersisted:
		return "persisted"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Disposition is the action the driver takes after a cycle ends.
type Disposition int

const (
	// Continue means nothing was lost: the cycle completed, the poll was empty, or the
	// transport reported an error before a record was fetched.
	Continue Disposition = iota
	// Skip means the fetched record was dropped for this cycle without advancing past it.
	Skip
	// Fatal means the process cannot go on.
	Fatal
)

func (d Disposition) String() string {
	switch d {
	case Continue:
		return "continue"
	case Skip:
		return "skip"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CycleResult describes the outcome of a single cycle.
type CycleResult struct {
	State       State
	Disposition Disposition
	// Position is set once a message was fetched.
	Position int64
	Fetched  bool
	// Score and IsFraud are set once the record was scored.
	Score   float64
	IsFraud bool
	Err     error
}

// Classify maps a cycle error to its disposition.
func Classify(err error) Disposition {
	switch {
	case err == nil:
		return Continue
	case errors.Is(err, model.ErrSchema), errors.Is(err, model.ErrModelLoad):
		return Fatal
	case errors.Is(err, model.ErrDecode),
		errors.Is(err, model.ErrScoring),
		errors.Is(err, model.ErrPersist),
		errors.Is(err, model.ErrCommit),
		errors.Is(err, model.ErrCommitWithoutPersist),
		errors.Is(err, model.ErrCommitRegression):
		return Skip
	default:
		return Continue
	}
}
