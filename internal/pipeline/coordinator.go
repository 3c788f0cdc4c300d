package pipeline

import (
	"context"
	"fmt"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

// Committer acknowledges messages on the log.
type Committer interface {
	Commit(ctx context.Context, msg *stream.Message) error
}

// CommitCoordinator advances the log cursor only past persisted records, in
// non-decreasing position order. It is owned by a single driver goroutine.
type CommitCoordinator struct {
	committer Committer
	last      int64
	hasLast   bool
}

// NewCommitCoordinator creates a coordinator that commits through committer.
func NewCommitCoordinator(committer Committer) *CommitCoordinator {
	return &CommitCoordinator{committer: committer}
}

// Commit acknowledges msg. persisted must be the payment written for msg.
func (c *CommitCoordinator) Commit(ctx context.Context, msg *stream.Message, persisted *model.ScoredPayment) error {
	if persisted == nil || persisted.ID != msg.Position {
		return fmt.Errorf("%w: position %d", model.ErrCommitWithoutPersist, msg.Position)
	}

	if c.hasLast && msg.Position < c.last {
		return fmt.Errorf("%w: position %d after %d", model.ErrCommitRegression, msg.Position, c.last)
	}

	if err := c.committer.Commit(ctx, msg); err != nil {
		return fmt.Errorf("%w: position %d: %w", model.ErrCommit, msg.Position, err)
	}

	c.last = msg.Position
	c.hasLast = true

	return nil
}

// LastCommitted returns the highest committed position, if any.
func (c *CommitCoordinator) LastCommitted() (int64, bool) {
	return c.last, c.hasLast
}
