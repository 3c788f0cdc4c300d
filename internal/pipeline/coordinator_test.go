package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

func TestCommitCoordinator_RequiresPersistedPayment(t *testing.T) {
	log := &fakeLog{}
	c := NewCommitCoordinator(log)
	msg := &stream.Message{Position: 9}

	err := c.Commit(context.Background(), msg, nil)
	assert.ErrorIs(t, err, model.ErrCommitWithoutPersist)

	err = c.Commit(context.Background(), msg, &model.ScoredPayment{ID: 8})
	assert.ErrorIs(t, err, model.ErrCommitWithoutPersist)

	assert.Empty(t, log.committed)
}

func TestCommitCoordinator_NonDecreasingOrder(t *testing.T) {
	log := &fakeLog{}
	c := NewCommitCoordinator(log)
	ctx := context.Background()

	commit := func(pos int64) error {
		return c.Commit(ctx, &stream.Message{Position: pos}, &model.ScoredPayment{ID: pos})
	}

	require.NoError(t, commit(10))
	require.NoError(t, commit(10), "recommitting the same position is allowed")
	require.NoError(t, commit(12))

	err := commit(11)
	assert.ErrorIs(t, err, model.ErrCommitRegression)

	assert.Equal(t, []int64{10, 10, 12}, log.committed)
	last, ok := c.LastCommitted()
	assert.True(t, ok)
	assert.Equal(t, int64(12), last)
}

func TestCommitCoordinator_FailureDoesNotAdvance(t *testing.T) {
	log := &fakeLog{commitErrs: map[int64]int{3: 1}}
	c := NewCommitCoordinator(log)

	err := c.Commit(context.Background(), &stream.Message{Position: 3}, &model.ScoredPayment{ID: 3})
	assert.ErrorIs(t, err, model.ErrCommit)

	_, ok := c.LastCommitted()
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Continue, Classify(nil))
	assert.Equal(t, Skip, Classify(model.ErrDecode))
	assert.Equal(t, Skip, Classify(model.ErrScoring))
	assert.Equal(t, Skip, Classify(model.ErrPersist))
	assert.Equal(t, Skip, Classify(model.ErrCommit))
	assert.Equal(t, Fatal, Classify(model.ErrSchema))
	assert.Equal(t, Fatal, Classify(model.ErrModelLoad))
	assert.Equal(t, "persisted", StatePersisted.String())
	assert.Equal(t, "skip", Skip.String())
}
