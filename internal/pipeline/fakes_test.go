package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
	"github.com/jnst/fraud-scoring-pipeline/internal/repository"
	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

// fakeLog is an in-memory log: Poll pops the queue, Redeliver pushes the message back to
// the front the way a rewound cursor would present it next.
type fakeLog struct {
	mu          sync.Mutex
	queue       []*stream.Message
	committed   []int64
	redelivered []int64
	pollErr     error
	commitErrs  map[int64]int
	onEmpty     func()
}

func (l *fakeLog) push(msgs ...*stream.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, msgs...)
}

func (l *fakeLog) Poll(context.Context, time.Duration) (*stream.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pollErr != nil {
		err := l.pollErr
		l.pollErr = nil
		return nil, err
	}
	if len(l.queue) == 0 {
		if l.onEmpty != nil {
			l.onEmpty()
		}
		return nil, nil
	}
	msg := l.queue[0]
	l.queue = l.queue[1:]
	return msg, nil
}

func (l *fakeLog) Commit(_ context.Context, msg *stream.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.commitErrs[msg.Position] > 0 {
		l.commitErrs[msg.Position]--
		return errors.New("coordinator not available")
	}
	l.committed = append(l.committed, msg.Position)
	return nil
}

func (l *fakeLog) Redeliver(_ context.Context, msg *stream.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.redelivered = append(l.redelivered, msg.Position)
	l.queue = append([]*stream.Message{msg}, l.queue...)
	return nil
}

func (*fakeLog) Close() error { return nil }

type fixedScorer struct {
	score float64
	err   error
}

func (s fixedScorer) Score(*model.TransactionRecord) (float64, error) {
	return s.score, s.err
}

// flakyRepo fails Upsert for the configured ids a number of times before delegating.
type flakyRepo struct {
	*repository.MemoryScoredPaymentRepositoryImpl
	failures map[int64]int
	upserts  []int64
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{
		MemoryScoredPaymentRepositoryImpl: repository.NewMemoryScoredPaymentRepositoryImpl(),
		failures:                          make(map[int64]int),
	}
}

func (r *flakyRepo) Upsert(ctx context.Context, p *model.ScoredPayment) error {
	r.upserts = append(r.upserts, p.ID)
	if r.failures[p.ID] != 0 {
		if r.failures[p.ID] > 0 {
			r.failures[p.ID]--
		}
		return fmt.Errorf("%w: payment %d: deadlock found", model.ErrPersist, p.ID)
	}
	return r.MemoryScoredPaymentRepositoryImpl.Upsert(ctx, p)
}

func transactionMessage(t *testing.T, position int64, amount float64) *stream.Message {
	t.Helper()

	fields := map[string]float64{"Time": 0, "Amount": amount}
	for i := 1; i <= 28; i++ {
		fields[fmt.Sprintf("V%d", i)] = 0
	}
	raw, err := json.Marshal(fields)
	require.NoError(t, err)

	return &stream.Message{Position: position, Payload: raw}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		PollTimeout:    10 * time.Millisecond,
		StageTimeout:   time.Second,
		FraudThreshold: 0.6,
	}
}
