package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jnst/fraud-scoring-pipeline/internal/decoder"
	"github.com/jnst/fraud-scoring-pipeline/internal/model"
	"github.com/jnst/fraud-scoring-pipeline/internal/repository"
	"github.com/jnst/fraud-scoring-pipeline/internal/scoring"
	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

// Config tunes the pacing of the driver loop. None of it affects correctness.
type Config struct {
	PollTimeout    time.Duration
	CycleDelay     time.Duration
	StageTimeout   time.Duration
	FraudThreshold float64
}

// Driver runs records through decode, score, persist and commit, one at a time.
type Driver struct {
	consumer    stream.Consumer
	scorer      scoring.Scorer
	repo        repository.ScoredPaymentRepository
	coordinator *CommitCoordinator
	cfg         Config
	logger      *slog.Logger
}

// NewDriver wires the pipeline stages around consumer.
func NewDriver(
	consumer stream.Consumer,
	scorer scoring.Scorer,
	repo repository.ScoredPaymentRepository,
	cfg Config,
	logger *slog.Logger,
) *Driver {
	return &Driver{
		consumer:    consumer,
		scorer:      scorer,
		repo:        repo,
		coordinator: NewCommitCoordinator(consumer),
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "pipeline")),
	}
}

// Coordinator returns the commit coordinator owned by the driver.
func (d *Driver) Coordinator() *CommitCoordinator {
	return d.coordinator
}

// Run executes cycles until ctx is cancelled. Cancellation is observed between cycles
// only, so a persisted record always reaches its commit first.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("pipeline started",
		slog.Duration("poll_timeout", d.cfg.PollTimeout),
		slog.Duration("cycle_delay", d.cfg.CycleDelay),
		slog.Float64("fraud_threshold", d.cfg.FraudThreshold),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("pipeline stopped")
			return nil
		default:
		}

		result := d.RunCycle(ctx)

		if !result.Fetched && ctx.Err() != nil {
			d.logger.Info("pipeline stopped")
			return nil
		}

		d.logResult(result)

		if result.Disposition == Fatal {
			return result.Err
		}

		if !result.Fetched && result.Err == nil {
			continue
		}

		if !d.pace(ctx) {
			d.logger.Info("pipeline stopped")
			return nil
		}
	}
}

// RunCycle pulls at most one message and drives it as far through the stages as it goes.
func (d *Driver) RunCycle(ctx context.Context) CycleResult {
	msg, err := d.consumer.Poll(ctx, d.cfg.PollTimeout)
	if err != nil {
		return CycleResult{State: StateIdle, Disposition: Continue, Err: err}
	}

	if msg == nil {
		return CycleResult{State: StateIdle, Disposition: Continue}
	}

	// Once fetched, the cycle runs to its end regardless of shutdown.
	ctx = context.WithoutCancel(ctx)

	result := CycleResult{State: StateFetched, Position: msg.Position, Fetched: true}

	record, err := decoder.Decode(msg.Payload, msg.Position)
	if err != nil {
		return result.fail(err)
	}

	result.State = StateDecoded

	score, err := d.score(record)
	if err != nil {
		return result.fail(err)
	}

	result.State = StateScored
	result.Score = score
	result.IsFraud = scoring.Verdict(score, d.cfg.FraudThreshold)

	payment := model.NewScoredPayment(record, score, result.IsFraud)

	if err := d.persist(ctx, payment); err != nil {
		d.redeliver(ctx, msg)
		return result.fail(err)
	}

	result.State = StatePersisted

	commitCtx, cancel := d.stageContext(ctx)
	defer cancel()

	if err := d.coordinator.Commit(commitCtx, msg, payment); err != nil {
		return result.fail(err)
	}

	result.State = StateCommitted

	return result
}

func (d *Driver) score(record *model.TransactionRecord) (float64, error) {
	score, err := d.scorer.Score(record)
	if err != nil {
		if !errors.Is(err, model.ErrScoring) {
			err = fmt.Errorf("%w: %w", model.ErrScoring, err)
		}

		return 0, err
	}

	if math.IsNaN(score) || score < 0 || score > 1 {
		return 0, fmt.Errorf("%w: score %v outside [0, 1]", model.ErrScoring, score)
	}

	return score, nil
}

func (d *Driver) persist(ctx context.Context, payment *model.ScoredPayment) error {
	stageCtx, cancel := d.stageContext(ctx)
	defer cancel()

	if err := d.repo.Upsert(stageCtx, payment); err != nil {
		if !errors.Is(err, model.ErrPersist) {
			err = fmt.Errorf("%w: %w", model.ErrPersist, err)
		}

		return err
	}

	return nil
}

func (d *Driver) redeliver(ctx context.Context, msg *stream.Message) {
	stageCtx, cancel := d.stageContext(ctx)
	defer cancel()

	if err := d.consumer.Redeliver(stageCtx, msg); err != nil {
		d.logger.Error("failed to request redelivery",
			slog.Int64("position", msg.Position),
			slog.String("error", err.Error()),
		)
	}
}

func (d *Driver) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d.cfg.StageTimeout)
}

func (d *Driver) pace(ctx context.Context) bool {
	if d.cfg.CycleDelay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d.cfg.CycleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (d *Driver) logResult(r CycleResult) {
	switch {
	case r.State == StateCommitted:
		d.logger.Info("payment scored and committed",
			slog.Int64("position", r.Position),
			slog.Float64("fraud_score", r.Score),
			slog.Bool("is_fraud", r.IsFraud),
		)
	case r.Err == nil:
		d.logger.Debug("empty poll")
	case !r.Fetched:
		d.logger.Error("failed to poll transaction",
			slog.String("disposition", r.Disposition.String()),
			slog.String("error", r.Err.Error()),
		)
	default:
		d.logger.Error("record skipped",
			slog.Int64("position", r.Position),
			slog.String("state", r.State.String()),
			slog.String("disposition", r.Disposition.String()),
			slog.String("error", r.Err.Error()),
		)
	}
}

func (r CycleResult) fail(err error) CycleResult {
	r.Err = err
	r.Disposition = Classify(err)

	return r
}
