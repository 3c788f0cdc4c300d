// Package main provides the fraud scoring consumer: it reads transactions from the log,
// scores them and records the verdicts before committing each offset.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/rueidis"
	"golang.org/x/sync/errgroup"

	"github.com/jnst/fraud-scoring-pipeline/internal/config"
	"github.com/jnst/fraud-scoring-pipeline/internal/logger"
	"github.com/jnst/fraud-scoring-pipeline/internal/pipeline"
	"github.com/jnst/fraud-scoring-pipeline/internal/repository"
	"github.com/jnst/fraud-scoring-pipeline/internal/scoring"
	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

const (
	signalBufferSize = 1
	exitCode         = 1
)

func setupConsumer(ctx context.Context, cfg *config.Config) (stream.Consumer, error) {
	switch cfg.StreamBackend {
	case stream.BackendKafka:
		return stream.NewKafkaConsumerImpl(ctx, stream.KafkaConfig{
			Brokers:     cfg.KafkaBrokers,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			OffsetReset: cfg.OffsetReset,
		})
	case stream.BackendRedis:
		redisClient, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: []string{cfg.RedisAddr},
		})
		if err != nil {
			return nil, err
		}

		consumer, err := stream.NewRedisConsumerImpl(ctx, redisClient, stream.RedisConfig{
			StreamKey:    cfg.Topic,
			GroupName:    cfg.GroupID,
			ConsumerName: cfg.ConsumerName,
			OffsetReset:  cfg.OffsetReset,
		})
		if err != nil {
			redisClient.Close()
			return nil, err
		}

		return consumer, nil
	default:
		return nil, fmt.Errorf("unsupported stream backend %q", cfg.StreamBackend)
	}
}

// watchSignals cancels the pipeline on SIGINT or SIGTERM and returns once ctx is done.
func watchSignals(ctx context.Context, cancel context.CancelFunc) error {
	sigChan := make(chan os.Signal, signalBufferSize)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		slog.Info("shutdown signal received, stopping consumer")
		cancel()
	case <-ctx.Done():
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("consumer exited", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	loggerInstance := logger.Setup(cfg.LogLevel)
	slog.SetDefault(loggerInstance)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeRepo()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	scorer, err := scoring.LoadModel(cfg.ModelPath)
	if err != nil {
		return err
	}

	consumer, err := setupConsumer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.StreamBackend, err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			slog.Warn("failed to close consumer", slog.String("error", err.Error()))
		}
	}()

	driver := pipeline.NewDriver(consumer, scorer, repo, pipeline.Config{
		PollTimeout:    cfg.PollTimeout,
		CycleDelay:     cfg.CycleDelay,
		StageTimeout:   cfg.StageTimeout,
		FraudThreshold: cfg.FraudThreshold,
	}, loggerInstance)

	slog.Info("starting fraud scoring consumer",
		slog.String("service", "consumer"),
		slog.String("backend", cfg.StreamBackend),
		slog.String("topic", cfg.Topic),
		slog.String("group", cfg.GroupID),
		slog.String("consumer", cfg.ConsumerName),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("model_path", cfg.ModelPath),
		slog.Int("model_features", scorer.NumFeature()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watchSignals(gctx, cancel)
	})
	g.Go(func() error {
		defer cancel()
		return driver.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if last, ok := driver.Coordinator().LastCommitted(); ok {
		slog.Info("consumer stopped", slog.Int64("last_committed", last))
	} else {
		slog.Info("consumer stopped before committing any record")
	}

	return nil
}
