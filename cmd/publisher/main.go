// Package main provides the dataset publisher that replays transactions onto the log.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/rueidis"

	"github.com/jnst/fraud-scoring-pipeline/internal/config"
	"github.com/jnst/fraud-scoring-pipeline/internal/dataset"
	"github.com/jnst/fraud-scoring-pipeline/internal/logger"
	"github.com/jnst/fraud-scoring-pipeline/internal/service"
	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

const (
	signalBufferSize = 1
	exitCode         = 1
)

func setupPublisher(cfg *config.Config) (stream.Publisher, error) {
	switch cfg.StreamBackend {
	case stream.BackendKafka:
		return stream.NewKafkaPublisherImpl(cfg.KafkaBrokers, cfg.Topic), nil
	case stream.BackendRedis:
		redisClient, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: []string{cfg.RedisAddr},
		})
		if err != nil {
			return nil, err
		}

		return stream.NewRedisPublisherImpl(redisClient, cfg.Topic), nil
	default:
		return nil, fmt.Errorf("unsupported stream backend %q", cfg.StreamBackend)
	}
}

func setupPublisherSignalHandling() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, signalBufferSize)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutdown signal received, stopping publisher")
		cancel()
	}()

	return ctx, cancel
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	slog.SetDefault(logger.Setup(cfg.LogLevel))

	rows, err := dataset.Open(cfg.PublisherDatasetPath)
	if err != nil {
		slog.Error("failed to open dataset", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer rows.Close()

	publisher, err := setupPublisher(cfg)
	if err != nil {
		slog.Error("failed to connect to stream", slog.String("backend", cfg.StreamBackend), slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer publisher.Close()

	ctx, cancel := setupPublisherSignalHandling()
	defer cancel()

	slog.Info("starting dataset publisher",
		slog.String("service", "publisher"),
		slog.String("backend", cfg.StreamBackend),
		slog.String("topic", cfg.Topic),
		slog.String("dataset", cfg.PublisherDatasetPath),
		slog.Duration("interval", cfg.PublisherInterval),
	)

	publisherService := service.NewPublisherServiceImpl(publisher)

	published, err := publisherService.PublishDataset(ctx, rows, cfg.PublisherInterval)
	if err != nil {
		slog.Error("publisher stopped on dataset error", slog.Int("published", published), slog.String("error", err.Error()))
		return
	}

	slog.Info("publisher finished", slog.Int("published", published))
}
