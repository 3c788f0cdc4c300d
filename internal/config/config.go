// Package config provides environment configuration management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/jnst/fraud-scoring-pipeline/internal/repository"
	"github.com/jnst/fraud-scoring-pipeline/internal/stream"
)

const consumerNamePrefix = "scorer-"

// Config holds all environment configuration for the application.
type Config struct {
	StreamBackend        string        `env:"STREAM_BACKEND"         envDefault:"kafka"`
	KafkaBrokers         []string      `env:"KAFKA_BROKERS"          envDefault:"localhost:9092" envSeparator:","`
	RedisAddr            string        `env:"REDIS_ADDR"             envDefault:"localhost:6379"`
	Topic                string        `env:"STREAM_TOPIC"           envDefault:"payment-topic"`
	GroupID              string        `env:"STREAM_GROUP_ID"        envDefault:"payment-group"`
	OffsetReset          string        `env:"STREAM_OFFSET_RESET"    envDefault:"latest"`
	ConsumerName         string        `env:"CONSUMER_NAME"`
	DatabaseDriver       string        `env:"DATABASE_DRIVER"        envDefault:"mysql"`
	DatabaseURL          string        `env:"DATABASE_URL"           envDefault:"root:password@tcp(localhost:3306)/scoring_db?parseTime=true"`
	ModelPath            string        `env:"MODEL_PATH"             envDefault:"fraud_model.json"`
	FraudThreshold       float64       `env:"FRAUD_THRESHOLD"        envDefault:"0.6"`
	PollTimeout          time.Duration `env:"POLL_TIMEOUT"           envDefault:"1s"`
	CycleDelay           time.Duration `env:"CYCLE_DELAY"            envDefault:"1s"`
	StageTimeout         time.Duration `env:"STAGE_TIMEOUT"          envDefault:"10s"`
	Port                 string        `env:"PORT"                   envDefault:"8080"`
	PublisherDatasetPath string        `env:"PUBLISHER_DATASET_PATH" envDefault:"dataset/creditcard.csv"`
	PublisherInterval    time.Duration `env:"PUBLISHER_INTERVAL"     envDefault:"1s"`
	LogLevel             string        `env:"LOG_LEVEL"              envDefault:"info"`
}

// LoadConfig parses environment variables into Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.ConsumerName == "" {
		cfg.ConsumerName = consumerNamePrefix + uuid.NewString()[:8]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enumerated and ranged settings.
func (c *Config) Validate() error {
	var errs []error

	switch c.StreamBackend {
	case stream.BackendKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka backend"))
		}
	case stream.BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unsupported STREAM_BACKEND %q", c.StreamBackend))
	}

	switch c.OffsetReset {
	case stream.OffsetResetEarliest, stream.OffsetResetLatest:
	default:
		errs = append(errs, fmt.Errorf("unsupported STREAM_OFFSET_RESET %q", c.OffsetReset))
	}

	switch c.DatabaseDriver {
	case repository.DriverMySQL, repository.DriverPostgres, repository.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if c.FraudThreshold < 0 || c.FraudThreshold > 1 {
		errs = append(errs, fmt.Errorf("FRAUD_THRESHOLD %v outside [0, 1]", c.FraudThreshold))
	}

	if c.PollTimeout <= 0 {
		errs = append(errs, errors.New("POLL_TIMEOUT must be positive"))
	}

	if c.CycleDelay < 0 {
		errs = append(errs, errors.New("CYCLE_DELAY must not be negative"))
	}

	return errors.Join(errs...)
}
