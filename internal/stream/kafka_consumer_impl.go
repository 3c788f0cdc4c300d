package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jnst/fraud-scoring-pipeline/internal/model"
)

const kafkaMaxBytes = 10e6

// KafkaConfig holds the connection parameters of a Kafka consumer group.
type KafkaConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	OffsetReset string
}

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumerImpl implements Consumer using a kafka-go group reader.
type KafkaConsumerImpl struct {
	newReader func() kafkaReader
	reader    kafkaReader
}

// NewKafkaConsumerImpl verifies a broker is reachable and joins the consumer group.
func NewKafkaConsumerImpl(ctx context.Context, cfg KafkaConfig) (Consumer, error) {
	startOffset, err := StartOffset(cfg.OffsetReset)
	if err != nil {
		return nil, err
	}

	if err := checkTopic(ctx, cfg.Brokers, cfg.Topic); err != nil {
		return nil, err
	}

	newReader := func() kafkaReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			StartOffset: startOffset,
			MinBytes:    1,
			MaxBytes:    kafkaMaxBytes,
			// Zero makes CommitMessages synchronous.
			CommitInterval: 0,
		})
	}

	return newKafkaConsumer(newReader), nil
}

func newKafkaConsumer(newReader func() kafkaReader) *KafkaConsumerImpl {
	return &KafkaConsumerImpl{
		newReader: newReader,
		reader:    newReader(),
	}
}

// StartOffset maps an offset reset policy to the kafka-go start offset.
func StartOffset(reset string) (int64, error) {
	switch reset {
	case OffsetResetEarliest:
		return kafka.FirstOffset, nil
	case OffsetResetLatest:
		return kafka.LastOffset, nil
	default:
		return 0, fmt.Errorf("unsupported offset reset policy %q", reset)
	}
}

// Poll fetches the next message, returning nil when timeout elapses first.
func (c *KafkaConsumerImpl) Poll(ctx context.Context, timeout time.Duration) (*Message, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m, err := c.reader.FetchMessage(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	return &Message{
		Position: m.Offset,
		Payload:  m.Value,
		handle:   m,
	}, nil
}

// Commit synchronously commits the offset of msg for the group.
func (c *KafkaConsumerImpl) Commit(ctx context.Context, msg *Message) error {
	m, ok := msg.handle.(kafka.Message)
	if !ok {
		return fmt.Errorf("message at position %d was not fetched from kafka", msg.Position)
	}

	return c.reader.CommitMessages(ctx, m)
}

// Redeliver rejoins the group so fetching resumes from the last committed offset.
func (c *KafkaConsumerImpl) Redeliver(_ context.Context, _ *Message) error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close reader: %w", err)
	}

	c.reader = c.newReader()

	return nil
}

// Close leaves the consumer group.
func (c *KafkaConsumerImpl) Close() error {
	return c.reader.Close()
}

// checkTopic verifies a broker is reachable and that topic has at most one partition.
// Positions are partition offsets, so they only identify a record within one partition.
func checkTopic(ctx context.Context, brokers []string, topic string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	var errs []error
	for _, addr := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to dial broker %s: %w", addr, err))
			continue
		}

		partitions, err := conn.ReadPartitions(topic)
		_ = conn.Close()

		if err != nil {
			if errors.Is(err, kafka.UnknownTopicOrPartition) {
				slog.Warn("topic does not exist yet", slog.String("topic", topic))
				return nil
			}

			return fmt.Errorf("failed to read partitions of %s: %w", topic, err)
		}

		return requireSinglePartition(topic, partitions)
	}

	return errors.Join(errs...)
}

func requireSinglePartition(topic string, partitions []kafka.Partition) error {
	var ids []int
	for _, p := range partitions {
		if p.Topic == topic {
			ids = append(ids, p.ID)
		}
	}

	if len(ids) > 1 {
		return fmt.Errorf("%w: topic %s has %d partitions, offsets are only unique within one",
			model.ErrMultiPartitionTopic, topic, len(ids))
	}

	return nil
}
