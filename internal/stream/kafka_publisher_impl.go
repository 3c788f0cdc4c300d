package stream

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// firstPartition routes every message to the lowest partition id so the log keeps a single order.
type firstPartition struct{}

func (firstPartition) Balance(_ kafka.Message, partitions ...int) int {
	first := partitions[0]
	for _, p := range partitions[1:] {
		if p < first {
			first = p
		}
	}

	return first
}

// KafkaPublisherImpl implements Publisher using a kafka-go writer.
type KafkaPublisherImpl struct {
	writer kafkaWriter
}

// NewKafkaPublisherImpl creates a publisher writing to topic.
func NewKafkaPublisherImpl(brokers []string, topic string) Publisher {
	return &KafkaPublisherImpl{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     firstPartition{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// Publish writes payload as a single message and waits for the broker acknowledgement.
func (p *KafkaPublisherImpl) Publish(ctx context.Context, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Value: payload})
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisherImpl) Close() error {
	return p.writer.Close()
}
