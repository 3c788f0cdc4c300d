// Package stream provides the append-only log transports the pipeline consumes from and
// the producer publishes to.
package stream

import (
	"context"
	"time"
)

// Supported STREAM_BACKEND values.
const (
	BackendKafka = "kafka"
	BackendRedis = "redis"
)

// Offset reset policies applied when the consumer group has no committed position.
const (
	OffsetResetEarliest = "earliest"
	OffsetResetLatest   = "latest"
)

// Message is one entry fetched from the log.
type Message struct {
	// Position identifies the entry within the log and doubles as its idempotency key.
	Position int64
	Payload  []byte

	handle any
}

// Consumer reads entries from the log under a consumer group.
type Consumer interface {
	// Poll waits up to timeout for the next entry. It returns nil, nil when nothing arrived.
	Poll(ctx context.Context, timeout time.Duration) (*Message, error)
	// Commit synchronously acknowledges msg, advancing the group's cursor.
	Commit(ctx context.Context, msg *Message) error
	// Redeliver asks the log to present msg again from the committed cursor.
	Redeliver(ctx context.Context, msg *Message) error
	Close() error
}

// Publisher appends payloads to the log.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Close() error
}
