package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/rueidis"
)

// PayloadField is the stream entry field carrying the JSON record.
const PayloadField = "payload"

// pendingFromStart reads a consumer's own pending entries from the beginning.
const pendingFromStart = "0"

// RedisConfig holds the stream and consumer group identity for Redis Streams.
type RedisConfig struct {
	StreamKey    string
	GroupName    string
	ConsumerName string
	OffsetReset  string
}

// RedisConsumerImpl implements Consumer using Redis Streams consumer groups.
//
// Entries read but never acknowledged stay in the group's pending list. The consumer
// replays its own pending entries on startup and after Redeliver before reading new ones.
type RedisConsumerImpl struct {
	redisClient rueidis.Client
	cfg         RedisConfig
	// pendingCursor is the id after which pending entries are replayed; empty reads new entries.
	pendingCursor string
}

// NewRedisConsumerImpl creates the consumer group if needed and returns a consumer
// that owns redisClient.
func NewRedisConsumerImpl(ctx context.Context, redisClient rueidis.Client, cfg RedisConfig) (Consumer, error) {
	startID := "$"
	switch cfg.OffsetReset {
	case OffsetResetEarliest:
		startID = "0"
	case OffsetResetLatest:
	default:
		return nil, fmt.Errorf("unsupported offset reset policy %q", cfg.OffsetReset)
	}

	createGroupCmd := redisClient.B().XgroupCreate().Key(cfg.StreamKey).Group(cfg.GroupName).Id(startID).Mkstream().Build()
	if err := redisClient.Do(ctx, createGroupCmd).Error(); err != nil {
		slog.Info("consumer group creation result (may already exist)", slog.String("error", err.Error()))
	}

	return &RedisConsumerImpl{
		redisClient:   redisClient,
		cfg:           cfg,
		pendingCursor: pendingFromStart,
	}, nil
}

// Poll returns the next pending entry if any, otherwise blocks up to timeout for a new one.
func (c *RedisConsumerImpl) Poll(ctx context.Context, timeout time.Duration) (*Message, error) {
	if c.pendingCursor != "" {
		entries, err := c.readMessages(ctx, c.pendingCursor, 0)
		if err != nil {
			return nil, err
		}

		if len(entries) > 0 {
			c.pendingCursor = entries[0].ID
			return toMessage(entries[0])
		}

		c.pendingCursor = ""
	}

	entries, err := c.readMessages(ctx, ">", timeout)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, nil
	}

	return toMessage(entries[0])
}

// Commit acknowledges msg in the consumer group.
func (c *RedisConsumerImpl) Commit(ctx context.Context, msg *Message) error {
	id, ok := msg.handle.(string)
	if !ok {
		return fmt.Errorf("message at position %d was not read from redis", msg.Position)
	}

	ackCmd := c.redisClient.B().Xack().Key(c.cfg.StreamKey).Group(c.cfg.GroupName).Id(id).Build()

	return c.redisClient.Do(ctx, ackCmd).Error()
}

// Redeliver rewinds the pending replay so the next Poll returns msg again.
func (c *RedisConsumerImpl) Redeliver(_ context.Context, msg *Message) error {
	id, ok := msg.handle.(string)
	if !ok {
		return fmt.Errorf("message at position %d was not read from redis", msg.Position)
	}

	before, err := StreamIDBefore(id)
	if err != nil {
		return err
	}

	c.pendingCursor = before

	return nil
}

// Close closes the underlying Redis client.
func (c *RedisConsumerImpl) Close() error {
	c.redisClient.Close()
	return nil
}

func (c *RedisConsumerImpl) readMessages(ctx context.Context, id string, block time.Duration) ([]rueidis.XRangeEntry, error) {
	var readCmd rueidis.Completed
	if block > 0 {
		readCmd = c.redisClient.B().Xreadgroup().Group(c.cfg.GroupName, c.cfg.ConsumerName).
			Count(1).
			Block(block.Milliseconds()).
			Streams().
			Key(c.cfg.StreamKey).
			Id(id).
			Build()
	} else {
		readCmd = c.redisClient.B().Xreadgroup().Group(c.cfg.GroupName, c.cfg.ConsumerName).
			Count(1).
			Streams().
			Key(c.cfg.StreamKey).
			Id(id).
			Build()
	}

	result := c.redisClient.Do(ctx, readCmd)
	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	streams, err := result.AsXRead()
	if err != nil {
		return nil, fmt.Errorf("failed to parse stream reply: %w", err)
	}

	return streams[c.cfg.StreamKey], nil
}

func toMessage(entry rueidis.XRangeEntry) (*Message, error) {
	position, err := PositionFromStreamID(entry.ID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if s, ok := entry.FieldValues[PayloadField]; ok {
		payload = []byte(s)
	}

	return &Message{
		Position: position,
		Payload:  payload,
		handle:   entry.ID,
	}, nil
}
