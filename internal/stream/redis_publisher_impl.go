package stream

import (
	"context"

	"github.com/redis/rueidis"
)

// RedisPublisherImpl implements Publisher using XADD on a Redis stream.
type RedisPublisherImpl struct {
	redisClient rueidis.Client
	streamKey   string
}

// NewRedisPublisherImpl creates a publisher that owns redisClient.
func NewRedisPublisherImpl(redisClient rueidis.Client, streamKey string) Publisher {
	return &RedisPublisherImpl{
		redisClient: redisClient,
		streamKey:   streamKey,
	}
}

// Publish appends payload as a new stream entry.
func (p *RedisPublisherImpl) Publish(ctx context.Context, payload []byte) error {
	cmd := p.redisClient.B().Xadd().Key(p.streamKey).Id("*").
		FieldValue().FieldValue(PayloadField, string(payload)).
		Build()

	return p.redisClient.Do(ctx, cmd).Error()
}

// Close closes the underlying Redis client.
func (p *RedisPublisherImpl) Close() error {
	p.redisClient.Close()
	return nil
}
