package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStreamSink appends events to per-auction Redis Streams. One stream
// per auction id keeps per-auction ordering without a global bottleneck.
type RedisStreamSink struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	maxLen    int64
}

// NewRedisStreamSink creates a Redis Streams event sink.
func NewRedisStreamSink(client *redis.Client, logger *zap.Logger, keyPrefix string, maxLen int64) (*RedisStreamSink, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if keyPrefix == "" {
		keyPrefix = "auction:events"
	}
	if maxLen <= 0 {
		maxLen = 10000
	}

	return &RedisStreamSink{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
		maxLen:    maxLen,
	}, nil
}

// Publish appends the event to the auction's stream.
func (s *RedisStreamSink) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	stream := fmt.Sprintf("%s:%s", s.keyPrefix, e.AuctionID)
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":   e.EventID.String(),
			"event_type": string(e.EventType),
			"auction_id": e.AuctionID.String(),
			"timestamp":  e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
			"payload":    string(payload),
		},
	}).Err()
	if err != nil {
		s.logger.Error("stream append failed",
			zap.String("stream", stream),
			zap.String("event_id", e.EventID.String()),
			zap.Error(err))
		return fmt.Errorf("redis xadd failed: %w", err)
	}

	return nil
}
