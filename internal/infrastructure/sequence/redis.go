package sequence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is a centralized source backed by Redis INCR, for deployments with
// multiple API instances. Keys follow bid:seq:{lotId}.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis creates a Redis-backed sequence source.
func NewRedis(client *redis.Client, logger *zap.Logger) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Redis{client: client, logger: logger}, nil
}

// Next atomically increments the lot's counter.
func (r *Redis) Next(ctx context.Context, lotID uuid.UUID) (int64, error) {
	result, err := r.client.Incr(ctx, seqKey(lotID)).Result()
	if err != nil {
		r.logger.Error("sequence increment failed",
			zap.String("lot_id", lotID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("redis increment failed: %w", err)
	}

	return result, nil
}

// Current returns the last issued value, 0 if the key does not exist.
func (r *Redis) Current(ctx context.Context, lotID uuid.UUID) (int64, error) {
	result, err := r.client.Get(ctx, seqKey(lotID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		r.logger.Error("sequence read failed",
			zap.String("lot_id", lotID.String()),
			zap.Error(err))
		return 0, fmt.Errorf("redis get failed: %w", err)
	}

	val, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed sequence value %q: %w", result, err)
	}
	return val, nil
}

func seqKey(lotID uuid.UUID) string {
	return "bid:seq:" + lotID.String()
}
