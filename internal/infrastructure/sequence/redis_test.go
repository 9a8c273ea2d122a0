package sequence_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gavelworks/auction-backend/internal/infrastructure/sequence"
)

func newRedisSource(t *testing.T) (*sequence.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	src, err := sequence.NewRedis(client, zap.NewNop())
	require.NoError(t, err)
	return src, mr
}

func TestRedis_Next(t *testing.T) {
	ctx := context.Background()
	src, _ := newRedisSource(t)
	lotID := uuid.New()

	for want := int64(1); want <= 3; want++ {
		got, err := src.Next(ctx, lotID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRedis_Current(t *testing.T) {
	ctx := context.Background()
	src, _ := newRedisSource(t)
	lotID := uuid.New()

	current, err := src.Current(ctx, lotID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current)

	_, err = src.Next(ctx, lotID)
	require.NoError(t, err)
	_, err = src.Next(ctx, lotID)
	require.NoError(t, err)

	current, err = src.Current(ctx, lotID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current)
}

func TestRedis_LotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	src, _ := newRedisSource(t)

	a, b := uuid.New(), uuid.New()
	for i := 0; i < 4; i++ {
		_, err := src.Next(ctx, a)
		require.NoError(t, err)
	}

	got, err := src.Next(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestRedis_KeyLayout(t *testing.T) {
	ctx := context.Background()
	src, mr := newRedisSource(t)
	lotID := uuid.New()

	_, err := src.Next(ctx, lotID)
	require.NoError(t, err)

	val, err := mr.Get("bid:seq:" + lotID.String())
	require.NoError(t, err)
	assert.Equal(t, "1", val)
}

func TestRedis_NextUnavailable(t *testing.T) {
	ctx := context.Background()
	src, mr := newRedisSource(t)
	mr.Close()

	_, err := src.Next(ctx, uuid.New())
	assert.Error(t, err)
}

func TestNewRedis_RequiresDependencies(t *testing.T) {
	_, err := sequence.NewRedis(nil, zap.NewNop())
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err = sequence.NewRedis(client, nil)
	assert.Error(t, err)
}
