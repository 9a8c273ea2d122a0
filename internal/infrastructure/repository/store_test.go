package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/values"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
	"github.com/gavelworks/auction-backend/internal/infrastructure/repository"
)

func usd(amount int64) values.Money {
	return values.MustNewMoney(decimal.NewFromInt(amount), values.USD)
}

func newVehicle(t *testing.T) *vehicle.Vehicle {
	t.Helper()
	v, err := vehicle.New(vehicle.KindSedan, "Toyota", "Camry", 2021,
		"1HGBH41JXMN109186", decimal.NewFromInt(42000), "blue", nil)
	require.NoError(t, err)
	return v
}

func newAuction(t *testing.T) *auction.Auction {
	t.Helper()
	a, err := auction.NewAuction("Store Test Auction", "")
	require.NoError(t, err)
	return a
}

func newLot(t *testing.T, auctionID uuid.UUID) *auction.Lot {
	t.Helper()
	l, err := auction.NewLot(auctionID, newVehicle(t), usd(100), nil)
	require.NoError(t, err)
	return l
}

func TestStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore[*auction.Auction]("auction")
	a := newAuction(t)

	require.NoError(t, store.Add(ctx, a))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, uint32(1), got.Version)

	v, ok := store.StoredVersion(a.ID)
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)
}

func TestStore_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore[*auction.Auction]("auction")
	a := newAuction(t)

	require.NoError(t, store.Add(ctx, a))
	err := store.Add(ctx, a)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
	assert.False(t, errors.IsVersionConflict(err))
}

func TestStore_GetMissing(t *testing.T) {
	store := repository.NewStore[*auction.Auction]("auction")

	_, err := store.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore[*auction.Lot]("lot")
	l := newLot(t, uuid.New())
	require.NoError(t, store.Add(ctx, l))

	_, err := l.PlaceBid("alice", usd(150), 1)
	require.NoError(t, err)
	require.Equal(t, uint32(2), l.Version)

	require.NoError(t, store.Update(ctx, l))

	got, err := store.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Version)
	assert.Equal(t, 1, got.BidCount())
}

func TestStore_UpdateVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore[*auction.Lot]("lot")
	l := newLot(t, uuid.New())
	require.NoError(t, store.Add(ctx, l))

	// Two actors mutate the same stored snapshot.
	first, err := store.Get(ctx, l.ID)
	require.NoError(t, err)
	second, err := store.Get(ctx, l.ID)
	require.NoError(t, err)

	_, err = first.PlaceBid("alice", usd(150), 1)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, first))

	_, err = second.PlaceBid("bob", usd(200), 2)
	require.NoError(t, err)
	err = store.Update(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.IsVersionConflict(err))

	expected, actual, ok := errors.ConflictVersions(err)
	require.True(t, ok)
	assert.Equal(t, uint32(3), expected)
	assert.Equal(t, uint32(2), actual)

	// The losing write left no trace.
	got, err := store.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Version)
	assert.Equal(t, "alice", got.Bids()[0].BidderID)
}

func TestStore_UpdateSkippedIncrement(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore[*auction.Lot]("lot")
	l := newLot(t, uuid.New())
	require.NoError(t, store.Add(ctx, l))

	// Two domain mutations without an intervening commit land two versions
	// ahead; the store accepts exactly one step.
	_, err := l.PlaceBid("alice", usd(150), 1)
	require.NoError(t, err)
	_, err = l.PlaceBid("bob", usd(200), 2)
	require.NoError(t, err)
	require.Equal(t, uint32(3), l.Version)

	err = store.Update(ctx, l)
	require.Error(t, err)
	assert.True(t, errors.IsVersionConflict(err))
}

func TestStore_UpdateMissing(t *testing.T) {
	store := repository.NewStore[*auction.Lot]("lot")
	l := newLot(t, uuid.New())

	err := store.Update(context.Background(), l)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestStore_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore[*auction.Lot]("lot")
	l := newLot(t, uuid.New())
	require.NoError(t, store.Add(ctx, l))

	// Mutating the entity after Add must not leak into the stored snapshot.
	_, err := l.PlaceBid("alice", usd(150), 1)
	require.NoError(t, err)

	got, err := store.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BidCount())

	// Mutating a read snapshot must not leak either.
	_, err = got.PlaceBid("bob", usd(200), 1)
	require.NoError(t, err)

	again, err := store.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.BidCount())
}

func TestMemoryVehicleStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryVehicleStore()
	v := newVehicle(t)
	require.NoError(t, store.Add(ctx, v))

	t.Run("update refused", func(t *testing.T) {
		err := store.Update(ctx, v)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeState))
	})

	t.Run("search", func(t *testing.T) {
		kind := vehicle.KindSedan
		found, err := store.Search(ctx, vehicle.Filter{Kind: &kind})
		require.NoError(t, err)
		require.Len(t, found, 1)

		truck := vehicle.KindTruck
		found, err = store.Search(ctx, vehicle.Filter{Kind: &truck})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestMemoryLotStore_GetByAuctionID(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryLotStore()

	auctionA, auctionB := uuid.New(), uuid.New()
	require.NoError(t, store.Add(ctx, newLot(t, auctionA)))
	require.NoError(t, store.Add(ctx, newLot(t, auctionA)))
	require.NoError(t, store.Add(ctx, newLot(t, auctionB)))

	lots, err := store.GetByAuctionID(ctx, auctionA)
	require.NoError(t, err)
	assert.Len(t, lots, 2)

	lots, err = store.GetByAuctionID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, lots)
}
