package auction_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/values"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
)

func testVehicle(t *testing.T) *vehicle.Vehicle {
	t.Helper()
	v, err := vehicle.New(vehicle.KindSedan, "Toyota", "Camry", 2021,
		"1HGBH41JXMN109186", decimal.NewFromInt(42000), "blue",
		map[string]any{"doors": 4, "sunroof": true})
	require.NoError(t, err)
	return v
}

func testLot(t *testing.T, auctionID uuid.UUID, startingBid int64) *auction.Lot {
	t.Helper()
	l, err := auction.NewLot(auctionID, testVehicle(t),
		values.MustNewMoney(decimal.NewFromInt(startingBid), values.USD), nil)
	require.NoError(t, err)
	return l
}

func TestNewAuction(t *testing.T) {
	a, err := auction.NewAuction("Spring Classics", "classic cars")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, auction.StateCreated, a.State)
	assert.Equal(t, uint32(1), a.Version)
	assert.Nil(t, a.StartTime)
	assert.Nil(t, a.EndTime)
	assert.Equal(t, 0, a.LotCount())
}

func TestNewAuction_EmptyTitle(t *testing.T) {
	_, err := auction.NewAuction("", "desc")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestAuction_Lifecycle(t *testing.T) {
	a, err := auction.NewAuction("Lifecycle", "")
	require.NoError(t, err)

	require.NoError(t, a.AddLot(testLot(t, a.ID, 100)))
	assert.Equal(t, uint32(2), a.Version)

	require.NoError(t, a.Start())
	assert.Equal(t, auction.StateActive, a.State)
	assert.NotNil(t, a.StartTime)
	assert.Equal(t, uint32(3), a.Version)
	assert.True(t, a.CanAcceptBids())

	require.NoError(t, a.End())
	assert.Equal(t, auction.StateEnded, a.State)
	assert.NotNil(t, a.EndTime)
	assert.Equal(t, uint32(4), a.Version)
	assert.False(t, a.CanAcceptBids())
}

func TestAuction_InvalidTransitions(t *testing.T) {
	t.Run("start without lots", func(t *testing.T) {
		a, err := auction.NewAuction("Empty", "")
		require.NoError(t, err)

		err = a.Start()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeState))
		assert.Equal(t, auction.StateCreated, a.State)
	})

	t.Run("end before start", func(t *testing.T) {
		a, err := auction.NewAuction("Unstarted", "")
		require.NoError(t, err)

		err = a.End()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeState))
	})

	t.Run("start twice", func(t *testing.T) {
		a, err := auction.NewAuction("Twice", "")
		require.NoError(t, err)
		require.NoError(t, a.AddLot(testLot(t, a.ID, 100)))
		require.NoError(t, a.Start())

		err = a.Start()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeState))
	})

	t.Run("end twice", func(t *testing.T) {
		a, err := auction.NewAuction("Twice", "")
		require.NoError(t, err)
		require.NoError(t, a.AddLot(testLot(t, a.ID, 100)))
		require.NoError(t, a.Start())
		require.NoError(t, a.End())

		err = a.End()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeState))
	})
}

func TestAuction_AddLot(t *testing.T) {
	t.Run("after start", func(t *testing.T) {
		a, err := auction.NewAuction("Locked", "")
		require.NoError(t, err)
		require.NoError(t, a.AddLot(testLot(t, a.ID, 100)))
		require.NoError(t, a.Start())

		err = a.AddLot(testLot(t, a.ID, 200))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeState))
		assert.Equal(t, 1, a.LotCount())
	})

	t.Run("foreign lot", func(t *testing.T) {
		a, err := auction.NewAuction("Mine", "")
		require.NoError(t, err)

		err = a.AddLot(testLot(t, uuid.New(), 100))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("preserves append order", func(t *testing.T) {
		a, err := auction.NewAuction("Ordered", "")
		require.NoError(t, err)

		lots := []*auction.Lot{testLot(t, a.ID, 100), testLot(t, a.ID, 200), testLot(t, a.ID, 300)}
		for _, l := range lots {
			require.NoError(t, a.AddLot(l))
		}

		ids := a.LotIDs()
		require.Len(t, ids, 3)
		for i, l := range lots {
			assert.Equal(t, l.ID, ids[i])
		}
	})
}

func TestAuction_CloneIsolation(t *testing.T) {
	a, err := auction.NewAuction("Clone", "")
	require.NoError(t, err)
	l := testLot(t, a.ID, 100)
	require.NoError(t, a.AddLot(l))

	cp := a.Clone()
	require.NoError(t, cp.Start())
	require.NoError(t, cp.End())

	assert.Equal(t, auction.StateCreated, a.State)
	assert.Equal(t, uint32(2), a.Version)
	assert.Equal(t, uint32(4), cp.Version)
}

func TestAuction_LotsReturnsSnapshots(t *testing.T) {
	a, err := auction.NewAuction("Snapshots", "")
	require.NoError(t, err)
	require.NoError(t, a.AddLot(testLot(t, a.ID, 100)))

	snap := a.Lots()
	require.Len(t, snap, 1)
	_, err = snap[0].PlaceBid("bidder-1", values.MustNewMoney(decimal.NewFromInt(150), values.USD), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Lots()[0].BidCount())
}

func TestRestore(t *testing.T) {
	a, err := auction.NewAuction("Original", "desc")
	require.NoError(t, err)
	require.NoError(t, a.AddLot(testLot(t, a.ID, 100)))
	require.NoError(t, a.Start())

	restored := auction.Restore(a.ID, a.Title, a.Description, a.State,
		a.StartTime, a.EndTime, a.Lots(), a.CreatedAt, a.UpdatedAt, a.Version)

	assert.Equal(t, a.ID, restored.ID)
	assert.Equal(t, a.State, restored.State)
	assert.Equal(t, a.Version, restored.Version)
	assert.Equal(t, a.LotCount(), restored.LotCount())
	require.NoError(t, restored.End())
}
