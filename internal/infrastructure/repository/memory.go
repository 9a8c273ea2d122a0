package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
)

// MemoryAuctionStore is the in-memory reference backend for auctions.
type MemoryAuctionStore struct {
	*Store[*auction.Auction]
}

// NewMemoryAuctionStore creates an empty auction store.
func NewMemoryAuctionStore() *MemoryAuctionStore {
	return &MemoryAuctionStore{Store: NewStore[*auction.Auction]("auction")}
}

// MemoryLotStore is the in-memory reference backend for lots.
type MemoryLotStore struct {
	*Store[*auction.Lot]
}

// NewMemoryLotStore creates an empty lot store.
func NewMemoryLotStore() *MemoryLotStore {
	return &MemoryLotStore{Store: NewStore[*auction.Lot]("lot")}
}

// GetByAuctionID returns snapshots of every lot owned by the auction.
func (s *MemoryLotStore) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Lot, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*auction.Lot, 0, len(all))
	for _, l := range all {
		if l.AuctionID == auctionID {
			out = append(out, l)
		}
	}
	return out, nil
}

// MemoryVehicleStore is the in-memory reference backend for vehicles.
// Vehicles are insert-only; the versioned Update is not part of its contract.
type MemoryVehicleStore struct {
	*Store[*vehicle.Vehicle]
}

// NewMemoryVehicleStore creates an empty vehicle store.
func NewMemoryVehicleStore() *MemoryVehicleStore {
	return &MemoryVehicleStore{Store: NewStore[*vehicle.Vehicle]("vehicle")}
}

// Update always fails: vehicles are immutable once created.
func (s *MemoryVehicleStore) Update(_ context.Context, _ *vehicle.Vehicle) error {
	return errors.NewStateError("VEHICLE_IMMUTABLE", "vehicles cannot be updated")
}

// Search returns snapshots of every vehicle matching the filter.
func (s *MemoryVehicleStore) Search(ctx context.Context, f vehicle.Filter) ([]*vehicle.Vehicle, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*vehicle.Vehicle, 0, len(all))
	for _, v := range all {
		if f.Matches(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// NewMemoryStores wires the three in-memory stores into a bundle.
func NewMemoryStores() *Stores {
	return &Stores{
		Auctions: NewMemoryAuctionStore(),
		Lots:     NewMemoryLotStore(),
		Vehicles: NewMemoryVehicleStore(),
	}
}
