package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
)

// AuctionRepository is the versioned store contract for auctions.
type AuctionRepository interface {
	Add(ctx context.Context, a *auction.Auction) error
	Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error)
	GetAll(ctx context.Context) ([]*auction.Auction, error)
	Update(ctx context.Context, a *auction.Auction) error
}

// LotRepository is the versioned store contract for lots.
type LotRepository interface {
	Add(ctx context.Context, l *auction.Lot) error
	Get(ctx context.Context, id uuid.UUID) (*auction.Lot, error)
	GetAll(ctx context.Context) ([]*auction.Lot, error)
	GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Lot, error)
	Update(ctx context.Context, l *auction.Lot) error
}

// VehicleRepository is the insert-only store contract for vehicles.
type VehicleRepository interface {
	Add(ctx context.Context, v *vehicle.Vehicle) error
	Get(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error)
	GetAll(ctx context.Context) ([]*vehicle.Vehicle, error)
	Search(ctx context.Context, f vehicle.Filter) ([]*vehicle.Vehicle, error)
}

// Stores bundles the three per-kind repositories behind one wiring point.
// Both the in-memory reference backend and the Postgres backend satisfy it.
type Stores struct {
	Auctions AuctionRepository
	Lots     LotRepository
	Vehicles VehicleRepository
}
