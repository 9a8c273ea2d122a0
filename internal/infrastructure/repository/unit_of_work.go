package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
)

// Scope is a unit of work over the three stores. Writes through the scoped
// views are deferred until Commit, which replays them in recorded order
// against the backing stores; reads pass through immediately
// (read-committed). A scope is owned by a single caller and is not safe for
// concurrent use.
//
// Commit replays changes one by one, so a late failure can leave earlier
// changes applied. Callers discard the scope and retry the whole operation;
// a transactional backend may upgrade Commit to a single atomic batch behind
// the same contract.
type Scope struct {
	stores    *Stores
	pending   []pendingChange
	committed bool

	Auctions *ScopedAuctions
	Lots     *ScopedLots
	Vehicles *ScopedVehicles
}

type pendingChange struct {
	apply func(ctx context.Context) error
}

// NewScope opens a unit of work over the given stores.
func NewScope(stores *Stores) *Scope {
	s := &Scope{stores: stores}
	s.Auctions = &ScopedAuctions{scope: s}
	s.Lots = &ScopedLots{scope: s}
	s.Vehicles = &ScopedVehicles{scope: s}
	return s
}

// Commit applies pending changes in recorded order and returns the count
// applied. On failure the error propagates, the scope is failed and must be
// discarded by the caller.
func (s *Scope) Commit(ctx context.Context) (int, error) {
	applied := 0
	for _, c := range s.pending {
		if err := c.apply(ctx); err != nil {
			return applied, err
		}
		applied++
	}

	s.pending = nil
	s.committed = true
	return applied, nil
}

// Rollback discards pending changes.
func (s *Scope) Rollback() {
	s.pending = nil
}

// HasPendingChanges reports whether uncommitted writes are recorded.
func (s *Scope) HasPendingChanges() bool {
	return len(s.pending) > 0
}

// Close discards pending changes unless the scope committed. Safe to defer
// on every exit path.
func (s *Scope) Close() {
	if !s.committed {
		s.pending = nil
	}
}

func (s *Scope) record(apply func(ctx context.Context) error) {
	s.pending = append(s.pending, pendingChange{apply: apply})
}

// ScopedAuctions is the deferred-write auction view of a scope.
type ScopedAuctions struct {
	scope *Scope
}

// Add records a pending insert. The entity is snapshotted now so later
// mutation by the caller does not leak into the commit.
func (v *ScopedAuctions) Add(_ context.Context, a *auction.Auction) error {
	cp := a.Clone()
	v.scope.record(func(ctx context.Context) error {
		return v.scope.stores.Auctions.Add(ctx, cp)
	})
	return nil
}

// Update records a pending versioned update.
func (v *ScopedAuctions) Update(_ context.Context, a *auction.Auction) error {
	cp := a.Clone()
	v.scope.record(func(ctx context.Context) error {
		return v.scope.stores.Auctions.Update(ctx, cp)
	})
	return nil
}

// Get reads through to the backing store.
func (v *ScopedAuctions) Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	return v.scope.stores.Auctions.Get(ctx, id)
}

// GetAll reads through to the backing store.
func (v *ScopedAuctions) GetAll(ctx context.Context) ([]*auction.Auction, error) {
	return v.scope.stores.Auctions.GetAll(ctx)
}

// ScopedLots is the deferred-write lot view of a scope.
type ScopedLots struct {
	scope *Scope
}

// Add records a pending insert.
func (v *ScopedLots) Add(_ context.Context, l *auction.Lot) error {
	cp := l.Clone()
	v.scope.record(func(ctx context.Context) error {
		return v.scope.stores.Lots.Add(ctx, cp)
	})
	return nil
}

// Update records a pending versioned update.
func (v *ScopedLots) Update(_ context.Context, l *auction.Lot) error {
	cp := l.Clone()
	v.scope.record(func(ctx context.Context) error {
		return v.scope.stores.Lots.Update(ctx, cp)
	})
	return nil
}

// Get reads through to the backing store.
func (v *ScopedLots) Get(ctx context.Context, id uuid.UUID) (*auction.Lot, error) {
	return v.scope.stores.Lots.Get(ctx, id)
}

// GetByAuctionID reads through to the backing store.
func (v *ScopedLots) GetByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*auction.Lot, error) {
	return v.scope.stores.Lots.GetByAuctionID(ctx, auctionID)
}

// ScopedVehicles is the deferred-write vehicle view of a scope.
type ScopedVehicles struct {
	scope *Scope
}

// Add records a pending insert.
func (v *ScopedVehicles) Add(_ context.Context, veh *vehicle.Vehicle) error {
	cp := veh.Clone()
	v.scope.record(func(ctx context.Context) error {
		return v.scope.stores.Vehicles.Add(ctx, cp)
	})
	return nil
}

// Get reads through to the backing store.
func (v *ScopedVehicles) Get(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	return v.scope.stores.Vehicles.Get(ctx, id)
}

// Search reads through to the backing store.
func (v *ScopedVehicles) Search(ctx context.Context, f vehicle.Filter) ([]*vehicle.Vehicle, error) {
	return v.scope.stores.Vehicles.Search(ctx, f)
}
