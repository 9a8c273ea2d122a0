package auction

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/values"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
)

// Lot is a single vehicle offered within an auction, carrying every bid
// placed on it. AuctionID, Vehicle and StartingBid are immutable after
// construction; the bid list is append-only.
//
// Bid ingestion is availability-first: PlaceBid appends unconditionally and
// never compares against the current high. Validity and the winner are
// recovered at read time by ValidBids, a deterministic projection of the bid
// set ordered by Sequence.
type Lot struct {
	ID           uuid.UUID        `json:"id"`
	AuctionID    uuid.UUID        `json:"auction_id"`
	Vehicle      *vehicle.Vehicle `json:"vehicle"`
	StartingBid  values.Money     `json:"starting_bid"`
	ReservePrice *values.Money    `json:"reserve_price,omitempty"`

	bids     []*Bid
	localSeq int64

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Version   uint32     `json:"version"`
}

// NewLot constructs a lot for a vehicle within an auction.
func NewLot(auctionID uuid.UUID, veh *vehicle.Vehicle, startingBid values.Money, reservePrice *values.Money) (*Lot, error) {
	if auctionID == uuid.Nil {
		return nil, errors.NewValidationError("EMPTY_AUCTION_ID", "auction id cannot be empty")
	}
	if veh == nil {
		return nil, errors.NewValidationError("MISSING_VEHICLE", "lot requires a vehicle")
	}
	if !startingBid.IsPositive() {
		return nil, errors.NewValidationError("INVALID_STARTING_BID", "starting bid must be positive")
	}
	if reservePrice != nil && !reservePrice.IsPositive() {
		return nil, errors.NewValidationError("INVALID_RESERVE_PRICE", "reserve price must be positive")
	}

	return &Lot{
		ID:           uuid.New(),
		AuctionID:    auctionID,
		Vehicle:      veh,
		StartingBid:  startingBid,
		ReservePrice: reservePrice,
		CreatedAt:    time.Now().UTC(),
		Version:      1,
	}, nil
}

// RestoreLot rebuilds a lot from persisted state. Intended for repository
// implementations only.
func RestoreLot(id, auctionID uuid.UUID, veh *vehicle.Vehicle, startingBid values.Money, reservePrice *values.Money,
	bids []*Bid, createdAt time.Time, updatedAt *time.Time, version uint32) *Lot {
	l := &Lot{
		ID:           id,
		AuctionID:    auctionID,
		Vehicle:      veh,
		StartingBid:  startingBid,
		ReservePrice: reservePrice,
		bids:         bids,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		Version:      version,
	}
	for _, b := range bids {
		if b.Sequence > l.localSeq {
			l.localSeq = b.Sequence
		}
	}
	return l
}

// PlaceBid appends a bid and publishes a new version. The amount is not
// checked against the current high; low bids are accepted here and filtered
// out by ValidBids.
func (l *Lot) PlaceBid(bidderID string, amount values.Money, sequence int64) (*Bid, error) {
	b, err := NewBid(l.ID, bidderID, amount, sequence)
	if err != nil {
		return nil, err
	}

	l.bids = append(l.bids, b)
	if sequence > l.localSeq {
		l.localSeq = sequence
	}
	l.touch()
	return b, nil
}

// NextLocalSequence advances the lot-owned counter. Used only when no
// external sequence source is wired; the counter is not safe for concurrent
// callers without the per-lot application lock.
func (l *Lot) NextLocalSequence() int64 {
	l.localSeq++
	return l.localSeq
}

// Bids returns a snapshot of the full bid list in append order.
func (l *Lot) Bids() []*Bid {
	out := make([]*Bid, len(l.bids))
	for i, b := range l.bids {
		out[i] = b.Clone()
	}
	return out
}

// BidCount returns the number of appended bids.
func (l *Lot) BidCount() int { return len(l.bids) }

// ValidBids projects the bid list into ascending Sequence order and sweeps
// it with a running high, starting at StartingBid. A bid is valid iff its
// amount strictly exceeds the running high at its position. This projection
// is the single source of truth for bid validity.
func (l *Lot) ValidBids() []*Bid {
	ordered := l.Bids()
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	valid := make([]*Bid, 0, len(ordered))
	currentHigh := l.StartingBid
	for _, b := range ordered {
		if b.Amount.GreaterThan(currentHigh) {
			valid = append(valid, b)
			currentHigh = b.Amount
		}
	}
	return valid
}

// HighestBid returns the last valid bid, or nil when no bid beats the
// starting price.
func (l *Lot) HighestBid() *Bid {
	valid := l.ValidBids()
	if len(valid) == 0 {
		return nil
	}
	return valid[len(valid)-1]
}

// HighestBidAmount returns the amount of the highest valid bid, or the
// starting bid when none exists.
func (l *Lot) HighestBidAmount() values.Money {
	if hb := l.HighestBid(); hb != nil {
		return hb.Amount
	}
	return l.StartingBid
}

// WinningBidderID returns the bidder holding the highest valid bid, provided
// the reserve price (when set) is met.
func (l *Lot) WinningBidderID() (string, bool) {
	hb := l.HighestBid()
	if hb == nil {
		return "", false
	}
	if l.ReservePrice != nil && hb.Amount.Compare(*l.ReservePrice) < 0 {
		return "", false
	}
	return hb.BidderID, true
}

// WouldBidBeValid reports whether an amount would beat the current high.
// Advisory only; PlaceBid does not enforce it.
func (l *Lot) WouldBidBeValid(amount values.Money) bool {
	return amount.GreaterThan(l.HighestBidAmount())
}

// EntityID implements the store entity contract.
func (l *Lot) EntityID() uuid.UUID { return l.ID }

// EntityVersion implements the store entity contract.
func (l *Lot) EntityVersion() uint32 { return l.Version }

// Clone returns a deep copy of the lot.
func (l *Lot) Clone() *Lot {
	cp := *l
	cp.Vehicle = l.Vehicle.Clone()
	if l.ReservePrice != nil {
		r := *l.ReservePrice
		cp.ReservePrice = &r
	}
	if l.UpdatedAt != nil {
		u := *l.UpdatedAt
		cp.UpdatedAt = &u
	}
	cp.bids = make([]*Bid, len(l.bids))
	for i, b := range l.bids {
		cp.bids[i] = b.Clone()
	}
	return &cp
}

func (l *Lot) touch() {
	now := time.Now().UTC()
	l.UpdatedAt = &now
	l.Version++
}
