package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
)

// State is the auction lifecycle state.
type State string

const (
	StateCreated State = "created"
	StateActive  State = "active"
	StateEnded   State = "ended"
)

// Auction owns an ordered sequence of lots. Transitions follow
// created -> active -> ended only; lots may be appended in created only.
type Auction struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	State       State      `json:"state"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`

	lots []*Lot

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Version   uint32     `json:"version"`
}

// NewAuction constructs an auction in the created state.
func NewAuction(title, description string) (*Auction, error) {
	if title == "" {
		return nil, errors.NewValidationError("EMPTY_TITLE", "auction title cannot be empty")
	}

	return &Auction{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		State:       StateCreated,
		CreatedAt:   time.Now().UTC(),
		Version:     1,
	}, nil
}

// Restore rebuilds an auction from persisted state. Intended for repository
// implementations only.
func Restore(id uuid.UUID, title, description string, state State, startTime, endTime *time.Time,
	lots []*Lot, createdAt time.Time, updatedAt *time.Time, version uint32) *Auction {
	return &Auction{
		ID:          id,
		Title:       title,
		Description: description,
		State:       state,
		StartTime:   startTime,
		EndTime:     endTime,
		lots:        lots,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Version:     version,
	}
}

// Start transitions created -> active. At least one lot is required.
func (a *Auction) Start() error {
	if a.State != StateCreated {
		return errors.NewStateError("INVALID_TRANSITION",
			"auction can only be started from the created state")
	}
	if len(a.lots) == 0 {
		return errors.NewStateError("NO_LOTS",
			"auction cannot start without lots")
	}

	now := time.Now().UTC()
	a.State = StateActive
	a.StartTime = &now
	a.touch()
	return nil
}

// End transitions active -> ended.
func (a *Auction) End() error {
	if a.State != StateActive {
		return errors.NewStateError("INVALID_TRANSITION",
			"auction can only be ended from the active state")
	}

	now := time.Now().UTC()
	a.State = StateEnded
	a.EndTime = &now
	a.touch()
	return nil
}

// AddLot appends a lot. Legal only before the auction starts.
func (a *Auction) AddLot(l *Lot) error {
	if a.State != StateCreated {
		return errors.NewStateError("LOTS_LOCKED",
			"lots can only be added before the auction starts")
	}
	if l == nil {
		return errors.NewValidationError("MISSING_LOT", "lot cannot be nil")
	}
	if l.AuctionID != a.ID {
		return errors.NewValidationError("LOT_AUCTION_MISMATCH",
			"lot does not belong to this auction")
	}

	a.lots = append(a.lots, l)
	a.touch()
	return nil
}

// CanAcceptBids reports whether bids may be placed on the auction's lots.
func (a *Auction) CanAcceptBids() bool {
	return a.State == StateActive
}

// Lots returns a snapshot of the owned lots in append order.
func (a *Auction) Lots() []*Lot {
	out := make([]*Lot, len(a.lots))
	for i, l := range a.lots {
		out[i] = l.Clone()
	}
	return out
}

// LotIDs returns the ids of the owned lots in append order.
func (a *Auction) LotIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(a.lots))
	for i, l := range a.lots {
		out[i] = l.ID
	}
	return out
}

// LotCount returns the number of owned lots.
func (a *Auction) LotCount() int { return len(a.lots) }

// EntityID implements the store entity contract.
func (a *Auction) EntityID() uuid.UUID { return a.ID }

// EntityVersion implements the store entity contract.
func (a *Auction) EntityVersion() uint32 { return a.Version }

// Clone returns a deep copy of the auction.
func (a *Auction) Clone() *Auction {
	cp := *a
	if a.StartTime != nil {
		s := *a.StartTime
		cp.StartTime = &s
	}
	if a.EndTime != nil {
		e := *a.EndTime
		cp.EndTime = &e
	}
	if a.UpdatedAt != nil {
		u := *a.UpdatedAt
		cp.UpdatedAt = &u
	}
	cp.lots = make([]*Lot, len(a.lots))
	for i, l := range a.lots {
		cp.lots[i] = l.Clone()
	}
	return &cp
}

func (a *Auction) touch() {
	now := time.Now().UTC()
	a.UpdatedAt = &now
	a.Version++
}
