package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
	"github.com/gavelworks/auction-backend/internal/domain/values"
)

// Bid is an immutable record of a single offer on a lot. Identity is the bid
// ID; equal amounts are permitted and ordered by Sequence.
type Bid struct {
	ID       uuid.UUID    `json:"id"`
	LotID    uuid.UUID    `json:"lot_id"`
	BidderID string       `json:"bidder_id"`
	Amount   values.Money `json:"amount"`
	BidTime  time.Time    `json:"bid_time"`
	Sequence int64        `json:"sequence"`
}

// NewBid validates preconditions and constructs a bid. Amount and sequence
// must be strictly positive.
func NewBid(lotID uuid.UUID, bidderID string, amount values.Money, sequence int64) (*Bid, error) {
	if bidderID == "" {
		return nil, errors.NewValidationError("EMPTY_BIDDER_ID", "bidder id cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, errors.NewValidationError("INVALID_BID_AMOUNT", "bid amount must be positive")
	}
	if sequence <= 0 {
		return nil, errors.NewValidationError("INVALID_BID_SEQUENCE", "bid sequence must be positive")
	}

	return &Bid{
		ID:       uuid.New(),
		LotID:    lotID,
		BidderID: bidderID,
		Amount:   amount,
		BidTime:  time.Now().UTC(),
		Sequence: sequence,
	}, nil
}

// Clone returns a copy of the bid.
func (b *Bid) Clone() *Bid {
	cp := *b
	return &cp
}
