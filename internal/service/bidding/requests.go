package bidding

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gavelworks/auction-backend/internal/domain/errors"
)

// Command boundary bounds. The outer transport validates request shape; the
// service re-validates here so the core holds regardless of caller.
var (
	minMoneyAmount = decimal.New(1, -2) // 0.01
	maxMoneyAmount = decimal.NewFromInt(1_000_000_000)
	maxMileage     = decimal.NewFromInt(10_000_000)
)

// CreateVehicleRequest carries the inputs for vehicle registration.
type CreateVehicleRequest struct {
	Kind       string          `json:"kind" validate:"required,oneof=sedan suv truck"`
	Make       string          `json:"make" validate:"required,min=1,max=100"`
	Model      string          `json:"model" validate:"required,min=1,max=100"`
	Year       int             `json:"year" validate:"required,gte=1900,lte=2100"`
	VIN        string          `json:"vin" validate:"required,len=17"`
	Mileage    decimal.Decimal `json:"mileage"`
	Color      string          `json:"color" validate:"required,min=1,max=50"`
	Attributes map[string]any  `json:"attributes,omitempty"`
}

// CreateAuctionRequest carries the inputs for auction creation.
type CreateAuctionRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// CreateLotRequest attaches a vehicle to an auction as a biddable lot.
type CreateLotRequest struct {
	AuctionID    uuid.UUID        `json:"auction_id" validate:"required"`
	VehicleID    uuid.UUID        `json:"vehicle_id" validate:"required"`
	StartingBid  decimal.Decimal  `json:"starting_bid"`
	ReservePrice *decimal.Decimal `json:"reserve_price,omitempty"`
}

// PlaceBidRequest carries one bid. BidderID is opaque to the core; identity
// policy belongs to the authentication collaborator.
type PlaceBidRequest struct {
	LotID    uuid.UUID       `json:"lot_id" validate:"required"`
	BidderID string          `json:"bidder_id" validate:"required,min=1,max=100"`
	Amount   decimal.Decimal `json:"amount"`
}

// PlaceBidResult is the structured outcome of a bid command. A bid that is
// not currently highest is still accepted; ingestion never compares against
// the running high.
type PlaceBidResult struct {
	Success            bool             `json:"success"`
	Message            string           `json:"message,omitempty"`
	BidID              *uuid.UUID       `json:"bid_id,omitempty"`
	CurrentHighest     *decimal.Decimal `json:"current_highest,omitempty"`
	IsCurrentlyHighest bool             `json:"is_currently_highest"`
}

func rejected(message string) *PlaceBidResult {
	return &PlaceBidResult{Success: false, Message: message}
}

func validateMoneyBounds(field string, d decimal.Decimal) error {
	if d.Cmp(minMoneyAmount) < 0 || d.Cmp(maxMoneyAmount) > 0 {
		return errors.NewValidationError("AMOUNT_OUT_OF_RANGE",
			fmt.Sprintf("%s must be between %s and %s", field, minMoneyAmount, maxMoneyAmount))
	}
	return nil
}

func validateMileage(d decimal.Decimal) error {
	if d.IsNegative() || d.Cmp(maxMileage) > 0 {
		return errors.NewValidationError("MILEAGE_OUT_OF_RANGE",
			fmt.Sprintf("mileage must be between 0 and %s", maxMileage))
	}
	return nil
}
