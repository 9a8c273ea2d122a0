package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/domain/auction"
	"github.com/gavelworks/auction-backend/internal/domain/values"
	"github.com/gavelworks/auction-backend/internal/domain/vehicle"
)

// JSONB document shapes. The Postgres backend persists full entity
// snapshots the way the in-memory store holds them, keyed by id and gated
// by the version column; the document carries the owned collections the
// domain types keep unexported.

type lotDoc struct {
	ID           uuid.UUID        `json:"id"`
	AuctionID    uuid.UUID        `json:"auction_id"`
	Vehicle      *vehicle.Vehicle `json:"vehicle"`
	StartingBid  values.Money     `json:"starting_bid"`
	ReservePrice *values.Money    `json:"reserve_price,omitempty"`
	Bids         []*auction.Bid   `json:"bids"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    *time.Time       `json:"updated_at,omitempty"`
	Version      uint32           `json:"version"`
}

func newLotDoc(l *auction.Lot) lotDoc {
	return lotDoc{
		ID:           l.ID,
		AuctionID:    l.AuctionID,
		Vehicle:      l.Vehicle,
		StartingBid:  l.StartingBid,
		ReservePrice: l.ReservePrice,
		Bids:         l.Bids(),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		Version:      l.Version,
	}
}

func (d lotDoc) toDomain() *auction.Lot {
	return auction.RestoreLot(d.ID, d.AuctionID, d.Vehicle, d.StartingBid, d.ReservePrice,
		d.Bids, d.CreatedAt, d.UpdatedAt, d.Version)
}

type auctionDoc struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	State       auction.State `json:"state"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Lots        []lotDoc      `json:"lots"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
	Version     uint32        `json:"version"`
}

func newAuctionDoc(a *auction.Auction) auctionDoc {
	lots := a.Lots()
	docs := make([]lotDoc, len(lots))
	for i, l := range lots {
		docs[i] = newLotDoc(l)
	}
	return auctionDoc{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		State:       a.State,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Lots:        docs,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}
}

func (d auctionDoc) toDomain() *auction.Auction {
	lots := make([]*auction.Lot, len(d.Lots))
	for i, l := range d.Lots {
		lots[i] = l.toDomain()
	}
	return auction.Restore(d.ID, d.Title, d.Description, d.State, d.StartTime, d.EndTime,
		lots, d.CreatedAt, d.UpdatedAt, d.Version)
}
