// Package events carries auction lifecycle events to the external stream
// broadcaster. Delivery is at-least-once; consumers deduplicate on EventID.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the emitted event types.
type Type string

const (
	TypeAuctionCreated Type = "AuctionCreated"
	TypeAuctionStarted Type = "AuctionStarted"
	TypeAuctionEnded   Type = "AuctionEnded"
	TypeBidPlaced      Type = "BidPlaced"
)

// Event is one auction lifecycle notification. AuctionID doubles as the
// partition key so per-auction ordering survives the transport.
type Event struct {
	EventID   uuid.UUID      `json:"event_id"`
	EventType Type           `json:"event_type"`
	AuctionID uuid.UUID      `json:"auction_id"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// New builds an event with a fresh id and the current UTC timestamp.
func New(t Type, auctionID uuid.UUID, payload map[string]any) Event {
	return Event{
		EventID:   uuid.New(),
		EventType: t,
		AuctionID: auctionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Sink receives committed events. Publish failures never invalidate the
// committed transaction that produced the event.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// NopSink discards every event.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(context.Context, Event) error { return nil }

// LogSink writes events to the structured log. Useful in development and as
// a fallback when no broadcaster is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs events at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish implements Sink.
func (s *LogSink) Publish(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, "event_published",
		slog.String("event_id", e.EventID.String()),
		slog.String("event_type", string(e.EventType)),
		slog.String("auction_id", e.AuctionID.String()),
	)
	return nil
}
