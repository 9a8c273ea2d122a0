package bidding

import (
	"context"

	"github.com/google/uuid"

	"github.com/gavelworks/auction-backend/internal/infrastructure/events"
)

// SequenceSource issues strictly monotonic per-lot bid sequence numbers.
type SequenceSource interface {
	Next(ctx context.Context, lotID uuid.UUID) (int64, error)
	Current(ctx context.Context, lotID uuid.UUID) (int64, error)
}

// EventSink receives lifecycle events after a confirmed commit. A failing
// sink never invalidates the committed transaction.
type EventSink interface {
	Publish(ctx context.Context, e events.Event) error
}
