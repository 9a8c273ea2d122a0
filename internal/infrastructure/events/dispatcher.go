package events

import (
	"context"
	"log/slog"
	"sync"
)

// Dispatcher decouples event emission from command latency: Publish enqueues
// and returns, a single worker drains the queue into the wrapped sink.
// Events are dropped with a warning when the buffer is full; the store
// remains the source of truth.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
	queue  chan Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher starts the delivery worker. bufferSize bounds the queue.
func NewDispatcher(sink Sink, logger *slog.Logger, bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	d := &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues the event for asynchronous delivery.
func (d *Dispatcher) Publish(_ context.Context, e Event) error {
	select {
	case d.queue <- e:
	default:
		d.logger.Warn("event_dropped",
			slog.String("event_id", e.EventID.String()),
			slog.String("event_type", string(e.EventType)),
		)
	}
	return nil
}

// Close stops intake and drains queued events into the sink.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		if err := d.sink.Publish(context.Background(), e); err != nil {
			d.logger.Error("event_delivery_failed",
				slog.String("event_id", e.EventID.String()),
				slog.String("event_type", string(e.EventType)),
				slog.String("error", err.Error()),
			)
		}
	}
}
