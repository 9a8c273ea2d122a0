// Package sequence issues strictly monotonic per-lot bid sequence numbers.
// The local source is per-process; the Redis source preserves ordering
// across instances sharing one Redis.
package sequence

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Source produces strictly increasing positive int64 values per lot.
// Different lots are independent; the first value issued for a lot is 1.
type Source interface {
	Next(ctx context.Context, lotID uuid.UUID) (int64, error)
	// Current returns the last issued value, 0 if never issued. Diagnostic.
	Current(ctx context.Context, lotID uuid.UUID) (int64, error)
}

// Local is an in-process source backed by one atomic counter per lot.
type Local struct {
	counters sync.Map // uuid.UUID -> *int64
}

// NewLocal creates an in-process sequence source.
func NewLocal() *Local {
	return &Local{}
}

// Next atomically advances the lot's counter.
func (l *Local) Next(_ context.Context, lotID uuid.UUID) (int64, error) {
	c, _ := l.counters.LoadOrStore(lotID, new(int64))
	return atomic.AddInt64(c.(*int64), 1), nil
}

// Current returns the last issued value for the lot.
func (l *Local) Current(_ context.Context, lotID uuid.UUID) (int64, error) {
	c, ok := l.counters.Load(lotID)
	if !ok {
		return 0, nil
	}
	return atomic.LoadInt64(c.(*int64)), nil
}
