package bidding

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// lockTable maps entity ids to single-permit semaphores. Commands scoped to
// the same id are serialized; different ids run in parallel. Entries are
// created lazily and refcounted: remove retires an entry, and the map slot is
// reclaimed only once the last holder or waiter lets go, so eviction never
// strands a waiter or hands out a second permit for the same id.
type lockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem     chan struct{}
	refs    int
	retired bool
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uuid.UUID]*lockEntry)}
}

// acquire blocks until the id's permit is available or the context is done.
func (t *lockTable) acquire(ctx context.Context, id uuid.UUID) error {
	t.mu.Lock()
	e, ok := t.locks[id]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		t.locks[id] = e
	}
	e.refs++
	t.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		t.unref(id, e)
		return ctx.Err()
	}
}

// release returns the permit. Must only be called by the current holder.
func (t *lockTable) release(id uuid.UUID) {
	t.mu.Lock()
	e, ok := t.locks[id]
	t.mu.Unlock()
	if !ok {
		return
	}

	<-e.sem
	t.unref(id, e)
}

// remove retires the id's lock entry. An unused entry is reclaimed now; one
// with holders or waiters is reclaimed when the last of them unrefs. Until
// then everyone keeps contending on the same semaphore.
func (t *lockTable) remove(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.locks[id]
	if !ok {
		return
	}
	if e.refs == 0 {
		delete(t.locks, id)
		return
	}
	e.retired = true
}

// unref drops one holder/waiter reference. While refs > 0 the map keeps
// pointing at the same entry, so a fresh semaphore can only appear after
// every outstanding participant is gone.
func (t *lockTable) unref(id uuid.UUID, e *lockEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e.refs--
	if e.refs == 0 && e.retired {
		delete(t.locks, id)
	}
}
