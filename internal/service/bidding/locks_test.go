package bidding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTable_SerializesSameID(t *testing.T) {
	table := newLockTable()
	id := uuid.New()
	ctx := context.Background()

	const n = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, table.acquire(ctx, id))
			defer table.release(id)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, n, counter)
}

func TestLockTable_DifferentIDsDoNotBlock(t *testing.T) {
	table := newLockTable()
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, table.acquire(ctx, a))
	defer table.release(a)

	done := make(chan struct{})
	go func() {
		require.NoError(t, table.acquire(ctx, b))
		table.release(b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquire on a different id blocked")
	}
}

func TestLockTable_AcquireHonorsContext(t *testing.T) {
	table := newLockTable()
	id := uuid.New()

	require.NoError(t, table.acquire(context.Background(), id))
	defer table.release(id)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := table.acquire(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockTable_RemoveDoesNotStrandWaiters(t *testing.T) {
	table := newLockTable()
	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, table.acquire(ctx, id))

	acquired := make(chan struct{})
	go func() {
		if err := table.acquire(ctx, id); err == nil {
			close(acquired)
		}
	}()

	// Let the waiter queue on the semaphore before the sweep retires the
	// entry, then hand the permit over.
	time.Sleep(10 * time.Millisecond)
	table.remove(id)
	table.release(id)

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never got the permit after the entry was swept")
	}
	table.release(id)
}

func TestLockTable_RemoveWhileHeldKeepsExclusion(t *testing.T) {
	table := newLockTable()
	id := uuid.New()

	require.NoError(t, table.acquire(context.Background(), id))
	table.remove(id)

	// The sweep must not mint a fresh semaphore while the permit is out.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, table.acquire(ctx, id), context.DeadlineExceeded)

	table.release(id)
	require.NoError(t, table.acquire(context.Background(), id))
	table.release(id)
}

func TestLockTable_RemoveAllowsFreshEntry(t *testing.T) {
	table := newLockTable()
	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, table.acquire(ctx, id))
	table.release(id)
	table.remove(id)

	// A fresh entry is created on the next acquire.
	require.NoError(t, table.acquire(ctx, id))
	table.release(id)
}
