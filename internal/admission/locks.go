package admission

import (
	"context"
	"sync"

	"github.com/google/uuid"

	pkgerrors "github.com/bidhaus/bidhaus-backend/pkg/errors"
)

type itemLock struct {
	sem  chan struct{}
	refs int
}

// itemLockMap serializes bid admission per item. Locks are created on
// demand and dropped once the last waiter releases, so the map only holds
// items with in-flight bids. The cap bounds memory under pathological load.
type itemLockMap struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*itemLock
	max   int
}

func newItemLockMap(max int) *itemLockMap {
	if max <= 0 {
		max = 4096
	}
	return &itemLockMap{
		locks: make(map[uuid.UUID]*itemLock),
		max:   max,
	}
}

// Acquire blocks until the item's lock is held or the context ends. The
// returned release func must be called exactly once.
func (m *itemLockMap) Acquire(ctx context.Context, itemID uuid.UUID) (func(), error) {
	m.mu.Lock()
	lock, ok := m.locks[itemID]
	if !ok {
		if len(m.locks) >= m.max {
			m.mu.Unlock()
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many auctions under contention")
		}
		lock = &itemLock{sem: make(chan struct{}, 1)}
		m.locks[itemID] = lock
	}
	lock.refs++
	m.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
		return func() {
			<-lock.sem
			m.drop(itemID, lock)
		}, nil
	case <-ctx.Done():
		m.drop(itemID, lock)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "waiting for item lock")
	}
}

func (m *itemLockMap) drop(itemID uuid.UUID, lock *itemLock) {
	m.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, itemID)
	}
	m.mu.Unlock()
}
