package state

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// keyedLock is a one-slot semaphore so waiters can give up on ctx.
type keyedLock struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex serialises callers that share a session id. Idle keys are
// dropped so the map only holds sessions with a run in flight.
type KeyedMutex struct {
	locks *xsync.MapOf[string, *keyedLock]
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: xsync.NewMapOf[string, *keyedLock]()}
}

// Lock blocks until key is free or ctx is done. On success it returns the
// matching unlock func; on ctx expiry it returns ctx.Err() and holds nothing.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	l, _ := k.locks.Compute(key, func(old *keyedLock, loaded bool) (*keyedLock, bool) {
		if !loaded {
			old = &keyedLock{sem: make(chan struct{}, 1)}
		}
		old.refs++
		return old, false
	})

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key)
		return nil, ctx.Err()
	}

	return func() {
		<-l.sem
		k.release(key)
	}, nil
}

func (k *KeyedMutex) release(key string) {
	k.locks.Compute(key, func(old *keyedLock, loaded bool) (*keyedLock, bool) {
		if !loaded {
			return old, true
		}
		old.refs--
		return old, old.refs <= 0
	})
}

// Held reports how many keys currently have a holder or waiter.
func (k *KeyedMutex) Held() int {
	return k.locks.Size()
}
