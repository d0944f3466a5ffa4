package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	var inFlight, maxInFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "session:alice")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inFlight, 1)
			for {
				cur := atomic.LoadInt32(&maxInFlight)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
					break
				}
			}
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInFlight)
	}
	if k.Held() != 0 {
		t.Fatalf("expected idle keys to be dropped, %d left", k.Held())
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	unlockA, errA := k.Lock(context.Background(), "a")
	unlockB, errB := k.Lock(context.Background(), "b")
	if errA != nil || errB != nil {
		t.Fatalf("Lock() errors = %v, %v", errA, errB)
	}
	if k.Held() != 2 {
		t.Fatalf("Held() = %d, want 2", k.Held())
	}
	unlockA()
	unlockB()
	if k.Held() != 0 {
		t.Fatalf("Held() = %d, want 0", k.Held())
	}
}

func TestKeyedMutexWaiterGivesUpOnContext(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "session:alice")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := k.Lock(ctx, "session:alice")
		done <- err
	}()
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("waiting Lock() error = %v, want context.Canceled", err)
	}
	if k.Held() != 1 {
		t.Fatalf("Held() = %d, want 1 while the holder runs", k.Held())
	}

	unlock()
	if k.Held() != 0 {
		t.Fatalf("Held() = %d, want 0", k.Held())
	}

	again, err := k.Lock(context.Background(), "session:alice")
	if err != nil {
		t.Fatalf("Lock() after cancelled waiter error = %v", err)
	}
	again()
}
