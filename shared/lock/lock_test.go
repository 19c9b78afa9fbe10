package lock_test

import (
	"sync"
	"testing"

	"fleet/shared/lock"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	locks := lock.NewKeyedMutex()

	const goroutines = 50

	var wg sync.WaitGroup

	counter := 0

	for range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := locks.Lock("owner-1")
			defer unlock()

			counter++
		}()
	}

	wg.Wait()

	if counter != goroutines {
		t.Errorf("expected counter to be %d, got %d", goroutines, counter)
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	locks := lock.NewKeyedMutex()

	unlockA := locks.Lock("owner-1")
	defer unlockA()

	// A second key must not block while the first is held.
	done := make(chan struct{})

	go func() {
		unlockB := locks.Lock("owner-2")
		defer unlockB()

		close(done)
	}()

	<-done
}

func TestKeyedMutex_ReleasedLockCanBeReacquired(t *testing.T) {
	locks := lock.NewKeyedMutex()

	unlock := locks.Lock("owner-1")
	unlock()

	unlock = locks.Lock("owner-1")
	unlock()
}
