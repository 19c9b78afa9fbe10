package lock

import "sync"

// KeyedMutex serializes writers per key. The booking engine holds the
// owner's mutex across its read-validate-write section so two concurrent
// creates for the same vehicle and date range cannot both pass the overlap
// check. Data is fully partitioned by owner, so different owners never
// contend.
type KeyedMutex struct {
	mutexes sync.Map
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	value, _ := k.mutexes.LoadOrStore(key, &sync.Mutex{})
	mu, _ := value.(*sync.Mutex)

	mu.Lock()

	return mu.Unlock
}
