package ledger

import "sync"

// keyedMutex hands out one mutex per key so mutations can be serialized
// per settlement, per expense or per group without a global lock.
// Mutexes are never evicted; the key space (active ids) is small.
type keyedMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
