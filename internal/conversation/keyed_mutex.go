package conversation

import "sync"

// KeyedMutex provides one FIFO lock per user ID: waiters acquire the lock in
// the order they called Lock. Entries exist only while the lock is held or
// awaited, so the map does not grow with the user count.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

// keyedLock is held by exactly one caller; waiters are queued in call order
// and the lock is handed directly to the head of the queue on release.
type keyedLock struct {
	waiters []chan struct{}
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedLock)}
}

// Lock blocks until the lock for key is acquired and returns its release func.
func (k *KeyedMutex) Lock(key int64) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		k.locks[key] = &keyedLock{}
		k.mu.Unlock()
	} else {
		ready := make(chan struct{})
		l.waiters = append(l.waiters, ready)
		k.mu.Unlock()
		<-ready
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key) })
	}
}

func (k *KeyedMutex) release(key int64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l := k.locks[key]
	if len(l.waiters) == 0 {
		delete(k.locks, key)
		return
	}
	next := l.waiters[0]
	l.waiters[0] = nil
	l.waiters = l.waiters[1:]
	close(next)
}

// Len reports how many keys currently have a holder or waiter.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
