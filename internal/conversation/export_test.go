package conversation

// Waiting reports how many callers are queued for key.
func (k *KeyedMutex) Waiting(key int64) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok := k.locks[key]; ok {
		return len(l.waiters)
	}
	return 0
}
