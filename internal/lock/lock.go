// Package lock provides the per-Machine mutex that stands in for the
// host's serialized-transaction guarantee (§5): every operation against
// a given Machine ID is totally ordered with every other operation
// against that same ID, while operations against different Machines
// proceed independently.
package lock

import "sync"

// KeyedMutex hands out one *sync.Mutex per key, created on first use and
// never removed — the number of distinct Machine IDs over a process
// lifetime is expected to stay small relative to memory, so there is no
// eviction policy.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyedMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}

// WithLock runs fn while holding key's mutex.
func (k *KeyedMutex) WithLock(key string, fn func()) {
	k.Lock(key)
	defer k.Unlock(key)
	fn()
}
