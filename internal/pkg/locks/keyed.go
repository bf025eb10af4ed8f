// Package locks provides context-aware mutexes.
package locks

import (
	"context"
	"sync"
)

// KeyedMutex provides mutual exclusion per key.
//
// Lock waits until the key is free or the context is done, so
// a stuck holder can not block callers forever.
type KeyedMutex[K comparable] struct {
	mutex sync.Mutex
	keys  map[K]*keyedEntry
}

type keyedEntry struct {
	ch      chan struct{}
	waiters int
}

// NewKeyedMutex creates a new instance of KeyedMutex.
func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{keys: map[K]*keyedEntry{}}
}

// Lock acquires lock for the given key.
//
// Returned function releases lock and should be called exactly once.
func (m *KeyedMutex[K]) Lock(ctx context.Context, key K) (func(), error) {
	entry := m.acquire(key)
	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			m.release(key, entry)
		}, nil
	case <-ctx.Done():
		m.release(key, entry)
		return nil, ctx.Err()
	}
}

// Len returns amount of keys that are locked or awaited.
func (m *KeyedMutex[K]) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.keys)
}

func (m *KeyedMutex[K]) acquire(key K) *keyedEntry {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	entry, ok := m.keys[key]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		m.keys[key] = entry
	}
	entry.waiters++
	return entry
}

func (m *KeyedMutex[K]) release(key K, entry *keyedEntry) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	entry.waiters--
	if entry.waiters == 0 {
		delete(m.keys, key)
	}
}
