// Package lock serializes writers per player row. Two matches touching the
// same player must not interleave their read-modify-write cycles.
package lock

import (
	"context"
	"sort"
	"sync"
)

// KeyedMutex hands out one mutex per key. Entries are never removed; the
// player population is small relative to match volume.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]chan struct{})}
}

func (k *KeyedMutex) ch(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	c, ok := k.locks[key]
	if !ok {
		c = make(chan struct{}, 1)
		k.locks[key] = c
	}
	return c
}

// Acquire blocks until the key's lock is held or ctx is done.
func (k *KeyedMutex) Acquire(ctx context.Context, key string) error {
	select {
	case k.ch(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the key's lock. It must only be called after a successful
// Acquire.
func (k *KeyedMutex) Release(key string) {
	<-k.ch(key)
}

// AcquireAll takes the locks for every key in ascending order, so two
// units contending for the same pair of keys cannot deadlock. On failure
// every lock taken so far is released.
func (k *KeyedMutex) AcquireAll(ctx context.Context, keys ...string) (release func(), err error) {
	ordered := make([]string, len(keys))
	copy(ordered, keys)
	sort.Strings(ordered)

	held := make([]string, 0, len(ordered))
	for _, key := range ordered {
		if err := k.Acquire(ctx, key); err != nil {
			for i := len(held) - 1; i >= 0; i-- {
				k.Release(held[i])
			}
			return nil, err
		}
		held = append(held, key)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.Release(held[i])
		}
	}, nil
}
