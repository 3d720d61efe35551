// Package source publishes the two upstream inputs of the engine: app
// inventory snapshots and permission catalogs. Each is held in a Value that
// always has a current state and notifies subscribers of the newest one.
package source

import (
	"sync"
	"sync/atomic"
)

// Value is a goroutine-safe latest-value holder. Subscribers receive the
// current value immediately and then every later value, conflated: a slow
// subscriber only ever sees the newest value it has not yet consumed.
type Value[T any] struct {
	mu     sync.RWMutex
	cur    T
	subs   map[uint64]chan T
	nextID atomic.Uint64
	closed bool
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[uint64]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.cur = x
	for _, ch := range v.subs {
		offer(ch, x)
	}
}

// Subscribe returns a channel that yields the current value and every later
// one, and a function that cancels the subscription and closes the channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	id := v.nextID.Add(1)
	ch := make(chan T, 1)

	v.mu.Lock()
	if v.closed {
		close(ch)
		v.mu.Unlock()
		return ch, func() {}
	}
	ch <- v.cur
	v.subs[id] = ch
	v.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if sub, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(sub)
			}
		})
	}
}

// Close closes every subscriber channel. Later Sets are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	for id, ch := range v.subs {
		delete(v.subs, id)
		close(ch)
	}
}

// offer replaces any unconsumed value in ch with x. Callers hold the write
// lock, so no other sender can fill the slot in between.
func offer[T any](ch chan T, x T) {
	select {
	case <-ch:
	default:
	}
	ch <- x
}
