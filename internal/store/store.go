// Package store provides a small observable state container. A Store owns a
// single value; consumers read it with Get, replace it with Set or Update,
// and subscribe to changes. It is the injectable equivalent of the global
// mutable store the UI layer reads from: constructed once, passed by
// reference, no hidden singletons.
package store

import "sync"

// Store holds a value of type T and notifies subscribers when it changes.
// All methods are safe for concurrent use.
type Store[T any] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]func(T)
	next  int
}

// New creates a Store holding the initial value.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the current value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	subs := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	// Subscribers run outside the lock so they can call Get (or Set) without
	// deadlocking.
	for _, fn := range subs {
		fn(v)
	}
}

// Update applies fn to the current value and stores the result, returning it.
// The read-modify-write is atomic with respect to other Update and Set calls.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	s.value = fn(s.value)
	v := s.value
	subs := make([]func(T), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(v)
	}
	return v
}

// Subscribe registers fn to run after every state change. The returned cancel
// function removes the subscription; calling it more than once is harmless.
func (s *Store[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
