package store

import "sync"

// Stack is an in-memory LIFO stack safe for concurrent use.
type Stack[T any] struct {
	lock  sync.Mutex
	items []T
}

func NewStack[T any]() *Stack[T] {
	return &Stack[T]{}
}

func (s *Stack[T]) Push(item T) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.items = append(s.items, item)
}

// Top returns the most recently pushed item without removing it.
func (s *Stack[T]) Top() (T, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var zero T
	if len(s.items) == 0 {
		return zero, false
	}

	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.items)
}

// Items returns the stacked items, most recent first, leaving the stack unchanged.
func (s *Stack[T]) Items() []T {
	s.lock.Lock()
	defer s.lock.Unlock()

	return reversed(s.items)
}

// Drain pops every item, most recent first.
func (s *Stack[T]) Drain() []T {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := reversed(s.items)
	s.items = nil

	return out
}

func reversed[T any](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}

	return out
}
