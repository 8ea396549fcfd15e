package component

import "sync"

// Ref holds a mutable value that survives re-renders without causing them.
// Ref is safe for concurrent access.
type Ref[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewRef creates a standalone Ref outside any component.
func NewRef[T any](initial T) *Ref[T] {
	return &Ref[T]{value: initial}
}

// UseRef returns the Ref stored in the next hook slot, creating it with
// initial on the first render. Later renders ignore initial.
//
// This is a hook and must be called unconditionally during render.
//
// Example:
//
//	renders := component.UseRef(o, 0)
//	renders.Set(renders.Current() + 1)
func UseRef[T any](o *Owner, initial T) *Ref[T] {
	return useSlot(o, HookRef, func() *Ref[T] {
		return NewRef(initial)
	})
}

// Current returns the current value of the ref.
func (r *Ref[T]) Current() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set replaces the ref's value.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
}
