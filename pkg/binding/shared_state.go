package binding

import (
	"reflect"
	"sync/atomic"

	"github.com/vango-dev/sharedstate/pkg/component"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

// Setter writes to the shared state a component is bound to. A component
// gets the same *Setter on every render; it always forwards to the state
// passed to the hook on the latest render.
type Setter[T any] struct {
	target atomic.Pointer[listenable.SharedState[T]]
}

// Set assigns v to the bound state. It is a no-op while unbound.
func (s *Setter[T]) Set(v T, opts ...listenable.SetOption) {
	if state := s.target.Load(); state != nil {
		state.Set(v, opts...)
	}
}

// Update replaces the bound state's value with fn(current).
// It is a no-op while unbound.
func (s *Setter[T]) Update(fn func(T) T, opts ...listenable.SetOption) {
	if state := s.target.Load(); state != nil {
		state.Update(fn, opts...)
	}
}

// State returns the state the setter currently forwards to, or nil.
func (s *Setter[T]) State() *listenable.SharedState[T] {
	return s.target.Load()
}

type rendered[T any] struct {
	value   T
	version uint64
}

// UseSharedState binds the component to state and returns the current
// value with a stable setter. The component re-renders when state
// notifies and filter (Always when omitted) allows the change. A nil
// state yields the zero value and a setter that does nothing.
//
// This is a hook and must be called unconditionally during render.
//
// Example:
//
//	count, setCount := binding.UseSharedState(o, counter, binding.When(func(cur, prev int) bool {
//	    return cur%10 == 0
//	}))
func UseSharedState[T any](o *component.Owner, state *listenable.SharedState[T], filter ...ShouldUpdate[T]) (T, *Setter[T]) {
	value := bind(o, state, pickFilter(filter))
	return value, useSetter(o, state)
}

// UseSharedStateDirectly binds the component like UseSharedState and
// returns the state handle itself.
//
// This is a hook and must be called unconditionally during render.
func UseSharedStateDirectly[T any](o *component.Owner, state *listenable.SharedState[T], filter ...ShouldUpdate[T]) *listenable.SharedState[T] {
	bind(o, state, pickFilter(filter))
	return state
}

// UseSharedStateOr binds like UseSharedState, but when state is nil it
// binds to a component-local state created once from initial. The state
// actually used is returned as the third value.
//
// This is a hook and must be called unconditionally during render.
func UseSharedStateOr[T any](o *component.Owner, state *listenable.SharedState[T], initial T, filter ...ShouldUpdate[T]) (T, *Setter[T], *listenable.SharedState[T]) {
	fallback := component.UseMemo(o, func() *listenable.SharedState[T] {
		return listenable.NewSharedState(initial)
	}, []any{})
	if state == nil {
		state = fallback
	}
	value := bind(o, state, pickFilter(filter))
	return value, useSetter(o, state), state
}

func useSetter[T any](o *component.Owner, state *listenable.SharedState[T]) *Setter[T] {
	setter := component.UseMemo(o, func() *Setter[T] {
		return &Setter[T]{}
	}, []any{})
	setter.target.Store(state)
	return setter
}

// bind reads state for this render and keeps a filtered re-render
// listener attached to it.
func bind[T any](o *component.Owner, state *listenable.SharedState[T], filter ShouldUpdate[T]) T {
	filterRef := component.UseRef(o, filter)
	filterRef.Set(filter)
	rerender := component.UseRerender(o)

	var snap rendered[T]
	if state != nil {
		snap.value, snap.version = state.Load()
	}
	seen := component.UseRef(o, snap)
	seen.Set(snap)

	onChange := func(c listenable.Change[T]) {
		if filterRef.Current().Allows(c.Current, c.Previous) {
			rerender()
		}
	}

	// The value may have moved between this render and the attach below.
	reconcile := func() {
		current, version := state.Load()
		last := seen.Current()
		if version != last.version && !sameValue(current, last.value) {
			onChange(listenable.Change[T]{Current: current, Previous: last.value})
		}
	}

	var target listenable.Listenable[listenable.Change[T]]
	if state != nil {
		target = state
	}
	UseListen(o, target, onChange, OnAttach(reconcile))
	return snap.value
}

// sameValue uses == for comparable types and reflect.DeepEqual otherwise.
func sameValue[T any](a, b T) (same bool) {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if !reflect.TypeOf(av).Comparable() {
		return reflect.DeepEqual(av, bv)
	}
	defer func() {
		if recover() != nil {
			same = reflect.DeepEqual(av, bv)
		}
	}()
	return av == bv
}
