package component

import (
	"reflect"
	"sync/atomic"
)

// Cleanup is returned by an effect function and runs before the effect
// runs again or when its owner is disposed.
type Cleanup func()

// Effect is a side effect that runs after the render that scheduled it
// has been committed.
type Effect struct {
	id uint64

	fn      func() Cleanup
	cleanup Cleanup

	// deps from the render that last scheduled the effect.
	deps    []any
	hasRun  bool
	owner   *Owner
	pending atomic.Bool

	disposed atomic.Bool
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// HasRun reports whether the effect has run at least once.
func (e *Effect) HasRun() bool {
	return e.hasRun
}

func (e *Effect) schedule() {
	if e.disposed.Load() {
		return
	}
	if e.pending.CompareAndSwap(false, true) {
		e.owner.scheduleEffect(e)
	}
}

func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	e.pending.Store(false)

	if e.cleanup != nil {
		c := e.cleanup
		e.cleanup = nil
		c()
	}

	e.hasRun = true
	e.cleanup = e.fn()
}

func (e *Effect) dispose() {
	if e.disposed.Swap(true) {
		return
	}
	e.pending.Store(false)
	if e.cleanup != nil {
		c := e.cleanup
		e.cleanup = nil
		c()
	}
}

// UseEffect schedules fn to run after the current render is committed.
//
// deps controls when it runs again:
//   - nil: after every render
//   - empty (non-nil): only after the first render
//   - otherwise: after any render whose deps differ from the previous ones
//
// The cleanup returned by fn runs before the next run and when the owner
// is disposed. The latest fn is always the one that runs.
//
// This is a hook and must be called unconditionally during render.
//
// Example:
//
//	component.UseEffect(o, func() component.Cleanup {
//	    sub := state.OnChange(func(cur, prev int) { o.RequestRender() })
//	    return sub.Unsubscribe
//	}, []any{state})
func UseEffect(o *Owner, fn func() Cleanup, deps []any) *Effect {
	e := useSlot(o, HookEffect, func() *Effect {
		e := &Effect{id: nextID(), owner: o}
		o.registerEffect(e)
		return e
	})

	e.fn = fn
	if !e.hasRun && !e.pending.Load() {
		e.deps = deps
		e.schedule()
		return e
	}
	if deps == nil || !depsEqual(e.deps, deps) {
		e.deps = deps
		e.schedule()
	}
	return e
}

// depsEqual compares dependency lists element-wise. Comparable values use
// ==, maps, slices and pointers compare by identity, and funcs never
// compare equal.
func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameDep(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameDep(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	switch ta.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		if va.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	}

	if !ta.Comparable() {
		return false
	}
	// Interface fields holding uncomparable values panic on ==.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
