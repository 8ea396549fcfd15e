package component

type memo[T any] struct {
	value T
	deps  []any
	ready bool
}

// UseMemo returns compute's result, recomputing it only when deps differ
// from the previous render's. Empty deps compute once; nil deps compute on
// every render.
//
// This is a hook and must be called unconditionally during render.
func UseMemo[T any](o *Owner, compute func() T, deps []any) T {
	m := useSlot(o, HookMemo, func() *memo[T] {
		return &memo[T]{}
	})
	if !m.ready || deps == nil || !depsEqual(m.deps, deps) {
		m.value = compute()
		m.deps = deps
		m.ready = true
	}
	return m.value
}

// UseRerender returns a function that schedules a re-render of the
// component. The returned function is the same on every render and is
// safe to call after the component unmounted.
//
// This is a hook and must be called unconditionally during render.
func UseRerender(o *Owner) func() {
	return useSlot(o, HookRerender, func() func() {
		return o.RequestRender
	})
}
