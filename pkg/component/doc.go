// Package component is a small host runtime for hook-based components.
//
// It is not a renderer. A component is a RenderFunc that receives its
// *Owner, calls hooks on it, and returns an arbitrary output value. The
// Runtime keeps the tree, re-renders components whose owner requested it,
// and runs effects after each render is committed.
//
// # Hooks
//
// Hooks store their state in the owner's hook slots, indexed by call
// order. They must be called unconditionally and in the same order on
// every render:
//
//	func Counter(o *component.Owner) any {
//	    clicks := component.UseRef(o, 0)
//	    rerender := component.UseRerender(o)
//	    component.UseEffect(o, func() component.Cleanup {
//	        stop := ticker.Subscribe(func() {
//	            clicks.Set(clicks.Current() + 1)
//	            rerender()
//	        })
//	        return stop
//	    }, []any{})
//	    return clicks.Current()
//	}
//
// Calling a hook outside render, on a nil owner or on a disposed owner
// panics with a coded *errors.Error. With DebugMode set, or in a Runtime
// created WithDebug, changing the hook order between renders panics as well.
//
// # Commit
//
// Effects never run during render. Runtime.Flush renders every dirty
// component, parents first, then runs the pending effects of the whole
// tree, and repeats until the tree is stable. Act wraps a state change so
// that its renders and effects have completed when Act returns, which is
// what tests want:
//
//	rt := component.NewRuntime()
//	c := rt.Mount(nil, Counter)
//	rt.Act(func() { ticker.Tick() })
//	fmt.Println(c.Output())
package component
