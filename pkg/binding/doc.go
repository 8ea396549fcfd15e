// Package binding connects listenable values to components.
//
// UseListen keeps a listener attached to a Listenable for the lifetime of
// a component. UseSharedState and its variants build on it to bind a
// component to a SharedState: the component reads the value on every
// render and re-renders when the state changes, subject to a ShouldUpdate
// filter.
//
//	var counter = listenable.NewSharedState(0)
//
//	func Display(o *component.Owner) any {
//	    count, _ := binding.UseSharedState(o, counter)
//	    return fmt.Sprintf("count: %d", count)
//	}
//
//	func EvenOnly(o *component.Owner) any {
//	    count, _ := binding.UseSharedState(o, counter, binding.When(func(cur, prev int) bool {
//	        return cur%2 == 0
//	    }))
//	    return count
//	}
//
//	func Button(o *component.Owner) any {
//	    _, set := binding.UseSharedState(o, counter, binding.Never[int]())
//	    return func() { set.Update(func(n int) int { return n + 1 }) }
//	}
//
// Listeners are attached after the render is committed. If the state
// changed in between, the binding notices when it attaches and delivers
// one catch-up change, so a component never stays stuck on a stale value.
package binding
