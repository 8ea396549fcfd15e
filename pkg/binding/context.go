package binding

import (
	"github.com/vango-dev/sharedstate/pkg/component"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

// SharedStateContext carries a shared state handle down the component
// tree.
type SharedStateContext[T any] = component.Context[*listenable.SharedState[T]]

// NewSharedStateContext creates a context whose default handle is def.
// Providers can substitute a different handle for their subtree.
//
// Example:
//
//	var Counter = binding.NewSharedStateContext(listenable.NewSharedState(0))
//
//	func App(o *component.Owner) any {
//	    Counter.Provide(o, listenable.NewSharedState(10))
//	    return nil
//	}
func NewSharedStateContext[T any](def *listenable.SharedState[T]) *SharedStateContext[T] {
	return component.CreateContext(def)
}

// UseSharedStateContext resolves the nearest handle from ctx and binds the
// component to it like UseSharedStateDirectly.
//
// This is a hook and must be called unconditionally during render.
func UseSharedStateContext[T any](o *component.Owner, ctx *SharedStateContext[T], filter ...ShouldUpdate[T]) *listenable.SharedState[T] {
	return UseSharedStateDirectly(o, ctx.Use(o), filter...)
}
