package component

import "github.com/vango-dev/sharedstate/internal/errors"

// Context passes a value down the owner tree without threading it through
// every render function.
//
// Example:
//
//	var Theme = component.CreateContext("light")
//
//	func App(o *component.Owner) any {
//	    Theme.Provide(o, "dark")
//	    return nil
//	}
//
//	func Button(o *component.Owner) any {
//	    return "btn-" + Theme.Use(o)
//	}
type Context[T any] struct {
	key          any
	defaultValue T
	hasDefault   bool
}

type contextKey[T any] struct {
	ctx *Context[T]
}

// CreateContext creates a context whose Use returns defaultValue when no
// ancestor provided a value.
func CreateContext[T any](defaultValue T) *Context[T] {
	ctx := &Context[T]{defaultValue: defaultValue, hasDefault: true}
	ctx.key = contextKey[T]{ctx: ctx}
	return ctx
}

// CreateRequiredContext creates a context without a default. MustUse
// panics when no provider is found.
func CreateRequiredContext[T any]() *Context[T] {
	ctx := &Context[T]{}
	ctx.key = contextKey[T]{ctx: ctx}
	return ctx
}

// Provide makes value visible to o and all of its descendants.
// It may be called during render or from setup code before the first one.
func (c *Context[T]) Provide(o *Owner, value T) {
	if o == nil {
		panic(errors.New(errors.CodeNilOwner).WithCaller(1))
	}
	o.SetValue(c.key, value)
}

// Lookup returns the value provided by the nearest ancestor of o
// (including o itself).
func (c *Context[T]) Lookup(o *Owner) (T, bool) {
	if o != nil {
		if v, ok := o.GetValue(c.key); ok {
			if typed, ok := v.(T); ok {
				return typed, true
			}
		}
	}
	var zero T
	return zero, false
}

// Use returns the nearest provided value, or the default.
//
// This is a hook and must be called unconditionally during render.
func (c *Context[T]) Use(o *Owner) T {
	checkOwner(o, 1)
	o.TrackHook(HookContext)
	if v, ok := c.Lookup(o); ok {
		return v
	}
	return c.defaultValue
}

// MustUse is Use for contexts that have no default. It panics with
// errors.CodeContextMissing when nothing was provided.
func (c *Context[T]) MustUse(o *Owner) T {
	checkOwner(o, 1)
	o.TrackHook(HookContext)
	if v, ok := c.Lookup(o); ok {
		return v
	}
	if c.hasDefault {
		return c.defaultValue
	}
	panic(errors.New(errors.CodeContextMissing).WithCaller(1))
}

// Default returns the default value for this context.
func (c *Context[T]) Default() T {
	return c.defaultValue
}
