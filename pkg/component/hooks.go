package component

import (
	"fmt"

	"github.com/vango-dev/sharedstate/internal/errors"
)

// DebugMode enables hook order validation. When set, every render after
// the first must call the same hook kinds in the same order, and any
// deviation panics with errors.CodeHookOrderChanged.
var DebugMode = false

// HookType identifies the kind of hook call for order validation.
type HookType uint8

const (
	HookEffect HookType = iota + 1
	HookRef
	HookMemo
	HookRerender
	HookContext
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookEffect:
		return "Effect"
	case HookRef:
		return "Ref"
	case HookMemo:
		return "Memo"
	case HookRerender:
		return "Rerender"
	case HookContext:
		return "Context"
	default:
		return "Unknown"
	}
}

// checkOwner panics unless o is a live owner in the middle of a render.
// skip is the number of frames between the user call and checkOwner.
func checkOwner(o *Owner, skip int) {
	switch {
	case o == nil:
		panic(errors.New(errors.CodeNilOwner).WithCaller(skip + 1))
	case o.IsDisposed():
		panic(errors.New(errors.CodeOwnerDisposed).WithCaller(skip + 1))
	case !o.rendering:
		panic(errors.New(errors.CodeHookOutsideRender).WithCaller(skip + 1))
	}
}

// useSlot validates the call, records it for order checking and returns
// the value stored in the next hook slot, creating it on first render.
func useSlot[T any](o *Owner, ht HookType, create func() T) T {
	checkOwner(o, 2)
	o.TrackHook(ht)

	if stored, ok := o.UseHookSlot(); ok {
		typed, ok := stored.(T)
		if !ok {
			var want T
			panic(errors.New(errors.CodeHookTypeMismatch).
				WithDetailf("slot %d holds %T, %s hook expected %T", o.hookSlotIdx-1, stored, ht, any(want)).
				WithCaller(2))
		}
		return typed
	}

	v := create()
	o.SetHookSlot(v)
	return v
}

func hookOrderPanic(format string, args ...any) {
	panic(errors.New(errors.CodeHookOrderChanged).
		WithDetail(fmt.Sprintf(format, args...)).
		WithSuggestion("Call hooks unconditionally and in the same order on every render"))
}
