package binding

import (
	"github.com/vango-dev/sharedstate/pkg/component"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

// ListenOption configures UseListen.
type ListenOption func(*listenConfig)

type listenConfig struct {
	onAttach func()
	onDetach func()
}

// OnAttach runs fn right after the listener is registered, in the commit
// that registered it.
func OnAttach(fn func()) ListenOption {
	return func(c *listenConfig) {
		c.onAttach = fn
	}
}

// OnDetach runs fn right after the listener is removed, when the target
// changes or the component unmounts.
func OnDetach(fn func()) ListenOption {
	return func(c *listenConfig) {
		c.onDetach = fn
	}
}

// UseListen keeps fn registered on target for as long as the component is
// mounted and target stays the same.
//
// Registration happens after the render is committed, never during it.
// The registered listener is a stable forwarder to the fn of the latest
// render, so passing a new closure every render does not re-register.
// When target changes, the old registration and its OnDetach run before
// the new registration and its OnAttach. A nil target registers nothing
// and runs no hooks.
//
// This is a hook and must be called unconditionally during render.
//
// Example:
//
//	count := component.UseRef(o, 0)
//	binding.UseListen[struct{}](o, clicks, func(struct{}) {
//	    count.Set(count.Current() + 1)
//	}, binding.OnDetach(func() { count.Set(0) }))
func UseListen[P any](o *component.Owner, target listenable.Listenable[P], fn listenable.Listener[P], opts ...ListenOption) {
	var cfg listenConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	fnRef := component.UseRef(o, fn)
	fnRef.Set(fn)
	attachRef := component.UseRef(o, cfg.onAttach)
	attachRef.Set(cfg.onAttach)
	detachRef := component.UseRef(o, cfg.onDetach)
	detachRef.Set(cfg.onDetach)

	forward := component.UseMemo(o, func() listenable.Listener[P] {
		return func(p P) {
			if f := fnRef.Current(); f != nil {
				f(p)
			}
		}
	}, []any{})

	component.UseEffect(o, func() component.Cleanup {
		att := listenable.Attach(target, forward,
			listenable.OnAttach(func() {
				if f := attachRef.Current(); f != nil {
					f()
				}
			}),
			listenable.OnDetach(func() {
				if f := detachRef.Current(); f != nil {
					f()
				}
			}),
		)
		return att.Release
	}, []any{target})
}
