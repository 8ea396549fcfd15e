package listenable

import (
	"reflect"
	"sync"
)

// AttachOption configures Attach.
type AttachOption func(*attachConfig)

type attachConfig struct {
	onAttach func()
	onDetach func()
}

// OnAttach runs fn synchronously right after the listener is registered.
// It is the place to reconcile state that changed between the moment a
// value was read and the moment the listener was attached.
func OnAttach(fn func()) AttachOption {
	return func(c *attachConfig) {
		c.onAttach = fn
	}
}

// OnDetach runs fn synchronously right after the listener is removed.
func OnDetach(fn func()) AttachOption {
	return func(c *attachConfig) {
		c.onDetach = fn
	}
}

// Attachment is a listener registration scoped to the lifetime of its
// holder. Release it on every exit path; Release is idempotent.
type Attachment struct {
	once     sync.Once
	sub      *Subscription
	onDetach func()
}

// Attach registers listener on target, then runs the OnAttach hook.
// A nil target (including a typed nil pointer) or nil listener registers
// nothing, runs no hooks, and returns a nil *Attachment whose Release is
// a no-op.
//
// Example:
//
//	att := listenable.Attach(state, func(c listenable.Change[int]) {
//	    log.Println("changed to", c.Current)
//	}, listenable.OnAttach(func() {
//	    log.Println("attached at", state.Value())
//	}))
//	defer att.Release()
func Attach[P any](target Listenable[P], listener Listener[P], opts ...AttachOption) *Attachment {
	if isNil(target) || listener == nil {
		return nil
	}

	var cfg attachConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	a := &Attachment{
		sub:      target.AddListener(listener),
		onDetach: cfg.onDetach,
	}
	if cfg.onAttach != nil {
		cfg.onAttach()
	}
	return a
}

// Subscription returns the underlying subscription, or nil.
func (a *Attachment) Subscription() *Subscription {
	if a == nil {
		return nil
	}
	return a.sub
}

// Release removes the listener and then runs the OnDetach hook.
// Only the first call has an effect.
func (a *Attachment) Release() {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.sub.Unsubscribe()
		if a.onDetach != nil {
			a.onDetach()
		}
	})
}

// isNil reports whether v is nil or an interface wrapping a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
