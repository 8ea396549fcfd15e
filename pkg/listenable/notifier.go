package listenable

import (
	"slices"
	"sync"
)

// Listener is a callback invoked with the notification parameters P.
// Multi-value notifications use a struct for P (see Change).
type Listener[P any] func(P)

// Listenable is anything listeners of parameter type P can be attached to.
// It is the surface the binding hooks consume.
type Listenable[P any] interface {
	// AddListener appends a listener and returns its subscription.
	AddListener(listener Listener[P]) *Subscription

	// RemoveListener removes the registration identified by sub.
	RemoveListener(sub *Subscription)

	// HasListeners reports whether at least one listener is registered.
	HasListeners() bool
}

// Notifier is an ordered listener registry.
// The zero value is ready to use.
type Notifier[P any] struct {
	mu      sync.Mutex
	id      uint64
	name    string
	instr   Instrumentation
	entries []entry[P]
}

type entry[P any] struct {
	sub *Subscription
	fn  Listener[P]
}

// NewNotifier creates a named notifier. Only WithName and
// WithInstrumentation apply.
func NewNotifier[P any](opts ...Option) *Notifier[P] {
	n := &Notifier[P]{}
	n.configure(opts)
	return n
}

func (n *Notifier[P]) configure(opts []Option) options {
	o := applyOptions(opts)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = o.name
	n.instr = o.instr
	return o
}

// ID returns the unique identifier of this notifier.
func (n *Notifier[P]) ID() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.idLocked()
}

func (n *Notifier[P]) idLocked() uint64 {
	if n.id == 0 {
		n.id = nextID()
	}
	return n.id
}

// Name returns the name given with WithName, or "".
func (n *Notifier[P]) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

// AddListener appends listener to the registry and returns the
// subscription that identifies it. A nil listener is ignored and yields a
// nil subscription.
func (n *Notifier[P]) AddListener(listener Listener[P]) *Subscription {
	if listener == nil {
		return nil
	}

	sub := newSubscription(n.RemoveListener)

	n.mu.Lock()
	n.entries = append(n.entries, entry[P]{sub: sub, fn: listener})
	info := n.infoLocked(len(n.entries))
	n.mu.Unlock()

	if instr := n.instrumentation(); instr != nil {
		instr.ListenerAdded(info)
	}
	return sub
}

// RemoveListener removes the registration identified by sub.
// Unknown, nil, or already removed subscriptions are ignored.
func (n *Notifier[P]) RemoveListener(sub *Subscription) {
	if sub == nil {
		return
	}

	n.mu.Lock()
	idx := slices.IndexFunc(n.entries, func(e entry[P]) bool { return e.sub == sub })
	if idx < 0 {
		n.mu.Unlock()
		return
	}
	n.entries = slices.Delete(n.entries, idx, idx+1)
	sub.removed.Store(true)
	info := n.infoLocked(len(n.entries))
	n.mu.Unlock()

	if instr := n.instrumentation(); instr != nil {
		instr.ListenerRemoved(info)
	}
}

// HasListeners reports whether at least one listener is registered.
func (n *Notifier[P]) HasListeners() bool {
	return n.ListenerCount() > 0
}

// ListenerCount returns the number of registered listeners.
func (n *Notifier[P]) ListenerCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// NotifyListeners calls every registered listener with params, in
// registration order, before returning.
//
// The registry is copied when the call starts. Listeners removed during
// the pass are skipped if they have not run yet; listeners added during
// the pass are not called until the next notification. A panicking
// listener stops the pass and the panic propagates to the caller.
func (n *Notifier[P]) NotifyListeners(params P) {
	n.mu.Lock()
	if len(n.entries) == 0 {
		n.mu.Unlock()
		return
	}
	snapshot := make([]entry[P], len(n.entries))
	copy(snapshot, n.entries)
	info := n.infoLocked(len(snapshot))
	n.mu.Unlock()

	dispatch := func() {
		for _, e := range snapshot {
			if e.sub.removed.Load() {
				continue
			}
			e.fn(params)
		}
	}

	if instr := n.instrumentation(); instr != nil {
		instr.Notify(info, dispatch)
		return
	}
	dispatch()
}

func (n *Notifier[P]) infoLocked(listeners int) Info {
	return Info{
		ID:        n.idLocked(),
		Name:      n.name,
		Listeners: listeners,
	}
}

func (n *Notifier[P]) instrumentation() Instrumentation {
	n.mu.Lock()
	instr := n.instr
	n.mu.Unlock()
	if instr != nil {
		return instr
	}
	return DefaultInstrumentation()
}
