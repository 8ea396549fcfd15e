package listenable

import "sync"

// Change is the notification payload of a ValueNotifier.
type Change[T any] struct {
	// Current is the value after the assignment.
	Current T

	// Previous is the value before the assignment.
	Previous T
}

// ValueNotifier holds a value of type T and notifies listeners with the
// current and previous value every time it is assigned.
// The zero value holds the zero T and notifies on every Set.
type ValueNotifier[T any] struct {
	Notifier[Change[T]]

	// writeMu serializes Set and Update so that Update's read-modify-write
	// is not interleaved with another writer.
	writeMu sync.Mutex

	valueMu sync.RWMutex
	value   T
	version uint64

	// quiet inverts the default so that the zero value notifies.
	quiet bool
}

// SharedState is a ValueNotifier handed by reference to several consumers.
// Consumers holding the same pointer observe the same value.
type SharedState[T any] = ValueNotifier[T]

// NewValueNotifier creates a ValueNotifier holding initial.
//
// Options:
//   - WithName(name) - name used by instrumentation, inspector, persistence
//   - WithInstrumentation(i) - per-notifier instrumentation
//   - NotifyOnSet(false) - make Set and Update quiet unless Notify(true) is passed
func NewValueNotifier[T any](initial T, opts ...Option) *ValueNotifier[T] {
	v := &ValueNotifier[T]{value: initial}
	o := v.configure(opts)
	v.quiet = !o.notifyOnSet
	return v
}

// NewSharedState creates a SharedState holding initial.
func NewSharedState[T any](initial T, opts ...Option) *SharedState[T] {
	return NewValueNotifier(initial, opts...)
}

// Value returns the current value.
func (v *ValueNotifier[T]) Value() T {
	v.valueMu.RLock()
	defer v.valueMu.RUnlock()
	return v.value
}

// Load returns the current value together with its version. The version
// increases by one on every assignment, notifying or not.
func (v *ValueNotifier[T]) Load() (T, uint64) {
	v.valueMu.RLock()
	defer v.valueMu.RUnlock()
	return v.value, v.version
}

// Version returns the number of assignments made so far.
func (v *ValueNotifier[T]) Version() uint64 {
	v.valueMu.RLock()
	defer v.valueMu.RUnlock()
	return v.version
}

// Set assigns value. Listeners receive Change{Current: value, Previous: old}
// unless notification is disabled for this call or for the notifier.
// Setting the same value again still notifies.
func (v *ValueNotifier[T]) Set(value T, opts ...SetOption) {
	v.assign(func(T) T { return value }, opts)
}

// Update assigns fn(current). fn runs with no lock on the value held, so
// it may call Value, but it must not call Set or Update on the same
// notifier. A nil fn does nothing.
func (v *ValueNotifier[T]) Update(fn func(T) T, opts ...SetOption) {
	if fn == nil {
		return
	}
	v.assign(fn, opts)
}

// OnChange registers a listener using the (current, previous) signature.
func (v *ValueNotifier[T]) OnChange(fn func(current, previous T)) *Subscription {
	if fn == nil {
		return nil
	}
	return v.AddListener(func(c Change[T]) { fn(c.Current, c.Previous) })
}

func (v *ValueNotifier[T]) assign(next func(T) T, opts []SetOption) {
	current, previous, notify := v.write(next, opts)
	if notify {
		v.NotifyListeners(Change[T]{Current: current, Previous: previous})
	}
}

func (v *ValueNotifier[T]) write(next func(T) T, opts []SetOption) (current, previous T, notify bool) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	v.valueMu.RLock()
	cfg := setConfig{notify: !v.quiet}
	previous = v.value
	v.valueMu.RUnlock()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	current = next(previous)

	v.valueMu.Lock()
	v.value = current
	v.version++
	v.valueMu.Unlock()

	return current, previous, cfg.notify
}
