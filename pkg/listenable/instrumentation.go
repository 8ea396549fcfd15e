package listenable

import "sync"

// Info describes a notifier at the moment an instrumented event happens.
type Info struct {
	// ID is the unique notifier ID.
	ID uint64

	// Name is the notifier name, or "" when unnamed.
	Name string

	// Listeners is the listener count after the event (for Notify, the
	// number of listeners in the snapshot being dispatched).
	Listeners int
}

// Instrumentation observes notifier activity. Implementations live in
// pkg/middleware (Prometheus, OpenTelemetry, slog).
//
// Notify wraps a notification pass: it must call dispatch exactly once,
// on the calling goroutine, and must not swallow a panic raised by it.
type Instrumentation interface {
	ListenerAdded(info Info)
	ListenerRemoved(info Info)
	Notify(info Info, dispatch func())
}

var (
	defaultInstr   Instrumentation
	defaultInstrMu sync.RWMutex
)

// SetDefaultInstrumentation installs instrumentation used by every
// notifier that was not given WithInstrumentation. Pass nil to disable.
func SetDefaultInstrumentation(instr Instrumentation) {
	defaultInstrMu.Lock()
	defer defaultInstrMu.Unlock()
	defaultInstr = instr
}

// DefaultInstrumentation returns the package-wide instrumentation, or nil.
func DefaultInstrumentation() Instrumentation {
	defaultInstrMu.RLock()
	defer defaultInstrMu.RUnlock()
	return defaultInstr
}

// Chain combines several instrumentations. Notify wraps in order, so the
// first instrumentation is the outermost. Nil entries are skipped.
func Chain(instrs ...Instrumentation) Instrumentation {
	filtered := make(chain, 0, len(instrs))
	for _, i := range instrs {
		if i != nil {
			filtered = append(filtered, i)
		}
	}
	return filtered
}

type chain []Instrumentation

func (c chain) ListenerAdded(info Info) {
	for _, i := range c {
		i.ListenerAdded(info)
	}
}

func (c chain) ListenerRemoved(info Info) {
	for _, i := range c {
		i.ListenerRemoved(info)
	}
}

func (c chain) Notify(info Info, dispatch func()) {
	next := dispatch
	for idx := len(c) - 1; idx >= 0; idx-- {
		instr, inner := c[idx], next
		next = func() { instr.Notify(info, inner) }
	}
	next()
}
