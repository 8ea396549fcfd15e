package binding

type updateKind uint8

const (
	updateAlways updateKind = iota
	updateNever
	updateWhen
)

// ShouldUpdate decides whether a change of a shared state re-renders the
// bound component. The zero value is Always.
type ShouldUpdate[T any] struct {
	kind updateKind
	pred func(current, previous T) bool
}

// Always re-renders on every notification.
func Always[T any]() ShouldUpdate[T] {
	return ShouldUpdate[T]{kind: updateAlways}
}

// Never re-renders. The component still sees the latest value whenever
// something else re-renders it.
func Never[T any]() ShouldUpdate[T] {
	return ShouldUpdate[T]{kind: updateNever}
}

// When re-renders only if pred returns true for the change.
// A nil pred behaves like Always.
func When[T any](pred func(current, previous T) bool) ShouldUpdate[T] {
	if pred == nil {
		return Always[T]()
	}
	return ShouldUpdate[T]{kind: updateWhen, pred: pred}
}

// Allows reports whether a change from previous to current should
// re-render.
func (s ShouldUpdate[T]) Allows(current, previous T) bool {
	switch s.kind {
	case updateNever:
		return false
	case updateWhen:
		return s.pred(current, previous)
	default:
		return true
	}
}

// String returns "always", "never" or "when".
func (s ShouldUpdate[T]) String() string {
	switch s.kind {
	case updateNever:
		return "never"
	case updateWhen:
		return "when"
	default:
		return "always"
	}
}

func pickFilter[T any](filter []ShouldUpdate[T]) ShouldUpdate[T] {
	if len(filter) == 0 {
		return Always[T]()
	}
	return filter[0]
}
