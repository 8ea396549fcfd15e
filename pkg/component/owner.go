package component

import (
	"sync"
	"sync/atomic"
)

// Owner is the scope that holds one component's hook state.
// When an Owner is disposed, its effects are cleaned up, its cleanups run
// and its child owners are disposed. Owners form a tree that mirrors the
// component tree.
//
// Render-time methods (StartRender, EndRender, hook slots) are meant for
// the single goroutine that drives rendering. Registration and disposal
// are safe for concurrent use.
type Owner struct {
	id uint64

	parent *Owner

	children   []*Owner
	childrenMu sync.Mutex

	effects   []*Effect
	effectsMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	// pendingEffects run after render via RunPendingEffects.
	pendingEffects   []*Effect
	pendingEffectsMu sync.Mutex

	// values stores context values provided at this scope.
	values   map[any]any
	valuesMu sync.RWMutex

	// invalidate is called by RequestRender. Set by the Runtime.
	invalidate func()

	disposed  atomic.Bool
	rendering bool

	// debug enables hook order validation for this owner and its children.
	debug bool

	// Debug-mode hook order tracking.
	hookOrder   []HookType
	hookIndex   int
	renderCount int

	hookSlots   []any
	hookSlotIdx int
}

// NewOwner creates a new Owner registered as a child of parent.
// If parent is nil, it creates a root Owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		o.debug = parent.debug
		parent.addChild(o)
	}
	return o
}

// debugging reports whether hook order validation applies to o.
func (o *Owner) debugging() bool {
	return DebugMode || o.debug
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil for a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// Rendering reports whether the owner is between StartRender and EndRender.
func (o *Owner) Rendering() bool {
	return o.rendering
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

func (o *Owner) childSnapshot() []*Owner {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	return append([]*Owner(nil), o.children...)
}

func (o *Owner) registerEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.effectsMu.Lock()
	defer o.effectsMu.Unlock()
	o.effects = append(o.effects, e)
}

// OnCleanup registers fn to run when this Owner is disposed.
// Cleanups run in reverse registration order. If the Owner is already
// disposed, fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}
	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

func (o *Owner) scheduleEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.pendingEffectsMu.Lock()
	defer o.pendingEffectsMu.Unlock()
	o.pendingEffects = append(o.pendingEffects, e)
}

// RequestRender marks the owning component for re-render. It is a no-op
// for owners that are not attached to a Runtime or are disposed.
func (o *Owner) RequestRender() {
	if o == nil || o.disposed.Load() || o.invalidate == nil {
		return
	}
	o.invalidate()
}

// RunPendingEffects executes the pending effects of this owner, then those
// of its children in creation order.
func (o *Owner) RunPendingEffects() {
	if o.disposed.Load() {
		return
	}

	o.pendingEffectsMu.Lock()
	effects := o.pendingEffects
	o.pendingEffects = nil
	o.pendingEffectsMu.Unlock()

	for _, e := range effects {
		if e.pending.Load() {
			e.run()
		}
	}

	for _, child := range o.childSnapshot() {
		child.RunPendingEffects()
	}
}

// HasPendingEffects returns true if this owner or any child has pending effects.
func (o *Owner) HasPendingEffects() bool {
	if o.disposed.Load() {
		return false
	}

	o.pendingEffectsMu.Lock()
	hasPending := len(o.pendingEffects) > 0
	o.pendingEffectsMu.Unlock()
	if hasPending {
		return true
	}

	for _, child := range o.childSnapshot() {
		if child.HasPendingEffects() {
			return true
		}
	}
	return false
}

// Dispose disposes this Owner and everything it owns. Children are
// disposed first, last created first. Effect cleanups run next, in
// creation order, then OnCleanup functions in reverse order.
// Dispose is idempotent.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := o.children
	o.children = nil
	o.childrenMu.Unlock()
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.effectsMu.Lock()
	effects := o.effects
	o.effects = nil
	o.effectsMu.Unlock()
	for _, e := range effects {
		e.dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.pendingEffectsMu.Lock()
	o.pendingEffects = nil
	o.pendingEffectsMu.Unlock()

	o.invalidate = nil
}

// =============================================================================
// Render phase and hook order validation
// =============================================================================

// StartRender begins a render pass: hooks become legal and the slot index
// resets so every hook finds the state it stored on the previous render.
func (o *Owner) StartRender() {
	o.rendering = true
	o.hookSlotIdx = 0
	if o.debugging() {
		o.hookIndex = 0
	}
}

// EndRender ends a render pass. In debug mode it verifies that no hook
// recorded on the first render was skipped.
func (o *Owner) EndRender() {
	o.rendering = false

	if !o.debugging() {
		return
	}
	if o.renderCount == 0 {
		o.renderCount = 1
	} else if o.hookIndex < len(o.hookOrder) {
		hookOrderPanic("expected %d hooks, got %d", len(o.hookOrder), o.hookIndex)
	}
}

// TrackHook records a hook call for order validation. It does nothing
// unless DebugMode is set or the owner belongs to a Runtime created
// WithDebug.
func (o *Owner) TrackHook(ht HookType) {
	if !o.debugging() {
		return
	}

	if o.renderCount == 0 {
		o.hookOrder = append(o.hookOrder, ht)
	} else {
		if o.hookIndex >= len(o.hookOrder) {
			hookOrderPanic("extra %s hook at index %d", ht, o.hookIndex)
		}
		if expected := o.hookOrder[o.hookIndex]; expected != ht {
			hookOrderPanic("at index %d: expected %s, got %s", o.hookIndex, expected, ht)
		}
	}
	o.hookIndex++
}

// UseHookSlot advances to the next hook slot and returns the value stored
// there. ok is false on the render that first reaches the slot; the caller
// then creates the value and stores it with SetHookSlot.
func (o *Owner) UseHookSlot() (value any, ok bool) {
	idx := o.hookSlotIdx
	o.hookSlotIdx++
	if idx < len(o.hookSlots) {
		return o.hookSlots[idx], true
	}
	return nil, false
}

// SetHookSlot stores value in the slot most recently reached by UseHookSlot.
func (o *Owner) SetHookSlot(value any) {
	idx := o.hookSlotIdx - 1
	if idx >= 0 && idx < len(o.hookSlots) {
		o.hookSlots[idx] = value
		return
	}
	o.hookSlots = append(o.hookSlots, value)
}

// SetValue stores a context value at this scope.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// GetValue looks key up at this scope and then in each ancestor.
func (o *Owner) GetValue(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		cur.valuesMu.RLock()
		v, ok := cur.values[key]
		cur.valuesMu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}
