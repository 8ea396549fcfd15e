package component

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/sharedstate/internal/errors"
)

// RenderFunc renders a component. Hooks are called on o, and the return
// value is kept as the component's Output.
type RenderFunc func(o *Owner) any

// DefaultMaxFlushPasses bounds the render/commit passes of one Flush.
const DefaultMaxFlushPasses = 100

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithMaxFlushPasses sets how many render/commit passes a single Flush
// may take before it panics with errors.CodeRenderLoop.
func WithMaxFlushPasses(n int) Option {
	return func(r *Runtime) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

// WithDispatchQueue sets the capacity of the Dispatch queue.
func WithDispatchQueue(size int) Option {
	return func(r *Runtime) {
		if size > 0 {
			r.dispatchCh = make(chan func(), size)
		}
	}
}

// WithDebug enables hook order validation for every component the
// Runtime mounts, without touching the package-level DebugMode.
func WithDebug(enabled bool) Option {
	return func(r *Runtime) {
		r.debug = enabled
	}
}

// Runtime drives rendering and effect commits for a tree of components.
//
// Rendering, Act and Flush belong to one goroutine, the UI goroutine.
// Other goroutines hand work to it with Dispatch, which Run executes.
// RequestRender is safe from any goroutine: it marks the component dirty
// and wakes Run.
type Runtime struct {
	logger    *slog.Logger
	maxPasses int
	debug     bool
	root      *Component

	mu    sync.Mutex
	dirty map[*Component]struct{}
	seq   uint64

	batchDepth int
	flushing   bool

	dispatchCh chan func()
	wake       chan struct{}
}

// NewRuntime creates a Runtime with an empty root component.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		maxPasses:  DefaultMaxFlushPasses,
		dirty:      make(map[*Component]struct{}),
		dispatchCh: make(chan func(), 256),
		wake:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	root := NewOwner(nil)
	root.debug = r.debug
	r.root = &Component{
		id:      nextID(),
		runtime: r,
		owner:   root,
	}
	r.root.mounted.Store(true)
	return r
}

// Root returns the root component. It never renders; mount components
// under it or use its Owner to provide contexts to the whole tree.
func (r *Runtime) Root() *Component {
	return r.root
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Mount creates a component under parent (the root when nil) and renders
// it. Outside Act the render and its effects are flushed before Mount
// returns; inside Act they are flushed when Act finishes.
func (r *Runtime) Mount(parent *Component, render RenderFunc) *Component {
	if parent == nil {
		parent = r.root
	}
	if !parent.Mounted() {
		panic(errors.New(errors.CodeOwnerDisposed).
			WithDetail("cannot mount a component under an unmounted parent").
			WithCaller(1))
	}

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	c := &Component{
		id:      nextID(),
		runtime: r,
		parent:  parent,
		owner:   NewOwner(parent.owner),
		render:  render,
		depth:   parent.depth + 1,
		seq:     seq,
	}
	c.owner.invalidate = func() { r.invalidate(c) }
	c.mounted.Store(true)
	parent.addChild(c)

	r.logger.Debug("component mounted", "component", c.id, "parent", parent.id)
	r.Act(func() { r.invalidate(c) })
	return c
}

// Unmount disposes c and its descendants. Effect cleanups run before
// Unmount returns. Unmounting the root or an unmounted component is a
// no-op.
func (r *Runtime) Unmount(c *Component) {
	if c == nil || c == r.root || !c.mounted.Load() {
		return
	}

	c.markUnmounted()
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.owner.Dispose()

	r.logger.Debug("component unmounted", "component", c.id)
}

// Act runs fn and then flushes, so that every render and effect fn caused
// has happened when Act returns. Nested Act calls flush once, at the end
// of the outermost one.
func (r *Runtime) Act(fn func()) {
	r.batchDepth++
	func() {
		defer func() { r.batchDepth-- }()
		if fn != nil {
			fn()
		}
	}()
	if r.batchDepth == 0 {
		r.Flush()
	}
}

// Flush re-renders dirty components, parents before children, then runs
// pending effects, and repeats until nothing is dirty or pending. It
// panics with errors.CodeRenderLoop if that takes more than the maximum
// number of passes. Calls made while a flush is running return at once;
// the running flush picks up their work.
func (r *Runtime) Flush() {
	if r.flushing {
		return
	}
	r.flushing = true
	defer func() { r.flushing = false }()

	for pass := 0; ; pass++ {
		dirty := r.takeDirty()
		if len(dirty) == 0 && !r.root.owner.HasPendingEffects() {
			if pass > 0 {
				r.logger.Debug("flush settled", "passes", pass)
			}
			return
		}
		if pass >= r.maxPasses {
			panic(errors.New(errors.CodeRenderLoop).
				WithDetailf("still %d dirty components after %d passes", len(dirty), pass))
		}

		for _, c := range dirty {
			if c.mounted.Load() {
				c.renderOnce()
			}
		}
		r.root.owner.RunPendingEffects()
	}
}

// Dispatch queues fn to run on the UI goroutine inside Act. It never
// blocks: when the queue is full fn is dropped and a warning is logged.
func (r *Runtime) Dispatch(fn func()) {
	select {
	case r.dispatchCh <- fn:
	default:
		r.logger.Warn("dispatch queue full, discarding callback")
	}
}

// Run makes the calling goroutine the UI goroutine. It executes
// dispatched functions and flushes renders requested from other
// goroutines until ctx is done.
func (r *Runtime) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-r.dispatchCh:
			r.Act(fn)
		case <-r.wake:
			r.Flush()
		}
	}
}

// Pending reports whether any component is waiting to re-render.
func (r *Runtime) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dirty) > 0
}

func (r *Runtime) invalidate(c *Component) {
	if !c.mounted.Load() {
		return
	}
	r.mu.Lock()
	r.dirty[c] = struct{}{}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runtime) takeDirty() []*Component {
	r.mu.Lock()
	dirty := make([]*Component, 0, len(r.dirty))
	for c := range r.dirty {
		dirty = append(dirty, c)
	}
	clear(r.dirty)
	r.mu.Unlock()

	slices.SortFunc(dirty, func(a, b *Component) int {
		if a.depth != b.depth {
			return a.depth - b.depth
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return dirty
}

// Component is a mounted render function with its own Owner.
type Component struct {
	id      uint64
	runtime *Runtime
	parent  *Component
	owner   *Owner
	render  RenderFunc
	depth   int
	seq     uint64

	childrenMu sync.Mutex
	children   []*Component

	mounted atomic.Bool
	renders atomic.Int64

	outputMu sync.RWMutex
	output   any
}

// ID returns the unique identifier for this component.
func (c *Component) ID() uint64 {
	return c.id
}

// Owner returns the component's hook scope.
func (c *Component) Owner() *Owner {
	return c.owner
}

// Parent returns the parent component, or nil for the root.
func (c *Component) Parent() *Component {
	return c.parent
}

// Mounted reports whether the component is still part of the tree.
func (c *Component) Mounted() bool {
	return c.mounted.Load()
}

// Renders returns how many times the component has rendered.
func (c *Component) Renders() int {
	return int(c.renders.Load())
}

// Output returns the value returned by the most recent render. It keeps
// the last output after the component is unmounted.
func (c *Component) Output() any {
	c.outputMu.RLock()
	defer c.outputMu.RUnlock()
	return c.output
}

// Rerender marks the component dirty.
func (c *Component) Rerender() {
	c.owner.RequestRender()
}

func (c *Component) renderOnce() {
	o := c.owner
	o.StartRender()
	defer func() { o.rendering = false }()

	out := c.render(o)
	o.EndRender()

	c.outputMu.Lock()
	c.output = out
	c.outputMu.Unlock()
	n := c.renders.Add(1)

	c.runtime.logger.Debug("component rendered", "component", c.id, "renders", n)
}

func (c *Component) addChild(child *Component) {
	c.childrenMu.Lock()
	defer c.childrenMu.Unlock()
	c.children = append(c.children, child)
}

func (c *Component) removeChild(child *Component) {
	c.childrenMu.Lock()
	defer c.childrenMu.Unlock()
	c.children = slices.DeleteFunc(c.children, func(x *Component) bool { return x == child })
}

func (c *Component) markUnmounted() {
	c.mounted.Store(false)

	r := c.runtime
	r.mu.Lock()
	delete(r.dirty, c)
	r.mu.Unlock()

	c.childrenMu.Lock()
	children := c.children
	c.children = nil
	c.childrenMu.Unlock()
	for _, child := range children {
		child.markUnmounted()
	}
}
