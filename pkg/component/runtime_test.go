package component

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/sharedstate/internal/errors"
)

func TestMountRendersAndCommits(t *testing.T) {
	rt := NewRuntime()
	c := rt.Mount(nil, func(o *Owner) any { return "hello" })

	if c.Output() != "hello" || c.Renders() != 1 {
		t.Fatalf("Output() = %v, Renders() = %d", c.Output(), c.Renders())
	}
	if !c.Mounted() || c.Parent() != rt.Root() {
		t.Fatal("component should be mounted under root")
	}
	if rt.Pending() {
		t.Error("nothing should be pending after Mount")
	}
}

func TestActBatchesRenders(t *testing.T) {
	rt := NewRuntime()
	c := rt.Mount(nil, func(o *Owner) any { return nil })

	rt.Act(func() {
		c.Rerender()
		c.Rerender()
		rt.Act(c.Rerender)
		if c.Renders() != 1 {
			t.Errorf("rendered inside Act: %d", c.Renders())
		}
	})

	if c.Renders() != 2 {
		t.Fatalf("Renders() = %d, want 2", c.Renders())
	}
}

func TestRequestRenderOutsideActWaitsForFlush(t *testing.T) {
	rt := NewRuntime()
	c := rt.Mount(nil, func(o *Owner) any { return nil })

	c.Rerender()
	if c.Renders() != 1 || !rt.Pending() {
		t.Fatal("RequestRender should only mark dirty")
	}
	rt.Flush()
	if c.Renders() != 2 {
		t.Fatalf("Renders() = %d, want 2", c.Renders())
	}
}

func TestFlushRendersParentsFirst(t *testing.T) {
	rt := NewRuntime()
	var order []string
	var parent, child *Component

	rt.Act(func() {
		parent = rt.Mount(nil, func(o *Owner) any {
			order = append(order, "parent")
			return nil
		})
		child = rt.Mount(parent, func(o *Owner) any {
			order = append(order, "child")
			return nil
		})
	})

	order = nil
	rt.Act(func() {
		child.Rerender()
		parent.Rerender()
	})

	if !reflect.DeepEqual(order, []string{"parent", "child"}) {
		t.Fatalf("order = %v", order)
	}
}

func TestEffectStateChangeRerendersInSameFlush(t *testing.T) {
	rt := NewRuntime()
	var outputs []any

	c := rt.Mount(nil, func(o *Owner) any {
		loaded := UseRef(o, false)
		rerender := UseRerender(o)
		UseEffect(o, func() Cleanup {
			if !loaded.Current() {
				loaded.Set(true)
				rerender()
			}
			return nil
		}, []any{})
		outputs = append(outputs, loaded.Current())
		return loaded.Current()
	})

	if c.Output() != true || c.Renders() != 2 {
		t.Fatalf("Output() = %v, Renders() = %d", c.Output(), c.Renders())
	}
	if !reflect.DeepEqual(outputs, []any{false, true}) {
		t.Errorf("outputs = %v", outputs)
	}
}

func TestFlushRenderLoopPanics(t *testing.T) {
	rt := NewRuntime(WithMaxFlushPasses(5))

	expectCode(t, errors.CodeRenderLoop, func() {
		rt.Mount(nil, func(o *Owner) any {
			rerender := UseRerender(o)
			UseEffect(o, func() Cleanup {
				rerender()
				return nil
			}, nil)
			return nil
		})
	})
}

func TestUnmountDisposesSubtree(t *testing.T) {
	rt := NewRuntime()
	var cleanups []string

	parent := rt.Mount(nil, func(o *Owner) any {
		UseEffect(o, func() Cleanup {
			return func() { cleanups = append(cleanups, "parent") }
		}, []any{})
		return nil
	})
	child := rt.Mount(parent, func(o *Owner) any {
		UseEffect(o, func() Cleanup {
			return func() { cleanups = append(cleanups, "child") }
		}, []any{})
		return nil
	})

	child.Rerender()
	rt.Unmount(parent)
	rt.Unmount(parent)
	rt.Flush()

	if parent.Mounted() || child.Mounted() {
		t.Fatal("subtree should be unmounted")
	}
	if !reflect.DeepEqual(cleanups, []string{"child", "parent"}) {
		t.Fatalf("cleanups = %v", cleanups)
	}
	if child.Renders() != 1 {
		t.Errorf("unmounted child rendered again")
	}

	expectCode(t, errors.CodeOwnerDisposed, func() {
		rt.Mount(parent, func(o *Owner) any { return nil })
	})
}

func TestUnmountRootIsNoop(t *testing.T) {
	rt := NewRuntime()
	rt.Unmount(rt.Root())
	rt.Unmount(nil)
	if !rt.Root().Mounted() {
		t.Fatal("root must stay mounted")
	}
}

func TestRenderPanicResetsRenderingFlag(t *testing.T) {
	rt := NewRuntime()
	fail := true
	var c *Component

	func() {
		defer func() { _ = recover() }()
		c = rt.Mount(nil, func(o *Owner) any {
			if fail {
				panic("boom")
			}
			return "ok"
		})
	}()

	root := rt.Root()
	children := root.children
	if len(children) != 1 {
		t.Fatalf("children = %d, want 1", len(children))
	}
	c = children[0]
	if c.Owner().Rendering() {
		t.Fatal("owner left in rendering state")
	}

	fail = false
	rt.Act(c.Rerender)
	if c.Output() != "ok" {
		t.Errorf("Output() = %v", c.Output())
	}
}

func TestRunExecutesDispatched(t *testing.T) {
	rt := NewRuntime()
	var rerender func()
	c := rt.Mount(nil, func(o *Owner) any {
		rerender = UseRerender(o)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	ran := make(chan struct{})
	rt.Dispatch(func() {
		rerender()
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("dispatched function did not run")
	}

	deadline := time.Now().Add(time.Second)
	for c.Renders() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if c.Renders() != 2 {
		t.Errorf("Renders() = %d, want 2", c.Renders())
	}
}

func TestDispatchQueueFullLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := NewRuntime(WithLogger(logger), WithDispatchQueue(1))

	rt.Dispatch(func() {})
	rt.Dispatch(func() {})

	if !strings.Contains(buf.String(), "dispatch queue full") {
		t.Errorf("log = %q", buf.String())
	}
	if rt.Logger() != logger {
		t.Error("Logger() should return the configured logger")
	}
}

func TestWithDebugValidatesHookOrder(t *testing.T) {
	mount := func(rt *Runtime, extra *bool) *Component {
		return rt.Mount(nil, func(o *Owner) any {
			UseRef(o, 0)
			if *extra {
				UseRef(o, 1)
			}
			return nil
		})
	}

	extra := false
	debugRT := NewRuntime(WithDebug(true))
	c := mount(debugRT, &extra)
	extra = true
	expectCode(t, errors.CodeHookOrderChanged, func() {
		debugRT.Act(c.Rerender)
	})
	if DebugMode {
		t.Fatal("WithDebug must not set the package-level DebugMode")
	}

	extra = false
	plain := NewRuntime()
	c = mount(plain, &extra)
	extra = true
	plain.Act(c.Rerender)
	if c.Renders() != 2 {
		t.Errorf("Renders() = %d, want 2", c.Renders())
	}
}
