package binding

import (
	"reflect"
	"testing"

	"github.com/vango-dev/sharedstate/pkg/component"
	"github.com/vango-dev/sharedstate/pkg/listenable"
)

type countingInstr struct {
	added, removed int
}

func (c *countingInstr) ListenerAdded(listenable.Info)   { c.added++ }
func (c *countingInstr) ListenerRemoved(listenable.Info) { c.removed++ }
func (c *countingInstr) Notify(_ listenable.Info, dispatch func()) {
	dispatch()
}

func TestUseListenRegistersAfterCommit(t *testing.T) {
	rt := component.NewRuntime()
	var clicks listenable.ChangeNotifier
	registeredDuringRender := false

	rt.Mount(nil, func(o *component.Owner) any {
		registeredDuringRender = registeredDuringRender || clicks.HasListeners()
		UseListen[struct{}](o, &clicks, func(struct{}) {})
		return nil
	})

	if registeredDuringRender {
		t.Error("listener registered during render")
	}
	if clicks.ListenerCount() != 1 {
		t.Fatalf("ListenerCount() = %d, want 1", clicks.ListenerCount())
	}
}

func TestUseListenStableAcrossRerenders(t *testing.T) {
	instr := &countingInstr{}
	clicks := listenable.NewNotifier[int](listenable.WithInstrumentation(instr))
	rt := component.NewRuntime()
	var got []string
	label := "first"

	c := rt.Mount(nil, func(o *component.Owner) any {
		l := label
		UseListen[int](o, clicks, func(int) { got = append(got, l) })
		return nil
	})

	label = "second"
	rt.Act(c.Rerender)
	rt.Act(c.Rerender)
	clicks.NotifyListeners(1)

	if instr.added != 1 || instr.removed != 0 {
		t.Fatalf("added=%d removed=%d, want 1/0", instr.added, instr.removed)
	}
	if !reflect.DeepEqual(got, []string{"second"}) {
		t.Fatalf("got = %v, want latest closure only", got)
	}
}

func TestUseListenUnmountTeardown(t *testing.T) {
	clicks := listenable.NewNotifier[int]()
	rt := component.NewRuntime()
	counter := 0
	attached := 0

	c := rt.Mount(nil, func(o *component.Owner) any {
		rerender := component.UseRerender(o)
		UseListen[int](o, clicks, func(int) {
			counter++
			rerender()
		}, OnAttach(func() { attached++ }), OnDetach(func() { counter = 0 }))
		return counter
	})

	rt.Act(func() { clicks.NotifyListeners(1) })
	rt.Act(func() { clicks.NotifyListeners(2) })
	if counter != 2 || c.Output() != 2 {
		t.Fatalf("counter = %d, output = %v, want 2", counter, c.Output())
	}

	rt.Unmount(c)
	if counter != 0 {
		t.Fatalf("counter = %d after unmount, want 0", counter)
	}

	rendersAtUnmount := c.Renders()
	rt.Act(func() { clicks.NotifyListeners(3) })
	if counter != 0 {
		t.Errorf("unmounted listener still runs: counter = %d", counter)
	}
	if c.Renders() != rendersAtUnmount || c.Output() != 2 {
		t.Errorf("unmounted component changed: renders=%d output=%v", c.Renders(), c.Output())
	}
	if clicks.HasListeners() {
		t.Error("listener left registered after unmount")
	}
	if attached != 1 {
		t.Errorf("attached = %d, want 1", attached)
	}
}

func TestUseListenRebindsOnTargetChange(t *testing.T) {
	a := listenable.NewNotifier[string](listenable.WithName("a"))
	b := listenable.NewNotifier[string](listenable.WithName("b"))
	rt := component.NewRuntime()
	var events []string
	target := a

	c := rt.Mount(nil, func(o *component.Owner) any {
		name := target.Name()
		UseListen[string](o, target, func(p string) { events = append(events, name+":"+p) },
			OnAttach(func() { events = append(events, "attach:"+name) }),
			OnDetach(func() { events = append(events, "detach") }),
		)
		return nil
	})

	target = b
	rt.Act(c.Rerender)
	a.NotifyListeners("ignored")
	b.NotifyListeners("hello")

	want := []string{"attach:a", "detach", "attach:b", "b:hello"}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	if a.HasListeners() {
		t.Error("old target still has listeners")
	}
}

func TestUseListenNilTarget(t *testing.T) {
	rt := component.NewRuntime()
	hooks := 0
	var typedNil *listenable.Notifier[int]

	tests := []struct {
		name   string
		target listenable.Listenable[int]
	}{
		{"untyped nil", nil},
		{"typed nil", typedNil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rt.Mount(nil, func(o *component.Owner) any {
				UseListen(o, tt.target, func(int) {}, OnAttach(func() { hooks++ }), OnDetach(func() { hooks++ }))
				return "ok"
			})
			rt.Unmount(c)
			if c.Output() != "ok" {
				t.Errorf("Output() = %v", c.Output())
			}
		})
	}

	if hooks != 0 {
		t.Errorf("hooks ran %d times for nil targets", hooks)
	}
}

func TestUseListenNilToTarget(t *testing.T) {
	n := listenable.NewNotifier[int]()
	rt := component.NewRuntime()
	var target listenable.Listenable[int]
	calls := 0

	c := rt.Mount(nil, func(o *component.Owner) any {
		UseListen(o, target, func(int) { calls++ })
		return nil
	})
	n.NotifyListeners(0)

	target = n
	rt.Act(c.Rerender)
	n.NotifyListeners(0)

	target = nil
	rt.Act(c.Rerender)
	n.NotifyListeners(0)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
