package component

import (
	stderrors "errors"
	"testing"

	"github.com/vango-dev/sharedstate/internal/errors"
)

func expectCode(t *testing.T, code string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %s", code)
		}
		err, ok := r.(error)
		if !ok || !stderrors.Is(err, errors.New(code)) {
			t.Fatalf("panic = %v, want %s", r, code)
		}
	}()
	fn()
}

func TestRenderHookSlotStability(t *testing.T) {
	rt := NewRuntime()

	var refs []*Ref[int]
	var effects []*Effect
	var rerenders []func()
	runs := 0

	c := rt.Mount(nil, func(o *Owner) any {
		ref := UseRef(o, len(refs)+100)
		eff := UseEffect(o, func() Cleanup {
			runs++
			return nil
		}, []any{})
		rerenders = append(rerenders, UseRerender(o))
		refs = append(refs, ref)
		effects = append(effects, eff)
		return ref.Current()
	})

	if runs != 1 {
		t.Fatalf("effect runs after mount = %d, want 1", runs)
	}

	rt.Act(c.Rerender)

	if c.Renders() != 2 {
		t.Fatalf("Renders() = %d, want 2", c.Renders())
	}
	if refs[0] != refs[1] {
		t.Error("ref did not persist across renders")
	}
	if c.Output() != 100 {
		t.Errorf("ref reinitialized on rerender, got %v want 100", c.Output())
	}
	if effects[0] != effects[1] {
		t.Error("effect did not persist across renders")
	}
	if runs != 1 {
		t.Errorf("effect with empty deps ran %d times, want 1", runs)
	}
}

func TestHookOutsideRenderPanics(t *testing.T) {
	o := NewOwner(nil)
	expectCode(t, errors.CodeHookOutsideRender, func() {
		UseRef(o, 0)
	})
}

func TestHookNilOwnerPanics(t *testing.T) {
	expectCode(t, errors.CodeNilOwner, func() {
		UseEffect(nil, func() Cleanup { return nil }, nil)
	})
}

func TestHookDisposedOwnerPanics(t *testing.T) {
	o := NewOwner(nil)
	o.Dispose()
	o.StartRender()
	defer o.EndRender()
	expectCode(t, errors.CodeOwnerDisposed, func() {
		UseRerender(o)
	})
}

func TestHookSlotTypeMismatchPanics(t *testing.T) {
	o := NewOwner(nil)

	o.StartRender()
	UseRef(o, 0)
	o.EndRender()

	o.StartRender()
	defer func() { o.rendering = false }()
	expectCode(t, errors.CodeHookTypeMismatch, func() {
		UseRef(o, "string now")
	})
}

func TestHookOrderValidation(t *testing.T) {
	DebugMode = true
	defer func() { DebugMode = false }()

	tests := []struct {
		name   string
		second func(o *Owner)
	}{
		{
			name: "different kind",
			second: func(o *Owner) {
				UseMemo(o, func() int { return 1 }, nil)
				UseRef(o, 0)
			},
		},
		{
			name: "extra hook",
			second: func(o *Owner) {
				UseRef(o, 0)
				UseMemo(o, func() int { return 1 }, nil)
				UseRerender(o)
			},
		},
		{
			name: "missing hook",
			second: func(o *Owner) {
				UseRef(o, 0)
				o.EndRender()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOwner(nil)
			o.StartRender()
			UseRef(o, 0)
			UseMemo(o, func() int { return 1 }, nil)
			o.EndRender()

			o.StartRender()
			expectCode(t, errors.CodeHookOrderChanged, func() {
				tt.second(o)
			})
		})
	}
}

func TestUseMemoDeps(t *testing.T) {
	o := NewOwner(nil)
	computes := 0
	compute := func() int {
		computes++
		return computes
	}

	render := func(deps []any) int {
		o.StartRender()
		defer o.EndRender()
		return UseMemo(o, compute, deps)
	}

	if got := render([]any{"a"}); got != 1 {
		t.Fatalf("first = %d, want 1", got)
	}
	if got := render([]any{"a"}); got != 1 {
		t.Fatalf("same deps recomputed: %d", got)
	}
	if got := render([]any{"b"}); got != 2 {
		t.Fatalf("changed deps = %d, want 2", got)
	}
	if got := render(nil); got != 3 {
		t.Fatalf("nil deps = %d, want 3", got)
	}
}

func TestUseRerenderIsStable(t *testing.T) {
	rt := NewRuntime()
	var fns []func()

	c := rt.Mount(nil, func(o *Owner) any {
		fns = append(fns, UseRerender(o))
		return nil
	})
	rt.Act(fns[0])
	rt.Act(fns[1])

	if c.Renders() != 3 {
		t.Fatalf("Renders() = %d, want 3", c.Renders())
	}
	rt.Unmount(c)
	rt.Act(fns[0])
	if c.Renders() != 3 {
		t.Errorf("rerender after unmount rendered again")
	}
}

func TestDepsEqual(t *testing.T) {
	shared := []int{1, 2}
	m := map[string]int{}
	p := new(int)
	fn := func() {}

	tests := []struct {
		name string
		a, b []any
		want bool
	}{
		{"both empty", []any{}, []any{}, true},
		{"length differs", []any{1}, []any{1, 2}, false},
		{"equal ints", []any{1, "x"}, []any{1, "x"}, true},
		{"different ints", []any{1}, []any{2}, false},
		{"type differs", []any{1}, []any{int64(1)}, false},
		{"same pointer", []any{p}, []any{p}, true},
		{"different pointer", []any{p}, []any{new(int)}, false},
		{"same slice", []any{shared}, []any{shared}, true},
		{"copied slice", []any{shared}, []any{[]int{1, 2}}, false},
		{"same map", []any{m}, []any{m}, true},
		{"func never equal", []any{fn}, []any{fn}, false},
		{"nil vs nil", []any{nil}, []any{nil}, true},
		{"nil vs value", []any{nil}, []any{0}, false},
		{"uncomparable interface field", []any{struct{ v any }{[]int{1}}}, []any{struct{ v any }{[]int{1}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := depsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("depsEqual = %v, want %v", got, tt.want)
			}
		})
	}
}
