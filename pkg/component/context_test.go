package component

import (
	"testing"

	"github.com/vango-dev/sharedstate/internal/errors"
)

func TestContextProvideAndUse(t *testing.T) {
	theme := CreateContext("light")
	rt := NewRuntime()
	var parent, child, sibling *Component

	rt.Act(func() {
		parent = rt.Mount(nil, func(o *Owner) any {
			theme.Provide(o, "dark")
			return theme.Use(o)
		})
		child = rt.Mount(parent, func(o *Owner) any {
			return theme.Use(o)
		})
		sibling = rt.Mount(nil, func(o *Owner) any {
			return theme.Use(o)
		})
	})

	if parent.Output() != "dark" || child.Output() != "dark" {
		t.Errorf("provided value not visible: %v %v", parent.Output(), child.Output())
	}
	if sibling.Output() != "light" {
		t.Errorf("sibling = %v, want default light", sibling.Output())
	}
	if theme.Default() != "light" {
		t.Errorf("Default() = %q", theme.Default())
	}
}

func TestContextProvideOnRoot(t *testing.T) {
	ctx := CreateContext(0)
	rt := NewRuntime()
	ctx.Provide(rt.Root().Owner(), 42)

	c := rt.Mount(nil, func(o *Owner) any { return ctx.Use(o) })
	if c.Output() != 42 {
		t.Fatalf("Output() = %v, want 42", c.Output())
	}
	if v, ok := ctx.Lookup(c.Owner()); !ok || v != 42 {
		t.Errorf("Lookup = %v, %v", v, ok)
	}
}

func TestContextMustUse(t *testing.T) {
	required := CreateRequiredContext[*int]()
	rt := NewRuntime()

	expectCode(t, errors.CodeContextMissing, func() {
		rt.Mount(nil, func(o *Owner) any { return required.MustUse(o) })
	})

	n := 5
	required.Provide(rt.Root().Owner(), &n)
	c := rt.Mount(nil, func(o *Owner) any { return *required.MustUse(o) })
	if c.Output() != 5 {
		t.Errorf("Output() = %v, want 5", c.Output())
	}
}

func TestContextProvideNilOwnerPanics(t *testing.T) {
	ctx := CreateContext(1)
	expectCode(t, errors.CodeNilOwner, func() {
		ctx.Provide(nil, 2)
	})
	if _, ok := ctx.Lookup(nil); ok {
		t.Error("Lookup(nil) should report false")
	}
}
