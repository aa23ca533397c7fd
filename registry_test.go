package constraint_test

import (
	"context"
	"testing"

	constraint "github.com/constraintgo/constraint"
)

func passChecker() func(constraint.Descriptor) (constraint.Compiled, error) {
	return func(constraint.Descriptor) (constraint.Compiled, error) {
		return constraint.Compiled{
			Checker: constraint.CheckerFunc(func(context.Context, *constraint.ValidationContext, any) bool {
				return true
			}),
		}, nil
	}
}

func TestRegistryRejectsEmptyAndDuplicate(t *testing.T) {
	r := constraint.NewRegistry()
	if err := r.Register(constraint.Definition{New: passChecker()}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := r.Register(constraint.Definition{Name: "custom", New: passChecker()}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := r.Register(constraint.Definition{Name: "custom", New: passChecker()}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestRegistryRejectsEmptyDefinition(t *testing.T) {
	r := constraint.NewRegistry()
	err := r.Register(constraint.Definition{Name: "hollow"})
	if err == nil {
		t.Fatalf("definition without factory or composition must be rejected")
	}
}

func TestRegistryDetectsCompositionCycle(t *testing.T) {
	r := constraint.NewRegistry()
	err := r.Register(constraint.Definition{
		Name:     "a",
		Composes: []constraint.Descriptor{{Name: "a"}},
	})
	if err == nil {
		t.Fatalf("self-composition must be rejected")
	}

	if err := r.Register(constraint.Definition{
		Name:     "b",
		Composes: []constraint.Descriptor{{Name: "c"}},
		New:      passChecker(),
	}); err != nil {
		t.Fatalf("forward reference must be allowed: %v", err)
	}
	err = r.Register(constraint.Definition{
		Name:     "c",
		Composes: []constraint.Descriptor{{Name: "b"}},
	})
	if err == nil {
		t.Fatalf("transitive cycle must be rejected")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := constraint.NewRegistry()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(constraint.Definition{Name: n, New: passChecker()}); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	names := r.Names()
	if len(names) != 3 || names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Fatalf("names not sorted: %v", names)
	}
}

func TestDefaultRegistryHasBuiltins(t *testing.T) {
	for _, n := range []string{"notnil", "notblank", "size", "min", "max", "pattern", "email", "username", "chronological"} {
		if _, ok := constraint.DefaultRegistry().Lookup(n); !ok {
			t.Fatalf("builtin %q missing", n)
		}
	}
}
