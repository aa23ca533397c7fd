package constraint_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	constraint "github.com/constraintgo/constraint"
)

func TestViolationsErrorSummary(t *testing.T) {
	vs := constraint.Violations{
		{Path: "/name", Constraint: "notblank"},
		{Path: "/age", Constraint: "min"},
	}
	got := vs.Error()
	if got != "notblank at /name; min at /age" {
		t.Fatalf("unexpected summary: %q", got)
	}

	many := constraint.Violations{
		{Path: "/a", Constraint: "x"},
		{Path: "/b", Constraint: "x"},
		{Path: "/c", Constraint: "x"},
		{Path: "/d", Constraint: "x"},
	}
	if !strings.Contains(many.Error(), "(total 4)") {
		t.Fatalf("expected truncation marker, got %q", many.Error())
	}
}

func TestAsViolations(t *testing.T) {
	vs := constraint.Violations{{Path: "/x", Constraint: "size"}}
	wrapped := fmt.Errorf("request rejected: %w", error(vs))

	got, ok := constraint.AsViolations(wrapped)
	if !ok || len(got) != 1 || got[0].Path != "/x" {
		t.Fatalf("expected to unwrap violations, got %v ok=%v", got, ok)
	}
	if _, ok := constraint.AsViolations(errors.New("plain")); ok {
		t.Fatalf("plain error must not unwrap to violations")
	}
	if _, ok := constraint.AsViolations(nil); ok {
		t.Fatalf("nil must not unwrap to violations")
	}
}

func TestViolationMarshalJSON(t *testing.T) {
	v := constraint.Violation{
		Path:       "/items/2/price",
		Constraint: "min",
		Message:    "must be greater than or equal to 1",
		Params:     map[string]any{"min": "1"},
		Cause:      errors.New("boom"),
	}
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["path"] != "/items/2/price" || decoded["constraint"] != "min" {
		t.Fatalf("unexpected wire shape: %s", raw)
	}
	if decoded["cause"] != "boom" {
		t.Fatalf("cause should be flattened to its message: %s", raw)
	}
}
