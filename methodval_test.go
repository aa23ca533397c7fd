package constraint_test

import (
	"context"
	"testing"
	"time"

	constraint "github.com/constraintgo/constraint"
)

func eventMethod() constraint.MethodDescriptor {
	return constraint.MethodDescriptor{
		Name: "createEvent",
		Params: []constraint.ParamDescriptor{
			{Name: "title", Constraints: []constraint.Descriptor{{Name: "notblank"}}},
			{Name: "start", Constraints: []constraint.Descriptor{{Name: "notnil"}}},
			{Name: "end", Constraints: []constraint.Descriptor{{Name: "notnil"}}},
		},
		CrossParams: []constraint.Descriptor{{Name: "chronological"}},
	}
}

func TestValidateParametersOK(t *testing.T) {
	v := constraint.New()
	start := time.Now()
	end := start.Add(time.Hour)
	err := v.ValidateParameters(context.Background(), eventMethod(), []any{"meetup", start, end})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestValidateParametersElementViolation(t *testing.T) {
	v := constraint.New()
	start := time.Now()
	err := v.ValidateParameters(context.Background(), eventMethod(), []any{"  ", start, start.Add(time.Hour)})
	vs, ok := constraint.AsViolations(err)
	if !ok || len(vs) != 1 {
		t.Fatalf("expected one violation: %v", err)
	}
	if vs[0].Path != "/createEvent/title" || vs[0].Constraint != "notblank" {
		t.Fatalf("parameter path: %+v", vs[0])
	}
}

func TestValidateParametersCrossParameter(t *testing.T) {
	v := constraint.New()
	start := time.Now()
	end := start.Add(-time.Hour) // end before start
	err := v.ValidateParameters(context.Background(), eventMethod(), []any{"meetup", start, end})
	vs, ok := constraint.AsViolations(err)
	if !ok || len(vs) != 1 {
		t.Fatalf("expected one violation: %v", err)
	}
	if vs[0].Path != "/createEvent/<cross-parameter>" || vs[0].Constraint != "chronological" {
		t.Fatalf("cross-parameter violation: %+v", vs[0])
	}
}

func TestValidateParametersArityMismatch(t *testing.T) {
	v := constraint.New()
	err := v.ValidateParameters(context.Background(), eventMethod(), []any{"only one"})
	if err == nil {
		t.Fatalf("expected arity error")
	}
	if _, ok := constraint.AsViolations(err); ok {
		t.Fatalf("arity mismatch is a declaration bug, not a violation")
	}
}

func TestValidateParametersRejectsElementConstraintAsCrossParameter(t *testing.T) {
	v := constraint.New()
	method := constraint.MethodDescriptor{
		Name:        "m",
		Params:      []constraint.ParamDescriptor{{Name: "a"}},
		CrossParams: []constraint.Descriptor{{Name: "notblank"}},
	}
	err := v.ValidateParameters(context.Background(), method, []any{"x"})
	if err == nil {
		t.Fatalf("expected wrong-target error")
	}
	if _, ok := constraint.AsViolations(err); ok {
		t.Fatalf("wrong target is a declaration bug, not a violation")
	}
}

func TestValidateParametersCascade(t *testing.T) {
	type payload struct {
		ID string `json:"id" validate:"notblank"`
	}
	method := constraint.MethodDescriptor{
		Name:   "submit",
		Params: []constraint.ParamDescriptor{{Name: "payload", Cascade: true}},
	}
	v := constraint.New()
	err := v.ValidateParameters(context.Background(), method, []any{payload{}})
	vs, _ := constraint.AsViolations(err)
	if len(vs) != 1 || vs[0].Path != "/submit/payload/id" {
		t.Fatalf("cascaded parameter path: %v", err)
	}
}

func TestValidateReturnValue(t *testing.T) {
	method := constraint.MethodDescriptor{
		Name:    "lookup",
		Returns: []constraint.Descriptor{{Name: "notnil"}},
	}
	v := constraint.New()
	err := v.ValidateReturnValue(context.Background(), method, nil)
	vs, _ := constraint.AsViolations(err)
	if len(vs) != 1 || vs[0].Path != "/lookup/<return>" {
		t.Fatalf("return path: %v", err)
	}
	if err := v.ValidateReturnValue(context.Background(), method, "found"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestValidateReturnValueCascade(t *testing.T) {
	type result struct {
		Token string `json:"token" validate:"notblank"`
	}
	method := constraint.MethodDescriptor{Name: "issue", ReturnCascade: true}
	v := constraint.New()
	err := v.ValidateReturnValue(context.Background(), method, result{})
	vs, _ := constraint.AsViolations(err)
	if len(vs) != 1 || vs[0].Path != "/issue/<return>/token" {
		t.Fatalf("cascaded return path: %v", err)
	}
}
