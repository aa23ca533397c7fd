package tagmeta

import (
	"reflect"
	"testing"
)

func TestParseBasics(t *testing.T) {
	ft, err := Parse("notblank,size=2..14")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []Parsed{{Name: "notblank"}, {Name: "size", Arg: "2..14"}}
	if !reflect.DeepEqual(ft.Constraints, want) {
		t.Fatalf("constraints = %+v", ft.Constraints)
	}
	if ft.Cascade || ft.Dive {
		t.Fatalf("no markers expected: %+v", ft)
	}
}

func TestParseGroups(t *testing.T) {
	ft, err := Parse("notblank@create,size=2..14@create|update")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(ft.Constraints[0].Groups, []string{"create"}) {
		t.Fatalf("groups[0] = %v", ft.Constraints[0].Groups)
	}
	if !reflect.DeepEqual(ft.Constraints[1].Groups, []string{"create", "update"}) {
		t.Fatalf("groups[1] = %v", ft.Constraints[1].Groups)
	}
}

func TestParseQuotedArgument(t *testing.T) {
	ft, err := Parse("pattern='^[a-z,]{2,14}$',notblank")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(ft.Constraints) != 2 {
		t.Fatalf("quoted comma must not split items: %+v", ft.Constraints)
	}
	if ft.Constraints[0].Arg != "^[a-z,]{2,14}$" {
		t.Fatalf("arg = %q", ft.Constraints[0].Arg)
	}
}

func TestParseCascadeAndDive(t *testing.T) {
	ft, err := Parse("size=1..3,dive,notblank,valid")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(ft.Constraints) != 1 || ft.Constraints[0].Name != "size" {
		t.Fatalf("field constraints: %+v", ft.Constraints)
	}
	if !ft.Dive || len(ft.Elem) != 1 || ft.Elem[0].Name != "notblank" {
		t.Fatalf("elem constraints: %+v", ft)
	}
	if !ft.ElemCascade || ft.Cascade {
		t.Fatalf("valid after dive applies to elements: %+v", ft)
	}

	ft, err = Parse("valid")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ft.Cascade || ft.ElemCascade {
		t.Fatalf("plain valid cascades the field: %+v", ft)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tag := range []string{
		"pattern='unterminated",
		"size=1..3,dive,dive",
		"=nope",
		"notblank@",
		"notblank@a||b",
	} {
		if _, err := Parse(tag); err == nil {
			t.Fatalf("expected error for %q", tag)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	ft, err := Parse("  ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ft.Empty() {
		t.Fatalf("blank tag must parse to empty: %+v", ft)
	}
}
