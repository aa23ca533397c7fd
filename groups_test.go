package constraint

import (
	"reflect"
	"testing"
)

func TestPhasesDefaultsWhenEmpty(t *testing.T) {
	got := phases(nil, nil)
	want := [][]Group{{Default}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("phases(nil) = %v, want %v", got, want)
	}
}

func TestPhasesMergesPlainGroupsAndDedupes(t *testing.T) {
	got := phases([]Group{"create", "update", "create"}, nil)
	want := [][]Group{{"create", "update"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("phases = %v, want %v", got, want)
	}
}

func TestPhasesExpandsSequences(t *testing.T) {
	seqs := map[Group][]Group{"signup": {"basic", "advanced"}}
	got := phases([]Group{"audit", "signup"}, seqs)
	want := [][]Group{{"audit"}, {"basic"}, {"advanced"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("phases = %v, want %v", got, want)
	}
}

func TestDescriptorMemberOf(t *testing.T) {
	d := Descriptor{Name: "size"}
	if !d.MemberOf(Default) {
		t.Fatalf("group-less descriptor must belong to Default")
	}
	if d.MemberOf("create") {
		t.Fatalf("group-less descriptor must not belong to create")
	}
	d.Groups = []Group{"create"}
	if d.MemberOf(Default) {
		t.Fatalf("explicit groups drop Default membership")
	}
	if !d.MemberOf("create") {
		t.Fatalf("expected create membership")
	}
}
