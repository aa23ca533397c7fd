package constraint

// Group names a validation group. Constraints declare membership; callers
// request the groups to validate.
type Group string

// Default is the group validated when no groups are requested and the group
// constraints without explicit membership belong to.
const Default Group = "default"

// Sequence is an ordered list of groups. Validating a sequence evaluates its
// groups in order and stops at the first group that produces violations, so
// cheap or fundamental constraints can gate expensive ones.
type Sequence struct {
	Name   Group
	Groups []Group
}

// phases expands the requested groups into ordered evaluation phases using
// the known sequences. Plain groups merge into a single leading phase;
// each sequence contributes its ordered groups as separate phases.
func phases(requested []Group, sequences map[Group][]Group) [][]Group {
	if len(requested) == 0 {
		requested = []Group{Default}
	}
	var plain []Group
	var out [][]Group
	seen := map[Group]struct{}{}
	for _, g := range requested {
		if seq, ok := sequences[g]; ok {
			for _, sg := range seq {
				out = append(out, []Group{sg})
			}
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		plain = append(plain, g)
	}
	if len(plain) > 0 {
		out = append([][]Group{plain}, out...)
	}
	return out
}

// memberOfAny reports whether the descriptor belongs to at least one of the
// groups.
func memberOfAny(d Descriptor, groups []Group) (Group, bool) {
	for _, g := range groups {
		if d.MemberOf(g) {
			return g, true
		}
	}
	return "", false
}
