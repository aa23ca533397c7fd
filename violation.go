package constraint

import (
	"errors"
	"fmt"
	"strings"
)

// Engine-level codes reported alongside constraint names. Regular violations
// carry the name of the failed constraint; these cover structural failures
// discovered while validating.
const (
	CodeInvalidTarget = "invalid_target" // value kind not accepted by the constraint
	CodeInvalidValue  = "invalid_value"  // input is not something the engine can validate
)

// Violation records a single failed constraint.
type Violation struct {
	Path       string         // Property path as a JSON Pointer (for example: /items/2/price).
	Constraint string         // Name of the violated constraint (for example: "size").
	Message    string         // Interpolated, possibly localized message.
	Template   string         // Raw message template before interpolation.
	Group      Group          // Group under which the violation was produced.
	Value      any            // The invalid value, best effort.
	Cause      error          // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for message interpolation and observability.
	Params map[string]any
}

// Violations is a collection of violations that implements error.
type Violations []Violation

// Error summarizes the first few violations.
func (vs Violations) Error() string {
	if len(vs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(vs)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		v := vs[i]
		// e.g. size at /name
		fmt.Fprintf(b, "%s at %s", v.Constraint, v.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendViolations appends violations to the destination, initializing the
// slice when needed.
func AppendViolations(dst Violations, more ...Violation) Violations {
	if dst == nil {
		dst = Violations{}
	}
	dst = append(dst, more...)
	return dst
}

// AsViolations extracts Violations from an error using errors.As internally.
func AsViolations(err error) (Violations, bool) {
	if err == nil {
		return nil, false
	}
	var vs Violations
	if errors.As(err, &vs) {
		return vs, true
	}
	return nil, false
}

// rebase prefixes every violation path with base, treating "/" as root.
func (vs Violations) rebase(base string) Violations {
	if base == "" || base == "/" {
		return vs
	}
	out := make(Violations, 0, len(vs))
	for _, v := range vs {
		p := v.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		v.Path = p
		out = append(out, v)
	}
	return out
}
