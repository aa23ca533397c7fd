package constraint

import (
	"fmt"
	"strconv"
	"strings"
)

// Path node labels for non-property segments. They contain no characters that
// require RFC 6901 escaping and render verbatim in pointers.
const (
	nodeReturnValue    = "<return>"
	nodeCrossParameter = "<cross-parameter>"
)

// PathRef builds property paths in a chain-safe way and creates Violations.
// Paths render as JSON Pointers; method-validation nodes use angle-bracket
// labels (<return>, <cross-parameter>).
type PathRef interface {
	// Property descends into a named property of the current node.
	Property(name string) PathRef
	// Index descends into the i-th element of a sequence.
	Index(i int) PathRef
	// Key descends into a map entry by its rendered key.
	Key(k string) PathRef
	// Parameter descends into a method parameter, by name when available.
	Parameter(i int, name string) PathRef
	// ReturnValue descends into a method return value node.
	ReturnValue() PathRef
	// CrossParameter descends into the cross-parameter node of a method.
	CrossParameter() PathRef
	// Pointer renders the path as a JSON Pointer ("/" for root).
	Pointer() string
	// Violation builds a Violation anchored at this path. kv are alternating
	// param key/value pairs.
	Violation(constraint, msg string, kv ...any) Violation
}

// Root returns a PathRef anchored at the document root.
func Root() PathRef { return &pathRef{} }

// At parses a JSON Pointer into a PathRef. Segments are taken verbatim.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return Root()
	}
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return &pathRef{parts: parts}
}

type pathRef struct {
	parts []string
}

func (p *pathRef) extend(seg string) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), seg)}
}

func (p *pathRef) Property(name string) PathRef {
	if name == "" {
		return p
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return p.extend(esc)
}

func (p *pathRef) Index(i int) PathRef { return p.extend(strconv.Itoa(i)) }

func (p *pathRef) Key(k string) PathRef { return p.Property(k) }

func (p *pathRef) Parameter(i int, name string) PathRef {
	if name == "" {
		name = "arg" + strconv.Itoa(i)
	}
	return p.Property(name)
}

func (p *pathRef) ReturnValue() PathRef { return p.extend(nodeReturnValue) }

func (p *pathRef) CrossParameter() PathRef { return p.extend(nodeCrossParameter) }

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

func (p *pathRef) Violation(constraint, msg string, kv ...any) Violation {
	m := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return Violation{Path: p.Pointer(), Constraint: constraint, Message: msg, Params: m}
}
