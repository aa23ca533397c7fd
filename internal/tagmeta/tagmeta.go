// Package tagmeta parses `validate` struct tags into constraint
// declarations. It is string-only on purpose; binding parsed declarations to
// registered constraints happens in the engine.
package tagmeta

import (
	"fmt"
	"strings"
)

// Parsed is one constraint item from a tag, e.g. size=2..14@create|update.
type Parsed struct {
	Name   string
	Arg    string
	Groups []string
}

// FieldTag is the parsed form of one field's `validate` tag.
type FieldTag struct {
	Constraints []Parsed // constraints on the field value
	Cascade     bool     // `valid`: descend into the nested struct
	Dive        bool     // `dive`: element items follow
	Elem        []Parsed // constraints on container elements (after dive)
	ElemCascade bool     // `valid` after dive: descend into each element
}

// Empty reports whether the tag declared nothing.
func (ft FieldTag) Empty() bool {
	return len(ft.Constraints) == 0 && len(ft.Elem) == 0 && !ft.Cascade && !ft.Dive
}

// Parse parses a `validate` tag value. Items are comma-separated; single
// quotes protect commas and separators inside arguments:
//
//	notblank@create,size=2..14,pattern='^[a-z,]+$',dive,notblank
//
// `valid` requests cascading, `dive` switches the remaining items to
// container elements.
func Parse(tag string) (FieldTag, error) {
	var ft FieldTag
	if strings.TrimSpace(tag) == "" {
		return ft, nil
	}
	items, err := splitItems(tag)
	if err != nil {
		return ft, err
	}
	for _, it := range items {
		switch it {
		case "valid":
			if ft.Dive {
				ft.ElemCascade = true
			} else {
				ft.Cascade = true
			}
			continue
		case "dive":
			if ft.Dive {
				return ft, fmt.Errorf("tagmeta: nested dive is not supported")
			}
			ft.Dive = true
			continue
		}
		p, err := parseItem(it)
		if err != nil {
			return ft, err
		}
		if ft.Dive {
			ft.Elem = append(ft.Elem, p)
		} else {
			ft.Constraints = append(ft.Constraints, p)
		}
	}
	return ft, nil
}

// splitItems splits on commas outside single quotes and trims whitespace.
func splitItems(tag string) ([]string, error) {
	var items []string
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == ',' && !inQuote:
			items = appendItem(items, b.String())
			b.Reset()
		default:
			b.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("tagmeta: unterminated quote in %q", tag)
	}
	return appendItem(items, b.String()), nil
}

func appendItem(items []string, raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return items
	}
	return append(items, raw)
}

// parseItem parses name[=arg][@group|group...]. The group suffix is only
// recognized outside quotes.
func parseItem(item string) (Parsed, error) {
	var p Parsed
	rest := item

	// strip the group suffix first
	if at := indexOutsideQuotes(rest, '@'); at >= 0 {
		gs := rest[at+1:]
		rest = rest[:at]
		if gs == "" {
			return p, fmt.Errorf("tagmeta: empty group list in %q", item)
		}
		for _, g := range strings.Split(gs, "|") {
			g = strings.TrimSpace(g)
			if g == "" {
				return p, fmt.Errorf("tagmeta: empty group name in %q", item)
			}
			p.Groups = append(p.Groups, g)
		}
	}

	if eq := indexOutsideQuotes(rest, '='); eq >= 0 {
		p.Name = strings.TrimSpace(rest[:eq])
		p.Arg = unquote(strings.TrimSpace(rest[eq+1:]))
	} else {
		p.Name = strings.TrimSpace(rest)
	}
	if p.Name == "" {
		return p, fmt.Errorf("tagmeta: missing constraint name in %q", item)
	}
	return p, nil
}

func indexOutsideQuotes(s string, target byte) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inQuote = !inQuote
		case s[i] == target && !inQuote:
			return i
		}
	}
	return -1
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}
