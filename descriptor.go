package constraint

import (
	"context"
	"reflect"
	"time"
)

// Target distinguishes what a constraint declaration is evaluated against.
type Target uint8

const (
	TargetElement        Target = iota // a single value: field, parameter, or return value
	TargetCrossParameter               // the full parameter list of a method
)

// ValueClass groups Go kinds into the classes a constraint definition can
// declare itself applicable to. A runtime value may belong to several
// classes (a string is both ClassString and ClassContainer for length
// purposes).
type ValueClass uint8

const (
	ClassAny       ValueClass = iota // applies to every value
	ClassString                      // string kinds
	ClassNumeric                     // integer and float kinds
	ClassContainer                   // slice, array, map, string (len-measurable)
	ClassBool                        // bool kind
	ClassTime                        // time.Time
)

// Descriptor is a single declared use of a constraint: the constraint name
// plus the declaration-site configuration (argument, groups, message
// template override).
type Descriptor struct {
	Name     string  // registered constraint name, e.g. "size"
	Arg      string  // raw declaration argument, e.g. "2..14"; "" when none
	Groups   []Group // group membership; empty means Default
	Template string  // message template override; "" uses the definition default
}

// MemberOf reports whether the descriptor participates in the given group.
// A descriptor with no explicit groups belongs to Default only.
func (d Descriptor) MemberOf(g Group) bool {
	if len(d.Groups) == 0 {
		return g == Default
	}
	for _, own := range d.Groups {
		if own == g {
			return true
		}
	}
	return false
}

// Checker evaluates whether a value satisfies one constraint. Returning
// false produces the constraint's default violation unless the
// ValidationContext was used to disable it and add custom ones.
type Checker interface {
	Check(ctx context.Context, vctx *ValidationContext, value any) bool
}

// CheckerFunc adapts a plain function to the Checker interface.
type CheckerFunc func(ctx context.Context, vctx *ValidationContext, value any) bool

func (f CheckerFunc) Check(ctx context.Context, vctx *ValidationContext, value any) bool {
	return f(ctx, vctx, value)
}

// Compiled is a checker instantiated for one declaration site, together with
// the parameters derived from its argument (used for message interpolation).
type Compiled struct {
	Checker Checker
	Params  map[string]any
}

// Definition describes a registered constraint: which targets and value
// classes it accepts, its default message template, its composition, and the
// factory that compiles a declaration into a Checker.
type Definition struct {
	Name     string
	Targets  []Target     // allowed targets; nil means element only
	Applies  []ValueClass // accepted value classes; nil means ClassAny
	Template string       // default message template, e.g. "must be between {min} and {max}"
	// NilAware checkers receive nil values; all others treat nil as valid
	// (only null-checking constraints inspect absence).
	NilAware bool
	// Composes lists constituent constraints expanded before this
	// definition's own checker runs.
	Composes []Descriptor
	// ReportAsSingle collapses constituent violations into one violation
	// carrying this definition's name and template.
	ReportAsSingle bool
	// New compiles a declaration into a Checker. It must reject malformed
	// arguments. May be nil for purely composed constraints.
	New func(d Descriptor) (Compiled, error)
}

// AllowsTarget reports whether the definition may be declared for the target.
func (def Definition) AllowsTarget(t Target) bool {
	if len(def.Targets) == 0 {
		return t == TargetElement
	}
	for _, own := range def.Targets {
		if own == t {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the definition accepts any of the value classes.
func (def Definition) AppliesTo(classes ...ValueClass) bool {
	if len(def.Applies) == 0 {
		return true
	}
	for _, a := range def.Applies {
		if a == ClassAny {
			return true
		}
		for _, c := range classes {
			if a == c {
				return true
			}
		}
	}
	return false
}

var timeType = reflect.TypeOf(time.Time{})

// ClassesOf computes the value classes of a concrete value after pointer and
// interface indirection. Nil yields no classes.
func ClassesOf(v any) []ValueClass {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	if rv.Type() == timeType {
		return []ValueClass{ClassTime}
	}
	switch rv.Kind() {
	case reflect.String:
		return []ValueClass{ClassString, ClassContainer}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return []ValueClass{ClassNumeric}
	case reflect.Slice, reflect.Array, reflect.Map:
		return []ValueClass{ClassContainer}
	case reflect.Bool:
		return []ValueClass{ClassBool}
	default:
		return nil
	}
}

// IsNil reports whether the value is nil or a nil pointer/interface/slice/map.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
