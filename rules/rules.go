// Package rules provides combinators for struct-level validation rules:
// conditionals over property paths, collection checks, and mutual
// presence/exclusion of fields.
package rules

import (
	"fmt"
	"reflect"
	"strings"

	constraint "github.com/constraintgo/constraint"
)

// Op defines simple comparison operators for If(...).Then(...).
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional composes conditional execution of rules.
type Conditional[T any] struct {
	path string
	op   Op
	want any
	all  []Conditional[T] // composite AND
	any  []Conditional[T] // composite OR
}

// If builds a conditional that evaluates a path against a value using an
// operator. The path is a JSON Pointer like "/status" using exposed keys.
func If[T any](path string, op Op, want any) Conditional[T] {
	return Conditional[T]{path: normalizePath(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll[T any](conds ...Conditional[T]) Conditional[T] { return Conditional[T]{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny[T any](conds ...Conditional[T]) Conditional[T] { return Conditional[T]{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional[T]) And(others ...Conditional[T]) Conditional[T] {
	conds := append([]Conditional[T]{c}, others...)
	return IfAll(conds...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional[T]) Or(others ...Conditional[T]) Conditional[T] {
	conds := append([]Conditional[T]{c}, others...)
	return IfAny(conds...)
}

// Then attaches rules to run when the condition is satisfied.
func (c Conditional[T]) Then(rules ...constraint.Rule[T]) constraint.Rule[T] {
	return func(rc constraint.RuleCtx[T], v T) constraint.Violations {
		if !evalConditional(v, c) {
			return nil
		}
		var all constraint.Violations
		for _, r := range rules {
			if r == nil {
				continue
			}
			if vs := r(rc, v); len(vs) > 0 {
				all = append(all, vs...)
			}
			if len(all) > 0 && constraint.IsFailFast(rc.Ctx) {
				return all
			}
		}
		return all
	}
}

// AtLeastOne ensures the collection at collectionPath has at least 1 element.
func AtLeastOne[T any](collectionPath string) constraint.Rule[T] {
	p := normalizePath(collectionPath)
	return func(rc constraint.RuleCtx[T], v T) constraint.Violations {
		val, ok := valueAtPath(v, p)
		if !ok {
			return nil
		}
		rv := reflect.ValueOf(val)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			if rv.Len() == 0 {
				return constraint.Violations{rc.At(p).Violation(
					constraint.Size, "at least 1 item is required", "min", 1,
				)}
			}
		default:
			// not a collection; stay silent to avoid noise
		}
		return nil
	}
}

// UniqueBy ensures elements in a collection have unique key values.
// collectionPath is a JSON Pointer to a slice field (e.g., "/items").
// keyPath is a relative path inside each element (e.g., "sku" or "/sku").
// Prefer a stable, comparable key type; mixed-type keys may stringify to
// identical values and cause false positives.
func UniqueBy[T any](collectionPath, keyPath string) constraint.Rule[T] {
	cp := normalizePath(collectionPath)
	kp := strings.TrimPrefix(keyPath, "/")
	return func(rc constraint.RuleCtx[T], v T) constraint.Violations {
		val, ok := valueAtPath(v, cp)
		if !ok {
			return nil
		}
		rv := reflect.ValueOf(val)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		seen := map[string]int{}
		var out constraint.Violations
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			kv, ok := valueAtPathWithin(elem, kp)
			if !ok {
				continue
			}
			key := fmt.Sprint(kv)
			if j, dup := seen[key]; dup {
				out = append(out, rc.At(cp).Index(i).Property(kp).Violation(
					"unique", "duplicate value",
					"first", j, "dup", i, "key", key,
				))
			} else {
				seen[key] = i
			}
		}
		return out
	}
}

// MutuallyExclusive fails when more than one of the given paths holds a
// non-zero value.
func MutuallyExclusive[T any](paths ...string) constraint.Rule[T] {
	norm := make([]string, len(paths))
	for i, p := range paths {
		norm[i] = normalizePath(p)
	}
	return func(rc constraint.RuleCtx[T], v T) constraint.Violations {
		var set []string
		for _, p := range norm {
			if val, ok := valueAtPath(v, p); ok && !isZero(val) {
				set = append(set, p)
			}
		}
		if len(set) <= 1 {
			return nil
		}
		var out constraint.Violations
		for _, p := range set {
			out = append(out, rc.At(p).Violation(
				"exclusive", "only one of these fields may be set",
				"fields", strings.Join(norm, " "),
			))
		}
		return out
	}
}

// RequiredTogether fails when some but not all of the given paths hold
// non-zero values.
func RequiredTogether[T any](paths ...string) constraint.Rule[T] {
	norm := make([]string, len(paths))
	for i, p := range paths {
		norm[i] = normalizePath(p)
	}
	return func(rc constraint.RuleCtx[T], v T) constraint.Violations {
		set := 0
		for _, p := range norm {
			if val, ok := valueAtPath(v, p); ok && !isZero(val) {
				set++
			}
		}
		if set == 0 || set == len(norm) {
			return nil
		}
		var out constraint.Violations
		for _, p := range norm {
			if val, ok := valueAtPath(v, p); !ok || isZero(val) {
				out = append(out, rc.At(p).Violation(
					"required_together", "must be set together with its companions",
					"fields", strings.Join(norm, " "),
				))
			}
		}
		return out
	}
}

// ---------- rule combinators ----------

// And executes all rules and concatenates violations, short-circuiting under
// fail-fast.
func And[T any](rules ...constraint.Rule[T]) constraint.Rule[T] {
	return func(rc constraint.RuleCtx[T], v T) constraint.Violations {
		var out constraint.Violations
		for _, r := range rules {
			if r == nil {
				continue
			}
			if vs := r(rc, v); len(vs) > 0 {
				out = append(out, vs...)
				if constraint.IsFailFast(rc.Ctx) {
					return out
				}
			}
		}
		return out
	}
}

// Or succeeds if any rule returns no violations; when all fail it returns
// the branch with the fewest violations.
func Or[T any](rules ...constraint.Rule[T]) constraint.Rule[T] {
	return func(rc constraint.RuleCtx[T], v T) constraint.Violations {
		var best constraint.Violations
		bestSet := false
		for _, r := range rules {
			if r == nil {
				continue
			}
			vs := r(rc, v)
			if len(vs) == 0 {
				return nil
			}
			if !bestSet || len(vs) < len(best) {
				best = vs
				bestSet = true
			}
		}
		if bestSet {
			return best
		}
		return nil
	}
}

// ------- helpers -------

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

func evalConditional[T any](v T, c Conditional[T]) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !evalConditional(v, it) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if evalConditional(v, it) {
				return true
			}
		}
		return false
	}
	cur, ok := valueAtPath(v, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// valueAtPath navigates v (struct/map) by JSON Pointer using exposed keys
// for struct fields.
func valueAtPath[T any](v T, pointer string) (any, bool) {
	return valueAtPathWithin(v, strings.TrimPrefix(pointer, "/"))
}

func valueAtPathWithin(v any, rel string) (any, bool) {
	if rel == "" {
		return v, true
	}
	cur := reflect.ValueOf(v)
	parts := strings.Split(rel, "/")
	for _, seg := range parts {
		if !cur.IsValid() {
			return nil, false
		}
		if cur.Kind() == reflect.Pointer {
			if cur.IsNil() {
				return nil, false
			}
			cur = cur.Elem()
		}
		switch cur.Kind() {
		case reflect.Struct:
			found := false
			rt := cur.Type()
			for i := 0; i < rt.NumField(); i++ {
				sf := rt.Field(i)
				if !sf.IsExported() {
					continue
				}
				if constraint.ResolveStructKey(sf) == seg {
					cur = cur.Field(i)
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		case reflect.Map:
			mv := cur.MapIndex(reflect.ValueOf(seg))
			if !mv.IsValid() {
				return nil, false
			}
			cur = mv
		case reflect.Slice, reflect.Array:
			idx, ok := tryParseInt(seg)
			if !ok {
				return nil, false
			}
			if idx < 0 || idx >= cur.Len() {
				return nil, false
			}
			cur = cur.Index(idx)
		default:
			return nil, false
		}
	}
	if cur.Kind() == reflect.Pointer && !cur.IsNil() {
		cur = cur.Elem()
	}
	return cur.Interface(), true
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return reflect.DeepEqual(cur, want)
	case Ne:
		return !reflect.DeepEqual(cur, want)
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, op, want)
	default:
		return false
	}
}

func compareOrdered(cur any, op Op, want any) bool {
	c := reflect.ValueOf(cur)
	w := reflect.ValueOf(want)
	if isIntLike(c.Kind()) && isIntLike(w.Kind()) {
		a := toInt64(c)
		b := toInt64(w)
		switch op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
	}
	if isFloatLike(c.Kind()) && isFloatLike(w.Kind()) {
		a := c.Float()
		b := w.Float()
		switch op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
	}
	return false
}

func isIntLike(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isFloatLike(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func toInt64(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return 0
	}
}

func isZero(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return true
	}
	return rv.IsZero()
}

func tryParseInt(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n, true
}
