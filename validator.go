package constraint

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/constraintgo/constraint/internal/tagmeta"
	"github.com/constraintgo/constraint/messages"
)

// Validator evaluates declared constraints against values. It is safe for
// concurrent use; construct once and share.
type Validator struct {
	registry  *Registry
	resolver  messages.Resolver
	sequences map[Group][]Group

	mu    sync.Mutex
	rules map[reflect.Type][]boundRule

	metaCache    sync.Map // reflect.Type -> *structMeta
	compileCache sync.Map // "name\x00arg" -> Compiled
}

// New builds a Validator backed by the default registry and the English
// message catalog unless options say otherwise.
func New(opts ...Option) *Validator {
	v := &Validator{
		registry:  defaultRegistry,
		resolver:  messages.Default(),
		sequences: map[Group][]Group{},
		rules:     map[reflect.Type][]boundRule{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateStruct validates the exported fields of s (a struct or pointer to
// struct) against their `validate` tags, cascading where declared, then runs
// registered struct-level rules. With no groups the Default group is
// validated; sequence names expand into ordered phases that stop at the
// first failing phase.
func (v *Validator) ValidateStruct(ctx context.Context, s any, groups ...Group) error {
	rv := reflect.ValueOf(s)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Violations{Root().Violation(CodeInvalidValue, "value must not be nil")}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Violations{Root().Violation(CodeInvalidValue, fmt.Sprintf("expected struct, got %T", s))}
	}
	for _, phase := range phases(groups, v.sequences) {
		vs, err := v.validateStruct(ctx, rv, Root(), phase, map[uintptr]bool{})
		if err != nil {
			return err
		}
		if len(vs) > 0 {
			return vs
		}
	}
	return nil
}

// ValidateValue checks a single value against a constraint expression in tag
// syntax, e.g. "notblank,size=2..14". Cascading markers are rejected.
func (v *Validator) ValidateValue(ctx context.Context, expr string, value any, groups ...Group) error {
	ft, err := tagmeta.Parse(expr)
	if err != nil {
		return err
	}
	if ft.Cascade || ft.Dive {
		return fmt.Errorf("constraint: %q: cascading is not applicable to single values", expr)
	}
	descs := toDescriptors(ft.Constraints)
	for _, phase := range phases(groups, v.sequences) {
		var out Violations
		for _, d := range descs {
			g, ok := memberOfAny(d, phase)
			if !ok {
				continue
			}
			vs, err := v.check(ctx, d, g, Root(), value)
			if err != nil {
				return err
			}
			out = AppendViolations(out, vs...)
			if len(out) > 0 && IsFailFast(ctx) {
				return out
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// validateStruct walks one struct value. Fields are visited in sorted key
// order so violation ordering is deterministic.
func (v *Validator) validateStruct(ctx context.Context, rv reflect.Value, path PathRef, groups []Group, visited map[uintptr]bool) (Violations, error) {
	meta, err := v.metaFor(rv.Type())
	if err != nil {
		return nil, err
	}
	var out Violations
	for _, fm := range meta.fields {
		fv := rv.Field(fm.index)
		fpath := path.Property(fm.key)
		value := fv.Interface()

		for _, d := range fm.constraints {
			g, ok := memberOfAny(d, groups)
			if !ok {
				continue
			}
			vs, err := v.check(ctx, d, g, fpath, value)
			if err != nil {
				return nil, err
			}
			out = AppendViolations(out, vs...)
			if len(out) > 0 && IsFailFast(ctx) {
				return out, nil
			}
		}

		if fm.tag.Dive {
			vs, err := v.validateElements(ctx, fv, fpath, fm, groups, visited)
			if err != nil {
				return nil, err
			}
			out = AppendViolations(out, vs...)
			if len(out) > 0 && IsFailFast(ctx) {
				return out, nil
			}
		}

		if fm.tag.Cascade {
			vs, err := v.cascade(ctx, fv, fpath, groups, visited)
			if err != nil {
				return nil, err
			}
			out = AppendViolations(out, vs...)
			if len(out) > 0 && IsFailFast(ctx) {
				return out, nil
			}
		}
	}

	// struct-level rules belong to the Default group
	if hasGroup(groups, Default) {
		vs := v.runRules(ctx, rv)
		out = AppendViolations(out, vs.rebase(path.Pointer())...)
	}
	return out, nil
}

// validateElements applies element constraints (and element cascading) to
// the contents of a slice, array, or map field marked `dive`.
func (v *Validator) validateElements(ctx context.Context, fv reflect.Value, fpath PathRef, fm fieldMeta, groups []Group, visited map[uintptr]bool) (Violations, error) {
	rv := fv
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	var out Violations
	checkElem := func(epath PathRef, ev reflect.Value) error {
		value := ev.Interface()
		for _, d := range fm.elem {
			g, ok := memberOfAny(d, groups)
			if !ok {
				continue
			}
			vs, err := v.check(ctx, d, g, epath, value)
			if err != nil {
				return err
			}
			out = AppendViolations(out, vs...)
		}
		if fm.tag.ElemCascade {
			vs, err := v.cascade(ctx, ev, epath, groups, visited)
			if err != nil {
				return err
			}
			out = AppendViolations(out, vs...)
		}
		return nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := checkElem(fpath.Index(i), rv.Index(i)); err != nil {
				return nil, err
			}
			if len(out) > 0 && IsFailFast(ctx) {
				return out, nil
			}
		}
	case reflect.Map:
		// sorted by rendered key for deterministic violation order
		keys := rv.MapKeys()
		rendered := make([]string, len(keys))
		byKey := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			rendered[i] = fmt.Sprint(k.Interface())
			byKey[rendered[i]] = k
		}
		sort.Strings(rendered)
		for _, ks := range rendered {
			if err := checkElem(fpath.Key(ks), rv.MapIndex(byKey[ks])); err != nil {
				return nil, err
			}
			if len(out) > 0 && IsFailFast(ctx) {
				return out, nil
			}
		}
	default:
		return nil, fmt.Errorf("constraint: dive at %s: field is not a slice, array, or map", fpath.Pointer())
	}
	return out, nil
}

// cascade descends into a nested struct value (`valid`). Nil pointers are
// skipped; pointer cycles terminate via the visited set.
func (v *Validator) cascade(ctx context.Context, fv reflect.Value, fpath PathRef, groups []Group, visited map[uintptr]bool) (Violations, error) {
	rv := fv
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Kind() == reflect.Pointer {
			ptr := rv.Pointer()
			if visited[ptr] {
				return nil, nil
			}
			visited[ptr] = true
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("constraint: valid at %s: field is not a struct", fpath.Pointer())
	}
	vs, err := v.validateStruct(ctx, rv, fpath, groups, visited)
	if err != nil {
		return nil, err
	}
	return vs, nil
}

// ---- per-type metadata ----

type structMeta struct {
	fields []fieldMeta
}

type fieldMeta struct {
	index       int
	key         string
	tag         tagmeta.FieldTag
	constraints []Descriptor
	elem        []Descriptor
}

func (v *Validator) metaFor(t reflect.Type) (*structMeta, error) {
	if m, ok := v.metaCache.Load(t); ok {
		return m.(*structMeta), nil
	}
	meta := &structMeta{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		raw, ok := sf.Tag.Lookup("validate")
		if !ok {
			continue
		}
		ft, err := tagmeta.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("constraint: %s.%s: %w", t.Name(), sf.Name, err)
		}
		if ft.Empty() {
			continue
		}
		key := ResolveStructKey(sf)
		if key == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldMeta{
			index:       i,
			key:         key,
			tag:         ft,
			constraints: toDescriptors(ft.Constraints),
			elem:        toDescriptors(ft.Elem),
		})
	}
	sort.Slice(meta.fields, func(i, j int) bool { return meta.fields[i].key < meta.fields[j].key })
	v.metaCache.Store(t, meta)
	return meta, nil
}

func toDescriptors(ps []tagmeta.Parsed) []Descriptor {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Descriptor, 0, len(ps))
	for _, p := range ps {
		d := Descriptor{Name: p.Name, Arg: p.Arg}
		for _, g := range p.Groups {
			d.Groups = append(d.Groups, Group(g))
		}
		out = append(out, d)
	}
	return out
}

func hasGroup(groups []Group, g Group) bool {
	for _, own := range groups {
		if own == g {
			return true
		}
	}
	return false
}

// ResolveStructKey resolves a struct field's external key used in property
// paths. Priority: json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := indexByte(jt, ','); i >= 0 {
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// ---- struct-level rules ----

type boundRule struct {
	name string
	fn   func(ctx context.Context, value any) Violations
}

// RuleCtx carries execution context into typed struct-level rules.
type RuleCtx[T any] struct {
	Ctx context.Context
}

// Root returns a PathRef anchored at the struct being validated.
func (RuleCtx[T]) Root() PathRef { return Root() }

// At returns a PathRef for a JSON Pointer relative to the struct.
func (RuleCtx[T]) At(path string) PathRef { return At(path) }

// Rule is a typed struct-level rule producing zero or more violations.
type Rule[T any] func(RuleCtx[T], T) Violations

// AddRules registers struct-level rules for T on the validator. Rules run
// after field constraints whenever the Default group is validated, and their
// violation paths are interpreted relative to the validated struct.
func AddRules[T any](v *Validator, rules ...Rule[T]) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	bound := make([]boundRule, 0, len(rules))
	for _, r := range rules {
		if r == nil {
			continue
		}
		r := r
		bound = append(bound, boundRule{
			fn: func(ctx context.Context, value any) Violations {
				tv, ok := value.(T)
				if !ok {
					return nil
				}
				return r(RuleCtx[T]{Ctx: ctx}, tv)
			},
		})
	}
	v.mu.Lock()
	v.rules[t] = append(v.rules[t], bound...)
	v.mu.Unlock()
}

func (v *Validator) runRules(ctx context.Context, rv reflect.Value) Violations {
	v.mu.Lock()
	rules := v.rules[rv.Type()]
	v.mu.Unlock()
	if len(rules) == 0 {
		return nil
	}
	value := rv.Interface()
	var out Violations
	for _, r := range rules {
		vs := r.fn(ctx, value)
		if len(vs) > 0 {
			out = AppendViolations(out, vs...)
			if IsFailFast(ctx) {
				return out
			}
		}
	}
	return out
}
