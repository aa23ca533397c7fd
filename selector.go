package constraint

import "reflect"

// FieldToken identifies a top-level struct field of T by its exposed key.
// Obtain it via FieldOf to keep compile-time linkage to the struct field.
type FieldToken[T any] struct {
	key string
}

// Key returns the exposed key associated with this field token.
func (t FieldToken[T]) Key() string { return t.key }

// FieldPathToken identifies a nested struct field path of T by exposed keys,
// top-level first. Produced by PathOf.
type FieldPathToken[T any] struct {
	keys []string
}

// Keys returns the key path segments.
func (t FieldPathToken[T]) Keys() []string { return append([]string(nil), t.keys...) }

// FieldOf builds a FieldToken for a top-level field of T. The selector must
// return the address of a top-level field, e.g.:
//
//	FieldOf[Order](func(o *Order) *string { return &o.Status })
//
// This guarantees compile-time errors if the field is renamed or removed.
func FieldOf[T any, F any](selector func(*T) *F) FieldToken[T] {
	if selector == nil {
		panic("constraint.FieldOf: selector must not be nil")
	}
	var zero T
	fp := reflect.ValueOf(selector(&zero)).Pointer()

	rv := reflect.ValueOf(&zero).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		fv := rv.Field(i)
		if !fv.CanAddr() {
			continue
		}
		if fv.Addr().Pointer() == fp {
			name := ResolveStructKey(rt.Field(i))
			if name == "" || name == "-" {
				panic("constraint.FieldOf: selected field is not exported or disabled")
			}
			return FieldToken[T]{key: name}
		}
	}
	panic("constraint.FieldOf: selector must return address of a top-level field of T")
}

// PathOf builds a FieldPathToken for an arbitrary nested field of T.
//
//	PathOf[Order, string](func(o *Order) *string { return &o.Customer.ID })
//
// Only non-pointer struct hops are supported.
func PathOf[T any, F any](selector func(*T) *F) FieldPathToken[T] {
	if selector == nil {
		panic("constraint.PathOf: selector must not be nil")
	}
	var zero T
	target := reflect.ValueOf(selector(&zero)).Pointer()
	keys, ok := findPathKeys(reflect.ValueOf(&zero).Elem(), target, 0)
	if !ok || len(keys) == 0 {
		panic("constraint.PathOf: selector must address a nested struct field (non-pointer)")
	}
	return FieldPathToken[T]{keys: keys}
}

const _maxPathDepth = 32

func findPathKeys(v reflect.Value, target uintptr, depth int) ([]string, bool) {
	if depth > _maxPathDepth {
		return nil, false
	}
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := v.Field(i)
		if fv.CanAddr() && fv.Addr().Pointer() == target {
			name := ResolveStructKey(sf)
			if name == "" || name == "-" {
				return nil, false
			}
			return []string{name}, true
		}
		if fv.Kind() == reflect.Struct {
			if rest, ok := findPathKeys(fv, target, depth+1); ok {
				name := ResolveStructKey(sf)
				if name == "" || name == "-" {
					return nil, false
				}
				return append([]string{name}, rest...), true
			}
		}
	}
	return nil, false
}

// Path returns a PathRef anchored at the given top-level field token. This
// is the typed alternative to At("/field") in struct-level rules.
func (rc RuleCtx[T]) Path(field FieldToken[T]) PathRef {
	return Root().Property(field.key)
}

// PathTo returns a PathRef anchored at the given nested field token.
func (rc RuleCtx[T]) PathTo(token FieldPathToken[T]) PathRef {
	pr := Root()
	for _, k := range token.keys {
		pr = pr.Property(k)
	}
	return pr
}
