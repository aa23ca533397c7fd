package constraint

import (
	"context"
	"fmt"

	"github.com/constraintgo/constraint/messages"
)

// check evaluates one declaration against a value at the given path. It
// expands compositions depth-first, runs the definition's own checker, and
// applies report-as-single collapsing. Engine-level declaration problems
// (unknown constraint, factory rejection, a checker that disabled the
// default violation without adding a custom one) surface as plain errors,
// not Violations.
func (v *Validator) check(ctx context.Context, desc Descriptor, group Group, path PathRef, value any) (Violations, error) {
	def, ok := v.registry.Lookup(desc.Name)
	if !ok {
		return nil, fmt.Errorf("constraint: unknown constraint %q at %s", desc.Name, path.Pointer())
	}

	var out Violations

	// Constituents run first; they inherit the composite's match, so no
	// group re-filtering happens here.
	for _, sub := range def.Composes {
		vs, err := v.check(ctx, sub, group, path, value)
		if err != nil {
			return nil, err
		}
		if len(vs) > 0 {
			out = AppendViolations(out, vs...)
			if IsFailFast(ctx) && !def.ReportAsSingle {
				return out, nil
			}
		}
	}

	if def.New != nil {
		vs, err := v.checkOwn(ctx, def, desc, group, path, value)
		if err != nil {
			return nil, err
		}
		out = AppendViolations(out, vs...)
	}

	if def.ReportAsSingle && len(out) > 0 {
		tmpl := v.template(def, desc)
		params := map[string]any{"value": value}
		return Violations{{
			Path:       path.Pointer(),
			Constraint: def.Name,
			Message:    messages.Interpolate(tmpl, params),
			Template:   tmpl,
			Group:      group,
			Value:      value,
			Params:     params,
		}}, nil
	}
	return out, nil
}

// checkOwn runs the definition's own checker for the declaration.
func (v *Validator) checkOwn(ctx context.Context, def Definition, desc Descriptor, group Group, path PathRef, value any) (Violations, error) {
	cmp, err := v.compiled(def, desc)
	if err != nil {
		return nil, fmt.Errorf("constraint %q at %s: %w", desc.Name, path.Pointer(), err)
	}

	// nil passes every constraint except the null-aware ones
	if IsNil(value) {
		if !def.NilAware {
			return nil, nil
		}
	} else if !def.AppliesTo(ClassesOf(value)...) {
		params := map[string]any{"constraint": desc.Name, "value": value}
		tmpl := v.resolver.Template(CodeInvalidTarget)
		return Violations{{
			Path:       path.Pointer(),
			Constraint: CodeInvalidTarget,
			Message:    messages.Interpolate(tmpl, params),
			Template:   tmpl,
			Group:      group,
			Value:      value,
			Params:     params,
		}}, nil
	}

	vctx := newValidationContext(desc, path, cmp.Params)
	if cmp.Checker.Check(ctx, vctx, value) {
		return nil, nil
	}

	if vctx.defaultDisabled && len(vctx.custom) == 0 {
		return nil, fmt.Errorf("constraint %q at %s: default violation disabled but no custom violation added", desc.Name, path.Pointer())
	}

	var out Violations
	if !vctx.defaultDisabled {
		tmpl := v.template(def, desc)
		params := make(map[string]any, len(cmp.Params)+1)
		for k, pv := range cmp.Params {
			params[k] = pv
		}
		params["value"] = value
		out = AppendViolations(out, Violation{
			Path:       path.Pointer(),
			Constraint: desc.Name,
			Message:    messages.Interpolate(tmpl, params),
			Template:   tmpl,
			Group:      group,
			Value:      value,
			Params:     params,
		})
	}
	for _, c := range vctx.custom {
		out = AppendViolations(out, Violation{
			Path:       c.path.Pointer(),
			Constraint: desc.Name,
			Message:    messages.Interpolate(c.template, c.params),
			Template:   c.template,
			Group:      group,
			Value:      value,
			Params:     c.params,
		})
	}
	return out, nil
}

// template picks the message template: declaration override, then locale
// catalog, then the definition default.
func (v *Validator) template(def Definition, desc Descriptor) string {
	if desc.Template != "" {
		return desc.Template
	}
	if t := v.resolver.Template(def.Name); t != "" {
		return t
	}
	return def.Template
}

// compiled returns the checker for a declaration, memoized by constraint
// name and argument.
func (v *Validator) compiled(def Definition, desc Descriptor) (Compiled, error) {
	key := desc.Name + "\x00" + desc.Arg
	if c, ok := v.compileCache.Load(key); ok {
		return c.(Compiled), nil
	}
	cmp, err := def.New(desc)
	if err != nil {
		return Compiled{}, err
	}
	v.compileCache.Store(key, cmp)
	return cmp, nil
}
