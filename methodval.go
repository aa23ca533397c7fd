package constraint

import (
	"context"
	"fmt"
)

// ParamDescriptor declares constraints for one method parameter.
type ParamDescriptor struct {
	Name        string
	Constraints []Descriptor
	Cascade     bool // validate the argument as a nested struct
}

// MethodDescriptor declares the validated surface of a method or
// constructor: per-parameter constraints, cross-parameter constraints
// evaluated over the whole argument list, and return-value constraints.
type MethodDescriptor struct {
	Name          string
	Params        []ParamDescriptor
	CrossParams   []Descriptor
	Returns       []Descriptor
	ReturnCascade bool
}

// ValidateParameters validates the argument list of a call against the
// method descriptor. Per-parameter constraints run first, then
// cross-parameter constraints against the full argument slice at the
// <cross-parameter> node.
func (v *Validator) ValidateParameters(ctx context.Context, method MethodDescriptor, args []any, groups ...Group) error {
	if len(args) != len(method.Params) {
		return fmt.Errorf("constraint: %s: got %d arguments, descriptor declares %d", method.Name, len(args), len(method.Params))
	}
	base := Root().Property(method.Name)
	for _, phase := range phases(groups, v.sequences) {
		var out Violations
		for i, p := range method.Params {
			ppath := base.Parameter(i, p.Name)
			for _, d := range p.Constraints {
				g, ok := memberOfAny(d, phase)
				if !ok {
					continue
				}
				vs, err := v.check(ctx, d, g, ppath, args[i])
				if err != nil {
					return err
				}
				out = AppendViolations(out, vs...)
				if len(out) > 0 && IsFailFast(ctx) {
					return out
				}
			}
			if p.Cascade && !IsNil(args[i]) {
				if err := v.ValidateStruct(ctx, args[i], phase...); err != nil {
					vs, ok := AsViolations(err)
					if !ok {
						return err
					}
					out = AppendViolations(out, vs.rebase(ppath.Pointer())...)
					if IsFailFast(ctx) {
						return out
					}
				}
			}
		}
		cpPath := base.CrossParameter()
		for _, d := range method.CrossParams {
			g, ok := memberOfAny(d, phase)
			if !ok {
				continue
			}
			if err := v.requireTarget(d, TargetCrossParameter, cpPath); err != nil {
				return err
			}
			vs, err := v.check(ctx, d, g, cpPath, args)
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

// ValidateReturnValue validates a method's return value at the <return>
// node, cascading into it when the descriptor says so.
func (v *Validator) ValidateReturnValue(ctx context.Context, method MethodDescriptor, ret any, groups ...Group) error {
	rpath := Root().Property(method.Name).ReturnValue()
	for _, phase := range phases(groups, v.sequences) {
		var out Violations
		for _, d := range method.Returns {
			g, ok := memberOfAny(d, phase)
			if !ok {
				continue
			}
			vs, err := v.check(ctx, d, g, rpath, ret)
			if err != nil {
				return err
			}
			out = AppendViolations(out, vs...)
			if len(out) > 0 && IsFailFast(ctx) {
				return out
			}
		}
		if method.ReturnCascade && !IsNil(ret) {
			if err := v.ValidateStruct(ctx, ret, phase...); err != nil {
				vs, ok := AsViolations(err)
				if !ok {
					return err
				}
				out = AppendViolations(out, vs.rebase(rpath.Pointer())...)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// requireTarget rejects declarations whose definition does not allow the
// target they are placed on.
func (v *Validator) requireTarget(d Descriptor, t Target, path PathRef) error {
	def, ok := v.registry.Lookup(d.Name)
	if !ok {
		return fmt.Errorf("constraint: unknown constraint %q at %s", d.Name, path.Pointer())
	}
	if !def.AllowsTarget(t) {
		return fmt.Errorf("constraint %q at %s: not a cross-parameter constraint", d.Name, path.Pointer())
	}
	return nil
}
