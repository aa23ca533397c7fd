// Package constraint implements a declarative constraint-validation engine.
//
// Constraints are declared on struct fields via `validate` tags (or
// programmatically through descriptors), resolved against a registry of
// constraint definitions, and evaluated by a Validator that reports failures
// as Violations with JSON-Pointer-style property paths.
//
// The engine supports validation groups and ordered group sequences,
// cascaded validation of nested structs and container elements, composed
// constraints (optionally collapsed into a single reported violation),
// cross-parameter method constraints, and localized message interpolation.
//
// The companion tool cmd/constraintcheck statically inspects Go source for
// illegal constraint placement without executing any validation.
package constraint
