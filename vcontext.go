package constraint

// ValidationContext is handed to checkers so they can replace the default
// violation with custom ones: disable the default message and build
// violations with their own templates and property paths.
type ValidationContext struct {
	desc   Descriptor
	path   PathRef
	params map[string]any

	defaultDisabled bool
	custom          []pendingViolation
}

type pendingViolation struct {
	template string
	path     PathRef
	params   map[string]any
}

func newValidationContext(desc Descriptor, path PathRef, params map[string]any) *ValidationContext {
	return &ValidationContext{desc: desc, path: path, params: params}
}

// Descriptor returns the declaration being checked.
func (c *ValidationContext) Descriptor() Descriptor { return c.desc }

// Path returns the property path of the element under validation.
func (c *ValidationContext) Path() PathRef { return c.path }

// Param returns a parameter derived from the declaration argument (e.g.
// "min", "max", "pattern").
func (c *ValidationContext) Param(name string) (any, bool) {
	v, ok := c.params[name]
	return v, ok
}

// DisableDefaultViolation suppresses the constraint's default violation.
// A checker that disables the default and returns false must add at least
// one custom violation, otherwise validation fails with an engine error.
func (c *ValidationContext) DisableDefaultViolation() { c.defaultDisabled = true }

// BuildViolation starts a custom violation with the given message template.
// The violation is anchored at the element path unless relocated with At or
// AtProperty, and only materializes when the checker returns false.
func (c *ValidationContext) BuildViolation(template string) *ViolationBuilder {
	return &ViolationBuilder{ctx: c, template: template, path: c.path}
}

// ViolationBuilder assembles one custom violation.
type ViolationBuilder struct {
	ctx      *ValidationContext
	template string
	path     PathRef
	params   map[string]any
}

// AtProperty moves the violation to a property beneath the element path.
func (b *ViolationBuilder) AtProperty(name string) *ViolationBuilder {
	b.path = b.path.Property(name)
	return b
}

// AtIndex moves the violation to an element index beneath the current path.
func (b *ViolationBuilder) AtIndex(i int) *ViolationBuilder {
	b.path = b.path.Index(i)
	return b
}

// At replaces the violation path entirely.
func (b *ViolationBuilder) At(path PathRef) *ViolationBuilder {
	if path != nil {
		b.path = path
	}
	return b
}

// Param adds an interpolation parameter to the violation.
func (b *ViolationBuilder) Param(name string, value any) *ViolationBuilder {
	if b.params == nil {
		b.params = map[string]any{}
	}
	b.params[name] = value
	return b
}

// Add queues the violation on the context.
func (b *ViolationBuilder) Add() {
	merged := make(map[string]any, len(b.ctx.params)+len(b.params))
	for k, v := range b.ctx.params {
		merged[k] = v
	}
	for k, v := range b.params {
		merged[k] = v
	}
	b.ctx.custom = append(b.ctx.custom, pendingViolation{
		template: b.template,
		path:     b.path,
		params:   merged,
	})
}
