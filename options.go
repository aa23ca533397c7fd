package constraint

import (
	"context"

	"github.com/constraintgo/constraint/messages"
)

// ---- Validation-time context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
)

// WithFailFast returns a child context that marks fail-fast validation
// behavior: validation stops at the first violation, including inside
// compositions and group sequences.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current validation should stop on the first
// violation.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}

// ---- Validator construction options ----

// Option configures a Validator.
type Option func(*Validator)

// WithRegistry uses a custom constraint registry instead of the default one.
func WithRegistry(r *Registry) Option {
	return func(v *Validator) {
		if r != nil {
			v.registry = r
		}
	}
}

// WithResolver replaces the message resolver.
func WithResolver(res messages.Resolver) Option {
	return func(v *Validator) {
		if res != nil {
			v.resolver = res
		}
	}
}

// WithLocale selects the built-in message catalog best matching the BCP 47
// locale.
func WithLocale(locale string) Option {
	return func(v *Validator) { v.resolver = messages.ForLocale(locale) }
}

// WithSequence registers an ordered group sequence under its name.
func WithSequence(seq Sequence) Option {
	return func(v *Validator) { v.sequences[seq.Name] = seq.Groups }
}
