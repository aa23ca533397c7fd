package constraint

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Built-in constraint names.
const (
	NotNil        = "notnil"
	NotBlank      = "notblank"
	Size          = "size"
	Min           = "min"
	Max           = "max"
	Pattern       = "pattern"
	Email         = "email"
	URL           = "url"
	UUID          = "uuid"
	Positive      = "positive"
	Negative      = "negative"
	Future        = "future"
	Past          = "past"
	In            = "in"
	Boolean       = "boolean"
	Chronological = "chronological"
	Username      = "username"
	Port          = "port"
)

var (
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	uuidRe  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

func init() {
	r := defaultRegistry

	r.MustRegister(Definition{
		Name:     NotNil,
		Template: "must not be nil",
		NilAware: true,
		New: noArg(NotNil, func(_ context.Context, _ *ValidationContext, v any) bool {
			return !IsNil(v)
		}),
	})

	r.MustRegister(Definition{
		Name:     NotBlank,
		Applies:  []ValueClass{ClassString},
		Template: "must not be blank",
		NilAware: true,
		New: noArg(NotBlank, func(_ context.Context, _ *ValidationContext, v any) bool {
			s, ok := asString(v)
			return ok && strings.TrimFunc(s, unicode.IsSpace) != ""
		}),
	})

	r.MustRegister(Definition{
		Name:     Size,
		Applies:  []ValueClass{ClassString, ClassContainer},
		Template: "size must be between {min} and {max}",
		New: func(d Descriptor) (Compiled, error) {
			lo, hi, err := parseRange(d.Arg)
			if err != nil {
				return Compiled{}, err
			}
			return Compiled{
				Params: map[string]any{"min": lo, "max": hi},
				Checker: CheckerFunc(func(_ context.Context, _ *ValidationContext, v any) bool {
					n, ok := lengthOf(v)
					return ok && n >= lo && n <= hi
				}),
			}, nil
		},
	})

	r.MustRegister(Definition{
		Name:     Min,
		Applies:  []ValueClass{ClassNumeric},
		Template: "must be greater than or equal to {min}",
		New: func(d Descriptor) (Compiled, error) {
			bound, err := parseNumber(Min, d.Arg)
			if err != nil {
				return Compiled{}, err
			}
			return Compiled{
				Params: map[string]any{"min": d.Arg},
				Checker: CheckerFunc(func(_ context.Context, _ *ValidationContext, v any) bool {
					f, ok := asFloat(v)
					return ok && f >= bound
				}),
			}, nil
		},
	})

	r.MustRegister(Definition{
		Name:     Max,
		Applies:  []ValueClass{ClassNumeric},
		Template: "must be less than or equal to {max}",
		New: func(d Descriptor) (Compiled, error) {
			bound, err := parseNumber(Max, d.Arg)
			if err != nil {
				return Compiled{}, err
			}
			return Compiled{
				Params: map[string]any{"max": d.Arg},
				Checker: CheckerFunc(func(_ context.Context, _ *ValidationContext, v any) bool {
					f, ok := asFloat(v)
					return ok && f <= bound
				}),
			}, nil
		},
	})

	r.MustRegister(Definition{
		Name:     Pattern,
		Applies:  []ValueClass{ClassString},
		Template: "must match \"{pattern}\"",
		New: func(d Descriptor) (Compiled, error) {
			if d.Arg == "" {
				return Compiled{}, fmt.Errorf("pattern: missing regular expression")
			}
			re, err := regexp.Compile(d.Arg)
			if err != nil {
				return Compiled{}, fmt.Errorf("pattern: %w", err)
			}
			return Compiled{
				Params: map[string]any{"pattern": d.Arg},
				Checker: CheckerFunc(func(_ context.Context, _ *ValidationContext, v any) bool {
					s, ok := asString(v)
					return ok && re.MatchString(s)
				}),
			}, nil
		},
	})

	r.MustRegister(Definition{
		Name:     Email,
		Applies:  []ValueClass{ClassString},
		Template: "must be a well-formed email address",
		New: noArg(Email, func(_ context.Context, _ *ValidationContext, v any) bool {
			s, ok := asString(v)
			return ok && emailRe.MatchString(s)
		}),
	})

	r.MustRegister(Definition{
		Name:     URL,
		Applies:  []ValueClass{ClassString},
		Template: "must be a valid URL",
		New: noArg(URL, func(_ context.Context, _ *ValidationContext, v any) bool {
			s, ok := asString(v)
			if !ok {
				return false
			}
			u, err := url.Parse(s)
			return err == nil && u.Scheme != "" && u.Host != ""
		}),
	})

	r.MustRegister(Definition{
		Name:     UUID,
		Applies:  []ValueClass{ClassString},
		Template: "must be a valid UUID",
		New: noArg(UUID, func(_ context.Context, _ *ValidationContext, v any) bool {
			s, ok := asString(v)
			return ok && uuidRe.MatchString(s)
		}),
	})

	r.MustRegister(Definition{
		Name:     Positive,
		Applies:  []ValueClass{ClassNumeric},
		Template: "must be greater than 0",
		New: noArg(Positive, func(_ context.Context, _ *ValidationContext, v any) bool {
			f, ok := asFloat(v)
			return ok && f > 0
		}),
	})

	r.MustRegister(Definition{
		Name:     Negative,
		Applies:  []ValueClass{ClassNumeric},
		Template: "must be less than 0",
		New: noArg(Negative, func(_ context.Context, _ *ValidationContext, v any) bool {
			f, ok := asFloat(v)
			return ok && f < 0
		}),
	})

	r.MustRegister(Definition{
		Name:     Future,
		Applies:  []ValueClass{ClassTime},
		Template: "must be in the future",
		New: noArg(Future, func(_ context.Context, _ *ValidationContext, v any) bool {
			t, ok := asTime(v)
			return ok && t.After(time.Now())
		}),
	})

	r.MustRegister(Definition{
		Name:     Past,
		Applies:  []ValueClass{ClassTime},
		Template: "must be in the past",
		New: noArg(Past, func(_ context.Context, _ *ValidationContext, v any) bool {
			t, ok := asTime(v)
			return ok && t.Before(time.Now())
		}),
	})

	r.MustRegister(Definition{
		Name:     In,
		Template: "must be one of {choices}",
		New: func(d Descriptor) (Compiled, error) {
			if d.Arg == "" {
				return Compiled{}, fmt.Errorf("in: missing choices")
			}
			choices := map[string]struct{}{}
			for _, c := range strings.Split(d.Arg, "|") {
				choices[c] = struct{}{}
			}
			return Compiled{
				Params: map[string]any{"choices": d.Arg},
				Checker: CheckerFunc(func(_ context.Context, _ *ValidationContext, v any) bool {
					_, ok := choices[fmt.Sprint(indirect(v))]
					return ok
				}),
			}, nil
		},
	})

	r.MustRegister(Definition{
		Name:     Boolean,
		Applies:  []ValueClass{ClassString},
		Template: "must be \"true\" or \"false\"",
		New: noArg(Boolean, func(_ context.Context, _ *ValidationContext, v any) bool {
			s, ok := asString(v)
			return ok && (s == "true" || s == "false")
		}),
	})

	// Cross-parameter: every time.Time argument must be in non-decreasing
	// order (start before end, etc.). Non-time arguments are ignored.
	r.MustRegister(Definition{
		Name:     Chronological,
		Targets:  []Target{TargetCrossParameter},
		Applies:  []ValueClass{ClassContainer},
		Template: "parameters must be in chronological order",
		New: noArg(Chronological, func(_ context.Context, _ *ValidationContext, v any) bool {
			args, ok := v.([]any)
			if !ok {
				return false
			}
			var prev *time.Time
			for _, a := range args {
				t, ok := asTime(a)
				if !ok {
					continue
				}
				if prev != nil && t.Before(*prev) {
					return false
				}
				tt := t
				prev = &tt
			}
			return true
		}),
	})

	// Composed constraints.
	r.MustRegister(Definition{
		Name:           Username,
		Template:       "must be a valid username",
		ReportAsSingle: true,
		Composes: []Descriptor{
			{Name: NotBlank},
			{Name: Size, Arg: "3..32"},
			{Name: Pattern, Arg: "^[a-z][a-z0-9_]*$"},
		},
	})
	r.MustRegister(Definition{
		Name: Port,
		Composes: []Descriptor{
			{Name: Min, Arg: "1"},
			{Name: Max, Arg: "65535"},
		},
	})
}

// noArg wraps a checker for constraints that take no declaration argument.
func noArg(name string, fn CheckerFunc) func(Descriptor) (Compiled, error) {
	return func(d Descriptor) (Compiled, error) {
		if d.Arg != "" {
			return Compiled{}, fmt.Errorf("%s: takes no argument, got %q", name, d.Arg)
		}
		return Compiled{Checker: fn}, nil
	}
}

// ---- value coercion helpers ----

// indirect dereferences pointers and interfaces down to the base value.
func indirect(v any) any {
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
	return rv.Interface()
}

func asString(v any) (string, bool) {
	base := indirect(v)
	rv := reflect.ValueOf(base)
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(indirect(v))
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, bool) {
	if t, ok := indirect(v).(time.Time); ok {
		return t, true
	}
	return time.Time{}, false
}

// lengthOf measures strings (in runes), slices, arrays, and maps.
func lengthOf(v any) (int, bool) {
	rv := reflect.ValueOf(indirect(v))
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.String:
		return len([]rune(rv.String())), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}

// ---- argument parsers (shared with the static checker) ----

// parseRange parses "lo..hi"; one side may be omitted ("..10", "2..").
func parseRange(arg string) (int, int, error) {
	if arg == "" {
		return 0, 0, fmt.Errorf("size: missing range, want min..max")
	}
	idx := strings.Index(arg, "..")
	if idx < 0 {
		return 0, 0, fmt.Errorf("size: %q is not a range, want min..max", arg)
	}
	lo, hi := 0, int(^uint(0)>>1)
	var err error
	if s := arg[:idx]; s != "" {
		if lo, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("size: bad lower bound %q", s)
		}
	}
	if s := arg[idx+2:]; s != "" {
		if hi, err = strconv.Atoi(s); err != nil {
			return 0, 0, fmt.Errorf("size: bad upper bound %q", s)
		}
	}
	if lo < 0 {
		return 0, 0, fmt.Errorf("size: lower bound must not be negative")
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("size: lower bound %d exceeds upper bound %d", lo, hi)
	}
	return lo, hi, nil
}

func parseNumber(name, arg string) (float64, error) {
	if arg == "" {
		return 0, fmt.Errorf("%s: missing bound", name)
	}
	f, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: bad bound %q", name, arg)
	}
	return f, nil
}
