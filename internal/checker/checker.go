// Package checker statically inspects `validate` tags in Go source and
// reports illegal constraint placement: unknown constraints, constraints on
// types they cannot apply to, malformed arguments, constraints on
// unexported fields, and dive on non-containers. Nothing is executed.
package checker

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	constraint "github.com/constraintgo/constraint"
	"github.com/constraintgo/constraint/internal/tagmeta"
)

// Check names. Every check defaults to error severity.
const (
	CheckUnknownConstraint      = "unknown-constraint"
	CheckInapplicableConstraint = "inapplicable-constraint"
	CheckMalformedArgument      = "malformed-argument"
	CheckUnexportedField        = "unexported-field"
	CheckWrongTarget            = "wrong-target"
	CheckDiveNonContainer       = "dive-non-container"
)

// Checks lists every check name.
func Checks() []string {
	return []string{
		CheckUnknownConstraint,
		CheckInapplicableConstraint,
		CheckMalformedArgument,
		CheckUnexportedField,
		CheckWrongTarget,
		CheckDiveNonContainer,
	}
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Col      int      `json:"col"`
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Checker runs the static checks over Go source trees.
type Checker struct {
	cfg Config
	reg *constraint.Registry
	log zerolog.Logger
}

// New builds a Checker over the given registry. A nil registry means the
// default registry with the built-in constraints.
func New(cfg Config, reg *constraint.Registry, log zerolog.Logger) *Checker {
	if reg == nil {
		reg = constraint.DefaultRegistry()
	}
	return &Checker{cfg: cfg, reg: reg, log: log}
}

// Run checks every .go file under the targets (files or directories).
// Returned diagnostics exclude suppressed and ignore-severity findings and
// are sorted by position.
func (c *Checker) Run(ctx context.Context, targets []string) ([]Diagnostic, error) {
	files, err := collectFiles(targets)
	if err != nil {
		return nil, err
	}
	cch := loadCache(c.cfg.CacheFile)

	var (
		mu    sync.Mutex
		diags []Diagnostic
		dirty = map[string]bool{}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		file := file
		if cch.fresh(file) {
			c.log.Debug().Str("file", file).Msg("unchanged, skipped")
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := c.checkFile(file)
			if err != nil {
				return err
			}
			mu.Lock()
			if len(ds) > 0 {
				diags = append(diags, ds...)
				dirty[file] = true
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, file := range files {
		if !dirty[file] {
			cch.markClean(file)
		} else {
			delete(cch.Entries, file)
		}
	}
	if err := cch.save(c.cfg.CacheFile); err != nil {
		c.log.Warn().Err(err).Msg("could not write cache")
	}

	sort.Slice(diags, func(i, j int) bool {
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Col < diags[j].Col
	})
	return diags, nil
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func collectFiles(targets []string) ([]string, error) {
	var files []string
	for _, t := range targets {
		fi, err := os.Stat(t)
		if err != nil {
			return nil, fmt.Errorf("checker: %w", err)
		}
		if !fi.IsDir() {
			if strings.HasSuffix(t, ".go") {
				files = append(files, t)
			}
			continue
		}
		err = filepath.WalkDir(t, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if name != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".go") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("checker: walking %s: %w", t, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// checkFile parses one file and inspects every struct field with a
// `validate` tag.
func (c *Checker) checkFile(path string) ([]Diagnostic, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("checker: parsing %s: %w", path, err)
	}
	var diags []Diagnostic
	ast.Inspect(f, func(n ast.Node) bool {
		st, ok := n.(*ast.StructType)
		if !ok || st.Fields == nil {
			return true
		}
		for _, field := range st.Fields.List {
			if field.Tag == nil {
				continue
			}
			tagLit, err := strconv.Unquote(field.Tag.Value)
			if err != nil {
				continue
			}
			raw, ok := reflect.StructTag(tagLit).Lookup("validate")
			if !ok {
				continue
			}
			diags = append(diags, c.checkField(fset, path, field, raw)...)
		}
		return true
	})
	out := diags[:0]
	for _, d := range diags {
		if d.Severity == SeverityIgnore || c.cfg.suppressed(d.File, d.Check) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Checker) checkField(fset *token.FileSet, path string, field *ast.Field, raw string) []Diagnostic {
	var diags []Diagnostic
	report := func(check, format string, args ...any) {
		pos := fset.Position(field.Pos())
		diags = append(diags, Diagnostic{
			File:     path,
			Line:     pos.Line,
			Col:      pos.Column,
			Check:    check,
			Severity: c.cfg.severityFor(check),
			Message:  fmt.Sprintf(format, args...),
		})
	}

	fieldName := ""
	if len(field.Names) > 0 && field.Names[0] != nil {
		fieldName = field.Names[0].Name
	}

	ft, err := tagmeta.Parse(raw)
	if err != nil {
		report(CheckMalformedArgument, "%s: %v", fieldName, err)
		return diags
	}
	if ft.Empty() {
		return diags
	}

	if fieldName != "" && !ast.IsExported(fieldName) {
		report(CheckUnexportedField, "%s: constraints on unexported fields are never evaluated", fieldName)
	}

	fieldClasses, container, elemType := classifyExpr(field.Type)
	for _, p := range ft.Constraints {
		diags = append(diags, c.checkConstraint(fset, path, field, fieldName, p, fieldClasses)...)
	}

	if ft.Dive {
		if !container {
			report(CheckDiveNonContainer, "%s: dive requires a slice, array, or map field", fieldName)
		} else {
			elemClasses, _, _ := classifyExpr(elemType)
			for _, p := range ft.Elem {
				diags = append(diags, c.checkConstraint(fset, path, field, fieldName, p, elemClasses)...)
			}
		}
	}
	return diags
}

func (c *Checker) checkConstraint(fset *token.FileSet, path string, field *ast.Field, fieldName string, p tagmeta.Parsed, classes []constraint.ValueClass) []Diagnostic {
	var diags []Diagnostic
	report := func(check, format string, args ...any) {
		pos := fset.Position(field.Pos())
		diags = append(diags, Diagnostic{
			File:     path,
			Line:     pos.Line,
			Col:      pos.Column,
			Check:    check,
			Severity: c.cfg.severityFor(check),
			Message:  fmt.Sprintf(format, args...),
		})
	}

	def, ok := c.reg.Lookup(p.Name)
	if !ok {
		report(CheckUnknownConstraint, "%s: unknown constraint %q", fieldName, p.Name)
		return diags
	}
	if !def.AllowsTarget(constraint.TargetElement) {
		report(CheckWrongTarget, "%s: %q is a cross-parameter constraint and cannot be placed on a field", fieldName, p.Name)
		return diags
	}
	if def.New != nil {
		if _, err := def.New(constraint.Descriptor{Name: p.Name, Arg: p.Arg}); err != nil {
			report(CheckMalformedArgument, "%s: %v", fieldName, err)
			return diags
		}
	}
	// applicability is only decidable for types the AST names directly
	if len(classes) > 0 && !def.AppliesTo(classes...) {
		report(CheckInapplicableConstraint, "%s: constraint %q does not apply to the field's type", fieldName, p.Name)
	}
	return diags
}

// classifyExpr maps an AST type expression onto value classes. The returned
// slice is empty when the type cannot be classified syntactically (named
// types from other packages, interfaces, type parameters); such fields are
// not checked for applicability. container reports slice/array/map shape and
// elemType its element expression.
func classifyExpr(expr ast.Expr) (classes []constraint.ValueClass, container bool, elemType ast.Expr) {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return classifyExpr(t.X)
	case *ast.Ident:
		switch t.Name {
		case "string":
			return []constraint.ValueClass{constraint.ClassString, constraint.ClassContainer}, false, nil
		case "int", "int8", "int16", "int32", "int64",
			"uint", "uint8", "uint16", "uint32", "uint64",
			"float32", "float64", "byte", "rune":
			return []constraint.ValueClass{constraint.ClassNumeric}, false, nil
		case "bool":
			return []constraint.ValueClass{constraint.ClassBool}, false, nil
		}
		return nil, false, nil
	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok && pkg.Name == "time" && t.Sel.Name == "Time" {
			return []constraint.ValueClass{constraint.ClassTime}, false, nil
		}
		return nil, false, nil
	case *ast.ArrayType:
		return []constraint.ValueClass{constraint.ClassContainer}, true, t.Elt
	case *ast.MapType:
		return []constraint.ValueClass{constraint.ClassContainer}, true, t.Value
	default:
		return nil, false, nil
	}
}
