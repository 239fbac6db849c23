// Package schema implements the Hone type checker (spec.md §4.4): a
// registry of flattened schema field sets built from the AST's Schema
// declarations, validated recursively against a final value.Value tree.
// Grounded on the teacher's core/types package (type-shape validation
// against a schema registry collected in one AST pass) and on
// internal/eval/constraint.go's primitive constraint rules, which this
// package re-implements with per-path error accumulation instead of a
// boolean/reason pair, since schema validation needs the failing dotted
// path in every diagnostic (spec.md §4.4 "Errors carry the failing path").
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/value"
)

// Registry holds the schema and type-alias declarations collected from one
// file's preamble (internal/eval.Evaluator.Schemas/TypeAliases), plus the
// set of output paths annotated `@unchecked` (spec.md §4.3.3, §4.4).
type Registry struct {
	schemas     map[string]*ast.SchemaDecl
	typeAliases map[string]*ast.Constraint
	unchecked   map[string]bool

	source   string
	filename string

	flatCache map[string]flatSchema
}

type flatSchema struct {
	fields []ast.SchemaField
	open   bool
}

// NewRegistry builds a type checker registry from the evaluator's collected
// preamble declarations.
func NewRegistry(schemas map[string]*ast.SchemaDecl, typeAliases map[string]*ast.Constraint, unchecked map[string]bool, source, filename string) *Registry {
	if unchecked == nil {
		unchecked = map[string]bool{}
	}
	return &Registry{
		schemas:     schemas,
		typeAliases: typeAliases,
		unchecked:   unchecked,
		source:      source,
		filename:    filename,
		flatCache:   map[string]flatSchema{},
	}
}

func (r *Registry) errf(pos ast.Position, format string, args ...any) *diag.Error {
	length := pos.Length
	if length <= 0 {
		length = 1
	}
	return diag.New(diag.KindType, diag.Span{
		File: r.filename, Line: pos.Line, Column: pos.Column, Offset: pos.Offset, Length: length,
	}, r.source, fmt.Sprintf(format, args...))
}

// Flatten resolves a schema's field set with respect to `extends`: parent
// fields precede the child's own (spec.md §3.3), detecting `extends`
// cycles via an active-set DFS (spec.md §4.4 "cycles ... are reported").
func (r *Registry) Flatten(name string) ([]ast.SchemaField, bool, error) {
	if cached, ok := r.flatCache[name]; ok {
		return cached.fields, cached.open, nil
	}
	fields, open, err := r.flatten(name, map[string]bool{})
	if err != nil {
		return nil, false, err
	}
	r.flatCache[name] = flatSchema{fields: fields, open: open}
	return fields, open, nil
}

func (r *Registry) flatten(name string, active map[string]bool) ([]ast.SchemaField, bool, error) {
	decl, ok := r.schemas[name]
	if !ok {
		return nil, false, diag.New(diag.KindType, diag.Span{File: r.filename}, r.source,
			fmt.Sprintf("unknown schema %q", name))
	}
	if active[name] {
		return nil, false, r.errf(decl.Pos, "circular schema inheritance involving %q", name)
	}
	active[name] = true

	var fields []ast.SchemaField
	if decl.Extends != "" {
		parentFields, _, err := r.flatten(decl.Extends, active)
		if err != nil {
			return nil, false, err
		}
		fields = append(fields, parentFields...)
	}
	fields = append(fields, decl.Fields...)
	return fields, decl.Open, nil
}

// Validate checks v against the schema named schemaName, rooted at path
// (dot-separated path text recorded on every TypeMismatch).
func (r *Registry) Validate(v value.Value, schemaName string, path []string, pos ast.Position) error {
	fields, open, err := r.Flatten(schemaName)
	if err != nil {
		return err
	}
	return r.validateFields(v, fields, open, path, pos)
}

func (r *Registry) validateFields(v value.Value, fields []ast.SchemaField, open bool, path []string, pos ast.Position) error {
	obj, ok := v.AsObject()
	if !ok {
		return r.errf(pos, "expected object at %s, got %s", pathText(path), v.Kind())
	}

	declared := map[string]bool{}
	for _, f := range fields {
		declared[f.Name] = true
		fieldPath := append(append([]string(nil), path...), f.Name)
		fv, present := obj.Get(f.Name)
		if !present {
			if f.Optional || f.Default != nil {
				continue
			}
			return r.errf(pos, "missing required field %q", pathText(fieldPath))
		}
		if f.Optional && fv.IsNull() {
			continue
		}
		if r.unchecked[pathText(fieldPath)] {
			continue
		}
		if err := r.checkConstraint(fv, f.Constraint, fieldPath, pos); err != nil {
			return err
		}
	}

	if !open && !r.unchecked[pathText(path)] {
		for _, k := range obj.Keys() {
			if !declared[k] {
				extraPath := append(append([]string(nil), path...), k)
				if r.unchecked[pathText(extraPath)] {
					continue
				}
				return r.errf(pos, "unexpected field %q (schema is closed)", pathText(extraPath))
			}
		}
	}
	return nil
}

func pathText(path []string) string {
	if len(path) == 0 {
		return "$"
	}
	return strings.Join(path, ".")
}

// checkConstraint validates v against c, recording the current path in any
// failing diagnostic. Mirrors eval.checkConstraint's rule set (primitive
// bounds, schema names, array<T>, unions) but every branch knows its path.
func (r *Registry) checkConstraint(v value.Value, c *ast.Constraint, path []string, pos ast.Position) error {
	if c == nil {
		return nil
	}
	if alias, ok := r.typeAliases[c.Name]; ok && c.Name != "union" {
		return r.checkConstraint(v, alias, path, pos)
	}
	if c.Name == "union" {
		var lastErr error
		for _, sub := range c.Union {
			if err := r.checkConstraint(v, sub, path, pos); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}
		if lastErr == nil {
			return nil
		}
		return r.errf(pos, "%s: value does not satisfy any member of the union type (last: %v)", pathText(path), lastErr)
	}
	if strings.HasPrefix(c.Name, "array<") && strings.HasSuffix(c.Name, ">") {
		inner := c.Name[len("array<") : len(c.Name)-1]
		arr, ok := v.AsArray()
		if !ok {
			return r.errf(pos, "%s: expected array<%s>, got %s", pathText(path), inner, v.Kind())
		}
		elem := &ast.Constraint{Name: inner}
		for i, item := range arr {
			idxPath := append(append([]string(nil), path...), fmt.Sprintf("[%d]", i))
			if err := r.checkConstraint(item, elem, idxPath, pos); err != nil {
				return err
			}
		}
		return nil
	}

	switch c.Name {
	case "int":
		i, ok := v.AsInt()
		if !ok {
			return r.errf(pos, "%s: expected int, got %s (%s)", pathText(path), v.Kind(), shortForm(v))
		}
		return r.checkNumericBounds(c.Args, float64(i), path, pos)
	case "float":
		f, ok := v.AsFloat()
		if !ok {
			return r.errf(pos, "%s: expected float, got %s (%s)", pathText(path), v.Kind(), shortForm(v))
		}
		return r.checkNumericBounds(c.Args, f, path, pos)
	case "string":
		s, ok := v.AsString()
		if !ok {
			return r.errf(pos, "%s: expected string, got %s (%s)", pathText(path), v.Kind(), shortForm(v))
		}
		return r.checkStringBounds(c.Args, s, path, pos)
	case "bool":
		if v.Kind() != value.KindBool {
			return r.errf(pos, "%s: expected bool, got %s (%s)", pathText(path), v.Kind(), shortForm(v))
		}
		return nil
	case "null":
		if !v.IsNull() {
			return r.errf(pos, "%s: expected null, got %s (%s)", pathText(path), v.Kind(), shortForm(v))
		}
		return nil
	default:
		if _, ok := r.schemas[c.Name]; ok {
			fields, open, err := r.Flatten(c.Name)
			if err != nil {
				return err
			}
			return r.validateFields(v, fields, open, path, pos)
		}
		return r.errf(pos, "%s: unknown type %q", pathText(path), c.Name)
	}
}

func (r *Registry) checkNumericBounds(args []ast.Expr, n float64, path []string, pos ast.Position) error {
	if len(args) > 0 {
		if mn, ok := constArgFloat(args[0]); ok && n < mn {
			return r.errf(pos, "%s: %g is below the minimum %g", pathText(path), n, mn)
		}
	}
	if len(args) > 1 {
		if mx, ok := constArgFloat(args[1]); ok && n > mx {
			return r.errf(pos, "%s: %g is above the maximum %g", pathText(path), n, mx)
		}
	}
	return nil
}

func (r *Registry) checkStringBounds(args []ast.Expr, s string, path []string, pos ast.Position) error {
	if len(args) == 1 {
		if pattern, ok := constArgString(args[0]); ok {
			re, err := regexp.Compile(pattern)
			if err == nil && !re.MatchString(s) {
				return r.errf(pos, "%s: %q does not match pattern %q", pathText(path), s, pattern)
			}
			return nil
		}
	}
	n := int64(len([]rune(s)))
	if len(args) > 0 {
		if mn, ok := constArgInt(args[0]); ok && n < mn {
			return r.errf(pos, "%s: length %d is below the minimum %d", pathText(path), n, mn)
		}
	}
	if len(args) > 1 {
		if mx, ok := constArgInt(args[1]); ok && n > mx {
			return r.errf(pos, "%s: length %d is above the maximum %d", pathText(path), n, mx)
		}
	}
	return nil
}

func shortForm(v value.Value) string {
	s := v.Display()
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}

// constArgFloat/Int/String evaluate a schema constraint argument, which is
// restricted to literal constants (spec.md §3.3 "a named primitive plus
// zero-or-more argument expressions" — in every retrieved fixture and in
// the worked examples these are numeric/string/unary-minus literals, never
// variable references, since schema declarations live in the preamble
// before any `let` binding they might want to reach is necessarily in
// scope for a *different* document evaluation). Unary minus on a literal
// is supported for negative bounds.
func constArgFloat(e ast.Expr) (float64, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return float64(n.Value), true
	case *ast.FloatLit:
		return n.Value, true
	case *ast.UnaryExpr:
		if f, ok := constArgFloat(n.Operand); ok {
			return -f, true
		}
	}
	return 0, false
}

func constArgInt(e ast.Expr) (int64, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return n.Value, true
	case *ast.UnaryExpr:
		if i, ok := constArgInt(n.Operand); ok {
			return -i, true
		}
	}
	return 0, false
}

func constArgString(e ast.Expr) (string, bool) {
	if n, ok := e.(*ast.StringLit); ok {
		return n.Value, true
	}
	return "", false
}
