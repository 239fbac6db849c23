package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/value"
)

// checkConstraint reports whether v satisfies c. This is the primitive
// subset (int/float/string/bool/null bounds, named schemas, array<T>,
// unions) needed by `expect` declarations (spec.md §4.3.4); the type
// checker (internal/schema) re-implements the same primitive rules for
// full schema/extends/open validation, since that stage also needs
// per-path error accumulation this boolean-returning helper doesn't carry.
func (e *Evaluator) checkConstraint(v value.Value, c *ast.Constraint) (bool, string) {
	if c == nil {
		return true, ""
	}
	if c.Name == "union" {
		var lastReason string
		for _, sub := range c.Union {
			if ok, reason := e.checkConstraint(v, sub); ok {
				return true, ""
			} else {
				lastReason = reason
			}
		}
		return false, lastReason
	}
	if strings.HasPrefix(c.Name, "array<") && strings.HasSuffix(c.Name, ">") {
		inner := c.Name[len("array<") : len(c.Name)-1]
		arr, ok := v.AsArray()
		if !ok {
			return false, fmt.Sprintf("expected array<%s>, got %s", inner, v.Kind())
		}
		elemConstraint := &ast.Constraint{Name: inner}
		for i, item := range arr {
			if ok, reason := e.checkConstraint(item, elemConstraint); !ok {
				return false, fmt.Sprintf("element %d: %s", i, reason)
			}
		}
		return true, ""
	}

	switch c.Name {
	case "int":
		i, ok := v.AsInt()
		if !ok {
			return false, fmt.Sprintf("expected int, got %s", v.Kind())
		}
		return checkNumericArgs(c.Args, e, float64(i))
	case "float":
		f, ok := v.AsFloat()
		if !ok {
			return false, fmt.Sprintf("expected float, got %s", v.Kind())
		}
		return checkNumericArgs(c.Args, e, f)
	case "string":
		s, ok := v.AsString()
		if !ok {
			return false, fmt.Sprintf("expected string, got %s", v.Kind())
		}
		return checkStringArgs(c.Args, e, s)
	case "bool":
		if v.Kind() != value.KindBool {
			return false, fmt.Sprintf("expected bool, got %s", v.Kind())
		}
		return true, ""
	case "null":
		if !v.IsNull() {
			return false, fmt.Sprintf("expected null, got %s", v.Kind())
		}
		return true, ""
	default:
		if alias, ok := e.typeAliases[c.Name]; ok {
			return e.checkConstraint(v, alias)
		}
		if schema, ok := e.schemas[c.Name]; ok {
			return e.checkValueAgainstSchemaShallow(v, schema)
		}
		return false, fmt.Sprintf("unknown type %q", c.Name)
	}
}

// checkValueAgainstSchemaShallow does a minimal required-field presence and
// recursive-constraint check; full extends-flattening, open-schema and
// @unchecked handling lives in the dedicated type checker stage.
func (e *Evaluator) checkValueAgainstSchemaShallow(v value.Value, schema *ast.SchemaDecl) (bool, string) {
	obj, ok := v.AsObject()
	if !ok {
		return false, fmt.Sprintf("expected object matching schema %q, got %s", schema.Name, v.Kind())
	}
	for _, f := range schema.Fields {
		fv, present := obj.Get(f.Name)
		if !present {
			if f.Optional {
				continue
			}
			return false, fmt.Sprintf("missing required field %q", f.Name)
		}
		if f.Optional && fv.IsNull() {
			continue
		}
		if ok, reason := e.checkConstraint(fv, f.Constraint); !ok {
			return false, fmt.Sprintf("field %q: %s", f.Name, reason)
		}
	}
	return true, ""
}

func checkNumericArgs(args []ast.Expr, e *Evaluator, n float64) (bool, string) {
	if len(args) > 0 {
		min, err := e.evalExpr(args[0], nil)
		if err == nil {
			if mf, ok := min.AsFloat(); ok && n < mf {
				return false, fmt.Sprintf("%g is below the minimum %g", n, mf)
			}
		}
	}
	if len(args) > 1 {
		max, err := e.evalExpr(args[1], nil)
		if err == nil {
			if mf, ok := max.AsFloat(); ok && n > mf {
				return false, fmt.Sprintf("%g is above the maximum %g", n, mf)
			}
		}
	}
	return true, ""
}

func checkStringArgs(args []ast.Expr, e *Evaluator, s string) (bool, string) {
	if len(args) == 1 {
		arg, err := e.evalExpr(args[0], nil)
		if err == nil {
			if pattern, ok := arg.AsString(); ok {
				re, rerr := regexp.Compile(pattern)
				if rerr == nil && !re.MatchString(s) {
					return false, fmt.Sprintf("does not match pattern %q", pattern)
				}
				return true, ""
			}
		}
	}
	if len(args) > 0 {
		min, err := e.evalExpr(args[0], nil)
		if err == nil {
			if mf, ok := min.AsInt(); ok && int64(len([]rune(s))) < mf {
				return false, fmt.Sprintf("length %d is below the minimum %d", len([]rune(s)), mf)
			}
		}
	}
	if len(args) > 1 {
		max, err := e.evalExpr(args[1], nil)
		if err == nil {
			if mf, ok := max.AsInt(); ok && int64(len([]rune(s))) > mf {
				return false, fmt.Sprintf("length %d is above the maximum %d", len([]rune(s)), mf)
			}
		}
	}
	return true, ""
}
