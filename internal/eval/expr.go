package eval

import (
	"fmt"
	"math"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/token"
	"github.com/honelang/hone/internal/value"
)

// evalExpr evaluates e. path is the dot-joined output path of the
// surrounding key-value item, threaded through so `@unchecked` annotations
// (spec.md §4.3.3, §4.4) can record which subtree the type checker should
// skip; it is nil for expressions with no associated output location (let
// bindings, conditions, function arguments).
func (e *Evaluator) evalExpr(expr ast.Expr, path []string) (value.Value, error) {
	if err := e.enterDepth(expr.Position()); err != nil {
		return value.Null, err
	}
	defer e.leaveDepth()

	switch n := expr.(type) {
	case *ast.NullLit:
		return value.Null, nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.IntLit:
		return value.Int(n.Value), nil
	case *ast.FloatLit:
		return value.Float(n.Value), nil
	case *ast.StringLit:
		return value.String(n.Value), nil
	case *ast.InterpString:
		return e.evalInterpString(n)
	case *ast.Ident:
		return e.evalIdent(n)
	case *ast.ArrayLit:
		return e.evalArrayLit(n)
	case *ast.ObjectLit:
		return e.evalObjectLit(n, path)
	case *ast.SpreadExpr:
		return e.evalExpr(n.Value, nil)
	case *ast.UnaryExpr:
		return e.evalUnary(n)
	case *ast.BinaryExpr:
		return e.evalBinary(n)
	case *ast.CondExpr:
		return e.evalCond(n)
	case *ast.CallExpr:
		return e.evalCall(n)
	case *ast.IndexExpr:
		return e.evalIndex(n)
	case *ast.MemberExpr:
		return e.evalMember(n)
	case *ast.AnnotatedExpr:
		return e.evalAnnotated(n, path)
	case *ast.WhenExpr:
		return e.evalWhenExpr(n)
	case *ast.ForExpr:
		return e.evalForExpr(n)
	default:
		return value.Null, e.errf(expr.Position(), diag.KindRuntime, "unhandled expression node %T", expr)
	}
}

func (e *Evaluator) evalInterpString(n *ast.InterpString) (value.Value, error) {
	var out string
	for _, part := range n.Parts {
		if part.Expr == nil {
			out += part.Literal
			continue
		}
		v, err := e.evalExpr(part.Expr, nil)
		if err != nil {
			return value.Null, err
		}
		out += v.Display()
	}
	return value.String(out), nil
}

func (e *Evaluator) evalIdent(n *ast.Ident) (value.Value, error) {
	if v, ok := e.scopes.Lookup(n.Name); ok {
		return v, nil
	}
	if v, ok := e.scopes.LookupImport(n.Name); ok {
		return v, nil
	}
	err := e.errf(n.Pos, diag.KindName, "undefined variable %q", n.Name).WithCode("E_UNDEFINED_VARIABLE")
	if suggestion := suggestName(n.Name, e.scopes.Names()); suggestion != "" {
		err = err.WithHelp(fmt.Sprintf("did you mean %q?", suggestion))
	}
	return value.Null, err
}

func (e *Evaluator) evalArrayLit(n *ast.ArrayLit) (value.Value, error) {
	items := make([]value.Value, 0, len(n.Items))
	for _, it := range n.Items {
		if spread, ok := it.(*ast.SpreadExpr); ok {
			v, err := e.evalExpr(spread.Value, nil)
			if err != nil {
				return value.Null, err
			}
			arr, ok := v.AsArray()
			if !ok {
				return value.Null, e.errf(spread.Pos, diag.KindType, "cannot spread a %s into an array", v.Kind()).WithCode("E_SPREAD_TYPE")
			}
			items = append(items, arr...)
			continue
		}
		v, err := e.evalExpr(it, nil)
		if err != nil {
			return value.Null, err
		}
		items = append(items, v)
	}
	return value.ArrayFrom(items), nil
}

func (e *Evaluator) evalObjectLit(n *ast.ObjectLit, path []string) (value.Value, error) {
	obj := value.NewObject()
	for _, entry := range n.Entries {
		if spread, ok := entry.Value.(*ast.SpreadExpr); ok {
			v, err := e.evalExpr(spread.Value, nil)
			if err != nil {
				return value.Null, err
			}
			src, ok := v.AsObject()
			if !ok {
				return value.Null, e.errf(spread.Pos, diag.KindType, "cannot spread a %s into an object", v.Kind()).WithCode("E_SPREAD_TYPE")
			}
			src.Each(func(k string, val value.Value) { obj.Set(k, val) })
			continue
		}
		key, err := e.evalKey(entry.Key)
		if err != nil {
			return value.Null, err
		}
		childPath := append(append([]string(nil), path...), key)
		v, err := e.evalExpr(entry.Value, childPath)
		if err != nil {
			return value.Null, err
		}
		obj.Set(key, v)
	}
	return value.FromObject(obj), nil
}

// evalKey resolves any of the four key forms to its string value.
func (e *Evaluator) evalKey(k ast.Key) (string, error) {
	switch {
	case k.Ident != "":
		return k.Ident, nil
	case k.Literal != nil:
		v, err := e.evalExpr(k.Literal, nil)
		if err != nil {
			return "", err
		}
		s, ok := v.AsString()
		if !ok {
			return "", e.errf(k.Pos, diag.KindType, "key must evaluate to a string, got %s", v.Kind()).WithCode("E_KEY_TYPE")
		}
		return s, nil
	case k.Computed != nil:
		v, err := e.evalExpr(k.Computed, nil)
		if err != nil {
			return "", err
		}
		s, ok := v.AsString()
		if !ok {
			return "", e.errf(k.Pos, diag.KindType, "computed key must evaluate to a string, got %s", v.Kind()).WithCode("E_KEY_TYPE")
		}
		return s, nil
	default:
		return "", e.errf(k.Pos, diag.KindRuntime, "empty key")
	}
}

func (e *Evaluator) evalUnary(n *ast.UnaryExpr) (value.Value, error) {
	v, err := e.evalExpr(n.Operand, nil)
	if err != nil {
		return value.Null, err
	}
	switch n.Op {
	case token.MINUS:
		if i, ok := v.AsInt(); ok {
			return value.Int(-i), nil
		}
		if f, ok := v.AsFloat(); ok {
			return value.Float(-f), nil
		}
		return value.Null, e.errf(n.Pos, diag.KindType, "unary '-' requires a number, got %s", v.Kind()).WithCode("E_TYPE_MISMATCH")
	case token.BANG:
		return value.Bool(!v.Truthy()), nil
	default:
		return value.Null, e.errf(n.Pos, diag.KindRuntime, "unhandled unary operator %s", n.Op)
	}
}

func (e *Evaluator) evalBinary(n *ast.BinaryExpr) (value.Value, error) {
	// Short-circuiting operators evaluate the right side conditionally.
	switch n.Op {
	case token.AND:
		left, err := e.evalExpr(n.Left, nil)
		if err != nil {
			return value.Null, err
		}
		if !left.Truthy() {
			return left, nil
		}
		return e.evalExpr(n.Right, nil)
	case token.OR:
		left, err := e.evalExpr(n.Left, nil)
		if err != nil {
			return value.Null, err
		}
		if left.Truthy() {
			return left, nil
		}
		return e.evalExpr(n.Right, nil)
	case token.COALESCE:
		left, err := e.evalExpr(n.Left, nil)
		if err != nil {
			return value.Null, err
		}
		if !left.IsNull() {
			return left, nil
		}
		return e.evalExpr(n.Right, nil)
	}

	left, err := e.evalExpr(n.Left, nil)
	if err != nil {
		return value.Null, err
	}
	right, err := e.evalExpr(n.Right, nil)
	if err != nil {
		return value.Null, err
	}

	switch n.Op {
	case token.EQ:
		return value.Bool(value.Equal(left, right)), nil
	case token.NEQ:
		return value.Bool(!value.Equal(left, right)), nil
	case token.LT, token.LE, token.GT, token.GE:
		cmp, ok := value.Compare(left, right)
		if !ok {
			return value.Null, e.errf(n.Pos, diag.KindType, "cannot compare %s and %s", left.Kind(), right.Kind()).WithCode("E_TYPE_MISMATCH")
		}
		switch n.Op {
		case token.LT:
			return value.Bool(cmp < 0), nil
		case token.LE:
			return value.Bool(cmp <= 0), nil
		case token.GT:
			return value.Bool(cmp > 0), nil
		default:
			return value.Bool(cmp >= 0), nil
		}
	case token.PLUS:
		return e.evalPlus(n, left, right)
	case token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		return e.evalArith(n, left, right)
	default:
		return value.Null, e.errf(n.Pos, diag.KindRuntime, "unhandled binary operator %s", n.Op)
	}
}

func (e *Evaluator) evalPlus(n *ast.BinaryExpr, left, right value.Value) (value.Value, error) {
	if ls, ok := left.AsString(); ok {
		if rs, ok := right.AsString(); ok {
			return value.String(ls + rs), nil
		}
		return value.Null, e.errf(n.Pos, diag.KindType, "cannot add %s and %s", left.Kind(), right.Kind()).WithCode("E_TYPE_MISMATCH")
	}
	if larr, ok := left.AsArray(); ok {
		if rarr, ok := right.AsArray(); ok {
			combined := make([]value.Value, 0, len(larr)+len(rarr))
			combined = append(combined, larr...)
			combined = append(combined, rarr...)
			return value.ArrayFrom(combined), nil
		}
		return value.Null, e.errf(n.Pos, diag.KindType, "cannot add %s and %s", left.Kind(), right.Kind()).WithCode("E_TYPE_MISMATCH")
	}
	return e.evalArith(n, left, right)
}

func (e *Evaluator) evalArith(n *ast.BinaryExpr, left, right value.Value) (value.Value, error) {
	li, liok := left.AsInt()
	ri, riok := right.AsInt()
	if liok && riok {
		switch n.Op {
		case token.PLUS:
			return value.Int(li + ri), nil
		case token.MINUS:
			return value.Int(li - ri), nil
		case token.STAR:
			return value.Int(li * ri), nil
		case token.SLASH:
			if ri == 0 {
				return value.Null, e.errf(n.Pos, diag.KindRuntime, "division by zero").WithCode("E_DIVISION_BY_ZERO")
			}
			if li%ri == 0 {
				return value.Int(li / ri), nil
			}
			return value.Float(float64(li) / float64(ri)), nil
		case token.PERCENT:
			if ri == 0 {
				return value.Null, e.errf(n.Pos, diag.KindRuntime, "division by zero").WithCode("E_DIVISION_BY_ZERO")
			}
			return value.Int(li % ri), nil
		}
	}
	lf, lfok := left.AsFloat()
	rf, rfok := right.AsFloat()
	if !lfok || !rfok {
		return value.Null, e.errf(n.Pos, diag.KindType, "arithmetic requires numbers, got %s and %s", left.Kind(), right.Kind()).WithCode("E_TYPE_MISMATCH")
	}
	switch n.Op {
	case token.PLUS:
		return value.Float(lf + rf), nil
	case token.MINUS:
		return value.Float(lf - rf), nil
	case token.STAR:
		return value.Float(lf * rf), nil
	case token.SLASH:
		if rf == 0 {
			return value.Null, e.errf(n.Pos, diag.KindRuntime, "division by zero").WithCode("E_DIVISION_BY_ZERO")
		}
		return value.Float(lf / rf), nil
	case token.PERCENT:
		if rf == 0 {
			return value.Null, e.errf(n.Pos, diag.KindRuntime, "division by zero").WithCode("E_DIVISION_BY_ZERO")
		}
		return value.Float(math.Mod(lf, rf)), nil
	}
	return value.Null, e.errf(n.Pos, diag.KindRuntime, "unhandled arithmetic operator %s", n.Op)
}

func (e *Evaluator) evalCond(n *ast.CondExpr) (value.Value, error) {
	cond, err := e.evalExpr(n.Cond, nil)
	if err != nil {
		return value.Null, err
	}
	if cond.Truthy() {
		return e.evalExpr(n.Then, nil)
	}
	return e.evalExpr(n.Else, nil)
}

func (e *Evaluator) evalIndex(n *ast.IndexExpr) (value.Value, error) {
	target, err := e.evalExpr(n.Target, nil)
	if err != nil {
		return value.Null, err
	}
	idx, err := e.evalExpr(n.Index, nil)
	if err != nil {
		return value.Null, err
	}
	switch target.Kind() {
	case value.KindArray:
		arr, _ := target.AsArray()
		i, ok := idx.AsInt()
		if !ok {
			return value.Null, e.errf(n.Pos, diag.KindType, "array index must be an int, got %s", idx.Kind()).WithCode("E_TYPE_MISMATCH")
		}
		if i < 0 {
			i += int64(len(arr))
		}
		if i < 0 || i >= int64(len(arr)) {
			return value.Null, e.errf(n.Pos, diag.KindRuntime, "array index %d out of range (len %d)", i, len(arr)).WithCode("E_INDEX_OUT_OF_RANGE")
		}
		return arr[i], nil
	case value.KindObject:
		key, ok := idx.AsString()
		if !ok {
			return value.Null, e.errf(n.Pos, diag.KindType, "object index must be a string, got %s", idx.Kind()).WithCode("E_TYPE_MISMATCH")
		}
		obj, _ := target.AsObject()
		v, _ := obj.Get(key)
		return v, nil
	default:
		return value.Null, e.errf(n.Pos, diag.KindType, "cannot index a %s", target.Kind()).WithCode("E_TYPE_MISMATCH")
	}
}

func (e *Evaluator) evalMember(n *ast.MemberExpr) (value.Value, error) {
	target, err := e.evalExpr(n.Target, nil)
	if err != nil {
		return value.Null, err
	}
	obj, ok := target.AsObject()
	if !ok {
		return value.Null, e.errf(n.Pos, diag.KindType, "cannot access field %q on a %s", n.Name, target.Kind()).WithCode("E_TYPE_MISMATCH")
	}
	// A missing key yields Null rather than an error (spec.md §3.1 "missing
	// object keys yield `Null`"), matching evalIndex's object-key path
	// above and original_source/src/evaluator/mod.rs's eval_path
	// (`obj.get(name).cloned().unwrap_or(Value::Null)`).
	v, _ := obj.Get(n.Name)
	return v, nil
}

// evalAnnotated records a postfix `@Constraint` annotation against the
// surrounding output path. Only `@unchecked` has an effect (it stops the
// type checker from descending into that subtree); every other annotation
// is recorded in e.annotations and is not checked against the value by
// internal/schema or any other stage.
func (e *Evaluator) evalAnnotated(n *ast.AnnotatedExpr, path []string) (value.Value, error) {
	v, err := e.evalExpr(n.Target, path)
	if err != nil {
		return value.Null, err
	}
	if n.Annotation == "unchecked" {
		if len(path) > 0 {
			e.unchecked[pathKey(path)] = true
		}
		return v, nil
	}
	if len(path) > 0 {
		args := make([]value.Value, 0, len(n.Args))
		for _, a := range n.Args {
			av, err := e.evalExpr(a, nil)
			if err != nil {
				return value.Null, err
			}
			args = append(args, av)
		}
		e.annotations = append(e.annotations, Annotation{
			Path: append([]string(nil), path...), Name: n.Annotation, Args: args, Pos: n.Pos,
		})
	}
	return v, nil
}

func (e *Evaluator) evalWhenExpr(n *ast.WhenExpr) (value.Value, error) {
	for _, branch := range n.Branches {
		if branch.Condition == nil {
			return e.evalExpr(branch.Value, nil)
		}
		cond, err := e.evalExpr(branch.Condition, nil)
		if err != nil {
			return value.Null, err
		}
		if cond.Truthy() {
			return e.evalExpr(branch.Value, nil)
		}
	}
	return value.Null, nil
}
