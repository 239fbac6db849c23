package eval

import (
	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/scope"
	"github.com/honelang/hone/internal/value"
)

// evalCall resolves a call against user functions first, then the closed
// builtin table (spec.md §4.3.3 "Call"). The callee must be a bare
// identifier: hone has no first-class functions.
func (e *Evaluator) evalCall(n *ast.CallExpr) (value.Value, error) {
	ident, ok := n.Callee.(*ast.Ident)
	if !ok {
		return value.Null, e.errf(n.Pos, diag.KindRuntime, "call target must be a function name").WithCode("E_NOT_CALLABLE")
	}

	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalExpr(a, nil)
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}

	if fn, ok := e.fns[ident.Name]; ok {
		return e.callUserFn(n, fn, args)
	}

	if b, ok := builtins[ident.Name]; ok {
		return b(e, n, args)
	}

	if isReduceLikeName(ident.Name) {
		return value.Null, e.errf(n.Pos, diag.KindName, "%q is deliberately absent; use a `for` comprehension instead", ident.Name).WithCode("E_NO_SUCH_BUILTIN")
	}

	err := e.errf(n.Pos, diag.KindName, "undefined function %q", ident.Name).WithCode("E_UNDEFINED_FUNCTION")
	if s := suggestName(ident.Name, e.fnAndBuiltinNames()); s != "" {
		err = err.WithHelp("did you mean " + s + "?")
	}
	return value.Null, err
}

func isReduceLikeName(name string) bool {
	switch name {
	case "map", "filter", "reduce":
		return true
	default:
		return false
	}
}

func (e *Evaluator) fnAndBuiltinNames() []string {
	names := make([]string, 0, len(e.fns)+len(builtins))
	for n := range e.fns {
		names = append(names, n)
	}
	for n := range builtins {
		names = append(names, n)
	}
	return names
}

// callUserFn evaluates a user function body in a fresh scope containing
// only its parameters — user functions are not closures (spec.md §4.3.3,
// §9 "Closures").
func (e *Evaluator) callUserFn(n *ast.CallExpr, fn FnEntry, args []value.Value) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return value.Null, e.errf(n.Pos, diag.KindType, "function expects %d argument(s), got %d", len(fn.Params), len(args)).WithCode("E_ARITY_MISMATCH")
	}
	params := make(map[string]value.Value, len(fn.Params))
	for i, p := range fn.Params {
		params[p] = args[i]
	}
	saved := e.scopes
	e.scopes = scope.NewChild(params)
	defer func() { e.scopes = saved }()
	return e.evalExpr(fn.Body, nil)
}
