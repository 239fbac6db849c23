package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
)

// evalAssert evaluates an `assert` item; a falsy condition raises
// AssertionFailed carrying a printable form of the condition, the
// user-provided (or a synthesized) message, and the current value of every
// scope-resolvable variable the condition references (spec.md §4.3.7).
func (e *Evaluator) evalAssert(n *ast.AssertItem) error {
	cond, err := e.evalExpr(n.Condition, nil)
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return nil
	}
	message := "assertion failed: " + exprString(n.Condition)
	if n.Message != nil {
		msgVal, err := e.evalExpr(n.Message, nil)
		if err != nil {
			return err
		}
		message = msgVal.Display()
	}
	diagErr := e.errf(n.Pos, diag.KindAssertion, "%s", message).WithCode("E_ASSERTION_FAILED")
	if help := e.assertHelpContext(n.Condition); help != "" {
		diagErr = diagErr.WithHelp(help)
	}
	return diagErr
}

// assertHelpContext formats the current value of every variable name the
// condition references and that resolves in scope, compactly.
func (e *Evaluator) assertHelpContext(cond ast.Expr) string {
	names := collectIdents(cond)
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		if v, ok := e.scopes.Lookup(name); ok {
			parts = append(parts, fmt.Sprintf("%s = %s", name, v.Display()))
		}
	}
	return strings.Join(parts, ", ")
}

func collectIdents(e ast.Expr) []string {
	seen := map[string]struct{}{}
	var out []string
	var walk func(ast.Expr)
	add := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	walk = func(n ast.Expr) {
		switch x := n.(type) {
		case nil:
		case *ast.Ident:
			add(x.Name)
		case *ast.InterpString:
			for _, p := range x.Parts {
				if p.Expr != nil {
					walk(p.Expr)
				}
			}
		case *ast.ArrayLit:
			for _, it := range x.Items {
				walk(it)
			}
		case *ast.ObjectLit:
			for _, ent := range x.Entries {
				walk(ent.Value)
			}
		case *ast.SpreadExpr:
			walk(x.Value)
		case *ast.UnaryExpr:
			walk(x.Operand)
		case *ast.BinaryExpr:
			walk(x.Left)
			walk(x.Right)
		case *ast.CondExpr:
			walk(x.Cond)
			walk(x.Then)
			walk(x.Else)
		case *ast.CallExpr:
			walk(x.Callee)
			for _, a := range x.Args {
				walk(a)
			}
		case *ast.IndexExpr:
			walk(x.Target)
			walk(x.Index)
		case *ast.MemberExpr:
			walk(x.Target)
		case *ast.AnnotatedExpr:
			walk(x.Target)
		case *ast.WhenExpr:
			for _, b := range x.Branches {
				if b.Condition != nil {
					walk(b.Condition)
				}
				walk(b.Value)
			}
		case *ast.ForExpr:
			walk(x.Iter)
			walk(x.Body)
		}
	}
	walk(e)
	return out
}

// exprString renders a compact, human-readable form of an expression for
// assertion/error messages. It is not a formatter: output need not
// round-trip through the parser.
func exprString(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.NullLit:
		return "null"
	case *ast.BoolLit:
		if x.Value {
			return "true"
		}
		return "false"
	case *ast.IntLit:
		return fmt.Sprintf("%d", x.Value)
	case *ast.FloatLit:
		return fmt.Sprintf("%g", x.Value)
	case *ast.StringLit:
		return fmt.Sprintf("%q", x.Value)
	case *ast.Ident:
		return x.Name
	case *ast.UnaryExpr:
		return x.Op.String() + exprString(x.Operand)
	case *ast.BinaryExpr:
		return exprString(x.Left) + " " + x.Op.String() + " " + exprString(x.Right)
	case *ast.CondExpr:
		return exprString(x.Cond) + " ? " + exprString(x.Then) + " : " + exprString(x.Else)
	case *ast.CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = exprString(a)
		}
		return exprString(x.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *ast.IndexExpr:
		return exprString(x.Target) + "[" + exprString(x.Index) + "]"
	case *ast.MemberExpr:
		return exprString(x.Target) + "." + x.Name
	case *ast.AnnotatedExpr:
		return exprString(x.Target) + " @" + x.Annotation
	default:
		return "<expr>"
	}
}
