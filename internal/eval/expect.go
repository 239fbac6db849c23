package eval

import (
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/value"
)

// evalExpectDecl checks args.path against the declared constraint, fills
// in the default when absent, and errors otherwise (spec.md §4.3.4
// "Expect"). A successful default mutates the `args` binding in place.
func (e *Evaluator) evalExpectDecl(n *ast.ExpectDecl) error {
	args, _ := e.scopes.Lookup("args")
	v, found := lookupPath(args, n.Path)
	if !found {
		if n.Default == nil {
			return e.errf(n.Pos, diag.KindType, "missing required argument %q", strings.Join(n.Path, ".")).WithCode("E_EXPECT_MISSING")
		}
		def, err := e.evalExpr(n.Default, nil)
		if err != nil {
			return err
		}
		updated, err := setPath(args, n.Path, def)
		if err != nil {
			return e.errf(n.Pos, diag.KindRuntime, "%s", err).WithCode("E_EXPECT_DEFAULT")
		}
		e.scopes.DefineAt(0, "args", updated)
		return nil
	}
	if ok, reason := e.checkConstraint(v, n.Constraint); !ok {
		return e.errf(n.Pos, diag.KindType, "argument %q: %s", strings.Join(n.Path, "."), reason).WithCode("E_EXPECT_TYPE_MISMATCH")
	}
	return nil
}

// lookupPath walks a dotted path through nested objects.
func lookupPath(root value.Value, path []string) (value.Value, bool) {
	cur := root
	for _, seg := range path {
		obj, ok := cur.AsObject()
		if !ok {
			return value.Null, false
		}
		v, found := obj.Get(seg)
		if !found {
			return value.Null, false
		}
		cur = v
	}
	return cur, true
}

// setPath returns a new root value with path set to v, creating
// intermediate objects as needed, leaving root's other keys untouched.
func setPath(root value.Value, path []string, v value.Value) (value.Value, error) {
	if len(path) == 0 {
		return v, nil
	}
	obj, ok := root.AsObject()
	if !ok {
		obj = value.NewObject()
	} else {
		obj = obj.Clone()
	}
	head, rest := path[0], path[1:]
	if len(rest) == 0 {
		obj.Set(head, v)
		return value.FromObject(obj), nil
	}
	child, _ := obj.Get(head)
	updatedChild, err := setPath(child, rest, v)
	if err != nil {
		return value.Null, err
	}
	obj.Set(head, updatedChild)
	return value.FromObject(obj), nil
}
