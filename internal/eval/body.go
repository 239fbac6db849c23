package eval

import (
	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/value"
)

// EvalBodyItems folds items onto base in order, using each item's merge
// operator (spec.md §4.3.2, §4.3.3). path is the dot-joined path of the
// object these items populate (nil at the document root).
func (e *Evaluator) EvalBodyItems(base value.Value, items []ast.BodyItem, path []string) (value.Value, error) {
	result := base
	for _, item := range items {
		var err error
		result, err = e.evalOneBodyItem(result, item, path)
		if err != nil {
			return value.Null, err
		}
	}
	return result, nil
}

func (e *Evaluator) evalOneBodyItem(result value.Value, item ast.BodyItem, path []string) (value.Value, error) {
	switch n := item.(type) {
	case *ast.LetItem:
		v, err := e.evalExpr(n.Value, nil)
		if err != nil {
			return value.Null, err
		}
		e.scopes.Define(n.Name, v)
		return result, nil

	case *ast.KeyValueItem:
		key, err := e.evalKey(n.Key)
		if err != nil {
			return value.Null, err
		}
		childPath := append(append([]string(nil), path...), key)
		v, err := e.evalExpr(n.Value, childPath)
		if err != nil {
			return value.Null, err
		}
		return e.mergeKey(result, key, v, n.Op), nil

	case *ast.BlockItem:
		key, err := e.evalKey(n.Name)
		if err != nil {
			return value.Null, err
		}
		childPath := append(append([]string(nil), path...), key)
		existing := value.FromObject(value.NewObject())
		if obj, ok := result.AsObject(); ok {
			if cur, found := obj.Get(key); found {
				existing = cur
			}
		}
		e.scopes.Push()
		v, err := e.EvalBodyItems(existing, n.Items, childPath)
		e.scopes.Pop()
		if err != nil {
			return value.Null, err
		}
		return e.mergeKey(result, key, v, ast.OpNormal), nil

	case *ast.WhenItem:
		branch, err := e.selectWhenBranch(n.Branches)
		if err != nil {
			return value.Null, err
		}
		if branch == nil {
			return result, nil
		}
		e.scopes.Push()
		v, err := e.EvalBodyItems(result, branch.Body, path)
		e.scopes.Pop()
		return v, err

	case *ast.ForItem:
		return e.evalForItem(n, result)

	case *ast.AssertItem:
		if err := e.evalAssert(n); err != nil {
			return value.Null, err
		}
		return result, nil

	case *ast.SpreadItem:
		v, err := e.evalExpr(n.Value, nil)
		if err != nil {
			return value.Null, err
		}
		src, ok := v.AsObject()
		if !ok {
			return value.Null, e.errf(n.Pos, diag.KindType, "cannot spread a %s into an object body", v.Kind()).WithCode("E_SPREAD_TYPE")
		}
		merged := result
		src.Each(func(k string, val value.Value) {
			merged = e.mergeKey(merged, k, val, ast.OpNormal)
		})
		return merged, nil

	default:
		return value.Null, e.errf(item.Position(), diag.KindRuntime, "unhandled body item %T", item)
	}
}

func (e *Evaluator) mergeKey(result value.Value, key string, v value.Value, op ast.MergeOp) value.Value {
	obj, ok := result.AsObject()
	if !ok {
		obj = value.NewObject()
	} else {
		obj = obj.Clone()
	}
	strategy := value.Normal
	switch op {
	case ast.OpAppend:
		strategy = value.Append
	case ast.OpReplace:
		strategy = value.Replace
	}
	if existing, found := obj.Get(key); found {
		obj.Set(key, value.Merge(existing, v, strategy))
	} else {
		obj.Set(key, v)
	}
	return value.FromObject(obj)
}

// selectWhenBranch evaluates branch conditions in order and returns the
// first truthy one, or the trailing `else` (Condition == nil), or nil if
// nothing matches (spec.md §4.3.3 "when").
func (e *Evaluator) selectWhenBranch(branches []ast.WhenBranch) (*ast.WhenBranch, error) {
	for i := range branches {
		b := &branches[i]
		if b.Condition == nil {
			return b, nil
		}
		cond, err := e.evalExpr(b.Condition, nil)
		if err != nil {
			return nil, err
		}
		if cond.Truthy() {
			return b, nil
		}
	}
	return nil, nil
}
