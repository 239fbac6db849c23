package eval

import (
	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/value"
)

// forIterItem is one (key, value) pair produced by iterating an array
// (key = its int index) or an object (key = its string key).
type forIterItem struct {
	Key value.Value
	Val value.Value
}

func (e *Evaluator) forIterate(iter value.Value, pos ast.Position) ([]forIterItem, error) {
	switch iter.Kind() {
	case value.KindArray:
		arr, _ := iter.AsArray()
		items := make([]forIterItem, len(arr))
		for i, v := range arr {
			items[i] = forIterItem{Key: value.Int(int64(i)), Val: v}
		}
		return items, nil
	case value.KindObject:
		obj, _ := iter.AsObject()
		items := make([]forIterItem, 0, obj.Len())
		obj.Each(func(k string, v value.Value) {
			items = append(items, forIterItem{Key: value.String(k), Val: v})
		})
		return items, nil
	default:
		return nil, e.errf(pos, diag.KindType, "`for` requires an array or object, got %s", iter.Kind()).WithCode("E_TYPE_MISMATCH")
	}
}

// bindForVars binds a single iteration's variables. A dual binding
// (`for k, v in ...`) receives the key and value separately regardless of
// the source. A single-name binding (`for v in ...`) over an *object*
// source receives a synthetic `{key, value}` pair rather than the raw
// value, matching original_source/src/evaluator/mod.rs's
// eval_for_in_array, which wraps every object-iteration item before
// binding regardless of binding form; over an array source it still
// receives the raw element, since there is no key worth exposing.
func (e *Evaluator) bindForVars(keyVar, valueVar string, item forIterItem, sourceKind value.Kind) {
	if keyVar != "" {
		e.scopes.Define(keyVar, item.Key)
		e.scopes.Define(valueVar, item.Val)
		return
	}
	if sourceKind == value.KindObject {
		pair := value.NewObject()
		pair.Set("key", item.Key)
		pair.Set("value", item.Val)
		e.scopes.Define(valueVar, value.FromObject(pair))
		return
	}
	e.scopes.Define(valueVar, item.Val)
}

// evalForExpr evaluates `for` in expression position, yielding an array
// (spec.md §4.2 "for" postfix/primary form).
func (e *Evaluator) evalForExpr(n *ast.ForExpr) (value.Value, error) {
	iterVal, err := e.evalExpr(n.Iter, nil)
	if err != nil {
		return value.Null, err
	}
	items, err := e.forIterate(iterVal, n.Pos)
	if err != nil {
		return value.Null, err
	}
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		e.scopes.Push()
		e.bindForVars(n.KeyVar, n.ValueVar, item, iterVal.Kind())
		v, err := e.evalExpr(n.Body, nil)
		e.scopes.Pop()
		if err != nil {
			return value.Null, err
		}
		out = append(out, v)
	}
	return value.ArrayFrom(out), nil
}

// evalForItem evaluates a body-level `for` (spec.md §4.3.3): each
// iteration produces an object (from Items, from Trailing, or — for a
// "mixed block" combining both — the Normal-merge of the two), and every
// iteration's key-value pairs are folded into the surrounding object via
// the merge engine (so nested per-iteration objects deep-merge instead of
// clobbering one another).
func (e *Evaluator) evalForItem(n *ast.ForItem, target value.Value) (value.Value, error) {
	iterVal, err := e.evalExpr(n.Iter, nil)
	if err != nil {
		return value.Null, err
	}
	items, err := e.forIterate(iterVal, n.Pos)
	if err != nil {
		return value.Null, err
	}

	for _, item := range items {
		e.scopes.Push()
		e.bindForVars(n.KeyVar, n.ValueVar, item, iterVal.Kind())
		iterResult, err := e.evalForIterationBody(n)
		e.scopes.Pop()
		if err != nil {
			return value.Null, err
		}
		if iterResult.Kind() == value.KindObject {
			target = value.Merge(target, iterResult, value.Normal)
		}
	}
	return target, nil
}

// evalForIterationBody evaluates one iteration of a body-level `for`'s
// Items/Trailing shape into a single value to fold into the surrounding
// object.
func (e *Evaluator) evalForIterationBody(n *ast.ForItem) (value.Value, error) {
	switch {
	case len(n.Items) > 0 && n.Trailing != nil:
		obj, err := e.EvalBodyItems(value.FromObject(value.NewObject()), n.Items, nil)
		if err != nil {
			return value.Null, err
		}
		trailing, err := e.evalExpr(n.Trailing, nil)
		if err != nil {
			return value.Null, err
		}
		return value.Merge(obj, trailing, value.Normal), nil
	case n.Trailing != nil:
		return e.evalExpr(n.Trailing, nil)
	default:
		return e.EvalBodyItems(value.FromObject(value.NewObject()), n.Items, nil)
	}
}
