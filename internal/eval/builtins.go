package eval

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/emit"
	"github.com/honelang/hone/internal/value"
	"github.com/tidwall/gjson"
)

// builtinFn is one entry in the closed builtin table (spec.md §4.3.5).
type builtinFn func(e *Evaluator, call *ast.CallExpr, args []value.Value) (value.Value, error)

// builtins is the closed surface: no entry is ever added at runtime, and
// `map`/`filter`/`reduce` are deliberately absent (callers get redirected
// to a `for` comprehension in evalCall).
var builtins = map[string]builtinFn{
	"len":          biLen,
	"keys":         biKeys,
	"values":       biValues,
	"entries":      biEntries,
	"from_entries": biFromEntries,
	"contains":     biContains,
	"type_of":      biTypeOf,

	"concat":  biConcat,
	"merge":   biMerge,
	"flatten": biFlatten,
	"range":   biRange,
	"sort":    biSort,
	"unique":  biUnique,
	"reverse": biReverse,
	"slice":   biSlice,

	"upper":       biUpper,
	"lower":       biLower,
	"trim":        biTrim,
	"split":       biSplit,
	"join":        biJoin,
	"replace":     biReplace,
	"starts_with": biStartsWith,
	"ends_with":   biEndsWith,
	"substring":   biSubstring,

	"min":   biMin,
	"max":   biMax,
	"abs":   biAbs,
	"clamp": biClamp,

	"to_str":   biToStr,
	"to_int":   biToInt,
	"to_float": biToFloat,
	"to_bool":  biToBool,
	"default":  biDefault,

	"base64_encode": biBase64Encode,
	"base64_decode": biBase64Decode,
	"to_json":       biToJSON,
	"from_json":     biFromJSON,
	"sha256":        biSHA256,

	"env":  biEnv,
	"file": biFile,
}

func arityErr(e *Evaluator, call *ast.CallExpr, name string, want int, got int) error {
	return e.errf(call.Pos, diag.KindType, "%s expects %d argument(s), got %d", name, want, got).WithCode("E_ARITY_MISMATCH")
}

func typeErr(e *Evaluator, call *ast.CallExpr, name string, msg string) error {
	return e.errf(call.Pos, diag.KindType, "%s: %s", name, msg).WithCode("E_TYPE_MISMATCH")
}

func biLen(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "len", 1, len(a))
	}
	switch a[0].Kind() {
	case value.KindString:
		s, _ := a[0].AsString()
		return value.Int(int64(len([]rune(s)))), nil
	case value.KindArray:
		arr, _ := a[0].AsArray()
		return value.Int(int64(len(arr))), nil
	case value.KindObject:
		obj, _ := a[0].AsObject()
		return value.Int(int64(obj.Len())), nil
	default:
		return value.Null, typeErr(e, call, "len", fmt.Sprintf("expects a string, array or object, got %s", a[0].Kind()))
	}
}

func biKeys(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "keys", 1, len(a))
	}
	obj, ok := a[0].AsObject()
	if !ok {
		return value.Null, typeErr(e, call, "keys", fmt.Sprintf("expects an object, got %s", a[0].Kind()))
	}
	out := make([]value.Value, 0, obj.Len())
	for _, k := range obj.Keys() {
		out = append(out, value.String(k))
	}
	return value.ArrayFrom(out), nil
}

func biValues(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "values", 1, len(a))
	}
	obj, ok := a[0].AsObject()
	if !ok {
		return value.Null, typeErr(e, call, "values", fmt.Sprintf("expects an object, got %s", a[0].Kind()))
	}
	out := make([]value.Value, 0, obj.Len())
	obj.Each(func(_ string, v value.Value) { out = append(out, v) })
	return value.ArrayFrom(out), nil
}

func biEntries(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "entries", 1, len(a))
	}
	obj, ok := a[0].AsObject()
	if !ok {
		return value.Null, typeErr(e, call, "entries", fmt.Sprintf("expects an object, got %s", a[0].Kind()))
	}
	out := make([]value.Value, 0, obj.Len())
	obj.Each(func(k string, v value.Value) {
		pair := value.NewObject()
		pair.Set("key", value.String(k))
		pair.Set("value", v)
		out = append(out, value.FromObject(pair))
	})
	return value.ArrayFrom(out), nil
}

// biFromEntries accepts the shape `entries` produces (`{key, value}`
// objects) as well as plain `[key, value]` pairs.
func biFromEntries(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "from_entries", 1, len(a))
	}
	arr, ok := a[0].AsArray()
	if !ok {
		return value.Null, typeErr(e, call, "from_entries", fmt.Sprintf("expects an array, got %s", a[0].Kind()))
	}
	out := value.NewObject()
	for i, item := range arr {
		if obj, ok := item.AsObject(); ok {
			k, kok := obj.Get("key")
			v, vok := obj.Get("value")
			ks, sok := k.AsString()
			if !kok || !vok || !sok {
				return value.Null, typeErr(e, call, "from_entries", fmt.Sprintf("element %d is not a {key, value} pair", i))
			}
			out.Set(ks, v)
			continue
		}
		if pair, ok := item.AsArray(); ok && len(pair) == 2 {
			ks, sok := pair[0].AsString()
			if !sok {
				return value.Null, typeErr(e, call, "from_entries", fmt.Sprintf("element %d's key is not a string", i))
			}
			out.Set(ks, pair[1])
			continue
		}
		return value.Null, typeErr(e, call, "from_entries", fmt.Sprintf("element %d is not a {key, value} pair or [key, value] tuple", i))
	}
	return value.FromObject(out), nil
}

func biContains(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 2 {
		return value.Null, arityErr(e, call, "contains", 2, len(a))
	}
	switch a[0].Kind() {
	case value.KindArray:
		arr, _ := a[0].AsArray()
		for _, v := range arr {
			if value.Equal(v, a[1]) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case value.KindObject:
		obj, _ := a[0].AsObject()
		k, ok := a[1].AsString()
		if !ok {
			return value.Null, typeErr(e, call, "contains", "object key to look up must be a string")
		}
		return value.Bool(obj.Has(k)), nil
	case value.KindString:
		s, _ := a[0].AsString()
		needle, ok := a[1].AsString()
		if !ok {
			return value.Null, typeErr(e, call, "contains", "substring to look up must be a string")
		}
		return value.Bool(strings.Contains(s, needle)), nil
	default:
		return value.Null, typeErr(e, call, "contains", fmt.Sprintf("expects a string, array or object, got %s", a[0].Kind()))
	}
}

func biTypeOf(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "type_of", 1, len(a))
	}
	return value.String(a[0].Kind().String()), nil
}

func biConcat(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 2 {
		return value.Null, arityErr(e, call, "concat", 2, len(a))
	}
	if s0, ok := a[0].AsString(); ok {
		var b strings.Builder
		b.WriteString(s0)
		for _, v := range a[1:] {
			s, ok := v.AsString()
			if !ok {
				return value.Null, typeErr(e, call, "concat", "cannot mix strings and non-strings")
			}
			b.WriteString(s)
		}
		return value.String(b.String()), nil
	}
	if arr0, ok := a[0].AsArray(); ok {
		out := append([]value.Value(nil), arr0...)
		for _, v := range a[1:] {
			arr, ok := v.AsArray()
			if !ok {
				return value.Null, typeErr(e, call, "concat", "cannot mix arrays and non-arrays")
			}
			out = append(out, arr...)
		}
		return value.ArrayFrom(out), nil
	}
	return value.Null, typeErr(e, call, "concat", fmt.Sprintf("expects strings or arrays, got %s", a[0].Kind()))
}

func biMerge(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 2 || len(a) > 3 {
		return value.Null, arityErr(e, call, "merge", 2, len(a))
	}
	strategy := value.Normal
	if len(a) == 3 {
		s, ok := a[2].AsString()
		if !ok {
			return value.Null, typeErr(e, call, "merge", "strategy argument must be a string")
		}
		switch s {
		case "normal":
			strategy = value.Normal
		case "append":
			strategy = value.Append
		case "replace":
			strategy = value.Replace
		default:
			return value.Null, typeErr(e, call, "merge", fmt.Sprintf("unknown strategy %q (want \"normal\", \"append\" or \"replace\")", s))
		}
	}
	return value.Merge(a[0], a[1], strategy), nil
}

func biFlatten(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 1 || len(a) > 2 {
		return value.Null, arityErr(e, call, "flatten", 1, len(a))
	}
	arr, ok := a[0].AsArray()
	if !ok {
		return value.Null, typeErr(e, call, "flatten", fmt.Sprintf("expects an array, got %s", a[0].Kind()))
	}
	depth := int64(1)
	if len(a) == 2 {
		d, ok := a[1].AsInt()
		if !ok {
			return value.Null, typeErr(e, call, "flatten", "depth must be an int")
		}
		depth = d
	}
	return value.ArrayFrom(flattenArray(arr, depth)), nil
}

func flattenArray(arr []value.Value, depth int64) []value.Value {
	if depth <= 0 {
		return arr
	}
	out := make([]value.Value, 0, len(arr))
	for _, v := range arr {
		if inner, ok := v.AsArray(); ok {
			out = append(out, flattenArray(inner, depth-1)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func biRange(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 1 || len(a) > 3 {
		return value.Null, arityErr(e, call, "range", 1, len(a))
	}
	ints := make([]int64, len(a))
	for i, v := range a {
		n, ok := v.AsInt()
		if !ok {
			return value.Null, typeErr(e, call, "range", "arguments must be ints")
		}
		ints[i] = n
	}
	var start, end, step int64
	switch len(ints) {
	case 1:
		start, end, step = 0, ints[0], 1
	case 2:
		start, end, step = ints[0], ints[1], 1
	case 3:
		start, end, step = ints[0], ints[1], ints[2]
		if step == 0 {
			return value.Null, typeErr(e, call, "range", "step must not be 0")
		}
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, value.Int(i))
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, value.Int(i))
		}
	}
	return value.ArrayFrom(out), nil
}

func biSort(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "sort", 1, len(a))
	}
	arr, ok := a[0].AsArray()
	if !ok {
		return value.Null, typeErr(e, call, "sort", fmt.Sprintf("expects an array, got %s", a[0].Kind()))
	}
	out := append([]value.Value(nil), arr...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		cmp, ok := value.Compare(out[i], out[j])
		if !ok {
			sortErr = typeErr(e, call, "sort", fmt.Sprintf("cannot order %s and %s", out[i].Kind(), out[j].Kind()))
			return false
		}
		return cmp < 0
	})
	if sortErr != nil {
		return value.Null, sortErr
	}
	return value.ArrayFrom(out), nil
}

func biUnique(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "unique", 1, len(a))
	}
	arr, ok := a[0].AsArray()
	if !ok {
		return value.Null, typeErr(e, call, "unique", fmt.Sprintf("expects an array, got %s", a[0].Kind()))
	}
	var out []value.Value
	for _, v := range arr {
		dup := false
		for _, seen := range out {
			if value.Equal(v, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return value.ArrayFrom(out), nil
}

func biReverse(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "reverse", 1, len(a))
	}
	if arr, ok := a[0].AsArray(); ok {
		out := make([]value.Value, len(arr))
		for i, v := range arr {
			out[len(arr)-1-i] = v
		}
		return value.ArrayFrom(out), nil
	}
	if s, ok := a[0].AsString(); ok {
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return value.String(string(r)), nil
	}
	return value.Null, typeErr(e, call, "reverse", fmt.Sprintf("expects a string or array, got %s", a[0].Kind()))
}

func clampIndex(i, n int64) int64 {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func biSlice(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 2 || len(a) > 3 {
		return value.Null, arityErr(e, call, "slice", 2, len(a))
	}
	start, ok := a[1].AsInt()
	if !ok {
		return value.Null, typeErr(e, call, "slice", "start must be an int")
	}
	if arr, ok := a[0].AsArray(); ok {
		n := int64(len(arr))
		end := n
		if len(a) == 3 {
			end, ok = a[2].AsInt()
			if !ok {
				return value.Null, typeErr(e, call, "slice", "end must be an int")
			}
		}
		s, en := clampIndex(start, n), clampIndex(end, n)
		if s > en {
			return value.ArrayFrom(nil), nil
		}
		return value.ArrayFrom(append([]value.Value(nil), arr[s:en]...)), nil
	}
	if str, ok := a[0].AsString(); ok {
		r := []rune(str)
		n := int64(len(r))
		end := n
		if len(a) == 3 {
			end, ok = a[2].AsInt()
			if !ok {
				return value.Null, typeErr(e, call, "slice", "end must be an int")
			}
		}
		s, en := clampIndex(start, n), clampIndex(end, n)
		if s > en {
			return value.String(""), nil
		}
		return value.String(string(r[s:en])), nil
	}
	return value.Null, typeErr(e, call, "slice", fmt.Sprintf("expects a string or array, got %s", a[0].Kind()))
}

func asStr(e *Evaluator, call *ast.CallExpr, name string, v value.Value) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", typeErr(e, call, name, fmt.Sprintf("expects a string, got %s", v.Kind()))
	}
	return s, nil
}

func biUpper(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "upper", 1, len(a))
	}
	s, err := asStr(e, call, "upper", a[0])
	if err != nil {
		return value.Null, err
	}
	return value.String(strings.ToUpper(s)), nil
}

func biLower(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "lower", 1, len(a))
	}
	s, err := asStr(e, call, "lower", a[0])
	if err != nil {
		return value.Null, err
	}
	return value.String(strings.ToLower(s)), nil
}

func biTrim(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 1 || len(a) > 2 {
		return value.Null, arityErr(e, call, "trim", 1, len(a))
	}
	s, err := asStr(e, call, "trim", a[0])
	if err != nil {
		return value.Null, err
	}
	if len(a) == 2 {
		cutset, err := asStr(e, call, "trim", a[1])
		if err != nil {
			return value.Null, err
		}
		return value.String(strings.Trim(s, cutset)), nil
	}
	return value.String(strings.TrimSpace(s)), nil
}

func biSplit(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 2 {
		return value.Null, arityErr(e, call, "split", 2, len(a))
	}
	s, err := asStr(e, call, "split", a[0])
	if err != nil {
		return value.Null, err
	}
	sep, err := asStr(e, call, "split", a[1])
	if err != nil {
		return value.Null, err
	}
	parts := strings.Split(s, sep)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.ArrayFrom(out), nil
}

func biJoin(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 2 {
		return value.Null, arityErr(e, call, "join", 2, len(a))
	}
	arr, ok := a[0].AsArray()
	if !ok {
		return value.Null, typeErr(e, call, "join", fmt.Sprintf("expects an array, got %s", a[0].Kind()))
	}
	sep, err := asStr(e, call, "join", a[1])
	if err != nil {
		return value.Null, err
	}
	parts := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.AsString()
		if !ok {
			return value.Null, typeErr(e, call, "join", fmt.Sprintf("element %d is a %s, not a string", i, v.Kind()))
		}
		parts[i] = s
	}
	return value.String(strings.Join(parts, sep)), nil
}

func biReplace(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 3 {
		return value.Null, arityErr(e, call, "replace", 3, len(a))
	}
	s, err := asStr(e, call, "replace", a[0])
	if err != nil {
		return value.Null, err
	}
	old, err := asStr(e, call, "replace", a[1])
	if err != nil {
		return value.Null, err
	}
	repl, err := asStr(e, call, "replace", a[2])
	if err != nil {
		return value.Null, err
	}
	return value.String(strings.ReplaceAll(s, old, repl)), nil
}

func biStartsWith(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 2 {
		return value.Null, arityErr(e, call, "starts_with", 2, len(a))
	}
	s, err := asStr(e, call, "starts_with", a[0])
	if err != nil {
		return value.Null, err
	}
	prefix, err := asStr(e, call, "starts_with", a[1])
	if err != nil {
		return value.Null, err
	}
	return value.Bool(strings.HasPrefix(s, prefix)), nil
}

func biEndsWith(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 2 {
		return value.Null, arityErr(e, call, "ends_with", 2, len(a))
	}
	s, err := asStr(e, call, "ends_with", a[0])
	if err != nil {
		return value.Null, err
	}
	suffix, err := asStr(e, call, "ends_with", a[1])
	if err != nil {
		return value.Null, err
	}
	return value.Bool(strings.HasSuffix(s, suffix)), nil
}

func biSubstring(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 2 || len(a) > 3 {
		return value.Null, arityErr(e, call, "substring", 2, len(a))
	}
	s, err := asStr(e, call, "substring", a[0])
	if err != nil {
		return value.Null, err
	}
	r := []rune(s)
	n := int64(len(r))
	start, ok := a[1].AsInt()
	if !ok {
		return value.Null, typeErr(e, call, "substring", "start must be an int")
	}
	end := n
	if len(a) == 3 {
		end, ok = a[2].AsInt()
		if !ok {
			return value.Null, typeErr(e, call, "substring", "end must be an int")
		}
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end < start {
		end = start
	}
	if end > n {
		end = n
	}
	return value.String(string(r[start:end])), nil
}

func biMin(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 1 {
		return value.Null, arityErr(e, call, "min", 1, len(a))
	}
	best := a[0]
	for _, v := range a[1:] {
		cmp, ok := value.Compare(v, best)
		if !ok {
			return value.Null, typeErr(e, call, "min", fmt.Sprintf("cannot compare %s and %s", v.Kind(), best.Kind()))
		}
		if cmp < 0 {
			best = v
		}
	}
	return best, nil
}

func biMax(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 1 {
		return value.Null, arityErr(e, call, "max", 1, len(a))
	}
	best := a[0]
	for _, v := range a[1:] {
		cmp, ok := value.Compare(v, best)
		if !ok {
			return value.Null, typeErr(e, call, "max", fmt.Sprintf("cannot compare %s and %s", v.Kind(), best.Kind()))
		}
		if cmp > 0 {
			best = v
		}
	}
	return best, nil
}

func biAbs(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "abs", 1, len(a))
	}
	if i, ok := a[0].AsInt(); ok {
		if i < 0 {
			i = -i
		}
		return value.Int(i), nil
	}
	if f, ok := a[0].AsFloat(); ok {
		if f < 0 {
			f = -f
		}
		return value.Float(f), nil
	}
	return value.Null, typeErr(e, call, "abs", fmt.Sprintf("expects a number, got %s", a[0].Kind()))
}

func biClamp(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 3 {
		return value.Null, arityErr(e, call, "clamp", 3, len(a))
	}
	lo, ok1 := value.Compare(a[0], a[1])
	if !ok1 {
		return value.Null, typeErr(e, call, "clamp", "arguments must be mutually comparable")
	}
	if lo < 0 {
		return a[1], nil
	}
	hi, ok2 := value.Compare(a[0], a[2])
	if !ok2 {
		return value.Null, typeErr(e, call, "clamp", "arguments must be mutually comparable")
	}
	if hi > 0 {
		return a[2], nil
	}
	return a[0], nil
}

func biToStr(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "to_str", 1, len(a))
	}
	return value.String(a[0].Display()), nil
}

func biToInt(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "to_int", 1, len(a))
	}
	switch a[0].Kind() {
	case value.KindInt:
		return a[0], nil
	case value.KindFloat:
		f, _ := a[0].AsFloat()
		return value.Int(int64(f)), nil
	case value.KindBool:
		b, _ := a[0].AsBool()
		if b {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.KindString:
		s, _ := a[0].AsString()
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value.Null, typeErr(e, call, "to_int", fmt.Sprintf("cannot parse %q as an int", s))
		}
		return value.Int(n), nil
	default:
		return value.Null, typeErr(e, call, "to_int", fmt.Sprintf("cannot convert %s to int", a[0].Kind()))
	}
}

func biToFloat(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "to_float", 1, len(a))
	}
	switch a[0].Kind() {
	case value.KindFloat:
		return a[0], nil
	case value.KindInt:
		i, _ := a[0].AsInt()
		return value.Float(float64(i)), nil
	case value.KindString:
		s, _ := a[0].AsString()
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return value.Null, typeErr(e, call, "to_float", fmt.Sprintf("cannot parse %q as a float", s))
		}
		return value.Float(f), nil
	default:
		return value.Null, typeErr(e, call, "to_float", fmt.Sprintf("cannot convert %s to float", a[0].Kind()))
	}
}

func biToBool(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "to_bool", 1, len(a))
	}
	return value.Bool(a[0].Truthy()), nil
}

func biDefault(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 2 {
		return value.Null, arityErr(e, call, "default", 2, len(a))
	}
	if a[0].IsNull() {
		return a[1], nil
	}
	return a[0], nil
}

func biBase64Encode(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "base64_encode", 1, len(a))
	}
	s, err := asStr(e, call, "base64_encode", a[0])
	if err != nil {
		return value.Null, err
	}
	return value.String(base64.StdEncoding.EncodeToString([]byte(s))), nil
}

func biBase64Decode(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "base64_decode", 1, len(a))
	}
	s, err := asStr(e, call, "base64_decode", a[0])
	if err != nil {
		return value.Null, err
	}
	raw, derr := base64.StdEncoding.DecodeString(s)
	if derr != nil {
		return value.Null, typeErr(e, call, "base64_decode", "invalid base64 input")
	}
	return value.String(string(raw)), nil
}

func biSHA256(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "sha256", 1, len(a))
	}
	s, err := asStr(e, call, "sha256", a[0])
	if err != nil {
		return value.Null, err
	}
	sum := sha256.Sum256([]byte(s))
	return value.String(hex.EncodeToString(sum[:])), nil
}

func biEnv(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) < 1 || len(a) > 2 {
		return value.Null, arityErr(e, call, "env", 1, len(a))
	}
	if !e.opts.AllowEnv {
		return value.Null, e.errf(call.Pos, diag.KindRuntime, "`env` is disabled; pass --allow-env to enable it").WithCode("E_ENV_NOT_ALLOWED")
	}
	name, err := asStr(e, call, "env", a[0])
	if err != nil {
		return value.Null, err
	}
	if v, ok := os.LookupEnv(name); ok {
		return value.String(v), nil
	}
	if len(a) == 2 {
		return a[1], nil
	}
	return value.Null, nil
}

func biFile(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "file", 1, len(a))
	}
	if !e.opts.AllowFile {
		return value.Null, e.errf(call.Pos, diag.KindRuntime, "`file` is disabled; pass --allow-env to enable it").WithCode("E_FILE_NOT_ALLOWED")
	}
	path, err := asStr(e, call, "file", a[0])
	if err != nil {
		return value.Null, err
	}
	if !filepath.IsAbs(path) && e.opts.FileRoot != "" {
		path = filepath.Join(e.opts.FileRoot, path)
	}
	raw, rerr := os.ReadFile(path)
	if rerr != nil {
		return value.Null, e.errf(call.Pos, diag.KindRuntime, "file %q: %s", path, rerr).WithCode("E_FILE_READ").WithCause(rerr)
	}
	return value.String(string(raw)), nil
}

// biToJSON renders its argument through the same JSON emitter the `compile
// --format json` CLI path uses (internal/emit.JSON, order-preserving via
// `sjson.SetRawBytes` — SPEC_FULL.md §4.7), rather than hand-rolling a
// second JSON writer for the `to_json` builtin.
func biToJSON(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "to_json", 1, len(a))
	}
	s, err := emit.JSON(a[0])
	if err != nil {
		return value.Null, e.errf(call.Pos, diag.KindRuntime, "to_json: %s", err).WithCode("E_JSON_ENCODE")
	}
	return value.String(s), nil
}

// biFromJSON uses gjson to decode so object key order from the source text
// is preserved through ForEach, matching the rest of the pipeline's
// insertion-order guarantee (spec.md §3.1).
func biFromJSON(e *Evaluator, call *ast.CallExpr, a []value.Value) (value.Value, error) {
	if len(a) != 1 {
		return value.Null, arityErr(e, call, "from_json", 1, len(a))
	}
	s, err := asStr(e, call, "from_json", a[0])
	if err != nil {
		return value.Null, err
	}
	if !gjson.Valid(s) {
		return value.Null, typeErr(e, call, "from_json", "invalid JSON input")
	}
	return gjsonToValue(gjson.Parse(s)), nil
}

func gjsonToValue(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Null
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) && !strings.ContainsAny(r.Raw, ".eE") {
			return value.Int(int64(r.Num))
		}
		return value.Float(r.Num)
	case gjson.String:
		return value.String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var items []value.Value
			r.ForEach(func(_, v gjson.Result) bool {
				items = append(items, gjsonToValue(v))
				return true
			})
			return value.ArrayFrom(items)
		}
		obj := value.NewObject()
		r.ForEach(func(k, v gjson.Result) bool {
			obj.Set(k.Str, gjsonToValue(v))
			return true
		})
		return value.FromObject(obj)
	default:
		return value.Null
	}
}
