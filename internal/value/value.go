// Package value implements the Hone Value algebra (spec.md §3.1): a closed
// seven-variant sum type with an order-preserving Object, plus the three
// merge strategies (spec.md §4.3.2) that the evaluator uses to combine
// writes. Grounded on the original Rust implementation's
// evaluator/value.rs and evaluator/merge.rs (src/evaluator/value.rs,
// src/evaluator/merge.rs in original_source/), re-expressed with Go value
// semantics instead of an IndexMap.
package value

import (
	"fmt"
	"math"
)

// Kind identifies which of the seven Value variants is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the sum type every stage of the pipeline after the evaluator
// operates on. A zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  *Object
}

// Null is the null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Int(i int64) Value    { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: items}
}

func ArrayFrom(items []Value) Value {
	return Value{kind: KindArray, arr: items}
}

func FromObject(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)   { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)   { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}
func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Truthy implements spec.md §3.1 truthiness.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindArray:
		return len(v.arr) != 0
	case KindObject:
		return v.obj.Len() != 0
	}
	return false
}

// Equal implements Value equality: numeric kinds compare numerically equal
// across Int/Float, everything else is kind- and structure-strict.
func Equal(a, b Value) bool {
	if a.kind == KindInt && b.kind == KindFloat {
		return float64(a.i) == b.f
	}
	if a.kind == KindFloat && b.kind == KindInt {
		return a.f == float64(b.i)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return a.obj.Equal(b.obj)
	}
	return false
}

// Compare provides a total order within (Int, Float, Int<->Float) and
// within String. ok is false for any other pairing (spec.md §3.1).
func Compare(a, b Value) (cmp int, ok bool) {
	af, aIsNum := a.AsFloat()
	bf, bIsNum := b.AsFloat()
	if aIsNum && bIsNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind == KindString && b.kind == KindString {
		switch {
		case a.s < b.s:
			return -1, true
		case a.s > b.s:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// Display renders the "display" form used by string interpolation
// (spec.md §4.3.3), distinct from the JSON serialization form.
func (v Value) Display() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, it := range v.arr {
			parts[i] = it.Display()
		}
		return "[" + joinComma(parts) + "]"
	case KindObject:
		parts := make([]string, 0, v.obj.Len())
		for _, k := range v.obj.Keys() {
			vv, _ := v.obj.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, vv.Display()))
		}
		return "{" + joinComma(parts) + "}"
	}
	return ""
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// formatFloat picks the shortest round-trippable decimal form, always
// showing a fractional part so 8.0 displays as "8" only through the JSON
// emitter's own rule (see internal/emit), never here: display form keeps
// the float recognizable as a float.
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := fmt.Sprintf("%g", f)
	if !containsAny(s, ".eE") && !containsAny(s, "n") { // avoid mangling inf/nan above
		s += ".0"
	}
	return s
}

func containsAny(s, chars string) bool {
	for _, c := range chars {
		for _, r := range s {
			if r == c {
				return true
			}
		}
	}
	return false
}
