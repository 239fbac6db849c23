package value_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honelang/hone/internal/value"
)

func obj(pairs ...[2]any) value.Value {
	o := value.NewObject()
	for _, p := range pairs {
		o.Set(p[0].(string), p[1].(value.Value))
	}
	return value.FromObject(o)
}

func cmpValues(t *testing.T, got, want value.Value) {
	t.Helper()
	if diff := cmp.Diff(dump(want), dump(got)); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

// dump converts a Value into a plain comparable Go structure for go-cmp.
func dump(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindInt:
		i, _ := v.AsInt()
		return i
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindArray:
		arr, _ := v.AsArray()
		out := make([]any, len(arr))
		for i, it := range arr {
			out[i] = dump(it)
		}
		return out
	case value.KindObject:
		o, _ := v.AsObject()
		out := make([]any, 0, o.Len())
		o.Each(func(k string, vv value.Value) {
			out = append(out, [2]any{k, dump(vv)})
		})
		return out
	}
	return nil
}

func TestMergeReplaceAlwaysOverlay(t *testing.T) {
	a := obj([2]any{"x", value.Int(1)})
	b := obj([2]any{"y", value.Int(2)})
	got := value.Merge(a, b, value.Replace)
	cmpValues(t, got, b)
}

func TestMergeNormalScalarOverlayWins(t *testing.T) {
	got := value.Merge(value.Int(1), value.String("hi"), value.Normal)
	cmpValues(t, got, value.String("hi"))
}

func TestMergeNormalDeepObjects(t *testing.T) {
	base := obj([2]any{"server", obj([2]any{"host", value.String("localhost")})})
	overlay := obj([2]any{"server", obj([2]any{"port", value.Int(8080)})})
	got := value.Merge(base, overlay, value.Normal)
	want := obj([2]any{"server", obj(
		[2]any{"host", value.String("localhost")},
		[2]any{"port", value.Int(8080)},
	)})
	cmpValues(t, got, want)
}

func TestMergeNormalAssociative(t *testing.T) {
	a := obj([2]any{"a", value.Int(1)})
	b := obj([2]any{"a", value.Int(2)}, [2]any{"b", value.Int(1)})
	c := obj([2]any{"b", value.Int(2)}, [2]any{"c", value.Int(1)})

	left := value.Merge(value.Merge(a, b, value.Normal), c, value.Normal)
	right := value.Merge(a, value.Merge(b, c, value.Normal), value.Normal)
	cmpValues(t, left, right)
}

func TestMergeAppendConcatenatesArrays(t *testing.T) {
	base := value.Array(value.Int(1), value.Int(2))
	overlay := value.Array(value.Int(3), value.Int(4))
	got := value.Merge(base, overlay, value.Append)
	cmpValues(t, got, value.Array(value.Int(1), value.Int(2), value.Int(3), value.Int(4)))
}

func TestMergeAppendMismatchedShapeOverlayWins(t *testing.T) {
	got := value.Merge(value.Array(value.Int(1)), value.Int(5), value.Append)
	cmpValues(t, got, value.Int(5))
}

func TestInsertionOrderPreservedAcrossMerge(t *testing.T) {
	base := obj([2]any{"a", value.Int(1)}, [2]any{"b", value.Int(2)})
	overlay := obj([2]any{"b", value.Int(20)}, [2]any{"c", value.Int(3)})
	got := value.Merge(base, overlay, value.Normal)
	o, ok := got.AsObject()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, o.Keys())
}

func TestEqualIntFloatCrossKind(t *testing.T) {
	assert.True(t, value.Equal(value.Int(2), value.Float(2.0)))
	assert.False(t, value.Equal(value.Int(2), value.Float(2.5)))
}

func TestTruthiness(t *testing.T) {
	falsy := []value.Value{
		value.Null, value.Bool(false), value.Int(0), value.Float(0), value.String(""),
		value.Array(), value.FromObject(value.NewObject()),
	}
	for _, v := range falsy {
		assert.False(t, v.Truthy(), "expected falsy: %v", v)
	}
	truthy := []value.Value{value.Bool(true), value.Int(1), value.String("x"), value.Array(value.Null)}
	for _, v := range truthy {
		assert.True(t, v.Truthy(), "expected truthy: %v", v)
	}
}
