package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honelang/hone/internal/value"
)

func obj(pairs ...any) value.Value {
	o := value.NewObject()
	for i := 0; i < len(pairs); i += 2 {
		o.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return value.FromObject(o)
}

func TestCompareNoDifferences(t *testing.T) {
	a := obj("port", value.Int(8080))
	b := obj("port", value.Int(8080))
	r := Compare(a, b)
	assert.True(t, r.Equal())
}

func TestCompareModifiedLeaf(t *testing.T) {
	a := obj("port", value.Int(8080))
	b := obj("port", value.Int(9090))
	r := Compare(a, b)
	require.Len(t, r.Modified, 1)
	assert.Equal(t, "port", r.Modified[0].Path)
	assert.Equal(t, "8080", r.Modified[0].Expected)
	assert.Equal(t, "9090", r.Modified[0].Actual)
}

func TestCompareAddedAndRemovedKeys(t *testing.T) {
	a := obj("host", value.String("localhost"))
	b := obj("port", value.Int(8080))
	r := Compare(a, b)
	require.Len(t, r.Removed, 1)
	require.Len(t, r.Added, 1)
	assert.Equal(t, "host", r.Removed[0].Path)
	assert.Equal(t, "port", r.Added[0].Path)
}

func TestCompareNestedObjectPath(t *testing.T) {
	inner1 := obj("host", value.String("a"))
	inner2 := obj("host", value.String("b"))
	a := obj("server", inner1)
	b := obj("server", inner2)
	r := Compare(a, b)
	require.Len(t, r.Modified, 1)
	assert.Equal(t, "server.host", r.Modified[0].Path)
}

func TestFormatReportsNoDifferences(t *testing.T) {
	r := &Result{}
	assert.Contains(t, Format(r, false), "No differences found.")
}

func TestFormatListsModifiedAddedRemoved(t *testing.T) {
	r := &Result{
		Modified: []Change{{Path: "port", Expected: "8080", Actual: "9090"}},
		Added:    []Change{{Path: "debug", Actual: "true"}},
		Removed:  []Change{{Path: "host", Expected: "localhost"}},
	}
	out := Format(r, false)
	assert.Contains(t, out, "Modified:")
	assert.Contains(t, out, "port")
	assert.Contains(t, out, "Added:")
	assert.Contains(t, out, "debug")
	assert.Contains(t, out, "Removed:")
	assert.Contains(t, out, "host")
}
