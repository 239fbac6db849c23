package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honelang/hone/internal/resolver"
)

func order() []*resolver.ResolvedFile {
	return []*resolver.ResolvedFile{
		{Path: "/b.hone"},
		{Path: "/a.hone", ImportPaths: []string{"/b.hone"}, ImportNames: []string{"b"}},
	}
}

func TestGenerateJSON(t *testing.T) {
	out, err := Generate(order(), "/a.hone", FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, `"path": "/a.hone"`)
	assert.Contains(t, out, `"from": "/a.hone", "to": "/b.hone", "kind": "import"`)
}

func TestGenerateDot(t *testing.T) {
	out, err := Generate(order(), "/a.hone", FormatDot)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph dependencies")
	assert.Contains(t, out, "->")
}

func TestGenerateText(t *testing.T) {
	out, err := Generate(order(), "/a.hone", FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "/a.hone")
	assert.Contains(t, out, "/b.hone")
}

func TestParseFormatAliases(t *testing.T) {
	for _, s := range []string{"dot", "graphviz", "json", "text", "tree"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err)
	}
	_, err := ParseFormat("bogus")
	assert.Error(t, err)
}
