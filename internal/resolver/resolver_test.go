package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoOrderDependenciesBeforeDependents(t *testing.T) {
	fs := NewVirtualFS(map[string]string{
		"/a.hone": "import \"./b.hone\" as b\nkey: b.value\n",
		"/b.hone": "value: 1\n",
	})
	r := New(fs)
	order, err := r.TopoOrder("/a.hone")
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "/b.hone", order[0].Path)
	assert.Equal(t, "/a.hone", order[1].Path)
}

func TestDiamondDependencyVisitedOnce(t *testing.T) {
	fs := NewVirtualFS(map[string]string{
		"/a.hone": "import \"./b.hone\" as b\nimport \"./c.hone\" as c\nkey: 1\n",
		"/b.hone": "import \"./d.hone\" as d\nkey: 1\n",
		"/c.hone": "import \"./d.hone\" as d\nkey: 1\n",
		"/d.hone": "key: 1\n",
	})
	r := New(fs)
	order, err := r.TopoOrder("/a.hone")
	require.NoError(t, err)
	count := 0
	for _, rf := range order {
		if rf.Path == "/d.hone" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, order, 4)
}

func TestCircularImportReportsFullCycle(t *testing.T) {
	fs := NewVirtualFS(map[string]string{
		"/a.hone": "from \"./b.hone\"\nkey: 1\n",
		"/b.hone": "from \"./a.hone\"\nkey: 1\n",
	})
	r := New(fs)
	_, err := r.Resolve("/a.hone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/a.hone")
	assert.Contains(t, err.Error(), "/b.hone")
}

func TestInterpolatedImportPathRejected(t *testing.T) {
	fs := NewVirtualFS(map[string]string{
		"/a.hone": "let name = \"b\"\nimport \"${name}.hone\" as b\nkey: 1\n",
	})
	r := New(fs)
	_, err := r.Resolve("/a.hone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "literal string")
}

// TestSubDocumentOwnImportIsResolved covers spec.md §3.2's "has its own
// preamble": an `import` declared only inside a `---[name]` sub-document's
// preamble must be resolved and appear in the topological order.
func TestSubDocumentOwnImportIsResolved(t *testing.T) {
	fs := NewVirtualFS(map[string]string{
		"/a.hone": "key: 1\n---[staging]\nimport \"./b.hone\" as b\nkey: b.value\n",
		"/b.hone": "value: 1\n",
	})
	r := New(fs)
	order, err := r.TopoOrder("/a.hone")
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "/b.hone", order[0].Path)
	assert.Equal(t, "/a.hone", order[1].Path)

	rf, err := r.Resolve("/a.hone")
	require.NoError(t, err)
	require.Len(t, rf.SubDocs, 1)
	assert.Equal(t, []string{"/b.hone"}, rf.SubDocs[0].ImportPaths)
	assert.Equal(t, []string{"b"}, rf.SubDocs[0].ImportNames)
}

// TestSubDocumentFromIndependentOfParent covers the fromSeen independence
// fix: the parent file and a sub-document may each declare their own
// `from` without tripping a false "multiple from declarations" error.
func TestSubDocumentFromIndependentOfParent(t *testing.T) {
	fs := NewVirtualFS(map[string]string{
		"/a.hone":    "from \"./base.hone\"\nkey: 1\n---[staging]\nfrom \"./staging-base.hone\"\nkey: 1\n",
		"/base.hone": "key: 1\n",
		"/staging-base.hone": "key: 1\n",
	})
	r := New(fs)
	rf, err := r.Resolve("/a.hone")
	require.NoError(t, err)
	assert.Equal(t, "/base.hone", rf.FromPath)
	require.Len(t, rf.SubDocs, 1)
	assert.Equal(t, "/staging-base.hone", rf.SubDocs[0].FromPath)
}

func TestMissingImportReportsResolverError(t *testing.T) {
	fs := NewVirtualFS(map[string]string{
		"/a.hone": "import \"./missing.hone\" as m\nkey: 1\n",
	})
	r := New(fs)
	_, err := r.Resolve("/a.hone")
	require.Error(t, err)
}
