package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honelang/hone/internal/emit"
	"github.com/honelang/hone/internal/resolver"
)

func TestCompileVariablesAndInterpolation(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "let env = \"production\"\nlet base_port = 8000\nservice { name: \"api-${env}\"  port: base_port + 80 }\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"service":{"name":"api-production","port":8080}}`, s)
}

func TestCompileDeepMergeAcrossBlocks(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "config { server { host: \"localhost\" } }\nconfig { server { port: 8080 } }\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"config":{"server":{"host":"localhost","port":8080}}}`, s)
}

func TestCompileAppendVsReplace(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "items: [1,2]\nitems +: [3,4]\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[1,2,3,4]}`, s)

	fs2 := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "config: { a: 1 }\nconfig !: { b: 2 }\n",
	})
	res2, err := Compile(fs2, "/main.hone", Options{})
	require.NoError(t, err)
	s2, err := emit.JSON(res2.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"config":{"b":2}}`, s2)
}

func TestCompileWhenElseChain(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "let env = \"staging\"\nwhen env == \"prod\" { replicas: 5 }\nelse when env == \"staging\" { replicas: 2 }\nelse { replicas: 1 }\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"replicas":2}`, s)
}

// TestCompileForSingleBindingOverObjectWrapsPair covers
// original_source/src/evaluator/mod.rs's eval_for_in_array: a single-name
// `for` binding over an object source receives a synthetic {key, value}
// pair, not the raw value.
func TestCompileForSingleBindingOverObjectWrapsPair(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "let m = { a: 1  b: 2 }\nkeys: for v in m { v.key }\nvalues: for v in m { v.value }\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"keys":["a","b"],"values":[1,2]}`, s)
}

// TestCompileForSingleBindingOverArrayStaysRaw covers the array-source case
// of the same rule: a single-name binding over an array receives the raw
// element, not a {key, value} pair, since there is no key worth exposing.
func TestCompileForSingleBindingOverArrayStaysRaw(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "items: for v in [1, 2, 3] { v }\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[1,2,3]}`, s)
}

func TestCompileSchemaFailure(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "schema Server { host: string  port: int(1,65535) }\nuse Server\nhost: \"localhost\"\nport: 99999\n",
	})
	_, err := Compile(fs, "/main.hone", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestCompileCircularImport(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/a.hone": "from \"./b.hone\"\nkey: 1\n",
		"/b.hone": "from \"./a.hone\"\nkey: 1\n",
	})
	_, err := Compile(fs, "/a.hone", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestCompileImportBindsModuleValue(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "import \"./lib.hone\" as lib\nport: lib.port + 1\n",
		"/lib.hone":  "port: 8000\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"port":8001}`, s)
}

func TestCompileFromInheritsBaseDocument(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "from \"./base.hone\"\nport: 9000\n",
		"/base.hone": "host: \"localhost\"\nport: 8000\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"host":"localhost","port":9000}`, s)
}

func TestCompileSetFlagBuildsArgsPath(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "expect args.net.port: int\nport: args.net.port\n",
	})
	res, err := Compile(fs, "/main.hone", Options{Set: []string{"net.port=8080"}})
	require.NoError(t, err)
	s, err := emit.JSON(res.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"port":8080}`, s)
}

func TestCompileSubDocuments(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "let env = \"prod\"\nname: env\n---[staging]\nname: \"staging\"\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "staging", res.Documents[0].Name)
}

// TestCompileSubDocumentOwnPreamble covers spec.md §3.2 "A sub-document has
// its own preamble and body": a `let` inside a `---[name]` section must be
// parsed and bound for that section's own body, independently of the main
// document's preamble.
func TestCompileSubDocumentOwnPreamble(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "name: \"prod\"\n---[staging]\nlet region = \"us-west\"\nname: region\n",
	})
	res, err := Compile(fs, "/main.hone", Options{})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "staging", res.Documents[0].Name)
	s, err := emit.JSON(res.Documents[0].Value)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"us-west"}`, s)
}

// TestCompileSubDocumentOwnSchema covers spec.md §4.4 "Each `use S` pairs
// the value at the document root (or at a sub-document root) with schema
// S": a schema/use pair declared only inside a sub-document's own preamble
// must be validated against that sub-document's own value.
func TestCompileSubDocumentOwnSchema(t *testing.T) {
	fs := resolver.NewVirtualFS(map[string]string{
		"/main.hone": "name: \"prod\"\n---[staging]\nschema Doc { port: int(1,65535) }\nuse Doc\nport: 99999\n",
	})
	_, err := Compile(fs, "/main.hone", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}
