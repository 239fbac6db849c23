package lspcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honelang/hone/internal/ast"
)

func TestBuildFileCollectsPreambleSymbols(t *testing.T) {
	f := &ast.File{
		Preamble: []ast.PreambleItem{
			&ast.LetDecl{Name: "env", Pos: ast.Position{Line: 1, Column: 1, Offset: 0, Length: 3}},
			&ast.SchemaDecl{Name: "Server", Pos: ast.Position{Line: 2, Column: 1, Offset: 10, Length: 6}},
			&ast.ImportDecl{Path: &ast.StringLit{Value: "./base.hone"}, As: "base", Pos: ast.Position{Line: 3, Column: 1, Offset: 20, Length: 4}},
		},
	}

	symbols := BuildFile(f)
	require.Len(t, symbols, 3)
	assert.Equal(t, "env", symbols[0].Name)
	assert.Equal(t, SymbolLet, symbols[0].Kind)
	assert.Equal(t, "Server", symbols[1].Name)
	assert.Equal(t, SymbolSchema, symbols[1].Kind)
	assert.Equal(t, "base", symbols[2].Name)
	assert.Equal(t, SymbolImport, symbols[2].Kind)
}

func TestIndexLookupByOffset(t *testing.T) {
	idx := NewIndex()
	idx.Put("a.hone", []Symbol{
		{Name: "env", Kind: SymbolLet, Off: 0, Len: 3},
		{Name: "Server", Kind: SymbolSchema, Off: 10, Len: 6},
	})

	sym, ok := idx.Lookup("a.hone", 12)
	require.True(t, ok)
	assert.Equal(t, "Server", sym.Name)

	_, ok = idx.Lookup("a.hone", 100)
	assert.False(t, ok)

	_, ok = idx.Lookup("missing.hone", 0)
	assert.False(t, ok)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	idx := NewIndex()
	idx.Put("a.hone", []Symbol{{Name: "env", Kind: SymbolLet, Off: 0, Len: 3}})

	data, err := idx.Marshal()
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)

	sym, ok := restored.Lookup("a.hone", 1)
	require.True(t, ok)
	assert.Equal(t, "env", sym.Name)
}
