// Package lspcache persists the language-server collaborator's
// symbol-at-position index (spec.md §6.3) across editor restarts. Grounded
// on the teacher's core/planfmt canonical-plan encoding
// (core/planfmt/canonical.go MarshalBinary/Hash): the same
// github.com/fxamacker/cbor/v2 canonical encoding mode is used here so the
// serialized index is deterministic byte-for-byte across runs, which lets a
// host diff a cached index against a freshly rebuilt one instead of always
// trusting mtimes.
package lspcache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/honelang/hone/internal/ast"
)

// SymbolKind identifies what a Symbol entry names.
type SymbolKind uint8

const (
	SymbolLet SymbolKind = iota
	SymbolSchema
	SymbolTypeAlias
	SymbolFn
	SymbolVariant
	SymbolImport
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolLet:
		return "let"
	case SymbolSchema:
		return "schema"
	case SymbolTypeAlias:
		return "type"
	case SymbolFn:
		return "fn"
	case SymbolVariant:
		return "variant"
	case SymbolImport:
		return "import"
	default:
		return "unknown"
	}
}

// Symbol is one entry of the symbol-at-position index: a declared name, its
// source position, and what kind of preamble item declared it.
type Symbol struct {
	Name string
	Kind SymbolKind
	Line int
	Col  int
	Off  int
	Len  int
}

// FileIndex is every symbol declared in one source file, in the order they
// were stored by Put (BuildFile's preamble declaration order); Lookup scans
// it linearly.
type FileIndex struct {
	Path    string
	Symbols []Symbol
}

// Index is the full cache: one FileIndex per resolved file path, matching
// the resolver's cache keying (internal/resolver.Resolver, canonical
// absolute/normalized path as key).
type Index struct {
	Files map[string]*FileIndex
}

// NewIndex returns an empty cache.
func NewIndex() *Index {
	return &Index{Files: map[string]*FileIndex{}}
}

// Put replaces the symbol set for path, overwriting whatever was cached
// under a prior compile of the same file.
func (idx *Index) Put(path string, symbols []Symbol) {
	idx.Files[path] = &FileIndex{Path: path, Symbols: symbols}
}

// Lookup returns the symbol whose byte offset range contains off, or false
// if none covers that position. Linear scan: per-file symbol counts are
// small (one entry per preamble declaration), so no sorted-index machinery
// is warranted.
func (idx *Index) Lookup(path string, off int) (Symbol, bool) {
	fi, ok := idx.Files[path]
	if !ok {
		return Symbol{}, false
	}
	for _, s := range fi.Symbols {
		if off >= s.Off && off < s.Off+s.Len {
			return s, true
		}
	}
	return Symbol{}, false
}

// SymbolFromPosition builds a Symbol from an AST position, the shape every
// preamble declaration node already carries (spec.md §3.2).
func SymbolFromPosition(name string, kind SymbolKind, pos ast.Position) Symbol {
	length := pos.Length
	if length <= 0 {
		length = len(name)
	}
	return Symbol{Name: name, Kind: kind, Line: pos.Line, Col: pos.Column, Off: pos.Offset, Len: length}
}

// Marshal encodes idx as canonical CBOR, the same deterministic encoding
// mode the teacher uses for plan hashing (core/planfmt/canonical.go
// MarshalBinary: cbor.CanonicalEncOptions().EncMode()).
func (idx *Index) Marshal() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("lspcache: build cbor encoder: %w", err)
	}
	data, err := encMode.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("lspcache: encode: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a cache previously produced by Marshal.
func Unmarshal(data []byte) (*Index, error) {
	var idx Index
	if err := cbor.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("lspcache: decode: %w", err)
	}
	if idx.Files == nil {
		idx.Files = map[string]*FileIndex{}
	}
	return &idx, nil
}

// BuildFile walks one file's preamble and returns its symbol-at-position
// entries, the declarations a `symbol-at-position` query (spec.md §6.3) can
// be asked about: let bindings, schemas, type aliases, functions, variants
// and named imports. Symbols declared in each sub-document's own preamble
// follow the main file's, in sub-document order.
func BuildFile(f *ast.File) []Symbol {
	symbols := buildPreambleSymbols(f.Preamble)
	for _, sub := range f.SubDocs {
		symbols = append(symbols, buildPreambleSymbols(sub.Preamble)...)
	}
	return symbols
}

// buildPreambleSymbols collects symbols from one preamble — the main
// file's or a single sub-document's (spec.md §3.2 "has its own preamble").
func buildPreambleSymbols(preamble []ast.PreambleItem) []Symbol {
	var symbols []Symbol
	for _, item := range preamble {
		switch n := item.(type) {
		case *ast.LetDecl:
			symbols = append(symbols, SymbolFromPosition(n.Name, SymbolLet, n.Pos))
		case *ast.SchemaDecl:
			symbols = append(symbols, SymbolFromPosition(n.Name, SymbolSchema, n.Pos))
		case *ast.TypeAliasDecl:
			symbols = append(symbols, SymbolFromPosition(n.Name, SymbolTypeAlias, n.Pos))
		case *ast.FnDecl:
			symbols = append(symbols, SymbolFromPosition(n.Name, SymbolFn, n.Pos))
		case *ast.VariantDecl:
			symbols = append(symbols, SymbolFromPosition(n.Name, SymbolVariant, n.Pos))
		case *ast.ImportDecl:
			if n.As != "" {
				symbols = append(symbols, SymbolFromPosition(n.As, SymbolImport, n.Pos))
			}
		}
	}
	return symbols
}
