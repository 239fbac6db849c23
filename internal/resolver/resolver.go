// Package resolver implements the Hone import resolver (spec.md §4.5):
// canonicalizing `from`/`import` paths, detecting circular imports with an
// active resolution stack, and topologically ordering a file's transitive
// dependency set so the compiler can evaluate dependencies before
// dependents. Grounded on the teacher's runtime/planner dependency-walk
// (DFS over a plan graph with a visited/active-set cycle check) adapted
// from execution-plan nodes to source files.
package resolver

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/invariant"
	"github.com/honelang/hone/internal/parser"
)

// FS abstracts the byte source behind a resolver: the physical resolver
// reads the OS filesystem, the virtual resolver serves an in-memory map
// (spec.md §4.5 "Two variants share the same contract").
type FS interface {
	// Canonical returns a stable, comparable form of path used as the
	// resolver's cache key: an absolute path for the physical FS, a
	// syntactically normalized one for the virtual FS.
	Canonical(path string) (string, error)
	// Dir returns the canonical parent directory of a canonical path,
	// used to resolve a dependency's path relative to its importer.
	Dir(canonicalPath string) string
	// Join resolves a relative import path against a canonical directory.
	Join(dir, relPath string) string
	// ReadFile returns the source text at a canonical path.
	ReadFile(canonicalPath string) (string, error)
}

// ResolvedFile is one parsed, cached file in the import graph.
type ResolvedFile struct {
	Path        string // canonical path, also the cache key
	AST         *ast.File
	Source      string
	FromPath    string   // the canonical path named by this file's `from`, "" if none
	FromLiteral string   // the literal path text as written, used as the evaluator's Froms key
	ImportPaths []string // canonical paths named by `import`, in declaration order
	ImportNames []string // the `as` binding name for each entry in ImportPaths
	// SubDocs holds the `from`/`import` dependencies declared in each of
	// file.AST.SubDocs's own preambles (spec.md §3.2), one entry per
	// sub-document in the same order, resolved independently of the
	// parent file's own `from`/`import` set.
	SubDocs []SubDocDeps
}

// SubDocDeps is one sub-document's own `from`/`import` dependency set,
// parallel to ResolvedFile.AST.SubDocs.
type SubDocDeps struct {
	FromPath    string
	FromLiteral string
	ImportPaths []string
	ImportNames []string
}

// Resolver walks a root file's import graph.
type Resolver struct {
	fs    FS
	cache map[string]*ResolvedFile
	stack []string
}

// New builds a Resolver over fs.
func New(fs FS) *Resolver {
	return &Resolver{fs: fs, cache: map[string]*ResolvedFile{}}
}

func (r *Resolver) errf(kind diag.Kind, source, file string, format string, args ...any) *diag.Error {
	return diag.New(kind, diag.Span{File: file, Line: 1, Column: 1}, source, fmt.Sprintf(format, args...))
}

// Resolve parses and caches the file at path, recursively resolving every
// `from`/`import` dependency it declares (spec.md §4.5 steps 1-7).
func (r *Resolver) Resolve(requestedPath string) (*ResolvedFile, error) {
	canon, err := r.fs.Canonical(requestedPath)
	if err != nil {
		return nil, r.errf(diag.KindResolver, "", requestedPath, "import not found: %s: %v", requestedPath, err)
	}

	if cached, ok := r.cache[canon]; ok {
		return cached, nil
	}

	for _, active := range r.stack {
		if active == canon {
			return nil, r.circularImportError(canon)
		}
	}

	r.stack = append(r.stack, canon)
	defer func() {
		invariant.Precondition(len(r.stack) > 0 && r.stack[len(r.stack)-1] == canon, "resolver stack discipline violated")
		r.stack = r.stack[:len(r.stack)-1]
	}()

	source, err := r.fs.ReadFile(canon)
	if err != nil {
		return nil, r.errf(diag.KindResolver, "", canon, "import not found: %s: %v", canon, err)
	}

	file, err := parser.New(source, canon).ParseFile()
	if err != nil {
		return nil, err
	}

	dir := r.fs.Dir(canon)
	rf := &ResolvedFile{Path: canon, AST: file, Source: source}

	// walkPreamble collects one document's `from`/`import` declarations.
	// Each call gets its own fromSeen so a sub-document's preamble (spec.md
	// §3.2 "has its own preamble") is checked for "at most one `from`"
	// independently of the parent file's preamble, instead of the two
	// sharing a single flag.
	walkPreamble := func(preamble []ast.PreambleItem) (fromPath, fromLiteral string, importPaths, importNames []string, err error) {
		var fromSeen bool
		for _, item := range preamble {
			switch d := item.(type) {
			case *ast.FromDecl:
				if fromSeen {
					return "", "", nil, nil, r.errf(diag.KindResolver, source, canon, "multiple `from` declarations in one file")
				}
				fromSeen = true
				lit, ok := literalPath(d.Path)
				if !ok {
					return "", "", nil, nil, r.errf(diag.KindResolver, source, canon, "`from` path must be a literal string, not an interpolation")
				}
				fromPath = r.fs.Join(dir, lit)
				fromLiteral = lit
			case *ast.ImportDecl:
				lit, ok := literalPath(d.Path)
				if !ok {
					return "", "", nil, nil, r.errf(diag.KindResolver, source, canon, "`import` path must be a literal string, not an interpolation")
				}
				importPaths = append(importPaths, r.fs.Join(dir, lit))
				importNames = append(importNames, d.As)
			}
		}
		return fromPath, fromLiteral, importPaths, importNames, nil
	}

	var err2 error
	rf.FromPath, rf.FromLiteral, rf.ImportPaths, rf.ImportNames, err2 = walkPreamble(file.Preamble)
	if err2 != nil {
		return nil, err2
	}
	for _, sub := range file.SubDocs {
		var sd SubDocDeps
		sd.FromPath, sd.FromLiteral, sd.ImportPaths, sd.ImportNames, err2 = walkPreamble(sub.Preamble)
		if err2 != nil {
			return nil, err2
		}
		rf.SubDocs = append(rf.SubDocs, sd)
	}

	if rf.FromPath != "" {
		if _, err := r.Resolve(rf.FromPath); err != nil {
			return nil, err
		}
	}
	for _, dep := range rf.ImportPaths {
		if _, err := r.Resolve(dep); err != nil {
			return nil, err
		}
	}
	for _, sd := range rf.SubDocs {
		if sd.FromPath != "" {
			if _, err := r.Resolve(sd.FromPath); err != nil {
				return nil, err
			}
		}
		for _, dep := range sd.ImportPaths {
			if _, err := r.Resolve(dep); err != nil {
				return nil, err
			}
		}
	}

	r.cache[canon] = rf
	return rf, nil
}

func literalPath(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.StringLit)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

func (r *Resolver) circularImportError(reentered string) *diag.Error {
	chain := append(append([]string(nil), r.stack...), reentered)
	return diag.New(diag.KindResolver, diag.Span{File: reentered, Line: 1, Column: 1}, "",
		fmt.Sprintf("circular import: %s", strings.Join(chain, " -> "))).WithCode("E_CIRCULAR_IMPORT")
}

// TopoOrder resolves root and returns its transitive dependency set in
// dependencies-before-dependents order (DFS post-order, spec.md §4.5
// "Topological ordering"); a diamond dependency appears exactly once.
func (r *Resolver) TopoOrder(rootPath string) ([]*ResolvedFile, error) {
	root, err := r.Resolve(rootPath)
	if err != nil {
		return nil, err
	}
	var order []*ResolvedFile
	seen := map[string]bool{}
	var visit func(rf *ResolvedFile)
	visit = func(rf *ResolvedFile) {
		if seen[rf.Path] {
			return
		}
		seen[rf.Path] = true
		if rf.FromPath != "" {
			if dep, ok := r.cache[rf.FromPath]; ok {
				visit(dep)
			}
		}
		for _, dep := range rf.ImportPaths {
			if d, ok := r.cache[dep]; ok {
				visit(d)
			}
		}
		for _, sd := range rf.SubDocs {
			if sd.FromPath != "" {
				if dep, ok := r.cache[sd.FromPath]; ok {
					visit(dep)
				}
			}
			for _, dep := range sd.ImportPaths {
				if d, ok := r.cache[dep]; ok {
					visit(d)
				}
			}
		}
		order = append(order, rf)
	}
	visit(root)
	return order, nil
}

// ---- Physical filesystem ----

// PhysicalFS resolves paths against the real OS filesystem.
type PhysicalFS struct{}

func (PhysicalFS) Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func (PhysicalFS) Dir(canonicalPath string) string { return filepath.Dir(canonicalPath) }

func (PhysicalFS) Join(dir, relPath string) string {
	return filepath.Clean(filepath.Join(dir, relPath))
}

func (PhysicalFS) ReadFile(canonicalPath string) (string, error) {
	b, err := os.ReadFile(canonicalPath)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ---- Virtual (in-memory) filesystem, used by WASM and tests ----

// VirtualFS serves file contents from an in-memory map, normalizing
// `.`/`..` syntactically rather than against a real filesystem
// (spec.md §4.5 step 1).
type VirtualFS struct {
	Files map[string]string
}

func NewVirtualFS(files map[string]string) *VirtualFS {
	return &VirtualFS{Files: files}
}

func (v *VirtualFS) Canonical(p string) (string, error) {
	return path.Clean("/" + strings.TrimPrefix(p, "/")), nil
}

func (v *VirtualFS) Dir(canonicalPath string) string {
	return path.Dir(canonicalPath)
}

func (v *VirtualFS) Join(dir, relPath string) string {
	return path.Clean(path.Join(dir, relPath))
}

func (v *VirtualFS) ReadFile(canonicalPath string) (string, error) {
	src, ok := v.Files[canonicalPath]
	if !ok {
		return "", fmt.Errorf("no such file: %s", canonicalPath)
	}
	return src, nil
}
