// Package eval implements the Hone evaluator (spec.md §4.3): the scope
// stack, the merge engine wiring, the two-pass preamble processor, variant
// selection, user functions, builtins, policies and assertions. Grounded
// on the original Rust evaluator (original_source/src/evaluator/mod.rs)
// re-expressed with Go's explicit error returns instead of Result<T, E>,
// and on the teacher's functional-options constructor style
// (runtime/lexer/v2.LexerOpt) for Options.
package eval

import (
	"fmt"
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/invariant"
	"github.com/honelang/hone/internal/scope"
	"github.com/honelang/hone/internal/value"
)

// MaxDepth bounds expression recursion in the evaluator, independent of
// the parser's own guard (spec.md §4.2, §5).
const MaxDepth = 128

// Options configures a single compilation's evaluation.
type Options struct {
	// Args is the object bound to `args` for `expect` lookups, populated
	// from the CLI's --set flag.
	Args value.Value
	// Variants maps a variant declaration name to the selected case name.
	// A variant absent from this map falls back to its `default` case.
	Variants map[string]string
	// AllowEnv/AllowFile gate the `env`/`file` builtins (spec.md §4.3.5,
	// §5 determinism guarantee).
	AllowEnv  bool
	AllowFile bool
	// FileRoot anchors relative paths passed to the `file` builtin.
	FileRoot string
	// IgnorePolicies skips policy evaluation entirely (CLI --ignore-policies).
	IgnorePolicies bool
	// Imports maps an `import ... as name` binding to that module's
	// already-evaluated root value, populated by the compiler from the
	// import resolver's topological order (spec.md §4.5) before this
	// Evaluator runs.
	Imports map[string]value.Value
	// Froms maps a `from "path"` declaration's literal path text to that
	// base document's already-evaluated root value (spec.md §4.5).
	Froms map[string]value.Value
}

// FnEntry records a user-defined function (spec.md §4.3.4 FnDef pass 1).
type FnEntry struct {
	Params []string
	Body   ast.Expr
}

// Evaluator reduces a parsed File to a value.Value.
type Evaluator struct {
	opts     Options
	source   string
	filename string

	scopes *scope.Stack
	fns    map[string]FnEntry

	// unchecked records dot-joined output paths annotated `@unchecked`,
	// consulted by the type checker (spec.md §4.3.3, §4.4).
	unchecked map[string]bool
	// annotations records every other postfix `@Constraint` with its output
	// path and evaluated arguments, exposed through Annotations(). Nothing
	// checks these against the value: the compiler does not pass them to
	// the type checker (internal/schema).
	annotations []Annotation

	// schemas/typealiases let `use`, `expect` and annotation resolution
	// find a declaration by name during pass 1 (spec.md §4.3.4).
	schemas     map[string]*ast.SchemaDecl
	typeAliases map[string]*ast.Constraint
	useSchema   string
	policies    []*ast.PolicyDecl

	warnings *diag.Warnings

	depth int
}

// Annotation is a postfix `@Name(args)` recorded against an output path for
// the type checker to consume (spec.md §4.2, §4.3.3).
type Annotation struct {
	Path []string
	Name string
	Args []value.Value
	Pos  ast.Position
}

// Annotations returns every non-`@unchecked` annotation collected while
// evaluating the body.
func (e *Evaluator) Annotations() []Annotation { return e.annotations }

// Schemas returns the schema declarations collected from the preamble.
func (e *Evaluator) Schemas() map[string]*ast.SchemaDecl { return e.schemas }

// TypeAliases returns the type alias declarations collected from the preamble.
func (e *Evaluator) TypeAliases() map[string]*ast.Constraint { return e.typeAliases }

// UseSchema returns the schema name named by a `use` declaration, or "" if
// none was declared.
func (e *Evaluator) UseSchema() string { return e.useSchema }

// Policies returns the policy declarations collected from the preamble, to
// be run by EvaluatePolicies once the root value is final.
func (e *Evaluator) Policies() []*ast.PolicyDecl { return e.policies }

// New constructs an Evaluator for one file's evaluation.
func New(source, filename string, opts Options) *Evaluator {
	if opts.Args.Kind() != value.KindObject {
		opts.Args = value.FromObject(value.NewObject())
	}
	e := &Evaluator{
		opts:        opts,
		source:      source,
		filename:    filename,
		scopes:      scope.New(),
		fns:         map[string]FnEntry{},
		unchecked:   map[string]bool{},
		schemas:     map[string]*ast.SchemaDecl{},
		typeAliases: map[string]*ast.Constraint{},
		warnings:    &diag.Warnings{},
	}
	e.scopes.Define("args", opts.Args)
	if opts.Imports != nil {
		e.scopes.SetImports(opts.Imports)
	}
	return e
}

// Warnings returns the append-only warning channel (spec.md §7).
func (e *Evaluator) Warnings() *diag.Warnings { return e.warnings }

// UncheckedPaths returns the dot-joined paths annotated `@unchecked`.
func (e *Evaluator) UncheckedPaths() map[string]bool { return e.unchecked }

// SetImports injects the import resolver's name->value mapping
// (spec.md §4.5) before evaluation begins.
func (e *Evaluator) SetImports(imports map[string]value.Value) {
	e.scopes.SetImports(imports)
}

func (e *Evaluator) errf(span ast.Position, kind diag.Kind, format string, args ...any) *diag.Error {
	length := span.Length
	if length <= 0 {
		length = 1
	}
	return diag.New(kind, diag.Span{
		File: e.filename, Line: span.Line, Column: span.Column, Offset: span.Offset, Length: length,
	}, e.source, fmt.Sprintf(format, args...))
}

func (e *Evaluator) enterDepth(span ast.Position) error {
	e.depth++
	if e.depth > MaxDepth {
		return e.errf(span, diag.KindRuntime, "expression nested too deeply (limit %d)", MaxDepth).WithCode("E_RECURSION_LIMIT")
	}
	return nil
}

func (e *Evaluator) leaveDepth() {
	invariant.Precondition(e.depth > 0, "evaluator depth underflow")
	e.depth--
}

// Evaluate runs both preamble passes and then the body, returning the
// document's root object value.
func (e *Evaluator) Evaluate(file *ast.File) (value.Value, error) {
	root := value.FromObject(value.NewObject())

	if err := e.runPreamblePass1(file.Preamble); err != nil {
		return value.Null, err
	}

	root = e.applyFromInheritance(file.Preamble, root)

	var err error
	root, err = e.runVariantsPass2(file.Preamble, root)
	if err != nil {
		return value.Null, err
	}

	root, err = e.EvalBodyItems(root, file.Body, nil)
	if err != nil {
		return value.Null, err
	}

	return root, nil
}

// applyFromInheritance merges each `from "path"` declaration's
// already-evaluated base value into root under Normal strategy, in
// declaration order, before variants or the body run (spec.md §4.5).
func (e *Evaluator) applyFromInheritance(preamble []ast.PreambleItem, root value.Value) value.Value {
	for _, item := range preamble {
		fd, ok := item.(*ast.FromDecl)
		if !ok {
			continue
		}
		lit, ok := fd.Path.(*ast.StringLit)
		if !ok {
			continue
		}
		if base, ok := e.opts.Froms[lit.Value]; ok {
			root = value.Merge(base, root, value.Normal)
		}
	}
	return root
}

// EvaluateSubDocument evaluates a named sub-document against its own
// preamble (spec.md §3.2 "A sub-document has its own preamble and body")
// layered inside the scope the parent file's preamble left behind: its
// `from`/`import` inheritance, schema/type-alias/variant declarations and
// its own `use` pairing (spec.md §4.4 "or at a sub-document root") run the
// same two-pass processing Evaluate runs for the top-level file (spec.md
// §4.5 step 5), before the body items run. imports/froms supply the
// already-evaluated values for this sub-document's own `import`/`from`
// declarations, keyed the same way as Options.Imports/Froms. The returned
// useSchema is this sub-document's own `use` target, "" if it declares
// none, for the caller to validate the result against.
func (e *Evaluator) EvaluateSubDocument(preamble []ast.PreambleItem, body []ast.BodyItem, imports, froms map[string]value.Value) (value.Value, string, error) {
	e.scopes.Push()
	defer e.scopes.Pop()

	if len(imports) > 0 {
		if e.opts.Imports == nil {
			e.opts.Imports = map[string]value.Value{}
			e.scopes.SetImports(e.opts.Imports)
		}
		for k, v := range imports {
			e.opts.Imports[k] = v
		}
		defer func() {
			for k := range imports {
				delete(e.opts.Imports, k)
			}
		}()
	}
	if len(froms) > 0 {
		if e.opts.Froms == nil {
			e.opts.Froms = map[string]value.Value{}
		}
		for k, v := range froms {
			e.opts.Froms[k] = v
		}
		defer func() {
			for k := range froms {
				delete(e.opts.Froms, k)
			}
		}()
	}

	savedUseSchema, savedPolicies := e.useSchema, e.policies
	e.useSchema, e.policies = "", nil
	defer func() { e.useSchema, e.policies = savedUseSchema, savedPolicies }()

	if err := e.runPreamblePass1(preamble); err != nil {
		return value.Null, "", err
	}

	root := value.FromObject(value.NewObject())
	root = e.applyFromInheritance(preamble, root)

	var err error
	root, err = e.runVariantsPass2(preamble, root)
	if err != nil {
		return value.Null, "", err
	}

	root, err = e.EvalBodyItems(root, body, nil)
	if err != nil {
		return value.Null, "", err
	}

	if err := e.EvaluatePolicies(root); err != nil {
		return value.Null, "", err
	}

	return root, e.useSchema, nil
}

func pathKey(path []string) string { return strings.Join(path, ".") }
