// Package compiler wires the lexer, parser, evaluator, type checker and
// import resolver into the single pipeline spec.md §2 describes, exposing
// the CLI-facing `Options` struct named in SPEC_FULL.md §4.6 (a plain Go
// struct threaded explicitly through the stages, following the teacher's
// functional-options constructor style for the stages themselves).
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/emit"
	"github.com/honelang/hone/internal/eval"
	"github.com/honelang/hone/internal/lspcache"
	"github.com/honelang/hone/internal/resolver"
	"github.com/honelang/hone/internal/schema"
	"github.com/honelang/hone/internal/value"
)

// Options configures one compilation (CLI flags from spec.md §6.2).
type Options struct {
	// Set holds raw `--set k=v` pairs; dotted keys build nested objects
	// (`--set net.port=8080` sets args.net.port).
	Set []string
	// Variants maps a variant declaration name to the selected case name
	// (`--variant env=prod`).
	Variants map[string]string
	// AllowEnv/AllowFile gate the `env`/`file` builtins.
	AllowEnv  bool
	AllowFile bool
	// FileRoot anchors relative paths passed to the `file` builtin.
	FileRoot string
	// IgnorePolicies skips policy evaluation entirely.
	IgnorePolicies bool
}

// Result is everything a compilation produced.
type Result struct {
	// Root is the root file's main-body document value. It is set whether
	// or not the file has sub-documents.
	Root value.Value
	// Documents holds one entry per `---` / `---[name]` sub-document of the
	// root file (spec.md §3.2), in source order, and is nil when there are
	// none. The main body's value is in Root and is not repeated here.
	Documents []emit.Document
	Warnings  *diag.Warnings
	// Symbols is the root file's symbol-at-position index (spec.md §6.3),
	// cacheable by an LSP collaborator via internal/lspcache.
	Symbols []lspcache.Symbol
}

// Compile runs the full pipeline for rootPath against fs, in dependency
// order (spec.md §4.5 "Topological ordering").
func Compile(fs resolver.FS, rootPath string, opts Options) (*Result, error) {
	args, err := parseSetFlags(opts.Set)
	if err != nil {
		return nil, err
	}

	res := resolver.New(fs)
	order, err := res.TopoOrder(rootPath)
	if err != nil {
		return nil, err
	}

	rootCanon, err := fs.Canonical(rootPath)
	if err != nil {
		return nil, err
	}

	evaluated := map[string]value.Value{}
	warnings := &diag.Warnings{}

	var rootEvaluator *eval.Evaluator
	var rootFile *resolver.ResolvedFile

	for _, rf := range order {
		evalOpts := eval.Options{
			Args:           args,
			Variants:       opts.Variants,
			AllowEnv:       opts.AllowEnv,
			AllowFile:      opts.AllowFile,
			FileRoot:       opts.FileRoot,
			IgnorePolicies: opts.IgnorePolicies,
			Imports:        map[string]value.Value{},
			Froms:          map[string]value.Value{},
		}
		for i, depPath := range rf.ImportPaths {
			evalOpts.Imports[rf.ImportNames[i]] = evaluated[depPath]
		}
		if rf.FromPath != "" {
			evalOpts.Froms[rf.FromLiteral] = evaluated[rf.FromPath]
		}

		evaluator := eval.New(rf.Source, rf.Path, evalOpts)
		root, err := evaluator.Evaluate(rf.AST)
		if err != nil {
			return nil, err
		}

		if err := evaluator.EvaluatePolicies(root); err != nil {
			return nil, err
		}

		if useSchema := evaluator.UseSchema(); useSchema != "" {
			reg := schema.NewRegistry(evaluator.Schemas(), evaluator.TypeAliases(), evaluator.UncheckedPaths(), rf.Source, rf.Path)
			if err := reg.Validate(root, useSchema, nil, rf.AST.Pos); err != nil {
				return nil, err
			}
		}

		for _, w := range evaluator.Warnings().Items() {
			warnings.Add(w.Message, w.Span)
		}

		evaluated[rf.Path] = root
		if rf.Path == rootCanon {
			rootEvaluator = evaluator
			rootFile = rf
		}
	}

	result := &Result{Root: evaluated[rootCanon], Warnings: warnings}

	if rootFile != nil {
		result.Symbols = lspcache.BuildFile(rootFile.AST)
		for i, sub := range rootFile.AST.SubDocs {
			subImports := map[string]value.Value{}
			subFroms := map[string]value.Value{}
			if i < len(rootFile.SubDocs) {
				deps := rootFile.SubDocs[i]
				for j, depPath := range deps.ImportPaths {
					subImports[deps.ImportNames[j]] = evaluated[depPath]
				}
				if deps.FromPath != "" {
					subFroms[deps.FromLiteral] = evaluated[deps.FromPath]
				}
			}

			subVal, useSchema, err := rootEvaluator.EvaluateSubDocument(sub.Preamble, sub.Body, subImports, subFroms)
			if err != nil {
				return nil, err
			}
			if useSchema != "" {
				reg := schema.NewRegistry(rootEvaluator.Schemas(), rootEvaluator.TypeAliases(), rootEvaluator.UncheckedPaths(), rootFile.Source, rootFile.Path)
				if err := reg.Validate(subVal, useSchema, nil, sub.Pos); err != nil {
					return nil, err
				}
			}
			result.Documents = append(result.Documents, emit.Document{Name: sub.Name, Value: subVal})
		}
	}

	return result, nil
}

// parseSetFlags builds the `args` object from `k=v` pairs, where a dotted
// key builds nested objects (spec.md §4.3.4 "an args.path… lookup").
// Values are parsed as int, float, bool or null when they look like one,
// string otherwise — the same coercion the teacher's CLI applies to its
// own `--set`-style flags before handing them to the runtime.
func parseSetFlags(pairs []string) (value.Value, error) {
	root := value.NewObject()
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return value.Null, fmt.Errorf("invalid --set %q: expected key=value", pair)
		}
		if err := setDotted(root, strings.Split(key, "."), parseSetValue(raw)); err != nil {
			return value.Null, err
		}
	}
	return value.FromObject(root), nil
}

func setDotted(obj *value.Object, path []string, v value.Value) error {
	if len(path) == 0 {
		return fmt.Errorf("empty --set key")
	}
	if len(path) == 1 {
		obj.Set(path[0], v)
		return nil
	}
	head, rest := path[0], path[1:]
	existing, ok := obj.Get(head)
	var child *value.Object
	if ok {
		child, ok = existing.AsObject()
	}
	if !ok || child == nil {
		child = value.NewObject()
	}
	if err := setDotted(child, rest, v); err != nil {
		return err
	}
	obj.Set(head, value.FromObject(child))
	return nil
}

func parseSetValue(raw string) value.Value {
	switch raw {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	case "null":
		return value.Null
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return value.Int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.Float(f)
	}
	return value.String(raw)
}
