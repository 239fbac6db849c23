package eval

import (
	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
)

// runPreamblePass1 processes every preamble item except VariantDecl, in
// document order (spec.md §4.3.4 "two-pass preamble evaluation"). Variant
// selection is deferred to pass 2 so that a variant's cases may reference
// schemas, type aliases, functions and secrets declared anywhere in the
// preamble, not just lexically before it.
func (e *Evaluator) runPreamblePass1(preamble []ast.PreambleItem) error {
	for _, item := range preamble {
		switch n := item.(type) {
		case *ast.LetDecl:
			v, err := e.evalExpr(n.Value, nil)
			if err != nil {
				return err
			}
			e.scopes.Define(n.Name, v)

		case *ast.FromDecl:
			// Resolved and merged in applyFromInheritance; nothing to bind.

		case *ast.ImportDecl:
			if n.As == "" {
				continue
			}
			if _, ok := e.scopes.LookupImport(n.As); !ok {
				return e.errf(n.Pos, diag.KindResolver, "import %q was not resolved before evaluation", n.As).WithCode("E_IMPORT_UNRESOLVED")
			}

		case *ast.SchemaDecl:
			e.schemas[n.Name] = n

		case *ast.TypeAliasDecl:
			e.typeAliases[n.Name] = n.Constraint

		case *ast.UseDecl:
			e.useSchema = n.Schema

		case *ast.ExpectDecl:
			if err := e.evalExpectDecl(n); err != nil {
				return err
			}

		case *ast.SecretDecl:
			v, err := e.evalSecretDecl(n)
			if err != nil {
				return err
			}
			e.scopes.Define(n.Name, v)

		case *ast.PolicyDecl:
			// Evaluated after the full root value exists; recorded now.
			e.policies = append(e.policies, n)

		case *ast.FnDecl:
			e.fns[n.Name] = FnEntry{Params: n.Params, Body: n.Body}

		case *ast.VariantDecl:
			// handled by runVariantsPass2

		default:
			return e.errf(item.Position(), diag.KindRuntime, "unhandled preamble item %T", item)
		}
	}
	return nil
}
