package eval

import (
	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/value"
)

// runVariantsPass2 selects and evaluates each VariantDecl's chosen case in
// declaration order, folding its body into root (spec.md §4.3.4 two-pass
// preamble evaluation, pass 2). A case chosen for a name absent from
// Options.Variants falls back to its `default` case; `let` bindings inside
// a case body leak into the surrounding (global) scope rather than being
// scoped to the case, since cases run directly against root before the
// body proper.
func (e *Evaluator) runVariantsPass2(preamble []ast.PreambleItem, root value.Value) (value.Value, error) {
	for _, item := range preamble {
		vd, ok := item.(*ast.VariantDecl)
		if !ok {
			continue
		}
		chosen, err := e.selectVariantCase(vd)
		if err != nil {
			return value.Null, err
		}
		if chosen == nil {
			continue
		}
		var evalErr error
		root, evalErr = e.EvalBodyItems(root, chosen.Body, nil)
		if evalErr != nil {
			return value.Null, evalErr
		}
	}
	return root, nil
}

func (e *Evaluator) selectVariantCase(vd *ast.VariantDecl) (*ast.VariantCase, error) {
	want, pinned := e.opts.Variants[vd.Name]
	var def *ast.VariantCase
	for i := range vd.Cases {
		c := &vd.Cases[i]
		if c.Default {
			def = c
		}
		if pinned && c.Name == want {
			return c, nil
		}
	}
	if pinned {
		err := e.errf(vd.Pos, diag.KindName, "variant %q has no case named %q", vd.Name, want).WithCode("E_UNKNOWN_VARIANT_CASE")
		if s := suggestName(want, variantCaseNames(vd)); s != "" {
			err = err.WithHelp("did you mean " + s + "?")
		}
		return nil, err
	}
	if def != nil {
		return def, nil
	}
	return nil, e.errf(vd.Pos, diag.KindName, "variant %q was not selected and has no default case", vd.Name).WithCode("E_VARIANT_NOT_SELECTED")
}

func variantCaseNames(vd *ast.VariantDecl) []string {
	names := make([]string, len(vd.Cases))
	for i, c := range vd.Cases {
		names[i] = c.Name
	}
	return names
}
