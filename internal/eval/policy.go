package eval

import (
	"fmt"

	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/value"
)

// EvaluatePolicies binds `output` to root and runs every collected policy
// in declaration order (spec.md §4.3.6). A firing `deny` policy aborts
// with its message (or a synthesized default); a firing `warn` policy is
// recorded on the Warnings channel and evaluation continues.
func (e *Evaluator) EvaluatePolicies(root value.Value) error {
	if e.opts.IgnorePolicies {
		return nil
	}
	e.scopes.DefineAt(0, "output", root)
	for _, p := range e.policies {
		cond, err := e.evalExpr(p.Condition, nil)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			continue
		}
		message := fmt.Sprintf("policy %q fired", p.Name)
		if p.Message != nil {
			msgVal, err := e.evalExpr(p.Message, nil)
			if err != nil {
				return err
			}
			message = msgVal.Display()
		}
		switch p.Level {
		case "deny":
			return e.errf(p.Pos, diag.KindPolicyDeny, "%s", message).WithCode("E_POLICY_DENY")
		case "warn":
			span := diag.Span{File: e.filename, Line: p.Pos.Line, Column: p.Pos.Column, Offset: p.Pos.Offset, Length: max1(p.Pos.Length)}
			e.warnings.Add(message, span)
		}
	}
	return nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
