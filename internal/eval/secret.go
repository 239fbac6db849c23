package eval

import (
	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/value"
)

// evalSecretDecl binds a deterministic placeholder string; real secret
// resolution is left to a collaborator outside the core pipeline
// (spec.md §4.3.4 "Secret").
func (e *Evaluator) evalSecretDecl(n *ast.SecretDecl) (value.Value, error) {
	provider := n.Provider
	if provider == "" {
		provider = "default"
	}
	return value.String("<SECRET:" + provider + ">"), nil
}
