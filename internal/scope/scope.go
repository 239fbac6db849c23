// Package scope implements the evaluator's lexical scope stack
// (spec.md §4.3.1): child scopes shadow parent bindings, the outermost
// (global) scope can never be popped, and each scope carries an optional
// auxiliary imports mapping populated by the import resolver.
package scope

import (
	"github.com/honelang/hone/internal/invariant"
	"github.com/honelang/hone/internal/value"
)

type frame struct {
	vars    map[string]value.Value
	imports map[string]value.Value
}

// Stack is a push/pop scope chain. The zero value is not ready; use New.
type Stack struct {
	frames []*frame
}

// New returns a Stack with a single, unpoppable global scope.
func New() *Stack {
	return &Stack{frames: []*frame{{vars: map[string]value.Value{}}}}
}

// Push enters a new child scope (object literals, blocks, variant cases,
// for-iterations, function calls, sub-document bodies — spec.md §4.3.1).
func (s *Stack) Push() {
	s.frames = append(s.frames, &frame{vars: map[string]value.Value{}})
}

// Pop exits the innermost scope. The global scope cannot be popped.
func (s *Stack) Pop() {
	invariant.Precondition(len(s.frames) > 1, "cannot pop the global scope")
	s.frames = s.frames[:len(s.frames)-1]
}

// Define binds name in the innermost scope, shadowing any parent binding.
func (s *Stack) Define(name string, v value.Value) {
	top := s.frames[len(s.frames)-1]
	top.vars[name] = v
}

// DefineAt binds name in the scope at the given depth (0 is the global
// scope); the evaluator uses depth 0 to bind `output` for policy
// conditions and the updated `args` object for `expect` defaults.
func (s *Stack) DefineAt(depth int, name string, v value.Value) {
	invariant.Precondition(depth >= 0 && depth < len(s.frames), "scope depth out of range")
	s.frames[depth].vars[name] = v
}

// Depth returns the current stack depth (1 == only the global scope).
func (s *Stack) Depth() int { return len(s.frames) }

// Lookup walks from the innermost scope to the global scope.
func (s *Stack) Lookup(name string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return value.Null, false
}

// Names returns every name visible from the innermost scope outward, used
// to build did-you-mean suggestions (spec.md §7.4) and assertion help
// context (spec.md §4.3.7).
func (s *Stack) Names() []string {
	seen := map[string]struct{}{}
	var names []string
	for i := len(s.frames) - 1; i >= 0; i-- {
		for name := range s.frames[i].vars {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names
}

// SetImports attaches the import-resolver-provided name->value mapping to
// the global scope.
func (s *Stack) SetImports(imports map[string]value.Value) {
	s.frames[0].imports = imports
}

// LookupImport resolves a name bound by `import ... as name`.
func (s *Stack) LookupImport(name string) (value.Value, bool) {
	v, ok := s.frames[0].imports[name]
	return v, ok
}

// NewChild builds an isolated single-frame stack containing only the given
// parameter bindings — user functions are not closures (spec.md §4.3.3,
// §9 "Closures"): their body evaluates in a fresh scope with no access to
// the call-site environment.
func NewChild(params map[string]value.Value) *Stack {
	return &Stack{frames: []*frame{{vars: params}}}
}
