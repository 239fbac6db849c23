// Package diag implements the diagnostic envelope shared by every compiler
// stage: lexer, parser, evaluator, type checker and resolver all report
// failures as a *diag.Error so a hosting tool can render a uniform source
// snippet with a caret underline.
package diag

import (
	"fmt"
	"strings"
)

// Kind categorizes a diagnostic per the error taxonomy in spec.md §7.
type Kind string

const (
	KindLexical    Kind = "lexical"
	KindSyntax     Kind = "syntax"
	KindResolver   Kind = "resolver"
	KindName       Kind = "name"
	KindType       Kind = "type"
	KindRuntime    Kind = "runtime"
	KindAssertion  Kind = "assertion"
	KindPolicyDeny Kind = "policy_deny"
)

// Span is a byte-offset range into a Source blob.
type Span struct {
	File   string
	Line   int
	Column int
	Offset int
	Length int
}

// Error is the uniform diagnostic envelope (spec.md §6.5).
type Error struct {
	Kind    Kind
	Code    string // optional stable identifier, e.g. "E0203"
	Message string
	Help    string
	Span    Span
	Source  string // the full source blob the span indexes into
	cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	loc := e.Span.File
	if loc == "" {
		loc = "<input>"
	}
	fmt.Fprintf(&b, "%s: %s\n", e.Kind, e.Message)
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", loc, e.Span.Line, e.Span.Column)
	if snippet := e.snippet(); snippet != "" {
		b.WriteString(snippet)
	}
	if e.Help != "" {
		fmt.Fprintf(&b, "help: %s\n", e.Help)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// snippet renders the offending source line with a caret underline beneath
// the failing span, the same shape as the teacher's ParseError.createCodeSnippet.
func (e *Error) snippet() string {
	if e.Source == "" {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	idx := e.Span.Line - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	line := lines[idx]
	col := e.Span.Column - 1
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	width := e.Span.Length
	if width < 1 {
		width = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", line)
	fmt.Fprintf(&b, "  %s%s\n", strings.Repeat(" ", col), strings.Repeat("^", width))
	return b.String()
}

// New builds a diagnostic with no help text or code.
func New(kind Kind, span Span, source, message string) *Error {
	return &Error{Kind: kind, Span: span, Source: source, Message: message}
}

// WithHelp attaches help text and returns the same error for chaining.
func (e *Error) WithHelp(help string) *Error {
	e.Help = help
	return e
}

// WithCode attaches a stable diagnostic code.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithCause records an underlying error (e.g. an os.PathError for io failures).
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// Warning is an append-only, non-fatal diagnostic (spec.md §7, warn policies).
type Warning struct {
	Message string
	Span    Span
}

// Warnings is the append-only channel carried by a single compilation.
type Warnings struct {
	items []Warning
}

func (w *Warnings) Add(message string, span Span) {
	w.items = append(w.items, Warning{Message: message, Span: span})
}

func (w *Warnings) Items() []Warning {
	return w.items
}

func (w *Warnings) Len() int {
	if w == nil {
		return 0
	}
	return len(w.items)
}
