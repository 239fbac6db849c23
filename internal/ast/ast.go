// Package ast defines the Hone abstract syntax tree produced by
// internal/parser. Every node carries a Position so diagnostics and the
// formatter can point back into source text (spec.md §3.2); the shape
// follows the teacher's core/ast.Node contract (String()/Position()) with
// the LSP-only SemanticTokens/TokenRange machinery dropped since hone has
// no tree-sitter/LSP grammar-sharing requirement of its own.
package ast

import "github.com/honelang/hone/internal/token"

// Position locates a node in its source file.
type Position struct {
	Line   int
	Column int
	Offset int
	Length int
}

// Node is implemented by every AST type.
type Node interface {
	Position() Position
}

// File is the root of a parsed `.hone` source.
type File struct {
	Preamble []PreambleItem
	Body     []BodyItem
	SubDocs  []SubDocument
	Pos      Position
}

func (f *File) Position() Position { return f.Pos }

// SubDocument is a `---name` separated section with its own preamble
// (spec.md §3.2 "A sub-document has its own preamble and body") in
// addition to the one it shares with the parent file.
type SubDocument struct {
	Name     string // "" when unnamed
	Preamble []PreambleItem
	Body     []BodyItem
	Pos      Position
}

func (s *SubDocument) Position() Position { return s.Pos }

// ---- Preamble items ----

type PreambleItem interface {
	Node
	preambleItem()
}

type LetDecl struct {
	Name  string
	Value Expr
	Pos   Position
}

func (d *LetDecl) Position() Position { return d.Pos }
func (*LetDecl) preambleItem()        {}

type FromDecl struct {
	Path Expr // must be a literal StringLit; enforced by parser/resolver
	Pos  Position
}

func (d *FromDecl) Position() Position { return d.Pos }
func (*FromDecl) preambleItem()        {}

type ImportDecl struct {
	Path Expr
	As   string
	Pos  Position
}

func (d *ImportDecl) Position() Position { return d.Pos }
func (*ImportDecl) preambleItem()        {}

type SchemaField struct {
	Name       string
	Constraint *Constraint
	Optional   bool
	Default    Expr // nil when absent
	Pos        Position
}

type Constraint struct {
	Name  string // "int", "string", "bool", "null", schema name, "array<T>"
	Args  []Expr
	Union []*Constraint // non-nil for an `A | B` union type; Name is "union"
}

type SchemaDecl struct {
	Name    string
	Extends string // "" when none
	Fields  []SchemaField
	Open    bool
	Pos     Position
}

func (d *SchemaDecl) Position() Position { return d.Pos }
func (*SchemaDecl) preambleItem()        {}

type TypeAliasDecl struct {
	Name       string
	Constraint *Constraint
	Pos        Position
}

func (d *TypeAliasDecl) Position() Position { return d.Pos }
func (*TypeAliasDecl) preambleItem()        {}

type UseDecl struct {
	Schema string
	Pos    Position
}

func (d *UseDecl) Position() Position { return d.Pos }
func (*UseDecl) preambleItem()        {}

type VariantCase struct {
	Name    string
	Default bool
	Body    []BodyItem
	Pos     Position
}

type VariantDecl struct {
	Name  string
	Cases []VariantCase
	Pos   Position
}

func (d *VariantDecl) Position() Position { return d.Pos }
func (*VariantDecl) preambleItem()        {}

type ExpectDecl struct {
	Path       []string // dotted args path, e.g. args.region
	Constraint *Constraint
	Default    Expr // nil when required
	Pos        Position
}

func (d *ExpectDecl) Position() Position { return d.Pos }
func (*ExpectDecl) preambleItem()        {}

type SecretDecl struct {
	Name     string
	Provider string
	Pos      Position
}

func (d *SecretDecl) Position() Position { return d.Pos }
func (*SecretDecl) preambleItem()        {}

type PolicyDecl struct {
	Name      string
	Level     string // "deny" | "warn"
	Condition Expr
	Message   Expr // nil when absent
	Pos       Position
}

func (d *PolicyDecl) Position() Position { return d.Pos }
func (*PolicyDecl) preambleItem()        {}

type FnDecl struct {
	Name   string
	Params []string
	Body   Expr
	Pos    Position
}

func (d *FnDecl) Position() Position { return d.Pos }
func (*FnDecl) preambleItem()        {}

// ---- Body items ----

type BodyItem interface {
	Node
	bodyItem()
}

// MergeOp is the body-item assignment operator (spec.md §4.3.2).
type MergeOp int

const (
	OpNormal MergeOp = iota
	OpAppend
	OpReplace
)

// Key is any of the four key forms the parser accepts (spec.md §4.2).
type Key struct {
	Ident    string // set when a bare identifier or reserved-as-key
	Literal  Expr   // set for string literal / interpolated string key
	Computed Expr   // set for `[expr]` computed key
	Pos      Position
}

type KeyValueItem struct {
	Key   Key
	Op    MergeOp
	Value Expr
	Pos   Position
}

func (i *KeyValueItem) Position() Position { return i.Pos }
func (*KeyValueItem) bodyItem()            {}

type BlockItem struct {
	Name  Key
	Items []BodyItem
	Pos   Position
}

func (i *BlockItem) Position() Position { return i.Pos }
func (*BlockItem) bodyItem()            {}

type WhenBranch struct {
	Condition Expr // nil for a trailing `else` with no condition
	Body      []BodyItem
}

type WhenItem struct {
	Branches []WhenBranch
	Pos      Position
}

func (i *WhenItem) Position() Position { return i.Pos }
func (*WhenItem) bodyItem()            {}

type ForItem struct {
	KeyVar   string // "" unless binding (k, v)
	ValueVar string
	Iter     Expr
	// Body mixes object key-values with a trailing expression (spec.md
	// §4.2 "mixed block"); Items is non-nil for object-shaped bodies,
	// Trailing is set when followed by a bare expression.
	Items    []BodyItem
	Trailing Expr
	Pos      Position
}

func (i *ForItem) Position() Position { return i.Pos }
func (*ForItem) bodyItem()            {}

type AssertItem struct {
	Condition Expr
	Message   Expr // nil when absent
	Pos       Position
}

func (i *AssertItem) Position() Position { return i.Pos }
func (*AssertItem) bodyItem()            {}

type LetItem struct {
	Name  string
	Value Expr
	Pos   Position
}

func (i *LetItem) Position() Position { return i.Pos }
func (*LetItem) bodyItem()            {}

type SpreadItem struct {
	Value Expr
	Pos   Position
}

func (i *SpreadItem) Position() Position { return i.Pos }
func (*SpreadItem) bodyItem()            {}

// ---- Expressions ----

type Expr interface {
	Node
	expr()
}

type NullLit struct{ Pos Position }

func (n *NullLit) Position() Position { return n.Pos }
func (*NullLit) expr()                {}

type BoolLit struct {
	Value bool
	Pos   Position
}

func (n *BoolLit) Position() Position { return n.Pos }
func (*BoolLit) expr()                {}

type IntLit struct {
	Value int64
	Pos   Position
}

func (n *IntLit) Position() Position { return n.Pos }
func (*IntLit) expr()                {}

type FloatLit struct {
	Value float64
	Pos   Position
}

func (n *FloatLit) Position() Position { return n.Pos }
func (*FloatLit) expr()                {}

type StringLit struct {
	Value string
	Pos   Position
}

func (n *StringLit) Position() Position { return n.Pos }
func (*StringLit) expr()                {}

// InterpPart is either a literal fragment (Expr nil) or an embedded
// expression (Literal ignored).
type InterpPart struct {
	Literal string
	Expr    Expr
}

type InterpString struct {
	Parts []InterpPart
	Pos   Position
}

func (n *InterpString) Position() Position { return n.Pos }
func (*InterpString) expr()                {}

type Ident struct {
	Name string
	Pos  Position
}

func (n *Ident) Position() Position { return n.Pos }
func (*Ident) expr()                {}

type ArrayLit struct {
	Items []Expr // may contain *SpreadExpr
	Pos   Position
}

func (n *ArrayLit) Position() Position { return n.Pos }
func (*ArrayLit) expr()                {}

type ObjectEntry struct {
	Key   Key
	Value Expr
	Pos   Position
}

type ObjectLit struct {
	Entries []ObjectEntry
	Spreads []int // indices into Entries that are actually *SpreadExpr values keyed by empty Key
	Pos     Position
}

func (n *ObjectLit) Position() Position { return n.Pos }
func (*ObjectLit) expr()                {}

type SpreadExpr struct {
	Value Expr
	Pos   Position
}

func (n *SpreadExpr) Position() Position { return n.Pos }
func (*SpreadExpr) expr()                {}

type UnaryExpr struct {
	Op      token.Type
	Operand Expr
	Pos     Position
}

func (n *UnaryExpr) Position() Position { return n.Pos }
func (*UnaryExpr) expr()                {}

type BinaryExpr struct {
	Op    token.Type
	Left  Expr
	Right Expr
	Pos   Position
}

func (n *BinaryExpr) Position() Position { return n.Pos }
func (*BinaryExpr) expr()                {}

type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  Position
}

func (n *CondExpr) Position() Position { return n.Pos }
func (*CondExpr) expr()                {}

type CallExpr struct {
	Callee Expr
	Args   []Expr
	Pos    Position
}

func (n *CallExpr) Position() Position { return n.Pos }
func (*CallExpr) expr()                {}

type IndexExpr struct {
	Target Expr
	Index  Expr
	Pos    Position
}

func (n *IndexExpr) Position() Position { return n.Pos }
func (*IndexExpr) expr()                {}

type MemberExpr struct {
	Target Expr
	Name   string
	Pos    Position
}

func (n *MemberExpr) Position() Position { return n.Pos }
func (*MemberExpr) expr()                {}

// AnnotatedExpr wraps a postfix `@Constraint` annotation (spec.md §4.3.3).
type AnnotatedExpr struct {
	Target     Expr
	Annotation string
	Args       []Expr
	Pos        Position
}

func (n *AnnotatedExpr) Position() Position { return n.Pos }
func (*AnnotatedExpr) expr()                {}

// WhenExpr is `when` used in expression position, yielding an object (or
// Null when nothing matches and there is no else).
type WhenExpr struct {
	Branches []WhenBranchExpr
	Pos      Position
}

type WhenBranchExpr struct {
	Condition Expr // nil for else
	Value     Expr
}

func (n *WhenExpr) Position() Position { return n.Pos }
func (*WhenExpr) expr()                {}

// ForExpr is `for` used in expression position, yielding an array.
type ForExpr struct {
	KeyVar   string
	ValueVar string
	Iter     Expr
	Body     Expr
	Pos      Position
}

func (n *ForExpr) Position() Position { return n.Pos }
func (*ForExpr) expr()                {}
