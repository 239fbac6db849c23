// Package format implements the Hone source formatter (spec.md §6.4): it
// parses a source file and prints its AST back in the canonical form (2
// space indent, LF endings, one trailing newline, blank lines between
// preamble classes of differing kind and between preamble and body).
// Grounded on the teacher's planfmt/formatter/text.go node-switch printer
// style (a strings.Builder walked recursively by AST node type), adapted
// from plan-execution nodes to Hone's expression/body-item AST.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/lexer"
	"github.com/honelang/hone/internal/parser"
)

// Format parses source and prints its canonical form. Format(Format(s)) ==
// Format(s) for every valid s (spec.md §8 "Formatter idempotence"): the
// printer only ever derives text from the AST's own structure, so two
// formatting passes of an already-canonical file produce byte-identical
// output.
func Format(source, filename string) (string, error) {
	p := parser.New(source, filename)
	file, err := p.ParseFile()
	if err != nil {
		return "", err
	}
	pr := &printer{comments: p.Comments()}
	pr.printFile(file)
	out := pr.b.String()
	out = strings.TrimRight(out, "\n") + "\n"
	return out, nil
}

type printer struct {
	b        strings.Builder
	indent   int
	comments []lexer.Comment
	nextC    int
}

func (p *printer) writeIndent() {
	p.b.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) line(format string, args ...any) {
	p.writeIndent()
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

// flushCommentsBefore emits any standalone comments whose source line
// precedes line, in original order, keyed by line number (spec.md §4.1
// "The formatter consumes that list in order keyed by original line
// number").
func (p *printer) flushCommentsBefore(line int) {
	for p.nextC < len(p.comments) && p.comments[p.nextC].Line < line {
		c := p.comments[p.nextC]
		p.writeIndent()
		if c.Block {
			text := strings.TrimSuffix(strings.TrimPrefix(c.Text, "/*"), "*/")
			p.b.WriteString("/* " + strings.TrimSpace(text) + " */\n")
		} else {
			p.b.WriteString("# " + strings.TrimSpace(strings.TrimPrefix(c.Text, "#")) + "\n")
		}
		p.nextC++
	}
}

func (p *printer) flushRemainingComments() {
	p.flushCommentsBefore(1 << 30)
}

func preambleClass(item ast.PreambleItem) int {
	switch item.(type) {
	case *ast.LetDecl:
		return 0
	case *ast.FromDecl, *ast.ImportDecl:
		return 1
	case *ast.SchemaDecl, *ast.TypeAliasDecl:
		return 2
	case *ast.UseDecl:
		return 3
	case *ast.VariantDecl:
		return 4
	case *ast.ExpectDecl:
		return 5
	case *ast.SecretDecl:
		return 6
	case *ast.PolicyDecl:
		return 7
	case *ast.FnDecl:
		return 8
	default:
		return 9
	}
}

func (p *printer) printFile(f *ast.File) {
	lastClass := -1
	for _, item := range f.Preamble {
		p.flushCommentsBefore(item.Position().Line)
		class := preambleClass(item)
		if lastClass != -1 && class != lastClass {
			p.b.WriteByte('\n')
		}
		lastClass = class
		p.printPreambleItem(item)
	}
	if len(f.Preamble) > 0 && len(f.Body) > 0 {
		p.b.WriteByte('\n')
	}
	for _, item := range f.Body {
		p.flushCommentsBefore(item.Position().Line)
		p.printBodyItem(item)
	}
	for _, sub := range f.SubDocs {
		p.b.WriteByte('\n')
		if sub.Name != "" {
			p.line("---[%s]", sub.Name)
		} else {
			p.line("---")
		}
		lastClass := -1
		for _, item := range sub.Preamble {
			p.flushCommentsBefore(item.Position().Line)
			class := preambleClass(item)
			if lastClass != -1 && class != lastClass {
				p.b.WriteByte('\n')
			}
			lastClass = class
			p.printPreambleItem(item)
		}
		if len(sub.Preamble) > 0 && len(sub.Body) > 0 {
			p.b.WriteByte('\n')
		}
		for _, item := range sub.Body {
			p.flushCommentsBefore(item.Position().Line)
			p.printBodyItem(item)
		}
	}
	p.flushRemainingComments()
}

func (p *printer) printPreambleItem(item ast.PreambleItem) {
	switch d := item.(type) {
	case *ast.LetDecl:
		p.line("let %s = %s", d.Name, exprText(d.Value))
	case *ast.FromDecl:
		p.line("from %s", exprText(d.Path))
	case *ast.ImportDecl:
		if d.As != "" {
			p.line("import %s as %s", exprText(d.Path), d.As)
		} else {
			p.line("import %s", exprText(d.Path))
		}
	case *ast.SchemaDecl:
		p.printSchema(d)
	case *ast.TypeAliasDecl:
		p.line("type %s = %s", d.Name, constraintText(d.Constraint))
	case *ast.UseDecl:
		p.line("use %s", d.Schema)
	case *ast.VariantDecl:
		p.printVariant(d)
	case *ast.ExpectDecl:
		p.printExpect(d)
	case *ast.SecretDecl:
		p.line("secret %s = %q", d.Name, d.Provider)
	case *ast.PolicyDecl:
		p.printPolicy(d)
	case *ast.FnDecl:
		p.line("fn %s(%s) = %s", d.Name, strings.Join(d.Params, ", "), exprText(d.Body))
	}
}

func (p *printer) printSchema(d *ast.SchemaDecl) {
	header := "schema " + d.Name
	if d.Extends != "" {
		header += " extends " + d.Extends
	}
	p.line("%s {", header)
	p.indent++
	for _, f := range d.Fields {
		opt := ""
		if f.Optional {
			opt = "?"
		}
		def := ""
		if f.Default != nil {
			def = " = " + exprText(f.Default)
		}
		p.line("%s%s: %s%s", f.Name, opt, constraintText(f.Constraint), def)
	}
	if d.Open {
		p.line("...")
	}
	p.indent--
	p.line("}")
}

func (p *printer) printVariant(d *ast.VariantDecl) {
	p.line("variant %s {", d.Name)
	p.indent++
	for _, c := range d.Cases {
		header := c.Name
		if c.Default {
			header += " default"
		}
		p.line("%s {", header)
		p.indent++
		for _, item := range c.Body {
			p.printBodyItem(item)
		}
		p.indent--
		p.line("}")
	}
	p.indent--
	p.line("}")
}

func (p *printer) printExpect(d *ast.ExpectDecl) {
	text := fmt.Sprintf("expect %s: %s", strings.Join(d.Path, "."), constraintText(d.Constraint))
	if d.Default != nil {
		text += " default = " + exprText(d.Default)
	}
	p.line("%s", text)
}

func (p *printer) printPolicy(d *ast.PolicyDecl) {
	text := fmt.Sprintf("policy %s %s when %s", d.Name, d.Level, exprText(d.Condition))
	if d.Message != nil {
		p.line("%s {", text)
		p.indent++
		p.line("%s", exprText(d.Message))
		p.indent--
		p.line("}")
		return
	}
	p.line("%s", text)
}

func (p *printer) printBodyItem(item ast.BodyItem) {
	switch n := item.(type) {
	case *ast.LetItem:
		p.line("let %s = %s", n.Name, exprText(n.Value))
	case *ast.SpreadItem:
		p.line("...%s", exprText(n.Value))
	case *ast.AssertItem:
		if n.Message != nil {
			p.line("assert %s: %s", exprText(n.Condition), exprText(n.Message))
		} else {
			p.line("assert %s", exprText(n.Condition))
		}
	case *ast.KeyValueItem:
		p.line("%s%s %s", keyText(n.Key), opText(n.Op), exprText(n.Value))
	case *ast.BlockItem:
		p.line("%s {", keyText(n.Name))
		p.indent++
		for _, child := range n.Items {
			p.printBodyItem(child)
		}
		p.indent--
		p.line("}")
	case *ast.WhenItem:
		p.printWhenItem(n)
	case *ast.ForItem:
		p.printForItem(n)
	}
}

func (p *printer) printWhenItem(n *ast.WhenItem) {
	for i, branch := range n.Branches {
		switch {
		case i == 0:
			p.line("when %s {", exprText(branch.Condition))
		case branch.Condition != nil:
			p.line("else when %s {", exprText(branch.Condition))
		default:
			p.line("else {")
		}
		p.indent++
		for _, item := range branch.Body {
			p.printBodyItem(item)
		}
		p.indent--
		if i == len(n.Branches)-1 {
			p.line("}")
		} else {
			p.b.WriteString(strings.Repeat("  ", p.indent) + "}\n")
		}
	}
}

func (p *printer) printForItem(n *ast.ForItem) {
	binder := n.ValueVar
	if n.KeyVar != "" {
		binder = fmt.Sprintf("(%s, %s)", n.KeyVar, n.ValueVar)
	}
	p.line("for %s in %s {", binder, exprText(n.Iter))
	p.indent++
	for _, item := range n.Items {
		p.printBodyItem(item)
	}
	if n.Trailing != nil {
		p.line("%s", exprText(n.Trailing))
	}
	p.indent--
	p.line("}")
}

func opText(op ast.MergeOp) string {
	switch op {
	case ast.OpAppend:
		return " +:"
	case ast.OpReplace:
		return " !:"
	default:
		return ":"
	}
}

func keyText(k ast.Key) string {
	if k.Computed != nil {
		return "[" + exprText(k.Computed) + "]"
	}
	if k.Literal != nil {
		return exprText(k.Literal)
	}
	return k.Ident
}

func constraintText(c *ast.Constraint) string {
	if c == nil {
		return ""
	}
	if c.Name == "union" {
		parts := make([]string, len(c.Union))
		for i, u := range c.Union {
			parts[i] = constraintText(u)
		}
		return strings.Join(parts, " | ")
	}
	if len(c.Args) == 0 {
		return c.Name
	}
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = exprText(a)
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// exprText renders an expression in one line, using minimal parenthesization
// based purely on node kind (re-parsing a formatted file reproduces the
// same tree because the parser's own precedence ladder matches the shape
// these parens make explicit).
func exprText(e ast.Expr) string {
	operand := func(x ast.Expr) string {
		switch x.(type) {
		case *ast.BinaryExpr, *ast.CondExpr:
			return "(" + exprText(x) + ")"
		}
		return exprText(x)
	}
	switch n := e.(type) {
	case *ast.NullLit:
		return "null"
	case *ast.BoolLit:
		if n.Value {
			return "true"
		}
		return "false"
	case *ast.IntLit:
		return strconv.FormatInt(n.Value, 10)
	case *ast.FloatLit:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *ast.StringLit:
		return strconv.Quote(n.Value)
	case *ast.InterpString:
		return interpText(n)
	case *ast.Ident:
		return n.Name
	case *ast.ArrayLit:
		parts := make([]string, len(n.Items))
		for i, it := range n.Items {
			parts[i] = exprText(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.ObjectLit:
		parts := make([]string, len(n.Entries))
		for i, e := range n.Entries {
			parts[i] = keyText(e.Key) + ": " + exprText(e.Value)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.SpreadExpr:
		return "..." + exprText(n.Value)
	case *ast.UnaryExpr:
		return n.Op.String() + operand(n.Operand)
	case *ast.BinaryExpr:
		return fmt.Sprintf("%s %s %s", operand(n.Left), n.Op.String(), operand(n.Right))
	case *ast.CondExpr:
		return fmt.Sprintf("%s ? %s : %s", operand(n.Cond), exprText(n.Then), exprText(n.Else))
	case *ast.CallExpr:
		parts := make([]string, len(n.Args))
		for i, a := range n.Args {
			parts[i] = exprText(a)
		}
		return fmt.Sprintf("%s(%s)", exprText(n.Callee), strings.Join(parts, ", "))
	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", exprText(n.Target), exprText(n.Index))
	case *ast.MemberExpr:
		return fmt.Sprintf("%s.%s", exprText(n.Target), n.Name)
	case *ast.AnnotatedExpr:
		text := fmt.Sprintf("%s@%s", exprText(n.Target), n.Annotation)
		if len(n.Args) > 0 {
			parts := make([]string, len(n.Args))
			for i, a := range n.Args {
				parts[i] = exprText(a)
			}
			text += "(" + strings.Join(parts, ", ") + ")"
		}
		return text
	case *ast.WhenExpr:
		var parts []string
		for i, branch := range n.Branches {
			if i == 0 {
				parts = append(parts, fmt.Sprintf("when %s { %s }", exprText(branch.Condition), exprText(branch.Value)))
			} else if branch.Condition != nil {
				parts = append(parts, fmt.Sprintf("else when %s { %s }", exprText(branch.Condition), exprText(branch.Value)))
			} else {
				parts = append(parts, fmt.Sprintf("else { %s }", exprText(branch.Value)))
			}
		}
		return strings.Join(parts, " ")
	case *ast.ForExpr:
		binder := n.ValueVar
		if n.KeyVar != "" {
			binder = fmt.Sprintf("(%s, %s)", n.KeyVar, n.ValueVar)
		}
		return fmt.Sprintf("for %s in %s { %s }", binder, exprText(n.Iter), exprText(n.Body))
	default:
		return ""
	}
}

func interpText(n *ast.InterpString) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, part := range n.Parts {
		if part.Expr != nil {
			b.WriteString("${" + exprText(part.Expr) + "}")
		} else {
			q := strconv.Quote(part.Literal)
			b.WriteString(q[1 : len(q)-1])
		}
	}
	b.WriteByte('"')
	return b.String()
}
