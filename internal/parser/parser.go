// Package parser implements Hone's recursive-descent parser: tokens from
// internal/lexer become an internal/ast.File. The structure — and the
// bounded-depth recursion guard — follows the teacher's
// runtime/parser/parser.go (ParseTree-building recursive descent with a
// ParserOpt functional-options constructor); the expression-precedence
// ladder and preamble/body grammar are grounded on spec.md §4.2 and the
// original Rust parser (original_source/src/parser/mod.rs).
package parser

import (
	"fmt"
	"strconv"

	"github.com/honelang/hone/internal/ast"
	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/invariant"
	"github.com/honelang/hone/internal/lexer"
	"github.com/honelang/hone/internal/token"
)

// MaxDepth bounds expression recursion so a pathological input reports
// RecursionLimitExceeded instead of overflowing the Go call stack
// (spec.md §4.2, §5).
const MaxDepth = 128

// Option configures a Parser.
type Option func(*Parser)

// Parser consumes a token stream and builds a File AST.
type Parser struct {
	lex      *lexer.Lexer
	filename string
	source   string

	cur, peek token.Token
	curErr    error // set when peeking failed to lex

	depth int
}

// New constructs a Parser over src.
func New(src, filename string, opts ...Option) *Parser {
	p := &Parser{
		lex:      lexer.New(src, filename),
		filename: filename,
		source:   src,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.advance()
	p.advance()
	return p
}

// Comments exposes the lexer's collected comments for the formatter.
func (p *Parser) Comments() []lexer.Comment { return p.lex.Comments() }

func (p *Parser) advance() {
	p.cur = p.peek
	tok, err := p.lex.NextToken()
	if err != nil {
		p.curErr = err
		p.peek = token.Token{Type: token.ILLEGAL}
		return
	}
	p.peek = tok
}

func (p *Parser) pos() ast.Position {
	return ast.Position{Line: p.cur.Pos.Line, Column: p.cur.Pos.Column, Offset: p.cur.Pos.Offset, Length: p.cur.Length}
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) *diag.Error {
	length := tok.Length
	if length == 0 {
		length = len(tok.Literal)
	}
	if length == 0 {
		length = 1
	}
	return diag.New(diag.KindSyntax, diag.Span{
		File: p.filename, Line: tok.Pos.Line, Column: tok.Pos.Column, Offset: tok.Pos.Offset, Length: length,
	}, p.source, fmt.Sprintf(format, args...))
}

func (p *Parser) unexpected(expected string) *diag.Error {
	return p.errorf(p.cur, "unexpected token: expected %s, found %s", expected, describe(p.cur)).
		WithCode("E_UNEXPECTED_TOKEN")
}

func describe(t token.Token) string {
	if t.Type == token.EOF {
		return "end of input"
	}
	if t.Literal != "" {
		return fmt.Sprintf("%q", t.Literal)
	}
	return t.Type.String()
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if p.cur.Type != t {
		return token.Token{}, p.unexpected(t.String())
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

func (p *Parser) skipNewlines() {
	for p.cur.Type == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.errorf(p.cur, "expression nested too deeply (limit %d)", MaxDepth).
			WithCode("E_RECURSION_LIMIT")
	}
	return nil
}

func (p *Parser) leave() {
	invariant.Precondition(p.depth > 0, "parser depth underflow")
	p.depth--
}

// ParseFile parses a complete `.hone` source into a File.
func (p *Parser) ParseFile() (*ast.File, error) {
	if p.curErr != nil {
		return nil, p.curErr
	}
	f := &ast.File{Pos: p.pos()}
	p.skipNewlines()

	for p.isPreambleStart() {
		item, err := p.parsePreambleItem()
		if err != nil {
			return nil, err
		}
		f.Preamble = append(f.Preamble, item)
		p.skipNewlines()
	}

	for p.cur.Type != token.EOF && p.cur.Type != token.DOC_SEPARATOR {
		item, err := p.parseBodyItem()
		if err != nil {
			return nil, err
		}
		f.Body = append(f.Body, item)
		p.skipNewlines()
	}

	for p.cur.Type == token.DOC_SEPARATOR {
		sub, err := p.parseSubDocument()
		if err != nil {
			return nil, err
		}
		f.SubDocs = append(f.SubDocs, *sub)
		p.skipNewlines()
	}

	if p.cur.Type != token.EOF {
		return nil, p.unexpected("end of input")
	}
	return f, nil
}

func (p *Parser) parseSubDocument() (*ast.SubDocument, error) {
	pos := p.pos()
	if _, err := p.expect(token.DOC_SEPARATOR); err != nil {
		return nil, err
	}
	name := ""
	if p.cur.Type == token.LBRACKET {
		p.advance()
		if p.cur.Type != token.IDENT {
			return nil, p.unexpected("sub-document name")
		}
		name = p.cur.Literal
		p.advance()
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
	}
	p.skipNewlines()
	sub := &ast.SubDocument{Name: name, Pos: pos}

	for p.isPreambleStart() {
		item, err := p.parsePreambleItem()
		if err != nil {
			return nil, err
		}
		sub.Preamble = append(sub.Preamble, item)
		p.skipNewlines()
	}

	for p.cur.Type != token.EOF && p.cur.Type != token.DOC_SEPARATOR {
		item, err := p.parseBodyItem()
		if err != nil {
			return nil, err
		}
		sub.Body = append(sub.Body, item)
		p.skipNewlines()
	}
	return sub, nil
}

// isPreambleStart reports whether the current token begins a preamble
// item. Reserved words only count when not immediately followed by a
// colon/append/replace operator, so they remain usable as quoted body keys
// (spec.md §4.2).
func (p *Parser) isPreambleStart() bool {
	switch p.cur.Type {
	case token.LET, token.FROM, token.IMPORT, token.TYPE, token.SECRET, token.FN:
		return true
	case token.SCHEMA, token.VARIANT, token.EXPECT, token.POLICY, token.USE:
		return p.peek.Type != token.COLON && p.peek.Type != token.APPEND && p.peek.Type != token.REPLACE
	default:
		return false
	}
}

func (p *Parser) parsePreambleItem() (ast.PreambleItem, error) {
	switch p.cur.Type {
	case token.LET:
		return p.parseLetDecl()
	case token.FROM:
		return p.parseFromDecl()
	case token.IMPORT:
		return p.parseImportDecl()
	case token.SCHEMA:
		return p.parseSchemaDecl()
	case token.TYPE:
		return p.parseTypeAliasDecl()
	case token.USE:
		return p.parseUseDecl()
	case token.VARIANT:
		return p.parseVariantDecl()
	case token.EXPECT:
		return p.parseExpectDecl()
	case token.SECRET:
		return p.parseSecretDecl()
	case token.POLICY:
		return p.parsePolicyDecl()
	case token.FN:
		return p.parseFnDecl()
	default:
		return nil, p.unexpected("preamble item")
	}
}

func (p *Parser) parseLetDecl() (*ast.LetDecl, error) {
	pos := p.pos()
	p.advance() // let
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetDecl{Name: name, Value: val, Pos: pos}, nil
}

func (p *Parser) expectIdentLike() (string, error) {
	if p.cur.Type != token.IDENT {
		return "", p.unexpected("identifier")
	}
	name := p.cur.Literal
	p.advance()
	return name, nil
}

func (p *Parser) parseLiteralStringPath() (ast.Expr, error) {
	if p.cur.Type != token.STRING {
		return nil, p.errorf(p.cur, "import path must be a literal string, not an interpolated expression").
			WithCode("E_IMPORT_NOT_LITERAL")
	}
	lit := &ast.StringLit{Value: p.cur.Literal, Pos: p.pos()}
	p.advance()
	return lit, nil
}

func (p *Parser) parseFromDecl() (*ast.FromDecl, error) {
	pos := p.pos()
	p.advance() // from
	path, err := p.parseLiteralStringPath()
	if err != nil {
		return nil, err
	}
	return &ast.FromDecl{Path: path, Pos: pos}, nil
}

func (p *Parser) parseImportDecl() (*ast.ImportDecl, error) {
	pos := p.pos()
	p.advance() // import
	path, err := p.parseLiteralStringPath()
	if err != nil {
		return nil, err
	}
	as := ""
	if p.cur.Type == token.AS {
		p.advance()
		as, err = p.expectIdentLike()
		if err != nil {
			return nil, err
		}
	}
	return &ast.ImportDecl{Path: path, As: as, Pos: pos}, nil
}

func (p *Parser) parseConstraint() (*ast.Constraint, error) {
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	c := &ast.Constraint{Name: name}
	if p.cur.Type == token.LPAREN {
		p.advance()
		for p.cur.Type != token.RPAREN {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, arg)
			if p.cur.Type == token.COMMA {
				p.advance()
			}
		}
		p.advance() // )
	}
	for p.cur.Type == token.LBRACKET {
		p.advance()
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		c.Name = "array<" + c.Name + ">"
	}
	return c, nil
}

func (p *Parser) parseSchemaDecl() (*ast.SchemaDecl, error) {
	pos := p.pos()
	p.advance() // schema
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	d := &ast.SchemaDecl{Name: name, Pos: pos}
	if p.cur.Type == token.EXTENDS {
		p.advance()
		d.Extends, err = p.expectIdentLike()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	for p.cur.Type != token.RBRACE {
		if p.cur.Type == token.SPREAD {
			p.advance()
			d.Open = true
			p.skipNewlines()
			continue
		}
		field, err := p.parseSchemaField()
		if err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, *field)
		p.skipNewlines()
		if p.cur.Type == token.COMMA {
			p.advance()
			p.skipNewlines()
		}
	}
	p.advance() // }
	return d, nil
}

func (p *Parser) parseSchemaField() (*ast.SchemaField, error) {
	pos := p.pos()
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	optional := false
	switch p.cur.Type {
	case token.ELVIS: // `name?: T` lexes `?:` as a single token
		optional = true
		p.advance()
	case token.QUESTION:
		optional = true
		p.advance()
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
	default:
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
	}
	constraint, err := p.parseConstraintOrUnion()
	if err != nil {
		return nil, err
	}
	field := &ast.SchemaField{Name: name, Constraint: constraint, Optional: optional, Pos: pos}
	if p.cur.Type == token.DEFAULT {
		p.advance()
		if _, err := p.expect(token.ASSIGN); err != nil {
			return nil, err
		}
		def, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		field.Default = def
	}
	return field, nil
}

func (p *Parser) parseConstraintOrUnion() (*ast.Constraint, error) {
	c, err := p.parseConstraint()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.PIPE {
		return c, nil
	}
	union := &ast.Constraint{Name: "union", Union: []*ast.Constraint{c}}
	for p.cur.Type == token.PIPE {
		p.advance()
		next, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		union.Union = append(union.Union, next)
	}
	return union, nil
}

func (p *Parser) parseTypeAliasDecl() (*ast.TypeAliasDecl, error) {
	pos := p.pos()
	p.advance() // type
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	c, err := p.parseConstraintOrUnion()
	if err != nil {
		return nil, err
	}
	return &ast.TypeAliasDecl{Name: name, Constraint: c, Pos: pos}, nil
}

func (p *Parser) parseUseDecl() (*ast.UseDecl, error) {
	pos := p.pos()
	p.advance() // use
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	return &ast.UseDecl{Schema: name, Pos: pos}, nil
}

func (p *Parser) parseVariantDecl() (*ast.VariantDecl, error) {
	pos := p.pos()
	p.advance() // variant
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	d := &ast.VariantDecl{Name: name, Pos: pos}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	for p.cur.Type != token.RBRACE {
		vc, err := p.parseVariantCase()
		if err != nil {
			return nil, err
		}
		d.Cases = append(d.Cases, *vc)
		p.skipNewlines()
	}
	p.advance() // }
	return d, nil
}

func (p *Parser) parseVariantCase() (*ast.VariantCase, error) {
	pos := p.pos()
	isDefault := false
	if p.cur.Type == token.DEFAULT {
		isDefault = true
		p.advance()
	}
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	vc := &ast.VariantCase{Name: name, Default: isDefault, Pos: pos}
	for p.cur.Type != token.RBRACE {
		item, err := p.parseBodyItem()
		if err != nil {
			return nil, err
		}
		vc.Body = append(vc.Body, item)
		p.skipNewlines()
	}
	p.advance() // }
	return vc, nil
}

func (p *Parser) parseExpectDecl() (*ast.ExpectDecl, error) {
	pos := p.pos()
	p.advance() // expect
	path, err := p.parseDottedPath()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	constraint, err := p.parseConstraintOrUnion()
	if err != nil {
		return nil, err
	}
	d := &ast.ExpectDecl{Path: path, Constraint: constraint, Pos: pos}
	if p.cur.Type == token.DEFAULT {
		p.advance()
		if _, err := p.expect(token.ASSIGN); err != nil {
			return nil, err
		}
		def, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Default = def
	}
	return d, nil
}

func (p *Parser) parseDottedPath() ([]string, error) {
	first, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	path := []string{first}
	for p.cur.Type == token.DOT {
		p.advance()
		next, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		path = append(path, next)
	}
	return path, nil
}

func (p *Parser) parseSecretDecl() (*ast.SecretDecl, error) {
	pos := p.pos()
	p.advance() // secret
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	d := &ast.SecretDecl{Name: name, Pos: pos}
	if p.cur.Type == token.COLON {
		p.advance()
		prov, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		d.Provider = prov
	}
	return d, nil
}

func (p *Parser) parsePolicyDecl() (*ast.PolicyDecl, error) {
	pos := p.pos()
	p.advance() // policy
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	var level string
	switch p.cur.Type {
	case token.DENY:
		level = "deny"
	case token.WARN:
		level = "warn"
	default:
		return nil, p.unexpected("'deny' or 'warn'")
	}
	p.advance()
	if _, err := p.expect(token.WHEN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	d := &ast.PolicyDecl{Name: name, Level: level, Condition: cond, Pos: pos}
	if p.cur.Type == token.LBRACE {
		p.advance()
		p.skipNewlines()
		msg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		d.Message = msg
		p.skipNewlines()
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (p *Parser) parseFnDecl() (*ast.FnDecl, error) {
	pos := p.pos()
	p.advance() // fn
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for p.cur.Type != token.RPAREN {
		param, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.cur.Type == token.COMMA {
			p.advance()
		}
	}
	p.advance() // )
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.FnDecl{Name: name, Params: params, Body: body, Pos: pos}, nil
}

// ---- Body items ----

func (p *Parser) parseBodyItem() (ast.BodyItem, error) {
	switch p.cur.Type {
	case token.LET:
		return p.parseLetItem()
	case token.WHEN:
		return p.parseWhenItem()
	case token.FOR:
		return p.parseForItem()
	case token.ASSERT:
		return p.parseAssertItem()
	case token.SPREAD:
		return p.parseSpreadItem()
	default:
		return p.parseKeyValueOrBlock()
	}
}

func (p *Parser) parseLetItem() (*ast.LetItem, error) {
	pos := p.pos()
	p.advance() // let
	name, err := p.expectIdentLike()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetItem{Name: name, Value: val, Pos: pos}, nil
}

func (p *Parser) parseSpreadItem() (*ast.SpreadItem, error) {
	pos := p.pos()
	p.advance() // ...
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.SpreadItem{Value: val, Pos: pos}, nil
}

func (p *Parser) parseWhenItem() (*ast.WhenItem, error) {
	pos := p.pos()
	item := &ast.WhenItem{Pos: pos}
	for {
		p.advance() // when / else-when's "when"
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBraceBody()
		if err != nil {
			return nil, err
		}
		item.Branches = append(item.Branches, ast.WhenBranch{Condition: cond, Body: body})
		if p.cur.Type != token.ELSE {
			break
		}
		if p.peek.Type == token.WHEN {
			p.advance() // else
			continue
		}
		p.advance() // else
		body, err = p.parseBraceBody()
		if err != nil {
			return nil, err
		}
		item.Branches = append(item.Branches, ast.WhenBranch{Condition: nil, Body: body})
		break
	}
	return item, nil
}

func (p *Parser) parseBraceBody() ([]ast.BodyItem, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	var items []ast.BodyItem
	for p.cur.Type != token.RBRACE {
		item, err := p.parseBodyItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipNewlines()
	}
	p.advance() // }
	return items, nil
}

func (p *Parser) parseForItem() (*ast.ForItem, error) {
	pos := p.pos()
	p.advance() // for
	item := &ast.ForItem{Pos: pos}
	if p.cur.Type == token.LPAREN {
		p.advance()
		k, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COMMA); err != nil {
			return nil, err
		}
		v, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		item.KeyVar, item.ValueVar = k, v
	} else {
		v, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		item.ValueVar = v
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	item.Iter = iter

	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	for p.cur.Type != token.RBRACE {
		if p.startsExprOnly() {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			item.Trailing = expr
			p.skipNewlines()
			continue
		}
		bi, err := p.parseBodyItem()
		if err != nil {
			return nil, err
		}
		item.Items = append(item.Items, bi)
		p.skipNewlines()
	}
	p.advance() // }
	return item, nil
}

// startsExprOnly is a heuristic used only inside a `for` body to detect a
// trailing bare expression rather than another key-value item: true when
// the current token cannot begin a key (identifier followed by
// colon/append/replace/brace).
func (p *Parser) startsExprOnly() bool {
	if p.cur.Type == token.IDENT {
		switch p.peek.Type {
		case token.COLON, token.APPEND, token.REPLACE, token.LBRACE:
			return false
		}
		return true
	}
	switch p.cur.Type {
	case token.LET, token.WHEN, token.FOR, token.ASSERT, token.SPREAD, token.STRING, token.LBRACKET:
		return false
	}
	return true
}

func (p *Parser) parseAssertItem() (*ast.AssertItem, error) {
	pos := p.pos()
	p.advance() // assert
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	item := &ast.AssertItem{Condition: cond, Pos: pos}
	if p.cur.Type == token.COLON {
		p.advance()
		msg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item.Message = msg
	}
	return item, nil
}

func (p *Parser) parseKeyValueOrBlock() (ast.BodyItem, error) {
	pos := p.pos()
	key, err := p.parseKey()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == token.LBRACE {
		items, err := p.parseBraceBody()
		if err != nil {
			return nil, err
		}
		return &ast.BlockItem{Name: key, Items: items, Pos: pos}, nil
	}
	op := ast.OpNormal
	switch p.cur.Type {
	case token.COLON:
		op = ast.OpNormal
	case token.APPEND:
		op = ast.OpAppend
	case token.REPLACE:
		op = ast.OpReplace
	default:
		return nil, p.unexpected("':' , '+:' , '!:' or '{'")
	}
	p.advance()
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.KeyValueItem{Key: key, Op: op, Value: val, Pos: pos}, nil
}

func (p *Parser) parseKey() (ast.Key, error) {
	pos := p.pos()
	switch p.cur.Type {
	case token.LBRACKET:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return ast.Key{}, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return ast.Key{}, err
		}
		return ast.Key{Computed: expr, Pos: pos}, nil
	case token.STRING:
		lit := &ast.StringLit{Value: p.cur.Literal, Pos: pos}
		p.advance()
		return ast.Key{Literal: lit, Pos: pos}, nil
	case token.STRING_START:
		expr, err := p.parseInterpString()
		if err != nil {
			return ast.Key{}, err
		}
		return ast.Key{Literal: expr, Pos: pos}, nil
	case token.IDENT:
		name := p.cur.Literal
		p.advance()
		return ast.Key{Ident: name, Pos: pos}, nil
	default:
		if token.IsReserved(p.cur.Type) {
			return ast.Key{}, p.errorf(p.cur, "%q is a reserved word and cannot be used as a bare key; quote it instead", p.cur.Literal).
				WithCode("E_RESERVED_WORD_AS_KEY").
				WithHelp(fmt.Sprintf(`use "%s": ... instead`, p.cur.Literal))
		}
		return ast.Key{}, p.unexpected("key")
	}
}

// ---- Expressions (spec.md §4.2 precedence ladder) ----

func (p *Parser) parseExpr() (ast.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseConditional()
}

func (p *Parser) parseConditional() (ast.Expr, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == token.QUESTION {
		pos := p.pos()
		p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.CondExpr{Cond: cond, Then: then, Else: els, Pos: pos}, nil
	}
	return cond, nil
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.OR {
		pos := p.pos()
		p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: token.OR, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.AND {
		pos := p.pos()
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: token.AND, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.EQ || p.cur.Type == token.NEQ {
		op := p.cur.Type
		pos := p.pos()
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.LT || p.cur.Type == token.LE || p.cur.Type == token.GT || p.cur.Type == token.GE {
		op := p.cur.Type
		pos := p.pos()
		p.advance()
		right, err := p.parseCoalesce()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseCoalesce() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.COALESCE {
		pos := p.pos()
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: token.COALESCE, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PLUS || p.cur.Type == token.MINUS {
		op := p.cur.Type
		pos := p.pos()
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.STAR || p.cur.Type == token.SLASH || p.cur.Type == token.PERCENT {
		op := p.cur.Type
		pos := p.pos()
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Type == token.BANG || p.cur.Type == token.MINUS {
		op := p.cur.Type
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, Operand: operand, Pos: pos}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case token.LPAREN:
			pos := p.pos()
			p.advance()
			var args []ast.Expr
			for p.cur.Type != token.RPAREN {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur.Type == token.COMMA {
					p.advance()
				}
			}
			p.advance() // )
			expr = &ast.CallExpr{Callee: expr, Args: args, Pos: pos}
		case token.LBRACKET:
			pos := p.pos()
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Target: expr, Index: idx, Pos: pos}
		case token.DOT:
			pos := p.pos()
			p.advance()
			name, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{Target: expr, Name: name, Pos: pos}
		case token.AT:
			pos := p.pos()
			p.advance()
			name, err := p.expectIdentLike()
			if err != nil {
				return nil, err
			}
			ann := &ast.AnnotatedExpr{Target: expr, Annotation: name, Pos: pos}
			if p.cur.Type == token.LPAREN {
				p.advance()
				for p.cur.Type != token.RPAREN {
					arg, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					ann.Args = append(ann.Args, arg)
					if p.cur.Type == token.COMMA {
						p.advance()
					}
				}
				p.advance()
			}
			expr = ann
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	pos := p.pos()
	switch p.cur.Type {
	case token.NULL:
		p.advance()
		return &ast.NullLit{Pos: pos}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Value: true, Pos: pos}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Value: false, Pos: pos}, nil
	case token.INT:
		lit := p.cur.Literal
		p.advance()
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, p.errorf(p.cur, "invalid integer literal %q", lit)
		}
		return &ast.IntLit{Value: n, Pos: pos}, nil
	case token.FLOAT:
		lit := p.cur.Literal
		p.advance()
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, p.errorf(p.cur, "invalid float literal %q", lit)
		}
		return &ast.FloatLit{Value: f, Pos: pos}, nil
	case token.STRING:
		lit := p.cur.Literal
		p.advance()
		return &ast.StringLit{Value: lit, Pos: pos}, nil
	case token.STRING_START:
		return p.parseInterpString()
	case token.IDENT:
		name := p.cur.Literal
		p.advance()
		return &ast.Ident{Name: name, Pos: pos}, nil
	case token.LPAREN:
		p.advance()
		p.skipNewlines()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case token.LBRACKET:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseObjectLit()
	case token.WHEN:
		return p.parseWhenExpr()
	case token.FOR:
		return p.parseForExpr()
	default:
		return nil, p.unexpected("expression")
	}
}

func (p *Parser) parseInterpString() (ast.Expr, error) {
	pos := p.pos()
	lit := &ast.InterpString{Pos: pos}
	lit.Parts = append(lit.Parts, ast.InterpPart{Literal: p.cur.Literal})
	p.advance() // STRING_START
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lit.Parts = append(lit.Parts, ast.InterpPart{Expr: expr})
		switch p.cur.Type {
		case token.STRING_MIDDLE:
			lit.Parts = append(lit.Parts, ast.InterpPart{Literal: p.cur.Literal})
			p.advance()
			continue
		case token.STRING_END:
			lit.Parts = append(lit.Parts, ast.InterpPart{Literal: p.cur.Literal})
			p.advance()
			return lit, nil
		default:
			return nil, p.unexpected("interpolation continuation")
		}
	}
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	pos := p.pos()
	p.advance() // [
	p.skipNewlines()
	lit := &ast.ArrayLit{Pos: pos}
	for p.cur.Type != token.RBRACKET {
		var item ast.Expr
		var err error
		if p.cur.Type == token.SPREAD {
			spos := p.pos()
			p.advance()
			val, err2 := p.parseExpr()
			if err2 != nil {
				return nil, err2
			}
			item = &ast.SpreadExpr{Value: val, Pos: spos}
		} else {
			item, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		lit.Items = append(lit.Items, item)
		p.skipNewlines()
		if p.cur.Type == token.COMMA {
			p.advance()
			p.skipNewlines()
		}
	}
	p.advance() // ]
	return lit, nil
}

func (p *Parser) parseObjectLit() (ast.Expr, error) {
	pos := p.pos()
	p.advance() // {
	p.skipNewlines()
	lit := &ast.ObjectLit{Pos: pos}
	for p.cur.Type != token.RBRACE {
		entryPos := p.pos()
		if p.cur.Type == token.SPREAD {
			p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			lit.Entries = append(lit.Entries, ast.ObjectEntry{Value: &ast.SpreadExpr{Value: val, Pos: entryPos}, Pos: entryPos})
		} else {
			key, err := p.parseKey()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.COLON); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			lit.Entries = append(lit.Entries, ast.ObjectEntry{Key: key, Value: val, Pos: entryPos})
		}
		p.skipNewlines()
		if p.cur.Type == token.COMMA {
			p.advance()
			p.skipNewlines()
		}
	}
	p.advance() // }
	return lit, nil
}

func (p *Parser) parseWhenExpr() (ast.Expr, error) {
	pos := p.pos()
	expr := &ast.WhenExpr{Pos: pos}
	for {
		p.advance() // when / when after else
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.LBRACE); err != nil {
			return nil, err
		}
		p.skipNewlines()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
		expr.Branches = append(expr.Branches, ast.WhenBranchExpr{Condition: cond, Value: val})
		if p.cur.Type != token.ELSE {
			break
		}
		if p.peek.Type == token.WHEN {
			p.advance()
			continue
		}
		p.advance() // else
		if _, err := p.expect(token.LBRACE); err != nil {
			return nil, err
		}
		p.skipNewlines()
		val, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
		expr.Branches = append(expr.Branches, ast.WhenBranchExpr{Condition: nil, Value: val})
		break
	}
	return expr, nil
}

func (p *Parser) parseForExpr() (ast.Expr, error) {
	pos := p.pos()
	p.advance() // for
	expr := &ast.ForExpr{Pos: pos}
	if p.cur.Type == token.LPAREN {
		p.advance()
		k, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COMMA); err != nil {
			return nil, err
		}
		v, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		expr.KeyVar, expr.ValueVar = k, v
	} else {
		v, err := p.expectIdentLike()
		if err != nil {
			return nil, err
		}
		expr.ValueVar = v
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	expr.Iter = iter
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	p.skipNewlines()
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	expr.Body = body
	p.skipNewlines()
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return expr, nil
}
