// Package lexer turns Hone source text into a token stream. It follows the
// teacher lexer's "Go scanner" shape (runtime/lexer/v2/lexer.go: []byte
// input, Init/NewLexer split, line/column tracking) and adds the
// string-interpolation reentry protocol from spec.md §4.1: a per-open-
// interpolation brace-depth stack plus a parallel triple-quote stack so a
// nested `{`/`}` inside `${ ... }` never prematurely closes the string.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/honelang/hone/internal/diag"
	"github.com/honelang/hone/internal/token"
)

// Comment is a single comment lexed out of the token stream and preserved
// for the formatter, which consumes them in original-line order.
type Comment struct {
	Text  string
	Block bool
	Line  int
}

type interpFrame struct {
	braceDepth int
	triple     bool
	quote      byte // '\'' or '"'
}

// Lexer streams tokens from a Hone source blob.
type Lexer struct {
	input    []byte
	filename string
	pos      int
	line     int
	col      int

	comments []Comment

	interpStack []interpFrame
	// pendingQuote, when non-empty, tells NextToken it is mid-string and
	// should resume scanning string body instead of tokenizing code.
	pendingQuote byte
	pendingTriple bool

	lastWasNewline bool
}

// New constructs a Lexer over src. filename is used only for diagnostics.
func New(src, filename string) *Lexer {
	return &Lexer{
		input:    []byte(src),
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Comments returns every comment collected during lexing, in source order.
func (l *Lexer) Comments() []Comment { return l.comments }

func (l *Lexer) atEnd() bool { return l.pos >= len(l.input) }

func (l *Lexer) peekByte() byte {
	if l.atEnd() {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func (l *Lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) pos2() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) errorf(startLine, startCol, startOff, length int, kind diag.Kind, msg string) *diag.Error {
	return diag.New(kind, diag.Span{
		File: l.filename, Line: startLine, Column: startCol, Offset: startOff, Length: length,
	}, string(l.input), msg)
}

// NextToken returns the next token in the stream, or an EOF token at the
// end of input, or a *diag.Error wrapped as an error.
func (l *Lexer) NextToken() (token.Token, error) {
	if l.pendingQuote != 0 {
		return l.resumeString()
	}

	l.skipWhitespaceAndComments()

	if l.atEnd() {
		return token.Token{Type: token.EOF, Pos: l.pos2()}, nil
	}

	startLine, startCol, startOff := l.line, l.col, l.pos
	ch := l.peekByte()

	switch {
	case ch == '\n':
		l.advance()
		if l.lastWasNewline {
			return l.NextToken()
		}
		l.lastWasNewline = true
		return token.Token{Type: token.NEWLINE, Literal: "\n", Pos: token.Position{Line: startLine, Column: startCol, Offset: startOff}, Length: 1}, nil
	case ch == '\r':
		l.advance()
		return l.NextToken()
	case ch == '"' || ch == '\'':
		return l.lexStringStart()
	case isDigit(ch) || (ch == '-' && isDigit(l.peekByteAt(1)) && l.numberContext()):
		return l.lexNumber()
	case isIdentStart(ch):
		return l.lexIdentOrKeyword()
	}

	l.lastWasNewline = false

	// Multi-char punctuation, longest match first.
	three := l.peekString(3)
	if three == "..." {
		l.advanceN(3)
		return l.tok(token.SPREAD, "...", startLine, startCol, startOff), nil
	}
	if three == `"""` || three == "'''" {
		return l.lexTripleStart()
	}

	two := l.peekString(2)
	switch two {
	case "==":
		l.advanceN(2)
		return l.tok(token.EQ, "==", startLine, startCol, startOff), nil
	case "!=":
		l.advanceN(2)
		return l.tok(token.NEQ, "!=", startLine, startCol, startOff), nil
	case "<=":
		l.advanceN(2)
		return l.tok(token.LE, "<=", startLine, startCol, startOff), nil
	case ">=":
		l.advanceN(2)
		return l.tok(token.GE, ">=", startLine, startCol, startOff), nil
	case "&&":
		l.advanceN(2)
		return l.tok(token.AND, "&&", startLine, startCol, startOff), nil
	case "||":
		l.advanceN(2)
		return l.tok(token.OR, "||", startLine, startCol, startOff), nil
	case "??":
		l.advanceN(2)
		return l.tok(token.COALESCE, "??", startLine, startCol, startOff), nil
	case "?:":
		l.advanceN(2)
		return l.tok(token.ELVIS, "?:", startLine, startCol, startOff), nil
	case "+:":
		l.advanceN(2)
		return l.tok(token.APPEND, "+:", startLine, startCol, startOff), nil
	case "!:":
		l.advanceN(2)
		return l.tok(token.REPLACE, "!:", startLine, startCol, startOff), nil
	case "--":
		if l.peekByteAt(2) == '-' {
			l.advanceN(3)
			return l.tok(token.DOC_SEPARATOR, "---", startLine, startCol, startOff), nil
		}
	}

	l.advance()
	switch ch {
	case '{':
		if len(l.interpStack) > 0 {
			l.interpStack[len(l.interpStack)-1].braceDepth++
		}
		return l.tok(token.LBRACE, "{", startLine, startCol, startOff), nil
	case '}':
		if n := len(l.interpStack); n > 0 && l.interpStack[n-1].braceDepth == 0 {
			// Closes the interpolation expression; re-enter string scanning.
			frame := l.interpStack[n-1]
			l.interpStack = l.interpStack[:n-1]
			l.pendingQuote = frame.quote
			l.pendingTriple = frame.triple
			return l.resumeString()
		} else if n > 0 {
			l.interpStack[n-1].braceDepth--
		}
		return l.tok(token.RBRACE, "}", startLine, startCol, startOff), nil
	case '[':
		return l.tok(token.LBRACKET, "[", startLine, startCol, startOff), nil
	case ']':
		return l.tok(token.RBRACKET, "]", startLine, startCol, startOff), nil
	case '(':
		return l.tok(token.LPAREN, "(", startLine, startCol, startOff), nil
	case ')':
		return l.tok(token.RPAREN, ")", startLine, startCol, startOff), nil
	case ':':
		return l.tok(token.COLON, ":", startLine, startCol, startOff), nil
	case ',':
		return l.tok(token.COMMA, ",", startLine, startCol, startOff), nil
	case '.':
		return l.tok(token.DOT, ".", startLine, startCol, startOff), nil
	case '@':
		return l.tok(token.AT, "@", startLine, startCol, startOff), nil
	case '?':
		return l.tok(token.QUESTION, "?", startLine, startCol, startOff), nil
	case '|':
		return l.tok(token.PIPE, "|", startLine, startCol, startOff), nil
	case '&':
		return l.tok(token.AMP, "&", startLine, startCol, startOff), nil
	case '+':
		return l.tok(token.PLUS, "+", startLine, startCol, startOff), nil
	case '-':
		return l.tok(token.MINUS, "-", startLine, startCol, startOff), nil
	case '*':
		return l.tok(token.STAR, "*", startLine, startCol, startOff), nil
	case '/':
		return l.tok(token.SLASH, "/", startLine, startCol, startOff), nil
	case '%':
		return l.tok(token.PERCENT, "%", startLine, startCol, startOff), nil
	case '!':
		return l.tok(token.BANG, "!", startLine, startCol, startOff), nil
	case '<':
		return l.tok(token.LT, "<", startLine, startCol, startOff), nil
	case '>':
		return l.tok(token.GT, ">", startLine, startCol, startOff), nil
	case '=':
		return l.tok(token.ASSIGN, "=", startLine, startCol, startOff), nil
	}

	return token.Token{}, l.errorf(startLine, startCol, startOff, 1, diag.KindLexical,
		fmt.Sprintf("unexpected character %q", ch))
}

func (l *Lexer) tok(t token.Type, lit string, line, col, off int) token.Token {
	return token.Token{Type: t, Literal: lit, Pos: token.Position{Line: line, Column: col, Offset: off}, Length: l.pos - off}
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) peekString(n int) string {
	end := l.pos + n
	if end > len(l.input) {
		end = len(l.input)
	}
	return string(l.input[l.pos:end])
}

// numberContext reports whether a leading '-' starts a negative numeric
// literal rather than a binary minus. It always reports false, so no
// numeric literal token ever carries a sign.
func (l *Lexer) numberContext() bool {
	return false // kept conservative: '-' is always tokenized as MINUS, and
	// the parser's unary-minus rule (spec.md §4.2 precedence) builds the
	// negative literal at parse time. See evaluator unary handling.
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.peekByte() == ' ' || l.peekByte() == '\t':
			l.advance()
		case l.peekByte() == '#':
			line := l.line
			start := l.pos
			for !l.atEnd() && l.peekByte() != '\n' {
				l.advance()
			}
			l.comments = append(l.comments, Comment{Text: string(l.input[start:l.pos]), Line: line})
		case l.peekString(2) == "/*":
			l.lexBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) lexBlockComment() {
	line := l.line
	start := l.pos
	l.advanceN(2)
	depth := 1
	for !l.atEnd() && depth > 0 {
		if l.peekString(2) == "/*" {
			depth++
			l.advanceN(2)
			continue
		}
		if l.peekString(2) == "*/" {
			depth--
			l.advanceN(2)
			continue
		}
		l.advance()
	}
	l.comments = append(l.comments, Comment{Text: string(l.input[start:l.pos]), Block: true, Line: line})
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b) || b == '-'
}

func (l *Lexer) lexIdentOrKeyword() (token.Token, error) {
	l.lastWasNewline = false
	startLine, startCol, startOff := l.line, l.col, l.pos
	for !l.atEnd() && isIdentPart(l.peekByte()) {
		l.advance()
	}
	lit := string(l.input[startOff:l.pos])
	switch lit {
	case "true":
		return l.tok(token.TRUE, lit, startLine, startCol, startOff), nil
	case "false":
		return l.tok(token.FALSE, lit, startLine, startCol, startOff), nil
	case "null":
		return l.tok(token.NULL, lit, startLine, startCol, startOff), nil
	}
	return l.tok(token.LookupIdent(lit), lit, startLine, startCol, startOff), nil
}

func (l *Lexer) lexNumber() (token.Token, error) {
	l.lastWasNewline = false
	startLine, startCol, startOff := l.line, l.col, l.pos
	isFloat := false
	for !l.atEnd() && isDigit(l.peekByte()) {
		l.advance()
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.advance()
		for !l.atEnd() && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance()
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.advance()
		}
		if isDigit(l.peekByte()) {
			isFloat = true
			for !l.atEnd() && isDigit(l.peekByte()) {
				l.advance()
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}
	lit := string(l.input[startOff:l.pos])
	t := token.INT
	if isFloat {
		t = token.FLOAT
	}
	return l.tok(t, lit, startLine, startCol, startOff), nil
}

// --- string literals & interpolation reentry ---

func (l *Lexer) lexStringStart() (token.Token, error) {
	quote := l.advance()
	return l.scanStringBody(quote, false, true)
}

func (l *Lexer) lexTripleStart() (token.Token, error) {
	quote := l.peekByte()
	l.advanceN(3)
	return l.scanStringBody(quote, true, true)
}

func (l *Lexer) resumeString() (token.Token, error) {
	quote := l.pendingQuote
	triple := l.pendingTriple
	l.pendingQuote = 0
	return l.scanStringBody(quote, triple, false)
}

// scanStringBody scans raw string text until an unescaped closing quote or
// an interpolation opener `${`. opening is true the first time (emits a
// plain STRING or STRING_START); false on reentry after a `}` closed an
// embedded expression (emits STRING_MIDDLE or STRING_END).
func (l *Lexer) scanStringBody(quote byte, triple, opening bool) (token.Token, error) {
	startLine, startCol, startOff := l.line, l.col, l.pos
	var sb strings.Builder
	for {
		if l.atEnd() {
			return token.Token{}, l.errorf(startLine, startCol, startOff, l.pos-startOff, diag.KindLexical, "unterminated string literal")
		}
		if triple && l.peekString(3) == string(quote)+string(quote)+string(quote) {
			l.advanceN(3)
			return l.finishString(sb.String(), opening, true, startLine, startCol, startOff)
		}
		if !triple && l.peekByte() == quote {
			l.advance()
			return l.finishString(sb.String(), opening, true, startLine, startCol, startOff)
		}
		if l.peekString(2) == "${" {
			l.advanceN(2)
			l.interpStack = append(l.interpStack, interpFrame{triple: triple, quote: quote})
			return l.finishString(sb.String(), opening, false, startLine, startCol, startOff)
		}
		if l.peekByte() == '\\' && quote == '"' {
			r, err := l.readDoubleEscape()
			if err != nil {
				return token.Token{}, err
			}
			sb.WriteRune(r)
			continue
		}
		if l.peekByte() == '\\' && quote == '\'' {
			l.advance()
			switch l.peekByte() {
			case '\\':
				sb.WriteByte('\\')
				l.advance()
			case '\'':
				sb.WriteByte('\'')
				l.advance()
			default:
				sb.WriteByte('\\')
			}
			continue
		}
		r, size := utf8.DecodeRune(l.input[l.pos:])
		if r == utf8.RuneError && size == 1 {
			return token.Token{}, l.errorf(l.line, l.col, l.pos, 1, diag.KindLexical, "invalid unicode code point")
		}
		for i := 0; i < size; i++ {
			l.advance()
		}
		sb.WriteRune(r)
	}
}

func (l *Lexer) finishString(text string, opening, closed bool, startLine, startCol, startOff int) (token.Token, error) {
	l.lastWasNewline = false
	var t token.Type
	switch {
	case opening && closed:
		t = token.STRING
	case opening && !closed:
		t = token.STRING_START
	case !opening && closed:
		t = token.STRING_END
	default:
		t = token.STRING_MIDDLE
	}
	return l.tok(t, text, startLine, startCol, startOff), nil
}

func (l *Lexer) readDoubleEscape() (rune, error) {
	startLine, startCol, startOff := l.line, l.col, l.pos
	l.advance() // consume backslash
	if l.atEnd() {
		return 0, l.errorf(startLine, startCol, startOff, 1, diag.KindLexical, "unterminated escape sequence")
	}
	c := l.advance()
	switch c {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case '\\':
		return '\\', nil
	case '"':
		return '"', nil
	case '0':
		return 0, nil
	case '$':
		return '$', nil
	case '{':
		return '{', nil
	case '}':
		return '}', nil
	case 'u':
		if l.peekByte() != '{' {
			return 0, l.errorf(startLine, startCol, startOff, l.pos-startOff, diag.KindLexical, `invalid escape sequence: expected '{' after \u`)
		}
		l.advance()
		hexStart := l.pos
		for !l.atEnd() && l.peekByte() != '}' {
			l.advance()
		}
		if l.atEnd() {
			return 0, l.errorf(startLine, startCol, startOff, l.pos-startOff, diag.KindLexical, "unterminated unicode escape")
		}
		hex := string(l.input[hexStart:l.pos])
		l.advance() // consume '}'
		var code int64
		if _, err := fmt.Sscanf(hex, "%x", &code); err != nil || hex == "" {
			return 0, l.errorf(startLine, startCol, startOff, l.pos-startOff, diag.KindLexical, "invalid unicode escape sequence")
		}
		if code > utf8.MaxRune {
			return 0, l.errorf(startLine, startCol, startOff, l.pos-startOff, diag.KindLexical, "invalid unicode code point")
		}
		return rune(code), nil
	default:
		return 0, l.errorf(startLine, startCol, startOff, l.pos-startOff, diag.KindLexical, fmt.Sprintf("invalid escape sequence '\\%c'", c))
	}
}

// StripCommonIndent removes the minimum common leading indentation of
// non-blank lines from a triple-quoted string body, per spec.md §4.1. The
// opening newline (if the body starts with one) is dropped first.
func StripCommonIndent(body string) string {
	s := strings.TrimPrefix(body, "\n")
	lines := strings.Split(s, "\n")
	minIndent := -1
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		indent := len(ln) - len(strings.TrimLeft(ln, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return s
	}
	for i, ln := range lines {
		if len(ln) >= minIndent {
			lines[i] = ln[minIndent:]
		} else {
			lines[i] = strings.TrimLeft(ln, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
