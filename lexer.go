// lexer.go: whitespace-sensitive scanner for hscript source.
//
// OVERVIEW
// --------
// Produces the token stream consumed by translate.go and parser.go. Two
// whitespace-sensitive signals matter downstream:
//   - '(' is LROUND when preceded by whitespace, CLROUND otherwise; only
//     CLROUND participates in calls.
//   - '[' is LSQUARE / CLSQUARE the same way; only CLSQUARE indexes.
//
// '#' starts an annotation block (ANNOTATION token), '##' a comment.
//
// Interpolated strings are scanned structurally, not as opaque text: an
// f"..." or F"..." literal becomes the token run
//
//	FSTRBEGIN(prefix) { FSTRMID(text) | FSUBBEGIN expr… [FSTRCONV] [FSTRSPEC] FSUBEND }* FSTREND
//
// with the embedded expression tokens produced by the ordinary scanner, so
// nested quotes, nested interpolations and multi-line literals are handled by
// the lexer itself rather than by any later text rewriting. h"..." scans as a
// plain STRING whose Lexeme keeps the prefix; translate.go keys off that.
package hscript

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LROUND   // "(" when preceded by whitespace
	CLROUND  // "(" when not preceded by whitespace (call-open)
	RROUND   // ")"
	LSQUARE  // "["
	CLSQUARE // "[" when not preceded by whitespace (index-open)
	RSQUARE  // "]"
	LCURLY   // "{"
	RCURLY   // "}"
	COLON    // ":"
	COMMA    // ","
	PERIOD   // "."

	// Operators
	PLUS
	MINUS
	MULT
	DIV
	MOD
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ

	// Literals & identifiers
	ID
	STRING
	INTEGER
	NUMBER
	BOOLEAN
	NULL

	// Interpolated strings
	FSTRBEGIN // start of f"/F" literal; Literal is the prefix ("f" or "F")
	FSTRMID   // literal text chunk (decoded)
	FSUBBEGIN // "{" opening a substitution
	FSUBEND   // "}" closing a substitution
	FSTRCONV  // "!x" conversion flag; Literal is the flag letter
	FSTRSPEC  // ":spec" format spec; Literal is the spec text
	FSTREND   // closing quote

	// Keywords
	AND
	OR
	NOT
	LET
	DO
	END
	RETURN
	BREAK
	CONTINUE
	IF
	THEN
	ELIF
	ELSE
	FUNCTION
	FOR
	IN
	WHILE

	// Annotation block (from lines starting with '#')
	ANNOTATION
)

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string      // raw text slice
	Literal interface{} // parsed value for literals
	Line    int
	Col     int
}

// keywords map
var keywords = map[string]TokenType{
	"null":     NULL,
	"false":    BOOLEAN,
	"true":     BOOLEAN,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"let":      LET,
	"do":       DO,
	"end":      END,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"if":       IF,
	"then":     THEN,
	"elif":     ELIF,
	"else":     ELSE,
	"fun":      FUNCTION,
	"for":      FOR,
	"in":       IN,
	"while":    WHILE,
}

// Lexer scans an hscript source string into tokens.
type Lexer struct {
	src              string
	start            int // start index of current token
	cur              int // current index
	line             int // 1-based
	col              int // 0-based column within line
	tokens           []Token
	whitespaceBefore bool

	// precise token start position
	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:  src,
		line: 1,
		col:  0,
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) rewindToStart() {
	// Rewind only within the current token; line/col stay put for error arrows
	// (OK since tokStartLine/Col were recorded before scanning).
	l.cur = l.start
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) Token {
	lex := l.src[l.start:l.cur]
	tok := Token{
		Type:    tt,
		Lexeme:  lex,
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	l.whitespaceBefore = false
	return tok
}

func (l *Lexer) previousToken() *Token {
	if len(l.tokens) == 0 {
		return nil
	}
	return &l.tokens[len(l.tokens)-1]
}

func (l *Lexer) skipWhitespace() {
	l.whitespaceBefore = false
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\r', '\n', '\t':
			l.whitespaceBefore = true
			l.advance()
			l.start = l.cur
		default:
			return
		}
	}
}

// helpers

func canBeLeftOperand(t TokenType) bool {
	switch t {
	case ID, STRING, INTEGER, NUMBER, BOOLEAN, NULL,
		RROUND, RSQUARE, RCURLY, FSTREND:
		return true
	default:
		return false
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

func (l *Lexer) afterDotIsProperty() bool {
	p := l.previousToken()
	return p != nil && p.Type == PERIOD
}

// ----- errors -----

type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LEXICAL ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.line, Col: l.col, Msg: msg}
}

// ----- scanners -----

// scanString parses a string literal (single or double quotes) with the usual
// backslash escapes.
func (l *Lexer) scanString() (string, error) {
	del, ok := l.peek()
	if !ok || (del != '"' && del != '\'') {
		return "", l.err("internal: scanString without quote")
	}
	// consume the delimiter
	l.advance()

	var out []rune
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == del {
			return string(out), nil
		}
		if ch == '\\' {
			r, err := l.scanEscape()
			if err != nil {
				return "", err
			}
			out = append(out, r)
			continue
		}
		r, err := l.decodeByte(ch)
		if err != nil {
			return "", err
		}
		out = append(out, r)
	}
	return "", l.err("string was not terminated")
}

// scanEscape consumes one escape sequence body (the backslash is already
// consumed) and returns the decoded rune.
func (l *Lexer) scanEscape() (rune, error) {
	if l.isAtEnd() {
		return 0, l.err("unfinished escape sequence")
	}
	esc, _ := l.advance()
	switch esc {
	case '"':
		return '"', nil
	case '\'':
		return '\'', nil
	case '\\':
		return '\\', nil
	case '/':
		return '/', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'u':
		var hex string
		for i := 0; i < 4; i++ {
			b, ok := l.peek()
			if !ok || !isHexDigit(b) {
				return 0, l.err("unicode escape was not terminated (expect 4 hex digits)")
			}
			hex += string(b)
			l.advance()
		}
		v, err := strconv.ParseInt(hex, 16, 32)
		if err != nil {
			return 0, l.err("invalid unicode escape")
		}
		return rune(v), nil
	default:
		return 0, l.err(fmt.Sprintf("invalid escape sequence: \\%c", esc))
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// decodeByte turns the already-consumed byte ch into a rune, stepping back to
// decode a full UTF-8 sequence when ch is not ASCII.
func (l *Lexer) decodeByte(ch byte) (rune, error) {
	if ch < utf8.RuneSelf {
		return rune(ch), nil
	}
	l.cur-- // step back 1 byte so DecodeRuneInString reads from the right start
	r, size := utf8.DecodeRuneInString(l.src[l.cur:])
	if r == utf8.RuneError && size == 1 {
		return 0, l.err("invalid UTF-8 in source")
	}
	l.cur += size
	l.col += size - 1
	return r, nil
}

// scanIdentifier parses [A-Za-z_][A-Za-z0-9_]*
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses integer or float; supports .5, 1., 1.23e-4, etc.
func (l *Lexer) scanNumber() (tok TokenType, lit interface{}, err error) {
	sawDigits := false
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
		sawDigits = true
	}

	sawDot := false
	if b, ok := l.peek(); ok && b == '.' {
		if sawDigits {
			l.advance()
			sawDot = true
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		} else if b2, ok2 := l.peekN(1); ok2 && isDigit(b2) {
			l.advance()
			sawDot = true
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
			sawDigits = true
		}
	}

	sawExp := false
	if b, ok := l.peek(); ok && (b == 'e' || b == 'E') {
		save := l.cur
		l.advance()
		if b2, ok := l.peek(); ok && (b2 == '+' || b2 == '-') {
			l.advance()
		}
		if b3, ok := l.peek(); ok && isDigit(b3) {
			sawExp = true
			for {
				b4, ok := l.peek()
				if !ok || !isDigit(b4) {
					break
				}
				l.advance()
			}
		} else {
			l.cur = save
		}
	}

	if !sawDigits {
		return ILLEGAL, nil, l.err("malformed number")
	}

	lex := l.src[l.start:l.cur]
	if !sawDot && !sawExp {
		v, convErr := strconv.ParseInt(lex, 10, 64)
		if convErr != nil {
			return ILLEGAL, nil, l.err("invalid integer literal")
		}
		return INTEGER, v, nil
	}
	vf, convErr := strconv.ParseFloat(lex, 64)
	if convErr != nil {
		return ILLEGAL, nil, l.err("invalid float literal")
	}
	return NUMBER, vf, nil
}

// ignoreUntilNewline eats until '\n' or EOF.
func (l *Lexer) ignoreUntilNewline() {
	for {
		b, ok := l.peek()
		if !ok || b == '\n' {
			return
		}
		l.advance()
	}
}

// scanAnnotation captures consecutive lines that start with '#' (ignoring
// leading spaces). Terminates on a blank line or a line that does not begin
// (after spaces) with '#'.
func (l *Lexer) scanAnnotation() (string, error) {
	var bldr strings.Builder

	consumeHashOnLine := func() bool {
		for {
			b, ok := l.peek()
			if !ok || b == '\n' {
				break
			}
			if b == ' ' || b == '\t' || b == '\r' {
				l.advance()
				continue
			}
			break
		}
		b, ok := l.peek()
		if !ok || b != '#' {
			return false
		}
		l.advance() // consume '#'
		if b2, ok2 := l.peek(); ok2 && (b2 == ' ' || b2 == '\t') {
			l.advance()
		}
		return true
	}

	// Called with the first '#' already consumed; trim one optional space.
	if b, ok := l.peek(); ok && (b == ' ' || b == '\t') {
		l.advance()
	}

	captureLine := func() {
		for {
			b, ok := l.peek()
			if !ok || b == '\n' {
				if ok {
					l.advance()
				}
				bldr.WriteByte('\n')
				return
			}
			bldr.WriteByte(b)
			l.advance()
		}
	}
	captureLine()

	for {
		save := l.cur
		if !consumeHashOnLine() {
			l.cur = save
			break
		}
		captureLine()
	}

	s := bldr.String()
	if len(s) == 0 {
		return "", errors.New("incomplete annotation")
	}
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s, nil
}

// scanInlineParens reads everything between a '(' and the matching ')'.
// No nesting; runs across newlines; errors at EOF before ')'.
func (l *Lexer) scanInlineParens() (string, error) {
	if b, ok := l.peek(); !ok || b != '(' {
		return "", l.err("internal: expected '(' after inline opener")
	}
	l.advance()

	var bldr strings.Builder
	for {
		b, ok := l.peek()
		if !ok {
			return "", l.err("inline block was not terminated with ')'")
		}
		if b == ')' {
			l.advance()
			break
		}
		bldr.WriteByte(b)
		l.advance()
	}
	return bldr.String(), nil
}

// --- hash/comment helpers ---

// handleDoubleHash processes '##' comments. When handled, the content is
// ignored and start is advanced.
func (l *Lexer) handleDoubleHash() (bool, error) {
	b1, ok := l.peek()
	if !ok || b1 != '#' {
		return false, nil
	}
	l.advance() // second '#'

	// Inline comment: ##( ... ) → ignore entirely
	if b2, ok2 := l.peek(); ok2 && b2 == '(' {
		if _, err := l.scanInlineParens(); err != nil {
			return true, err
		}
		l.start = l.cur
		return true, nil
	}

	// Line comment: ## ... \n → ignore until newline
	l.ignoreUntilNewline()
	l.start = l.cur
	return true, nil
}

// handleSingleHash processes '#' annotations (inline or multiline).
func (l *Lexer) handleSingleHash() (string, error) {
	if b1, ok := l.peek(); ok && b1 == '(' {
		return l.scanInlineParens()
	}
	annot, err := l.scanAnnotation()
	if err != nil {
		return "", l.err("incomplete annotation")
	}
	return annot, nil
}

// --- interpolated strings ---

// stringPrefix reports whether an identifier lexeme immediately followed by a
// quote is a recognized string prefix, and whether it is the interpolated kind.
func stringPrefix(lex string) (interp bool, ok bool) {
	switch lex {
	case "h":
		return false, true
	case "f", "F":
		return true, true
	default:
		return false, false
	}
}

// scanFStringChunk reads literal text up to the closing quote or an
// interpolation brace. stop is del (closing quote) or '{'.
func (l *Lexer) scanFStringChunk(del byte) (text string, stop byte, err error) {
	var out []rune
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case del:
			l.advance()
			return string(out), del, nil
		case '\\':
			l.advance()
			r, e := l.scanEscape()
			if e != nil {
				return "", 0, e
			}
			out = append(out, r)
		case '{':
			if b, ok := l.peekN(1); ok && b == '{' {
				l.advance()
				l.advance()
				out = append(out, '{')
				continue
			}
			l.advance()
			return string(out), '{', nil
		case '}':
			if b, ok := l.peekN(1); ok && b == '}' {
				l.advance()
				l.advance()
				out = append(out, '}')
				continue
			}
			return "", 0, l.err("single '}' is not allowed in interpolated string text")
		default:
			l.advance()
			r, e := l.decodeByte(ch)
			if e != nil {
				return "", 0, e
			}
			out = append(out, r)
		}
	}
	return "", 0, l.err("interpolated string was not terminated")
}

// scanFString scans a complete f"/F" literal. The prefix has been consumed as
// an identifier and l.start still points at it. Emits the FSTR token run.
func (l *Lexer) scanFString(prefix string) error {
	l.advance() // consume the opening quote
	del := l.src[l.cur-1]
	l.addToken(FSTRBEGIN, prefix)

	for {
		l.tokStartLine, l.tokStartCol = l.line, l.col
		l.start = l.cur
		text, stop, err := l.scanFStringChunk(del)
		if err != nil {
			return err
		}
		if text != "" {
			l.addToken(FSTRMID, text)
		}
		if stop == del {
			l.tokStartLine, l.tokStartCol = l.line, l.col
			l.start = l.cur
			l.addToken(FSTREND, nil)
			return nil
		}
		// substitution: '{' already consumed
		l.tokStartLine, l.tokStartCol = l.line, l.col
		l.start = l.cur
		l.addToken(FSUBBEGIN, "{")
		if err := l.scanSubstitution(); err != nil {
			return err
		}
	}
}

// scanSubstitution scans the expression tokens of one {…} part, plus the
// optional !conversion and :format-spec suffixes, through the closing brace.
func (l *Lexer) scanSubstitution() error {
	depth := 0
	for {
		l.skipWhitespace()
		if l.isAtEnd() {
			return l.err("substitution was not terminated with '}'")
		}
		b, _ := l.peek()
		if depth == 0 {
			switch b {
			case '}':
				l.tokStartLine, l.tokStartCol = l.line, l.col
				l.start = l.cur
				l.advance()
				l.addToken(FSUBEND, "}")
				return nil
			case '!':
				// '!=' belongs to the expression; a lone '!x' is a conversion
				if b2, ok := l.peekN(1); ok && b2 != '=' {
					l.tokStartLine, l.tokStartCol = l.line, l.col
					l.start = l.cur
					l.advance() // '!'
					c, ok := l.peek()
					if !ok || !isAlpha(c) {
						return l.err("expected conversion letter after '!'")
					}
					l.advance()
					l.addToken(FSTRCONV, string(c))
					continue
				}
			case ':':
				l.tokStartLine, l.tokStartCol = l.line, l.col
				l.start = l.cur
				l.advance() // ':'
				var spec []byte
				for {
					sb, ok := l.peek()
					if !ok {
						return l.err("format spec was not terminated with '}'")
					}
					if sb == '}' {
						break
					}
					spec = append(spec, sb)
					l.advance()
				}
				l.addToken(FSTRSPEC, string(spec))
				continue
			}
		}
		tok, err := l.scanToken()
		if err != nil {
			return err
		}
		switch tok.Type {
		case LROUND, CLROUND, LSQUARE, CLSQUARE, LCURLY:
			depth++
		case RROUND, RSQUARE, RCURLY:
			depth--
			if depth < 0 {
				return l.err("unbalanced bracket in substitution")
			}
		case EOF:
			return l.err("substitution was not terminated with '}'")
		}
	}
}

// --- misc helpers ---

func (l *Lexer) dotStartsNumber() bool {
	b, ok := l.peek()
	if !ok || !isDigit(b) {
		return false
	}
	prev := l.previousToken()
	if l.whitespaceBefore || prev == nil || !canBeLeftOperand(prev.Type) {
		return true
	}
	return false
}

// ----- main scanner -----

func (l *Lexer) scanToken() (Token, error) {
	for {
		l.skipWhitespace()
		l.tokStartLine = l.line
		l.tokStartCol = l.col
		l.start = l.cur

		if l.isAtEnd() {
			return l.addToken(EOF, nil), nil
		}

		ch, _ := l.advance()

		// Single-char tokens & punctuation with whitespace-sensitive "(" and "["
		switch ch {
		case '(':
			if l.whitespaceBefore {
				return l.addToken(LROUND, "("), nil
			}
			return l.addToken(CLROUND, "("), nil
		case ')':
			return l.addToken(RROUND, ")"), nil
		case '[':
			if l.whitespaceBefore {
				return l.addToken(LSQUARE, "["), nil
			}
			return l.addToken(CLSQUARE, "["), nil
		case ']':
			return l.addToken(RSQUARE, "]"), nil
		case '{':
			return l.addToken(LCURLY, "{"), nil
		case '}':
			return l.addToken(RCURLY, "}"), nil
		case '+':
			return l.addToken(PLUS, "+"), nil
		case '*':
			return l.addToken(MULT, "*"), nil
		case '/':
			return l.addToken(DIV, "/"), nil
		case '%':
			return l.addToken(MOD, "%"), nil
		case ':':
			return l.addToken(COLON, ":"), nil
		case ',':
			return l.addToken(COMMA, ","), nil
		case '-':
			return l.addToken(MINUS, "-"), nil
		}

		// '.' : either decimal-starting float or PERIOD
		if ch == '.' {
			if l.dotStartsNumber() {
				l.rewindToStart()
				tt, lit, err := l.scanNumber()
				if err != nil {
					return Token{}, err
				}
				return l.addToken(tt, lit), nil
			}
			return l.addToken(PERIOD, "."), nil
		}

		// Two-char operators and fallbacks
		switch ch {
		case '=':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(EQ, "=="), nil
			}
			return l.addToken(ASSIGN, "="), nil
		case '!':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(NEQ, "!="), nil
			}
			return Token{}, l.err("unexpected character: '!'")
		case '<':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(LESS_EQ, "<="), nil
			}
			return l.addToken(LESS, "<"), nil
		case '>':
			if b, ok := l.peek(); ok && b == '=' {
				l.advance()
				return l.addToken(GREATER_EQ, ">="), nil
			}
			return l.addToken(GREATER, ">"), nil
		}

		// Comments / Annotations
		if ch == '#' {
			if handled, err := l.handleDoubleHash(); handled || err != nil {
				if err != nil {
					return Token{}, err
				}
				continue
			}
			text, err := l.handleSingleHash()
			if err != nil {
				return Token{}, err
			}
			return l.addToken(ANNOTATION, text), nil
		}

		// Strings
		if ch == '"' || ch == '\'' {
			l.rewindToStart()
			text, err := l.scanString()
			if err != nil {
				return Token{}, err
			}
			// After '.' a quoted key becomes ID (property name)
			if l.afterDotIsProperty() {
				return l.addToken(ID, text), nil
			}
			return l.addToken(STRING, text), nil
		}

		// Numbers (starting with digit)
		if isDigit(ch) {
			l.rewindToStart()
			tt, lit, err := l.scanNumber()
			if err != nil {
				return Token{}, err
			}
			return l.addToken(tt, lit), nil
		}

		// Identifiers / Keywords / string prefixes
		if isAlpha(ch) {
			l.rewindToStart()
			lex := l.scanIdentifier()
			if b, ok := l.peek(); ok && (b == '"' || b == '\'') && !l.afterDotIsProperty() {
				if interp, pok := stringPrefix(lex); pok {
					if !interp {
						// h"...": escaped-string form; Lexeme keeps the prefix
						text, err := l.scanString()
						if err != nil {
							return Token{}, err
						}
						return l.addToken(STRING, text), nil
					}
					if err := l.scanFString(lex); err != nil {
						return Token{}, err
					}
					return l.tokens[len(l.tokens)-1], nil
				}
			}
			// After '.', treat as property name (ID)
			if l.afterDotIsProperty() {
				return l.addToken(ID, lex), nil
			}
			if tt, ok := keywords[lex]; ok {
				switch tt {
				case NULL:
					return l.addToken(NULL, nil), nil
				case BOOLEAN:
					if lex == "true" {
						return l.addToken(BOOLEAN, true), nil
					}
					return l.addToken(BOOLEAN, false), nil
				default:
					return l.addToken(tt, lex), nil
				}
			}
			return l.addToken(ID, lex), nil
		}

		return Token{}, l.err(fmt.Sprintf("unexpected character: %q", ch))
	}
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}
