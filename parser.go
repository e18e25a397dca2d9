// parser.go: Pratt parser for hscript producing compact S-expressions.
//
// OVERVIEW
// --------
// Consumes the token stream from the whitespace-sensitive lexer (usually via
// translate.go) and builds a Lisp-style S-expression AST. The grammar is
// newline-free: statement boundaries fall out of the whitespace-sensitive
// bracket tokens ('(' is only a call opener as CLROUND, '[' only an index
// opener as CLSQUARE), so expressions never continue across what a reader
// would see as two statements.
//
// Node reference (S = []any, first element is the string tag):
//
//	("block", n1, n2, ...)
//
// Literals & identifiers:
//
//	("id",   string)
//	("int",  int64)
//	("num",  float64)
//	("str",  string)               // decoded literal (may carry the h-string marker)
//	("bool", bool)
//	("null")
//
// Interpolated strings:
//
//	("fstr", part...)              // part = ("str", text) | ("fmt", expr[, ("str",conv)[, ("str",spec)]])
//
// Operators / expressions:
//
//	("unop",  op, rhs)             // "-" or "not"
//	("binop", op, lhs, rhs)        // + - * / % comparisons == != and or
//	("assign", target, value)      // "=" (right-assoc)
//	("let", ("decl", name), value)
//
// Property / call / index / collections:
//
//	("call", callee, arg1, ...)
//	("get",  obj, ("str", name))
//	("idx",  obj, indexExpr)
//	("array", e1, ...)
//	("map", ("pair", ("str", key), value)...)
//
// Functions, control, loops:
//
//	("fun", ("params", name...), bodyBlock)
//	("if", ("pair", cond1, blk1), ..., elseBlk?)
//	("while", cond, blk)
//	("for", ("decl", name), iterExpr, blk)
//	("return", value)              // value is ("null") when omitted
//	("break")
//	("continue")
//
// Annotations (the language's doc/decorator mechanism):
//
//	("annot", ("str", text), wrappedNode)
//
// An ANNOTATION token wraps the next statement's value: `# text` before
// `let f = fun…` annotates the function value; translate.go relies on this to
// turn bracket template headers into recognized decorator wrappers.
//
// DEPENDENCIES
// ------------
//   - lexer.go: tokens.
//   - errors.go: caret-snippet rendering of *ParseError by the drivers.
package hscript

import "fmt"

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// S is the AST node type: a tag string followed by children/payloads.
type S = []any

// L builds an S-expression node.
func L(tag string, parts ...any) S { return append([]any{tag}, parts...) }

// Tag returns the node tag, or "" for malformed nodes.
func Tag(n S) string {
	if len(n) == 0 {
		return ""
	}
	t, _ := n[0].(string)
	return t
}

// ParseSExpr parses a complete hscript source string (without token
// translation) and returns its AST.
func ParseSExpr(src string) (S, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-scanned (and usually translated) token stream.
func ParseTokens(toks []Token) (S, error) {
	p := &parser{toks: toks}
	return p.program()
}

// ParseError is a syntax error produced by the parser, with 1-based Line and
// 0-based Col mirroring the lexer's coordinates.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: parser
   =========================== */

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token {
	if p.pos >= len(p.toks) {
		return Token{Type: EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) next() Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) check(tt TokenType) bool { return p.peek().Type == tt }

func (p *parser) match(tt TokenType) (Token, bool) {
	if p.check(tt) {
		return p.next(), true
	}
	return Token{}, false
}

func (p *parser) expect(tt TokenType, what string) (Token, error) {
	if t, ok := p.match(tt); ok {
		return t, nil
	}
	if p.check(EOF) && tt != EOF {
		return Token{}, p.errAt(p.peek(), "unexpected end of input: expected %s", what)
	}
	return Token{}, p.errAt(p.peek(), "expected %s", what)
}

func (p *parser) errAt(tok Token, format string, args ...any) error {
	return &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

// program = block EOF
func (p *parser) program() (S, error) {
	blk, err := p.block(EOF)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EOF, "end of input"); err != nil {
		return nil, err
	}
	return blk, nil
}

// block parses statements until one of the stop token types (not consumed).
func (p *parser) block(stops ...TokenType) (S, error) {
	blk := L("block")
	for {
		t := p.peek()
		for _, s := range stops {
			if t.Type == s {
				return blk, nil
			}
		}
		if t.Type == EOF {
			return nil, p.errAt(t, "unexpected end of input in block")
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		blk = append(blk, stmt)
	}
}

func (p *parser) statement() (S, error) {
	switch p.peek().Type {
	case ANNOTATION:
		tok := p.next()
		text, _ := tok.Literal.(string)
		inner, err := p.statement()
		if err != nil {
			return nil, err
		}
		// Annotations attach to values: for a let/assign, wrap the value
		// node; otherwise wrap the statement's expression itself.
		switch Tag(inner) {
		case "let", "assign":
			inner[2] = L("annot", L("str", text), inner[2])
			return inner, nil
		default:
			return L("annot", L("str", text), inner), nil
		}
	case LET:
		return p.letStmt()
	case RETURN:
		tok := p.next()
		if _, ok := p.match(CLROUND); ok {
			if _, ok := p.match(RROUND); ok {
				return L("return", L("null")), nil
			}
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RROUND, "')' after return value"); err != nil {
				return nil, err
			}
			return L("return", v), nil
		}
		_ = tok
		return L("return", L("null")), nil
	case BREAK:
		p.next()
		return L("break"), nil
	case CONTINUE:
		p.next()
		return L("continue"), nil
	case IF:
		return p.ifStmt()
	case WHILE:
		return p.whileStmt()
	case FOR:
		return p.forStmt()
	default:
		return p.expression()
	}
}

func (p *parser) letStmt() (S, error) {
	p.next() // 'let'
	name, err := p.expect(ID, "name after 'let'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN, "'=' in let binding"); err != nil {
		return nil, err
	}
	v, err := p.expression()
	if err != nil {
		return nil, err
	}
	return L("let", L("decl", name.Lexeme), v), nil
}

func (p *parser) ifStmt() (S, error) {
	p.next() // 'if'
	node := L("if")
	for {
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(THEN, "'then' after condition"); err != nil {
			return nil, err
		}
		blk, err := p.block(ELIF, ELSE, END)
		if err != nil {
			return nil, err
		}
		node = append(node, L("pair", cond, blk))
		if _, ok := p.match(ELIF); ok {
			continue
		}
		break
	}
	if _, ok := p.match(ELSE); ok {
		blk, err := p.block(END)
		if err != nil {
			return nil, err
		}
		node = append(node, blk)
	}
	if _, err := p.expect(END, "'end' closing if"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) whileStmt() (S, error) {
	p.next() // 'while'
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(DO, "'do' after while condition"); err != nil {
		return nil, err
	}
	blk, err := p.block(END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END, "'end' closing while"); err != nil {
		return nil, err
	}
	return L("while", cond, blk), nil
}

func (p *parser) forStmt() (S, error) {
	p.next() // 'for'
	name, err := p.expect(ID, "loop variable after 'for'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, "'in' after loop variable"); err != nil {
		return nil, err
	}
	iter, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(DO, "'do' after for iterable"); err != nil {
		return nil, err
	}
	blk, err := p.block(END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END, "'end' closing for"); err != nil {
		return nil, err
	}
	return L("for", L("decl", name.Lexeme), iter, blk), nil
}

// ----- expressions (precedence climbing) -----

func (p *parser) expression() (S, error) { return p.assignment() }

func (p *parser) assignment() (S, error) {
	lhs, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.match(ASSIGN); ok {
		switch Tag(lhs) {
		case "id", "get", "idx":
		default:
			return nil, p.errAt(tok, "invalid assignment target")
		}
		rhs, err := p.assignment() // right-assoc
		if err != nil {
			return nil, err
		}
		return L("assign", lhs, rhs), nil
	}
	return lhs, nil
}

func (p *parser) orExpr() (S, error) {
	lhs, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.check(OR) {
		p.next()
		rhs, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		lhs = L("binop", "or", lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) andExpr() (S, error) {
	lhs, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.check(AND) {
		p.next()
		rhs, err := p.equality()
		if err != nil {
			return nil, err
		}
		lhs = L("binop", "and", lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) equality() (S, error) {
	lhs, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case EQ:
			op = "=="
		case NEQ:
			op = "!="
		default:
			return lhs, nil
		}
		p.next()
		rhs, err := p.comparison()
		if err != nil {
			return nil, err
		}
		lhs = L("binop", op, lhs, rhs)
	}
}

func (p *parser) comparison() (S, error) {
	lhs, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case LESS:
			op = "<"
		case LESS_EQ:
			op = "<="
		case GREATER:
			op = ">"
		case GREATER_EQ:
			op = ">="
		default:
			return lhs, nil
		}
		p.next()
		rhs, err := p.additive()
		if err != nil {
			return nil, err
		}
		lhs = L("binop", op, lhs, rhs)
	}
}

func (p *parser) additive() (S, error) {
	lhs, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case PLUS:
			op = "+"
		case MINUS:
			op = "-"
		default:
			return lhs, nil
		}
		p.next()
		rhs, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		lhs = L("binop", op, lhs, rhs)
	}
}

func (p *parser) multiplicative() (S, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch p.peek().Type {
		case MULT:
			op = "*"
		case DIV:
			op = "/"
		case MOD:
			op = "%"
		default:
			return lhs, nil
		}
		p.next()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		lhs = L("binop", op, lhs, rhs)
	}
}

func (p *parser) unary() (S, error) {
	switch p.peek().Type {
	case MINUS:
		p.next()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return L("unop", "-", rhs), nil
	case NOT:
		p.next()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		return L("unop", "not", rhs), nil
	default:
		return p.postfix()
	}
}

func (p *parser) postfix() (S, error) {
	lhs, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case CLROUND:
			p.next()
			call := L("call", lhs)
			if _, ok := p.match(RROUND); !ok {
				for {
					arg, err := p.expression()
					if err != nil {
						return nil, err
					}
					call = append(call, arg)
					if _, ok := p.match(COMMA); ok {
						continue
					}
					if _, err := p.expect(RROUND, "')' closing call"); err != nil {
						return nil, err
					}
					break
				}
			}
			lhs = call
		case CLSQUARE:
			p.next()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RSQUARE, "']' closing index"); err != nil {
				return nil, err
			}
			lhs = L("idx", lhs, idx)
		case PERIOD:
			p.next()
			name, err := p.expect(ID, "property name after '.'")
			if err != nil {
				return nil, err
			}
			prop := name.Lexeme
			if s, ok := name.Literal.(string); ok && s != "" {
				prop = s
			}
			lhs = L("get", lhs, L("str", prop))
		default:
			return lhs, nil
		}
	}
}

func (p *parser) primary() (S, error) {
	tok := p.peek()
	switch tok.Type {
	case NULL:
		p.next()
		return L("null"), nil
	case BOOLEAN:
		p.next()
		return L("bool", tok.Literal.(bool)), nil
	case INTEGER:
		p.next()
		return L("int", tok.Literal.(int64)), nil
	case NUMBER:
		p.next()
		return L("num", tok.Literal.(float64)), nil
	case STRING:
		p.next()
		return L("str", tok.Literal.(string)), nil
	case FSTRBEGIN:
		return p.fstring()
	case ID:
		p.next()
		return L("id", tok.Lexeme), nil
	case LROUND, CLROUND:
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RROUND, "')' closing group"); err != nil {
			return nil, err
		}
		return e, nil
	case LSQUARE, CLSQUARE:
		return p.arrayLit()
	case LCURLY:
		return p.mapLit()
	case FUNCTION:
		return p.funLit()
	case ANNOTATION:
		p.next()
		text, _ := tok.Literal.(string)
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		return L("annot", L("str", text), inner), nil
	default:
		return nil, p.errAt(tok, "unexpected token %q", tok.Lexeme)
	}
}

func (p *parser) arrayLit() (S, error) {
	p.next() // '['
	arr := L("array")
	if _, ok := p.match(RSQUARE); ok {
		return arr, nil
	}
	for {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		arr = append(arr, e)
		if _, ok := p.match(COMMA); ok {
			continue
		}
		if _, err := p.expect(RSQUARE, "']' closing array"); err != nil {
			return nil, err
		}
		return arr, nil
	}
}

func (p *parser) mapLit() (S, error) {
	p.next() // '{'
	m := L("map")
	if _, ok := p.match(RCURLY); ok {
		return m, nil
	}
	for {
		keyTok := p.next()
		var key string
		switch keyTok.Type {
		case ID:
			key = keyTok.Lexeme
		case STRING:
			key = keyTok.Literal.(string)
		default:
			return nil, p.errAt(keyTok, "expected map key")
		}
		if _, err := p.expect(COLON, "':' after map key"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		m = append(m, L("pair", L("str", key), v))
		if _, ok := p.match(COMMA); ok {
			continue
		}
		if _, err := p.expect(RCURLY, "'}' closing map"); err != nil {
			return nil, err
		}
		return m, nil
	}
}

func (p *parser) funLit() (S, error) {
	p.next() // 'fun'
	open := p.peek()
	if open.Type != CLROUND && open.Type != LROUND {
		return nil, p.errAt(open, "expected '(' after 'fun'")
	}
	p.next()
	params := L("params")
	if _, ok := p.match(RROUND); !ok {
		for {
			name, err := p.expect(ID, "parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, name.Lexeme)
			if _, ok := p.match(COMMA); ok {
				continue
			}
			if _, err := p.expect(RROUND, "')' closing parameter list"); err != nil {
				return nil, err
			}
			break
		}
	}
	if _, err := p.expect(DO, "'do' opening function body"); err != nil {
		return nil, err
	}
	body, err := p.block(END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END, "'end' closing function body"); err != nil {
		return nil, err
	}
	return L("fun", params, body), nil
}

// fstring parses an FSTRBEGIN … FSTREND token run into an ("fstr", …) node.
func (p *parser) fstring() (S, error) {
	begin := p.next() // FSTRBEGIN
	node := L("fstr")
	for {
		tok := p.peek()
		switch tok.Type {
		case FSTRMID:
			p.next()
			node = append(node, L("str", tok.Literal.(string)))
		case FSUBBEGIN:
			p.next()
			expr, err := p.expression()
			if err != nil {
				return nil, err
			}
			part := L("fmt", expr)
			conv := ""
			if c, ok := p.match(FSTRCONV); ok {
				conv = c.Literal.(string)
			}
			if s, ok := p.match(FSTRSPEC); ok {
				part = append(part, L("str", conv), L("str", s.Literal.(string)))
			} else if conv != "" {
				part = append(part, L("str", conv))
			}
			if _, err := p.expect(FSUBEND, "'}' closing substitution"); err != nil {
				return nil, err
			}
			node = append(node, part)
		case FSTREND:
			p.next()
			return node, nil
		default:
			return nil, p.errAt(begin, "malformed interpolated string")
		}
	}
}
