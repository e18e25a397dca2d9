// translate.go: lexical token translation for template syntax.
//
// OVERVIEW
// --------
// This stage runs between the lexer and the parser and normalizes the two
// pieces of template syntax into tokens the ordinary parser already
// understands. All rewrites are same-line: token line numbers never shift, so
// every later diagnostic still points at the original source.
//
//  1. Template function headers.  `fun [html] (…)` and `fun [plain] (…)`
//     lose their bracket tokens and gain a synthetic ANNOTATION token
//     ("template:html" / "template:plain") in front of the `fun` keyword.
//     The parser's normal annotation wrapping then produces exactly the
//     decorator form the AST transformer recognizes (see transform.go), and
//     writing the annotation directly is the canonical declaration syntax.
//     An unknown or empty kind keyword is a syntax error at the `fun` line,
//     and a directly written template: annotation with an unknown kind is
//     rejected the same way at the annotation's line.
//
//  2. Escaped string literals.  h"…" literals and every literal chunk of an
//     F"…" interpolated literal have their decoded value prefixed with a
//     private marker sequence that cannot appear in real source (it is
//     rejected if it does). The marker survives parsing as part of the
//     constant and is stripped by the AST transformer, which is how "this
//     literal is escaped output" travels across the parser without touching
//     it. A stack tracks f"/F" nesting so an inner plain f-string inside an
//     escaped one (and vice versa) is marked independently.
//
// DEPENDENCIES
// ------------
//   - lexer.go: Token/TokenType and the FSTR token run shape.
//   - errors.go: *SyntaxError for template-syntax violations.
package hscript

import "strings"

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// HStringMarker is the private prefix attached to escaped string literals
// between the token stage and the AST transform. Source literals must not
// contain it.
const HStringMarker = "\x02HSTRING\x03"

// Template kinds, as they appear inside header brackets and in the
// synthesized annotation text.
const (
	TemplateKindHTML  = "html"
	TemplateKindPlain = "plain"

	templateAnnotPrefix = "template:"
)

// Translate scans src and applies the token translation. This is the usual
// front half of the compile pipeline (see compile.go).
func Translate(src string) ([]Token, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	return TranslateTokens(toks)
}

// TranslateTokens rewrites an already-scanned token stream in place of the
// template syntax described above and returns the new stream.
func TranslateTokens(toks []Token) ([]Token, error) {
	out := make([]Token, 0, len(toks)+4)
	var inHString []bool

	top := func() bool { return len(inHString) > 0 && inHString[len(inHString)-1] }

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.Type {
		case FUNCTION:
			rest, annot, err := translateHeader(toks[i:])
			if err != nil {
				return nil, err
			}
			if annot != "" {
				out = append(out, Token{
					Type:    ANNOTATION,
					Lexeme:  "",
					Literal: annot,
					Line:    tok.Line,
					Col:     tok.Col,
				})
				i += rest // skip the bracket tokens
			}
			out = append(out, tok)

		case ANNOTATION:
			// The template: prefix is reserved; a direct annotation with an
			// unrecognized kind is rejected here, where the token still
			// carries its position.
			if text, _ := tok.Literal.(string); strings.HasPrefix(text, templateAnnotPrefix) {
				kind := text[len(templateAnnotPrefix):]
				if kind != TemplateKindHTML && kind != TemplateKindPlain {
					return nil, &SyntaxError{Line: tok.Line, Col: tok.Col,
						Msg: `unknown template kind "` + kind + `"`}
				}
			}
			out = append(out, tok)

		case STRING:
			lit, _ := tok.Literal.(string)
			if strings.Contains(lit, HStringMarker) {
				return nil, markerCollisionErr(tok)
			}
			if isHPrefixed(tok) {
				tok.Literal = HStringMarker + lit
			}
			out = append(out, tok)

		case FSTRBEGIN:
			escaped := tok.Literal == "F"
			inHString = append(inHString, escaped)
			out = append(out, tok)
			if escaped && (i+1 >= len(toks) || toks[i+1].Type != FSTRMID) {
				// Empty literals and literals that open directly with a
				// substitution have no text chunk to carry the marker;
				// synthesize an empty one.
				out = append(out, Token{
					Type:    FSTRMID,
					Lexeme:  "",
					Literal: HStringMarker,
					Line:    tok.Line,
					Col:     tok.Col,
				})
			}

		case FSTRMID:
			lit, _ := tok.Literal.(string)
			if strings.Contains(lit, HStringMarker) {
				return nil, markerCollisionErr(tok)
			}
			if top() {
				tok.Literal = HStringMarker + lit
			}
			out = append(out, tok)

		case FSTREND:
			if len(inHString) > 0 {
				inHString = inHString[:len(inHString)-1]
			}
			out = append(out, tok)

		default:
			out = append(out, tok)
		}
	}
	return out, nil
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: helpers
   =========================== */

// translateHeader inspects the tokens starting at a FUNCTION token. When a
// bracket kind follows it returns the number of tokens to skip (the bracket
// group) and the annotation text to synthesize; otherwise (0, "", nil).
func translateHeader(toks []Token) (skip int, annot string, err error) {
	fun := toks[0]
	if len(toks) < 2 || (toks[1].Type != LSQUARE && toks[1].Type != CLSQUARE) {
		return 0, "", nil
	}
	if len(toks) >= 3 && toks[2].Type == RSQUARE {
		return 0, "", &SyntaxError{Line: fun.Line, Col: fun.Col,
			Msg: "empty template kind (expected [html] or [plain])"}
	}
	if len(toks) < 4 || toks[2].Type != ID || toks[3].Type != RSQUARE {
		return 0, "", &SyntaxError{Line: fun.Line, Col: fun.Col,
			Msg: "malformed template kind annotation (expected [html] or [plain])"}
	}
	kind, _ := toks[2].Literal.(string)
	if kind == "" {
		kind = toks[2].Lexeme
	}
	switch kind {
	case TemplateKindHTML, TemplateKindPlain:
		return 3, templateAnnotPrefix + kind, nil
	default:
		return 0, "", &SyntaxError{Line: fun.Line, Col: fun.Col,
			Msg: `unknown template kind "` + kind + `"`}
	}
}

func isHPrefixed(tok Token) bool {
	return strings.HasPrefix(tok.Lexeme, `h"`) || strings.HasPrefix(tok.Lexeme, "h'")
}

func markerCollisionErr(tok Token) error {
	return &SyntaxError{Line: tok.Line, Col: tok.Col,
		Msg: "string literal must not contain the escaped-string marker"}
}
