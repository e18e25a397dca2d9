// lexer_test.go
package hscript

import (
	"reflect"
	"testing"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	ts, err := NewLexer(src).Scan()
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func Test_Lexer_LetFun(t *testing.T) {
	src := `
# Greet someone.
let greet = fun(name) do
    return("hi")
end
`
	wantTypes(t, src, []TokenType{
		ANNOTATION,
		LET, ID, ASSIGN, FUNCTION, CLROUND, ID, RROUND, DO,
		RETURN, CLROUND, STRING, RROUND,
		END,
	})
}

func Test_Lexer_WhitespaceSensitiveParens(t *testing.T) {
	// "f(x)" is a call opener, "f (x)" is a grouped operand.
	wantTypes(t, `f(x)`, []TokenType{ID, CLROUND, ID, RROUND})
	wantTypes(t, `f (x)`, []TokenType{ID, LROUND, ID, RROUND})
	wantTypes(t, `a[0]`, []TokenType{ID, CLSQUARE, INTEGER, RSQUARE})
	wantTypes(t, `a [0]`, []TokenType{ID, LSQUARE, INTEGER, RSQUARE})
}

func Test_Lexer_TemplateHeaderBrackets(t *testing.T) {
	got := wantTypes(t, `fun [html] (x) do end`, []TokenType{
		FUNCTION, LSQUARE, ID, RSQUARE, LROUND, ID, RROUND, DO, END,
	})
	if got[2].Lexeme != "html" {
		t.Fatalf("kind lexeme = %q", got[2].Lexeme)
	}
}

func Test_Lexer_HStringKeepsPrefixLexeme(t *testing.T) {
	got := wantTypes(t, `h"<b>"`, []TokenType{STRING})
	if got[0].Literal.(string) != "<b>" {
		t.Fatalf("literal = %q", got[0].Literal)
	}
	if got[0].Lexeme != `h"<b>"` {
		t.Fatalf("lexeme = %q", got[0].Lexeme)
	}
}

func Test_Lexer_StringEscapes(t *testing.T) {
	got := wantTypes(t, `"a\n\té\\"`, []TokenType{STRING})
	if got[0].Literal.(string) != "a\n\té\\" {
		t.Fatalf("literal = %q", got[0].Literal)
	}
}

func Test_Lexer_Numbers(t *testing.T) {
	got := wantTypes(t, `1 2.5 .5 1e3 7e`, []TokenType{
		INTEGER, NUMBER, NUMBER, NUMBER, INTEGER, ID,
	})
	if got[0].Literal.(int64) != 1 {
		t.Fatalf("int literal = %v", got[0].Literal)
	}
	if got[1].Literal.(float64) != 2.5 || got[2].Literal.(float64) != 0.5 {
		t.Fatalf("float literals = %v, %v", got[1].Literal, got[2].Literal)
	}
	if got[3].Literal.(float64) != 1000 {
		t.Fatalf("exponent literal = %v", got[3].Literal)
	}
}

func Test_Lexer_FString_Simple(t *testing.T) {
	got := wantTypes(t, `f"a{x}b"`, []TokenType{
		FSTRBEGIN, FSTRMID, FSUBBEGIN, ID, FSUBEND, FSTRMID, FSTREND,
	})
	if got[0].Literal.(string) != "f" {
		t.Fatalf("prefix = %q", got[0].Literal)
	}
	if got[1].Literal.(string) != "a" || got[5].Literal.(string) != "b" {
		t.Fatalf("chunks = %q, %q", got[1].Literal, got[5].Literal)
	}
}

func Test_Lexer_FString_ConvAndSpec(t *testing.T) {
	got := wantTypes(t, `F"{x!r:>8}"`, []TokenType{
		FSTRBEGIN, FSUBBEGIN, ID, FSTRCONV, FSTRSPEC, FSUBEND, FSTREND,
	})
	if got[0].Literal.(string) != "F" {
		t.Fatalf("prefix = %q", got[0].Literal)
	}
	if got[3].Literal.(string) != "r" {
		t.Fatalf("conversion = %q", got[3].Literal)
	}
	if got[4].Literal.(string) != ">8" {
		t.Fatalf("spec = %q", got[4].Literal)
	}
}

func Test_Lexer_FString_NotEqualInsideSubstitution(t *testing.T) {
	// "!=" is the operator, not a conversion.
	wantTypes(t, `f"{a != b}"`, []TokenType{
		FSTRBEGIN, FSUBBEGIN, ID, NEQ, ID, FSUBEND, FSTREND,
	})
}

func Test_Lexer_FString_BraceEscapes(t *testing.T) {
	got := wantTypes(t, `f"{{x}}"`, []TokenType{FSTRBEGIN, FSTRMID, FSTREND})
	if got[1].Literal.(string) != "{x}" {
		t.Fatalf("chunk = %q", got[1].Literal)
	}
}

func Test_Lexer_FString_NestedLiteral(t *testing.T) {
	// An inner string literal and brackets must not end the substitution.
	wantTypes(t, `f"{m["k"]}"`, []TokenType{
		FSTRBEGIN, FSUBBEGIN, ID, CLSQUARE, STRING, RSQUARE, FSUBEND, FSTREND,
	})
}

func Test_Lexer_FString_MultiLineSubstitution(t *testing.T) {
	wantTypes(t, "f\"{a +\n    b}\"", []TokenType{
		FSTRBEGIN, FSUBBEGIN, ID, PLUS, ID, FSUBEND, FSTREND,
	})
}

func Test_Lexer_FString_LoneCloseBraceRejected(t *testing.T) {
	if _, err := NewLexer(`f"a}b"`).Scan(); err == nil {
		t.Fatal("expected an error for a lone '}' outside a substitution")
	}
}

func Test_Lexer_UnterminatedStrings(t *testing.T) {
	if _, err := NewLexer(`"abc`).Scan(); err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
	_, err := NewLexer(`f"a{x`).Scan()
	if _, ok := err.(*LexError); !ok {
		t.Fatalf("want *LexError, got %v", err)
	}
}

func Test_Lexer_DoubleHashComments(t *testing.T) {
	wantTypes(t, "## a comment\nlet x = 1 ##( inline ) + 2", []TokenType{
		LET, ID, ASSIGN, INTEGER, PLUS, INTEGER,
	})
}

func Test_Lexer_AnnotationBlock(t *testing.T) {
	src := "# line one\n# line two\nlet x = 1"
	got := wantTypes(t, src, []TokenType{ANNOTATION, LET, ID, ASSIGN, INTEGER})
	if got[0].Literal.(string) != "line one\nline two" {
		t.Fatalf("annotation text = %q", got[0].Literal)
	}
}

func Test_Lexer_PositionTracking(t *testing.T) {
	got := toks(t, "let x = 1\nlet y = 2\n")
	if got[0].Line != 1 || got[0].Col != 0 {
		t.Fatalf("first token at %d:%d", got[0].Line, got[0].Col)
	}
	var second *Token
	for i := range got {
		if got[i].Type == LET && got[i].Line == 2 {
			second = &got[i]
			break
		}
	}
	if second == nil || second.Col != 0 {
		t.Fatalf("second let not at line 2 col 0: %+v", second)
	}
}
