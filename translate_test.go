// translate_test.go
package hscript

import (
	"strings"
	"testing"
)

func translated(t *testing.T, src string) []Token {
	t.Helper()
	ts, err := Translate(src)
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	return ts
}

func Test_Translate_HeaderBecomesAnnotation(t *testing.T) {
	got := translated(t, `let page = fun [html] (x) do end`)
	want := []TokenType{LET, ID, ASSIGN, ANNOTATION, FUNCTION, LROUND, ID, RROUND, DO, END}
	gotTypes := typesWithoutEOF(got)
	if len(gotTypes) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(gotTypes), len(want), gotTypes)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, gotTypes[i], want[i])
		}
	}
	annot := got[3]
	if annot.Literal.(string) != "template:html" {
		t.Fatalf("annotation text = %q", annot.Literal)
	}
}

func Test_Translate_PlainKind(t *testing.T) {
	got := translated(t, `fun [plain] (x) do end`)
	if got[0].Type != ANNOTATION || got[0].Literal.(string) != "template:plain" {
		t.Fatalf("first token = %+v", got[0])
	}
}

func Test_Translate_LineNumbersPreserved(t *testing.T) {
	src := "let a = 1\nlet page = fun [html] (x) do\nend\n"
	got := translated(t, src)
	for _, tok := range got {
		if tok.Type == ANNOTATION && tok.Line != 2 {
			t.Fatalf("annotation at line %d, want 2", tok.Line)
		}
		if tok.Type == FUNCTION && tok.Line != 2 {
			t.Fatalf("fun at line %d, want 2", tok.Line)
		}
	}
}

func Test_Translate_UnknownKindRejected(t *testing.T) {
	_, err := Translate("let a = 1\nlet p = fun [xml] (x) do end")
	serr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("want *SyntaxError, got %v", err)
	}
	if !strings.Contains(serr.Msg, "xml") {
		t.Fatalf("message %q does not name the kind", serr.Msg)
	}
	if serr.Line != 2 {
		t.Fatalf("error line = %d, want 2", serr.Line)
	}
}

func Test_Translate_DirectAnnotationUnknownKindRejected(t *testing.T) {
	src := "let a = 1\nlet p =\n# template:xml\nfun(x) do x end"
	_, err := Translate(src)
	serr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("want *SyntaxError, got %v", err)
	}
	if !strings.Contains(serr.Msg, "xml") {
		t.Fatalf("message %q does not name the kind", serr.Msg)
	}
	if serr.Line != 3 {
		t.Fatalf("error line = %d, want the annotation's line 3", serr.Line)
	}
}

func Test_Translate_DirectAnnotationKnownKindsPass(t *testing.T) {
	for _, kind := range []string{"html", "plain"} {
		if _, err := Translate("# template:" + kind + "\nfun(x) do x end"); err != nil {
			t.Fatalf("kind %q rejected: %v", kind, err)
		}
	}
}

func Test_Translate_EmptyKindRejected(t *testing.T) {
	if _, err := Translate(`fun [] (x) do end`); err == nil {
		t.Fatal("expected an error for an empty kind")
	}
}

func Test_Translate_PlainFunUntouched(t *testing.T) {
	got := translated(t, `fun(x) do end`)
	if got[0].Type != FUNCTION {
		t.Fatalf("first token = %v", got[0].Type)
	}
}

func Test_Translate_HStringGetsMarker(t *testing.T) {
	got := translated(t, `h"<b>" "<b>"`)
	if lit := got[0].Literal.(string); lit != HStringMarker+"<b>" {
		t.Fatalf("h-string literal = %q", lit)
	}
	if lit := got[1].Literal.(string); lit != "<b>" {
		t.Fatalf("plain literal = %q", lit)
	}
}

func Test_Translate_EscapedInterpolationMarksChunks(t *testing.T) {
	got := translated(t, `F"a{x}b"`)
	var chunks []string
	for _, tok := range got {
		if tok.Type == FSTRMID {
			chunks = append(chunks, tok.Literal.(string))
		}
	}
	if len(chunks) != 2 {
		t.Fatalf("chunk count = %d", len(chunks))
	}
	for _, c := range chunks {
		if !strings.HasPrefix(c, HStringMarker) {
			t.Fatalf("chunk %q is unmarked", c)
		}
	}
}

func Test_Translate_PlainInterpolationUnmarked(t *testing.T) {
	got := translated(t, `f"a{x}b"`)
	for _, tok := range got {
		if tok.Type == FSTRMID && strings.Contains(tok.Literal.(string), HStringMarker) {
			t.Fatalf("plain chunk %q carries the marker", tok.Literal)
		}
	}
}

func Test_Translate_SubstitutionFirstLiteralGetsSyntheticChunk(t *testing.T) {
	// F"{x}" has no text chunk; the marker needs a carrier so the transform
	// stage still sees the literal as escaped.
	got := translated(t, `F"{x}"`)
	found := false
	for _, tok := range got {
		if tok.Type == FSTRMID && tok.Literal.(string) == HStringMarker {
			found = true
		}
	}
	if !found {
		t.Fatal("no synthetic marked chunk emitted")
	}
}

func Test_Translate_NestedInterpolationIndependent(t *testing.T) {
	// The plain inner literal must stay unmarked inside an escaped outer one.
	got := translated(t, `F"a{f"inner{x}tail"}b"`)
	var plain, marked int
	for _, tok := range got {
		if tok.Type != FSTRMID {
			continue
		}
		if strings.HasPrefix(tok.Literal.(string), HStringMarker) {
			marked++
		} else {
			plain++
		}
	}
	if marked != 2 || plain != 2 {
		t.Fatalf("marked=%d plain=%d, want 2 and 2", marked, plain)
	}
}

func Test_Translate_MarkerCollisionRejected(t *testing.T) {
	src := `"before` + HStringMarker + `after"`
	if _, err := Translate(src); err == nil {
		t.Fatal("expected an error for a literal containing the marker")
	}
}
