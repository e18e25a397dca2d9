// transform_test.go
package hscript

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func compiled(t *testing.T, src string) S {
	t.Helper()
	toks, err := Translate(src)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	ast, err := ParseTokens(toks)
	if err != nil {
		t.Fatalf("ParseTokens: %v", err)
	}
	out, err := Transform(ast)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	return out
}

func htmlRef(name string, args ...any) S {
	call := L("call", L("get", L("id", "_h_html"), L("str", name)))
	return append(call, args...)
}

func outCall(expr S) S { return L("call", L("id", "_h_out"), expr) }

var htmlPrologue = L("let", L("decl", "_h_html"),
	L("call", L("id", "import"), L("str", "html")))

func Test_Transform_HtmlTemplate(t *testing.T) {
	got := compiled(t, `let page = fun [html] (name) do
    "<p>"
    name
    "</p>"
end`)
	want := L("block",
		htmlPrologue,
		L("let", L("decl", "page"),
			L("annot", L("str", "template:html"),
				L("fun", L("params", "name"),
					L("block",
						L("let", L("decl", "_h_out"), htmlRef("TemplateIO", L("bool", true))),
						outCall(htmlRef("htmltext", L("str", "<p>"))),
						outCall(L("id", "name")),
						outCall(htmlRef("htmltext", L("str", "</p>"))),
						L("return", L("call", L("get", L("id", "_h_out"), L("str", "getvalue")))))))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("transformed tree mismatch (-want +got):\n%s", diff)
	}
}

func Test_Transform_PlainTemplateSkipsEscaping(t *testing.T) {
	got := compiled(t, `let txt = fun [plain] (x) do
    "a & "
    x
end`)
	want := L("block",
		htmlPrologue,
		L("let", L("decl", "txt"),
			L("annot", L("str", "template:plain"),
				L("fun", L("params", "x"),
					L("block",
						L("let", L("decl", "_h_out"), htmlRef("TemplateIO", L("bool", false))),
						outCall(L("str", "a & ")),
						outCall(L("id", "x")),
						L("return", L("call", L("get", L("id", "_h_out"), L("str", "getvalue")))))))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("transformed tree mismatch (-want +got):\n%s", diff)
	}
}

func Test_Transform_DirectAnnotationIsCanonical(t *testing.T) {
	bracket := compiled(t, `let p = fun [html] (x) do x end`)
	direct := compiled(t, "let p =\n# template:html\nfun(x) do x end")
	// The bracket header form and the hand-written annotation must compile
	// to the same tree.
	if diff := cmp.Diff(bracket, direct); diff != "" {
		t.Fatalf("forms diverge (-bracket +direct):\n%s", diff)
	}
}

func Test_Transform_NonTemplateUntouched(t *testing.T) {
	src := `let f = fun(x) do
    "ignored"
    return(x)
end`
	got := compiled(t, src)
	want := L("block",
		L("let", L("decl", "f"),
			L("fun", L("params", "x"),
				L("block",
					L("str", "ignored"),
					L("return", L("id", "x"))))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("non-template code was rewritten (-want +got):\n%s", diff)
	}
}

func Test_Transform_MarkedStringOutsideTemplate(t *testing.T) {
	got := compiled(t, `let b = h"<b>"`)
	want := L("block",
		htmlPrologue,
		L("let", L("decl", "b"), htmlRef("htmltext", L("str", "<b>"))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func Test_Transform_ControlFlowBlocksRouted(t *testing.T) {
	got := compiled(t, `let p = fun [html] (xs) do
    for x in xs do
        x
    end
end`)
	fun := got[2].(S)[2].(S)[2].(S) // let → annot → fun
	body := fun[2].(S)
	loop := body[2].(S)
	if Tag(loop) != "for" {
		t.Fatalf("second body statement is %q, want for", Tag(loop))
	}
	loopBody := loop[3].(S)
	want := L("block", outCall(L("id", "x")))
	if diff := cmp.Diff(want, loopBody); diff != "" {
		t.Fatalf("loop body not routed (-want +got):\n%s", diff)
	}
}

func Test_Transform_LetInsideTemplateNotRouted(t *testing.T) {
	got := compiled(t, `let p = fun [html] (x) do
    let y = x
    y
end`)
	body := got[2].(S)[2].(S)[2].(S)[2].(S)
	if Tag(body[2].(S)) != "let" {
		t.Fatalf("let statement was routed: %s", FormatSExpr(body[2].(S)))
	}
	if Tag(body[3].(S)) != "call" {
		t.Fatalf("bare expression not routed: %s", FormatSExpr(body[3].(S)))
	}
}

func Test_Transform_EscapedInterpolationLowered(t *testing.T) {
	got := compiled(t, `let v = F"a{x}"`)
	want := L("block",
		htmlPrologue,
		L("let", L("decl", "v"),
			htmlRef("join",
				htmlRef("htmltext", L("str", "a")),
				htmlRef("format", L("id", "x")))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func Test_Transform_LoweredFormatKeepsConvAndSpec(t *testing.T) {
	got := compiled(t, `let v = F"{x!r:>8}"`)
	want := L("block",
		htmlPrologue,
		L("let", L("decl", "v"),
			htmlRef("join",
				htmlRef("format", L("id", "x"), L("str", "r"), L("str", ">8")))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func Test_Transform_PlainInterpolationKeptOutsideHtml(t *testing.T) {
	got := compiled(t, `let v = f"a{x}"`)
	want := L("block",
		L("let", L("decl", "v"),
			L("fstr", L("str", "a"), L("fmt", L("id", "x")))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func Test_Transform_PlainInterpolationLoweredInsideHtml(t *testing.T) {
	got := compiled(t, `let p = fun [html] (x) do
    f"a{x}"
end`)
	body := got[2].(S)[2].(S)[2].(S)[2].(S)
	routed := body[2].(S)
	lowered := routed[2].(S)
	want := htmlRef("join",
		htmlRef("htmltext", L("str", "a")),
		htmlRef("format", L("id", "x")))
	if diff := cmp.Diff(want, lowered); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func Test_Transform_PropertyNamesAndMapKeysNotEscaped(t *testing.T) {
	got := compiled(t, `let p = fun [html] (m) do
    m.title
    {k: "v"}
end`)
	body := got[2].(S)[2].(S)[2].(S)[2].(S)
	getStmt := body[2].(S)[2].(S)
	want := L("get", L("id", "m"), L("str", "title"))
	if diff := cmp.Diff(want, getStmt); diff != "" {
		t.Fatalf("property access rewritten (-want +got):\n%s", diff)
	}
	mapStmt := body[3].(S)[2].(S)
	wantMap := L("map", L("pair", L("str", "k"), htmlRef("htmltext", L("str", "v"))))
	if diff := cmp.Diff(wantMap, mapStmt); diff != "" {
		t.Fatalf("map literal (-want +got):\n%s", diff)
	}
}

func Test_Transform_UnknownDirectKindRejected(t *testing.T) {
	// The token translator rejects this earlier in the normal pipeline; the
	// transformer still refuses unknown kinds on directly built trees.
	ast := L("block",
		L("annot", L("str", "template:xml"),
			L("fun", L("params", "x"), L("block", L("id", "x")))))
	if _, err := Transform(ast); err == nil {
		t.Fatal("expected an error for an unknown template kind")
	}
}

func Test_Transform_MapKeyMarkerStripped(t *testing.T) {
	got := compiled(t, `let m = {h"k": h"v"}`)
	want := L("block",
		htmlPrologue,
		L("let", L("decl", "m"),
			L("map", L("pair", L("str", "k"), htmlRef("htmltext", L("str", "v"))))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func Test_Transform_NoPrologueWithoutTemplates(t *testing.T) {
	got := compiled(t, `let x = 1 + 2`)
	want := L("block",
		L("let", L("decl", "x"), L("binop", "+", L("int", int64(1)), L("int", int64(2)))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
