// interpreter_test.go
package hscript

import (
	"strings"
	"testing"
)

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	v, err := NewRuntime().EvalSource(src)
	if err != nil {
		t.Fatalf("eval error:\n%v", err)
	}
	return v
}

func wantEvalStr(t *testing.T, src, want string) {
	t.Helper()
	v := evalSrc(t, src)
	if v.Tag != VTStr {
		t.Fatalf("result tag %s, want str (value %s)", tagName(v.Tag), FormatValue(v))
	}
	if v.Data.(string) != want {
		t.Fatalf("want %q, got %q", want, v.Data.(string))
	}
}

func wantEvalHtml(t *testing.T, src, want string) {
	t.Helper()
	v := evalSrc(t, src)
	if v.Tag != VTHtml {
		t.Fatalf("result tag %s, want html (value %s)", tagName(v.Tag), FormatValue(v))
	}
	if got := v.Data.(HtmlText).String(); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func wantEvalInt(t *testing.T, src string, want int64) {
	t.Helper()
	v := evalSrc(t, src)
	if v.Tag != VTInt || v.Data.(int64) != want {
		t.Fatalf("want %d, got %s", want, FormatValue(v))
	}
}

func wantEvalErr(t *testing.T, src, substr string) {
	t.Helper()
	_, err := NewRuntime().EvalSource(src)
	if err == nil {
		t.Fatalf("source evaluated without error:\n%s", src)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("error %q does not mention %q", err.Error(), substr)
	}
}

func Test_Eval_Arithmetic(t *testing.T) {
	wantEvalInt(t, `1 + 2 * 3`, 7)
	wantEvalInt(t, `10 % 3`, 1)
	wantEvalInt(t, `-(2 + 3)`, -5)
	wantEvalErr(t, `1 / 0`, "division by zero")
}

func Test_Eval_LetAssignScope(t *testing.T) {
	wantEvalInt(t, `let x = 1  x = x + 1  x`, 2)
	wantEvalInt(t, `let x = 1
if true then
    x = 10
end
x`, 10)
}

func Test_Eval_ControlFlow(t *testing.T) {
	wantEvalInt(t, `
let total = 0
for i in range(10) do
    if i % 2 == 1 then
        continue
    end
    if i > 6 then
        break
    end
    total = total + i
end
total`, 12) // 0+2+4+6
	wantEvalInt(t, `
let n = 0
while n < 5 do
    n = n + 1
end
n`, 5)
}

func Test_Eval_FunctionsAndClosures(t *testing.T) {
	wantEvalInt(t, `
let add = fun(a, b) do return(a + b) end
add(2, 3)`, 5)
	wantEvalInt(t, `
let counter = fun() do
    let n = 0
    return(fun() do
        n = n + 1
        return(n)
    end)
end
let c = counter()
c()
c()
c()`, 3)
	wantEvalErr(t, `let f = fun(a) do return(a) end  f(1, 2)`, "argument")
}

func Test_Eval_CollectionsAndBuiltins(t *testing.T) {
	wantEvalInt(t, `len([1, 2, 3])`, 3)
	wantEvalInt(t, `let m = {a: 1}  m.b = 2  len(m)`, 2)
	wantEvalStr(t, `let m = {x: 1, y: 2}  ",".join(keys(m))`, "x,y")
	wantEvalStr(t, `",".join(["a", "b"])`, "a,b")
	wantEvalInt(t, `[10, 20, 30][-1]`, 30)
	wantEvalErr(t, `[1][5]`, "out of range")
}

func Test_Eval_PlainInterpolation(t *testing.T) {
	wantEvalStr(t, `let n = 3  f"n={n}!"`, "n=3!")
	wantEvalStr(t, `let x = "<b>"  f"{x}"`, "<b>")
	wantEvalStr(t, `f"{3.14159:.2f}"`, "3.14")
	wantEvalStr(t, `let s = "hi"  f"{s!r}"`, `"hi"`)
}

func Test_Eval_HString(t *testing.T) {
	wantEvalHtml(t, `h"<br />"`, "<br />")
	wantEvalHtml(t, `h"<b>" + " & " + h"</b>"`, "<b> &amp; </b>")
	wantEvalErr(t, `h"<b>" + 3`, "TypeError")
}

func Test_Eval_HStringMapKey(t *testing.T) {
	// An escaped-literal key names the same entry as the plain spelling.
	wantEvalStr(t, `let m = {h"k": "v"}
",".join(keys(m))`, "k")
	wantEvalStr(t, `let m = {h"k": "v"}
m["k"]`, "v")
}

func Test_Eval_EscapedInterpolation(t *testing.T) {
	wantEvalHtml(t, `let x = "<i>"  F"a {x}"`, "a &lt;i&gt;")
	wantEvalHtml(t, `let x = h"<i>"  F"a {x}"`, "a <i>")
	wantEvalHtml(t, `F"{42:>4d}!"`, "  42!")
}

func Test_Eval_HtmlTemplate(t *testing.T) {
	wantEvalHtml(t, `
let page = fun [html] (name) do
    "<p>"
    name
    "</p>"
end
page("a & b")`, "<p>a &amp; b</p>")
}

func Test_Eval_HtmlTemplate_Loop(t *testing.T) {
	wantEvalHtml(t, `
let list = fun [html] (items) do
    "<ul>"
    for it in items do
        "<li>"
        it
        "</li>"
    end
    "</ul>"
end
list(["<x>", "y"])`, "<ul><li>&lt;x&gt;</li><li>y</li></ul>")
}

func Test_Eval_HtmlTemplate_Conditional(t *testing.T) {
	src := `
let badge = fun [html] (ok) do
    if ok then
        "<b>yes</b>"
    else
        "no & never"
    end
end
badge(%s)`
	wantEvalHtml(t, strings.Replace(src, "%s", "true", 1), "<b>yes</b>")
	wantEvalHtml(t, strings.Replace(src, "%s", "false", 1), "no & never")
}

func Test_Eval_HtmlTemplate_Composition(t *testing.T) {
	// A template's html result must pass through an enclosing template
	// without a second escaping.
	wantEvalHtml(t, `
let item = fun [html] (x) do
    "<li>"
    x
    "</li>"
end
let list = fun [html] (xs) do
    "<ul>"
    for x in xs do
        item(x)
    end
    "</ul>"
end
list(["a&b"])`, "<ul><li>a&amp;b</li></ul>")
}

func Test_Eval_PlainTemplate(t *testing.T) {
	wantEvalStr(t, `
let txt = fun [plain] (x) do
    "a & "
    x
end
txt("<b>")`, "a & <b>")
}

func Test_Eval_TemplateDiscardsNull(t *testing.T) {
	// A statement evaluating to null contributes nothing to the output.
	wantEvalStr(t, `
let noop = fun() do end
let txt = fun [plain] (x) do
    "a"
    noop()
    "b"
end
txt(0)`, "ab")
}

func Test_Eval_TemplateInterpolation(t *testing.T) {
	// Literal chunks are trusted markup, substituted values are escaped.
	wantEvalHtml(t, `
let greet = fun [html] (name) do
    f"<p>Hello, {name}!</p>"
end
greet("O'Brien")`, "<p>Hello, O&#39;Brien!</p>")
}

func Test_Eval_TemplateLocalStateAndReturn(t *testing.T) {
	wantEvalHtml(t, `
let nums = fun [html] (n) do
    let i = 0
    while i < n do
        f"{i},"
        i = i + 1
    end
end
nums(3)`, "0,1,2,")
}

func Test_Eval_TemplateDoc(t *testing.T) {
	v := evalSrc(t, `
# Renders one page.
let page = fun [html] (x) do
    x
end
page.doc`)
	if v.Tag != VTStr || v.Data.(string) != "Renders one page." {
		t.Fatalf("doc = %s", FormatValue(v))
	}
}

func Test_Eval_HtmlEquality(t *testing.T) {
	wantEvalInt(t, `if h"<b>" == "<b>" then 1 else 0 end`, 1)
	wantEvalInt(t, `if h"x" == h"x" then 1 else 0 end`, 1)
}

func Test_Eval_HtmlRepeat(t *testing.T) {
	wantEvalHtml(t, `h"<hr>" * 3`, "<hr><hr><hr>")
}

func Test_Eval_HtmlModuleHelpers(t *testing.T) {
	wantEvalHtml(t, `import("html").escape("a<b")`, "a&lt;b")
	wantEvalHtml(t, `import("html").tag("img", {src: "x.png", alt: "a\"b"})`,
		`<img src="x.png" alt="a&quot;b">`)
	wantEvalHtml(t, `import("html").href("/x?a=1&b=2", "A & B")`,
		`<a href="/x?a=1&amp;b=2">A &amp; B</a>`)
	wantEvalHtml(t, `import("html").nl2br("a<b` + "\\n" + `c")`,
		"a&lt;b<br />\nc")
	wantEvalStr(t, `import("html").urlQuote("a b/c&d")`, "a%20b/c%26d")
}

func Test_Eval_RuntimeErrors(t *testing.T) {
	wantEvalErr(t, `nosuchname`, "NameError")
	wantEvalErr(t, `1()`, "not callable")
	wantEvalErr(t, `"a" + 1`, "TypeError")
	wantEvalErr(t, `import("nosuchmodule")`, "ImportError")
	wantEvalErr(t, `break`, "break outside loop")
}

func Test_Eval_ShortCircuit(t *testing.T) {
	// The right side must not evaluate when the left side decides.
	wantEvalInt(t, `if false and nosuchname then 1 else 2 end`, 2)
	wantEvalInt(t, `if true or nosuchname then 1 else 2 end`, 1)
}
