// printer_test.go
package hscript

import "testing"

func wantFormat(t *testing.T, v Value, want string) {
	t.Helper()
	if got := FormatValue(v); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func Test_FormatValue_TopLevelStringsAreRaw(t *testing.T) {
	wantFormat(t, Str("a \"b\""), `a "b"`)
	wantFormat(t, Html(NewHtmlText("<b>")), "<b>")
}

func Test_FormatValue_NestedStringsAreQuoted(t *testing.T) {
	wantFormat(t, Arr([]Value{Str("a"), Int(1), Null}), `["a", 1, null]`)
	wantFormat(t, Arr([]Value{Html(NewHtmlText("<b>"))}), `[htmltext("<b>")]`)
}

func Test_FormatValue_Scalars(t *testing.T) {
	wantFormat(t, Bool(true), "true")
	wantFormat(t, Int(-3), "-3")
	wantFormat(t, Num(1.5), "1.5")
	wantFormat(t, Null, "null")
}

func Test_FormatValue_MapKeepsInsertionOrder(t *testing.T) {
	m := NewMapObject()
	m.Set("z", Int(1))
	m.Set("a", Int(2))
	wantFormat(t, Map(m), "{z: 1, a: 2}")
}

func Test_FormatValue_Funs(t *testing.T) {
	named := FunVal(&Fun{Name: "page"})
	wantFormat(t, named, "<fun page>")
	wantFormat(t, FunVal(&Fun{}), "<fun>")
}

func Test_FormatSExpr(t *testing.T) {
	n := L("binop", "+", L("int", int64(1)), L("str", "a"))
	if got, want := FormatSExpr(n), `(binop "+" (int 1) (str "a"))`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
