// printer.go: human-readable rendering of runtime values and AST nodes.
//
// FormatValue is what print() and the REPL show: top-level strings render
// raw, nested strings render quoted so collections stay unambiguous.
// FormatSExpr renders an AST in Lisp notation and exists for debugging and
// test diagnostics.
package hscript

import (
	"fmt"
	"strconv"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// FormatValue renders a value for display.
func FormatValue(v Value) string {
	switch v.Tag {
	case VTStr:
		return v.Data.(string)
	case VTHtml:
		return v.Data.(HtmlText).String()
	default:
		return formatNested(v)
	}
}

// FormatSExpr renders an AST node as a parenthesized tree.
func FormatSExpr(n S) string {
	var b strings.Builder
	writeSExpr(&b, n)
	return b.String()
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE
   =========================== */

func formatNested(v Value) string {
	switch v.Tag {
	case VTNull:
		return "null"
	case VTBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case VTInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case VTNum:
		return strconv.FormatFloat(v.Data.(float64), 'g', -1, 64)
	case VTStr:
		return strconv.Quote(v.Data.(string))
	case VTHtml:
		return "htmltext(" + strconv.Quote(v.Data.(HtmlText).String()) + ")"
	case VTArray:
		xs := v.Data.([]Value)
		parts := make([]string, 0, len(xs))
		for _, x := range xs {
			parts = append(parts, formatNested(x))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case VTMap:
		mo := v.Data.(*MapObject)
		parts := make([]string, 0, len(mo.Keys))
		for _, k := range mo.Keys {
			parts = append(parts, k+": "+formatNested(mo.Items[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case VTFun:
		f := v.Data.(*Fun)
		if f.Name != "" {
			return "<fun " + f.Name + ">"
		}
		return "<fun>"
	case VTOutput:
		return "<output>"
	case VTModule:
		return "<module>"
	default:
		return "<value>"
	}
}

func writeSExpr(b *strings.Builder, n S) {
	b.WriteByte('(')
	for i, c := range n {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch x := c.(type) {
		case S:
			writeSExpr(b, x)
		case string:
			if i == 0 {
				b.WriteString(x)
			} else {
				b.WriteString(strconv.Quote(x))
			}
		default:
			fmt.Fprintf(b, "%v", x)
		}
	}
	b.WriteByte(')')
}
