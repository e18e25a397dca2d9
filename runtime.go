// runtime.go: the standard runtime: core builtins and the "html" module.
//
// OVERVIEW
// --------
// NewRuntime assembles an Interpreter whose global scope carries the core
// builtins (print, len, str, range, keys, import) and whose builtin-module
// registry contains "html", the module the transform stage imports as
// _h_html. The html module exposes:
//
//	htmltext(s)          mark a string as already-escaped markup
//	escape(v)            escape a value into markup
//	TemplateIO(html)     a fresh output accumulator
//	join(part...)        escaped concatenation (interpolation lowering)
//	format(v, conv?, spec?)  one escaped substitution
//	tag(name, attrs?)    open tag with escaped attributes
//	href(url, text, title?)  anchor element
//	nl2br(v)             escape, then newline → <br />
//	urlQuote(s, safe?)   percent-encode for URL components
//
// import("name") resolves builtin modules first; anything that looks like a
// path is delegated to the FileImporter installed by the compile driver.
package hscript

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// NewRuntime returns an interpreter with the standard globals and the
// bundled html module registered.
func NewRuntime() *Interpreter {
	ip := NewInterpreter()
	defineBuiltin(ip, "print", "print(v...) writes values to standard output, space-separated.", biPrint)
	defineBuiltin(ip, "len", "len(v) returns the length of a string, array or map.", biLen)
	defineBuiltin(ip, "str", "str(v) renders a value as a plain string.", biStr)
	defineBuiltin(ip, "range", "range(n) or range(a, b) returns an array of integers.", biRange)
	defineBuiltin(ip, "keys", "keys(m) returns a map's keys in insertion order.", biKeys)
	defineBuiltin(ip, "import", "import(name) loads a builtin module or a source file.", biImport)
	ip.RegisterBuiltinModule("html", htmlModule())
	return ip
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: core builtins
   =========================== */

func defineBuiltin(ip *Interpreter, name, doc string, impl NativeImpl) {
	ip.Globals.Define(name, FunVal(&Fun{Name: name, Doc: doc, Native: impl}))
}

func biPrint(ip *Interpreter, args []Value) Value {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, FormatValue(a))
	}
	fmt.Println(strings.Join(parts, " "))
	return Null
}

func biLen(ip *Interpreter, args []Value) Value {
	wantArgs("len", args, 1)
	switch v := args[0]; v.Tag {
	case VTStr:
		return Int(int64(len([]rune(v.Data.(string)))))
	case VTHtml:
		return Int(int64(len([]rune(v.Data.(HtmlText).String()))))
	case VTArray:
		return Int(int64(len(v.Data.([]Value))))
	case VTMap:
		return Int(int64(len(v.Data.(*MapObject).Keys)))
	default:
		return throwf("TypeError", "len of %s", tagName(v.Tag))
	}
}

func biStr(ip *Interpreter, args []Value) Value {
	wantArgs("str", args, 1)
	return Str(Stringify(valueToAny(args[0])))
}

func biRange(ip *Interpreter, args []Value) Value {
	var lo, hi int64
	switch len(args) {
	case 1:
		hi = needInt("range", args[0])
	case 2:
		lo = needInt("range", args[0])
		hi = needInt("range", args[1])
	default:
		return throwf("TypeError", "range takes 1 or 2 arguments, got %d", len(args))
	}
	if hi < lo {
		return Arr(nil)
	}
	out := make([]Value, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, Int(i))
	}
	return Arr(out)
}

func biKeys(ip *Interpreter, args []Value) Value {
	wantArgs("keys", args, 1)
	if args[0].Tag != VTMap && args[0].Tag != VTModule {
		return throwf("TypeError", "keys of %s", tagName(args[0].Tag))
	}
	mo := args[0].Data.(*MapObject)
	out := make([]Value, 0, len(mo.Keys))
	for _, k := range mo.Keys {
		out = append(out, Str(k))
	}
	return Arr(out)
}

func biImport(ip *Interpreter, args []Value) Value {
	wantArgs("import", args, 1)
	name := needStr(args[0])
	if mod, ok := ip.builtinModules[name]; ok {
		return mod
	}
	if ip.FileImporter != nil {
		mod, err := ip.FileImporter(ip, name)
		if err != nil {
			return throwf("ImportError", "%s", err.Error())
		}
		return mod
	}
	return throwf("ImportError", "unknown module %q", name)
}

func needInt(name string, v Value) int64 {
	if v.Tag != VTInt {
		throwf("TypeError", "%s needs an integer, got %s", name, tagName(v.Tag))
	}
	return v.Data.(int64)
}

/* ===========================
   PRIVATE: html module
   =========================== */

func htmlModule() Value {
	m := NewMapObject()
	def := func(name, doc string, impl NativeImpl) {
		m.Set(name, FunVal(&Fun{Name: "html." + name, Doc: doc, Native: impl}))
	}
	def("htmltext", "htmltext(s) marks s as already-escaped markup.", htmlHtmltext)
	def("escape", "escape(v) escapes v into markup.", htmlEscape)
	def("TemplateIO", "TemplateIO(html) returns a fresh output accumulator.", htmlTemplateIO)
	def("join", "join(part...) concatenates parts, escaping plain strings.", htmlJoin)
	def("format", "format(v, conv?, spec?) formats one substitution, escaped.", htmlFormat)
	def("tag", "tag(name, attrs?) builds an open tag with escaped attributes.", htmlTag)
	def("href", "href(url, text, title?) builds an anchor element.", htmlHref)
	def("nl2br", "nl2br(v) escapes v and turns newlines into <br />.", htmlNl2br)
	def("urlQuote", "urlQuote(s, safe?) percent-encodes s for use in a URL.", htmlURLQuote)
	return ModuleVal(m)
}

func htmlHtmltext(ip *Interpreter, args []Value) Value {
	wantArgs("htmltext", args, 1)
	return Html(NewHtmlText(valueToAny(args[0])))
}

func htmlEscape(ip *Interpreter, args []Value) Value {
	wantArgs("escape", args, 1)
	return Html(Escape(valueToAny(args[0])))
}

func htmlTemplateIO(ip *Interpreter, args []Value) Value {
	wantArgs("TemplateIO", args, 1)
	if args[0].Tag != VTBool {
		return throwf("TypeError", "TemplateIO takes a bool, got %s", tagName(args[0].Tag))
	}
	return Output(NewTemplateIO(args[0].Data.(bool)))
}

func htmlJoin(ip *Interpreter, args []Value) Value {
	parts := make([]any, 0, len(args))
	for _, a := range args {
		parts = append(parts, valueToAny(a))
	}
	h, err := JoinParts(parts...)
	if err != nil {
		return throwf("TypeError", "%s", err.Error())
	}
	return Html(h)
}

func htmlFormat(ip *Interpreter, args []Value) Value {
	if len(args) < 1 || len(args) > 3 {
		return throwf("TypeError", "format takes 1 to 3 arguments, got %d", len(args))
	}
	conv, spec := "", ""
	if len(args) > 1 {
		conv = needStr(args[1])
	}
	if len(args) > 2 {
		spec = needStr(args[2])
	}
	h, err := FormatPart(valueToAny(args[0]), conv, spec)
	if err != nil {
		return throwf("ValueError", "%s", err.Error())
	}
	return Html(h)
}

// htmlTag builds `<name k="v" ...>`; a null attribute value renders the bare
// attribute name. Attribute order follows the literal when given a map.
func htmlTag(ip *Interpreter, args []Value) Value {
	if len(args) < 1 || len(args) > 2 {
		return throwf("TypeError", "tag takes 1 or 2 arguments, got %d", len(args))
	}
	name := needStr(args[0])
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	if len(args) == 2 {
		if args[1].Tag != VTMap {
			return throwf("TypeError", "tag attributes must be a map, got %s", tagName(args[1].Tag))
		}
		mo := args[1].Data.(*MapObject)
		for _, k := range mo.Keys {
			v := mo.Items[k]
			b.WriteByte(' ')
			b.WriteString(k)
			if v.Tag == VTNull {
				continue
			}
			b.WriteString(`="`)
			b.WriteString(Escape(valueToAny(v)).String())
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')
	return Html(HtmlText{s: b.String()})
}

func htmlHref(ip *Interpreter, args []Value) Value {
	if len(args) < 2 || len(args) > 3 {
		return throwf("TypeError", "href takes 2 or 3 arguments, got %d", len(args))
	}
	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(Escape(valueToAny(args[0])).String())
	b.WriteByte('"')
	if len(args) == 3 && args[2].Tag != VTNull {
		b.WriteString(` title="`)
		b.WriteString(Escape(valueToAny(args[2])).String())
		b.WriteByte('"')
	}
	b.WriteByte('>')
	b.WriteString(Escape(valueToAny(args[1])).String())
	b.WriteString("</a>")
	return Html(HtmlText{s: b.String()})
}

func htmlNl2br(ip *Interpreter, args []Value) Value {
	wantArgs("nl2br", args, 1)
	escaped := Escape(valueToAny(args[0])).String()
	return Html(HtmlText{s: strings.ReplaceAll(escaped, "\n", "<br />\n")})
}

// htmlURLQuote percent-encodes everything outside the unreserved set plus
// the caller's safe characters ("/" when not given).
func htmlURLQuote(ip *Interpreter, args []Value) Value {
	if len(args) < 1 || len(args) > 2 {
		return throwf("TypeError", "urlQuote takes 1 or 2 arguments, got %d", len(args))
	}
	s := needStr(args[0])
	safe := "/"
	if len(args) == 2 {
		safe = needStr(args[1])
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURLUnreserved(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return Str(b.String())
}

func isURLUnreserved(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_' || c == '.' || c == '~'
}
