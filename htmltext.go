// htmltext.go: the escaped-HTML string type and the template output buffer.
//
// WHAT THIS MODULE DOES
// =====================
// This file is the runtime half of the template compiler: the values that
// compiled template code manipulates at execution time.
//
//   - HtmlText: an immutable wrapper tagging a string as "already escaped".
//     Concatenation, repetition, joining, %-style formatting, prefix/suffix
//     tests and replacement all preserve the tag and escape any plain-string
//     operands exactly once.
//   - Escape: the canonical escaping function. Already-escaped input is
//     returned unchanged; anything else is stringified and has the five
//     markup-significant characters replaced by entities (ampersand first,
//     so freshly inserted entities are never re-escaped).
//   - TemplateIO: the per-invocation output accumulator that compiled
//     template functions append to. Appending nil is a no-op; escaping is
//     deferred to GetValue so later HtmlText appends are never double-escaped.
//   - JoinParts / FormatPart: helpers the AST transformer compiles escaped
//     interpolated strings into (see transform.go).
//
// Everything here is a pure value type: no shared state, no synchronization.
// A TemplateIO belongs to exactly one template-function call frame.
//
// DEPENDENCIES
// ============
// None within the package. transform.go emits calls that reach these types
// through the "html" builtin module (runtime.go); interpreter.go bridges them
// to the VTHtml/VTOutput value tags.
package hscript

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// HtmlText is a string known not to require further escaping. The zero value
// is the empty escaped string. Instances are immutable; every operation
// returns a new value.
type HtmlText struct {
	s string
}

// NewHtmlText wraps the stringified form of v without escaping it. This is
// the trusted constructor: the caller asserts the content is already safe.
func NewHtmlText(v any) HtmlText { return HtmlText{Stringify(v)} }

// String returns the raw (already escaped) text.
func (h HtmlText) String() string { return h.s }

// Len returns the length of the underlying text in bytes.
func (h HtmlText) Len() int { return len(h.s) }

// Equal compares against another HtmlText or a plain string by raw text.
func (h HtmlText) Equal(other any) bool {
	switch o := other.(type) {
	case HtmlText:
		return h.s == o.s
	case string:
		return h.s == o
	default:
		return false
	}
}

// Add concatenates. An HtmlText operand is appended verbatim; a plain string
// operand is escaped first; anything else is a type error.
func (h HtmlText) Add(other any) (HtmlText, error) {
	switch o := other.(type) {
	case HtmlText:
		return HtmlText{h.s + o.s}, nil
	case string:
		return HtmlText{h.s + EscapeString(o)}, nil
	default:
		return HtmlText{}, fmt.Errorf("cannot concatenate htmltext with %T", other)
	}
}

// RAdd concatenates with h on the right-hand side (plain + htmltext).
func (h HtmlText) RAdd(other any) (HtmlText, error) {
	switch o := other.(type) {
	case HtmlText:
		return HtmlText{o.s + h.s}, nil
	case string:
		return HtmlText{EscapeString(o) + h.s}, nil
	default:
		return HtmlText{}, fmt.Errorf("cannot concatenate %T with htmltext", other)
	}
}

// Repeat returns the text repeated n times (empty for n <= 0).
func (h HtmlText) Repeat(n int) HtmlText {
	if n <= 0 {
		return HtmlText{}
	}
	return HtmlText{strings.Repeat(h.s, n)}
}

// Join concatenates items with h as the separator. HtmlText items are used
// verbatim, plain strings are escaped, anything else is a type error.
func (h HtmlText) Join(items []any) (HtmlText, error) {
	quoted := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case HtmlText:
			quoted = append(quoted, v.s)
		case string:
			quoted = append(quoted, EscapeString(v))
		default:
			return HtmlText{}, fmt.Errorf("join() requires string arguments, got %T", it)
		}
	}
	return HtmlText{strings.Join(quoted, h.s)}, nil
}

// StartsWith reports whether the text begins with s (escaped if plain).
func (h HtmlText) StartsWith(s any) (bool, error) {
	p, err := escapedOperand(s)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(h.s, p), nil
}

// EndsWith reports whether the text ends with s (escaped if plain).
func (h HtmlText) EndsWith(s any) (bool, error) {
	p, err := escapedOperand(s)
	if err != nil {
		return false, err
	}
	return strings.HasSuffix(h.s, p), nil
}

// Replace substitutes occurrences of old with new, escaping plain operands.
func (h HtmlText) Replace(old, new any) (HtmlText, error) {
	o, err := escapedOperand(old)
	if err != nil {
		return HtmlText{}, err
	}
	n, err := escapedOperand(new)
	if err != nil {
		return HtmlText{}, err
	}
	return HtmlText{strings.ReplaceAll(h.s, o, n)}, nil
}

// Lower returns a lower-cased copy, keeping the escaped tag.
func (h HtmlText) Lower() HtmlText { return HtmlText{strings.ToLower(h.s)} }

// Upper returns an upper-cased copy, keeping the escaped tag.
func (h HtmlText) Upper() HtmlText { return HtmlText{strings.ToUpper(h.s)} }

// Capitalize upper-cases the first rune and lower-cases the rest.
func (h HtmlText) Capitalize() HtmlText {
	if h.s == "" {
		return h
	}
	r, n := utf8.DecodeRuneInString(h.s)
	return HtmlText{strings.ToUpper(string(r)) + strings.ToLower(h.s[n:])}
}

// Format performs %-style substitution on the text. Every substituted value
// is escaped unless it is already an HtmlText.
func (h HtmlText) Format(args ...any) HtmlText {
	wrapped := make([]any, len(args))
	for i, a := range args {
		wrapped[i] = wrapArg(a)
	}
	return HtmlText{fmt.Sprintf(h.s, wrapped...)}
}

// Escape returns v as HtmlText. HtmlText input is returned unchanged;
// everything else is stringified and entity-escaped.
func Escape(v any) HtmlText {
	if h, ok := v.(HtmlText); ok {
		return h
	}
	return HtmlText{EscapeString(Stringify(v))}
}

// EscapeString entity-escapes the five markup-significant characters.
// The ampersand must be replaced first so the entities inserted for the other
// four characters are not themselves re-escaped.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}

// Stringify renders a runtime fragment as plain text. nil renders empty.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case HtmlText:
		return x.s
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// TemplateIO collects output fragments for one template-function invocation.
// Escaping is applied only at GetValue time: fragments are retained verbatim
// so that an HtmlText appended later is never escaped a second time.
type TemplateIO struct {
	html bool
	data []any
}

// NewTemplateIO returns an accumulator. html selects escaped-output mode.
func NewTemplateIO(html bool) *TemplateIO {
	return &TemplateIO{html: html}
}

// Append adds a fragment. A nil fragment is ignored.
func (t *TemplateIO) Append(v any) {
	if v == nil {
		return
	}
	t.data = append(t.data, v)
}

// Len returns the number of retained fragments.
func (t *TemplateIO) Len() int { return len(t.data) }

// GetValue joins the fragments. In escaped mode every fragment passes through
// Escape and the result is an HtmlText; in plain mode fragments are
// stringified and the result is a plain string. Idempotent: the fragment
// sequence is never mutated.
func (t *TemplateIO) GetValue() any {
	if t.html {
		var b strings.Builder
		for _, v := range t.data {
			b.WriteString(Escape(v).s)
		}
		return HtmlText{b.String()}
	}
	var b strings.Builder
	for _, v := range t.data {
		b.WriteString(Stringify(v))
	}
	return b.String()
}

// String renders the joined value as plain text.
func (t *TemplateIO) String() string { return Stringify(t.GetValue()) }

// JoinParts concatenates the parts of an escaped interpolated string.
// The transformer guarantees every part is HtmlText or a plain string.
func JoinParts(parts ...any) (HtmlText, error) {
	return HtmlText{}.Join(parts)
}

// FormatPart renders one {…} substitution of an escaped interpolated string.
// conv is "" (default), "r" (source-form) or "s" (stringify); spec is the
// format mini-language suffix, possibly empty. The result is always escaped
// unless the value was already HtmlText and no formatting applied.
func FormatPart(v any, conv, spec string) (HtmlText, error) {
	if conv == "" && spec == "" {
		return Escape(v), nil
	}
	var text string
	switch conv {
	case "", "s":
		text = Stringify(v)
	case "r":
		text = sourceForm(v)
	default:
		return HtmlText{}, fmt.Errorf("invalid conversion %q", conv)
	}
	if spec != "" {
		formatted, err := applyFormatSpec(v, text, spec)
		if err != nil {
			return HtmlText{}, err
		}
		text = formatted
	}
	if _, ok := v.(HtmlText); ok && conv != "r" {
		return HtmlText{text}, nil
	}
	return HtmlText{EscapeString(text)}, nil
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: helpers
   =========================== */

// escapedOperand normalizes an HtmlText-or-string operand to raw escaped text.
func escapedOperand(v any) (string, error) {
	switch x := v.(type) {
	case HtmlText:
		return x.s, nil
	case string:
		return EscapeString(x), nil
	default:
		return "", fmt.Errorf("expected a string argument, got %T", v)
	}
}

// wrapArg prepares one %-format argument: escaped text for plain strings,
// raw text for HtmlText, numbers passed through so numeric verbs keep working.
func wrapArg(a any) any {
	switch x := a.(type) {
	case HtmlText:
		return x.s
	case string:
		return EscapeString(x)
	case int, int64, float64, bool:
		return x
	default:
		return EscapeString(Stringify(x))
	}
}

// sourceForm renders v the way it would be written in source ("!r").
func sourceForm(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case HtmlText:
		return strconv.Quote(x.s)
	default:
		return Stringify(v)
	}
}

// applyFormatSpec implements the subset of the format mini-language the
// interpolation syntax supports: [[fill]align][width][.precision][type]
// with align one of < > ^, and type one of d f e g x X s.
func applyFormatSpec(v any, text, spec string) (string, error) {
	fill := byte(' ')
	align := byte(0)
	i := 0
	if len(spec) >= 2 && (spec[1] == '<' || spec[1] == '>' || spec[1] == '^') {
		fill, align = spec[0], spec[1]
		i = 2
	} else if len(spec) >= 1 && (spec[0] == '<' || spec[0] == '>' || spec[0] == '^') {
		align = spec[0]
		i = 1
	}
	width := 0
	for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
		width = width*10 + int(spec[i]-'0')
		i++
	}
	prec := -1
	if i < len(spec) && spec[i] == '.' {
		i++
		prec = 0
		for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
			prec = prec*10 + int(spec[i]-'0')
			i++
		}
	}
	verb := byte(0)
	if i < len(spec) {
		verb = spec[i]
		i++
	}
	if i != len(spec) {
		return "", fmt.Errorf("invalid format spec %q", spec)
	}

	switch verb {
	case 0, 's':
		if prec >= 0 {
			if _, ok := v.(HtmlText); ok {
				text = truncateMarkup(text, prec)
			} else if prec < len(text) {
				text = text[:prec]
			}
		}
	case 'd':
		n, err := asInt(v)
		if err != nil {
			return "", err
		}
		text = strconv.FormatInt(n, 10)
	case 'x', 'X':
		n, err := asInt(v)
		if err != nil {
			return "", err
		}
		text = strconv.FormatInt(n, 16)
		if verb == 'X' {
			text = strings.ToUpper(text)
		}
	case 'f', 'e', 'g':
		f, err := asFloat(v)
		if err != nil {
			return "", err
		}
		p := prec
		if p < 0 {
			if verb == 'g' {
				p = -1
			} else {
				p = 6
			}
		}
		text = strconv.FormatFloat(f, verb, p, 64)
	default:
		return "", fmt.Errorf("unsupported format type %q", string(verb))
	}

	if width > len(text) {
		pad := strings.Repeat(string(fill), width-len(text))
		switch align {
		case '<':
			text = text + pad
		case '^':
			left := (width - len(text)) / 2
			text = strings.Repeat(string(fill), left) + text +
				strings.Repeat(string(fill), width-len(text)-left)
		default: // '>' and numeric default
			text = pad + text
		}
	}
	return text, nil
}

// truncateMarkup shortens escaped text to n visible characters. An entity
// reference counts as one character and is never cut through, so precision
// on escaped values cannot emit a stray bare ampersand.
func truncateMarkup(s string, n int) string {
	count := 0
	for i := 0; i < len(s); {
		if count == n {
			return s[:i]
		}
		if s[i] == '&' {
			if j := strings.IndexByte(s[i:], ';'); j >= 0 {
				i += j + 1
			} else {
				i++
			}
		} else {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
		}
		count++
	}
	return s
}

func asInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("format type 'd' requires a number, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("numeric format requires a number, got %T", v)
	}
}
