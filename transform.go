// transform.go: AST rewrite that turns template functions into accumulator code.
//
// OVERVIEW
// --------
// Runs between the parser and the evaluator. It rewrites the S-expression
// tree so that template functions (funs carrying a "template:html" or
// "template:plain" annotation, whether written directly or produced by
// translate.go from the bracket header form) collect their output instead of
// discarding it:
//
//	# template:html
//	let greet = fun(name) do
//	    "<p>"
//	    name
//	    "</p>"
//	end
//
// becomes, in effect,
//
//	let greet = fun(name) do
//	    let _h_out = _h_html.TemplateIO(true)
//	    _h_out(_h_html.htmltext("<p>"))
//	    _h_out(name)
//	    _h_out(_h_html.htmltext("</p>"))
//	    return(_h_out.getvalue())
//	end
//
// with `let _h_html = import("html")` prepended to the module when anything
// was rewritten. The names _h_html and _h_out are not legal identifiers a
// user can collide with accidentally, only deliberately.
//
// Rewrite rules, applied with an explicit template-kind stack so nested
// functions restore the enclosing state:
//
//   - Inside a template body, every bare expression statement is routed
//     through the accumulator: expr → _h_out(expr). let / assign / control
//     statements keep their statement meaning; their nested blocks are
//     routed too, but nested fun bodies are not unless they declare their
//     own template kind.
//   - A string constant carrying the h-string marker, or any string constant
//     inside an html template, is stripped of the marker and wrapped in
//     _h_html.htmltext(...): it reaches the output pre-escaped.
//   - An interpolated string that is marked (F"...") or that appears inside
//     an html template is lowered to _h_html.join(...): literal parts become
//     htmltext constants (marker-only empties are dropped), substitutions
//     become _h_html.format(value[, conv[, spec]]) calls. Plain f"..."
//     outside html templates is left for the evaluator to concatenate.
//   - The annotation wrapper itself is preserved, so template functions keep
//     their documentation text like any other annotated value.
//
// The transform is pure: it never mutates its input nodes and holds no state
// between calls, so a single transformer is safe to reuse across modules.
package hscript

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// Transform rewrites a parsed module so template functions accumulate their
// output. Non-template code passes through structurally unchanged.
func Transform(mod S) (S, error) {
	t := &transformer{}
	out, err := t.node(mod, "")
	if err != nil {
		return nil, err
	}
	if t.usedHTML && Tag(out) == "block" {
		stmts := out[1:]
		pro := L("let", L("decl", htmlModuleVar),
			L("call", L("id", "import"), L("str", "html")))
		out = append(L("block", pro), stmts...)
	}
	return out, nil
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: transformer
   =========================== */

const (
	htmlModuleVar = "_h_html"
	outputVar     = "_h_out"
)

type transformer struct {
	usedHTML bool
}

// htmlCall builds _h_html.<name>(args...).
func (t *transformer) htmlCall(name string, args ...any) S {
	t.usedHTML = true
	call := L("call", L("get", L("id", htmlModuleVar), L("str", name)))
	return append(call, args...)
}

// node transforms a single node. kind is the enclosing template kind: "" when
// outside any template, otherwise TemplateKindHTML or TemplateKindPlain.
func (t *transformer) node(n S, kind string) (S, error) {
	switch Tag(n) {
	case "annot":
		return t.annot(n, kind)
	case "fun":
		// A fun without a template annotation leaves template scope.
		return t.fun(n, "")
	case "str":
		return t.str(n, kind), nil
	case "fstr":
		return t.fstr(n, kind)
	case "get":
		// The property name is metadata, not a value expression.
		obj, err := t.node(n[1].(S), kind)
		if err != nil {
			return nil, err
		}
		return L("get", obj, n[2]), nil
	case "map":
		out := L("map")
		for _, c := range n[1:] {
			pair, ok := c.(S)
			if !ok || len(pair) != 3 {
				return nil, fmt.Errorf("malformed map node")
			}
			// Keys are metadata: never wrapped, but an h"..." key still
			// carries the marker and must not reach the runtime with it.
			key := pair[1]
			if kn, ok := key.(S); ok && Tag(kn) == "str" {
				if s, _ := kn[1].(string); strings.HasPrefix(s, HStringMarker) {
					key = L("str", strings.TrimPrefix(s, HStringMarker))
				}
			}
			v, err := t.node(pair[2].(S), kind)
			if err != nil {
				return nil, err
			}
			out = append(out, L("pair", key, v))
		}
		return out, nil
	case "fmt":
		// Only the substituted expression is code; conv/spec stay literal.
		expr, err := t.node(n[1].(S), kind)
		if err != nil {
			return nil, err
		}
		out := L("fmt", expr)
		for _, extra := range n[2:] {
			out = append(out, extra)
		}
		return out, nil
	default:
		return t.mapChildren(n, kind)
	}
}

// annot handles annotation wrappers; the template:<kind> ones declare
// template functions, everything else is ordinary documentation.
func (t *transformer) annot(n S, kind string) (S, error) {
	if len(n) != 3 {
		return nil, fmt.Errorf("malformed annotation node")
	}
	textNode, _ := n[1].(S)
	text, _ := textNode[1].(string)
	inner, ok := n[2].(S)
	if !ok {
		return nil, fmt.Errorf("malformed annotation node")
	}
	if strings.HasPrefix(text, templateAnnotPrefix) && Tag(inner) == "fun" {
		tk := text[len(templateAnnotPrefix):]
		if tk != TemplateKindHTML && tk != TemplateKindPlain {
			return nil, &SyntaxError{Msg: fmt.Sprintf("unknown template kind %q", tk)}
		}
		fn, err := t.fun(inner, tk)
		if err != nil {
			return nil, err
		}
		return L("annot", L("str", text), fn), nil
	}
	body, err := t.node(inner, kind)
	if err != nil {
		return nil, err
	}
	return L("annot", L("str", text), body), nil
}

// fun transforms a function literal. kind is "" for ordinary functions and
// the template kind for template functions, whose bodies gain the
// accumulator prologue, statement routing, and the getvalue return.
func (t *transformer) fun(n S, kind string) (S, error) {
	if len(n) != 3 {
		return nil, fmt.Errorf("malformed fun node")
	}
	params := n[1]
	body, ok := n[2].(S)
	if !ok || Tag(body) != "block" {
		return nil, fmt.Errorf("malformed fun body")
	}
	if kind == "" {
		nb, err := t.mapChildren(body, "")
		if err != nil {
			return nil, err
		}
		return L("fun", params, nb), nil
	}

	nb := L("block",
		L("let", L("decl", outputVar),
			t.htmlCall("TemplateIO", L("bool", kind == TemplateKindHTML))))
	for _, c := range body[1:] {
		stmt, ok := c.(S)
		if !ok {
			return nil, fmt.Errorf("malformed statement in fun body")
		}
		out, err := t.statement(stmt, kind)
		if err != nil {
			return nil, err
		}
		nb = append(nb, out)
	}
	nb = append(nb, L("return",
		L("call", L("get", L("id", outputVar), L("str", "getvalue")))))
	return L("fun", params, nb), nil
}

// statement transforms one statement inside a template body: expression
// statements are routed through the accumulator, structured statements keep
// their meaning but have their blocks routed.
func (t *transformer) statement(n S, kind string) (S, error) {
	switch Tag(n) {
	case "let", "assign", "return", "break", "continue":
		return t.mapChildren(n, kind)
	case "if":
		out := L("if")
		for _, c := range n[1:] {
			arm, ok := c.(S)
			if !ok {
				return nil, fmt.Errorf("malformed if node")
			}
			if Tag(arm) == "pair" {
				cond, err := t.node(arm[1].(S), kind)
				if err != nil {
					return nil, err
				}
				blk, err := t.routedBlock(arm[2].(S), kind)
				if err != nil {
					return nil, err
				}
				out = append(out, L("pair", cond, blk))
			} else {
				blk, err := t.routedBlock(arm, kind)
				if err != nil {
					return nil, err
				}
				out = append(out, blk)
			}
		}
		return out, nil
	case "while":
		cond, err := t.node(n[1].(S), kind)
		if err != nil {
			return nil, err
		}
		blk, err := t.routedBlock(n[2].(S), kind)
		if err != nil {
			return nil, err
		}
		return L("while", cond, blk), nil
	case "for":
		iter, err := t.node(n[2].(S), kind)
		if err != nil {
			return nil, err
		}
		blk, err := t.routedBlock(n[3].(S), kind)
		if err != nil {
			return nil, err
		}
		return L("for", n[1], iter, blk), nil
	case "annot":
		// template:<kind> annotations declare nested templates; anything
		// else at statement position is a documented expression statement.
		if len(n) == 3 {
			if tn, ok := n[1].(S); ok {
				if text, _ := tn[1].(string); strings.HasPrefix(text, templateAnnotPrefix) {
					return t.annot(n, kind)
				}
			}
		}
		fallthrough
	default:
		expr, err := t.node(n, kind)
		if err != nil {
			return nil, err
		}
		return L("call", L("id", outputVar), expr), nil
	}
}

// routedBlock applies statement routing to every statement of a block.
func (t *transformer) routedBlock(blk S, kind string) (S, error) {
	if Tag(blk) != "block" {
		return nil, fmt.Errorf("malformed block node")
	}
	out := L("block")
	for _, c := range blk[1:] {
		stmt, ok := c.(S)
		if !ok {
			return nil, fmt.Errorf("malformed statement in block")
		}
		s, err := t.statement(stmt, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// str wraps marked string constants, and all string constants inside html
// templates, in _h_html.htmltext(...).
func (t *transformer) str(n S, kind string) S {
	s, _ := n[1].(string)
	marked := strings.HasPrefix(s, HStringMarker)
	if marked {
		s = strings.TrimPrefix(s, HStringMarker)
	}
	if marked || kind == TemplateKindHTML {
		return t.htmlCall("htmltext", L("str", s))
	}
	return n
}

// fstr lowers an interpolated string. Marked literals (F"...") and any
// interpolation inside an html template become a join/format call chain;
// plain f"..." stays an fstr node for the evaluator.
func (t *transformer) fstr(n S, kind string) (S, error) {
	marked := kind == TemplateKindHTML
	for _, c := range n[1:] {
		part, _ := c.(S)
		if Tag(part) == "str" {
			if s, _ := part[1].(string); strings.HasPrefix(s, HStringMarker) {
				marked = true
			}
		}
	}

	if !marked {
		return t.mapChildren(n, kind)
	}

	t.usedHTML = true
	join := L("call", L("get", L("id", htmlModuleVar), L("str", "join")))
	for _, c := range n[1:] {
		part, ok := c.(S)
		if !ok {
			return nil, fmt.Errorf("malformed interpolated string node")
		}
		switch Tag(part) {
		case "str":
			s, _ := part[1].(string)
			s = strings.TrimPrefix(s, HStringMarker)
			if s == "" {
				continue
			}
			join = append(join, t.htmlCall("htmltext", L("str", s)))
		case "fmt":
			expr, err := t.node(part[1].(S), kind)
			if err != nil {
				return nil, err
			}
			form := L("call", L("get", L("id", htmlModuleVar), L("str", "format")), expr)
			for _, extra := range part[2:] {
				form = append(form, extra)
			}
			join = append(join, form)
		default:
			return nil, fmt.Errorf("malformed interpolated string part %q", Tag(part))
		}
	}
	return join, nil
}

// mapChildren rebuilds n with every child S-node transformed, leaving scalar
// payloads (tags, names, literal values) in place.
func (t *transformer) mapChildren(n S, kind string) (S, error) {
	out := L(Tag(n))
	for _, c := range n[1:] {
		if child, ok := c.(S); ok {
			nc, err := t.node(child, kind)
			if err != nil {
				return nil, err
			}
			out = append(out, nc)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
