// errors.go: user-facing error wrapping and caret-snippet rendering.
//
// OVERVIEW
// --------
// Turns low-level diagnostics into readable error snippets with a caret
// under the offending column:
//
//	PARSE ERROR in page.hsl at 3:12: unexpected token ')'
//
//	   2 | let x = (1 + 2
//	   3 |              )
//	       |            ^
//	   4 | end
//
// The entry point WrapErrorWithName recognizes *LexError (lexer.go),
// *SyntaxError (declared here, produced by the token translator),
// *ParseError (parser.go) and *RuntimeError (interpreter.go); anything else
// passes through unchanged. Output is plain text, no ANSI escapes.
//
// Line is 1-based everywhere. Lex/translate/parse Col is 0-based and rendered
// as 1-based; RuntimeError carries no position and renders without a snippet.
package hscript

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// SyntaxError is a structural error raised by the token translator, e.g. a
// malformed template header or a reserved marker appearing in source text.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SYNTAX ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err indicates truncated rather than invalid
// input. The REPL uses it to decide between a continuation prompt and an
// error.
func IsIncomplete(err error) bool {
	switch e := err.(type) {
	case *LexError:
		return strings.Contains(e.Msg, "not terminated")
	case *ParseError:
		return strings.Contains(e.Msg, "end of input")
	default:
		return false
	}
}

// WrapErrorWithSource renders err against src with a name-less header.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName returns an error whose message is a caret-annotated
// snippet of src, headed with srcName when non-empty. Errors it does not
// recognize are returned untouched.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *SyntaxError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "SYNTAX ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *RuntimeError:
		if srcName != "" {
			return fmt.Errorf("RUNTIME ERROR in %s: %s", srcName, e.Msg)
		}
		return fmt.Errorf("RUNTIME ERROR: %s", e.Msg)
	default:
		return err
	}
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: rendering
   =========================== */

// prettyErrorStringLabeled builds the snippet: header line, one line of
// context on each side when available, caret under the 1-based column.
// Coordinates are clamped to the source bounds so rendering never panics.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
