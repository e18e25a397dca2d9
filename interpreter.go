// interpreter.go: values, environments, and the tree-walking evaluator.
//
// OVERVIEW
// --------
// Executes the transformed S-expression AST (see transform.go). Values are
// tagged unions, environments form a lexical chain, and runtime failures
// travel as panics carrying *RuntimeError that the public Eval entry points
// recover into ordinary errors. Control flow (return/break/continue) uses the
// same panic channel with private sentinel types.
//
// The value model:
//
//	VTNull    nil
//	VTBool    bool
//	VTInt     int64
//	VTNum     float64
//	VTStr     string
//	VTHtml    HtmlText        (pre-escaped markup, htmltext.go)
//	VTOutput  *TemplateIO     (template accumulator; calling it appends)
//	VTArray   []Value
//	VTMap     *MapObject      (insertion-ordered)
//	VTFun     *Fun            (closure or native)
//	VTModule  *MapObject      (immutable attribute view)
//
// VTHtml participates in the operators: html + x escapes a string operand
// and rejects non-strings with a TypeError, html * n repeats, and equality
// against either strings or html compares the underlying text. This is what
// keeps template concatenation safe outside the accumulator path.
//
// DEPENDENCIES
// ------------
//   - htmltext.go: HtmlText, TemplateIO, escaping and format helpers.
//   - runtime.go: NewRuntime wires the builtins and the "html" module.
//   - compile.go: installs the file importer used by import("./x.hsl").
package hscript

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// ValueTag discriminates the runtime value union.
type ValueTag int

const (
	VTNull ValueTag = iota
	VTBool
	VTInt
	VTNum
	VTStr
	VTHtml
	VTOutput
	VTArray
	VTMap
	VTFun
	VTModule
)

// Value is a tagged runtime value. Data holds the Go payload matching Tag.
type Value struct {
	Tag  ValueTag
	Data any
}

// Null is the singleton null value.
var Null = Value{Tag: VTNull}

func Bool(b bool) Value        { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value        { return Value{Tag: VTInt, Data: n} }
func Num(f float64) Value      { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value       { return Value{Tag: VTStr, Data: s} }
func Html(h HtmlText) Value    { return Value{Tag: VTHtml, Data: h} }
func Output(t *TemplateIO) Value { return Value{Tag: VTOutput, Data: t} }
func Arr(xs []Value) Value     { return Value{Tag: VTArray, Data: xs} }
func FunVal(f *Fun) Value      { return Value{Tag: VTFun, Data: f} }

// MapObject is an insertion-ordered string-keyed map.
type MapObject struct {
	Keys  []string
	Items map[string]Value
}

func NewMapObject() *MapObject {
	return &MapObject{Items: make(map[string]Value)}
}

func (m *MapObject) Get(k string) (Value, bool) {
	v, ok := m.Items[k]
	return v, ok
}

func (m *MapObject) Set(k string, v Value) {
	if _, ok := m.Items[k]; !ok {
		m.Keys = append(m.Keys, k)
	}
	m.Items[k] = v
}

// Map wraps a MapObject into a VTMap value.
func Map(m *MapObject) Value { return Value{Tag: VTMap, Data: m} }

// ModuleVal wraps a MapObject into a VTModule value (read-only attributes).
func ModuleVal(m *MapObject) Value { return Value{Tag: VTModule, Data: m} }

// NativeImpl is the signature of built-in functions.
type NativeImpl func(ip *Interpreter, args []Value) Value

// Fun is a first-class function: either a user closure (Params/Body/Env) or
// a native builtin (Native set, Body nil).
type Fun struct {
	Name   string
	Params []string
	Body   S
	Env    *Env
	Doc    string
	Native NativeImpl
}

// Env is a lexical environment frame.
type Env struct {
	parent *Env
	table  map[string]Value
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, table: make(map[string]Value)}
}

// Define binds name in this frame, shadowing outer bindings.
func (e *Env) Define(name string, v Value) { e.table[name] = v }

// Set rebinds the nearest existing binding of name.
func (e *Env) Set(name string, v Value) error {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.table[name]; ok {
			s.table[name] = v
			return nil
		}
	}
	return fmt.Errorf("undefined variable %q", name)
}

// Get resolves name through the chain.
func (e *Env) Get(name string) (Value, error) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.table[name]; ok {
			return v, nil
		}
	}
	return Null, fmt.Errorf("undefined variable %q", name)
}

// RuntimeError is a runtime failure. Kind is a coarse category ("TypeError",
// "NameError", "IndexError", "ImportError", ...) used in the message.
type RuntimeError struct {
	Kind string
	Msg  string
}

func (e *RuntimeError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("RUNTIME ERROR: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("RUNTIME ERROR: %s", e.Msg)
}

// Interpreter executes transformed ASTs against a global environment.
type Interpreter struct {
	Globals *Env

	// builtinModules maps import("name") targets bundled with the runtime.
	builtinModules map[string]Value

	// FileImporter resolves import("./path.hsl") targets. Installed by the
	// compile driver; nil means file imports are unavailable.
	FileImporter func(ip *Interpreter, path string) (Value, error)
}

// NewInterpreter returns a bare interpreter with an empty global scope.
// Most callers want NewRuntime (runtime.go), which also wires builtins.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		Globals:        NewEnv(nil),
		builtinModules: make(map[string]Value),
	}
}

// EvalSource translates, parses, transforms and evaluates src in the global
// scope. Errors are rendered with a caret snippet where a position exists.
func (ip *Interpreter) EvalSource(src string) (Value, error) {
	toks, err := Translate(src)
	if err != nil {
		return Null, WrapErrorWithSource(err, src)
	}
	ast, err := ParseTokens(toks)
	if err != nil {
		return Null, WrapErrorWithSource(err, src)
	}
	ast, err = Transform(ast)
	if err != nil {
		return Null, WrapErrorWithSource(err, src)
	}
	return ip.Eval(ast)
}

// Eval evaluates an already-transformed AST in the global scope, converting
// runtime panics into errors.
func (ip *Interpreter) Eval(root S) (Value, error) {
	return ip.EvalIn(root, ip.Globals)
}

// EvalIn evaluates root in an explicit environment.
func (ip *Interpreter) EvalIn(root S, env *Env) (out Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch sig := r.(type) {
			case *RuntimeError:
				out, err = Null, sig
			case returnSignal:
				out, err = Null, &RuntimeError{Msg: "return outside function"}
			case breakSignal:
				out, err = Null, &RuntimeError{Msg: "break outside loop"}
			case continueSignal:
				out, err = Null, &RuntimeError{Msg: "continue outside loop"}
			default:
				panic(r)
			}
		}
	}()
	return ip.eval(root, env), nil
}

// Apply calls a function value with the given arguments, converting runtime
// panics into errors. Used by hosts that invoke templates from Go.
func (ip *Interpreter) Apply(fn Value, args []Value) (out Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				out, err = Null, re
				return
			}
			panic(r)
		}
	}()
	return ip.call(fn, args), nil
}

// RegisterBuiltinModule makes a module value available to import(name).
func (ip *Interpreter) RegisterBuiltinModule(name string, mod Value) {
	ip.builtinModules[name] = mod
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: control-flow signals
   =========================== */

type returnSignal struct{ val Value }
type breakSignal struct{}
type continueSignal struct{}

func throwf(kind, format string, args ...any) Value {
	panic(&RuntimeError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

/* ===========================
   PRIVATE: evaluator
   =========================== */

func (ip *Interpreter) eval(n S, env *Env) Value {
	switch Tag(n) {
	case "block":
		var last Value = Null
		for _, c := range n[1:] {
			last = ip.eval(c.(S), env)
		}
		return last

	case "null":
		return Null
	case "bool":
		return Bool(n[1].(bool))
	case "int":
		return Int(n[1].(int64))
	case "num":
		return Num(n[1].(float64))
	case "str":
		return Str(n[1].(string))
	case "id":
		v, err := env.Get(n[1].(string))
		if err != nil {
			return throwf("NameError", "%s", err.Error())
		}
		return v

	case "fstr":
		return ip.evalFstr(n, env)
	case "array":
		xs := make([]Value, 0, len(n)-1)
		for _, c := range n[1:] {
			xs = append(xs, ip.eval(c.(S), env))
		}
		return Arr(xs)
	case "map":
		m := NewMapObject()
		for _, c := range n[1:] {
			pair := c.(S)
			key := pair[1].(S)[1].(string)
			m.Set(key, ip.eval(pair[2].(S), env))
		}
		return Map(m)

	case "let":
		name := n[1].(S)[1].(string)
		v := ip.eval(n[2].(S), env)
		env.Define(name, v)
		return v
	case "assign":
		return ip.evalAssign(n, env)
	case "annot":
		doc := n[1].(S)[1].(string)
		v := ip.eval(n[2].(S), env)
		// template:* wrappers mark template functions; they are not
		// documentation.
		if v.Tag == VTFun && !strings.HasPrefix(doc, templateAnnotPrefix) {
			if f, ok := v.Data.(*Fun); ok && f.Doc == "" {
				f.Doc = doc
			}
		}
		return v

	case "fun":
		params := n[1].(S)
		names := make([]string, 0, len(params)-1)
		for _, p := range params[1:] {
			names = append(names, p.(string))
		}
		return FunVal(&Fun{Params: names, Body: n[2].(S), Env: env})

	case "call":
		fn := ip.eval(n[1].(S), env)
		args := make([]Value, 0, len(n)-2)
		for _, c := range n[2:] {
			args = append(args, ip.eval(c.(S), env))
		}
		return ip.call(fn, args)
	case "get":
		obj := ip.eval(n[1].(S), env)
		name := n[2].(S)[1].(string)
		return ip.getProp(obj, name)
	case "idx":
		obj := ip.eval(n[1].(S), env)
		idx := ip.eval(n[2].(S), env)
		return ip.index(obj, idx)

	case "binop":
		return ip.evalBinop(n, env)
	case "unop":
		return ip.evalUnop(n, env)

	case "if":
		for _, c := range n[1:] {
			arm := c.(S)
			if Tag(arm) == "pair" {
				if truthy(ip.eval(arm[1].(S), env)) {
					return ip.eval(arm[2].(S), NewEnv(env))
				}
				continue
			}
			return ip.eval(arm, NewEnv(env)) // else block
		}
		return Null
	case "while":
		ip.runLoop(func() {
			for truthy(ip.eval(n[1].(S), env)) {
				ip.runLoopBody(n[2].(S), NewEnv(env))
			}
		})
		return Null
	case "for":
		name := n[1].(S)[1].(string)
		iter := ip.eval(n[2].(S), env)
		ip.runLoop(func() {
			for _, item := range iterate(iter) {
				scope := NewEnv(env)
				scope.Define(name, item)
				ip.runLoopBody(n[3].(S), scope)
			}
		})
		return Null

	case "return":
		panic(returnSignal{val: ip.eval(n[1].(S), env)})
	case "break":
		panic(breakSignal{})
	case "continue":
		panic(continueSignal{})

	default:
		return throwf("", "cannot evaluate node %q", Tag(n))
	}
}

// runLoop runs a whole loop, absorbing a break signal thrown from any
// iteration.
func (ip *Interpreter) runLoop(body func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(breakSignal); ok {
				return
			}
			panic(r)
		}
	}()
	body()
}

// runLoopBody executes one iteration, absorbing a continue signal. break
// passes through to runLoop.
func (ip *Interpreter) runLoopBody(body S, scope *Env) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(continueSignal); ok {
				return
			}
			panic(r)
		}
	}()
	ip.eval(body, scope)
}

func (ip *Interpreter) evalAssign(n S, env *Env) Value {
	target := n[1].(S)
	v := ip.eval(n[2].(S), env)
	switch Tag(target) {
	case "id":
		if err := env.Set(target[1].(string), v); err != nil {
			return throwf("NameError", "%s", err.Error())
		}
	case "get":
		obj := ip.eval(target[1].(S), env)
		name := target[2].(S)[1].(string)
		mo, ok := obj.Data.(*MapObject)
		if !ok || obj.Tag != VTMap {
			return throwf("TypeError", "cannot set property %q on %s", name, tagName(obj.Tag))
		}
		mo.Set(name, v)
	case "idx":
		obj := ip.eval(target[1].(S), env)
		idx := ip.eval(target[2].(S), env)
		ip.setIndex(obj, idx, v)
	}
	return v
}

func (ip *Interpreter) evalFstr(n S, env *Env) Value {
	var b strings.Builder
	for _, c := range n[1:] {
		part := c.(S)
		switch Tag(part) {
		case "str":
			b.WriteString(part[1].(string))
		case "fmt":
			v := ip.eval(part[1].(S), env)
			conv, spec := "", ""
			if len(part) > 2 {
				conv = part[2].(S)[1].(string)
			}
			if len(part) > 3 {
				spec = part[3].(S)[1].(string)
			}
			a := valueToAny(v)
			var text string
			if conv == "r" {
				text = sourceForm(a)
			} else {
				text = Stringify(a)
			}
			if spec != "" {
				t, err := applyFormatSpec(a, text, spec)
				if err != nil {
					return throwf("ValueError", "%s", err.Error())
				}
				text = t
			}
			b.WriteString(text)
		}
	}
	return Str(b.String())
}

/* ===========================
   PRIVATE: calls & properties
   =========================== */

// call invokes fn. VTOutput values are callable: calling the accumulator
// appends the argument (null appends nothing) and returns null.
func (ip *Interpreter) call(fn Value, args []Value) Value {
	switch fn.Tag {
	case VTFun:
		f := fn.Data.(*Fun)
		if f.Native != nil {
			return f.Native(ip, args)
		}
		if len(args) != len(f.Params) {
			return throwf("TypeError", "%s takes %d argument(s), got %d",
				funLabel(f), len(f.Params), len(args))
		}
		scope := NewEnv(f.Env)
		for i, p := range f.Params {
			scope.Define(p, args[i])
		}
		return ip.execBody(f.Body, scope)
	case VTOutput:
		t := fn.Data.(*TemplateIO)
		if len(args) != 1 {
			return throwf("TypeError", "output accumulator takes 1 argument, got %d", len(args))
		}
		t.Append(valueToAny(args[0]))
		return Null
	default:
		return throwf("TypeError", "%s is not callable", tagName(fn.Tag))
	}
}

// execBody runs a function body, turning a return signal into the value.
func (ip *Interpreter) execBody(body S, scope *Env) (out Value) {
	defer func() {
		if r := recover(); r != nil {
			if sig, ok := r.(returnSignal); ok {
				out = sig.val
				return
			}
			panic(r)
		}
	}()
	return ip.eval(body, scope)
}

func (ip *Interpreter) getProp(obj Value, name string) Value {
	switch obj.Tag {
	case VTMap, VTModule:
		mo := obj.Data.(*MapObject)
		if v, ok := mo.Get(name); ok {
			return v
		}
		return throwf("NameError", "no attribute %q", name)
	case VTHtml:
		return htmlProp(obj.Data.(HtmlText), name)
	case VTStr:
		return strProp(obj.Data.(string), name)
	case VTOutput:
		t := obj.Data.(*TemplateIO)
		switch name {
		case "getvalue":
			return nativeFun("getvalue", func(ip *Interpreter, args []Value) Value {
				wantArgs("getvalue", args, 0)
				return anyToValue(t.GetValue())
			})
		case "len":
			return nativeFun("len", func(ip *Interpreter, args []Value) Value {
				wantArgs("len", args, 0)
				return Int(int64(t.Len()))
			})
		}
		return throwf("NameError", "no attribute %q", name)
	case VTFun:
		if name == "doc" {
			return Str(obj.Data.(*Fun).Doc)
		}
		return throwf("NameError", "no attribute %q", name)
	default:
		return throwf("TypeError", "%s has no attributes", tagName(obj.Tag))
	}
}

func (ip *Interpreter) index(obj, idx Value) Value {
	switch obj.Tag {
	case VTArray:
		xs := obj.Data.([]Value)
		i := needIndex(idx, len(xs))
		return xs[i]
	case VTMap:
		mo := obj.Data.(*MapObject)
		if idx.Tag != VTStr {
			return throwf("TypeError", "map keys are strings, got %s", tagName(idx.Tag))
		}
		if v, ok := mo.Get(idx.Data.(string)); ok {
			return v
		}
		return throwf("IndexError", "missing key %q", idx.Data.(string))
	case VTStr:
		rs := []rune(obj.Data.(string))
		i := needIndex(idx, len(rs))
		return Str(string(rs[i]))
	case VTHtml:
		h := obj.Data.(HtmlText)
		rs := []rune(h.String())
		i := needIndex(idx, len(rs))
		return Html(HtmlText{s: string(rs[i])})
	default:
		return throwf("TypeError", "%s is not indexable", tagName(obj.Tag))
	}
}

func (ip *Interpreter) setIndex(obj, idx, v Value) {
	switch obj.Tag {
	case VTArray:
		xs := obj.Data.([]Value)
		i := needIndex(idx, len(xs))
		xs[i] = v
	case VTMap:
		if idx.Tag != VTStr {
			throwf("TypeError", "map keys are strings, got %s", tagName(idx.Tag))
		}
		obj.Data.(*MapObject).Set(idx.Data.(string), v)
	default:
		throwf("TypeError", "%s does not support item assignment", tagName(obj.Tag))
	}
}

// needIndex checks an index value against length, supporting negative
// offsets from the end.
func needIndex(idx Value, length int) int {
	if idx.Tag != VTInt {
		throwf("TypeError", "index must be an integer, got %s", tagName(idx.Tag))
	}
	i := int(idx.Data.(int64))
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		throwf("IndexError", "index %d out of range (length %d)", idx.Data.(int64), length)
	}
	return i
}

/* ===========================
   PRIVATE: operators
   =========================== */

func (ip *Interpreter) evalBinop(n S, env *Env) Value {
	op := n[1].(string)
	l := ip.eval(n[2].(S), env)

	// Short-circuit forms evaluate the right side lazily.
	switch op {
	case "and":
		if !truthy(l) {
			return l
		}
		return ip.eval(n[3].(S), env)
	case "or":
		if truthy(l) {
			return l
		}
		return ip.eval(n[3].(S), env)
	}

	r := ip.eval(n[3].(S), env)
	switch op {
	case "+":
		return addValues(l, r)
	case "-", "*", "/", "%":
		return arith(op, l, r)
	case "==":
		return Bool(valuesEqual(l, r))
	case "!=":
		return Bool(!valuesEqual(l, r))
	case "<", "<=", ">", ">=":
		return compare(op, l, r)
	default:
		return throwf("", "unknown operator %q", op)
	}
}

func (ip *Interpreter) evalUnop(n S, env *Env) Value {
	op := n[1].(string)
	v := ip.eval(n[2].(S), env)
	switch op {
	case "-":
		switch v.Tag {
		case VTInt:
			return Int(-v.Data.(int64))
		case VTNum:
			return Num(-v.Data.(float64))
		}
		return throwf("TypeError", "cannot negate %s", tagName(v.Tag))
	case "not":
		return Bool(!truthy(v))
	default:
		return throwf("", "unknown operator %q", op)
	}
}

// addValues implements "+": numbers add, strings and arrays concatenate, and
// html concatenation escapes the plain side.
func addValues(l, r Value) Value {
	if l.Tag == VTHtml || r.Tag == VTHtml {
		return htmlAdd(l, r)
	}
	switch {
	case l.Tag == VTInt && r.Tag == VTInt:
		return Int(l.Data.(int64) + r.Data.(int64))
	case isNumeric(l) && isNumeric(r):
		return Num(toFloat(l) + toFloat(r))
	case l.Tag == VTStr && r.Tag == VTStr:
		return Str(l.Data.(string) + r.Data.(string))
	case l.Tag == VTArray && r.Tag == VTArray:
		ls, rs := l.Data.([]Value), r.Data.([]Value)
		out := make([]Value, 0, len(ls)+len(rs))
		out = append(out, ls...)
		out = append(out, rs...)
		return Arr(out)
	default:
		return throwf("TypeError", "cannot add %s and %s", tagName(l.Tag), tagName(r.Tag))
	}
}

func htmlAdd(l, r Value) Value {
	if l.Tag == VTHtml {
		h, err := l.Data.(HtmlText).Add(valueToAny(r))
		if err != nil {
			return throwf("TypeError", "%s", err.Error())
		}
		return Html(h)
	}
	h, err := r.Data.(HtmlText).RAdd(valueToAny(l))
	if err != nil {
		return throwf("TypeError", "%s", err.Error())
	}
	return Html(h)
}

func arith(op string, l, r Value) Value {
	// html * n and str * n repeat.
	if op == "*" {
		if l.Tag == VTHtml && r.Tag == VTInt {
			return Html(l.Data.(HtmlText).Repeat(int(r.Data.(int64))))
		}
		if l.Tag == VTStr && r.Tag == VTInt {
			return Str(strings.Repeat(l.Data.(string), clampRepeat(r.Data.(int64))))
		}
	}
	if l.Tag == VTInt && r.Tag == VTInt {
		a, b := l.Data.(int64), r.Data.(int64)
		switch op {
		case "-":
			return Int(a - b)
		case "*":
			return Int(a * b)
		case "%":
			if b == 0 {
				return throwf("ZeroDivisionError", "modulo by zero")
			}
			return Int(a % b)
		case "/":
			if b == 0 {
				return throwf("ZeroDivisionError", "division by zero")
			}
			return Num(float64(a) / float64(b))
		}
	}
	if isNumeric(l) && isNumeric(r) {
		a, b := toFloat(l), toFloat(r)
		switch op {
		case "-":
			return Num(a - b)
		case "*":
			return Num(a * b)
		case "/":
			if b == 0 {
				return throwf("ZeroDivisionError", "division by zero")
			}
			return Num(a / b)
		case "%":
			return throwf("TypeError", "modulo needs integers")
		}
	}
	return throwf("TypeError", "cannot apply %q to %s and %s", op, tagName(l.Tag), tagName(r.Tag))
}

func compare(op string, l, r Value) Value {
	var c int
	switch {
	case isNumeric(l) && isNumeric(r):
		a, b := toFloat(l), toFloat(r)
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	case isStringish(l) && isStringish(r):
		c = strings.Compare(stringOf(l), stringOf(r))
	default:
		return throwf("TypeError", "cannot compare %s and %s", tagName(l.Tag), tagName(r.Tag))
	}
	switch op {
	case "<":
		return Bool(c < 0)
	case "<=":
		return Bool(c <= 0)
	case ">":
		return Bool(c > 0)
	default:
		return Bool(c >= 0)
	}
}

func valuesEqual(l, r Value) bool {
	if isStringish(l) && isStringish(r) {
		return stringOf(l) == stringOf(r)
	}
	if isNumeric(l) && isNumeric(r) {
		return toFloat(l) == toFloat(r)
	}
	if l.Tag != r.Tag {
		return false
	}
	switch l.Tag {
	case VTNull:
		return true
	case VTBool:
		return l.Data.(bool) == r.Data.(bool)
	case VTArray:
		ls, rs := l.Data.([]Value), r.Data.([]Value)
		if len(ls) != len(rs) {
			return false
		}
		for i := range ls {
			if !valuesEqual(ls[i], rs[i]) {
				return false
			}
		}
		return true
	case VTMap:
		lm, rm := l.Data.(*MapObject), r.Data.(*MapObject)
		if len(lm.Keys) != len(rm.Keys) {
			return false
		}
		for k, lv := range lm.Items {
			rv, ok := rm.Items[k]
			if !ok || !valuesEqual(lv, rv) {
				return false
			}
		}
		return true
	default:
		return l.Data == r.Data
	}
}

/* ===========================
   PRIVATE: value helpers
   =========================== */

func truthy(v Value) bool {
	switch v.Tag {
	case VTNull:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return v.Data.(int64) != 0
	case VTNum:
		return v.Data.(float64) != 0
	case VTStr:
		return v.Data.(string) != ""
	case VTHtml:
		return v.Data.(HtmlText).Len() != 0
	case VTArray:
		return len(v.Data.([]Value)) != 0
	case VTMap:
		return len(v.Data.(*MapObject).Keys) != 0
	default:
		return true
	}
}

func isNumeric(v Value) bool   { return v.Tag == VTInt || v.Tag == VTNum }
func isStringish(v Value) bool { return v.Tag == VTStr || v.Tag == VTHtml }

func toFloat(v Value) float64 {
	if v.Tag == VTInt {
		return float64(v.Data.(int64))
	}
	return v.Data.(float64)
}

func stringOf(v Value) string {
	if v.Tag == VTHtml {
		return v.Data.(HtmlText).String()
	}
	return v.Data.(string)
}

func clampRepeat(n int64) int {
	if n < 0 {
		return 0
	}
	return int(n)
}

func tagName(t ValueTag) string {
	switch t {
	case VTNull:
		return "null"
	case VTBool:
		return "bool"
	case VTInt:
		return "int"
	case VTNum:
		return "num"
	case VTStr:
		return "str"
	case VTHtml:
		return "html"
	case VTOutput:
		return "output"
	case VTArray:
		return "array"
	case VTMap:
		return "map"
	case VTFun:
		return "fun"
	case VTModule:
		return "module"
	default:
		return "value"
	}
}

func funLabel(f *Fun) string {
	if f.Name != "" {
		return f.Name
	}
	return "function"
}

// valueToAny bridges runtime values to the htmltext helpers: strings and
// HtmlText pass through so escaping rules apply; everything else becomes the
// value a formatter can stringify.
func valueToAny(v Value) any {
	switch v.Tag {
	case VTNull:
		return nil
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return v.Data.(int64)
	case VTNum:
		return v.Data.(float64)
	case VTStr:
		return v.Data.(string)
	case VTHtml:
		return v.Data.(HtmlText)
	case VTOutput:
		return v.Data.(*TemplateIO).GetValue()
	default:
		return FormatValue(v)
	}
}

// anyToValue lifts htmltext helper results back into runtime values.
func anyToValue(a any) Value {
	switch x := a.(type) {
	case nil:
		return Null
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int64:
		return Int(x)
	case float64:
		return Num(x)
	case string:
		return Str(x)
	case HtmlText:
		return Html(x)
	default:
		return Str(Stringify(a))
	}
}

func iterate(v Value) []Value {
	switch v.Tag {
	case VTArray:
		return v.Data.([]Value)
	case VTMap:
		mo := v.Data.(*MapObject)
		out := make([]Value, 0, len(mo.Keys))
		for _, k := range mo.Keys {
			out = append(out, Str(k))
		}
		return out
	case VTStr:
		rs := []rune(v.Data.(string))
		out := make([]Value, 0, len(rs))
		for _, r := range rs {
			out = append(out, Str(string(r)))
		}
		return out
	default:
		throwf("TypeError", "%s is not iterable", tagName(v.Tag))
		return nil
	}
}

/* ===========================
   PRIVATE: string/html methods
   =========================== */

func nativeFun(name string, impl NativeImpl) Value {
	return FunVal(&Fun{Name: name, Native: impl})
}

func wantArgs(name string, args []Value, n int) {
	if len(args) != n {
		throwf("TypeError", "%s takes %d argument(s), got %d", name, n, len(args))
	}
}

func htmlProp(h HtmlText, name string) Value {
	switch name {
	case "startsWith":
		return nativeFun("startsWith", func(ip *Interpreter, args []Value) Value {
			wantArgs("startsWith", args, 1)
			ok, err := h.StartsWith(valueToAny(args[0]))
			if err != nil {
				return throwf("TypeError", "%s", err.Error())
			}
			return Bool(ok)
		})
	case "endsWith":
		return nativeFun("endsWith", func(ip *Interpreter, args []Value) Value {
			wantArgs("endsWith", args, 1)
			ok, err := h.EndsWith(valueToAny(args[0]))
			if err != nil {
				return throwf("TypeError", "%s", err.Error())
			}
			return Bool(ok)
		})
	case "replace":
		return nativeFun("replace", func(ip *Interpreter, args []Value) Value {
			wantArgs("replace", args, 2)
			out, err := h.Replace(valueToAny(args[0]), valueToAny(args[1]))
			if err != nil {
				return throwf("TypeError", "%s", err.Error())
			}
			return Html(out)
		})
	case "join":
		return nativeFun("join", func(ip *Interpreter, args []Value) Value {
			wantArgs("join", args, 1)
			if args[0].Tag != VTArray {
				return throwf("TypeError", "join takes an array")
			}
			items := args[0].Data.([]Value)
			parts := make([]any, 0, len(items))
			for _, it := range items {
				parts = append(parts, valueToAny(it))
			}
			out, err := h.Join(parts)
			if err != nil {
				return throwf("TypeError", "%s", err.Error())
			}
			return Html(out)
		})
	case "lower":
		return nativeFun("lower", func(ip *Interpreter, args []Value) Value {
			wantArgs("lower", args, 0)
			return Html(h.Lower())
		})
	case "upper":
		return nativeFun("upper", func(ip *Interpreter, args []Value) Value {
			wantArgs("upper", args, 0)
			return Html(h.Upper())
		})
	case "capitalize":
		return nativeFun("capitalize", func(ip *Interpreter, args []Value) Value {
			wantArgs("capitalize", args, 0)
			return Html(h.Capitalize())
		})
	case "format":
		return nativeFun("format", func(ip *Interpreter, args []Value) Value {
			parts := make([]any, 0, len(args))
			for _, a := range args {
				parts = append(parts, valueToAny(a))
			}
			return Html(h.Format(parts...))
		})
	default:
		return throwf("NameError", "html text has no method %q", name)
	}
}

func strProp(s string, name string) Value {
	switch name {
	case "startsWith":
		return nativeFun("startsWith", func(ip *Interpreter, args []Value) Value {
			wantArgs("startsWith", args, 1)
			return Bool(strings.HasPrefix(s, needStr(args[0])))
		})
	case "endsWith":
		return nativeFun("endsWith", func(ip *Interpreter, args []Value) Value {
			wantArgs("endsWith", args, 1)
			return Bool(strings.HasSuffix(s, needStr(args[0])))
		})
	case "replace":
		return nativeFun("replace", func(ip *Interpreter, args []Value) Value {
			wantArgs("replace", args, 2)
			return Str(strings.ReplaceAll(s, needStr(args[0]), needStr(args[1])))
		})
	case "split":
		return nativeFun("split", func(ip *Interpreter, args []Value) Value {
			wantArgs("split", args, 1)
			parts := strings.Split(s, needStr(args[0]))
			out := make([]Value, 0, len(parts))
			for _, p := range parts {
				out = append(out, Str(p))
			}
			return Arr(out)
		})
	case "join":
		return nativeFun("join", func(ip *Interpreter, args []Value) Value {
			wantArgs("join", args, 1)
			if args[0].Tag != VTArray {
				return throwf("TypeError", "join takes an array")
			}
			items := args[0].Data.([]Value)
			parts := make([]string, 0, len(items))
			for _, it := range items {
				if it.Tag != VTStr {
					return throwf("TypeError", "join needs strings, got %s", tagName(it.Tag))
				}
				parts = append(parts, it.Data.(string))
			}
			return Str(strings.Join(parts, s))
		})
	case "trim":
		return nativeFun("trim", func(ip *Interpreter, args []Value) Value {
			wantArgs("trim", args, 0)
			return Str(strings.TrimSpace(s))
		})
	case "lower":
		return nativeFun("lower", func(ip *Interpreter, args []Value) Value {
			wantArgs("lower", args, 0)
			return Str(strings.ToLower(s))
		})
	case "upper":
		return nativeFun("upper", func(ip *Interpreter, args []Value) Value {
			wantArgs("upper", args, 0)
			return Str(strings.ToUpper(s))
		})
	default:
		return throwf("NameError", "string has no method %q", name)
	}
}

func needStr(v Value) string {
	if v.Tag != VTStr {
		throwf("TypeError", "expected a string, got %s", tagName(v.Tag))
	}
	return v.Data.(string)
}
