package engine

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/jackc/compiler/symtab"
	"github.com/slowlang/jackc/compiler/token"
	"github.com/slowlang/jackc/compiler/vm"
)

type (
	// Scanner is the token source. Scan advances to the next token,
	// Err reports a lexical error after Scan returned false.
	Scanner interface {
		Scan() bool
		Token() token.Token
		Err() error
	}

	// Runtime names the operating system subroutines generated code calls.
	Runtime struct {
		Alloc      string `toml:"alloc"`
		Multiply   string `toml:"multiply"`
		Divide     string `toml:"divide"`
		StringNew  string `toml:"string-new"`
		AppendChar string `toml:"append-char"`
	}

	// Engine parses one class and emits its code in the same pass.
	Engine struct {
		Runtime Runtime

		sc  Scanner
		sym *symtab.Table
		w   vm.Emitter

		tok token.Token

		class string
	}

	// subroutine is the translation context of the subroutine being compiled.
	subroutine struct {
		name string // Class.name
		kind string // constructor, function or method

		whiles int
		ifs    int
	}
)

var DefaultRuntime = Runtime{
	Alloc:      "Memory.alloc",
	Multiply:   "Math.multiply",
	Divide:     "Math.divide",
	StringNew:  "String.new",
	AppendChar: "String.appendChar",
}

func New(sc Scanner, sym *symtab.Table, w vm.Emitter) *Engine {
	return &Engine{
		Runtime: DefaultRuntime,
		sc:      sc,
		sym:     sym,
		w:       w,
	}
}

// Class returns the name of the class being compiled.
func (e *Engine) Class() string { return e.class }

// CompileClass compiles the whole token stream as a single class.
// Emitted code must be discarded if an error is returned.
func (e *Engine) CompileClass(ctx context.Context) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile class")
	defer tr.Finish("class", &e.class, "err", &err)

	if err = e.advance(); err != nil {
		return err
	}

	if _, err = e.keyword("class"); err != nil {
		return err
	}

	e.class, err = e.ident("class name")
	if err != nil {
		return err
	}

	if err = e.symbol("{"); err != nil {
		return err
	}

	for e.isKeyword("static", "field") {
		if err = e.compileClassVarDec(); err != nil {
			return errors.Wrap(err, "class %v", e.class)
		}
	}

	if tr.If("dump_symbols") {
		for _, k := range []symtab.Kind{symtab.Static, symtab.Field} {
			for _, s := range e.sym.Symbols(k) {
				tr.Printw("class symbol", "name", s.Name, "type", s.Type, "kind", s.Kind, "index", s.Index)
			}
		}
	}

	for e.isKeyword("constructor", "function", "method") {
		if err = e.compileSubroutine(ctx); err != nil {
			return err
		}
	}

	if err = e.symbol("}"); err != nil {
		return err
	}

	if e.tok.Kind != token.EOF {
		return e.syntax("end of input")
	}

	return nil
}

func (e *Engine) compileClassVarDec() error {
	kw, err := e.keyword("static", "field")
	if err != nil {
		return err
	}

	kind := symtab.Field
	if kw == "static" {
		kind = symtab.Static
	}

	return e.compileVarList(kind)
}

// compileVarList compiles `type name {, name} ;` defining every name as k.
func (e *Engine) compileVarList(k symtab.Kind) error {
	typ, err := e.typ(false)
	if err != nil {
		return err
	}

	for {
		pos := e.tok.Pos

		name, err := e.ident("variable name")
		if err != nil {
			return err
		}

		if err = e.define(name, typ, k, pos); err != nil {
			return err
		}

		if !e.isSymbol(",") {
			break
		}

		if err = e.advance(); err != nil {
			return err
		}
	}

	return e.symbol(";")
}

func (e *Engine) compileSubroutine(ctx context.Context) (err error) {
	kind, err := e.keyword("constructor", "function", "method")
	if err != nil {
		return err
	}

	if _, err = e.typ(true); err != nil {
		return err
	}

	name, err := e.ident("subroutine name")
	if err != nil {
		return err
	}

	s := &subroutine{
		name: e.class + "." + name,
		kind: kind,
	}

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile subroutine", "name", s.name, "kind", kind)
	defer tr.Finish("err", &err)

	e.sym.StartSubroutine()

	if kind == "method" {
		if _, err = e.sym.Define("this", e.class, symtab.Arg); err != nil {
			return errors.Wrap(err, "define this")
		}
	}

	if err = e.symbol("("); err != nil {
		return err
	}

	if err = e.compileParameterList(); err != nil {
		return errors.Wrap(err, "%v: parameters", s.name)
	}

	if err = e.symbol(")"); err != nil {
		return err
	}

	if err = e.compileSubroutineBody(ctx, s); err != nil {
		return errors.Wrap(err, "%v", s.name)
	}

	return nil
}

func (e *Engine) compileParameterList() error {
	if e.isSymbol(")") {
		return nil
	}

	for {
		typ, err := e.typ(false)
		if err != nil {
			return err
		}

		pos := e.tok.Pos

		name, err := e.ident("parameter name")
		if err != nil {
			return err
		}

		if err = e.define(name, typ, symtab.Arg, pos); err != nil {
			return err
		}

		if !e.isSymbol(",") {
			return nil
		}

		if err = e.advance(); err != nil {
			return err
		}
	}
}

func (e *Engine) compileSubroutineBody(ctx context.Context, s *subroutine) (err error) {
	if err = e.symbol("{"); err != nil {
		return err
	}

	for e.isKeyword("var") {
		if err = e.advance(); err != nil {
			return err
		}

		if err = e.compileVarList(symtab.Local); err != nil {
			return err
		}
	}

	nlocals := e.sym.VarCount(symtab.Local)

	if tr := tlog.SpanFromContext(ctx); tr.If("dump_symbols") {
		for _, k := range []symtab.Kind{symtab.Arg, symtab.Local} {
			for _, sym := range e.sym.Symbols(k) {
				tr.Printw("subroutine symbol", "name", sym.Name, "type", sym.Type, "kind", sym.Kind, "index", sym.Index)
			}
		}
	}

	e.w.Function(s.name, nlocals)

	switch s.kind {
	case "constructor":
		e.w.Push(vm.Const, e.sym.VarCount(symtab.Field))
		e.w.Call(e.Runtime.Alloc, 1)
		e.w.Pop(vm.Pointer, 0)
	case "method":
		e.w.Push(vm.Arg, 0)
		e.w.Pop(vm.Pointer, 0)
	}

	if err = e.compileStatements(ctx, s); err != nil {
		return err
	}

	return e.symbol("}")
}

func (e *Engine) define(name, typ string, k symtab.Kind, pos token.Pos) error {
	_, err := e.sym.Define(name, typ, k)
	if err != nil {
		return errors.Wrap(err, "%v", pos)
	}

	return nil
}

// lookup resolves a name used as a variable, array or call receiver.
func (e *Engine) lookup(s *subroutine, name string, pos token.Pos) (symtab.Symbol, error) {
	sym, ok := e.sym.Resolve(name)
	if !ok {
		return sym, UnresolvedSymbolError{
			Name:       name,
			Subroutine: s.name,
			Pos:        pos,
		}
	}

	return sym, nil
}

func (e *Engine) push(sym symtab.Symbol) { e.w.Push(segment(sym.Kind), sym.Index) }
func (e *Engine) pop(sym symtab.Symbol)  { e.w.Pop(segment(sym.Kind), sym.Index) }

func segment(k symtab.Kind) vm.Segment {
	switch k {
	case symtab.Static:
		return vm.Static
	case symtab.Field:
		return vm.This
	case symtab.Arg:
		return vm.Arg
	case symtab.Local:
		return vm.Local
	default:
		panic(k)
	}
}

func (e *Engine) advance() error {
	if e.sc.Scan() {
		e.tok = e.sc.Token()
		return nil
	}

	if err := e.sc.Err(); err != nil {
		return errors.Wrap(err, "read token")
	}

	e.tok = token.Token{
		Kind: token.EOF,
		Pos:  e.tok.Pos,
	}

	return nil
}

func (e *Engine) isSymbol(s string) bool {
	return e.tok.Is(token.Symbol, s)
}

func (e *Engine) isKeyword(kws ...string) bool {
	if e.tok.Kind != token.Keyword {
		return false
	}

	for _, kw := range kws {
		if e.tok.Text == kw {
			return true
		}
	}

	return false
}

// symbol consumes symbol s.
func (e *Engine) symbol(s string) error {
	if !e.isSymbol(s) {
		return e.syntax("'" + s + "'")
	}

	return e.advance()
}

// keyword consumes one of kws and returns it.
func (e *Engine) keyword(kws ...string) (string, error) {
	if !e.isKeyword(kws...) {
		return "", e.syntax(joinHuman(kws))
	}

	kw := e.tok.Text

	return kw, e.advance()
}

func (e *Engine) ident(what string) (string, error) {
	if e.tok.Kind != token.Identifier {
		return "", e.syntax(what)
	}

	name := e.tok.Text

	return name, e.advance()
}

// typ consumes int, char, boolean, a class name or void if allowed.
func (e *Engine) typ(void bool) (string, error) {
	switch {
	case e.isKeyword("int", "char", "boolean"), void && e.isKeyword("void"):
	case e.tok.Kind == token.Identifier:
	default:
		if void {
			return "", e.syntax("return type")
		}

		return "", e.syntax("type")
	}

	typ := e.tok.Text

	return typ, e.advance()
}

func (e *Engine) syntax(want string) error {
	err := NewSyntaxError(want, e.tok)
	err.From = loc.Caller(1)

	return err
}

func joinHuman(l []string) string {
	var b []byte

	for i, s := range l {
		switch {
		case i == 0:
		case i+1 == len(l):
			b = append(b, " or "...)
		default:
			b = append(b, ", "...)
		}

		b = append(b, s...)
	}

	return string(b)
}
