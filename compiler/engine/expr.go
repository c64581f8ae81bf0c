package engine

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/slowlang/jackc/compiler/lex"
	"github.com/slowlang/jackc/compiler/token"
	"github.com/slowlang/jackc/compiler/vm"
)

var (
	binaryOps = map[string]vm.Command{
		"+": vm.Add,
		"-": vm.Sub,
		"=": vm.Eq,
		">": vm.Gt,
		"<": vm.Lt,
		"&": vm.And,
		"|": vm.Or,
	}

	unaryOps = map[string]vm.Command{
		"-": vm.Neg,
		"~": vm.Not,
		"^": vm.ShiftLeft,
		"#": vm.ShiftRight,
	}
)

// compileExpression compiles `product {op product}`.
// Operators of one level are applied left to right.
func (e *Engine) compileExpression(ctx context.Context, s *subroutine) (err error) {
	if err = e.compileProduct(ctx, s); err != nil {
		return err
	}

	for e.tok.Kind == token.Symbol {
		cmd, ok := binaryOps[e.tok.Text]
		if !ok {
			break
		}

		if err = e.advance(); err != nil {
			return err
		}

		if err = e.compileProduct(ctx, s); err != nil {
			return err
		}

		e.w.Arithmetic(cmd)
	}

	return nil
}

// compileProduct compiles `term {* term}` and `term {/ term}`.
// Both lower to runtime calls.
func (e *Engine) compileProduct(ctx context.Context, s *subroutine) (err error) {
	if err = e.compileTerm(ctx, s); err != nil {
		return err
	}

	for e.isSymbol("*") || e.isSymbol("/") {
		fn := e.Runtime.Multiply
		if e.tok.Text == "/" {
			fn = e.Runtime.Divide
		}

		if err = e.advance(); err != nil {
			return err
		}

		if err = e.compileTerm(ctx, s); err != nil {
			return err
		}

		e.w.Call(fn, 2)
	}

	return nil
}

func (e *Engine) compileTerm(ctx context.Context, s *subroutine) (err error) {
	tk := e.tok

	switch tk.Kind {
	case token.IntConst:
		e.w.Push(vm.Const, tk.Int)

		return e.advance()
	case token.StringConst:
		if err := e.compileString(tk); err != nil {
			return err
		}

		return e.advance()
	case token.Keyword:
		switch tk.Text {
		case "true":
			e.w.Push(vm.Const, 0)
			e.w.Arithmetic(vm.Not)
		case "false", "null":
			e.w.Push(vm.Const, 0)
		case "this":
			e.w.Push(vm.Pointer, 0)
		default:
			return e.syntax("term")
		}

		return e.advance()
	case token.Symbol:
		if tk.Text == "(" {
			if err = e.advance(); err != nil {
				return err
			}

			if err = e.compileExpression(ctx, s); err != nil {
				return err
			}

			return e.symbol(")")
		}

		cmd, ok := unaryOps[tk.Text]
		if !ok {
			return e.syntax("term")
		}

		if err = e.advance(); err != nil {
			return err
		}

		if err = e.compileTerm(ctx, s); err != nil {
			return err
		}

		e.w.Arithmetic(cmd)

		return nil
	case token.Identifier:
	default:
		return e.syntax("term")
	}

	if err = e.advance(); err != nil {
		return err
	}

	switch {
	case e.isSymbol("("), e.isSymbol("."):
		return e.compileCall(ctx, s, tk.Text)
	case e.isSymbol("["):
		return e.compileIndex(ctx, s, tk.Text, tk.Pos)
	}

	v, err := e.lookup(s, tk.Text, tk.Pos)
	if err != nil {
		return err
	}

	e.push(v)

	return nil
}

// compileIndex compiles `[ expr ]` after name and pushes name[expr].
func (e *Engine) compileIndex(ctx context.Context, s *subroutine, name string, pos token.Pos) (err error) {
	v, err := e.lookup(s, name, pos)
	if err != nil {
		return err
	}

	if err = e.symbol("["); err != nil {
		return err
	}

	if err = e.compileExpression(ctx, s); err != nil {
		return err
	}

	if err = e.symbol("]"); err != nil {
		return err
	}

	e.push(v)
	e.w.Arithmetic(vm.Add)
	e.w.Pop(vm.Pointer, 1)
	e.w.Push(vm.That, 0)

	return nil
}

// compileCall compiles the rest of a subroutine call after its first identifier.
//
//	name(args)        method of this object
//	name.sub(args)    method of variable name or function of class name
func (e *Engine) compileCall(ctx context.Context, s *subroutine, name string) (err error) {
	var (
		fn    string
		nargs int
	)

	switch {
	case e.isSymbol("("):
		e.w.Push(vm.Pointer, 0)

		fn = e.class + "." + name
		nargs = 1
	case e.isSymbol("."):
		if err = e.advance(); err != nil {
			return err
		}

		sub, err := e.ident("subroutine name")
		if err != nil {
			return err
		}

		if v, ok := e.sym.Resolve(name); ok {
			e.push(v)

			fn = v.Type + "." + sub
			nargs = 1
		} else {
			fn = name + "." + sub
		}
	default:
		return e.syntax("'(' or '.'")
	}

	if err = e.symbol("("); err != nil {
		return err
	}

	n, err := e.compileExpressionList(ctx, s)
	if err != nil {
		return err
	}

	if err = e.symbol(")"); err != nil {
		return err
	}

	e.w.Call(fn, nargs+n)

	return nil
}

func (e *Engine) compileExpressionList(ctx context.Context, s *subroutine) (n int, err error) {
	if e.isSymbol(")") {
		return 0, nil
	}

	for {
		if err = e.compileExpression(ctx, s); err != nil {
			return n, err
		}

		n++

		if !e.isSymbol(",") {
			return n, nil
		}

		if err = e.advance(); err != nil {
			return n, err
		}
	}
}

// compileString builds the constant with String.new and a chain of appendChar calls,
// each leaving the string on the stack.
// Characters must fit a constant, as integer literals do.
func (e *Engine) compileString(tk token.Token) error {
	for _, r := range tk.Text {
		if r > token.MaxInt {
			return lex.Error{Pos: tk.Pos, Msg: fmt.Sprintf("character %q does not fit a constant", r)}
		}
	}

	e.w.Push(vm.Const, utf8.RuneCountInString(tk.Text))
	e.w.Call(e.Runtime.StringNew, 1)

	for _, r := range tk.Text {
		e.w.Push(vm.Const, int(r))
		e.w.Call(e.Runtime.AppendChar, 2)
	}

	return nil
}
