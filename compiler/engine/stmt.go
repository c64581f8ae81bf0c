package engine

import (
	"context"
	"strconv"

	"tlog.app/go/tlog"

	"github.com/slowlang/jackc/compiler/token"
	"github.com/slowlang/jackc/compiler/vm"
)

func (e *Engine) compileStatements(ctx context.Context, s *subroutine) (err error) {
	for e.tok.Kind == token.Keyword {
		if tr := tlog.SpanFromContext(ctx); tr.If("statement") {
			tr.Printw("statement", "kw", e.tok.Text, "pos", e.tok.Pos, "sub", s.name)
		}

		switch e.tok.Text {
		case "let":
			err = e.compileLet(ctx, s)
		case "if":
			err = e.compileIf(ctx, s)
		case "while":
			err = e.compileWhile(ctx, s)
		case "do":
			err = e.compileDo(ctx, s)
		case "return":
			err = e.compileReturn(ctx, s)
		default:
			return nil
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// compileLet compiles `let name = expr ;` and `let name[expr] = expr ;`.
func (e *Engine) compileLet(ctx context.Context, s *subroutine) (err error) {
	if err = e.advance(); err != nil {
		return err
	}

	pos := e.tok.Pos

	name, err := e.ident("variable name")
	if err != nil {
		return err
	}

	v, err := e.lookup(s, name, pos)
	if err != nil {
		return err
	}

	if !e.isSymbol("[") {
		if err = e.symbol("="); err != nil {
			return err
		}

		if err = e.compileExpression(ctx, s); err != nil {
			return err
		}

		if err = e.symbol(";"); err != nil {
			return err
		}

		e.pop(v)

		return nil
	}

	if err = e.advance(); err != nil {
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

	if err = e.symbol("="); err != nil {
		return err
	}

	if err = e.compileExpression(ctx, s); err != nil {
		return err
	}

	if err = e.symbol(";"); err != nil {
		return err
	}

	e.w.Pop(vm.Temp, 0)
	e.w.Pop(vm.Pointer, 1)
	e.w.Push(vm.Temp, 0)
	e.w.Pop(vm.That, 0)

	return nil
}

func (e *Engine) compileIf(ctx context.Context, s *subroutine) (err error) {
	if err = e.advance(); err != nil {
		return err
	}

	if err = e.compileCond(ctx, s); err != nil {
		return err
	}

	n := strconv.Itoa(s.ifs)
	s.ifs++

	e.w.IfGoto("IF_TRUE" + n)
	e.w.Goto("IF_FALSE" + n)
	e.w.Label("IF_TRUE" + n)

	if err = e.compileBlock(ctx, s); err != nil {
		return err
	}

	if !e.isKeyword("else") {
		e.w.Label("IF_FALSE" + n)

		return nil
	}

	if err = e.advance(); err != nil {
		return err
	}

	e.w.Goto("IF_END" + n)
	e.w.Label("IF_FALSE" + n)

	if err = e.compileBlock(ctx, s); err != nil {
		return err
	}

	e.w.Label("IF_END" + n)

	return nil
}

func (e *Engine) compileWhile(ctx context.Context, s *subroutine) (err error) {
	if err = e.advance(); err != nil {
		return err
	}

	n := strconv.Itoa(s.whiles)
	s.whiles++

	e.w.Label("WHILE_EXP" + n)

	if err = e.compileCond(ctx, s); err != nil {
		return err
	}

	e.w.Arithmetic(vm.Not)
	e.w.IfGoto("WHILE_END" + n)

	if err = e.compileBlock(ctx, s); err != nil {
		return err
	}

	e.w.Goto("WHILE_EXP" + n)
	e.w.Label("WHILE_END" + n)

	return nil
}

func (e *Engine) compileDo(ctx context.Context, s *subroutine) (err error) {
	if err = e.advance(); err != nil {
		return err
	}

	name, err := e.ident("subroutine call")
	if err != nil {
		return err
	}

	if !e.isSymbol("(") && !e.isSymbol(".") {
		return e.syntax("'(' or '.'")
	}

	if err = e.compileCall(ctx, s, name); err != nil {
		return err
	}

	if err = e.symbol(";"); err != nil {
		return err
	}

	// every call leaves a value
	e.w.Pop(vm.Temp, 0)

	return nil
}

func (e *Engine) compileReturn(ctx context.Context, s *subroutine) (err error) {
	if err = e.advance(); err != nil {
		return err
	}

	if e.isSymbol(";") {
		e.w.Push(vm.Const, 0)
	} else if err = e.compileExpression(ctx, s); err != nil {
		return err
	}

	if err = e.symbol(";"); err != nil {
		return err
	}

	e.w.Return()

	return nil
}

// compileCond compiles `( expr )`.
func (e *Engine) compileCond(ctx context.Context, s *subroutine) (err error) {
	if err = e.symbol("("); err != nil {
		return err
	}

	if err = e.compileExpression(ctx, s); err != nil {
		return err
	}

	return e.symbol(")")
}

// compileBlock compiles `{ statements }`.
func (e *Engine) compileBlock(ctx context.Context, s *subroutine) (err error) {
	if err = e.symbol("{"); err != nil {
		return err
	}

	if err = e.compileStatements(ctx, s); err != nil {
		return err
	}

	return e.symbol("}")
}
