package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/jackc/compiler/engine"
	"github.com/slowlang/jackc/compiler/lex"
	"github.com/slowlang/jackc/compiler/symtab"
	"github.com/slowlang/jackc/compiler/vm"
)

type (
	Compiler struct {
		Config
	}
)

func New(cfg Config) *Compiler {
	return &Compiler{Config: cfg}
}

func CompileFile(ctx context.Context, name string) (obj []byte, err error) {
	return New(DefaultConfig()).CompileFile(ctx, name)
}

func Compile(ctx context.Context, name string, text []byte) (obj []byte, err error) {
	return New(DefaultConfig()).Compile(ctx, name, text)
}

func (c *Compiler) CompileFile(ctx context.Context, name string) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return c.Compile(ctx, name, text)
}

// Compile translates one class to VM code.
// Nothing is returned if compilation fails.
func (c *Compiler) Compile(ctx context.Context, name string, text []byte) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	st := symtab.New()
	st.AllowRedefine = c.AllowRedefine

	var rec vm.Recorder

	e := engine.New(lex.New(text), st, &rec)
	e.Runtime = c.Runtime

	err = e.CompileClass(ctx)
	if err != nil {
		var serr engine.SyntaxError
		if errors.As(err, &serr) {
			tr.V("syntax").Printw("syntax error", "want", serr.Want, "got", serr.Got, "from", serr.From)
		}

		return nil, errors.Wrap(err, "%v", name)
	}

	if tr.If("dump_ops") {
		for i, op := range rec.Ops {
			tr.Printw("op", "i", i, "op", op.String())
		}
	}

	tr.Printw("compiled", "class", e.Class(), "ops", len(rec.Ops))

	w := vm.NewWriter(nil)
	rec.Replay(w)

	return w.Bytes(), nil
}
