package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/jackc/compiler"
	"github.com/slowlang/jackc/compiler/lex"
)

func main() {
	compileCmd := &cli.Command{
		Name:        "compile,c",
		Description: "compile .jack files and directories into .vm files",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "toml config file"),
			cli.NewFlag("out,o", "", "output directory (default: next to each source)"),
			cli.NewFlag("jobs,j", 0, "parallel compilations (default: number of cpus)"),
			cli.NewFlag("stdout", false, "print vm code instead of writing files"),
		},
	}

	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "dump token stream",
		Action:      tokensAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "jackc",
		Description: "jackc compiles jack classes into stack machine code",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics (dump_symbols, dump_ops, statement, syntax)"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			compileCmd,
			tokensCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg := compiler.DefaultConfig()

	if q := c.String("config"); q != "" {
		cfg, err = compiler.LoadConfig(q)
		if err != nil {
			return errors.Wrap(err, "load config")
		}
	}

	if q := c.String("out"); q != "" {
		cfg.Out = q
	}

	if q := c.Int("jobs"); q != 0 {
		cfg.Jobs = q
	}

	files, err := compiler.CollectFiles(c.Args)
	if err != nil {
		return errors.Wrap(err, "collect files")
	}

	if len(files) == 0 {
		return errors.New("no files to compile")
	}

	cmp := compiler.New(cfg)

	if c.Bool("stdout") {
		for _, a := range files {
			obj, err := cmp.CompileFile(ctx, a)
			if err != nil {
				return errors.Wrap(err, "compile %v", a)
			}

			fmt.Printf("%s", obj)
		}

		return nil
	}

	outs, err := cmp.Build(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build")
	}

	for i, out := range outs {
		tlog.Printw("compiled", "src", files[i], "obj", out)
	}

	return nil
}

func tokensAct(c *cli.Command) (err error) {
	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		t := lex.New(text)

		for t.Scan() {
			tk := t.Token()

			fmt.Printf("%v:%v\t%v\t%q\n", a, tk.Pos, tk.Kind, tk.Text)
		}

		if err = t.Err(); err != nil {
			return errors.Wrap(err, "%v", a)
		}
	}

	return nil
}
