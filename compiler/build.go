package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

const (
	SourceExt = ".jack"
	ObjectExt = ".vm"
)

// CollectFiles expands directories into the source files they contain.
// Files named explicitly are taken as is.
func CollectFiles(args []string) (files []string, err error) {
	for _, a := range args {
		inf, err := os.Stat(a)
		if err != nil {
			return nil, errors.Wrap(err, "stat")
		}

		if !inf.IsDir() {
			files = append(files, a)
			continue
		}

		ents, err := os.ReadDir(a)
		if err != nil {
			return nil, errors.Wrap(err, "read dir %v", a)
		}

		var l []string

		for _, e := range ents {
			if e.IsDir() || filepath.Ext(e.Name()) != SourceExt {
				continue
			}

			l = append(l, filepath.Join(a, e.Name()))
		}

		if len(l) == 0 {
			return nil, errors.New("no %v files in %v", SourceExt, a)
		}

		sort.Strings(l)

		files = append(files, l...)
	}

	return files, nil
}

// OutputPath is the object file path for source file name.
func (c *Compiler) OutputPath(name string) string {
	out := strings.TrimSuffix(name, filepath.Ext(name)) + ObjectExt

	if c.Out != "" {
		out = filepath.Join(c.Out, filepath.Base(out))
	}

	return out
}

// Build compiles files concurrently, each class with its own symbol table,
// and writes an object file next to each source or into Config.Out.
// It returns written paths in files order.
func (c *Compiler) Build(ctx context.Context, files []string) (outs []string, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build", "files", len(files))
	defer tr.Finish("err", &err)

	jobs := c.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	outs = make([]string, len(files))
	seen := make(map[string]string, len(files))

	for i, name := range files {
		out := c.OutputPath(name)

		if prev, ok := seen[out]; ok {
			return nil, errors.New("%v and %v both compile to %v", prev, name, out)
		}

		seen[out] = name
		outs[i] = out
	}

	if c.Out != "" {
		err = os.MkdirAll(c.Out, 0o755)
		if err != nil {
			return nil, errors.Wrap(err, "create output dir")
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, name := range files {
		i, name := i, name // per-iteration copies (go.mod targets go1.21, pre-loopvar semantics)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			obj, err := c.CompileFile(ctx, name)
			if err != nil {
				return err
			}

			err = os.WriteFile(outs[i], obj, 0o644)
			if err != nil {
				return errors.Wrap(err, "write %v", outs[i])
			}

			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, err
	}

	return outs, nil
}
