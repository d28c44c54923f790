package ir

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Options is the pass-runner configuration surface. ShrinkLevel is the only
// recognized option: a value greater than zero tells the field optimizer to
// suppress its two-value select rewrite and leave such reads untouched.
type Options struct {
	ShrinkLevel int
}

// FunctionPass rewrites one function body in place, drawing on whatever
// read-only, module-wide summaries its factory closed over.
type FunctionPass interface {
	RunFunction(fn *Function) error
}

// FunctionPassFactory builds one FunctionPass per worker, so that
// concurrently running workers never share mutable optimizer state. Passes
// register a factory rather than a single shared instance for exactly this
// reason.
type FunctionPassFactory func() FunctionPass

// RunParallel runs one FunctionPass instance per function in m.Functions,
// concurrently. Each worker mutates only the function it was handed; module-
// level structures (the globals and type lists) are read-only for the
// duration of the run. The first error from any worker cancels the rest and
// is returned.
func RunParallel(ctx context.Context, m *Module, newPass FunctionPassFactory) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, fn := range m.Functions {
		fn := fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return newPass().RunFunction(fn)
		})
	}
	return g.Wait()
}
