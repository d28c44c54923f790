// Package passrunner is the pass driver: it runs CFP and OnceReduction over
// a module in the fixed order the rest of the pipeline expects, logging
// progress the way the rest of this repository logs, and turning CFP's
// fatal type-system precondition failure into a process-terminating
// diagnostic instead of a returned error a caller might silently ignore.
package passrunner

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/SoundStacks/binaryen/internal/passes/cfp"
	"github.com/SoundStacks/binaryen/internal/passes/oncereduction"
	"github.com/SoundStacks/binaryen/ir"
)

// Options configures a driver run. ShrinkLevel is forwarded to CFP; see
// ir.Options.
type Options struct {
	ir.Options
}

// Run executes CFP followed by OnceReduction over m. A CFP precondition
// failure (a non-nominal type system) is fatal: it is logged at Fatal
// level, which terminates the process. Any other error from either pass is
// returned wrapped with the name of the pass that failed.
func Run(ctx context.Context, log *zap.Logger, m *ir.Module, opts Options) error {
	log.Info("running cfp",
		zap.Int("functions", len(m.Functions)),
		zap.Int("types", len(m.Types)),
		zap.Int("shrinkLevel", opts.ShrinkLevel),
	)
	if err := cfp.Run(ctx, m, opts.Options); err != nil {
		if errors.Is(err, cfp.ErrNotNominal) {
			log.Fatal("cfp precondition failed", zap.Error(err))
		}
		return errors.Wrap(err, "passrunner: cfp")
	}

	log.Info("running oncereduction", zap.Int("globals", len(m.Globals)))
	if err := oncereduction.Run(ctx, m); err != nil {
		return errors.Wrap(err, "passrunner: oncereduction")
	}

	log.Info("optimization complete")
	return nil
}
