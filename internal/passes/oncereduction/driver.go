package oncereduction

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SoundStacks/binaryen/ir"
)

// Run executes the full pass over m: scan for once-guards, then iterate the
// per-function CFG optimizer until the inter-procedural GuardSets summary
// stops growing.
func Run(ctx context.Context, m *ir.Module) error {
	scan, err := Scan(ctx, m)
	if err != nil {
		return err
	}

	anyGuarded := false
	for _, fn := range m.Functions {
		if _, ok := scan.GuardedByName(fn.Name); ok {
			anyGuarded = true
			break
		}
	}
	if !anyGuarded {
		return nil
	}

	guardSets := make(GuardSets, len(m.Functions))
	for _, fn := range m.Functions {
		if g, ok := scan.GuardedByName(fn.Name); ok {
			guardSets[fn.Name] = map[string]bool{g: true}
		} else {
			guardSets[fn.Name] = map[string]bool{}
		}
	}

	lastTotal := total(guardSets)
	for {
		next := make(GuardSets, len(m.Functions))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		for _, fn := range m.Functions {
			fn := fn
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				result := optimizeFunction(fn, scan, guardSets)
				mu.Lock()
				next[fn.Name] = result
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		guardSets = next
		currentTotal := total(guardSets)
		if currentTotal <= lastTotal {
			break
		}
		lastTotal = currentTotal
	}
	return nil
}

func total(gs GuardSets) int {
	n := 0
	for _, s := range gs {
		n += len(s)
	}
	return n
}
