package oncereduction

import "github.com/SoundStacks/binaryen/ir"

// GuardSets is the inter-procedural summary the driver iterates to a fixed
// point: GuardSets[f] is the set of once-globals guaranteed to have fired
// by the time f's entry block finishes executing.
type GuardSets map[string]map[string]bool

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for g := range s {
		out[g] = true
	}
	return out
}

func unionInto(dst, src map[string]bool) {
	for g := range src {
		dst[g] = true
	}
}

// optimizeFunction runs the §4.6 dominator-ordered dataflow over fn,
// rewriting redundant once-global sets and redundant calls to other
// once-guarded functions to no-ops in place, and returns fn's new
// contribution to GuardSets.
func optimizeFunction(fn *ir.Function, scan *ScanResult, guardSets GuardSets) map[string]bool {
	cfg := ir.BuildCFG(fn)
	idom := ir.ComputeDominators(cfg)
	order := ir.ReversePostOrder(cfg)

	firedAtExit := make([]map[string]bool, len(cfg.Blocks))

	for _, id := range order {
		blk := cfg.Blocks[id]

		var fired map[string]bool
		switch {
		case id == cfg.Entry:
			fired = make(map[string]bool)
		case idom[id] >= 0 && firedAtExit[idom[id]] != nil:
			fired = cloneSet(firedAtExit[idom[id]])
		default:
			fired = make(map[string]bool)
		}

		for _, slot := range blk.Exprs {
			switch e := (*slot).(type) {
			case *ir.GlobalSet:
				if !scan.IsOnce(e.Name) {
					continue
				}
				if fired[e.Name] {
					if _, isConst := e.Value.(*ir.Const); !isConst {
						panic("oncereduction: nopping a once-global set whose value is not a constant")
					}
					ir.NopInPlace(slot)
				} else {
					fired[e.Name] = true
				}
			case *ir.Call:
				if guard, ok := scan.GuardedByName(e.Target); ok {
					if fired[guard] {
						if len(e.Args) != 0 {
							panic("oncereduction: nopping a once-guarded call with operands")
						}
						ir.NopInPlace(slot)
					} else {
						fired[guard] = true
					}
				} else {
					unionInto(fired, guardSets[e.Target])
				}
			}
		}

		firedAtExit[id] = fired
	}

	if result := firedAtExit[cfg.Entry]; result != nil {
		return result
	}
	return make(map[string]bool)
}
