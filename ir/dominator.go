package ir

// ComputeDominators calculates the immediate dominator of every block in
// cfg, adapting the algorithm from "A Simple, Fast Dominance Algorithm"
// (Cooper, Harvey, Kennedy) - iterating to a fixed point over reverse
// postorder, here built around plain block-index slices instead of
// pointer-identified blocks.
//
// The result idom has one entry per cfg.Blocks: idom[cfg.Entry] and
// idom[i] for any block unreachable from the entry are both -1, the
// sentinel the once-guard optimizer uses to recognize "no immediate
// dominator, either because this is the entry or because the block cannot
// be reached at all".
func ComputeDominators(cfg *CFG) []int {
	rpo := ReversePostOrder(cfg)

	rpoIndex := make([]int, len(cfg.Blocks))
	for i := range rpoIndex {
		rpoIndex[i] = -1
	}
	for i, id := range rpo {
		rpoIndex[id] = i
	}

	// doms uses -1 as "undefined" internally, and the entry is its own
	// dominator during the fixed-point loop; that self-entry is translated
	// to the -1 sentinel convention on return.
	const undefined = -1
	doms := make([]int, len(cfg.Blocks))
	for i := range doms {
		doms[i] = undefined
	}
	doms[cfg.Entry] = cfg.Entry

	for changed := true; changed; {
		changed = false
		for _, id := range rpo {
			if id == cfg.Entry {
				continue
			}
			blk := cfg.Blocks[id]
			newIdom := undefined
			for _, predID := range blk.Preds {
				if doms[predID] == undefined {
					continue // not yet processed (or unreachable); skip
				}
				if newIdom == undefined {
					newIdom = predID
					continue
				}
				newIdom = intersect(doms, rpoIndex, newIdom, predID)
			}
			if doms[id] != newIdom {
				doms[id] = newIdom
				changed = true
			}
		}
	}

	idom := make([]int, len(cfg.Blocks))
	for i, d := range doms {
		if i == cfg.Entry || d == undefined {
			idom[i] = -1
		} else {
			idom[i] = d
		}
	}
	return idom
}

// intersect returns the common dominator of a and b, walking each up to
// immediate dominators until the two meet. This is the `intersect` routine
// from the Cooper/Harvey/Kennedy paper.
func intersect(doms []int, rpoIndex []int, a, b int) int {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = doms[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = doms[b]
		}
	}
	return a
}

// ReversePostOrder returns the IDs of every block reachable from cfg.Entry,
// in reverse postorder. Blocks unreachable from the entry (dead code left
// behind by an unconditional Br or Return) are omitted. This order is
// compatible with dominator reachability: a block's immediate dominator
// always precedes it, which is what lets the once-guard optimizer process
// blocks in a single forward pass.
func ReversePostOrder(cfg *CFG) []int {
	const (
		unseen = iota
		seen
		done
	)
	state := make([]int, len(cfg.Blocks))

	var postorder []int
	stack := []int{cfg.Entry}
	state[cfg.Entry] = seen
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		switch state[id] {
		case seen:
			// Descend into one unvisited successor at a time, so that a
			// block is emitted only after everything reachable through it.
			pushed := false
			for _, succ := range cfg.Blocks[id].Succs {
				if state[succ] == unseen {
					state[succ] = seen
					stack = append(stack, succ)
					pushed = true
					break
				}
			}
			if !pushed {
				state[id] = done
			}
		case done:
			stack = stack[:len(stack)-1]
			postorder = append(postorder, id)
		default:
			// Already fully processed via another path; pop without
			// re-emitting.
			stack = stack[:len(stack)-1]
		}
	}

	for i, j := 0, len(postorder)-1; i < j; i, j = i+1, j-1 {
		postorder[i], postorder[j] = postorder[j], postorder[i]
	}
	return postorder
}
