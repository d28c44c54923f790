package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SoundStacks/binaryen/ir"
)

func TestIsSubtype(t *testing.T) {
	base := ir.NewHeapType("Base", ir.Field{Type: ir.TypeI32})
	mid := ir.NewSubType("Mid", base, ir.Field{Type: ir.TypeI64})
	leaf := ir.NewSubType("Leaf", mid, ir.Field{Type: ir.TypeF32})
	unrelated := ir.NewHeapType("Unrelated")

	require.True(t, ir.IsSubtype(leaf, base))
	require.True(t, ir.IsSubtype(leaf, mid))
	require.True(t, ir.IsSubtype(leaf, leaf))
	require.False(t, ir.IsSubtype(base, leaf))
	require.False(t, ir.IsSubtype(leaf, unrelated))

	require.Equal(t, 3, len(leaf.Fields()))
	require.True(t, leaf.DeclaresField(0))
	require.True(t, leaf.DeclaresField(2))
	require.False(t, leaf.DeclaresField(3))
}

// buildOnceLikeFunction builds:
//
//	func f() {
//	  if (get g) { return }
//	  set g = 1
//	  call noop()
//	}
//
// the canonical once-guard shape, to exercise BuildCFG and ComputeDominators
// together on a realistic function body.
func buildOnceLikeFunction() *ir.Function {
	g := ir.NewGlobalGet("g", ir.TypeI32)
	guard := ir.NewIf(g, ir.NewReturn(nil), nil)
	set := ir.NewGlobalSet("g", ir.NewConst(ir.I32Literal(1)))
	call := ir.NewCall("noop", nil, ir.NoneType)

	var guardExpr, setExpr, callExpr ir.Expression = guard, set, call
	body := ir.NewBlock("", []ir.Expression{guardExpr, setExpr, callExpr})
	var bodyExpr ir.Expression = body

	return &ir.Function{Name: "f", Body: bodyExpr}
}

func TestBuildCFGAndDominators(t *testing.T) {
	fn := buildOnceLikeFunction()
	cfg := ir.BuildCFG(fn)

	require.GreaterOrEqual(t, len(cfg.Blocks), 2)

	// The guard's "then" arm always returns, so the set and the call that
	// follow the guard in source order stay attributed to the entry block
	// itself, rather than being pushed into a separate join block.
	require.Len(t, cfg.Blocks[cfg.Entry].Exprs, 2)

	idom := ir.ComputeDominators(cfg)
	require.Equal(t, -1, idom[cfg.Entry])

	for id, blk := range cfg.Blocks {
		if id == cfg.Entry || len(blk.Preds) == 0 {
			continue
		}
		require.NotEqual(t, -1, idom[id], "block %d reachable from entry must have an immediate dominator", id)
	}
}

func TestRefinalizePropagatesUnreachable(t *testing.T) {
	unreachable := ir.NewUnreachable()
	var unreachableExpr ir.Expression = unreachable
	block := ir.NewBlock("", []ir.Expression{unreachableExpr})

	ir.Refinalize(block)
	require.True(t, block.Type().IsUnreachable())
}

// TestRefinalizeTreeRecomputesWholeSubtree exercises RefinalizeTree
// directly: a mutation two levels down (an inner Block's only element
// replaced with a trap, bypassing the constructors so the cached types go
// stale) must be visible on both the inner Block and the outer Block that
// wraps it, without the caller tracking an ancestor chain by hand.
func TestRefinalizeTreeRecomputesWholeSubtree(t *testing.T) {
	local := ir.NewLocalGet(0, ir.TypeI32)
	var localExpr ir.Expression = local
	inner := ir.NewBlock("", []ir.Expression{localExpr})
	require.False(t, inner.Type().IsUnreachable())

	var innerExpr ir.Expression = inner
	outer := ir.NewBlock("", []ir.Expression{innerExpr})
	require.False(t, outer.Type().IsUnreachable())

	inner.List[0] = ir.NewUnreachable()

	ir.RefinalizeTree(outer)

	require.True(t, inner.Type().IsUnreachable(), "inner Block must recompute from its now-trapping element")
	require.True(t, outer.Type().IsUnreachable(), "outer Block must see inner's new type without a manual chain")
}

func TestNopInPlacePreservesStatementSlot(t *testing.T) {
	var slot ir.Expression = ir.NewGlobalSet("g", ir.NewConst(ir.I32Literal(1)))
	ir.NopInPlace(&slot)

	_, isNop := slot.(*ir.Nop)
	require.True(t, isNop)
	require.True(t, slot.Type().IsNone())
}
