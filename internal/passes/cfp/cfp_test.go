package cfp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SoundStacks/binaryen/internal/passes/cfp"
	"github.com/SoundStacks/binaryen/ir"
)

func TestRunRejectsStructuralTypeSystem(t *testing.T) {
	m := &ir.Module{TypeSystem: ir.TypeSystemStructural}
	err := cfp.Run(context.Background(), m, ir.Options{})
	require.ErrorIs(t, err, cfp.ErrNotNominal)
}

func TestRunRewritesSingleConstantField(t *testing.T) {
	point := ir.NewHeapType("Point", ir.Field{Type: ir.TypeI32, Mutable: false})

	ctor := &ir.Function{
		Name: "make",
		Body: ir.NewDrop(ir.NewStructNew(point, []ir.Expression{ir.NewConst(ir.I32Literal(5))})),
	}

	param := ir.NewLocalGet(0, ir.RefType(point, false))
	reader := &ir.Function{
		Name:    "read",
		Params:  []ir.Type{ir.RefType(point, false)},
		Results: []ir.Type{ir.TypeI32},
		Body:    ir.NewReturn(ir.NewStructGet(point, 0, param)),
	}

	m := &ir.Module{
		TypeSystem: ir.TypeSystemNominal,
		Types:      []*ir.HeapType{point},
		Functions:  []*ir.Function{ctor, reader},
	}

	err := cfp.Run(context.Background(), m, ir.Options{})
	require.NoError(t, err)

	ret, ok := reader.Body.(*ir.Return)
	require.True(t, ok)
	block, ok := ret.Value.(*ir.Block)
	require.True(t, ok, "rewritten read should be a (drop (ref.as_non_null ref)); const(v) sequence")
	require.Len(t, block.List, 2)

	c, ok := block.List[1].(*ir.Const)
	require.True(t, ok)
	require.True(t, c.Value.Equal(ir.I32Literal(5)))
}

func TestRunLeavesUnknownFieldAlone(t *testing.T) {
	point := ir.NewHeapType("Point", ir.Field{Type: ir.TypeI32, Mutable: true})

	local := ir.NewLocalGet(0, ir.TypeI32)
	ctor := &ir.Function{
		Name: "make",
		Body: ir.NewDrop(ir.NewStructNew(point, []ir.Expression{local})),
	}

	param := ir.NewLocalGet(0, ir.RefType(point, false))
	reader := &ir.Function{
		Name:    "read",
		Results: []ir.Type{ir.TypeI32},
		Body:    ir.NewReturn(ir.NewStructGet(point, 0, param)),
	}

	m := &ir.Module{
		TypeSystem: ir.TypeSystemNominal,
		Types:      []*ir.HeapType{point},
		Functions:  []*ir.Function{ctor, reader},
	}

	err := cfp.Run(context.Background(), m, ir.Options{})
	require.NoError(t, err)

	ret := reader.Body.(*ir.Return)
	_, stillAStructGet := ret.Value.(*ir.StructGet)
	require.True(t, stillAStructGet, "a non-constant explicit construction operand must leave the read unrewritten")
}
