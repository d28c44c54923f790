package fieldflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SoundStacks/binaryen/internal/fieldflow"
	"github.com/SoundStacks/binaryen/ir"
)

func buildHierarchy() (base, mid, leaf *ir.HeapType) {
	base = ir.NewHeapType("Base", ir.Field{Type: ir.TypeI32, Mutable: true})
	mid = ir.NewSubType("Mid", base, ir.Field{Type: ir.TypeI32, Mutable: true})
	leaf = ir.NewSubType("Leaf", mid)
	return
}

func TestScanConstructionConstant(t *testing.T) {
	_, _, leaf := buildHierarchy()

	fn := &ir.Function{
		Name: "f",
		Body: ir.NewDrop(ir.NewStructNew(leaf, []ir.Expression{
			ir.NewConst(ir.I32Literal(7)),
			nil, // default-initialized
		})),
	}

	ev := fieldflow.ScanFunction(fn)
	key0 := ir.FieldKey{Type: leaf, Index: 0}
	key1 := ir.FieldKey{Type: leaf, Index: 1}

	require.True(t, ev.New[key0].IsConstant())
	require.Equal(t, []ir.Literal{ir.I32Literal(7)}, ev.New[key0].Values())

	require.True(t, ev.New[key1].IsConstant())
	require.Equal(t, []ir.Literal{ir.I32Literal(0)}, ev.New[key1].Values())
}

func TestScanSetCopyAddsNoEvidence(t *testing.T) {
	base, _, _ := buildHierarchy()

	ref := ir.NewLocalGet(0, ir.RefType(base, false))
	other := ir.NewLocalGet(1, ir.RefType(base, false))
	copyRead := ir.NewStructGet(base, 0, other)

	fn := &ir.Function{
		Name: "f",
		Body: ir.NewStructSet(base, 0, ref, copyRead),
	}

	ev := fieldflow.ScanFunction(fn)
	key := ir.FieldKey{Type: base, Index: 0}
	require.Nil(t, ev.Set[key])
}

func TestPropagateNewGoesToAncestorsOnly(t *testing.T) {
	base, mid, leaf := buildHierarchy()
	m := &ir.Module{TypeSystem: ir.TypeSystemNominal, Types: []*ir.HeapType{base, mid, leaf}}

	fn := &ir.Function{
		Name: "f",
		Body: ir.NewDrop(ir.NewStructNew(leaf, []ir.Expression{
			ir.NewConst(ir.I32Literal(42)),
			nil,
		})),
	}
	m.Functions = []*ir.Function{fn}

	ev, err := fieldflow.Scan(context.Background(), m)
	require.NoError(t, err)

	combined := fieldflow.Propagate(m, ev)

	require.True(t, combined[ir.FieldKey{Type: leaf, Index: 0}].IsConstant())
	require.True(t, combined[ir.FieldKey{Type: mid, Index: 0}].IsConstant())
	require.True(t, combined[ir.FieldKey{Type: base, Index: 0}].IsConstant())

	// Base has no field 1, so Leaf's field-1 evidence stops at Mid.
	_, hasBaseField1 := combined[ir.FieldKey{Type: base, Index: 1}]
	require.False(t, hasBaseField1)

	// The other direction: a construction of Mid alone reaches Base but
	// never Leaf, its descendant.
	base2, mid2, leaf2 := buildHierarchy()
	m2 := &ir.Module{TypeSystem: ir.TypeSystemNominal, Types: []*ir.HeapType{base2, mid2, leaf2}}
	m2.Functions = []*ir.Function{{
		Name: "g",
		Body: ir.NewDrop(ir.NewStructNew(mid2, []ir.Expression{
			ir.NewConst(ir.I32Literal(42)),
			nil,
		})),
	}}

	ev2, err := fieldflow.Scan(context.Background(), m2)
	require.NoError(t, err)

	combined2 := fieldflow.Propagate(m2, ev2)

	require.True(t, combined2[ir.FieldKey{Type: base2, Index: 0}].IsConstant())
	_, hasLeafField0 := combined2[ir.FieldKey{Type: leaf2, Index: 0}]
	require.False(t, hasLeafField0, "a supertype construction must not reach a subtype read")
}

func TestPropagateSetGoesBothDirections(t *testing.T) {
	base, mid, leaf := buildHierarchy()
	m := &ir.Module{TypeSystem: ir.TypeSystemNominal, Types: []*ir.HeapType{base, mid, leaf}}

	ref := ir.NewLocalGet(0, ir.RefType(mid, false))
	fn := &ir.Function{
		Name: "f",
		Body: ir.NewStructSet(mid, 0, ref, ir.NewConst(ir.I32Literal(9))),
	}
	m.Functions = []*ir.Function{fn}

	ev, err := fieldflow.Scan(context.Background(), m)
	require.NoError(t, err)

	combined := fieldflow.Propagate(m, ev)

	require.True(t, combined[ir.FieldKey{Type: base, Index: 0}].IsConstant(), "ancestor must see the set")
	require.True(t, combined[ir.FieldKey{Type: leaf, Index: 0}].IsConstant(), "descendant must see the set too")
}
