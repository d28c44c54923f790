package passrunner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/SoundStacks/binaryen/internal/passrunner"
	"github.com/SoundStacks/binaryen/ir"
)

func TestRunEndToEnd(t *testing.T) {
	point := ir.NewHeapType("Point", ir.Field{Type: ir.TypeI32})

	ctor := &ir.Function{
		Name: "make",
		Body: ir.NewDrop(ir.NewStructNew(point, []ir.Expression{ir.NewConst(ir.I32Literal(11))})),
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

	log := zaptest.NewLogger(t)
	err := passrunner.Run(context.Background(), log, m, passrunner.Options{})
	require.NoError(t, err)

	ret := reader.Body.(*ir.Return)
	_, stillRead := ret.Value.(*ir.StructGet)
	require.False(t, stillRead, "the single-constant field must have been rewritten")
}
