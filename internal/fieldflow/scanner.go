package fieldflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/SoundStacks/binaryen/ir"
)

// exprScanner walks one expression tree (a function body or a global
// initializer) and records write-classified evidence into its own, private
// maps. Running one of these per function, with no shared state between
// them, is what makes the scan phase safe to parallelize: only the later
// merge step touches a map more than one goroutine could have written.
type exprScanner struct {
	ir.BaseVisitor
	local *Evidence
}

func newExprScanner() *exprScanner {
	return &exprScanner{local: newEvidence()}
}

// VisitStructNew classifies every operand of an aggregate construction:
// an explicit constant operand is ConstructionConstant evidence, an
// explicit non-constant operand is treated the same as an unknown write
// (it could evaluate to anything), and an omitted operand is
// ConstructionDefault evidence for the field's zero value.
func (s *exprScanner) VisitStructNew(n *ir.StructNew) {
	for i, operand := range n.Operands {
		key := ir.FieldKey{Type: n.HeapType, Index: i}
		if operand == nil {
			s.local.noteNew(key, ir.ZeroLiteral(n.HeapType.Field(i).Type))
			continue
		}
		if ir.IsConstantExpression(operand) {
			s.local.noteNew(key, ir.ConstantLiteral(operand))
		} else {
			s.local.noteNewUnknown(key)
		}
	}
}

// VisitStructSet classifies a field store: a copy of the same field read
// back through an aliasing-compatible reference contributes no evidence at
// all (SetCopy, see isFieldCopy), a constant value is
// SetConstant evidence, and anything else is SetUnknown evidence.
func (s *exprScanner) VisitStructSet(n *ir.StructSet) {
	key := ir.FieldKey{Type: n.HeapType, Index: n.Index}
	if isFieldCopy(n, n.Value) {
		return
	}
	if ir.IsConstantExpression(n.Value) {
		s.local.noteSet(key, ir.ConstantLiteral(n.Value))
	} else {
		s.local.noteSetUnknown(key)
	}
}

// isFieldCopy reports whether value reads the same field index back off a
// reference whose static type is the same as or an ancestor of set's
// declared type - the shape `struct.set $A.i (r) (struct.get $A'.i other)`
// with $A <: $A'. The two references are not proven to be distinct, so this
// is conservative by construction: it only recognizes the syntactic copy
// shape, never attempts alias analysis.
func isFieldCopy(set *ir.StructSet, value ir.Expression) bool {
	get, ok := value.(*ir.StructGet)
	if !ok {
		return false
	}
	if get.Index != set.Index {
		return false
	}
	return ir.IsSubtype(set.HeapType, get.HeapType)
}

// ScanFunction scans fn's body in isolation and returns its evidence.
func ScanFunction(fn *ir.Function) *Evidence {
	v := newExprScanner()
	ir.WalkExpression(fn.Body, v)
	return v.local
}

// scanGlobalInit scans the initializer expression of a single global. A
// construction can appear directly as, or nested inside, a global's Init,
// which is why the module-wide scan also covers globals and not only
// function bodies.
func scanGlobalInit(g *ir.Global) *Evidence {
	v := newExprScanner()
	ir.WalkExpression(g.Init, v)
	return v.local
}

// Scan runs the per-function scanners concurrently, one worker per
// function, then sequentially scans every global initializer and merges
// every result into one pair of module-level summaries.
func Scan(ctx context.Context, m *ir.Module) (*Evidence, error) {
	results := make([]*Evidence, len(m.Functions))
	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range m.Functions {
		i, fn := i, fn
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ScanFunction(fn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := newEvidence()
	for _, r := range results {
		combined.mergeFrom(r)
	}
	for _, global := range m.Globals {
		combined.mergeFrom(scanGlobalInit(global))
	}
	return combined, nil
}
