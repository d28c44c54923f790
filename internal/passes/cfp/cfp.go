// Package cfp implements Constant Field Propagation: for every aggregate
// field, discover whether all writes anywhere in the module - through any
// subtype or supertype - settle on one of at most a small, bounded set of
// constant values, then rewrite field reads into constants, traps, or
// two-armed selects accordingly.
package cfp

import (
	"context"

	"github.com/pkg/errors"

	"github.com/SoundStacks/binaryen/internal/fieldflow"
	"github.com/SoundStacks/binaryen/internal/valuelattice"
	"github.com/SoundStacks/binaryen/ir"
)

// ErrNotNominal is the fatal precondition failure for a module whose type
// system is not nominal. CFP's subtype-propagation rules (see
// internal/fieldflow) are only sound under nominal subtyping.
var ErrNotNominal = errors.New("cfp: module type system must be nominal")

// Run executes the full pass over m: scan every function and global
// initializer for field-write evidence, propagate it along the type
// hierarchy, then rewrite every function's field reads in parallel.
func Run(ctx context.Context, m *ir.Module, opts ir.Options) error {
	if m.TypeSystem != ir.TypeSystemNominal {
		return errors.Wrap(ErrNotNominal, m.TypeSystem.String())
	}

	evidence, err := fieldflow.Scan(ctx, m)
	if err != nil {
		return errors.Wrap(err, "cfp: scan")
	}
	combined := fieldflow.Propagate(m, evidence)

	newOptimizer := func() ir.FunctionPass {
		return &optimizer{combined: combined, shrinkLevel: opts.ShrinkLevel}
	}
	if err := ir.RunParallel(ctx, m, newOptimizer); err != nil {
		return errors.Wrap(err, "cfp: optimize")
	}
	return nil
}

// optimizer rewrites the field reads of a single function. One instance is
// built per function by Run's factory, so no optimizer state is ever
// shared between concurrently running workers; combined is read-only once
// propagation has finished.
type optimizer struct {
	combined    map[ir.FieldKey]*valuelattice.PossibleValues
	shrinkLevel int
}

func (o *optimizer) RunFunction(fn *ir.Function) error {
	o.rewrite(&fn.Body, nil)
	return nil
}

// rewrite recurses into every child slot of *slot, rewriting nested field
// reads first, then considers *slot itself if it is a StructGet. ancestors
// holds every enclosing node from the function body down to (but not
// including) *slot, nearest-parent-last, so that a rewrite can hand its own
// immediate chain to RefinalizeChain without re-finalizing the whole body.
func (o *optimizer) rewrite(slot *ir.Expression, ancestors []ir.Expression) {
	if slot == nil || *slot == nil {
		return
	}
	here := append(ancestors, *slot)
	switch e := (*slot).(type) {
	case *ir.Block:
		for i := range e.List {
			o.rewrite(&e.List[i], here)
		}
	case *ir.If:
		o.rewrite(&e.Cond, here)
		o.rewrite(&e.Then, here)
		o.rewrite(&e.Else, here)
	case *ir.Return:
		o.rewrite(&e.Value, here)
	case *ir.GlobalSet:
		o.rewrite(&e.Value, here)
	case *ir.LocalSet:
		o.rewrite(&e.Value, here)
	case *ir.Loop:
		o.rewrite(&e.Body, here)
	case *ir.Br:
		o.rewrite(&e.Value, here)
	case *ir.BrIf:
		o.rewrite(&e.Cond, here)
	case *ir.Call:
		for i := range e.Args {
			o.rewrite(&e.Args[i], here)
		}
	case *ir.StructNew:
		for i := range e.Operands {
			o.rewrite(&e.Operands[i], here)
		}
	case *ir.StructGet:
		o.rewrite(&e.Ref, here)
		o.maybeRewriteRead(slot, e, ancestors)
	case *ir.StructSet:
		o.rewrite(&e.Ref, here)
		o.rewrite(&e.Value, here)
	case *ir.Drop:
		o.rewrite(&e.Value, here)
	case *ir.RefAsNonNull:
		o.rewrite(&e.Value, here)
	case *ir.Select:
		o.rewrite(&e.Cond, here)
		o.rewrite(&e.IfTrue, here)
		o.rewrite(&e.IfFalse, here)
	case *ir.Binary:
		o.rewrite(&e.Left, here)
		o.rewrite(&e.Right, here)
	case *ir.Nop, *ir.Unreachable, *ir.GlobalGet, *ir.LocalGet, *ir.Const:
		// leaves; nothing to rewrite below.
	default:
		panic("cfp: unhandled expression kind")
	}
}

// maybeRewriteRead applies the §4.4 rewrite rules to one field read, in
// place into slot, once get's children have already been rewritten. On a
// rewrite it re-finalizes exactly get's ancestor chain (nearest parent
// first), rather than the whole function body, per the §9 re-finalize scope
// note.
func (o *optimizer) maybeRewriteRead(slot *ir.Expression, get *ir.StructGet, ancestors []ir.Expression) {
	if get.Ref.Type().IsUnreachable() {
		return
	}

	key := ir.FieldKey{Type: get.HeapType, Index: get.Index}
	info, ok := o.combined[key]
	if !ok || !info.HasNoted() {
		// No aggregate of this type, or any related type, is ever
		// constructed with a value reaching this field: the read itself
		// can never execute.
		*slot = ir.NewSequence(ir.NewDrop(get.Ref), ir.NewUnreachable())
		o.refinalizeAncestors(ancestors)
		return
	}
	if info.IsUnknown() {
		return
	}

	values := info.Values()
	switch len(values) {
	case 1:
		*slot = ir.NewSequence(ir.NewDrop(ir.NewRefAsNonNull(get.Ref)), ir.NewConst(values[0]))
		o.refinalizeAncestors(ancestors)
	case 2:
		if o.shrinkLevel > 0 || get.Type().IsRef() {
			return
		}
		var original ir.Expression = get
		*slot = ir.NewSelect(
			ir.NewBinaryEq(original, ir.NewConst(values[0])),
			ir.NewConst(values[0]),
			ir.NewConst(values[1]),
		)
		o.refinalizeAncestors(ancestors)
	default:
		// 3 or more distinct values: no rewrite.
	}
}

// refinalizeAncestors re-finalizes ancestors nearest-parent-first, the
// order RefinalizeChain expects.
func (o *optimizer) refinalizeAncestors(ancestors []ir.Expression) {
	chain := make([]ir.Expression, len(ancestors))
	for i, a := range ancestors {
		chain[len(ancestors)-1-i] = a
	}
	ir.RefinalizeChain(chain)
}
