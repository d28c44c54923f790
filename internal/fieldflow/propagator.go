package fieldflow

import (
	"github.com/SoundStacks/binaryen/internal/valuelattice"
	"github.com/SoundStacks/binaryen/ir"
)

// Propagate lifts evidence in ev along m's nominal type hierarchy, in
// place, then returns the combined per-field summary every field read is
// checked against.
//
// A construction of type B writes exactly type B, so New evidence only
// needs to climb toward ancestors: any read through a statically-typed
// reference to an ancestor A of B might, at runtime, be looking at a B.
//
// A set through a reference of static type B could, at runtime, be
// operating on any subtype of B (the reference's dynamic type is unknown),
// and a read through a reference of static type A can likewise be looking
// at any subtype of A - so Set evidence has to reach both ancestors and
// descendants that declare the same field index.
//
// One pass in each direction suffices: HeapType.Ancestors returns the full
// chain to the root, not just the immediate parent, and descendants are
// reached recursively, so there is no need to iterate until a fixed point.
// The upward pass runs over each map's original key set; the downward Set
// pass runs over the Set keys as they stand after the upward pass, so
// evidence that rose to an ancestor also descends into that ancestor's
// other subtrees.
func Propagate(m *ir.Module, ev *Evidence) map[ir.FieldKey]*valuelattice.PossibleValues {
	for key, v := range snapshot(ev.New) {
		propagateToAncestors(ev.New, key, v)
	}

	for key, v := range snapshot(ev.Set) {
		propagateToAncestors(ev.Set, key, v)
	}

	children := buildChildren(m.Types)
	for key, v := range snapshot(ev.Set) {
		propagateToDescendants(ev.Set, children, key, v)
	}

	combined := make(map[ir.FieldKey]*valuelattice.PossibleValues)
	mergeMap(combined, ev.New)
	mergeMap(combined, ev.Set)
	return combined
}

func snapshot(m map[ir.FieldKey]*valuelattice.PossibleValues) map[ir.FieldKey]*valuelattice.PossibleValues {
	out := make(map[ir.FieldKey]*valuelattice.PossibleValues, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func propagateToAncestors(dst map[ir.FieldKey]*valuelattice.PossibleValues, key ir.FieldKey, v *valuelattice.PossibleValues) {
	ancestors := key.Type.Ancestors()
	for _, anc := range ancestors[1:] { // [0] is key.Type itself
		if !anc.DeclaresField(key.Index) {
			continue
		}
		combineInto(dst, ir.FieldKey{Type: anc, Index: key.Index}, v)
	}
}

func propagateToDescendants(dst map[ir.FieldKey]*valuelattice.PossibleValues, children map[*ir.HeapType][]*ir.HeapType, key ir.FieldKey, v *valuelattice.PossibleValues) {
	for _, child := range children[key.Type] {
		if child.DeclaresField(key.Index) {
			combineInto(dst, ir.FieldKey{Type: child, Index: key.Index}, v)
		}
		propagateToDescendants(dst, children, ir.FieldKey{Type: child, Index: key.Index}, v)
	}
}

func combineInto(dst map[ir.FieldKey]*valuelattice.PossibleValues, key ir.FieldKey, v *valuelattice.PossibleValues) {
	slot, ok := dst[key]
	if !ok {
		dst[key] = v.Clone()
		return
	}
	slot.Combine(v)
}

func buildChildren(types []*ir.HeapType) map[*ir.HeapType][]*ir.HeapType {
	children := make(map[*ir.HeapType][]*ir.HeapType)
	for _, t := range types {
		if super := t.Supertype(); super != nil {
			children[super] = append(children[super], t)
		}
	}
	return children
}
