// Package fieldflow scans a module for field-write evidence, propagates that
// evidence along the nominal type hierarchy, and exposes the combined
// per-field summaries the CFP field optimizer rewrites reads against.
package fieldflow

import (
	"github.com/SoundStacks/binaryen/internal/valuelattice"
	"github.com/SoundStacks/binaryen/ir"
)

// Evidence holds the two module-level summary maps the scanner produces:
// New for evidence from aggregate constructions, Set for evidence from
// field stores (explicit sets; default initialization counts as New not
// Set - see VisitStructNew in scanner.go).
type Evidence struct {
	New map[ir.FieldKey]*valuelattice.PossibleValues
	Set map[ir.FieldKey]*valuelattice.PossibleValues
}

func newEvidence() *Evidence {
	return &Evidence{
		New: make(map[ir.FieldKey]*valuelattice.PossibleValues),
		Set: make(map[ir.FieldKey]*valuelattice.PossibleValues),
	}
}

// noteNew records v as evidence for key in e.New, allocating the slot's
// lattice value on first use.
func (e *Evidence) noteNew(key ir.FieldKey, v ir.Literal) {
	slot, ok := e.New[key]
	if !ok {
		slot = &valuelattice.PossibleValues{}
		e.New[key] = slot
	}
	slot.Note(v)
}

func (e *Evidence) noteNewUnknown(key ir.FieldKey) {
	slot, ok := e.New[key]
	if !ok {
		slot = &valuelattice.PossibleValues{}
		e.New[key] = slot
	}
	slot.NoteUnknown()
}

func (e *Evidence) noteSet(key ir.FieldKey, v ir.Literal) {
	slot, ok := e.Set[key]
	if !ok {
		slot = &valuelattice.PossibleValues{}
		e.Set[key] = slot
	}
	slot.Note(v)
}

func (e *Evidence) noteSetUnknown(key ir.FieldKey) {
	slot, ok := e.Set[key]
	if !ok {
		slot = &valuelattice.PossibleValues{}
		e.Set[key] = slot
	}
	slot.NoteUnknown()
}

// mergeFrom combines other's maps into e by per-key lattice join, the
// module-level merge step the per-function scan results feed through.
func (e *Evidence) mergeFrom(other *Evidence) {
	mergeMap(e.New, other.New)
	mergeMap(e.Set, other.Set)
}

func mergeMap(dst, src map[ir.FieldKey]*valuelattice.PossibleValues) {
	for key, v := range src {
		slot, ok := dst[key]
		if !ok {
			dst[key] = v.Clone()
			continue
		}
		slot.Combine(v)
	}
}
