// Package valuelattice implements the bounded constant-set lattice the field
// optimizer tracks one instance of per (HeapType, field index) pair: either
// nothing has been observed yet, a small set of distinct constants has, or
// enough distinct values (or a non-constant write) have been seen that the
// field must be treated as unknown.
package valuelattice

import "github.com/SoundStacks/binaryen/ir"

// maxConstants (K) bounds how many distinct literal values PossibleValues
// tracks before collapsing to Unknown. The field optimizer only ever has a
// useful rewrite for zero or one or two values, so there is no benefit to
// tracking more.
const maxConstants = 2

type state byte

const (
	stateUnnoted state = iota
	stateConstants
	stateUnknown
)

// PossibleValues is the per-field-slot lattice value. The zero value is
// Unnoted, the bottom of the lattice.
type PossibleValues struct {
	st     state
	values []ir.Literal
}

// Note joins v into the set. It reports whether the state changed.
func (p *PossibleValues) Note(v ir.Literal) bool {
	switch p.st {
	case stateUnknown:
		return false
	case stateUnnoted:
		p.st = stateConstants
		p.values = []ir.Literal{v}
		return true
	default: // stateConstants
		for _, existing := range p.values {
			if existing.Equal(v) {
				return false
			}
		}
		if len(p.values) < maxConstants {
			p.values = append(p.values, v)
			return true
		}
		p.st = stateUnknown
		p.values = nil
		return true
	}
}

// NoteUnknown forces the state to Unknown. It is idempotent.
func (p *PossibleValues) NoteUnknown() bool {
	if p.st == stateUnknown {
		return false
	}
	p.st = stateUnknown
	p.values = nil
	return true
}

// Combine joins other into p (the lattice's join operator). It reports
// whether p changed.
func (p *PossibleValues) Combine(other *PossibleValues) bool {
	if other.st == stateUnnoted {
		return false
	}
	if other.st == stateUnknown {
		return p.NoteUnknown()
	}
	changed := false
	for _, v := range other.values {
		if p.Note(v) {
			changed = true
		}
	}
	return changed
}

// IsConstant reports whether p holds one or more tracked constants (and
// therefore Values is meaningful).
func (p *PossibleValues) IsConstant() bool {
	return p.st == stateConstants && len(p.values) > 0
}

// IsUnknown reports whether p has collapsed to the top of the lattice.
func (p *PossibleValues) IsUnknown() bool {
	return p.st == stateUnknown
}

// HasNoted reports whether anything at all has been observed (i.e. the
// state is not Unnoted, the bottom of the lattice).
func (p *PossibleValues) HasNoted() bool {
	return p.st != stateUnnoted
}

// Values returns the tracked constants. Valid only when IsConstant is true;
// the returned slice must not be mutated by the caller.
func (p *PossibleValues) Values() []ir.Literal {
	return p.values
}

// Clone returns an independent copy of p, so that propagation can fork a
// summary into multiple destination keys without aliasing.
func (p *PossibleValues) Clone() *PossibleValues {
	c := &PossibleValues{st: p.st}
	if len(p.values) > 0 {
		c.values = append([]ir.Literal(nil), p.values...)
	}
	return c
}
