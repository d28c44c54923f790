package ir

// Refinalize recomputes the static type of a single node from its children's
// current types, after a rewrite has narrowed or widened one of them (for
// example, the field optimizer replacing a StructGet with an Unreachable
// trap, which can turn an enclosing Block or If unreachable in turn).
//
// Unlike a generic module-wide retyping pass, this is deliberately scoped:
// a rewrite only ever needs to walk back up the handful of ancestors between
// the rewritten node and the nearest point where the new type can no longer
// propagate further (a statement-position Block, a function body, a Call
// argument list). The field optimizer collects its ancestor chain (every
// enclosing node up to the function body) as it recurses and calls
// RefinalizeChain with it once a read has been rewritten, rather than
// re-walking the whole body; the once-guard optimizer never needs either
// call, because
// nopping a GlobalSet or a call to a niladic, resultless once-function never
// changes that expression's type (both are NoneType already).
func Refinalize(expr Expression) {
	switch e := expr.(type) {
	case *Block:
		if n := len(e.List); n > 0 {
			last := e.List[n-1].Type()
			if anyUnreachable(e.List) {
				e.SetType(TypeUnreachable)
			} else {
				e.SetType(last)
			}
		} else {
			e.SetType(NoneType)
		}
	case *If:
		if e.Cond.Type().IsUnreachable() {
			e.SetType(TypeUnreachable)
		} else if e.Else == nil {
			e.SetType(NoneType)
		} else if e.Then.Type().IsUnreachable() {
			e.SetType(e.Else.Type())
		} else {
			e.SetType(e.Then.Type())
		}
	case *Select:
		switch {
		case e.Cond.Type().IsUnreachable():
			e.SetType(TypeUnreachable)
		case e.IfTrue.Type().IsUnreachable():
			e.SetType(e.IfFalse.Type())
		default:
			e.SetType(e.IfTrue.Type())
		}
	case *RefAsNonNull:
		if e.Value.Type().IsUnreachable() {
			e.SetType(TypeUnreachable)
		} else {
			e.SetType(e.Value.Type().AsNonNull())
		}
	case *Binary:
		if e.Left.Type().IsUnreachable() || e.Right.Type().IsUnreachable() {
			e.SetType(TypeUnreachable)
		}
		// otherwise Binary's type is fixed by its Op and does not change.
	case *Drop:
		if e.Value.Type().IsUnreachable() {
			e.SetType(TypeUnreachable)
		} else {
			e.SetType(NoneType)
		}
	default:
		// Every other node kind's type is fixed at construction and does
		// not depend on a child's type narrowing (GlobalSet, LocalSet,
		// StructSet, Br, BrIf, Return, Call, StructNew, StructGet, Const,
		// GlobalGet, LocalGet, Nop, Unreachable).
	}
}

func anyUnreachable(list []Expression) bool {
	for _, e := range list {
		if e.Type().IsUnreachable() {
			return true
		}
	}
	return false
}

// RefinalizeTree recomputes types bottom-up over expr's entire subtree: every
// child is refinalized before its parent, so a narrowing deep inside the
// tree (a StructGet rewritten to an Unreachable trap, say) is correctly
// reflected in every enclosing Block, If, Select, RefAsNonNull, Binary and
// Drop on the way back out. It suits callers that want the whole subtree
// recomputed at once rather than tracking an ancestor chain per rewrite; in
// this repository only tests call it, since the field optimizer uses
// RefinalizeChain.
func RefinalizeTree(expr Expression) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *Block:
		for _, c := range e.List {
			RefinalizeTree(c)
		}
	case *If:
		RefinalizeTree(e.Cond)
		RefinalizeTree(e.Then)
		RefinalizeTree(e.Else)
	case *Return:
		RefinalizeTree(e.Value)
	case *GlobalSet:
		RefinalizeTree(e.Value)
	case *LocalSet:
		RefinalizeTree(e.Value)
	case *Loop:
		RefinalizeTree(e.Body)
	case *Br:
		RefinalizeTree(e.Value)
	case *BrIf:
		RefinalizeTree(e.Cond)
	case *Call:
		for _, a := range e.Args {
			RefinalizeTree(a)
		}
	case *StructNew:
		for _, o := range e.Operands {
			RefinalizeTree(o)
		}
	case *StructGet:
		RefinalizeTree(e.Ref)
	case *StructSet:
		RefinalizeTree(e.Ref)
		RefinalizeTree(e.Value)
	case *Drop:
		RefinalizeTree(e.Value)
	case *RefAsNonNull:
		RefinalizeTree(e.Value)
	case *Select:
		RefinalizeTree(e.Cond)
		RefinalizeTree(e.IfTrue)
		RefinalizeTree(e.IfFalse)
	case *Binary:
		RefinalizeTree(e.Left)
		RefinalizeTree(e.Right)
	case *Nop, *Unreachable, *GlobalGet, *LocalGet, *Const:
		// leaves; nothing below to refinalize.
	default:
		panic("ir: unhandled expression kind in RefinalizeTree")
	}
	Refinalize(expr)
}

// RefinalizeChain re-derives types along path, outermost-last: path[0] is
// the node nearest the rewrite (its children already hold their final
// types), path[len(path)-1] the outermost ancestor still worth updating.
// Each call only looks at its own children, so callers must list ancestors
// in strict child-to-parent order.
func RefinalizeChain(path []Expression) {
	for _, e := range path {
		Refinalize(e)
	}
}
