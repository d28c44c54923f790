package ir

// Visitor receives one call per expression node, in post-order (children
// before parents), plus a final VisitFunction once a function body has been
// fully walked. It mirrors the module-walker infrastructure the passes in
// this repository are specified against: a post-order walker that visits
// expressions and calls visitX hooks per expression kind.
//
// Passes embed BaseVisitor and override only the hooks they need.
type Visitor interface {
	VisitBlock(*Block)
	VisitIf(*If)
	VisitReturn(*Return)
	VisitNop(*Nop)
	VisitUnreachable(*Unreachable)
	VisitGlobalGet(*GlobalGet)
	VisitGlobalSet(*GlobalSet)
	VisitLocalGet(*LocalGet)
	VisitLocalSet(*LocalSet)
	VisitLoop(*Loop)
	VisitBr(*Br)
	VisitBrIf(*BrIf)
	VisitCall(*Call)
	VisitStructNew(*StructNew)
	VisitStructGet(*StructGet)
	VisitStructSet(*StructSet)
	VisitConst(*Const)
	VisitDrop(*Drop)
	VisitRefAsNonNull(*RefAsNonNull)
	VisitSelect(*Select)
	VisitBinary(*Binary)

	// VisitFunction runs once, after fn's body has been fully walked.
	VisitFunction(fn *Function)
}

// BaseVisitor implements Visitor with every hook a no-op, so embedders only
// need to define the hooks they care about.
type BaseVisitor struct{}

func (BaseVisitor) VisitBlock(*Block)               {}
func (BaseVisitor) VisitIf(*If)                     {}
func (BaseVisitor) VisitReturn(*Return)             {}
func (BaseVisitor) VisitNop(*Nop)                   {}
func (BaseVisitor) VisitUnreachable(*Unreachable)   {}
func (BaseVisitor) VisitGlobalGet(*GlobalGet)       {}
func (BaseVisitor) VisitGlobalSet(*GlobalSet)       {}
func (BaseVisitor) VisitLocalGet(*LocalGet)         {}
func (BaseVisitor) VisitLocalSet(*LocalSet)         {}
func (BaseVisitor) VisitLoop(*Loop)                 {}
func (BaseVisitor) VisitBr(*Br)                     {}
func (BaseVisitor) VisitBrIf(*BrIf)                 {}
func (BaseVisitor) VisitCall(*Call)                 {}
func (BaseVisitor) VisitStructNew(*StructNew)       {}
func (BaseVisitor) VisitStructGet(*StructGet)       {}
func (BaseVisitor) VisitStructSet(*StructSet)       {}
func (BaseVisitor) VisitConst(*Const)               {}
func (BaseVisitor) VisitDrop(*Drop)                 {}
func (BaseVisitor) VisitRefAsNonNull(*RefAsNonNull) {}
func (BaseVisitor) VisitSelect(*Select)             {}
func (BaseVisitor) VisitBinary(*Binary)             {}
func (BaseVisitor) VisitFunction(*Function)         {}

var _ Visitor = BaseVisitor{}

// WalkExpression recurses into expr's children, then calls the matching
// VisitX hook on v. Passing nil is a no-op, which lets callers walk optional
// fields (If.Else, Return.Value, ...) unconditionally.
func WalkExpression(expr Expression, v Visitor) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *Block:
		for _, c := range e.List {
			WalkExpression(c, v)
		}
		v.VisitBlock(e)
	case *If:
		WalkExpression(e.Cond, v)
		WalkExpression(e.Then, v)
		WalkExpression(e.Else, v)
		v.VisitIf(e)
	case *Return:
		WalkExpression(e.Value, v)
		v.VisitReturn(e)
	case *Nop:
		v.VisitNop(e)
	case *Unreachable:
		v.VisitUnreachable(e)
	case *GlobalGet:
		v.VisitGlobalGet(e)
	case *GlobalSet:
		WalkExpression(e.Value, v)
		v.VisitGlobalSet(e)
	case *LocalGet:
		v.VisitLocalGet(e)
	case *LocalSet:
		WalkExpression(e.Value, v)
		v.VisitLocalSet(e)
	case *Loop:
		WalkExpression(e.Body, v)
		v.VisitLoop(e)
	case *Br:
		WalkExpression(e.Value, v)
		v.VisitBr(e)
	case *BrIf:
		WalkExpression(e.Cond, v)
		v.VisitBrIf(e)
	case *Call:
		for _, a := range e.Args {
			WalkExpression(a, v)
		}
		v.VisitCall(e)
	case *StructNew:
		for _, o := range e.Operands {
			WalkExpression(o, v)
		}
		v.VisitStructNew(e)
	case *StructGet:
		WalkExpression(e.Ref, v)
		v.VisitStructGet(e)
	case *StructSet:
		WalkExpression(e.Ref, v)
		WalkExpression(e.Value, v)
		v.VisitStructSet(e)
	case *Const:
		v.VisitConst(e)
	case *Drop:
		WalkExpression(e.Value, v)
		v.VisitDrop(e)
	case *RefAsNonNull:
		WalkExpression(e.Value, v)
		v.VisitRefAsNonNull(e)
	case *Select:
		WalkExpression(e.Cond, v)
		WalkExpression(e.IfTrue, v)
		WalkExpression(e.IfFalse, v)
		v.VisitSelect(e)
	case *Binary:
		WalkExpression(e.Left, v)
		WalkExpression(e.Right, v)
		v.VisitBinary(e)
	default:
		panic("ir: unhandled expression kind in WalkExpression")
	}
}

// WalkFunction walks fn's body, then calls v.VisitFunction(fn).
func WalkFunction(fn *Function, v Visitor) {
	WalkExpression(fn.Body, v)
	v.VisitFunction(fn)
}

// Note on rewriting: Visitor's hooks are observation-only. A pass that
// replaces a node (the field optimizer's StructGet rewrites, OnceReduction's
// no-op rewrites) does not get a generic "replace me" callback here, since
// Go has no way to hand back "the field I came from" for an arbitrary
// parent. Instead each such pass walks by hand over the specific, small set
// of node shapes it rewrites and assigns directly into the parent's field
// (e.g. `structSet.Value = ir.NewNop()`), reserving WalkExpression for the
// read-only scans.
