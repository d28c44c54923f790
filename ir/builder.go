package ir

// This file gathers the small IR constructors the optimization passes are
// specified against (see the "IR constructors" entry of the external
// interfaces): const, drop, sequence, unreachable, ref_as_non_null, select,
// binary_eq, and nop-in-place. Each returns a node with its Type already
// filled in, since the passes that use them run before any subsequent
// Refinalize.

// NewConst builds a constant expression from lit, typed accordingly.
func NewConst(lit Literal) *Const {
	return &Const{base: base{typ: lit.Type()}, Value: lit}
}

// NewDrop wraps value so its side effects run but its result is discarded.
func NewDrop(value Expression) *Drop {
	return &Drop{base: base{typ: NoneType}, Value: value}
}

// NewSequence builds the two-element block used to keep a preserved
// side-effecting expression (typically a Drop) ahead of a replacement value.
// Its type is the type of the second (final) element.
func NewSequence(first, second Expression) *Block {
	return &Block{base: base{typ: second.Type()}, List: []Expression{first, second}}
}

// NewUnreachable builds a trap.
func NewUnreachable() *Unreachable {
	return &Unreachable{base: base{typ: TypeUnreachable}}
}

// NewRefAsNonNull traps if value is null at run time; otherwise its value is
// value, retyped non-nullable.
func NewRefAsNonNull(value Expression) *RefAsNonNull {
	return &RefAsNonNull{base: base{typ: value.Type().AsNonNull()}, Value: value}
}

// NewSelect builds a two-arm select. ifTrue and ifFalse must already agree
// on type; that shared type becomes the select's type.
func NewSelect(cond, ifTrue, ifFalse Expression) *Select {
	return &Select{base: base{typ: ifTrue.Type()}, Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}
}

// BinaryEqOpForType picks the equality opcode appropriate to a scalar type.
// It panics for reference types: the field optimizer never emits a
// reference-typed comparison, since two-value reference fields are always
// left unrewritten (see the field optimizer's non-goals).
func BinaryEqOpForType(t Type) BinaryOp {
	switch t.Kind {
	case KindI32:
		return OpEqI32
	case KindI64:
		return OpEqI64
	case KindF32:
		return OpEqF32
	case KindF64:
		return OpEqF64
	default:
		panic("ir: no equality operator for type " + t.String())
	}
}

// NewBinaryEq builds an equality comparison between left and right,
// specialized to left's type. The result is always i32 (boolean).
func NewBinaryEq(left, right Expression) *Binary {
	op := BinaryEqOpForType(left.Type())
	return &Binary{base: base{typ: TypeI32}, Op: op, Left: left, Right: right}
}

// NewNop builds a no-op expression with no value.
func NewNop() *Nop {
	return &Nop{base: base{typ: NoneType}}
}

// NopInPlace replaces the node stored in slot with a fresh Nop, so the
// parent field slot points at now holds the Nop. The replaced node itself is
// not modified: anything else still holding a pointer to it keeps seeing
// the original node. Passes that rewrite a GlobalSet or Call to a no-op
// call this on the slot that holds it.
func NopInPlace(slot *Expression) {
	*slot = NewNop()
}

// The constructors below round out the builder to every other node kind in
// the IR. They exist so functions can be assembled directly (there is no
// text-format parser in this module); each computes the same type a real
// front-end would assign, so freshly built trees never need an initial
// Refinalize pass.

// NewBlock builds a labeled or unlabeled block. Its type is the type of the
// last element in list, or NoneType if list is empty.
func NewBlock(label string, list []Expression) *Block {
	typ := NoneType
	if n := len(list); n > 0 {
		typ = list[n-1].Type()
	}
	return &Block{base: base{typ: typ}, Label: label, List: list}
}

// NewIf builds a conditional. If elseBranch is nil, the If has no value;
// otherwise its type is thenBranch's type (the two arms are expected to
// agree, as produced by a well-typed front-end).
func NewIf(cond, thenBranch, elseBranch Expression) *If {
	typ := NoneType
	if elseBranch != nil {
		typ = thenBranch.Type()
	}
	return &If{base: base{typ: typ}, Cond: cond, Then: thenBranch, Else: elseBranch}
}

// NewReturn builds a function return, optionally carrying value.
func NewReturn(value Expression) *Return {
	return &Return{base: base{typ: TypeUnreachable}, Value: value}
}

// NewGlobalGet reads global name, typed t.
func NewGlobalGet(name string, t Type) *GlobalGet {
	return &GlobalGet{base: base{typ: t}, Name: name}
}

// NewGlobalSet writes value into global name.
func NewGlobalSet(name string, value Expression) *GlobalSet {
	return &GlobalSet{base: base{typ: NoneType}, Name: name, Value: value}
}

// NewLocalGet reads local index, typed t.
func NewLocalGet(index int, t Type) *LocalGet {
	return &LocalGet{base: base{typ: t}, Index: index}
}

// NewLocalSet writes value into local index.
func NewLocalSet(index int, value Expression) *LocalSet {
	return &LocalSet{base: base{typ: NoneType}, Index: index, Value: value}
}

// NewLoop builds a loop named label around body.
func NewLoop(label string, body Expression) *Loop {
	return &Loop{base: base{typ: NoneType}, Label: label, Body: body}
}

// NewBr builds an unconditional branch to label.
func NewBr(label string, value Expression) *Br {
	return &Br{base: base{typ: TypeUnreachable}, Label: label, Value: value}
}

// NewBrIf builds a conditional branch to label.
func NewBrIf(label string, cond Expression) *BrIf {
	return &BrIf{base: base{typ: NoneType}, Label: label, Cond: cond}
}

// NewCall invokes target with args, whose result is typed resultType
// (NoneType for a function with no results).
func NewCall(target string, args []Expression, resultType Type) *Call {
	return &Call{base: base{typ: resultType}, Target: target, Args: args}
}

// NewStructNew constructs an aggregate of heapType. operands has one entry
// per field; a nil entry default-initializes that field.
func NewStructNew(heapType *HeapType, operands []Expression) *StructNew {
	return &StructNew{
		base:     base{typ: RefType(heapType, false)},
		HeapType: heapType,
		Operands: operands,
	}
}

// NewStructGet reads field index of heapType through ref.
func NewStructGet(heapType *HeapType, index int, ref Expression) *StructGet {
	return &StructGet{
		base:     base{typ: heapType.Field(index).Type},
		HeapType: heapType,
		Index:    index,
		Ref:      ref,
	}
}

// NewStructSet writes value into field index of heapType through ref.
func NewStructSet(heapType *HeapType, index int, ref, value Expression) *StructSet {
	return &StructSet{
		base:     base{typ: NoneType},
		HeapType: heapType,
		Index:    index,
		Ref:      ref,
		Value:    value,
	}
}
