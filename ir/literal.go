package ir

import "fmt"

// LitKind distinguishes the representation carried by a Literal.
type LitKind byte

const (
	LitInvalid LitKind = iota
	LitI32
	LitI64
	LitF32
	LitF64
	// LitRefNull is the null value of a (nullable) reference type.
	LitRefNull
	// LitRefFunc is a function-reference constant, identified by name.
	LitRefFunc
)

// Literal is an IR constant value tagged by scalar or reference kind. Two
// literals are equal iff their kind matches and so do their bits (for
// scalars), their heap type (for ref.null) or their function name (for
// ref.func); this is the equality used throughout the value lattice.
type Literal struct {
	Kind   LitKind
	Bits   uint64 // holds I32/I64 as-is, F32/F64 via math.Float{32,64}bits
	Heap   *HeapType // the null type for LitRefNull; unused otherwise
	FnName string    // the target for LitRefFunc; unused otherwise
}

// I32Literal builds an i32 constant.
func I32Literal(v int32) Literal { return Literal{Kind: LitI32, Bits: uint64(uint32(v))} }

// I64Literal builds an i64 constant.
func I64Literal(v int64) Literal { return Literal{Kind: LitI64, Bits: uint64(v)} }

// RefNullLiteral builds the null constant of the given heap type.
func RefNullLiteral(heap *HeapType) Literal { return Literal{Kind: LitRefNull, Heap: heap} }

// RefFuncLiteral builds a function-reference constant.
func RefFuncLiteral(fn string) Literal { return Literal{Kind: LitRefFunc, FnName: fn} }

// ZeroLiteral returns the default-initialization value of t, as produced by
// an aggregate constructor that leaves a field unspecified.
func ZeroLiteral(t Type) Literal {
	switch t.Kind {
	case KindI32:
		return I32Literal(0)
	case KindI64:
		return I64Literal(0)
	case KindF32:
		return Literal{Kind: LitF32, Bits: 0}
	case KindF64:
		return Literal{Kind: LitF64, Bits: 0}
	case KindRef:
		return RefNullLiteral(t.Heap)
	default:
		panic(fmt.Sprintf("ir: cannot compute zero value of %s", t))
	}
}

// Type recovers the static Type of the literal.
func (l Literal) Type() Type {
	switch l.Kind {
	case LitI32:
		return TypeI32
	case LitI64:
		return TypeI64
	case LitF32:
		return TypeF32
	case LitF64:
		return TypeF64
	case LitRefNull:
		return RefType(l.Heap, true)
	case LitRefFunc:
		return RefType(l.Heap, false)
	default:
		return Type{}
	}
}

// Equal reports whether l and other are the same constant: same kind, and
// same bits, heap type (ref.null) or function name (ref.func).
func (l Literal) Equal(other Literal) bool {
	if l.Kind != other.Kind {
		return false
	}
	switch l.Kind {
	case LitRefNull:
		return l.Heap == other.Heap
	case LitRefFunc:
		return l.FnName == other.FnName
	default:
		return l.Bits == other.Bits
	}
}

// String implements fmt.Stringer.
func (l Literal) String() string {
	switch l.Kind {
	case LitI32:
		return fmt.Sprintf("i32.const %d", int32(l.Bits))
	case LitI64:
		return fmt.Sprintf("i64.const %d", int64(l.Bits))
	case LitF32:
		return fmt.Sprintf("f32.const bits=%#x", uint32(l.Bits))
	case LitF64:
		return fmt.Sprintf("f64.const bits=%#x", l.Bits)
	case LitRefNull:
		return fmt.Sprintf("ref.null %s", l.Heap)
	case LitRefFunc:
		return fmt.Sprintf("ref.func %s", l.FnName)
	default:
		return "<invalid literal>"
	}
}

// IsPositiveInteger reports whether l is an integer constant strictly
// greater than zero, the shape required of a once-guard's set value.
func (l Literal) IsPositiveInteger() bool {
	switch l.Kind {
	case LitI32:
		return int32(l.Bits) > 0
	case LitI64:
		return int64(l.Bits) > 0
	default:
		return false
	}
}
