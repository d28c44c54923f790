// Package ir defines the typed, nominally-subtyped intermediate representation
// operated on by the optimization passes in this module: aggregate (struct)
// heap types with declared fields, an expression tree of instructions, and
// the module/function containers that hold them.
//
// The parser, printer and CLI front-end that would normally produce and
// consume this IR are treated as external collaborators and are not part of
// this package; this package only carries the shapes the passes need.
package ir

import "fmt"

// Kind identifies the scalar or reference category of a Type.
type Kind byte

const (
	KindInvalid Kind = 1 + iota

	// KindI32 is a 32-bit integer.
	KindI32
	// KindI64 is a 64-bit integer.
	KindI64
	// KindF32 is a 32-bit IEEE-754 float.
	KindF32
	// KindF64 is a 64-bit IEEE-754 float.
	KindF64
	// KindRef is a (possibly nullable) reference to a HeapType.
	KindRef
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindRef:
		return "ref"
	default:
		return "invalid"
	}
}

// IsInteger reports whether k is one of the integer scalar kinds.
func (k Kind) IsInteger() bool { return k == KindI32 || k == KindI64 }

// Type is the static type of an IR value: either a scalar or a reference to
// a HeapType, which may or may not admit null.
type Type struct {
	Kind     Kind
	Nullable bool
	Heap     *HeapType
}

// TypeUnreachable is the type given to expressions on a path that can never
// execute (e.g. the operand of an unconditional trap).
var TypeUnreachable = Type{Kind: KindInvalid}

// noneSentinel distinguishes NoneType from TypeUnreachable, which also has
// Kind == KindInvalid but a nil Heap. Every consumer in this module treats
// them the same way (neither is ever read as a value); the distinction
// exists only so IsUnreachable can be precise about which is which.
var noneSentinel = &HeapType{Name: "<none>"}

// NoneType is the type of an expression that produces no value at all, such
// as a Drop, Nop, GlobalSet, or StructSet.
var NoneType = Type{Kind: KindInvalid, Heap: noneSentinel}

// IsNone reports whether t is NoneType.
func (t Type) IsNone() bool { return t.Kind == KindInvalid && t.Heap == noneSentinel }

var (
	TypeI32 = Type{Kind: KindI32}
	TypeI64 = Type{Kind: KindI64}
	TypeF32 = Type{Kind: KindF32}
	TypeF64 = Type{Kind: KindF64}
)

// IsUnreachable reports whether t marks unreachable code.
func (t Type) IsUnreachable() bool { return t.Kind == KindInvalid && t.Heap == nil }

// IsRef reports whether t is a reference type.
func (t Type) IsRef() bool { return t.Kind == KindRef }

// RefType builds a reference type to heap, nullable as requested.
func RefType(heap *HeapType, nullable bool) Type {
	return Type{Kind: KindRef, Heap: heap, Nullable: nullable}
}

// AsNonNull returns t with Nullable cleared. Only meaningful for reference
// types; scalars are returned unchanged.
func (t Type) AsNonNull() Type {
	if t.Kind != KindRef {
		return t
	}
	t.Nullable = false
	return t
}

// Equal reports whether t and other describe the same static type.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind != KindRef {
		return true
	}
	return t.Nullable == other.Nullable && t.Heap == other.Heap
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if t.IsUnreachable() {
		return "unreachable"
	}
	if t.Kind != KindRef {
		return t.Kind.String()
	}
	q := ""
	if t.Nullable {
		q = "?"
	}
	name := "<anon>"
	if t.Heap != nil {
		name = t.Heap.Name
	}
	return fmt.Sprintf("ref%s%s", q, name)
}

// Field is one declared field of a HeapType.
type Field struct {
	Type    Type
	Mutable bool
}

// HeapType is the identity of an aggregate (struct) type. Fields are
// inherited: a subtype's field list always begins with its supertype's
// fields, in the same order, so a FieldKey's index is meaningful across the
// whole hierarchy rooted at the field's declaring type.
type HeapType struct {
	Name   string
	super  *HeapType
	fields []Field
}

// NewHeapType declares a fresh root heap type (no supertype) with the given
// fields.
func NewHeapType(name string, fields ...Field) *HeapType {
	return &HeapType{Name: name, fields: fields}
}

// NewSubType declares a heap type extending super, appending additionalFields
// after every field super declares.
func NewSubType(name string, super *HeapType, additionalFields ...Field) *HeapType {
	fields := make([]Field, 0, len(super.fields)+len(additionalFields))
	fields = append(fields, super.fields...)
	fields = append(fields, additionalFields...)
	return &HeapType{Name: name, super: super, fields: fields}
}

// Supertype returns this type's declared supertype, or nil if it is a root.
func (h *HeapType) Supertype() *HeapType { return h.super }

// Fields returns the full, inherited field list of h.
func (h *HeapType) Fields() []Field { return h.fields }

// Field returns the field at index i, which must be < len(h.Fields()).
func (h *HeapType) Field(i int) Field { return h.fields[i] }

// DeclaresField reports whether h has at least i+1 fields, i.e. a field with
// that index is reachable through h (whether declared by h or an ancestor).
func (h *HeapType) DeclaresField(i int) bool { return i < len(h.fields) }

// String implements fmt.Stringer.
func (h *HeapType) String() string { return h.Name }

// IsSubtype reports whether a is a (reflexive) nominal subtype of b, i.e.
// a == b or a's supertype chain reaches b.
func IsSubtype(a, b *HeapType) bool {
	for t := a; t != nil; t = t.super {
		if t == b {
			return true
		}
	}
	return false
}

// Ancestors returns h and every supertype of h, closest first.
func (h *HeapType) Ancestors() []*HeapType {
	var out []*HeapType
	for t := h; t != nil; t = t.super {
		out = append(out, t)
	}
	return out
}

// FieldKey identifies one field slot of one heap type: the pair that
// PossibleValues summaries are keyed on.
type FieldKey struct {
	Type  *HeapType
	Index int
}
