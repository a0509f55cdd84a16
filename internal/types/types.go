package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindUint
	KindFloat
	KindChar
	KindStr
	KindArray
	KindSlice
	KindPointer
	KindReference
	KindBox
	KindTuple
	KindStruct
	KindFn
	KindDyn
	KindOpaque
	KindParam
	KindCell
	KindVector
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindUnit:      "unit",
	KindBool:      "bool",
	KindInt:       "int",
	KindUint:      "uint",
	KindFloat:     "float",
	KindChar:      "char",
	KindStr:       "str",
	KindArray:     "array",
	KindSlice:     "slice",
	KindPointer:   "pointer",
	KindReference: "reference",
	KindBox:       "box",
	KindTuple:     "tuple",
	KindStruct:    "struct",
	KindFn:        "fn",
	KindDyn:       "dyn",
	KindOpaque:    "opaque",
	KindParam:     "param",
	KindCell:      "cell",
	KindVector:    "vector",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Width captures the precision of integers/floats in bits.
type Width uint8

const (
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width128 Width = 128
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Count   uint32 // arrays and vectors
	Width   Width  // numeric primitives
	Mutable bool   // references and pointers
	Payload uint32 // slot in the nominal/tuple/param tables
}

// IsInteger reports whether the descriptor is a signed or unsigned integer.
func (t Type) IsInteger() bool {
	return t.Kind == KindInt || t.Kind == KindUint
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeArray describes a fixed-size array of elem.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}

// MakeSlice describes an unsized run of elem ([T]).
func MakeSlice(elem TypeID) Type {
	return Type{Kind: KindSlice, Elem: elem}
}

// MakeVector describes a SIMD vector of lanes elements.
func MakeVector(elem TypeID, lanes uint32) Type {
	return Type{Kind: KindVector, Elem: elem, Count: lanes}
}

// MakePointer describes a raw pointer.
func MakePointer(elem TypeID, mutable bool) Type {
	return Type{Kind: KindPointer, Elem: elem, Mutable: mutable}
}

// MakeReference describes &T or &mut T depending on the mutable flag.
func MakeReference(elem TypeID, mutable bool) Type {
	return Type{Kind: KindReference, Elem: elem, Mutable: mutable}
}

// MakeBox describes an owning heap pointer.
func MakeBox(elem TypeID) Type {
	return Type{Kind: KindBox, Elem: elem}
}

// MakeCell describes an interior-mutable wrapper around elem.
func MakeCell(elem TypeID) Type {
	return Type{Kind: KindCell, Elem: elem}
}
