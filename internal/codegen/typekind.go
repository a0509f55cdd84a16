package codegen

import "fmt"

// TypeKind classifies a backend type handle.
type TypeKind uint8

const (
	TypeKindVoid TypeKind = iota
	TypeKindHalf
	TypeKindFloat
	TypeKindDouble
	TypeKindX86FP80
	TypeKindFP128
	TypeKindPPCFP128
	TypeKindLabel
	TypeKindInteger
	TypeKindFunction
	TypeKindStruct
	TypeKindArray
	TypeKindPointer
	TypeKindVector
	TypeKindMetadata
	TypeKindX86MMX
	TypeKindToken
)

var typeKindNames = [...]string{
	TypeKindVoid:     "Void",
	TypeKindHalf:     "Half",
	TypeKindFloat:    "Float",
	TypeKindDouble:   "Double",
	TypeKindX86FP80:  "X86_FP80",
	TypeKindFP128:    "FP128",
	TypeKindPPCFP128: "PPC_FP128",
	TypeKindLabel:    "Label",
	TypeKindInteger:  "Integer",
	TypeKindFunction: "Function",
	TypeKindStruct:   "Struct",
	TypeKindArray:    "Array",
	TypeKindPointer:  "Pointer",
	TypeKindVector:   "Vector",
	TypeKindMetadata: "Metadata",
	TypeKindX86MMX:   "X86_MMX",
	TypeKindToken:    "Token",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", k)
}

// IsFloat reports whether k is one of the floating-point formats.
func (k TypeKind) IsFloat() bool {
	switch k {
	case TypeKindHalf, TypeKindFloat, TypeKindDouble, TypeKindX86FP80, TypeKindFP128, TypeKindPPCFP128:
		return true
	default:
		return false
	}
}
