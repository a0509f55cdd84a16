package mir

import (
	"cgbridge/internal/codegen"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

// InstrKind enumerates instruction kinds in MIR.
type InstrKind uint8

const (
	// InstrAssign computes an rvalue into a local.
	InstrAssign InstrKind = iota
	// InstrDrop runs the destructor of a local, if it has one.
	InstrDrop
	// InstrAtomicRMW performs an atomic read-modify-write through a pointer.
	InstrAtomicRMW
	// InstrFence is a memory fence.
	InstrFence
)

// Instr represents a MIR instruction.
type Instr struct {
	Kind InstrKind
	Span source.Span

	Assign    AssignInstr
	Drop      DropInstr
	AtomicRMW AtomicRMWInstr
	Fence     FenceInstr
}

type AssignInstr struct {
	Dst LocalID
	Src RValue
}

type DropInstr struct {
	Local LocalID
}

// AtomicRMWInstr stores the previous pointee value in Dst.
type AtomicRMWInstr struct {
	Dst   LocalID
	Ptr   LocalID
	Val   Operand
	Op    codegen.AtomicRMWBinOp
	Order codegen.AtomicOrdering
}

type FenceInstr struct {
	Order codegen.AtomicOrdering
	Scope codegen.SynchronizationScope
}

// OperandKind distinguishes operand kinds.
type OperandKind uint8

const (
	// OperandCopy reads a local.
	OperandCopy OperandKind = iota
	// OperandConst is an integer or boolean literal.
	OperandConst
)

// Operand represents a MIR operand.
type Operand struct {
	Kind OperandKind
	Type types.TypeID

	Local LocalID
	Const int64
}

// Copy builds an operand reading local id of type ty.
func Copy(id LocalID, ty types.TypeID) Operand {
	return Operand{Kind: OperandCopy, Type: ty, Local: id}
}

// Const builds a literal operand.
func Const(ty types.TypeID, v int64) Operand {
	return Operand{Kind: OperandConst, Type: ty, Local: NoLocalID, Const: v}
}

// RValueKind distinguishes right-hand value kinds.
type RValueKind uint8

const (
	// RValueUse represents a use of a value.
	RValueUse RValueKind = iota
	// RValueBinaryOp represents a binary operation.
	RValueBinaryOp
)

type RValue struct {
	Kind RValueKind

	Use    Operand
	Binary BinaryOp
}

type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinBitAnd
	BinBitOr
	BinBitXor
	// BinShl and BinShr panic when the amount is >= the bit width.
	BinShl
	BinShr
	// BinShlUnchecked and BinShrUnchecked shift by amount mod width.
	BinShlUnchecked
	BinShrUnchecked
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

var binOpSpelling = [...]string{
	BinAdd:          "+",
	BinSub:          "-",
	BinMul:          "*",
	BinBitAnd:       "&",
	BinBitOr:        "|",
	BinBitXor:       "^",
	BinShl:          "<<",
	BinShr:          ">>",
	BinShlUnchecked: "shl_unchecked",
	BinShrUnchecked: "shr_unchecked",
	BinEq:           "==",
	BinNe:           "!=",
	BinLt:           "<",
	BinLe:           "<=",
	BinGt:           ">",
	BinGe:           ">=",
}

func (op BinOp) String() string {
	if int(op) < len(binOpSpelling) {
		return binOpSpelling[op]
	}
	return "?"
}

// BinOpFromString parses the spelling used in unit descriptions.
func BinOpFromString(s string) (BinOp, bool) {
	for i, sp := range binOpSpelling {
		if sp == s {
			return BinOp(i), true //nolint:gosec // small table
		}
	}
	return 0, false
}

// IsComparison reports whether op yields bool.
func (op BinOp) IsComparison() bool {
	return op >= BinEq && op <= BinGe
}

// IsShift reports whether op is one of the shift operators.
func (op BinOp) IsShift() bool {
	return op >= BinShl && op <= BinShrUnchecked
}

type BinaryOp struct {
	Op    BinOp
	Left  Operand
	Right Operand
}
