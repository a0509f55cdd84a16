package codegen

import "fmt"

// IntPredicate selects an integer comparison.
type IntPredicate uint8

const (
	IntEQ IntPredicate = iota
	IntNE
	IntUGT
	IntUGE
	IntULT
	IntULE
	IntSGT
	IntSGE
	IntSLT
	IntSLE
)

func (p IntPredicate) String() string {
	switch p {
	case IntEQ:
		return "eq"
	case IntNE:
		return "ne"
	case IntUGT:
		return "ugt"
	case IntUGE:
		return "uge"
	case IntULT:
		return "ult"
	case IntULE:
		return "ule"
	case IntSGT:
		return "sgt"
	case IntSGE:
		return "sge"
	case IntSLT:
		return "slt"
	case IntSLE:
		return "sle"
	default:
		return fmt.Sprintf("IntPredicate(%d)", p)
	}
}

// RealPredicate selects a floating-point comparison. O* variants are false
// when either operand is NaN, U* variants are true.
type RealPredicate uint8

const (
	RealPredicateFalse RealPredicate = iota
	RealOEQ
	RealOGT
	RealOGE
	RealOLT
	RealOLE
	RealONE
	RealORD
	RealUNO
	RealUEQ
	RealUGT
	RealUGE
	RealULT
	RealULE
	RealUNE
	RealPredicateTrue
)

var realPredicateNames = [...]string{
	RealPredicateFalse: "false",
	RealOEQ:            "oeq",
	RealOGT:            "ogt",
	RealOGE:            "oge",
	RealOLT:            "olt",
	RealOLE:            "ole",
	RealONE:            "one",
	RealORD:            "ord",
	RealUNO:            "uno",
	RealUEQ:            "ueq",
	RealUGT:            "ugt",
	RealUGE:            "uge",
	RealULT:            "ult",
	RealULE:            "ule",
	RealUNE:            "une",
	RealPredicateTrue:  "true",
}

func (p RealPredicate) String() string {
	if int(p) < len(realPredicateNames) {
		return realPredicateNames[p]
	}
	return fmt.Sprintf("RealPredicate(%d)", p)
}

// AtomicRMWBinOp is the operation of an atomic read-modify-write.
type AtomicRMWBinOp uint8

const (
	AtomicXchg AtomicRMWBinOp = iota
	AtomicAdd
	AtomicSub
	AtomicAnd
	AtomicNand
	AtomicOr
	AtomicXor
	AtomicMax
	AtomicMin
	AtomicUMax
	AtomicUMin
)

var atomicRMWNames = [...]string{
	AtomicXchg: "xchg",
	AtomicAdd:  "add",
	AtomicSub:  "sub",
	AtomicAnd:  "and",
	AtomicNand: "nand",
	AtomicOr:   "or",
	AtomicXor:  "xor",
	AtomicMax:  "max",
	AtomicMin:  "min",
	AtomicUMax: "umax",
	AtomicUMin: "umin",
}

func (op AtomicRMWBinOp) String() string {
	if int(op) < len(atomicRMWNames) {
		return atomicRMWNames[op]
	}
	return fmt.Sprintf("AtomicRMWBinOp(%d)", op)
}

// AtomicOrdering is a memory ordering level, weakest first.
type AtomicOrdering uint8

const (
	NotAtomic AtomicOrdering = iota
	Unordered
	Monotonic
	// Consume is not supported; lowering uses Acquire instead.
	Acquire
	Release
	AcquireRelease
	SequentiallyConsistent
)

func (o AtomicOrdering) String() string {
	switch o {
	case NotAtomic:
		return "not_atomic"
	case Unordered:
		return "unordered"
	case Monotonic:
		return "monotonic"
	case Acquire:
		return "acquire"
	case Release:
		return "release"
	case AcquireRelease:
		return "acq_rel"
	case SequentiallyConsistent:
		return "seq_cst"
	default:
		return fmt.Sprintf("AtomicOrdering(%d)", o)
	}
}

// AtomicOrderingFromName parses the names used in unit descriptions.
func AtomicOrderingFromName(name string) (AtomicOrdering, bool) {
	for o := NotAtomic; o <= SequentiallyConsistent; o++ {
		if o.String() == name {
			return o, true
		}
	}
	return NotAtomic, false
}

// AtomicRMWBinOpFromName parses an atomic operation name ("xchg", "umax", ...).
func AtomicRMWBinOpFromName(name string) (AtomicRMWBinOp, bool) {
	for i, n := range atomicRMWNames {
		if n == name {
			return AtomicRMWBinOp(i), true
		}
	}
	return AtomicXchg, false
}

// SynchronizationScope limits which threads a fence synchronises with.
type SynchronizationScope uint8

const (
	ScopeOther SynchronizationScope = iota
	ScopeSingleThread
	ScopeCrossThread
)

func (s SynchronizationScope) String() string {
	switch s {
	case ScopeOther:
		return "other"
	case ScopeSingleThread:
		return "singlethread"
	case ScopeCrossThread:
		return "crossthread"
	default:
		return fmt.Sprintf("SynchronizationScope(%d)", s)
	}
}
