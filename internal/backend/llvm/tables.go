package llvm

import "cgbridge/internal/codegen"

// Backend-side spelling of the codegen vocabularies. The codegen package
// never sees these strings.

var intPredicates = map[codegen.IntPredicate]string{
	codegen.IntEQ:  "eq",
	codegen.IntNE:  "ne",
	codegen.IntUGT: "ugt",
	codegen.IntUGE: "uge",
	codegen.IntULT: "ult",
	codegen.IntULE: "ule",
	codegen.IntSGT: "sgt",
	codegen.IntSGE: "sge",
	codegen.IntSLT: "slt",
	codegen.IntSLE: "sle",
}

var realPredicates = map[codegen.RealPredicate]string{
	codegen.RealPredicateFalse: "false",
	codegen.RealOEQ:            "oeq",
	codegen.RealOGT:            "ogt",
	codegen.RealOGE:            "oge",
	codegen.RealOLT:            "olt",
	codegen.RealOLE:            "ole",
	codegen.RealONE:            "one",
	codegen.RealORD:            "ord",
	codegen.RealUNO:            "uno",
	codegen.RealUEQ:            "ueq",
	codegen.RealUGT:            "ugt",
	codegen.RealUGE:            "uge",
	codegen.RealULT:            "ult",
	codegen.RealULE:            "ule",
	codegen.RealUNE:            "une",
	codegen.RealPredicateTrue:  "true",
}

var rmwOps = map[codegen.AtomicRMWBinOp]string{
	codegen.AtomicXchg: "xchg",
	codegen.AtomicAdd:  "add",
	codegen.AtomicSub:  "sub",
	codegen.AtomicAnd:  "and",
	codegen.AtomicNand: "nand",
	codegen.AtomicOr:   "or",
	codegen.AtomicXor:  "xor",
	codegen.AtomicMax:  "max",
	codegen.AtomicMin:  "min",
	codegen.AtomicUMax: "umax",
	codegen.AtomicUMin: "umin",
}

// NotAtomic has no spelling: it is only valid on plain loads and stores.
var orderings = map[codegen.AtomicOrdering]string{
	codegen.Unordered:              "unordered",
	codegen.Monotonic:              "monotonic",
	codegen.Acquire:                "acquire",
	codegen.Release:                "release",
	codegen.AcquireRelease:         "acq_rel",
	codegen.SequentiallyConsistent: "seq_cst",
}

// syncScope returns the syncscope clause (with a trailing space) or "".
func syncScope(s codegen.SynchronizationScope) string {
	if s == codegen.ScopeSingleThread {
		return `syncscope("singlethread") `
	}
	return ""
}
