package codegen

import "testing"

func TestPredicateNames(t *testing.T) {
	if IntSLE.String() != "sle" || RealUNE.String() != "une" || RealPredicateTrue.String() != "true" {
		t.Fatalf("unexpected predicate names")
	}
	for o := NotAtomic; o <= SequentiallyConsistent; o++ {
		got, ok := AtomicOrderingFromName(o.String())
		if !ok || got != o {
			t.Fatalf("ordering %v does not round-trip", o)
		}
	}
	for op := AtomicXchg; op <= AtomicUMin; op++ {
		got, ok := AtomicRMWBinOpFromName(op.String())
		if !ok || got != op {
			t.Fatalf("rmw op %v does not round-trip", op)
		}
	}
	if TypeKindX86FP80.String() != "X86_FP80" || !TypeKindPPCFP128.IsFloat() || TypeKindInteger.IsFloat() {
		t.Fatalf("unexpected type kind classification")
	}
}
