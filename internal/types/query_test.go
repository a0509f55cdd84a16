package types

import (
	"testing"

	"cgbridge/internal/source"
)

var zeroSpan source.Span

func TestNeedsDrop(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	q := NewQuerier(in)
	env := RevealAllEnv()

	boxed := in.Intern(MakeBox(b.I32))
	plain := in.RegisterStruct("Point", zeroSpan)
	in.SetStructFields(plain, []StructField{{Name: "x", Type: b.I32}, {Name: "y", Type: b.I32}}, false)
	owner := in.RegisterStruct("Owner", zeroSpan)
	in.SetStructFields(owner, []StructField{{Name: "p", Type: boxed}}, false)
	guard := in.RegisterStruct("Guard", zeroSpan)
	in.SetStructFields(guard, nil, true)

	tests := []struct {
		name string
		ty   TypeID
		want bool
	}{
		{"int", b.I64, false},
		{"box", boxed, true},
		{"plain struct", plain, false},
		{"struct with box field", owner, true},
		{"struct with destructor", guard, true},
		{"empty array of boxes", in.Intern(MakeArray(boxed, 0)), false},
		{"array of boxes", in.Intern(MakeArray(boxed, 2)), true},
		{"tuple with box", in.Tuple(b.U8, boxed), true},
		{"reference to box", in.Intern(MakeReference(boxed, false)), false},
		{"dyn", in.Dyn("Any"), true},
	}
	for _, tt := range tests {
		if got := q.NeedsDrop(tt.ty, env); got != tt.want {
			t.Fatalf("%s: want %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestRevealAllResolvesOpaqueTypes(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	q := NewQuerier(in)

	hidden := in.Intern(MakeCell(b.I32))
	op := in.RegisterOpaque("Counter", hidden)

	if q.IsFreeze(op, RevealAllEnv()) {
		t.Fatalf("revealed cell must not be freeze")
	}
	if q.IsFreeze(op, ParamEnv{Reveal: RevealUserFacing}) {
		t.Fatalf("abstract opaque type is conservatively not freeze")
	}
	if q.NeedsDrop(op, RevealAllEnv()) {
		t.Fatalf("revealed cell<i32> needs no drop")
	}
	if !q.NeedsDrop(op, ParamEnv{Reveal: RevealUserFacing}) {
		t.Fatalf("abstract opaque type conservatively needs drop")
	}
}

func TestIsSized(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	q := NewQuerier(in)
	env := RevealAllEnv()

	slice := in.Intern(MakeSlice(b.U8))
	tail := in.RegisterStruct("Tail", zeroSpan)
	in.SetStructFields(tail, []StructField{{Name: "len", Type: b.U64}, {Name: "data", Type: slice}}, false)
	param := in.Param("T")

	tests := []struct {
		name string
		ty   TypeID
		env  ParamEnv
		want bool
	}{
		{"int", b.U16, env, true},
		{"str", b.Str, env, false},
		{"slice", slice, env, false},
		{"struct with unsized tail", tail, env, false},
		{"reference to slice", in.Intern(MakeReference(slice, false)), env, true},
		{"dyn", in.Dyn("Fn"), env, false},
		{"param", param, env, true},
		{"?Sized param", param, ParamEnv{Reveal: RevealAll, Bounds: map[string]Bound{"T": BoundUnsized}}, false},
	}
	for _, tt := range tests {
		if got := q.IsSized(tt.ty, tt.env); got != tt.want {
			t.Fatalf("%s: want %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestIsFreeze(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	q := NewQuerier(in)
	env := RevealAllEnv()

	cell := in.Intern(MakeCell(b.I32))
	holder := in.RegisterStruct("Holder", zeroSpan)
	in.SetStructFields(holder, []StructField{{Name: "c", Type: cell}}, false)

	if q.IsFreeze(cell, env) || q.IsFreeze(holder, env) {
		t.Fatalf("cell and structs containing it inline are not freeze")
	}
	if !q.IsFreeze(in.Intern(MakeReference(cell, false)), env) {
		t.Fatalf("a reference to a cell is itself freeze")
	}
	if !q.IsFreeze(in.Tuple(b.I8, b.F64), env) {
		t.Fatalf("plain tuples are freeze")
	}
	param := in.Param("T")
	if q.IsFreeze(param, env) {
		t.Fatalf("unbounded param is not known to be freeze")
	}
	if !q.IsFreeze(param, ParamEnv{Reveal: RevealAll, Bounds: map[string]Bound{"T": BoundFreeze}}) {
		t.Fatalf("Freeze-bounded param is freeze")
	}
}

func TestRecursiveStructQueriesTerminate(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	q := NewQuerier(in)

	node := in.RegisterStruct("Node", zeroSpan)
	next := in.Intern(MakePointer(node, false))
	in.SetStructFields(node, []StructField{{Name: "v", Type: b.I32}, {Name: "next", Type: next}}, false)
	list := in.RegisterStruct("List", zeroSpan)
	self := in.Intern(MakeArray(list, 1))
	in.SetStructFields(list, []StructField{{Name: "self", Type: self}}, false)

	if q.NeedsDrop(node, RevealAllEnv()) || !q.IsSized(node, RevealAllEnv()) || !q.IsFreeze(node, RevealAllEnv()) {
		t.Fatalf("unexpected answers for Node")
	}
	if q.NeedsDrop(list, RevealAllEnv()) {
		t.Fatalf("cyclic struct without droppers needs no drop")
	}
	// stable on repetition
	for i := 0; i < 3; i++ {
		if q.NeedsDrop(list, RevealAllEnv()) {
			t.Fatalf("answer changed on repetition %d", i)
		}
	}
}
