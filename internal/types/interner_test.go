package types

import "testing"

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	v1 := in.Intern(MakeVector(b.U32, 4))
	v2 := in.Intern(MakeVector(b.U32, 4))
	if v1 != v2 {
		t.Fatalf("vector types should be deduplicated")
	}
	if in.Intern(MakeVector(b.U32, 8)) == v1 {
		t.Fatalf("lane count must affect identity")
	}
	if in.Tuple(b.I8, b.Bool) != in.Tuple(b.I8, b.Bool) {
		t.Fatalf("tuples should be deduplicated")
	}
	if in.Tuple() != b.Unit {
		t.Fatalf("empty tuple is unit")
	}
}

func TestNominalStructsAreDistinct(t *testing.T) {
	in := NewInterner()
	a := in.RegisterStruct("A", zeroSpan)
	b := in.RegisterStruct("A", zeroSpan)
	if a == b {
		t.Fatalf("struct registration must create a fresh type")
	}
}

func TestIsSignedAndName(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	vec := in.Intern(MakeVector(b.I16, 8))
	tests := []struct {
		id     TypeID
		signed bool
		name   string
	}{
		{b.I64, true, "i64"},
		{b.U8, false, "u8"},
		{vec, true, "<8 x i16>"},
		{in.Intern(MakeBox(b.U32)), false, "box<u32>"},
		{in.Intern(MakeReference(b.Str, false)), false, "&str"},
	}
	for _, tt := range tests {
		if got := in.IsSigned(tt.id); got != tt.signed {
			t.Fatalf("%s: IsSigned want %v, got %v", tt.name, tt.signed, got)
		}
		if got := in.Name(tt.id); got != tt.name {
			t.Fatalf("want name %q, got %q", tt.name, got)
		}
	}
}
