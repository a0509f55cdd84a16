package eval

import (
	"slices"
	"testing"

	"cgbridge/internal/codegen"
)

func TestOverwideShiftIsPoison(t *testing.T) {
	cx := New()
	b := cx.NewBuilder()
	i8 := cx.TypeIx(8)
	one := cx.ConstUint(i8, 1)
	tests := []struct {
		amount uint64
		poison bool
	}{
		{0, false},
		{7, false},
		{8, true},
		{255, true},
	}
	for _, tt := range tests {
		for _, shift := range []func(l, r codegen.Value) codegen.Value{b.Shl, b.LShr, b.AShr} {
			got := cx.IsPoison(shift(one, cx.ConstUint(i8, tt.amount)))
			if got != tt.poison {
				t.Fatalf("shift by %d: poison=%v, want %v", tt.amount, got, tt.poison)
			}
		}
	}
}

func TestPoisonPropagatesPerLane(t *testing.T) {
	cx := New()
	b := cx.NewBuilder()
	v := cx.TypeVector(cx.TypeIx(16), 3)
	res := b.Shl(cx.ConstVector(v, 1, 1, 1), cx.ConstVector(v, 1, 16, 2))
	if got := cx.LanePoison(res); !slices.Equal(got, []bool{false, true, false}) {
		t.Fatalf("unexpected poison lanes %v", got)
	}
	if got := cx.Format(res, false); got != "<2, poison, 4>" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestConstantsWrap(t *testing.T) {
	cx := New()
	i8 := cx.TypeIx(8)
	if got := cx.Uint64(cx.ConstInt(i8, -1)); got != 255 {
		t.Fatalf("want 255, got %d", got)
	}
	if got := cx.Int64(cx.ConstUint(i8, 0x80)); got != -128 {
		t.Fatalf("want -128, got %d", got)
	}
	if got := cx.Uint64(cx.ConstUint(i8, 0x1FF)); got != 0xFF {
		t.Fatalf("want truncation to 0xff, got %#x", got)
	}
}

func TestICmpSignedness(t *testing.T) {
	cx := New()
	b := cx.NewBuilder()
	i8 := cx.TypeIx(8)
	minus1, one := cx.ConstInt(i8, -1), cx.ConstUint(i8, 1)
	if cx.Uint64(b.ICmp(codegen.IntSLT, minus1, one)) != 1 {
		t.Fatalf("-1 <s 1 should hold")
	}
	if cx.Uint64(b.ICmp(codegen.IntULT, minus1, one)) != 0 {
		t.Fatalf("255 <u 1 should not hold")
	}
	want := []string{"icmp slt", "icmp ult"}
	if got := b.Ops(); !slices.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}
