package llvm

import (
	"errors"
	"strings"
	"testing"

	"cgbridge/internal/codegen"
	"cgbridge/internal/session"
	"cgbridge/internal/types"
)

func defineBinary(t *testing.T, be *Backend, name string, ty codegen.Type) *Builder {
	t.Helper()
	cx := be.Context()
	fn := be.DeclareFn(name, cx.TypeFunc([]codegen.Type{ty, ty}, ty))
	bx, ok := be.Define(fn).(*Builder)
	if !ok {
		t.Fatalf("unexpected builder type")
	}
	bx.PositionAtEnd(bx.AppendBlock("start"))
	return bx
}

func TestUncheckedShiftIR(t *testing.T) {
	be := NewBackend("demo", "")
	in := types.NewInterner()
	i32 := be.Context().TypeIx(32)

	bx := defineBinary(t, be, "shl32", i32)
	bx.Ret(codegen.BuildUncheckedLShift(bx, bx.Param(0), bx.Param(1)))
	bx.Finish()

	bx = defineBinary(t, be, "shr32", i32)
	bx.Ret(codegen.BuildUncheckedRShift(bx, in, in.Builtins().I32, bx.Param(0), bx.Param(1)))
	bx.Finish()

	want := `; ModuleID = 'demo'
target triple = "x86_64-linux-gnu"

define i32 @shl32(i32 %p0, i32 %p1) {
start:
  %t1 = and i32 %p1, 31
  %t2 = shl i32 %p0, %t1
  ret i32 %t2
}

define i32 @shr32(i32 %p0, i32 %p1) {
start:
  %t1 = and i32 %p1, 31
  %t2 = ashr i32 %p0, %t1
  ret i32 %t2
}
`
	if got := be.Module().String(); got != want {
		t.Fatalf("unexpected IR:\n%s\nwant:\n%s", got, want)
	}
}

func TestVectorShiftUsesSplattedConstant(t *testing.T) {
	be := NewBackend("vec", "")
	cx := be.Context()
	v := cx.TypeVector(cx.TypeIx(64), 2)
	bx := defineBinary(t, be, "shl", v)
	bx.Ret(codegen.BuildUncheckedLShift(bx, bx.Param(0), bx.Param(1)))
	bx.Finish()

	ir := be.Module().String()
	if !strings.Contains(ir, "%t1 = and <2 x i64> %p1, <i64 63, i64 63>\n") {
		t.Fatalf("mask not folded into a vector constant:\n%s", ir)
	}
}

func TestSplatOfRuntimeValue(t *testing.T) {
	be := NewBackend("splat", "")
	cx := be.Context()
	i32 := cx.TypeIx(32)
	v := cx.TypeVector(i32, 4)
	fn := be.DeclareFn("splat", cx.TypeFunc([]codegen.Type{i32}, v))
	bx := be.Define(fn)
	bx.PositionAtEnd(bx.AppendBlock("start"))
	bx.Ret(bx.VectorSplat(4, bx.Param(0)))
	bx.Finish()

	ir := be.Module().String()
	for _, line := range []string{
		"%t1 = insertelement <4 x i32> poison, i32 %p0, i64 0",
		"%t2 = shufflevector <4 x i32> %t1, <4 x i32> poison, <4 x i32> zeroinitializer",
		"ret <4 x i32> %t2",
	} {
		if !strings.Contains(ir, line) {
			t.Fatalf("missing %q in:\n%s", line, ir)
		}
	}
}

func TestConstantSpelling(t *testing.T) {
	cx := NewBackend("c", "").Context()
	tests := []struct {
		v    codegen.Value
		want string
	}{
		{cx.ConstInt(cx.TypeIx(8), -8), "-8"},
		{cx.ConstUint(cx.TypeIx(8), 248), "-8"},
		{cx.ConstUint(cx.TypeIx(64), ^uint64(0)), "-1"},
		{cx.ConstUint(cx.TypeIx(128), 127), "127"},
		{cx.ConstUint(cx.TypeIx(1), 1), "true"},
		{cx.ConstUint(cx.TypeIx(1), 0), "false"},
	}
	for _, tt := range tests {
		if got := cx.ValueString(tt.v); got != tt.want {
			t.Fatalf("want %q, got %q", tt.want, got)
		}
	}
	if cx.ConstInt(cx.TypeIx(8), -8) != cx.ConstUint(cx.TypeIx(8), 248) {
		t.Fatalf("equal constants must share a handle")
	}
}

func TestPredicatesAtomicsAndCalls(t *testing.T) {
	be := NewBackend("misc", "aarch64-unknown-linux-gnu")
	cx := be.Context()
	i32, ptr, f64 := cx.TypeIx(32), cx.TypePtr(), cx.TypeF64()
	panicTy := cx.TypeFunc(nil, cx.TypeVoid())
	panicFn := be.DeclareFn("core::panicking::panic", panicTy)

	fn := be.DeclareFn("misc", cx.TypeFunc([]codegen.Type{ptr, i32, f64}, i32))
	bx := be.Define(fn)
	bx.PositionAtEnd(bx.AppendBlock("start"))
	cold := bx.AppendBlock("cold")
	next := bx.AppendBlock("next")

	lt := bx.ICmp(codegen.IntSLT, bx.Param(1), cx.ConstUint(i32, 10))
	bx.CondBr(lt, cold, next)
	bx.PositionAtEnd(cold)
	bx.Call(panicTy, panicFn, nil)
	bx.Unreachable()
	bx.PositionAtEnd(next)
	bx.FCmp(codegen.RealOEQ, bx.Param(2), bx.Param(2))
	old := bx.AtomicRMW(codegen.AtomicUMax, bx.Param(0), bx.Param(1), codegen.SequentiallyConsistent)
	bx.Fence(codegen.Acquire, codegen.ScopeSingleThread)
	bx.Fence(codegen.Release, codegen.ScopeCrossThread)
	bx.Ret(old)
	bx.Finish()

	ir := be.Module().String()
	for _, line := range []string{
		`target triple = "aarch64-unknown-linux-gnu"`,
		`declare void @"core::panicking::panic"()`,
		"%t1 = icmp slt i32 %p1, 10",
		"br i1 %t1, label %cold, label %next",
		`call void @"core::panicking::panic"()`,
		"unreachable",
		"%t2 = fcmp oeq double %p2, %p2",
		"%t3 = atomicrmw umax ptr %p0, i32 %p1 seq_cst",
		`fence syncscope("singlethread") acquire`,
		"  fence release\n",
		"ret i32 %t3",
	} {
		if !strings.Contains(ir, line) {
			t.Fatalf("missing %q in:\n%s", line, ir)
		}
	}
	if be.Module().Defined() != 1 || len(be.Module().FuncNames()) != 2 {
		t.Fatalf("unexpected function counts")
	}
}

// Many temps in a row: names like %t1 must reach the output verbatim.
func TestTempNamesInResults(t *testing.T) {
	be := NewBackend("temps", "")
	cx := be.Context()
	i8, i64 := cx.TypeIx(8), cx.TypeIx(64)
	fn := be.DeclareFn("widen", cx.TypeFunc([]codegen.Type{i8, i64}, i64))
	bx := be.Define(fn)
	bx.PositionAtEnd(bx.AppendBlock("start"))
	sum := bx.Add(bx.ZExt(bx.Param(0), i64), bx.Param(1))
	bx.Ret(bx.ZExt(bx.Trunc(sum, i8), i64))
	bx.Finish()

	want := `; ModuleID = 'temps'
target triple = "x86_64-linux-gnu"

define i64 @widen(i8 %p0, i64 %p1) {
start:
  %t1 = zext i8 %p0 to i64
  %t2 = add i64 %t1, %p1
  %t3 = trunc i64 %t2 to i8
  %t4 = zext i8 %t3 to i64
  ret i64 %t4
}
`
	got := be.Module().String()
	if strings.Contains(got, "%!") {
		t.Fatalf("format verb leaked into IR:\n%s", got)
	}
	if got != want {
		t.Fatalf("unexpected IR:\n%s\nwant:\n%s", got, want)
	}
}

func TestBlockLabelsAreUnique(t *testing.T) {
	be := NewBackend("labels", "")
	cx := be.Context()
	bx := be.Define(be.DeclareFn("f", cx.TypeFunc(nil, cx.TypeVoid())))
	a, b := bx.AppendBlock("cold"), bx.AppendBlock("cold")
	bx.PositionAtEnd(a)
	bx.Br(b)
	bx.PositionAtEnd(b)
	bx.RetVoid()
	bx.Finish()
	if ir := be.Module().String(); !strings.Contains(ir, "br label %cold1") || !strings.Contains(ir, "cold1:\n  ret void") {
		t.Fatalf("unexpected labels:\n%s", ir)
	}
}

func TestMisuseIsABug(t *testing.T) {
	tests := []struct {
		name string
		fn   func(be *Backend, bx codegen.BuilderMethods)
	}{
		{"emit after finish", func(be *Backend, bx codegen.BuilderMethods) {
			bx.RetVoid()
			bx.Finish()
			bx.RetVoid()
		}},
		{"emit after terminator", func(be *Backend, bx codegen.BuilderMethods) {
			bx.RetVoid()
			bx.Unreachable()
		}},
		{"unterminated block", func(be *Backend, bx codegen.BuilderMethods) {
			bx.Finish()
		}},
		{"mismatched operands", func(be *Backend, bx codegen.BuilderMethods) {
			cx := be.Context()
			bx.Add(cx.ConstUint(cx.TypeIx(8), 1), cx.ConstUint(cx.TypeIx(16), 1))
		}},
	}
	for _, tt := range tests {
		be := NewBackend("bug", "")
		cx := be.Context()
		bx := be.Define(be.DeclareFn("f", cx.TypeFunc(nil, cx.TypeVoid())))
		bx.PositionAtEnd(bx.AppendBlock("start"))
		err := session.CatchBug(func() error {
			tt.fn(be, bx)
			return nil
		})
		var bug *session.BugError
		if !errors.As(err, &bug) {
			t.Fatalf("%s: expected internal error, got %v", tt.name, err)
		}
	}
}
