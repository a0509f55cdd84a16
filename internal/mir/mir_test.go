package mir

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

const sampleUnit = `
[unit]
name = "sample"

[[struct]]
name = "Guard"
fields = ["h: box<u8>"]
drop = true

[[opaque]]
name = "Counter"
hidden = "cell<u32>"

[[func]]
name = "mix"
params = ["a: i32", "b: u8", "p: &Counter", "g: Guard"]
locals = ["r: i32", "c: bool", "old: u32", "v: <4 x u32>"]
body = [
  "r = a << 33",
  "r = r shr_unchecked b",
  "c = r < -1",
  "old = atomic umax p, 7 seq_cst",
  "fence acquire singlethread",
  "drop g",
]
result = "r"
`

func TestParseUnit(t *testing.T) {
	in := types.NewInterner()
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	u, err := ParseUnit("sample.toml", []byte(sampleUnit), in, fs, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ParseUnit: %v (%s)", err, diag.FormatShortDiagnostics(bag.Items(), fs, false))
	}
	if u.Name != "sample" || len(u.Funcs) != 1 {
		t.Fatalf("unexpected unit %+v", u)
	}
	f := u.Funcs[0]
	if len(f.Params) != 4 || len(f.Locals) != 8 || len(f.Instrs) != 6 {
		t.Fatalf("unexpected shape: params=%d locals=%d instrs=%d", len(f.Params), len(f.Locals), len(f.Instrs))
	}

	shl := f.Instrs[0].Assign.Src.Binary
	if shl.Op != BinShl || shl.Right.Kind != OperandConst || shl.Right.Const != 33 || shl.Right.Type != in.Builtins().I32 {
		t.Fatalf("untyped shift amount should take the lhs type: %+v", shl)
	}
	if f.Instrs[1].Assign.Src.Binary.Op != BinShrUnchecked {
		t.Fatalf("expected unchecked shift")
	}
	atomic := f.Instrs[3].AtomicRMW
	if atomic.Op != codegen.AtomicUMax || atomic.Order != codegen.SequentiallyConsistent || atomic.Val.Type != in.Builtins().U32 {
		t.Fatalf("unexpected atomic %+v", atomic)
	}
	if fence := f.Instrs[4].Fence; fence.Order != codegen.Acquire || fence.Scope != codegen.ScopeSingleThread {
		t.Fatalf("unexpected fence %+v", fence)
	}

	// spans point at the statement text
	file := fs.Get(f.Instrs[2].Span.File)
	sp := f.Instrs[2].Span
	if got := string(file.Content[sp.Start:sp.End]); got != "c = r < -1" {
		t.Fatalf("span covers %q", got)
	}

	var buf bytes.Buffer
	if err := DumpUnit(&buf, u, in); err != nil {
		t.Fatalf("DumpUnit: %v", err)
	}
	for _, want := range []string{"fn mix:", "L4 = copy L0 << const 33:i32", "atomicrmw umax L2", "fence acquire singlethread", "return L4"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("dump lacks %q:\n%s", want, buf.String())
		}
	}
}

func TestUnitKind(t *testing.T) {
	src := "[unit]\nname = \"alloc\"\nkind = \"allocator\"\n"
	in := types.NewInterner()
	fs := source.NewFileSet()
	u, err := ParseUnit("alloc.toml", []byte(src), in, fs, diag.NopReporter{})
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if u.Kind != codegen.ModuleAllocator {
		t.Fatalf("want allocator, got %s", u.Kind)
	}
	var buf bytes.Buffer
	if err := DumpUnit(&buf, u, in); err != nil || buf.String() != "unit alloc kind=allocator funcs=0\n" {
		t.Fatalf("unexpected dump %q (%v)", buf.String(), err)
	}

	bag := diag.NewBag(0)
	_, err = ParseUnit("bad.toml", []byte("[unit]\nname = \"x\"\nkind = \"dylib\"\n"), in, fs, diag.BagReporter{Bag: bag})
	if !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("want ErrInvalidUnit, got %v", err)
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.ProjBadUnit || !strings.Contains(items[0].Message, `unknown unit kind "dylib"`) {
		t.Fatalf("unexpected diagnostics %+v", items)
	}
	file := fs.Get(items[0].Primary.File)
	if got := string(file.Content[items[0].Primary.Start:items[0].Primary.End]); got != `"dylib"` {
		t.Fatalf("span covers %q", got)
	}
}

func TestParseUnitReportsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code diag.Code
	}{
		{"unknown local", `"r = a + zz"`, diag.CgUnknownLocal},
		{"type mismatch", `"r = a + b"`, diag.CgBadOperand},
		{"read before write", `"r = r + a"`, diag.CgUnknownLocal},
		{"bad operator", `"r = a ** a"`, diag.CgBadOperand},
		{"float shift", `"f = f << a"`, diag.CgBadOperand},
	}
	for _, tt := range tests {
		src := `
[unit]
name = "bad"

[[func]]
name = "f"
params = ["a: i32", "b: i64", "f: f64"]
locals = ["r: i32"]
body = [` + tt.body + `]
`
		in := types.NewInterner()
		fs := source.NewFileSet()
		bag := diag.NewBag(0)
		_, err := ParseUnit("bad.toml", []byte(src), in, fs, diag.BagReporter{Bag: bag})
		if !errors.Is(err, ErrInvalidUnit) {
			t.Fatalf("%s: want ErrInvalidUnit, got %v", tt.name, err)
		}
		items := bag.Items()
		if len(items) == 0 || items[0].Code != tt.code {
			t.Fatalf("%s: want %v, got %s", tt.name, tt.code, diag.FormatShortDiagnostics(items, fs, false))
		}
		if items[0].Primary.Empty() {
			t.Fatalf("%s: diagnostic has no span", tt.name)
		}
	}
}

func TestDuplicateFunction(t *testing.T) {
	src := `
[unit]
name = "dup"

[[func]]
name = "f"

[[func]]
name = "f"
`
	bag := diag.NewBag(0)
	_, err := ParseUnit("dup.toml", []byte(src), types.NewInterner(), source.NewFileSet(), diag.BagReporter{Bag: bag})
	if !errors.Is(err, ErrInvalidUnit) || bag.Len() != 1 || bag.Items()[0].Code != diag.CgDuplicateFunc {
		t.Fatalf("expected a duplicate-function error, got %v / %d diagnostics", err, bag.Len())
	}
}

func TestParseType(t *testing.T) {
	in := types.NewInterner()
	scope := Scope{"Node": in.RegisterStruct("Node", source.Span{})}
	tests := []struct {
		src  string
		want string
	}{
		{"i32", "i32"},
		{"<4 x u32>", "<4 x u32>"},
		{"box<Node>", "box<Node>"},
		{"&mut cell<i32>", "&mut cell<i32>"},
		{"*const u8", "*const u8"},
		{"[u8; 16]", "[u8; 16]"},
		{"[[u8; 2]; 3]", "[[u8; 2]; 3]"},
		{"[u8]", "[u8]"},
		{"(i8, box<u8>)", "(i8, box<u8>)"},
		{"dyn Any", "dyn Any"},
	}
	for _, tt := range tests {
		ty, err := ParseType(in, scope, tt.src)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if got := in.Name(ty); got != tt.want {
			t.Fatalf("%s: want %s, got %s", tt.src, tt.want, got)
		}
	}
	for _, bad := range []string{"", "i33", "<0 x i32>", "<4 x str>", "Missing"} {
		if _, err := ParseType(in, scope, bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
