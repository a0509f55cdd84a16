package testkit

import (
	"strings"
	"testing"

	"cgbridge/internal/diag"
	"cgbridge/internal/mir"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

const unit = `[unit]
name = "u"

[[func]]
name = "shl"
params = ["a: u32", "b: u32"]
locals = ["r: u32"]
body = ["r = a << b"]
result = "r"
`

func TestCheckSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	u, err := mir.ParseUnit("u.toml", []byte(unit), types.NewInterner(), fs, diag.NopReporter{})
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	sf := fs.Get(u.Funcs[0].Span.File)
	if err := CheckSpanInvariants(u, sf); err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}

	u.Funcs[0].Instrs[0].Span.End = u.Funcs[0].Instrs[0].Span.Start
	if err := CheckSpanInvariants(u, sf); err == nil || !strings.Contains(err.Error(), "empty span") {
		t.Fatalf("want empty span error, got %v", err)
	}
	fn := u.Funcs[0].Span
	u.Funcs[0].Instrs[0].Span = source.Span{File: fn.File, Start: fn.Start, End: fn.End + 40}
	if err := CheckSpanInvariants(u, sf); err == nil || !strings.Contains(err.Error(), "line break") {
		t.Fatalf("want line break error, got %v", err)
	}
}
