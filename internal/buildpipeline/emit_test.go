package buildpipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"cgbridge/internal/diag"
	"cgbridge/internal/session"
)

func TestEmitReturnsIR(t *testing.T) {
	dir := t.TempDir()
	req := &EmitRequest{
		Unit:      writeFile(t, filepath.Join(dir, "shifts.toml"), unitShifts),
		LangItems: writeFile(t, filepath.Join(dir, "lang.toml"), testLangItems),
		BaseDir:   dir,
	}
	res, err := Emit(context.Background(), req)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if res.Unit == nil || res.Unit.Name != "shifts" || res.Types == nil {
		t.Fatalf("decoded unit missing: %+v", res.Unit)
	}
	if !strings.Contains(res.IR, `call void @"core::panicking::panic_shift_overflow"()`) {
		t.Fatalf("unexpected IR:\n%s", res.IR)
	}
	if res.Diagnostics.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics.Items())
	}
}

func TestEmitFatal(t *testing.T) {
	dir := t.TempDir()
	req := &EmitRequest{
		Unit:      writeFile(t, filepath.Join(dir, "drops.toml"), unitDrops),
		LangItems: writeFile(t, filepath.Join(dir, "lang.toml"), "[items]\npanic = \"core::panicking::panic\"\n"),
		BaseDir:   dir,
	}
	res, err := Emit(context.Background(), req)
	if !errors.Is(err, session.ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}
	if res.IR != "" || res.Unit == nil {
		t.Fatalf("unexpected result %+v", res)
	}
	items := res.Diagnostics.Items()
	if len(items) != 1 || items[0].Code != diag.CgMissingLangItem {
		t.Fatalf("unexpected diagnostics: %+v", items)
	}
	if got := diag.FormatShortDiagnostics(items, res.Files, false); !strings.HasPrefix(got, "fatal CG4001 drops.toml:") {
		t.Fatalf("unexpected location: %s", got)
	}
}
