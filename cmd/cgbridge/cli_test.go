package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitBuildEmitClean(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "demo")

	if _, err := execute(t, "--quiet", "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := execute(t, "init", dir); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("second init must fail, got %v", err)
	}

	if _, err := execute(t, "--quiet", "--color=off", "build", "--ui=off", dir); err != nil {
		t.Fatalf("build: %v", err)
	}
	ir, err := os.ReadFile(filepath.Join(dir, "target", "example.ll"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, want := range []string{"icmp uge i32 %p1, 32", `call void @"core::ptr::drop_in_place<Guard>"(ptr %p0)`} {
		if !strings.Contains(string(ir), want) {
			t.Fatalf("missing %q in:\n%s", want, ir)
		}
	}

	emitted := filepath.Join(t.TempDir(), "example.ll")
	if _, err := execute(t, "--quiet", "emit", "-o", emitted, filepath.Join(dir, "units", "example.toml")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if again, _ := os.ReadFile(emitted); string(again) != string(ir) {
		t.Fatalf("emit and build disagree")
	}

	out, err := execute(t, "clean", dir)
	if err != nil || !strings.Contains(out, "removed target") {
		t.Fatalf("clean: %q %v", out, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "target")); !os.IsNotExist(err) {
		t.Fatalf("target not removed")
	}
}

func TestBuildFailureIsReportedOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "broken")
	if _, err := execute(t, "--quiet", "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	// without drop_in_place the example unit cannot drop its guard
	lang := "[items]\npanic_shift_overflow = \"core::panicking::panic_shift_overflow\"\n"
	if err := os.WriteFile(filepath.Join(dir, "lang.toml"), []byte(lang), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "--quiet", "build", "--ui=off", "--no-cache", dir)
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("want errDiagnostics, got %v", err)
	}
}

func TestMaskCommand(t *testing.T) {
	out, err := execute(t, "mask", "--invert=false", "<4 x i32>")
	if err != nil || out != "<31, 31, 31, 31>\n" {
		t.Fatalf("mask: %q %v", out, err)
	}
	out, err = execute(t, "mask", "--invert", "i16")
	if err != nil || out != "-16\n" {
		t.Fatalf("mask --invert: %q %v", out, err)
	}
}

func TestProfileFlags(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")
	// flags stick to rootCmd between Execute calls
	defer func() {
		if _, err := execute(t, "--cpuprofile=", "--memprofile=", "mask", "i8"); err != nil {
			t.Errorf("reset profile flags: %v", err)
		}
	}()
	if _, err := execute(t, "--cpuprofile", cpu, "--memprofile", mem, "mask", "u32"); err != nil {
		t.Fatalf("mask: %v", err)
	}
	for _, path := range []string{cpu, mem} {
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Fatalf("%s not written (%v)", filepath.Base(path), err)
		}
	}
}

func TestTraceFlag(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traced")
	if _, err := execute(t, "--quiet", "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	out := filepath.Join(t.TempDir(), "emit.trace")
	defer func() {
		if _, err := execute(t, "--trace=", "--trace-level=off", "mask", "i8"); err != nil {
			t.Errorf("reset trace flags: %v", err)
		}
	}()
	if _, err := execute(t, "--quiet", "--trace", out, "--trace-level", "func",
		"emit", "-o", filepath.Join(dir, "example.ll"), filepath.Join(dir, "units", "example.toml")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	for _, want := range []string{"> build emit", "< func lower:shl (", "locals="} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("missing %q in trace:\n%s", want, data)
		}
	}
}
