package langitem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestItemNamesRoundTrip(t *testing.T) {
	for _, it := range All() {
		got, ok := ItemFromName(it.Name())
		if !ok || got != it {
			t.Fatalf("ItemFromName(%q) = %v, %v", it.Name(), got, ok)
		}
	}
	if _, ok := ItemFromName("no_such_item"); ok {
		t.Fatalf("unknown names must not resolve")
	}
}

func TestRequireMissingItem(t *testing.T) {
	r := NewRegistry()
	_, err := r.Require(ItemPanicShiftOverflow)
	if err == nil {
		t.Fatalf("expected error for missing item")
	}
	if err.Error() != "requires `panic_shift_overflow` lang_item" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var missing *MissingError
	if !errors.As(err, &missing) || missing.Item != ItemPanicShiftOverflow {
		t.Fatalf("expected *MissingError, got %T", err)
	}
}

func TestSetAndPath(t *testing.T) {
	r := NewRegistry()
	id, err := r.Set(ItemDropInPlace, "  core::ptr::drop_in_place ")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := r.Require(ItemDropInPlace)
	if err != nil || got != id {
		t.Fatalf("Require = %v, %v", got, err)
	}
	if p := r.Path(id); p != "core::ptr::drop_in_place" {
		t.Fatalf("want trimmed path, got %q", p)
	}
	if _, err := r.Set(ItemDropInPlace, "other"); err == nil {
		t.Fatalf("expected error on redefinition")
	}
	if _, err := r.Set(ItemBoxFree, "core::ptr::drop_in_place"); !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("expected ErrDuplicatePath, got %v", err)
	}
}

func TestParseNormalizesNames(t *testing.T) {
	// "café" written with a combining accent normalises to the precomposed form.
	src := "[items]\npanic = \"rt::cafe\u0301\"\nstart = \"rt::start\"\n"
	r, err := Parse("lang.toml", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, ok := r.Get(ItemPanic)
	if !ok {
		t.Fatalf("panic not bound")
	}
	if p := r.Path(id); p != "rt::caf\u00e9" {
		t.Fatalf("expected NFC path, got %q", p)
	}
	want := []string{"panic=rt::caf\u00e9", "start=rt::start"}
	if got := r.Entries(); strings.Join(got, ";") != strings.Join(want, ";") {
		t.Fatalf("want entries %v, got %v", want, got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"missing section", "[other]\nx = \"y\"\n", ErrItemsSectionMissing},
		{"unknown item", "[items]\nfrobnicate = \"x\"\n", ErrUnknownItem},
		{"shared path", "[items]\npanic = \"x\"\noom = \"x\"\n", ErrDuplicatePath},
	}
	for _, tt := range tests {
		_, err := Parse("lang.toml", tt.src)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: want %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lang.toml")
	if err := os.WriteFile(path, []byte("[items]\ndrop_in_place = \"core::drop\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("want 1 item, got %d", r.Len())
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
