package source

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("unit.toml", []byte("a = 1\nbb = 2\n\nccc"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"start", 0, LineCol{Line: 1, Col: 1}},
		{"newline belongs to its line", 5, LineCol{Line: 1, Col: 6}},
		{"second line", 6, LineCol{Line: 2, Col: 1}},
		{"empty line", 13, LineCol{Line: 3, Col: 1}},
		{"last line", 16, LineCol{Line: 4, Col: 3}},
		{"end of file", 17, LineCol{Line: 4, Col: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if start != tt.want {
				t.Fatalf("offset %d: want %+v, got %+v", tt.off, tt.want, start)
			}
		})
	}
	if start, end := fs.Resolve(Span{File: 9}); start != (LineCol{}) || end != (LineCol{}) {
		t.Fatalf("unknown file must resolve to zero positions")
	}
}

func TestLinesAndText(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("x", []byte("first\nsecond\nthird\n")))
	if f.LineCount() != 4 {
		t.Fatalf("want 4 lines, got %d", f.LineCount())
	}
	for n, want := range map[uint32]string{0: "", 1: "first", 2: "second", 3: "third", 4: "", 5: ""} {
		if got := f.GetLine(n); got != want {
			t.Fatalf("line %d: want %q, got %q", n, want, got)
		}
	}
	if got := f.Text(Span{File: f.ID, Start: 6, End: 12}); got != "second" {
		t.Fatalf("unexpected text %q", got)
	}
	for _, sp := range []Span{{File: f.ID + 1, Start: 0, End: 1}, {File: f.ID, Start: 3, End: 2}, {File: f.ID, Start: 0, End: 99}} {
		if got := f.Text(sp); got != "" {
			t.Fatalf("span %v must give no text, got %q", sp, got)
		}
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "units", "crlf.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\r" || f.Flags != FileHadBOM|FileNormalizedCRLF {
		t.Fatalf("unexpected file %q flags=%b", f.Content, f.Flags)
	}
	if got := fs.DisplayPath(id); got != "units/crlf.toml" {
		t.Fatalf("unexpected display path %q", got)
	}
	if found, ok := fs.Lookup(path); !ok || found != f {
		t.Fatalf("Lookup must find the loaded file")
	}
	if _, err := fs.Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestNormalizeLeavesPlainContent(t *testing.T) {
	in := []byte("a\nb\rc")
	out, flags := normalize(in)
	if flags != 0 || &out[0] != &in[0] {
		t.Fatalf("plain content must be returned as is")
	}
}

func TestConcurrentAdd(t *testing.T) {
	fs := NewFileSet()
	first := fs.Get(fs.AddVirtual("first", []byte("x")))
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fs.AddVirtual("same", []byte("y\n"))
			if fs.Get(id).Position(2).Line != 2 {
				t.Errorf("unexpected position")
			}
		}()
	}
	wg.Wait()
	if fs.Get(0) != first || string(first.Content) != "x" {
		t.Fatalf("files must not move")
	}
	if f, ok := fs.Lookup("same"); !ok || string(f.Content) != "y\n" {
		t.Fatalf("Lookup of a re-added path failed")
	}
}
