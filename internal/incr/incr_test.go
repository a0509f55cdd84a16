package incr

import (
	"os"
	"path/filepath"
	"testing"
)

type pair struct{ a, b string }

func (p pair) HashStable(h *StableHasher) {
	h.WriteString(p.a)
	h.WriteString(p.b)
}

func TestStableHasherIsPrefixFree(t *testing.T) {
	h1 := NewStableHasher()
	h1.Hash(pair{"ab", "c"})
	h2 := NewStableHasher()
	h2.Hash(pair{"a", "bc"})
	if h1.Finish() == h2.Finish() {
		t.Fatalf("length prefixes must separate adjacent strings")
	}

	h3 := NewStableHasher()
	h3.Hash(pair{"ab", "c"})
	if h1.Finish() != h3.Finish() {
		t.Fatalf("same input must give the same fingerprint")
	}
}

func TestCombineOrderMatters(t *testing.T) {
	a, b := Of([]byte("a")), Of([]byte("b"))
	if Combine(a, b) == Combine(b, a) {
		t.Fatalf("Combine must be order-sensitive")
	}
	if Combine(a, b).IsZero() {
		t.Fatalf("unexpected zero fingerprint")
	}
	if len(a.Short()) != 12 {
		t.Fatalf("short form should have 12 digits, got %q", a.Short())
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := Of([]byte("unit a"))
	var out UnitPayload
	if ok, err := c.Get(key, &out); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	in := &UnitPayload{Name: "a", Output: "define void @f() {\n}\n", Funcs: 1}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := c.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if out.Name != "a" || out.Output != in.Output || out.Funcs != 1 || out.Inputs != key {
		t.Fatalf("unexpected payload %+v", out)
	}

	entries, err := os.ReadDir(filepath.Join(c.Dir(), "units"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected exactly one entry and no temp files, got %d (%v)", len(entries), err)
	}

	if err := c.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if ok, _ := c.Get(key, &out); ok {
		t.Fatalf("entry survived DropAll")
	}
}

func TestNilDiskCacheIsDisabled(t *testing.T) {
	var c *DiskCache
	if err := c.Put(Fingerprint{}, &UnitPayload{}); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
	var out UnitPayload
	if ok, err := c.Get(Fingerprint{}, &out); ok || err != nil {
		t.Fatalf("nil Get: ok=%v err=%v", ok, err)
	}
}
