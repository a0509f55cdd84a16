package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, ManifestName), `
[package]
name = "demo"

[codegen]
units = ["units/*.toml", "units/a.toml"]
jobs = 3
`)
	write(t, filepath.Join(root, "units", "b.toml"), "")
	write(t, filepath.Join(root, "units", "a.toml"), "")
	nested := filepath.Join(root, "units", "deep")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover: ok=%v err=%v", ok, err)
	}
	if m.Config.Package.Name != "demo" || m.Config.Codegen.Jobs != 3 {
		t.Fatalf("unexpected config %+v", m.Config)
	}
	if !m.Config.Codegen.Cache {
		t.Fatalf("cache should default to on")
	}
	if m.LangItemsPath() != filepath.Join(m.Root, "lang.toml") {
		t.Fatalf("unexpected lang items path %s", m.LangItemsPath())
	}
	units, err := m.UnitPaths()
	if err != nil {
		t.Fatalf("UnitPaths: %v", err)
	}
	if len(units) != 2 || filepath.Base(units[0]) != "a.toml" || filepath.Base(units[1]) != "b.toml" {
		t.Fatalf("unexpected units %v", units)
	}
}

func TestDiscoverWithoutManifest(t *testing.T) {
	_, ok, err := Discover(t.TempDir())
	if err != nil || ok {
		t.Fatalf("want no manifest, got ok=%v err=%v", ok, err)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"no package", "[codegen]\nunits = [\"*.toml\"]\n", ErrPackageSectionMissing},
		{"empty name", "[package]\nname = \"  \"\n[codegen]\nunits = [\"*.toml\"]\n", ErrPackageNameMissing},
		{"no units", "[package]\nname = \"x\"\n", ErrUnitsMissing},
		{"empty units", "[package]\nname = \"x\"\n[codegen]\nunits = []\n", ErrUnitsMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			write(t, path, tc.content)
			if _, err := Load(path); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	path := filepath.Join(t.TempDir(), ManifestName)
	write(t, path, "[package]\nname = \"x\"\n[codegen]\nunits = [\"u.toml\"]\ncahce = false\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("misspelled key must be rejected")
	}
}

func TestCacheCanBeDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	write(t, path, "[package]\nname = \"x\"\n[codegen]\nunits = [\"u.toml\"]\ncache = false\nlang_items = \"rt/lang.toml\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Config.Codegen.Cache {
		t.Fatalf("cache = false ignored")
	}
	if m.LangItemsPath() != filepath.Join(m.Root, "rt", "lang.toml") {
		t.Fatalf("unexpected lang items path %s", m.LangItemsPath())
	}
	if _, err := m.UnitPaths(); !errors.Is(err, ErrNoUnitsMatched) {
		t.Fatalf("want ErrNoUnitsMatched, got %v", err)
	}
}
