// Package project finds and decodes cgbridge.toml project manifests.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file Find looks for.
const ManifestName = "cgbridge.toml"

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing or empty.
	ErrPackageNameMissing = errors.New("missing [package].name")
	// ErrUnitsMissing indicates that [codegen].units is missing or empty.
	ErrUnitsMissing = errors.New("missing [codegen].units")
	// ErrNoUnitsMatched indicates that no file matches [codegen].units.
	ErrNoUnitsMatched = errors.New("[codegen].units matches no files")
)

// Manifest is a decoded cgbridge.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest layout.
type Config struct {
	Package PackageConfig `toml:"package"`
	Codegen CodegenConfig `toml:"codegen"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// CodegenConfig configures the build. Paths are relative to the manifest.
type CodegenConfig struct {
	Units     []string `toml:"units"` // globs
	LangItems string   `toml:"lang_items"`
	Jobs      int      `toml:"jobs"`
	Target    string   `toml:"target"`
	// Cache defaults to true when the key is absent.
	Cache bool `toml:"cache"`
}

const defaultLangItems = "lang.toml"

// Find walks from startDir up to the filesystem root looking for the manifest.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the manifest governing startDir.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Load decodes and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	cfg.Package.Name = strings.TrimSpace(cfg.Package.Name)
	if !meta.IsDefined("package", "name") || cfg.Package.Name == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if !meta.IsDefined("codegen", "units") || len(cfg.Codegen.Units) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrUnitsMissing)
	}
	if !meta.IsDefined("codegen", "cache") {
		cfg.Codegen.Cache = true
	}
	if !meta.IsDefined("codegen", "lang_items") || strings.TrimSpace(cfg.Codegen.LangItems) == "" {
		cfg.Codegen.LangItems = defaultLangItems
	}
	if cfg.Codegen.Jobs < 0 {
		return nil, fmt.Errorf("%s: [codegen].jobs must not be negative", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// UnitPaths expands [codegen].units into a sorted list of files.
func (m *Manifest) UnitPaths() ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range m.Config.Codegen.Units {
		matches, err := filepath.Glob(m.resolve(pattern))
		if err != nil {
			return nil, fmt.Errorf("%s: bad unit pattern %q: %w", m.Path, pattern, err)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", m.Path, ErrNoUnitsMatched)
	}
	sort.Strings(out)
	return out, nil
}

// LangItemsPath is the absolute path of the lang-item table.
func (m *Manifest) LangItemsPath() string {
	return m.resolve(m.Config.Codegen.LangItems)
}

// OutDir is where build outputs go.
func (m *Manifest) OutDir() string {
	return filepath.Join(m.Root, "target")
}

func (m *Manifest) resolve(rel string) string {
	rel = filepath.FromSlash(strings.TrimSpace(rel))
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Root, rel)
}
