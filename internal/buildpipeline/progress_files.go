package buildpipeline

import (
	"path/filepath"
	"sort"
	"strings"
)

// normalizeUnitPaths cleans, de-duplicates and sorts unit paths so that the
// build order (and the order of diagnostics) does not depend on how the
// glob or the command line listed them.
func normalizeUnitPaths(files []string) []string {
	normalized := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		path := filepath.Clean(file)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		normalized = append(normalized, path)
	}
	sort.Strings(normalized)
	return normalized
}

// displayPath shortens path relative to baseDir for progress output.
func displayPath(path, baseDir string) string {
	base := strings.TrimSpace(baseDir)
	if base == "" {
		return filepath.ToSlash(path)
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// UnitLabels returns the labels Build uses in progress events for units, in
// build order.
func UnitLabels(units []string, baseDir string) []string {
	paths := normalizeUnitPaths(units)
	labels := make([]string, len(paths))
	for i, path := range paths {
		labels[i] = displayPath(path, baseDir)
	}
	return labels
}
