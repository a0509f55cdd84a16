package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func override(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestLineDefault(t *testing.T) {
	override(t, "0.1.0-dev", "", "")
	if got := Line(false); got != "cgbridge 0.1.0-dev" {
		t.Fatalf("Line() = %q", got)
	}
}

func TestLineWithMetadata(t *testing.T) {
	override(t, "1.2.3", "1234567890abcdef1234", "2026-01-15T10:30:00Z")
	want := "cgbridge 1.2.3 (commit 1234567890ab, built 2026-01-15T10:30:00Z)"
	if got := Line(false); got != want {
		t.Fatalf("Line() = %q, want %q", got, want)
	}
}

func TestColored(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	override(t, "1.2.3-rc.1+build.5", "", "")
	got := Colored()
	if !strings.Contains(got, "\x1b[") || !strings.HasSuffix(got, "-rc.1+build.5") {
		t.Fatalf("Colored() = %q", got)
	}

	override(t, "nightly", "", "")
	if got := Colored(); got != "nightly" {
		t.Fatalf("non-semver version must be left alone, got %q", got)
	}
}
