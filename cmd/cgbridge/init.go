package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"cgbridge/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new cgbridge project",
	Long: `Initialize a cgbridge project: a manifest (` + project.ManifestName + `), a lang-item
table (lang.toml) and one example unit (units/example.toml). A missing
directory is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var projectNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

const langTemplate = `[items]
panic_shift_overflow = "core::panicking::panic_shift_overflow"
drop_in_place = "core::ptr::drop_in_place"
`

const unitTemplate = `[unit]
name = "example"

[[struct]]
name = "Guard"
fields = ["handle: u32"]
drop = true

[[func]]
name = "shl"
params = ["a: u32", "b: u32"]
locals = ["r: u32"]
body = ["r = a << b"]
result = "r"

[[func]]
name = "release"
params = ["g: Guard"]
body = ["drop g"]
`

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 && args[0] != "" {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(target, 0o750); err != nil {
		return fmt.Errorf("failed to create %q: %w", target, err)
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("%s already exists", manifestPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %q: %w", manifestPath, err)
	}

	name := filepath.Base(target)
	if !projectNameRe.MatchString(name) {
		name = "cgbridge-project"
	}
	manifest := fmt.Sprintf("[package]\nname = %q\n\n[codegen]\nunits = [\"units/*.toml\"]\nlang_items = \"lang.toml\"\n", name)

	files := []struct {
		rel     string
		content string
	}{
		{project.ManifestName, manifest},
		{"lang.toml", langTemplate},
		{filepath.Join("units", "example.toml"), unitTemplate},
	}
	var created []string
	for _, f := range files {
		path := filepath.Join(target, f.rel)
		if _, err := os.Stat(path); err == nil {
			// keep what the user already has
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(f.content), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		created = append(created, filepath.ToSlash(f.rel))
	}
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "initialized %s in %s\n  %s\n", name, target, strings.Join(created, "\n  "))
	}
	return nil
}
