package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cgbridge/internal/incr"
	"cgbridge/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build outputs (target directory)",
	Long:  "Remove the target directory of a cgbridge project. With --cache the incremental cache shared by all projects is dropped too.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().Bool("cache", false, "also drop the incremental cache")
}

func runClean(cmd *cobra.Command, args []string) error {
	start := "."
	if len(args) > 0 && args[0] != "" {
		start = args[0]
	}
	dropCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return err
	}
	manifest, ok, err := project.Discover(start)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(noManifestMessage)
	}
	out := cmd.OutOrStdout()

	targetDir := manifest.OutDir()
	switch info, statErr := os.Stat(targetDir); {
	case errors.Is(statErr, os.ErrNotExist):
		fmt.Fprintln(out, "target directory not found")
	case statErr != nil:
		return fmt.Errorf("failed to stat %q: %w", targetDir, statErr)
	case !info.IsDir():
		return fmt.Errorf("%q is not a directory", targetDir)
	default:
		if err := os.RemoveAll(targetDir); err != nil {
			return fmt.Errorf("failed to remove %q: %w", targetDir, err)
		}
		fmt.Fprintf(out, "removed %s\n", formatPathForOutput(manifest.Root, targetDir))
	}

	if !dropCache {
		return nil
	}
	cache, err := incr.OpenDiskCache("cgbridge")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	fmt.Fprintf(out, "dropped cache %s\n", filepath.ToSlash(cache.Dir()))
	return nil
}
