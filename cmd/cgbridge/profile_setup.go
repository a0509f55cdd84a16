package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cgbridge/internal/prof"
)

func addProfileFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to file")
	cmd.PersistentFlags().String("memprofile", "", "write a heap profile to file on exit")
	cmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime execution trace to file")
}

var activeProfiler *prof.Profiler

func setupProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if cfg.Mem, err = flags.GetString("memprofile"); err != nil {
		return fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if cfg.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !cfg.Enabled() {
		return nil
	}
	p, err := prof.Start(cfg)
	if err != nil {
		return fmt.Errorf("profiling: %w", err)
	}
	activeProfiler = p
	return nil
}

func stopProfiling() {
	if err := activeProfiler.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: profiling: %v\n", err)
	}
	activeProfiler = nil
}
