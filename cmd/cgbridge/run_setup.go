package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// switchMode is the value of tri-state flags such as --ui and --color.
type switchMode string

const (
	switchAuto switchMode = "auto"
	switchOn   switchMode = "on"
	switchOff  switchMode = "off"
)

func readSwitch(flag, value string) (switchMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return switchAuto, nil
	case "on":
		return switchOn, nil
	case "off":
		return switchOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// enabled resolves auto against whether f is a terminal.
func (m switchMode) enabled(f *os.File) bool {
	switch m {
	case switchOn:
		return true
	case switchOff:
		return false
	default:
		return isTerminal(f)
	}
}

// globalOptions are the persistent flags every command understands.
type globalOptions struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	format         string
}

func readGlobals(cmd *cobra.Command) (globalOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var opts globalOptions
	colorValue, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readSwitch("color", colorValue)
	if err != nil {
		return opts, err
	}
	opts.color = mode.enabled(os.Stderr)
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.format, err = flags.GetString("diagnostics-format"); err != nil {
		return opts, fmt.Errorf("failed to get diagnostics-format flag: %w", err)
	}
	switch opts.format = strings.ToLower(opts.format); opts.format {
	case "pretty", "short", "json":
	default:
		return opts, fmt.Errorf("unsupported diagnostics format %q (expected pretty|short|json)", opts.format)
	}
	return opts, nil
}

var traceCleanup = func(bool) {}

func setupRun(cmd *cobra.Command, _ []string) error {
	opts, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	color.NoColor = !opts.color
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	traceCleanup = cleanup
	return setupProfiling(cmd)
}

func finishRun(*cobra.Command, []string) error {
	stopProfiling()
	traceCleanup(false)
	traceCleanup = func(bool) {}
	return nil
}

// errDiagnostics is returned after failures that were already reported as
// diagnostics; main exits without printing it again.
var errDiagnostics = errors.New("compilation failed")

func exitCode(err error) int {
	// cobra skips PersistentPostRun on error
	stopProfiling()
	traceCleanup(true)
	if !errors.Is(err, errDiagnostics) {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	}
	return 1
}
