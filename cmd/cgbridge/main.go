// Package main implements the cgbridge CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cgbridge/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "cgbridge",
	Short: "Backend-agnostic code generation bridge",
	Long: `cgbridge lowers compilation unit descriptions into LLVM IR through a
backend-agnostic builder interface. It checks shift amounts, masks
unchecked shifts, drops values through the drop_in_place lang item and
validates atomic updates.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupRun,
	PersistentPostRunE: finishRun,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(maskCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("diagnostics-format", "pretty", "diagnostics format (pretty|short|json)")
	addTraceFlags(rootCmd)
	addProfileFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
