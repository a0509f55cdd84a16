package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cgbridge/internal/buildpipeline"
	"cgbridge/internal/mir"
	"cgbridge/internal/project"
	"cgbridge/internal/session"
)

var emitCmd = &cobra.Command{
	Use:   "emit [flags] <unit.toml>",
	Short: "Print the LLVM IR of one compilation unit",
	Long: `Lower a single unit description and print its LLVM IR. The lang-item
table comes from --lang or, when omitted, from the project manifest that
governs the unit.`,
	Args: cobra.ExactArgs(1),
	RunE: emitExecution,
}

func init() {
	emitCmd.Flags().String("lang", "", "lang-item table (default: from "+project.ManifestName+")")
	emitCmd.Flags().String("target", "", "target triple")
	emitCmd.Flags().Bool("mir", false, "print the decoded unit before the IR")
	emitCmd.Flags().StringP("output", "o", "", "write the IR to a file instead of stdout")
}

func emitExecution(cmd *cobra.Command, args []string) error {
	opts, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	lang, err := cmd.Flags().GetString("lang")
	if err != nil {
		return err
	}
	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	dumpMIR, err := cmd.Flags().GetBool("mir")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	unitPath := args[0]
	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = ""
	}
	if lang == "" {
		manifest, ok, findErr := project.Discover(filepath.Dir(unitPath))
		if findErr != nil {
			return findErr
		}
		if !ok {
			return fmt.Errorf("no lang-item table: pass --lang or add %s", project.ManifestName)
		}
		lang = manifest.LangItemsPath()
		if !cmd.Flags().Changed("target") {
			target = manifest.Config.Codegen.Target
		}
	}

	res, err := buildpipeline.Emit(cmd.Context(), &buildpipeline.EmitRequest{
		Unit:           unitPath,
		LangItems:      lang,
		Target:         target,
		BaseDir:        baseDir,
		MaxDiagnostics: opts.maxDiagnostics,
	})
	if printErr := printDiagnostics(os.Stderr, opts, res.Diagnostics, res.Files); printErr != nil {
		return printErr
	}
	if dumpMIR && res.Unit != nil {
		if dumpErr := mir.DumpUnit(os.Stdout, res.Unit, res.Types); dumpErr != nil {
			return dumpErr
		}
		fmt.Fprintln(os.Stdout)
	}
	switch {
	case errors.Is(err, session.ErrAborted):
		return errDiagnostics
	case err != nil && res.Diagnostics != nil && res.Diagnostics.HasErrors():
		// the description did not decode; the diagnostics say why
		return errDiagnostics
	case err != nil:
		return err
	}
	return writeIR(output, res.IR, os.Stdout)
}

func writeIR(path, ir string, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, ir)
		return err
	}
	if err := os.WriteFile(path, []byte(ir), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
