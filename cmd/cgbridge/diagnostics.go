package main

import (
	"fmt"
	"io"

	"cgbridge/internal/diag"
	"cgbridge/internal/diagfmt"
	"cgbridge/internal/source"
)

// printDiagnostics renders bag in the --diagnostics-format chosen by the user.
func printDiagnostics(w io.Writer, opts globalOptions, bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	bag.Sort()
	switch opts.format {
	case "short":
		items := bag.Items()
		if opts.maxDiagnostics > 0 && len(items) > opts.maxDiagnostics {
			items = items[:opts.maxDiagnostics]
		}
		_, err := fmt.Fprintln(w, diag.FormatShortDiagnostics(items, fs, true))
		return err
	case "json":
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			Max:              opts.maxDiagnostics,
			IncludeNotes:     true,
		})
	default:
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     opts.color,
			Context:   1,
			PathMode:  diagfmt.PathModeAuto,
			ShowNotes: true,
			Max:       opts.maxDiagnostics,
		})
		return nil
	}
}
