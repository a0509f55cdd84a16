package main

import (
	"encoding/json"
	"io"

	"cgbridge/internal/observ"
)

// printTimings prints the driver phases followed by the time spent in each
// per-unit stage, summed over all workers.
func printTimings(out io.Writer, timer *observ.Timer, format string) error {
	if out == nil || timer == nil {
		return nil
	}
	report := timer.Report()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteText(out)
}
