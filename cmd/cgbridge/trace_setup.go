package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cgbridge/internal/trace"
)

func addTraceFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("trace", "", "write trace events to a file (\"-\" for stderr, *.ndjson for NDJSON)")
	flags.String("trace-level", "off", "finest traced scope (off|build|unit|func)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both); ring is dumped on failure")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval (0 = off)")
}

// setupTracing reads the trace flags, attaches a tracer to the command
// context and returns the function that closes it.
func setupTracing(cmd *cobra.Command) (func(failed bool), error) {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	every, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace без уровня: только границы команды
	if level == trace.LevelOff && output != "" {
		level = trace.LevelBuild
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.Open(trace.Config{Level: level, Mode: mode, Path: output, RingSize: ringSize})
	if err != nil {
		return nil, err
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	stopHeartbeat := trace.StartHeartbeat(tracer, every)

	errOut := cmd.ErrOrStderr()
	return func(failed bool) {
		stopHeartbeat()
		if ring := trace.RingOf(tracer); ring != nil && failed {
			fmt.Fprintln(errOut, "trace: last events")
			if err := ring.Dump(errOut, trace.FormatText); err != nil {
				fmt.Fprintf(errOut, "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(errOut, "trace: close error: %v\n", err)
		}
	}, nil
}
