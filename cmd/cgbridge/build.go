package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cgbridge/internal/buildpipeline"
	"cgbridge/internal/incr"
	"cgbridge/internal/project"
	"cgbridge/internal/ui"
)

const noManifestMessage = "no " + project.ManifestName + " found\ncreate one with `cgbridge init` or run `cgbridge emit` on a single unit"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Build every unit of a cgbridge project",
	Long: "Build every compilation unit listed in " + project.ManifestName + `. Units are lowered in
parallel and written to target/<unit>.ll; unchanged units are served from
the incremental cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().Int("jobs", 0, "parallel units (0 = manifest value or GOMAXPROCS)")
	buildCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	buildCmd.Flags().Bool("no-cache", false, "ignore and do not update the incremental cache")
	buildCmd.Flags().String("out", "", "output directory (default <project>/target)")
	buildCmd.Flags().String("target", "", "target triple (overrides [codegen].target)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	opts, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	if jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiMode, err := readSwitch("ui", uiValue)
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}

	start := "."
	if len(args) > 0 {
		start = args[0]
	}
	manifest, ok, err := project.Discover(start)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(noManifestMessage)
	}
	units, err := manifest.UnitPaths()
	if err != nil {
		return err
	}
	cfg := manifest.Config.Codegen
	if !cmd.Flags().Changed("jobs") {
		jobs = cfg.Jobs
	}
	if !cmd.Flags().Changed("target") {
		target = cfg.Target
	}
	if outDir == "" {
		outDir = manifest.OutDir()
	}

	req := buildpipeline.Request{
		Units:          units,
		LangItems:      manifest.LangItemsPath(),
		Target:         target,
		OutDir:         outDir,
		BaseDir:        manifest.Root,
		Jobs:           jobs,
		MaxDiagnostics: opts.maxDiagnostics,
	}
	if cfg.Cache && !noCache {
		cache, cacheErr := incr.OpenDiskCache("cgbridge")
		if cacheErr != nil {
			// building without a cache is only slower
			fmt.Fprintf(os.Stderr, "%s incremental cache disabled: %v\n", color.YellowString("warning:"), cacheErr)
		} else {
			req.Cache = cache
		}
	}

	var res buildpipeline.Result
	if uiMode.enabled(os.Stdout) && !opts.quiet {
		title := "cgbridge build " + manifest.Config.Package.Name
		res, err = runBuildWithUI(cmd.Context(), title, buildpipeline.UnitLabels(units, manifest.Root), &req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), &req)
	}
	if printErr := printDiagnostics(os.Stderr, opts, res.Diagnostics, res.Files); printErr != nil {
		return printErr
	}
	if opts.timings {
		if timingErr := printTimings(os.Stderr, res.Timer, opts.format); timingErr != nil {
			return timingErr
		}
	}
	if err != nil {
		return err
	}
	if !opts.quiet {
		printBuildSummary(manifest.Root, &res)
	}
	if res.Failed() > 0 {
		return errDiagnostics
	}
	return nil
}

func printBuildSummary(root string, res *buildpipeline.Result) {
	built, cached := 0, 0
	for i := range res.Units {
		u := &res.Units[i]
		switch {
		case u.Err != nil:
			fmt.Fprintf(os.Stdout, "%s %s\n", color.RedString("failed"), u.Label)
		case u.Cached:
			cached++
		default:
			built++
		}
	}
	var outputs []string
	for i := range res.Units {
		if res.Units[i].OutputPath != "" {
			outputs = append(outputs, formatPathForOutput(root, res.Units[i].OutputPath))
		}
	}
	fmt.Fprintf(os.Stdout, "%s %d unit(s), %d cached", color.GreenString("built"), built, cached)
	if failed := res.Failed(); failed > 0 {
		fmt.Fprintf(os.Stdout, ", %s", color.RedString("%d failed", failed))
	}
	fmt.Fprintln(os.Stdout)
	if len(outputs) > 0 {
		fmt.Fprintf(os.Stdout, "  %s\n", strings.Join(outputs, "\n  "))
	}
}

type buildOutcome struct {
	result buildpipeline.Result
	err    error
}

func runBuildWithUI(ctx context.Context, title string, labels []string, req *buildpipeline.Request) (buildpipeline.Result, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// the view may quit before the build ends; keep the sink from blocking
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
