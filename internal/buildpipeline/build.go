// Package buildpipeline runs code generation for every compilation unit of
// a project in parallel.
//
// Each unit gets its own interner, session and backend; the only shared
// state is the read-only lang-item registry, the file set (filled before the
// workers start) and the incremental cache. A fatal diagnostic ends only
// the unit that raised it; an internal compiler error cancels the build.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/incr"
	"cgbridge/internal/langitem"
	"cgbridge/internal/observ"
	"cgbridge/internal/session"
	"cgbridge/internal/source"
	"cgbridge/internal/trace"
)

// ErrNoUnits is returned when a build request lists no unit descriptions.
var ErrNoUnits = errors.New("no compilation units")

// fingerprint domain tag; bump when the meaning of an output changes
const inputsTag = "cgbridge/unit-inputs/v1"

// Request configures a build.
type Request struct {
	Units     []string // unit description files
	LangItems string   // lang-item table
	Target    string   // target triple, "" for the backend default
	OutDir    string   // <unit name>.ll files are written here
	BaseDir   string   // progress labels are relative to it

	Jobs           int // 0 = GOMAXPROCS
	MaxDiagnostics int // per unit, 0 = unlimited

	Cache    *incr.DiskCache // nil disables incremental builds
	Progress ProgressSink
	Tracer   trace.Tracer // nil = the tracer of ctx
}

// UnitResult describes what happened to one unit.
type UnitResult struct {
	Path       string
	Label      string
	Name       string
	Kind       codegen.ModuleKind
	OutputPath string
	Funcs      int
	Cached     bool
	Inputs     incr.Fingerprint
	// Err is session.ErrAborted for units stopped by a fatal diagnostic, or
	// the reason the description could not be read or decoded.
	Err error
}

// Result captures build artefacts and timings.
type Result struct {
	Files       *source.FileSet
	Diagnostics *diag.Bag
	Units       []UnitResult
	Timings     *Timings
	Timer       *observ.Timer
}

// Failed counts units that produced no output.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Units {
		if r.Units[i].Err != nil {
			n++
		}
	}
	return n
}

// Build generates code for every unit of req. The returned error reports
// problems of the build itself (unreadable lang items, unwritable output,
// cancellation, internal compiler errors); unit failures are reported in
// Result.Units and Result.Diagnostics.
func Build(ctx context.Context, req *Request) (Result, error) {
	result := Result{Timings: &Timings{}, Timer: observ.NewTimer()}
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	tracer := req.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeBuild, "build", trace.CurrentSpan(ctx))
	defer span.End("")

	paths := normalizeUnitPaths(req.Units)
	if len(paths) == 0 {
		return result, ErrNoUnits
	}

	stop := result.Timer.Phase("lang items")
	items, err := langitem.LoadFile(req.LangItems)
	if err != nil {
		stop("failed")
		return result, fmt.Errorf("load lang items: %w", err)
	}
	stop(fmt.Sprintf("%d items", items.Len()))

	if err := os.MkdirAll(req.OutDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create output dir: %w", err)
	}

	stop = result.Timer.Phase("load")
	fs := source.NewFileSetWithBase(req.BaseDir)
	result.Files = fs
	b := &builder{
		req:     req,
		items:   items,
		fs:      fs,
		tracer:  tracer,
		parent:  span.ID(),
		timings: result.Timings,
		timer:   result.Timer,
		names:   make(map[string]string, len(paths)),
		env:     environmentKey(items, req.Target),
	}
	units := make([]unitJob, len(paths))
	for i, path := range paths {
		units[i] = unitJob{path: path, label: displayPath(path, req.BaseDir), bag: diag.NewBag(req.MaxDiagnostics)}
		fileID, loadErr := fs.Load(path)
		if loadErr != nil {
			units[i].loadErr = loadErr
			continue
		}
		units[i].file = fs.Get(fileID)
		emitStage(req.Progress, units[i].label, StageLower, StatusQueued, nil, 0)
	}
	stop(fmt.Sprintf("%d units", len(paths)))

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	stop = result.Timer.Phase("units")
	result.Units = make([]UnitResult, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))
	for i := range units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// a bug in one worker must reach the driver, not crash the process
			return session.CatchBug(func() error {
				res, err := b.unit(&units[i])
				result.Units[i] = res
				return err
			})
		})
	}
	waitErr := g.Wait()
	stop(fmt.Sprintf("%d jobs", jobs))

	result.Diagnostics = diag.NewBag(req.MaxDiagnostics)
	for i := range units {
		result.Diagnostics.Merge(units[i].bag)
	}
	if waitErr != nil {
		return result, waitErr
	}
	return result, nil
}

// environmentKey fingerprints everything besides the unit description that
// an output depends on.
func environmentKey(items *langitem.Registry, target string) incr.Fingerprint {
	h := incr.NewStableHasher()
	h.WriteString(inputsTag)
	h.WriteStrings(items.Entries())
	h.WriteString(target)
	return h.Finish()
}
