package buildpipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/incr"
	"cgbridge/internal/langitem"
	"cgbridge/internal/mir"
	"cgbridge/internal/observ"
	"cgbridge/internal/source"
	"cgbridge/internal/trace"
	"cgbridge/internal/types"
)

type unitJob struct {
	path    string
	label   string
	file    *source.File
	loadErr error
	bag     *diag.Bag
}

// builder holds what the workers share.
type builder struct {
	req     *Request
	items   *langitem.Registry
	fs      *source.FileSet
	tracer  trace.Tracer
	parent  uint64
	timings *Timings
	timer   *observ.Timer
	env     incr.Fingerprint

	mu    sync.Mutex
	names map[string]string // unit name -> description path
}

// record adds the time one unit spent in stage.
func (b *builder) record(stage Stage, elapsed time.Duration) {
	b.timings.Add(stage, elapsed)
	b.timer.Add(string(stage), elapsed)
}

// claim reserves the output name of a unit; two units writing the same
// file would silently overwrite each other.
func (b *builder) claim(name, path string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if other, ok := b.names[name]; ok && other != path {
		return other, false
	}
	b.names[name] = path
	return "", true
}

// unit builds one unit. The error is non-nil only for failures that should
// stop the whole build.
func (b *builder) unit(job *unitJob) (UnitResult, error) {
	res := UnitResult{Path: job.path, Label: job.label}
	r := diag.BagReporter{Bag: job.bag}
	if job.loadErr != nil {
		diag.ReportError(r, diag.IOLoadFileError, diag.Diagnostic{Global: true, Message: "failed to load unit: " + job.loadErr.Error()}).Emit()
		res.Err = job.loadErr
		emitStage(b.req.Progress, job.label, StageLower, StatusError, res.Err, 0)
		return res, nil
	}

	span := trace.Begin(b.tracer, trace.ScopeUnit, "unit:"+job.label, b.parent)
	defer func() {
		span.End(unitOutcome(&res))
	}()

	res.Inputs = incr.Combine(b.env, incr.Of(job.file.Content))
	if ok, err := b.fromCache(job, &res); ok || err != nil {
		return res, err
	}

	// lower: description -> validated MIR
	start := time.Now()
	emitStage(b.req.Progress, job.label, StageLower, StatusWorking, nil, 0)
	in := types.NewInterner()
	u, err := mir.ParseFile(job.file, in, r)
	if err == nil {
		err = b.checkName(u.Name, job, r)
	}
	elapsed := time.Since(start)
	b.record(StageLower, elapsed)
	if err != nil {
		res.Err = err
		emitStage(b.req.Progress, job.label, StageLower, StatusError, err, elapsed)
		return res, nil
	}
	res.Name = u.Name
	emitStage(b.req.Progress, job.label, StageLower, StatusDone, nil, elapsed)

	// codegen: MIR -> LLVM module
	start = time.Now()
	emitStage(b.req.Progress, job.label, StageCodegen, StatusWorking, nil, 0)
	mod, err := generate(u, in, b.fs, b.items, b.req.Target, r, b.tracer, span.ID())
	elapsed = time.Since(start)
	b.record(StageCodegen, elapsed)
	if err != nil {
		res.Err = err
		emitStage(b.req.Progress, job.label, StageCodegen, StatusError, err, elapsed)
		return res, nil
	}
	emitStage(b.req.Progress, job.label, StageCodegen, StatusDone, nil, elapsed)

	// emit: render, write, remember
	start = time.Now()
	emitStage(b.req.Progress, job.label, StageEmit, StatusWorking, nil, 0)
	text := mod.Module.String()
	res.Funcs = mod.Module.Defined()
	res.Kind = mod.Kind
	if err := b.write(&res, u.Name, text); err != nil {
		emitStage(b.req.Progress, job.label, StageEmit, StatusError, err, time.Since(start))
		return res, err
	}
	payload := incr.UnitPayload{
		Name:   u.Name,
		Kind:   uint8(mod.Kind),
		Output: text,
		Funcs:  res.Funcs,
	}
	if err := b.req.Cache.Put(res.Inputs, &payload); err != nil {
		// a cache that cannot be written only costs the next build time
		diag.ReportWarning(r, diag.IOCacheError, diag.Diagnostic{Global: true, Message: "failed to cache unit " + u.Name + ": " + err.Error()}).Emit()
	}
	elapsed = time.Since(start)
	b.record(StageEmit, elapsed)
	emitStage(b.req.Progress, job.label, StageEmit, StatusDone, nil, elapsed)
	return res, nil
}

// fromCache serves a unit whose inputs did not change since a previous build.
func (b *builder) fromCache(job *unitJob, res *UnitResult) (bool, error) {
	if b.req.Cache == nil {
		return false, nil
	}
	var payload incr.UnitPayload
	hit, err := b.req.Cache.Get(res.Inputs, &payload)
	if err != nil || !hit {
		// unreadable entries are rebuilt and overwritten
		return false, nil
	}
	if _, ok := b.claim(payload.Name, job.path); !ok {
		return false, nil
	}
	res.Name = payload.Name
	res.Kind = codegen.ModuleKind(payload.Kind)
	res.Funcs = payload.Funcs
	res.Cached = true
	if err := b.write(res, payload.Name, payload.Output); err != nil {
		emitStage(b.req.Progress, job.label, StageEmit, StatusError, err, 0)
		return true, err
	}
	for _, stage := range Stages {
		emitStage(b.req.Progress, job.label, stage, StatusCached, nil, 0)
	}
	return true, nil
}

// checkName rejects names that cannot be used as an output file name or
// that another unit already uses.
func (b *builder) checkName(name string, job *unitJob, r diag.Reporter) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		err := fmt.Errorf("unit name %q cannot be used as a file name", name)
		diag.ReportError(r, diag.ProjBadUnit, diag.Diagnostic{Primary: source.Span{File: job.file.ID}, Message: err.Error()}).Emit()
		return err
	}
	if other, ok := b.claim(name, job.path); !ok {
		err := fmt.Errorf("unit name %q is already used by %s", name, displayPath(other, b.req.BaseDir))
		diag.ReportError(r, diag.ProjBadUnit, diag.Diagnostic{Primary: source.Span{File: job.file.ID}, Message: err.Error()}).Emit()
		return err
	}
	return nil
}

func (b *builder) write(res *UnitResult, name, text string) error {
	out := filepath.Join(b.req.OutDir, name+".ll")
	if err := os.WriteFile(out, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	res.OutputPath = out
	return nil
}

func unitOutcome(res *UnitResult) string {
	switch {
	case res.Err != nil:
		return "error"
	case res.Cached:
		return "cached"
	default:
		return fmt.Sprintf("%d funcs", res.Funcs)
	}
}
