package buildpipeline

import (
	"context"
	"fmt"

	"cgbridge/internal/backend/llvm"
	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/langitem"
	"cgbridge/internal/lower"
	"cgbridge/internal/mir"
	"cgbridge/internal/session"
	"cgbridge/internal/source"
	"cgbridge/internal/trace"
	"cgbridge/internal/types"
)

// EmitRequest compiles a single unit description without writing anything.
type EmitRequest struct {
	Unit           string
	LangItems      string
	Target         string
	BaseDir        string
	MaxDiagnostics int
	Tracer         trace.Tracer
}

// EmitResult holds the in-memory outputs of Emit. Unit and Types are set
// once the description decoded; IR only when code generation finished.
type EmitResult struct {
	Files       *source.FileSet
	Diagnostics *diag.Bag
	Unit        *mir.Unit
	Types       *types.Interner
	IR          string
}

// Emit lowers one unit and returns its LLVM IR. Fatal diagnostics end in
// session.ErrAborted with the diagnostics in the result.
func Emit(ctx context.Context, req *EmitRequest) (res EmitResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return res, fmt.Errorf("missing emit request")
	}
	tracer := req.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeBuild, "emit", trace.CurrentSpan(ctx))
	defer span.End("")

	res.Files = source.NewFileSetWithBase(req.BaseDir)
	res.Diagnostics = diag.NewBag(req.MaxDiagnostics)
	r := diag.BagReporter{Bag: res.Diagnostics}

	items, err := langitem.LoadFile(req.LangItems)
	if err != nil {
		return res, fmt.Errorf("load lang items: %w", err)
	}
	id, err := res.Files.Load(req.Unit)
	if err != nil {
		return res, fmt.Errorf("failed to load unit: %w", err)
	}
	res.Types = types.NewInterner()
	u, err := mir.ParseFile(res.Files.Get(id), res.Types, r)
	if err != nil {
		return res, err
	}
	res.Unit = u

	err = session.CatchBug(func() error {
		mod, genErr := generate(u, res.Types, res.Files, items, req.Target, r, tracer, span.ID())
		if genErr != nil {
			return genErr
		}
		res.IR = mod.Module.String()
		return nil
	})
	return res, err
}

// generate lowers u into a fresh LLVM module. It returns session.ErrAborted
// when a fatal diagnostic stopped the unit.
func generate(
	u *mir.Unit,
	in *types.Interner,
	fs *source.FileSet,
	items *langitem.Registry,
	target string,
	r diag.Reporter,
	tracer trace.Tracer,
	parent uint64,
) (codegen.ModuleCodegen[*llvm.Module], error) {
	sess := session.New(u.Name, fs, r, tracer)
	env := &lower.Env{
		Tcx:    &codegen.TyCtx{Types: types.NewQuerier(in), Items: items, Sess: sess},
		Types:  in,
		Paths:  items,
		Tracer: tracer,
		Parent: parent,
	}
	be := llvm.NewBackend(u.Name, target)
	var mod codegen.ModuleCodegen[*llvm.Module]
	err := session.CatchFatal(func() error {
		mod = lower.Unit[*llvm.Module](env, be, u)
		return nil
	})
	return mod, err
}
