// Package lower translates MIR compilation units into backend modules.
//
// Lowering only talks to the backend through the codegen builder contract, so
// the same unit can be rendered as LLVM IR or evaluated. Unrecoverable user
// errors (unsupported types, missing lang items) end the unit through the
// session's fatal path; inconsistencies of already validated MIR are bugs.
package lower

import (
	"fmt"
	"strconv"

	"cgbridge/internal/codegen"
	"cgbridge/internal/langitem"
	"cgbridge/internal/mir"
	"cgbridge/internal/trace"
	"cgbridge/internal/types"
)

// SymbolPaths maps a resolved lang item to the symbol it is emitted as.
// *langitem.Registry implements it.
type SymbolPaths interface {
	Path(def langitem.DefID) string
}

// Env is everything lowering consults besides the unit itself.
type Env struct {
	Tcx    *codegen.TyCtx
	Types  *types.Interner
	Paths  SymbolPaths
	Tracer trace.Tracer
	// Parent is the trace span of the enclosing unit.
	Parent uint64
}

// Unit lowers every function of u into be and returns the finished module.
// Functions are declared first so that their order in the output follows the
// unit description.
func Unit[M any](env *Env, be codegen.Backend[M], u *mir.Unit) codegen.ModuleCodegen[M] {
	tm := newTypeMapper(env, be.Cx())

	decls := make([]codegen.Value, len(u.Funcs))
	for i, f := range u.Funcs {
		decls[i] = be.DeclareFn(f.Name, tm.funcType(f))
	}
	for i, f := range u.Funcs {
		span := trace.Begin(env.Tracer, trace.ScopeFunc, "lower:"+f.Name, env.Parent)
		fl := &funcLowerer{
			env:    env,
			be:     be,
			tm:     tm,
			f:      f,
			bx:     be.Define(decls[i]),
			values: make(map[mir.LocalID]codegen.Value, len(f.Locals)),
		}
		fl.lower()
		span.Attr("locals", strconv.Itoa(len(f.Locals))).End(fmt.Sprintf("%d instrs", len(f.Instrs)))
	}
	return codegen.ModuleCodegen[M]{Name: u.Name, Kind: u.Kind, Module: be.Module()}
}
