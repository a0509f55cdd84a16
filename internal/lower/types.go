package lower

import (
	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/mir"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

// typeMapper turns source types into backend types. Aggregates live in
// memory and are passed around by address, so they all become ptr.
type typeMapper struct {
	env   *Env
	cx    codegen.CodegenMethods
	cache map[types.TypeID]codegen.Type
}

func newTypeMapper(env *Env, cx codegen.CodegenMethods) *typeMapper {
	return &typeMapper{env: env, cx: cx, cache: make(map[types.TypeID]codegen.Type)}
}

// backendType maps ty; sp is blamed when ty has no backend representation.
func (tm *typeMapper) backendType(ty types.TypeID, sp source.Span) codegen.Type {
	if bt, ok := tm.cache[ty]; ok {
		return bt
	}
	bt := tm.compute(ty, sp)
	tm.cache[ty] = bt
	return bt
}

func (tm *typeMapper) compute(ty types.TypeID, sp source.Span) codegen.Type {
	in := tm.env.Types
	t, ok := in.Lookup(ty)
	if !ok {
		tm.unsupported(ty, sp)
	}
	switch t.Kind {
	case types.KindInt, types.KindUint:
		return tm.cx.TypeIx(uint64(t.Width))
	case types.KindBool:
		return tm.cx.TypeIx(1)
	case types.KindChar:
		return tm.cx.TypeIx(32)
	case types.KindFloat:
		if t.Width == types.Width32 {
			return tm.cx.TypeF32()
		}
		return tm.cx.TypeF64()
	case types.KindVector:
		return tm.cx.TypeVector(tm.backendType(t.Elem, sp), uint64(t.Count))
	case types.KindPointer, types.KindReference, types.KindBox:
		return tm.cx.TypePtr()
	case types.KindStruct, types.KindTuple, types.KindArray:
		if !codegen.TypeIsSized(tm.env.Tcx.Types, ty) {
			tm.unsupported(ty, sp)
		}
		return tm.cx.TypePtr()
	case types.KindCell:
		return tm.backendType(t.Elem, sp)
	case types.KindOpaque:
		info, _ := in.OpaqueInfo(ty)
		return tm.backendType(info.Hidden, sp)
	case types.KindUnit:
		return tm.cx.TypeVoid()
	default:
		tm.unsupported(ty, sp)
		return 0
	}
}

func (tm *typeMapper) unsupported(ty types.TypeID, sp source.Span) {
	tm.env.Tcx.Sess.SpanFatal(diag.CgUnsupportedType, sp, "type "+tm.env.Types.Name(ty)+" has no machine representation")
}

// valueType is backendType for locals, which cannot be of unit type.
func (tm *typeMapper) valueType(ty types.TypeID, sp source.Span) codegen.Type {
	bt := tm.backendType(ty, sp)
	if tm.cx.TypeKind(bt) == codegen.TypeKindVoid {
		tm.unsupported(ty, sp)
	}
	return bt
}

func (tm *typeMapper) funcType(f *mir.Func) codegen.Type {
	params := make([]codegen.Type, len(f.Params))
	for i, id := range f.Params {
		l := f.Local(id)
		params[i] = tm.valueType(l.Type, l.Span)
	}
	ret := tm.cx.TypeVoid()
	if l := f.Local(f.Result); l != nil {
		ret = tm.valueType(l.Type, l.Span)
	}
	return tm.cx.TypeFunc(params, ret)
}
