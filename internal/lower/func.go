package lower

import (
	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/langitem"
	"cgbridge/internal/mir"
	"cgbridge/internal/session"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

type funcLowerer struct {
	env *Env
	be  interface {
		DeclareFn(name string, fnTy codegen.Type) codegen.Value
	}
	tm *typeMapper
	f  *mir.Func
	bx codegen.BuilderMethods

	// values holds the current SSA value of every assigned local. MIR bodies
	// are straight-line apart from overflow checks, whose continuation block
	// is dominated by everything emitted before, so no phis are needed.
	values map[mir.LocalID]codegen.Value
}

func (fl *funcLowerer) lower() {
	fl.bx.PositionAtEnd(fl.bx.AppendBlock("start"))
	for i, id := range fl.f.Params {
		fl.values[id] = fl.bx.Param(i)
	}
	for i := range fl.f.Instrs {
		fl.lowerInstr(&fl.f.Instrs[i])
	}
	if fl.f.Result == mir.NoLocalID {
		fl.bx.RetVoid()
	} else {
		fl.bx.Ret(fl.local(fl.f.Result))
	}
	fl.bx.Finish()
}

func (fl *funcLowerer) lowerInstr(ins *mir.Instr) {
	switch ins.Kind {
	case mir.InstrAssign:
		fl.values[ins.Assign.Dst] = fl.rvalue(&ins.Assign.Src, ins.Span)
	case mir.InstrDrop:
		fl.lowerDrop(ins.Drop.Local, ins.Span)
	case mir.InstrAtomicRMW:
		fl.lowerAtomicRMW(&ins.AtomicRMW, ins.Span)
	case mir.InstrFence:
		fl.bx.Fence(ins.Fence.Order, ins.Fence.Scope)
	default:
		session.Bug("lower: unknown instruction kind %d in %s", ins.Kind, fl.f.Name)
	}
}

func (fl *funcLowerer) local(id mir.LocalID) codegen.Value {
	v, ok := fl.values[id]
	if !ok {
		session.Bug("lower: local L%d of %s read before assignment", id, fl.f.Name)
	}
	return v
}

func (fl *funcLowerer) operand(op *mir.Operand, sp source.Span) codegen.Value {
	switch op.Kind {
	case mir.OperandCopy:
		return fl.local(op.Local)
	case mir.OperandConst:
		return fl.constant(op.Type, op.Const, sp)
	default:
		session.Bug("lower: unknown operand kind %d", op.Kind)
		return codegen.NoValue
	}
}

// constant builds a literal of ty; vector literals are splats.
func (fl *funcLowerer) constant(ty types.TypeID, v int64, sp source.Span) codegen.Value {
	cx := fl.bx.Cx()
	bt := fl.tm.valueType(ty, sp)
	switch cx.TypeKind(bt) {
	case codegen.TypeKindInteger:
		return cx.ConstInt(bt, v)
	case codegen.TypeKindVector:
		t := fl.env.Types.MustLookup(ty)
		return fl.bx.VectorSplat(cx.VectorLength(bt), fl.constant(t.Elem, v, sp))
	default:
		fl.env.Tcx.Sess.SpanFatal(diag.CgUnsupportedOp, sp, "literal of type "+fl.env.Types.Name(ty)+" cannot be emitted")
		return codegen.NoValue
	}
}

func (fl *funcLowerer) rvalue(rv *mir.RValue, sp source.Span) codegen.Value {
	switch rv.Kind {
	case mir.RValueUse:
		return fl.operand(&rv.Use, sp)
	case mir.RValueBinaryOp:
		return fl.binary(&rv.Binary, sp)
	default:
		session.Bug("lower: unknown rvalue kind %d", rv.Kind)
		return codegen.NoValue
	}
}

func (fl *funcLowerer) binary(b *mir.BinaryOp, sp source.Span) codegen.Value {
	lhs := fl.operand(&b.Left, sp)
	rhs := fl.operand(&b.Right, sp)
	bx := fl.bx
	switch b.Op {
	case mir.BinAdd:
		return bx.Add(lhs, rhs)
	case mir.BinSub:
		return bx.Sub(lhs, rhs)
	case mir.BinMul:
		return bx.Mul(lhs, rhs)
	case mir.BinBitAnd:
		return bx.And(lhs, rhs)
	case mir.BinBitOr:
		return bx.Or(lhs, rhs)
	case mir.BinBitXor:
		return bx.Xor(lhs, rhs)
	case mir.BinShl, mir.BinShr:
		return fl.checkedShift(b, lhs, rhs, sp)
	case mir.BinShlUnchecked:
		return codegen.BuildUncheckedLShift(bx, lhs, rhs)
	case mir.BinShrUnchecked:
		return codegen.BuildUncheckedRShift(bx, fl.env.Types, b.Left.Type, lhs, rhs)
	}
	if b.Op.IsComparison() {
		return fl.compare(b, lhs, rhs)
	}
	session.Bug("lower: unknown binary operator %d", b.Op)
	return codegen.NoValue
}

// checkedShift panics through the panic_shift_overflow lang item when the
// amount is not below the bit width, then shifts. The amount is compared
// before it is cast to the width of lhs, so truncation cannot hide an
// overflow. Vector shifts are never checked: they are always masked.
func (fl *funcLowerer) checkedShift(b *mir.BinaryOp, lhs, rhs codegen.Value, sp source.Span) codegen.Value {
	bx := fl.bx
	cx := bx.Cx()
	lhsTy := cx.ValTy(lhs)
	if cx.TypeKind(lhsTy) == codegen.TypeKindInteger {
		rhsTy := cx.ValTy(rhs)
		width := cx.ConstUint(rhsTy, cx.IntWidth(lhsTy))
		overflow := bx.ICmp(codegen.IntUGE, rhs, width)

		panicBB := bx.AppendBlock("shift_overflow")
		okBB := bx.AppendBlock("shift_ok")
		bx.CondBr(overflow, panicBB, okBB)

		bx.PositionAtEnd(panicBB)
		fl.callLangItem("cannot check shift:", langitem.ItemPanicShiftOverflow, sp, "", nil)
		bx.Unreachable()

		bx.PositionAtEnd(okBB)
	}
	if b.Op == mir.BinShl {
		return codegen.BuildUncheckedLShift(bx, lhs, rhs)
	}
	return codegen.BuildUncheckedRShift(bx, fl.env.Types, b.Left.Type, lhs, rhs)
}

var (
	signedPredicates = map[mir.BinOp]codegen.IntPredicate{
		mir.BinEq: codegen.IntEQ, mir.BinNe: codegen.IntNE,
		mir.BinLt: codegen.IntSLT, mir.BinLe: codegen.IntSLE,
		mir.BinGt: codegen.IntSGT, mir.BinGe: codegen.IntSGE,
	}
	unsignedPredicates = map[mir.BinOp]codegen.IntPredicate{
		mir.BinEq: codegen.IntEQ, mir.BinNe: codegen.IntNE,
		mir.BinLt: codegen.IntULT, mir.BinLe: codegen.IntULE,
		mir.BinGt: codegen.IntUGT, mir.BinGe: codegen.IntUGE,
	}
	// != is the only unordered one: it must hold when either side is NaN.
	realPredicates = map[mir.BinOp]codegen.RealPredicate{
		mir.BinEq: codegen.RealOEQ, mir.BinNe: codegen.RealUNE,
		mir.BinLt: codegen.RealOLT, mir.BinLe: codegen.RealOLE,
		mir.BinGt: codegen.RealOGT, mir.BinGe: codegen.RealOGE,
	}
)

func (fl *funcLowerer) compare(b *mir.BinaryOp, lhs, rhs codegen.Value) codegen.Value {
	cx := fl.bx.Cx()
	if cx.TypeKind(cx.ValTy(lhs)).IsFloat() {
		return fl.bx.FCmp(realPredicates[b.Op], lhs, rhs)
	}
	if fl.env.Types.IsSigned(b.Left.Type) {
		return fl.bx.ICmp(signedPredicates[b.Op], lhs, rhs)
	}
	return fl.bx.ICmp(unsignedPredicates[b.Op], lhs, rhs)
}

// lowerDrop calls drop_in_place::<T> for locals whose type has drop glue.
func (fl *funcLowerer) lowerDrop(id mir.LocalID, sp source.Span) {
	l := fl.f.Local(id)
	if l == nil {
		session.Bug("lower: drop of unknown local L%d in %s", id, fl.f.Name)
	}
	q := fl.env.Tcx.Types
	if !codegen.TypeNeedsDrop(q, l.Type) {
		return
	}
	if !codegen.TypeIsSized(q, l.Type) {
		session.Bug("lower: drop of unsized local %s: %s", l.Name, fl.env.Types.Name(l.Type))
	}
	fl.callLangItem("cannot drop "+l.Name+":", langitem.ItemDropInPlace, sp,
		"<"+fl.env.Types.Name(l.Type)+">", []codegen.Value{fl.local(id)})
}

// lowerAtomicRMW rejects updates through a shared reference to a type
// without interior mutability: nothing may change such a value.
func (fl *funcLowerer) lowerAtomicRMW(a *mir.AtomicRMWInstr, sp source.Span) {
	ptrLocal := fl.f.Local(a.Ptr)
	if ptrLocal == nil {
		session.Bug("lower: atomic through unknown local L%d", a.Ptr)
	}
	if pt := fl.env.Types.MustLookup(ptrLocal.Type); pt.Kind == types.KindReference && !pt.Mutable &&
		codegen.TypeIsFreeze(fl.env.Tcx.Types, pt.Elem) {
		fl.env.Tcx.Sess.SpanFatal(diag.CgAtomicOnFreezeType, sp,
			"cannot update "+fl.env.Types.Name(pt.Elem)+" atomically through a shared reference; wrap it in a cell")
	}
	ptr := fl.local(a.Ptr)
	val := fl.operand(&a.Val, sp)
	fl.values[a.Dst] = fl.bx.AtomicRMW(a.Op, ptr, val, a.Order)
}

// callLangItem emits a call to the symbol of item, aborting the unit when the
// item is not registered. suffix distinguishes instances of generic items.
func (fl *funcLowerer) callLangItem(msg string, item langitem.Item, sp source.Span, suffix string, args []codegen.Value) {
	def := codegen.LangCall(fl.env.Tcx, &sp, msg, item)
	cx := fl.bx.Cx()
	params := make([]codegen.Type, len(args))
	for i, a := range args {
		params[i] = cx.ValTy(a)
	}
	fnTy := cx.TypeFunc(params, cx.TypeVoid())
	fn := fl.be.DeclareFn(fl.env.Paths.Path(def)+suffix, fnTy)
	fl.bx.Call(fnTy, fn, args)
}
