package mir

import (
	"errors"
	"fmt"

	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

// InstrError is a validation failure attributed to a statement.
type InstrError struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e *InstrError) Error() string { return e.Msg }

// Validate checks MIR unit invariants: operand types agree, locals are
// written before they are read, results and atomics are well-formed.
func Validate(u *Unit, typesIn *types.Interner) error {
	if u == nil {
		return nil
	}
	var errs []error
	for _, f := range u.Funcs {
		if f == nil {
			continue
		}
		if err := validateFunc(f, typesIn); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

type funcValidator struct {
	f      *Func
	in     *types.Interner
	inited []bool
	errs   []error
}

func validateFunc(f *Func, typesIn *types.Interner) error {
	v := &funcValidator{f: f, in: typesIn, inited: make([]bool, len(f.Locals))}
	for _, p := range f.Params {
		if f.Local(p) == nil {
			v.fail(diag.CgUnknownLocal, f.Span, "parameter L%d does not exist", p)
			continue
		}
		v.inited[p] = true
	}
	for i := range f.Instrs {
		v.instr(&f.Instrs[i])
	}
	if f.Result != NoLocalID {
		switch {
		case f.Local(f.Result) == nil:
			v.fail(diag.CgUnknownLocal, f.Span, "result local L%d does not exist", f.Result)
		case !v.inited[f.Result]:
			v.fail(diag.CgUnknownLocal, f.Span, "result %s is never assigned", f.Locals[f.Result].Name)
		}
	}
	return errors.Join(v.errs...)
}

func (v *funcValidator) fail(code diag.Code, sp source.Span, format string, args ...any) {
	v.errs = append(v.errs, &InstrError{Code: code, Span: sp, Msg: fmt.Sprintf(format, args...)})
}

func (v *funcValidator) name(id LocalID) string {
	if l := v.f.Local(id); l != nil {
		return l.Name
	}
	return fmt.Sprintf("L%d", id)
}

func (v *funcValidator) read(op *Operand, sp source.Span) bool {
	if op.Kind == OperandConst {
		if t, ok := v.in.Lookup(op.Type); !ok || !(t.IsInteger() || t.Kind == types.KindBool || t.Kind == types.KindVector) {
			v.fail(diag.CgBadOperand, sp, "literal of type %s", v.in.Name(op.Type))
			return false
		}
		return true
	}
	if v.f.Local(op.Local) == nil {
		v.fail(diag.CgUnknownLocal, sp, "unknown local L%d", op.Local)
		return false
	}
	if !v.inited[op.Local] {
		v.fail(diag.CgUnknownLocal, sp, "%s is read before it is assigned", v.name(op.Local))
		return false
	}
	return true
}

func (v *funcValidator) write(id LocalID, ty types.TypeID, sp source.Span) {
	l := v.f.Local(id)
	if l == nil {
		v.fail(diag.CgUnknownLocal, sp, "unknown local L%d", id)
		return
	}
	if ty != types.NoTypeID && l.Type != ty {
		v.fail(diag.CgBadOperand, sp, "cannot assign %s to %s of type %s", v.in.Name(ty), l.Name, v.in.Name(l.Type))
	}
	v.inited[id] = true
}

func (v *funcValidator) instr(ins *Instr) {
	switch ins.Kind {
	case InstrAssign:
		v.assign(&ins.Assign, ins.Span)
	case InstrDrop:
		v.read(&Operand{Kind: OperandCopy, Local: ins.Drop.Local}, ins.Span)
	case InstrAtomicRMW:
		a := &ins.AtomicRMW
		if !v.read(&Operand{Kind: OperandCopy, Local: a.Ptr}, ins.Span) || !v.read(&a.Val, ins.Span) {
			return
		}
		elem, ok := AtomicTarget(v.in, v.f.Locals[a.Ptr].Type)
		if !ok {
			v.fail(diag.CgBadOperand, ins.Span, "atomic operation through non-pointer %s", v.name(a.Ptr))
			return
		}
		if et := v.in.MustLookup(elem); !et.IsInteger() {
			v.fail(diag.CgBadOperand, ins.Span, "atomic operation on %s", v.in.Name(elem))
		}
		if a.Val.Type != elem {
			v.fail(diag.CgBadOperand, ins.Span, "atomic operand is %s, pointee is %s", v.in.Name(a.Val.Type), v.in.Name(elem))
		}
		if a.Order == codegen.NotAtomic || a.Order == codegen.Unordered {
			v.fail(diag.CgBadOperand, ins.Span, "atomicrmw cannot be %s", a.Order)
		}
		v.write(a.Dst, elem, ins.Span)
	case InstrFence:
		if ins.Fence.Order < codegen.Acquire {
			v.fail(diag.CgBadOperand, ins.Span, "fence cannot be %s", ins.Fence.Order)
		}
	default:
		v.fail(diag.CgBadOperand, ins.Span, "unknown instruction kind %d", ins.Kind)
	}
}

func (v *funcValidator) assign(a *AssignInstr, sp source.Span) {
	switch a.Src.Kind {
	case RValueUse:
		if v.read(&a.Src.Use, sp) {
			v.write(a.Dst, a.Src.Use.Type, sp)
		}
	case RValueBinaryOp:
		b := &a.Src.Binary
		okL, okR := v.read(&b.Left, sp), v.read(&b.Right, sp)
		if !okL || !okR {
			return
		}
		res, ok := v.binaryResult(b, sp)
		if ok {
			v.write(a.Dst, res, sp)
		}
	default:
		v.fail(diag.CgBadOperand, sp, "unknown rvalue kind %d", a.Src.Kind)
	}
}

func (v *funcValidator) binaryResult(b *BinaryOp, sp source.Span) (types.TypeID, bool) {
	lt, rt := v.in.MustLookup(b.Left.Type), v.in.MustLookup(b.Right.Type)
	switch {
	case b.Op.IsShift():
		if !isIntegerLike(v.in, lt) || !isIntegerLike(v.in, rt) || (lt.Kind == types.KindVector) != (rt.Kind == types.KindVector) {
			v.fail(diag.CgBadOperand, sp, "cannot shift %s by %s", v.in.Name(b.Left.Type), v.in.Name(b.Right.Type))
			return types.NoTypeID, false
		}
		if lt.Kind == types.KindVector && lt.Count != rt.Count {
			v.fail(diag.CgBadOperand, sp, "lane counts differ: %s and %s", v.in.Name(b.Left.Type), v.in.Name(b.Right.Type))
			return types.NoTypeID, false
		}
		return b.Left.Type, true
	case b.Left.Type != b.Right.Type:
		v.fail(diag.CgBadOperand, sp, "mismatched operands %s %s %s", v.in.Name(b.Left.Type), b.Op, v.in.Name(b.Right.Type))
		return types.NoTypeID, false
	case b.Op.IsComparison():
		if lt.Kind == types.KindVector || !(lt.IsInteger() || lt.Kind == types.KindBool || lt.Kind == types.KindFloat || lt.Kind == types.KindChar) {
			v.fail(diag.CgBadOperand, sp, "cannot compare %s", v.in.Name(b.Left.Type))
			return types.NoTypeID, false
		}
		return v.in.Builtins().Bool, true
	default:
		if !isIntegerLike(v.in, lt) && !(lt.Kind == types.KindBool && b.Op >= BinBitAnd && b.Op <= BinBitXor) {
			v.fail(diag.CgBadOperand, sp, "operator %s is not defined for %s", b.Op, v.in.Name(b.Left.Type))
			return types.NoTypeID, false
		}
		return b.Left.Type, true
	}
}

// isIntegerLike accepts integers and vectors of integers.
func isIntegerLike(in *types.Interner, t types.Type) bool {
	if t.Kind == types.KindVector {
		et, ok := in.Lookup(t.Elem)
		return ok && et.IsInteger()
	}
	return t.IsInteger()
}
