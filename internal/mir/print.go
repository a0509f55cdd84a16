package mir

import (
	"fmt"
	"io"
	"strings"

	"cgbridge/internal/codegen"
	"cgbridge/internal/types"
)

// DumpUnit writes a human-readable representation of a unit.
func DumpUnit(w io.Writer, u *Unit, typesIn *types.Interner) error {
	if w == nil || u == nil {
		return nil
	}
	header := "unit " + u.Name
	if u.Kind != codegen.ModuleRegular {
		header += " kind=" + u.Kind.String()
	}
	if _, err := fmt.Fprintf(w, "%s funcs=%d\n", header, len(u.Funcs)); err != nil {
		return err
	}
	for _, f := range u.Funcs {
		if err := dumpFunc(w, f, typesIn); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nfn %s:\n", f.Name)
	sb.WriteString("  locals:\n")
	for i := range f.Locals {
		l := &f.Locals[i]
		param := ""
		if f.IsParam(LocalID(i)) { //nolint:gosec // bounded by len(Locals)
			param = " [param]"
		}
		fmt.Fprintf(&sb, "    L%d: %s%s name=%s\n", i, typeStr(typesIn, l.Type), param, l.Name)
	}
	sb.WriteString("  body:\n")
	for i := range f.Instrs {
		fmt.Fprintf(&sb, "    %s\n", formatInstr(typesIn, f, &f.Instrs[i]))
	}
	if f.Result != NoLocalID {
		fmt.Fprintf(&sb, "    return L%d\n", f.Result)
	} else {
		sb.WriteString("    return\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatInstr(typesIn *types.Interner, f *Func, ins *Instr) string {
	switch ins.Kind {
	case InstrAssign:
		return fmt.Sprintf("L%d = %s", ins.Assign.Dst, formatRValue(typesIn, &ins.Assign.Src))
	case InstrDrop:
		return fmt.Sprintf("drop L%d", ins.Drop.Local)
	case InstrAtomicRMW:
		a := &ins.AtomicRMW
		return fmt.Sprintf("L%d = atomicrmw %s L%d, %s %s", a.Dst, a.Op, a.Ptr, formatOperand(typesIn, &a.Val), a.Order)
	case InstrFence:
		return fmt.Sprintf("fence %s %s", ins.Fence.Order, ins.Fence.Scope)
	default:
		return fmt.Sprintf("<unknown instr %d in %s>", ins.Kind, f.Name)
	}
}

func formatRValue(typesIn *types.Interner, rv *RValue) string {
	switch rv.Kind {
	case RValueUse:
		return formatOperand(typesIn, &rv.Use)
	case RValueBinaryOp:
		b := &rv.Binary
		return fmt.Sprintf("%s %s %s", formatOperand(typesIn, &b.Left), b.Op, formatOperand(typesIn, &b.Right))
	default:
		return "<?>"
	}
}

func formatOperand(typesIn *types.Interner, op *Operand) string {
	if op.Kind == OperandConst {
		return fmt.Sprintf("const %d:%s", op.Const, typeStr(typesIn, op.Type))
	}
	return fmt.Sprintf("copy L%d", op.Local)
}

func typeStr(typesIn *types.Interner, id types.TypeID) string {
	if typesIn == nil {
		return fmt.Sprintf("#%d", id)
	}
	return typesIn.Name(id)
}
