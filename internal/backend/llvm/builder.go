package llvm

import (
	"fmt"
	"strings"

	"cgbridge/internal/codegen"
	"cgbridge/internal/session"
)

// Builder appends instructions to one function. Not safe for concurrent use.
type Builder struct {
	cx       *Context
	fn       *function
	cur      *block
	tmpID    int
	finished bool
}

var _ codegen.BuilderMethods = (*Builder)(nil)

func (b *Builder) Cx() codegen.CodegenMethods { return b.cx }

func (b *Builder) nextTemp() string {
	b.tmpID++
	return fmt.Sprintf("%%t%d", b.tmpID)
}

// emit writes one instruction line into the current block.
func (b *Builder) emit(format string, args ...any) {
	if b.finished {
		session.Bug("llvm: emission into finished function @%s", b.fn.name)
	}
	if b.cur == nil {
		session.Bug("llvm: no insertion point in @%s", b.fn.name)
	}
	if b.cur.terminated {
		session.Bug("llvm: instruction after terminator in %s of @%s", b.cur.label, b.fn.name)
	}
	b.cur.buf.WriteString("  ")
	fmt.Fprintf(&b.cur.buf, format, args...)
	b.cur.buf.WriteString("\n")
}

// result emits "%tN = <instr>" and registers the new value.
// The temp name goes in as an argument: "%t1" in a format string is a verb.
func (b *Builder) result(ty codegen.Type, format string, args ...any) codegen.Value {
	tmp := b.nextTemp()
	b.emit("%s = "+format, append([]any{tmp}, args...)...)
	return b.cx.newValue(valueEntry{ty: ty, repr: tmp})
}

func (b *Builder) terminate(format string, args ...any) {
	b.emit(format, args...)
	b.cur.terminated = true
}

func (b *Builder) sameType(op string, lhs, rhs codegen.Value) codegen.Type {
	lt, rt := b.cx.ValTy(lhs), b.cx.ValTy(rhs)
	if lt != rt {
		session.Bug("llvm: %s operands differ: %s vs %s", op, b.cx.TypeString(lt), b.cx.TypeString(rt))
	}
	return lt
}

func (b *Builder) binary(op string, lhs, rhs codegen.Value) codegen.Value {
	ty := b.sameType(op, lhs, rhs)
	return b.result(ty, "%s %s, %s", op, b.cx.operand(lhs), b.cx.ValueString(rhs))
}

func (b *Builder) Shl(lhs, rhs codegen.Value) codegen.Value  { return b.binary("shl", lhs, rhs) }
func (b *Builder) LShr(lhs, rhs codegen.Value) codegen.Value { return b.binary("lshr", lhs, rhs) }
func (b *Builder) AShr(lhs, rhs codegen.Value) codegen.Value { return b.binary("ashr", lhs, rhs) }
func (b *Builder) And(lhs, rhs codegen.Value) codegen.Value  { return b.binary("and", lhs, rhs) }
func (b *Builder) Add(lhs, rhs codegen.Value) codegen.Value  { return b.binary("add", lhs, rhs) }
func (b *Builder) Sub(lhs, rhs codegen.Value) codegen.Value  { return b.binary("sub", lhs, rhs) }
func (b *Builder) Mul(lhs, rhs codegen.Value) codegen.Value  { return b.binary("mul", lhs, rhs) }
func (b *Builder) Or(lhs, rhs codegen.Value) codegen.Value   { return b.binary("or", lhs, rhs) }
func (b *Builder) Xor(lhs, rhs codegen.Value) codegen.Value  { return b.binary("xor", lhs, rhs) }

func (b *Builder) Trunc(v codegen.Value, dest codegen.Type) codegen.Value {
	return b.result(dest, "trunc %s to %s", b.cx.operand(v), b.cx.TypeString(dest))
}

func (b *Builder) ZExt(v codegen.Value, dest codegen.Type) codegen.Value {
	return b.result(dest, "zext %s to %s", b.cx.operand(v), b.cx.TypeString(dest))
}

// VectorSplat folds constant scalars into a vector constant; other scalars
// go through insertelement + shufflevector.
func (b *Builder) VectorSplat(lanes uint64, scalar codegen.Value) codegen.Value {
	if b.cx.IsConst(scalar) {
		return b.cx.constSplat(lanes, scalar)
	}
	vecTy := b.cx.TypeVector(b.cx.ValTy(scalar), lanes)
	vec := b.cx.TypeString(vecTy)
	ins := b.result(vecTy, "insertelement %s poison, %s, i64 0", vec, b.cx.operand(scalar))
	mask := fmt.Sprintf("<%d x i32>", lanes)
	return b.result(vecTy, "shufflevector %s, %s poison, %s zeroinitializer", b.cx.operand(ins), vec, mask)
}

func (b *Builder) cmpType(operandTy codegen.Type) codegen.Type {
	i1 := b.cx.TypeIx(1)
	if b.cx.TypeKind(operandTy) == codegen.TypeKindVector {
		return b.cx.TypeVector(i1, b.cx.VectorLength(operandTy))
	}
	return i1
}

func (b *Builder) ICmp(p codegen.IntPredicate, lhs, rhs codegen.Value) codegen.Value {
	pred, ok := intPredicates[p]
	if !ok {
		session.Bug("llvm: unknown integer predicate %v", p)
	}
	ty := b.sameType("icmp", lhs, rhs)
	return b.result(b.cmpType(ty), "icmp %s %s, %s", pred, b.cx.operand(lhs), b.cx.ValueString(rhs))
}

func (b *Builder) FCmp(p codegen.RealPredicate, lhs, rhs codegen.Value) codegen.Value {
	pred, ok := realPredicates[p]
	if !ok {
		session.Bug("llvm: unknown real predicate %v", p)
	}
	ty := b.sameType("fcmp", lhs, rhs)
	return b.result(b.cmpType(ty), "fcmp %s %s, %s", pred, b.cx.operand(lhs), b.cx.ValueString(rhs))
}

func (b *Builder) AtomicRMW(op codegen.AtomicRMWBinOp, ptr, v codegen.Value, order codegen.AtomicOrdering) codegen.Value {
	name, ok := rmwOps[op]
	if !ok {
		session.Bug("llvm: unknown atomicrmw op %v", op)
	}
	ord, ok := orderings[order]
	if !ok {
		session.Bug("llvm: atomicrmw cannot be %v", order)
	}
	if b.cx.TypeKind(b.cx.ValTy(ptr)) != codegen.TypeKindPointer {
		session.Bug("llvm: atomicrmw on non-pointer %s", b.cx.operand(ptr))
	}
	return b.result(b.cx.ValTy(v), "atomicrmw %s %s, %s %s", name, b.cx.operand(ptr), b.cx.operand(v), ord)
}

func (b *Builder) Fence(order codegen.AtomicOrdering, scope codegen.SynchronizationScope) {
	ord, ok := orderings[order]
	if !ok || order == codegen.Unordered || order == codegen.Monotonic {
		session.Bug("llvm: fence cannot be %v", order)
	}
	b.emit("fence %s%s", syncScope(scope), ord)
}

// Param returns the i-th parameter of the function being defined.
func (b *Builder) Param(i int) codegen.Value {
	if i < 0 || i >= len(b.fn.params) {
		session.Bug("llvm: @%s has no parameter %d", b.fn.name, i)
	}
	return b.fn.params[i]
}

// AppendBlock adds a block; labels are made unique ("cold", "cold1", ...).
func (b *Builder) AppendBlock(name string) codegen.Block {
	if name == "" {
		name = "bb"
	}
	label := name
	if n := b.fn.labels[name]; n > 0 {
		label = fmt.Sprintf("%s%d", name, n)
	}
	b.fn.labels[name]++
	b.fn.blocks = append(b.fn.blocks, &block{label: label})
	return codegen.Block(handle(len(b.fn.blocks)))
}

func (b *Builder) blockAt(bb codegen.Block) *block {
	if bb == 0 || int(bb) > len(b.fn.blocks) {
		session.Bug("llvm: unknown block %d in @%s", bb, b.fn.name)
	}
	return b.fn.blocks[bb-1]
}

func (b *Builder) PositionAtEnd(bb codegen.Block) {
	b.cur = b.blockAt(bb)
}

func (b *Builder) Br(dest codegen.Block) {
	b.terminate("br label %%%s", b.blockAt(dest).label)
}

func (b *Builder) CondBr(cond codegen.Value, then, els codegen.Block) {
	b.terminate("br %s, label %%%s, label %%%s", b.cx.operand(cond), b.blockAt(then).label, b.blockAt(els).label)
}

func (b *Builder) Ret(v codegen.Value) {
	b.terminate("ret %s", b.cx.operand(v))
}

func (b *Builder) RetVoid() {
	b.terminate("ret void")
}

func (b *Builder) Unreachable() {
	b.terminate("unreachable")
}

// Call emits a direct or indirect call. Void calls return codegen.NoValue.
func (b *Builder) Call(fnTy codegen.Type, fn codegen.Value, args []codegen.Value) codegen.Value {
	params, ret := b.cx.FuncSig(fnTy)
	if len(params) != len(args) {
		session.Bug("llvm: call with %d args to %s", len(args), b.cx.TypeString(fnTy))
	}
	parts := make([]string, len(args))
	for i, a := range args {
		if b.cx.ValTy(a) != params[i] {
			session.Bug("llvm: call argument %d is %s, want %s", i, b.cx.TypeString(b.cx.ValTy(a)), b.cx.TypeString(params[i]))
		}
		parts[i] = b.cx.operand(a)
	}
	callee := b.cx.ValueString(fn)
	argList := strings.Join(parts, ", ")
	if b.cx.TypeKind(ret) == codegen.TypeKindVoid {
		b.emit("call void %s(%s)", callee, argList)
		return codegen.NoValue
	}
	return b.result(ret, "call %s %s(%s)", b.cx.TypeString(ret), callee, argList)
}

// Finish checks that every block ends in a terminator and seals the function.
func (b *Builder) Finish() {
	if b.finished {
		return
	}
	for _, bb := range b.fn.blocks {
		if !bb.terminated {
			session.Bug("llvm: block %s of @%s has no terminator", bb.label, b.fn.name)
		}
	}
	if len(b.fn.blocks) == 0 {
		session.Bug("llvm: @%s defined without a body", b.fn.name)
	}
	b.finished = true
}
