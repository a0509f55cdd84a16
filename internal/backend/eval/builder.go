package eval

import (
	"math/big"

	"cgbridge/internal/codegen"
	"cgbridge/internal/session"
)

// Instr is one recorded instruction.
type Instr struct {
	Op     string
	Args   []codegen.Value
	Result codegen.Value
}

// Builder evaluates the shift subset of the builder contract and records
// every instruction in call order.
type Builder struct {
	cx       *Context
	instrs   []Instr
	finished bool
}

var _ codegen.ShiftBuilder = (*Builder)(nil)

// NewBuilder returns a builder over cx.
func (cx *Context) NewBuilder() *Builder {
	return &Builder{cx: cx}
}

func (b *Builder) Cx() codegen.CodegenMethods { return b.cx }

// Instrs returns the recorded instruction stream.
func (b *Builder) Instrs() []Instr {
	return append([]Instr(nil), b.instrs...)
}

// Ops returns just the opcode names of the stream.
func (b *Builder) Ops() []string {
	out := make([]string, len(b.instrs))
	for i, in := range b.instrs {
		out[i] = in.Op
	}
	return out
}

// Finish seals the builder.
func (b *Builder) Finish() { b.finished = true }

func (b *Builder) record(op string, result codegen.Value, args ...codegen.Value) codegen.Value {
	b.instrs = append(b.instrs, Instr{Op: op, Args: args, Result: result})
	return result
}

func (b *Builder) live() {
	if b.finished {
		session.Bug("eval: instruction after Finish")
	}
}

type laneFn func(l, r *big.Int, width uint64) (*big.Int, bool)

func (b *Builder) binary(op string, lhs, rhs codegen.Value, fn laneFn) codegen.Value {
	b.live()
	l, r := b.cx.val(lhs), b.cx.val(rhs)
	if l.ty != r.ty {
		session.Bug("eval: %s operands of different types %s and %s", op, b.cx.TypeName(l.ty), b.cx.TypeName(r.ty))
	}
	w := b.cx.laneWidth(l.ty)
	out := value{ty: l.ty, lanes: make([]*big.Int, len(l.lanes)), poison: make([]bool, len(l.lanes))}
	for i := range l.lanes {
		res, poison := fn(l.lanes[i], r.lanes[i], w)
		out.lanes[i] = wrap(res, w)
		out.poison[i] = poison || l.poison[i] || r.poison[i]
	}
	return b.record(op, b.cx.push(out), lhs, rhs)
}

func overwide(r *big.Int, width uint64) bool {
	return !r.IsUint64() || r.Uint64() >= width
}

func (b *Builder) Shl(lhs, rhs codegen.Value) codegen.Value {
	return b.binary("shl", lhs, rhs, func(l, r *big.Int, w uint64) (*big.Int, bool) {
		if overwide(r, w) {
			return new(big.Int), true
		}
		return new(big.Int).Lsh(l, uint(r.Uint64())), false
	})
}

func (b *Builder) LShr(lhs, rhs codegen.Value) codegen.Value {
	return b.binary("lshr", lhs, rhs, func(l, r *big.Int, w uint64) (*big.Int, bool) {
		if overwide(r, w) {
			return new(big.Int), true
		}
		return new(big.Int).Rsh(l, uint(r.Uint64())), false
	})
}

func (b *Builder) AShr(lhs, rhs codegen.Value) codegen.Value {
	return b.binary("ashr", lhs, rhs, func(l, r *big.Int, w uint64) (*big.Int, bool) {
		if overwide(r, w) {
			return new(big.Int), true
		}
		// big.Int.Rsh on negative numbers rounds towards -inf, i.e. sign-fills.
		return new(big.Int).Rsh(toSigned(l, w), uint(r.Uint64())), false
	})
}

func (b *Builder) And(lhs, rhs codegen.Value) codegen.Value {
	return b.binary("and", lhs, rhs, func(l, r *big.Int, _ uint64) (*big.Int, bool) {
		return new(big.Int).And(l, r), false
	})
}

func (b *Builder) Trunc(v codegen.Value, dest codegen.Type) codegen.Value {
	return b.cast("trunc", v, dest)
}

func (b *Builder) ZExt(v codegen.Value, dest codegen.Type) codegen.Value {
	return b.cast("zext", v, dest)
}

func (b *Builder) cast(op string, v codegen.Value, dest codegen.Type) codegen.Value {
	b.live()
	src := b.cx.val(v)
	w := b.cx.laneWidth(dest)
	out := value{ty: dest, lanes: make([]*big.Int, len(src.lanes)), poison: append([]bool(nil), src.poison...)}
	for i, l := range src.lanes {
		out.lanes[i] = wrap(l, w)
	}
	return b.record(op, b.cx.push(out), v)
}

func (b *Builder) VectorSplat(lanes uint64, scalar codegen.Value) codegen.Value {
	b.live()
	src := b.cx.val(scalar)
	if len(src.lanes) != 1 {
		session.Bug("eval: splat of a vector value")
	}
	ty := b.cx.TypeVector(src.ty, lanes)
	out := value{ty: ty, lanes: make([]*big.Int, lanes), poison: make([]bool, lanes)}
	for i := range out.lanes {
		out.lanes[i] = new(big.Int).Set(src.lanes[0])
		out.poison[i] = src.poison[0]
	}
	return b.record("splat", b.cx.push(out), scalar)
}

// ICmp compares lane-wise; the result is i1 (or a vector of i1).
func (b *Builder) ICmp(p codegen.IntPredicate, lhs, rhs codegen.Value) codegen.Value {
	b.live()
	l, r := b.cx.val(lhs), b.cx.val(rhs)
	w := b.cx.laneWidth(l.ty)
	i1 := b.cx.TypeIx(1)
	ty := i1
	if b.cx.TypeKind(l.ty) == codegen.TypeKindVector {
		ty = b.cx.TypeVector(i1, uint64(len(l.lanes)))
	}
	out := value{ty: ty, lanes: make([]*big.Int, len(l.lanes)), poison: make([]bool, len(l.lanes))}
	for i := range l.lanes {
		var c int
		switch p {
		case codegen.IntSGT, codegen.IntSGE, codegen.IntSLT, codegen.IntSLE:
			c = toSigned(l.lanes[i], w).Cmp(toSigned(r.lanes[i], w))
		default:
			c = l.lanes[i].Cmp(r.lanes[i])
		}
		out.lanes[i] = big.NewInt(0)
		if holds(p, c) {
			out.lanes[i].SetInt64(1)
		}
		out.poison[i] = l.poison[i] || r.poison[i]
	}
	return b.record("icmp "+p.String(), b.cx.push(out), lhs, rhs)
}

func holds(p codegen.IntPredicate, c int) bool {
	switch p {
	case codegen.IntEQ:
		return c == 0
	case codegen.IntNE:
		return c != 0
	case codegen.IntUGT, codegen.IntSGT:
		return c > 0
	case codegen.IntUGE, codegen.IntSGE:
		return c >= 0
	case codegen.IntULT, codegen.IntSLT:
		return c < 0
	case codegen.IntULE, codegen.IntSLE:
		return c <= 0
	default:
		session.Bug("eval: unknown predicate %v", p)
		return false
	}
}
