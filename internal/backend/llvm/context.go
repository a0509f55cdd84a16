package llvm

import (
	"fmt"
	"math/big"
	"strings"

	"fortio.org/safecast"

	"cgbridge/internal/codegen"
	"cgbridge/internal/session"
)

type valueEntry struct {
	ty     codegen.Type
	repr   string // operand spelling without the type: "%t3", "42", "<i32 1, i32 2>", "@f"
	isCon  bool
	scalar *big.Int // folded scalar constants
}

// Context owns the type and value tables of one module. Handles are dense
// indices; 0 is never a valid handle.
type Context struct {
	types     []typeEntry
	typeIndex map[string]codegen.Type
	values    []valueEntry
	consts    map[string]codegen.Value
}

var _ codegen.CodegenMethods = (*Context)(nil)

func newContext() *Context {
	return &Context{
		types:     []typeEntry{{}},
		typeIndex: make(map[string]codegen.Type, 32),
		values:    []valueEntry{{}},
		consts:    make(map[string]codegen.Value, 32),
	}
}

func handle(n int) uint32 {
	h, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("llvm: handle table overflow: %w", err))
	}
	return h
}

func (cx *Context) newValue(e valueEntry) codegen.Value {
	v := codegen.Value(handle(len(cx.values)))
	cx.values = append(cx.values, e)
	return v
}

func (cx *Context) val(v codegen.Value) *valueEntry {
	if v == codegen.NoValue || int(v) >= len(cx.values) {
		session.Bug("llvm: unknown value handle %d", v)
	}
	return &cx.values[v]
}

func (cx *Context) ValTy(v codegen.Value) codegen.Type {
	return cx.val(v).ty
}

// operand spells v as "<type> <value>".
func (cx *Context) operand(v codegen.Value) string {
	e := cx.val(v)
	return cx.typ(e.ty).repr + " " + e.repr
}

// ValueString spells v without its type.
func (cx *Context) ValueString(v codegen.Value) string {
	return cx.val(v).repr
}

// IsConst reports whether v was folded to a constant.
func (cx *Context) IsConst(v codegen.Value) bool {
	return cx.val(v).isCon
}

func (cx *Context) ConstUint(ty codegen.Type, v uint64) codegen.Value {
	return cx.constScalar(ty, new(big.Int).SetUint64(v))
}

func (cx *Context) ConstInt(ty codegen.Type, v int64) codegen.Value {
	return cx.constScalar(ty, big.NewInt(v))
}

// constScalar truncates v to the width of ty and spells it the way LLVM
// prints it: signed decimal, i1 as true/false.
func (cx *Context) constScalar(ty codegen.Type, v *big.Int) codegen.Value {
	w := cx.IntWidth(ty)
	mod := new(big.Int).Lsh(big.NewInt(1), uint(w))
	u := new(big.Int).Mod(v, mod)
	s := new(big.Int).Set(u)
	if u.Bit(int(w-1)) == 1 { //nolint:gosec // integer widths are small
		s.Sub(s, mod)
	}
	repr := s.String()
	if w == 1 {
		repr = "false"
		if u.Sign() != 0 {
			repr = "true"
		}
	}
	key := cx.typ(ty).repr + " " + repr
	if v, ok := cx.consts[key]; ok {
		return v
	}
	c := cx.newValue(valueEntry{ty: ty, repr: repr, isCon: true, scalar: u})
	cx.consts[key] = c
	return c
}

// constSplat folds a splat of a constant into a vector constant.
func (cx *Context) constSplat(lanes uint64, scalar codegen.Value) codegen.Value {
	e := cx.val(scalar)
	ty := cx.TypeVector(e.ty, lanes)
	elem := cx.operand(scalar)
	parts := make([]string, lanes)
	for i := range parts {
		parts[i] = elem
	}
	repr := "<" + strings.Join(parts, ", ") + ">"
	key := cx.typ(ty).repr + " " + repr
	if v, ok := cx.consts[key]; ok {
		return v
	}
	c := cx.newValue(valueEntry{ty: ty, repr: repr, isCon: true})
	cx.consts[key] = c
	return c
}

// ConstValue returns the (unsigned, truncated) value of a scalar constant.
func (cx *Context) ConstValue(v codegen.Value) (*big.Int, bool) {
	e := cx.val(v)
	if !e.isCon || e.scalar == nil {
		return nil, false
	}
	return new(big.Int).Set(e.scalar), true
}
