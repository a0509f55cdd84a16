// Package eval is a backend that computes instead of emitting: every
// instruction is folded to concrete lane values immediately. Shifting by an
// amount >= the width yields poison, like LLVM does, which makes it a
// convenient oracle for the backend-independent lowering helpers.
package eval

import (
	"fmt"
	"math/big"
	"strings"

	"fortio.org/safecast"

	"cgbridge/internal/codegen"
	"cgbridge/internal/session"
)

type typeInfo struct {
	kind  codegen.TypeKind
	width uint64       // integers
	elem  codegen.Type // vectors
	lanes uint64       // vectors
}

type value struct {
	ty     codegen.Type
	lanes  []*big.Int // unsigned representation, 0 <= x < 2^width
	poison []bool
}

// Context owns every type and value handle of one evaluation.
type Context struct {
	types  []typeInfo
	tindex map[typeInfo]codegen.Type
	values []value
}

// New returns an empty context.
func New() *Context {
	return &Context{
		types:  []typeInfo{{}},
		tindex: make(map[typeInfo]codegen.Type),
		values: []value{{}},
	}
}

var _ codegen.CodegenMethods = (*Context)(nil)

func (cx *Context) intern(info typeInfo) codegen.Type {
	if ty, ok := cx.tindex[info]; ok {
		return ty
	}
	n, err := safecast.Conv[uint32](len(cx.types))
	if err != nil {
		panic(fmt.Errorf("eval: type table overflow: %w", err))
	}
	ty := codegen.Type(n)
	cx.types = append(cx.types, info)
	cx.tindex[info] = ty
	return ty
}

func (cx *Context) info(ty codegen.Type) typeInfo {
	if ty == 0 || int(ty) >= len(cx.types) {
		session.Bug("eval: unknown type handle %d", ty)
	}
	return cx.types[ty]
}

func (cx *Context) TypeVoid() codegen.Type { return cx.intern(typeInfo{kind: codegen.TypeKindVoid}) }
func (cx *Context) TypeF32() codegen.Type  { return cx.intern(typeInfo{kind: codegen.TypeKindFloat}) }
func (cx *Context) TypeF64() codegen.Type  { return cx.intern(typeInfo{kind: codegen.TypeKindDouble}) }
func (cx *Context) TypePtr() codegen.Type  { return cx.intern(typeInfo{kind: codegen.TypeKindPointer}) }

func (cx *Context) TypeIx(bits uint64) codegen.Type {
	if bits == 0 {
		session.Bug("eval: zero-width integer type")
	}
	return cx.intern(typeInfo{kind: codegen.TypeKindInteger, width: bits})
}

func (cx *Context) TypeVector(elem codegen.Type, lanes uint64) codegen.Type {
	return cx.intern(typeInfo{kind: codegen.TypeKindVector, elem: elem, lanes: lanes})
}

// TypeFunc returns an opaque function type; eval never calls functions.
func (cx *Context) TypeFunc([]codegen.Type, codegen.Type) codegen.Type {
	return cx.intern(typeInfo{kind: codegen.TypeKindFunction})
}

func (cx *Context) ValTy(v codegen.Value) codegen.Type { return cx.val(v).ty }

func (cx *Context) TypeKind(ty codegen.Type) codegen.TypeKind { return cx.info(ty).kind }

func (cx *Context) IntWidth(ty codegen.Type) uint64 {
	info := cx.info(ty)
	if info.kind != codegen.TypeKindInteger {
		session.Bug("eval: int_width of %v type", info.kind)
	}
	return info.width
}

func (cx *Context) ElementType(ty codegen.Type) codegen.Type {
	info := cx.info(ty)
	if info.kind != codegen.TypeKindVector {
		session.Bug("eval: element_type of %v type", info.kind)
	}
	return info.elem
}

func (cx *Context) VectorLength(ty codegen.Type) uint64 {
	info := cx.info(ty)
	if info.kind != codegen.TypeKindVector {
		session.Bug("eval: vector_length of %v type", info.kind)
	}
	return info.lanes
}

// ConstUint truncates v to the width of ty.
func (cx *Context) ConstUint(ty codegen.Type, v uint64) codegen.Value {
	return cx.scalar(ty, new(big.Int).SetUint64(v))
}

// ConstInt stores v in two's complement truncated to the width of ty.
func (cx *Context) ConstInt(ty codegen.Type, v int64) codegen.Value {
	return cx.scalar(ty, big.NewInt(v))
}

// ConstVector builds a vector constant lane by lane (values are truncated).
func (cx *Context) ConstVector(ty codegen.Type, lanes ...int64) codegen.Value {
	info := cx.info(ty)
	if info.kind != codegen.TypeKindVector || uint64(len(lanes)) != info.lanes {
		session.Bug("eval: %d lanes for %s", len(lanes), cx.TypeName(ty))
	}
	w := cx.IntWidth(info.elem)
	vals := make([]*big.Int, len(lanes))
	for i, l := range lanes {
		vals[i] = wrap(big.NewInt(l), w)
	}
	return cx.push(value{ty: ty, lanes: vals, poison: make([]bool, len(lanes))})
}

func (cx *Context) scalar(ty codegen.Type, v *big.Int) codegen.Value {
	w := cx.IntWidth(ty)
	return cx.push(value{ty: ty, lanes: []*big.Int{wrap(v, w)}, poison: []bool{false}})
}

func (cx *Context) push(v value) codegen.Value {
	n, err := safecast.Conv[uint32](len(cx.values))
	if err != nil {
		panic(fmt.Errorf("eval: value table overflow: %w", err))
	}
	cx.values = append(cx.values, v)
	return codegen.Value(n)
}

func (cx *Context) val(v codegen.Value) *value {
	if v == codegen.NoValue || int(v) >= len(cx.values) {
		session.Bug("eval: unknown value handle %d", v)
	}
	return &cx.values[v]
}

// laneWidth is the integer width of ty or of its elements.
func (cx *Context) laneWidth(ty codegen.Type) uint64 {
	if cx.TypeKind(ty) == codegen.TypeKindVector {
		return cx.IntWidth(cx.ElementType(ty))
	}
	return cx.IntWidth(ty)
}

// Lanes returns the unsigned lane values of v; a scalar has one lane.
func (cx *Context) Lanes(v codegen.Value) []*big.Int {
	src := cx.val(v).lanes
	out := make([]*big.Int, len(src))
	for i, l := range src {
		out[i] = new(big.Int).Set(l)
	}
	return out
}

// SignedLanes returns the lanes of v read as two's complement.
func (cx *Context) SignedLanes(v codegen.Value) []*big.Int {
	w := cx.laneWidth(cx.ValTy(v))
	out := cx.Lanes(v)
	for i, l := range out {
		out[i] = toSigned(l, w)
	}
	return out
}

// Uint64 returns a scalar value; it is a bug to ask for poison.
func (cx *Context) Uint64(v codegen.Value) uint64 {
	val := cx.val(v)
	if len(val.lanes) != 1 || val.poison[0] {
		session.Bug("eval: Uint64 of non-scalar or poison value %d", v)
	}
	return val.lanes[0].Uint64()
}

// Int64 returns a scalar value read as two's complement.
func (cx *Context) Int64(v codegen.Value) int64 {
	return cx.SignedLanes(v)[0].Int64()
}

// IsPoison reports whether any lane of v is poison.
func (cx *Context) IsPoison(v codegen.Value) bool {
	for _, p := range cx.val(v).poison {
		if p {
			return true
		}
	}
	return false
}

// LanePoison reports per-lane poison flags.
func (cx *Context) LanePoison(v codegen.Value) []bool {
	return append([]bool(nil), cx.val(v).poison...)
}

// Format renders v as "7", "-8" or "<31, 31, 31, 31>".
func (cx *Context) Format(v codegen.Value, signed bool) string {
	val := cx.val(v)
	lanes := cx.Lanes(v)
	if signed {
		lanes = cx.SignedLanes(v)
	}
	parts := make([]string, len(lanes))
	for i, l := range lanes {
		if val.poison[i] {
			parts[i] = "poison"
			continue
		}
		parts[i] = l.String()
	}
	if cx.TypeKind(val.ty) != codegen.TypeKindVector {
		return parts[0]
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// TypeName renders a type like "i32" or "<4 x i32>".
func (cx *Context) TypeName(ty codegen.Type) string {
	info := cx.info(ty)
	switch info.kind {
	case codegen.TypeKindInteger:
		return fmt.Sprintf("i%d", info.width)
	case codegen.TypeKindVector:
		return fmt.Sprintf("<%d x %s>", info.lanes, cx.TypeName(info.elem))
	case codegen.TypeKindFloat:
		return "float"
	case codegen.TypeKindDouble:
		return "double"
	case codegen.TypeKindPointer:
		return "ptr"
	case codegen.TypeKindVoid:
		return "void"
	default:
		return info.kind.String()
	}
}

func wrap(v *big.Int, width uint64) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	out := new(big.Int).Mod(v, mod) // Mod is Euclidean: result is non-negative
	return out
}

func toSigned(v *big.Int, width uint64) *big.Int {
	if v.Bit(int(width-1)) == 0 { //nolint:gosec // widths are small
		return new(big.Int).Set(v)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	return new(big.Int).Sub(v, mod)
}
