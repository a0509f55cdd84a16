package codegen

import (
	"cgbridge/internal/session"
	"cgbridge/internal/types"
)

// Shifting by an amount >= the bit width is undefined in LLVM and differs
// between native instruction sets. Unchecked shifts therefore mask the
// amount to width-1, i.e. shift by amount mod width. For 32- and 64-bit
// integers this is what Java and most C runtimes do.

// SignQuerier tells whether a source-level type is signed.
type SignQuerier interface {
	IsSigned(ty types.TypeID) bool
}

// BuildUncheckedLShift emits lhs << (rhs mod width).
func BuildUncheckedLShift(bx ShiftBuilder, lhs, rhs Value) Value {
	rhs = CastShiftExprRHS(bx, lhs, rhs)
	rhs = shiftMaskRHS(bx, rhs)
	return bx.Shl(lhs, rhs)
}

// BuildUncheckedRShift emits lhs >> (rhs mod width): arithmetic when the
// declared type of lhs is signed, logical otherwise.
func BuildUncheckedRShift(bx ShiftBuilder, sq SignQuerier, lhsT types.TypeID, lhs, rhs Value) Value {
	rhs = CastShiftExprRHS(bx, lhs, rhs)
	rhs = shiftMaskRHS(bx, rhs)
	if sq.IsSigned(lhsT) {
		return bx.AShr(lhs, rhs)
	}
	return bx.LShr(lhs, rhs)
}

func shiftMaskRHS(bx ShiftBuilder, rhs Value) Value {
	rhsTy := bx.Cx().ValTy(rhs)
	mask := ShiftMaskVal(bx, rhsTy, rhsTy, false)
	return bx.And(rhs, mask)
}

// ShiftMaskVal returns the shift mask for ty as a constant of maskTy:
// width-1 for integers (i8 shifts by at most 7, i16 by 15 and so on), the
// element mask splatted over every lane for vectors. With invert the
// complement ^(width-1) is produced as a signed constant.
func ShiftMaskVal(bx ShiftBuilder, ty, maskTy Type, invert bool) Value {
	cx := bx.Cx()
	switch kind := cx.TypeKind(ty); kind {
	case TypeKindInteger:
		val := cx.IntWidth(ty) - 1
		if invert {
			return cx.ConstInt(maskTy, ^int64(val)) //nolint:gosec // widths are at most 128
		}
		return cx.ConstUint(maskTy, val)
	case TypeKindVector:
		mask := ShiftMaskVal(bx, cx.ElementType(ty), cx.ElementType(maskTy), invert)
		return bx.VectorSplat(cx.VectorLength(maskTy), mask)
	default:
		session.Bug("shift_mask_val: expected Integer or Vector, found %v", kind)
		return NoValue
	}
}

// CastShiftExprRHS brings the shift amount to the width of lhs (lane width
// for vectors): wider amounts are truncated, narrower ones zero-extended.
func CastShiftExprRHS(bx ShiftBuilder, lhs, rhs Value) Value {
	cx := bx.Cx()
	lhsTy, rhsTy := cx.ValTy(lhs), cx.ValTy(rhs)
	lhsElem, rhsElem := lhsTy, rhsTy
	if cx.TypeKind(lhsTy) == TypeKindVector {
		lhsElem = cx.ElementType(lhsTy)
	}
	if cx.TypeKind(rhsTy) == TypeKindVector {
		rhsElem = cx.ElementType(rhsTy)
	}
	lhsWidth, rhsWidth := cx.IntWidth(lhsElem), cx.IntWidth(rhsElem)
	switch {
	case lhsWidth < rhsWidth:
		return bx.Trunc(rhs, lhsTy)
	case lhsWidth > rhsWidth:
		return bx.ZExt(rhs, lhsTy)
	default:
		return rhs
	}
}
