package codegen

// Value is a backend-owned handle of an SSA value or constant.
type Value uint32

// Type is a backend-owned handle of a type.
type Type uint32

// Block is a backend-owned handle of a basic block.
type Block uint32

// NoValue is returned by instructions without a result (e.g. a void call).
const NoValue Value = 0

// BaseTypeMethods creates and inspects backend types.
// Queries are pure: asking twice about the same handle gives the same answer.
type BaseTypeMethods interface {
	TypeVoid() Type
	TypeIx(bits uint64) Type
	TypeF32() Type
	TypeF64() Type
	TypePtr() Type
	TypeVector(elem Type, lanes uint64) Type
	TypeFunc(params []Type, ret Type) Type

	ValTy(v Value) Type
	TypeKind(ty Type) TypeKind
	IntWidth(ty Type) uint64
	ElementType(ty Type) Type
	VectorLength(ty Type) uint64
}

// ConstMethods builds compile-time constants. Literals that do not fit the
// type are truncated by the backend.
type ConstMethods interface {
	ConstUint(ty Type, v uint64) Value
	ConstInt(ty Type, v int64) Value
}

// CodegenMethods is the backend context of one compilation unit.
type CodegenMethods interface {
	BaseTypeMethods
	ConstMethods
}

// ShiftBuilder is the part of a builder shift lowering needs. Each
// instruction method appends exactly one instruction at the insertion point;
// operands of binary instructions must share a type.
type ShiftBuilder interface {
	Cx() CodegenMethods

	Shl(lhs, rhs Value) Value
	LShr(lhs, rhs Value) Value
	AShr(lhs, rhs Value) Value
	And(lhs, rhs Value) Value
	Trunc(v Value, dest Type) Value
	ZExt(v Value, dest Type) Value
	VectorSplat(lanes uint64, scalar Value) Value
}

// BuilderMethods is the full instruction builder used by lowering.
type BuilderMethods interface {
	ShiftBuilder

	Param(i int) Value
	AppendBlock(name string) Block
	PositionAtEnd(b Block)

	Br(dest Block)
	CondBr(cond Value, then, els Block)
	Ret(v Value)
	RetVoid()
	Unreachable()
	Call(fnTy Type, fn Value, args []Value) Value

	Add(lhs, rhs Value) Value
	Sub(lhs, rhs Value) Value
	Mul(lhs, rhs Value) Value
	Or(lhs, rhs Value) Value
	Xor(lhs, rhs Value) Value
	ICmp(p IntPredicate, lhs, rhs Value) Value
	FCmp(p RealPredicate, lhs, rhs Value) Value

	AtomicRMW(op AtomicRMWBinOp, ptr, v Value, order AtomicOrdering) Value
	Fence(order AtomicOrdering, scope SynchronizationScope)

	// Finish closes the function body; no instruction may follow.
	Finish()
}

// Backend produces the module of one compilation unit. It is used by a
// single goroutine; parallel builds create one Backend per unit.
type Backend[M any] interface {
	Cx() CodegenMethods
	// DeclareFn returns the function value for name, declaring it on first use.
	DeclareFn(name string, fnTy Type) Value
	// Define starts the body of a declared function.
	Define(fn Value) BuilderMethods
	Module() M
}
