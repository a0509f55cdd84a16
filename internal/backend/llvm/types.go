package llvm

import (
	"fmt"
	"strings"

	"cgbridge/internal/codegen"
	"cgbridge/internal/session"
)

type typeEntry struct {
	kind   codegen.TypeKind
	width  uint64         // integers
	elem   codegen.Type   // vectors
	lanes  uint64         // vectors
	params []codegen.Type // functions
	ret    codegen.Type   // functions
	repr   string
}

// intern returns the handle of the type spelled repr, creating it on first use.
// The spelling is the identity: two handles never share one.
func (cx *Context) intern(e typeEntry) codegen.Type {
	if ty, ok := cx.typeIndex[e.repr]; ok {
		return ty
	}
	ty := codegen.Type(handle(len(cx.types)))
	cx.types = append(cx.types, e)
	cx.typeIndex[e.repr] = ty
	return ty
}

func (cx *Context) typ(ty codegen.Type) *typeEntry {
	if ty == 0 || int(ty) >= len(cx.types) {
		session.Bug("llvm: unknown type handle %d", ty)
	}
	return &cx.types[ty]
}

func (cx *Context) TypeVoid() codegen.Type {
	return cx.intern(typeEntry{kind: codegen.TypeKindVoid, repr: "void"})
}

func (cx *Context) TypeIx(bits uint64) codegen.Type {
	if bits == 0 {
		session.Bug("llvm: zero-width integer type")
	}
	return cx.intern(typeEntry{kind: codegen.TypeKindInteger, width: bits, repr: fmt.Sprintf("i%d", bits)})
}

func (cx *Context) TypeF32() codegen.Type {
	return cx.intern(typeEntry{kind: codegen.TypeKindFloat, repr: "float"})
}

func (cx *Context) TypeF64() codegen.Type {
	return cx.intern(typeEntry{kind: codegen.TypeKindDouble, repr: "double"})
}

// TypePtr is the opaque pointer type.
func (cx *Context) TypePtr() codegen.Type {
	return cx.intern(typeEntry{kind: codegen.TypeKindPointer, repr: "ptr"})
}

func (cx *Context) TypeVector(elem codegen.Type, lanes uint64) codegen.Type {
	repr := fmt.Sprintf("<%d x %s>", lanes, cx.typ(elem).repr)
	return cx.intern(typeEntry{kind: codegen.TypeKindVector, elem: elem, lanes: lanes, repr: repr})
}

func (cx *Context) TypeFunc(params []codegen.Type, ret codegen.Type) codegen.Type {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = cx.typ(p).repr
	}
	repr := fmt.Sprintf("%s (%s)", cx.typ(ret).repr, strings.Join(parts, ", "))
	return cx.intern(typeEntry{
		kind:   codegen.TypeKindFunction,
		params: append([]codegen.Type(nil), params...),
		ret:    ret,
		repr:   repr,
	})
}

func (cx *Context) TypeKind(ty codegen.Type) codegen.TypeKind {
	return cx.typ(ty).kind
}

func (cx *Context) IntWidth(ty codegen.Type) uint64 {
	e := cx.typ(ty)
	if e.kind != codegen.TypeKindInteger {
		session.Bug("llvm: int_width of %s", e.repr)
	}
	return e.width
}

func (cx *Context) ElementType(ty codegen.Type) codegen.Type {
	e := cx.typ(ty)
	if e.kind != codegen.TypeKindVector {
		session.Bug("llvm: element_type of %s", e.repr)
	}
	return e.elem
}

func (cx *Context) VectorLength(ty codegen.Type) uint64 {
	e := cx.typ(ty)
	if e.kind != codegen.TypeKindVector {
		session.Bug("llvm: vector_length of %s", e.repr)
	}
	return e.lanes
}

// TypeString returns the LLVM spelling of ty.
func (cx *Context) TypeString(ty codegen.Type) string {
	return cx.typ(ty).repr
}

// FuncSig returns the parameter and result types of a function type.
func (cx *Context) FuncSig(ty codegen.Type) (params []codegen.Type, ret codegen.Type) {
	e := cx.typ(ty)
	if e.kind != codegen.TypeKindFunction {
		session.Bug("llvm: %s is not a function type", e.repr)
	}
	return e.params, e.ret
}
