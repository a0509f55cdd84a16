package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"cgbridge/internal/source"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Unit TypeID
	Bool TypeID
	Char TypeID
	Str  TypeID
	I8   TypeID
	I16  TypeID
	I32  TypeID
	I64  TypeID
	I128 TypeID
	U8   TypeID
	U16  TypeID
	U32  TypeID
	U64  TypeID
	U128 TypeID
	F32  TypeID
	F64  TypeID
}

// StructField describes a single field inside a nominal struct type.
type StructField struct {
	Name string
	Type TypeID
}

// StructInfo stores metadata for a struct type.
type StructInfo struct {
	Name    string
	Decl    source.Span
	Fields  []StructField
	HasDrop bool // user-defined destructor
}

// OpaqueInfo stores an abstract type together with the type it hides.
type OpaqueInfo struct {
	Name   string
	Hidden TypeID
}

// ParamInfo names a generic parameter.
type ParamInfo struct {
	Name  string
	Index uint32
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types      []Type
	index      map[Type]TypeID
	tupleIndex map[string]TypeID
	builtins   Builtins
	structs    []StructInfo
	opaques    []OpaqueInfo
	params     []ParamInfo
	tuples     [][]TypeID
	traits     []string
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:      make(map[Type]TypeID, 64),
		tupleIndex: make(map[string]TypeID, 8),
	}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0 as NoTypeID
	in.structs = append(in.structs, StructInfo{})
	in.opaques = append(in.opaques, OpaqueInfo{})
	in.params = append(in.params, ParamInfo{})
	in.tuples = append(in.tuples, nil)
	in.traits = append(in.traits, "")

	b := &in.builtins
	b.Unit = in.Intern(Type{Kind: KindUnit})
	b.Bool = in.Intern(Type{Kind: KindBool})
	b.Char = in.Intern(Type{Kind: KindChar})
	b.Str = in.Intern(Type{Kind: KindStr})
	b.I8 = in.Intern(MakeInt(Width8))
	b.I16 = in.Intern(MakeInt(Width16))
	b.I32 = in.Intern(MakeInt(Width32))
	b.I64 = in.Intern(MakeInt(Width64))
	b.I128 = in.Intern(MakeInt(Width128))
	b.U8 = in.Intern(MakeUint(Width8))
	b.U16 = in.Intern(MakeUint(Width16))
	b.U32 = in.Intern(MakeUint(Width32))
	b.U64 = in.Intern(MakeUint(Width64))
	b.U128 = in.Intern(MakeUint(Width128))
	b.F32 = in.Intern(MakeFloat(Width32))
	b.F64 = in.Intern(MakeFloat(Width64))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided structural descriptor has a stable TypeID.
// Nominal kinds (struct, opaque, param, tuple, dyn) go through their Register/Make helpers.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

func slotOf(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type table overflow: %w", err))
	}
	return slot
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup returns the descriptor or panics on an unknown id.
func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: unknown type id %d", id))
	}
	return t
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
func (in *Interner) RegisterStruct(name string, decl source.Span) TypeID {
	slot := slotOf(len(in.structs))
	in.structs = append(in.structs, StructInfo{Name: name, Decl: decl})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

// SetStructFields stores the resolved fields and destructor flag of a struct.
func (in *Interner) SetStructFields(id TypeID, fields []StructField, hasDrop bool) {
	info := in.structInfo(id)
	if info == nil {
		return
	}
	info.Fields = append([]StructField(nil), fields...)
	info.HasDrop = hasDrop
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(id TypeID) (*StructInfo, bool) {
	info := in.structInfo(id)
	return info, info != nil
}

func (in *Interner) structInfo(id TypeID) *StructInfo {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindStruct || t.Payload == 0 || int(t.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[t.Payload]
}

// RegisterOpaque allocates an abstract type hiding `hidden`.
func (in *Interner) RegisterOpaque(name string, hidden TypeID) TypeID {
	slot := slotOf(len(in.opaques))
	in.opaques = append(in.opaques, OpaqueInfo{Name: name, Hidden: hidden})
	return in.internRaw(Type{Kind: KindOpaque, Payload: slot})
}

// OpaqueInfo returns the metadata of an opaque type.
func (in *Interner) OpaqueInfo(id TypeID) (OpaqueInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindOpaque || int(t.Payload) >= len(in.opaques) {
		return OpaqueInfo{}, false
	}
	return in.opaques[t.Payload], true
}

// Param returns the TypeID of the generic parameter with the given name.
func (in *Interner) Param(name string) TypeID {
	for slot := 1; slot < len(in.params); slot++ {
		if in.params[slot].Name == name {
			return in.Intern(Type{Kind: KindParam, Payload: slotOf(slot)})
		}
	}
	slot := slotOf(len(in.params))
	in.params = append(in.params, ParamInfo{Name: name, Index: slot - 1})
	return in.Intern(Type{Kind: KindParam, Payload: slot})
}

// ParamInfo returns the metadata of a generic parameter.
func (in *Interner) ParamInfo(id TypeID) (ParamInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindParam || int(t.Payload) >= len(in.params) {
		return ParamInfo{}, false
	}
	return in.params[t.Payload], true
}

// Tuple interns the tuple of the given element types.
func (in *Interner) Tuple(elems ...TypeID) TypeID {
	if len(elems) == 0 {
		return in.builtins.Unit
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = fmt.Sprint(uint32(e))
	}
	key := strings.Join(parts, ",")
	if id, ok := in.tupleIndex[key]; ok {
		return id
	}
	slot := slotOf(len(in.tuples))
	in.tuples = append(in.tuples, append([]TypeID(nil), elems...))
	id := in.internRaw(Type{Kind: KindTuple, Payload: slot})
	in.tupleIndex[key] = id
	return id
}

// TupleElems returns the element types of a tuple.
func (in *Interner) TupleElems(id TypeID) []TypeID {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTuple || int(t.Payload) >= len(in.tuples) {
		return nil
	}
	return in.tuples[t.Payload]
}

// Dyn interns a trait object type for the named trait.
func (in *Interner) Dyn(trait string) TypeID {
	for slot := 1; slot < len(in.traits); slot++ {
		if in.traits[slot] == trait {
			return in.Intern(Type{Kind: KindDyn, Payload: slotOf(slot)})
		}
	}
	slot := slotOf(len(in.traits))
	in.traits = append(in.traits, trait)
	return in.Intern(Type{Kind: KindDyn, Payload: slot})
}

// Fn interns the (erased) function type.
func (in *Interner) Fn() TypeID {
	return in.Intern(Type{Kind: KindFn})
}

// IsSigned reports whether id is a signed integer or a vector of signed integers.
func (in *Interner) IsSigned(id TypeID) bool {
	t, ok := in.Lookup(id)
	if !ok {
		return false
	}
	if t.Kind == KindVector {
		return in.IsSigned(t.Elem)
	}
	return t.Kind == KindInt
}

// Name renders a type for diagnostics, e.g. "i32", "<4 x u8>", "box<Node>".
func (in *Interner) Name(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindUnit:
		return "()"
	case KindBool, KindChar, KindStr:
		return t.Kind.String()
	case KindInt:
		return fmt.Sprintf("i%d", t.Width)
	case KindUint:
		return fmt.Sprintf("u%d", t.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", t.Width)
	case KindArray:
		return fmt.Sprintf("[%s; %d]", in.Name(t.Elem), t.Count)
	case KindSlice:
		return fmt.Sprintf("[%s]", in.Name(t.Elem))
	case KindVector:
		return fmt.Sprintf("<%d x %s>", t.Count, in.Name(t.Elem))
	case KindPointer:
		if t.Mutable {
			return "*mut " + in.Name(t.Elem)
		}
		return "*const " + in.Name(t.Elem)
	case KindReference:
		if t.Mutable {
			return "&mut " + in.Name(t.Elem)
		}
		return "&" + in.Name(t.Elem)
	case KindBox:
		return "box<" + in.Name(t.Elem) + ">"
	case KindCell:
		return "cell<" + in.Name(t.Elem) + ">"
	case KindTuple:
		elems := in.TupleElems(id)
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = in.Name(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindStruct:
		if info, ok := in.StructInfo(id); ok {
			return info.Name
		}
	case KindOpaque:
		if info, ok := in.OpaqueInfo(id); ok {
			return "opaque " + info.Name
		}
	case KindParam:
		if info, ok := in.ParamInfo(id); ok {
			return info.Name
		}
	case KindDyn:
		if int(t.Payload) < len(in.traits) {
			return "dyn " + in.traits[t.Payload]
		}
	case KindFn:
		return "fn"
	}
	return t.Kind.String()
}
