package mir

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"cgbridge/internal/types"
)

// Scope resolves nominal type names (structs, opaque types, generic params).
type Scope map[string]types.TypeID

var primitiveNames = map[string]func(b types.Builtins) types.TypeID{
	"()":   func(b types.Builtins) types.TypeID { return b.Unit },
	"bool": func(b types.Builtins) types.TypeID { return b.Bool },
	"char": func(b types.Builtins) types.TypeID { return b.Char },
	"str":  func(b types.Builtins) types.TypeID { return b.Str },
	"i8":   func(b types.Builtins) types.TypeID { return b.I8 },
	"i16":  func(b types.Builtins) types.TypeID { return b.I16 },
	"i32":  func(b types.Builtins) types.TypeID { return b.I32 },
	"i64":  func(b types.Builtins) types.TypeID { return b.I64 },
	"i128": func(b types.Builtins) types.TypeID { return b.I128 },
	"u8":   func(b types.Builtins) types.TypeID { return b.U8 },
	"u16":  func(b types.Builtins) types.TypeID { return b.U16 },
	"u32":  func(b types.Builtins) types.TypeID { return b.U32 },
	"u64":  func(b types.Builtins) types.TypeID { return b.U64 },
	"u128": func(b types.Builtins) types.TypeID { return b.U128 },
	"f32":  func(b types.Builtins) types.TypeID { return b.F32 },
	"f64":  func(b types.Builtins) types.TypeID { return b.F64 },
}

// ParseType parses a type name such as "i32", "<4 x u32>", "box<Node>",
// "&mut cell<i32>", "[u8; 16]", "(i8, bool)" or "dyn Any".
func ParseType(in *types.Interner, scope Scope, name string) (types.TypeID, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return types.NoTypeID, fmt.Errorf("empty type")
	}
	if mk, ok := primitiveNames[s]; ok {
		return mk(in.Builtins()), nil
	}
	switch {
	case strings.HasPrefix(s, "&mut "):
		elem, err := ParseType(in, scope, s[len("&mut "):])
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeReference(elem, true)), nil
	case strings.HasPrefix(s, "&"):
		elem, err := ParseType(in, scope, s[1:])
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeReference(elem, false)), nil
	case strings.HasPrefix(s, "*mut "), strings.HasPrefix(s, "*const "):
		mutable := strings.HasPrefix(s, "*mut ")
		rest := strings.TrimPrefix(strings.TrimPrefix(s, "*mut "), "*const ")
		elem, err := ParseType(in, scope, rest)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakePointer(elem, mutable)), nil
	case strings.HasPrefix(s, "dyn "):
		trait := strings.TrimSpace(s[len("dyn "):])
		if trait == "" {
			return types.NoTypeID, fmt.Errorf("missing trait in %q", s)
		}
		return in.Dyn(trait), nil
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return parseVector(in, scope, s)
	case strings.HasPrefix(s, "box<") && strings.HasSuffix(s, ">"):
		elem, err := ParseType(in, scope, s[len("box<"):len(s)-1])
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeBox(elem)), nil
	case strings.HasPrefix(s, "cell<") && strings.HasSuffix(s, ">"):
		elem, err := ParseType(in, scope, s[len("cell<"):len(s)-1])
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeCell(elem)), nil
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		return parseArray(in, scope, s[1:len(s)-1])
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		parts := splitTop(s[1 : len(s)-1])
		elems := make([]types.TypeID, 0, len(parts))
		for _, p := range parts {
			ty, err := ParseType(in, scope, p)
			if err != nil {
				return types.NoTypeID, err
			}
			elems = append(elems, ty)
		}
		return in.Tuple(elems...), nil
	}
	if ty, ok := scope[s]; ok {
		return ty, nil
	}
	return types.NoTypeID, fmt.Errorf("unknown type %q", s)
}

func parseVector(in *types.Interner, scope Scope, s string) (types.TypeID, error) {
	body := strings.TrimSpace(s[1 : len(s)-1])
	count, elemName, ok := strings.Cut(body, " x ")
	if !ok {
		return types.NoTypeID, fmt.Errorf("malformed vector type %q", s)
	}
	lanes, err := parseCount(count)
	if err != nil || lanes == 0 {
		return types.NoTypeID, fmt.Errorf("bad lane count in %q", s)
	}
	elem, err := ParseType(in, scope, elemName)
	if err != nil {
		return types.NoTypeID, err
	}
	if t := in.MustLookup(elem); !t.IsInteger() && t.Kind != types.KindFloat && t.Kind != types.KindBool {
		return types.NoTypeID, fmt.Errorf("vector of %s", in.Name(elem))
	}
	return in.Intern(types.MakeVector(elem, lanes)), nil
}

func parseArray(in *types.Interner, scope Scope, body string) (types.TypeID, error) {
	semi := strings.LastIndex(body, ";")
	if semi < 0 {
		elem, err := ParseType(in, scope, body)
		if err != nil {
			return types.NoTypeID, err
		}
		return in.Intern(types.MakeSlice(elem)), nil
	}
	elem, err := ParseType(in, scope, body[:semi])
	if err != nil {
		return types.NoTypeID, err
	}
	count := body[semi+1:]
	n, err := parseCount(count)
	if err != nil {
		return types.NoTypeID, fmt.Errorf("bad array length %q: %w", strings.TrimSpace(count), err)
	}
	return in.Intern(types.MakeArray(elem, n)), nil
}

func parseCount(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Conv[uint32](n)
}

// splitTop splits on commas that are not nested in <>, [] or ().
func splitTop(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}
