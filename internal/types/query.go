package types

import (
	"slices"
	"strings"
)

// Reveal selects how abstract (opaque) types are treated by queries.
type Reveal uint8

const (
	// RevealUserFacing keeps opaque types abstract and answers conservatively.
	RevealUserFacing Reveal = iota
	// RevealAll resolves every opaque type to the type it hides.
	RevealAll
)

func (r Reveal) String() string {
	if r == RevealAll {
		return "all"
	}
	return "user-facing"
}

// Bound is a fact known about a generic parameter in some environment.
type Bound uint8

const (
	// BoundUnsized relaxes the implicit Sized bound (?Sized).
	BoundUnsized Bound = 1 << iota
	// BoundCopy guarantees the parameter has no destructor.
	BoundCopy
	// BoundFreeze guarantees the parameter has no interior mutability.
	BoundFreeze
)

// ParamEnv is the environment type queries are evaluated in.
type ParamEnv struct {
	Reveal Reveal
	Bounds map[string]Bound // param name -> bounds
}

// RevealAllEnv is the environment used by code generation: no bounds, every
// abstraction resolved.
func RevealAllEnv() ParamEnv {
	return ParamEnv{Reveal: RevealAll}
}

// WithReveal returns a copy of env evaluated under r.
func (env ParamEnv) WithReveal(r Reveal) ParamEnv {
	env.Reveal = r
	return env
}

func (env ParamEnv) has(param string, b Bound) bool {
	return env.Bounds[param]&b != 0
}

func (env ParamEnv) key() string {
	if len(env.Bounds) == 0 {
		return env.Reveal.String()
	}
	names := make([]string, 0, len(env.Bounds))
	for name := range env.Bounds {
		names = append(names, name)
	}
	slices.Sort(names)
	var sb strings.Builder
	sb.WriteString(env.Reveal.String())
	for _, name := range names {
		sb.WriteByte('|')
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteByte(byte('0' + env.Bounds[name]))
	}
	return sb.String()
}

type queryKind uint8

const (
	queryNeedsDrop queryKind = iota
	querySized
	queryFreeze
)

type queryKey struct {
	kind queryKind
	ty   TypeID
	env  string
}

// Querier answers type-system questions for one compilation unit.
// Answers are memoised, so repeated queries are cheap and stable. A Querier is
// not safe for concurrent use; every unit owns its own.
type Querier struct {
	in       *Interner
	cache    map[queryKey]bool
	inflight map[queryKey]struct{}
}

// NewQuerier creates a query engine over the interner.
func NewQuerier(in *Interner) *Querier {
	return &Querier{
		in:       in,
		cache:    make(map[queryKey]bool, 64),
		inflight: make(map[queryKey]struct{}),
	}
}

// Interner returns the type table the querier reads from.
func (q *Querier) Interner() *Interner {
	return q.in
}

// NeedsDrop reports whether values of ty need cleanup when they go out of scope.
func (q *Querier) NeedsDrop(ty TypeID, env ParamEnv) bool {
	return q.eval(queryNeedsDrop, ty, env, env.key())
}

// IsSized reports whether ty has a statically known size.
func (q *Querier) IsSized(ty TypeID, env ParamEnv) bool {
	return q.eval(querySized, ty, env, env.key())
}

// IsFreeze reports whether ty has no interior-mutable substructure.
func (q *Querier) IsFreeze(ty TypeID, env ParamEnv) bool {
	return q.eval(queryFreeze, ty, env, env.key())
}

func (q *Querier) eval(kind queryKind, ty TypeID, env ParamEnv, envKey string) bool {
	key := queryKey{kind: kind, ty: ty, env: envKey}
	if v, ok := q.cache[key]; ok {
		return v
	}
	if _, ok := q.inflight[key]; ok {
		// Recursive nominal type: the cycle itself adds nothing.
		return cycleAnswer(kind)
	}
	q.inflight[key] = struct{}{}
	v := q.compute(kind, ty, env, envKey)
	delete(q.inflight, key)
	q.cache[key] = v
	return v
}

func cycleAnswer(kind queryKind) bool {
	switch kind {
	case queryNeedsDrop:
		return false
	default:
		return true
	}
}

func (q *Querier) compute(kind queryKind, ty TypeID, env ParamEnv, envKey string) bool {
	t, ok := q.in.Lookup(ty)
	if !ok {
		return kind != queryNeedsDrop
	}
	switch kind {
	case queryNeedsDrop:
		return q.needsDrop(t, ty, env, envKey)
	case querySized:
		return q.sized(t, ty, env, envKey)
	default:
		return q.freeze(t, ty, env, envKey)
	}
}

func (q *Querier) needsDrop(t Type, ty TypeID, env ParamEnv, envKey string) bool {
	switch t.Kind {
	case KindBox, KindDyn:
		return true
	case KindArray:
		return t.Count > 0 && q.eval(queryNeedsDrop, t.Elem, env, envKey)
	case KindSlice, KindCell:
		return q.eval(queryNeedsDrop, t.Elem, env, envKey)
	case KindTuple:
		for _, e := range q.in.TupleElems(ty) {
			if q.eval(queryNeedsDrop, e, env, envKey) {
				return true
			}
		}
		return false
	case KindStruct:
		info, _ := q.in.StructInfo(ty)
		if info == nil {
			return false
		}
		if info.HasDrop {
			return true
		}
		for _, f := range info.Fields {
			if q.eval(queryNeedsDrop, f.Type, env, envKey) {
				return true
			}
		}
		return false
	case KindOpaque:
		if hidden, ok := q.reveal(ty, env); ok {
			return q.eval(queryNeedsDrop, hidden, env, envKey)
		}
		return true
	case KindParam:
		info, _ := q.in.ParamInfo(ty)
		return !env.has(info.Name, BoundCopy)
	default:
		return false
	}
}

func (q *Querier) sized(t Type, ty TypeID, env ParamEnv, envKey string) bool {
	switch t.Kind {
	case KindStr, KindSlice, KindDyn:
		return false
	case KindCell:
		return q.eval(querySized, t.Elem, env, envKey)
	case KindTuple:
		elems := q.in.TupleElems(ty)
		return len(elems) == 0 || q.eval(querySized, elems[len(elems)-1], env, envKey)
	case KindStruct:
		info, _ := q.in.StructInfo(ty)
		if info == nil || len(info.Fields) == 0 {
			return true
		}
		return q.eval(querySized, info.Fields[len(info.Fields)-1].Type, env, envKey)
	case KindOpaque:
		if hidden, ok := q.reveal(ty, env); ok {
			return q.eval(querySized, hidden, env, envKey)
		}
		return true
	case KindParam:
		info, _ := q.in.ParamInfo(ty)
		return !env.has(info.Name, BoundUnsized)
	default:
		return true
	}
}

func (q *Querier) freeze(t Type, ty TypeID, env ParamEnv, envKey string) bool {
	switch t.Kind {
	case KindCell, KindDyn:
		return false
	case KindArray, KindSlice, KindVector:
		return q.eval(queryFreeze, t.Elem, env, envKey)
	case KindTuple:
		for _, e := range q.in.TupleElems(ty) {
			if !q.eval(queryFreeze, e, env, envKey) {
				return false
			}
		}
		return true
	case KindStruct:
		info, _ := q.in.StructInfo(ty)
		if info == nil {
			return true
		}
		for _, f := range info.Fields {
			if !q.eval(queryFreeze, f.Type, env, envKey) {
				return false
			}
		}
		return true
	case KindOpaque:
		if hidden, ok := q.reveal(ty, env); ok {
			return q.eval(queryFreeze, hidden, env, envKey)
		}
		return false
	case KindParam:
		info, _ := q.in.ParamInfo(ty)
		return env.has(info.Name, BoundFreeze)
	default:
		// Pointers, references and boxes do not hold their pointee inline.
		return true
	}
}

func (q *Querier) reveal(ty TypeID, env ParamEnv) (TypeID, bool) {
	if env.Reveal != RevealAll {
		return NoTypeID, false
	}
	info, ok := q.in.OpaqueInfo(ty)
	if !ok || info.Hidden == NoTypeID {
		return NoTypeID, false
	}
	return info.Hidden, true
}
