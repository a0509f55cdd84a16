package mir

import (
	"cgbridge/internal/codegen"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

type LocalID int32

const NoLocalID LocalID = -1

type Local struct {
	Name string
	Type types.TypeID
	Span source.Span
}

// Unit is one compilation unit: the functions that end up in one output module.
type Unit struct {
	Name  string
	Path  string // description file, "" for units built in memory
	Kind  codegen.ModuleKind
	Funcs []*Func
}

type Func struct {
	Name string
	Span source.Span

	Params []LocalID
	Locals []Local
	Instrs []Instr

	// Result is the local returned at the end of the body, NoLocalID for unit.
	Result LocalID
}

// Local returns the local with the given id or nil.
func (f *Func) Local(id LocalID) *Local {
	if f == nil || id < 0 || int(id) >= len(f.Locals) {
		return nil
	}
	return &f.Locals[id]
}

// LocalByName looks a local up by name.
func (f *Func) LocalByName(name string) (LocalID, bool) {
	for i := range f.Locals {
		if f.Locals[i].Name == name {
			return LocalID(i), true //nolint:gosec // bounded by len(Locals)
		}
	}
	return NoLocalID, false
}

// IsParam reports whether id is a parameter of f.
func (f *Func) IsParam(id LocalID) bool {
	for _, p := range f.Params {
		if p == id {
			return true
		}
	}
	return false
}
