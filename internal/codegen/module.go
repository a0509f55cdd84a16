package codegen

import "cgbridge/internal/incr"

// ModuleKind tells what a per-unit output module holds.
type ModuleKind uint8

const (
	ModuleRegular ModuleKind = iota
	ModuleMetadata
	ModuleAllocator
)

var moduleKindNames = [...]string{
	ModuleRegular:   "regular",
	ModuleMetadata:  "metadata",
	ModuleAllocator: "allocator",
}

func (k ModuleKind) String() string {
	if int(k) < len(moduleKindNames) {
		return moduleKindNames[k]
	}
	return "regular"
}

// ModuleKindFromName parses a kind as written in a unit description.
func ModuleKindFromName(name string) (ModuleKind, bool) {
	for i, n := range moduleKindNames {
		if n == name {
			return ModuleKind(i), true
		}
	}
	return ModuleRegular, false
}

// ModuleCodegen is the output of one compilation unit.
type ModuleCodegen[M any] struct {
	Name   string
	Kind   ModuleKind
	Module M
}

// HashStable does nothing. A codegen unit is an output node of the
// incremental graph: nothing downstream is cached on its contents, so its
// fingerprint is never needed. Revisit if units ever become query inputs.
func (*ModuleCodegen[M]) HashStable(*incr.StableHasher) {}

var _ incr.HashStable = (*ModuleCodegen[string])(nil)
