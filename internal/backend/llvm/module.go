// Package llvm is a code generation backend that renders textual LLVM IR.
package llvm

import (
	"fmt"
	"strings"

	"cgbridge/internal/codegen"
	"cgbridge/internal/session"
)

const defaultTarget = "x86_64-linux-gnu"

type function struct {
	name    string
	ty      codegen.Type
	value   codegen.Value
	params  []codegen.Value
	blocks  []*block
	defined bool
	labels  map[string]int
}

type block struct {
	label      string
	buf        strings.Builder
	terminated bool
}

// Module is the IR of one compilation unit.
type Module struct {
	Name   string
	Target string

	cx     *Context
	funcs  []*function
	byName map[string]*function
}

// Backend builds a Module. It implements codegen.Backend[*Module].
type Backend struct {
	mod *Module
}

var _ codegen.Backend[*Module] = (*Backend)(nil)

// NewBackend starts an empty module. An empty target selects x86_64-linux-gnu.
func NewBackend(name, target string) *Backend {
	if target == "" {
		target = defaultTarget
	}
	return &Backend{mod: &Module{
		Name:   name,
		Target: target,
		cx:     newContext(),
		byName: make(map[string]*function),
	}}
}

func (be *Backend) Cx() codegen.CodegenMethods { return be.mod.cx }

// Context exposes the concrete context (spellings, folded constants).
func (be *Backend) Context() *Context { return be.mod.cx }

func (be *Backend) Module() *Module { return be.mod }

// DeclareFn returns the function called name. Redeclaring with another type is a bug.
func (be *Backend) DeclareFn(name string, fnTy codegen.Type) codegen.Value {
	cx := be.mod.cx
	if f, ok := be.mod.byName[name]; ok {
		if f.ty != fnTy {
			session.Bug("llvm: @%s redeclared as %s (was %s)", name, cx.TypeString(fnTy), cx.TypeString(f.ty))
		}
		return f.value
	}
	params, _ := cx.FuncSig(fnTy)
	f := &function{
		name:   name,
		ty:     fnTy,
		labels: make(map[string]int),
	}
	f.value = cx.newValue(valueEntry{ty: cx.TypePtr(), repr: "@" + quoteName(name)})
	for i, p := range params {
		f.params = append(f.params, cx.newValue(valueEntry{ty: p, repr: fmt.Sprintf("%%p%d", i)}))
	}
	be.mod.funcs = append(be.mod.funcs, f)
	be.mod.byName[name] = f
	return f.value
}

// Define starts the body of a declared function.
func (be *Backend) Define(fn codegen.Value) codegen.BuilderMethods {
	f := be.mod.funcByValue(fn)
	if f.defined {
		session.Bug("llvm: @%s defined twice", f.name)
	}
	f.defined = true
	return &Builder{cx: be.mod.cx, fn: f}
}

func (m *Module) funcByValue(v codegen.Value) *function {
	for _, f := range m.funcs {
		if f.value == v {
			return f
		}
	}
	session.Bug("llvm: value %d is not a function", v)
	return nil
}

// FuncNames lists functions in declaration order.
func (m *Module) FuncNames() []string {
	out := make([]string, len(m.funcs))
	for i, f := range m.funcs {
		out[i] = f.name
	}
	return out
}

// Defined reports how many functions have a body.
func (m *Module) Defined() int {
	n := 0
	for _, f := range m.funcs {
		if f.defined {
			n++
		}
	}
	return n
}

// String renders the module: header, declarations, then definitions.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; ModuleID = '%s'\n", m.Name)
	fmt.Fprintf(&sb, "target triple = %q\n\n", m.Target)

	decls := 0
	for _, f := range m.funcs {
		if f.defined {
			continue
		}
		params, ret := m.cx.FuncSig(f.ty)
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = m.cx.TypeString(p)
		}
		fmt.Fprintf(&sb, "declare %s @%s(%s)\n", m.cx.TypeString(ret), quoteName(f.name), strings.Join(parts, ", "))
		decls++
	}
	if decls > 0 {
		sb.WriteString("\n")
	}
	for _, f := range m.funcs {
		if !f.defined {
			continue
		}
		_, ret := m.cx.FuncSig(f.ty)
		parts := make([]string, len(f.params))
		for i, p := range f.params {
			parts[i] = m.cx.operand(p)
		}
		fmt.Fprintf(&sb, "define %s @%s(%s) {\n", m.cx.TypeString(ret), quoteName(f.name), strings.Join(parts, ", "))
		for i, b := range f.blocks {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(b.label)
			sb.WriteString(":\n")
			sb.WriteString(b.buf.String())
		}
		sb.WriteString("}\n\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// quoteName quotes symbol names LLVM would not accept bare (e.g. "core::ptr").
func quoteName(name string) string {
	for _, r := range name {
		if !(r == '_' || r == '.' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Sprintf("%q", name)
		}
	}
	return name
}
