package mir

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"cgbridge/internal/codegen"
	"cgbridge/internal/diag"
	"cgbridge/internal/source"
	"cgbridge/internal/types"
)

// ErrInvalidUnit is returned when a unit description has errors; the
// details have been reported as diagnostics.
var ErrInvalidUnit = errors.New("invalid unit description")

type unitFile struct {
	Unit struct {
		Name string `toml:"name"`
		Kind string `toml:"kind"`
	} `toml:"unit"`
	Structs []structDecl `toml:"struct"`
	Opaques []opaqueDecl `toml:"opaque"`
	Funcs   []funcDecl   `toml:"func"`
}

type structDecl struct {
	Name   string   `toml:"name"`
	Fields []string `toml:"fields"` // "name: type"
	Drop   bool     `toml:"drop"`
}

type opaqueDecl struct {
	Name   string `toml:"name"`
	Hidden string `toml:"hidden"`
}

type funcDecl struct {
	Name   string   `toml:"name"`
	Params []string `toml:"params"` // "name: type"
	Locals []string `toml:"locals"` // "name: type"
	Body   []string `toml:"body"`
	Result string   `toml:"result"`
}

// LoadUnit reads a unit description:
//
//	[unit]
//	name = "shifts"
//
//	[[func]]
//	name = "shl32"
//	params = ["a: i32", "b: i32"]
//	locals = ["r: i32"]
//	body = ["r = a << b"]
//	result = "r"
//
// Problems inside the description are reported to r with source spans.
func LoadUnit(path string, in *types.Interner, fs *source.FileSet, r diag.Reporter) (*Unit, error) {
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit %s: %w", path, err)
	}
	u, err := parseUnit(fs.Get(fileID), in, r)
	if u != nil {
		u.Path = path
	}
	return u, err
}

// ParseUnit is LoadUnit for in-memory descriptions.
func ParseUnit(name string, data []byte, in *types.Interner, fs *source.FileSet, r diag.Reporter) (*Unit, error) {
	return parseUnit(fs.Get(fs.AddVirtual(name, data)), in, r)
}

// ParseFile decodes a description that is already part of a file set.
// Parallel builds load every file up front and parse them concurrently,
// each with its own interner.
func ParseFile(file *source.File, in *types.Interner, r diag.Reporter) (*Unit, error) {
	u, err := parseUnit(file, in, r)
	if u != nil {
		u.Path = file.Path
	}
	return u, err
}

func parseUnit(file *source.File, in *types.Interner, r diag.Reporter) (*Unit, error) {
	var cfg unitFile
	meta, err := toml.Decode(string(file.Content), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", file.Path, err)
	}
	p := &unitParser{
		in:    in,
		file:  file,
		loc:   locator{file: file.ID, text: string(file.Content)},
		r:     r,
		scope: make(Scope),
	}
	if !meta.IsDefined("unit", "name") || strings.TrimSpace(cfg.Unit.Name) == "" {
		p.errorf(diag.ProjBadUnit, p.loc.find("[unit]"), "missing [unit].name")
	}
	u := &Unit{Name: strings.TrimSpace(cfg.Unit.Name)}
	if meta.IsDefined("unit", "kind") {
		kind, ok := codegen.ModuleKindFromName(strings.TrimSpace(cfg.Unit.Kind))
		if !ok {
			p.errorf(diag.ProjBadUnit, p.loc.find(strconv.Quote(cfg.Unit.Kind)),
				fmt.Sprintf("unknown unit kind %q (want regular, metadata or allocator)", cfg.Unit.Kind))
		}
		u.Kind = kind
	}

	p.declareTypes(cfg.Structs, cfg.Opaques)
	seen := make(map[string]bool, len(cfg.Funcs))
	for i := range cfg.Funcs {
		fd := &cfg.Funcs[i]
		sp := p.loc.find(strconv.Quote(fd.Name))
		if seen[fd.Name] {
			p.errorf(diag.CgDuplicateFunc, sp, fmt.Sprintf("function %q defined twice", fd.Name))
			continue
		}
		seen[fd.Name] = true
		if f := p.parseFunc(fd, sp); f != nil {
			u.Funcs = append(u.Funcs, f)
		}
	}
	if p.failed {
		return u, fmt.Errorf("%s: %w", file.Path, ErrInvalidUnit)
	}
	if err := Validate(u, in); err != nil {
		reportValidation(r, err)
		return u, fmt.Errorf("%s: %w", file.Path, ErrInvalidUnit)
	}
	return u, nil
}

type unitParser struct {
	in     *types.Interner
	file   *source.File
	loc    locator
	r      diag.Reporter
	scope  Scope
	failed bool
}

func (p *unitParser) errorf(code diag.Code, sp source.Span, msg string) {
	p.failed = true
	diag.ReportError(p.r, code, diag.Diagnostic{Primary: sp, Message: msg}).Emit()
}

func (p *unitParser) parseType(name string, sp source.Span) types.TypeID {
	ty, err := ParseType(p.in, p.scope, name)
	if err != nil {
		p.errorf(diag.CgUnsupportedType, sp, err.Error())
		return types.NoTypeID
	}
	return ty
}

// declareTypes registers every nominal name first so declarations may refer
// to each other (and to themselves through pointers).
func (p *unitParser) declareTypes(structs []structDecl, opaques []opaqueDecl) {
	for _, sd := range structs {
		sp := p.loc.find(strconv.Quote(sd.Name))
		if _, dup := p.scope[sd.Name]; dup {
			p.errorf(diag.ProjBadUnit, sp, fmt.Sprintf("type %q declared twice", sd.Name))
			continue
		}
		p.scope[sd.Name] = p.in.RegisterStruct(sd.Name, sp)
	}
	// opaque types need their hidden type up front; they may not be recursive
	for _, od := range opaques {
		sp := p.loc.find(strconv.Quote(od.Name))
		if _, dup := p.scope[od.Name]; dup {
			p.errorf(diag.ProjBadUnit, sp, fmt.Sprintf("type %q declared twice", od.Name))
			continue
		}
		hidden := p.parseType(od.Hidden, sp)
		if hidden == types.NoTypeID {
			continue
		}
		p.scope[od.Name] = p.in.RegisterOpaque(od.Name, hidden)
	}
	for _, sd := range structs {
		id, ok := p.scope[sd.Name]
		if !ok {
			continue
		}
		fields := make([]types.StructField, 0, len(sd.Fields))
		for _, raw := range sd.Fields {
			name, tyName, sp, ok := p.splitDecl(raw)
			if !ok {
				continue
			}
			if ty := p.parseType(tyName, sp); ty != types.NoTypeID {
				fields = append(fields, types.StructField{Name: name, Type: ty})
			}
		}
		p.in.SetStructFields(id, fields, sd.Drop)
	}
}

// splitDecl splits "name: type".
func (p *unitParser) splitDecl(raw string) (name, ty string, sp source.Span, ok bool) {
	sp = p.loc.find(strconv.Quote(raw))
	name, ty, ok = strings.Cut(raw, ":")
	name, ty = strings.TrimSpace(name), strings.TrimSpace(ty)
	if !ok || name == "" || ty == "" {
		p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("expected `name: type`, got %q", raw))
		return "", "", sp, false
	}
	return name, ty, sp, true
}

func (p *unitParser) parseFunc(fd *funcDecl, sp source.Span) *Func {
	f := &Func{Name: fd.Name, Span: sp, Result: NoLocalID}
	addLocal := func(raw string) (LocalID, bool) {
		name, tyName, lsp, ok := p.splitDecl(raw)
		if !ok {
			return NoLocalID, false
		}
		if _, dup := f.LocalByName(name); dup {
			p.errorf(diag.CgBadOperand, lsp, fmt.Sprintf("local %q declared twice in %s", name, fd.Name))
			return NoLocalID, false
		}
		ty := p.parseType(tyName, lsp)
		if ty == types.NoTypeID {
			return NoLocalID, false
		}
		f.Locals = append(f.Locals, Local{Name: name, Type: ty, Span: lsp})
		return LocalID(len(f.Locals) - 1), true //nolint:gosec // bounded by len(Locals)
	}
	for _, raw := range fd.Params {
		if id, ok := addLocal(raw); ok {
			f.Params = append(f.Params, id)
		}
	}
	for _, raw := range fd.Locals {
		addLocal(raw)
	}
	for _, stmt := range fd.Body {
		ssp := p.loc.find(strconv.Quote(stmt))
		// point at the statement text, not its quotes
		if ssp.End > ssp.Start+1 {
			ssp.Start++
			ssp.End--
		}
		if ins, ok := p.parseStmt(f, stmt, ssp); ok {
			f.Instrs = append(f.Instrs, ins)
		}
	}
	if res := strings.TrimSpace(fd.Result); res != "" {
		id, ok := f.LocalByName(res)
		if !ok {
			p.errorf(diag.CgUnknownLocal, p.loc.find(strconv.Quote(fd.Result)), fmt.Sprintf("unknown result local %q", res))
		}
		f.Result = id
	}
	return f
}

func (p *unitParser) parseStmt(f *Func, stmt string, sp source.Span) (Instr, bool) {
	fields := strings.Fields(strings.ReplaceAll(stmt, ",", " "))
	if len(fields) == 0 {
		p.errorf(diag.CgBadOperand, sp, "empty statement")
		return Instr{}, false
	}
	switch fields[0] {
	case "drop":
		if len(fields) != 2 {
			break
		}
		id, ok := p.local(f, fields[1], sp)
		if !ok {
			return Instr{}, false
		}
		return Instr{Kind: InstrDrop, Span: sp, Drop: DropInstr{Local: id}}, true
	case "fence":
		if len(fields) < 2 || len(fields) > 3 {
			break
		}
		order, ok := codegen.AtomicOrderingFromName(fields[1])
		if !ok {
			p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("unknown ordering %q", fields[1]))
			return Instr{}, false
		}
		scope := codegen.ScopeCrossThread
		if len(fields) == 3 {
			switch fields[2] {
			case "singlethread":
				scope = codegen.ScopeSingleThread
			case "crossthread":
			default:
				p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("unknown scope %q", fields[2]))
				return Instr{}, false
			}
		}
		return Instr{Kind: InstrFence, Span: sp, Fence: FenceInstr{Order: order, Scope: scope}}, true
	}
	if len(fields) < 3 || fields[1] != "=" {
		p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("cannot parse statement %q", stmt))
		return Instr{}, false
	}
	dst, ok := p.local(f, fields[0], sp)
	if !ok {
		return Instr{}, false
	}
	dstTy := f.Locals[dst].Type
	rhs := fields[2:]
	switch {
	case rhs[0] == "atomic" && len(rhs) == 5:
		return p.parseAtomic(f, dst, rhs[1:], sp)
	case len(rhs) == 1:
		op, ok := p.operand(f, rhs[0], dstTy, sp)
		if !ok {
			return Instr{}, false
		}
		return Instr{Kind: InstrAssign, Span: sp, Assign: AssignInstr{Dst: dst, Src: RValue{Kind: RValueUse, Use: op}}}, true
	case len(rhs) == 3:
		bin, ok := BinOpFromString(rhs[1])
		if !ok {
			p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("unknown operator %q", rhs[1]))
			return Instr{}, false
		}
		left, right, ok := p.binaryOperands(f, bin, rhs[0], rhs[2], dstTy, sp)
		if !ok {
			return Instr{}, false
		}
		src := RValue{Kind: RValueBinaryOp, Binary: BinaryOp{Op: bin, Left: left, Right: right}}
		return Instr{Kind: InstrAssign, Span: sp, Assign: AssignInstr{Dst: dst, Src: src}}, true
	}
	p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("cannot parse statement %q", stmt))
	return Instr{}, false
}

// binaryOperands types untyped literals after the other operand, or after
// the destination when both are literals.
func (p *unitParser) binaryOperands(f *Func, op BinOp, l, r string, dstTy types.TypeID, sp source.Span) (left, right Operand, ok bool) {
	lTy, rTy := p.operandType(f, l), p.operandType(f, r)
	switch {
	case lTy == types.NoTypeID && rTy == types.NoTypeID:
		if op.IsComparison() {
			p.errorf(diag.CgBadOperand, sp, "comparison of two untyped literals")
			return Operand{}, Operand{}, false
		}
		lTy, rTy = dstTy, dstTy
	case lTy == types.NoTypeID:
		lTy = rTy
	case rTy == types.NoTypeID:
		rTy = lTy
	}
	left, okL := p.operand(f, l, lTy, sp)
	right, okR := p.operand(f, r, rTy, sp)
	return left, right, okL && okR
}

func (p *unitParser) parseAtomic(f *Func, dst LocalID, args []string, sp source.Span) (Instr, bool) {
	op, ok := codegen.AtomicRMWBinOpFromName(args[0])
	if !ok {
		p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("unknown atomic operation %q", args[0]))
		return Instr{}, false
	}
	ptr, ok := p.local(f, args[1], sp)
	if !ok {
		return Instr{}, false
	}
	elem, ok := AtomicTarget(p.in, f.Locals[ptr].Type)
	if !ok {
		p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("atomic operand %s is not a pointer", args[1]))
		return Instr{}, false
	}
	val, ok := p.operand(f, args[2], elem, sp)
	if !ok {
		return Instr{}, false
	}
	order, ok := codegen.AtomicOrderingFromName(args[3])
	if !ok {
		p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("unknown ordering %q", args[3]))
		return Instr{}, false
	}
	return Instr{Kind: InstrAtomicRMW, Span: sp, AtomicRMW: AtomicRMWInstr{
		Dst:   dst,
		Ptr:   ptr,
		Val:   val,
		Op:    op,
		Order: order,
	}}, true
}

func (p *unitParser) local(f *Func, name string, sp source.Span) (LocalID, bool) {
	id, ok := f.LocalByName(name)
	if !ok {
		p.errorf(diag.CgUnknownLocal, sp, fmt.Sprintf("unknown local %q in %s", name, f.Name))
	}
	return id, ok
}

// operandType is the type of a local or of an explicitly typed literal
// ("7:u8"); NoTypeID for untyped literals.
func (p *unitParser) operandType(f *Func, s string) types.TypeID {
	if lit, tyName, typed := strings.Cut(s, ":"); typed && isLiteral(lit) {
		ty, err := ParseType(p.in, p.scope, tyName)
		if err != nil {
			return types.NoTypeID
		}
		return ty
	}
	if isLiteral(s) {
		return types.NoTypeID
	}
	if id, ok := f.LocalByName(s); ok {
		return f.Locals[id].Type
	}
	return types.NoTypeID
}

func (p *unitParser) operand(f *Func, s string, want types.TypeID, sp source.Span) (Operand, bool) {
	lit, tyName, typed := strings.Cut(s, ":")
	if !isLiteral(lit) {
		id, ok := p.local(f, s, sp)
		if !ok {
			return Operand{}, false
		}
		return Copy(id, f.Locals[id].Type), true
	}
	ty := want
	if typed {
		if ty = p.parseType(tyName, sp); ty == types.NoTypeID {
			return Operand{}, false
		}
	}
	var v int64
	switch lit {
	case "true":
		v = 1
	case "false":
		v = 0
	default:
		n, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(lit, 0, 64)
			if uerr != nil {
				p.errorf(diag.CgBadOperand, sp, fmt.Sprintf("bad literal %q", lit))
				return Operand{}, false
			}
			n = int64(u) //nolint:gosec // reinterpreted bit pattern, truncated by the backend
		}
		v = n
	}
	return Const(ty, v), true
}

func isLiteral(s string) bool {
	if s == "true" || s == "false" {
		return true
	}
	if s == "" {
		return false
	}
	c := s[0]
	return c == '-' || c >= '0' && c <= '9'
}

// AtomicTarget returns the element an atomic operation through a value of
// type ptrTy works on: the pointee, seen through opaque types and cells.
func AtomicTarget(in *types.Interner, ptrTy types.TypeID) (types.TypeID, bool) {
	t, ok := in.Lookup(ptrTy)
	if !ok || t.Kind != types.KindPointer && t.Kind != types.KindReference {
		return types.NoTypeID, false
	}
	elem := t.Elem
	for {
		et, ok := in.Lookup(elem)
		if !ok {
			return types.NoTypeID, false
		}
		switch et.Kind {
		case types.KindCell:
			elem = et.Elem
		case types.KindOpaque:
			info, _ := in.OpaqueInfo(elem)
			elem = info.Hidden
		default:
			return elem, true
		}
	}
}

// locator finds the byte span of a snippet in the description text. Search
// continues from the previous hit so repeated snippets resolve in order.
type locator struct {
	file   source.FileID
	text   string
	cursor int
}

func (l *locator) find(snippet string) source.Span {
	idx := strings.Index(l.text[l.cursor:], snippet)
	if idx >= 0 {
		idx += l.cursor
	} else {
		idx = strings.Index(l.text, snippet)
	}
	if idx < 0 {
		return source.Span{File: l.file}
	}
	l.cursor = idx + len(snippet)
	start, end := uint32(idx), uint32(idx+len(snippet)) //nolint:gosec // description files are small
	return source.Span{File: l.file, Start: start, End: end}
}

func reportValidation(r diag.Reporter, err error) {
	var errs []*InstrError
	collectInstrErrors(err, &errs)
	for _, e := range errs {
		diag.ReportError(r, e.Code, diag.Diagnostic{Primary: e.Span, Message: e.Msg}).Emit()
	}
}

func collectInstrErrors(err error, out *[]*InstrError) {
	switch e := err.(type) {
	case *InstrError:
		*out = append(*out, e)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collectInstrErrors(inner, out)
		}
	case interface{ Unwrap() error }:
		collectInstrErrors(e.Unwrap(), out)
	}
}
