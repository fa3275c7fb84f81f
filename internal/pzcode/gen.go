package pzcode

import (
	"github.com/plasma-lang/plasmac/internal/builtins"
	"github.com/plasma-lang/plasmac/internal/constdata"
	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/diagnostics"
	"github.com/plasma-lang/plasmac/internal/ids"
	"github.com/plasma-lang/plasmac/internal/tags"
)

// Generator lowers a fully inferred, tagged Core into a PZ. Failures
// here are, per spec.md §4.5, always assertion failures: type/arity
// errors should have been caught upstream, so anything unexpected
// reaching the generator is reported as an internal error. Generation
// of the current function goes on after such an error, except that a
// body leaving the wrong number of values is not stored as a proc.
type Generator struct {
	core      *coreir.Core
	tags      tags.Table
	constants *constdata.Table
	builtin   *builtins.Table
	pz        *PZ
	ctors     map[ids.CtorID]ids.StructID // lazily allocated per with-args ctor
	procIDs   map[ids.FuncID]ids.ProcID
	cord      *diagnostics.Cord
}

// NewGenerator builds a Generator over the results of every preceding
// pass.
func NewGenerator(core *coreir.Core, tagTable tags.Table, constants *constdata.Table, builtinTable *builtins.Table) *Generator {
	return &Generator{
		core:      core,
		tags:      tagTable,
		constants: constants,
		builtin:   builtinTable,
		pz:        New(),
		ctors:     map[ids.CtorID]ids.StructID{},
		procIDs:   map[ids.FuncID]ids.ProcID{},
		cord:      &diagnostics.Cord{},
	}
}

// Generate compiles every non-skipped function in core into pz.Procs,
// copies the interned data table, and returns the accumulated
// diagnostics (always internal errors, by construction).
func (g *Generator) Generate(skip map[ids.FuncID]bool) (*PZ, *diagnostics.Cord) {
	for _, entry := range g.constants.Entries {
		g.pz.Data[entry.ID] = entry.Bytes
	}

	for _, fid := range orderedFuncIDs(g.core) {
		if skip[fid] {
			continue
		}
		fn := g.core.Functions[fid]
		if fn == nil {
			continue
		}
		if b, ok := g.builtin.Lookup(fid); ok && b.Category != builtins.Core {
			g.installBuiltinProc(fid, fn, b)
			continue
		}
		if fn.IsImported() {
			continue
		}
		g.compileFunction(fid, fn)
	}
	return g.pz, g.cord
}

func orderedFuncIDs(core *coreir.Core) []ids.FuncID {
	out := make([]ids.FuncID, 0, len(core.Functions))
	for id := range core.Functions {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (g *Generator) installBuiltinProc(fid ids.FuncID, fn *coreir.Function, b *builtins.Builtin) {
	proc := &PZProc{
		Name:         fn.Name,
		InputWidths:  widthsFor(fn.Signature.InputTypes),
		OutputWidths: widthsFor(fn.Signature.OutputTypes),
	}
	if b.Category == builtins.Runtime {
		proc.Imported = true
		proc.ImportName = b.ImportName
	}
	// Inline builtins are never compiled as standalone procs: the code
	// generator splices their Ops directly at every call site. They're
	// still recorded here (unreferenced by any block) purely so the PZ
	// accounts for every FuncID in the builtin table.
	g.pz.Procs[g.procFor(fid)] = proc
}

func widthsFor(types []coreir.Type) []Width {
	out := make([]Width, len(types))
	for i := range types {
		out[i] = WPtr
	}
	return out
}

// procFor maps a Core FuncID to its PZ ProcID, allocating on first use
// so proc numbering doesn't depend on map iteration order elsewhere.
func (g *Generator) procFor(fid ids.FuncID) ids.ProcID {
	id, ok := g.procIDs[fid]
	if !ok {
		id = g.pz.NewProcID()
		g.procIDs[fid] = id
	}
	return id
}

func (g *Generator) compileFunction(fid ids.FuncID, fn *coreir.Function) {
	fb := &funcGen{
		g:        g,
		fn:       fn,
		varDepth: map[coreir.Var]int{},
	}
	for i, v := range fn.Body.ParameterVars {
		fb.varDepth[v] = i
	}
	fb.height = len(fn.Signature.InputTypes)
	fb.cur = fb.newBlock()

	n := fb.gen(fn.Body.Expr, true)
	if n != len(fn.Signature.OutputTypes) {
		g.bug(fn.Body.Expr.Info.Pos, "function %s: body leaves %d values on the stack, declared %d outputs", fn.Name, n, len(fn.Signature.OutputTypes))
		return
	}
	fb.emit(Instr{Op: OpRet})

	proc := &PZProc{
		Name:         fn.Name,
		InputWidths:  widthsFor(fn.Signature.InputTypes),
		OutputWidths: widthsFor(fn.Signature.OutputTypes),
		Blocks:       fb.blocks,
	}
	g.pz.Procs[g.procFor(fid)] = proc
}

func (g *Generator) bug(pos coreir.Pos, format string, args ...any) {
	g.cord.Add(diagnostics.NewInternal("pzcode", diagnostics.Pos{File: pos.File, Line: pos.Line, Column: pos.Column}, format, args...))
}

func (g *Generator) structFor(cid ids.CtorID, fieldCount int) ids.StructID {
	if id, ok := g.ctors[cid]; ok {
		return id
	}
	widths := make([]Width, fieldCount)
	for i := range widths {
		widths[i] = WPtr
	}
	id := g.pz.NewStructID(widths)
	g.ctors[cid] = id
	return id
}

// funcGen is one function's code-generation state: the current block,
// the completed block list, a running stack height, and the
// compile-time "where is this var on the stack" map (spec.md §4.5),
// recorded as an absolute height rather than a depth so it stays valid
// as more values are pushed on top.
type funcGen struct {
	g        *Generator
	fn       *coreir.Function
	blocks   []*Block
	cur      *Block
	height   int
	varDepth map[coreir.Var]int
	nextID   BlockID
}

func (fb *funcGen) newBlock() *Block {
	b := &Block{ID: fb.nextID}
	fb.nextID++
	fb.blocks = append(fb.blocks, b)
	return b
}

func (fb *funcGen) emit(i Instr) {
	fb.cur.Instrs = append(fb.cur.Instrs, i)
}

func (fb *funcGen) pos(e *coreir.Expr) coreir.Pos { return e.Info.Pos }

// gen emits code for e, leaving its results on top of the stack, and
// returns how many values it pushed. tail reports whether e is in
// tail position within its enclosing function (the last expression of
// the body, threaded through e_sequence/e_let/e_match exactly as
// spec.md §4.5 describes tail-call detection: "a syntactic check: last
// statement of the function, no surrounding work").
func (fb *funcGen) gen(e *coreir.Expr, tail bool) int {
	switch k := e.Kind.(type) {
	case coreir.ESequence:
		n := 0
		for i, sub := range k.Exprs {
			last := i == len(k.Exprs)-1
			n = fb.gen(sub, tail && last)
			if !last {
				for j := 0; j < n; j++ {
					fb.emit(Instr{Op: OpDrop})
					fb.height--
				}
			}
		}
		return n

	case coreir.ELet:
		rhsN := fb.gen(k.Rhs, false)
		base := fb.height - rhsN
		for i, v := range k.Vars {
			if i < rhsN {
				fb.varDepth[v] = base + i
			}
		}
		bodyN := fb.gen(k.Body, tail)
		if rhsN > 0 {
			fb.emit(Instr{Op: OpPopBelow, Keep: bodyN, Drop: rhsN})
			fb.height -= rhsN
		}
		for _, v := range k.Vars {
			delete(fb.varDepth, v)
		}
		return bodyN

	case coreir.ETuple:
		for _, sub := range k.Exprs {
			fb.gen(sub, false)
		}
		return len(k.Exprs)

	case coreir.ECall:
		return fb.genCall(e, k, tail)

	case coreir.EVar:
		d, ok := fb.varDepth[k.Var]
		if !ok {
			fb.g.bug(fb.pos(e), "reference to variable %v not on the compile-time stack", k.Var)
			return 0
		}
		fb.emit(Instr{Op: OpPick, Imm: int64(fb.height - 1 - d)})
		fb.height++
		return 1

	case coreir.EConstant:
		return fb.genConstant(e, k)

	case coreir.EConstruction:
		return fb.genConstruction(e, k)

	case coreir.EMatch:
		return fb.genMatch(e, k, tail)

	default:
		fb.g.bug(fb.pos(e), "unknown expression kind %T reached the code generator", k)
		return 0
	}
}

func (fb *funcGen) genCall(e *coreir.Expr, k coreir.ECall, tail bool) int {
	fn := fb.g.core.Functions[k.Func]
	if fn == nil {
		fb.g.bug(fb.pos(e), "call to unknown function %v reached the code generator", k.Func)
		return 0
	}
	for _, a := range k.Args {
		fb.gen(a, false)
	}
	nIn := len(fn.Signature.InputTypes)
	nOut := len(fn.Signature.OutputTypes)

	if b, ok := fb.g.builtin.Lookup(k.Func); ok && b.Category == builtins.Inline {
		for _, prim := range b.Ops {
			fb.emit(Instr{Op: OpPrim, Prim: prim})
		}
	} else {
		op := OpCall
		if tail {
			op = OpTailCall
		}
		fb.emit(Instr{Op: op, Func: k.Func})
	}
	fb.height += nOut - nIn
	return nOut
}

func (fb *funcGen) genConstant(e *coreir.Expr, k coreir.EConstant) int {
	switch c := k.Const.(type) {
	case coreir.CString:
		id, ok := fb.g.constants.Lookup(c.Value)
		if !ok {
			fb.g.bug(fb.pos(e), "string literal %q was never interned", c.Value)
			return 0
		}
		fb.emit(Instr{Op: OpLoadData, Data: id})
	case coreir.CNumber:
		fb.emit(Instr{Op: OpLoadImmediate, Width: W64, Imm: c.Value})
	case coreir.CCtor:
		info, ok := fb.g.tags[c.Ctor]
		if !ok {
			fb.g.bug(fb.pos(e), "constructor %v has no tag assignment", c.Ctor)
			return 0
		}
		switch info.Kind {
		case tags.KindConstantNoTag:
			fb.emit(Instr{Op: OpLoadImmediate, Width: WPtr, Imm: int64(info.WordBits)})
		case tags.KindConstant:
			fb.emit(Instr{Op: OpLoadImmediate, Width: WPtr, Imm: int64(encodeConstant(info))})
		default:
			fb.g.bug(fb.pos(e), "constructor %v with fields cannot be loaded as a bare constant", c.Ctor)
			return 0
		}
	default:
		fb.g.bug(fb.pos(e), "constant kind %T has no lowering", c)
		return 0
	}
	fb.height++
	return 1
}

// encodeConstant computes `ptag | (word_bits << ptag_bits)` for a
// ti_constant encoding (spec.md §4.3/§4.5). Callers only use this for
// tags.KindConstant, where PrimaryTag is always 0, so the shift amount
// (the runtime's num_ptag_bits) doesn't affect the result's low bits —
// it's still applied for fidelity to the spec's formula.
func encodeConstant(info tags.CtorTagInfo) int {
	const numPtagBits = 2
	return info.PrimaryTag | (info.WordBits << numPtagBits)
}

func (fb *funcGen) genConstruction(e *coreir.Expr, k coreir.EConstruction) int {
	info, ok := fb.g.tags[k.Ctor]
	if !ok {
		fb.g.bug(fb.pos(e), "constructor %v has no tag assignment", k.Ctor)
		return 0
	}
	switch info.Kind {
	case tags.KindConstantNoTag:
		fb.emit(Instr{Op: OpLoadImmediate, Width: WPtr, Imm: int64(info.WordBits)})
	case tags.KindConstant:
		fb.emit(Instr{Op: OpLoadImmediate, Width: WPtr, Imm: int64(encodeConstant(info))})
	case tags.KindTaggedPointer:
		for _, a := range k.Args {
			fb.gen(a, false)
		}
		structID := fb.g.structFor(k.Ctor, len(k.Args))
		fb.emit(Instr{Op: OpAllocStruct, Struct: structID})
		fb.height -= len(k.Args) // alloc consumes the field values...
		fb.height++              // ...and leaves one pointer
		fb.emit(Instr{Op: OpMakeTag, PrimaryTag: info.PrimaryTag})
		return 1
	default:
		fb.g.bug(fb.pos(e), "constructor %v has unrecognized tag kind", k.Ctor)
		return 0
	}
	fb.height++
	return 1
}

// genMatch lowers e_match per spec.md §4.5: push the scrutinee, break
// its primary tag, dispatch on it case by case, and join. Each case's
// body runs with its own saved/restored height and varDepth scope so
// sibling cases never see each other's pattern bindings, and the join
// point always sees the same height: the pre-match height plus the
// match's arity.
func (fb *funcGen) genMatch(e *coreir.Expr, k coreir.EMatch, tail bool) int {
	scrutD, ok := fb.varDepth[k.Scrutinee]
	if !ok {
		fb.g.bug(fb.pos(e), "match scrutinee %v not on the compile-time stack", k.Scrutinee)
		return 0
	}
	arity := e.Info.Arity
	if arity < 1 {
		arity = 1
	}
	preHeight := fb.height

	join := fb.newBlock()
	cur := fb.cur

	for i, mc := range k.Cases {
		isLast := i == len(k.Cases)-1

		fb.cur = cur
		fb.height = preHeight
		fb.emit(Instr{Op: OpPick, Imm: int64(fb.height - 1 - scrutD)})
		fb.height++
		fb.emit(Instr{Op: OpBreakTag})

		caseBlock := fb.newBlock()
		if !isLast {
			tagInfo, wantTag := literalTagOf(fb.g, mc.Pattern)
			if wantTag {
				fb.emit(Instr{Op: OpCmpImmediate, Imm: int64(tagInfo)})
				fb.emit(Instr{Op: OpCJump, Target: caseBlock.ID})
				fb.height-- // the probe value is consumed by the comparison
				cur = fb.newBlock()
			} else {
				fb.emit(Instr{Op: OpJump, Target: caseBlock.ID})
				fb.height--
			}
		} else {
			fb.emit(Instr{Op: OpDrop}) // drop the tag probe; last case is unconditional
			fb.height--
			fb.emit(Instr{Op: OpJump, Target: caseBlock.ID})
		}

		savedDepth := make(map[coreir.Var]int, len(fb.varDepth))
		for v, d := range fb.varDepth {
			savedDepth[v] = d
		}

		fb.cur = caseBlock
		fb.height = preHeight
		fb.bindPattern(mc.Pattern, scrutD)
		fb.gen(mc.Body, tail)
		fb.emit(Instr{Op: OpPopBelow, Keep: arity, Drop: fb.height - preHeight - arity})
		fb.emit(Instr{Op: OpJump, Target: join.ID})

		fb.varDepth = savedDepth
	}

	fb.cur = join
	fb.height = preHeight + arity
	return arity
}

// literalTagOf returns the primary-tag (or, for a literal integer
// pattern, the raw value) to compare the probe against, and whether a
// comparison is needed at all (false for a catch-all PVar/PWildcard).
func literalTagOf(g *Generator, p coreir.Pattern) (int, bool) {
	switch pp := p.(type) {
	case coreir.PCtor:
		info, ok := g.tags[pp.Ctor]
		if !ok {
			return 0, false
		}
		switch info.Kind {
		case tags.KindConstantNoTag:
			return info.WordBits, true
		default:
			return info.PrimaryTag, true
		}
	case coreir.PLiteralInt:
		return int(pp.Value), true
	default:
		return 0, false
	}
}

// bindPattern records the stack positions pattern-bound variables
// resolve to. A bare PVar/PWildcard binds directly to scrutD, the
// scrutinee's own position. A PCtor with fields projects each one onto
// its own, distinct stack position: break_shift_tag recovers the raw
// struct pointer from the tagged scrutinee, then one unshift_value per
// sub-pattern pulls out that field's value, which is then itself bound
// (recursively, so a nested PCtor sub-pattern projects its own fields
// in turn) — per spec.md §4.5's `unshift_value` field-projection
// helper.
func (fb *funcGen) bindPattern(p coreir.Pattern, scrutD int) {
	switch pp := p.(type) {
	case coreir.PVar:
		fb.varDepth[pp.Var] = scrutD
	case coreir.PWildcard, coreir.PLiteralInt:
		// nothing to bind
	case coreir.PCtor:
		if len(pp.Subs) == 0 {
			return // nullary constructor: no fields to project
		}
		fb.emit(Instr{Op: OpPick, Imm: int64(fb.height - 1 - scrutD)})
		fb.height++
		fb.emit(Instr{Op: OpBreakShiftTag})
		structD := fb.height - 1
		for i, sub := range pp.Subs {
			fb.emit(Instr{Op: OpPick, Imm: int64(fb.height - 1 - structD)})
			fb.height++
			fb.emit(Instr{Op: OpUnshiftValue, Imm: int64(i)})
			fieldD := fb.height - 1
			fb.bindPattern(sub, fieldD)
		}
	}
}
