// Package constdata implements the const-data interning pass of
// spec.md §4.4: every distinct string literal in the program becomes
// exactly one NUL-terminated byte-array entry in the PZ data table,
// deduplicated by value.
//
// Grounded on the teacher's own constant-pool deduplication in
// internal/vm/chunk.go (Chunk.AddConstant: a value->index map checked
// before appending, so equal literals share one constant-pool slot) —
// the same dedup-by-value-before-allocating-an-id shape, adapted from
// a flat value slice to spec.md's data_id allocator.
package constdata

import (
	"unicode"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/diagnostics"
	"github.com/plasma-lang/plasmac/internal/ids"
)

// Entry is one interned string's PZ data-table entry: a
// NUL-terminated byte array (pz_data(type_array(w8), ...), spec.md
// §4.4). Current policy is one byte per character, so non-ASCII input
// is rejected rather than silently truncated or re-encoded.
type Entry struct {
	ID    ids.DataID
	Bytes []byte // includes the trailing NUL
}

// Table is the deduplicated string->data_id map plus the ordered
// entries to emit, built once by Intern.
type Table struct {
	byValue map[string]ids.DataID
	Entries []Entry
}

// Lookup returns the DataID for s, which must already have been
// interned.
func (t *Table) Lookup(s string) (ids.DataID, bool) {
	id, ok := t.byValue[s]
	return id, ok
}

// Intern walks every function body in core (in a fixed FuncID order,
// for determinism) and interns every c_string literal it finds,
// deduplicating by exact string value. Non-ASCII strings are rejected
// with DL-NON-ASCII-STRING rather than mis-encoded (spec.md §4.4: "1
// byte per character and therefore ASCII-only — a flagged extension
// point").
func Intern(core *coreir.Core, alloc *ids.Allocator[ids.DataID]) (*Table, *diagnostics.Cord) {
	table := &Table{byValue: map[string]ids.DataID{}}
	cord := &diagnostics.Cord{}

	for _, fid := range orderedFuncIDs(core) {
		fn := core.Functions[fid]
		if fn == nil || fn.Body == nil {
			continue
		}
		internExpr(fn.Body.Expr, table, alloc, cord)
	}
	return table, cord
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

func internExpr(e *coreir.Expr, table *Table, alloc *ids.Allocator[ids.DataID], cord *diagnostics.Cord) {
	if e == nil {
		return
	}
	switch k := e.Kind.(type) {
	case coreir.ESequence:
		for _, sub := range k.Exprs {
			internExpr(sub, table, alloc, cord)
		}
	case coreir.ELet:
		internExpr(k.Rhs, table, alloc, cord)
		internExpr(k.Body, table, alloc, cord)
	case coreir.ETuple:
		for _, sub := range k.Exprs {
			internExpr(sub, table, alloc, cord)
		}
	case coreir.ECall:
		for _, arg := range k.Args {
			internExpr(arg, table, alloc, cord)
		}
	case coreir.EConstruction:
		for _, arg := range k.Args {
			internExpr(arg, table, alloc, cord)
		}
	case coreir.EMatch:
		for _, mc := range k.Cases {
			internExpr(mc.Body, table, alloc, cord)
		}
	case coreir.EConstant:
		if cs, ok := k.Const.(coreir.CString); ok {
			internString(cs.Value, e.Info.Pos, table, alloc, cord)
		}
	case coreir.EVar:
		// no literal to intern
	}
}

func internString(s string, pos coreir.Pos, table *Table, alloc *ids.Allocator[ids.DataID], cord *diagnostics.Cord) {
	if _, ok := table.byValue[s]; ok {
		return
	}
	for _, r := range s {
		if r > unicode.MaxASCII {
			cord.Add(diagnostics.New(
				diagnostics.ErrNonASCIIString,
				diagnostics.Pos{File: pos.File, Line: pos.Line, Column: pos.Column},
				"string literal %q contains a non-ASCII character %q; only 1-byte-per-character encoding is supported",
				s, r,
			))
			return
		}
	}
	id := alloc.Next()
	bytes := append([]byte(s), 0)
	table.byValue[s] = id
	table.Entries = append(table.Entries, Entry{ID: id, Bytes: bytes})
}
