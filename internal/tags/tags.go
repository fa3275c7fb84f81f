// Package tags implements the tag-assignment pass of spec.md §4.3: it
// decides, per user-declared type, how each constructor is
// represented as either an untagged constant, a pointer-tagged
// constant, or a pointer to a heap-allocated object — the table the
// code generator consults for both allocation and pattern-match
// dispatch.
//
// No teacher file does pointer tagging (funxy's runtime values are
// plain garbage-collected Go interfaces — internal/vm/objects.go); the
// pass is instead grounded on the teacher's build-once,
// query-many decision-table shape used for symbol resolution
// (internal/symbols/symbol_table_init.go's SymbolTable: a map populated
// in one pass up front, read-only afterward).
package tags

import (
	"fmt"

	"github.com/plasma-lang/plasmac/internal/coreir"
	"github.com/plasma-lang/plasmac/internal/diagnostics"
	"github.com/plasma-lang/plasmac/internal/ids"
	"github.com/plasma-lang/plasmac/internal/pzconfig"
)

// Kind is the encoding a constructor was assigned.
type Kind int

const (
	// KindConstantNoTag: the whole type is a strict enum; the
	// constructor's value is its declaration-order index, with no
	// pointer tag reserved at all (ti_constant_notag).
	KindConstantNoTag Kind = iota
	// KindConstant: a nullary constructor of a mixed type, encoded as
	// primary tag 0 with WordBits as its 0-based index among the
	// type's nullary constructors (ti_constant).
	KindConstant
	// KindTaggedPointer: a constructor with fields, represented as a
	// heap pointer whose low bits carry PrimaryTag (ti_tagged_pointer).
	KindTaggedPointer
)

func (k Kind) String() string {
	switch k {
	case KindConstantNoTag:
		return "constant_notag"
	case KindConstant:
		return "constant"
	case KindTaggedPointer:
		return "tagged_pointer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CtorTagInfo is the per-constructor encoding decision (ctor_tag_info
// in spec.md §4.3).
type CtorTagInfo struct {
	Kind       Kind
	PrimaryTag int // meaningful for KindConstant and KindTaggedPointer
	WordBits   int // meaningful for KindConstantNoTag and KindConstant
}

// Table is the full per-constructor tag assignment for a Core, built
// once by Assign and consulted read-only by every later pass.
type Table map[ids.CtorID]CtorTagInfo

// Assign computes the tag table for every type in core, in
// ascending TypeID order (for determinism — map iteration order is
// not). A type whose constructor count would overflow the available
// primary tags reports DL-SECONDARY-TAG and is simply omitted from the
// result; the caller is expected to treat a cord with that limitation
// as fatal for code generation (spec.md §9: secondary tags are a named
// extension point, not silently handled).
func Assign(core *coreir.Core, cfg pzconfig.Config) (Table, *diagnostics.Cord) {
	table := Table{}
	cord := &diagnostics.Cord{}

	maxPrimaryTags := 1 << cfg.NumPtagBits

	for _, typeID := range orderedTypeIDs(core) {
		t := core.Types[typeID]
		assignType(core, t, maxPrimaryTags, table, cord)
	}
	return table, cord
}

func orderedTypeIDs(core *coreir.Core) []ids.TypeID {
	out := make([]ids.TypeID, 0, len(core.Types))
	for id := range core.Types {
		out = append(out, id)
	}
	// TypeIDs are allocated monotonically from ids.Allocator, so a
	// plain numeric sort reproduces declaration order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func assignType(core *coreir.Core, t *coreir.TypeDef, maxPrimaryTags int, table Table, cord *diagnostics.Cord) {
	var noArgs, withArgs []ids.CtorID
	for _, cid := range t.Ctors {
		ctor := core.Ctors[cid]
		if ctor == nil {
			continue
		}
		if ctor.IsNullary() {
			noArgs = append(noArgs, cid)
		} else {
			withArgs = append(withArgs, cid)
		}
	}

	if len(withArgs) == 0 {
		for i, cid := range t.Ctors {
			table[cid] = CtorTagInfo{Kind: KindConstantNoTag, WordBits: i}
		}
		return
	}

	assigned := map[ids.CtorID]CtorTagInfo{}
	next := 0
	if len(noArgs) > 0 {
		for i, cid := range noArgs {
			assigned[cid] = CtorTagInfo{Kind: KindConstant, PrimaryTag: 0, WordBits: i}
		}
		next = 1
	}

	for _, cid := range withArgs {
		if next >= maxPrimaryTags {
			ctor := core.Ctors[cid]
			cord.Add(diagnostics.NewLimitation(
				diagnostics.ErrTagSecondaryUnsupported, diagnostics.Pos{},
				"type %s: constructor %s needs primary tag %d, but only %d primary tags are available (secondary tags not supported)",
				t.Name, ctor.Name, next, maxPrimaryTags,
			))
			return
		}
		assigned[cid] = CtorTagInfo{Kind: KindTaggedPointer, PrimaryTag: next}
		next++
	}
	for cid, info := range assigned {
		table[cid] = info
	}
}
