package pzcode

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/plasma-lang/plasmac/internal/ids"
)

// WriteText renders pz as the textual bytecode surface of spec.md §6:
// `proc NAME ( WIDTH* - WIDTH* ) { INSTR* };`, one instruction per
// line, blocks separated by `L<n>:` labels. This is this compiler's
// own concrete stand-in for the external assembler/serializer
// spec.md places out of scope — a human-readable, re-parseable
// surface a driver can actually write to a file, grounded directly in
// the grammar spec.md §6 names (`proc`, `{`, `}`, `(`, `)`, `-`,
// identifiers, double-quoted strings, line-comments).
func (pz *PZ) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, id := range orderedProcIDs(pz) {
		proc := pz.Procs[id]
		fmt.Fprintf(bw, "// proc_id %d\n", int(id))
		fmt.Fprintf(bw, "proc %s (", proc.Name.String())
		for _, width := range proc.InputWidths {
			fmt.Fprintf(bw, " %s", width)
		}
		fmt.Fprint(bw, " -")
		for _, width := range proc.OutputWidths {
			fmt.Fprintf(bw, " %s", width)
		}
		fmt.Fprint(bw, " )")

		if proc.Imported {
			fmt.Fprintf(bw, " import \"%s\";\n\n", proc.ImportName)
			continue
		}

		fmt.Fprintln(bw, " {")
		for _, block := range proc.Blocks {
			fmt.Fprintf(bw, "L%d:\n", int(block.ID))
			for _, instr := range block.Instrs {
				fmt.Fprintf(bw, "  %s\n", formatInstr(instr))
			}
		}
		fmt.Fprintln(bw, "};")
		fmt.Fprintln(bw)
	}

	for _, id := range orderedStructIDs(pz) {
		fmt.Fprintf(bw, "// struct %d:", int(id))
		for _, width := range pz.Structs[id] {
			fmt.Fprintf(bw, " %s", width)
		}
		fmt.Fprintln(bw)
	}

	for _, id := range orderedDataIDs(pz) {
		fmt.Fprintf(bw, "// data %d: %q\n", int(id), pz.Data[id])
	}

	return bw.Flush()
}

func formatInstr(i Instr) string {
	switch i.Op {
	case OpPick:
		return fmt.Sprintf("pick %d", i.Imm)
	case OpLoadImmediate:
		return fmt.Sprintf("load_immediate %s %d", i.Width, i.Imm)
	case OpLoadData:
		return fmt.Sprintf("load d%d", int(i.Data))
	case OpDrop:
		return "drop"
	case OpPopBelow:
		return fmt.Sprintf("pop_below keep=%d drop=%d", i.Keep, i.Drop)
	case OpCall:
		return fmt.Sprintf("call f%d", int(i.Func))
	case OpTailCall:
		return fmt.Sprintf("tcall f%d", int(i.Func))
	case OpPrim:
		return fmt.Sprintf("prim %s", i.Prim)
	case OpAllocStruct:
		return fmt.Sprintf("alloc s%d", int(i.Struct))
	case OpMakeTag:
		return fmt.Sprintf("make_tag %d", i.PrimaryTag)
	case OpBreakTag:
		return "break_tag"
	case OpBreakShiftTag:
		return "break_shift_tag"
	case OpUnshiftValue:
		return fmt.Sprintf("unshift_value %d", i.Imm)
	case OpCmpImmediate:
		return fmt.Sprintf("cmp_imm %d", i.Imm)
	case OpJump:
		return fmt.Sprintf("jmp L%d", int(i.Target))
	case OpCJump:
		return fmt.Sprintf("cjmp L%d", int(i.Target))
	case OpRet:
		return "ret"
	default:
		return i.Op.String()
	}
}

func orderedProcIDs(pz *PZ) []ids.ProcID {
	out := make([]ids.ProcID, 0, len(pz.Procs))
	for id := range pz.Procs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func orderedStructIDs(pz *PZ) []ids.StructID {
	out := make([]ids.StructID, 0, len(pz.Structs))
	for id := range pz.Structs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func orderedDataIDs(pz *PZ) []ids.DataID {
	out := make([]ids.DataID, 0, len(pz.Data))
	for id := range pz.Data {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
