package pzcode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/plasma-lang/plasmac/internal/ids"
)

func TestWriteTextRendersProcSignatureAndBody(t *testing.T) {
	pz := New()
	procID := pz.NewProcID()
	pz.Procs[procID] = &PZProc{
		Name:         ids.QualifiedName{"f"},
		InputWidths:  []Width{WPtr},
		OutputWidths: []Width{WPtr},
		Blocks: []*Block{
			{ID: 0, Instrs: []Instr{
				{Op: OpPick, Imm: 0},
				{Op: OpRet},
			}},
		},
	}

	var buf bytes.Buffer
	if err := pz.WriteText(&buf); err != nil {
		t.Fatalf("WriteText = %v, want nil", err)
	}
	out := buf.String()

	if !strings.Contains(out, "proc f ( w - w ) {") {
		t.Errorf("output missing proc signature line, got:\n%s", out)
	}
	if !strings.Contains(out, "pick 0") {
		t.Errorf("output missing pick instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "ret") {
		t.Errorf("output missing ret instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "};") {
		t.Errorf("output missing proc terminator, got:\n%s", out)
	}
}

func TestWriteTextRendersImportedProc(t *testing.T) {
	pz := New()
	procID := pz.NewProcID()
	pz.Procs[procID] = &PZProc{
		Name:         ids.QualifiedName{"print"},
		InputWidths:  []Width{WPtr},
		OutputWidths: nil,
		Imported:     true,
		ImportName:   "print",
	}

	var buf bytes.Buffer
	if err := pz.WriteText(&buf); err != nil {
		t.Fatalf("WriteText = %v, want nil", err)
	}
	out := buf.String()
	if !strings.Contains(out, `import "print";`) {
		t.Errorf("output missing import directive, got:\n%s", out)
	}
	if strings.Contains(out, "{") {
		t.Errorf("imported proc should have no body block, got:\n%s", out)
	}
}

func TestWriteTextRendersStructsAndDataDeterministically(t *testing.T) {
	pz := New()
	s1 := pz.NewStructID([]Width{WPtr, WPtr})
	pz.Data[0] = []byte("hi\x00")
	pz.Data[1] = []byte("bye\x00")

	var buf1, buf2 bytes.Buffer
	if err := pz.WriteText(&buf1); err != nil {
		t.Fatalf("WriteText (1) = %v", err)
	}
	if err := pz.WriteText(&buf2); err != nil {
		t.Fatalf("WriteText (2) = %v", err)
	}
	if buf1.String() != buf2.String() {
		t.Error("WriteText output should be deterministic across calls")
	}

	out := buf1.String()
	if !strings.Contains(out, "struct 0:") {
		t.Errorf("output missing reserved stag struct, got:\n%s", out)
	}
	if !strings.Contains(out, "struct "+itoa(int(s1))+":") {
		t.Errorf("output missing user struct %d, got:\n%s", s1, out)
	}
	if !strings.Contains(out, `data 0: "hi\x00"`) {
		t.Errorf("output missing data entry 0, got:\n%s", out)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func TestWriteTextOrdersMultipleProcsByID(t *testing.T) {
	pz := New()
	idB := pz.NewProcID()
	idA := pz.NewProcID()
	pz.Procs[idB] = &PZProc{Name: ids.QualifiedName{"b"}, Blocks: []*Block{{ID: 0, Instrs: []Instr{{Op: OpRet}}}}}
	pz.Procs[idA] = &PZProc{Name: ids.QualifiedName{"a"}, Blocks: []*Block{{ID: 0, Instrs: []Instr{{Op: OpRet}}}}}

	var buf bytes.Buffer
	if err := pz.WriteText(&buf); err != nil {
		t.Fatalf("WriteText = %v, want nil", err)
	}
	out := buf.String()
	posB := strings.Index(out, "proc b (")
	posA := strings.Index(out, "proc a (")
	if posB == -1 || posA == -1 {
		t.Fatalf("expected both proc a and proc b in output, got:\n%s", out)
	}
	if posB > posA {
		t.Error("procs should be ordered by ascending ProcID (b allocated first)")
	}
}
