package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Printer formats a Cord as "filename:line: message\n" (spec.md §6),
// colorizing the message when the destination writer is a real
// terminal. Internal-error and design-limitation diagnostics are
// tagged so they read distinctly from ordinary compile errors.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter builds a Printer writing to w. Color is enabled only when
// w is an *os.File whose fd is a terminal, matching the way CLI tools
// in the wild gate ANSI output.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{w: w, color: color}
}

func (p *Printer) tag(d *DiagnosticError) string {
	switch d.Kind {
	case KindInternalError:
		return "internal error"
	case KindLimitation:
		return "limitation"
	default:
		return "error"
	}
}

func (p *Printer) colorize(code string, s string) string {
	if !p.color {
		return s
	}
	const (
		red    = "\x1b[31m"
		yellow = "\x1b[33m"
		reset  = "\x1b[0m"
	)
	switch code {
	case string(ErrInternal):
		return red + s + reset
	default:
		return yellow + s + reset
	}
}

// Print writes every diagnostic in the cord as "filename:line: message"
// (spec.md §6), one per line. Internal-error and limitation
// diagnostics carry a bracketed tag ahead of the message.
func (p *Printer) Print(c *Cord) {
	for _, d := range c.Errors() {
		msg := d.Msg
		if d.Kind != KindCompileError {
			msg = fmt.Sprintf("[%s] %s", p.tag(d), msg)
		}
		line := fmt.Sprintf("%s: %s", d.Pos, msg)
		fmt.Fprintln(p.w, p.colorize(string(d.Code), line))
	}
}
