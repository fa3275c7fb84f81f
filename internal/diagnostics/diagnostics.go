// Package diagnostics implements the error-reporting model described
// in the design: compile errors accumulate in a Cord and are printed
// together, internal errors abort compilation immediately, and design
// limitations are a small named set of known-unimplemented cases.
package diagnostics

import "fmt"

// ErrorCode is a short stable identifier for a diagnostic, grouped by
// the pass that raises it (E-ARITY-*, E-TYPE-*, DL-*, E-INTERNAL).
type ErrorCode string

const (
	// Arity inference (spec.md §4.1)
	ErrArityParameterNumber ErrorCode = "E-ARITY-001" // wrong number of call arguments
	ErrArityArgNotSingle    ErrorCode = "E-ARITY-002" // a call argument has arity != 1
	ErrArityMismatchCase    ErrorCode = "E-ARITY-003" // match case bodies disagree on arity
	ErrArityMismatchFunc    ErrorCode = "E-ARITY-004" // body arity disagrees with declared arity

	// Type inference (spec.md §4.2)
	ErrTypeMismatch      ErrorCode = "E-TYPE-001"
	ErrTypeOccursCheck   ErrorCode = "E-TYPE-002"
	ErrTypeArityMismatch ErrorCode = "E-TYPE-003" // propagated from arity inference

	// Tag assignment (spec.md §4.3)
	ErrTagSecondaryUnsupported ErrorCode = "DL-SECONDARY-TAG"

	// Const-data interning (spec.md §4.4)
	ErrNonASCIIString ErrorCode = "DL-NON-ASCII-STRING"

	// Cross-cutting design limitations (spec.md §9)
	ErrMutualRecursion ErrorCode = "DL-MUTUAL-RECURSION"

	// Compiler bugs (spec.md §7.2) — never used for expected control flow.
	ErrInternal ErrorCode = "E-INTERNAL"
)

// Pos is the source position a diagnostic is anchored to.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	if p.Line <= 0 {
		return p.File
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Kind distinguishes the three diagnostic categories of §7.
type Kind int

const (
	KindCompileError Kind = iota
	KindInternalError
	KindLimitation
)

// DiagnosticError is a single reported problem: a code, a kind, the
// source position it is anchored to, and a human-readable message.
type DiagnosticError struct {
	Code ErrorCode
	Kind Kind
	Pos  Pos
	Msg  string
}

func (e *DiagnosticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// New constructs a compile-error diagnostic.
func New(code ErrorCode, pos Pos, format string, args ...any) *DiagnosticError {
	return &DiagnosticError{Code: code, Kind: KindCompileError, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// NewInternal constructs a compiler-bug diagnostic, identifying the
// pass and the offending entity. These abort compilation; they are
// never recovered from mid-pipeline.
func NewInternal(pass string, pos Pos, format string, args ...any) *DiagnosticError {
	return &DiagnosticError{
		Code: ErrInternal,
		Kind: KindInternalError,
		Pos:  pos,
		Msg:  fmt.Sprintf("internal error in %s: %s", pass, fmt.Sprintf(format, args...)),
	}
}

// NewLimitation constructs a design-limitation diagnostic naming the
// limitation and the triggering source location.
func NewLimitation(code ErrorCode, pos Pos, format string, args ...any) *DiagnosticError {
	return &DiagnosticError{Code: code, Kind: KindLimitation, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Cord accumulates diagnostics across a pass, or across the whole
// pipeline, without aborting on the first one.
type Cord struct {
	errs []*DiagnosticError
}

// Add appends a diagnostic to the cord.
func (c *Cord) Add(d *DiagnosticError) {
	c.errs = append(c.errs, d)
}

// HasInternalError reports whether any accumulated diagnostic is a
// compiler-bug abort. The driver checks this after every pass to
// decide whether to halt immediately rather than continue.
func (c *Cord) HasInternalError() bool {
	for _, e := range c.errs {
		if e.Kind == KindInternalError {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no diagnostics were recorded.
func (c *Cord) IsEmpty() bool {
	return len(c.errs) == 0
}

// Errors returns the accumulated diagnostics in the order recorded.
func (c *Cord) Errors() []*DiagnosticError {
	return c.errs
}

// Union merges other into c, preserving order (c's diagnostics first).
func (c *Cord) Union(other *Cord) {
	if other == nil {
		return
	}
	c.errs = append(c.errs, other.errs...)
}
