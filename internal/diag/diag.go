// Package diag implements the located-diagnostic accumulation shared by the
// lexer, parser, and validator. Every compile stage collects diagnostics
// into a Bag instead of aborting at the first error, so that a single
// compile invocation can surface every problem it finds in one pass.
package diag

import (
	"fmt"
	"strings"
)

// Location records a source position: the file it came from and its
// line/column within that file (both 1-indexed). It is shared by every
// stage of the pipeline — lexer, parser, validator, and lowering all tag
// their diagnostics with a Location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String renders a Location as "file:line:column".
func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Severity classifies a Diagnostic. Fatal diagnostics abort the pipeline
// once the current stage finishes accumulating; Error diagnostics are
// reported but do not by themselves stop accumulation within a stage.
type Severity int

const (
	SeverityError Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	default:
		return "error"
	}
}

// Diagnostic is a single located compile-time problem report.
type Diagnostic struct {
	Severity Severity
	Message  string
	Location Location
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// Bag accumulates diagnostics across a compile stage (or an entire
// compilation spanning several imported files). It is not safe for
// concurrent use — the pipeline is single-threaded throughout (§5).
type Bag struct {
	diagnostics []Diagnostic
}

// NewBag returns an empty Bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic at the given severity and location.
func (b *Bag) Add(severity Severity, loc Location, format string, args ...interface{}) {
	b.diagnostics = append(b.diagnostics, Diagnostic{
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	})
}

// Errorf appends an error-severity diagnostic.
func (b *Bag) Errorf(loc Location, format string, args ...interface{}) {
	b.Add(SeverityError, loc, format, args...)
}

// Fatalf appends a fatal-severity diagnostic.
func (b *Bag) Fatalf(loc Location, format string, args ...interface{}) {
	b.Add(SeverityFatal, loc, format, args...)
}

// Merge appends another bag's diagnostics onto this one, preserving order.
// Used when import resolution pulls in diagnostics from a nested compile.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.diagnostics = append(b.diagnostics, other.diagnostics...)
}

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int {
	return len(b.diagnostics)
}

// HasErrors reports whether any diagnostic was accumulated.
func (b *Bag) HasErrors() bool {
	return len(b.diagnostics) > 0
}

// All returns the accumulated diagnostics in the order they were added.
func (b *Bag) All() []Diagnostic {
	return b.diagnostics
}

// String renders every diagnostic, one per line.
func (b *Bag) String() string {
	var sb strings.Builder
	for _, d := range b.diagnostics {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
