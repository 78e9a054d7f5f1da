// Package ir lowers a validated Papyrus forest (sema.Program) into a flat,
// per-script instruction stream plus an overall Runtime, grounded on
// original_source/src/ir.rs's _parse/parse_def/parse_func_call family but
// restructured around the project's typed ast/sema packages instead of a
// tag-plus-children tree: expression types come straight from
// sema.Unit.Types rather than being re-derived during lowering.
package ir

import "fmt"

// RegID names a register within one call frame's StackFrame. Per §9's
// design-note decision, this is a small integer rather than the
// format-built string original_source used — the textual form below exists
// only for debug dumps and diagnostics.
type RegID uint32

// RegReturn is the reserved return-value register ("_rt" in debug form),
// written by Ret-bound expressions and by the builtins that produce a
// value, and copied into the caller's own _rt by Call on return.
const RegReturn RegID = 0

func (r RegID) String() string {
	if r == RegReturn {
		return "_rt"
	}
	return fmt.Sprintf("r%d", r)
}

// Param is the tagged sum `Value(u32) | Register(RegID)` from spec §3: an
// operand is either an immediate bit pattern or a register reference.
type Param interface {
	paramNode()
}

// ValueParam carries an immediate bit pattern: two's-complement for Int,
// IEEE-754 single-precision for Float, 0/1 for Bool, packed RGBA for
// Color.
type ValueParam struct {
	Bits uint32
}

func (ValueParam) paramNode() {}

func (p ValueParam) String() string { return fmt.Sprintf("#%d", p.Bits) }

// RegisterParam references a register in the active StackFrame.
type RegisterParam struct {
	Reg RegID
}

func (RegisterParam) paramNode() {}

func (p RegisterParam) String() string { return p.Reg.String() }

// Val and Reg build the two Param variants.
func Val(bits uint32) Param { return ValueParam{Bits: bits} }
func Reg(id RegID) Param    { return RegisterParam{Reg: id} }

// Script is one compiled file: its canonical path and its flat,
// label-addressed instruction stream (spec §3 Script).
type Script struct {
	Path    string
	Program []Instruction
}

// Runtime is the ordered set of scripts a Program lowers to, entry script
// first (spec §3 Runtime); no path repeats even if several files import
// the same dependency under different aliases.
type Runtime struct {
	EntryPath string
	Scripts   []Script
}

// Find returns the Script at path, if the Runtime contains one.
func (r *Runtime) Find(path string) (*Script, bool) {
	for i := range r.Scripts {
		if r.Scripts[i].Path == path {
			return &r.Scripts[i], true
		}
	}
	return nil, false
}
