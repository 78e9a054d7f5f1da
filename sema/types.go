// Package sema validates a Papyrus AST forest: it resolves imports, tracks
// lexical scope, and infers an expression type table the IR lowerer
// consumes for opcode selection. It is grounded on the teacher's
// scope.Scope chain (github.com/akashmaji946/go-mix/scope) generalized from
// a dynamic-value chain to a static-type one, plus the teacher's
// accumulate-and-continue error handling.
package sema

import "fmt"

// Type is one of the scalar semantic types a Papyrus expression can carry.
// Void is never a value type; it only tags a function with no return.
type Type int

const (
	Int Type = iota
	Float
	Bool
	Color
	Void
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Color:
		return "color"
	case Void:
		return "void"
	default:
		return "?"
	}
}

// typeNames maps the declared-type identifiers legal in source to their
// Type, used both to validate `ident : type` bindings and to resolve a
// function's parameter/return type annotations.
var typeNames = map[string]Type{
	"int":   Int,
	"float": Float,
	"bool":  Bool,
	"color": Color,
}

// lookupType resolves a declared-type name, reporting ok=false for an
// unknown type name.
func lookupType(name string) (Type, bool) {
	t, ok := typeNames[name]
	return t, ok
}

// Signature is a function's overload key: its name plus the ordered
// parameter types (§3 FunctionSignature). Two functions with the same name
// but different parameter lists are distinct.
type Signature struct {
	Name   string
	Params []Type
}

func (s Signature) String() string {
	out := s.Name + "("
	for i, p := range s.Params {
		if i > 0 {
			out += ", "
		}
		out += p.String()
	}
	return out + ")"
}

func (s Signature) equal(o Signature) bool {
	if s.Name != o.Name || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	return true
}

// FuncInfo is one resolved function: its signature, declared return type,
// and (for user-defined functions) its declared name as Label. Builtins
// have an empty Label. The IR lowerer does not read Label: it assigns its
// own per-script labels (ir.Context) and maps builtins to dedicated
// opcodes instead of a Call.
type FuncInfo struct {
	Sig    Signature
	Return Type
	Label  string
	Pub    bool
}

func (f FuncInfo) String() string {
	return fmt.Sprintf("%s -> %s", f.Sig, f.Return)
}
