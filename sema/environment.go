package sema

import (
	"github.com/papyrus-lang/papyrus/ast"
	"github.com/papyrus-lang/papyrus/internal/diag"
)

// overloadSet holds every FuncInfo sharing a name, distinguished by full
// parameter-list equality (§3: "Overloading is by full signature
// equality").
type overloadSet []FuncInfo

func (o overloadSet) find(params []Type) (FuncInfo, bool) {
	for _, fi := range o {
		if len(fi.Sig.Params) != len(params) {
			continue
		}
		match := true
		for i, p := range params {
			if fi.Sig.Params[i] != p {
				match = false
				break
			}
		}
		if match {
			return fi, true
		}
	}
	return FuncInfo{}, false
}

// FuncEntry pairs a validated function declaration with its resolved
// signature, in source order, for the IR lowerer to walk.
type FuncEntry struct {
	Decl *ast.FuncDecl
	Info FuncInfo
}

// Unit is one fully validated file: its forest, the functions it declares
// (in source order, for the lowerer), its import-alias table, and the
// inferred type of every expression node it contains. The compile driver
// and the IR lowerer key these by canonical absolute path.
type Unit struct {
	Path      string
	Forest    []ast.Stmt
	Functions []FuncEntry
	Aliases   map[string]string // import alias -> resolved canonical path
	Types     map[ast.Expr]Type // expression -> inferred type
}

// Program is the result of validating an entry script and every file it
// (transitively) imports: an ordered, deduplicated unit list in which no
// path appears twice, even when imported via several aliases. Order is
// dependency-first: each file follows every file it imports, so the entry
// script comes last.
type Program struct {
	EntryPath string
	Order     []string
	Units     map[string]*Unit
}

// Environment is the validator's shared, per-compilation state: the
// built-in function table (global to every file) and the caches used to
// make import resolution idempotent across aliases (§3 Environment, §9
// "cache finished results to avoid re-validation"). It holds no
// user-declared functions — those live in each file's own funcTable, since
// an unqualified call only ever resolves within its own file (§4.3).
type Environment struct {
	builtins map[string]overloadSet

	// units caches a fully validated file keyed by canonical absolute
	// path, so the same file imported from multiple places is parsed and
	// validated exactly once (§4.3, §9).
	units map[string]*Unit
	order []string

	// visiting is the in-progress set used for import-cycle detection,
	// keyed by canonical absolute path (§4.3, §9).
	visiting map[string]bool

	// startLoc records the import-statement location that first began
	// validating each in-progress path, so a detected cycle can report
	// both endpoints.
	startLoc map[string]diag.Location
}

// NewDefaultEnvironment builds the environment pre-declared with Papyrus's
// built-in functions (§4.3).
func NewDefaultEnvironment() *Environment {
	env := &Environment{
		builtins: map[string]overloadSet{},
		units:    map[string]*Unit{},
		visiting: map[string]bool{},
		startLoc: map[string]diag.Location{},
	}
	builtin := func(name string, ret Type, params ...Type) {
		env.builtins[name] = append(env.builtins[name], FuncInfo{
			Sig:    Signature{Name: name, Params: params},
			Return: ret,
		})
	}
	builtin("create_canvas", Void, Int, Int)
	builtin("save_canvas", Void)
	builtin("put", Void, Int, Int, Color)
	builtin("fill", Void, Color)
	builtin("int", Int, Float)
	builtin("float", Float, Int)
	builtin("sample", Color, Int, Int)
	builtin("width", Int)
	builtin("height", Int)
	builtin("red", Int, Color)
	builtin("green", Int, Color)
	builtin("blue", Int, Color)
	builtin("alpha", Int, Color)
	builtin("rgba", Color, Int, Int, Int, Int)
	return env
}

// funcTable is one file's visible function set: its own declarations plus
// a fallback to the shared builtins.
type funcTable struct {
	local    map[string]overloadSet
	builtins map[string]overloadSet
}

func newFuncTable(builtins map[string]overloadSet) *funcTable {
	return &funcTable{local: map[string]overloadSet{}, builtins: builtins}
}

func (f *funcTable) resolve(name string, params []Type) (FuncInfo, bool) {
	if set, ok := f.local[name]; ok {
		if fi, ok := set.find(params); ok {
			return fi, true
		}
	}
	if set, ok := f.builtins[name]; ok {
		return set.find(params)
	}
	return FuncInfo{}, false
}

// declare registers a user-defined function's signature, reporting false
// if an identical signature was already declared in this file.
func (f *funcTable) declare(fi FuncInfo) bool {
	if existing, ok := f.local[fi.Sig.Name]; ok {
		for _, o := range existing {
			if o.Sig.equal(fi.Sig) {
				return false
			}
		}
	}
	f.local[fi.Sig.Name] = append(f.local[fi.Sig.Name], fi)
	return true
}
