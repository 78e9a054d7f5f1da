package sema

import (
	"github.com/papyrus-lang/papyrus/ast"
	"github.com/papyrus-lang/papyrus/internal/diag"
	"github.com/papyrus-lang/papyrus/lexer"
	"github.com/papyrus-lang/papyrus/parser"
	"github.com/papyrus-lang/papyrus/token"
)

// Validator walks a Papyrus AST forest, threading an Environment (§4.3). It
// recursively validates imports, so one Validator call can produce an
// entire Program from a single entry path.
type Validator struct {
	env    *Environment
	loader Loader
	bag    *diag.Bag
}

// New creates a Validator reading source files through loader.
func New(loader Loader) *Validator {
	return &Validator{env: NewDefaultEnvironment(), loader: loader, bag: diag.NewBag()}
}

// ValidateEntry validates path and every file it transitively imports,
// returning the assembled Program. On any diagnostic it returns a nil
// Program and the Bag describing every error found.
func (v *Validator) ValidateEntry(path string) (*Program, *diag.Bag) {
	abs := canonicalPath(path)
	v.validateFile(abs, diag.Location{File: path})

	if v.bag.HasErrors() {
		return nil, v.bag
	}
	return &Program{EntryPath: abs, Order: v.env.order, Units: v.env.units}, nil
}

// validateFile resolves, loads, lexes, parses, and validates one file,
// caching the result. reachedFrom is the location of the import statement
// that requested this file (for the entry file, a Location carrying only
// its path) — used to
// report both endpoints of a detected import cycle.
func (v *Validator) validateFile(path string, reachedFrom diag.Location) (*Unit, bool) {
	if u, ok := v.env.units[path]; ok {
		return u, true
	}
	if v.env.visiting[path] {
		origin := v.env.startLoc[path]
		v.bag.Errorf(origin, "circular import: %s", path)
		v.bag.Errorf(reachedFrom, "circular import: %s", path)
		return nil, false
	}

	v.env.visiting[path] = true
	v.env.startLoc[path] = reachedFrom
	defer delete(v.env.visiting, path)

	src, err := v.loader.Load(path)
	if err != nil {
		v.bag.Errorf(reachedFrom, "cannot read import %q: %v", path, err)
		return nil, false
	}

	tokens, lexBag := lexer.Lex(src, path)
	if lexBag != nil {
		v.bag.Merge(lexBag)
		return nil, false
	}

	forest, parseBag := parser.Parse(tokens)
	if parseBag != nil {
		v.bag.Merge(parseBag)
		return nil, false
	}

	u := &Unit{
		Path:    path,
		Forest:  forest,
		Aliases: map[string]string{},
		Types:   map[ast.Expr]Type{},
	}
	funcs := newFuncTable(v.env.builtins)
	root := newRootScope()

	fv := &fileValidator{v: v, unit: u, funcs: funcs, dir: dirOf(path)}
	fv.validateForest(forest, root)

	v.env.units[path] = u
	v.env.order = append(v.env.order, path)
	return u, true
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			if i == 0 {
				return path[:1] // root directory "/": keep the separator
			}
			return path[:i]
		}
	}
	return "."
}

// fileValidator holds the state local to validating a single file: its
// function table and import aliases, plus a back-reference to the shared
// Validator for diagnostics and recursive import validation.
type fileValidator struct {
	v     *Validator
	unit  *Unit
	funcs *funcTable
	dir   string
}

func (f *fileValidator) errf(loc diag.Location, format string, args ...any) {
	f.v.bag.Errorf(loc, format, args...)
}

// validateForest handles the top-level pass: only import, def, and pub def
// are legal at depth 0 (§4.3).
func (f *fileValidator) validateForest(forest []ast.Stmt, root *scope) {
	// Imports and function declarations are collected first so that a
	// function may reference another declared later in the file, and a
	// qualified call may reference an import declared later.
	for _, stmt := range forest {
		switch s := stmt.(type) {
		case *ast.ImportStmt:
			f.validateImport(s)
		case *ast.FuncDecl:
			f.declareFuncSignature(s)
		default:
			f.errf(stmt.Loc(), "only import and def statements are legal at the top level")
		}
	}
	for _, stmt := range forest {
		if fd, ok := stmt.(*ast.FuncDecl); ok {
			f.validateFuncBody(fd, root)
		}
	}
}

func (f *fileValidator) validateImport(s *ast.ImportStmt) {
	path, alias := resolveImportPath(f.dir, s.Path)
	if path == f.unit.Path {
		f.errf(s.Loc(), "a file cannot import itself")
		return
	}
	if _, dup := f.unit.Aliases[alias]; dup {
		f.errf(s.Loc(), "duplicate import alias %q", alias)
		return
	}
	imported, ok := f.v.validateFile(path, s.Loc())
	if !ok {
		return
	}
	f.unit.Aliases[alias] = path
	for _, fe := range imported.Functions {
		if fe.Info.Pub {
			f.funcs.local[alias+"."+fe.Info.Sig.Name] = append(
				f.funcs.local[alias+"."+fe.Info.Sig.Name], fe.Info)
		}
	}
}

// declareFuncSignature registers a function's signature (name, parameter
// types, return type) without yet validating its body, so forward
// references within the same file resolve.
func (f *fileValidator) declareFuncSignature(fd *ast.FuncDecl) {
	params := make([]Type, 0, len(fd.Params))
	ok := true
	for _, p := range fd.Params {
		t, known := lookupType(p.Type)
		if !known {
			f.errf(p.Location, "unknown type %q for parameter %q", p.Type, p.Name)
			ok = false
			continue
		}
		params = append(params, t)
	}
	ret := Void
	if fd.ReturnType != "" {
		t, known := lookupType(fd.ReturnType)
		if !known {
			f.errf(fd.Loc(), "unknown return type %q", fd.ReturnType)
			ok = false
		} else {
			ret = t
		}
	}
	if !ok {
		return
	}
	fi := FuncInfo{Sig: Signature{Name: fd.Name, Params: params}, Return: ret, Label: fd.Name, Pub: fd.Pub}
	if !f.funcs.declare(fi) {
		f.errf(fd.Loc(), "function %s already declared", fi.Sig)
		return
	}
	f.unit.Functions = append(f.unit.Functions, FuncEntry{Decl: fd, Info: fi})
}

// validateFuncBody validates a function's body in a fresh depth-1 scope
// with its parameters bound and the exit type set to its declared return
// (§4.3).
func (f *fileValidator) validateFuncBody(fd *ast.FuncDecl, root *scope) {
	body := root.child()
	body.hasExit = true
	ret := Void
	for _, fe := range f.unit.Functions {
		if fe.Decl == fd {
			ret = fe.Info.Return
			break
		}
	}
	body.exitType = ret

	for _, p := range fd.Params {
		t, known := lookupType(p.Type)
		if !known {
			continue // already reported in declareFuncSignature
		}
		body.declare(p.Name, t)
	}

	// fd.Body's statements are validated directly in `body` (not a further
	// child of it): the fresh depth-1 scope required by §4.3 already
	// carries the bound parameters, so the block itself must not deepen
	// past depth 1.
	for _, stmt := range fd.Body.Stmts {
		f.validateStmt(stmt, body)
	}

	if ret != Void {
		if len(fd.Body.Stmts) == 0 {
			f.errf(fd.Loc(), "function %q declares return type %s but its body never returns", fd.Name, ret)
			return
		}
		last := fd.Body.Stmts[len(fd.Body.Stmts)-1]
		if _, ok := last.(*ast.ReturnStmt); !ok {
			f.errf(last.Loc(), "the last statement of %q must be a return (declared return type %s)", fd.Name, ret)
		}
	}
}

// validateBlock validates each statement of a block in a child scope one
// depth deeper than parent.
func (f *fileValidator) validateBlock(b *ast.BlockStmt, parent *scope) {
	s := parent.child()
	for _, stmt := range b.Stmts {
		f.validateStmt(stmt, s)
	}
}

func (f *fileValidator) validateStmt(stmt ast.Stmt, s *scope) {
	switch n := stmt.(type) {
	case *ast.ImportStmt:
		f.errf(n.Loc(), "import is only legal at the top level")
	case *ast.FuncDecl:
		f.errf(n.Loc(), "def is only legal at the top level")
	case *ast.VarDecl:
		f.validateVarDecl(n, s)
	case *ast.AssignStmt:
		f.validateAssign(n, s)
	case *ast.ReturnStmt:
		f.validateReturn(n, s)
	case *ast.ExprStmt:
		f.validateCall(n.Call, s)
	case *ast.QualifiedCallStmt:
		f.validateQualifiedCall(n.Call, s)
	case *ast.IfStmt:
		f.validateIf(n, s)
	case *ast.WhileStmt:
		f.validateWhile(n, s)
	case *ast.SubcanvasStmt:
		f.validateSubcanvas(n, s)
	case *ast.TravelStmt:
		f.validateTravel(n, s)
	case *ast.BlockStmt:
		f.validateBlock(n, s)
	}
}

func (f *fileValidator) validateVarDecl(n *ast.VarDecl, s *scope) {
	declType, known := lookupType(n.Type)
	if !known {
		f.errf(n.Loc(), "unknown type %q", n.Type)
		return
	}
	if s.existsLocally(n.Name) {
		f.errf(n.Loc(), "variable %q already exists in scope", n.Name)
		return
	}
	if f.unit.Aliases != nil {
		if _, isAlias := f.unit.Aliases[n.Name]; isAlias {
			f.errf(n.Loc(), "variable %q collides with an import alias", n.Name)
			return
		}
	}
	if n.Value != nil {
		valType, ok := f.inferExpr(n.Value, s)
		if ok && valType != declType {
			f.errf(n.Value.Loc(), "cannot initialize %s variable %q with %s value", declType, n.Name, valType)
		}
	}
	s.declare(n.Name, declType)
}

func (f *fileValidator) validateAssign(n *ast.AssignStmt, s *scope) {
	binding, ok := s.lookup(n.Name)
	if !ok {
		f.errf(n.Loc(), "assignment to undeclared variable %q", n.Name)
		f.inferExpr(n.Value, s)
		return
	}
	valType, ok := f.inferExpr(n.Value, s)
	if ok && valType != binding.typ {
		f.errf(n.Value.Loc(), "cannot assign %s value to %s variable %q", valType, binding.typ, n.Name)
	}
}

func (f *fileValidator) validateReturn(n *ast.ReturnStmt, s *scope) {
	if !s.hasExit {
		f.errf(n.Loc(), "return is only legal inside a function body")
		return
	}
	if n.Value == nil {
		if s.exitType != Void {
			f.errf(n.Loc(), "bare return in function declared to return %s", s.exitType)
		}
		return
	}
	t, ok := f.inferExpr(n.Value, s)
	if ok && t != s.exitType {
		f.errf(n.Value.Loc(), "return type %s does not match declared return type %s", t, s.exitType)
	}
}

func (f *fileValidator) validateIf(n *ast.IfStmt, s *scope) {
	if t, ok := f.inferExpr(n.Cond, s); ok && t != Bool {
		f.errf(n.Cond.Loc(), "if condition must be bool, got %s", t)
	}
	f.validateBlock(n.Then, s)
	switch e := n.Else.(type) {
	case nil:
	case *ast.IfStmt:
		f.validateIf(e, s)
	case *ast.BlockStmt:
		f.validateBlock(e, s)
	}
}

func (f *fileValidator) validateWhile(n *ast.WhileStmt, s *scope) {
	if t, ok := f.inferExpr(n.Cond, s); ok && t != Bool {
		f.errf(n.Cond.Loc(), "while condition must be bool, got %s", t)
	}
	body := s.child()
	body.ctx[ctxWhile] = true
	for _, stmt := range n.Body.Stmts {
		f.validateStmt(stmt, body)
	}
}

func (f *fileValidator) validateSubcanvas(n *ast.SubcanvasStmt, s *scope) {
	if s.has(ctxTravel) {
		f.errf(n.Loc(), "subcanvas is forbidden inside travel")
	}
	for _, arg := range []ast.Expr{n.OffsetX, n.OffsetY, n.Width, n.Height} {
		if t, ok := f.inferExpr(arg, s); ok && t != Int {
			f.errf(arg.Loc(), "subcanvas arguments must be int, got %s", t)
		}
	}
	body := s.child()
	body.ctx[ctxSubcanvas] = true
	for _, stmt := range n.Body.Stmts {
		f.validateStmt(stmt, body)
	}
}

func (f *fileValidator) validateTravel(n *ast.TravelStmt, s *scope) {
	if s.depth == 0 {
		f.errf(n.Loc(), "travel is illegal at the top level")
		return
	}
	body := s.child()
	body.ctx[ctxTravel] = true
	if body.existsLocally(n.XIdent) {
		f.errf(n.Loc(), "travel variable %q already exists in scope", n.XIdent)
	} else {
		body.declare(n.XIdent, Int)
	}
	if n.XIdent != n.YIdent {
		if body.existsLocally(n.YIdent) {
			f.errf(n.Loc(), "travel variable %q already exists in scope", n.YIdent)
		} else {
			body.declare(n.YIdent, Int)
		}
	}
	for _, stmt := range n.Body.Stmts {
		f.validateStmt(stmt, body)
	}
}

// validateCall validates a bare `ident(args)` call, used for its side
// effects; inside in_travel/in_subcanvas, create_canvas and save_canvas
// are forbidden (§4.3).
func (f *fileValidator) validateCall(n *ast.CallExpr, s *scope) (FuncInfo, bool) {
	argTypes := make([]Type, 0, len(n.Args))
	argsOK := true
	for _, a := range n.Args {
		t, ok := f.inferExpr(a, s)
		if !ok {
			argsOK = false
			continue
		}
		argTypes = append(argTypes, t)
	}
	if !argsOK {
		return FuncInfo{}, false
	}
	fi, ok := f.funcs.resolve(n.Callee, argTypes)
	if !ok {
		f.errf(n.Loc(), "no matching function %s(%s)", n.Callee, joinTypes(argTypes))
		return FuncInfo{}, false
	}
	if (s.has(ctxTravel) || s.has(ctxSubcanvas)) && (n.Callee == "create_canvas" || n.Callee == "save_canvas") {
		f.errf(n.Loc(), "%s is forbidden inside travel/subcanvas", n.Callee)
	}
	return fi, true
}

func (f *fileValidator) validateQualifiedCall(n *ast.QualifiedCallExpr, s *scope) (FuncInfo, bool) {
	if _, isAlias := f.unit.Aliases[n.Alias]; !isAlias {
		f.errf(n.Loc(), "unknown import alias %q", n.Alias)
		return FuncInfo{}, false
	}
	argTypes := make([]Type, 0, len(n.Call.Args))
	for _, a := range n.Call.Args {
		t, ok := f.inferExpr(a, s)
		if !ok {
			return FuncInfo{}, false
		}
		argTypes = append(argTypes, t)
	}
	fi, ok := f.funcs.resolve(n.Alias+"."+n.Call.Callee, argTypes)
	if !ok {
		f.errf(n.Loc(), "no matching public function %s.%s(%s)", n.Alias, n.Call.Callee, joinTypes(argTypes))
		return FuncInfo{}, false
	}
	return fi, true
}

func joinTypes(ts []Type) string {
	out := ""
	for i, t := range ts {
		if i > 0 {
			out += ", "
		}
		out += t.String()
	}
	return out
}

// inferExpr computes the type of expr, recording it in f.unit.Types. The
// bool result is false if the expression could not be typed (an error was
// already reported), letting callers skip cascading diagnostics.
func (f *fileValidator) inferExpr(expr ast.Expr, s *scope) (Type, bool) {
	t, ok := f.inferExprRaw(expr, s)
	if ok {
		f.unit.Types[expr] = t
	}
	return t, ok
}

func (f *fileValidator) inferExprRaw(expr ast.Expr, s *scope) (Type, bool) {
	switch n := expr.(type) {
	case *ast.IntLit:
		return Int, true
	case *ast.FloatLit:
		return Float, true
	case *ast.BoolLit:
		return Bool, true
	case *ast.HexLit:
		return Color, true
	case *ast.Ident:
		b, ok := s.lookup(n.Name)
		if !ok {
			f.errf(n.Loc(), "unknown identifier %q", n.Name)
			return 0, false
		}
		return b.typ, true
	case *ast.ParenExpr:
		return f.inferExpr(n.Inner, s)
	case *ast.UnaryExpr:
		return f.inferUnary(n, s)
	case *ast.BinaryExpr:
		return f.inferBinary(n, s)
	case *ast.CallExpr:
		fi, ok := f.validateCall(n, s)
		if !ok {
			return 0, false
		}
		return fi.Return, true
	case *ast.QualifiedCallExpr:
		fi, ok := f.validateQualifiedCall(n, s)
		if !ok {
			return 0, false
		}
		return fi.Return, true
	}
	return 0, false
}

func (f *fileValidator) inferUnary(n *ast.UnaryExpr, s *scope) (Type, bool) {
	t, ok := f.inferExpr(n.Operand, s)
	if !ok {
		return 0, false
	}
	switch n.Op {
	case token.Not:
		if t != Bool {
			f.errf(n.Loc(), "unary ! requires bool, got %s", t)
			return 0, false
		}
		return Bool, true
	case token.Minus:
		if t != Int && t != Float {
			f.errf(n.Loc(), "unary - requires int or float, got %s", t)
			return 0, false
		}
		return t, true
	}
	return 0, false
}

// inferBinary implements the table-driven expression typing of §4.3.
func (f *fileValidator) inferBinary(n *ast.BinaryExpr, s *scope) (Type, bool) {
	lt, lok := f.inferExpr(n.Left, s)
	rt, rok := f.inferExpr(n.Right, s)
	if !lok || !rok {
		return 0, false
	}

	switch n.Op {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Caret:
		switch {
		case lt == Int && rt == Int:
			return Int, true
		case lt == Float && rt == Float:
			return Float, true
		case (lt == Int && rt == Float) || (lt == Float && rt == Int):
			return Float, true
		}
		f.errf(n.Loc(), "operator %s requires numeric operands, got %s and %s", n.Op, lt, rt)
		return 0, false
	case token.Percent:
		if lt == Int && rt == Int {
			return Int, true
		}
		f.errf(n.Loc(), "operator %% requires int operands, got %s and %s", lt, rt)
		return 0, false
	case token.GT, token.LT, token.GE, token.LE:
		// Strict, non-mixed ordering comparisons (§9 design-note decision).
		if (lt == Int && rt == Int) || (lt == Float && rt == Float) {
			return Bool, true
		}
		f.errf(n.Loc(), "comparison %s requires matching int or float operands (no implicit promotion), got %s and %s", n.Op, lt, rt)
		return 0, false
	case token.Eq, token.NotEq:
		if lt == rt {
			return Bool, true
		}
		f.errf(n.Loc(), "%s requires operands of the same type, got %s and %s", n.Op, lt, rt)
		return 0, false
	case token.AndAnd, token.OrOr:
		if lt == Bool && rt == Bool {
			return Bool, true
		}
		f.errf(n.Loc(), "%s requires bool operands, got %s and %s", n.Op, lt, rt)
		return 0, false
	}
	return 0, false
}
