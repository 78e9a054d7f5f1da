package ir

import (
	"fmt"
	"math"

	"github.com/papyrus-lang/papyrus/ast"
	"github.com/papyrus-lang/papyrus/sema"
	"github.com/papyrus-lang/papyrus/token"
)

// Lower turns a validated Program into a Runtime: one Script per unit,
// entry script first. prog.Order is dependency-first (sema appends a path
// once its own imports have finished validating), which is exactly the
// order lowering needs: by the time a unit's qualified calls are lowered,
// every script it imports already has a complete function-label table.
func Lower(prog *sema.Program) (*Runtime, error) {
	allCtx := make(map[string]*Context, len(prog.Order))
	scripts := make(map[string]*Script, len(prog.Order))

	for _, path := range prog.Order {
		unit := prog.Units[path]
		ctx := newContext(path)
		allCtx[path] = ctx
		scripts[path] = lowerUnit(unit, ctx, allCtx)
	}

	entry, ok := scripts[prog.EntryPath]
	if !ok {
		return nil, fmt.Errorf("ir: entry script %q missing from validated program", prog.EntryPath)
	}

	rt := &Runtime{EntryPath: prog.EntryPath, Scripts: []Script{*entry}}
	for _, path := range prog.Order {
		if path == prog.EntryPath {
			continue
		}
		rt.Scripts = append(rt.Scripts, *scripts[path])
	}
	return rt, nil
}

// lowerUnit lowers one file's functions into a flat instruction stream.
// Labels are assigned to every function first (a two-pass split mirroring
// sema's own signature-then-body pass) so that a function may call a
// sibling declared later in the same file.
func lowerUnit(unit *sema.Unit, ctx *Context, allCtx map[string]*Context) *Script {
	labels := make([]string, len(unit.Functions))
	for i, fe := range unit.Functions {
		labels[i] = ctx.assignFuncLabel(fe.Info.Sig)
	}

	var program []Instruction
	for i, fe := range unit.Functions {
		program = append(program, lowerFuncBody(fe, labels[i], ctx, unit, allCtx)...)
	}
	return &Script{Path: unit.Path, Program: program}
}

// lowerFuncBody emits a function's Label, binds its parameters to
// registers 1..N in declaration order (the invariant CallInstr's argument
// copy-in relies on), lowers its body, and appends the closing Ret. A
// nested `return` only assigns _rt — it never jumps — so only the single
// trailing Ret here ever ends the frame, matching original_source's
// parse_return/parse_def split.
func lowerFuncBody(fe sema.FuncEntry, label string, ctx *Context, unit *sema.Unit, allCtx map[string]*Context) []Instruction {
	fs := &funcScope{
		ctx:      ctx,
		unit:     unit,
		allCtx:   allCtx,
		vars:     map[string]RegID{},
		regSeq:   1,
		fnLabel:  label,
		localSeq: map[string]int{},
	}

	instrs := []Instruction{LabelInstr{Name: label}}
	for _, p := range fe.Decl.Params {
		fs.bindVar(p.Name)
	}
	instrs = append(instrs, fs.lowerStmts(fe.Decl.Body.Stmts)...)
	instrs = append(instrs, RetInstr{})
	return instrs
}

// funcScope is the lowering state local to one function body: its register
// allocator, its variable->register table (flat, since the validator
// already rejects any name re-declared anywhere in the enclosing scope
// chain — see sema.scope.existsLocally), and its label allocator for
// nested control-flow labels (prefixed by the function's own label,
// mirroring original_source's per-function Context.top_function prefix).
type funcScope struct {
	ctx      *Context
	unit     *sema.Unit
	allCtx   map[string]*Context
	vars     map[string]RegID
	regSeq   uint32
	fnLabel  string
	localSeq map[string]int
}

func (fs *funcScope) newReg() RegID {
	id := RegID(fs.regSeq)
	fs.regSeq++
	return id
}

func (fs *funcScope) newTemp() RegID { return fs.newReg() }

func (fs *funcScope) bindVar(name string) RegID {
	id := fs.newReg()
	fs.vars[name] = id
	return id
}

// newLocalLabel allocates a label scoped to this function body, appending
// a numeric suffix on repeat use within the same function.
func (fs *funcScope) newLocalLabel(base string) string {
	full := fs.fnLabel + "_" + base
	n := fs.localSeq[base]
	fs.localSeq[base] = n + 1
	if n == 0 {
		return full
	}
	return fmt.Sprintf("%s%d", full, n)
}

func (fs *funcScope) typeOf(e ast.Expr) sema.Type {
	if t, ok := fs.unit.Types[e]; ok {
		return t
	}
	return sema.Void
}

// ---- statements ----

func (fs *funcScope) lowerStmts(stmts []ast.Stmt) []Instruction {
	var instrs []Instruction
	for _, s := range stmts {
		instrs = append(instrs, fs.lowerStmt(s)...)
	}
	return instrs
}

func (fs *funcScope) lowerStmt(stmt ast.Stmt) []Instruction {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		return fs.lowerVarDecl(n)
	case *ast.AssignStmt:
		return fs.lowerAssign(n)
	case *ast.ReturnStmt:
		return fs.lowerReturn(n)
	case *ast.ExprStmt:
		return fs.lowerCall(n.Call, "")
	case *ast.QualifiedCallStmt:
		return fs.lowerCall(n.Call.Call, n.Call.Alias)
	case *ast.IfStmt:
		return fs.lowerIf(n)
	case *ast.WhileStmt:
		return fs.lowerWhile(n)
	case *ast.SubcanvasStmt:
		return fs.lowerSubcanvas(n)
	case *ast.TravelStmt:
		return fs.lowerTravel(n)
	case *ast.BlockStmt:
		return fs.lowerStmts(n.Stmts)
	}
	return nil
}

// lowerVarDecl reserves a register for the binding and, for a value-less
// `ident : type ;`, emits nothing — the register exists but is never
// written until an assignment targets it.
func (fs *funcScope) lowerVarDecl(n *ast.VarDecl) []Instruction {
	reg := fs.bindVar(n.Name)
	if n.Value == nil {
		return nil
	}
	return fs.lowerInto(reg, n.Value)
}

// lowerAssign is the assignment fast path of §4.4: lowerInto already
// writes a leaf value straight to reg via one Copy, an operator expression
// straight to reg with no Copy at all, and a call result via one Copy
// from _rt.
func (fs *funcScope) lowerAssign(n *ast.AssignStmt) []Instruction {
	reg, ok := fs.vars[n.Name]
	if !ok {
		return nil // unreachable: the validator requires the name already bound
	}
	return fs.lowerInto(reg, n.Value)
}

// lowerReturn only assigns _rt; it never jumps. The enclosing function's
// single trailing Ret (see lowerFuncBody) is what actually ends the frame.
func (fs *funcScope) lowerReturn(n *ast.ReturnStmt) []Instruction {
	if n.Value == nil {
		return nil
	}
	return fs.lowerInto(RegReturn, n.Value)
}

// lowerIf lowers an if/else-if/else chain, sharing one "root_scope" join
// label across every arm (§4.4).
func (fs *funcScope) lowerIf(n *ast.IfStmt) []Instruction {
	root := fs.newLocalLabel("root_scope")
	instrs := fs.lowerIfChain(n, root)
	instrs = append(instrs, LabelInstr{Name: root})
	return instrs
}

func (fs *funcScope) lowerIfChain(n *ast.IfStmt, root string) []Instruction {
	condP, instrs := fs.lowerOperand(n.Cond)

	switch e := n.Else.(type) {
	case nil:
		instrs = append(instrs, JFInstr{Cond: condP, Target: root})
		instrs = append(instrs, fs.lowerStmts(n.Then.Stmts)...)
	case *ast.IfStmt:
		elif := fs.newLocalLabel("elif")
		instrs = append(instrs, JFInstr{Cond: condP, Target: elif})
		instrs = append(instrs, fs.lowerStmts(n.Then.Stmts)...)
		instrs = append(instrs, JumpInstr{Target: root})
		instrs = append(instrs, LabelInstr{Name: elif})
		instrs = append(instrs, fs.lowerIfChain(e, root)...)
	case *ast.BlockStmt:
		elseLbl := fs.newLocalLabel("else")
		instrs = append(instrs, JFInstr{Cond: condP, Target: elseLbl})
		instrs = append(instrs, fs.lowerStmts(n.Then.Stmts)...)
		instrs = append(instrs, JumpInstr{Target: root})
		instrs = append(instrs, LabelInstr{Name: elseLbl})
		instrs = append(instrs, fs.lowerStmts(e.Stmts)...)
	}
	return instrs
}

func (fs *funcScope) lowerWhile(n *ast.WhileStmt) []Instruction {
	start := fs.newLocalLabel("while")
	end := "end_" + start

	instrs := []Instruction{LabelInstr{Name: start}}
	condP, condInstrs := fs.lowerOperand(n.Cond)
	instrs = append(instrs, condInstrs...)
	instrs = append(instrs, JFInstr{Cond: condP, Target: end})
	instrs = append(instrs, fs.lowerStmts(n.Body.Stmts)...)
	instrs = append(instrs, JumpInstr{Target: start})
	instrs = append(instrs, LabelInstr{Name: end})
	return instrs
}

func (fs *funcScope) lowerSubcanvas(n *ast.SubcanvasStmt) []Instruction {
	xP, xI := fs.lowerOperand(n.OffsetX)
	yP, yI := fs.lowerOperand(n.OffsetY)
	wP, wI := fs.lowerOperand(n.Width)
	hP, hI := fs.lowerOperand(n.Height)

	var instrs []Instruction
	instrs = append(instrs, xI...)
	instrs = append(instrs, yI...)
	instrs = append(instrs, wI...)
	instrs = append(instrs, hI...)
	instrs = append(instrs, PushInstr{Width: wP, Height: hP})
	instrs = append(instrs, fs.lowerStmts(n.Body.Stmts)...)
	instrs = append(instrs, MergeInstr{OffsetX: xP, OffsetY: yP})
	return instrs
}

// lowerTravel is the supplemented statement's lowering (SPEC_FULL.md): two
// nested while-shaped loops over the active canvas's Height/Width, binding
// the loop counters to n.YIdent/n.XIdent. No new opcode is needed.
func (fs *funcScope) lowerTravel(n *ast.TravelStmt) []Instruction {
	heightReg := fs.newTemp()
	widthReg := fs.newTemp()
	instrs := []Instruction{
		HeightInstr{Dst: heightReg},
		WidthInstr{Dst: widthReg},
	}

	yReg := fs.bindVar(n.YIdent)
	xReg := fs.bindVar(n.XIdent)

	instrs = append(instrs, CopyInstr{Src: Val(0), Dst: yReg})
	yLoop := fs.newLocalLabel("travel_y")
	yEnd := "end_" + yLoop
	instrs = append(instrs, LabelInstr{Name: yLoop})
	yCond := fs.newTemp()
	instrs = append(instrs, CompareInstr{Op: CmpLT, A: Reg(yReg), B: Reg(heightReg), Dst: yCond})
	instrs = append(instrs, JFInstr{Cond: Reg(yCond), Target: yEnd})

	instrs = append(instrs, CopyInstr{Src: Val(0), Dst: xReg})
	xLoop := fs.newLocalLabel("travel_x")
	xEnd := "end_" + xLoop
	instrs = append(instrs, LabelInstr{Name: xLoop})
	xCond := fs.newTemp()
	instrs = append(instrs, CompareInstr{Op: CmpLT, A: Reg(xReg), B: Reg(widthReg), Dst: xCond})
	instrs = append(instrs, JFInstr{Cond: Reg(xCond), Target: xEnd})

	instrs = append(instrs, fs.lowerStmts(n.Body.Stmts)...)

	instrs = append(instrs, ArithInstr{Op: ArithAdd, A: Reg(xReg), B: Val(1), Dst: xReg})
	instrs = append(instrs, JumpInstr{Target: xLoop})
	instrs = append(instrs, LabelInstr{Name: xEnd})

	instrs = append(instrs, ArithInstr{Op: ArithAdd, A: Reg(yReg), B: Val(1), Dst: yReg})
	instrs = append(instrs, JumpInstr{Target: yLoop})
	instrs = append(instrs, LabelInstr{Name: yEnd})

	return instrs
}

// ---- calls ----

// lowerCall lowers a call's arguments then dispatches: a built-in name
// maps to a dedicated opcode writing into _rt (§4.4's mapping table);
// anything else becomes Call to a user-defined function's label, prefixed
// with an Import pseudo-instruction when alias is non-empty.
func (fs *funcScope) lowerCall(n *ast.CallExpr, alias string) []Instruction {
	params, instrs := fs.lowerArgs(n.Args)

	switch n.Callee {
	case "create_canvas":
		return append(instrs, PushInstr{Width: params[0], Height: params[1]})
	case "save_canvas":
		return append(instrs, SaveInstr{}, PopInstr{})
	case "put":
		return append(instrs, PutInstr{X: params[0], Y: params[1], Color: params[2]})
	case "fill":
		return append(instrs, FillInstr{Color: params[0]})
	case "int":
		return append(instrs, ConvertInstr{Op: ConvertInt, A: params[0], Dst: RegReturn})
	case "float":
		return append(instrs, ConvertInstr{Op: ConvertFlt, A: params[0], Dst: RegReturn})
	case "sample":
		return append(instrs, SampleInstr{X: params[0], Y: params[1], Dst: RegReturn})
	case "width":
		return append(instrs, WidthInstr{Dst: RegReturn})
	case "height":
		return append(instrs, HeightInstr{Dst: RegReturn})
	case "red":
		return append(instrs, ChannelInstr{Op: ChannelRed, Color: params[0], Dst: RegReturn})
	case "green":
		return append(instrs, ChannelInstr{Op: ChannelGreen, Color: params[0], Dst: RegReturn})
	case "blue":
		return append(instrs, ChannelInstr{Op: ChannelBlue, Color: params[0], Dst: RegReturn})
	case "alpha":
		return append(instrs, ChannelInstr{Op: ChannelAlpha, Color: params[0], Dst: RegReturn})
	case "rgba":
		return append(instrs, RGBAInstr{R: params[0], G: params[1], B: params[2], A: params[3], Dst: RegReturn})
	}

	argTypes := make([]sema.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = fs.typeOf(a)
	}
	sig := sema.Signature{Name: n.Callee, Params: argTypes}

	if alias != "" {
		path := fs.unit.Aliases[alias]
		label, _ := fs.allCtx[path].labelFor(sig)
		instrs = append(instrs, ImportInstr{Path: path, Alias: alias})
		instrs = append(instrs, CallInstr{Target: alias + "." + label, Args: params})
		return instrs
	}

	label, _ := fs.ctx.labelFor(sig)
	return append(instrs, CallInstr{Target: label, Args: params})
}

func (fs *funcScope) lowerArgs(args []ast.Expr) ([]Param, []Instruction) {
	params := make([]Param, len(args))
	var instrs []Instruction
	for i, a := range args {
		p, ai := fs.lowerOperand(a)
		instrs = append(instrs, ai...)
		params[i] = p
	}
	return params, instrs
}

// ---- expressions ----

// lowerOperand evaluates e into a Param usable as an instruction operand:
// directly, with no instructions, for a leaf; via a fresh temporary
// otherwise.
func (fs *funcScope) lowerOperand(e ast.Expr) (Param, []Instruction) {
	if p, ok := fs.paramOf(e); ok {
		return p, nil
	}
	t := fs.newTemp()
	return Reg(t), fs.lowerInto(t, e)
}

// paramOf converts a leaf expression directly to a Param with no emitted
// instructions (§4.4: "Literals become Param::Value(bit_pattern) directly
// without emitting instructions").
func (fs *funcScope) paramOf(e ast.Expr) (Param, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return Val(uint32(int32(n.Value))), true
	case *ast.FloatLit:
		return Val(math.Float32bits(float32(n.Value))), true
	case *ast.BoolLit:
		if n.Value {
			return Val(1), true
		}
		return Val(0), true
	case *ast.HexLit:
		return Val((n.RGB << 8) | 0xFF), true
	case *ast.Ident:
		reg, ok := fs.vars[n.Name]
		if !ok {
			return nil, false
		}
		return Reg(reg), true
	case *ast.ParenExpr:
		return fs.paramOf(n.Inner)
	}
	return nil, false
}

// lowerInto lowers e so its value ends up in dst: a single Copy for a
// leaf, a direct write for a compound expression (the assignment fast
// path of §4.4), or a Call followed by a Copy from _rt for a call result.
func (fs *funcScope) lowerInto(dst RegID, e ast.Expr) []Instruction {
	if p, ok := fs.paramOf(e); ok {
		return []Instruction{CopyInstr{Src: p, Dst: dst}}
	}
	switch n := e.(type) {
	case *ast.ParenExpr:
		return fs.lowerInto(dst, n.Inner)
	case *ast.UnaryExpr:
		return fs.lowerUnaryInto(dst, n)
	case *ast.BinaryExpr:
		return fs.lowerBinaryInto(dst, n)
	case *ast.CallExpr:
		instrs := fs.lowerCall(n, "")
		if dst != RegReturn {
			instrs = append(instrs, CopyInstr{Src: Reg(RegReturn), Dst: dst})
		}
		return instrs
	case *ast.QualifiedCallExpr:
		instrs := fs.lowerCall(n.Call, n.Alias)
		if dst != RegReturn {
			instrs = append(instrs, CopyInstr{Src: Reg(RegReturn), Dst: dst})
		}
		return instrs
	}
	return nil
}

func (fs *funcScope) lowerUnaryInto(dst RegID, n *ast.UnaryExpr) []Instruction {
	p, instrs := fs.lowerOperand(n.Operand)
	switch n.Op {
	case token.Not:
		instrs = append(instrs, NotInstr{A: p, Dst: dst})
	case token.Minus:
		instrs = append(instrs, NegInstr{Float: fs.typeOf(n.Operand) == sema.Float, A: p, Dst: dst})
	}
	return instrs
}

func (fs *funcScope) lowerBinaryInto(dst RegID, n *ast.BinaryExpr) []Instruction {
	leftP, leftInstrs := fs.lowerOperand(n.Left)
	rightP, rightInstrs := fs.lowerOperand(n.Right)
	instrs := append(leftInstrs, rightInstrs...)
	return append(instrs, fs.emitBinary(n.Op, leftP, fs.typeOf(n.Left), rightP, fs.typeOf(n.Right), dst)...)
}

func (fs *funcScope) emitBinary(op token.Kind, a Param, at sema.Type, b Param, bt sema.Type, dst RegID) []Instruction {
	switch op {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Caret:
		return fs.emitArith(op, a, at, b, bt, dst)
	case token.Percent:
		return []Instruction{ArithInstr{Op: ArithMod, A: a, B: b, Dst: dst}}
	case token.GT, token.LT, token.GE, token.LE:
		return []Instruction{CompareInstr{Op: cmpOpFor(op, at == sema.Float), A: a, B: b, Dst: dst}}
	case token.Eq:
		return []Instruction{CompareInstr{Op: CmpEq, A: a, B: b, Dst: dst}}
	case token.NotEq:
		return []Instruction{CompareInstr{Op: CmpNE, A: a, B: b, Dst: dst}}
	case token.AndAnd:
		return []Instruction{LogicInstr{Op: LogicAnd, A: a, B: b, Dst: dst}}
	case token.OrOr:
		return []Instruction{LogicInstr{Op: LogicOr, A: a, B: b, Dst: dst}}
	}
	return nil
}

// emitArith implements the implicit Int->Float promotion of §4.4: a
// mixed-type pair gets the Int side converted into a fresh temporary with
// Flt before the float-typed op runs.
func (fs *funcScope) emitArith(op token.Kind, a Param, at sema.Type, b Param, bt sema.Type, dst RegID) []Instruction {
	intOp, floatOp := arithOpsFor(op)
	switch {
	case at == sema.Int && bt == sema.Int:
		return []Instruction{ArithInstr{Op: intOp, A: a, B: b, Dst: dst}}
	case at == sema.Float && bt == sema.Float:
		return []Instruction{ArithInstr{Op: floatOp, A: a, B: b, Dst: dst}}
	case at == sema.Int && bt == sema.Float:
		promoted := fs.newTemp()
		return []Instruction{
			ConvertInstr{Op: ConvertFlt, A: a, Dst: promoted},
			ArithInstr{Op: floatOp, A: Reg(promoted), B: b, Dst: dst},
		}
	default: // Float, Int
		promoted := fs.newTemp()
		return []Instruction{
			ConvertInstr{Op: ConvertFlt, A: b, Dst: promoted},
			ArithInstr{Op: floatOp, A: a, B: Reg(promoted), Dst: dst},
		}
	}
}

func arithOpsFor(op token.Kind) (intOp, floatOp ArithOp) {
	switch op {
	case token.Plus:
		return ArithAdd, ArithAddF
	case token.Minus:
		return ArithSub, ArithSubF
	case token.Star:
		return ArithMul, ArithMulF
	case token.Slash:
		return ArithDiv, ArithDivF
	case token.Caret:
		return ArithPow, ArithPowF
	}
	return ArithAdd, ArithAddF
}

func cmpOpFor(op token.Kind, floaty bool) CompareOp {
	switch op {
	case token.GT:
		if floaty {
			return CmpGTF
		}
		return CmpGT
	case token.LT:
		if floaty {
			return CmpLTF
		}
		return CmpLT
	case token.GE:
		if floaty {
			return CmpGEF
		}
		return CmpGE
	case token.LE:
		if floaty {
			return CmpLEF
		}
		return CmpLE
	}
	return CmpEq
}
