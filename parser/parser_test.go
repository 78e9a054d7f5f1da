package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/papyrus-lang/papyrus/ast"
	"github.com/papyrus-lang/papyrus/lexer"
	"github.com/papyrus-lang/papyrus/token"
)

func parseSrc(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	tokens, lexBag := lexer.Lex(src, "test.pprs")
	assert.Nil(t, lexBag)
	stmts, parseBag := Parse(tokens)
	assert.Nil(t, parseBag)
	return stmts
}

func TestParse_VarDeclWithIntValue(t *testing.T) {
	stmts := parseSrc(t, `x : int = 12;`)
	assert.Equal(t, 1, len(stmts))

	decl, ok := stmts[0].(*ast.VarDecl)
	assert.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.Equal(t, "int", decl.Type)

	lit, ok := decl.Value.(*ast.IntLit)
	assert.True(t, ok)
	assert.Equal(t, int64(12), lit.Value)
}

func TestParse_AdditionIsLeftAssociative(t *testing.T) {
	stmts := parseSrc(t, `x = 1 + 2 + 3;`)
	assign, ok := stmts[0].(*ast.AssignStmt)
	assert.True(t, ok)

	top, ok := assign.Value.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.Plus, top.Op)

	right, ok := top.Right.(*ast.IntLit)
	assert.True(t, ok)
	assert.Equal(t, int64(3), right.Value)

	left, ok := top.Left.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.Plus, left.Op)
	leftLeft, ok := left.Left.(*ast.IntLit)
	assert.True(t, ok)
	assert.Equal(t, int64(1), leftLeft.Value)
}

func TestParse_MultiplicationBindsTighterThanAddition(t *testing.T) {
	stmts := parseSrc(t, `x = 2 + 3 * 4;`)
	assign := stmts[0].(*ast.AssignStmt)

	top, ok := assign.Value.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.Plus, top.Op)

	left, ok := top.Left.(*ast.IntLit)
	assert.True(t, ok)
	assert.Equal(t, int64(2), left.Value)

	right, ok := top.Right.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.Star, right.Op)
}

func TestParse_ComparisonBindsLooserThanAdditive(t *testing.T) {
	stmts := parseSrc(t, `x = a + 1 > b - 1;`)
	assign := stmts[0].(*ast.AssignStmt)

	top, ok := assign.Value.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.GT, top.Op)
	_, ok = top.Left.(*ast.BinaryExpr)
	assert.True(t, ok)
	_, ok = top.Right.(*ast.BinaryExpr)
	assert.True(t, ok)
}

func TestParse_UnaryBangSwallowsAdditiveOperand(t *testing.T) {
	// !a + b groups as !(a + b): unary binds at precedence 5, looser than
	// `+` (6), so its operand consumes the whole additive expression.
	stmts := parseSrc(t, `x = !a + b;`)
	assign := stmts[0].(*ast.AssignStmt)

	unary, ok := assign.Value.(*ast.UnaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.Not, unary.Op)

	inner, ok := unary.Operand.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.Plus, inner.Op)
}

func TestParse_UnaryStillCombinesWithLooserOperators(t *testing.T) {
	// a || !b: unary's tight operand precedence must not swallow `||`.
	stmts := parseSrc(t, `x = a || !b;`)
	assign := stmts[0].(*ast.AssignStmt)

	top, ok := assign.Value.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.OrOr, top.Op)
	_, ok = top.Right.(*ast.UnaryExpr)
	assert.True(t, ok)
}

func TestParse_ParenOverridesPrecedence(t *testing.T) {
	stmts := parseSrc(t, `x = (2 + 3) * 4;`)
	assign := stmts[0].(*ast.AssignStmt)

	top, ok := assign.Value.(*ast.BinaryExpr)
	assert.True(t, ok)
	assert.Equal(t, token.Star, top.Op)

	paren, ok := top.Left.(*ast.ParenExpr)
	assert.True(t, ok)
	_, ok = paren.Inner.(*ast.BinaryExpr)
	assert.True(t, ok)
}

func TestParse_BareCallStatement(t *testing.T) {
	stmts := parseSrc(t, `put(x, y, #ff00aa);`)
	exprStmt, ok := stmts[0].(*ast.ExprStmt)
	assert.True(t, ok)
	assert.Equal(t, "put", exprStmt.Call.Callee)
	assert.Equal(t, 3, len(exprStmt.Call.Args))

	hex, ok := exprStmt.Call.Args[2].(*ast.HexLit)
	assert.True(t, ok)
	assert.Equal(t, uint32(0xff00aa), hex.RGB)
}

func TestParse_QualifiedCallStatement(t *testing.T) {
	stmts := parseSrc(t, `shapes.draw_circle(10, 10, 5);`)
	qc, ok := stmts[0].(*ast.QualifiedCallStmt)
	assert.True(t, ok)
	assert.Equal(t, "shapes", qc.Call.Alias)
	assert.Equal(t, "draw_circle", qc.Call.Call.Callee)
}

func TestParse_QualifiedCallRequiresBareIdentOnLeft(t *testing.T) {
	tokens, lexBag := lexer.Lex(`x = 5 . foo();`, "test.pprs")
	assert.Nil(t, lexBag)
	stmts, bag := Parse(tokens)
	assert.Nil(t, stmts)
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestParse_FuncDeclWithParamsAndReturnType(t *testing.T) {
	stmts := parseSrc(t, `pub def add(a: int, b: int): int { return a + b; }`)
	fn, ok := stmts[0].(*ast.FuncDecl)
	assert.True(t, ok)
	assert.True(t, fn.Pub)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "int", fn.ReturnType)
	assert.Equal(t, 2, len(fn.Params))
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "int", fn.Params[0].Type)
	assert.Equal(t, 1, len(fn.Body.Stmts))
}

func TestParse_IfElseIfElseChain(t *testing.T) {
	stmts := parseSrc(t, `if (a > b) { x = 1; } else if (a < b) { x = 2; } else { x = 3; }`)
	ifStmt, ok := stmts[0].(*ast.IfStmt)
	assert.True(t, ok)

	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	assert.True(t, ok)

	final, ok := elseIf.Else.(*ast.BlockStmt)
	assert.True(t, ok)
	assert.Equal(t, 1, len(final.Stmts))
}

func TestParse_WhileLoop(t *testing.T) {
	stmts := parseSrc(t, `while (i < 10) { i = i + 1; }`)
	w, ok := stmts[0].(*ast.WhileStmt)
	assert.True(t, ok)
	assert.Equal(t, 1, len(w.Body.Stmts))
}

func TestParse_SubcanvasRequiresFourArgs(t *testing.T) {
	tokens, lexBag := lexer.Lex(`subcanvas(0, 0, 10) { }`, "test.pprs")
	assert.Nil(t, lexBag)
	stmts, bag := Parse(tokens)
	assert.Nil(t, stmts)
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestParse_SubcanvasFourArgs(t *testing.T) {
	stmts := parseSrc(t, `subcanvas(0, 0, w, h) { put(0, 0, #000000); }`)
	sc, ok := stmts[0].(*ast.SubcanvasStmt)
	assert.True(t, ok)
	_, ok = sc.Width.(*ast.Ident)
	assert.True(t, ok)
	assert.Equal(t, 1, len(sc.Body.Stmts))
}

func TestParse_TravelStatement(t *testing.T) {
	stmts := parseSrc(t, `travel(px, py) { put(px, py, #ffffff); }`)
	tr, ok := stmts[0].(*ast.TravelStmt)
	assert.True(t, ok)
	assert.Equal(t, "px", tr.XIdent)
	assert.Equal(t, "py", tr.YIdent)
	assert.Equal(t, 1, len(tr.Body.Stmts))
}

func TestParse_ImportStatement(t *testing.T) {
	stmts := parseSrc(t, `import "shapes.pprs";`)
	imp, ok := stmts[0].(*ast.ImportStmt)
	assert.True(t, ok)
	assert.Equal(t, "shapes.pprs", imp.Path)
}

func TestParse_IllegalTokenInExpressionIsError(t *testing.T) {
	tokens, lexBag := lexer.Lex(`x = if;`, "test.pprs")
	assert.Nil(t, lexBag)
	stmts, bag := Parse(tokens)
	assert.Nil(t, stmts)
	assert.NotNil(t, bag)
	assert.True(t, bag.HasErrors())
}

func TestParse_MultipleErrorsAccumulateAcrossStatements(t *testing.T) {
	tokens, lexBag := lexer.Lex("x = ;\ny = ;\n", "test.pprs")
	assert.Nil(t, lexBag)
	stmts, bag := Parse(tokens)
	assert.Nil(t, stmts)
	assert.NotNil(t, bag)
	assert.True(t, bag.Len() >= 2)
}

func TestParse_ReturnWithNoValue(t *testing.T) {
	stmts := parseSrc(t, `def noop() { return; }`)
	fn := stmts[0].(*ast.FuncDecl)
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	assert.True(t, ok)
	assert.Nil(t, ret.Value)
}
