// Package parser turns a Papyrus token stream into a forest of statement
// ASTs. It is grounded on the teacher's Pratt-parser package
// (github.com/akashmaji946/go-mix/parser): a Parser struct that tracks a
// current/lookahead token pair over a flat token slice, a top-level
// dispatch switch keyed on the leading token kind, and error accumulation
// that lets parsing continue past a bad token instead of aborting (the
// teacher's parser.go doc comment: "Error collection (doesn't panic on
// first error)").
package parser

import (
	"strconv"

	"github.com/papyrus-lang/papyrus/ast"
	"github.com/papyrus-lang/papyrus/internal/diag"
	"github.com/papyrus-lang/papyrus/token"
)

// Parser holds the parsing state: the token slice and a cursor into it.
type Parser struct {
	tokens []token.Token
	pos    int
	bag    *diag.Bag
}

func newParser(tokens []token.Token, bag *diag.Bag) *Parser {
	return &Parser{tokens: tokens, pos: 0, bag: bag}
}

// Parse parses a complete token stream (as produced by lexer.Lex) into a
// forest of top-level statement ASTs. On any syntactic error it returns a
// nil forest and a Bag describing every error found — the parser keeps
// going past each bad token so multiple errors surface in one pass (§4.2
// failure mode), but the overall result is discarded if any error
// occurred.
func Parse(tokens []token.Token) ([]ast.Stmt, *diag.Bag) {
	bag := diag.NewBag()
	p := newParser(tokens, bag)

	var stmts []ast.Stmt
	for !p.atEnd() {
		start := p.pos
		stmt := p.parseStatement(true)
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == start {
			// parseStatement made no progress (an error on the very first
			// token of the attempt): force progress to avoid looping.
			p.advance()
		}
	}

	if bag.HasErrors() {
		return nil, bag
	}
	return stmts, nil
}

func (p *Parser) atEnd() bool {
	return p.cur().Kind == token.EOF
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.cur().Kind == kind
}

// expect consumes the current token if it matches kind, reporting a
// located diagnostic and returning ok=false otherwise. The cursor does not
// advance on mismatch; Parse and parseBlock force one token of progress
// when a statement attempt consumed nothing.
func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	tok := p.cur()
	if tok.Kind != kind {
		p.bag.Errorf(tok.Location, "expected %q but got %q", kind, tok.Kind)
		return tok, false
	}
	return p.advance(), true
}

// parseStatement dispatches on the leading token. semicolonTerminated
// mirrors the teacher/spec parameter of the same name: it is irrelevant
// here since every call site for a semicolon-terminated form is a
// statement-level call, and it is accepted but not read or passed on.
func (p *Parser) parseStatement(semicolonTerminated bool) ast.Stmt {
	switch p.cur().Kind {
	case token.Import:
		return p.parseImport()
	case token.Pub:
		return p.parseFuncDecl(true)
	case token.Def:
		return p.parseFuncDecl(false)
	case token.Return:
		return p.parseReturn()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.Subcanvas:
		return p.parseSubcanvas()
	case token.Travel:
		return p.parseTravel()
	case token.Ident:
		return p.parseIdentStatement()
	default:
		tok := p.advance()
		p.bag.Errorf(tok.Location, "unexpected token %q at start of statement", tok.Literal)
		return nil
	}
}

// parseBlock parses a `{ ... }` delimited, semicolon-terminated statement
// sequence.
func (p *Parser) parseBlock() *ast.BlockStmt {
	open, ok := p.expect(token.LBrace)
	if !ok {
		return nil
	}
	block := &ast.BlockStmt{}
	block.Location = open.Location

	for !p.check(token.RBrace) && !p.atEnd() {
		start := p.pos
		stmt := p.parseStatement(true)
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.pos == start {
			p.advance()
		}
	}
	p.expect(token.RBrace)
	return block
}

func (p *Parser) parseImport() ast.Stmt {
	tok := p.advance() // 'import'
	pathTok, ok := p.expect(token.String)
	if !ok {
		return nil
	}
	p.expect(token.Semicolon)
	return &ast.ImportStmt{Pos: at(tok.Location), Path: pathTok.Literal}
}

func (p *Parser) parseFuncDecl(pub bool) ast.Stmt {
	start := p.cur()
	if pub {
		p.advance() // 'pub'
		if !p.check(token.Def) {
			tok := p.cur()
			p.bag.Errorf(tok.Location, "only 'def' may be marked 'pub'")
			return nil
		}
	}
	p.advance() // 'def'

	nameTok, ok := p.expect(token.Ident)
	if !ok {
		return nil
	}

	if _, ok := p.expect(token.LParen); !ok {
		return nil
	}

	var params []ast.Param
	for !p.check(token.RParen) && !p.atEnd() {
		pTok, ok := p.expect(token.Ident)
		if !ok {
			return nil
		}
		if _, ok := p.expect(token.Colon); !ok {
			return nil
		}
		typeTok, ok := p.expect(token.Ident)
		if !ok {
			return nil
		}
		params = append(params, ast.Param{Name: pTok.Literal, Type: typeTok.Literal, Location: pTok.Location})
		if p.check(token.Comma) {
			p.advance()
		}
	}
	if _, ok := p.expect(token.RParen); !ok {
		return nil
	}

	returnType := ""
	if p.check(token.Colon) {
		p.advance()
		typeTok, ok := p.expect(token.Ident)
		if !ok {
			return nil
		}
		returnType = typeTok.Literal
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.FuncDecl{
		Pos:        at(start.Location),
		Pub:        pub,
		Name:       nameTok.Literal,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
	}
}

func (p *Parser) parseReturn() ast.Stmt {
	tok := p.advance() // 'return'
	var value ast.Expr
	if !p.check(token.Semicolon) {
		value = p.parseExpr(0)
	}
	p.expect(token.Semicolon)
	return &ast.ReturnStmt{Pos: at(tok.Location), Value: value}
}

func (p *Parser) parseIf() ast.Stmt {
	tok := p.advance() // 'if'
	if _, ok := p.expect(token.LParen); !ok {
		return nil
	}
	cond := p.parseExpr(0)
	if _, ok := p.expect(token.RParen); !ok {
		return nil
	}
	then := p.parseBlock()
	if then == nil {
		return nil
	}

	var elseStmt ast.Stmt
	if p.check(token.Else) {
		p.advance()
		if p.check(token.If) {
			elseStmt = p.parseIf()
		} else {
			elseStmt = p.parseBlock()
		}
	}

	return &ast.IfStmt{Pos: at(tok.Location), Cond: cond, Then: then, Else: elseStmt}
}

func (p *Parser) parseWhile() ast.Stmt {
	tok := p.advance() // 'while'
	if _, ok := p.expect(token.LParen); !ok {
		return nil
	}
	cond := p.parseExpr(0)
	if _, ok := p.expect(token.RParen); !ok {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{Pos: at(tok.Location), Cond: cond, Body: body}
}

func (p *Parser) parseSubcanvas() ast.Stmt {
	tok := p.advance() // 'subcanvas'
	if _, ok := p.expect(token.LParen); !ok {
		return nil
	}
	args := p.parseExprList(token.RParen)
	if _, ok := p.expect(token.RParen); !ok {
		return nil
	}
	if len(args) != 4 {
		p.bag.Errorf(tok.Location, "subcanvas expects 4 arguments (offset_x, offset_y, width, height), got %d", len(args))
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.SubcanvasStmt{
		Pos:     at(tok.Location),
		OffsetX: args[0], OffsetY: args[1], Width: args[2], Height: args[3],
		Body: body,
	}
}

func (p *Parser) parseTravel() ast.Stmt {
	tok := p.advance() // 'travel'
	if _, ok := p.expect(token.LParen); !ok {
		return nil
	}
	xTok, ok := p.expect(token.Ident)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.Comma); !ok {
		return nil
	}
	yTok, ok := p.expect(token.Ident)
	if !ok {
		return nil
	}
	if _, ok := p.expect(token.RParen); !ok {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.TravelStmt{Pos: at(tok.Location), XIdent: xTok.Literal, YIdent: yTok.Literal, Body: body}
}

// parseIdentStatement disambiguates the five ident-leading statement
// forms (§4.2) by looking one token past the identifier.
func (p *Parser) parseIdentStatement() ast.Stmt {
	nameTok := p.cur()
	switch p.peekAt(1).Kind {
	case token.Colon:
		return p.parseVarDecl()
	case token.Assign:
		return p.parseAssign()
	case token.Dot:
		return p.parseQualifiedCallStmt()
	case token.LParen:
		return p.parseBareCallStmt()
	default:
		p.advance()
		p.bag.Errorf(nameTok.Location, "unexpected token after identifier %q", nameTok.Literal)
		return nil
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	nameTok := p.advance() // ident
	p.advance()            // ':'
	typeTok, ok := p.expect(token.Ident)
	if !ok {
		return nil
	}
	var value ast.Expr
	if p.check(token.Assign) {
		p.advance()
		value = p.parseExpr(0)
	}
	p.expect(token.Semicolon)
	return &ast.VarDecl{Pos: at(nameTok.Location), Name: nameTok.Literal, Type: typeTok.Literal, Value: value}
}

func (p *Parser) parseAssign() ast.Stmt {
	nameTok := p.advance() // ident
	p.advance()            // '='
	value := p.parseExpr(0)
	p.expect(token.Semicolon)
	return &ast.AssignStmt{Pos: at(nameTok.Location), Name: nameTok.Literal, Value: value}
}

func (p *Parser) parseQualifiedCallStmt() ast.Stmt {
	expr := p.parseExpr(0)
	p.expect(token.Semicolon)
	qc, ok := expr.(*ast.QualifiedCallExpr)
	if !ok {
		if expr != nil {
			p.bag.Errorf(expr.Loc(), "expected a qualified function call")
		}
		return nil
	}
	return &ast.QualifiedCallStmt{Pos: at(qc.Loc()), Call: qc}
}

func (p *Parser) parseBareCallStmt() ast.Stmt {
	expr := p.parsePrimary()
	p.expect(token.Semicolon)
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		if expr != nil {
			p.bag.Errorf(expr.Loc(), "expected a function call")
		}
		return nil
	}
	return &ast.ExprStmt{Pos: at(call.Loc()), Call: call}
}

// parseExprList parses a comma-separated expression list up to (but not
// consuming) the terminator token — the idiomatic recursive-descent
// equivalent of the spec's "helper [that] splits a bracket-balanced token
// slice on top-level commas" (§4.2).
func (p *Parser) parseExprList(terminator token.Kind) []ast.Expr {
	var exprs []ast.Expr
	for !p.check(terminator) && !p.atEnd() {
		exprs = append(exprs, p.parseExpr(0))
		if p.check(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	return exprs
}

// at wraps a Location into the ast.Pos embedded by every node constructor.
func at(loc diag.Location) ast.Pos {
	return ast.Pos{Location: loc}
}

// parseIntLiteral converts a lexed Int literal (which may carry a folded
// leading '-' sign, §6) to its int64 value.
func parseIntLiteral(tok token.Token, bag *diag.Bag) int64 {
	v, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		bag.Errorf(tok.Location, "malformed integer literal %q", tok.Literal)
		return 0
	}
	return v
}

func parseFloatLiteral(tok token.Token, bag *diag.Bag) float64 {
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		bag.Errorf(tok.Location, "malformed float literal %q", tok.Literal)
		return 0
	}
	return v
}

func parseHexLiteral(tok token.Token, bag *diag.Bag) uint32 {
	// Literal is "#rrggbb"; strip the leading '#'.
	v, err := strconv.ParseUint(tok.Literal[1:], 16, 32)
	if err != nil {
		bag.Errorf(tok.Location, "malformed hex colour literal %q", tok.Literal)
		return 0
	}
	return uint32(v)
}
