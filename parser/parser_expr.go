package parser

import (
	"github.com/papyrus-lang/papyrus/ast"
	"github.com/papyrus-lang/papyrus/token"
)

// binaryPrec maps a binary operator token to its precedence (§4.2's
// precedence table, low to high): `== !=` (1), `||` (2), `&&` (3),
// `> < >= <=` (4), `+ -` (6), `* /` (7), `% ^` (8), `.` (9). Unary `!`/`-`
// sit at precedence 5, between comparisons and additive operators, and are
// handled by parseUnary rather than this table.
var binaryPrec = map[token.Kind]int{
	token.Eq:      1,
	token.NotEq:   1,
	token.OrOr:    2,
	token.AndAnd:  3,
	token.GT:      4,
	token.LT:      4,
	token.GE:      4,
	token.LE:      4,
	token.Plus:    6,
	token.Minus:   6,
	token.Star:    7,
	token.Slash:   7,
	token.Percent: 8,
	token.Caret:   8,
	token.Dot:     9,
}

// unaryPrec is the precedence unary `!`/`-` bind their operand at: tight
// enough to swallow additive/multiplicative/`.` operators but loose enough
// that the resulting UnaryExpr still combines with comparisons and below.
const unaryPrec = 5

// parseExpr is the precedence-climbing expression parser (§4.2). minPrec is
// the lowest-precedence operator this call is allowed to consume; the
// initial call from a statement context passes 0 to accept everything.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		op := p.cur().Kind
		prec, ok := binaryPrec[op]
		if !ok || prec < minPrec {
			break
		}

		if op == token.Dot {
			left = p.parseQualifiedCall(left)
			if left == nil {
				return nil
			}
			continue
		}

		opTok := p.advance()
		right := p.parseExpr(prec + 1)
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{Pos: at(opTok.Location), Op: op, Left: left, Right: right}
	}

	return left
}

// parseUnary handles the prefix operators `!` and `-` (§4.2: precedence 5,
// recognised only when Minus sits at a prefix position with no left
// operand). The operand is parsed at unaryPrec so e.g. `!a + b` groups as
// `!(a + b)`, with the resulting UnaryExpr still free to combine with
// looser-binding operators in the caller's climbing loop.
func (p *Parser) parseUnary() ast.Expr {
	if p.check(token.Not) || p.check(token.Minus) {
		opTok := p.advance()
		operand := p.parseExpr(unaryPrec)
		if operand == nil {
			return nil
		}
		return &ast.UnaryExpr{Pos: at(opTok.Location), Op: opTok.Kind, Operand: operand}
	}
	return p.parsePrimary()
}

// parseQualifiedCall consumes a `.` operator application. The left operand
// must already be a bare Ident and the right operand must be a function
// call (§4.2); anything else is a diagnostic.
func (p *Parser) parseQualifiedCall(left ast.Expr) ast.Expr {
	dot := p.advance() // '.'
	ident, ok := left.(*ast.Ident)
	if !ok {
		p.bag.Errorf(dot.Location, "the '.' operator requires a bare identifier on its left")
		return nil
	}
	rhs := p.parsePrimary()
	call, ok := rhs.(*ast.CallExpr)
	if !ok {
		if rhs != nil {
			p.bag.Errorf(rhs.Loc(), "the '.' operator requires a function call on its right")
		}
		return nil
	}
	return &ast.QualifiedCallExpr{Pos: at(ident.Loc()), Alias: ident.Name, Call: call}
}

// parsePrimary parses literals, identifiers, calls, and parenthesised
// groups — the leaves of the expression grammar.
func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.Int:
		p.advance()
		return &ast.IntLit{Pos: at(tok.Location), Value: parseIntLiteral(tok, p.bag)}
	case token.Float:
		p.advance()
		return &ast.FloatLit{Pos: at(tok.Location), Value: parseFloatLiteral(tok, p.bag)}
	case token.Hex:
		p.advance()
		return &ast.HexLit{Pos: at(tok.Location), RGB: parseHexLiteral(tok, p.bag)}
	case token.Bool:
		p.advance()
		return &ast.BoolLit{Pos: at(tok.Location), Value: tok.Literal == "true"}
	case token.Ident:
		p.advance()
		if p.check(token.LParen) {
			return p.parseCallArgs(tok)
		}
		return &ast.Ident{Pos: at(tok.Location), Name: tok.Literal}
	case token.LParen:
		p.advance()
		inner := p.parseExpr(0)
		if _, ok := p.expect(token.RParen); !ok {
			return nil
		}
		return &ast.ParenExpr{Pos: at(tok.Location), Inner: inner}
	case token.Def, token.While, token.If, token.Subcanvas, token.Travel, token.Colon, token.Assign:
		p.advance()
		p.bag.Errorf(tok.Location, "unexpected %q inside an expression", tok.Literal)
		return nil
	default:
		p.advance()
		p.bag.Errorf(tok.Location, "unexpected token %q in expression", tok.Literal)
		return nil
	}
}

// parseCallArgs parses the `( args )` suffix of a call, given the already
// consumed callee identifier token.
func (p *Parser) parseCallArgs(callee token.Token) ast.Expr {
	p.advance() // '('
	args := p.parseExprList(token.RParen)
	if _, ok := p.expect(token.RParen); !ok {
		return nil
	}
	return &ast.CallExpr{Pos: at(callee.Location), Callee: callee.Literal, Args: args}
}
