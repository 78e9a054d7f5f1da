// Package ast defines the Papyrus abstract syntax tree.
//
// Per the spec's own design notes (§9), the tag-plus-children AST shape
// described narratively in §3 is deliberately NOT reproduced here: a single
// node shape where semantics come from a token kind and positional
// children is exactly the representation the spec calls "convenient but
// error-prone". Instead this package uses a tagged sum — one Go struct per
// syntactic form, joined by the Stmt/Expr marker interfaces — which is the
// reimplementation the design notes invite. Every node still carries a
// shared Location, as the spec requires.
package ast

import (
	"github.com/papyrus-lang/papyrus/internal/diag"
	"github.com/papyrus-lang/papyrus/token"
)

// Node is implemented by every AST node; it exposes the source Location
// the node was parsed from.
type Node interface {
	Loc() diag.Location
}

// Stmt is implemented by every statement-level node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression-level node.
type Expr interface {
	Node
	exprNode()
}

// Pos is embedded by every concrete node to supply Loc() without
// repeating the field and method on each type.
type Pos struct {
	Location diag.Location
}

func (p Pos) Loc() diag.Location { return p.Location }

// ---- Statements ----

// ImportStmt is `import "path" ;`. Alias is not written in source — it
// defaults to the file stem and is resolved by the validator (§4.3).
type ImportStmt struct {
	Pos
	Path string
}

func (*ImportStmt) stmtNode() {}

// Param is one function parameter: a name and its declared type name.
type Param struct {
	Name string
	Type string
	Location diag.Location
}

// FuncDecl is `[pub] def name ( params ) [: type] block`.
type FuncDecl struct {
	Pos
	Pub        bool
	Name       string
	Params     []Param
	ReturnType string // "" means no declared return type (Void)
	Body       *BlockStmt
}

func (*FuncDecl) stmtNode() {}

// VarDecl covers both `ident : type = expr ;` and `ident : type ;`
// (Value is nil for the latter — a type binding without a value).
type VarDecl struct {
	Pos
	Name  string
	Type  string
	Value Expr
}

func (*VarDecl) stmtNode() {}

// AssignStmt is `ident = expr ;`, an inferred assignment to a variable
// that must already exist.
type AssignStmt struct {
	Pos
	Name  string
	Value Expr
}

func (*AssignStmt) stmtNode() {}

// ReturnStmt is `return [expr] ;`. Value is nil for a bare return.
type ReturnStmt struct {
	Pos
	Value Expr
}

func (*ReturnStmt) stmtNode() {}

// ExprStmt is a bare function call used as a statement: `ident ( args ) ;`.
type ExprStmt struct {
	Pos
	Call *CallExpr
}

func (*ExprStmt) stmtNode() {}

// QualifiedCallStmt is a qualified function call used as a statement:
// `ident . ident ( args ) ;`.
type QualifiedCallStmt struct {
	Pos
	Call *QualifiedCallExpr
}

func (*QualifiedCallStmt) stmtNode() {}

// IfStmt is `if ( cond ) block [else (if ... | block)]`. Else is nil, an
// *IfStmt (an `else if` chain), or a *BlockStmt (a final `else`).
type IfStmt struct {
	Pos
	Cond Expr
	Then *BlockStmt
	Else Stmt
}

func (*IfStmt) stmtNode() {}

// WhileStmt is `while ( cond ) block`.
type WhileStmt struct {
	Pos
	Cond Expr
	Body *BlockStmt
}

func (*WhileStmt) stmtNode() {}

// SubcanvasStmt is `subcanvas ( offsetX , offsetY , width , height ) block`.
type SubcanvasStmt struct {
	Pos
	OffsetX, OffsetY, Width, Height Expr
	Body                            *BlockStmt
}

func (*SubcanvasStmt) stmtNode() {}

// TravelStmt is `travel ( xIdent , yIdent ) block` — see SPEC_FULL.md for
// the supplemented grammar and semantics restored from original_source/.
type TravelStmt struct {
	Pos
	XIdent, YIdent string
	Body           *BlockStmt
}

func (*TravelStmt) stmtNode() {}

// BlockStmt is a brace-delimited, semicolon-terminated statement sequence.
type BlockStmt struct {
	Pos
	Stmts []Stmt
}

func (*BlockStmt) stmtNode() {}

// ---- Expressions ----

// IntLit is an integer literal.
type IntLit struct {
	Pos
	Value int64
}

func (*IntLit) exprNode() {}

// FloatLit is a floating-point literal; the grammar requires a decimal
// point (§4.1), so an integer-shaped literal is never a FloatLit.
type FloatLit struct {
	Pos
	Value float64
}

func (*FloatLit) exprNode() {}

// BoolLit is a `true`/`false` literal.
type BoolLit struct {
	Pos
	Value bool
}

func (*BoolLit) exprNode() {}

// HexLit is a `#rrggbb` colour literal; RGB packs the 24-bit RGB triple
// into the low bits (alpha is filled in during lowering — §6).
type HexLit struct {
	Pos
	RGB uint32
}

func (*HexLit) exprNode() {}

// Ident is a bare variable reference.
type Ident struct {
	Pos
	Name string
}

func (*Ident) exprNode() {}

// BinaryExpr is a binary operator application. Op is one of the binary
// operator token kinds (§4.2's precedence table).
type BinaryExpr struct {
	Pos
	Op          token.Kind
	Left, Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a prefix operator application: `!expr` or `-expr`.
type UnaryExpr struct {
	Pos
	Op      token.Kind
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// CallExpr is `ident ( args )`, used both as a statement (ExprStmt) and as
// an expression (e.g. nested inside arithmetic).
type CallExpr struct {
	Pos
	Callee string
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// QualifiedCallExpr is `alias . call(args)`, the only legal use of the `.`
// operator (§4.2/§4.3): it invokes a public function of an imported file.
type QualifiedCallExpr struct {
	Pos
	Alias string
	Call  *CallExpr
}

func (*QualifiedCallExpr) exprNode() {}

// ParenExpr is a parenthesised sub-expression, kept as its own node (rather
// than discarded) so a pretty-printer can round-trip precedence exactly
// (§8, property 2).
type ParenExpr struct {
	Pos
	Inner Expr
}

func (*ParenExpr) exprNode() {}
