// Package token defines the Papyrus token alphabet shared by the lexer and
// parser, grounded on the teacher's lexer/token.go: a closed TokenKind enum
// (a string newtype for easy comparison and debugging) plus a Token struct
// carrying the literal text and source Location.
package token

import (
	"fmt"

	"github.com/papyrus-lang/papyrus/internal/diag"
)

// Kind identifies the lexical category of a Token. The set is closed per
// spec §6: identifiers, literals, keywords, punctuation, operators, and the
// always-dropped SingleComment.
type Kind string

const (
	// Special
	EOF     Kind = "EOF"
	Invalid Kind = "INVALID"

	// Identifiers and literals
	Ident  Kind = "IDENT"
	Int    Kind = "INT"
	Float  Kind = "FLOAT"
	Hex    Kind = "HEX"
	Bool   Kind = "BOOL"
	String Kind = "STRING"

	// Keywords
	If        Kind = "if"
	Else      Kind = "else"
	While     Kind = "while"
	Travel    Kind = "travel"
	Subcanvas Kind = "subcanvas"
	Def       Kind = "def"
	Return    Kind = "return"
	Pub       Kind = "pub"
	Import    Kind = "import"

	// Punctuation
	LParen    Kind = "("
	RParen    Kind = ")"
	LBrace    Kind = "{"
	RBrace    Kind = "}"
	Comma     Kind = ","
	Semicolon Kind = ";"
	Colon     Kind = ":"
	Dot       Kind = "."

	// Operators
	Plus    Kind = "+"
	Minus   Kind = "-"
	Star    Kind = "*"
	Slash   Kind = "/"
	Percent Kind = "%"
	Caret   Kind = "^"
	Assign  Kind = "="
	Eq      Kind = "=="
	NotEq   Kind = "!="
	GT      Kind = ">"
	LT      Kind = "<"
	GE      Kind = ">="
	LE      Kind = "<="
	AndAnd  Kind = "&&"
	OrOr    Kind = "||"
	Not     Kind = "!"

	// Dropped by the lexer, never reaches the parser.
	SingleComment Kind = "COMMENT"
)

// keywords maps reserved-word literals to their Kind. Keywords take
// precedence over identifiers despite overlapping the identifier grammar.
var keywords = map[string]Kind{
	"if":        If,
	"else":      Else,
	"while":     While,
	"travel":    Travel,
	"subcanvas": Subcanvas,
	"def":       Def,
	"return":    Return,
	"pub":       Pub,
	"import":    Import,
	"true":      Bool,
	"false":     Bool,
}

// LookupIdent classifies a scanned identifier-shaped literal: it returns
// the keyword Kind if the text is reserved, otherwise Ident.
func LookupIdent(literal string) Kind {
	if kind, ok := keywords[literal]; ok {
		return kind
	}
	return Ident
}

// Token is one lexical unit: its Kind, the exact source text it came from,
// and the Location it started at.
type Token struct {
	Kind     Kind
	Literal  string
	Location diag.Location
}

// New builds a Token with no location metadata attached; primarily useful
// in tests that compare token streams without caring about positions.
func New(kind Kind, literal string) Token {
	return Token{Kind: kind, Literal: literal}
}

// NewAt builds a Token at the given source location.
func NewAt(kind Kind, literal string, loc diag.Location) Token {
	return Token{Kind: kind, Literal: literal, Location: loc}
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Literal, t.Location)
}
