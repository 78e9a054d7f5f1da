package lexer

import (
	"strings"

	"github.com/papyrus-lang/papyrus/internal/diag"
	"github.com/papyrus-lang/papyrus/token"
)

// scanIdent consumes `[A-Za-z_][A-Za-z0-9_]*` and classifies it: keywords
// (and the boolean literals true/false) take precedence over the generic
// Ident kind, per §4.1.
func (l *Lexer) scanIdent(start diag.Location) token.Token {
	var sb strings.Builder
	for isAlphaNumeric(l.current()) {
		sb.WriteByte(l.current())
		l.advance()
	}
	literal := sb.String()
	return token.NewAt(token.LookupIdent(literal), literal, start)
}

// scanNumber consumes a digit run, optionally followed by `.` and a second
// digit run (a Float requires the decimal point per §4.1/§6 — a bare
// digit run is always an Int). negative indicates the '-' sign byte was
// already consumed by the caller and should be prefixed onto the literal.
func (l *Lexer) scanNumber(start diag.Location, negative bool) token.Token {
	var sb strings.Builder
	if negative {
		sb.WriteByte('-')
	}
	for isDigit(l.current()) {
		sb.WriteByte(l.current())
		l.advance()
	}

	if l.current() == '.' && isDigit(l.peek()) {
		sb.WriteByte('.')
		l.advance()
		for isDigit(l.current()) {
			sb.WriteByte(l.current())
			l.advance()
		}
		return token.NewAt(token.Float, sb.String(), start)
	}

	return token.NewAt(token.Int, sb.String(), start)
}

// scanHex consumes `#` followed by exactly six hex digits (§6). Fewer than
// six is a lexical error; the `#` and the hex digits before the first
// non-hex character are consumed, and scanning resumes at that character.
func (l *Lexer) scanHex(start diag.Location, bag *diag.Bag) token.Token {
	l.advance() // consume '#'
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		c := l.current()
		if !isHexDigit(c) {
			bag.Errorf(start, "malformed hex colour literal: expected 6 hex digits, got %q", sb.String())
			return token.NewAt(token.Invalid, "#"+sb.String(), start)
		}
		sb.WriteByte(c)
		l.advance()
	}
	return token.NewAt(token.Hex, "#"+sb.String(), start)
}

// scanString consumes a double-quoted string with no escape grammar (§6):
// everything up to the next `"` is taken literally. An unterminated string
// (EOF reached before the closing quote) is a lexical error.
func (l *Lexer) scanString(start diag.Location, bag *diag.Bag) token.Token {
	l.advance() // consume opening '"'
	var sb strings.Builder
	for l.current() != '"' {
		if l.atEnd() {
			bag.Errorf(start, "unterminated string literal")
			return token.NewAt(token.Invalid, sb.String(), start)
		}
		sb.WriteByte(l.current())
		l.advance()
	}
	l.advance() // consume closing '"'
	return token.NewAt(token.String, sb.String(), start)
}
