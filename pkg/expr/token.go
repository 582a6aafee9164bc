// Package expr implements the expression pipeline: a tokenizer, a
// shunting-yard converter from infix to postfix order, and a stack machine
// that evaluates postfix queues into tagged numbers.
package expr

import "github.com/lemonberrylabs/exprcalc/pkg/types"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Segment markers
	TokenStart TokenType = iota // start of a ;-delimited segment
	TokenEnd                    // end of a ;-delimited segment

	// Literals
	TokenNumber // numeric literal

	// Arithmetic
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %

	// Bitwise
	TokenPipe  // |
	TokenAmp   // &
	TokenCaret // ^
	TokenShl   // <<
	TokenShr   // >>

	// Comparison
	TokenEq  // ==
	TokenNeq // !=
	TokenLt  // <
	TokenGt  // >
	TokenLte // <=
	TokenGte // >=

	// A lone '=', which has no meaning in an expression
	TokenAssign

	// Brackets
	TokenLParen   // (
	TokenRParen   // )
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLBracket // [
	TokenRBracket // ]
)

// Token represents a single lexical token.
type Token struct {
	Type  TokenType
	Value string       // source text; digits only for numbers (separators removed)
	Num   types.Number // parsed literal (for TokenNumber)
	Pos   int          // byte offset in source
}

// String returns the source text of the token, or its type name for segment
// markers.
func (t Token) String() string {
	if t.Value == "" {
		return t.Type.String()
	}
	return t.Value
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenStart:
		return "START"
	case TokenEnd:
		return "END"
	case TokenNumber:
		return "NUMBER"
	case TokenPlus:
		return "PLUS"
	case TokenMinus:
		return "MINUS"
	case TokenStar:
		return "STAR"
	case TokenSlash:
		return "SLASH"
	case TokenPercent:
		return "PERCENT"
	case TokenPipe:
		return "PIPE"
	case TokenAmp:
		return "AMP"
	case TokenCaret:
		return "CARET"
	case TokenShl:
		return "SHL"
	case TokenShr:
		return "SHR"
	case TokenEq:
		return "EQ"
	case TokenNeq:
		return "NEQ"
	case TokenLt:
		return "LT"
	case TokenGt:
		return "GT"
	case TokenLte:
		return "LTE"
	case TokenGte:
		return "GTE"
	case TokenAssign:
		return "ASSIGN"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenLBrace:
		return "LBRACE"
	case TokenRBrace:
		return "RBRACE"
	case TokenLBracket:
		return "LBRACKET"
	case TokenRBracket:
		return "RBRACKET"
	default:
		return "UNKNOWN"
	}
}

// IsOperator reports whether t is an arithmetic or bitwise operator.
func (t TokenType) IsOperator() bool {
	return t >= TokenPlus && t <= TokenShr
}

// IsComparison reports whether t is a comparison operator.
func (t TokenType) IsComparison() bool {
	return t >= TokenEq && t <= TokenGte
}

// IsOpenBracket reports whether t opens a group.
func (t TokenType) IsOpenBracket() bool {
	return t == TokenLParen || t == TokenLBrace || t == TokenLBracket
}

// IsCloseBracket reports whether t closes a group.
func (t TokenType) IsCloseBracket() bool {
	return t == TokenRParen || t == TokenRBrace || t == TokenRBracket
}

// opener returns the bracket that a closing bracket must match.
func (t TokenType) opener() TokenType {
	switch t {
	case TokenRParen:
		return TokenLParen
	case TokenRBrace:
		return TokenLBrace
	case TokenRBracket:
		return TokenLBracket
	default:
		return t
	}
}
