package expr

// precedences gives the binding power of every binary operator; higher binds
// tighter. Levels follow the usual C-family layout, with relational
// comparisons above equality.
var precedences = map[TokenType]int{
	TokenStar:    10,
	TokenSlash:   10,
	TokenPercent: 10,

	TokenPlus:  9,
	TokenMinus: 9,

	TokenShl: 8,
	TokenShr: 8,

	TokenAmp:   7,
	TokenCaret: 6,
	TokenPipe:  5,

	TokenLt:  4,
	TokenLte: 4,
	TokenGt:  4,
	TokenGte: 4,

	TokenEq:  3,
	TokenNeq: 3,
}

// Precedence returns the binding power of an operator or comparison, and 0
// for every other token type.
func (t TokenType) Precedence() int {
	return precedences[t]
}
