package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// Lexer tokenizes an expression string. It checks bracket nesting while it
// scans, so a token stream it returns is always balanced.
type Lexer struct {
	input       string
	pos         int
	tokens      []Token
	brackets    []Token // open brackets awaiting their closer
	literalKind types.Kind
}

// NewLexer creates a new lexer for the given input. Numeric literals are
// tagged f64.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, literalKind: types.KindF64}
}

// Tokenize scans the entire input and returns all tokens. The stream starts
// with TokenStart, ends with TokenEnd, and every ';' contributes a
// TokenEnd/TokenStart pair.
func (l *Lexer) Tokenize() ([]Token, error) {
	l.tokens = append(l.tokens, Token{Type: TokenStart, Pos: 0})
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}

		if l.input[l.pos] == ';' {
			if len(l.brackets) > 0 {
				return nil, l.unclosed()
			}
			l.tokens = append(l.tokens,
				Token{Type: TokenEnd, Pos: l.pos},
				Token{Type: TokenStart, Pos: l.pos + 1})
			l.pos++
			continue
		}

		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
	}

	if len(l.brackets) > 0 {
		return nil, l.unclosed()
	}
	l.tokens = append(l.tokens, Token{Type: TokenEnd, Pos: len(l.input)})
	return l.tokens, nil
}

// next returns the next token from the input. Two-character operators are
// decided by looking one byte ahead before anything is emitted.
func (l *Lexer) next() (Token, error) {
	ch := l.input[l.pos]

	if isDigit(ch) {
		return l.readNumber()
	}

	switch ch {
	case '+':
		return l.single(TokenPlus), nil
	case '-':
		return l.single(TokenMinus), nil
	case '*':
		return l.single(TokenStar), nil
	case '/':
		return l.single(TokenSlash), nil
	case '%':
		return l.single(TokenPercent), nil
	case '|':
		return l.single(TokenPipe), nil
	case '&':
		return l.single(TokenAmp), nil
	case '^':
		return l.single(TokenCaret), nil
	case '<':
		switch l.peek() {
		case '<':
			return l.double(TokenShl), nil
		case '=':
			return l.double(TokenLte), nil
		}
		return l.single(TokenLt), nil
	case '>':
		switch l.peek() {
		case '>':
			return l.double(TokenShr), nil
		case '=':
			return l.double(TokenGte), nil
		}
		return l.single(TokenGt), nil
	case '=':
		if l.peek() == '=' {
			return l.double(TokenEq), nil
		}
		return l.single(TokenAssign), nil
	case '!':
		if l.peek() == '=' {
			return l.double(TokenNeq), nil
		}
	case '(':
		return l.open(TokenLParen), nil
	case '{':
		return l.open(TokenLBrace), nil
	case '[':
		return l.open(TokenLBracket), nil
	case ')':
		return l.close(TokenRParen)
	case '}':
		return l.close(TokenRBrace)
	case ']':
		return l.close(TokenRBracket)
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, types.NewBadTokenError(r, l.pos)
}

// single consumes one byte as a token of the given type.
func (l *Lexer) single(tt TokenType) Token {
	tok := Token{Type: tt, Value: l.input[l.pos : l.pos+1], Pos: l.pos}
	l.pos++
	return tok
}

// double consumes two bytes as a token of the given type.
func (l *Lexer) double(tt TokenType) Token {
	tok := Token{Type: tt, Value: l.input[l.pos : l.pos+2], Pos: l.pos}
	l.pos += 2
	return tok
}

func (l *Lexer) open(tt TokenType) Token {
	tok := l.single(tt)
	l.brackets = append(l.brackets, tok)
	return tok
}

func (l *Lexer) close(tt TokenType) (Token, error) {
	tok := l.single(tt)
	if len(l.brackets) == 0 {
		return Token{}, types.NewMismatchedBracketsError(
			fmt.Sprintf("unexpected '%s' at position %d", tok.Value, tok.Pos), tok.Pos)
	}

	top := l.brackets[len(l.brackets)-1]
	l.brackets = l.brackets[:len(l.brackets)-1]
	if top.Type != tt.opener() {
		return Token{}, types.NewMismatchedBracketsError(
			fmt.Sprintf("'%s' at position %d does not match '%s' at position %d", tok.Value, tok.Pos, top.Value, top.Pos), tok.Pos)
	}
	return tok, nil
}

func (l *Lexer) unclosed() error {
	top := l.brackets[len(l.brackets)-1]
	return types.NewMismatchedBracketsError(
		fmt.Sprintf("unclosed '%s' at position %d", top.Value, top.Pos), top.Pos)
}

// readNumber reads an integer or float literal. '_' and '-' between two
// digits are separators and are dropped.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	isFloat := false

	var sb strings.Builder
scan:
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case isDigit(ch):
			sb.WriteByte(ch)
			l.pos++
		case ch == '_' || ch == '-':
			if !isDigit(l.peek()) {
				break scan
			}
			l.pos++
		case ch == '.':
			if isFloat {
				return Token{}, types.NewParsingError(
					fmt.Sprintf("invalid number %q at position %d", l.input[start:l.pos+1], start))
			}
			isFloat = true
			sb.WriteByte(ch)
			l.pos++
		default:
			break scan
		}
	}

	raw := sb.String()
	if isFloat {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Token{}, types.NewParsingError(fmt.Sprintf("invalid float %q at position %d", raw, start))
		}
		return Token{Type: TokenNumber, Value: raw, Num: types.NewFloat(l.literalKind, f), Pos: start}, nil
	}

	i, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Integers past int64 keep their magnitude as floats.
		if errors.Is(err, strconv.ErrRange) {
			f, _ := strconv.ParseFloat(raw, 64)
			return Token{Type: TokenNumber, Value: raw, Num: types.NewFloat(l.literalKind, f), Pos: start}, nil
		}
		return Token{}, types.NewParsingError(fmt.Sprintf("invalid integer %q at position %d", raw, start))
	}
	return Token{Type: TokenNumber, Value: raw, Num: types.NewInt(l.literalKind, i), Pos: start}, nil
}

// peek returns the byte after the current one, or 0 at the end of input.
func (l *Lexer) peek() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
