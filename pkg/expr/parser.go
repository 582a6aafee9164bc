package expr

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// MaxExpressionLength is the default maximum length of an input, in bytes.
const MaxExpressionLength = 4096

// Expression is the postfix (reverse Polish) form of one ;-delimited segment.
// Queue holds only numbers, operators and comparisons.
type Expression struct {
	Source string // trimmed source text of the segment
	Pos    int    // byte offset of the segment in the input
	Queue  []Token
}

// String renders the queue in postfix order, e.g. "2 2 * 4822 + 4 /".
func (e Expression) String() string {
	parts := make([]string, len(e.Queue))
	for i, tok := range e.Queue {
		parts[i] = tok.String()
	}
	return strings.Join(parts, " ")
}

// Program is every segment of one input, in source order.
type Program struct {
	Source      string
	Expressions []Expression
}

// options configures parsing and evaluation.
type options struct {
	maxLength   int
	literalKind types.Kind
	resultKind  *types.Kind
}

// Option configures ParseProgram and Eval.
type Option func(*options)

// WithMaxLength overrides MaxExpressionLength. Values <= 0 disable the limit.
func WithMaxLength(n int) Option {
	return func(o *options) { o.maxLength = n }
}

// WithLiteralKind sets the kind numeric literals are tagged with (f64 by
// default).
func WithLiteralKind(k types.Kind) Option {
	return func(o *options) { o.literalKind = k }
}

// WithResultKind converts every evaluation result to k.
func WithResultKind(k types.Kind) Option {
	return func(o *options) { o.resultKind = &k }
}

func buildOptions(opts []Option) options {
	o := options{maxLength: MaxExpressionLength, literalKind: types.KindF64}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ParseProgram tokenizes input and converts each segment to postfix order.
func ParseProgram(input string, opts ...Option) (*Program, error) {
	return parseProgram(input, buildOptions(opts))
}

func parseProgram(input string, o options) (*Program, error) {
	if o.maxLength > 0 && len(input) > o.maxLength {
		return nil, types.NewParsingError(
			fmt.Sprintf("expression exceeds maximum length of %d characters", o.maxLength))
	}

	lexer := NewLexer(input)
	lexer.literalKind = o.literalKind
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, fmt.Errorf("lexer error: %w", err)
	}

	exprs, err := convert(tokens, input)
	if err != nil {
		return nil, err
	}
	return &Program{Source: input, Expressions: exprs}, nil
}

// ParseExpression parses input that must hold exactly one segment.
func ParseExpression(input string, opts ...Option) (Expression, error) {
	p, err := ParseProgram(input, opts...)
	if err != nil {
		return Expression{}, err
	}
	if len(p.Expressions) != 1 {
		return Expression{}, types.NewParsingError(
			fmt.Sprintf("expected a single expression, got %d", len(p.Expressions)))
	}
	return p.Expressions[0], nil
}

// convert reorders a balanced token stream into postfix queues using the
// shunting-yard algorithm, one queue per segment. Bracket kinds were checked
// by the lexer and are not checked again.
func convert(tokens []Token, input string) ([]Expression, error) {
	var (
		exprs []Expression
		queue []Token
		stack []Token
		start int
	)

	for _, tok := range tokens {
		switch {
		case tok.Type == TokenStart:
			queue, stack = nil, nil
			start = tok.Pos

		case tok.Type == TokenEnd:
			for len(stack) > 0 {
				queue = append(queue, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			source := input[start:tok.Pos]
			trimmed := strings.TrimLeftFunc(source, unicode.IsSpace)
			exprs = append(exprs, Expression{
				Source: strings.TrimSpace(source),
				Pos:    start + len(source) - len(trimmed),
				Queue:  queue,
			})

		case tok.Type == TokenNumber:
			queue = append(queue, tok)

		case tok.Type.IsOperator() || tok.Type.IsComparison():
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Type.IsOpenBracket() || top.Type.Precedence() < tok.Type.Precedence() {
					break
				}
				queue = append(queue, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)

		case tok.Type.IsOpenBracket():
			stack = append(stack, tok)

		case tok.Type.IsCloseBracket():
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Type.IsOpenBracket() {
					break
				}
				queue = append(queue, top)
			}

		case tok.Type == TokenAssign:
			return nil, types.NewBadTokenError('=', tok.Pos)

		default:
			return nil, fmt.Errorf("unexpected token %s at position %d", tok.Type, tok.Pos)
		}
	}

	return exprs, nil
}
