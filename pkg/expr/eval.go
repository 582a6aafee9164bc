package expr

import (
	"fmt"

	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// Result is the outcome of evaluating one segment. Ok is false when the
// segment was empty and so produced no value.
type Result struct {
	Expression Expression
	Value      types.Number
	Ok         bool
}

// String renders the value as "<value>: <type>", or "" for an empty segment.
func (r Result) String() string {
	if !r.Ok {
		return ""
	}
	return r.Value.String()
}

type binaryFunc func(left, right types.Number) (types.Number, error)

func infallible(f func(types.Number, types.Number) types.Number) binaryFunc {
	return func(left, right types.Number) (types.Number, error) {
		return f(left, right), nil
	}
}

var operators = map[TokenType]binaryFunc{
	TokenPlus:    infallible(types.Number.Add),
	TokenMinus:   infallible(types.Number.Sub),
	TokenStar:    infallible(types.Number.Mul),
	TokenSlash:   types.Number.Div,
	TokenPercent: types.Number.Rem,
	TokenShl:     types.Number.Shl,
	TokenShr:     types.Number.Shr,
	TokenAmp:     infallible(types.Number.And),
	TokenPipe:    infallible(types.Number.Or),
	TokenCaret:   infallible(types.Number.Xor),
}

var comparisons = map[TokenType]func(int) bool{
	TokenEq:  func(c int) bool { return c == 0 },
	TokenNeq: func(c int) bool { return c != 0 },
	TokenLt:  func(c int) bool { return c < 0 },
	TokenGt:  func(c int) bool { return c > 0 },
	TokenLte: func(c int) bool { return c <= 0 },
	TokenGte: func(c int) bool { return c >= 0 },
}

// Evaluate runs a postfix queue on an operand stack and returns the value left
// on top. The boolean is false when the queue is empty. An operator that finds
// fewer than two operands is an IncompleteExpressionError; operands that no
// operator consumed stay below the result and are discarded.
func Evaluate(e Expression) (types.Number, bool, error) {
	stack := make([]types.Number, 0, len(e.Queue))

	pop2 := func(tok Token) (types.Number, types.Number, error) {
		if len(stack) < 2 {
			return types.Number{}, types.Number{}, types.NewIncompleteExpressionError(
				fmt.Sprintf("missing operand for '%s' at position %d", tok.Value, tok.Pos), tok.Pos)
		}
		right := stack[len(stack)-1]
		left := stack[len(stack)-2]
		stack = stack[:len(stack)-2]
		return left, right, nil
	}

	for _, tok := range e.Queue {
		switch {
		case tok.Type == TokenNumber:
			stack = append(stack, tok.Num)

		case tok.Type.IsOperator():
			left, right, err := pop2(tok)
			if err != nil {
				return types.Number{}, false, err
			}
			v, err := operators[tok.Type](left, right)
			if err != nil {
				return types.Number{}, false, fmt.Errorf("'%s' at position %d: %w", tok.Value, tok.Pos, err)
			}
			stack = append(stack, v)

		case tok.Type.IsComparison():
			left, right, err := pop2(tok)
			if err != nil {
				return types.Number{}, false, err
			}
			test := comparisons[tok.Type]
			stack = append(stack, types.From(test(types.Compare(left, right))))

		default:
			return types.Number{}, false, fmt.Errorf("unexpected token %s in postfix queue", tok.Type)
		}
	}

	if len(stack) == 0 {
		return types.Number{}, false, nil
	}
	return stack[len(stack)-1], true, nil
}

// EvaluateProgram evaluates every segment in order. Segments share nothing;
// the first failure aborts and no partial results are returned.
func EvaluateProgram(p *Program, opts ...Option) ([]Result, error) {
	return evaluateProgram(p, buildOptions(opts))
}

func evaluateProgram(p *Program, o options) ([]Result, error) {
	results := make([]Result, 0, len(p.Expressions))
	for _, e := range p.Expressions {
		v, ok, err := Evaluate(e)
		if err != nil {
			return nil, err
		}
		if ok && o.resultKind != nil {
			v = v.Convert(*o.resultKind)
		}
		results = append(results, Result{Expression: e, Value: v, Ok: ok})
	}
	return results, nil
}

// Eval parses and evaluates input, returning one Result per segment.
func Eval(input string, opts ...Option) ([]Result, error) {
	o := buildOptions(opts)
	p, err := parseProgram(input, o)
	if err != nil {
		return nil, err
	}
	return evaluateProgram(p, o)
}
