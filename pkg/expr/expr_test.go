package expr

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/lemonberrylabs/exprcalc/pkg/types"
)

// evalOne evaluates input and requires exactly one non-empty result.
func evalOne(t *testing.T, input string, opts ...Option) types.Number {
	t.Helper()
	results, err := Eval(input, opts...)
	if err != nil {
		t.Fatalf("eval %q: %v", input, err)
	}
	if len(results) != 1 {
		t.Fatalf("eval %q: got %d results, want 1", input, len(results))
	}
	if !results[0].Ok {
		t.Fatalf("eval %q: got empty result", input)
	}
	return results[0].Value
}

func TestDocumentedExamples(t *testing.T) {
	tests := []struct {
		input   string
		postfix string
		want    string
	}{
		{"(2 * 2 + 4822) / 4", "2 2 * 4822 + 4 /", "1206.50: f64"},
		{"1 == 1", "1 1 ==", "1: bool"},
		{"6 & 3", "6 3 &", "2.00: f64"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if got := e.String(); got != tt.postfix {
				t.Errorf("postfix = %q, want %q", got, tt.postfix)
			}
			if got := evalOne(t, tt.input).String(); got != tt.want {
				t.Errorf("result = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArithmeticExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1 + 2", 3},
		{"10 - 3", 7},
		{"4 * 5", 20},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"7.5 % 2", 1.5},
		{"2 + 3 * 4", 14},           // precedence
		{"(2 + 3) * 4", 20},         // parens
		{"{2 + 3} * [1 + 1]", 10},   // every bracket kind groups
		{"10 - 4 - 3", 3},           // left associative
		{"64 / 4 / 2", 8},           // left associative
		{"1.5 + 1", 2.5},            // float literal
		{"4_822 + 1", 4823},         // '_' separator
		{"1-000 + 1", 1001},         // '-' separator between digits
		{"5 - 3", 2},                // spaced minus is an operator
		{"5- 3", 2},                 // trailing '-' is an operator
		{"5-3", 53},                 // '-' between digits is a separator
		{"1 << 4", 16},
		{"256 >> 4", 16},
		{"1 << 2 + 1", 8},           // additive binds tighter than shift
		{"1 | 2 & 3", 3},            // & binds tighter than |
		{"6 ^ 3 & 1", 7},            // & binds tighter than ^
		{"12 & 10 | 1", 9},
		{"3 * (4 + (2 - 1)) % 4", 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalOne(t, tt.input)
			if got.Float() != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.Kind() != types.KindF64 {
				t.Errorf("kind = %s, want f64", got.Kind())
			}
		})
	}
}

func TestComparisonExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1 == 1", true},
		{"1 == 2", false},
		{"1 != 2", true},
		{"1 != 1", false},
		{"1 < 2", true},
		{"2 < 1", false},
		{"2 > 1", true},
		{"1 <= 1", true},
		{"1 >= 2", false},
		{"2 >= 2", true},
		{"1 + 2 == 3", true},
		{"2 < 3 == 1", true},     // relational binds tighter than equality
		{"1 << 2 > 3", true},     // shift binds tighter than relational
		{"0.1 + 0.2 == 0.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := evalOne(t, tt.input)
			if got.Kind() != types.KindBool {
				t.Fatalf("kind = %s, want bool", got.Kind())
			}
			if got.Truthy() != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		results, err := Eval(input)
		if err != nil {
			t.Fatalf("eval %q: unexpected error %v", input, err)
		}
		if len(results) != 1 || results[0].Ok {
			t.Fatalf("eval %q: want one empty result, got %+v", input, results)
		}
		if results[0].String() != "" {
			t.Errorf("empty result renders as %q", results[0].String())
		}
	}
}

func TestSegments(t *testing.T) {
	results, err := Eval("1 + 1; 2 * 3;; (4)")
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	want := []string{"2.00: f64", "6.00: f64", "", "4.00: f64"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, r := range results {
		if r.String() != want[i] {
			t.Errorf("segment %d: got %q, want %q", i, r.String(), want[i])
		}
	}

	if results[1].Expression.Source != "2 * 3" {
		t.Errorf("segment source = %q, want %q", results[1].Expression.Source, "2 * 3")
	}
	if results[1].Expression.Pos != 7 {
		t.Errorf("segment pos = %d, want 7", results[1].Expression.Pos)
	}
}

func TestTokenizeMarkers(t *testing.T) {
	tokens, err := NewLexer("1;2").Tokenize()
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}

	want := []TokenType{TokenStart, TokenNumber, TokenEnd, TokenStart, TokenNumber, TokenEnd}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, tok := range tokens {
		if tok.Type != want[i] {
			t.Errorf("token %d: got %s, want %s", i, tok.Type, want[i])
		}
	}
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"<<", TokenShl},
		{">>", TokenShr},
		{"<=", TokenLte},
		{">=", TokenGte},
		{"==", TokenEq},
		{"!=", TokenNeq},
		{"<", TokenLt},
		{">", TokenGt},
		{"=", TokenAssign},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("tokenize error: %v", err)
			}
			// START, operator, END
			if len(tokens) != 3 {
				t.Fatalf("got %d tokens, want 3", len(tokens))
			}
			if tokens[1].Type != tt.want || tokens[1].Value != tt.input {
				t.Errorf("got %s %q, want %s %q", tokens[1].Type, tokens[1].Value, tt.want, tt.input)
			}
		})
	}
}

func TestBadToken(t *testing.T) {
	tests := []struct {
		input string
		char  rune
		pos   int
	}{
		{"1 $ 2", '$', 2},
		{"!1", '!', 0},
		{"1 = 2", '=', 2},
		{"2 € 2", '€', 2},
		{"abc", 'a', 0},
		{"1_", '_', 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Eval(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !types.HasTag(err, types.TagBadTokenError) {
				t.Fatalf("expected BadTokenError, got %v", err)
			}
			var ce *types.CalcError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *types.CalcError, got %T", err)
			}
			if ce.Char != tt.char || ce.Pos != tt.pos {
				t.Errorf("got char %q at %d, want %q at %d", ce.Char, ce.Pos, tt.char, tt.pos)
			}
		})
	}
}

func TestMismatchedBrackets(t *testing.T) {
	inputs := []string{
		"(1 + 2",
		"1 + 2)",
		"(1 + 2]",
		"{1 + 2)",
		"[(1 + 2])",
		"(1; 2)",
		")(",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseProgram(input)
			if !types.HasTag(err, types.TagMismatchedBracketsError) {
				t.Errorf("expected MismatchedBracketsError, got %v", err)
			}
		})
	}
}

func TestMalformedLiteral(t *testing.T) {
	_, err := Eval("1.2.3 + 1")
	if !types.HasTag(err, types.TagParsingError) {
		t.Errorf("expected ParsingError, got %v", err)
	}
}

func TestIncompleteExpressions(t *testing.T) {
	inputs := []string{"1 +", "* 2", "()+1", "1 == ", "(1 +) 2"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Eval(input)
			if !types.HasTag(err, types.TagIncompleteExpressionError) {
				t.Errorf("expected IncompleteExpressionError, got %v", err)
			}
		})
	}
}

func TestLeftoverOperandsYieldTop(t *testing.T) {
	tests := []struct {
		input   string
		postfix string
		want    string
	}{
		{"1 2", "1 2", "2.00: f64"},
		{"(1)(2)", "1 2", "2.00: f64"},
		{"1 + 2 3", "1 2 3 +", "5.00: f64"},
		{"4 (2 * 3)", "4 2 3 *", "6.00: f64"},
		{"1 2 == 2", "1 2 2 ==", "1: bool"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := e.String(); got != tt.postfix {
				t.Errorf("postfix = %q, want %q", got, tt.postfix)
			}
			if got := evalOne(t, tt.input).String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIncompleteSegmentAbortsProgram(t *testing.T) {
	results, err := Eval("1 + 1; 2 +")
	if err == nil {
		t.Fatal("expected error")
	}
	if results != nil {
		t.Errorf("expected no partial results, got %v", results)
	}
}

func TestDivisionByZero(t *testing.T) {
	if got := evalOne(t, "1 / 0").String(); got != "+Inf: f64" {
		t.Errorf("f64 1 / 0 = %q, want +Inf: f64", got)
	}

	_, err := Eval("1 / 0", WithLiteralKind(types.KindI64))
	if !types.HasTag(err, types.TagZeroDivisionError) {
		t.Errorf("expected ZeroDivisionError, got %v", err)
	}
}

func TestNegativeShift(t *testing.T) {
	_, err := Eval("1 << (0 - 1)")
	if !types.HasTag(err, types.TagParsingError) {
		t.Errorf("expected ParsingError, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	if got := evalOne(t, "7 / 2", WithLiteralKind(types.KindI64)).String(); got != "3: i64" {
		t.Errorf("i64 literals: got %q, want 3: i64", got)
	}
	if got := evalOne(t, "7 / 2", WithResultKind(types.KindI32)).String(); got != "3: i32" {
		t.Errorf("i32 result: got %q, want 3: i32", got)
	}
	if got := evalOne(t, "1 < 2", WithResultKind(types.KindF32)).String(); got != "1.00: f32" {
		t.Errorf("f32 result: got %q, want 1.00: f32", got)
	}
	if got := evalOne(t, "0 - 1", WithResultKind(types.KindU64)).String(); got != "0: u64" {
		t.Errorf("u64 result: got %q, want 0: u64", got)
	}

	_, err := Eval(strings.Repeat("1", 10), WithMaxLength(5))
	if !types.HasTag(err, types.TagParsingError) {
		t.Errorf("expected ParsingError for long input, got %v", err)
	}
	if _, err := Eval(strings.Repeat("1", 10), WithMaxLength(0)); err != nil {
		t.Errorf("unlimited length: unexpected error %v", err)
	}
}

func TestLargeIntegerLiteral(t *testing.T) {
	got := evalOne(t, "18446744073709551615", WithLiteralKind(types.KindU64))
	if got.String() != "18446744073709551615: u64" {
		t.Errorf("got %q", got.String())
	}
}

func TestParseIsDeterministic(t *testing.T) {
	inputs := []string{
		"(2 * 2 + 4822) / 4",
		"1 << 2 | 3 & 4 ^ 5 == 6; [7] >= {8}",
		"",
	}

	for _, input := range inputs {
		a, err := ParseProgram(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		b, err := ParseProgram(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("parse %q is not deterministic", input)
		}
	}
}

func TestPostfixHasNoBrackets(t *testing.T) {
	p, err := ParseProgram("((1 + [2 * {3 - 4}]) / (5))")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	for _, tok := range p.Expressions[0].Queue {
		if tok.Type.IsOpenBracket() || tok.Type.IsCloseBracket() {
			t.Errorf("bracket %s leaked into postfix queue", tok.Type)
		}
	}
	if got := p.Expressions[0].String(); got != "1 2 3 4 - * + 5 /" {
		t.Errorf("postfix = %q", got)
	}
}

// node is a random fully parenthesized expression with a known value.
type node struct {
	text  string
	value float64
}

func randomExpr(r *rand.Rand, depth int) node {
	if depth == 0 || r.IntN(4) == 0 {
		v := r.IntN(100)
		return node{text: fmt.Sprintf("%d", v), value: float64(v)}
	}
	left := randomExpr(r, depth-1)
	right := randomExpr(r, depth-1)
	switch r.IntN(3) {
	case 0:
		return node{text: "(" + left.text + " + " + right.text + ")", value: left.value + right.value}
	case 1:
		return node{text: "(" + left.text + " - " + right.text + ")", value: left.value - right.value}
	default:
		return node{text: "(" + left.text + " * " + right.text + ")", value: left.value * right.value}
	}
}

func TestFullyParenthesizedExpressions(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		n := randomExpr(r, 4)
		got := evalOne(t, n.text)
		if got.Float() != n.value {
			t.Errorf("%s = %v, want %v", n.text, got.Float(), n.value)
		}
	}
}
