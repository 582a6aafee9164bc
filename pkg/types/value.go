// Package types defines the numeric value model shared by the expression
// pipeline: a tagged scalar over a closed set of kinds, its promotion rules,
// and the error taxonomy reported by the tokenizer, converter and evaluator.
package types

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
)

// Number is a tagged scalar. Float kinds keep IEEE-754 bits in the payload,
// every other kind keeps a two's complement integer. The payload is always
// normalized to the width of the kind, so both projections are well defined.
type Number struct {
	kind Kind
	bits uint64
}

// Primitive is the set of native types a Number can be built from.
type Primitive interface {
	bool | int32 | uint32 | int64 | uint64 | float32 | float64 | int | uint
}

// From builds a Number tagged with the kind of the native value.
func From[T Primitive](v T) Number {
	switch x := any(v).(type) {
	case bool:
		if x {
			return NewInt(KindBool, 1)
		}
		return NewInt(KindBool, 0)
	case int32:
		return NewInt(KindI32, int64(x))
	case uint32:
		return NewInt(KindU32, int64(x))
	case int64:
		return NewInt(KindI64, x)
	case uint64:
		return Number{kind: KindU64, bits: x}
	case float32:
		return NewFloat(KindF32, float64(x))
	case float64:
		return NewFloat(KindF64, x)
	case int:
		return NewInt(KindIsize, int64(x))
	case uint:
		return Number{kind: KindUsize, bits: uint64(x)}
	default:
		panic(fmt.Sprintf("types.From: unreachable type %T", v))
	}
}

// NewInt builds a Number of the given kind from an integer payload.
func NewInt(kind Kind, v int64) Number {
	switch kind {
	case KindBool:
		if v != 0 {
			return Number{kind: kind, bits: 1}
		}
		return Number{kind: kind}
	case KindI32:
		return Number{kind: kind, bits: uint64(int64(int32(v)))}
	case KindU32:
		return Number{kind: kind, bits: uint64(uint32(v))}
	case KindF32, KindF64:
		return NewFloat(kind, float64(v))
	default:
		return Number{kind: kind, bits: uint64(v)}
	}
}

// NewFloat builds a Number of the given kind from a float payload. Integer
// kinds truncate toward zero. u64 and usize saturate at 0 and MaxUint64; the
// other integer kinds saturate at the bounds of int64 and then narrow like
// NewInt. NaN becomes zero.
func NewFloat(kind Kind, f float64) Number {
	switch kind {
	case KindF64:
		return Number{kind: kind, bits: math.Float64bits(f)}
	case KindF32:
		return Number{kind: kind, bits: math.Float64bits(float64(float32(f)))}
	case KindBool:
		return NewInt(kind, boolInt(f != 0 && !math.IsNaN(f)))
	case KindU64, KindUsize:
		if f >= math.MaxInt64 {
			if f >= math.MaxUint64 {
				return Number{kind: kind, bits: math.MaxUint64}
			}
			return Number{kind: kind, bits: uint64(f)}
		}
		if f < 0 {
			return Number{kind: kind}
		}
		return NewInt(kind, floatToInt(f))
	default:
		return NewInt(kind, floatToInt(f))
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// Kind returns the type tag.
func (n Number) Kind() Kind {
	return n.kind
}

// Int projects the value to int64. Float kinds truncate toward zero; unsigned
// values above MaxInt64 wrap.
func (n Number) Int() int64 {
	if n.kind.IsFloat() {
		return floatToInt(math.Float64frombits(n.bits))
	}
	return int64(n.bits)
}

// Float projects the value to float64.
func (n Number) Float() float64 {
	switch {
	case n.kind.IsFloat():
		return math.Float64frombits(n.bits)
	case n.kind.IsUnsigned():
		return float64(n.bits)
	default:
		return float64(int64(n.bits))
	}
}

// Truthy reports whether the value is non-zero and not NaN.
func (n Number) Truthy() bool {
	if n.kind.IsFloat() {
		f := n.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return n.bits != 0
}

// Convert re-tags the value, converting the payload to the new kind.
func (n Number) Convert(kind Kind) Number {
	if kind.IsFloat() || n.kind.IsFloat() {
		return NewFloat(kind, n.Float())
	}
	return NewInt(kind, int64(n.bits))
}

// Text renders the value without its type name.
func (n Number) Text() string {
	switch {
	case n.kind.IsFloat():
		return strconv.FormatFloat(n.Float(), 'f', 2, 64)
	case n.kind.IsUnsigned():
		return strconv.FormatUint(n.bits, 10)
	default:
		return strconv.FormatInt(int64(n.bits), 10)
	}
}

// String renders the value as "<value>: <type>", e.g. "1206.50: f64".
func (n Number) String() string {
	return n.Text() + ": " + n.kind.String()
}

// Equal reports whether two values compare equal under Compare.
func (n Number) Equal(other Number) bool {
	return Compare(n, other) == 0
}

// Compare orders two values. When neither value is a float kind the integer
// payloads are compared exactly, with unsigned values above MaxInt64 ordered
// above every signed value. Otherwise the float projections are compared,
// with NaN ordered below every other value.
func Compare(a, b Number) int {
	if a.kind.IsFloat() || b.kind.IsFloat() {
		return cmp.Compare(a.Float(), b.Float())
	}

	aHigh := a.kind.IsUnsigned() && int64(a.bits) < 0
	bHigh := b.kind.IsUnsigned() && int64(b.bits) < 0
	switch {
	case aHigh && bHigh:
		return cmp.Compare(a.bits, b.bits)
	case aHigh:
		return 1
	case bHigh:
		return -1
	default:
		return cmp.Compare(int64(a.bits), int64(b.bits))
	}
}

// Add returns a + b computed on the float projections.
func (n Number) Add(other Number) Number {
	return NewFloat(Promote(n.kind, other.kind), n.Float()+other.Float())
}

// Sub returns a - b computed on the float projections.
func (n Number) Sub(other Number) Number {
	return NewFloat(Promote(n.kind, other.kind), n.Float()-other.Float())
}

// Mul returns a * b computed on the float projections.
func (n Number) Mul(other Number) Number {
	return NewFloat(Promote(n.kind, other.kind), n.Float()*other.Float())
}

// Div returns a / b computed on the float projections. Dividing by zero is an
// error unless the result kind is a float kind.
func (n Number) Div(other Number) (Number, error) {
	kind := Promote(n.kind, other.kind)
	if other.Float() == 0 && !kind.IsFloat() {
		return Number{}, NewZeroDivisionError()
	}
	return NewFloat(kind, n.Float()/other.Float()), nil
}

// Rem returns the floating-point remainder of a / b, with the same zero rule
// as Div.
func (n Number) Rem(other Number) (Number, error) {
	kind := Promote(n.kind, other.kind)
	if other.Float() == 0 && !kind.IsFloat() {
		return Number{}, NewZeroDivisionError()
	}
	return NewFloat(kind, math.Mod(n.Float(), other.Float())), nil
}

// Shl shifts the integer projection left. Negative counts are rejected.
func (n Number) Shl(other Number) (Number, error) {
	count := other.Int()
	if count < 0 {
		return Number{}, NewParsingError(fmt.Sprintf("negative shift count %d", count))
	}
	return NewInt(Promote(n.kind, other.kind), n.Int()<<uint64(count)), nil
}

// Shr shifts the integer projection right (arithmetic shift). Negative counts
// are rejected.
func (n Number) Shr(other Number) (Number, error) {
	count := other.Int()
	if count < 0 {
		return Number{}, NewParsingError(fmt.Sprintf("negative shift count %d", count))
	}
	return NewInt(Promote(n.kind, other.kind), n.Int()>>uint64(count)), nil
}

// And returns the bitwise AND of the integer projections.
func (n Number) And(other Number) Number {
	return NewInt(Promote(n.kind, other.kind), n.Int()&other.Int())
}

// Or returns the bitwise OR of the integer projections.
func (n Number) Or(other Number) Number {
	return NewInt(Promote(n.kind, other.kind), n.Int()|other.Int())
}

// Xor returns the bitwise XOR of the integer projections.
func (n Number) Xor(other Number) Number {
	return NewInt(Promote(n.kind, other.kind), n.Int()^other.Int())
}
