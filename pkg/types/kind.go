package types

import (
	"fmt"

	"github.com/lemonberrylabs/exprcalc/pkg/suggest"
)

// Kind is the type tag of a Number. The set of kinds is closed.
type Kind int

const (
	KindBool  Kind = iota // bool
	KindI32               // i32
	KindU32               // u32
	KindI64               // i64
	KindU64               // u64
	KindF32               // f32
	KindF64               // f64
	KindIsize             // isize (64-bit)
	KindUsize             // usize (64-bit)
)

// Names lists every valid type name. It is the vocabulary searched for
// "did you mean" suggestions, so its order decides ties.
var Names = []string{"i32", "u32", "i64", "u64", "f32", "f64", "isize", "usize", "bool"}

// promotionRank orders kinds for binary operations: the result of combining
// two values takes the kind with the higher rank.
var promotionRank = [...]int{
	KindBool:  0,
	KindI32:   1,
	KindU32:   2,
	KindI64:   3,
	KindU64:   4,
	KindF32:   5,
	KindF64:   6,
	KindIsize: 7,
	KindUsize: 8,
}

// String returns the type name used in display output.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindIsize:
		return "isize"
	case KindUsize:
		return "usize"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= KindBool && k <= KindUsize
}

// IsFloat reports whether values of this kind store a float64 payload.
func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

// IsUnsigned reports whether the integer payload is read as unsigned.
func (k Kind) IsUnsigned() bool {
	return k == KindU32 || k == KindU64 || k == KindUsize
}

// Promote returns the wider of two kinds.
func Promote(a, b Kind) Kind {
	if promotionRank[b] > promotionRank[a] {
		return b
	}
	return a
}

// ParseKind resolves a type name. Unknown names produce a ParsingError that
// suggests the closest valid name.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "bool":
		return KindBool, nil
	case "i32":
		return KindI32, nil
	case "u32":
		return KindU32, nil
	case "i64":
		return KindI64, nil
	case "u64":
		return KindU64, nil
	case "f32":
		return KindF32, nil
	case "f64":
		return KindF64, nil
	case "isize":
		return KindIsize, nil
	case "usize":
		return KindUsize, nil
	}

	word, _ := suggest.Nearest(name, Names)
	return 0, NewParsingError(fmt.Sprintf("unknown type '%s', did you mean '%s'?", name, word))
}
