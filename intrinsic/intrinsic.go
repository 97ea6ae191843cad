// Package intrinsic defines the closed vocabulary of abstract math operations
// and the external naming contract used to bridge them to host runtimes.
package intrinsic

import (
	"fmt"
	"strings"

	"symjit/report"
)

// Op is an abstract math operation.  This must be one of the enumerated
// operations below.
type Op int

// Enumeration of math operations.
const (
	Abs Op = iota
	Mod
	Remainder
	Exp
	Exp2
	Exp10
	Log
	Log2
	Log10
	Pow
	Sqrt
	Rsqrt
	Sin
	Cos
	Tan
	Asin
	Acos
	Atan
	Atan2
	Ceil
	Floor
	Trunc
	Round
	IsFinite
	IsInf
	IsNaN
	Min
	Max

	numOps
)

var opNames = [...]string{
	Abs:       "abs",
	Mod:       "mod",
	Remainder: "remainder",
	Exp:       "exp",
	Exp2:      "exp2",
	Exp10:     "exp10",
	Log:       "log",
	Log2:      "log2",
	Log10:     "log10",
	Pow:       "pow",
	Sqrt:      "sqrt",
	Rsqrt:     "rsqrt",
	Sin:       "sin",
	Cos:       "cos",
	Tan:       "tan",
	Asin:      "asin",
	Acos:      "acos",
	Atan:      "atan",
	Atan2:     "atan2",
	Ceil:      "ceil",
	Floor:     "floor",
	Trunc:     "trunc",
	Round:     "round",
	IsFinite:  "isfinite",
	IsInf:     "isinf",
	IsNaN:     "isnan",
	Min:       "min",
	Max:       "max",
}

func (op Op) String() string {
	if 0 <= op && op < numOps {
		return opNames[op]
	}

	return fmt.Sprintf("op(%d)", int(op))
}

// Arity returns the number of operands the operation takes.
func (op Op) Arity() int {
	switch op {
	case Mod, Remainder, Pow, Atan2, Min, Max:
		return 2
	default:
		return 1
	}
}

// IsClassification returns whether the operation classifies its operand.
// Classification results cross the host boundary as 32-bit integers.
func (op Op) IsClassification() bool {
	return op == IsFinite || op == IsInf || op == IsNaN
}

// Width is the floating-point width an operation is instantiated at.
type Width int

// Enumeration of widths.
const (
	F32 Width = iota
	F64
)

func (w Width) String() string {
	if w == F32 {
		return "f32"
	}

	return "f64"
}

// Bits returns the width in bits.
func (w Width) Bits() int {
	if w == F32 {
		return 32
	}

	return 64
}

// -----------------------------------------------------------------------------

// Intrinsic is an operation instantiated at a width.
type Intrinsic struct {
	Op    Op
	Width Width
}

// String returns the abstract identifier: eg. `math.pow.f64`.
func (in Intrinsic) String() string {
	return "math." + in.Op.String() + "." + in.Width.String()
}

// HostName returns the name of the host extern the intrinsic is declared as:
// eg. `host.math.pow.f64`.
func (in Intrinsic) HostName() string {
	return "host." + in.String()
}

// HostSignature describes the scalar C signature of the host extern.
func (in Intrinsic) HostSignature() string {
	scalar := "float"
	if in.Width == F64 {
		scalar = "double"
	}

	ret := scalar
	if in.Op.IsClassification() {
		ret = "i32"
	}

	params := make([]string, in.Op.Arity())
	for i := range params {
		params[i] = scalar
	}

	return fmt.Sprintf("%s (%s)", ret, strings.Join(params, ", "))
}

var byName map[string]Intrinsic

func init() {
	byName = make(map[string]Intrinsic, int(numOps)*2)
	for _, in := range All() {
		byName[in.String()] = in
	}
}

// All returns every intrinsic in vocabulary order, f32 before f64.
func All() []Intrinsic {
	all := make([]Intrinsic, 0, int(numOps)*2)
	for op := Op(0); op < numOps; op++ {
		all = append(all, Intrinsic{op, F32}, Intrinsic{op, F64})
	}

	return all
}

// Parse resolves an abstract identifier of the form `math.<op>.<width>`.  An
// unknown identifier is a fatal error.
func Parse(name string) (Intrinsic, error) {
	if in, ok := byName[name]; ok {
		return in, nil
	}

	return Intrinsic{}, report.Fatal(report.FatalUnknownIntrinsic, "unknown host math function: %s", name)
}

// Valid returns whether the intrinsic is part of the vocabulary.
func (in Intrinsic) Valid() bool {
	return 0 <= in.Op && in.Op < numOps && (in.Width == F32 || in.Width == F64)
}
