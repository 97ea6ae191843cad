package ir

import (
	"symjit/intrinsic"
	"symjit/types"
)

// ExprID is a handle to an expression node in a program's arena.  Expression
// nodes are immutable once created and may be referenced by any number of
// consumers within the same program.  Each use site evaluates the expression
// anew: use `Assign` to evaluate a value exactly once.
type ExprID uint32

// NoExpr is the invalid expression handle.
const NoExpr ExprID = 0

// IsValid returns whether the handle refers to an expression.
func (id ExprID) IsValid() bool { return id != NoExpr }

// Expr is an expression node.
type Expr interface {
	// Type returns the result type of the expression.
	Type() types.ID

	exprNode()
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	typ types.ID
}

func (eb ExprBase) Type() types.ID {
	return eb.typ
}

func (ExprBase) exprNode() {}

// -----------------------------------------------------------------------------

// Const is a constant scalar.  Integers, chars and bools are stored in Bits as
// their two's complement representation; floats are stored in Float.
type Const struct {
	ExprBase

	Bits  uint64
	Float float64
}

// NullPtr is the null pointer of a pointer type.
type NullPtr struct {
	ExprBase
}

// ParamRef is the value of a function parameter.
type ParamRef struct {
	ExprBase

	Index int
}

// LocalAddr is the address of a local memory slot.  Its type is a pointer to
// the slot's type.
type LocalAddr struct {
	ExprBase

	Local int
}

// TempRef is the value bound to a temporary by `Assign`.
type TempRef struct {
	ExprBase

	Temp int
}

// ResultSlot is the caller-supplied destination of an array or struct
// returning function.
type ResultSlot struct {
	ExprBase
}

// Load reads the pointee of Addr.
type Load struct {
	ExprBase

	Addr ExprID
}

// UnaryOp is a unary operator.
type UnaryOp int

// Enumeration of unary operators.
const (
	OpNeg    UnaryOp = iota // arithmetic negation
	OpNot                   // boolean not
	OpBitNot                // bitwise complement
)

// Unary is a unary operation.
type Unary struct {
	ExprBase

	Op UnaryOp
	X  ExprID
}

// BinaryOp is a binary operator.
type BinaryOp int

// Enumeration of binary operators.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogicAnd
	OpLogicOr
)

// IsComparison returns whether the operator yields a bool from two operands
// of the same type.
func (op BinaryOp) IsComparison() bool {
	return OpEq <= op && op <= OpGe
}

// Binary is a binary operation.  Both operands have the same type.
type Binary struct {
	ExprBase

	Op   BinaryOp
	X, Y ExprID
}

// Cast converts between arithmetic and bool types.
type Cast struct {
	ExprBase

	X ExprID
}

// BitCast reinterprets a pointer as a pointer of another type.
type BitCast struct {
	ExprBase

	X ExprID
}

// PointerOffset advances a pointer by Index elements of its pointee.
type PointerOffset struct {
	ExprBase

	Base, Index ExprID
}

// MemberAddr is the address of member Field of the struct Base points to.
type MemberAddr struct {
	ExprBase

	Base  ExprID
	Field int
}

// ElemAddr is the address of element Index of the array Base points to.
type ElemAddr struct {
	ExprBase

	Base, Index ExprID
}

// CallExpr is a call to a function or intrinsic whose result is used as a
// value.
type CallExpr struct {
	ExprBase

	Callee Callee
	Args   []ExprID
}

// -----------------------------------------------------------------------------

// Callee identifies the target of a call: a user function or an intrinsic.
type Callee struct {
	Func      FuncID
	Intrinsic intrinsic.Intrinsic

	// IsIntrinsic indicates that Intrinsic is the target rather than Func.
	IsIntrinsic bool
}

// FuncCallee returns a callee for a user function.
func FuncCallee(id FuncID) Callee {
	return Callee{Func: id}
}

// IntrinsicCallee returns a callee for an intrinsic.
func IntrinsicCallee(in intrinsic.Intrinsic) Callee {
	return Callee{Intrinsic: in, IsIntrinsic: true}
}
