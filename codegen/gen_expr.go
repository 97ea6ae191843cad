package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"symjit/ir"
	"symjit/report"
	"symjit/types"
)

// genExpr lowers an expression at the current block and returns its value.
// Shared expressions are lowered again at each use.
func (g *Generator) genExpr(id ir.ExprID) value.Value {
	switch v := g.prog.Expr(id).(type) {
	case *ir.Const:
		return g.genConst(v)
	case *ir.NullPtr:
		return constant.NewNull(g.convType(v.Type()).(*lltypes.PointerType))
	case *ir.ParamRef:
		return g.params[v.Index]
	case *ir.LocalAddr:
		return g.locals[v.Local]
	case *ir.TempRef:
		return g.block.NewLoad(g.convType(v.Type()), g.temps[v.Temp])
	case *ir.ResultSlot:
		return g.resultPtr
	case *ir.Load:
		return g.block.NewLoad(g.convType(v.Type()), g.genExpr(v.Addr))
	case *ir.Unary:
		return g.genUnary(v)
	case *ir.Binary:
		return g.genBinary(v)
	case *ir.Cast:
		return g.genCast(g.genExpr(v.X), g.prog.TypeOf(v.X), v.Type())
	case *ir.BitCast:
		return g.block.NewBitCast(g.genExpr(v.X), g.convType(v.Type()))
	case *ir.PointerOffset:
		pointee, _ := g.prog.Types.IsPointer(v.Type())
		return g.block.NewGetElementPtr(g.convPointer(pointee).ElemType, g.genExpr(v.Base), g.genIndex(v.Index))
	case *ir.MemberAddr:
		st, _ := g.prog.Types.IsPointer(g.prog.TypeOf(v.Base))
		return g.block.NewGetElementPtr(
			g.convType(st),
			g.genExpr(v.Base),
			constant.NewInt(lltypes.I32, 0),
			constant.NewInt(lltypes.I32, int64(v.Field)),
		)
	case *ir.ElemAddr:
		at, _ := g.prog.Types.IsPointer(g.prog.TypeOf(v.Base))
		return g.block.NewGetElementPtr(
			g.convType(at),
			g.genExpr(v.Base),
			constant.NewInt(lltypes.I64, 0),
			g.genIndex(v.Index),
		)
	case *ir.CallExpr:
		return g.genCall(v.Callee, v.Args)
	default:
		report.ICE("unknown expression %T", v)
		return nil
	}
}

// genConst lowers a constant.
func (g *Generator) genConst(c *ir.Const) value.Value {
	switch typ := g.convType(c.Type()).(type) {
	case *lltypes.IntType:
		if typ.BitSize == 1 {
			return constant.NewBool(c.Bits != 0)
		}

		return constant.NewInt(typ, signExtend(c.Bits, typ.BitSize))
	case *lltypes.FloatType:
		return constant.NewFloat(typ, c.Float)
	default:
		report.ICE("constant of type %s", g.prog.Types.Repr(c.Type()))
		return nil
	}
}

// signExtend interprets the low bits of v as a signed integer.
func signExtend(v uint64, bits uint64) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// genIndex lowers an index expression as a 64-bit integer.
func (g *Generator) genIndex(id ir.ExprID) value.Value {
	return g.genCast(g.genExpr(id), g.prog.TypeOf(id), g.prog.Types.Builtin(types.S64))
}

// -----------------------------------------------------------------------------

// genUnary lowers a unary operation.
func (g *Generator) genUnary(u *ir.Unary) value.Value {
	x := g.genExpr(u.X)

	switch u.Op {
	case ir.OpNeg:
		if g.prog.Types.IsFloat(u.Type()) {
			return g.block.NewFNeg(x)
		}

		return g.block.NewSub(constant.NewInt(x.Type().(*lltypes.IntType), 0), x)
	case ir.OpNot:
		return g.block.NewXor(x, constant.NewBool(true))
	case ir.OpBitNot:
		return g.block.NewXor(x, constant.NewInt(x.Type().(*lltypes.IntType), -1))
	}

	report.ICE("unknown unary operator %d", u.Op)
	return nil
}

var (
	signedPreds = map[ir.BinaryOp]enum.IPred{
		ir.OpEq: enum.IPredEQ, ir.OpNe: enum.IPredNE,
		ir.OpLt: enum.IPredSLT, ir.OpLe: enum.IPredSLE,
		ir.OpGt: enum.IPredSGT, ir.OpGe: enum.IPredSGE,
	}

	unsignedPreds = map[ir.BinaryOp]enum.IPred{
		ir.OpEq: enum.IPredEQ, ir.OpNe: enum.IPredNE,
		ir.OpLt: enum.IPredULT, ir.OpLe: enum.IPredULE,
		ir.OpGt: enum.IPredUGT, ir.OpGe: enum.IPredUGE,
	}

	floatPreds = map[ir.BinaryOp]enum.FPred{
		ir.OpEq: enum.FPredOEQ, ir.OpNe: enum.FPredUNE,
		ir.OpLt: enum.FPredOLT, ir.OpLe: enum.FPredOLE,
		ir.OpGt: enum.FPredOGT, ir.OpGe: enum.FPredOGE,
	}
)

// genBinary lowers a binary operation.
func (g *Generator) genBinary(b *ir.Binary) value.Value {
	if b.Op == ir.OpLogicAnd || b.Op == ir.OpLogicOr {
		return g.genShortCircuit(b)
	}

	operandType := g.prog.TypeOf(b.X)
	isFloat := g.prog.Types.IsFloat(operandType)
	signed := g.isSigned(operandType)

	x, y := g.genExpr(b.X), g.genExpr(b.Y)

	if b.Op.IsComparison() {
		switch {
		case isFloat:
			return g.block.NewFCmp(floatPreds[b.Op], x, y)
		case signed:
			return g.block.NewICmp(signedPreds[b.Op], x, y)
		default:
			return g.block.NewICmp(unsignedPreds[b.Op], x, y)
		}
	}

	switch b.Op {
	case ir.OpAdd:
		if isFloat {
			return g.block.NewFAdd(x, y)
		}
		return g.block.NewAdd(x, y)
	case ir.OpSub:
		if isFloat {
			return g.block.NewFSub(x, y)
		}
		return g.block.NewSub(x, y)
	case ir.OpMul:
		if isFloat {
			return g.block.NewFMul(x, y)
		}
		return g.block.NewMul(x, y)
	case ir.OpDiv:
		switch {
		case isFloat:
			return g.block.NewFDiv(x, y)
		case signed:
			return g.block.NewSDiv(x, y)
		default:
			return g.block.NewUDiv(x, y)
		}
	case ir.OpRem:
		switch {
		case isFloat:
			return g.block.NewFRem(x, y)
		case signed:
			return g.block.NewSRem(x, y)
		default:
			return g.block.NewURem(x, y)
		}
	case ir.OpAnd:
		return g.block.NewAnd(x, y)
	case ir.OpOr:
		return g.block.NewOr(x, y)
	case ir.OpXor:
		return g.block.NewXor(x, y)
	case ir.OpShl:
		return g.block.NewShl(x, y)
	case ir.OpShr:
		if signed {
			return g.block.NewAShr(x, y)
		}
		return g.block.NewLShr(x, y)
	}

	report.ICE("unknown binary operator %d", b.Op)
	return nil
}

// genShortCircuit lowers a logical and/or.  The right operand is only
// evaluated if the left operand does not determine the result.  The result is
// carried in a memory slot.
func (g *Generator) genShortCircuit(b *ir.Binary) value.Value {
	slot := g.varBlock.NewAlloca(lltypes.I1)

	x := g.genExpr(b.X)
	g.block.NewStore(x, slot)
	lhsEnd := g.block

	rhsBlock := g.appendBlock()
	g.block = rhsBlock
	g.block.NewStore(g.genExpr(b.Y), slot)
	rhsEnd := g.block

	exitBlock := g.appendBlock()
	rhsEnd.NewBr(exitBlock)

	if b.Op == ir.OpLogicAnd {
		lhsEnd.NewCondBr(x, rhsBlock, exitBlock)
	} else {
		lhsEnd.NewCondBr(x, exitBlock, rhsBlock)
	}

	g.block = exitBlock
	return g.block.NewLoad(lltypes.I1, slot)
}

// genCast converts a value between arithmetic and bool types.
func (g *Generator) genCast(x value.Value, from, to types.ID) value.Value {
	if from == to {
		return x
	}

	reg := g.prog.Types
	dstType := g.convType(to)

	switch {
	case reg.IsBool(to):
		if reg.IsFloat(from) {
			return g.block.NewFCmp(enum.FPredUNE, x, constant.NewFloat(x.Type().(*lltypes.FloatType), 0))
		}

		return g.block.NewICmp(enum.IPredNE, x, constant.NewInt(x.Type().(*lltypes.IntType), 0))
	case reg.IsBool(from):
		if reg.IsFloat(to) {
			return g.block.NewUIToFP(x, dstType)
		}

		return g.block.NewZExt(x, dstType)
	case reg.IsFloat(from) && reg.IsFloat(to):
		if from == reg.Builtin(types.F32) {
			return g.block.NewFPExt(x, dstType)
		}

		return g.block.NewFPTrunc(x, dstType)
	case reg.IsFloat(from):
		if g.isSigned(to) {
			return g.block.NewFPToSI(x, dstType)
		}

		return g.block.NewFPToUI(x, dstType)
	case reg.IsFloat(to):
		if g.isSigned(from) {
			return g.block.NewSIToFP(x, dstType)
		}

		return g.block.NewUIToFP(x, dstType)
	}

	// integer to integer
	fromBits := x.Type().(*lltypes.IntType).BitSize
	toBits := dstType.(*lltypes.IntType).BitSize

	switch {
	case fromBits == toBits:
		return x
	case fromBits > toBits:
		return g.block.NewTrunc(x, dstType)
	case g.isSigned(from):
		return g.block.NewSExt(x, dstType)
	default:
		return g.block.NewZExt(x, dstType)
	}
}

// -----------------------------------------------------------------------------

// genCall lowers a call to a function or intrinsic returning a scalar,
// pointer or void.  It returns nil for void calls.
func (g *Generator) genCall(callee ir.Callee, args []ir.ExprID) value.Value {
	if callee.IsIntrinsic {
		llArgs := make([]value.Value, len(args))
		for i, arg := range args {
			llArgs[i] = g.genExpr(arg)
		}

		return g.bridge.call(g, callee.Intrinsic, llArgs)
	}

	call := g.genFuncCall(callee.Func, args, nil)
	if g.prog.Types.IsVoid(g.prog.Func(callee.Func).Return) {
		return nil
	}

	return call
}

// genFuncCall lowers a call to a user function.  dst is the destination of an
// array or struct returning function.
func (g *Generator) genFuncCall(id ir.FuncID, args []ir.ExprID, dst value.Value) value.Value {
	var llArgs []value.Value
	if dst != nil {
		llArgs = append(llArgs, dst)
	}

	for _, arg := range args {
		llArgs = append(llArgs, g.genExpr(arg))
	}

	callee := g.funcs[id-1]
	call := g.block.NewCall(callee, llArgs...)
	call.CallingConv = callee.CallingConv
	return call
}
