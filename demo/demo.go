// Package demo builds the sample programs driven by the command line tool.
package demo

import (
	"symjit/ir"
	"symjit/types"
)

// PowN defines `pow_n(x s32) s64` computing x raised to the exponent n by
// repeated squaring.  The exponent is fixed while the program is built: the
// squaring loop runs on the host and only its steps are recorded.
func PowN(prog *ir.Program, n uint) (ir.FuncID, error) {
	reg := prog.Types
	s32, s64 := reg.Builtin(types.S32), reg.Builtin(types.S64)

	return prog.DefineFunc("pow_n", []types.ID{s32}, s64, func(b *ir.Builder) {
		result := b.Local(s64)
		b.Store(result, b.ConstInt(s64, 1))

		base := b.Local(s64)
		b.Store(base, b.Cast(s64, b.Param(0)))

		for ; n != 0; n >>= 1 {
			if n&1 == 1 {
				b.Store(result, b.Binary(ir.OpMul, b.Load(result), b.Load(base)))
			}

			b.Store(base, b.Binary(ir.OpMul, b.Load(base), b.Load(base)))
		}

		b.Return(b.Load(result))
	})
}

// Saxpy defines the device kernel `saxpy(n s32, a f32, x f32*, y f32*)`
// computing `y[i] = a*x[i] + y[i]` for every i below n.  The multiply-add is
// a separate device function.
func Saxpy(prog *ir.Program) (ir.FuncID, error) {
	reg := prog.Types
	s32, f32 := reg.Builtin(types.S32), reg.Builtin(types.F32)
	f32Ptr := reg.Pointer(f32)

	madd, err := prog.DefineFunc("madd", []types.ID{f32, f32, f32}, f32, func(b *ir.Builder) {
		b.Return(b.Binary(ir.OpAdd, b.Binary(ir.OpMul, b.Param(0), b.Param(1)), b.Param(2)))
	})
	if err != nil {
		return ir.NoFunc, err
	}

	return prog.DefineKernel("saxpy", []types.ID{s32, f32, f32Ptr, f32Ptr}, func(b *ir.Builder) {
		i := b.Local(s32)
		b.Store(i, b.ConstInt(s32, 0))

		b.While(func() ir.ExprID {
			return b.Binary(ir.OpLt, b.Load(i), b.Param(0))
		}, func() {
			xi := b.Offset(b.Param(2), b.Load(i))
			yi := b.Offset(b.Param(3), b.Load(i))

			b.Store(yi, b.CallFunc(madd, b.Param(1), b.Load(xi), b.Load(yi)))
			b.Store(i, b.Binary(ir.OpAdd, b.Load(i), b.ConstInt(s32, 1)))
		})

		b.Return(ir.NoExpr)
	})
}

// Hypot defines `hypot_len(x f32, y f32) f32` which uses math intrinsics and
// returns zero for non-finite inputs.
func Hypot(prog *ir.Program) (ir.FuncID, error) {
	f32 := prog.Types.Builtin(types.F32)

	return prog.DefineFunc("hypot_len", []types.ID{f32, f32}, f32, func(b *ir.Builder) {
		sum := b.Let(b.Binary(ir.OpAdd,
			b.Binary(ir.OpMul, b.Param(0), b.Param(0)),
			b.Binary(ir.OpMul, b.Param(1), b.Param(1)),
		))

		b.If(b.CallIntrinsic("math.isfinite.f32", sum), func() {
			b.Return(b.CallIntrinsic("math.sqrt.f32", sum))
		}, nil)

		b.Return(b.ConstFloat(f32, 0))
	})
}
