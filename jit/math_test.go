package jit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symjit/ir"
	"symjit/types"
)

type mathCase struct {
	fn     string
	args   []float64
	expect float64
}

// defineMath defines name as a direct call to one math intrinsic.
func defineMath(t *testing.T, prog *ir.Program, name, intrin string, arity int, scalar types.Builtin) {
	t.Helper()

	ft := prog.Types.Builtin(scalar)
	params := make([]types.ID, arity)
	for i := range params {
		params[i] = ft
	}

	_, err := prog.DefineFunc(name, params, ft, func(b *ir.Builder) {
		args := make([]ir.ExprID, arity)
		for i := range args {
			args[i] = b.Param(i)
		}

		b.Return(b.CallIntrinsic(intrin, args...))
	})
	require.NoError(t, err)
}

func TestHostMathF64(t *testing.T) {
	cases := []mathCase{
		{"abs", []float64{-4}, 4},
		{"mod", []float64{7, 2}, math.Mod(7, 2)},
		{"remainder", []float64{7, 2}, math.Remainder(7, 2)},
		{"exp", []float64{5}, math.Exp(5)},
		{"exp2", []float64{5}, math.Exp2(5)},
		{"exp10", []float64{2}, 100},
		{"log", []float64{5}, math.Log(5)},
		{"log2", []float64{5}, math.Log2(5)},
		{"log10", []float64{5}, math.Log10(5)},
		{"pow", []float64{3.2, 6.7}, math.Pow(3.2, 6.7)},
		{"sqrt", []float64{5}, math.Sqrt(5)},
		{"rsqrt", []float64{4}, 0.5},
		{"sin", []float64{5}, math.Sin(5)},
		{"cos", []float64{5}, math.Cos(5)},
		{"tan", []float64{5}, math.Tan(5)},
		{"asin", []float64{0.675}, math.Asin(0.675)},
		{"acos", []float64{0.675}, math.Acos(0.675)},
		{"atan", []float64{0.675}, math.Atan(0.675)},
		{"atan2", []float64{3.2, 6.7}, math.Atan2(3.2, 6.7)},
		{"ceil", []float64{3.2}, 4},
		{"floor", []float64{3.2}, 3},
		{"trunc", []float64{3.2}, 3},
		{"round", []float64{3.5}, 4},
		{"min", []float64{3.2, 6.7}, 3.2},
		{"max", []float64{3.2, 6.7}, 6.7},
	}

	prog := ir.NewProgram(nil)
	for _, c := range cases {
		defineMath(t, prog, "f64_"+c.fn, "math."+c.fn+".f64", len(c.args), types.F64)
	}

	syms := compile(t, prog)

	for _, c := range cases {
		t.Run(c.fn, func(t *testing.T) {
			var got float64
			if len(c.args) == 1 {
				var fn func(float64) float64
				require.NoError(t, syms.Bind("f64_"+c.fn, &fn))
				got = fn(c.args[0])
			} else {
				var fn func(float64, float64) float64
				require.NoError(t, syms.Bind("f64_"+c.fn, &fn))
				got = fn(c.args[0], c.args[1])
			}

			assert.InEpsilon(t, c.expect, got, 1e-12)
		})
	}
}

func TestHostMathF32(t *testing.T) {
	cases := []mathCase{
		{"abs", []float64{-4}, 4},
		{"pow", []float64{3.2, 6.7}, math.Pow(3.2, 6.7)},
		{"sqrt", []float64{5}, math.Sqrt(5)},
		{"sin", []float64{5}, math.Sin(5)},
		{"atan2", []float64{3.2, 6.7}, math.Atan2(3.2, 6.7)},
		{"floor", []float64{3.2}, 3},
	}

	prog := ir.NewProgram(nil)
	for _, c := range cases {
		defineMath(t, prog, "f32_"+c.fn, "math."+c.fn+".f32", len(c.args), types.F32)
	}

	syms := compile(t, prog)

	for _, c := range cases {
		t.Run(c.fn, func(t *testing.T) {
			var got float32
			if len(c.args) == 1 {
				var fn func(float32) float32
				require.NoError(t, syms.Bind("f32_"+c.fn, &fn))
				got = fn(float32(c.args[0]))
			} else {
				var fn func(float32, float32) float32
				require.NoError(t, syms.Bind("f32_"+c.fn, &fn))
				got = fn(float32(c.args[0]), float32(c.args[1]))
			}

			assert.InEpsilon(t, c.expect, float64(got), 1e-5)
		})
	}
}

func TestHostMathClassification(t *testing.T) {
	prog := ir.NewProgram(nil)
	reg := prog.Types
	s32 := reg.Builtin(types.S32)

	for _, width := range []types.Builtin{types.F32, types.F64} {
		ft := reg.Builtin(width)
		for _, op := range []string{"isfinite", "isinf", "isnan"} {
			intrin := "math." + op + "." + width.String()
			_, err := prog.DefineFunc("classify_"+op+"_"+width.String(), []types.ID{ft}, s32, func(b *ir.Builder) {
				b.Return(b.Cast(s32, b.CallIntrinsic(intrin, b.Param(0))))
			})
			require.NoError(t, err)
		}
	}

	syms := compile(t, prog)

	var isFinite64, isInf64, isNaN64 func(float64) int32
	require.NoError(t, syms.Bind("classify_isfinite_f64", &isFinite64))
	require.NoError(t, syms.Bind("classify_isinf_f64", &isInf64))
	require.NoError(t, syms.Bind("classify_isnan_f64", &isNaN64))

	var isFinite32, isInf32, isNaN32 func(float32) int32
	require.NoError(t, syms.Bind("classify_isfinite_f32", &isFinite32))
	require.NoError(t, syms.Bind("classify_isinf_f32", &isInf32))
	require.NoError(t, syms.Bind("classify_isnan_f32", &isNaN32))

	tests := []struct {
		x                   float64
		finite, inf, notNum int32
	}{
		{3.2, 1, 0, 0},
		{math.Inf(1), 0, 1, 0},
		{math.Inf(-1), 0, 1, 0},
		{math.NaN(), 0, 0, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.finite, isFinite64(tt.x), "isfinite.f64(%v)", tt.x)
		assert.Equal(t, tt.inf, isInf64(tt.x), "isinf.f64(%v)", tt.x)
		assert.Equal(t, tt.notNum, isNaN64(tt.x), "isnan.f64(%v)", tt.x)

		x32 := float32(tt.x)
		assert.Equal(t, tt.finite, isFinite32(x32), "isfinite.f32(%v)", tt.x)
		assert.Equal(t, tt.inf, isInf32(x32), "isinf.f32(%v)", tt.x)
		assert.Equal(t, tt.notNum, isNaN32(x32), "isnan.f32(%v)", tt.x)
	}
}
