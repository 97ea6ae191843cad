package jit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symjit/codegen"
	"symjit/demo"
	"symjit/intrinsic"
	"symjit/ir"
	"symjit/report"
	"symjit/types"
)

func compile(t *testing.T, prog *ir.Program) *Symbols {
	t.Helper()

	syms, err := Compile(prog, codegen.O2)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, syms.Close()) })

	return syms
}

func TestPowN(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := demo.PowN(prog, 5)
	require.NoError(t, err)

	syms := compile(t, prog)

	var powN func(int32) int64
	require.NoError(t, syms.Bind("pow_n", &powN))

	assert.Equal(t, int64(243), powN(3))
	assert.Equal(t, int64(32), powN(2))
	assert.Equal(t, int64(-1), powN(-1))
}

func TestPowNAllLevels(t *testing.T) {
	for _, level := range []codegen.OptLevel{codegen.O0, codegen.O1, codegen.O2, codegen.O3} {
		prog := ir.NewProgram(nil)
		_, err := demo.PowN(prog, 10)
		require.NoError(t, err)

		syms, err := Compile(prog, level)
		require.NoError(t, err, "level %s", level)

		var powN func(int32) int64
		require.NoError(t, syms.Bind("pow_n", &powN))
		assert.Equal(t, int64(1024), powN(2), "level %s", level)

		require.NoError(t, syms.Close())
	}
}

// countOdd counts the odd numbers in [1, n] which do not exceed limit.
func countOdd(prog *ir.Program, limit int64) (ir.FuncID, error) {
	s32 := prog.Types.Builtin(types.S32)

	return prog.DefineFunc("count_odd", []types.ID{s32}, s32, func(b *ir.Builder) {
		i := b.Local(s32)
		b.Store(i, b.ConstInt(s32, 0))
		count := b.Local(s32)
		b.Store(count, b.ConstInt(s32, 0))

		b.While(func() ir.ExprID {
			return b.Binary(ir.OpLt, b.Load(i), b.Param(0))
		}, func() {
			b.Store(i, b.Binary(ir.OpAdd, b.Load(i), b.ConstInt(s32, 1)))

			b.If(b.Binary(ir.OpEq, b.Binary(ir.OpRem, b.Load(i), b.ConstInt(s32, 2)), b.ConstInt(s32, 0)), func() {
				b.Continue()
			}, nil)

			b.If(b.Binary(ir.OpGt, b.Load(i), b.ConstInt(s32, limit)), func() {
				b.Break()
			}, nil)

			b.Store(count, b.Binary(ir.OpAdd, b.Load(count), b.ConstInt(s32, 1)))
		})

		b.Return(b.Load(count))
	})
}

func TestLoopBreakContinue(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := countOdd(prog, 100)
	require.NoError(t, err)

	syms := compile(t, prog)

	var count func(int32) int32
	require.NoError(t, syms.Bind("count_odd", &count))

	assert.Equal(t, int32(0), count(0))
	assert.Equal(t, int32(5), count(10))
	assert.Equal(t, int32(50), count(1000))
}

func TestShortCircuit(t *testing.T) {
	prog := ir.NewProgram(nil)
	reg := prog.Types
	s32 := reg.Builtin(types.S32)

	// in_range(x) reports 0 < x && x < 10 || x == 42.
	_, err := prog.DefineFunc("in_range", []types.ID{s32}, s32, func(b *ir.Builder) {
		lower := b.Binary(ir.OpLt, b.ConstInt(s32, 0), b.Param(0))
		upper := b.Binary(ir.OpLt, b.Param(0), b.ConstInt(s32, 10))
		special := b.Binary(ir.OpEq, b.Param(0), b.ConstInt(s32, 42))

		b.Return(b.Cast(s32, b.Binary(ir.OpLogicOr, b.Binary(ir.OpLogicAnd, lower, upper), special)))
	})
	require.NoError(t, err)

	syms := compile(t, prog)

	var inRange func(int32) int32
	require.NoError(t, syms.Bind("in_range", &inRange))

	assert.Equal(t, int32(1), inRange(5))
	assert.Equal(t, int32(1), inRange(42))
	assert.Equal(t, int32(0), inRange(0))
	assert.Equal(t, int32(0), inRange(10))
}

func TestStructReturn(t *testing.T) {
	prog := ir.NewProgram(nil)
	reg := prog.Types
	s32 := reg.Builtin(types.S32)
	pairT := reg.Struct(s32, s32)

	// mk_direct writes straight into the caller's result.
	_, err := prog.DefineFunc("mk_direct", []types.ID{s32}, pairT, func(b *ir.Builder) {
		b.Store(b.Member(b.ResultSlot(), 0), b.Param(0))
		b.Store(b.Member(b.ResultSlot(), 1), b.Binary(ir.OpMul, b.Param(0), b.ConstInt(s32, 2)))
		b.ReturnClass(b.ResultSlot())
	})
	require.NoError(t, err)

	// mk_copy builds the pair in a local which is copied out on return.
	mkCopy, err := prog.DefineFunc("mk_copy", []types.ID{s32}, pairT, func(b *ir.Builder) {
		p := b.Local(pairT)
		b.Store(b.Member(p, 0), b.Binary(ir.OpAdd, b.Param(0), b.ConstInt(s32, 1)))
		b.Store(b.Member(p, 1), b.Binary(ir.OpAdd, b.Param(0), b.ConstInt(s32, 2)))
		b.ReturnClass(p)
	})
	require.NoError(t, err)

	_, err = prog.DefineFunc("sum_pair", []types.ID{s32}, s32, func(b *ir.Builder) {
		p := b.Local(pairT)
		b.Call(ir.FuncCallee(mkCopy), p, b.Param(0))
		b.Return(b.Binary(ir.OpAdd, b.Load(b.Member(p, 0)), b.Load(b.Member(p, 1))))
	})
	require.NoError(t, err)

	syms := compile(t, prog)

	type pair struct{ A, B int32 }

	var mkDirect, mkCopyFn func(*pair, int32)
	require.NoError(t, syms.Bind("mk_direct", &mkDirect))
	require.NoError(t, syms.Bind("mk_copy", &mkCopyFn))

	var p pair
	mkDirect(&p, 7)
	assert.Equal(t, pair{7, 14}, p)

	mkCopyFn(&p, 7)
	assert.Equal(t, pair{8, 9}, p)

	var sumPair func(int32) int32
	require.NoError(t, syms.Bind("sum_pair", &sumPair))
	assert.Equal(t, int32(17), sumPair(7))
}

func TestArrayReturn(t *testing.T) {
	prog := ir.NewProgram(nil)
	reg := prog.Types
	s32, s64 := reg.Builtin(types.S32), reg.Builtin(types.S64)
	arrT := reg.Array(s32, 4)

	_, err := prog.DefineFunc("iota4", []types.ID{s32}, arrT, func(b *ir.Builder) {
		for i := int64(0); i < 4; i++ {
			b.Store(b.Elem(b.ResultSlot(), b.ConstInt(s64, i)), b.Binary(ir.OpAdd, b.Param(0), b.ConstInt(s32, i)))
		}
		b.ReturnArray(b.ResultSlot())
	})
	require.NoError(t, err)

	syms := compile(t, prog)

	var iota4 func(*[4]int32, int32)
	require.NoError(t, syms.Bind("iota4", &iota4))

	var out [4]int32
	iota4(&out, 10)
	assert.Equal(t, [4]int32{10, 11, 12, 13}, out)
}

func TestSymbols(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := demo.PowN(prog, 3)
	require.NoError(t, err)
	_, err = demo.Hypot(prog)
	require.NoError(t, err)

	syms := compile(t, prog)
	assert.Equal(t, []string{"hypot_len", "pow_n"}, syms.Names())

	addr, ok := syms.Addr("pow_n")
	assert.True(t, ok)
	assert.NotZero(t, addr)

	_, ok = syms.Addr("missing")
	assert.False(t, ok)

	var fn func()
	err = syms.Bind("missing", &fn)
	assert.True(t, report.IsFatal(err, report.FatalJIT))

	var hypot func(float32, float32) float32
	require.NoError(t, syms.Bind("hypot_len", &hypot))
	assert.InDelta(t, 5, hypot(3, 4), 1e-6)
	assert.Equal(t, float32(0), hypot(float32(math.Inf(1)), 1))
}

func TestCloseInvalidatesSymbols(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := demo.PowN(prog, 2)
	require.NoError(t, err)

	syms, err := Compile(prog, codegen.O1)
	require.NoError(t, err)

	require.NoError(t, syms.Close())
	require.NoError(t, syms.Close())

	_, ok := syms.Addr("pow_n")
	assert.False(t, ok)
}

func TestCompileRejectsIncompleteProgram(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := prog.Declare("later", ir.FuncDevice, nil, prog.Types.Builtin(types.S32))
	require.NoError(t, err)

	_, err = Compile(prog, codegen.O2)
	require.Error(t, err)
	assert.Equal(t, "function later is declared but never defined", err.Error())

	// the failed compile released its jit; a fresh one still works.
	prog = ir.NewProgram(nil)
	_, err = demo.PowN(prog, 2)
	require.NoError(t, err)

	syms := compile(t, prog)
	var powN func(int32) int64
	require.NoError(t, syms.Bind("pow_n", &powN))
	assert.Equal(t, int64(49), powN(7))
}

func TestHostMathSymbolsCoverVocabulary(t *testing.T) {
	got := make(map[string]bool)
	for _, sym := range hostMathSymbols() {
		assert.NotZero(t, sym.Addr, sym.Name)
		got[sym.Name] = true
	}

	all := intrinsic.All()
	assert.Len(t, got, len(all))
	for _, in := range all {
		assert.True(t, got[in.HostName()], in.HostName())
	}
}
