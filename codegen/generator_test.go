package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symjit/demo"
	"symjit/intrinsic"
	"symjit/ir"
	"symjit/report"
	"symjit/types"
)

func generate(t *testing.T, prog *ir.Program, target Target) string {
	t.Helper()

	mod, err := Generate(prog, Options{Target: target})
	require.NoError(t, err)
	return mod.String()
}

func TestGeneratePowN(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := demo.PowN(prog, 5)
	require.NoError(t, err)

	out := generate(t, prog, TargetHost)
	assert.Contains(t, out, "define i64 @pow_n(i32 %arg0)")
	assert.Contains(t, out, "sext i32 %arg0 to i64")
	assert.Contains(t, out, "alloca i64")
	assert.Contains(t, out, "mul i64")
	assert.NotContains(t, out, "ptx_kernel")
	assert.True(t, prog.Frozen())
}

func TestGenerateIsRepeatable(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := demo.PowN(prog, 3)
	require.NoError(t, err)

	assert.Equal(t, generate(t, prog, TargetHost), generate(t, prog, TargetHost))
}

func TestHostIntrinsicsDeclaredOnce(t *testing.T) {
	prog := ir.NewProgram(nil)
	f32 := prog.Types.Builtin(types.F32)

	_, err := prog.DefineFunc("twice", []types.ID{f32}, f32, func(b *ir.Builder) {
		x := b.Param(0)
		b.Return(b.Binary(ir.OpAdd, b.CallIntrinsic("math.sin.f32", x), b.CallIntrinsic("math.sin.f32", x)))
	})
	require.NoError(t, err)

	_, err = prog.DefineFunc("again", []types.ID{f32}, f32, func(b *ir.Builder) {
		b.Return(b.CallIntrinsic("math.sin.f32", b.Param(0)))
	})
	require.NoError(t, err)

	out := generate(t, prog, TargetHost)
	assert.Equal(t, 1, strings.Count(out, "declare float @host.math.sin.f32("))
	assert.Equal(t, 3, strings.Count(out, "call float @host.math.sin.f32("))
}

func TestHostClassificationComparesAgainstZero(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := demo.Hypot(prog)
	require.NoError(t, err)

	out := generate(t, prog, TargetHost)
	assert.Contains(t, out, "declare i32 @host.math.isfinite.f32(")
	assert.Contains(t, out, "icmp ne i32")
	assert.Contains(t, out, "declare float @host.math.sqrt.f32(")
}

func TestDeviceLowering(t *testing.T) {
	prog := ir.NewProgram(nil)
	_, err := demo.Saxpy(prog)
	require.NoError(t, err)
	_, err = demo.Hypot(prog)
	require.NoError(t, err)

	out := generate(t, prog, TargetDevice)
	assert.Contains(t, out, `target triple = "nvptx64-nvidia-cuda"`)
	assert.Contains(t, out, "define ptx_kernel void @saxpy(")
	assert.Contains(t, out, "float addrspace(1)* %arg2")
	assert.Contains(t, out, "addrspacecast")
	assert.Contains(t, out, "call float @madd(")
	assert.Contains(t, out, "@llvm.sqrt.f32(")
	assert.Contains(t, out, "@llvm.fabs.f32(")
	assert.NotContains(t, out, "host.math")
}

func TestAggregateReturnUsesOutPointer(t *testing.T) {
	prog := ir.NewProgram(nil)
	reg := prog.Types
	s32 := reg.Builtin(types.S32)
	pair := reg.Struct(s32, s32)

	mk, err := prog.DefineFunc("mk", []types.ID{s32}, pair, func(b *ir.Builder) {
		tmp := b.Local(pair)
		b.Store(b.Member(tmp, 0), b.Param(0))
		b.Store(b.Member(tmp, 1), b.Param(0))
		b.ReturnClass(tmp)
	})
	require.NoError(t, err)

	_, err = prog.DefineFunc("first", []types.ID{s32}, s32, func(b *ir.Builder) {
		dst := b.Local(pair)
		b.Call(ir.FuncCallee(mk), dst, b.Param(0))
		b.Return(b.Load(b.Member(dst, 0)))
	})
	require.NoError(t, err)

	out := generate(t, prog, TargetHost)
	assert.Contains(t, out, "define void @mk({ i32, i32 }* %result, i32 %arg0)")
	assert.Contains(t, out, "call void @mk(")
}

func TestLoopControlFlow(t *testing.T) {
	prog := ir.NewProgram(nil)
	s32 := prog.Types.Builtin(types.S32)

	_, err := prog.DefineFunc("count", []types.ID{s32}, s32, func(b *ir.Builder) {
		i := b.Local(s32)
		b.Store(i, b.ConstInt(s32, 0))

		b.While(func() ir.ExprID { return b.ConstBool(true) }, func() {
			b.Store(i, b.Binary(ir.OpAdd, b.Load(i), b.ConstInt(s32, 1)))
			b.If(b.Binary(ir.OpGe, b.Load(i), b.Param(0)), func() { b.Break() }, nil)
			b.Continue()
		})

		b.Return(b.Load(i))
	})
	require.NoError(t, err)

	out := generate(t, prog, TargetHost)
	assert.Contains(t, out, "br i1 true")
	assert.Contains(t, out, "icmp sge i32")
}

func TestInvalidIntrinsicIsFatal(t *testing.T) {
	prog := ir.NewProgram(nil)
	f32 := prog.Types.Builtin(types.F32)

	// Bypass identifier parsing with an out of range operation.
	bogus := ir.IntrinsicCallee(intrinsic.Intrinsic{Op: intrinsic.Op(999), Width: intrinsic.F32})
	_, err := prog.DefineFunc("bogus", []types.ID{f32}, f32, func(b *ir.Builder) {
		b.Return(b.CallValue(bogus, b.Param(0)))
	})
	require.Error(t, err)
	assert.True(t, report.IsFatal(err, report.FatalUnknownIntrinsic))
}

func TestParseOptions(t *testing.T) {
	level, err := ParseOptLevel(3)
	require.NoError(t, err)
	assert.Equal(t, "default<O3>", level.Pipeline())

	_, err = ParseOptLevel(4)
	assert.Error(t, err)

	target, err := ParseTarget("ptx")
	require.NoError(t, err)
	assert.Equal(t, TargetDevice, target)
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int64(-56), signExtend(200, 8))
	assert.Equal(t, int64(127), signExtend(127, 8))
	assert.Equal(t, int64(-1), signExtend(^uint64(0), 64))
}
