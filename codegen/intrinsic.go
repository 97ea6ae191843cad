package codegen

import (
	"math"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"symjit/intrinsic"
	"symjit/report"
)

// intrinsicBridge resolves intrinsic calls for a lowering target.
type intrinsicBridge interface {
	// call emits a call to in at the current block.  Classification
	// intrinsics yield an i1.
	call(g *Generator, in intrinsic.Intrinsic, args []value.Value) value.Value
}

func scalarType(w intrinsic.Width) *lltypes.FloatType {
	if w == intrinsic.F32 {
		return lltypes.Float
	}

	return lltypes.Double
}

func checkIntrinsic(in intrinsic.Intrinsic) {
	if !in.Valid() {
		panic(report.Fatal(report.FatalUnknownIntrinsic, "unknown host math function: %s", in))
	}
}

// -----------------------------------------------------------------------------

// hostBridge declares each intrinsic as an external `host.math.<op>.<width>`
// function supplied by the host runtime.
type hostBridge struct{}

func (hostBridge) call(g *Generator, in intrinsic.Intrinsic, args []value.Value) value.Value {
	checkIntrinsic(in)

	scalar := scalarType(in.Width)
	params := make([]lltypes.Type, in.Op.Arity())
	for i := range params {
		params[i] = scalar
	}

	var retType lltypes.Type = scalar
	if in.Op.IsClassification() {
		retType = lltypes.I32
	}

	result := g.block.NewCall(g.getExtern(in.HostName(), retType, params...), args...)
	if in.Op.IsClassification() {
		return g.block.NewICmp(enum.IPredNE, result, constant.NewInt(lltypes.I32, 0))
	}

	return result
}

// -----------------------------------------------------------------------------

// deviceImpl describes how an operation is resolved on the device.  Exactly
// one of its fields is set.
type deviceImpl struct {
	// llvmIntrinsic is the overloaded LLVM intrinsic which implements the
	// operation: eg. `llvm.sqrt`.  The width suffix is appended.
	llvmIntrinsic string

	// libdevice holds the f32 and f64 libdevice builtins implementing the
	// operation.
	libdevice [2]string

	// classify lowers a classification inline.
	classify func(g *Generator, x value.Value) value.Value
}

var deviceTable = map[intrinsic.Op]deviceImpl{
	intrinsic.Abs:       {llvmIntrinsic: "llvm.fabs"},
	intrinsic.Mod:       {libdevice: [2]string{"__nv_fmodf", "__nv_fmod"}},
	intrinsic.Remainder: {libdevice: [2]string{"__nv_remainderf", "__nv_remainder"}},
	intrinsic.Exp:       {libdevice: [2]string{"__nv_expf", "__nv_exp"}},
	intrinsic.Exp2:      {libdevice: [2]string{"__nv_exp2f", "__nv_exp2"}},
	intrinsic.Exp10:     {libdevice: [2]string{"__nv_exp10f", "__nv_exp10"}},
	intrinsic.Log:       {libdevice: [2]string{"__nv_logf", "__nv_log"}},
	intrinsic.Log2:      {libdevice: [2]string{"__nv_log2f", "__nv_log2"}},
	intrinsic.Log10:     {libdevice: [2]string{"__nv_log10f", "__nv_log10"}},
	intrinsic.Pow:       {libdevice: [2]string{"__nv_powf", "__nv_pow"}},
	intrinsic.Sqrt:      {llvmIntrinsic: "llvm.sqrt"},
	intrinsic.Rsqrt:     {libdevice: [2]string{"__nv_rsqrtf", "__nv_rsqrt"}},
	intrinsic.Sin:       {libdevice: [2]string{"__nv_sinf", "__nv_sin"}},
	intrinsic.Cos:       {libdevice: [2]string{"__nv_cosf", "__nv_cos"}},
	intrinsic.Tan:       {libdevice: [2]string{"__nv_tanf", "__nv_tan"}},
	intrinsic.Asin:      {libdevice: [2]string{"__nv_asinf", "__nv_asin"}},
	intrinsic.Acos:      {libdevice: [2]string{"__nv_acosf", "__nv_acos"}},
	intrinsic.Atan:      {libdevice: [2]string{"__nv_atanf", "__nv_atan"}},
	intrinsic.Atan2:     {libdevice: [2]string{"__nv_atan2f", "__nv_atan2"}},
	intrinsic.Ceil:      {llvmIntrinsic: "llvm.ceil"},
	intrinsic.Floor:     {llvmIntrinsic: "llvm.floor"},
	intrinsic.Trunc:     {llvmIntrinsic: "llvm.trunc"},
	intrinsic.Round:     {llvmIntrinsic: "llvm.round"},
	intrinsic.IsFinite: {classify: func(g *Generator, x value.Value) value.Value {
		return g.block.NewFCmp(enum.FPredONE, g.fabs(x), infinity(x))
	}},
	intrinsic.IsInf: {classify: func(g *Generator, x value.Value) value.Value {
		return g.block.NewFCmp(enum.FPredOEQ, g.fabs(x), infinity(x))
	}},
	intrinsic.IsNaN: {classify: func(g *Generator, x value.Value) value.Value {
		return g.block.NewFCmp(enum.FPredUNO, x, x)
	}},
	intrinsic.Min: {llvmIntrinsic: "llvm.minnum"},
	intrinsic.Max: {llvmIntrinsic: "llvm.maxnum"},
}

// deviceBridge resolves intrinsics to LLVM intrinsics and libdevice builtins
// which the NVPTX backend understands.
type deviceBridge struct{}

func (deviceBridge) call(g *Generator, in intrinsic.Intrinsic, args []value.Value) value.Value {
	checkIntrinsic(in)

	impl, ok := deviceTable[in.Op]
	if !ok {
		panic(report.Fatal(report.FatalUnknownIntrinsic, "no device builtin for %s", in))
	}

	if impl.classify != nil {
		return impl.classify(g, args[0])
	}

	var name string
	if impl.llvmIntrinsic != "" {
		name = impl.llvmIntrinsic + "." + in.Width.String()
	} else {
		name = impl.libdevice[in.Width]
	}

	scalar := scalarType(in.Width)
	params := make([]lltypes.Type, len(args))
	for i := range params {
		params[i] = scalar
	}

	return g.block.NewCall(g.getExtern(name, scalar, params...), args...)
}

// fabs emits a call to `llvm.fabs` for x.
func (g *Generator) fabs(x value.Value) value.Value {
	ft := x.Type().(*lltypes.FloatType)

	name := "llvm.fabs.f64"
	if ft.Kind == lltypes.FloatKindFloat {
		name = "llvm.fabs.f32"
	}

	return g.block.NewCall(g.getExtern(name, ft, ft), x)
}

func infinity(x value.Value) value.Value {
	return constant.NewFloat(x.Type().(*lltypes.FloatType), math.Inf(1))
}
