// Package codegen lowers programs into LLVM IR for the host-native or device
// target.
package codegen

import (
	"fmt"

	llvm "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"symjit/ir"
	"symjit/report"
	"symjit/types"
)

// Generator is responsible for converting a program into an LLVM module.  A
// generator lowers exactly one program once.
type Generator struct {
	// prog is the program being lowered.
	prog *ir.Program

	// opts are the lowering options.
	opts Options

	// mod is the LLVM module being generated.
	mod *llvm.Module

	// funcs are the LLVM functions of the program: funcs[id-1] is the
	// function for FuncID id.
	funcs []*llvm.Func

	// bridge resolves intrinsic calls for the selected target.
	bridge intrinsicBridge

	// externs caches the external declarations of the module by name.
	externs map[string]*llvm.Func

	// typeCache caches converted types.
	typeCache map[types.ID]lltypes.Type

	// The following fields describe the function currently being lowered.

	// fn is the function being lowered.
	fn *ir.Function

	// enclosingFunc is the LLVM function being lowered into.
	enclosingFunc *llvm.Func

	// varBlock is the entry block of the enclosing function: it holds all
	// memory slots.
	varBlock *llvm.Block

	// block is the block currently being appended to.
	block *llvm.Block

	// params are the values of the function's parameters.
	params []value.Value

	// locals and temps are the memory slots of the function's locals and
	// temporaries.
	locals, temps []value.Value

	// resultPtr is the caller-supplied destination of an array or struct
	// returning function.
	resultPtr value.Value

	// loops is the stack of enclosing loops.
	loops []loopContext
}

// loopContext holds the branch targets of an enclosing loop.
type loopContext struct {
	// condBlock is the block which evaluates the loop condition: the target of
	// `continue`.
	condBlock *llvm.Block

	// exitBlock is the block following the loop: the target of `break`.
	exitBlock *llvm.Block
}

// Generate lowers prog into a new LLVM module.  The program is frozen if it
// is not already.  Generation either yields a complete module or fails.
func Generate(prog *ir.Program, opts Options) (mod *llvm.Module, err error) {
	if err := prog.Freeze(); err != nil {
		return nil, err
	}

	g := &Generator{
		prog:      prog,
		opts:      opts,
		mod:       llvm.NewModule(),
		externs:   make(map[string]*llvm.Func),
		typeCache: make(map[types.ID]lltypes.Type),
	}

	if opts.Target == TargetDevice {
		g.bridge = deviceBridge{}
		if opts.Triple == "" {
			opts.Triple = DeviceTriple
		}
	} else {
		g.bridge = hostBridge{}
	}

	g.mod.TargetTriple = opts.Triple
	g.mod.DataLayout = opts.DataLayout

	defer report.CatchErrors(&err)

	g.generate()
	return g.mod, nil
}

func (g *Generator) generate() {
	// declare all functions first so that they may call each other in any
	// order.
	for _, fn := range g.prog.Funcs() {
		g.funcs = append(g.funcs, g.declareFunc(fn))
	}

	for i, fn := range g.prog.Funcs() {
		g.genFuncBody(fn, g.funcs[i])
	}
}

// returnsViaPointer returns whether fn returns through a caller-supplied
// destination.
func (g *Generator) returnsViaPointer(fn *ir.Function) bool {
	return g.prog.Types.IsAggregate(fn.Return)
}

// declareFunc creates the LLVM signature of fn.  Array and struct returning
// functions return void and take their destination as a leading parameter.
func (g *Generator) declareFunc(fn *ir.Function) *llvm.Func {
	var params []*llvm.Param
	retType := g.convType(fn.Return)

	if g.returnsViaPointer(fn) {
		params = append(params, llvm.NewParam("result", lltypes.NewPointer(retType)))
		retType = lltypes.Void
	}

	isKernel := g.opts.Target == TargetDevice && fn.Kind == ir.FuncKernel
	for i, pt := range fn.Params {
		var typ lltypes.Type
		if pointee, ok := g.prog.Types.IsPointer(pt); ok && isKernel {
			typ = g.convGlobalPointer(pointee)
		} else {
			typ = g.convType(pt)
		}

		params = append(params, llvm.NewParam(fmt.Sprintf("arg%d", i), typ))
	}

	llFunc := g.mod.NewFunc(fn.Name, retType, params...)
	if isKernel {
		llFunc.CallingConv = enum.CallingConvPTXKernel
	}

	return llFunc
}

// genFuncBody lowers the body of fn into llFunc.
func (g *Generator) genFuncBody(fn *ir.Function, llFunc *llvm.Func) {
	g.fn = fn
	g.enclosingFunc = llFunc
	g.loops = nil
	g.resultPtr = nil

	g.varBlock = llFunc.NewBlock("entry")
	g.block = g.appendBlock()

	// parameters are immutable values: only kernel pointers in the global
	// address space need to be converted to generic pointers.
	llParams := llFunc.Params
	if g.returnsViaPointer(fn) {
		g.resultPtr = llParams[0]
		llParams = llParams[1:]
	}

	g.params = make([]value.Value, len(llParams))
	for i, param := range llParams {
		if pt, ok := param.Type().(*lltypes.PointerType); ok && pt.AddrSpace == globalAddrSpace {
			g.params[i] = g.varBlock.NewAddrSpaceCast(param, g.convType(fn.Params[i]))
		} else {
			g.params[i] = param
		}
	}

	g.locals = make([]value.Value, len(fn.Locals))
	for i, lt := range fn.Locals {
		g.locals[i] = g.varBlock.NewAlloca(g.convType(lt))
	}

	g.temps = make([]value.Value, len(fn.Temps))
	for i, tt := range fn.Temps {
		g.temps[i] = g.varBlock.NewAlloca(g.convType(tt))
	}

	g.genBlock(fn.Body)

	// the final block only lacks a terminator if control reaches the end of
	// the function.  Validation guarantees this is only possible for void
	// functions: any other open block is unreachable.
	if g.block.Term == nil {
		if g.prog.Types.IsVoid(fn.Return) {
			g.block.NewRet(nil)
		} else {
			g.block.NewUnreachable()
		}
	}

	// the var block always branches to the first code block.
	g.varBlock.NewBr(llFunc.Blocks[1])
}

// appendBlock adds a new basic block to the current function.  It does *not*
// set the current block to this new block.
func (g *Generator) appendBlock() *llvm.Block {
	return g.enclosingFunc.NewBlock(fmt.Sprintf("bb%d", len(g.enclosingFunc.Blocks)))
}

// getExtern returns the external function declaration with the given name,
// declaring it on first use.
func (g *Generator) getExtern(name string, retType lltypes.Type, paramTypes ...lltypes.Type) *llvm.Func {
	if fn, ok := g.externs[name]; ok {
		return fn
	}

	params := make([]*llvm.Param, len(paramTypes))
	for i, pt := range paramTypes {
		params[i] = llvm.NewParam("", pt)
	}

	fn := g.mod.NewFunc(name, retType, params...)
	g.externs[name] = fn
	return fn
}
