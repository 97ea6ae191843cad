package llc

/*
#include <stdlib.h>

#include "llvm-c/Core.h"
#include "llvm-c/Error.h"
#include "llvm-c/LLJIT.h"
#include "llvm-c/Orc.h"
*/
import "C"

import (
	"errors"
	"unsafe"
)

// LLJIT is an in-process JIT compiler.  Symbols defined in the JIT live as
// long as the JIT.
type LLJIT struct {
	c  C.LLVMOrcLLJITRef
	jd C.LLVMOrcJITDylibRef
}

// NewLLJIT creates a JIT for the host.
func NewLLJIT() (*LLJIT, error) {
	if !InitializeTargets() {
		return nil, errors.New("native target is not available")
	}

	var j C.LLVMOrcLLJITRef
	if err := takeError(C.LLVMOrcCreateLLJIT(byref(&j), C.LLVMOrcCreateLLJITBuilder())); err != nil {
		return nil, err
	}

	return &LLJIT{c: j, jd: C.LLVMOrcLLJITGetMainJITDylib(j)}, nil
}

// Dispose tears down the JIT and frees all code it compiled.
func (j *LLJIT) Dispose() error {
	return takeError(C.LLVMOrcDisposeLLJIT(j.c))
}

// Triple returns the target triple the JIT compiles for.
func (j *LLJIT) Triple() string {
	return C.GoString(C.LLVMOrcLLJITGetTripleString(j.c))
}

// DataLayout returns the data layout string the JIT compiles for.
func (j *LLJIT) DataLayout() string {
	return C.GoString(C.LLVMOrcLLJITGetDataLayoutStr(j.c))
}

// AbsoluteSymbol is a named symbol with a fixed address in the host process.
type AbsoluteSymbol struct {
	Name string
	Addr uintptr
}

// DefineAbsolute makes symbols resolvable by code the JIT compiles.
func (j *LLJIT) DefineAbsolute(symbols []AbsoluteSymbol) error {
	if len(symbols) == 0 {
		return nil
	}

	base := (*C.LLVMOrcCSymbolMapPair)(C.malloc(C.size_t(len(symbols)) * C.size_t(unsafe.Sizeof(C.LLVMOrcCSymbolMapPair{}))))
	defer C.free(unsafe.Pointer(base))

	pairs := unsafe.Slice(base, len(symbols))
	for i, sym := range symbols {
		cname := C.CString(sym.Name)
		pairs[i].Name = C.LLVMOrcLLJITMangleAndIntern(j.c, cname)
		C.free(unsafe.Pointer(cname))

		pairs[i].Sym.Address = C.LLVMOrcExecutorAddress(sym.Addr)
		pairs[i].Sym.Flags.GenericFlags = C.uint8_t(C.LLVMJITSymbolGenericFlagsExported | C.LLVMJITSymbolGenericFlagsCallable)
		pairs[i].Sym.Flags.TargetFlags = 0
	}

	// The materialization unit takes over the symbol string references.
	mu := C.LLVMOrcAbsoluteSymbols(base, C.size_t(len(symbols)))
	if err := takeError(C.LLVMOrcJITDylibDefine(j.jd, mu)); err != nil {
		C.LLVMOrcDisposeMaterializationUnit(mu)
		return err
	}

	return nil
}

// ThreadSafeContext is an LLVM context which may be shared with a JIT.
type ThreadSafeContext struct {
	*Context

	tsc C.LLVMOrcThreadSafeContextRef
}

// NewThreadSafeContext creates a new context for modules added to a JIT.
func NewThreadSafeContext() *ThreadSafeContext {
	tsc := C.LLVMOrcCreateNewThreadSafeContext()

	return &ThreadSafeContext{
		Context: &Context{c: C.LLVMOrcThreadSafeContextGetContext(tsc), borrowed: true},
		tsc:     tsc,
	}
}

// Dispose releases the context's owned objects and its reference to the
// underlying context.  Modules handed to a JIT keep the context alive.
func (tc *ThreadSafeContext) Dispose() {
	tc.Context.Dispose()
	C.LLVMOrcDisposeThreadSafeContext(tc.tsc)
}

// AddModule hands mod over to the JIT for compilation.  mod must have been
// created in tc and must not be used afterwards.
func (j *LLJIT) AddModule(tc *ThreadSafeContext, mod *Module) error {
	tsm := C.LLVMOrcCreateNewThreadSafeModule(mod.release(), tc.tsc)

	if err := takeError(C.LLVMOrcLLJITAddLLVMIRModule(j.c, j.jd, tsm)); err != nil {
		C.LLVMOrcDisposeThreadSafeModule(tsm)
		return err
	}

	return nil
}

// Lookup returns the address of the named symbol, compiling it if needed.
func (j *LLJIT) Lookup(name string) (uintptr, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var addr C.LLVMOrcExecutorAddress
	if err := takeError(C.LLVMOrcLLJITLookup(j.c, byref(&addr), cname)); err != nil {
		return 0, err
	}

	return uintptr(addr), nil
}
