package llc

/*
#include <stdlib.h>
#include "llvm-c/Core.h"
#include "llvm-c/Analysis.h"
#include "llvm-c/IRReader.h"
*/
import "C"

import (
	"errors"
	"unsafe"
)

// Module represents an LLVM module.
type Module struct {
	c C.LLVMModuleRef

	// owned indicates the module has not been handed off to another owner
	// such as a JIT.
	owned bool
}

// NewModuleFromIR creates a new module in the given context by parsing a
// string of textual LLVM IR.  The module is owned by the context.
func (ctx *Context) NewModuleFromIR(name, irString string) (*Module, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	cir := C.CString(irString)
	defer C.free(unsafe.Pointer(cir))

	// The parser takes ownership of the memory buffer.
	memBuff := C.LLVMCreateMemoryBufferWithMemoryRangeCopy(cir, C.size_t(len(irString)), cname)

	var modPtr C.LLVMModuleRef
	var msg *C.char
	if C.LLVMParseIRInContext(ctx.c, memBuff, byref(&modPtr), byref(&msg)) != 0 {
		return nil, errors.New(takeMessage(msg))
	}

	m := &Module{c: modPtr, owned: true}
	C.LLVMSetModuleIdentifier(m.c, cname, C.size_t(len(name)))
	ctx.takeOwnership(m)
	return m, nil
}

// dispose disposes of the module unless it was handed off.
func (m *Module) dispose() {
	if m.owned {
		C.LLVMDisposeModule(m.c)
		m.owned = false
	}
}

// release marks the module as owned elsewhere.
func (m *Module) release() C.LLVMModuleRef {
	m.owned = false
	return m.c
}

/* -------------------------------------------------------------------------- */

// Name returns the name of the module.
func (m *Module) Name() string {
	var strlen C.size_t
	str := C.LLVMGetModuleIdentifier(m.c, byref(&strlen))
	return C.GoStringN(str, C.int(strlen))
}

// DataLayout returns the data layout string of the module.
func (m *Module) DataLayout() string {
	return C.GoString(C.LLVMGetDataLayout(m.c))
}

// TargetTriple returns the target triple string of the module.
func (m *Module) TargetTriple() string {
	return C.GoString(C.LLVMGetTarget(m.c))
}

// String returns the textual LLVM IR of the module.
func (m *Module) String() string {
	return takeMessage(C.LLVMPrintModuleToString(m.c))
}

/* -------------------------------------------------------------------------- */

// Verify verifies that the module is correct/well-formed.
func (m *Module) Verify() error {
	var cmsg *C.char

	failed := C.LLVMVerifyModule(m.c, C.LLVMReturnStatusAction, byref(&cmsg)) != 0
	msg := takeMessage(cmsg)

	if failed {
		return errors.New(msg)
	}

	return nil
}
