package llc

/*
#include <stdlib.h>

#include "llvm-c/Core.h"
#include "llvm-c/Target.h"
#include "llvm-c/TargetMachine.h"
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

// CodeGenOptLevel represents an LLVM code generation optimization level.
type CodeGenOptLevel C.LLVMCodeGenOptLevel

// Enumeration of LLVM codegen optimization levels.
const (
	CodeGenLevelNone       CodeGenOptLevel = C.LLVMCodeGenLevelNone
	CodeGenLevelLess       CodeGenOptLevel = C.LLVMCodeGenLevelLess
	CodeGenLevelDefault    CodeGenOptLevel = C.LLVMCodeGenLevelDefault
	CodeGenLevelAggressive CodeGenOptLevel = C.LLVMCodeGenLevelAggressive
)

// CodeModel represents an LLVM code model.
type CodeModel C.LLVMCodeModel

// Enumeration of the LLVM code models in use.
const (
	CodeModelDefault    CodeModel = C.LLVMCodeModelDefault
	CodeModelJITDefault CodeModel = C.LLVMCodeModelJITDefault
)

// RelocMode represents an LLVM relocation mode.
type RelocMode C.LLVMRelocMode

// Enumeration of the LLVM relocation modes in use.
const (
	RelocDefault RelocMode = C.LLVMRelocDefault
	RelocPIC     RelocMode = C.LLVMRelocPIC
)

// CodeGenFileType represents a possible code generation output type.
type CodeGenFileType C.LLVMCodeGenFileType

// Enumeration of LLVM codegen file types.
const (
	AssemblyFile CodeGenFileType = C.LLVMAssemblyFile
	ObjectFile   CodeGenFileType = C.LLVMObjectFile
)

// -----------------------------------------------------------------------------

var (
	initTargetsOnce sync.Once
	nativeOK        bool
)

// InitializeTargets registers every target backend LLVM was built with as
// well as the native target.  It is safe to call any number of times from
// any goroutine.  It returns whether the native target is available.
func InitializeTargets() bool {
	initTargetsOnce.Do(func() {
		C.LLVMInitializeAllTargetInfos()
		C.LLVMInitializeAllTargets()
		C.LLVMInitializeAllTargetMCs()
		C.LLVMInitializeAllAsmPrinters()

		nativeOK = C.LLVMInitializeNativeTarget() == 0 && C.LLVMInitializeNativeAsmPrinter() == 0
	})

	return nativeOK
}

// -----------------------------------------------------------------------------

// Target represents an LLVM output target.
type Target struct {
	c C.LLVMTargetRef
}

// HostTriple returns the target triple of the host system.
func HostTriple() string {
	return takeMessage(C.LLVMGetDefaultTargetTriple())
}

// GetTargetFromTriple finds the target corresponding to triple.  An error is
// returned if the backend for the triple is not part of the linked LLVM.
func GetTargetFromTriple(triple string) (Target, error) {
	InitializeTargets()

	ctriple := C.CString(triple)
	defer C.free(unsafe.Pointer(ctriple))

	var targetPtr C.LLVMTargetRef
	var cmsg *C.char
	if C.LLVMGetTargetFromTriple(ctriple, byref(&targetPtr), byref(&cmsg)) != 0 {
		return Target{}, errors.New(takeMessage(cmsg))
	}

	return Target{c: targetPtr}, nil
}

// Name returns the name of the target.
func (t Target) Name() string {
	return C.GoString(C.LLVMGetTargetName(t.c))
}

// HasMachine returns if the target has a machine.
func (t Target) HasMachine() bool {
	return C.LLVMTargetHasTargetMachine(t.c) == 1
}

// -----------------------------------------------------------------------------

// TargetMachine represents an LLVM target machine: used to generate output.
type TargetMachine struct {
	c C.LLVMTargetMachineRef
}

// NewMachine creates a new target machine for target.
func (c *Context) NewMachine(
	target Target,
	triple, cpu, features string,
	level CodeGenOptLevel,
	reloc RelocMode,
	model CodeModel,
) (tm TargetMachine) {
	ctriple := C.CString(triple)
	defer C.free(unsafe.Pointer(ctriple))

	ccpu := C.CString(cpu)
	defer C.free(unsafe.Pointer(ccpu))

	cfeatures := C.CString(features)
	defer C.free(unsafe.Pointer(cfeatures))

	tm.c = C.LLVMCreateTargetMachine(
		target.c,
		ctriple,
		ccpu,
		cfeatures,
		(C.LLVMCodeGenOptLevel)(level),
		(C.LLVMRelocMode)(reloc),
		(C.LLVMCodeModel)(model),
	)
	c.takeOwnership(tm)
	return
}

// NewHostMachine creates a new target machine for the host system.
func (c *Context) NewHostMachine(level CodeGenOptLevel, reloc RelocMode, model CodeModel) (TargetMachine, error) {
	if !InitializeTargets() {
		return TargetMachine{}, errors.New("native target is not available")
	}

	triple := HostTriple()
	target, err := GetTargetFromTriple(triple)
	if err != nil {
		return TargetMachine{}, err
	}

	cpu := takeMessage(C.LLVMGetHostCPUName())
	features := takeMessage(C.LLVMGetHostCPUFeatures())

	return c.NewMachine(target, triple, cpu, features, level, reloc, model), nil
}

// dispose disposes of target machine.
func (tm TargetMachine) dispose() {
	C.LLVMDisposeTargetMachine(tm.c)
}

// Triple returns the target triple of the target machine.
func (tm TargetMachine) Triple() string {
	return takeMessage(C.LLVMGetTargetMachineTriple(tm.c))
}

// DataLayout returns the string representation of the target machine's data
// layout.
func (tm TargetMachine) DataLayout() string {
	td := C.LLVMCreateTargetDataLayout(tm.c)
	defer C.LLVMDisposeTargetData(td)

	return takeMessage(C.LLVMCopyStringRepOfTargetData(td))
}

// EmitToMemory compiles mod to fileType and returns the output.
func (tm TargetMachine) EmitToMemory(mod *Module, fileType CodeGenFileType) ([]byte, error) {
	var cerr *C.char
	var buff C.LLVMMemoryBufferRef

	if C.LLVMTargetMachineEmitToMemoryBuffer(tm.c, mod.c, (C.LLVMCodeGenFileType)(fileType), byref(&cerr), byref(&buff)) != 0 {
		return nil, errors.New(takeMessage(cerr))
	}
	defer C.LLVMDisposeMemoryBuffer(buff)

	start := C.LLVMGetBufferStart(buff)
	size := C.LLVMGetBufferSize(buff)
	return C.GoBytes(unsafe.Pointer(start), C.int(size)), nil
}
