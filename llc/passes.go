package llc

/*
#include <stdlib.h>

#include "llvm-c/Transforms/PassBuilder.h"
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// RunPasses runs the pass pipeline described by pipeline over mod: eg.
// `default<O2>`.  tm supplies target specific analyses.
func RunPasses(mod *Module, pipeline string, tm TargetMachine, verifyEach bool) error {
	cpipeline := C.CString(pipeline)
	defer C.free(unsafe.Pointer(cpipeline))

	opts := C.LLVMCreatePassBuilderOptions()
	defer C.LLVMDisposePassBuilderOptions(opts)

	C.LLVMPassBuilderOptionsSetVerifyEach(opts, llvmBool(verifyEach))

	if err := takeError(C.LLVMRunPasses(mod.c, cpipeline, tm.c, opts)); err != nil {
		return fmt.Errorf("running %s: %w", pipeline, err)
	}

	return nil
}
