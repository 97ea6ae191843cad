// Package llc binds the parts of the LLVM C API needed to turn textual LLVM IR
// into optimized machine code, PTX assembly or JIT-compiled entry points.
//
// The package is built with cgo against an installed LLVM:
//
//	CGO_CFLAGS="$(llvm-config --cflags)"
//	CGO_LDFLAGS="$(llvm-config --ldflags --libs --system-libs)"
package llc

/*
#include "llvm-c/Core.h"
#include "llvm-c/Error.h"
*/
import "C"

import (
	"errors"
	"unsafe"
)

// OwnedObject represents an LLVM object that can be disposed.
type OwnedObject interface {
	// Dispose frees all the resources associated with the LLVM object.
	dispose()
}

// Context represents an LLVM context.
type Context struct {
	c C.LLVMContextRef

	// The list of LLVM objects owned by this context.
	ownedObjects []OwnedObject

	// borrowed indicates the underlying LLVM context is disposed by another
	// owner: eg. a thread-safe context.
	borrowed bool
}

// NewContext creates a new LLVM context.
func NewContext() *Context {
	return &Context{c: C.LLVMContextCreate()}
}

// takeOwnership marks the given disposable LLVM object as being owned by this
// context: this context is responsible for its disposal.
func (c *Context) takeOwnership(obj OwnedObject) {
	c.ownedObjects = append(c.ownedObjects, obj)
}

// Dispose frees all the resources associated with this context: the context
// itself and all the owned resources of this context.  Objects are disposed in
// reverse order of acquisition.
func (c *Context) Dispose() {
	for i := len(c.ownedObjects) - 1; i >= 0; i-- {
		c.ownedObjects[i].dispose()
	}
	c.ownedObjects = nil

	if !c.borrowed {
		C.LLVMContextDispose(c.c)
	}
}

// -----------------------------------------------------------------------------

// byref passes a Go value by reference to C.
func byref[T any](v *T) *T {
	return (*T)(unsafe.Pointer(v))
}

// llvmBool converts a boolean value to an LLVMBool.
func llvmBool(v bool) C.LLVMBool {
	if v {
		return 1
	}

	return 0
}

// takeMessage converts an LLVM allocated message into a Go string and
// disposes of it.
func takeMessage(msg *C.char) string {
	if msg == nil {
		return ""
	}

	defer C.LLVMDisposeMessage(msg)
	return C.GoString(msg)
}

// takeError converts an LLVM error into a Go error and consumes it.  A nil
// error reference yields a nil error.
func takeError(err C.LLVMErrorRef) error {
	if err == nil {
		return nil
	}

	cmsg := C.LLVMGetErrorMessage(err)
	defer C.LLVMDisposeErrorMessage(cmsg)
	return errors.New(C.GoString(cmsg))
}
