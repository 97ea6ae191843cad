package jit

/*
#cgo LDFLAGS: -lm

#include "hostmath.h"
*/
import "C"

import (
	"unsafe"

	"symjit/llc"
)

// hostMathSymbols returns the host runtime's math functions keyed by their
// `host.math.<op>.<width>` names.
func hostMathSymbols() []llc.AbsoluteSymbol {
	var table *C.hostmath_symbol
	n := int(C.hostmath_symbols(&table))

	syms := make([]llc.AbsoluteSymbol, n)
	for i, entry := range unsafe.Slice(table, n) {
		syms[i] = llc.AbsoluteSymbol{
			Name: C.GoString(entry.name),
			Addr: uintptr(entry.addr),
		}
	}

	return syms
}
