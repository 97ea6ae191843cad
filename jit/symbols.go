package jit

import (
	"fmt"

	"github.com/ebitengine/purego"

	"symjit/llc"
	"symjit/report"
)

// Symbols is the set of entry points compiled by `Compile`.  Addresses remain
// valid until `Close` is called.
type Symbols struct {
	jit   *llc.LLJIT
	addrs map[string]uintptr
	names []string
}

// Addr returns the address of the named function.
func (s *Symbols) Addr(name string) (uintptr, bool) {
	if s.jit == nil {
		return 0, false
	}

	addr, ok := s.addrs[name]
	return addr, ok
}

// Names returns the names of all compiled functions in sorted order.
func (s *Symbols) Names() []string {
	return append([]string(nil), s.names...)
}

// Bind makes fptr, a pointer to a Go function variable, call the named
// compiled function.  The Go signature must match the lowered signature:
// functions returning structs or arrays take a leading result pointer and
// return nothing.
func (s *Symbols) Bind(name string, fptr any) (err error) {
	addr, ok := s.Addr(name)
	if !ok {
		return report.Fatal(report.FatalJIT, "no compiled function named %s", name)
	}

	defer func() {
		if x := recover(); x != nil {
			err = report.Fatal(report.FatalJIT, "binding %s: %v", name, x)
		}
	}()

	purego.RegisterFunc(fptr, addr)
	return nil
}

// Close frees the compiled code.  Bound functions must not be called
// afterwards.
func (s *Symbols) Close() error {
	if s.jit == nil {
		return nil
	}

	j := s.jit
	s.jit = nil
	if err := j.Dispose(); err != nil {
		return fmt.Errorf("disposing jit: %w", err)
	}

	return nil
}
