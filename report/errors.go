package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Position is the location of the authoring call which caused a build error.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return "<unknown>"
	}

	return fmt.Sprintf("%s:%d", filepath.Base(p.File), p.Line)
}

// BuildError is an error in the way a program was authored: eg. a store
// whose value type does not match its destination.  Build errors are raised
// via `panic` at the offending authoring call and caught by `CatchErrors`.
// Errors found when checking a whole program, such as at freezing, carry no
// position.
type BuildError struct {
	// The error message.
	Message string

	// The authoring call site.
	Pos Position
}

func (be *BuildError) Error() string {
	if be.Pos.File == "" {
		return be.Message
	}

	return fmt.Sprintf("%s: %s", be.Pos, be.Message)
}

// corePackages are the import path prefixes whose frames are skipped when
// determining the position of an authoring call.
var corePackages = []string{"symjit/ir.", "symjit/types.", "symjit/report."}

// Raise creates a new build error positioned at the first caller outside of
// the core IR packages.
func Raise(msg string, args ...interface{}) *BuildError {
	return &BuildError{Message: fmt.Sprintf(msg, args...), Pos: callerPos()}
}

func callerPos() Position {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()

		inCore := false
		for _, prefix := range corePackages {
			if strings.HasPrefix(frame.Function, prefix) {
				inCore = true
				break
			}
		}

		// Test files of the core packages are authoring code too.
		if !inCore || strings.HasSuffix(frame.File, "_test.go") {
			return Position{File: frame.File, Line: frame.Line}
		}

		if !more {
			return Position{File: frame.File, Line: frame.Line}
		}
	}
}

// CatchErrors converts a build error or fatal error raised by `panic` into a
// returned error.  Any other panic continues to propagate.
// NB: This function must ALWAYS be deferred.
func CatchErrors(err *error) {
	if x := recover(); x != nil {
		switch v := x.(type) {
		case *BuildError:
			*err = v
		case *FatalError:
			*err = v
		default:
			panic(x)
		}
	}
}

// -----------------------------------------------------------------------------

// FatalKind classifies a fatal backend error.
type FatalKind int

// Enumeration of fatal error kinds.
const (
	FatalInternal FatalKind = iota
	FatalUnknownIntrinsic
	FatalTargetUnavailable
	FatalEmissionUnsupported
	FatalVerify
	FatalJIT
	FatalGeneratorReused
)

var fatalKindNames = [...]string{
	FatalInternal:            "internal error",
	FatalUnknownIntrinsic:    "unknown intrinsic",
	FatalTargetUnavailable:   "target unavailable",
	FatalEmissionUnsupported: "emission unsupported",
	FatalVerify:              "verification failed",
	FatalJIT:                 "jit error",
	FatalGeneratorReused:     "generator reused",
}

func (fk FatalKind) String() string {
	if int(fk) < len(fatalKindNames) {
		return fatalKindNames[fk]
	}

	return "fatal error"
}

// FatalError is a non-retriable error produced by a backend.  No partial
// artifact is ever returned alongside a fatal error.
type FatalError struct {
	Kind    FatalKind
	Message string
}

func (fe *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", fe.Kind, fe.Message)
}

// Fatal creates a new fatal error of the given kind.
func Fatal(kind FatalKind, msg string, args ...interface{}) *FatalError {
	return &FatalError{Kind: kind, Message: fmt.Sprintf(msg, args...)}
}

// IsFatal returns whether err wraps a fatal error of the given kind.
func IsFatal(err error, kind FatalKind) bool {
	var ferr *FatalError
	return errors.As(err, &ferr) && ferr.Kind == kind
}

// ICE signals an internal compiler error: a condition which should never occur
// regardless of input.  It always panics.
func ICE(message string, args ...interface{}) {
	msg := fmt.Sprintf(message, args...)

	if LogLevel() > LogLevelSilent {
		rep.m.Lock()
		displayICE(msg)
		rep.m.Unlock()
	}

	panic(Fatal(FatalInternal, msg))
}
