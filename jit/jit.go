// Package jit compiles programs for the host and exposes their entry points.
package jit

import (
	"sort"

	"github.com/google/uuid"

	"symjit/codegen"
	"symjit/ir"
	"symjit/llc"
	"symjit/report"
)

var codeGenLevels = [...]llc.CodeGenOptLevel{
	codegen.O0: llc.CodeGenLevelNone,
	codegen.O1: llc.CodeGenLevelLess,
	codegen.O2: llc.CodeGenLevelDefault,
	codegen.O3: llc.CodeGenLevelAggressive,
}

// Compile lowers prog for the host, optimizes it at level and compiles it in
// process.  Every function of prog can be looked up in the returned symbols.
func Compile(prog *ir.Program, level codegen.OptLevel) (*Symbols, error) {
	if level < codegen.O0 || level > codegen.O3 {
		return nil, report.Fatal(report.FatalInternal, "invalid optimization level %d", int(level))
	}

	j, err := llc.NewLLJIT()
	if err != nil {
		return nil, report.Fatal(report.FatalJIT, "creating jit: %s", err)
	}

	syms, err := compileInto(j, prog, level)
	if err != nil {
		if derr := j.Dispose(); derr != nil {
			report.LogWarning("jit", "disposing jit after failed compile: %s", derr)
		}

		return nil, err
	}

	return syms, nil
}

func compileInto(j *llc.LLJIT, prog *ir.Program, level codegen.OptLevel) (*Symbols, error) {
	lowered, err := codegen.Generate(prog, codegen.Options{
		Target:     codegen.TargetHost,
		DataLayout: j.DataLayout(),
		Triple:     j.Triple(),
	})
	if err != nil {
		return nil, err
	}
	report.LogPhase("jit", "lowered %d functions at %s", len(prog.Funcs()), level)

	tc := llc.NewThreadSafeContext()
	defer tc.Dispose()

	tm, err := tc.NewHostMachine(codeGenLevels[level], llc.RelocPIC, llc.CodeModelJITDefault)
	if err != nil {
		return nil, report.Fatal(report.FatalJIT, "%s", err)
	}

	mod, err := tc.NewModuleFromIR("jit."+uuid.NewString(), lowered.String())
	if err != nil {
		return nil, report.Fatal(report.FatalInternal, "parsing lowered module: %s", err)
	}

	if err := mod.Verify(); err != nil {
		return nil, report.Fatal(report.FatalVerify, "%s", err)
	}

	if err := llc.RunPasses(mod, level.Pipeline(), tm, false); err != nil {
		return nil, report.Fatal(report.FatalInternal, "%s", err)
	}
	report.LogPhase("jit", "ran %s", level.Pipeline())

	if err := j.DefineAbsolute(hostMathSymbols()); err != nil {
		return nil, report.Fatal(report.FatalJIT, "defining host math: %s", err)
	}

	if err := j.AddModule(tc, mod); err != nil {
		return nil, report.Fatal(report.FatalJIT, "adding module: %s", err)
	}

	syms := &Symbols{jit: j, addrs: make(map[string]uintptr)}
	for _, fn := range prog.Funcs() {
		addr, err := j.Lookup(fn.Name)
		if err != nil {
			return nil, report.Fatal(report.FatalJIT, "looking up %s: %s", fn.Name, err)
		}

		syms.addrs[fn.Name] = addr
		syms.names = append(syms.names, fn.Name)
	}
	sort.Strings(syms.names)

	report.LogPhase("jit", "compiled %d entry points", len(syms.names))
	return syms, nil
}
