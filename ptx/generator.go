// Package ptx generates PTX assembly for CUDA devices.
package ptx

import (
	"github.com/google/uuid"

	"symjit/codegen"
	"symjit/ir"
	"symjit/llc"
	"symjit/report"
)

// Generator produces PTX assembly for a program.  A generator is used for
// exactly one call to `Generate`: it must not be reused, even after a failure.
type Generator struct {
	// cpu is the device architecture: eg. `sm_70`.  An empty string selects
	// the backend default.
	cpu string

	// used indicates `Generate` has been called.
	used bool

	// result is the generated assembly.  It is only set on success.
	result string
	ok     bool
}

// NewGenerator creates a new PTX generator for the backend's default device
// architecture.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewGeneratorForArch creates a new PTX generator for the given device
// architecture: eg. `sm_70`.
func NewGeneratorForArch(cpu string) *Generator {
	return &Generator{cpu: cpu}
}

var codeGenLevels = [...]llc.CodeGenOptLevel{
	codegen.O0: llc.CodeGenLevelNone,
	codegen.O1: llc.CodeGenLevelLess,
	codegen.O2: llc.CodeGenLevelDefault,
	codegen.O3: llc.CodeGenLevelAggressive,
}

// Generate lowers prog for the device and emits its PTX assembly.  On failure
// no assembly is retained.
func (g *Generator) Generate(prog *ir.Program, level codegen.OptLevel) error {
	if g.used {
		return report.Fatal(report.FatalGeneratorReused, "ptx generator has already been used")
	}
	g.used = true

	if level < codegen.O0 || level > codegen.O3 {
		return report.Fatal(report.FatalInternal, "invalid optimization level %d", int(level))
	}

	target, err := llc.GetTargetFromTriple(codegen.DeviceTriple)
	if err != nil {
		return report.Fatal(report.FatalTargetUnavailable, "%s: %s", codegen.DeviceTriple, err)
	}

	ctx := llc.NewContext()
	defer ctx.Dispose()

	tm := ctx.NewMachine(target, codegen.DeviceTriple, g.cpu, "", codeGenLevels[level], llc.RelocDefault, llc.CodeModelDefault)

	lowered, err := codegen.Generate(prog, codegen.Options{
		Target:     codegen.TargetDevice,
		DataLayout: tm.DataLayout(),
		Triple:     codegen.DeviceTriple,
	})
	if err != nil {
		return err
	}
	report.LogPhase("ptx", "lowered %d functions at %s", len(prog.Funcs()), level)

	mod, err := ctx.NewModuleFromIR("ptx."+uuid.NewString(), lowered.String())
	if err != nil {
		return report.Fatal(report.FatalInternal, "parsing lowered module: %s", err)
	}

	if err := mod.Verify(); err != nil {
		return report.Fatal(report.FatalVerify, "%s", err)
	}

	if err := llc.RunPasses(mod, level.Pipeline(), tm, false); err != nil {
		return report.Fatal(report.FatalInternal, "%s", err)
	}
	report.LogPhase("ptx", "ran %s", level.Pipeline())

	asm, err := tm.EmitToMemory(mod, llc.AssemblyFile)
	if err != nil {
		return report.Fatal(report.FatalEmissionUnsupported, "ptx file emission is not supported: %s", err)
	}
	report.LogPhase("ptx", "emitted %d bytes of assembly", len(asm))

	g.result = string(asm)
	g.ok = true
	return nil
}

// Result returns the generated assembly.  It is an error to request the
// result before `Generate` has succeeded.
func (g *Generator) Result() (string, error) {
	if !g.ok {
		return "", report.Fatal(report.FatalInternal, "no ptx has been generated")
	}

	return g.result, nil
}
