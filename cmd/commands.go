package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ComedicChimera/olive"
	"github.com/pterm/pterm"

	"symjit/codegen"
	"symjit/demo"
	"symjit/ir"
	"symjit/jit"
	"symjit/ptx"
	"symjit/report"
)

// execRunCommand builds pow_n for the requested exponent, JIT compiles it
// and prints its value for each base.
func execRunCommand(result *olive.ArgParseResult, prof *Profile) error {
	if err := applyOptLevel(result, prof); err != nil {
		return err
	}

	n, err := strconv.ParseUint(result.Arguments["exponent"].(string), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid exponent: %w", err)
	}

	bases := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	if val, ok := result.Arguments["base"].(string); ok && val != "" {
		x, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid base: %w", err)
		}

		bases = []int32{int32(x)}
	}

	prog := ir.NewProgram(nil)
	if _, err := demo.PowN(prog, uint(n)); err != nil {
		return err
	}

	syms, err := jit.Compile(prog, prof.OptLevel)
	if err != nil {
		return err
	}
	defer syms.Close()

	var powN func(int32) int64
	if err := syms.Bind("pow_n", &powN); err != nil {
		return err
	}

	for _, x := range bases {
		pterm.Printf("%d^%d = %d\n", x, n, powN(x))
	}

	report.LogSuccess("Done", "evaluated pow_n for %d bases", len(bases))
	return nil
}

// execPTXCommand generates PTX for the saxpy kernel and writes it to the
// output path.
func execPTXCommand(result *olive.ArgParseResult, prof *Profile) error {
	if err := applyOptLevel(result, prof); err != nil {
		return err
	}

	if val, ok := result.Arguments["output"].(string); ok && val != "" {
		prof.OutputPath = val
	}

	prog := ir.NewProgram(nil)
	if _, err := demo.Saxpy(prog); err != nil {
		return err
	}

	g := ptx.NewGenerator()
	if err := g.Generate(prog, prof.OptLevel); err != nil {
		return err
	}

	asm, err := g.Result()
	if err != nil {
		return err
	}

	if err := writeOutput(prof.OutputPath, asm); err != nil {
		return err
	}

	if prof.OutputPath != "" {
		report.LogSuccess("Done", "wrote ptx to `%s`", prof.OutputPath)
	}
	return nil
}

// execIRCommand prints the lowered, unoptimized LLVM IR of the sample
// programs.
func execIRCommand(result *olive.ArgParseResult, prof *Profile) error {
	if val, ok := result.Arguments["target"].(string); ok && val != "" {
		target, err := codegen.ParseTarget(val)
		if err != nil {
			return err
		}

		prof.Target = target
	}

	prog := ir.NewProgram(nil)
	if _, err := demo.PowN(prog, 5); err != nil {
		return err
	}

	if _, err := demo.Hypot(prog); err != nil {
		return err
	}

	if _, err := demo.Saxpy(prog); err != nil {
		return err
	}

	mod, err := codegen.Generate(prog, codegen.Options{Target: prof.Target})
	if err != nil {
		return err
	}

	return writeOutput(prof.OutputPath, mod.String())
}

// writeOutput writes text to path or to standard out if path is empty.
func writeOutput(path, text string) error {
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, text)
		return err
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("error writing output to `%s`: %w", path, err)
	}

	return nil
}
