// Package cmd implements the `symjit` command line tool.
package cmd

import (
	"os"
	"strconv"

	"github.com/ComedicChimera/olive"

	"symjit/codegen"
	"symjit/report"
)

// Version is the current symjit version.
const Version = "0.1.0"

// Execute is the main entry point for the `symjit` CLI utility.  It returns
// the process exit code.
func Execute() int {
	cli := olive.NewCLI("symjit", "symjit traces, compiles and runs sample programs", true)
	cli.AddSelectorArg("loglevel", "ll", "the log level", false, []string{"silent", "error", "warn", "verbose"})

	runCmd := cli.AddSubcommand("run", "JIT compile and run pow_n", true)
	runCmd.AddStringArg("exponent", "n", "the exponent pow_n is built for", true)
	runCmd.AddStringArg("base", "x", "the single base to evaluate", false)
	runCmd.AddStringArg("opt-level", "O", "the optimization level (0-3)", false)

	ptxCmd := cli.AddSubcommand("ptx", "generate PTX for the saxpy kernel", true)
	ptxCmd.AddStringArg("output", "o", "the output path", false)
	ptxCmd.AddStringArg("opt-level", "O", "the optimization level (0-3)", false)

	irCmd := cli.AddSubcommand("ir", "print the lowered LLVM IR of the sample programs", true)
	irCmd.AddSelectorArg("target", "t", "the lowering target", false, []string{"host", "ptx"})

	cli.AddSubcommand("version", "print the symjit version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.InitReporter(report.LogLevelError)
		report.DisplayError(err)
		return 2
	}

	prof, err := LoadProfile(ProfileFileName)
	if err != nil {
		report.InitReporter(report.LogLevelError)
		report.DisplayError(err)
		return 1
	}

	if ll, ok := result.Arguments["loglevel"].(string); ok && ll != "" {
		prof.LogLevel = ll
	}
	report.InitReporter(report.ParseLogLevel(prof.LogLevel))

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "run":
		err = execRunCommand(subResult, prof)
	case "ptx":
		err = execPTXCommand(subResult, prof)
	case "ir":
		err = execIRCommand(subResult, prof)
	case "version":
		report.DisplayInfo("symjit version", Version)
	}

	if err != nil {
		report.DisplayError(err)
		return 1
	}

	return 0
}

// applyOptLevel overrides the profile's optimization level with the
// `opt-level` argument if it was given.
func applyOptLevel(result *olive.ArgParseResult, prof *Profile) error {
	val, ok := result.Arguments["opt-level"].(string)
	if !ok || val == "" {
		return nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return err
	}

	level, err := codegen.ParseOptLevel(n)
	if err != nil {
		return err
	}

	prof.OptLevel = level
	return nil
}
