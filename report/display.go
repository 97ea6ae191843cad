package report

import (
	"errors"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightCyan
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

// LogPhase displays a phase message: eg. `[ptx] emitted 1024 bytes`.  Phase
// messages are only displayed at verbose log level.
func LogPhase(phase, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		InfoStyleBG.Print("[" + phase + "]")
		InfoColorFG.Printf(" "+message+"\n", args...)
	}
}

// LogSuccess displays a concluding success message at verbose log level.
func LogSuccess(tag, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelVerbose {
		SuccessStyleBG.Print(tag)
		SuccessColorFG.Printf(" "+message+"\n", args...)
	}
}

// LogWarning displays a warning.
func LogWarning(tag, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel >= LogLevelWarn {
		WarnStyleBG.Print(tag)
		WarnColorFG.Printf(" "+message+"\n", args...)
	}
}

// DisplayError displays an error with a banner matching its kind.
func DisplayError(err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.logLevel == LogLevelSilent {
		return
	}

	var (
		berr *BuildError
		ferr *FatalError
	)

	switch {
	case errors.As(err, &berr):
		ErrorStyleBG.Print("Build Error")
		ErrorColorFG.Println(" " + berr.Error())
	case errors.As(err, &ferr):
		ErrorStyleBG.Print("Fatal Error")
		ErrorColorFG.Println(" " + ferr.Message)
	default:
		ErrorStyleBG.Print("Error")
		ErrorColorFG.Println(" " + err.Error())
	}
}

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	ErrorStyleBG.Print("Internal Error")
	ErrorColorFG.Println(" " + message)
	ErrorColorFG.Println("This error was not supposed to happen: please open an issue.")
}

// DisplayInfo displays an informational message regardless of log level.
func DisplayInfo(tag, message string) {
	rep.m.Lock()
	defer rep.m.Unlock()

	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + message)
}
