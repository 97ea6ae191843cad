package report

import "sync"

// Reporter is responsible for displaying errors, warnings and phase messages
// to the user.  The reporter respects the set log level and is synchronized:
// its methods can be safely called from multiple goroutines.
type Reporter struct {
	// The mutex used to synchonize different display calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output (default for library use).
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all phase messages to the user.
)

// rep is the global reporter instance.
var rep = &Reporter{m: &sync.Mutex{}, logLevel: LogLevelSilent}

// InitReporter sets the log level of the global reporter.
func InitReporter(logLevel int) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.logLevel = logLevel
}

// LogLevel returns the current log level of the global reporter.
func LogLevel() int {
	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.logLevel
}

// ParseLogLevel converts a log level name into its log level.  Unknown names
// default to verbose.
func ParseLogLevel(name string) int {
	switch name {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarn
	default:
		return LogLevelVerbose
	}
}
