package codegen

import "fmt"

// OptLevel is one of the four discrete optimization levels.
type OptLevel int

// Enumeration of optimization levels.
const (
	O0 OptLevel = iota
	O1
	O2
	O3
)

// ParseOptLevel converts a numeric level into an optimization level.
func ParseOptLevel(level int) (OptLevel, error) {
	if level < int(O0) || level > int(O3) {
		return O0, fmt.Errorf("invalid optimization level %d: must be between 0 and 3", level)
	}

	return OptLevel(level), nil
}

// Pipeline returns the name of the backend's default pass pipeline at this
// level.  The default pipelines include an inliner sized to the same level.
func (l OptLevel) Pipeline() string {
	return fmt.Sprintf("default<O%d>", int(l))
}

func (l OptLevel) String() string {
	return fmt.Sprintf("O%d", int(l))
}

// Target selects the lowering mode.
type Target int

// Enumeration of lowering targets.
const (
	TargetHost   Target = iota // host-native code for the JIT
	TargetDevice               // NVPTX device code
)

func (t Target) String() string {
	if t == TargetDevice {
		return "ptx"
	}

	return "host"
}

// ParseTarget converts a target name into a target.
func ParseTarget(name string) (Target, error) {
	switch name {
	case "host", "native":
		return TargetHost, nil
	case "ptx", "device", "cuda":
		return TargetDevice, nil
	default:
		return TargetHost, fmt.Errorf("unknown target `%s`", name)
	}
}

// DeviceTriple is the fixed target triple of the device target.
const DeviceTriple = "nvptx64-nvidia-cuda"

// Options configures lowering.  Lowering does not depend on the optimization
// level: backends apply it when they run their pass pipelines.
type Options struct {
	Target Target

	// DataLayout and Triple are the target machine's data layout and triple.
	// They are set by the backend driving the lowering.  An empty Triple in
	// device mode defaults to `DeviceTriple`.
	DataLayout string
	Triple     string
}
