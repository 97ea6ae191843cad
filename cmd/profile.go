package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml"

	"symjit/codegen"
)

// ProfileFileName is the name of the optional build profile read from the
// working directory.
const ProfileFileName = "symjit.toml"

// Profile represents the current build profile.
type Profile struct {
	OptLevel codegen.OptLevel
	Target   codegen.Target
	LogLevel string

	// OutputPath is the file generated output is written to.  An empty path
	// selects standard out.
	OutputPath string
}

// DefaultProfile returns the profile used when no profile file exists.
func DefaultProfile() *Profile {
	return &Profile{
		OptLevel: codegen.O2,
		Target:   codegen.TargetHost,
		LogLevel: "warn",
	}
}

// tomlProfile represents a build profile as it is encoded in TOML.
type tomlProfile struct {
	Build struct {
		OptLevel *int   `toml:"opt-level"`
		Target   string `toml:"target"`
		LogLevel string `toml:"log-level"`
		Output   string `toml:"output"`
	} `toml:"build"`
}

// LoadProfile loads the profile at path.  A missing file yields the default
// profile.
func LoadProfile(path string) (*Profile, error) {
	buff, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultProfile(), nil
	} else if err != nil {
		return nil, fmt.Errorf("error reading profile at `%s`: %w", path, err)
	}

	return ParseProfile(buff)
}

// ParseProfile parses the TOML encoding of a profile.  Unset fields keep
// their default values.
func ParseProfile(buff []byte) (*Profile, error) {
	tp := &tomlProfile{}
	if err := toml.Unmarshal(buff, tp); err != nil {
		return nil, fmt.Errorf("error parsing profile: %w", err)
	}

	prof := DefaultProfile()

	if tp.Build.OptLevel != nil {
		level, err := codegen.ParseOptLevel(*tp.Build.OptLevel)
		if err != nil {
			return nil, err
		}

		prof.OptLevel = level
	}

	if tp.Build.Target != "" {
		target, err := codegen.ParseTarget(tp.Build.Target)
		if err != nil {
			return nil, err
		}

		prof.Target = target
	}

	if tp.Build.LogLevel != "" {
		switch tp.Build.LogLevel {
		case "silent", "error", "warn", "verbose":
			prof.LogLevel = tp.Build.LogLevel
		default:
			return nil, fmt.Errorf("unknown log level `%s`", tp.Build.LogLevel)
		}
	}

	prof.OutputPath = tp.Build.Output
	return prof, nil
}
