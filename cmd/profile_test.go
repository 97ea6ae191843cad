package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symjit/codegen"
)

func TestParseProfile(t *testing.T) {
	prof, err := ParseProfile([]byte(`
[build]
opt-level = 3
target = "ptx"
log-level = "verbose"
output = "out.ptx"
`))
	require.NoError(t, err)

	assert.Equal(t, &Profile{
		OptLevel:   codegen.O3,
		Target:     codegen.TargetDevice,
		LogLevel:   "verbose",
		OutputPath: "out.ptx",
	}, prof)
}

func TestParseProfileDefaults(t *testing.T) {
	prof, err := ParseProfile([]byte("[build]\nopt-level = 0\n"))
	require.NoError(t, err)

	want := DefaultProfile()
	want.OptLevel = codegen.O0
	assert.Equal(t, want, prof)
}

func TestParseProfileErrors(t *testing.T) {
	tests := map[string]string{
		"bad toml":     "[build\n",
		"bad level":    "[build]\nopt-level = 4\n",
		"bad target":   "[build]\ntarget = \"gpu\"\n",
		"bad loglevel": "[build]\nlog-level = \"loud\"\n",
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfile([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()

	prof, err := LoadProfile(filepath.Join(dir, ProfileFileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), prof)

	path := filepath.Join(dir, ProfileFileName)
	require.NoError(t, os.WriteFile(path, []byte("[build]\ntarget = \"host\"\nopt-level = 1\n"), 0o644))

	prof, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, codegen.O1, prof.OptLevel)
	assert.Equal(t, codegen.TargetHost, prof.Target)
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ll")
	require.NoError(t, writeOutput(path, "; module\n"))

	buff, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "; module\n", string(buff))
}
