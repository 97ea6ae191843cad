package llc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addIR = `
define i32 @add(i32 %a, i32 %b) {
entry:
	%slot = alloca i32
	%sum = add i32 %a, %b
	store i32 %sum, i32* %slot
	%r = load i32, i32* %slot
	ret i32 %r
}
`

func TestParseAndVerify(t *testing.T) {
	ctx := NewContext()
	defer ctx.Dispose()

	mod, err := ctx.NewModuleFromIR("add", addIR)
	require.NoError(t, err)
	require.NoError(t, mod.Verify())
	assert.Equal(t, "add", mod.Name())
	assert.Contains(t, mod.String(), "@add")
}

func TestParseError(t *testing.T) {
	ctx := NewContext()
	defer ctx.Dispose()

	_, err := ctx.NewModuleFromIR("bad", "define i32 @f( {")
	assert.Error(t, err)
}

func TestVerifyError(t *testing.T) {
	ctx := NewContext()
	defer ctx.Dispose()

	// %x does not dominate its use in %b.
	mod, err := ctx.NewModuleFromIR("nodom", `
define i32 @f(i1 %c) {
entry:
	br i1 %c, label %a, label %b
a:
	%x = add i32 1, 2
	br label %b
b:
	ret i32 %x
}
`)
	require.NoError(t, err)
	assert.Error(t, mod.Verify())
}

func TestInitializeTargetsIsIdempotent(t *testing.T) {
	first := InitializeTargets()
	assert.Equal(t, first, InitializeTargets())
}

func TestRunPassesPromotesSlots(t *testing.T) {
	ctx := NewContext()
	defer ctx.Dispose()

	tm, err := ctx.NewHostMachine(CodeGenLevelDefault, RelocDefault, CodeModelDefault)
	require.NoError(t, err)
	assert.NotEmpty(t, tm.DataLayout())

	mod, err := ctx.NewModuleFromIR("add", addIR)
	require.NoError(t, err)

	require.NoError(t, RunPasses(mod, "default<O2>", tm, true))
	assert.NotContains(t, mod.String(), "alloca")
}

func TestEmitHostAssembly(t *testing.T) {
	ctx := NewContext()
	defer ctx.Dispose()

	tm, err := ctx.NewHostMachine(CodeGenLevelDefault, RelocDefault, CodeModelDefault)
	require.NoError(t, err)

	mod, err := ctx.NewModuleFromIR("add", addIR)
	require.NoError(t, err)

	asm, err := tm.EmitToMemory(mod, AssemblyFile)
	require.NoError(t, err)
	assert.Contains(t, string(asm), "add")
}

func TestUnknownTriple(t *testing.T) {
	_, err := GetTargetFromTriple("nonexistent-unknown-unknown")
	assert.Error(t, err)
}
