package intrinsic

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symjit/report"
)

func TestParseRoundTrip(t *testing.T) {
	for _, in := range All() {
		got, err := Parse(in.String())
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestParseUnknown(t *testing.T) {
	for _, name := range []string{"math.foo.f32", "math.pow.f16", "pow.f32", "host.math.pow.f32", ""} {
		_, err := Parse(name)
		require.Error(t, err, name)
		assert.True(t, report.IsFatal(err, report.FatalUnknownIntrinsic))
		assert.Contains(t, err.Error(), "unknown host math function: "+name)
	}
}

func TestClassification(t *testing.T) {
	in, err := Parse("math.isnan.f64")
	require.NoError(t, err)

	assert.True(t, in.Op.IsClassification())
	assert.Equal(t, "host.math.isnan.f64", in.HostName())
	assert.Equal(t, "i32 (double)", in.HostSignature())
}

func TestHostExternContract(t *testing.T) {
	var sb strings.Builder
	for _, in := range All() {
		sb.WriteString(in.HostName())
		sb.WriteByte(' ')
		sb.WriteString(in.HostSignature())
		sb.WriteByte('\n')
	}

	g := goldie.New(t)
	g.Assert(t, "host_externs", []byte(sb.String()))
}
