package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/nbrx/core"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nbrx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestStatic_IsValid(t *testing.T) {
	c := Static()

	assert.NoError(t, Validate(c))
	assert.Equal(t, 10240, c.IFSampleRate())
	assert.Equal(t, core.Frequency(739750000), c.IFCenter())
}

func TestLoadFile(t *testing.T) {
	path := writeTempConfig(t, `
testmode: true
sample_rate: 512000
decimation: 50
dynamic_range:
  from: -20
  to: -110
agc:
  reference: 0.3
test_source: sweep
`)

	c, err := LoadFile(path, Static())

	require.NoError(t, err)
	assert.True(t, c.Testmode)
	assert.Equal(t, core.TestSourceSweep, c.TestSource)
	assert.Equal(t, 512000, c.SampleRate)
	assert.Equal(t, 50, c.Decimation)
	assert.Equal(t, core.DBRange{From: -110, To: -20}, c.DynamicRange)
	assert.Equal(t, 0.3, c.AGC.Reference)
	assert.Equal(t, 65536.0, c.AGC.MaxGain, "unset values keep their defaults")
	assert.Equal(t, 32768, c.InputBlockSize)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), Static())
	assert.Error(t, err)

	_, err = LoadFile(writeTempConfig(t, ":\n:bad"), Static())
	assert.Error(t, err)

	_, err = LoadFile(writeTempConfig(t, "decimation: 0\n"), Static())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tt := []struct {
		desc   string
		modify func(*core.Configuration)
	}{
		{"sample rate", func(c *core.Configuration) { c.SampleRate = 0 }},
		{"decimation", func(c *core.Configuration) { c.Decimation = -1 }},
		{"transition", func(c *core.Configuration) { c.DecimatorTransition = 0 }},
		{"block size", func(c *core.Configuration) { c.InputBlockSize = 0 }},
		{"fft size", func(c *core.Configuration) { c.IFFFTSize = 1 }},
		{"block too small", func(c *core.Configuration) { c.InputBlockSize = 16384 }},
		{"smoothing", func(c *core.Configuration) { c.SpectrumSmoothing = 1 }},
		{"dynamic range", func(c *core.Configuration) { c.DynamicRange = core.DBRange{From: -20, To: -20} }},
		{"passband", func(c *core.Configuration) { c.DemodLowCut = 0.4 }},
		{"agc", func(c *core.Configuration) { c.AGC.MaxGain = 0 }},
		{"gain filter", func(c *core.Configuration) { c.AGC.GainFilterAlpha = 0 }},
		{"audio period", func(c *core.Configuration) { c.AudioPeriod = 0 }},
		{"test source", func(c *core.Configuration) { c.TestSource = "chirp" }},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			c := Static()
			tc.modify(&c)
			assert.Error(t, Validate(c))
		})
	}
}
