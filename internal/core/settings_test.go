package core

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.False(t, s.HD8K)
	assert.Equal(t, 0, s.Quantization)
	assert.Equal(t, DitherOff, s.DitherMode)
	assert.Equal(t, 100, s.Resolution)
	assert.Equal(t, 42, s.DisplacementSeed)
	assert.Equal(t, 100, s.JPEGQuality)
	assert.Equal(t, 1, s.JPEGIterations)
	assert.Equal(t, NoiseGaussian, s.NoiseType)
	assert.Equal(t, 42, s.GlitchSeed)
	assert.Equal(t, PaletteNone, s.Palette)
	assert.Equal(t, 1, s.IterativeCount)
	assert.Equal(t, 1, s.Iterations())
}

func TestClamp(t *testing.T) {
	s := Settings{
		Quantization:   150,
		DitherMode:     DitherMode(9),
		Sharpen:        -3,
		Resolution:     0,
		JPEGQuality:    120,
		JPEGIterations: 0,
		NoiseIntensity: 101,
		RGBShiftAmount: -1,
		GlitchBands:    -5,
		Palette:        PalettePreset(-1),
		IterativeCount: 50,
	}

	c := s.Clamp()
	assert.Equal(t, 100, c.Quantization)
	assert.Equal(t, DitherFloydSteinberg, c.DitherMode)
	assert.Equal(t, 0, c.Sharpen)
	assert.Equal(t, 1, c.Resolution)
	assert.Equal(t, 100, c.JPEGQuality)
	assert.Equal(t, 1, c.JPEGIterations)
	assert.Equal(t, 100, c.NoiseIntensity)
	assert.Equal(t, 0, c.RGBShiftAmount)
	assert.Equal(t, 0, c.GlitchBands)
	assert.Equal(t, PaletteNone, c.Palette)
	assert.Equal(t, 20, c.IterativeCount)

	// original untouched
	assert.Equal(t, 150, s.Quantization)
}

func TestIterations(t *testing.T) {
	s := DefaultSettings()
	s.IterativeCount = 5
	assert.Equal(t, 1, s.Iterations(), "count ignored while disabled")

	s.IterativeDestroy = true
	assert.Equal(t, 5, s.Iterations())

	s.IterativeCount = 1
	assert.Equal(t, 1, s.Iterations())
}

func TestRandomizeIsSeeded(t *testing.T) {
	base := DefaultSettings()
	base.RandomSeed = 1234

	a := Randomize(base)
	b := Randomize(base)
	assert.Equal(t, a, b)
	assert.Equal(t, 1234, a.RandomSeed)

	assert.GreaterOrEqual(t, a.Resolution, 10)
	assert.LessOrEqual(t, a.RGBShiftAmount, 50)
	assert.LessOrEqual(t, a.GlitchBands, 30)
	assert.NotEqual(t, PaletteCustom, a.Palette)
	assert.GreaterOrEqual(t, a.JPEGIterations, 1)
}

func TestResolutionForWidth(t *testing.T) {
	tests := []struct {
		target, source, want int
	}{
		{64, 1280, 5},
		{1024, 512, 100},
		{1, 4000, 1},
		{256, 0, 13},
		{5, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolutionForWidth(tt.target, tt.source), "target=%d source=%d", tt.target, tt.source)
	}
}

func TestEnumText(t *testing.T) {
	var d DitherMode
	require.NoError(t, d.UnmarshalText([]byte("Floyd-Steinberg")))
	assert.Equal(t, DitherFloydSteinberg, d)

	var n NoiseType
	require.Error(t, n.UnmarshalText([]byte("perlin")))

	var p PalettePreset
	require.NoError(t, p.UnmarshalText([]byte("win98")))
	assert.Equal(t, "win98", p.String())
	assert.Equal(t, "unknown(42)", PalettePreset(42).String())
}

func TestParseRGB(t *testing.T) {
	c, err := ParseRGB("#0f380F")
	require.NoError(t, err)
	assert.Equal(t, RGB{15, 56, 15}, c)
	assert.Equal(t, "#0f380f", c.String())

	_, err = ParseRGB("#fff")
	assert.Error(t, err)
}

func TestSettingsTOMLRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.Quantization = 60
	s.DitherMode = DitherOrdered
	s.NoiseType = NoiseBanding
	s.Palette = PaletteCustom
	s.CustomPalette = []RGB{{0, 0, 0}, {255, 128, 1}}

	var buf bytes.Buffer
	require.NoError(t, EncodeSettings(&buf, s))
	assert.Contains(t, buf.String(), "ordered")
	assert.Contains(t, buf.String(), `#ff8001`)

	got, err := DecodeSettings(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecodeSettingsKeepsDefaults(t *testing.T) {
	got, err := DecodeSettings(strings.NewReader("sharpen = 30\nnoise_type = \"salt-pepper\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 30, got.Sharpen)
	assert.Equal(t, NoiseSaltPepper, got.NoiseType)
	assert.Equal(t, 100, got.Resolution)

	_, err = DecodeSettings(strings.NewReader("bogus_knob = 1\n"))
	assert.Error(t, err)
}

func TestSaveLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	s := DefaultSettings()
	s.GlitchBands = 7

	require.NoError(t, SaveSettings(path, s))
	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 7, got.GlitchBands)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
