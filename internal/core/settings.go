// Parameter set driving one pipeline run
package core

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// DitherMode selects the dithering applied before palette lookup in quantization.
type DitherMode int

const (
	DitherOff DitherMode = iota
	DitherOrdered
	DitherFloydSteinberg
)

var ditherNames = []string{"off", "ordered", "floyd-steinberg"}

func (d DitherMode) String() string { return enumName(ditherNames, int(d)) }

// MarshalText implements encoding.TextMarshaler.
func (d DitherMode) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DitherMode) UnmarshalText(text []byte) error {
	v, err := parseEnum("dither mode", ditherNames, string(text))
	*d = DitherMode(v)
	return err
}

// NoiseType selects the noise generator.
type NoiseType int

const (
	NoiseGaussian NoiseType = iota
	NoiseSaltPepper
	NoiseBanding
)

var noiseNames = []string{"gaussian", "salt-pepper", "banding"}

func (n NoiseType) String() string { return enumName(noiseNames, int(n)) }

// MarshalText implements encoding.TextMarshaler.
func (n NoiseType) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NoiseType) UnmarshalText(text []byte) error {
	v, err := parseEnum("noise type", noiseNames, string(text))
	*n = NoiseType(v)
	return err
}

// PalettePreset selects the palette used by the palette mapping stage.
type PalettePreset int

const (
	PaletteNone PalettePreset = iota
	PaletteGameBoy
	PaletteNES
	PaletteWin98
	PaletteThermal
	PaletteMonoGreen
	PaletteCustom
)

var paletteNames = []string{"none", "gameboy", "nes", "win98", "thermal", "monogreen", "custom"}

func (p PalettePreset) String() string { return enumName(paletteNames, int(p)) }

// MarshalText implements encoding.TextMarshaler.
func (p PalettePreset) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PalettePreset) UnmarshalText(text []byte) error {
	v, err := parseEnum("palette", paletteNames, string(text))
	*p = PalettePreset(v)
	return err
}

// PalettePresets lists every preset name in declaration order.
func PalettePresets() []string {
	out := make([]string, len(paletteNames))
	copy(out, paletteNames)
	return out
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

func parseEnum(kind string, names []string, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (valid: %s)", kind, s, strings.Join(names, ", "))
}

// Settings is the plain-data parameter set copied into every submitted job.
type Settings struct {
	// HD8K upscales with nearest neighbour instead of bilinear after the resolution drop.
	HD8K bool `toml:"hd8k" json:"hd8k"`

	Quantization int        `toml:"quantization" json:"quantization"`
	DitherMode   DitherMode `toml:"dither_mode" json:"dither_mode"`

	Sharpen int `toml:"sharpen" json:"sharpen"`

	// Resolution is a percentage of the source dimensions, 100 disables the stage.
	Resolution int `toml:"resolution" json:"resolution"`

	Displacement     int `toml:"displacement" json:"displacement"`
	DisplacementSeed int `toml:"displacement_seed" json:"displacement_seed"`

	JPEGQuality    int `toml:"jpeg_quality" json:"jpeg_quality"`
	JPEGIterations int `toml:"jpeg_iterations" json:"jpeg_iterations"`

	NoiseIntensity  int       `toml:"noise_intensity" json:"noise_intensity"`
	NoiseType       NoiseType `toml:"noise_type" json:"noise_type"`
	NoisePerChannel bool      `toml:"noise_per_channel" json:"noise_per_channel"`
	NoiseSeed       int       `toml:"noise_seed" json:"noise_seed"`

	RGBShiftAmount int  `toml:"rgb_shift_amount" json:"rgb_shift_amount"`
	RGBShiftX      bool `toml:"rgb_shift_x" json:"rgb_shift_x"`
	RGBShiftY      bool `toml:"rgb_shift_y" json:"rgb_shift_y"`

	GlitchBands     int `toml:"glitch_bands" json:"glitch_bands"`
	GlitchAmplitude int `toml:"glitch_amplitude" json:"glitch_amplitude"`
	GlitchSeed      int `toml:"glitch_seed" json:"glitch_seed"`

	Palette       PalettePreset `toml:"palette" json:"palette"`
	CustomPalette []RGB         `toml:"custom_palette,omitempty" json:"custom_palette,omitempty"`

	IterativeDestroy bool `toml:"iterative_destroy" json:"iterative_destroy"`
	IterativeCount   int  `toml:"iterative_count" json:"iterative_count"`

	// RandomSeed seeds Randomize; zero means seed from the clock.
	RandomSeed int `toml:"random_seed" json:"random_seed"`
}

// DefaultSettings returns the parameter set in which every stage is a no-op.
func DefaultSettings() Settings {
	return Settings{
		Resolution:       100,
		DisplacementSeed: 42,
		JPEGQuality:      100,
		JPEGIterations:   1,
		NoiseType:        NoiseGaussian,
		NoiseSeed:        42,
		RGBShiftX:        true,
		GlitchSeed:       42,
		Palette:          PaletteNone,
		IterativeCount:   1,
	}
}

// Clone returns a copy that does not share the custom palette slice.
func (s Settings) Clone() Settings {
	out := s
	if s.CustomPalette != nil {
		out.CustomPalette = make([]RGB, len(s.CustomPalette))
		copy(out.CustomPalette, s.CustomPalette)
	}
	return out
}

// Clamp forces every knob into its documented domain.
func (s Settings) Clamp() Settings {
	out := s.Clone()
	out.Quantization = clampRange(out.Quantization, 0, 100)
	out.DitherMode = DitherMode(clampRange(int(out.DitherMode), int(DitherOff), int(DitherFloydSteinberg)))
	out.Sharpen = clampRange(out.Sharpen, 0, 100)
	out.Resolution = clampRange(out.Resolution, 1, 100)
	out.Displacement = clampRange(out.Displacement, 0, 100)
	out.JPEGQuality = clampRange(out.JPEGQuality, 0, 100)
	out.JPEGIterations = max(out.JPEGIterations, 1)
	out.NoiseIntensity = clampRange(out.NoiseIntensity, 0, 100)
	out.NoiseType = NoiseType(clampRange(int(out.NoiseType), int(NoiseGaussian), int(NoiseBanding)))
	out.RGBShiftAmount = clampRange(out.RGBShiftAmount, 0, 100)
	out.GlitchBands = max(out.GlitchBands, 0)
	out.GlitchAmplitude = max(out.GlitchAmplitude, 0)
	out.Palette = PalettePreset(clampRange(int(out.Palette), int(PaletteNone), int(PaletteCustom)))
	out.IterativeCount = clampRange(out.IterativeCount, 1, 20)
	return out
}

func clampRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Iterations returns how many times the full stage sequence runs.
func (s Settings) Iterations() int {
	if s.IterativeDestroy && s.IterativeCount > 1 {
		return s.IterativeCount
	}
	return 1
}

// Randomize returns a random parameter set. RandomSeed and the custom
// palette are carried over from s; every other knob is drawn fresh.
func Randomize(s Settings) Settings {
	seed := uint64(s.RandomSeed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	randInt := func(lo, hi int) int { return lo + rng.IntN(hi-lo+1) }

	out := s.Clone()
	out.HD8K = randInt(0, 1) != 0
	out.Quantization = randInt(0, 100)
	out.DitherMode = DitherMode(randInt(0, 2))
	out.Sharpen = randInt(0, 100)
	out.Resolution = randInt(10, 100)
	out.Displacement = randInt(0, 100)
	out.DisplacementSeed = randInt(0, 99999)
	out.JPEGQuality = randInt(1, 100)
	out.JPEGIterations = randInt(1, 10)
	out.NoiseIntensity = randInt(0, 100)
	out.NoiseType = NoiseType(randInt(0, 2))
	out.NoisePerChannel = randInt(0, 1) != 0
	out.RGBShiftAmount = randInt(0, 50)
	out.RGBShiftX = randInt(0, 1) != 0
	out.RGBShiftY = randInt(0, 1) != 0
	out.GlitchBands = randInt(0, 30)
	out.GlitchAmplitude = randInt(0, 100)
	out.GlitchSeed = randInt(0, 99999)
	out.Palette = PalettePreset(randInt(0, 5))
	return out
}

// ResolutionPresets are the target widths offered as quick resolution choices.
var ResolutionPresets = []int{64, 128, 256, 512, 1024}

// ResolutionForWidth converts a target pixel width into a resolution
// percentage. A non-positive source width assumes a 1920 pixel source.
func ResolutionForWidth(targetWidth, sourceWidth int) int {
	if sourceWidth > 0 {
		return clampRange(targetWidth*100/sourceWidth, 1, 100)
	}
	return max(1, targetWidth*100/1920)
}

// String formats the colour as #rrggbb.
func (c RGB) String() string { return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]) }

// MarshalText implements encoding.TextMarshaler.
func (c RGB) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *RGB) UnmarshalText(text []byte) error {
	v, err := ParseRGB(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseRGB parses #rrggbb or rrggbb.
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c RGB
	if len(s) != 6 {
		return c, fmt.Errorf("invalid colour %q: want #rrggbb", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c[0], &c[1], &c[2]); err != nil {
		return c, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return c, nil
}
