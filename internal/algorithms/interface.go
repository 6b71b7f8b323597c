// Stage descriptors for the degradation chain
package algorithms

import (
	"fmt"
)

// Stage names in the order the pipeline runs them.
const (
	StageResolution   = "resolution"
	StageQuantization = "quantization"
	StageSharpen      = "sharpen"
	StageNoise        = "noise"
	StageRGBShift     = "rgb_shift"
	StageGlitch       = "glitch"
	StageDisplacement = "displacement"
	StageJPEG         = "jpeg"
	StagePalette      = "palette"
)

// ParameterInfo describes a parameter for UI generation
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "int", "bool", "enum", "colors"
	Min         interface{} `json:"min,omitempty"`
	Max         interface{} `json:"max,omitempty"`
	Default     interface{} `json:"default"`
	Description string      `json:"description"`
	Options     []string    `json:"options,omitempty"` // For enum type
}

// Descriptor documents one stage and the parameters that drive it.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

var (
	descriptors = make(map[string]Descriptor)
	order       []string
)

// Register adds a stage descriptor. Registration order is pipeline order.
func Register(d Descriptor) {
	if _, exists := descriptors[d.Name]; !exists {
		order = append(order, d.Name)
	}
	descriptors[d.Name] = d
}

// Get returns the descriptor registered under name.
func Get(name string) (Descriptor, bool) {
	d, exists := descriptors[name]
	return d, exists
}

// MustGet is Get for names known at compile time.
func MustGet(name string) Descriptor {
	d, ok := Get(name)
	if !ok {
		panic(fmt.Sprintf("algorithms: stage not registered: %s", name))
	}
	return d
}

// Order returns stage names in pipeline order.
func Order() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// All returns every descriptor in pipeline order.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(order))
	for _, name := range order {
		out = append(out, descriptors[name])
	}
	return out
}

func init() {
	Register(Descriptor{
		Name:        StageResolution,
		Description: "Box-filter downscale then nearest or bilinear upscale back to the source size",
		Parameters: []ParameterInfo{
			{Name: "resolution", Type: "int", Min: 1, Max: 100, Default: 100, Description: "Intermediate size in percent"},
			{Name: "hd8k", Type: "bool", Default: false, Description: "Blocky nearest-neighbour upscale"},
		},
	})
	Register(Descriptor{
		Name:        StageQuantization,
		Description: "Median-cut colour reduction with optional dithering",
		Parameters: []ParameterInfo{
			{Name: "quantization", Type: "int", Min: 0, Max: 100, Default: 0, Description: "Reduction level, 100 leaves two colours"},
			{Name: "dither_mode", Type: "enum", Default: "off", Description: "Dithering before palette lookup",
				Options: []string{"off", "ordered", "floyd-steinberg"}},
		},
	})
	Register(Descriptor{
		Name:        StageSharpen,
		Description: "Unsharp mask over a separable Gaussian blur",
		Parameters: []ParameterInfo{
			{Name: "sharpen", Type: "int", Min: 0, Max: 100, Default: 0, Description: "Mask amount and blur radius"},
		},
	})
	Register(Descriptor{
		Name:        StageNoise,
		Description: "Seeded Gaussian, salt and pepper, or horizontal banding noise",
		Parameters: []ParameterInfo{
			{Name: "noise_intensity", Type: "int", Min: 0, Max: 100, Default: 0, Description: "Noise strength"},
			{Name: "noise_type", Type: "enum", Default: "gaussian", Description: "Noise generator",
				Options: []string{"gaussian", "salt-pepper", "banding"}},
			{Name: "noise_per_channel", Type: "bool", Default: false, Description: "Independent Gaussian sample per channel"},
			{Name: "noise_seed", Type: "int", Default: 42, Description: "Generator seed"},
		},
	})
	Register(Descriptor{
		Name:        StageRGBShift,
		Description: "Offsets the red and blue channels in opposite directions",
		Parameters: []ParameterInfo{
			{Name: "rgb_shift_amount", Type: "int", Min: 0, Max: 100, Default: 0, Description: "Offset in pixels"},
			{Name: "rgb_shift_x", Type: "bool", Default: true, Description: "Shift horizontally"},
			{Name: "rgb_shift_y", Type: "bool", Default: false, Description: "Shift vertically"},
		},
	})
	Register(Descriptor{
		Name:        StageGlitch,
		Description: "Random horizontal bands copied with a horizontal offset",
		Parameters: []ParameterInfo{
			{Name: "glitch_bands", Type: "int", Min: 0, Default: 0, Description: "Number of bands"},
			{Name: "glitch_amplitude", Type: "int", Min: 0, Default: 0, Description: "Maximum shift in pixels"},
			{Name: "glitch_seed", Type: "int", Default: 42, Description: "Generator seed"},
		},
	})
	Register(Descriptor{
		Name:        StageDisplacement,
		Description: "Smooth gradient-noise warp of pixel positions",
		Parameters: []ParameterInfo{
			{Name: "displacement", Type: "int", Min: 0, Max: 100, Default: 0, Description: "Warp strength"},
			{Name: "displacement_seed", Type: "int", Default: 42, Description: "Noise seed"},
		},
	})
	Register(Descriptor{
		Name:        StageJPEG,
		Description: "Repeated lossy JPEG encode and decode",
		Parameters: []ParameterInfo{
			{Name: "jpeg_quality", Type: "int", Min: 0, Max: 100, Default: 100, Description: "Encoder quality, 0 and 100 disable"},
			{Name: "jpeg_iterations", Type: "int", Min: 1, Default: 1, Description: "Encode/decode rounds"},
		},
	})
	Register(Descriptor{
		Name:        StagePalette,
		Description: "Nearest-colour mapping onto a fixed or custom palette",
		Parameters: []ParameterInfo{
			{Name: "palette", Type: "enum", Default: "none", Description: "Palette preset",
				Options: []string{"none", "gameboy", "nes", "win98", "thermal", "monogreen", "custom"}},
			{Name: "custom_palette", Type: "colors", Description: "Colours for the custom preset, #rrggbb"},
		},
	})
}
