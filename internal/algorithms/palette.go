// Fixed palette presets and nearest-colour mapping
package algorithms

import (
	"slices"

	"shakalnost/internal/core"
)

var presets = map[core.PalettePreset][]core.RGB{
	core.PaletteGameBoy: {
		{15, 56, 15}, {48, 98, 48}, {139, 172, 15}, {155, 188, 15},
	},
	core.PaletteNES: {
		{0, 0, 0}, {0, 0, 170}, {0, 170, 0}, {0, 170, 170},
		{170, 0, 0}, {170, 0, 170}, {170, 85, 0}, {170, 170, 170},
		{85, 85, 85}, {85, 85, 255}, {85, 255, 85}, {85, 255, 255},
		{255, 85, 85}, {255, 85, 255}, {255, 255, 85}, {255, 255, 255},
	},
	core.PaletteWin98: {
		{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
		{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
		{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	},
	core.PaletteThermal: {
		{0, 0, 32}, {0, 0, 64}, {0, 0, 128}, {0, 0, 192},
		{0, 64, 192}, {0, 128, 192}, {0, 192, 128}, {0, 255, 64},
		{64, 255, 0}, {128, 255, 0}, {192, 255, 0}, {255, 255, 0},
		{255, 192, 0}, {255, 128, 0}, {255, 64, 0}, {255, 0, 0},
	},
	core.PaletteMonoGreen: {
		{0, 32, 0}, {0, 85, 0}, {0, 170, 0}, {0, 255, 0},
	},
}

// PresetColors returns a copy of a fixed preset. None, Custom and unknown
// presets have no colours.
func PresetColors(preset core.PalettePreset) []core.RGB {
	return slices.Clone(presets[preset])
}

// PaletteFor resolves the colours used for preset.
func PaletteFor(preset core.PalettePreset, custom []core.RGB) []core.RGB {
	if preset == core.PaletteCustom {
		return slices.Clone(custom)
	}
	return PresetColors(preset)
}

// MapPalette replaces every pixel by its nearest colour in the preset. The
// none preset and an empty custom palette are no-ops.
func MapPalette(img *core.PixelBuffer, preset core.PalettePreset, custom []core.RGB) {
	if img == nil || img.Validate() != nil || preset == core.PaletteNone {
		return
	}
	pal := PaletteFor(preset, custom)
	if len(pal) == 0 {
		return
	}
	mapToPalette(img, pal)
}
