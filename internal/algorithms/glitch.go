// Horizontal band displacement glitches
package algorithms

import (
	"shakalnost/internal/core"
)

// GlitchBand is one horizontal slice moved sideways by Shift pixels.
type GlitchBand struct {
	Y      int
	Height int
	Shift  int
}

// GlitchBands draws the bands Glitch would apply. Bands with a zero shift
// are included.
func GlitchBands(height, bands, amplitude, seed int) []GlitchBand {
	if height <= 0 || bands <= 0 || amplitude <= 0 {
		return nil
	}
	rng := newRand(seed, 0)
	maxH := max(1, height/10)

	out := make([]GlitchBand, bands)
	for b := range out {
		out[b] = GlitchBand{
			Y:      rng.IntN(height),
			Height: 1 + rng.IntN(maxH),
			Shift:  rng.IntN(2*amplitude+1) - amplitude,
		}
	}
	return out
}

// Glitch copies random row bands from the original image shifted
// horizontally by up to amplitude pixels. Edge pixels clamp.
func Glitch(img *core.PixelBuffer, bands, amplitude, seed int) {
	if img == nil || img.Validate() != nil {
		return
	}
	plan := GlitchBands(img.Height, bands, amplitude, seed)
	if len(plan) == 0 {
		return
	}

	orig := img.Clone()
	w, ch := img.Width, img.Channels
	for _, band := range plan {
		if band.Shift == 0 {
			continue
		}
		for y := band.Y; y < min(band.Y+band.Height, img.Height); y++ {
			dst := img.Row(y)
			src := orig.Row(y)
			for x := 0; x < w; x++ {
				sx := core.ClampCoord(x-band.Shift, w)
				copy(dst[x*ch:(x+1)*ch], src[sx*ch:(sx+1)*ch])
			}
		}
	}
}
