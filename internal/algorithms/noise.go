// Seeded noise generators
package algorithms

import (
	"math/rand/v2"

	"shakalnost/internal/core"
)

func newRand(seed int, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// Noise adds seeded noise of the given kind. Intensity 0 is a no-op.
func Noise(img *core.PixelBuffer, intensity int, kind core.NoiseType, perChannel bool, seed int) {
	if img == nil || img.Validate() != nil || intensity <= 0 {
		return
	}
	strength := float64(intensity) / 100

	switch kind {
	case core.NoiseSaltPepper:
		saltPepper(img, strength, seed)
	case core.NoiseBanding:
		banding(img, strength, seed)
	default:
		gaussian(img, strength, perChannel, seed)
	}
}

func gaussian(img *core.PixelBuffer, strength float64, perChannel bool, seed int) {
	rng := newRand(seed, 0)
	scale := strength * 128
	for i := 0; i < len(img.Pix); i += img.Channels {
		if perChannel {
			for c := 0; c < 3; c++ {
				img.Pix[i+c] = core.ClampInt(int(img.Pix[i+c]) + int(rng.NormFloat64()*scale))
			}
			continue
		}
		n := int(rng.NormFloat64() * scale)
		for c := 0; c < 3; c++ {
			img.Pix[i+c] = core.ClampInt(int(img.Pix[i+c]) + n)
		}
	}
}

func saltPepper(img *core.PixelBuffer, strength float64, seed int) {
	rng := newRand(seed, 0)
	prob := strength * 0.5
	for i := 0; i < len(img.Pix); i += img.Channels {
		if rng.Float64() >= prob {
			continue
		}
		var v uint8 = 255
		if rng.Float64() < 0.5 {
			v = 0
		}
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
	}
}

// BandHeight returns the row count of each banding-noise band.
func BandHeight(height int, strength float64) int {
	return max(1, height/max(1, int(10*strength)))
}

// BandSample is the unit normal sample for one band. It depends only on its
// arguments, so every row of a band receives the same offset.
func BandSample(band, seed int) float64 {
	return newRand(seed, uint64(band)+1).NormFloat64()
}

func banding(img *core.PixelBuffer, strength float64, seed int) {
	bandH := BandHeight(img.Height, strength)
	for y0 := 0; y0 < img.Height; y0 += bandH {
		offset := int(BandSample(y0/bandH, seed) * strength * 40)
		if offset == 0 {
			continue
		}
		for y := y0; y < min(y0+bandH, img.Height); y++ {
			row := img.Row(y)
			for i := 0; i < len(row); i += img.Channels {
				for c := 0; c < 3; c++ {
					row[i+c] = core.ClampInt(int(row[i+c]) + offset)
				}
			}
		}
	}
}
