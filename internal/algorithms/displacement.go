// Gradient-noise displacement warp
package algorithms

import (
	"math"

	"shakalnost/internal/core"
)

const (
	displacementScale  = 8.0
	displacementOffset = 100.0
)

func latticeHash(ix, iy, seed int) float64 {
	h := uint32(ix)*374761393 + uint32(iy)*668265263 + uint32(seed)*1274126177
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h&0xFFFF)/32768 - 1
}

// GradientNoise is smoothstep-interpolated value noise in [-1, 1].
func GradientNoise(x, y float64, seed int) float64 {
	ix := int(math.Floor(x))
	iy := int(math.Floor(y))
	fx := x - float64(ix)
	fy := y - float64(iy)
	sx := fx * fx * (3 - 2*fx)
	sy := fy * fy * (3 - 2*fy)

	n00 := latticeHash(ix, iy, seed)
	n10 := latticeHash(ix+1, iy, seed)
	n01 := latticeHash(ix, iy+1, seed)
	n11 := latticeHash(ix+1, iy+1, seed)

	nx0 := n00 + sx*(n10-n00)
	nx1 := n01 + sx*(n11-n01)
	return nx0 + sy*(nx1-nx0)
}

// Displace warps img by sampling the original at noise-driven offsets of
// up to amount/2 pixels. All channels move together.
func Displace(img *core.PixelBuffer, amount, seed int) {
	if img == nil || img.Validate() != nil || amount <= 0 {
		return
	}
	orig := img.Clone()
	w, h, ch := img.Width, img.Height, img.Channels
	strength := float64(amount) * 0.5

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			ny := float64(y) / float64(h) * displacementScale
			for x := 0; x < w; x++ {
				nx := float64(x) / float64(w) * displacementScale
				dx := GradientNoise(nx, ny, seed) * strength
				dy := GradientNoise(nx+displacementOffset, ny+displacementOffset, seed) * strength

				sx := core.ClampCoord(int(float64(x)+dx), w)
				sy := core.ClampCoord(int(float64(y)+dy), h)
				d := img.Offset(x, y)
				s := orig.Offset(sx, sy)
				copy(img.Pix[d:d+ch], orig.Pix[s:s+ch])
			}
		}
	})
}
