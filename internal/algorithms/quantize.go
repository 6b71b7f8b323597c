// Median-cut colour quantization with ordered and error-diffusion dithering
package algorithms

import (
	"slices"

	"shakalnost/internal/core"
)

// bayer4 is the 4x4 ordered dither matrix normalised to [0, 1).
var bayer4 = [4][4]float64{
	{0.0 / 16, 8.0 / 16, 2.0 / 16, 10.0 / 16},
	{12.0 / 16, 4.0 / 16, 14.0 / 16, 6.0 / 16},
	{3.0 / 16, 11.0 / 16, 1.0 / 16, 9.0 / 16},
	{15.0 / 16, 7.0 / 16, 13.0 / 16, 5.0 / 16},
}

// QuantizeTarget returns the palette size for a quantization level.
func QuantizeTarget(level int) int {
	return max(2, 256-level*254/100)
}

// MedianCut builds a palette of at most n colours from the given samples.
// Duplicate samples weight their colour.
func MedianCut(colors []core.RGB, n int) []core.RGB {
	if len(colors) == 0 {
		return nil
	}
	n = max(n, 1)

	boxes := [][]core.RGB{slices.Clone(colors)}
	for len(boxes) < n {
		// Split the box with the most members
		best, bestSize := 0, 0
		for i, box := range boxes {
			if len(box) > bestSize {
				best, bestSize = i, len(box)
			}
		}
		if bestSize <= 1 {
			break
		}

		box := boxes[best]
		axis := longestAxis(box)
		slices.SortStableFunc(box, func(a, b core.RGB) int {
			return int(a[axis]) - int(b[axis])
		})
		mid := len(box) / 2
		boxes[best] = box[:mid:mid]
		boxes = append(boxes, box[mid:])
	}

	palette := make([]core.RGB, len(boxes))
	for i, box := range boxes {
		palette[i] = boxAverage(box)
	}
	return palette
}

// longestAxis picks the channel with the widest range. Ties prefer R, then G.
func longestAxis(box []core.RGB) int {
	lo := core.RGB{255, 255, 255}
	hi := core.RGB{}
	for _, c := range box {
		for ch := 0; ch < 3; ch++ {
			lo[ch] = min(lo[ch], c[ch])
			hi[ch] = max(hi[ch], c[ch])
		}
	}
	dr := int(hi[0]) - int(lo[0])
	dg := int(hi[1]) - int(lo[1])
	db := int(hi[2]) - int(lo[2])
	switch {
	case dr >= dg && dr >= db:
		return 0
	case dg >= db:
		return 1
	default:
		return 2
	}
}

func boxAverage(box []core.RGB) core.RGB {
	var sum [3]int
	for _, c := range box {
		sum[0] += int(c[0])
		sum[1] += int(c[1])
		sum[2] += int(c[2])
	}
	n := len(box)
	return core.RGB{uint8(sum[0] / n), uint8(sum[1] / n), uint8(sum[2] / n)}
}

// NearestColor returns the palette entry with the smallest squared RGB
// distance to c. The first entry wins ties.
func NearestColor(c core.RGB, palette []core.RGB) core.RGB {
	best := palette[0]
	bestDist := -1
	for _, p := range palette {
		dr := int(c[0]) - int(p[0])
		dg := int(c[1]) - int(p[1])
		db := int(c[2]) - int(p[2])
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = p, d
			if d == 0 {
				break
			}
		}
	}
	return best
}

// Quantize reduces the buffer to at most QuantizeTarget(level) colours.
// Level 0 leaves the buffer untouched.
func Quantize(img *core.PixelBuffer, level int, dither core.DitherMode) {
	if img == nil || img.Validate() != nil || level <= 0 {
		return
	}

	samples := make([]core.RGB, 0, img.Width*img.Height)
	for i := 0; i+2 < len(img.Pix); i += img.Channels {
		samples = append(samples, core.RGB{img.Pix[i], img.Pix[i+1], img.Pix[i+2]})
	}
	target := QuantizeTarget(level)
	palette := MedianCut(samples, target)
	if len(palette) == 0 {
		return
	}

	switch dither {
	case core.DitherOrdered:
		ditherOrdered(img, palette, target)
	case core.DitherFloydSteinberg:
		ditherFloydSteinberg(img, palette)
	default:
		mapToPalette(img, palette)
	}
}

// mapToPalette replaces every pixel by its nearest palette entry.
func mapToPalette(img *core.PixelBuffer, palette []core.RGB) {
	parallelRows(img.Height, func(y0, y1 int) {
		cache := make(map[core.RGB]core.RGB)
		for y := y0; y < y1; y++ {
			for x := 0; x < img.Width; x++ {
				c := img.At(x, y)
				mapped, ok := cache[c]
				if !ok {
					mapped = NearestColor(c, palette)
					cache[c] = mapped
				}
				img.Set(x, y, mapped)
			}
		}
	})
}

// orderedThreshold is the Bayer offset added to every channel at (x, y).
// The spread is scaled by the requested colour count, not by the size of
// the palette median cut produced.
func orderedThreshold(x, y, numColors int) float64 {
	spread := 255.0 / float64(max(numColors, 1))
	return (bayer4[y%4][x%4] - 0.5) * spread
}

func ditherOrdered(img *core.PixelBuffer, palette []core.RGB, numColors int) {
	parallelRows(img.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < img.Width; x++ {
				threshold := orderedThreshold(x, y, numColors)
				c := img.At(x, y)
				for ch := 0; ch < 3; ch++ {
					c[ch] = core.ClampByte(float64(c[ch]) + threshold)
				}
				img.Set(x, y, NearestColor(c, palette))
			}
		}
	})
}

// ditherFloydSteinberg diffuses quantization error in raster order, so it
// runs on a single goroutine.
func ditherFloydSteinberg(img *core.PixelBuffer, palette []core.RGB) {
	w, h := img.Width, img.Height
	errs := make([]float64, w*h*3)

	spread := func(x, y int, e [3]float64, weight float64) {
		if x < 0 || x >= w || y >= h {
			return
		}
		i := (y*w + x) * 3
		errs[i] += e[0] * weight
		errs[i+1] += e[1] * weight
		errs[i+2] += e[2] * weight
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := img.At(x, y)
			ei := (y*w + x) * 3
			var want [3]float64
			var c core.RGB
			for ch := 0; ch < 3; ch++ {
				want[ch] = min(max(float64(src[ch])+errs[ei+ch], 0), 255)
				c[ch] = core.ClampByte(want[ch])
			}

			q := NearestColor(c, palette)
			img.Set(x, y, q)

			var e [3]float64
			for ch := 0; ch < 3; ch++ {
				e[ch] = want[ch] - float64(q[ch])
			}
			spread(x+1, y, e, 7.0/16)
			spread(x-1, y+1, e, 3.0/16)
			spread(x, y+1, e, 5.0/16)
			spread(x+1, y+1, e, 1.0/16)
		}
	}
}
