// Resolution drop: box-filter downscale followed by an upscale back
package algorithms

import (
	"fmt"
	"math"

	"shakalnost/internal/core"
)

// Resolution shrinks img to pct percent of its size and scales it back up,
// so the output keeps the input dimensions. nearest selects blocky
// nearest-neighbour upscaling, otherwise bilinear is used. pct outside
// (0, 100) is a no-op.
func Resolution(img *core.PixelBuffer, pct int, nearest bool) {
	_ = ResolutionWith(img, pct, nearest, StdFilters{})
}

// ResolutionWith is Resolution with the upscale taken from f. When f fails
// img is left untouched and the error is returned.
func ResolutionWith(img *core.PixelBuffer, pct int, nearest bool, f Filters) error {
	if img == nil || img.Validate() != nil || pct >= 100 || pct <= 0 {
		return nil
	}
	if f == nil {
		f = StdFilters{}
	}
	newW := max(1, img.Width*pct/100)
	newH := max(1, img.Height*pct/100)

	small := BoxDownscale(*img, newW, newH)
	out, err := f.Upscale(small, img.Width, img.Height, nearest)
	if err != nil {
		return fmt.Errorf("upscale: %w", err)
	}
	if err := checkGeometry(out, *img); err != nil {
		return fmt.Errorf("upscale: %w", err)
	}
	*img = out
	return nil
}

// BoxDownscale averages every source pixel whose footprint overlaps each
// destination cell with equal weight. Partially covered pixels count in
// full, unlike area interpolation.
func BoxDownscale(src core.PixelBuffer, newW, newH int) core.PixelBuffer {
	dst := core.NewPixelBuffer(newW, newH, src.Channels)
	if src.Validate() != nil || !dst.Valid() {
		return dst
	}
	w, h, ch := src.Width, src.Height, src.Channels

	parallelRows(newH, func(y0, y1 int) {
		acc := make([]float64, ch)
		for y := y0; y < y1; y++ {
			sy0 := y * h / newH
			sy1 := min(int(math.Ceil(float64(y+1)*float64(h)/float64(newH))), h)
			for x := 0; x < newW; x++ {
				sx0 := x * w / newW
				sx1 := min(int(math.Ceil(float64(x+1)*float64(w)/float64(newW))), w)

				clear(acc)
				count := 0
				for sy := sy0; sy < sy1; sy++ {
					for sx := sx0; sx < sx1; sx++ {
						p := src.Offset(sx, sy)
						for c := 0; c < ch; c++ {
							acc[c] += float64(src.Pix[p+c])
						}
						count++
					}
				}
				if count == 0 {
					continue
				}
				d := dst.Offset(x, y)
				for c := 0; c < ch; c++ {
					dst.Pix[d+c] = core.ClampByte(acc[c] / float64(count))
				}
			}
		}
	})
	return dst
}

func upscaleNearest(small core.PixelBuffer, w, h int) core.PixelBuffer {
	dst := core.NewPixelBuffer(w, h, small.Channels)
	ch := small.Channels
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			sy := core.ClampCoord(y*small.Height/h, small.Height)
			for x := 0; x < w; x++ {
				sx := core.ClampCoord(x*small.Width/w, small.Width)
				p := small.Offset(sx, sy)
				d := dst.Offset(x, y)
				copy(dst.Pix[d:d+ch], small.Pix[p:p+ch])
			}
		}
	})
	return dst
}

func upscaleBilinear(small core.PixelBuffer, w, h int) core.PixelBuffer {
	dst := core.NewPixelBuffer(w, h, small.Channels)
	ch := small.Channels
	sw, sh := small.Width, small.Height
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			fy := (float64(y)+0.5)*float64(sh)/float64(h) - 0.5
			iy0 := int(math.Floor(fy))
			yf := fy - float64(iy0)
			iy1 := min(iy0+1, sh-1)
			iy0 = max(iy0, 0)

			for x := 0; x < w; x++ {
				fx := (float64(x)+0.5)*float64(sw)/float64(w) - 0.5
				ix0 := int(math.Floor(fx))
				xf := fx - float64(ix0)
				ix1 := min(ix0+1, sw-1)
				ix0 = max(ix0, 0)

				p00 := small.Offset(ix0, iy0)
				p10 := small.Offset(ix1, iy0)
				p01 := small.Offset(ix0, iy1)
				p11 := small.Offset(ix1, iy1)
				d := dst.Offset(x, y)
				for c := 0; c < ch; c++ {
					top := float64(small.Pix[p00+c])*(1-xf) + float64(small.Pix[p10+c])*xf
					bot := float64(small.Pix[p01+c])*(1-xf) + float64(small.Pix[p11+c])*xf
					dst.Pix[d+c] = core.ClampByte(top*(1-yf) + bot*yf)
				}
			}
		}
	})
	return dst
}
