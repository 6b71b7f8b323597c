// Unsharp mask sharpening
package algorithms

import (
	"fmt"
	"math"

	"shakalnost/internal/core"
)

// gaussianKernel returns the normalised 1-D kernel for radius.
func gaussianKernel(radius float64) []float64 {
	r := BlurKernelRadius(radius)
	sigma := radius
	kernel := make([]float64, 2*r+1)
	sum := 0.0
	for i := -r; i <= r; i++ {
		kernel[i+r] = math.Exp(-float64(i*i) / (2 * sigma * sigma))
		sum += kernel[i+r]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur returns a blurred copy of img using a separable two-pass
// convolution. Edges clamp-extend.
func GaussianBlur(img core.PixelBuffer, radius float64) core.PixelBuffer {
	if img.Validate() != nil {
		return img.Clone()
	}
	kernel := gaussianKernel(radius)
	r := len(kernel) / 2
	w, h, ch := img.Width, img.Height, img.Channels

	// Horizontal pass
	tmp := core.NewPixelBuffer(w, h, ch)
	parallelRows(h, func(y0, y1 int) {
		acc := make([]float64, ch)
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				clear(acc)
				for k := -r; k <= r; k++ {
					p := img.Offset(core.ClampCoord(x+k, w), y)
					wt := kernel[k+r]
					for c := 0; c < ch; c++ {
						acc[c] += float64(img.Pix[p+c]) * wt
					}
				}
				d := tmp.Offset(x, y)
				for c := 0; c < ch; c++ {
					tmp.Pix[d+c] = core.ClampByte(acc[c])
				}
			}
		}
	})

	// Vertical pass
	dst := core.NewPixelBuffer(w, h, ch)
	parallelRows(h, func(y0, y1 int) {
		acc := make([]float64, ch)
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				clear(acc)
				for k := -r; k <= r; k++ {
					p := tmp.Offset(x, core.ClampCoord(y+k, h))
					wt := kernel[k+r]
					for c := 0; c < ch; c++ {
						acc[c] += float64(tmp.Pix[p+c]) * wt
					}
				}
				d := dst.Offset(x, y)
				for c := 0; c < ch; c++ {
					dst.Pix[d+c] = core.ClampByte(acc[c])
				}
			}
		}
	})
	return dst
}

// Sharpen applies an unsharp mask whose amount and blur radius both grow
// with level. Alpha is left as is.
func Sharpen(img *core.PixelBuffer, level int) {
	_ = SharpenWith(img, level, StdFilters{})
}

// SharpenWith is Sharpen with the blur taken from f. When f fails img is
// left untouched and the error is returned.
func SharpenWith(img *core.PixelBuffer, level int, f Filters) error {
	if img == nil || img.Validate() != nil || level <= 0 {
		return nil
	}
	if f == nil {
		f = StdFilters{}
	}
	amount := float64(level) * 5 / 100
	radius := 0.5 + float64(level)*4.5/100

	blurred, err := f.GaussianBlur(*img, radius)
	if err != nil {
		return fmt.Errorf("blur: %w", err)
	}
	if err := checkGeometry(blurred, *img); err != nil {
		return fmt.Errorf("blur: %w", err)
	}
	for i := 0; i < len(img.Pix); i += img.Channels {
		for c := 0; c < 3; c++ {
			v := float64(img.Pix[i+c])
			img.Pix[i+c] = core.ClampByte(v + amount*(v-float64(blurred.Pix[i+c])))
		}
	}
	return nil
}
