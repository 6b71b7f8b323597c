// Concrete implementations of quality metrics
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"shakalnost/internal/core"
)

// PSNR implements Peak Signal-to-Noise Ratio metric
type PSNR struct{}

// NewPSNR creates a new PSNR metric
func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed core.PixelBuffer) (float64, error) {
	mse, err := NewMSE().Calculate(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}
	return 20 * math.Log10(255/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string              { return "PSNR" }
func (p *PSNR) GetDescription() string       { return "Peak Signal-to-Noise Ratio in dB" }
func (p *PSNR) GetRange() (float64, float64) { return 0, 100 }
func (p *PSNR) IsHigherBetter() bool         { return true }

// MSE implements Mean Squared Error over the RGB channels
type MSE struct{}

// NewMSE creates a new MSE metric
func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed core.PixelBuffer) (float64, error) {
	if err := compatible(original, processed); err != nil {
		return 0, err
	}

	sum := 0.0
	n := original.Width * original.Height
	for i := 0; i < n; i++ {
		a := original.Pix[i*original.Channels : i*original.Channels+3]
		b := processed.Pix[i*processed.Channels : i*processed.Channels+3]
		for c := 0; c < 3; c++ {
			d := float64(a[c]) - float64(b[c])
			sum += d * d
		}
	}
	return sum / float64(n*3), nil
}

func (m *MSE) GetName() string              { return "MSE" }
func (m *MSE) GetDescription() string       { return "Mean Squared Error" }
func (m *MSE) GetRange() (float64, float64) { return 0, 65025 }
func (m *MSE) IsHigherBetter() bool         { return false }

// SSIM implements the Structural Similarity Index on luminance, averaged
// over non-overlapping windows.
type SSIM struct {
	Window int
}

// NewSSIM creates a new SSIM metric with 8x8 windows
func NewSSIM() *SSIM {
	return &SSIM{Window: 8}
}

const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

func (s *SSIM) Calculate(original, processed core.PixelBuffer) (float64, error) {
	if err := compatible(original, processed); err != nil {
		return 0, err
	}
	win := max(s.Window, 2)
	w, h := original.Width, original.Height

	x := make([]float64, 0, win*win)
	y := make([]float64, 0, win*win)
	total, windows := 0.0, 0
	for by := 0; by < h; by += win {
		for bx := 0; bx < w; bx += win {
			x, y = x[:0], y[:0]
			for py := by; py < min(by+win, h); py++ {
				for px := bx; px < min(bx+win, w); px++ {
					x = append(x, luminance(original.At(px, py)))
					y = append(y, luminance(processed.At(px, py)))
				}
			}
			if len(x) < 2 {
				continue
			}
			total += ssimWindow(x, y)
			windows++
		}
	}

	if windows == 0 {
		if original.Equal(processed) {
			return 1, nil
		}
		return 0, nil
	}
	return total / float64(windows), nil
}

func ssimWindow(x, y []float64) float64 {
	mx, vx := stat.MeanVariance(x, nil)
	my, vy := stat.MeanVariance(y, nil)
	cov := stat.Covariance(x, y, nil)

	num := (2*mx*my + ssimC1) * (2*cov + ssimC2)
	den := (mx*mx + my*my + ssimC1) * (vx + vy + ssimC2)
	return num / den
}

func luminance(c core.RGB) float64 {
	return 0.299*float64(c[0]) + 0.587*float64(c[1]) + 0.114*float64(c[2])
}

func (s *SSIM) GetName() string              { return "SSIM" }
func (s *SSIM) GetDescription() string       { return "Structural Similarity Index" }
func (s *SSIM) GetRange() (float64, float64) { return 0, 1 }
func (s *SSIM) IsHigherBetter() bool         { return true }

// ColorRetention is the ratio of distinct processed colours to distinct
// original colours.
type ColorRetention struct{}

// NewColorRetention creates a new colour retention metric
func NewColorRetention() *ColorRetention {
	return &ColorRetention{}
}

func (c *ColorRetention) Calculate(original, processed core.PixelBuffer) (float64, error) {
	if err := compatible(original, processed); err != nil {
		return 0, err
	}
	return float64(processed.DistinctColors()) / float64(original.DistinctColors()), nil
}

func (c *ColorRetention) GetName() string              { return "Colour retention" }
func (c *ColorRetention) GetDescription() string       { return "Distinct colours kept relative to the source" }
func (c *ColorRetention) GetRange() (float64, float64) { return 0, 1 }
func (c *ColorRetention) IsHigherBetter() bool         { return true }
