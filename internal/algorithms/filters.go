package algorithms

import (
	"fmt"
	"math"

	"shakalnost/internal/core"
)

// Filters supplies the blur and upscale primitives the sharpen and
// resolution stages are built on. Implementations return new buffers and
// never modify their input.
type Filters interface {
	GaussianBlur(img core.PixelBuffer, radius float64) (core.PixelBuffer, error)
	Upscale(img core.PixelBuffer, width, height int, nearest bool) (core.PixelBuffer, error)
}

// StdFilters is the pure Go Filters implementation.
type StdFilters struct{}

// GaussianBlur implements Filters.
func (StdFilters) GaussianBlur(img core.PixelBuffer, radius float64) (core.PixelBuffer, error) {
	return GaussianBlur(img, radius), nil
}

// Upscale implements Filters.
func (StdFilters) Upscale(img core.PixelBuffer, width, height int, nearest bool) (core.PixelBuffer, error) {
	if err := img.Validate(); err != nil {
		return core.PixelBuffer{}, err
	}
	if nearest {
		return upscaleNearest(img, width, height), nil
	}
	return upscaleBilinear(img, width, height), nil
}

// BlurKernelRadius is the half-width in samples of the Gaussian kernel used
// for radius. The full kernel spans 2*BlurKernelRadius(radius)+1 samples
// and sigma equals radius.
func BlurKernelRadius(radius float64) int {
	return max(1, int(math.Ceil(radius*2)))
}

func checkGeometry(got, want core.PixelBuffer) error {
	if got.Width != want.Width || got.Height != want.Height || got.Channels != want.Channels {
		return fmt.Errorf("filter returned %dx%dx%d, want %dx%dx%d",
			got.Width, got.Height, got.Channels, want.Width, want.Height, want.Channels)
	}
	return got.Validate()
}
