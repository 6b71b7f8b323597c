package io

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"shakalnost/internal/algorithms"
	"shakalnost/internal/core"
)

// CVFilters is an algorithms.Filters backed by OpenCV's imgproc. Channel
// order does not matter to either operation, so buffers are wrapped as is.
type CVFilters struct{}

// GaussianBlur implements algorithms.Filters with the same kernel size and
// sigma as the built-in blur and replicated borders.
func (CVFilters) GaussianBlur(img core.PixelBuffer, radius float64) (core.PixelBuffer, error) {
	src, err := wrap(img)
	if err != nil {
		return core.PixelBuffer{}, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	k := 2*algorithms.BlurKernelRadius(radius) + 1
	if err := gocv.GaussianBlur(src, &dst, image.Pt(k, k), radius, radius, gocv.BorderReplicate); err != nil {
		return core.PixelBuffer{}, fmt.Errorf("gaussian blur failed: %w", err)
	}
	return unwrap(dst, img.Channels)
}

// Upscale implements algorithms.Filters.
func (CVFilters) Upscale(img core.PixelBuffer, width, height int, nearest bool) (core.PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return core.PixelBuffer{}, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	src, err := wrap(img)
	if err != nil {
		return core.PixelBuffer{}, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	interp := gocv.InterpolationLinear
	if nearest {
		interp = gocv.InterpolationNearestNeighbor
	}
	if err := gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, interp); err != nil {
		return core.PixelBuffer{}, fmt.Errorf("resize failed: %w", err)
	}
	return unwrap(dst, img.Channels)
}

func wrap(img core.PixelBuffer) (gocv.Mat, error) {
	if err := img.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	typ := gocv.MatTypeCV8UC3
	if img.Channels == 4 {
		typ = gocv.MatTypeCV8UC4
	}
	m, err := gocv.NewMatFromBytes(img.Height, img.Width, typ, img.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to wrap pixel buffer: %w", err)
	}
	return m, nil
}

func unwrap(m gocv.Mat, channels int) (core.PixelBuffer, error) {
	if m.Empty() || m.Channels() != channels {
		return core.PixelBuffer{}, fmt.Errorf("unexpected result matrix with %d channels", m.Channels())
	}
	out := core.PixelBuffer{
		Pix:      m.ToBytes(),
		Width:    m.Cols(),
		Height:   m.Rows(),
		Channels: channels,
	}
	return out, out.Validate()
}
