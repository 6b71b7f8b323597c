package io

import (
	"fmt"

	"gocv.io/x/gocv"
)

// CVCodec is an algorithms.JPEGCodec backed by OpenCV's imgcodecs.
type CVCodec struct{}

// Encode implements algorithms.JPEGCodec.
func (CVCodec) Encode(rgb []uint8, width, height, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 || len(rgb) < width*height*3 {
		return nil, fmt.Errorf("invalid rgb input: %dx%d with %d samples", width, height, len(rgb))
	}
	src, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, rgb[:width*height*3])
	if err != nil {
		return nil, fmt.Errorf("failed to wrap rgb samples: %w", err)
	}
	defer src.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	if err := gocv.CvtColor(src, &bgr, gocv.ColorRGBToBGR); err != nil {
		return nil, fmt.Errorf("failed to convert to bgr: %w", err)
	}

	nb, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, bgr, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	defer nb.Close()

	out := make([]byte, nb.Len())
	copy(out, nb.GetBytes())
	return out, nil
}

// Decode implements algorithms.JPEGCodec.
func (CVCodec) Decode(data []byte) ([]uint8, int, int, error) {
	bgr, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("jpeg decode failed: %w", err)
	}
	defer bgr.Close()
	if bgr.Empty() {
		return nil, 0, 0, fmt.Errorf("jpeg decode failed: empty image")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(bgr, &rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to convert to rgb: %w", err)
	}
	return rgb.ToBytes(), rgb.Cols(), rgb.Rows(), nil
}
