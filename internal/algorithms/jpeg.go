// Repeated JPEG encode/decode to accumulate compression artifacts
package algorithms

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"shakalnost/internal/core"
)

// JPEGCodec encodes and decodes tightly packed 8-bit RGB images.
type JPEGCodec interface {
	Encode(rgb []uint8, width, height, quality int) ([]byte, error)
	Decode(data []byte) (rgb []uint8, width, height int, err error)
}

// StdJPEG is a JPEGCodec backed by image/jpeg.
type StdJPEG struct{}

// Encode implements JPEGCodec.
func (StdJPEG) Encode(rgb []uint8, width, height, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 || len(rgb) < width*height*3 {
		return nil, fmt.Errorf("invalid rgb input: %dx%d with %d samples", width, height, len(rgb))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, p := 0, 0; i < width*height; i, p = i+1, p+4 {
		img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = rgb[i*3], rgb[i*3+1], rgb[i*3+2], 0xFF
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode implements JPEGCodec.
func (StdJPEG) Decode(data []byte) ([]uint8, int, int, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("jpeg decode failed: %w", err)
	}
	buf := core.FromImage(img)
	return buf.PackRGB(), buf.Width, buf.Height, nil
}

// JPEGCompress runs iterations encode/decode rounds at quality. Quality
// outside (0, 100) is a no-op. A codec failure stops the remaining rounds
// and is returned; img then holds the result of the last good round.
func JPEGCompress(img *core.PixelBuffer, quality, iterations int, codec JPEGCodec) error {
	if img == nil || img.Validate() != nil || quality <= 0 || quality >= 100 {
		return nil
	}
	if codec == nil {
		codec = StdJPEG{}
	}

	for iter := 0; iter < iterations; iter++ {
		data, err := codec.Encode(img.PackRGB(), img.Width, img.Height, quality)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", iter+1, err)
		}
		rgb, w, h, err := codec.Decode(data)
		if err != nil {
			return fmt.Errorf("iteration %d: %w", iter+1, err)
		}
		if w != img.Width || h != img.Height {
			return fmt.Errorf("iteration %d: decoded %dx%d, want %dx%d", iter+1, w, h, img.Width, img.Height)
		}
		img.UnpackRGB(rgb)
	}
	return nil
}
