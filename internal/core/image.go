// Core pixel buffer value type shared by every stage
package core

import (
	"errors"
	"fmt"
)

// ErrInvalidBuffer is returned by Validate for buffers no stage can process.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// maxDimension guards against absurd allocations from corrupt decoders.
const maxDimension = 65536

// RGB is a single palette entry.
type RGB [3]uint8

// PixelBuffer is a decoded image: row-major, top-to-bottom, channel-interleaved
// RGB or RGBA samples.
type PixelBuffer struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
}

// NewPixelBuffer allocates a zeroed buffer of the given geometry.
func NewPixelBuffer(width, height, channels int) PixelBuffer {
	if width <= 0 || height <= 0 || channels <= 0 {
		return PixelBuffer{}
	}
	return PixelBuffer{
		Pix:      make([]uint8, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// Valid reports whether the buffer has positive dimensions and samples.
func (b PixelBuffer) Valid() bool {
	return b.Width > 0 && b.Height > 0 && len(b.Pix) > 0
}

// Validate checks the full buffer invariant and describes what is wrong.
func (b PixelBuffer) Validate() error {
	if !b.Valid() {
		return fmt.Errorf("%w: %dx%d with %d samples", ErrInvalidBuffer, b.Width, b.Height, len(b.Pix))
	}
	if b.Channels != 3 && b.Channels != 4 {
		return fmt.Errorf("%w: unsupported number of channels: %d", ErrInvalidBuffer, b.Channels)
	}
	if b.Width > maxDimension || b.Height > maxDimension {
		return fmt.Errorf("%w: image too large: %dx%d (max: %d)", ErrInvalidBuffer, b.Width, b.Height, maxDimension)
	}
	if want := b.Width * b.Height * b.Channels; len(b.Pix) != want {
		return fmt.Errorf("%w: %d samples, want %d", ErrInvalidBuffer, len(b.Pix), want)
	}
	return nil
}

// Clone returns a deep copy that shares no memory with b.
func (b PixelBuffer) Clone() PixelBuffer {
	out := b
	if b.Pix != nil {
		out.Pix = make([]uint8, len(b.Pix))
		copy(out.Pix, b.Pix)
	}
	return out
}

// Equal reports whether both buffers have the same geometry and samples.
func (b PixelBuffer) Equal(other PixelBuffer) bool {
	if b.Width != other.Width || b.Height != other.Height || b.Channels != other.Channels {
		return false
	}
	if len(b.Pix) != len(other.Pix) {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Offset returns the index of the first sample of pixel (x, y).
func (b PixelBuffer) Offset(x, y int) int {
	return (y*b.Width + x) * b.Channels
}

// At returns the RGB triple of pixel (x, y).
func (b PixelBuffer) At(x, y int) RGB {
	i := b.Offset(x, y)
	return RGB{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}
}

// Set writes the RGB triple of pixel (x, y), leaving alpha untouched.
func (b PixelBuffer) Set(x, y int, c RGB) {
	i := b.Offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = c[0], c[1], c[2]
}

// Row returns the samples of row y.
func (b PixelBuffer) Row(y int) []uint8 {
	stride := b.Width * b.Channels
	return b.Pix[y*stride : (y+1)*stride]
}

// DistinctColors counts the distinct RGB triples in the buffer.
func (b PixelBuffer) DistinctColors() int {
	if !b.Valid() {
		return 0
	}
	seen := make(map[RGB]struct{})
	for i := 0; i+2 < len(b.Pix); i += b.Channels {
		seen[RGB{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}] = struct{}{}
	}
	return len(seen)
}

// ClampByte rounds v to the nearest integer and clamps it into [0, 255].
func ClampByte(v float64) uint8 {
	r := int(v + 0.5)
	if v < 0 {
		r = int(v - 0.5)
	}
	return ClampInt(r)
}

// ClampInt clamps v into [0, 255].
func ClampInt(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ClampCoord clamps v into [0, n-1].
func ClampCoord(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
