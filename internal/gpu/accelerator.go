// Optional accelerated displacement backend
package gpu

import (
	"errors"

	"shakalnost/internal/core"
)

var (
	// ErrUnavailable is returned by accelerators that cannot run on this host.
	ErrUnavailable = errors.New("gpu acceleration unavailable")
	// ErrUnknownTexture is returned for handles that were never uploaded or
	// were already released.
	ErrUnknownTexture = errors.New("unknown texture")
)

// Texture is an opaque handle owned by an Accelerator.
type Texture uint32

// Accelerator is the capability a displacement backend exposes. Readback
// writes rows bottom-to-top, the order renderers produce them in.
type Accelerator interface {
	UploadTexture(img core.PixelBuffer) (Texture, error)
	RunDisplacement(src Texture, amount, seed int) (Texture, error)
	Readback(tex Texture, dst []uint8) error
	Release(tex Texture) error
}

// Unavailable is an Accelerator for hosts without a usable backend.
type Unavailable struct{}

func (Unavailable) UploadTexture(core.PixelBuffer) (Texture, error)  { return 0, ErrUnavailable }
func (Unavailable) RunDisplacement(Texture, int, int) (Texture, error) { return 0, ErrUnavailable }
func (Unavailable) Readback(Texture, []uint8) error                    { return ErrUnavailable }
func (Unavailable) Release(Texture) error                              { return ErrUnavailable }

// FlipRows reverses the row order of a tightly packed buffer in place.
func FlipRows(pix []uint8, stride int) {
	if stride <= 0 {
		return
	}
	rows := len(pix) / stride
	tmp := make([]uint8, stride)
	for y := 0; y < rows/2; y++ {
		top := pix[y*stride : (y+1)*stride]
		bot := pix[(rows-1-y)*stride : (rows-y)*stride]
		copy(tmp, top)
		copy(top, bot)
		copy(bot, tmp)
	}
}
