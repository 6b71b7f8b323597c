package algorithms

import (
	"shakalnost/internal/core"
)

// RGBShift offsets red by +amount and blue by -amount along the enabled axes.
func RGBShift(img *core.PixelBuffer, amount int, shiftX, shiftY bool) {
	if amount <= 0 {
		return
	}
	var dx, dy int
	if shiftX {
		dx = amount
	}
	if shiftY {
		dy = amount
	}
	ShiftChannels(img, dx, dy)
}

// ShiftChannels reads red from (x+dx, y+dy) and blue from (x-dx, y-dy) of
// the unshifted image. Green and alpha stay in place; coordinates clamp to
// the image edges.
func ShiftChannels(img *core.PixelBuffer, dx, dy int) {
	if img == nil || img.Validate() != nil || (dx == 0 && dy == 0) {
		return
	}
	orig := img.Clone()
	w, h := img.Width, img.Height

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			ry := core.ClampCoord(y+dy, h)
			by := core.ClampCoord(y-dy, h)
			for x := 0; x < w; x++ {
				d := img.Offset(x, y)
				img.Pix[d] = orig.Pix[orig.Offset(core.ClampCoord(x+dx, w), ry)]
				img.Pix[d+2] = orig.Pix[orig.Offset(core.ClampCoord(x-dx, w), by)+2]
			}
		}
	})
}
