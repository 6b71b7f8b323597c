package core

import (
	"image"
	"image/color"
)

// FromImage copies any image.Image into an RGBA PixelBuffer.
func FromImage(img image.Image) PixelBuffer {
	if img == nil {
		return PixelBuffer{}
	}
	bounds := img.Bounds()
	out := NewPixelBuffer(bounds.Dx(), bounds.Dy(), 4)
	if !out.Valid() {
		return out
	}

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < out.Height; y++ {
			start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(out.Row(y), src.Pix[start:start+out.Width*4])
		}
		return out
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := out.Offset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return out
}

// ToNRGBA converts the buffer into a standard library image. RGB buffers
// become fully opaque.
func (b PixelBuffer) ToNRGBA() *image.NRGBA {
	if !b.Valid() {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for p, i := 0, 0; i+2 < len(b.Pix); p, i = p+4, i+b.Channels {
		img.Pix[p], img.Pix[p+1], img.Pix[p+2] = b.Pix[i], b.Pix[i+1], b.Pix[i+2]
		if b.Channels == 4 {
			img.Pix[p+3] = b.Pix[i+3]
		} else {
			img.Pix[p+3] = 0xFF
		}
	}
	return img
}

// PackRGB extracts the RGB planes of the buffer into a tightly packed
// three-channel slice.
func (b PixelBuffer) PackRGB() []uint8 {
	n := b.Width * b.Height
	rgb := make([]uint8, n*3)
	for i := 0; i < n; i++ {
		copy(rgb[i*3:i*3+3], b.Pix[i*b.Channels:i*b.Channels+3])
	}
	return rgb
}

// UnpackRGB writes packed RGB samples back into the buffer, leaving alpha
// untouched. Extra or missing samples are ignored.
func (b PixelBuffer) UnpackRGB(rgb []uint8) {
	n := min(len(rgb)/3, b.Width*b.Height)
	for i := 0; i < n; i++ {
		copy(b.Pix[i*b.Channels:i*b.Channels+3], rgb[i*3:i*3+3])
	}
}
