package core

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPixelBufferValidity(t *testing.T) {
	assert.False(t, PixelBuffer{}.Valid())
	assert.False(t, PixelBuffer{Width: 2, Height: 0, Channels: 4, Pix: []uint8{1}}.Valid())

	b := NewPixelBuffer(2, 3, 4)
	assert.True(t, b.Valid())
	assert.Len(t, b.Pix, 24)
	require.NoError(t, b.Validate())

	short := b
	short.Pix = short.Pix[:10]
	assert.ErrorIs(t, short.Validate(), ErrInvalidBuffer)

	odd := NewPixelBuffer(2, 2, 2)
	assert.ErrorIs(t, odd.Validate(), ErrInvalidBuffer)

	assert.ErrorIs(t, PixelBuffer{}.Validate(), ErrInvalidBuffer)
}

func TestCloneIsDeep(t *testing.T) {
	b := NewPixelBuffer(2, 2, 3)
	c := b.Clone()
	c.Pix[0] = 99

	assert.Equal(t, uint8(0), b.Pix[0])
	assert.False(t, b.Equal(c))
	c.Pix[0] = 0
	assert.True(t, b.Equal(c))
}

func TestAtSetPreservesAlpha(t *testing.T) {
	b := NewPixelBuffer(2, 2, 4)
	b.Pix[b.Offset(1, 1)+3] = 77
	b.Set(1, 1, RGB{1, 2, 3})

	assert.Equal(t, RGB{1, 2, 3}, b.At(1, 1))
	assert.Equal(t, uint8(77), b.Pix[b.Offset(1, 1)+3])
	assert.Equal(t, 2, b.DistinctColors())
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, uint8(0), ClampByte(-3.7))
	assert.Equal(t, uint8(255), ClampByte(300))
	assert.Equal(t, uint8(13), ClampByte(12.5))
	assert.Equal(t, uint8(12), ClampByte(12.49))
	assert.Equal(t, uint8(0), ClampInt(-1))
	assert.Equal(t, 0, ClampCoord(-4, 10))
	assert.Equal(t, 9, ClampCoord(12, 10))
}

func TestImageConversion(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	b := FromImage(src)
	require.NoError(t, b.Validate())
	assert.Equal(t, 4, b.Channels)
	assert.Equal(t, RGB{200, 100, 50}, b.At(1, 0))

	back := b.ToNRGBA()
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, back.NRGBAAt(1, 0))
	assert.True(t, FromImage(back).Equal(b))
}

func TestPackUnpackRGB(t *testing.T) {
	b := NewPixelBuffer(2, 1, 4)
	copy(b.Pix, []uint8{1, 2, 3, 9, 4, 5, 6, 8})

	rgb := b.PackRGB()
	assert.Equal(t, []uint8{1, 2, 3, 4, 5, 6}, rgb)

	b.UnpackRGB([]uint8{10, 20, 30, 40, 50, 60})
	assert.Equal(t, []uint8{10, 20, 30, 9, 40, 50, 60, 8}, b.Pix)
}
