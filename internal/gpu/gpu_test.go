package gpu

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakalnost/internal/algorithms"
	"shakalnost/internal/core"
)

func randomImage(w, h, channels int, seed uint64) core.PixelBuffer {
	rng := rand.New(rand.NewPCG(seed, 5))
	img := core.NewPixelBuffer(w, h, channels)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}

type brokenAccelerator struct {
	Unavailable
	released []Texture
}

func (b *brokenAccelerator) UploadTexture(core.PixelBuffer) (Texture, error) { return 7, nil }

func (b *brokenAccelerator) RunDisplacement(Texture, int, int) (Texture, error) {
	return 0, errors.New("shader compile failed")
}

func (b *brokenAccelerator) Release(tex Texture) error {
	b.released = append(b.released, tex)
	return nil
}

func TestFlipRows(t *testing.T) {
	pix := []uint8{1, 2, 3, 4, 5, 6}
	FlipRows(pix, 2)
	assert.Equal(t, []uint8{5, 6, 3, 4, 1, 2}, pix)

	FlipRows(pix, 0)
	assert.Equal(t, []uint8{5, 6, 3, 4, 1, 2}, pix)
}

func TestEmulatorReadbackIsBottomUp(t *testing.T) {
	e := NewEmulator()
	img := randomImage(6, 5, 4, 1)

	tex, err := e.UploadTexture(img)
	require.NoError(t, err)
	out, err := e.RunDisplacement(tex, 0, 42)
	require.NoError(t, err)

	buf := make([]uint8, len(img.Pix))
	require.NoError(t, e.Readback(out, buf))
	assert.Equal(t, img.Row(4), buf[:img.Width*4], "first row read back is the bottom row")

	FlipRows(buf, img.Width*4)
	assert.Equal(t, img.Pix, buf)

	require.NoError(t, e.Release(tex))
	require.NoError(t, e.Release(out))
	assert.Equal(t, 0, e.Live())
}

func TestEmulatorErrors(t *testing.T) {
	e := NewEmulator()

	_, err := e.UploadTexture(core.PixelBuffer{})
	assert.ErrorIs(t, err, core.ErrInvalidBuffer)

	_, err = e.RunDisplacement(99, 10, 1)
	assert.ErrorIs(t, err, ErrUnknownTexture)
	assert.ErrorIs(t, e.Release(99), ErrUnknownTexture)

	tex, err := e.UploadTexture(randomImage(4, 4, 3, 2))
	require.NoError(t, err)
	assert.Error(t, e.Readback(tex, make([]uint8, 3)))
	require.NoError(t, e.Release(tex))
	assert.ErrorIs(t, e.Readback(tex, make([]uint8, 48)), ErrUnknownTexture)
}

func TestShaderNoiseBounded(t *testing.T) {
	for i := 0; i < 500; i++ {
		n := shaderNoise(float64(i)*0.173, float64(i)*0.291, 42)
		assert.GreaterOrEqual(t, n, -1.0)
		assert.LessOrEqual(t, n, 1.0)
	}
	assert.InDelta(t, 0, shaderNoise(3, 5, 42), 1e-12, "gradient noise vanishes on lattice points")
}

func TestDisplacerUsesAccelerator(t *testing.T) {
	e := NewEmulator()
	d := NewDisplacer(e, nil)

	src := randomImage(32, 24, 4, 3)
	img := src.Clone()
	d.Displace(&img, 100, 42)

	require.NoError(t, img.Validate())
	assert.False(t, src.Equal(img))
	assert.Equal(t, int64(0), d.Fallbacks())
	assert.Equal(t, 0, e.Live(), "textures are released")

	type px [4]uint8
	in := make(map[px]struct{})
	for i := 0; i < len(src.Pix); i += 4 {
		in[px(src.Pix[i:i+4])] = struct{}{}
	}
	for i := 0; i < len(img.Pix); i += 4 {
		assert.Contains(t, in, px(img.Pix[i:i+4]))
	}
}

func TestDisplacerFallsBackToCPU(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	accel := &brokenAccelerator{}
	d := NewDisplacer(accel, logger)

	src := randomImage(16, 16, 3, 4)
	want := src.Clone()
	algorithms.Displace(&want, 50, 9)

	img := src.Clone()
	d.Displace(&img, 50, 9)
	assert.True(t, want.Equal(img))
	assert.Equal(t, int64(1), d.Fallbacks())
	assert.Equal(t, []Texture{7}, accel.released)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestDisplacerUnavailable(t *testing.T) {
	d := NewDisplacer(Unavailable{}, nil)
	src := randomImage(8, 8, 4, 5)
	want := src.Clone()
	algorithms.Displace(&want, 30, 1)

	img := src.Clone()
	d.Displace(&img, 30, 1)
	assert.True(t, want.Equal(img))
	assert.Equal(t, int64(1), d.Fallbacks())
}

func TestDisplacerWithoutAccelerator(t *testing.T) {
	d := NewDisplacer(nil, nil)
	src := randomImage(8, 8, 4, 6)
	want := src.Clone()
	algorithms.Displace(&want, 30, 1)

	img := src.Clone()
	d.Displace(&img, 30, 1)
	assert.True(t, want.Equal(img))
	assert.Equal(t, int64(0), d.Fallbacks())

	img = src.Clone()
	d.Displace(&img, 0, 1)
	assert.True(t, src.Equal(img))
}

func TestDisplacerSkipsDisabledAndMalformed(t *testing.T) {
	e := NewEmulator()
	d := NewDisplacer(e, nil)

	src := randomImage(8, 8, 4, 7)
	img := src.Clone()
	d.Displace(&img, 0, 1)
	d.Displace(&img, -5, 1)
	assert.True(t, src.Equal(img))

	short := core.PixelBuffer{Pix: make([]uint8, 4), Width: 2, Height: 2, Channels: 4}
	assert.NotPanics(t, func() { d.Displace(&short, 50, 1) })
	assert.Equal(t, make([]uint8, 4), short.Pix)
	assert.Equal(t, int64(0), d.Fallbacks())
	assert.Equal(t, 0, e.Live())
}
