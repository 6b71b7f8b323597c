package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakalnost/internal/algorithms"
	"shakalnost/internal/core"
)

func gradient(w, h, channels int) core.PixelBuffer {
	img := core.NewPixelBuffer(w, h, channels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, core.RGB{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x + y) * 4)})
			if channels == 4 {
				img.Pix[img.Offset(x, y)+3] = uint8(200 + x%50)
			}
		}
	}
	return img
}

func maxDiff(t *testing.T, a, b core.PixelBuffer) int {
	t.Helper()
	require.Equal(t, a.Width, b.Width)
	require.Equal(t, a.Height, b.Height)
	require.Equal(t, a.Channels, b.Channels)
	worst := 0
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		worst = max(worst, d, -d)
	}
	return worst
}

func TestCVFiltersAgreeWithBuiltIn(t *testing.T) {
	for _, channels := range []int{3, 4} {
		src := gradient(40, 30, channels)

		for _, radius := range []float64{0.5, 1.4, 3} {
			want, err := algorithms.StdFilters{}.GaussianBlur(src, radius)
			require.NoError(t, err)
			got, err := CVFilters{}.GaussianBlur(src, radius)
			require.NoError(t, err)
			assert.LessOrEqual(t, maxDiff(t, want, got), 2, "blur radius=%.1f channels=%d", radius, channels)
		}

		small := algorithms.BoxDownscale(src, 20, 15)
		want, err := algorithms.StdFilters{}.Upscale(small, 40, 30, false)
		require.NoError(t, err)
		got, err := CVFilters{}.Upscale(small, 40, 30, false)
		require.NoError(t, err)
		assert.LessOrEqual(t, maxDiff(t, want, got), 2, "bilinear channels=%d", channels)

		want, err = algorithms.StdFilters{}.Upscale(small, 40, 30, true)
		require.NoError(t, err)
		got, err = CVFilters{}.Upscale(small, 40, 30, true)
		require.NoError(t, err)
		assert.Equal(t, 0, maxDiff(t, want, got), "nearest channels=%d", channels)
	}
}

func TestCVFiltersDriveStages(t *testing.T) {
	src := gradient(32, 24, 4)

	img := src.Clone()
	require.NoError(t, algorithms.SharpenWith(&img, 60, CVFilters{}))
	assert.False(t, src.Equal(img))

	img = src.Clone()
	require.NoError(t, algorithms.ResolutionWith(&img, 25, true, CVFilters{}))
	assert.Equal(t, src.Width, img.Width)
	assert.Equal(t, src.Height, img.Height)
}

func TestCVFiltersRejectBadInput(t *testing.T) {
	short := core.PixelBuffer{Pix: make([]uint8, 4), Width: 2, Height: 2, Channels: 4}
	_, err := CVFilters{}.GaussianBlur(short, 1)
	assert.Error(t, err)

	_, err = CVFilters{}.Upscale(gradient(4, 4, 3), 0, 8, true)
	assert.Error(t, err)
}
