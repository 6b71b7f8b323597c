package metrics

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakalnost/internal/core"
)

func randomImage(w, h int, seed uint64) core.PixelBuffer {
	rng := rand.New(rand.NewPCG(seed, 9))
	img := core.NewPixelBuffer(w, h, 4)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}

func TestIdenticalImages(t *testing.T) {
	e := NewEvaluator()
	img := randomImage(20, 12, 1)

	psnr, err := e.Calculate("psnr", img, img.Clone())
	require.NoError(t, err)
	assert.True(t, math.IsInf(psnr, 1))

	mse, err := e.Calculate("mse", img, img.Clone())
	require.NoError(t, err)
	assert.Zero(t, mse)

	ssim, err := e.Calculate("ssim", img, img.Clone())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ssim, 1e-9)

	kept, err := e.Calculate("color_retention", img, img.Clone())
	require.NoError(t, err)
	assert.Equal(t, 1.0, kept)
}

func TestMSEKnownValue(t *testing.T) {
	a := core.NewPixelBuffer(2, 1, 3)
	b := core.NewPixelBuffer(2, 1, 3)
	b.Set(0, 0, core.RGB{6, 0, 0})

	mse, err := NewMSE().Calculate(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, mse, 1e-12)

	psnr, err := NewPSNR().Calculate(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 20*math.Log10(255/math.Sqrt(6)), psnr, 1e-9)
}

func TestMSEIgnoresAlpha(t *testing.T) {
	a := randomImage(4, 4, 2)
	b := a.Clone()
	for i := 3; i < len(b.Pix); i += 4 {
		b.Pix[i] = 0
	}
	mse, err := NewMSE().Calculate(a, b)
	require.NoError(t, err)
	assert.Zero(t, mse)
}

func TestSSIMDropsWithNoise(t *testing.T) {
	src := core.NewPixelBuffer(32, 32, 3)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(x * 8)
			src.Set(x, y, core.RGB{v, v, v})
		}
	}
	noisy := randomImage(32, 32, 3)

	ssim, err := NewSSIM().Calculate(src, noisy)
	require.NoError(t, err)
	assert.Less(t, ssim, 0.5)
}

func TestDimensionMismatch(t *testing.T) {
	e := NewEvaluator()
	_, err := e.Calculate("mse", randomImage(4, 4, 1), randomImage(4, 5, 1))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = e.GenerateReport(randomImage(4, 4, 1), core.PixelBuffer{})
	assert.ErrorIs(t, err, core.ErrInvalidBuffer)

	_, err = e.Calculate("sharpness", randomImage(4, 4, 1), randomImage(4, 4, 1))
	assert.Error(t, err)
}

func TestGenerateReport(t *testing.T) {
	e := NewEvaluator()
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	src := randomImage(16, 16, 4)
	report, err := e.GenerateReport(src, src.Clone())
	require.NoError(t, err)
	assert.Equal(t, LevelPristine, report.Analysis.DestructionLevel)
	assert.InDelta(t, 100, report.Fidelity, 1e-6)
	assert.Empty(t, report.Analysis.Issues)
	assert.Equal(t, "2024-05-01 12:30:00", report.Timestamp)
	assert.Equal(t, report.OriginalColors, report.ProcessedColors)

	flat := core.NewPixelBuffer(16, 16, 4)
	report, err = e.GenerateReport(src, flat)
	require.NoError(t, err)
	assert.Equal(t, LevelShakal, report.Analysis.DestructionLevel)
	assert.Equal(t, 1, report.ProcessedColors)
	assert.NotEmpty(t, report.Analysis.Issues)
}

func TestMetricInfo(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, []string{"color_retention", "mse", "psnr", "ssim"}, e.Names())

	info := e.GetMetricInfo()
	assert.False(t, info["mse"].HigherBetter)
	assert.Equal(t, [2]float64{0, 1}, info["ssim"].Range)
}
