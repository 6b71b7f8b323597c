package gpu

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"shakalnost/internal/algorithms"
	"shakalnost/internal/core"
)

// Displacer runs displacement on an Accelerator and falls back to the CPU
// stage when the accelerator is missing or fails.
type Displacer struct {
	accel     Accelerator
	logger    logrus.FieldLogger
	fallbacks atomic.Int64
}

// NewDisplacer wraps accel. A nil accel always uses the CPU stage.
func NewDisplacer(accel Accelerator, logger logrus.FieldLogger) *Displacer {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Displacer{accel: accel, logger: logger}
}

// Fallbacks returns how many runs used the CPU path after an accelerator error.
func (d *Displacer) Fallbacks() int64 {
	return d.fallbacks.Load()
}

// Displace warps img in place.
func (d *Displacer) Displace(img *core.PixelBuffer, amount, seed int) {
	if img == nil || img.Validate() != nil || amount <= 0 {
		return
	}
	if d.accel == nil {
		algorithms.Displace(img, amount, seed)
		return
	}

	if err := d.displaceAccelerated(img, amount, seed); err != nil {
		d.fallbacks.Add(1)
		d.logger.WithError(err).WithFields(logrus.Fields{
			"width":  img.Width,
			"height": img.Height,
		}).Warn("GPU: displacement failed, using CPU path")
		algorithms.Displace(img, amount, seed)
	}
}

func (d *Displacer) displaceAccelerated(img *core.PixelBuffer, amount, seed int) error {
	src, err := d.accel.UploadTexture(*img)
	if err != nil {
		return fmt.Errorf("upload texture: %w", err)
	}
	defer d.release(src)

	out, err := d.accel.RunDisplacement(src, amount, seed)
	if err != nil {
		return fmt.Errorf("run displacement: %w", err)
	}
	defer d.release(out)

	buf := make([]uint8, len(img.Pix))
	if err := d.accel.Readback(out, buf); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	FlipRows(buf, img.Width*img.Channels)
	copy(img.Pix, buf)
	return nil
}

func (d *Displacer) release(tex Texture) {
	if err := d.accel.Release(tex); err != nil {
		d.logger.WithError(err).Debug("GPU: texture release failed")
	}
}
