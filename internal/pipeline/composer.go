// Ordered stage composition with cooperative cancellation
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"shakalnost/internal/algorithms"
	"shakalnost/internal/core"
)

// Displacer runs the displacement stage. The GPU backend and the CPU stage
// both satisfy it. It is called on every run and must treat amount <= 0 as
// a no-op.
type Displacer interface {
	Displace(img *core.PixelBuffer, amount, seed int)
}

// DisplacerFunc adapts a function to Displacer.
type DisplacerFunc func(img *core.PixelBuffer, amount, seed int)

// Displace implements Displacer.
func (f DisplacerFunc) Displace(img *core.PixelBuffer, amount, seed int) { f(img, amount, seed) }

// Observer receives timing and lifecycle events. Implementations must be
// safe for concurrent use.
type Observer interface {
	StageFinished(stage string, d time.Duration)
	JobSubmitted()
	JobSuperseded()
	JobFinished(d time.Duration, cancelled bool)
}

type nopObserver struct{}

func (nopObserver) StageFinished(string, time.Duration) {}
func (nopObserver) JobSubmitted()                       {}
func (nopObserver) JobSuperseded()                      {}
func (nopObserver) JobFinished(time.Duration, bool)     {}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCodec sets the JPEG codec used by the JPEG stage.
func WithCodec(codec algorithms.JPEGCodec) Option {
	return func(c *Composer) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithDisplacer replaces the CPU displacement stage.
func WithDisplacer(d Displacer) Option {
	return func(c *Composer) {
		if d != nil {
			c.displacer = d
		}
	}
}

// WithFilters sets the blur and upscale backend for the sharpen and
// resolution stages. A failing backend falls back to the built-in filters.
func WithFilters(f algorithms.Filters) Option {
	return func(c *Composer) {
		if f != nil {
			c.filters = f
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(c *Composer) {
		if o != nil {
			c.observer = o
		}
	}
}

// Composer runs the nine stages in fixed order.
type Composer struct {
	logger    logrus.FieldLogger
	codec     algorithms.JPEGCodec
	displacer Displacer
	filters   algorithms.Filters
	observer  Observer
}

type step struct {
	name string
	run  func(img *core.PixelBuffer, s core.Settings)
}

// New creates a Composer.
func New(opts ...Option) *Composer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Composer{
		logger:    discard,
		codec:     algorithms.StdJPEG{},
		displacer: DisplacerFunc(algorithms.Displace),
		filters:   algorithms.StdFilters{},
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Composer) steps() []step {
	return []step{
		{algorithms.StageResolution, func(img *core.PixelBuffer, s core.Settings) {
			if err := algorithms.ResolutionWith(img, s.Resolution, s.HD8K, c.filters); err != nil {
				c.filterFailed(algorithms.StageResolution, err)
				algorithms.Resolution(img, s.Resolution, s.HD8K)
			}
		}},
		{algorithms.StageQuantization, func(img *core.PixelBuffer, s core.Settings) {
			algorithms.Quantize(img, s.Quantization, s.DitherMode)
		}},
		{algorithms.StageSharpen, func(img *core.PixelBuffer, s core.Settings) {
			if err := algorithms.SharpenWith(img, s.Sharpen, c.filters); err != nil {
				c.filterFailed(algorithms.StageSharpen, err)
				algorithms.Sharpen(img, s.Sharpen)
			}
		}},
		{algorithms.StageNoise, func(img *core.PixelBuffer, s core.Settings) {
			algorithms.Noise(img, s.NoiseIntensity, s.NoiseType, s.NoisePerChannel, s.NoiseSeed)
		}},
		{algorithms.StageRGBShift, func(img *core.PixelBuffer, s core.Settings) {
			algorithms.RGBShift(img, s.RGBShiftAmount, s.RGBShiftX, s.RGBShiftY)
		}},
		{algorithms.StageGlitch, func(img *core.PixelBuffer, s core.Settings) {
			algorithms.Glitch(img, s.GlitchBands, s.GlitchAmplitude, s.GlitchSeed)
		}},
		{algorithms.StageDisplacement, func(img *core.PixelBuffer, s core.Settings) {
			c.displacer.Displace(img, s.Displacement, s.DisplacementSeed)
		}},
		{algorithms.StageJPEG, func(img *core.PixelBuffer, s core.Settings) {
			if err := algorithms.JPEGCompress(img, s.JPEGQuality, s.JPEGIterations, c.codec); err != nil {
				c.logger.WithError(err).Debug("PIPELINE: JPEG stage stopped early")
			}
		}},
		{algorithms.StagePalette, func(img *core.PixelBuffer, s core.Settings) {
			algorithms.MapPalette(img, s.Palette, s.CustomPalette)
		}},
	}
}

func (c *Composer) filterFailed(stage string, err error) {
	c.logger.WithError(err).WithField("stage", stage).Warn("PIPELINE: filter backend failed, using built-in filters")
}

// Process degrades a copy of src. When ctx is cancelled the remaining
// stages are skipped and the partially processed copy is returned. A src
// that fails Validate is returned as an unchanged copy.
func (c *Composer) Process(ctx context.Context, src core.PixelBuffer, s core.Settings) core.PixelBuffer {
	img, _ := c.run(ctx, src, s)
	return img
}

// run reports whether every stage of every iteration ran.
func (c *Composer) run(ctx context.Context, src core.PixelBuffer, s core.Settings) (core.PixelBuffer, bool) {
	img := src.Clone()
	if img.Validate() != nil {
		return img, true
	}

	steps := c.steps()
	iterations := s.Iterations()
	for iter := 0; iter < iterations; iter++ {
		for _, st := range steps {
			if ctx.Err() != nil {
				c.logger.WithFields(logrus.Fields{
					"stage":     st.name,
					"iteration": iter + 1,
				}).Debug("PIPELINE: Cancelled before stage")
				return img, false
			}

			start := time.Now()
			st.run(&img, s)
			elapsed := time.Since(start)

			c.observer.StageFinished(st.name, elapsed)
			c.logger.WithFields(logrus.Fields{
				"stage":       st.name,
				"iteration":   iter + 1,
				"duration_ms": elapsed.Milliseconds(),
			}).Trace("PIPELINE: Stage finished")
		}
	}
	return img, true
}
