package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"shakalnost/internal/config"
	"shakalnost/internal/core"
	"shakalnost/internal/gpu"
	imgio "shakalnost/internal/io"
	"shakalnost/internal/metrics"
	"shakalnost/internal/monitoring"
	"shakalnost/internal/pipeline"
)

// engine bundles everything one CLI invocation drives.
type engine struct {
	cfg      *config.Config
	logger   *logrus.Logger
	loader   *imgio.ImageLoader
	runner   *pipeline.Runner
	registry *prometheus.Registry
}

func newEngine(cfg *config.Config, logger *logrus.Logger, gpuEmulation bool) (*engine, error) {
	registry := prometheus.NewRegistry()
	m := monitoring.New(registry)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithObserver(m),
	}
	if cfg.JPEGCodec == config.CodecOpenCV {
		opts = append(opts, pipeline.WithCodec(imgio.CVCodec{}))
	}
	if cfg.Filters == config.CodecOpenCV {
		opts = append(opts, pipeline.WithFilters(imgio.CVFilters{}))
	}
	if gpuEmulation || cfg.GPUEmulation {
		d := gpu.NewDisplacer(gpu.NewEmulator(), logger)
		if err := m.TrackGPUFallbacks(d.Fallbacks); err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithDisplacer(d))
		logger.Info("GPU: displacement runs on the emulated accelerator")
	}

	return &engine{
		cfg:      cfg,
		logger:   logger,
		loader:   imgio.NewImageLoader(logger),
		runner:   pipeline.NewRunner(pipeline.New(opts...)),
		registry: registry,
	}, nil
}

// await polls the runner until the submitted job is delivered or ctx ends.
// Cancellation still waits for the cancelled result.
func (e *engine) await(ctx context.Context, src core.PixelBuffer, s core.Settings) (pipeline.Result, error) {
	var (
		result    pipeline.Result
		delivered bool
	)
	if err := e.runner.Submit(src, s, func(r pipeline.Result) {
		result = r
		delivered = true
	}); err != nil {
		return pipeline.Result{}, fmt.Errorf("failed to submit job: %w", err)
	}

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	cancelled := false
	for !delivered {
		select {
		case <-ctx.Done():
			if !cancelled {
				e.logger.Warn("Interrupted, cancelling job")
				e.runner.Cancel()
				cancelled = true
			}
			<-ticker.C
		case <-ticker.C:
		}
		e.runner.Poll()
	}
	return result, nil
}

func (e *engine) report(original, processed core.PixelBuffer) error {
	if original.Width != processed.Width || original.Height != processed.Height {
		e.logger.Warn("Report skipped: output geometry differs from input")
		return nil
	}
	r, err := metrics.NewEvaluator().GenerateReport(original, processed)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	fmt.Printf("Destruction level: %s (fidelity %.1f%%)\n", r.Analysis.DestructionLevel, r.Fidelity)
	for _, name := range []string{"psnr", "ssim", "mse", "color_retention"} {
		if v, ok := r.Metrics[name]; ok {
			fmt.Printf("  %-16s %.4f\n", name, v)
		}
	}
	fmt.Printf("  colours          %d -> %d\n", r.OriginalColors, r.ProcessedColors)
	for _, issue := range r.Analysis.Issues {
		fmt.Printf("  ! %s\n", issue)
	}
	return nil
}

func (e *engine) dumpMetrics() error {
	return monitoring.WriteText(os.Stderr, e.registry)
}

func (e *engine) close() {
	if err := e.runner.Close(); err != nil {
		e.logger.WithError(err).Warn("Runner close failed")
	}
}
