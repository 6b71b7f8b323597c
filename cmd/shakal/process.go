package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shakalnost/internal/core"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run an image through the degradation pipeline",
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringP("input", "i", "", "Input image file")
	processCmd.Flags().StringP("output", "o", "", "Output image file")
	processCmd.Flags().StringP("settings", "s", "", "TOML parameter file")
	processCmd.Flags().Bool("report", false, "Print a degradation report")
	processCmd.Flags().Bool("metrics", false, "Dump pipeline metrics to stderr")
	processCmd.Flags().Bool("gpu-emulation", false, "Run displacement on the emulated accelerator")
	addSettingsFlags(processCmd)
	processCmd.MarkFlagRequired("input")
	processCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(processCmd)
}

func addSettingsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("hd8k", false, "Nearest-neighbour upscale after the resolution drop")
	f.Int("quantization", 0, "Colour quantization level (0-100)")
	f.String("dither", "off", "Dither mode (off, ordered, floyd-steinberg)")
	f.Int("sharpen", 0, "Oversharpen level (0-100)")
	f.Int("resolution", 100, "Resolution percentage (1-100)")
	f.Int("resolution-px", 0, "Target width in pixels, overrides --resolution")
	f.Int("displacement", 0, "Displacement amount (0-100)")
	f.Int("displacement-seed", 42, "Displacement seed")
	f.Int("jpeg-quality", 100, "JPEG quality (1-99, 100 disables)")
	f.Int("jpeg-iterations", 1, "JPEG encode/decode rounds")
	f.Int("noise", 0, "Noise intensity (0-100)")
	f.String("noise-type", "gaussian", "Noise type (gaussian, salt-pepper, banding)")
	f.Bool("noise-per-channel", false, "Independent noise per channel")
	f.Int("noise-seed", 42, "Noise seed")
	f.Int("rgb-shift", 0, "RGB shift amount")
	f.Bool("rgb-shift-x", true, "Shift channels horizontally")
	f.Bool("rgb-shift-y", false, "Shift channels vertically")
	f.Int("glitch-bands", 0, "Number of glitch bands")
	f.Int("glitch-amplitude", 0, "Glitch shift amplitude in pixels")
	f.Int("glitch-seed", 42, "Glitch seed")
	f.String("palette", "none", "Palette preset (none, gameboy, nes, win98, thermal, monogreen, custom)")
	f.StringSlice("custom-palette", nil, "Custom palette colours as #rrggbb")
	f.Int("iterations", 0, "Run the whole chain this many times (iterative destroy)")
}

// applySettingsFlags overlays the flags the user set explicitly onto s.
func applySettingsFlags(cmd *cobra.Command, s *core.Settings, sourceWidth int) error {
	f := cmd.Flags()
	ints := map[string]*int{
		"quantization":      &s.Quantization,
		"sharpen":           &s.Sharpen,
		"resolution":        &s.Resolution,
		"displacement":      &s.Displacement,
		"displacement-seed": &s.DisplacementSeed,
		"jpeg-quality":      &s.JPEGQuality,
		"jpeg-iterations":   &s.JPEGIterations,
		"noise":             &s.NoiseIntensity,
		"noise-seed":        &s.NoiseSeed,
		"rgb-shift":         &s.RGBShiftAmount,
		"glitch-bands":      &s.GlitchBands,
		"glitch-amplitude":  &s.GlitchAmplitude,
		"glitch-seed":       &s.GlitchSeed,
	}
	for name, dst := range ints {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}

	bools := map[string]*bool{
		"hd8k":              &s.HD8K,
		"noise-per-channel": &s.NoisePerChannel,
		"rgb-shift-x":       &s.RGBShiftX,
		"rgb-shift-y":       &s.RGBShiftY,
	}
	for name, dst := range bools {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}

	if f.Changed("dither") {
		v, _ := f.GetString("dither")
		if err := s.DitherMode.UnmarshalText([]byte(v)); err != nil {
			return err
		}
	}
	if f.Changed("noise-type") {
		v, _ := f.GetString("noise-type")
		if err := s.NoiseType.UnmarshalText([]byte(v)); err != nil {
			return err
		}
	}
	if f.Changed("palette") {
		v, _ := f.GetString("palette")
		if err := s.Palette.UnmarshalText([]byte(v)); err != nil {
			return err
		}
	}
	if f.Changed("custom-palette") {
		colors, _ := f.GetStringSlice("custom-palette")
		s.CustomPalette = s.CustomPalette[:0]
		for _, c := range colors {
			rgb, err := core.ParseRGB(c)
			if err != nil {
				return err
			}
			s.CustomPalette = append(s.CustomPalette, rgb)
		}
	}
	if f.Changed("resolution-px") {
		px, _ := f.GetInt("resolution-px")
		s.Resolution = core.ResolutionForWidth(px, sourceWidth)
	}
	if f.Changed("iterations") {
		n, _ := f.GetInt("iterations")
		s.IterativeDestroy = n > 1
		s.IterativeCount = n
	}
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	settingsPath, _ := cmd.Flags().GetString("settings")
	wantReport, _ := cmd.Flags().GetBool("report")
	wantMetrics, _ := cmd.Flags().GetBool("metrics")
	gpuEmulation, _ := cmd.Flags().GetBool("gpu-emulation")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, logger, gpuEmulation)
	if err != nil {
		return err
	}
	defer e.close()

	src, err := e.loader.Load(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	settings := core.DefaultSettings()
	if settingsPath != "" {
		if settings, err = core.LoadSettings(settingsPath); err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
	}
	if err := applySettingsFlags(cmd, &settings, src.Width); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	settings = settings.Clamp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := e.await(ctx, src, settings)
	if err != nil {
		return err
	}
	if result.Cancelled {
		return fmt.Errorf("processing cancelled after %s", result.Duration)
	}

	logger.WithFields(logrus.Fields{
		"job_id":      result.JobID,
		"duration_ms": result.Duration.Milliseconds(),
		"width":       result.Image.Width,
		"height":      result.Image.Height,
	}).Info("Processing complete")

	if err := e.loader.Save(result.Image, outputPath); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("Degraded %dx%d in %s\n", result.Image.Width, result.Image.Height, result.Duration.Round(time.Millisecond))
	fmt.Printf("Input:  %s\n", inputPath)
	fmt.Printf("Output: %s\n", outputPath)

	if wantReport {
		if err := e.report(src, result.Image); err != nil {
			return err
		}
	}
	if wantMetrics {
		if err := e.dumpMetrics(); err != nil {
			return err
		}
	}
	return nil
}
