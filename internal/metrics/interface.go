// Degradation metrics comparing a source image with its processed result
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"shakalnost/internal/core"
)

// ErrDimensionMismatch is returned when the two images differ in geometry.
var ErrDimensionMismatch = errors.New("image dimensions mismatch")

// Metric defines the interface for quality metrics
type Metric interface {
	// Calculate computes the metric value
	Calculate(original, processed core.PixelBuffer) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string

	// GetRange returns the value range (min, max)
	GetRange() (float64, float64)

	// IsHigherBetter returns true if higher values indicate better quality
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
	now     func() time.Time
}

// NewEvaluator creates a new metrics evaluator
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
		now:     time.Now,
	}
	e.RegisterDefaultMetrics()
	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("psnr", NewPSNR())
	e.Register("ssim", NewSSIM())
	e.Register("mse", NewMSE())
	e.Register("color_retention", NewColorRetention())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names, sorted.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, original, processed core.PixelBuffer) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(original, processed)
}

// CalculateAll calculates all registered metrics. Metrics that fail are
// left out.
func (e *Evaluator) CalculateAll(original, processed core.PixelBuffer) map[string]float64 {
	results := make(map[string]float64)
	for name, metric := range e.metrics {
		if value, err := metric.Calculate(original, processed); err == nil {
			results[name] = value
		}
	}
	return results
}

// MetricInfo provides metadata about a metric
type MetricInfo struct {
	Name         string
	Description  string
	Range        [2]float64 // [min, max]
	HigherBetter bool
}

// GetMetricInfo returns information about all metrics
func (e *Evaluator) GetMetricInfo() map[string]MetricInfo {
	info := make(map[string]MetricInfo)
	for name, metric := range e.metrics {
		lo, hi := metric.GetRange()
		info[name] = MetricInfo{
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			Range:        [2]float64{lo, hi},
			HigherBetter: metric.IsHigherBetter(),
		}
	}
	return info
}

// Destruction levels, from untouched to unrecognisable.
const (
	LevelPristine = "pristine"
	LevelMild     = "mild"
	LevelCrunchy  = "crunchy"
	LevelShakal   = "shakal"
)

// Report is the degradation assessment of one processed image.
type Report struct {
	// Fidelity is the weighted, normalised metric score in [0, 100].
	Fidelity        float64            `json:"fidelity"`
	Metrics         map[string]float64 `json:"metrics"`
	Analysis        Analysis           `json:"analysis"`
	OriginalColors  int                `json:"original_colors"`
	ProcessedColors int                `json:"processed_colors"`
	Timestamp       string             `json:"timestamp"`
}

// Analysis provides interpretation of metrics
type Analysis struct {
	DestructionLevel string   `json:"destruction_level"`
	Issues           []string `json:"issues"`
}

// GenerateReport compares original with processed.
func (e *Evaluator) GenerateReport(original, processed core.PixelBuffer) (Report, error) {
	if err := compatible(original, processed); err != nil {
		return Report{}, err
	}
	metrics := e.CalculateAll(original, processed)
	fidelity := e.calculateFidelity(metrics)

	return Report{
		Fidelity:        fidelity,
		Metrics:         metrics,
		Analysis:        e.analyze(metrics, fidelity),
		OriginalColors:  original.DistinctColors(),
		ProcessedColors: processed.DistinctColors(),
		Timestamp:       e.now().Format("2006-01-02 15:04:05"),
	}, nil
}

// calculateFidelity calculates a weighted score as a percentage
func (e *Evaluator) calculateFidelity(metrics map[string]float64) float64 {
	weights := map[string]float64{
		"psnr":            0.35,
		"ssim":            0.35,
		"mse":             0.15,
		"color_retention": 0.15,
	}

	totalWeight := 0.0
	weightedSum := 0.0
	for name, weight := range weights {
		if value, exists := metrics[name]; exists {
			weightedSum += e.normalizeMetric(name, value) * weight
			totalWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return (weightedSum / totalWeight) * 100
}

// normalizeMetric normalizes a metric value to 0-1 range
func (e *Evaluator) normalizeMetric(name string, value float64) float64 {
	metric, exists := e.metrics[name]
	if !exists {
		return 0
	}

	lo, hi := metric.GetRange()
	value = math.Min(math.Max(value, lo), hi)
	if hi == lo {
		return 1.0
	}

	normalized := (value - lo) / (hi - lo)
	if !metric.IsHigherBetter() {
		normalized = 1.0 - normalized
	}
	return normalized
}

func (e *Evaluator) analyze(metrics map[string]float64, fidelity float64) Analysis {
	analysis := Analysis{Issues: make([]string, 0)}

	switch {
	case fidelity >= 90:
		analysis.DestructionLevel = LevelPristine
	case fidelity >= 70:
		analysis.DestructionLevel = LevelMild
	case fidelity >= 45:
		analysis.DestructionLevel = LevelCrunchy
	default:
		analysis.DestructionLevel = LevelShakal
	}

	if psnr, exists := metrics["psnr"]; exists && psnr < 20 {
		analysis.Issues = append(analysis.Issues, "Low PSNR: heavy noise or compression loss")
	}
	if ssim, exists := metrics["ssim"]; exists && ssim < 0.5 {
		analysis.Issues = append(analysis.Issues, "Low SSIM: image structure is largely gone")
	}
	if kept, exists := metrics["color_retention"]; exists && kept < 0.1 {
		analysis.Issues = append(analysis.Issues, "Palette collapsed to a handful of colours")
	}
	return analysis
}

func compatible(original, processed core.PixelBuffer) error {
	if err := original.Validate(); err != nil {
		return fmt.Errorf("original: %w", err)
	}
	if err := processed.Validate(); err != nil {
		return fmt.Errorf("processed: %w", err)
	}
	if original.Width != processed.Width || original.Height != processed.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch,
			original.Width, original.Height, processed.Width, processed.Height)
	}
	return nil
}
