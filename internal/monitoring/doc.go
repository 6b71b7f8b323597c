/*
Package monitoring provides Prometheus metrics for the degradation pipeline.

# Overview

Metrics implements pipeline.Observer, so handing it to a Composer and a
Runner records stage timings, job submissions, supersessions and finished
jobs without further wiring.

# Usage

	reg := prometheus.NewRegistry()
	m := monitoring.New(reg)

	composer := pipeline.New(pipeline.WithObserver(m))
	runner := pipeline.NewRunner(composer)

	// Expose the GPU fallback count read from a displacer
	_ = m.TrackGPUFallbacks(displacer.Fallbacks)

	// Dump in text exposition format
	_ = monitoring.WriteText(os.Stderr, reg)
*/
package monitoring
