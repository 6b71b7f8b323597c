package monitoring

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.JobSubmitted()
	m.JobSubmitted()
	m.JobSuperseded()
	m.JobFinished(20*time.Millisecond, true)
	m.JobFinished(40*time.Millisecond, false)
	m.JobFinished(10*time.Millisecond, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsSuperseded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsFinished.WithLabelValues("cancelled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsFinished.WithLabelValues("completed")))
}

func TestStageHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.StageFinished("glitch", time.Millisecond)
	m.StageFinished("glitch", 2*time.Millisecond)
	m.StageFinished("palette", time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration, "shakal_stage_duration_seconds"))
}

func TestGPUFallbacks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	var n int64 = 3
	require.NoError(t, m.TrackGPUFallbacks(func() int64 { return n }))
	assert.Error(t, m.TrackGPUFallbacks(func() int64 { return 0 }), "duplicate registration")

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))
	assert.Contains(t, buf.String(), "shakal_gpu_fallbacks_total 3")
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.JobSubmitted()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))
	out := buf.String()
	assert.Contains(t, out, "# HELP shakal_jobs_submitted_total")
	assert.Contains(t, out, "shakal_jobs_submitted_total 1")
}

func TestNilRegistry(t *testing.T) {
	m := New(nil)
	m.JobSubmitted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsSubmitted))
}
