package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shakalnost/internal/core"
)

// ErrRunnerClosed is returned by Submit after Close.
var ErrRunnerClosed = errors.New("runner closed")

// Result is what a finished job hands to its completion callback.
type Result struct {
	JobID    uuid.UUID
	Image    core.PixelBuffer
	Settings core.Settings
	Duration time.Duration
	// Cancelled is set when at least one stage was skipped.
	Cancelled bool
}

// CompletionFunc receives a job result on the goroutine that calls Poll.
type CompletionFunc func(Result)

type job struct {
	id         uuid.UUID
	cancel     context.CancelFunc
	done       chan struct{}
	onComplete CompletionFunc
	result     Result
}

// Runner executes at most one Composer run at a time. A new submission
// cancels and replaces the previous one.
type Runner struct {
	composer *Composer
	logger   logrus.FieldLogger
	observer Observer
	now      func() time.Time

	mu         sync.Mutex
	current    *job
	processing bool
	lastSubmit time.Time
	closed     bool
}

// NewRunner creates a Runner that shares the composer's logger and observer.
func NewRunner(c *Composer) *Runner {
	if c == nil {
		c = New()
	}
	r := &Runner{
		composer: c,
		logger:   c.logger,
		observer: c.observer,
		now:      time.Now,
	}
	r.lastSubmit = r.now()
	return r
}

// Submit cancels and waits for the running job, then starts processing
// private copies of src and settings. onComplete fires from a later Poll.
func (r *Runner) Submit(src core.PixelBuffer, settings core.Settings, onComplete CompletionFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}

	if prev := r.current; prev != nil {
		prev.cancel()
		<-prev.done
		if r.processing {
			r.observer.JobSuperseded()
			r.logger.WithField("job_id", prev.id).Debug("RUNNER: Job superseded")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:         uuid.New(),
		cancel:     cancel,
		done:       make(chan struct{}),
		onComplete: onComplete,
	}
	r.current = j
	r.processing = true

	src = src.Clone()
	settings = settings.Clone()
	r.observer.JobSubmitted()
	r.logger.WithFields(logrus.Fields{
		"job_id": j.id,
		"width":  src.Width,
		"height": src.Height,
	}).Debug("RUNNER: Job submitted")

	go r.execute(ctx, j, src, settings)

	r.lastSubmit = r.now()
	return nil
}

func (r *Runner) execute(ctx context.Context, j *job, src core.PixelBuffer, settings core.Settings) {
	defer close(j.done)
	defer j.cancel()

	start := time.Now()
	img, complete := r.composer.run(ctx, src, settings)
	elapsed := time.Since(start)

	j.result = Result{
		JobID:     j.id,
		Image:     img,
		Settings:  settings,
		Duration:  elapsed,
		Cancelled: !complete,
	}
	r.observer.JobFinished(elapsed, !complete)
	r.logger.WithFields(logrus.Fields{
		"job_id":      j.id,
		"duration_ms": elapsed.Milliseconds(),
		"cancelled":   !complete,
	}).Info("RUNNER: Job finished")
}

// Cancel asks the running job to stop at its next stage boundary.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.cancel()
	}
}

// IsProcessing reports whether a submitted job has not yet been delivered
// by Poll.
func (r *Runner) IsProcessing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processing
}

// Poll delivers the current job's result to its callback on the calling
// goroutine if the job has finished. It reports whether a result was
// delivered.
func (r *Runner) Poll() bool {
	r.mu.Lock()
	j := r.current
	if j == nil || !r.processing {
		r.mu.Unlock()
		return false
	}
	select {
	case <-j.done:
	default:
		r.mu.Unlock()
		return false
	}
	r.processing = false
	result := j.result
	r.mu.Unlock()

	if j.onComplete != nil {
		j.onComplete(result)
	}
	return true
}

// ShouldUpdate reports whether at least debounce has passed since the last
// submission.
func (r *Runner) ShouldUpdate(debounce time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Sub(r.lastSubmit) >= debounce
}

// MarkSubmitTime restarts the debounce clock.
func (r *Runner) MarkSubmitTime() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSubmit = r.now()
}

// Close cancels the running job and waits for it. Further submissions fail.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if j := r.current; j != nil {
		j.cancel()
		<-j.done
	}
	r.logger.Debug("RUNNER: Closed")
	return nil
}
