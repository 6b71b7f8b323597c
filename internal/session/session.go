// Package session tracks the result a live run is showing and steps it
// through the undo/redo history.
package session

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"shakalnost/internal/history"
	"shakalnost/internal/pipeline"
)

// Sink receives every state the session shows.
type Sink func(e history.Entry) error

// Session keeps the shown state on top of the undo stack, so undo reveals
// the entry beneath it and redo brings it back. It is meant to be driven
// from a single goroutine, the one calling pipeline.Runner.Poll.
type Session struct {
	store  *history.Store
	sink   Sink
	logger logrus.FieldLogger
}

// New creates a Session over store. A nil logger discards output.
func New(store *history.Store, sink Sink, logger logrus.FieldLogger) *Session {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if store == nil {
		store = history.New()
	}
	return &Session{store: store, sink: sink, logger: logger}
}

// Deliver makes a finished result the shown state. Cancelled results are
// dropped.
func (s *Session) Deliver(r pipeline.Result) error {
	if r.Cancelled {
		s.logger.WithField("job_id", r.JobID).Debug("SESSION: Dropping cancelled result")
		return nil
	}
	s.store.Push(r.Settings, r.Image)
	return s.show("processed", r.Duration)
}

// Undo steps back one result. It reports false when the shown state is the
// oldest one kept.
func (s *Session) Undo() (bool, error) {
	if undo, _ := s.store.Len(); undo < 2 {
		return false, nil
	}
	if _, _, ok := s.store.Undo(); !ok {
		return false, nil
	}
	return true, s.show("undo", 0)
}

// Redo steps forward to the result most recently undone.
func (s *Session) Redo() (bool, error) {
	if _, _, ok := s.store.Redo(); !ok {
		return false, nil
	}
	return true, s.show("redo", 0)
}

// Current returns the shown state.
func (s *Session) Current() (history.Entry, bool) {
	settings, img, ok := s.store.Peek()
	return history.Entry{Settings: settings, Image: img}, ok
}

func (s *Session) show(action string, d time.Duration) error {
	e, ok := s.Current()
	if !ok {
		return nil
	}
	if s.sink != nil {
		if err := s.sink(e); err != nil {
			return fmt.Errorf("failed to write %s result: %w", action, err)
		}
	}
	undo, redo := s.store.Len()
	fields := logrus.Fields{"undo": undo - 1, "redo": redo}
	if d > 0 {
		fields["duration_ms"] = d.Milliseconds()
	}
	s.logger.WithFields(fields).Infof("SESSION: Output %s", action)
	return nil
}
