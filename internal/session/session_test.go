package session

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakalnost/internal/core"
	"shakalnost/internal/history"
	"shakalnost/internal/pipeline"
)

func result(n int) pipeline.Result {
	s := core.DefaultSettings()
	s.Quantization = n
	img := core.NewPixelBuffer(2, 2, 4)
	img.Pix[0] = uint8(n)
	return pipeline.Result{Settings: s, Image: img, Duration: time.Millisecond}
}

// shown collects the marker of every entry written to the sink.
type shown struct{ seq []int }

func (s *shown) sink(e history.Entry) error {
	s.seq = append(s.seq, e.Settings.Quantization)
	return nil
}

func (s *shown) last() int { return s.seq[len(s.seq)-1] }

func TestUndoRedoReturnsToNewest(t *testing.T) {
	out := &shown{}
	sess := New(history.New(), out.sink, nil)
	for i := 1; i <= 3; i++ {
		require.NoError(t, sess.Deliver(result(i)))
	}
	assert.Equal(t, []int{1, 2, 3}, out.seq)

	ok, err := sess.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, out.last())

	ok, err = sess.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, out.last(), "redo returns to the newest result")

	ok, _ = sess.Redo()
	assert.False(t, ok, "nothing left to redo")

	cur, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, 3, cur.Settings.Quantization)
	assert.Equal(t, uint8(3), cur.Image.Pix[0])
}

func TestUndoStopsAtOldest(t *testing.T) {
	out := &shown{}
	sess := New(history.New(), out.sink, nil)

	ok, err := sess.Undo()
	require.NoError(t, err)
	assert.False(t, ok, "nothing shown yet")

	require.NoError(t, sess.Deliver(result(1)))
	require.NoError(t, sess.Deliver(result(2)))

	ok, _ = sess.Undo()
	require.True(t, ok)
	assert.Equal(t, 1, out.last())

	ok, _ = sess.Undo()
	assert.False(t, ok)
	assert.Equal(t, []int{1, 2, 1}, out.seq, "a refused undo writes nothing")

	cur, _ := sess.Current()
	assert.Equal(t, 1, cur.Settings.Quantization)
}

func TestDeliverAfterUndoDropsRedo(t *testing.T) {
	out := &shown{}
	sess := New(history.New(), out.sink, nil)
	require.NoError(t, sess.Deliver(result(1)))
	require.NoError(t, sess.Deliver(result(2)))
	_, _ = sess.Undo()

	require.NoError(t, sess.Deliver(result(5)))
	ok, _ := sess.Redo()
	assert.False(t, ok)

	ok, _ = sess.Undo()
	require.True(t, ok)
	assert.Equal(t, 1, out.last())
}

func TestDeliverDropsCancelled(t *testing.T) {
	out := &shown{}
	sess := New(history.New(), out.sink, nil)
	r := result(4)
	r.Cancelled = true
	require.NoError(t, sess.Deliver(r))

	assert.Empty(t, out.seq)
	_, ok := sess.Current()
	assert.False(t, ok)
}

func TestUndoDepthFollowsCapacity(t *testing.T) {
	out := &shown{}
	sess := New(history.NewWithCapacity(3), out.sink, nil)
	for i := 1; i <= 5; i++ {
		require.NoError(t, sess.Deliver(result(i)))
	}

	var back []int
	for {
		ok, err := sess.Undo()
		require.NoError(t, err)
		if !ok {
			break
		}
		back = append(back, out.last())
	}
	assert.Equal(t, []int{4, 3}, back)
}

func TestSinkErrorIsReturned(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	sess := New(history.New(), func(history.Entry) error { return errors.New("disk full") }, logger)

	err := sess.Deliver(result(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, hook.AllEntries())

	require.NoError(t, New(history.New(), nil, logger).Deliver(result(2)))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 0, hook.LastEntry().Data["undo"])
}
