package history

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shakalnost/internal/core"
)

func state(n int) (core.Settings, core.PixelBuffer) {
	s := core.DefaultSettings()
	s.Quantization = n
	img := core.NewPixelBuffer(2, 2, 4)
	img.Pix[0] = uint8(n)
	return s, img
}

func TestPushEvictsOldest(t *testing.T) {
	h := New()
	for i := 0; i < 11; i++ {
		h.Push(state(i))
	}
	undo, redo := h.Len()
	assert.Equal(t, 10, undo)
	assert.Equal(t, 0, redo)

	var seen []int
	for h.CanUndo() {
		s, img, ok := h.Undo()
		require.True(t, ok)
		assert.Equal(t, uint8(s.Quantization), img.Pix[0])
		seen = append(seen, s.Quantization)
	}
	assert.Equal(t, []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, seen)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := New()
	h.Push(state(1))
	h.Push(state(2))

	s, img, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 2, s.Quantization)
	assert.True(t, h.CanRedo())

	rs, rimg, ok := h.Redo()
	require.True(t, ok)
	assert.Equal(t, s, rs)
	assert.True(t, img.Equal(rimg))
	assert.False(t, h.CanRedo())

	undo, redo := h.Len()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 0, redo)
}

func TestEmptyStacks(t *testing.T) {
	h := New()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	_, img, ok := h.Undo()
	assert.False(t, ok)
	assert.False(t, img.Valid())

	_, _, ok = h.Redo()
	assert.False(t, ok)
}

func TestPeek(t *testing.T) {
	h := New()
	_, _, ok := h.Peek()
	assert.False(t, ok)

	h.Push(state(1))
	h.Push(state(2))
	s, img, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, 2, s.Quantization)
	undo, _ := h.Len()
	assert.Equal(t, 2, undo, "peek leaves the stack alone")

	img.Pix[0] = 99
	_, again, _ := h.Peek()
	assert.Equal(t, uint8(2), again.Pix[0])
}

func TestPushClearsRedo(t *testing.T) {
	h := New()
	h.Push(state(1))
	h.Push(state(2))
	h.Undo()
	require.True(t, h.CanRedo())

	h.Push(state(3))
	assert.False(t, h.CanRedo())
}

func TestRedoStackIsBounded(t *testing.T) {
	h := NewWithCapacity(3)
	assert.Equal(t, 3, h.Capacity())
	for i := 0; i < 3; i++ {
		h.Push(state(i))
	}
	for h.CanUndo() {
		h.Undo()
	}
	_, redo := h.Len()
	assert.Equal(t, 3, redo)

	s, _, ok := h.Redo()
	require.True(t, ok)
	assert.Equal(t, 0, s.Quantization)
}

func TestEntriesAreCopies(t *testing.T) {
	h := New()
	s, img := state(5)
	s.CustomPalette = []core.RGB{{1, 2, 3}}
	h.Push(s, img)

	img.Pix[0] = 99
	s.CustomPalette[0] = core.RGB{9, 9, 9}

	gs, gimg, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, uint8(5), gimg.Pix[0])
	assert.Equal(t, core.RGB{1, 2, 3}, gs.CustomPalette[0])

	gimg.Pix[0] = 42
	_, again, ok := h.Redo()
	require.True(t, ok)
	assert.Equal(t, uint8(5), again.Pix[0])
}

func TestClear(t *testing.T) {
	h := New()
	h.Push(state(1))
	h.Push(state(2))
	h.Undo()
	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestNonPositiveCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewWithCapacity(0).Capacity())
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Push(state(i))
				h.Undo()
				h.Redo()
				h.CanUndo()
			}
		}()
	}
	wg.Wait()

	undo, redo := h.Len()
	assert.LessOrEqual(t, undo, 10)
	assert.LessOrEqual(t, redo, 10)
}
