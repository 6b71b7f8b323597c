// Bounded undo/redo history of processed results
package history

import (
	"sync"

	"shakalnost/internal/core"
)

// DefaultCapacity is the per-stack entry limit.
const DefaultCapacity = 10

// Entry pairs a parameter set with the image it produced.
type Entry struct {
	Settings core.Settings
	Image    core.PixelBuffer
}

func (e Entry) clone() Entry {
	return Entry{Settings: e.Settings.Clone(), Image: e.Image.Clone()}
}

// Store holds an undo and a redo stack. Each stack evicts its oldest entry
// once it reaches capacity.
type Store struct {
	mu       sync.Mutex
	undo     []Entry
	redo     []Entry
	capacity int
}

// New creates a Store with DefaultCapacity.
func New() *Store {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates a Store whose stacks hold at most capacity entries.
// Non-positive values fall back to DefaultCapacity.
func NewWithCapacity(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		undo:     make([]Entry, 0, capacity),
		redo:     make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Capacity returns the per-stack limit.
func (s *Store) Capacity() int { return s.capacity }

func (s *Store) pushBounded(stack []Entry, e Entry) []Entry {
	if len(stack) >= s.capacity {
		stack = append(stack[:0], stack[len(stack)-s.capacity+1:]...)
	}
	return append(stack, e)
}

// Push records a new state and clears the redo stack.
func (s *Store) Push(settings core.Settings, img core.PixelBuffer) {
	e := Entry{Settings: settings, Image: img}.clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = s.pushBounded(s.undo, e)
	clear(s.redo)
	s.redo = s.redo[:0]
}

// Undo moves the newest undo entry onto the redo stack and returns it.
func (s *Store) Undo() (core.Settings, core.PixelBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(&s.undo, &s.redo)
}

// Redo moves the newest redo entry onto the undo stack and returns it.
func (s *Store) Redo() (core.Settings, core.PixelBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(&s.redo, &s.undo)
}

func (s *Store) move(from, to *[]Entry) (core.Settings, core.PixelBuffer, bool) {
	n := len(*from)
	if n == 0 {
		return core.Settings{}, core.PixelBuffer{}, false
	}
	e := (*from)[n-1]
	(*from)[n-1] = Entry{}
	*from = (*from)[:n-1]
	*to = s.pushBounded(*to, e)

	out := e.clone()
	return out.Settings, out.Image, true
}

// Peek returns the newest undo entry without moving it.
func (s *Store) Peek() (core.Settings, core.PixelBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.undo)
	if n == 0 {
		return core.Settings{}, core.PixelBuffer{}, false
	}
	out := s.undo[n-1].clone()
	return out.Settings, out.Image, true
}

// CanUndo reports whether Undo has an entry to return.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo has an entry to return.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Len returns the sizes of the undo and redo stacks.
func (s *Store) Len() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo), len(s.redo)
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.undo)
	clear(s.redo)
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
}
