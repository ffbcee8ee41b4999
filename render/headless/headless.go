// Package headless implements a pure-Go, dependency-free FrameSink/KeySource
// pair for automated testing and scripted batch runs.
package headless

import (
	"github.com/tholvik/dmgcore/memory"
	"github.com/tholvik/dmgcore/video"
)

// Sink is a FrameSink that just remembers the most recent frame.
// It never blocks and never opens a terminal/window, making it suitable
// for tests and `--headless` CLI runs.
type Sink struct {
	frames    int
	lastFrame *video.FrameBuffer
}

// New creates an empty headless Sink.
func New() *Sink {
	return &Sink{}
}

// PushFrame implements dmgcore.FrameSink.
func (s *Sink) PushFrame(frame *video.FrameBuffer) {
	cp := video.NewFrameBuffer()
	copy(cp.ToSlice(), frame.ToSlice())
	s.lastFrame = cp
	s.frames++
}

// FrameCount returns the number of frames pushed so far.
func (s *Sink) FrameCount() int {
	return s.frames
}

// LastFrame returns the most recently pushed frame, or nil if none yet.
func (s *Sink) LastFrame() *video.FrameBuffer {
	return s.lastFrame
}

// NoInput is a KeySource that never reports any key transitions, for
// runs with no interactive input (batch/headless mode).
type NoInput struct{}

func (NoInput) Pressed() []memory.JoypadKey  { return nil }
func (NoInput) Released() []memory.JoypadKey { return nil }
