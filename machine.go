// Package dmgcore implements the core emulation logic for an 8-bit
// handheld game console: CPU, memory bus, timer, serial port, and
// picture processing unit, plus an LR35902-family cartridge loader.
package dmgcore

import (
	"github.com/tholvik/dmgcore/cpu"
	"github.com/tholvik/dmgcore/memory"
	"github.com/tholvik/dmgcore/video"
)

// cyclesPerFrame is the number of clock cycles in one 59.7Hz video frame:
// 154 scanlines * 456 cycles/scanline.
const cyclesPerFrame = 70224

// FrameSink receives a completed video frame. Implementations must not
// retain the FrameBuffer beyond the call, since Machine reuses it.
type FrameSink interface {
	PushFrame(frame *video.FrameBuffer)
}

// KeySource delivers joypad key transitions to a Machine between frames.
type KeySource interface {
	// Pressed returns keys that transitioned from released to pressed
	// since the last poll.
	Pressed() []memory.JoypadKey
	// Released returns keys that transitioned from pressed to released
	// since the last poll.
	Released() []memory.JoypadKey
}

// Machine is the root struct and entry point for running the emulation,
// owning the CPU, memory bus, and picture processing unit.
type Machine struct {
	cpu *cpu.CPU
	gpu *video.PPU
	mem *memory.MMU

	frameCount uint64
}

// New creates a Machine with no cartridge loaded, equivalent to turning
// on the console with an empty cartridge slot.
func New() *Machine {
	return newWithMMU(memory.NewWithCartridge(memory.NewCartridge()))
}

// NewWithCartridge creates a Machine with the given cartridge loaded.
func NewWithCartridge(cart *memory.Cartridge) *Machine {
	return newWithMMU(memory.NewWithCartridge(cart))
}

func newWithMMU(mem *memory.MMU) *Machine {
	return &Machine{
		cpu: cpu.New(mem),
		gpu: video.NewPPU(mem),
		mem: mem,
	}
}

// RunFrame advances emulation until one full video frame (70224 clock
// cycles) has elapsed, then returns. The caller is expected to call
// RunFrame once per 1/59.7s tick of wall-clock time for real-time
// playback, or back-to-back for headless/batch runs.
func (m *Machine) RunFrame() {
	total := 0
	for total < cyclesPerFrame {
		cycles := m.cpu.Tick()
		m.mem.Tick(cycles)
		m.gpu.Tick(cycles)
		total += cycles
	}
	m.frameCount++
}

// FrameCount returns the number of frames completed so far.
func (m *Machine) FrameCount() uint64 {
	return m.frameCount
}

// CurrentFrame returns the most recently rendered video frame.
func (m *Machine) CurrentFrame() *video.FrameBuffer {
	return m.gpu.GetFrameBuffer()
}

// SerialOutput returns every byte the cartridge has written to the serial
// debug port so far. Test ROMs (Blargg's cpu_instrs/instr_timing suites)
// report pass/fail by writing an ASCII summary there.
func (m *Machine) SerialOutput() string {
	return m.mem.SerialOutput()
}

// PressKey simulates a joypad button/direction being held down.
func (m *Machine) PressKey(key memory.JoypadKey) {
	m.mem.HandleKeyPress(key)
}

// ReleaseKey simulates a joypad button/direction being released.
func (m *Machine) ReleaseKey(key memory.JoypadKey) {
	m.mem.HandleKeyRelease(key)
}

// ApplyInput polls a KeySource and applies any pending transitions.
func (m *Machine) ApplyInput(keys KeySource) {
	for _, k := range keys.Pressed() {
		m.PressKey(k)
	}
	for _, k := range keys.Released() {
		m.ReleaseKey(k)
	}
}

// CPU exposes the underlying CPU, primarily for debug tooling and tests.
func (m *Machine) CPU() *cpu.CPU {
	return m.cpu
}

// MMU exposes the underlying memory bus, primarily for debug tooling and tests.
func (m *Machine) MMU() *memory.MMU {
	return m.mem
}
