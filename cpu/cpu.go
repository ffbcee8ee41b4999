// Package cpu implements the Z80-derived CPU core: register file, flag
// algebra, the primary and CB-prefixed instruction decoders, and interrupt
// dispatch.
package cpu

import (
	"fmt"
	"log/slog"

	"github.com/tholvik/dmgcore/addr"
	"github.com/tholvik/dmgcore/bit"
	"github.com/tholvik/dmgcore/memory"
)

// Flag is one of the four flags held in the upper nibble of F.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// CPU holds the register file and drives instruction execution against an
// MMU. It is the exclusive reader/writer of memory: no other component
// reaches through it.
type CPU struct {
	a, b, c, d, e, h, l, f uint8
	sp, pc                 uint16

	interruptsEnabled bool // IME
	eiPending         bool // EI takes effect after the next instruction
	halted            bool

	currentOpcode uint16 // last fetched opcode, 0xCBxx for CB-prefixed

	memory *memory.MMU
}

// New returns a CPU wired to the given MMU, with the post-boot register
// state specified for the targeted console.
func New(mem *memory.MMU) *CPU {
	return &CPU{
		memory: mem,
		a:      0x01,
		f:      0xB0,
		b:      0x00,
		c:      0x13,
		d:      0x00,
		e:      0xD8,
		h:      0x01,
		l:      0x4D,
		sp:     0xFFFE,
		pc:     0x0100,
	}
}

// Tick executes one step: service a pending interrupt if eligible, resume
// from HALT if woken, or fetch/decode/execute the next instruction. It
// returns the number of machine clocks consumed.
func (c *CPU) Tick() int {
	enableAfter := c.eiPending

	if c.halted {
		if c.pendingInterrupts() != 0 {
			c.halted = false
		} else {
			return 4
		}
	}

	if c.interruptsEnabled && c.pendingInterrupts() != 0 {
		c.handleInterrupts()
		return 20
	}

	c.currentOpcode = uint16(c.readImmediate())
	if c.currentOpcode == 0xCB {
		c.currentOpcode = 0xCB00 | uint16(c.readImmediate())
	}

	opcode := decode(c.currentOpcode)
	cycles := opcode(c)
	if enableAfter && c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}
	return cycles
}

func (c *CPU) pendingInterrupts() uint8 {
	ie := c.memory.Read(addr.IE)
	iflag := c.memory.Read(addr.IF)
	return ie & iflag & 0x1F
}

// handleInterrupts services the lowest-numbered pending+enabled interrupt:
// it clears IME, pushes PC, clears the source's IF bit, and jumps to its
// vector.
func (c *CPU) handleInterrupts() {
	pending := c.pendingInterrupts()

	var bitPos uint8
	var vector uint16
	switch {
	case pending&uint8(addr.VBlankInterrupt) != 0:
		bitPos, vector = 0, 0x0040
	case pending&uint8(addr.LCDSTATInterrupt) != 0:
		bitPos, vector = 1, 0x0048
	case pending&uint8(addr.TimerInterrupt) != 0:
		bitPos, vector = 2, 0x0050
	case pending&uint8(addr.SerialInterrupt) != 0:
		bitPos, vector = 3, 0x0058
	case pending&uint8(addr.JoypadInterrupt) != 0:
		bitPos, vector = 4, 0x0060
	default:
		return
	}

	c.interruptsEnabled = false
	c.eiPending = false

	iflag := c.memory.Read(addr.IF)
	c.memory.Write(addr.IF, bit.Reset(bitPos, iflag))

	c.pushStack(c.pc)
	c.pc = vector
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit returns 1 if the flag is set, 0 otherwise.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) getAF() uint16 { return bit.Combine(c.a, c.f&0xF0) }
func (c *CPU) setAF(v uint16) {
	c.a = bit.High(v)
	c.f = bit.Low(v) & 0xF0
}

func (c *CPU) getBC() uint16  { return bit.Combine(c.b, c.c) }
func (c *CPU) setBC(v uint16) { c.b, c.c = bit.High(v), bit.Low(v) }

func (c *CPU) getDE() uint16  { return bit.Combine(c.d, c.e) }
func (c *CPU) setDE(v uint16) { c.d, c.e = bit.High(v), bit.Low(v) }

func (c *CPU) getHL() uint16  { return bit.Combine(c.h, c.l) }
func (c *CPU) setHL(v uint16) { c.h, c.l = bit.High(v), bit.Low(v) }

// readImmediate reads the byte at PC and advances PC by one.
func (c *CPU) readImmediate() uint8 {
	v := c.memory.Read(c.pc)
	c.pc++
	return v
}

// readImmediateWord reads the little-endian word at PC and advances PC by two.
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// readReg8 resolves one of the eight 3-bit register operand codes used
// throughout the primary opcode space: B,C,D,E,H,L,(HL),A.
func (c *CPU) readReg8(code uint8) uint8 {
	switch code & 0x7 {
	case 0:
		return c.b
	case 1:
		return c.c
	case 2:
		return c.d
	case 3:
		return c.e
	case 4:
		return c.h
	case 5:
		return c.l
	case 6:
		return c.memory.Read(c.getHL())
	default:
		return c.a
	}
}

func (c *CPU) writeReg8(code uint8, v uint8) {
	switch code & 0x7 {
	case 0:
		c.b = v
	case 1:
		c.c = v
	case 2:
		c.d = v
	case 3:
		c.e = v
	case 4:
		c.h = v
	case 5:
		c.l = v
	case 6:
		c.memory.Write(c.getHL(), v)
	default:
		c.a = v
	}
}

// GetPC returns the current program counter, exposed for host tooling
// (disassembly views, step logging).
func (c *CPU) GetPC() uint16 { return c.pc }

// GetSP returns the current stack pointer.
func (c *CPU) GetSP() uint16 { return c.sp }

// Halted reports whether the CPU is parked in HALT.
func (c *CPU) Halted() bool { return c.halted }

func unimplemented(cpu *CPU) int {
	slog.Warn("unknown opcode", "opcode", fmt.Sprintf("0x%04X", cpu.currentOpcode), "pc", fmt.Sprintf("0x%04X", cpu.pc))
	return 4
}
