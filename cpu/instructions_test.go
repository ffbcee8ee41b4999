package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tholvik/dmgcore/memory"
)

func TestCPU_stack(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	cpu.sp = 0xFFFE
	cpu.pushStack(0x0102)

	assert.Equal(t, uint16(0xFFFC), cpu.sp)
	assert.Equal(t, uint8(0x02), mmu.Read(0xFFFC))
	assert.Equal(t, uint8(0x01), mmu.Read(0xFFFD))

	popped := cpu.popStack()

	assert.Equal(t, uint16(0x0102), popped)
	assert.Equal(t, uint16(0xFFFE), cpu.sp)
}

func TestCPU_inc(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "increases", arg: 0x0A, want: 0x0B},
		{desc: "sets zero flag", arg: 0xFF, want: 0, flags: zeroFlag | halfCarryFlag},
		{desc: "sets half carry flag at nibble boundary", arg: 0x0F, want: 0x10, flags: halfCarryFlag},
		{desc: "does not set half carry below the boundary", arg: 0x0D, want: 0x0E},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			got := cpu.inc(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_dec(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "decreases", arg: 0x0A, want: 0x09, flags: subFlag},
		{desc: "sets half carry crossing a nibble boundary", arg: 0x00, want: 0xFF, flags: subFlag | halfCarryFlag},
		{desc: "sets zero flag", arg: 0x01, want: 0, flags: subFlag | zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			got := cpu.dec(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_rlc(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "rotates left", arg: 0x01, want: 0x02},
		{desc: "sets carry flag from bit 7", arg: 0x80, want: 0x01, flags: carryFlag},
		{desc: "sets zero flag", arg: 0, want: 0, flags: zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			got := cpu.rlc(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_rl(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc         string
		arg          uint8
		initialFlags Flag
		want         uint8
		flags        Flag
	}{
		{desc: "rotates left", arg: 0x01, want: 0x02},
		{desc: "shifts in the carry flag", arg: 0x01, initialFlags: carryFlag, want: 0x03},
		{desc: "sets carry flag from bit 7", arg: 0x80, want: 0, flags: zeroFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = uint8(tC.initialFlags)
			got := cpu.rl(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_rrc(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "rotates right", arg: 0x02, want: 0x01},
		{desc: "sets carry flag from bit 0", arg: 0x01, want: 0x80, flags: carryFlag},
		{desc: "sets zero flag", arg: 0, want: 0, flags: zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			got := cpu.rrc(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_rr(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc         string
		arg          uint8
		initialFlags Flag
		want         uint8
		flags        Flag
	}{
		{desc: "rotates right", arg: 0x02, want: 0x01},
		{desc: "shifts in the carry flag", arg: 0x02, initialFlags: carryFlag, want: 0x81},
		{desc: "sets carry flag from bit 0", arg: 0x01, want: 0, flags: zeroFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = uint8(tC.initialFlags)
			got := cpu.rr(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_sla(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "shifts left", arg: 0x01, want: 0x02},
		{desc: "sets carry and zero", arg: 0x80, want: 0, flags: carryFlag | zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			got := cpu.sla(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_sra(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "shifts right", arg: 0x22, want: 0x11},
		{desc: "preserves the sign bit", arg: 0x82, want: 0xC1},
		{desc: "sets carry and zero", arg: 0x01, want: 0, flags: carryFlag | zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			got := cpu.sra(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_srl(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		arg   uint8
		want  uint8
		flags Flag
	}{
		{desc: "shifts right clearing the sign bit", arg: 0x88, want: 0x44},
		{desc: "sets carry and zero", arg: 0x01, want: 0, flags: carryFlag | zeroFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			got := cpu.srl(tC.arg)
			assert.Equal(t, tC.want, got)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_addToA(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc       string
		a, arg     uint8
		withCarry  bool
		initCarry  bool
		want       uint8
		flags      Flag
	}{
		{desc: "adds to A", a: 0, arg: 0x0F, want: 0x0F},
		{desc: "sets half carry", a: 0x0F, arg: 0x0F, want: 0x1E, flags: halfCarryFlag},
		{desc: "sets carry and half carry", a: 0xFF, arg: 0x02, want: 1, flags: carryFlag | halfCarryFlag},
		{desc: "sets zero along with carry", a: 0xFF, arg: 0x01, want: 0, flags: zeroFlag | carryFlag | halfCarryFlag},
		{desc: "ADC adds the carry in", a: 0, arg: 0x02, withCarry: true, initCarry: true, want: 0x03},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			if tC.initCarry {
				cpu.setFlag(carryFlag)
			}
			cpu.a = tC.a
			cpu.addToA(tC.arg, tC.withCarry)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_addToHL(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		hl    uint16
		arg   uint16
		want  uint16
		flags Flag
	}{
		{desc: "adds to HL", hl: 0, arg: 0x0F, want: 0x0F},
		{desc: "sets half carry crossing bit 11", hl: 0xFFF, arg: 0x01, want: 0x1000, flags: halfCarryFlag},
		{desc: "sets carry", hl: 0xFFFF, arg: 0x02, want: 1, flags: carryFlag | halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.setHL(tC.hl)
			cpu.addToHL(tC.arg)
			assert.Equal(t, tC.want, cpu.getHL())
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_sub(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc      string
		a, arg    uint8
		withCarry bool
		initCarry bool
		want      uint8
		flags     Flag
	}{
		{desc: "subtracts from A", a: 0x3, arg: 0x01, want: 0x02, flags: subFlag},
		{desc: "sets carry and half carry", a: 0, arg: 0x01, want: 0xFF, flags: subFlag | carryFlag | halfCarryFlag},
		{desc: "sets half carry", a: 0x10, arg: 0x01, want: 0x0F, flags: subFlag | halfCarryFlag},
		{desc: "sets zero flag", a: 0x1, arg: 0x01, want: 0, flags: subFlag | zeroFlag},
		{desc: "SBC subtracts the carry too", a: 0x3, arg: 0x01, withCarry: true, initCarry: true, want: 0x01, flags: subFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			if tC.initCarry {
				cpu.setFlag(carryFlag)
			}
			cpu.a = tC.a
			cpu.sub(tC.arg, tC.withCarry)
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_cp(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc  string
		a     uint8
		arg   uint8
		flags Flag
	}{
		{desc: "sets zero when equal", a: 0x0F, arg: 0x0F, flags: subFlag | zeroFlag},
		{desc: "sets carry when a < n", a: 0x00, arg: 0x01, flags: subFlag | halfCarryFlag | carryFlag},
		{desc: "sets half carry", a: 0x10, arg: 0x01, flags: subFlag | halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = 0
			cpu.a = tC.a
			cpu.cp(tC.arg)
			assert.Equal(t, tC.a, cpu.a, "cp must not modify A")
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_and(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	cpu.f = 0
	cpu.a = 0x0F
	cpu.and(0x44)
	assert.Equal(t, uint8(0x04), cpu.a)
	assert.Equal(t, uint8(halfCarryFlag), cpu.f)

	cpu.f = 0
	cpu.a = 0x0F
	cpu.and(0x40)
	assert.Equal(t, uint8(0), cpu.a)
	assert.Equal(t, uint8(zeroFlag|halfCarryFlag), cpu.f)
}

func TestCPU_or(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	cpu.f = 0
	cpu.a = 0x40
	cpu.or(0x04)
	assert.Equal(t, uint8(0x44), cpu.a)
	assert.Equal(t, uint8(0), cpu.f)

	cpu.f = 0
	cpu.a = 0
	cpu.or(0)
	assert.Equal(t, uint8(zeroFlag), cpu.f)
}

func TestCPU_xor(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	cpu.f = 0
	cpu.a = 0x0F
	cpu.xor(0x03)
	assert.Equal(t, uint8(0x0C), cpu.a)
	assert.Equal(t, uint8(0), cpu.f)

	cpu.f = 0
	cpu.a = 0xFF
	cpu.xor(0xFF)
	assert.Equal(t, uint8(zeroFlag), cpu.f)
}

func TestCPU_swap(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	cpu.f = 0
	assert.Equal(t, uint8(0xBA), cpu.swap(0xAB))
	assert.Equal(t, uint8(0), cpu.f)

	cpu.f = 0
	assert.Equal(t, uint8(0), cpu.swap(0))
	assert.Equal(t, uint8(zeroFlag), cpu.f)
}

func TestCPU_daa(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc         string
		initialFlags Flag
		a            uint8
		want         uint8
		flags        Flag
	}{
		{desc: "sets zero flag", a: 0, want: 0, flags: zeroFlag},
		{desc: "after add, corrects a stray low nibble", a: 0x7D, want: 0x83},
		{desc: "after add, corrects a stray high nibble", a: 0xA1, want: 0x01, flags: carryFlag},
		{desc: "after add, corrects both nibbles", a: 0xAA, want: 0x10, flags: carryFlag},
		{desc: "after sub with half carry, undoes the low correction", initialFlags: subFlag | halfCarryFlag, a: 0x83, want: 0x7D, flags: subFlag},
		{desc: "after sub with carry, undoes the high correction", initialFlags: subFlag | carryFlag, a: 0xA1, want: 0x41, flags: subFlag | carryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = uint8(tC.initialFlags)
			cpu.a = tC.a
			cpu.daa()
			assert.Equal(t, tC.want, cpu.a)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_bitTest(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc    string
		initial Flag
		idx     uint8
		arg     uint8
		flags   Flag
	}{
		{desc: "sets zero flag when the bit is clear", idx: 0, arg: 0xF0, flags: zeroFlag | halfCarryFlag},
		{desc: "resets zero flag when the bit is set", initial: zeroFlag, idx: 7, arg: 0x80, flags: halfCarryFlag},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.f = uint8(tC.initial)
			cpu.bitTest(tC.idx, tC.arg)
			assert.Equal(t, uint8(tC.flags), cpu.f)
		})
	}
}

func TestCPU_setAndRes(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	assert.Equal(t, uint8(0xF1), cpu.set(0, 0xF0))
	assert.Equal(t, uint8(0x80), cpu.set(7, 0))
	assert.Equal(t, uint8(0xF0), cpu.res(0, 0xF0))
	assert.Equal(t, uint8(0), cpu.res(7, 0x80))
}

func TestCPU_jr(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)

	testCases := []struct {
		desc string
		n    int8
		pc   uint16
		want uint16
	}{
		{desc: "jumps back", n: -2, pc: 0xC000, want: 0xBFFE},
		{desc: "jumps back further", n: -16, pc: 0xC000, want: 0xBFF0},
		{desc: "jumps forward", n: 16, pc: 0xC000, want: 0xC010},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			cpu.pc = tC.pc
			cpu.jr(tC.n)
			assert.Equal(t, tC.want, cpu.pc)
		})
	}
}
