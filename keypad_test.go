package chip8vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestSystem_KeypadPress(t *testing.T) {
	tests := []struct {
		name    string
		pressed uint16
		value   uint8
		waiting bool
	}{
		{"single key", 1 << 5, 5, false},
		{"lowest key wins", 1<<0xB | 1<<3 | 1<<9, 3, false},
		{"key zero", 1, 0, false},
		{"nothing pressed", 0, 0xEE, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newTestSystem(t, 0xF40A)
			sys.cpu.V[4] = 0xEE
			tickN(t, sys, 0, 1)

			waiting, reg := sys.Waiting()
			assert.True(t, waiting)
			assert.Equal(t, uint8(4), reg)

			sys.KeypadPress(tt.pressed)
			waiting, _ = sys.Waiting()
			assert.Equal(t, tt.waiting, waiting)
			assert.Equal(t, tt.value, sys.cpu.V[4])
		})
	}
}

func TestSystem_KeypadPressWithoutWait(t *testing.T) {
	sys := newTestSystem(t)
	before := sys.cpu

	sys.KeypadPress(0xFFFF)
	assert.Equal(t, before, sys.cpu)
}

func TestSystem_KeyWaitStall(t *testing.T) {
	sys := newTestSystem(t, 0xF50A, 0x6101)
	tickN(t, sys, 0, 1)
	assert.Equal(t, uint16(0x202), sys.cpu.PC)

	tickN(t, sys, 0xFFFF, 3)
	assert.Equal(t, uint16(0x202), sys.cpu.PC, "held keys do not resolve the wait")
	assert.Equal(t, uint8(0), sys.cpu.V[1])

	sys.KeypadPress(1 << 5)
	assert.Equal(t, uint8(5), sys.cpu.V[5])

	tickN(t, sys, 0, 1)
	assert.Equal(t, uint8(1), sys.cpu.V[1])
	assert.Equal(t, uint16(0x204), sys.cpu.PC)
}

func TestSystem_KeyWaitAdvance(t *testing.T) {
	sys := New(NewRandom(1), WithKeyWaitPolicy(KeyWaitAdvance))
	assert.NoError(t, sys.Load(program(0xF50A, 0x6101)))

	tickN(t, sys, 0, 2)
	assert.Equal(t, uint8(1), sys.cpu.V[1])
	assert.Equal(t, uint16(0x204), sys.cpu.PC)

	waiting, _ := sys.Waiting()
	assert.True(t, waiting)
	sys.KeypadPress(1 << 0xC)
	assert.Equal(t, uint8(0xC), sys.cpu.V[5])
}

func TestKeypad_Update(t *testing.T) {
	var k Keypad

	assert.Equal(t, uint16(0b0101), k.Update(0b0101))
	assert.Equal(t, uint16(0), k.Update(0b0101), "held keys are not pressed again")
	assert.Equal(t, uint16(0b1000), k.Update(0b1100))
	assert.Equal(t, uint16(0b1100), k.Down())
	assert.Equal(t, uint16(0), k.Update(0))
	assert.Equal(t, uint16(0b0100), k.Update(0b0100))
}

func TestParseKeyWaitPolicy(t *testing.T) {
	p, ok := ParseKeyWaitPolicy("stall")
	assert.True(t, ok)
	assert.Equal(t, KeyWaitStall, p)

	p, ok = ParseKeyWaitPolicy("advance")
	assert.True(t, ok)
	assert.Equal(t, KeyWaitAdvance, p)
	assert.Equal(t, "advance", p.String())

	_, ok = ParseKeyWaitPolicy("spin")
	assert.False(t, ok)
}
