package config

import (
	"testing"

	"github.com/p47t/chip8vm"
	"github.com/p47t/chip8vm/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestCreateSystem(t *testing.T) {
	sys := CreateSystem(options.Program{
		Seed:        5,
		ShiftFromVY: true,
		KeyWait:     "advance",
	})

	assert.Equal(t, chip8vm.Quirks{ShiftFromVY: true}, sys.Quirks())
	assert.Equal(t, chip8vm.KeyWaitAdvance, sys.KeyWaitPolicy())
	assert.Equal(t, uint16(chip8vm.StartAddress), sys.CPU().PC)
}

func TestCreateSystem_Seeded(t *testing.T) {
	rom := []byte{0xC0, 0xFF, 0xC1, 0xFF, 0xC2, 0xFF}
	run := func() [3]uint8 {
		sys := CreateSystem(options.Program{Seed: 1234, KeyWait: "stall"})
		assert.NoError(t, sys.Load(rom))
		for range 3 {
			assert.NoError(t, sys.Tick(0))
		}
		cpu := sys.CPU()
		return [3]uint8{cpu.V[0], cpu.V[1], cpu.V[2]}
	}

	assert.Equal(t, run(), run())
}

func TestRunnerConfig(t *testing.T) {
	cfg := RunnerConfig(options.Program{TickRate: 1200, Speed: 0.5, Paused: true})
	assert.Equal(t, chip8vm.RunnerConfig{TickRate: 1200, FrameRate: chip8vm.TimerHz, Speed: 0.5, Paused: true}, cfg)

	cfg = RunnerConfig(options.Program{})
	assert.Equal(t, chip8vm.DefaultRunnerConfig(), cfg)
}

func TestCreateLogger(t *testing.T) {
	assert.NotNil(t, CreateLogger(false, false))
	assert.NotNil(t, CreateLogger(true, false))
	assert.NotNil(t, CreateLogger(false, true))
}
