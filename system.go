package chip8vm

import (
	"fmt"
	"os"
	"slices"
)

const (
	SystemHz = 600
	TimerHz  = 60
)

// System is the complete machine state. It is not safe for concurrent use;
// Runner serializes access for hosts that share it between goroutines.
type System struct {
	cpu CPU
	mem Memory
	gfx Graphics

	delayTimer  uint8
	soundTimer  uint8
	soundActive bool

	keyWait    bool
	keyWaitReg uint8

	rng     Random
	quirks  Quirks
	waitPol KeyWaitPolicy

	rom   []byte
	fault error
}

// Option configures a System at construction.
type Option func(*System)

// WithQuirks sets the initial interpreter quirks.
func WithQuirks(q Quirks) Option {
	return func(sys *System) { sys.quirks = q }
}

// WithKeyWaitPolicy sets how Tick behaves while FX0A waits for a key.
func WithKeyWaitPolicy(p KeyWaitPolicy) Option {
	return func(sys *System) { sys.waitPol = p }
}

// New returns a powered-on machine: memory cleared, font loaded and the
// program counter at StartAddress. rng feeds the RND opcode.
func New(rng Random, opts ...Option) *System {
	sys := &System{rng: rng}
	for _, opt := range opts {
		opt(sys)
	}
	sys.Reset()
	return sys
}

// Reset restores the power-on state and reinstalls the last loaded program.
// Quirks, key wait policy and the random source are kept.
func (sys *System) Reset() {
	sys.cpu.reset()
	sys.mem.clear()
	sys.gfx.clear()
	sys.gfx.setDirty(false)

	sys.delayTimer = 0
	sys.soundTimer = 0
	sys.soundActive = false
	sys.keyWait = false
	sys.keyWaitReg = 0
	sys.fault = nil

	// the stored program always fits, Load and Reload validated it
	_ = sys.mem.loadROM(sys.rom)
}

// Load writes a program image to StartAddress and restarts the CPU there,
// clearing a latched fault. Memory outside the image, the display and the
// timers are kept. An image that does not fit is rejected with
// ErrMemoryOverflow and nothing is written.
func (sys *System) Load(rom []byte) error {
	if err := sys.mem.loadROM(rom); err != nil {
		return err
	}
	sys.rom = slices.Clone(rom)
	sys.cpu.reset()
	sys.keyWait = false
	sys.keyWaitReg = 0
	sys.fault = nil
	return nil
}

// LoadFile reads a program image from disk and loads it.
func (sys *System) LoadFile(filename string) error {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading program file: %w", err)
	}
	return sys.Load(bytes)
}

// Reload replaces the program and resets the machine. On ErrMemoryOverflow
// the machine is left untouched.
func (sys *System) Reload(rom []byte) error {
	if len(rom) > MemorySize-StartAddress {
		return ErrMemoryOverflow
	}
	sys.rom = slices.Clone(rom)
	sys.Reset()
	return nil
}

// Tick runs one fetch, decode and execute cycle. keys is the bitmask of keys
// currently held, bit i for key i.
//
// A returned error is fatal: every following Tick returns the same error
// until the machine is reset or reloaded.
func (sys *System) Tick(keys uint16) error {
	if sys.fault != nil {
		return sys.fault
	}
	if sys.keyWait && sys.waitPol == KeyWaitStall {
		return nil
	}

	pc := sys.cpu.PC
	if int(pc) > MemorySize-InstructionSize {
		return sys.halt(&ProgramCounterError{PC: pc})
	}

	in := sys.mem.fetch(pc)
	ctl, err := sys.cpu.execute(&sys.mem, &sys.gfx, sys, in, keys)
	if err != nil {
		return sys.halt(err)
	}
	sys.cpu.PC = ctl.apply(pc)
	sys.cpu.cycles++
	return nil
}

func (sys *System) halt(err error) error {
	sys.fault = err
	return err
}

// Frame advances the 60 Hz timers. It also acknowledges the current display
// contents by clearing the display changed flag.
func (sys *System) Frame() {
	sys.gfx.setDirty(false)
	if sys.delayTimer > 0 {
		sys.delayTimer--
	}
	if sys.soundTimer > 0 {
		sys.soundTimer--
	}
	sys.soundActive = sys.soundTimer > 0
}

// Fault returns the error that halted the machine, if any.
func (sys *System) Fault() error {
	return sys.fault
}

// DisplayChanged reports whether the framebuffer was drawn to since the last
// frame step.
func (sys *System) DisplayChanged() bool {
	return sys.gfx.isDirty()
}

// SoundActive reports whether the sound timer was running after the last
// frame step.
func (sys *System) SoundActive() bool {
	return sys.soundActive
}

// Waiting reports whether FX0A is waiting for a key and the register that
// will receive it.
func (sys *System) Waiting() (bool, uint8) {
	return sys.keyWait, sys.keyWaitReg
}

func (sys *System) Framebuffer() Framebuffer {
	return sys.gfx.buffer
}

func (sys *System) CPU() CPU {
	return sys.cpu
}

func (sys *System) Quirks() Quirks {
	return sys.quirks
}

// SetQuirks changes the quirks; they apply from the next executed opcode.
func (sys *System) SetQuirks(q Quirks) {
	sys.quirks = q
}

func (sys *System) KeyWaitPolicy() KeyWaitPolicy {
	return sys.waitPol
}

func (sys *System) SetKeyWaitPolicy(p KeyWaitPolicy) {
	sys.waitPol = p
}
