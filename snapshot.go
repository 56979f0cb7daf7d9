package chip8vm

// Snapshot is a copy of the observable machine state. It shares nothing with
// the System it was taken from.
type Snapshot struct {
	CPU     CPU
	Memory  Memory
	Display Framebuffer

	DelayTimer     uint8
	SoundTimer     uint8
	DisplayChanged bool
	SoundActive    bool

	KeyWait         bool
	KeyWaitRegister uint8

	Quirks Quirks
	Fault  error
}

// Snapshot copies the machine state.
func (sys *System) Snapshot() Snapshot {
	return Snapshot{
		CPU:             sys.cpu,
		Memory:          sys.mem,
		Display:         sys.gfx.buffer,
		DelayTimer:      sys.delayTimer,
		SoundTimer:      sys.soundTimer,
		DisplayChanged:  sys.gfx.dirty,
		SoundActive:     sys.soundActive,
		KeyWait:         sys.keyWait,
		KeyWaitRegister: sys.keyWaitReg,
		Quirks:          sys.quirks,
		Fault:           sys.fault,
	}
}

// Cycles returns the number of instructions executed since the last reset.
func (cpu *CPU) Cycles() int64 {
	return cpu.cycles
}
