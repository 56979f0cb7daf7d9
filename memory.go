package chip8vm

const (
	MemorySize      = 4096
	StartAddress    = 0x200
	InstructionSize = 2

	addressMask = MemorySize - 1
	glyphSize   = 5
)

// font is the built-in hex digit sprite table, 5 bytes per glyph.
var font = [16 * glyphSize]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Memory is the 4 KiB address space of the machine.
type Memory [MemorySize]uint8

// clear zeroes the whole address space and reinstalls the font.
func (mem *Memory) clear() {
	*mem = Memory{}
	copy(mem[:], font[:])
}

// loadROM copies a program to StartAddress. Nothing is written if the
// program does not fit.
func (mem *Memory) loadROM(rom []byte) error {
	if len(rom) > MemorySize-StartAddress {
		return ErrMemoryOverflow
	}
	copy(mem[StartAddress:], rom)
	return nil
}

func (mem *Memory) fetch(pc uint16) Instruction {
	return Decode(mem[pc], mem[pc+1])
}

// read and write wrap the address into the 4 KiB space.
func (mem *Memory) read(addr uint16) uint8 {
	return mem[addr&addressMask]
}

func (mem *Memory) write(addr uint16, val uint8) {
	mem[addr&addressMask] = val
}
