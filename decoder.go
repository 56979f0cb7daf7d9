package chip8vm

// Instruction is one decoded 16-bit instruction word.
// B1 is fetched from the lower address.
type Instruction struct {
	B1, B2 uint8
}

// Decode splits two raw bytes into an instruction.
func Decode(b1, b2 uint8) Instruction {
	return Instruction{B1: b1, B2: b2}
}

// Word returns the big-endian opcode word.
func (in Instruction) Word() uint16 {
	return uint16(in.B1)<<8 | uint16(in.B2)
}

// Nibbles returns the four 4-bit fields, most significant first.
func (in Instruction) Nibbles() (uint8, uint8, uint8, uint8) {
	return in.B1 >> 4, in.B1 & 0x0F, in.B2 >> 4, in.B2 & 0x0F
}

func (in Instruction) Op() uint8 { return in.B1 >> 4 }
func (in Instruction) X() uint8  { return in.B1 & 0x0F }
func (in Instruction) Y() uint8  { return in.B2 >> 4 }
func (in Instruction) N() uint8  { return in.B2 & 0x0F }

// KK is the 8-bit immediate in the low byte.
func (in Instruction) KK() uint8 { return in.B2 }

// NNN is the 12-bit address in the bottom three nibbles.
func (in Instruction) NNN() uint16 {
	return NNN(in.B1, in.B2)
}

// NNN extracts the 12-bit address operand from an instruction.
func NNN(b1, b2 uint8) uint16 {
	return (uint16(b1)<<8 | uint16(b2)) & 0x0FFF
}

// Defined reports whether the word belongs to the instruction table.
func (in Instruction) Defined() bool {
	switch in.Op() {
	case 0x0:
		return in.B2 == 0xE0 || in.B2 == 0xEE
	case 0x5, 0x9:
		return in.N() == 0x0
	case 0x8:
		switch in.N() {
		case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0xE:
			return true
		}
		return false
	case 0xE:
		return in.B2 == 0x9E || in.B2 == 0xA1
	case 0xF:
		switch in.B2 {
		case 0x07, 0x0A, 0x15, 0x18, 0x1E, 0x29, 0x33, 0x55, 0x65:
			return true
		}
		return false
	}
	return true
}
