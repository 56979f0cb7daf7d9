package chip8vm

import (
	"fmt"
	"io"
)

const (
	RegisterCount = 16
	StackSize     = 16
	RegCarry      = 0xF
)

type CPU struct {
	V     [RegisterCount]uint8 // general-purpose registers
	I     uint16               // Index register
	PC    uint16               // program counter
	SP    uint8                // stack pointer, number of used slots
	Stack [StackSize]uint16

	cycles int64
}

type controlKind uint8

const (
	advance controlKind = iota
	skipNext
	jumpTo
)

// control tells the tick cycle how to move the program counter after an
// opcode has executed.
type control struct {
	kind controlKind
	addr uint16
}

var (
	next = control{kind: advance}
	skip = control{kind: skipNext}
)

func jump(addr uint16) control {
	return control{kind: jumpTo, addr: addr}
}

// apply returns the program counter following pc.
func (c control) apply(pc uint16) uint16 {
	switch c.kind {
	case skipNext:
		return pc + 2*InstructionSize
	case jumpTo:
		return c.addr
	default:
		return pc + InstructionSize
	}
}

func (cpu *CPU) Print(w io.Writer) {
	fmt.Fprintf(w, "Cycles #%d\n", cpu.cycles)
	fmt.Fprintf(w, "PC = 0x%04x, SP = %d, I = 0x%04x\n", cpu.PC, cpu.SP, cpu.I)
	for i := 0; i < len(cpu.V); i += 4 {
		fmt.Fprintf(w, "V%X = 0x%02x, V%X = 0x%02x, V%X = 0x%02x, V%X = 0x%02x\n",
			i, cpu.V[i], i+1, cpu.V[i+1], i+2, cpu.V[i+2], i+3, cpu.V[i+3])
	}
}

func (cpu *CPU) reset() {
	*cpu = CPU{PC: StartAddress}
}

// execute runs one decoded instruction. keys is the bitmask of keys
// currently held down.
func (cpu *CPU) execute(mem *Memory, gfx *Graphics, sys *System, in Instruction, keys uint16) (control, error) {
	x, y := in.X(), in.Y()

	switch in.Op() {
	case 0x0:
		switch in.B2 {
		case 0xE0: // 00E0: Clears the screen
			return cpu.cls(gfx), nil
		case 0xEE: // 00EE: Returns from subroutine
			return cpu.ret()
		}

	case 0x1: // 1NNN: Jumps to address NNN
		return cpu.jpAddr(in.NNN()), nil

	case 0x2: // 2NNN: Calls subroutine at NNN
		return cpu.callAddr(in.NNN())

	case 0x3: // 3XNN: Skips the next instruction if VX equals NN
		return cpu.seVxByte(x, in.KK()), nil

	case 0x4: // 4XNN: Skips the next instruction if VX doesn't equal NN
		return cpu.sneVxByte(x, in.KK()), nil

	case 0x5:
		if in.N() == 0x0 { // 5XY0: Skips the next instruction if VX equals VY
			return cpu.seVxVy(x, y), nil
		}

	case 0x6: // 6XNN: Sets VX to NN
		return cpu.ldVxByte(x, in.KK()), nil

	case 0x7: // 7XNN: Adds NN to VX, carry flag untouched
		return cpu.addVxByte(x, in.KK()), nil

	case 0x8:
		switch in.N() {
		case 0x0: // 8XY0: Sets VX to the value of VY
			return cpu.ldVxVy(x, y), nil
		case 0x1: // 8XY1: Sets VX to VX OR VY
			return cpu.orVxVy(x, y), nil
		case 0x2: // 8XY2: Sets VX to VX AND VY
			return cpu.andVxVy(x, y), nil
		case 0x3: // 8XY3: Sets VX to VX XOR VY
			return cpu.xorVxVy(x, y), nil
		case 0x4: // 8XY4: Adds VY to VX. VF is 1 on carry
			return cpu.addVxVy(x, y), nil
		case 0x5: // 8XY5: VY is subtracted from VX. VF is 1 when there is no borrow
			return cpu.subVxVy(x, y), nil
		case 0x6: // 8XY6: Shifts right by one. VF is the bit shifted out
			return cpu.shrVx(x, y, sys.quirks), nil
		case 0x7: // 8XY7: Sets VX to VY minus VX. VF is 1 when there is no borrow
			return cpu.subnVxVy(x, y), nil
		case 0xE: // 8XYE: Shifts left by one. VF is the bit shifted out
			return cpu.shlVx(x, y, sys.quirks), nil
		}

	case 0x9:
		if in.N() == 0x0 { // 9XY0: Skips the next instruction if VX doesn't equal VY
			return cpu.sneVxVy(x, y), nil
		}

	case 0xA: // ANNN: Sets I to the address NNN
		return cpu.ldIAddr(in.NNN()), nil

	case 0xB: // BNNN: Jumps to the address NNN plus V0
		return cpu.jpV0Addr(in.NNN()), nil

	case 0xC: // CXNN: Sets VX to a random number and NN
		return cpu.rndVxByte(sys.rng, x, in.KK()), nil

	case 0xD: // DXYN: Draws an 8xN sprite at (VX, VY)
		return cpu.drwVxVyNibble(mem, gfx, x, y, in.N()), nil

	case 0xE:
		switch in.B2 {
		case 0x9E: // EX9E: Skips the next instruction if the key stored in VX is pressed
			return cpu.skpVx(keys, x), nil
		case 0xA1: // EXA1: Skips the next instruction if the key stored in VX isn't pressed
			return cpu.sknpVx(keys, x), nil
		}

	case 0xF:
		switch in.B2 {
		case 0x07: // FX07: Sets VX to the value of the delay timer
			return cpu.ldVxDT(sys, x), nil
		case 0x0A: // FX0A: A key press is awaited and then stored in VX
			return cpu.ldVxK(sys, x), nil
		case 0x15: // FX15: Sets the delay timer to VX
			return cpu.ldDTVx(sys, x), nil
		case 0x18: // FX18: Sets the sound timer to VX
			return cpu.ldSTVx(sys, x), nil
		case 0x1E: // FX1E: Adds VX to I
			return cpu.addIVx(x), nil
		case 0x29: // FX29: Sets I to the location of the font glyph for VX
			return cpu.ldFVx(x), nil
		case 0x33: // FX33: Stores the BCD representation of VX at I, I+1 and I+2
			return cpu.ldBVx(mem, x), nil
		case 0x55: // FX55: Stores V0 to VX in memory starting at address I
			return cpu.ldIVx(mem, x, sys.quirks), nil
		case 0x65: // FX65: Fills V0 to VX with values from memory starting at address I
			return cpu.ldVxI(mem, x, sys.quirks), nil
		}
	}

	return control{}, &BadOperationError{B1: in.B1, B2: in.B2}
}

func (cpu *CPU) push(addr uint16) error {
	if int(cpu.SP) >= len(cpu.Stack) {
		return ErrFullStack
	}
	cpu.Stack[cpu.SP] = addr
	cpu.SP++
	return nil
}

func (cpu *CPU) pop() (uint16, error) {
	if cpu.SP == 0 {
		return 0, ErrEmptyStack
	}
	cpu.SP--
	return cpu.Stack[cpu.SP], nil
}

func (cpu *CPU) cls(gfx *Graphics) control {
	gfx.clear()
	return next
}

func (cpu *CPU) ret() (control, error) {
	addr, err := cpu.pop()
	if err != nil {
		return control{}, err
	}
	return jump(addr), nil
}

func (cpu *CPU) jpAddr(addr uint16) control {
	return jump(addr)
}

func (cpu *CPU) callAddr(addr uint16) (control, error) {
	if err := cpu.push(cpu.PC + InstructionSize); err != nil {
		return control{}, err
	}
	return jump(addr), nil
}

func (cpu *CPU) seVxByte(x, val uint8) control {
	if cpu.V[x] == val {
		return skip
	}
	return next
}

func (cpu *CPU) sneVxByte(x, val uint8) control {
	if cpu.V[x] != val {
		return skip
	}
	return next
}

func (cpu *CPU) seVxVy(x, y uint8) control {
	if cpu.V[x] == cpu.V[y] {
		return skip
	}
	return next
}

func (cpu *CPU) ldVxByte(x, val uint8) control {
	cpu.V[x] = val
	return next
}

func (cpu *CPU) addVxByte(x, val uint8) control {
	cpu.V[x] += val
	return next
}

func (cpu *CPU) ldVxVy(x, y uint8) control {
	cpu.V[x] = cpu.V[y]
	return next
}

func (cpu *CPU) orVxVy(x, y uint8) control {
	cpu.V[x] |= cpu.V[y]
	return next
}

func (cpu *CPU) andVxVy(x, y uint8) control {
	cpu.V[x] &= cpu.V[y]
	return next
}

func (cpu *CPU) xorVxVy(x, y uint8) control {
	cpu.V[x] ^= cpu.V[y]
	return next
}

// The flag is written after the result so that VF holds the flag when X is F.

func (cpu *CPU) addVxVy(x, y uint8) control {
	sum := uint16(cpu.V[x]) + uint16(cpu.V[y])
	cpu.V[x] = uint8(sum)
	cpu.setCarry(uint8(sum >> 8))
	return next
}

func (cpu *CPU) subVxVy(x, y uint8) control {
	vx, vy := cpu.V[x], cpu.V[y]
	cpu.V[x] = vx - vy
	cpu.setCarry(noBorrow(vx, vy))
	return next
}

func (cpu *CPU) subnVxVy(x, y uint8) control {
	vx, vy := cpu.V[x], cpu.V[y]
	cpu.V[x] = vy - vx
	cpu.setCarry(noBorrow(vy, vx))
	return next
}

func noBorrow(minuend, subtrahend uint8) uint8 {
	if minuend >= subtrahend {
		return 1
	}
	return 0
}

func (cpu *CPU) setCarry(carry uint8) {
	cpu.V[RegCarry] = carry
}

func (cpu *CPU) shiftSource(x, y uint8, q Quirks) uint8 {
	if q.ShiftFromVY {
		return cpu.V[y]
	}
	return cpu.V[x]
}

func (cpu *CPU) shrVx(x, y uint8, q Quirks) control {
	val := cpu.shiftSource(x, y, q)
	cpu.V[x] = val >> 1
	cpu.setCarry(val & 0x01)
	return next
}

func (cpu *CPU) shlVx(x, y uint8, q Quirks) control {
	val := cpu.shiftSource(x, y, q)
	cpu.V[x] = val << 1
	cpu.setCarry(val >> 7)
	return next
}

func (cpu *CPU) sneVxVy(x, y uint8) control {
	if cpu.V[x] != cpu.V[y] {
		return skip
	}
	return next
}

func (cpu *CPU) ldIAddr(index uint16) control {
	cpu.I = index
	return next
}

func (cpu *CPU) jpV0Addr(addr uint16) control {
	return jump(addr + uint16(cpu.V[0]))
}

func (cpu *CPU) rndVxByte(rng Random, x, val uint8) control {
	cpu.V[x] = uint8(rng.Uint32()) & val
	return next
}

func (cpu *CPU) drwVxVyNibble(mem *Memory, gfx *Graphics, x, y, h uint8) control {
	// Each row of 8 pixels is read as bit-coded starting from memory location I;
	// I value doesn't change after the execution of this instruction.
	if hit := gfx.draw(mem, cpu.I, cpu.V[x], cpu.V[y], h); hit {
		cpu.setCarry(1)
	} else {
		cpu.setCarry(0)
	}
	return next
}

func keyDown(keys uint16, key uint8) bool {
	return keys&(1<<(key&0x0F)) != 0
}

func (cpu *CPU) skpVx(keys uint16, x uint8) control {
	if keyDown(keys, cpu.V[x]) {
		return skip
	}
	return next
}

func (cpu *CPU) sknpVx(keys uint16, x uint8) control {
	if !keyDown(keys, cpu.V[x]) {
		return skip
	}
	return next
}

func (cpu *CPU) ldVxDT(sys *System, x uint8) control {
	cpu.V[x] = sys.delayTimer
	return next
}

// ldVxK only arms the wait latch; KeypadPress stores the key later.
func (cpu *CPU) ldVxK(sys *System, x uint8) control {
	sys.keyWait = true
	sys.keyWaitReg = x
	return next
}

func (cpu *CPU) ldDTVx(sys *System, x uint8) control {
	sys.delayTimer = cpu.V[x]
	return next
}

func (cpu *CPU) ldSTVx(sys *System, x uint8) control {
	sys.soundTimer = cpu.V[x]
	return next
}

func (cpu *CPU) addIVx(x uint8) control {
	cpu.I += uint16(cpu.V[x])
	return next
}

func (cpu *CPU) ldFVx(x uint8) control {
	cpu.I = uint16(cpu.V[x]&0x0F) * glyphSize
	return next
}

func (cpu *CPU) ldBVx(mem *Memory, x uint8) control {
	val := cpu.V[x]
	mem.write(cpu.I, val/100)
	mem.write(cpu.I+1, (val/10)%10)
	mem.write(cpu.I+2, val%10)
	return next
}

func (cpu *CPU) ldIVx(mem *Memory, x uint8, q Quirks) control {
	for i := uint8(0); i <= x; i++ {
		mem.write(cpu.I+uint16(i), cpu.V[i])
	}
	if q.IncrementIndex {
		cpu.I += uint16(x) + 1
	}
	return next
}

func (cpu *CPU) ldVxI(mem *Memory, x uint8, q Quirks) control {
	for i := uint8(0); i <= x; i++ {
		cpu.V[i] = mem.read(cpu.I + uint16(i))
	}
	if q.IncrementIndex {
		cpu.I += uint16(x) + 1
	}
	return next
}
