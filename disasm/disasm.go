// Package disasm renders CHIP-8 instruction words as assembly text.
// It accepts exactly the words that the interpreter executes; every other
// word is shown as XXXX followed by its hex bytes.
package disasm

import (
	"fmt"
	"strings"

	"github.com/p47t/chip8vm"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Instruction returns the assembly text for one instruction word.
func Instruction(b1, b2 uint8) string {
	in := chip8vm.Decode(b1, b2)
	if !in.Defined() {
		return unknown(in)
	}

	vx := register(in.X())
	vy := register(in.Y())

	switch in.Op() {
	case 0x0:
		if in.B2 == 0xE0 {
			return format(chip8.Cls)
		}
		return format(chip8.Ret)
	case 0x1:
		return format(chip8.Jp, address(in.NNN()))
	case 0x2:
		return format(chip8.Call, address(in.NNN()))
	case 0x3:
		return format(chip8.Se, vx, immediate(in.KK()))
	case 0x4:
		return format(chip8.Sne, vx, immediate(in.KK()))
	case 0x5:
		return format(chip8.Se, vx, vy)
	case 0x6:
		return format(chip8.Ld, vx, immediate(in.KK()))
	case 0x7:
		return format(chip8.Add, vx, immediate(in.KK()))
	case 0x8:
		return arithmetic(in, vx, vy)
	case 0x9:
		return format(chip8.Sne, vx, vy)
	case 0xA:
		return format(chip8.Ld, "I", address(in.NNN()))
	case 0xB:
		return format(chip8.Jp, "V0", address(in.NNN()))
	case 0xC:
		return format(chip8.Rnd, vx, immediate(in.KK()))
	case 0xD:
		return format(chip8.Drw, vx, vy, fmt.Sprintf("0x%X", in.N()))
	case 0xE:
		if in.B2 == 0x9E {
			return format(chip8.Skp, vx)
		}
		return format(chip8.Sknp, vx)
	default:
		return misc(in, vx)
	}
}

func arithmetic(in chip8vm.Instruction, vx, vy string) string {
	switch in.N() {
	case 0x0:
		return format(chip8.Ld, vx, vy)
	case 0x1:
		return format(chip8.Or, vx, vy)
	case 0x2:
		return format(chip8.And, vx, vy)
	case 0x3:
		return format(chip8.Xor, vx, vy)
	case 0x4:
		return format(chip8.Add, vx, vy)
	case 0x5:
		return format(chip8.Sub, vx, vy)
	case 0x6:
		return format(chip8.Shr, vx, "<"+vy+">")
	case 0x7:
		return format(chip8.Subn, vx, vy)
	default:
		return format(chip8.Shl, vx, "<"+vy+">")
	}
}

func misc(in chip8vm.Instruction, vx string) string {
	switch in.B2 {
	case 0x07:
		return format(chip8.Ld, vx, "DT")
	case 0x0A:
		return format(chip8.Ld, vx, "K")
	case 0x15:
		return format(chip8.Ld, "DT", vx)
	case 0x18:
		return format(chip8.Ld, "ST", vx)
	case 0x1E:
		return format(chip8.Add, "I", vx)
	case 0x29:
		return format(chip8.Ld, "F", vx)
	case 0x33:
		return format(chip8.Ld, "B", vx)
	case 0x55:
		return format(chip8.Ld, "[I]", vx)
	default:
		return format(chip8.Ld, vx, "[I]")
	}
}

func format(ins *chip8.Instruction, operands ...string) string {
	name := strings.ToUpper(ins.Name)
	if len(operands) == 0 {
		return name
	}
	return fmt.Sprintf("%-4s %s", name, strings.Join(operands, ", "))
}

func unknown(in chip8vm.Instruction) string {
	return fmt.Sprintf("XXXX %02X%02X", in.B1, in.B2)
}

func register(r uint8) string {
	return fmt.Sprintf("V%X", r)
}

func immediate(kk uint8) string {
	return fmt.Sprintf("0x%02X", kk)
}

func address(nnn uint16) string {
	return fmt.Sprintf("0x%03X", nnn)
}

// Window disassembles the 2n+1 instructions centered on pc. The line for pc
// is marked with '>'. Addresses whose word would not fit in memory are left
// out.
func Window(mem *chip8vm.Memory, pc uint16, n int) []string {
	lines := make([]string, 0, 2*n+1)
	for i := -n; i <= n; i++ {
		addr := int(pc) + i*chip8vm.InstructionSize
		if addr < 0 || addr > chip8vm.MemorySize-chip8vm.InstructionSize {
			continue
		}
		marker := "  "
		if i == 0 {
			marker = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%03X %s", marker, addr, Instruction(mem[addr], mem[addr+1])))
	}
	return lines
}
