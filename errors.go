package chip8vm

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyStack is returned by RET when no call frame is on the stack.
	ErrEmptyStack = errors.New("tried to pop off empty stack")
	// ErrFullStack is returned by CALL when all stack slots are in use.
	ErrFullStack = errors.New("tried to push onto full stack")
	// ErrMemoryOverflow is returned when a program does not fit into memory.
	ErrMemoryOverflow = errors.New("memory overflowed")
)

// BadOperationError is returned for an instruction word that is not part of
// the instruction table.
type BadOperationError struct {
	B1, B2 uint8
}

func (e *BadOperationError) Error() string {
	return fmt.Sprintf("bad operation with bytes 0x%02X%02X", e.B1, e.B2)
}

// ProgramCounterError is returned when an instruction fetch would read past
// the end of memory.
type ProgramCounterError struct {
	PC uint16
}

func (e *ProgramCounterError) Error() string {
	return fmt.Sprintf("program counter out of bounds: 0x%04X", e.PC)
}
