package cpu

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrochip8/internal/opcode"
)

var (
	// ErrStackOverflow is returned when a call exceeds the return stack capacity.
	ErrStackOverflow = errors.New("return stack overflow")
	// ErrStackUnderflow is returned when a return is executed with an empty stack.
	ErrStackUnderflow = errors.New("return stack underflow")
)

// FaultError is a fatal error of an execution step. It identifies the
// address and the instruction word that caused it.
type FaultError struct {
	Address uint16
	Opcode  opcode.Instruction
	Err     error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault at $%04X executing %04X: %s", e.Address, uint16(e.Opcode), e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// UnrecognizedOpcode describes an instruction word that no operation claims.
type UnrecognizedOpcode struct {
	Address uint16
	Opcode  opcode.Instruction
}

func (u UnrecognizedOpcode) String() string {
	return fmt.Sprintf("unrecognized opcode %04X at $%04X", uint16(u.Opcode), u.Address)
}
