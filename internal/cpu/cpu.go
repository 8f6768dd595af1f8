// Package cpu implements the CHIP-8 instruction execution engine.
//
// The engine is a strictly sequential interpreter: the host calls Step once
// per emulated instruction and UpdateTimers on its own, slower cadence. The
// only suspension point is the wait-for-key instruction, which leaves all
// state untouched while the input latch is empty so that the next Step
// retries it.
package cpu

import (
	"github.com/retroenv/retrochip8/internal/bus"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/opcode"
	"github.com/retroenv/retrochip8/internal/random"
	"github.com/retroenv/retrogolib/log"
)

const (
	// RegisterCount is the number of general purpose registers.
	RegisterCount = 16
	// StackSize is the capacity of the return address stack.
	StackSize = 16
	// FlagRegister is the index of the register that receives carry, borrow
	// and collision results.
	FlagRegister = 0xF
	// instructionSize is the size of an instruction in bytes.
	instructionSize = 2
)

// Result is the outcome of an execution step that did not fail.
type Result int

const (
	// Executed means that an operation completed its effect.
	Executed Result = iota
	// WaitingForKey means that the wait-for-key operation found an empty
	// input latch and the step changed no state.
	WaitingForKey
	// Unrecognized means that the instruction word did not decode to an
	// operation. It was skipped like a no-op.
	Unrecognized
)

func (r Result) String() string {
	switch r {
	case Executed:
		return "executed"
	case WaitingForKey:
		return "waiting for key"
	case Unrecognized:
		return "unrecognized"
	default:
		return "unknown"
	}
}

// Quirks select historical variants of ambiguous instructions.
type Quirks struct {
	// ShiftUsesVY shifts Vy into Vx for 8xy6 and 8xyE instead of shifting Vx in place.
	ShiftUsesVY bool
	// LoadStoreIncrementsI leaves I pointing behind the last register
	// transferred by Fx55 and Fx65.
	LoadStoreIncrementsI bool
}

// Registers is the register file of the virtual machine.
type Registers struct {
	V          [RegisterCount]uint8
	I          uint16
	PC         uint16
	SP         uint8
	Stack      [StackSize]uint16
	DelayTimer uint8
	SoundTimer uint8
}

// CPU executes instructions from memory against the bus.
type CPU struct {
	Registers

	logger *log.Logger
	mem    *memory.Memory
	bus    *bus.Bus
	rnd    random.Source
	quirks Quirks

	redraw           bool
	cycles           uint64
	unrecognized     uint64
	lastUnrecognized UnrecognizedOpcode
}

// Option configures a CPU.
type Option func(*CPU)

// WithRandom sets the randomness source of the RND instruction.
func WithRandom(src random.Source) Option {
	return func(c *CPU) {
		c.rnd = src
	}
}

// WithQuirks enables historical instruction variants.
func WithQuirks(q Quirks) Option {
	return func(c *CPU) {
		c.quirks = q
	}
}

// New returns a CPU with the program counter at the program start address.
func New(logger *log.Logger, mem *memory.Memory, b *bus.Bus, opts ...Option) *CPU {
	c := &CPU{
		logger: logger,
		mem:    mem,
		bus:    b,
	}
	c.PC = memory.ProgramStart

	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = random.New()
	}
	return c
}

// Step fetches, decodes and executes a single instruction. A returned error
// is fatal and wraps a *FaultError; the state of the CPU is undefined
// afterwards.
func (c *CPU) Step() (Result, error) {
	address := c.PC

	word, err := c.mem.ReadWord(address)
	if err != nil {
		return Executed, &FaultError{Address: address, Err: err}
	}
	ins := opcode.Instruction(word)

	op, ok := opcode.Decode(ins)
	if !ok {
		c.unrecognized++
		c.lastUnrecognized = UnrecognizedOpcode{Address: address, Opcode: ins}
		c.logger.Warn("Skipping unrecognized opcode",
			log.Hex("address", address),
			log.Hex("opcode", word))
		c.PC += instructionSize
		c.cycles++
		return Unrecognized, nil
	}

	result, err := handlers[op.ID](c, ins)
	if err != nil {
		return result, &FaultError{Address: address, Opcode: ins, Err: err}
	}
	if result == Executed {
		c.cycles++
	}
	return result, nil
}

// UpdateTimers decrements the delay and sound timers if they are not zero.
func (c *CPU) UpdateTimers() {
	if c.DelayTimer > 0 {
		c.DelayTimer--
	}
	if c.SoundTimer > 0 {
		c.SoundTimer--
	}
}

// ShouldRedraw returns whether a draw or clear instruction executed since
// the last call.
func (c *CPU) ShouldRedraw() bool {
	redraw := c.redraw
	c.redraw = false
	return redraw
}

// ShouldBeep returns whether the sound timer is active.
func (c *CPU) ShouldBeep() bool {
	return c.SoundTimer > 0
}

// Cycles returns the number of instructions executed or skipped.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Unrecognized returns the number of unrecognized instruction words that
// were skipped.
func (c *CPU) Unrecognized() uint64 {
	return c.unrecognized
}

// LastUnrecognized returns the most recently skipped unrecognized
// instruction word.
func (c *CPU) LastUnrecognized() (UnrecognizedOpcode, bool) {
	return c.lastUnrecognized, c.unrecognized > 0
}

// Quirks returns the active instruction variants.
func (c *CPU) Quirks() Quirks {
	return c.quirks
}

// Reset restores the power-on register state. Memory and the framebuffer
// are not touched.
func (c *CPU) Reset() {
	c.Registers = Registers{PC: memory.ProgramStart}
	c.redraw = false
	c.cycles = 0
	c.unrecognized = 0
	c.lastUnrecognized = UnrecognizedOpcode{}
}

// next advances the program counter to the following instruction.
func (c *CPU) next() (Result, error) {
	c.PC += instructionSize
	return Executed, nil
}

// skipIf advances the program counter past the following instruction if
// the condition holds.
func (c *CPU) skipIf(condition bool) (Result, error) {
	if condition {
		c.PC += 2 * instructionSize
		return Executed, nil
	}
	return c.next()
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
