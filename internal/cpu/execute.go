package cpu

import (
	"fmt"

	"github.com/retroenv/retrochip8/internal/bus"
	"github.com/retroenv/retrochip8/internal/memory"
	"github.com/retroenv/retrochip8/internal/opcode"
)

type handler func(c *CPU, ins opcode.Instruction) (Result, error)

// handlers is the execution side of the opcode table, indexed by operation.
var handlers = [opcode.Count]handler{
	opcode.Cls:     (*CPU).cls,
	opcode.Ret:     (*CPU).ret,
	opcode.Jp:      (*CPU).jp,
	opcode.Call:    (*CPU).call,
	opcode.SeByte:  (*CPU).seByte,
	opcode.SneByte: (*CPU).sneByte,
	opcode.SeReg:   (*CPU).seReg,
	opcode.LdByte:  (*CPU).ldByte,
	opcode.AddByte: (*CPU).addByte,
	opcode.LdReg:   (*CPU).ldReg,
	opcode.Or:      (*CPU).or,
	opcode.And:     (*CPU).and,
	opcode.Xor:     (*CPU).xor,
	opcode.AddReg:  (*CPU).addReg,
	opcode.Sub:     (*CPU).sub,
	opcode.Shr:     (*CPU).shr,
	opcode.Subn:    (*CPU).subn,
	opcode.Shl:     (*CPU).shl,
	opcode.SneReg:  (*CPU).sneReg,
	opcode.LdI:     (*CPU).ldI,
	opcode.JpV0:    (*CPU).jpV0,
	opcode.Rnd:     (*CPU).rndOp,
	opcode.Drw:     (*CPU).drw,
	opcode.Skp:     (*CPU).skp,
	opcode.Sknp:    (*CPU).sknp,
	opcode.LdVxDT:  (*CPU).ldVxDT,
	opcode.LdVxK:   (*CPU).ldVxK,
	opcode.LdDTVx:  (*CPU).ldDTVx,
	opcode.LdSTVx:  (*CPU).ldSTVx,
	opcode.AddIVx:  (*CPU).addIVx,
	opcode.LdF:     (*CPU).ldF,
	opcode.LdB:     (*CPU).ldB,
	opcode.LdMemVx: (*CPU).ldMemVx,
	opcode.LdVxMem: (*CPU).ldVxMem,
}

func (c *CPU) cls(_ opcode.Instruction) (Result, error) {
	c.bus.Display().Clear()
	c.redraw = true
	return c.next()
}

func (c *CPU) ret(_ opcode.Instruction) (Result, error) {
	if c.SP == 0 {
		return Executed, ErrStackUnderflow
	}
	c.SP--
	c.PC = c.Stack[c.SP]
	return Executed, nil
}

func (c *CPU) jp(ins opcode.Instruction) (Result, error) {
	c.PC = ins.NNN()
	return Executed, nil
}

func (c *CPU) call(ins opcode.Instruction) (Result, error) {
	if int(c.SP) >= StackSize {
		return Executed, ErrStackOverflow
	}
	c.Stack[c.SP] = c.PC + instructionSize
	c.SP++
	c.PC = ins.NNN()
	return Executed, nil
}

func (c *CPU) seByte(ins opcode.Instruction) (Result, error) {
	return c.skipIf(c.V[ins.X()] == ins.KK())
}

func (c *CPU) sneByte(ins opcode.Instruction) (Result, error) {
	return c.skipIf(c.V[ins.X()] != ins.KK())
}

func (c *CPU) seReg(ins opcode.Instruction) (Result, error) {
	return c.skipIf(c.V[ins.X()] == c.V[ins.Y()])
}

func (c *CPU) sneReg(ins opcode.Instruction) (Result, error) {
	return c.skipIf(c.V[ins.X()] != c.V[ins.Y()])
}

func (c *CPU) ldByte(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] = ins.KK()
	return c.next()
}

// addByte does not touch the flag register.
func (c *CPU) addByte(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] += ins.KK()
	return c.next()
}

func (c *CPU) ldReg(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] = c.V[ins.Y()]
	return c.next()
}

func (c *CPU) or(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] |= c.V[ins.Y()]
	return c.next()
}

func (c *CPU) and(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] &= c.V[ins.Y()]
	return c.next()
}

func (c *CPU) xor(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] ^= c.V[ins.Y()]
	return c.next()
}

// The arithmetic handlers below store the result before writing the flag
// register, so VF holds the flag when it is also the destination.

func (c *CPU) addReg(ins opcode.Instruction) (Result, error) {
	sum := uint16(c.V[ins.X()]) + uint16(c.V[ins.Y()])
	c.V[ins.X()] = uint8(sum)
	c.V[FlagRegister] = boolToFlag(sum > 0xFF)
	return c.next()
}

func (c *CPU) sub(ins opcode.Instruction) (Result, error) {
	x, y := c.V[ins.X()], c.V[ins.Y()]
	c.V[ins.X()] = x - y
	c.V[FlagRegister] = boolToFlag(x >= y)
	return c.next()
}

func (c *CPU) subn(ins opcode.Instruction) (Result, error) {
	x, y := c.V[ins.X()], c.V[ins.Y()]
	c.V[ins.X()] = y - x
	c.V[FlagRegister] = boolToFlag(y >= x)
	return c.next()
}

func (c *CPU) shiftSource(ins opcode.Instruction) uint8 {
	if c.quirks.ShiftUsesVY {
		return c.V[ins.Y()]
	}
	return c.V[ins.X()]
}

func (c *CPU) shr(ins opcode.Instruction) (Result, error) {
	value := c.shiftSource(ins)
	c.V[ins.X()] = value >> 1
	c.V[FlagRegister] = value & 0x01
	return c.next()
}

func (c *CPU) shl(ins opcode.Instruction) (Result, error) {
	value := c.shiftSource(ins)
	c.V[ins.X()] = value << 1
	c.V[FlagRegister] = value >> 7
	return c.next()
}

func (c *CPU) ldI(ins opcode.Instruction) (Result, error) {
	c.I = ins.NNN()
	return c.next()
}

func (c *CPU) jpV0(ins opcode.Instruction) (Result, error) {
	c.PC = ins.NNN() + uint16(c.V[0])
	return Executed, nil
}

func (c *CPU) rndOp(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] = c.rnd.Byte() & ins.KK()
	return c.next()
}

func (c *CPU) drw(ins opcode.Instruction) (Result, error) {
	sprite, err := c.mem.ReadRange(c.I, int(ins.N()))
	if err != nil {
		return Executed, fmt.Errorf("reading sprite: %w", err)
	}

	collision := c.bus.Display().DrawSprite(c.V[ins.X()], c.V[ins.Y()], sprite)
	c.V[FlagRegister] = boolToFlag(collision)
	c.redraw = true
	return c.next()
}

func (c *CPU) skp(ins opcode.Instruction) (Result, error) {
	return c.skipIf(c.bus.IsKeyPressed(bus.Key(c.V[ins.X()] & 0x0F)))
}

func (c *CPU) sknp(ins opcode.Instruction) (Result, error) {
	return c.skipIf(!c.bus.IsKeyPressed(bus.Key(c.V[ins.X()] & 0x0F)))
}

func (c *CPU) ldVxDT(ins opcode.Instruction) (Result, error) {
	c.V[ins.X()] = c.DelayTimer
	return c.next()
}

// ldVxK is the suspension point of the engine: without a latched key it
// changes nothing, so the next step executes it again.
func (c *CPU) ldVxK(ins opcode.Instruction) (Result, error) {
	key, ok := c.bus.Key()
	if !ok {
		return WaitingForKey, nil
	}
	c.V[ins.X()] = uint8(key)
	return c.next()
}

func (c *CPU) ldDTVx(ins opcode.Instruction) (Result, error) {
	c.DelayTimer = c.V[ins.X()]
	return c.next()
}

func (c *CPU) ldSTVx(ins opcode.Instruction) (Result, error) {
	c.SoundTimer = c.V[ins.X()]
	return c.next()
}

func (c *CPU) addIVx(ins opcode.Instruction) (Result, error) {
	c.I += uint16(c.V[ins.X()])
	return c.next()
}

func (c *CPU) ldF(ins opcode.Instruction) (Result, error) {
	c.I = memory.GlyphAddress(c.V[ins.X()])
	return c.next()
}

func (c *CPU) ldB(ins opcode.Instruction) (Result, error) {
	value := c.V[ins.X()]
	digits := [3]uint8{value / 100, value / 10 % 10, value % 10}

	for i, d := range digits {
		if err := c.mem.Write(c.I+uint16(i), d); err != nil {
			return Executed, fmt.Errorf("storing BCD digits: %w", err)
		}
	}
	return c.next()
}

func (c *CPU) ldMemVx(ins opcode.Instruction) (Result, error) {
	x := ins.X()
	for r := uint8(0); r <= x; r++ {
		if err := c.mem.Write(c.I+uint16(r), c.V[r]); err != nil {
			return Executed, fmt.Errorf("storing registers: %w", err)
		}
	}
	if c.quirks.LoadStoreIncrementsI {
		c.I += uint16(x) + 1
	}
	return c.next()
}

func (c *CPU) ldVxMem(ins opcode.Instruction) (Result, error) {
	x := ins.X()
	for r := uint8(0); r <= x; r++ {
		value, err := c.mem.Read(c.I + uint16(r))
		if err != nil {
			return Executed, fmt.Errorf("loading registers: %w", err)
		}
		c.V[r] = value
	}
	if c.quirks.LoadStoreIncrementsI {
		c.I += uint16(x) + 1
	}
	return c.next()
}
