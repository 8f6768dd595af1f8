package opcode

// Instruction is a raw 16-bit CHIP-8 instruction word.
type Instruction uint16

// Nibble returns the 4-bit field at position i, 0 being the most significant.
func (i Instruction) Nibble(pos int) uint8 {
	shift := uint(12 - 4*pos)
	return uint8(i>>shift) & 0x0F
}

// X returns the register index encoded in the second nibble.
func (i Instruction) X() uint8 {
	return uint8(i>>8) & 0x0F
}

// Y returns the register index encoded in the third nibble.
func (i Instruction) Y() uint8 {
	return uint8(i>>4) & 0x0F
}

// N returns the low nibble.
func (i Instruction) N() uint8 {
	return uint8(i) & 0x0F
}

// KK returns the 8-bit immediate in the low byte.
func (i Instruction) KK() uint8 {
	return uint8(i)
}

// NNN returns the 12-bit address operand.
func (i Instruction) NNN() uint16 {
	return uint16(i) & 0x0FFF
}

// Fields returns all operand fields of the instruction.
func (i Instruction) Fields() Fields {
	return Fields{X: i.X(), Y: i.Y(), N: i.N(), KK: i.KK(), NNN: i.NNN()}
}

// FromBytes builds an instruction from its big-endian byte pair.
func FromBytes(hi, lo byte) Instruction {
	return Instruction(uint16(hi)<<8 | uint16(lo))
}

// Bytes returns the big-endian byte pair of the instruction.
func (i Instruction) Bytes() [2]byte {
	return [2]byte{byte(i >> 8), byte(i)}
}
