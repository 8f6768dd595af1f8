// Package opcode defines the CHIP-8 instruction set as a two level table:
// the leading nibble selects an entry that is either a single operation or a
// group that sub-dispatches on the remaining fixed bits.
//
// The table is shared by the execution engine, the disassembler and the
// assembler so that the three always agree on encodings and mnemonics.
package opcode

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// ID identifies an operation of the instruction set.
type ID int

// Operations in opcode order.
const (
	Cls     ID = iota // 00E0
	Ret               // 00EE
	Jp                // 1nnn
	Call              // 2nnn
	SeByte            // 3xkk
	SneByte           // 4xkk
	SeReg             // 5xy0
	LdByte            // 6xkk
	AddByte           // 7xkk
	LdReg             // 8xy0
	Or                // 8xy1
	And               // 8xy2
	Xor               // 8xy3
	AddReg            // 8xy4
	Sub               // 8xy5
	Shr               // 8xy6
	Subn              // 8xy7
	Shl               // 8xyE
	SneReg            // 9xy0
	LdI               // Annn
	JpV0              // Bnnn
	Rnd               // Cxkk
	Drw               // Dxyn
	Skp               // Ex9E
	Sknp              // ExA1
	LdVxDT            // Fx07
	LdVxK             // Fx0A
	LdDTVx            // Fx15
	LdSTVx            // Fx18
	AddIVx            // Fx1E
	LdF               // Fx29
	LdB               // Fx33
	LdMemVx           // Fx55
	LdVxMem           // Fx65

	Count int = iota
)

// Kind describes an operand of the mnemonic form of an operation.
type Kind int

// Operand kinds.
const (
	RegX     Kind = iota // Vx from the second nibble
	RegY                 // Vy from the third nibble
	RegYOpt              // Vy, omitted in text when zero
	RegV0                // literal V0
	Addr                 // 12-bit address
	Byte                 // 8-bit immediate
	Nibble               // 4-bit immediate
	RegI                 // literal I
	DelayT               // literal DT
	SoundT               // literal ST
	KeyK                 // literal K
	GlyphF               // literal F
	BCDB                 // literal B
	MemI                 // literal [I]
)

// Op is an operation of the instruction set.
type Op struct {
	ID       ID
	Pattern  uint16 // fixed bits of the encoding
	Mask     uint16 // bits compared against Pattern when decoding
	Operands []Kind // operands of the mnemonic form, in text order

	ins *chip8.Instruction
}

// Name returns the upper case mnemonic of the operation.
func (o *Op) Name() string {
	return strings.ToUpper(o.ins.Name)
}

// Instruction returns the instruction definition the operation belongs to.
func (o *Op) Instruction() *chip8.Instruction {
	return o.ins
}

// Matches returns whether the instruction word is an encoding of the operation.
func (o *Op) Matches(w Instruction) bool {
	return uint16(w)&o.Mask == o.Pattern
}

// Fields contains the operand values of an instruction.
type Fields struct {
	X, Y uint8
	N    uint8
	KK   uint8
	NNN  uint16
}

// Encode builds the instruction word for the given operand fields. Fields not
// used by the operation are ignored.
func (o *Op) Encode(f Fields) Instruction {
	var v uint16
	for _, k := range o.Operands {
		switch k {
		case RegX:
			v |= uint16(f.X&0x0F) << 8
		case RegY, RegYOpt:
			v |= uint16(f.Y&0x0F) << 4
		case Addr:
			v |= f.NNN & 0x0FFF
		case Byte:
			v |= uint16(f.KK)
		case Nibble:
			v |= uint16(f.N & 0x0F)
		}
	}
	return Instruction(o.Pattern | v&^o.Mask)
}

// Canonical returns whether the instruction word is the encoding that Encode
// produces for its operand fields. Decoding ignores some bits, so 5xy1 runs as
// SE Vx, Vy but is not its canonical form.
func (o *Op) Canonical(w Instruction) bool {
	return o.Encode(w.Fields()) == w
}

// IsJump returns whether the operation unconditionally transfers control.
func (o *Op) IsJump() bool {
	return o.ID == Jp || o.ID == JpV0
}

// IsCall returns whether the operation calls a subroutine.
func (o *Op) IsCall() bool {
	return o.ins == chip8.CallInst
}

// IsReturn returns whether the operation returns from a subroutine.
func (o *Op) IsReturn() bool {
	return o.ins == chip8.RetInst
}

// IsSkip returns whether the operation conditionally skips the next instruction.
func (o *Op) IsSkip() bool {
	switch o.ID {
	case SeByte, SneByte, SeReg, SneReg, Skp, Sknp:
		return true
	default:
		return false
	}
}

// ReferencesAddress returns whether the 12-bit operand is a memory address.
func (o *Op) ReferencesAddress() bool {
	for _, k := range o.Operands {
		if k == Addr {
			return true
		}
	}
	return false
}

func (o *Op) String() string {
	return fmt.Sprintf("%s/%04X", o.Name(), o.Pattern)
}

var ops = [Count]*Op{
	{ID: Cls, Pattern: 0x00E0, Mask: 0xF0FF, ins: chip8.ClsInst},
	{ID: Ret, Pattern: 0x00EE, Mask: 0xF0FF, ins: chip8.RetInst},
	{ID: Jp, Pattern: 0x1000, Mask: 0xF000, ins: chip8.JpInst, Operands: []Kind{Addr}},
	{ID: Call, Pattern: 0x2000, Mask: 0xF000, ins: chip8.CallInst, Operands: []Kind{Addr}},
	{ID: SeByte, Pattern: 0x3000, Mask: 0xF000, ins: chip8.SeInst, Operands: []Kind{RegX, Byte}},
	{ID: SneByte, Pattern: 0x4000, Mask: 0xF000, ins: chip8.SneInst, Operands: []Kind{RegX, Byte}},
	{ID: SeReg, Pattern: 0x5000, Mask: 0xF000, ins: chip8.SeInst, Operands: []Kind{RegX, RegY}},
	{ID: LdByte, Pattern: 0x6000, Mask: 0xF000, ins: chip8.LdInst, Operands: []Kind{RegX, Byte}},
	{ID: AddByte, Pattern: 0x7000, Mask: 0xF000, ins: chip8.AddInst, Operands: []Kind{RegX, Byte}},
	{ID: LdReg, Pattern: 0x8000, Mask: 0xF00F, ins: chip8.LdInst, Operands: []Kind{RegX, RegY}},
	{ID: Or, Pattern: 0x8001, Mask: 0xF00F, ins: chip8.OrInst, Operands: []Kind{RegX, RegY}},
	{ID: And, Pattern: 0x8002, Mask: 0xF00F, ins: chip8.AndInst, Operands: []Kind{RegX, RegY}},
	{ID: Xor, Pattern: 0x8003, Mask: 0xF00F, ins: chip8.XorInst, Operands: []Kind{RegX, RegY}},
	{ID: AddReg, Pattern: 0x8004, Mask: 0xF00F, ins: chip8.AddInst, Operands: []Kind{RegX, RegY}},
	{ID: Sub, Pattern: 0x8005, Mask: 0xF00F, ins: chip8.SubInst, Operands: []Kind{RegX, RegY}},
	{ID: Shr, Pattern: 0x8006, Mask: 0xF00F, ins: chip8.ShrInst, Operands: []Kind{RegX, RegYOpt}},
	{ID: Subn, Pattern: 0x8007, Mask: 0xF00F, ins: chip8.SubnInst, Operands: []Kind{RegX, RegY}},
	{ID: Shl, Pattern: 0x800E, Mask: 0xF00F, ins: chip8.ShlInst, Operands: []Kind{RegX, RegYOpt}},
	{ID: SneReg, Pattern: 0x9000, Mask: 0xF000, ins: chip8.SneInst, Operands: []Kind{RegX, RegY}},
	{ID: LdI, Pattern: 0xA000, Mask: 0xF000, ins: chip8.LdInst, Operands: []Kind{RegI, Addr}},
	{ID: JpV0, Pattern: 0xB000, Mask: 0xF000, ins: chip8.JpInst, Operands: []Kind{RegV0, Addr}},
	{ID: Rnd, Pattern: 0xC000, Mask: 0xF000, ins: chip8.RndInst, Operands: []Kind{RegX, Byte}},
	{ID: Drw, Pattern: 0xD000, Mask: 0xF000, ins: chip8.DrwInst, Operands: []Kind{RegX, RegY, Nibble}},
	{ID: Skp, Pattern: 0xE09E, Mask: 0xF0FF, ins: chip8.SkpInst, Operands: []Kind{RegX}},
	{ID: Sknp, Pattern: 0xE0A1, Mask: 0xF0FF, ins: chip8.SknpInst, Operands: []Kind{RegX}},
	{ID: LdVxDT, Pattern: 0xF007, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{RegX, DelayT}},
	{ID: LdVxK, Pattern: 0xF00A, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{RegX, KeyK}},
	{ID: LdDTVx, Pattern: 0xF015, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{DelayT, RegX}},
	{ID: LdSTVx, Pattern: 0xF018, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{SoundT, RegX}},
	{ID: AddIVx, Pattern: 0xF01E, Mask: 0xF0FF, ins: chip8.AddInst, Operands: []Kind{RegI, RegX}},
	{ID: LdF, Pattern: 0xF029, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{GlyphF, RegX}},
	{ID: LdB, Pattern: 0xF033, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{BCDB, RegX}},
	{ID: LdMemVx, Pattern: 0xF055, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{MemI, RegX}},
	{ID: LdVxMem, Pattern: 0xF065, Mask: 0xF0FF, ins: chip8.LdInst, Operands: []Kind{RegX, MemI}},
}

// group is an entry of the primary table. A group with a single operation
// covering the whole leading nibble has no sub table.
type group struct {
	single  *Op
	keyMask uint16
	sub     map[uint16]*Op
}

var primary [16]group

func init() {
	for _, op := range ops {
		nibble := op.Pattern >> 12
		g := &primary[nibble]

		if op.Mask == 0xF000 {
			if g.single != nil || g.sub != nil {
				panic(fmt.Sprintf("opcode table: conflicting entries for nibble %X", nibble))
			}
			g.single = op
			continue
		}

		keyMask := op.Mask & 0x0FFF
		if g.sub == nil {
			g.sub = map[uint16]*Op{}
			g.keyMask = keyMask
		}
		if g.single != nil || g.keyMask != keyMask {
			panic(fmt.Sprintf("opcode table: inconsistent sub dispatch for nibble %X", nibble))
		}
		g.sub[op.Pattern&keyMask] = op
	}
}

// Decode looks up the operation encoded by the instruction word. It returns
// false for words that no operation claims.
func Decode(w Instruction) (*Op, bool) {
	g := &primary[w>>12]
	if g.single != nil {
		return g.single, true
	}
	op, ok := g.sub[uint16(w)&g.keyMask]
	return op, ok
}

// Get returns the operation for the given ID.
func Get(id ID) *Op {
	return ops[id]
}

// All returns all operations in opcode order.
func All() []*Op {
	return ops[:]
}

// ByName returns all operations sharing the given mnemonic, in opcode order.
func ByName(name string) []*Op {
	name = strings.ToUpper(name)
	var result []*Op
	for _, op := range ops {
		if op.Name() == name {
			result = append(result, op)
		}
	}
	return result
}
